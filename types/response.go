package types

// ErrorResponse is the JSON body rendered by the error middleware.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
