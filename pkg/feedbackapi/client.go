// Package feedbackapi is the HTTP client for the feedback gateway. Every
// environment uses the same client; only the base URL changes.
package feedbackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/types"
	"go.uber.org/zap"
)

// DefaultBaseURL points at a locally running gateway.
const DefaultBaseURL = "http://localhost:8080"

const defaultTimeout = 15 * time.Second

// ClientInterface defines the feedback operations used by the aquarium.
type ClientInterface interface {
	List(ctx context.Context) ([]types.Feedback, error)
	Create(ctx context.Context, req types.FeedbackCreate) (*types.Feedback, error)
	Get(ctx context.Context, id string) (*types.Feedback, error)
	Delete(ctx context.Context, id string) error
}

var _ ClientInterface = (*Client)(nil)

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("feedback api: %d %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("feedback api: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the gateway.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the gateway at baseURL. A path on baseURL,
// such as /api, prefixes every route.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.GetLogger().Named("feedbackapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured gateway address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(scheme string, parts ...string) string {
	u := c.baseURL.JoinPath(append([]string{"feedback"}, parts...)...)
	if scheme != "" {
		u.Scheme = scheme
	}
	return u.String()
}

// List returns every record, newest first.
func (c *Client) List(ctx context.Context) ([]types.Feedback, error) {
	var out []types.Feedback
	if err := c.do(ctx, http.MethodGet, c.endpoint(""), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.Feedback{}
	}
	return out, nil
}

// Create submits a message and returns the stored record.
func (c *Client) Create(ctx context.Context, req types.FeedbackCreate) (*types.Feedback, error) {
	var out types.Feedback
	if err := c.do(ctx, http.MethodPost, c.endpoint(""), req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*types.Feedback, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("feedback id is required")
	}
	var out types.Feedback
	if err := c.do(ctx, http.MethodGet, c.endpoint("", id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("feedback id is required")
	}
	return c.do(ctx, http.MethodDelete, c.endpoint("", id), nil, http.StatusNoContent, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugw("Sending feedback API request", "method", method, "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	var body types.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Message != "" {
		apiErr.Type = body.Type
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.Details = body.Details
	}
	return apiErr
}
