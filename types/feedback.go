package types

import (
	"strings"
	"time"
)

// Feedback represents a feedback entry stored in the hosted database.
// ID and CreatedAt are assigned by the store.
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackCreate represents the request body for submitting feedback.
type FeedbackCreate struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email,max=255"`
	Message string `json:"message" binding:"required,max=1000"`
}

// Normalize trims surrounding whitespace from every field.
func (f *FeedbackCreate) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)
}

// ToFeedback builds the record to persist. The store fills in ID and CreatedAt.
func (f FeedbackCreate) ToFeedback() *Feedback {
	return &Feedback{
		Name:    f.Name,
		Email:   f.Email,
		Message: f.Message,
	}
}
