package model

import "time"

// SessionStatus represents the status of a chat session.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// ChatSession is the persisted metadata for one logical chat conversation.
// Message content is never stored.
type ChatSession struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Jurisdiction string        `json:"jurisdiction,omitempty"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// CreateSessionRequest represents a request to create a new chat session.
type CreateSessionRequest struct {
	Title        string `json:"title" binding:"required"`
	Jurisdiction string `json:"jurisdiction"`
}

// Validate validates the create session request.
func (r *CreateSessionRequest) Validate() error {
	if r.Title == "" {
		return ErrTitleRequired
	}
	return nil
}
