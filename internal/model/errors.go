package model

import "errors"

var (
	// ErrTitleRequired is returned when a session creation request is missing the title.
	ErrTitleRequired = errors.New("title is required")

	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when joining a session that has been closed.
	ErrSessionClosed = errors.New("session is closed")
)
