// Package repository provides data access for chat session metadata.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jurishub/chatclient/internal/model"
)

// SessionRepository provides data access for chat sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new chat session into the database.
func (r *SessionRepository) Create(ctx context.Context, session *model.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, title, jurisdiction, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.Title,
		session.Jurisdiction,
		session.Status,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a chat session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.ChatSession, error) {
	query := `
		SELECT id, title, jurisdiction, status, created_at, updated_at
		FROM chat_sessions
		WHERE id = ?
	`

	session := &model.ChatSession{}
	var jurisdiction sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.Title,
		&jurisdiction,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if jurisdiction.Valid {
		session.Jurisdiction = jurisdiction.String
	}

	return session, nil
}

// List retrieves all chat sessions, most recently updated first.
func (r *SessionRepository) List(ctx context.Context) ([]*model.ChatSession, error) {
	query := `
		SELECT id, title, jurisdiction, status, created_at, updated_at
		FROM chat_sessions
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.ChatSession
	for rows.Next() {
		session := &model.ChatSession{}
		var jurisdiction sql.NullString

		if err := rows.Scan(
			&session.ID,
			&session.Title,
			&jurisdiction,
			&session.Status,
			&session.CreatedAt,
			&session.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		if jurisdiction.Valid {
			session.Jurisdiction = jurisdiction.String
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// UpdateStatus updates a session's status.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status model.SessionStatus) error {
	query := `
		UPDATE chat_sessions
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// UpdateJurisdiction updates a session's jurisdiction.
func (r *SessionRepository) UpdateJurisdiction(ctx context.Context, id, jurisdiction string) error {
	query := `
		UPDATE chat_sessions
		SET jurisdiction = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, jurisdiction, id)
	if err != nil {
		return fmt.Errorf("failed to update session jurisdiction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// Delete removes a chat session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}
