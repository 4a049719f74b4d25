package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SessionRepository persists session snapshots to the planning_sessions
// table. The travel context is stored as a JSON blob; the phase and revision
// counter are lifted into columns for querying.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSession inserts or updates the session snapshot.
func (r *SessionRepository) SaveSession(ctx context.Context, session *Session) error {
	contextJSON, err := json.Marshal(session.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal session context: %w", err)
	}

	query := `
		INSERT INTO planning_sessions (id, user_id, phase, revision_count, error_message, context_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			revision_count = excluded.revision_count,
			error_message = excluded.error_message,
			context_data = excluded.context_data,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		string(session.Phase),
		session.RevisionCount,
		session.ErrorMessage,
		string(contextJSON),
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession loads a persisted session, or nil when it does not exist.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	query := `
		SELECT id, user_id, phase, revision_count, error_message, context_data, created_at, updated_at
		FROM planning_sessions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, sessionID)

	var (
		session     Session
		phase       string
		contextData string
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&session.ID, &session.UserID, &phase, &session.RevisionCount,
		&session.ErrorMessage, &contextData, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session.Phase = Phase(phase)
	if contextData != "" {
		if err := json.Unmarshal([]byte(contextData), &session.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session context: %w", err)
		}
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a persisted session.
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM planning_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessionsByUser returns the most recent sessions for a user, newest
// first.
func (r *SessionRepository) ListSessionsByUser(ctx context.Context, userID string, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, user_id, phase, revision_count, error_message, context_data, created_at, updated_at
		FROM planning_sessions WHERE user_id = ?
		ORDER BY updated_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var (
			session     Session
			phase       string
			contextData string
			createdAt   string
			updatedAt   string
		)
		if err := rows.Scan(&session.ID, &session.UserID, &phase, &session.RevisionCount,
			&session.ErrorMessage, &contextData, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		session.Phase = Phase(phase)
		if contextData != "" {
			if err := json.Unmarshal([]byte(contextData), &session.Context); err != nil {
				return nil, fmt.Errorf("failed to unmarshal session context: %w", err)
			}
		}
		if session.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}
