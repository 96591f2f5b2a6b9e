package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meal-tracker/internal/model"
)

// SessionRepository holds each user's active-token collection. A token
// is valid only while its row exists; revocation deletes the row, so a
// structurally valid but revoked token fails the membership test.
type SessionRepository struct {
	db *Database
}

func NewSessionRepository(db *Database) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, userID, token string) (*model.Session, error) {
	var session model.Session
	query := `
		INSERT INTO sessions (user_id, token)
		VALUES ($1, $2)
		RETURNING id, user_id, token, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, userID, token).StructScan(&session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

// Exists is the membership test used by authentication.
func (r *SessionRepository) Exists(ctx context.Context, userID, token string) (bool, error) {
	var one int
	query := `SELECT 1 FROM sessions WHERE user_id = $1 AND token = $2`
	err := r.db.GetContext(ctx, &one, query, userID, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return true, nil
}

// Delete revokes exactly one token. Deleting a token that is not in
// the collection is a no-op, not an error.
func (r *SessionRepository) Delete(ctx context.Context, userID, token string) error {
	query := `DELETE FROM sessions WHERE user_id = $1 AND token = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteAll clears the user's entire token collection in one statement.
func (r *SessionRepository) DeleteAll(ctx context.Context, userID string) error {
	query := `DELETE FROM sessions WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sessions WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
