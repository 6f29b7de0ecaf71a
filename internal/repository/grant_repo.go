package repository

import (
	"database/sql"
	"fmt"
	"time"

	"taskminder/internal/database"
	"taskminder/internal/models"
)

// GrantRepository handles database operations for password-reset grants
type GrantRepository struct {
	db *database.DB
}

// NewGrantRepository creates a new reset-grant repository
func NewGrantRepository(db *database.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// Create stores a new grant for a user
func (r *GrantRepository) Create(token string, userID int64, expiresAt time.Time) error {
	query := `
		INSERT INTO password_reset_grants (token, user_id, expires_at)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.Exec(query, token, userID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset grant: %w", err)
	}
	return nil
}

// Get retrieves a grant by token, or nil if none exists
func (r *GrantRepository) Get(token string) (*models.ResetGrant, error) {
	query := `
		SELECT token, user_id, expires_at, used, created_at
		FROM password_reset_grants
		WHERE token = ?
	`
	grant := &models.ResetGrant{}
	err := r.db.QueryRow(query, token).Scan(
		&grant.Token,
		&grant.UserID,
		&grant.ExpiresAt,
		&grant.Used,
		&grant.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset grant: %w", err)
	}
	return grant, nil
}

// MarkUsed consumes a grant. Returns false if it was already consumed, so a
// race between two reset attempts yields exactly one winner.
func (r *GrantRepository) MarkUsed(token string) (bool, error) {
	query := `
		UPDATE password_reset_grants
		SET used = ` + r.db.Dialect.BoolValue(true) + `
		WHERE token = ? AND used = ` + r.db.Dialect.BoolValue(false) + `
	`
	result, err := r.db.Exec(query, token)
	if err != nil {
		return false, fmt.Errorf("failed to mark grant used: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read grant result: %w", err)
	}
	return rows > 0, nil
}

// DeleteForUser removes all grants belonging to a user. Issuing a new grant
// invalidates any prior one.
func (r *GrantRepository) DeleteForUser(userID int64) error {
	query := "DELETE FROM password_reset_grants WHERE user_id = ?"
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to delete user grants: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired grants
func (r *GrantRepository) DeleteExpired() error {
	query := "DELETE FROM password_reset_grants WHERE expires_at < ?"
	if _, err := r.db.Exec(query, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired grants: %w", err)
	}
	return nil
}
