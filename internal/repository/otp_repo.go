package repository

import (
	"database/sql"
	"fmt"
	"time"

	"taskminder/internal/database"
	"taskminder/internal/models"
)

// OtpRepository handles database operations for OTP challenges.
// Each (user, purpose) pair holds at most one challenge row; the primary key
// enforces it.
type OtpRepository struct {
	db *database.DB
}

// NewOtpRepository creates a new OTP challenge repository
func NewOtpRepository(db *database.DB) *OtpRepository {
	return &OtpRepository{db: db}
}

// Get retrieves the challenge for a (user, purpose) pair, or nil if none exists
func (r *OtpRepository) Get(userID int64, purpose string) (*models.OtpChallenge, error) {
	query := `
		SELECT user_id, purpose, code, issued_at, expires_at, consumed
		FROM otp_challenges
		WHERE user_id = ? AND purpose = ?
	`
	ch := &models.OtpChallenge{}
	err := r.db.QueryRow(query, userID, purpose).Scan(
		&ch.UserID,
		&ch.Purpose,
		&ch.Code,
		&ch.IssuedAt,
		&ch.ExpiresAt,
		&ch.Consumed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp challenge: %w", err)
	}
	return ch, nil
}

// Replace overwrites the challenge for (user, purpose), but only if no
// challenge was issued after notBefore. The cooldown check and the write are
// a single compare-and-set so two concurrent issues cannot both pass.
// Returns false when the cooldown window has not elapsed.
func (r *OtpRepository) Replace(ch *models.OtpChallenge, notBefore time.Time) (bool, error) {
	update := `
		UPDATE otp_challenges
		SET code = ?, issued_at = ?, expires_at = ?, consumed = ` + r.db.Dialect.BoolValue(false) + `
		WHERE user_id = ? AND purpose = ? AND issued_at <= ?
	`
	result, err := r.db.Exec(update, ch.Code, ch.IssuedAt, ch.ExpiresAt, ch.UserID, ch.Purpose, notBefore)
	if err != nil {
		return false, fmt.Errorf("failed to replace otp challenge: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read replace result: %w", err)
	}
	if rows > 0 {
		return true, nil
	}

	// No row updated: either nothing exists yet, or a recent challenge
	// blocks the write
	var count int
	existsQuery := "SELECT COUNT(*) FROM otp_challenges WHERE user_id = ? AND purpose = ?"
	if err := r.db.QueryRow(existsQuery, ch.UserID, ch.Purpose).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check otp challenge: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	// First challenge for this pair. A concurrent insert losing the race
	// hits the primary key and is reported as the cooldown case.
	insert := `
		INSERT INTO otp_challenges (user_id, purpose, code, issued_at, expires_at, consumed)
		VALUES (?, ?, ?, ?, ?, ` + r.db.Dialect.BoolValue(false) + `)
	`
	inserted, err := r.db.ExecIgnoreConflict(insert, ch.UserID, ch.Purpose, ch.Code, ch.IssuedAt, ch.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert otp challenge: %w", err)
	}
	return inserted > 0, nil
}

// Put unconditionally writes a challenge, restoring prior state after a
// failed delivery
func (r *OtpRepository) Put(ch *models.OtpChallenge) error {
	if err := r.Delete(ch.UserID, ch.Purpose); err != nil {
		return err
	}
	query := `
		INSERT INTO otp_challenges (user_id, purpose, code, issued_at, expires_at, consumed)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, ch.UserID, ch.Purpose, ch.Code, ch.IssuedAt, ch.ExpiresAt, ch.Consumed); err != nil {
		return fmt.Errorf("failed to put otp challenge: %w", err)
	}
	return nil
}

// MarkConsumed consumes the challenge if it still holds the given code and
// has not been consumed yet. Returns false if another caller consumed it
// first or the challenge changed.
func (r *OtpRepository) MarkConsumed(userID int64, purpose, code string) (bool, error) {
	query := `
		UPDATE otp_challenges
		SET consumed = ` + r.db.Dialect.BoolValue(true) + `
		WHERE user_id = ? AND purpose = ? AND code = ? AND consumed = ` + r.db.Dialect.BoolValue(false) + `
	`
	result, err := r.db.Exec(query, userID, purpose, code)
	if err != nil {
		return false, fmt.Errorf("failed to consume otp challenge: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read consume result: %w", err)
	}
	return rows > 0, nil
}

// Delete removes the challenge for a (user, purpose) pair
func (r *OtpRepository) Delete(userID int64, purpose string) error {
	query := "DELETE FROM otp_challenges WHERE user_id = ? AND purpose = ?"
	if _, err := r.db.Exec(query, userID, purpose); err != nil {
		return fmt.Errorf("failed to delete otp challenge: %w", err)
	}
	return nil
}
