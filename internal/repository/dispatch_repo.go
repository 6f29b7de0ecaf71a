package repository

import (
	"fmt"
	"time"

	"taskminder/internal/database"
)

// DispatchRepository handles database operations for reminder dispatch
// records. The (task_id, deadline) primary key is the correctness anchor for
// exactly-once reminders per deadline value.
type DispatchRepository struct {
	db *database.DB
}

// NewDispatchRepository creates a new dispatch-record repository
func NewDispatchRepository(db *database.DB) *DispatchRepository {
	return &DispatchRepository{db: db}
}

// Record writes a dispatch record for (task, deadline). Returns false if a
// record already exists: a constraint conflict means another dispatch won,
// not an error.
func (r *DispatchRepository) Record(taskID int64, deadline, dispatchedAt time.Time) (bool, error) {
	query := `
		INSERT INTO reminder_dispatches (task_id, deadline, dispatched_at)
		VALUES (?, ?, ?)
	`
	inserted, err := r.db.ExecIgnoreConflict(query, taskID, deadline.Unix(), dispatchedAt)
	if err != nil {
		return false, fmt.Errorf("failed to record dispatch: %w", err)
	}
	return inserted > 0, nil
}

// Exists reports whether a dispatch record exists for (task, deadline)
func (r *DispatchRepository) Exists(taskID int64, deadline time.Time) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM reminder_dispatches WHERE task_id = ? AND deadline = ?"
	if err := r.db.QueryRow(query, taskID, deadline.Unix()).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check dispatch record: %w", err)
	}
	return count > 0, nil
}
