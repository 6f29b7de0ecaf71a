package models

import "time"

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task represents a work item owned by a user
type Task struct {
	ID                  int64
	UserID              int64
	Title               string
	Description         string
	StartAt             time.Time
	Deadline            time.Time
	ReminderLeadMinutes int
	Priority            string
	Completed           bool
	CreatedAt           time.Time
}

// ReminderWindowOpen reports whether the reminder window for the task has
// opened: now is within the configured lead time of the deadline, or the
// deadline has already passed.
func (t *Task) ReminderWindowOpen(now time.Time) bool {
	lead := time.Duration(t.ReminderLeadMinutes) * time.Minute
	return !now.Before(t.Deadline.Add(-lead))
}

// ReminderCandidate is a task eligible for a reminder, joined with the
// owner's contact details.
type ReminderCandidate struct {
	Task
	OwnerEmail string
	OwnerName  string
}
