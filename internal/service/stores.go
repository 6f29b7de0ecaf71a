package service

import (
	"context"
	"time"

	"taskminder/internal/models"
)

// UserStore is the persistence surface for user accounts, satisfied by
// repository.UserRepository. Lookups return (nil, nil) when no row exists.
type UserStore interface {
	CreateUser(email, passwordHash, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id int64) (*models.User, error)
	MarkVerified(id int64) error
	UpdatePassword(id int64, passwordHash string) error
	UpdateSignupDetails(id int64, passwordHash, name string) error
	UpdateProfile(id int64, name, profilePicture string) error
	DeleteUser(id int64) error
}

// OtpStore is the persistence surface for OTP challenges, satisfied by
// repository.OtpRepository
type OtpStore interface {
	Get(userID int64, purpose string) (*models.OtpChallenge, error)
	Replace(ch *models.OtpChallenge, notBefore time.Time) (bool, error)
	Put(ch *models.OtpChallenge) error
	MarkConsumed(userID int64, purpose, code string) (bool, error)
	Delete(userID int64, purpose string) error
}

// GrantStore is the persistence surface for password-reset grants, satisfied
// by repository.GrantRepository
type GrantStore interface {
	Create(token string, userID int64, expiresAt time.Time) error
	Get(token string) (*models.ResetGrant, error)
	MarkUsed(token string) (bool, error)
	DeleteForUser(userID int64) error
	DeleteExpired() error
}

// TaskStore is the persistence surface for tasks, satisfied by
// repository.TaskRepository
type TaskStore interface {
	CreateTask(task *models.Task) (*models.Task, error)
	GetTaskByID(id int64) (*models.Task, error)
	GetTasksByOwner(userID int64) ([]models.Task, error)
	UpdateTask(task *models.Task) error
	DeleteTask(id int64) error
}

// ReminderSource yields tasks eligible for a reminder, satisfied by
// repository.TaskRepository
type ReminderSource interface {
	FindReminderCandidates(now time.Time) ([]models.ReminderCandidate, error)
}

// DispatchStore records delivered reminders, satisfied by
// repository.DispatchRepository
type DispatchStore interface {
	Record(taskID int64, deadline, dispatchedAt time.Time) (bool, error)
}

// Deliverer is the outbound email capability consumed by the OTP engine and
// the reminder scheduler, satisfied by EmailService
type Deliverer interface {
	SendOtpEmail(ctx context.Context, toEmail, toName, code, purpose string, expiresAt time.Time) error
	SendReminderEmail(ctx context.Context, toEmail, toName string, task *models.Task) error
}
