package handlers

import (
	"time"

	"taskminder/internal/models"
)

// UserView is the wire representation of a user. The password hash never
// leaves the server.
type UserView struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toUserView(u *models.User) UserView {
	return UserView{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt,
	}
}

// TaskView is the wire representation of a task
type TaskView struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	StartAt             time.Time `json:"startAt"`
	Deadline            time.Time `json:"deadline"`
	ReminderLeadMinutes int       `json:"reminderLeadMinutes"`
	Priority            string    `json:"priority"`
	Completed           bool      `json:"completed"`
	CreatedAt           time.Time `json:"createdAt"`
}

func toTaskView(t *models.Task) TaskView {
	return TaskView{
		ID:                  t.ID,
		Title:               t.Title,
		Description:         t.Description,
		StartAt:             t.StartAt,
		Deadline:            t.Deadline,
		ReminderLeadMinutes: t.ReminderLeadMinutes,
		Priority:            t.Priority,
		Completed:           t.Completed,
		CreatedAt:           t.CreatedAt,
	}
}
