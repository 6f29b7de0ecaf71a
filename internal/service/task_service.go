package service

import (
	"fmt"
	"time"

	"taskminder/internal/models"
	"taskminder/internal/validation"
)

// TaskInput carries the caller-editable fields of a task
type TaskInput struct {
	Title               string
	Description         string
	StartAt             time.Time
	Deadline            time.Time
	ReminderLeadMinutes int
	Priority            string
	Completed           bool
}

// TaskService handles task CRUD on behalf of the owning user. All reads and
// mutations are scoped to the owner; other users' tasks are reported as not
// found.
type TaskService struct {
	tasks TaskStore
}

// NewTaskService creates a new task service
func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

func validateTaskInput(in *TaskInput) error {
	if in.Title == "" {
		return validation.ValidationError{Field: "title", Message: "title is required"}
	}
	if in.Deadline.IsZero() {
		return validation.ValidationError{Field: "deadline", Message: "deadline is required"}
	}
	if err := validation.ValidateReminderLead(in.ReminderLeadMinutes); err != nil {
		return err
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	return validation.ValidatePriority(in.Priority)
}

// CreateTask creates a task owned by the given user
func (s *TaskService) CreateTask(userID int64, in TaskInput) (*models.Task, error) {
	if err := validateTaskInput(&in); err != nil {
		return nil, err
	}
	if in.StartAt.IsZero() {
		in.StartAt = time.Now()
	}

	task := &models.Task{
		UserID:              userID,
		Title:               in.Title,
		Description:         in.Description,
		StartAt:             in.StartAt,
		Deadline:            in.Deadline,
		ReminderLeadMinutes: in.ReminderLeadMinutes,
		Priority:            in.Priority,
		Completed:           in.Completed,
	}

	created, err := s.tasks.CreateTask(task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// GetTasks returns all tasks owned by the user
func (s *TaskService) GetTasks(userID int64) ([]models.Task, error) {
	tasks, err := s.tasks.GetTasksByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a single task owned by the user
func (s *TaskService) GetTask(userID, taskID int64) (*models.Task, error) {
	task, err := s.tasks.GetTaskByID(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil || task.UserID != userID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// UpdateTask replaces the editable fields of a task owned by the user.
// Changing the deadline re-arms the reminder: the dispatch record is keyed
// on the deadline value, so the new value is eligible for a fresh reminder.
func (s *TaskService) UpdateTask(userID, taskID int64, in TaskInput) (*models.Task, error) {
	task, err := s.GetTask(userID, taskID)
	if err != nil {
		return nil, err
	}
	if err := validateTaskInput(&in); err != nil {
		return nil, err
	}
	if in.StartAt.IsZero() {
		in.StartAt = task.StartAt
	}

	task.Title = in.Title
	task.Description = in.Description
	task.StartAt = in.StartAt
	task.Deadline = in.Deadline
	task.ReminderLeadMinutes = in.ReminderLeadMinutes
	task.Priority = in.Priority
	task.Completed = in.Completed

	if err := s.tasks.UpdateTask(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task owned by the user
func (s *TaskService) DeleteTask(userID, taskID int64) error {
	if _, err := s.GetTask(userID, taskID); err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
