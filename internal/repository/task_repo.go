package repository

import (
	"database/sql"
	"fmt"
	"time"

	"taskminder/internal/database"
	"taskminder/internal/models"
)

// TaskRepository handles database operations for tasks
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = "id, user_id, title, COALESCE(description, ''), start_at, deadline, reminder_lead_minutes, priority, completed, created_at"

func scanTask(scan func(dest ...interface{}) error) (*models.Task, error) {
	task := &models.Task{}
	var deadline int64
	err := scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.StartAt,
		&deadline,
		&task.ReminderLeadMinutes,
		&task.Priority,
		&task.Completed,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Deadline = time.Unix(deadline, 0)
	return task, nil
}

// CreateTask inserts a new task and returns it with its assigned ID
func (r *TaskRepository) CreateTask(task *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (user_id, title, description, start_at, deadline, reminder_lead_minutes, priority, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		task.UserID,
		task.Title,
		task.Description,
		task.StartAt,
		task.Deadline.Unix(),
		task.ReminderLeadMinutes,
		task.Priority,
		task.Completed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created := *task
	created.ID = id
	created.CreatedAt = time.Now()
	return &created, nil
}

// GetTaskByID retrieves a task by ID, or nil if it does not exist
func (r *TaskRepository) GetTaskByID(id int64) (*models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = ?"
	task, err := scanTask(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// GetTasksByOwner retrieves all tasks owned by a user, soonest deadline first
func (r *TaskRepository) GetTasksByOwner(userID int64) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE user_id = ? ORDER BY deadline"
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// UpdateTask updates a task's mutable fields
func (r *TaskRepository) UpdateTask(task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, start_at = ?, deadline = ?, reminder_lead_minutes = ?, priority = ?, completed = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query,
		task.Title,
		task.Description,
		task.StartAt,
		task.Deadline.Unix(),
		task.ReminderLeadMinutes,
		task.Priority,
		task.Completed,
		task.ID,
	); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteTask deletes a task and its dispatch records
func (r *TaskRepository) DeleteTask(id int64) error {
	query := "DELETE FROM tasks WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// FindReminderCandidates returns incomplete tasks whose reminder window has
// opened (now is within the lead time of the deadline, or past it) and which
// have no dispatch record for their current deadline value. Overdue tasks
// that were never notified therefore still show up once.
func (r *TaskRepository) FindReminderCandidates(now time.Time) ([]models.ReminderCandidate, error) {
	query := `
		SELECT t.id, t.user_id, t.title, COALESCE(t.description, ''), t.start_at, t.deadline,
		       t.reminder_lead_minutes, t.priority, t.completed, t.created_at,
		       u.email, u.name
		FROM tasks t
		JOIN users u ON u.id = t.user_id
		LEFT JOIN reminder_dispatches rd ON rd.task_id = t.id AND rd.deadline = t.deadline
		WHERE t.completed = ` + r.db.Dialect.BoolValue(false) + `
		  AND (t.deadline - t.reminder_lead_minutes * 60) <= ?
		  AND rd.task_id IS NULL
		ORDER BY t.deadline
	`
	rows, err := r.db.Query(query, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.ReminderCandidate
	for rows.Next() {
		var c models.ReminderCandidate
		var deadline int64
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Title,
			&c.Description,
			&c.StartAt,
			&deadline,
			&c.ReminderLeadMinutes,
			&c.Priority,
			&c.Completed,
			&c.CreatedAt,
			&c.OwnerEmail,
			&c.OwnerName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder candidate: %w", err)
		}
		c.Deadline = time.Unix(deadline, 0)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
