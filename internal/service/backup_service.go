package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"taskminder/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string           `json:"version"`
	ExportedAt   time.Time        `json:"exported_at"`
	DatabaseType string           `json:"database_type"`
	Users        []UserBackup     `json:"users"`
	Tasks        []TaskBackup     `json:"tasks"`
	Dispatches   []DispatchBackup `json:"reminder_dispatches"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"password_hash"`
	Name           string    `json:"name"`
	ProfilePicture string    `json:"profile_picture"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TaskBackup represents a task record for backup
type TaskBackup struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	StartAt             time.Time `json:"start_at"`
	Deadline            int64     `json:"deadline"`
	ReminderLeadMinutes int       `json:"reminder_lead_minutes"`
	Priority            string    `json:"priority"`
	Completed           bool      `json:"completed"`
	CreatedAt           time.Time `json:"created_at"`
}

// DispatchBackup represents a reminder dispatch record for backup
type DispatchBackup struct {
	TaskID       int64     `json:"task_id"`
	Deadline     int64     `json:"deadline"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter exports the database to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportTasks(backup); err != nil {
		return fmt.Errorf("failed to export tasks: %w", err)
	}
	if err := s.exportDispatches(backup); err != nil {
		return fmt.Errorf("failed to export reminder dispatches: %w", err)
	}

	log.Printf("Exported: %d users, %d tasks, %d dispatches",
		len(backup.Users), len(backup.Tasks), len(backup.Dispatches))

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(backup)
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader (for file uploads)
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// The whole restore is one transaction: a failure partway through must
	// not leave users without their tasks or dispatch records
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	// Import in order of dependencies
	if err := s.importUsers(tx, backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importTasks(tx, backup.Tasks); err != nil {
		return fmt.Errorf("failed to import tasks: %w", err)
	}
	if err := s.importDispatches(tx, backup.Dispatches); err != nil {
		return fmt.Errorf("failed to import reminder dispatches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import transaction: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, COALESCE(profile_picture, ''), is_verified, created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.ProfilePicture, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportTasks(backup *BackupData) error {
	query := "SELECT id, user_id, title, COALESCE(description, ''), start_at, deadline, reminder_lead_minutes, priority, completed, created_at FROM tasks ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t TaskBackup
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.StartAt, &t.Deadline, &t.ReminderLeadMinutes, &t.Priority, &t.Completed, &t.CreatedAt); err != nil {
			return err
		}
		backup.Tasks = append(backup.Tasks, t)
	}
	return rows.Err()
}

func (s *BackupService) exportDispatches(backup *BackupData) error {
	query := "SELECT task_id, deadline, dispatched_at FROM reminder_dispatches ORDER BY task_id, deadline"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d DispatchBackup
		if err := rows.Scan(&d.TaskID, &d.Deadline, &d.DispatchedAt); err != nil {
			return err
		}
		backup.Dispatches = append(backup.Dispatches, d)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(tx database.DBTX, users []UserBackup) error {
	log.Printf("Importing %d users...", len(users))
	for _, u := range users {
		query := "INSERT INTO users (id, email, password_hash, name, profile_picture, is_verified, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := tx.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name, nullIfEmpty(u.ProfilePicture), u.IsVerified, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importTasks(tx database.DBTX, tasks []TaskBackup) error {
	log.Printf("Importing %d tasks...", len(tasks))
	for _, t := range tasks {
		query := "INSERT INTO tasks (id, user_id, title, description, start_at, deadline, reminder_lead_minutes, priority, completed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := tx.Exec(query, t.ID, t.UserID, t.Title, nullIfEmpty(t.Description), t.StartAt, t.Deadline, t.ReminderLeadMinutes, t.Priority, t.Completed, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import task %d: %w", t.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importDispatches(tx database.DBTX, dispatches []DispatchBackup) error {
	log.Printf("Importing %d reminder dispatches...", len(dispatches))
	for _, d := range dispatches {
		query := "INSERT INTO reminder_dispatches (task_id, deadline, dispatched_at) VALUES (?, ?, ?)"
		_, err := tx.Exec(query, d.TaskID, d.Deadline, d.DispatchedAt)
		if err != nil {
			return fmt.Errorf("failed to import dispatch for task %d: %w", d.TaskID, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
