package service

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"taskminder/internal/database"
)

func openBackupTestDB(t *testing.T, path string) *database.DB {
	t.Helper()

	db, err := database.OpenSQLite(path)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(path)
	})

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestBackupRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	src := openBackupTestDB(t, "test_backup_src.db")

	now := time.Now().UTC()
	userID, err := src.ExecReturningID(
		"INSERT INTO users (email, password_hash, name, is_verified) VALUES (?, ?, ?, ?)",
		"owner@example.com", "hash", "Owner", true,
	)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	deadline := now.Add(time.Hour).Truncate(time.Second)
	taskID, err := src.ExecReturningID(
		"INSERT INTO tasks (user_id, title, description, start_at, deadline, reminder_lead_minutes, priority) VALUES (?, ?, ?, ?, ?, ?, ?)",
		userID, "Pack bags", "before the flight", now, deadline.Unix(), 30, "high",
	)
	if err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}

	if _, err := src.Exec(
		"INSERT INTO reminder_dispatches (task_id, deadline, dispatched_at) VALUES (?, ?, ?)",
		taskID, deadline.Unix(), now,
	); err != nil {
		t.Fatalf("Failed to seed dispatch: %v", err)
	}

	var buf bytes.Buffer
	if err := NewBackupService(src).ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}

	dst := openBackupTestDB(t, "test_backup_dst.db")
	if err := NewBackupService(dst).ImportFromReader(&buf); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	counts := map[string]int{}
	for _, table := range []string{"users", "tasks", "reminder_dispatches"} {
		var n int
		if err := dst.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		counts[table] = n
	}
	if counts["users"] != 1 || counts["tasks"] != 1 || counts["reminder_dispatches"] != 1 {
		t.Errorf("imported counts = %v, want one row per table", counts)
	}

	var email string
	var taskDeadline int64
	if err := dst.QueryRow("SELECT email FROM users WHERE id = ?", userID).Scan(&email); err != nil {
		t.Fatalf("Failed to read imported user: %v", err)
	}
	if email != "owner@example.com" {
		t.Errorf("imported email = %q, want %q", email, "owner@example.com")
	}
	if err := dst.QueryRow("SELECT deadline FROM tasks WHERE id = ?", taskID).Scan(&taskDeadline); err != nil {
		t.Fatalf("Failed to read imported task: %v", err)
	}
	if taskDeadline != deadline.Unix() {
		t.Errorf("imported deadline = %d, want %d", taskDeadline, deadline.Unix())
	}
}

// A restore that fails partway through must leave the database untouched,
// not with users but no tasks.
func TestImportRollsBackOnFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openBackupTestDB(t, "test_backup_rollback.db")

	// second user row collides on the primary key after the first succeeds
	backup := `{
		"version": "1.0",
		"database_type": "universal",
		"users": [
			{"id": 1, "email": "a@example.com", "password_hash": "x", "name": "A"},
			{"id": 1, "email": "b@example.com", "password_hash": "x", "name": "B"}
		],
		"tasks": [],
		"reminder_dispatches": []
	}`

	if err := NewBackupService(db).ImportFromReader(strings.NewReader(backup)); err == nil {
		t.Fatal("ImportFromReader() should fail on duplicate user ID")
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if n != 0 {
		t.Errorf("users after failed import = %d, want 0", n)
	}
}
