package database

import (
	"fmt"
	"log"
)

// migration is a named, ordered schema change. Statements are built against
// the active dialect so one definition covers sqlite, postgres and mysql.
type migration struct {
	name       string
	statements func(d Dialect) []string
}

var migrations = []migration{
	{
		name: "001_create_users",
		statements: func(d Dialect) []string {
			return []string{fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS users (
					id %s,
					email VARCHAR(255) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					name VARCHAR(255) NOT NULL,
					profile_picture TEXT,
					is_verified BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`, d.AutoIncrementPK())}
		},
	},
	{
		name: "002_create_otp_challenges",
		statements: func(d Dialect) []string {
			return []string{`
				CREATE TABLE IF NOT EXISTS otp_challenges (
					user_id BIGINT NOT NULL,
					purpose VARCHAR(16) NOT NULL,
					code VARCHAR(6) NOT NULL,
					issued_at TIMESTAMP NOT NULL,
					expires_at TIMESTAMP NOT NULL,
					consumed BOOLEAN NOT NULL DEFAULT FALSE,
					PRIMARY KEY (user_id, purpose),
					FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
				);
			`}
		},
	},
	{
		name: "003_create_password_reset_grants",
		statements: func(d Dialect) []string {
			return []string{`
				CREATE TABLE IF NOT EXISTS password_reset_grants (
					token VARCHAR(64) PRIMARY KEY,
					user_id BIGINT NOT NULL,
					expires_at TIMESTAMP NOT NULL,
					used BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
				);
			`}
		},
	},
	{
		name: "004_create_tasks",
		statements: func(d Dialect) []string {
			return []string{
				fmt.Sprintf(`
					CREATE TABLE IF NOT EXISTS tasks (
						id %s,
						user_id BIGINT NOT NULL,
						title VARCHAR(255) NOT NULL,
						description TEXT,
						start_at TIMESTAMP NOT NULL,
						deadline BIGINT NOT NULL,
						reminder_lead_minutes INTEGER NOT NULL DEFAULT 0,
						priority VARCHAR(16) NOT NULL DEFAULT 'medium',
						completed BOOLEAN NOT NULL DEFAULT FALSE,
						created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
					);
				`, d.AutoIncrementPK()),
				`CREATE INDEX idx_tasks_user ON tasks(user_id);`,
				`CREATE INDEX idx_tasks_deadline ON tasks(deadline);`,
			}
		},
	},
	{
		name: "005_create_reminder_dispatches",
		statements: func(d Dialect) []string {
			return []string{`
				CREATE TABLE IF NOT EXISTS reminder_dispatches (
					task_id BIGINT NOT NULL,
					deadline BIGINT NOT NULL,
					dispatched_at TIMESTAMP NOT NULL,
					PRIMARY KEY (task_id, deadline),
					FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
				);
			`}
		},
	},
}

// RunMigrations executes all pending schema migrations in order
func (db *DB) RunMigrations() error {
	// Create migrations table if it doesn't exist
	if err := db.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		hasRun, err := db.hasMigrationRun(m.name)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if hasRun {
			continue
		}

		for _, stmt := range m.statements(db.Dialect) {
			if _, err := db.DB.Exec(stmt); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", m.name, err)
			}
		}

		if err := db.recordMigration(m.name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}

		log.Printf("Migration completed: %s", m.name)
	}

	return nil
}

// createMigrationsTable creates the table to track completed migrations
func (db *DB) createMigrationsTable() error {
	_, err := db.DB.Exec(db.Dialect.CreateMigrationsTableQuery())
	return err
}

// hasMigrationRun checks if a migration has already been executed
func (db *DB) hasMigrationRun(name string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM migrations WHERE name = ?"
	err := db.QueryRow(query, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration marks a migration as completed
func (db *DB) recordMigration(name string) error {
	query := "INSERT INTO migrations (name) VALUES (?)"
	_, err := db.Exec(query, name)
	return err
}
