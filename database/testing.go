package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"skylog/models"

	"github.com/stretchr/testify/require"
)

var (
	testDB *DB
)

// GetTestDB returns the shared test database connection.
// Available after TestMain has run and SetupTestDB succeeded.
// Returns nil if called before TestMain.
func GetTestDB() *DB {
	return testDB
}

// SetupTestDB creates a test database connection and runs migrations.
// Should be called once in TestMain, not in individual tests.
// Migrations are embedded inline (not read from files) for test isolation.
// Returns error if connection fails or migrations fail.
func SetupTestDB(dbURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := runTestMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func runTestMigrations(db *DB) error {
	ctx := context.Background()

	migrations := []string{
		`
		CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			organization VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			alert_email VARCHAR(255) NOT NULL DEFAULT '',
			latest_cpu DOUBLE PRECISION,
			latest_memory DOUBLE PRECISION,
			metrics_updated_at TIMESTAMPTZ,
			last_alert_sent_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (organization, name)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS api_keys (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			key VARCHAR(64) UNIQUE NOT NULL,
			organization VARCHAR(255) NOT NULL,
			project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_email VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_api_keys_key ON api_keys(key);
		`,
		`
		CREATE TABLE IF NOT EXISTS logs (
			id UUID PRIMARY KEY,
			organization VARCHAR(255) NOT NULL,
			project VARCHAR(255) NOT NULL,
			user_email VARCHAR(255) NOT NULL,
			level VARCHAR(10) NOT NULL,
			message TEXT NOT NULL,
			source VARCHAR(20) NOT NULL,
			session_id VARCHAR(255) NOT NULL DEFAULT '',
			host_id VARCHAR(255) NOT NULL DEFAULT '',
			trace_id VARCHAR(255) NOT NULL DEFAULT '',
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_logs_org_timestamp ON logs(organization, timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_logs_level ON logs(level);
		CREATE INDEX IF NOT EXISTS idx_logs_source ON logs(source);
		CREATE INDEX IF NOT EXISTS idx_logs_session ON logs(session_id);
		CREATE INDEX IF NOT EXISTS idx_logs_message_search ON logs USING GIN (to_tsvector('english', message));
		`,
	}

	for _, migration := range migrations {
		_, err := db.Pool.Exec(ctx, migration)
		if err != nil {
			return err
		}
	}

	return nil
}

// CleanupTestDB truncates all tables for a fresh test state.
// Call this at the start of each integration test.
// Uses CASCADE to handle foreign key dependencies.
// Fails the test if truncation fails.
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	ctx := context.Background()
	_, err := db.Pool.Exec(ctx, "TRUNCATE TABLE logs, api_keys, projects CASCADE")
	require.NoError(t, err)
}

// CreateTestTenant provisions a project plus an active API key for it,
// returning the fully-resolved key context the way the auth middleware
// would see it.
func CreateTestTenant(t *testing.T, db *DB, organization, projectName, userEmail string) *models.APIKey {
	t.Helper()

	ctx := context.Background()

	project, err := db.CreateProject(ctx, organization, projectName, "")
	require.NoError(t, err)

	created, err := db.CreateAPIKey(ctx, organization, project.ID, userEmail)
	require.NoError(t, err)

	key, err := db.GetAPIKey(ctx, created.Key)
	require.NoError(t, err)

	return key
}

// TeardownTestDB closes the test database connection.
// Should be called once in TestMain after all tests complete.
// Safe to call with nil DB (no-op).
func TeardownTestDB(db *DB) {
	if db != nil {
		db.Close()
	}
}
