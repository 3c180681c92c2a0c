package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"skylog/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, organization, name, alert_email, latest_cpu, latest_memory,
	metrics_updated_at, last_alert_sent_at, created_at`

// CreateProject registers a project under an organization. AlertEmail is the
// recipient for threshold alerts; empty falls back to the pushing key's user.
func (db *DB) CreateProject(ctx context.Context, organization, name, alertEmail string) (*models.Project, error) {
	query := fmt.Sprintf(`
		INSERT INTO projects (organization, name, alert_email)
		VALUES ($1, $2, $3)
		RETURNING %s
	`, projectColumns)

	project, err := scanProject(db.Pool.QueryRow(ctx, query, organization, name, alertEmail))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.Printf("Created project: %s/%s (ID: %s)", organization, name, project.ID)
	return project, nil
}

// GetProject fetches a project by id.
func (db *DB) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM projects
		WHERE id = $1
	`, projectColumns)

	project, err := scanProject(db.Pool.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// UpdateProjectMetrics stores the latest CPU/memory snapshot on the project
// record so the dashboard's monitoring view reads current values.
func (db *DB) UpdateProjectMetrics(ctx context.Context, projectID uuid.UUID, cpu, memory float64) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE projects
		SET latest_cpu = $2, latest_memory = $3, metrics_updated_at = NOW()
		WHERE id = $1
	`, projectID, cpu, memory)
	if err != nil {
		return fmt.Errorf("failed to update project metrics: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimAlertSlot atomically claims the right to send one alert for the
// project. The claim succeeds only when no alert was sent within the
// cooldown window; the conditional UPDATE makes concurrent metric pushes
// race safely, so exactly one of them sends mail. The cooldown timestamp is
// persisted, surviving process restarts.
func (db *DB) ClaimAlertSlot(ctx context.Context, projectID uuid.UUID, now time.Time, cooldown time.Duration) (bool, error) {
	cutoff := now.Add(-cooldown)

	result, err := db.Pool.Exec(ctx, `
		UPDATE projects
		SET last_alert_sent_at = $2
		WHERE id = $1
		  AND (last_alert_sent_at IS NULL OR last_alert_sent_at <= $3)
	`, projectID, now, cutoff)
	if err != nil {
		return false, fmt.Errorf("failed to claim alert slot: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// Helper functions

func scanProject(row rowScanner) (*models.Project, error) {
	var project models.Project
	err := row.Scan(
		&project.ID,
		&project.Organization,
		&project.Name,
		&project.AlertEmail,
		&project.LatestCPU,
		&project.LatestMemory,
		&project.MetricsUpdatedAt,
		&project.LastAlertSentAt,
		&project.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &project, nil
}
