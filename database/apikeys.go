package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"skylog/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetAPIKey resolves an API key string to its tenant context. Only active
// keys resolve; revoked keys behave as if they never existed.
func (db *DB) GetAPIKey(ctx context.Context, key string) (*models.APIKey, error) {
	query := `
		SELECT k.id, k.key, k.organization, k.project_id, p.name,
		       k.user_email, k.is_active, k.created_at, k.last_used_at
		FROM api_keys k
		JOIN projects p ON p.id = k.project_id
		WHERE k.key = $1 AND k.is_active
	`

	var k models.APIKey
	err := db.Pool.QueryRow(ctx, query, key).Scan(
		&k.ID, &k.Key, &k.Organization, &k.ProjectID, &k.ProjectName,
		&k.UserEmail, &k.IsActive, &k.CreatedAt, &k.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}

	return &k, nil
}

// TouchAPIKey records that the key was just used. Callers run this
// best-effort in the background; it must never fail a request.
func (db *DB) TouchAPIKey(ctx context.Context, keyID uuid.UUID) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, keyID)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}

// CreateAPIKey issues a new key bound to the given project's tenant triple.
func (db *DB) CreateAPIKey(ctx context.Context, organization string, projectID uuid.UUID, userEmail string) (*models.APIKey, error) {
	key := generateAPIKey()

	query := `
		INSERT INTO api_keys (key, organization, project_id, user_email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, key, organization, project_id, user_email, is_active, created_at, last_used_at
	`

	var k models.APIKey
	err := db.Pool.QueryRow(ctx, query, key, organization, projectID, userEmail).Scan(
		&k.ID, &k.Key, &k.Organization, &k.ProjectID,
		&k.UserEmail, &k.IsActive, &k.CreatedAt, &k.LastUsedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}

	log.Printf("Created api key for org=%s project=%s", organization, projectID)
	return &k, nil
}

func generateAPIKey() string {
	return fmt.Sprintf("sk_%s", uuid.New().String())
}
