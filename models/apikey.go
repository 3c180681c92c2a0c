package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey associates a caller with exactly one (organization, project, user)
// triple. It is the tenant-isolation anchor: ingest stamps every stored log
// with these values, and search is always scoped to Organization.
type APIKey struct {
	ID           uuid.UUID  `json:"id"`
	Key          string     `json:"key"`
	Organization string     `json:"organization"`
	ProjectID    uuid.UUID  `json:"project_id"`
	ProjectName  string     `json:"project"`
	UserEmail    string     `json:"user"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}
