package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is the unit a metrics-pushing agent reports against. It carries
// the latest system metrics snapshot and the alert cooldown state, which is
// persisted so the cooldown survives process restarts.
type Project struct {
	ID               uuid.UUID  `json:"id"`
	Organization     string     `json:"organization"`
	Name             string     `json:"name"`
	AlertEmail       string     `json:"alert_email,omitempty"`
	LatestCPU        *float64   `json:"latest_cpu,omitempty"`
	LatestMemory     *float64   `json:"latest_memory,omitempty"`
	MetricsUpdatedAt *time.Time `json:"metrics_updated_at,omitempty"`
	LastAlertSentAt  *time.Time `json:"last_alert_sent_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
