package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Log levels accepted at the ingest boundary.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Log sources accepted at the ingest boundary.
const (
	SourceTerminal = "terminal"
	SourceGithub   = "github"
	SourceGitlab   = "gitlab"
	SourceCI       = "ci"
)

var (
	validLevels  = map[string]bool{LevelDebug: true, LevelInfo: true, LevelWarn: true, LevelError: true}
	validSources = map[string]bool{SourceTerminal: true, SourceGithub: true, SourceGitlab: true, SourceCI: true}
)

// LogEvent is one log record. The client generates ID and Timestamp at
// capture time; tenant fields (Organization, Project, UserEmail) are
// attached server-side from the authenticated API key, and any
// client-supplied values for them are overwritten during ingest.
type LogEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Source    string         `json:"source"`
	SessionID string         `json:"sessionId,omitempty"`
	HostID    string         `json:"hostId,omitempty"`
	TraceID   string         `json:"traceId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	Organization string `json:"organization,omitempty"`
	Project      string `json:"project,omitempty"`
	UserEmail    string `json:"user,omitempty"`

	Rank *float64 `json:"rank,omitempty"` // Only populated for search results
}

// NewLogEvent constructs a client-side event with a fresh UUID and the
// current capture time.
func NewLogEvent(level, message, source string) LogEvent {
	return LogEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Source:    source,
	}
}

// Validate checks the event against the ingest schema: well-formed UUID,
// valid enums, non-empty message, and a real timestamp.
func (e *LogEvent) Validate() error {
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("invalid id %q: %w", e.ID, err)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if !validLevels[e.Level] {
		return fmt.Errorf("invalid level %q", e.Level)
	}
	if e.Message == "" {
		return fmt.Errorf("message is required")
	}
	if !validSources[e.Source] {
		return fmt.Errorf("invalid source %q", e.Source)
	}
	return nil
}

// SearchParams are the raw query parameters of a search request.
// Page and Limit stay strings here so non-numeric input can fall back to
// defaults instead of failing the bind.
type SearchParams struct {
	Query   string `form:"q"`
	Level   string `form:"level"`
	Source  string `form:"source"`
	Project string `form:"project"`
	From    string `form:"from"`
	To      string `form:"to"`
	Page    string `form:"page"`
	Limit   string `form:"limit"`
}

// SearchFilter is the validated, tenant-scoped filter the storage layer
// executes. Organization is always the authenticated caller's own.
type SearchFilter struct {
	Query        string
	Level        string
	Source       string
	Organization string
	Project      string
	From         string
	To           string
	Limit        int
	Offset       int
}

// Pagination reports result counts for a search page.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// SearchResponse is the wire shape of a search result page.
type SearchResponse struct {
	Data       []LogEvent `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// LogContext is the chronological window around a target log. Before and
// After are both in ascending timestamp order.
type LogContext struct {
	TargetLog LogEvent   `json:"targetLog"`
	Before    []LogEvent `json:"before"`
	After     []LogEvent `json:"after"`
}

// BatchAck is the ingest endpoint's acknowledgement. Processed counts every
// submitted row, including duplicates absorbed by the store.
type BatchAck struct {
	Status    string `json:"status"`
	Processed int    `json:"processed"`
}

// MetricsSnapshot is one periodic system metrics sample. CPU and Memory are
// percentages in [0, 100].
type MetricsSnapshot struct {
	CPU          float64 `json:"cpu"`
	Memory       float64 `json:"memory"`
	MemoryUsedGB float64 `json:"memoryUsedGB,omitempty"`
}
