package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"skylog/models"
)

// SearchQueryParser validates and transforms user search queries to
// PostgreSQL tsquery format. Enforces minimum/maximum length, sanitizes
// special characters, and emits prefix-matching terms so partially typed
// words still hit.
type SearchQueryParser struct {
	minLength int
	maxLength int
}

// NewSearchQueryParser creates a SearchQueryParser with default limits:
// minimum 3 characters, maximum 1000 characters. These limits prevent
// performance issues and abuse.
func NewSearchQueryParser() *SearchQueryParser {
	return &SearchQueryParser{
		minLength: 3,
		maxLength: 1000,
	}
}

// Parse converts a user's search query to PostgreSQL tsquery format:
//
//  1. Trims whitespace
//  2. Validates length (min 3, max 1000 chars)
//  3. Removes quotes, parentheses, and tsquery operators
//  4. Splits into words, dropping single-character ones
//  5. Lowercases and appends :* for prefix matching
//  6. Joins with " & " (AND operator)
//
// Examples:
//
//	"Hello World" → "hello:* & world:*"
//	"connection timeout" → "connection:* & timeout:*"
//
// Returns error if the query is too short, too long, or becomes empty after
// filtering.
func (p *SearchQueryParser) Parse(query string) (string, error) {
	query = strings.TrimSpace(query)

	if len(query) < p.minLength {
		return "", fmt.Errorf("search query must be at least %d characters", p.minLength)
	}

	if len(query) > p.maxLength {
		return "", fmt.Errorf("search query too long (max %d characters)", p.maxLength)
	}

	query = p.sanitize(query)

	words := strings.Fields(query)
	if len(words) == 0 {
		return "", fmt.Errorf("search query is empty")
	}

	validWords := p.filterValidWords(words)
	if len(validWords) == 0 {
		return "", fmt.Errorf("no valid search terms")
	}

	terms := make([]string, len(validWords))
	for i, w := range validWords {
		terms[i] = w + ":*"
	}

	return strings.Join(terms, " & "), nil
}

func (p *SearchQueryParser) sanitize(query string) string {
	replacements := map[string]string{
		`"`: "",
		"'": "",
		"(": "",
		")": "",
		"&": " ",
		"|": " ",
		"!": "",
		":": " ",
		"*": "",
	}

	for old, new := range replacements {
		query = strings.ReplaceAll(query, old, new)
	}

	return query
}

func (p *SearchQueryParser) filterValidWords(words []string) []string {
	valid := []string{}
	for _, word := range words {
		if len(word) >= 2 {
			valid = append(valid, strings.ToLower(word))
		}
	}
	return valid
}

// SearchLogs runs a tenant-scoped, filtered, paginated query over stored
// logs. filter.Organization must already be forced to the authenticated
// caller's organization; every query condition ANDs onto it, so a caller can
// never read another tenant's rows.
//
// When filter.Query is set the message column is matched with a prefix
// tsquery against the GIN index and results are ordered by ts_rank then
// recency; otherwise plain recency (timestamp DESC). COUNT(*) OVER() returns
// the pre-pagination total in the same round-trip.
//
// Returns empty slice (not nil) and total 0 when nothing matches.
func (db *DB) SearchLogs(ctx context.Context, filter models.SearchFilter) ([]models.LogEvent, int64, error) {
	start := time.Now()
	defer func() {
		log.Printf("SearchLogs: org=%s query=%q duration=%dms",
			filter.Organization, filter.Query, time.Since(start).Milliseconds())
	}()

	if filter.Organization == "" {
		return nil, 0, fmt.Errorf("organization is required")
	}

	limit := validateLimit(filter.Limit, defaultLimit, maxLimit)
	offset := validateOffset(filter.Offset)

	qb := NewQueryBuilder()
	qb.AddCondition(columnOrganization, filter.Organization)

	var tsQuery string
	if filter.Query != "" {
		parsed, err := NewSearchQueryParser().Parse(filter.Query)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid search query: %w", err)
		}
		tsQuery = parsed
		qb.AddFullTextSearch(tsQuery)
	}

	if filter.Level != "" {
		qb.AddCondition(columnLevel, filter.Level)
	}
	if filter.Source != "" {
		qb.AddCondition(columnSource, filter.Source)
	}
	if filter.Project != "" {
		qb.AddCondition(columnProject, filter.Project)
	}
	if err := qb.AddTimeRange(columnTimestamp, filter.From, filter.To); err != nil {
		return nil, 0, err
	}

	// SAFETY: All user input is parameterized via $N placeholders.
	// The WHERE clause only contains fixed column names and operators.
	var query string
	if tsQuery != "" {
		query = fmt.Sprintf(`
			SELECT
				%s,
				ts_rank(to_tsvector('english', %s), to_tsquery('english', $2)) as rank,
				COUNT(*) OVER() as total_count
			FROM logs
			%s
			ORDER BY rank DESC, %s DESC
			LIMIT $%d OFFSET $%d
		`, logColumns, columnMessage, qb.WhereClause(), columnTimestamp,
			qb.NextArgNum(), qb.NextArgNum()+1)
	} else {
		query = fmt.Sprintf(`
			SELECT
				%s,
				COUNT(*) OVER() as total_count
			FROM logs
			%s
			ORDER BY %s DESC
			LIMIT $%d OFFSET $%d
		`, logColumns, qb.WhereClause(), columnTimestamp,
			qb.NextArgNum(), qb.NextArgNum()+1)
	}

	args := append(qb.Args(), limit, offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search logs: %w", err)
	}
	defer rows.Close()

	return scanRankedLogs(rows, tsQuery != "")
}
