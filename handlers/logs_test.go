package handlers

import (
	"testing"

	"skylog/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilter_TenantForced(t *testing.T) {
	// SearchParams has no organization field at all; whatever a caller
	// appends to the query string cannot reach the filter. The scope is
	// always the authenticated organization.
	filter, page, limit := buildFilter(models.SearchParams{
		Query: "timeout",
		Level: "error",
	}, "org-a")

	assert.Equal(t, "org-a", filter.Organization)
	assert.Equal(t, "timeout", filter.Query)
	assert.Equal(t, "error", filter.Level)
	assert.Equal(t, 1, page)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, filter.Offset)
}

func TestBuildFilter_Pagination(t *testing.T) {
	filter, page, limit := buildFilter(models.SearchParams{
		Page:  "3",
		Limit: "20",
	}, "org-a")

	assert.Equal(t, 3, page)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, filter.Offset)
	assert.Equal(t, 20, filter.Limit)
}

func TestBuildFilter_LimitCapped(t *testing.T) {
	filter, _, limit := buildFilter(models.SearchParams{
		Limit: "5000",
	}, "org-a")

	assert.Equal(t, maxLimit, limit)
	assert.Equal(t, maxLimit, filter.Limit)
}

func TestCoercePositive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback int
		expected int
	}{
		{
			name:     "valid number",
			input:    "7",
			fallback: 1,
			expected: 7,
		},
		{
			name:     "empty uses fallback",
			input:    "",
			fallback: 50,
			expected: 50,
		},
		{
			name:     "non-numeric uses fallback",
			input:    "abc",
			fallback: 50,
			expected: 50,
		},
		{
			name:     "zero uses fallback",
			input:    "0",
			fallback: 1,
			expected: 1,
		},
		{
			name:     "negative uses fallback",
			input:    "-3",
			fallback: 1,
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, coercePositive(tt.input, tt.fallback))
		})
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		page      int
		limit     int
		wantPages int
	}{
		{
			name:      "partial last page",
			total:     101,
			page:      1,
			limit:     50,
			wantPages: 3,
		},
		{
			name:      "exact multiple",
			total:     100,
			page:      2,
			limit:     50,
			wantPages: 2,
		},
		{
			name:      "empty result",
			total:     0,
			page:      1,
			limit:     50,
			wantPages: 0,
		},
		{
			name:      "single row",
			total:     1,
			page:      1,
			limit:     50,
			wantPages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paginate(tt.total, tt.page, tt.limit)

			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.wantPages, p.Pages)
		})
	}
}
