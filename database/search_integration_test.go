package database

import (
	"context"
	"testing"
	"time"

	"skylog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchLogs_Filtering(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := GetTestDB()
	CleanupTestDB(t, db)

	ctx := context.Background()
	key := CreateTestTenant(t, db, "acme", "api", "dev@acme.io")

	now := time.Now().UTC()
	events := []models.LogEvent{
		testEvent(key, models.LevelError, "db write failed", now),
		testEvent(key, models.LevelError, "db read failed", now),
		testEvent(key, models.LevelInfo, "request served", now),
	}
	ci := testEvent(key, models.LevelWarn, "pipeline slow", now)
	ci.Source = models.SourceCI
	events = append(events, ci)

	require.NoError(t, db.InsertLogEvents(ctx, events))

	tests := []struct {
		name          string
		filter        models.SearchFilter
		expectedCount int
	}{
		{
			name:          "no filters",
			filter:        models.SearchFilter{Organization: "acme", Limit: 10},
			expectedCount: 4,
		},
		{
			name:          "filter by level",
			filter:        models.SearchFilter{Organization: "acme", Level: models.LevelError, Limit: 10},
			expectedCount: 2,
		},
		{
			name:          "filter by source",
			filter:        models.SearchFilter{Organization: "acme", Source: models.SourceCI, Limit: 10},
			expectedCount: 1,
		},
		{
			name:          "filter by project",
			filter:        models.SearchFilter{Organization: "acme", Project: "api", Limit: 10},
			expectedCount: 4,
		},
		{
			name:          "filter by unknown project",
			filter:        models.SearchFilter{Organization: "acme", Project: "worker", Limit: 10},
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, total, err := db.SearchLogs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCount, len(results))
			assert.Equal(t, int64(tt.expectedCount), total)
		})
	}
}

func TestSearchLogs_TenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := GetTestDB()
	CleanupTestDB(t, db)

	ctx := context.Background()
	keyA := CreateTestTenant(t, db, "org-a", "api", "a@a.io")
	keyB := CreateTestTenant(t, db, "org-b", "api", "b@b.io")

	now := time.Now().UTC()
	require.NoError(t, db.InsertLogEvents(ctx, []models.LogEvent{
		testEvent(keyA, models.LevelError, "A secret failure", now),
	}))
	require.NoError(t, db.InsertLogEvents(ctx, []models.LogEvent{
		testEvent(keyB, models.LevelError, "B secret failure", now),
	}))

	results, total, err := db.SearchLogs(ctx, models.SearchFilter{
		Organization: keyA.Organization,
		Limit:        10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "A secret failure", results[0].Message)

	// Even a message-level match in another tenant stays invisible.
	results, total, err = db.SearchLogs(ctx, models.SearchFilter{
		Organization: keyA.Organization,
		Query:        "secret failure",
		Limit:        10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "A secret failure", results[0].Message)
}

func TestSearchLogs_FullText(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := GetTestDB()
	CleanupTestDB(t, db)

	ctx := context.Background()
	key := CreateTestTenant(t, db, "acme", "api", "dev@acme.io")

	now := time.Now().UTC()
	require.NoError(t, db.InsertLogEvents(ctx, []models.LogEvent{
		testEvent(key, models.LevelError, "database connection timeout", now),
		testEvent(key, models.LevelError, "database connection refused", now),
		testEvent(key, models.LevelInfo, "user logged in", now),
	}))

	results, total, err := db.SearchLogs(ctx, models.SearchFilter{
		Organization: key.Organization,
		Query:        "database connection",
		Limit:        10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, r := range results {
		assert.NotNil(t, r.Rank, "text search results carry a relevance score")
		assert.Contains(t, r.Message, "database connection")
	}

	// Prefix matching catches partially typed words.
	_, total, err = db.SearchLogs(ctx, models.SearchFilter{
		Organization: key.Organization,
		Query:        "databa",
		Limit:        10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestSearchLogs_EmptyResult(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := GetTestDB()
	CleanupTestDB(t, db)

	ctx := context.Background()
	CreateTestTenant(t, db, "acme", "api", "dev@acme.io")

	results, total, err := db.SearchLogs(ctx, models.SearchFilter{
		Organization: "acme",
		Limit:        10,
	})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, int64(0), total)
}

func TestSearchLogs_RequiresOrganization(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := GetTestDB()

	_, _, err := db.SearchLogs(context.Background(), models.SearchFilter{Limit: 10})
	assert.Error(t, err)
}

func TestSearchLogs_Pagination(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := GetTestDB()
	CleanupTestDB(t, db)

	ctx := context.Background()
	key := CreateTestTenant(t, db, "acme", "api", "dev@acme.io")

	now := time.Now().UTC()
	events := make([]models.LogEvent, 25)
	for i := 0; i < 25; i++ {
		events[i] = testEvent(key, models.LevelInfo, "batch entry", now.Add(time.Duration(i)*time.Second))
	}
	require.NoError(t, db.InsertLogEvents(ctx, events))

	page1, total, err := db.SearchLogs(ctx, models.SearchFilter{
		Organization: "acme", Limit: 10, Offset: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, len(page1))
	assert.Equal(t, int64(25), total)

	page3, total, err := db.SearchLogs(ctx, models.SearchFilter{
		Organization: "acme", Limit: 10, Offset: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, len(page3))
	assert.Equal(t, int64(25), total)

	// Default recency order: newest first.
	assert.True(t, page1[0].Timestamp.After(page1[9].Timestamp))
}
