package handlers

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"skylog/database"
	"skylog/middleware"
	"skylog/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage     = 1
	defaultLimit    = 50
	maxLimit        = 1000
	defaultContextN = 10
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// IngestBatch accepts an array of log events, validates the whole batch
// before any write, stamps each event with the tenant identity of the
// authenticated key (ignoring client-supplied tenant values), and bulk
// inserts. Duplicated ids are redelivery artifacts and still count as
// processed.
func IngestBatch(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := middleware.KeyFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		var events []models.LogEvent
		if err := c.ShouldBindJSON(&events); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Fail fast: one malformed event rejects the batch wholesale.
		for i := range events {
			if err := events[i].Validate(); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "invalid log event",
					"index":   i,
					"details": err.Error(),
				})
				return
			}
		}

		// Tenant isolation boundary: identity comes from the key, never
		// from the payload.
		for i := range events {
			events[i].Organization = key.Organization
			events[i].Project = key.ProjectName
			events[i].UserEmail = key.UserEmail
		}

		if err := db.InsertLogEvents(c.Request.Context(), events); err != nil {
			log.Printf("IngestBatch: insert failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store logs"})
			return
		}

		c.JSON(http.StatusAccepted, models.BatchAck{
			Status:    "accepted",
			Processed: len(events),
		})
	}
}

// SearchLogs serves the tenant-scoped, paginated log query. The caller's
// organization always overrides whatever the request carries.
func SearchLogs(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := middleware.KeyFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		var params models.SearchParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		filter, page, limit := buildFilter(params, key.Organization)

		logs, total, err := db.SearchLogs(c.Request.Context(), filter)
		if err != nil {
			log.Printf("SearchLogs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search logs"})
			return
		}

		c.JSON(http.StatusOK, models.SearchResponse{
			Data:       logs,
			Pagination: paginate(total, page, limit),
		})
	}
}

// LogContext returns the chronological window around one log, scoped to the
// caller's tenant. A log outside the tenant is indistinguishable from a
// missing one.
func LogContext(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := middleware.KeyFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		logID := c.Param("id")
		beforeN := coercePositive(c.Query("before"), defaultContextN)
		afterN := coercePositive(c.Query("after"), defaultContextN)

		window, err := db.GetLogContext(c.Request.Context(), key.Organization, logID, beforeN, afterN)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "log not found"})
				return
			}
			log.Printf("LogContext: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load log context"})
			return
		}

		c.JSON(http.StatusOK, window)
	}
}

// Helper functions

// buildFilter turns raw query params into the executed filter. The
// organization always comes from the authenticated caller; there is no
// request field that can override it.
func buildFilter(params models.SearchParams, organization string) (models.SearchFilter, int, int) {
	page := coercePositive(params.Page, defaultPage)
	limit := coercePositive(params.Limit, defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	return models.SearchFilter{
		Query:        params.Query,
		Level:        params.Level,
		Source:       params.Source,
		Organization: organization,
		Project:      params.Project,
		From:         params.From,
		To:           params.To,
		Limit:        limit,
		Offset:       (page - 1) * limit,
	}, page, limit
}

// coercePositive parses string query input, falling back to the default on
// absent, non-numeric, or non-positive values.
func coercePositive(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func paginate(total int64, page, limit int) models.Pagination {
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return models.Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}
}
