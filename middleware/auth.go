package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"skylog/database"
	"skylog/models"

	"github.com/gin-gonic/gin"
)

const authContextKey = "auth"

// APIKeyRequired authenticates agent traffic via the X-API-Key header and
// attaches the resolved tenant context for handlers. The server is the sole
// source of truth for key validity; inactive keys are rejected like unknown
// ones.
func APIKeyRequired(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required, provide X-API-Key header"})
			c.Abort()
			return
		}

		authenticate(c, db, key)
	}
}

// BearerRequired authenticates dashboard/read traffic via an
// Authorization: Bearer header, resolving the caller's organization for
// tenant scoping.
func BearerRequired(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		authenticate(c, db, parts[1])
	}
}

func authenticate(c *gin.Context, db *database.DB, key string) {
	apiKey, err := db.GetAPIKey(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or inactive API key"})
		c.Abort()
		return
	}

	// Record key usage without holding up the request. A failed touch is
	// log-only, never a request failure.
	go func() {
		if err := db.TouchAPIKey(context.Background(), apiKey.ID); err != nil {
			log.Printf("TouchAPIKey: %v", err)
		}
	}()

	c.Set(authContextKey, apiKey)
	c.Next()
}

// KeyFromContext returns the tenant context set by the auth middleware.
func KeyFromContext(c *gin.Context) (*models.APIKey, bool) {
	v, ok := c.Get(authContextKey)
	if !ok {
		return nil, false
	}
	key, ok := v.(*models.APIKey)
	return key, ok
}
