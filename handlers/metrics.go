package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"skylog/alert"
	"skylog/database"
	"skylog/middleware"
	"skylog/models"

	"github.com/gin-gonic/gin"
)

// PushMetrics stores an agent's metrics snapshot on its project and fires a
// cooldown-gated alert when a threshold is breached. CPU is checked before
// memory, so at most one alert goes out per push; the persisted cooldown
// claim guarantees at most one per window across concurrent pushes.
func PushMetrics(db *database.DB, notifier *alert.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := middleware.KeyFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		var snap models.MetricsSnapshot
		if err := c.ShouldBindJSON(&snap); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		if err := db.UpdateProjectMetrics(ctx, key.ProjectID, snap.CPU, snap.Memory); err != nil {
			log.Printf("PushMetrics: update failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store metrics"})
			return
		}

		if notifier != nil {
			if breach, ok := alert.Evaluate(snap, notifier.Thresholds()); ok {
				dispatchAlert(db, notifier, key, breach)
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// dispatchAlert claims the cooldown slot and, if won, sends the alert mail
// in the background. Mail failure is log-only; the metrics push already
// succeeded.
func dispatchAlert(db *database.DB, notifier *alert.Notifier, key *models.APIKey, breach alert.Breach) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()

	project, err := db.GetProject(ctx, key.ProjectID)
	if err != nil {
		log.Printf("PushMetrics: project lookup failed: %v", err)
		return
	}

	// Read-side check; the conditional UPDATE below is the authoritative gate.
	if !alert.CooldownElapsed(project.LastAlertSentAt, now, alert.Cooldown) {
		return
	}

	claimed, err := db.ClaimAlertSlot(ctx, key.ProjectID, now, alert.Cooldown)
	if err != nil {
		log.Printf("PushMetrics: alert claim failed: %v", err)
		return
	}
	if !claimed {
		return
	}

	recipient := key.UserEmail
	if project.AlertEmail != "" {
		recipient = project.AlertEmail
	}

	go func() {
		if err := notifier.Send(recipient, key.Organization, key.ProjectName, breach); err != nil {
			log.Printf("PushMetrics: alert mail failed: %v", err)
		}
	}()
}
