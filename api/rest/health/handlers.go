package health

import (
	"net/http"
	"time"

	"codeberg.org/codepair/server/internal/sessions"
	"github.com/gin-gonic/gin"
)

// returns the server health status with store-wide counts
func Handler(store *sessions.Store, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionCount, userCount := store.Stats()

		c.JSON(http.StatusOK, Response{
			Status:         "ok",
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
			Uptime:         time.Since(startedAt).Seconds(),
			ActiveSessions: sessionCount,
			TotalUsers:     userCount,
		})
	}
}
