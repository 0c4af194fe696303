package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// handleReady checks the database with a short timeout.
func handleReady(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.String(http.StatusOK, "ok")
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			_ = c.Error(err)
			writeError(c, http.StatusServiceUnavailable, "unavailable", "database unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	}
}
