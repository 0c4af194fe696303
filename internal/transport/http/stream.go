package http

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/gin-gonic/gin"
)

type resyncMessage struct {
	EventID string `json:"event_id"`
	Reason  string `json:"reason"`
}

// handleStream serves live availability for one event as server-sent events.
// The stream opens with a "snapshot" event followed by "change" events. When
// the subscriber falls behind the server sends "resync" and closes; the
// client reconnects and starts from a fresh snapshot.
func handleStream(feed ChangeFeed, svc AvailabilityAPI, keepAlive time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		eventID := c.Param("eventID")

		// Subscribe before reading the snapshot so no committed change falls
		// between the two.
		sub := feed.Subscribe(eventID)
		defer sub.Close()

		snap, err := svc.Snapshot(ctx, eventID)
		if err != nil {
			respondError(c, err)
			return
		}
		seen := snapshotVersions(snap)

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.SSEvent("snapshot", newSnapshotResponse(snap))
		c.Writer.Flush()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.Changes():
				if !ok {
					reason := "closed"
					if sub.Lagged() {
						reason = "lagged"
					}
					logger.DebugContext(ctx, "stream resync", slog.String("event_id", eventID), slog.String("reason", reason))
					c.SSEvent("resync", resyncMessage{EventID: eventID, Reason: reason})
					c.Writer.Flush()
					return
				}
				if v, ok := seen[change.Key()]; ok && change.Version <= v {
					continue
				}
				c.SSEvent("change", change)
				c.Writer.Flush()
			case <-ticker.C:
				_, _ = io.WriteString(c.Writer, ": ping\n\n")
				c.Writer.Flush()
			}
		}
	}
}

// snapshotVersions indexes the versions a snapshot already reflects.
func snapshotVersions(s app.Snapshot) map[string]int64 {
	seen := make(map[string]int64, len(s.Seats)+len(s.Zones))
	for _, seat := range s.Seats {
		seen[domain.AvailabilityChange{SeatID: seat.SeatID}.Key()] = seat.Version
	}
	for _, zone := range s.Zones {
		seen[domain.AvailabilityChange{ZoneID: zone.ZoneID}.Key()] = zone.Version
	}
	return seen
}
