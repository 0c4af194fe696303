package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func handleSeatStatuses(svc AvailabilityAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		seats, err := svc.GetEventSeatStatuses(c.Request.Context(), c.Param("eventID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSeatStatusResponses(seats))
	}
}

func handleZoneMetrics(svc AvailabilityAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		zones, err := svc.GetZoneMetrics(c.Request.Context(), c.Param("eventID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, zoneMetricsOrEmpty(zones))
	}
}

func handleSnapshot(svc AvailabilityAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := svc.Snapshot(c.Request.Context(), c.Param("eventID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSnapshotResponse(snap))
	}
}
