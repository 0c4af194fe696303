package http

import (
	"net/http"
	"time"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/catalog"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/gin-gonic/gin"
)

// maxFloorPlanBytes caps uploaded floor plans.
const maxFloorPlanBytes = 4 << 20

type createEventRequest struct {
	Name         string     `json:"name"`
	StartsAt     *time.Time `json:"starts_at"`
	Status       string     `json:"status"`
	SalesOpenAt  *time.Time `json:"sales_open_at"`
	SalesCloseAt *time.Time `json:"sales_close_at"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type createZoneRequest struct {
	Name       string   `json:"name"`
	ZoneType   string   `json:"zone_type"`
	Accessible bool     `json:"accessible"`
	PriceCents int64    `json:"price_cents"`
	Capacity   int      `json:"capacity"`
	Seats      []string `json:"seats"`
}

type createZoneResponse struct {
	zoneResponse
	Seats []seatResponse `json:"seats,omitempty"`
}

type seatResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type blockRequest struct {
	SeatID   string `json:"seat_id"`
	ZoneID   string `json:"zone_id"`
	Quantity int    `json:"quantity"`
}

type importResponse struct {
	Event eventResponse  `json:"event"`
	Zones []zoneResponse `json:"zones"`
	Seats int            `json:"seats"`
}

func handleListEvents(svc CatalogAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.ListEvents(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]eventResponse, 0, len(events))
		for _, e := range events {
			out = append(out, newEventResponse(e))
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleCreateEvent(svc CatalogAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createEventRequest
		if !bindJSON(c, &req) {
			return
		}
		event, err := svc.CreateEvent(c.Request.Context(), app.CreateEventInput{
			Name:         req.Name,
			StartsAt:     req.StartsAt,
			Status:       domain.EventStatus(req.Status),
			SalesOpenAt:  req.SalesOpenAt,
			SalesCloseAt: req.SalesCloseAt,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, newEventResponse(event))
	}
}

func handleSetEventStatus(svc CatalogAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setStatusRequest
		if !bindJSON(c, &req) {
			return
		}
		event, err := svc.SetEventStatus(c.Request.Context(), c.Param("eventID"), domain.EventStatus(req.Status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newEventResponse(event))
	}
}

func handleListZones(svc CatalogAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		zones, err := svc.ListZones(c.Request.Context(), c.Param("eventID"))
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]zoneResponse, 0, len(zones))
		for _, z := range zones {
			out = append(out, newZoneResponse(z))
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleCreateZone(svc CatalogAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createZoneRequest
		if !bindJSON(c, &req) {
			return
		}
		zone, seats, err := svc.CreateZone(c.Request.Context(), app.CreateZoneInput{
			EventID:    c.Param("eventID"),
			Name:       req.Name,
			ZoneType:   req.ZoneType,
			Accessible: req.Accessible,
			PriceCents: req.PriceCents,
			Capacity:   req.Capacity,
			SeatLabels: req.Seats,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		resp := createZoneResponse{zoneResponse: newZoneResponse(zone)}
		for _, s := range seats {
			resp.Seats = append(resp.Seats, seatResponse{ID: s.ID, Label: s.Label})
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// handleImportFloorPlan accepts a YAML floor plan and creates its event,
// zones and seats.
func handleImportFloorPlan(svc CatalogAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := http.MaxBytesReader(c.Writer, c.Request.Body, maxFloorPlanBytes)
		plan, err := catalog.Parse(body)
		if err != nil {
			writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}
		res, err := svc.ImportFloorPlan(c.Request.Context(), plan)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := importResponse{Event: newEventResponse(res.Event), Zones: make([]zoneResponse, 0, len(res.Zones)), Seats: res.Seats}
		for _, z := range res.Zones {
			resp.Zones = append(resp.Zones, newZoneResponse(z))
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// handleBlock moves inventory between available and blocked.
func handleBlock(svc HoldAPI, block bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req blockRequest
		if !bindJSON(c, &req) {
			return
		}
		in := app.BlockInput{
			EventID:  c.Param("eventID"),
			Target:   domain.Target{SeatID: req.SeatID, ZoneID: req.ZoneID},
			Quantity: req.Quantity,
		}
		var err error
		if block {
			err = svc.BlockInventory(c.Request.Context(), in)
		} else {
			err = svc.UnblockInventory(c.Request.Context(), in)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
