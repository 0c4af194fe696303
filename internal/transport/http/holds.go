package http

import (
	"net/http"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/gin-gonic/gin"
)

type createHoldRequest struct {
	EventID    string `json:"event_id"`
	SeatID     string `json:"seat_id"`
	ZoneID     string `json:"zone_id"`
	Quantity   int    `json:"quantity"`
	Kind       string `json:"kind"`
	PriceCents int64  `json:"price_cents"`
}

func handleCreateHold(svc HoldAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createHoldRequest
		if !bindJSON(c, &req) {
			return
		}
		id := identityFrom(c)
		kind := domain.HoldKind(req.Kind)
		if kind == domain.HoldKindStaffReserve && !id.Staff {
			writeError(c, http.StatusForbidden, codeForbidden, "staff session required for staff_reserve holds")
			return
		}

		hold, err := svc.CreateHold(c.Request.Context(), app.CreateHoldInput{
			EventID:    req.EventID,
			Owner:      id.Owner(),
			Target:     domain.Target{SeatID: req.SeatID, ZoneID: req.ZoneID},
			Kind:       kind,
			Quantity:   req.Quantity,
			PriceCents: req.PriceCents,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, newHoldResponse(hold))
	}
}

func handleListHolds(svc HoldAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		holds, err := svc.GetActiveHolds(c.Request.Context(), c.Param("eventID"), identityFrom(c).SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]holdResponse, 0, len(holds))
		for _, h := range holds {
			out = append(out, newHoldResponse(h))
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleExtendHold(svc HoldAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		hold, err := svc.ExtendHold(c.Request.Context(), c.Param("holdID"), identityFrom(c).SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newHoldResponse(hold))
	}
}

func handleReleaseHold(svc HoldAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.ReleaseHold(c.Request.Context(), c.Param("holdID"), identityFrom(c).SessionID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleCheckoutHold(svc HoldAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		hold, err := svc.UpgradeHoldToCheckout(c.Request.Context(), c.Param("holdID"), identityFrom(c).SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newHoldResponse(hold))
	}
}

// bindJSON decodes the body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}
