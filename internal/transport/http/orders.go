package http

import (
	"net/http"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// handleConvertHold turns a checkout hold into an order. Retries with the
// same Idempotency-Key return the original order with 200.
func handleConvertHold(svc OrderAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			writeError(c, http.StatusBadRequest, codeIdempotencyRequired, domain.ErrIdempotencyKeyRequired.Error())
			return
		}

		res, err := svc.ConvertHold(c.Request.Context(), app.ConvertHoldInput{
			HoldID:         c.Param("holdID"),
			SessionID:      identityFrom(c).SessionID,
			IdempotencyKey: key,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		c.JSON(status, orderResponse{
			ID:        res.Order.ID,
			HoldID:    res.Order.HoldID,
			EventID:   res.Order.EventID,
			Status:    string(domain.HoldStatusConverted),
			CreatedAt: res.Order.CreatedAt,
		})
	}
}
