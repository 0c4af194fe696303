package http

import (
	"errors"
	"net/http"

	"github.com/cimillas/seatlease/internal/domain"
	"github.com/cimillas/seatlease/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeValidation           = "validation_failed"
	codeSeatUnavailable      = "seat_unavailable"
	codeInsufficientCapacity = "insufficient_capacity"
	codeHoldOwnership        = "hold_ownership"
	codeHoldNotActive        = "hold_not_active"
	codeHoldExpired          = "hold_expired"
	codeInvalidState         = "invalid_state"
	codeIdempotencyRequired  = "idempotency_key_required"
	codeIdempotencyConflict  = "idempotency_conflict"
	codeUnauthorized         = "unauthorized"
	codeSessionExpired       = "session_expired"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Code: code})
}

// classify maps a service error to an HTTP status and stable error code.
func classify(err error) (int, string) {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, domain.ErrIdempotencyKeyRequired):
		return http.StatusBadRequest, codeIdempotencyRequired
	case domain.IsNotFound(err):
		return http.StatusNotFound, codeNotFound
	case domain.IsOwnership(err):
		return http.StatusForbidden, codeHoldOwnership
	case domain.IsSeatUnavailable(err):
		return http.StatusConflict, codeSeatUnavailable
	case domain.IsInsufficientCapacity(err):
		return http.StatusConflict, codeInsufficientCapacity
	case domain.IsNotActive(err):
		return http.StatusConflict, codeHoldNotActive
	case domain.IsExpired(err):
		return http.StatusGone, codeHoldExpired
	case domain.IsInvalidState(err):
		return http.StatusConflict, codeInvalidState
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, codeIdempotencyConflict
	case errors.Is(err, session.ErrExpiredToken):
		return http.StatusUnauthorized, codeSessionExpired
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, codeUnauthorized
	}
	return http.StatusInternalServerError, codeInternalError
}

// respondError writes the envelope for err. Internal errors are logged and
// their message is not exposed.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	writeError(c, status, code, msg)
}
