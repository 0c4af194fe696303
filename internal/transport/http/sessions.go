package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cimillas/seatlease/internal/session"
	"github.com/gin-gonic/gin"
)

type createSessionRequest struct {
	UserID     string `json:"user_id"`
	CustomerID string `json:"customer_id"`
	Staff      bool   `json:"staff"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	Staff     bool      `json:"staff"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleCreateSession mints an anonymous shopper session. Staff sessions
// require the operator token.
func handleCreateSession(sessions SessionAPI, opsToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(c, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Staff && !opsAuthorized(opsToken, c.GetHeader(opsTokenHeader)) {
			writeError(c, http.StatusForbidden, codeForbidden, "operator token required for staff sessions")
			return
		}

		token, id, expiresAt, err := sessions.Issue(session.Identity{
			UserID:     req.UserID,
			CustomerID: req.CustomerID,
			Staff:      req.Staff,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sessionResponse{
			Token:     token,
			SessionID: id.SessionID,
			Staff:     id.Staff,
			ExpiresAt: expiresAt,
		})
	}
}
