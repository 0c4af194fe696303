package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cimillas/seatlease/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	opsTokenHeader  = "X-Ops-Token"

	requestIDKey = "request_id"
	identityKey  = "identity"
)

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// accessLog logs one line per request, plus any errors handlers attached.
func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", c.GetString(requestIDKey)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}
		ctx := c.Request.Context()
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.ErrorContext(ctx, "request", attrs...)
		default:
			logger.InfoContext(ctx, "request", attrs...)
		}
	}
}

func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.ErrorContext(c.Request.Context(), "panic in handler",
			slog.Any("panic", rec),
			slog.String("request_id", c.GetString(requestIDKey)),
		)
		writeError(c, http.StatusInternalServerError, codeInternalError, "internal error")
	})
}

// SessionParser verifies session tokens.
type SessionParser interface {
	Parse(token string) (session.Identity, error)
}

// requireSession rejects requests without a valid bearer session token and
// stores the decoded identity on the context.
func requireSession(sessions SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			writeError(c, http.StatusUnauthorized, codeUnauthorized, "session token required")
			return
		}
		id, err := sessions.Parse(token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func identityFrom(c *gin.Context) session.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(session.Identity)
	return id
}

// requireOps guards staff and operator endpoints. An empty token disables
// them entirely.
func requireOps(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !opsAuthorized(token, c.GetHeader(opsTokenHeader)) {
			writeError(c, http.StatusForbidden, codeForbidden, "operator token required")
			return
		}
		c.Next()
	}
}

func opsAuthorized(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
