package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const clientIPKey contextKey = "client_ip"

// RequestID assigns a request id and echoes it back in the response header
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ClientIP copies the caller's address into the request context so
// services below the HTTP layer can do a best-effort IP lookup.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), clientIPKey, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// IPFromContext returns the client address captured by ClientIP, if any.
func IPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey).(string)
	return ip, ok && ip != ""
}

// ContextIPResolver resolves the origin address from the request context,
// falling back to loopback when the request carries none.
type ContextIPResolver struct{}

// ResolveIP implements services.IPResolver
func (ContextIPResolver) ResolveIP(ctx context.Context, userID int64) string {
	if ip, ok := IPFromContext(ctx); ok {
		return ip
	}
	return "127.0.0.1"
}

// TrackedRoles skips signal handling for roles outside the configured set.
// An empty set tracks everyone. The role arrives from the host in the
// X-User-Role header; the filter runs upstream of the core, which never
// inspects roles itself.
func TrackedRoles(roles []string) gin.HandlerFunc {
	tracked := make(map[string]bool, len(roles))
	for _, role := range roles {
		tracked[role] = true
	}
	return func(c *gin.Context) {
		if len(tracked) > 0 {
			role := c.GetHeader("X-User-Role")
			if role == "" || !tracked[role] {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}

// RequestLogger logs one line per request with latency and status
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
