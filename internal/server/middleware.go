package server

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mathmaster/mathmaster/internal/logger"
	"github.com/mathmaster/mathmaster/internal/metrics"
	"github.com/mathmaster/mathmaster/internal/store"
)

// Identity headers set by the authenticating proxy in front of the server.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const (
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

// RequestLogger logs every request once it completes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if uid := c.GetString(ctxUserID); uid != "" {
			fields = append(fields, "user_id", uid)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Metrics records request counts and latency by route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RequireRole reads the caller's identity and rejects callers without one
// of roles. Admins pass every check. A missing role header means student.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid == "" {
			respondError(c, http.StatusUnauthorized, "No autenticado", nil)
			return
		}
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole)))
		if role == "" {
			role = store.RoleStudent
		}
		if role != store.RoleAdmin && !slices.Contains(roles, role) {
			respondError(c, http.StatusForbidden, "No tienes permiso para acceder a este recurso", nil)
			return
		}
		c.Set(ctxUserID, uid)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

func userID(c *gin.Context) string   { return c.GetString(ctxUserID) }
func userRole(c *gin.Context) string { return c.GetString(ctxUserRole) }
