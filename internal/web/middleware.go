package web

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codeberg.org/snonux/translore/internal/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	CookieUserID    = "translore_user"

	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
)

// RequestID tags every request with an id, reusing a well-formed incoming
// X-Request-ID header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// UserID resolves the acting user from the X-User-ID header, then the
// translore_user cookie, then defaultUser.
func UserID(defaultUser string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if user == "" {
			if v, err := c.Cookie(CookieUserID); err == nil {
				user = strings.TrimSpace(v)
			}
		}
		if user == "" {
			user = defaultUser
		}
		c.Set(ctxUserID, user)
		c.Next()
	}
}

func userFrom(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := c.GetString(ctxRequestID); id != "" {
			fields = append(fields, "request_id", id)
		}
		if user := userFrom(c); user != "" {
			fields = append(fields, "user_id", user)
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

// CORS allows the given origins, or any origin when none are configured.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", HeaderRequestID, HeaderUserID},
		ExposeHeaders: []string{HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
