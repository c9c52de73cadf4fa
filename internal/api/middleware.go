package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pantry/internal/logger"
)

// NewRouter builds the gin engine serving h.
func NewRouter(h *Handler, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), RequestLogger(), corsMiddleware(origins))
	h.Register(r)
	r.NoRoute(NotFound)
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match", "If-Modified-Since"},
		ExposeHeaders:    []string{"Content-Length", "ETag", "Last-Modified", TraceHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// TraceHeader carries the id under which a request is logged.
const TraceHeader = "X-Trace-Id"

// RequestLogger tags the request with a trace id and writes one log line per
// request. Error envelopes reuse the same id.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := logger.NewTraceID()
		c.Request = c.Request.WithContext(logger.ContextWithTrace(c.Request.Context(), traceID))
		c.Header(TraceHeader, traceID)
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{
			"module":  "http",
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// Recovery turns a panic into the usual 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		traceID := logger.ErrorWithTrace(c.Request.Context(), fmt.Errorf("panic: %v", rec), logrus.Fields{"path": c.Request.URL.Path})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "traceId": traceID})
	})
}
