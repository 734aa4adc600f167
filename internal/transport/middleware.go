package transport

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go-vision-assistant/internal/logger"
	"go-vision-assistant/internal/observer"
	"go-vision-assistant/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const requestIDHeader = "X-Request-ID"

// requestID tags each request with an id, reusing the caller's when present
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(observer.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// panicRecovery turns a handler panic into a 500 and logs it through logrus
func panicRecovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"request_id": observer.RequestIDFromContext(c.Request.Context()),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"panic":      fmt.Sprint(recovered),
			"stack":      string(debug.Stack()),
		}).Error("Panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Detail: MessageUnexpected})
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": observer.RequestIDFromContext(c.Request.Context()),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}).Debug("Request handled")
	}
}

// corsHeaders allows the configured origins; "*" allows any origin
func corsHeaders(allowed []string) gin.HandlerFunc {
	allowAny := false
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAny = true
		}
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowAny {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := origins[strings.TrimRight(origin, "/")]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// concurrencyLimiter bounds in-flight analyses; a nil limiter disables it.
// Requests wait for a slot until their context ends.
func concurrencyLimiter(limiter *semaphore.Weighted) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if err := limiter.Acquire(c.Request.Context(), 1); err != nil {
			logger.WithError(err).WithField("path", c.Request.URL.Path).Warn("No analysis slot available")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{Detail: MessageBusy})
			return
		}
		defer limiter.Release(1)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			logger.WithError(err.Err).WithField("path", c.Request.URL.Path).Error("Request processing failed")
			c.AbortWithStatusJSON(statusCode(err.Err), models.ErrorResponse{Detail: detail(err.Err)})
		}
	}
}
