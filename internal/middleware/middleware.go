package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/helpers"
	"github.com/joshua-takyi/eventease/internal/logging"
	"github.com/joshua-takyi/eventease/internal/metrics"
)

const RequestIDKey = "request_id"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger logs one line per request, records request metrics and
// hands a request-scoped logger to everything downstream through the context.
func StructuredLogger(logger *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetString(RequestIDKey)
		reqLogger := logger.With("request_id", requestID)
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), reqLogger))

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		m.ObserveRequest(c.Request.Method, c.FullPath(), statusCode, latency)

		if raw != "" {
			path = path + "?" + raw
		}

		level := slog.LevelInfo
		switch {
		case statusCode >= http.StatusInternalServerError:
			level = slog.LevelError
		case statusCode >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		reqLogger.Log(c.Request.Context(), level, "HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"status", statusCode,
			"latency", latency,
			"client_ip", c.ClientIP(),
		)
	}
}

// ErrorHandler logs errors attached to the gin context and answers with a 500
// when the handler did not write a response itself.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		requestID := c.GetString(RequestIDKey)
		for _, err := range c.Errors {
			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"error_kind", errorKind(err),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}

		if !c.Writer.Written() {
			resp := helpers.ErrorResponse("Internal server error")
			resp.RequestID = requestID
			c.JSON(http.StatusInternalServerError, resp)
		}
	}
}

func errorKind(err *gin.Error) string {
	switch {
	case err.IsType(gin.ErrorTypeBind):
		return "bind"
	case err.IsType(gin.ErrorTypeRender):
		return "render"
	case err.IsType(gin.ErrorTypePrivate):
		return "internal"
	}
	return "public"
}
