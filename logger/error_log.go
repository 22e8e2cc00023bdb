package logger

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogHTTPError logs a failed request with the request id, route and client
// details taken from the gin context.
func LogHTTPError(c *gin.Context, err error, statusCode int, message string) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("error_type", errorType(err)),
		zap.Int("status_code", statusCode),
	}

	if c.Request != nil {
		fields = append(fields,
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("client_ip", c.ClientIP()),
			zap.Any("headers", filterSensitiveHeaders(c.Request.Header)),
		)
	}

	if requestID := c.GetString("request_id"); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if os.Getenv("SERVER_ENVIRONMENT") != "production" && statusCode >= http.StatusInternalServerError {
		fields = append(fields, zap.String("stack_trace", getStackTrace(3)))
	}

	log := GetLogger().Desugar()
	if statusCode >= http.StatusInternalServerError {
		log.Error(message, fields...)
		return
	}
	log.Warn(message, fields...)
}

// errorType returns the short Go type name of err.
func errorType(err error) string {
	if err == nil {
		return ""
	}
	name := fmt.Sprintf("%T", err)
	if idx := strings.LastIndex(name, "."); idx != -1 {
		return name[idx+1:]
	}
	return name
}

// getStackTrace captures a stack trace starting from the specified skip level.
func getStackTrace(skip int) string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "runtime.") {
			builder.WriteString(frame.Function)
			builder.WriteString("\n\t")
			builder.WriteString(frame.File)
			builder.WriteString(":")
			builder.WriteString(strconv.Itoa(frame.Line))
			builder.WriteString("\n")
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// filterSensitiveHeaders redacts credentials before headers reach the log.
func filterSensitiveHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string)

	for name, values := range headers {
		lower := strings.ToLower(name)
		if strings.EqualFold(name, "Authorization") ||
			strings.EqualFold(name, "Cookie") ||
			strings.Contains(lower, "token") ||
			strings.Contains(lower, "key") ||
			strings.Contains(lower, "secret") {
			filtered[name] = "[REDACTED]"
			continue
		}

		if len(values) > 0 {
			filtered[name] = values[0]
		}
	}

	return filtered
}
