// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. Errors use
// one envelope with a stable `code` and a human-readable `error`; endpoints
// that must still hand the caller something useful on failure (a fallback
// finding, a scripted reply, a verification outcome) attach those fields
// alongside the envelope.
//
// Conventions:
//   - All error responses carry a stable `code` (see errors.go).
//   - `fail()` / `failWith()` centralize error logging and formatting; 5xx
//     responses are logged with the request-scoped logger.
//   - `ok()` writes success bodies.
//
// Example error response:
//
//	HTTP/1.1 403 Forbidden
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "already_used",
//	  "error": "Analysis already completed"
//	}
//
// Example error response with extras:
//
//	HTTP/1.1 500 Internal Server Error
//	{
//	  "code": "analysis_failed",
//	  "error": "Analysis failed",
//	  "findings": [{"severity": "yellow", "finding": "...", "question": "..."}]
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/fdd-analyzer-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: correlation ID echoed from the X-Request-ID header.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable error description, safe for display.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"forbidden"`
	// Human-readable message (safe to show to users)
	Message string `json:"error" example:"Payment not verified"`
}

// fail aborts the request with the plain error envelope.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, code, msg, nil)
}

// failWith aborts the request with the error envelope plus extra top-level
// fields. Server errors (>=500) are logged with the request-scoped logger.
func failWith(c *gin.Context, status int, code, msg string, extra gin.H) {
	reqID := c.Writer.Header().Get("X-Request-ID")

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	if len(extra) == 0 {
		c.AbortWithStatusJSON(status, ErrorResponse{RequestID: reqID, Code: code, Message: msg})
		return
	}

	body := gin.H{"code": code, "error": msg}
	if reqID != "" {
		body["request_id"] = reqID
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// Fail is the exported variant of fail(), used by the router for 404/405
// fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
