// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes give clients a stable, machine-readable error taxonomy that
// supplements the human-readable `error` message. Front-ends branch on the
// code; the message text is kept stable too because existing pages display it
// verbatim.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror HTTP status semantics.
//   - Domain-specific codes name the step that failed.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "payment_not_verified",
//	  "error": "Payment not verified"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeMissingFields      = "missing_fields"
	ErrCodeTextTooShort       = "text_too_short"
	ErrCodeInvalidEmail       = "invalid_email"
	ErrCodeInvalidSession     = "invalid_session"
	ErrCodePaymentNotVerified = "payment_not_verified"
	ErrCodeAlreadyUsed        = "already_used"
	ErrCodeUpstream           = "upstream_unavailable"
	ErrCodeNotConfigured      = "not_configured"
	ErrCodeAnalysisFailed     = "analysis_failed"
	ErrCodeSimulationFailed   = "simulation_failed"
	ErrCodeCheckoutFailed     = "checkout_failed"
	ErrCodeCompleteFailed     = "complete_failed"
	ErrCodeSubscribeFailed    = "subscription_failed"
)
