// Package services defines the business logic for the purchase-token
// protocol, document analysis, negotiation practice, checkout and mailing-list
// signup. This file centralizes common service-level error values so that they
// can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Input errors.
var (
	// ErrMissingFields is returned when a required request field is empty.
	ErrMissingFields = errors.New("missing required fields")

	// ErrTextTooShort is returned when analysis text is below the minimum length.
	ErrTextTooShort = errors.New("text too short for analysis")

	// ErrMalformedToken is returned for tokens rejected without contacting the
	// payment provider (too short to be a session id).
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidEmail is returned when a signup address has no '@'.
	ErrInvalidEmail = errors.New("valid email required")
)

// Token protocol errors.
var (
	// ErrInvalidSession indicates the token is unknown to the payment provider
	// or was bought for another product.
	ErrInvalidSession = errors.New("invalid session")

	// ErrPaymentNotVerified indicates the token's payment has not settled.
	ErrPaymentNotVerified = errors.New("payment not verified")

	// ErrAlreadyAnalyzed indicates the token was already spent, or another
	// request currently holds its claim.
	ErrAlreadyAnalyzed = errors.New("analysis already completed")

	// ErrProviderUnavailable wraps payment provider failures other than an
	// unknown identifier.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// Upstream errors.
var (
	// ErrAnalysisFailed is returned when the deliverable could not be produced
	// after the token was verified. The result still carries a fallback finding.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrModelUnavailable is returned when no model credentials are configured.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrSimulationFailed is returned when a negotiation turn could not be
	// generated.
	ErrSimulationFailed = errors.New("simulation error")

	// ErrCheckoutFailed wraps checkout session creation failures.
	ErrCheckoutFailed = errors.New("checkout session creation failed")

	// ErrMailingNotConfigured is returned when no signup form is configured.
	ErrMailingNotConfigured = errors.New("email service not configured")

	// ErrSubscriptionRejected is returned when the mailing-list provider
	// answered the form subscription with a non-success status.
	ErrSubscriptionRejected = errors.New("subscription failed")

	// ErrMailingUnavailable wraps transport failures talking to the
	// mailing-list provider.
	ErrMailingUnavailable = errors.New("mailing provider unavailable")
)
