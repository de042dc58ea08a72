// Package services – TokenService
//
// This file implements the single-use purchase token protocol. A token is a
// checkout session id; its state lives entirely at the payment provider and
// every check is a live read.
//
//   - Verify is a pure read: unknown → invalid, unpaid → unpaid, wrong product
//     → invalid, consumed marker → used, otherwise valid.
//   - Consume re-reads the session and performs the only forward transition
//     PAID → CONSUMED by stamping the payment intent. Re-consuming is a no-op.
//
// Verify and Consume are two separate round trips with no compare-and-swap in
// between, so two concurrent requests can both pass Verify before either
// consumes. Callers that need exclusivity pair them with a TokenLedger.
//
// Observability: all public methods are OpenTelemetry-instrumented and count
// outcomes in Prometheus.

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/payments"
)

// DefaultMinTokenLen rejects trivially malformed tokens before any provider call.
const DefaultMinTokenLen = 10

// TokenService verifies and consumes purchase tokens.
type TokenService struct {
	Payments PaymentGateway

	// Optional
	MinTokenLen int              // defaults to DefaultMinTokenLen
	Now         func() time.Time // defaults to time.Now
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) minLen() int {
	if s.MinTokenLen > 0 {
		return s.MinTokenLen
	}
	return DefaultMinTokenLen
}

// Verify checks token against the provider. products lists the acceptable
// purpose tags; at least one must match. The returned error is non-nil only
// for ErrMalformedToken (no provider call was made) and ErrProviderUnavailable
// (reason=connection); expected rejections come back as Valid=false with a nil
// error.
func (s *TokenService) Verify(ctx context.Context, token string, products ...domain.Product) (domain.Verification, error) {
	tr := otel.Tracer("services/TokenService")
	ctx, span := tr.Start(ctx, "Verify",
		trace.WithAttributes(attribute.Int("token.len", len(token))),
	)
	defer span.End()

	label := productLabel(products)
	if len(token) < s.minLen() {
		tokenVerifications.WithLabelValues(label, string(domain.ReasonInvalid)).Inc()
		return domain.Verification{Reason: domain.ReasonInvalid}, ErrMalformedToken
	}

	tok, err := s.Payments.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, payments.ErrSessionNotFound) {
			tokenVerifications.WithLabelValues(label, string(domain.ReasonInvalid)).Inc()
			return domain.Verification{Reason: domain.ReasonInvalid}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider")
		tokenVerifications.WithLabelValues(label, string(domain.ReasonConnection)).Inc()
		return domain.Verification{Reason: domain.ReasonConnection}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	v := evaluate(token, tok, products)
	span.SetAttributes(
		attribute.Bool("token.valid", v.Valid),
		attribute.String("token.reason", string(v.Reason)),
		attribute.String("token.product", string(tok.Product)),
	)
	reason := string(v.Reason)
	if v.Valid {
		reason = "valid"
	}
	tokenVerifications.WithLabelValues(label, reason).Inc()
	return v, nil
}

// evaluate applies the verification order to a fetched snapshot.
func evaluate(token string, tok *domain.PurchaseToken, products []domain.Product) domain.Verification {
	switch {
	case !tok.Paid:
		return domain.Verification{Reason: domain.ReasonUnpaid}
	case !productMatches(tok.Product, products):
		return domain.Verification{Reason: domain.ReasonInvalid}
	case tok.Consumed:
		return domain.Verification{Reason: domain.ReasonUsed}
	}
	return domain.Verification{Valid: true, Token: token, Email: tok.Email}
}

func productMatches(p domain.Product, accepted []domain.Product) bool {
	for _, a := range accepted {
		if p == a {
			return true
		}
	}
	return false
}

func productLabel(products []domain.Product) string {
	if len(products) == 0 {
		return "none"
	}
	return string(products[0])
}

// Consume marks token as spent. The session is re-read first; an already
// consumed token returns AlreadyConsumed without writing, and a paid session
// without a payment intent succeeds without writing. Unknown tokens yield
// ErrInvalidSession, unpaid ones ErrPaymentNotVerified.
func (s *TokenService) Consume(ctx context.Context, token string) (domain.ConsumeResult, error) {
	tr := otel.Tracer("services/TokenService")
	ctx, span := tr.Start(ctx, "Consume",
		trace.WithAttributes(attribute.Int("token.len", len(token))),
	)
	defer span.End()

	tok, err := s.Payments.GetSession(ctx, token)
	if err != nil {
		tokenConsumptions.WithLabelValues("error").Inc()
		if errors.Is(err, payments.ErrSessionNotFound) {
			return domain.ConsumeResult{}, ErrInvalidSession
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider")
		return domain.ConsumeResult{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	switch {
	case !tok.Paid:
		tokenConsumptions.WithLabelValues("error").Inc()
		return domain.ConsumeResult{}, ErrPaymentNotVerified
	case tok.Consumed:
		tokenConsumptions.WithLabelValues("already_consumed").Inc()
		return domain.ConsumeResult{AlreadyConsumed: true}, nil
	case tok.PaymentIntentID == "":
		tokenConsumptions.WithLabelValues("no_payment_intent").Inc()
		return domain.ConsumeResult{}, nil
	}

	if err := s.Payments.MarkConsumed(ctx, tok.PaymentIntentID, s.now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark consumed")
		tokenConsumptions.WithLabelValues("error").Inc()
		return domain.ConsumeResult{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	tokenConsumptions.WithLabelValues("written").Inc()
	return domain.ConsumeResult{Written: true}, nil
}

// Inspect returns the raw snapshot for operator tooling.
func (s *TokenService) Inspect(ctx context.Context, token string) (*domain.PurchaseToken, error) {
	tok, err := s.Payments.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, payments.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	return tok, nil
}
