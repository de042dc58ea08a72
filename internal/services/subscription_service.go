package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/fdd-analyzer-backend/internal/mailing"
)

// SubscribeRequest is one signup.
type SubscribeRequest struct {
	Email     string
	Source    string
	FirstName string
}

// SubscriptionService adds signups to the mailing list and tags them by
// source.
type SubscriptionService struct {
	List       MailingList
	SourceTags map[string]string
}

// Subscribe adds req.Email to the form. Tagging runs only when the provider
// can authenticate it, a subscriber id came back, and the source maps to a
// tag; its failures are logged and never returned.
func (s *SubscriptionService) Subscribe(ctx context.Context, req SubscribeRequest) error {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "Subscribe",
		trace.WithAttributes(attribute.String("source", req.Source)),
	)
	defer span.End()

	if !strings.Contains(req.Email, "@") {
		return ErrInvalidEmail
	}
	if !s.List.Configured() {
		return ErrMailingNotConfigured
	}

	id, err := s.List.SubscribeToForm(ctx, mailing.Subscriber{Email: req.Email, FirstName: req.FirstName})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "form subscribe")
		if errors.Is(err, mailing.ErrRejected) {
			return fmt.Errorf("%w: %w", ErrSubscriptionRejected, err)
		}
		return fmt.Errorf("%w: %w", ErrMailingUnavailable, err)
	}

	if !s.List.CanTag() || id == "" || req.Source == "" {
		return nil
	}
	tag := s.SourceTags[req.Source]
	if tag == "" {
		return nil
	}
	if err := s.List.Tag(ctx, tag, req.Email); err != nil {
		mailingTagFailures.Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("source", req.Source).Msg("tagging failed (non-critical)")
	}
	return nil
}
