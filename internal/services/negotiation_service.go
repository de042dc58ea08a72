package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/llm"
)

// Negotiation limits and model parameters.
const (
	DefaultMaxHistory      = 10
	DefaultMaxMessageRunes = 3000

	negotiationMaxTokens   = 500
	negotiationTemperature = 0.7
)

// FallbackReply is returned to the caller when a turn could not be generated.
const FallbackReply = "I apologize, but I need to step away for a moment. Let's continue this conversation shortly."

// Turn is one prior message of a negotiation transcript.
type Turn struct {
	Role    string `json:"role" example:"user"`
	Content string `json:"content" example:"Can we talk about the territory radius?"`
}

// NegotiationRequest is one user turn.
type NegotiationRequest struct {
	Scenario    string
	History     []Turn
	UserMessage string
	Token       string
}

// NegotiationReply is the representative's answer. Scenario echoes the key
// the caller sent.
type NegotiationReply struct {
	Reply    string
	Scenario string
}

// NegotiationService runs role-play turns against the model.
type NegotiationService struct {
	Model ChatModel

	// RequireToken gates turns on a paid decision-engine token. The token is
	// never consumed: a practice session spans many turns.
	RequireToken bool
	Tokens       TokenProtocol

	// Optional guards
	MaxHistory      int
	MaxMessageRunes int
}

// Respond produces the next in-character reply.
func (s *NegotiationService) Respond(ctx context.Context, req NegotiationRequest) (NegotiationReply, error) {
	tr := otel.Tracer("services/NegotiationService")
	ctx, span := tr.Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.String("scenario", req.Scenario),
			attribute.Int("history.len", len(req.History)),
		),
	)
	defer span.End()

	if req.Scenario == "" || req.UserMessage == "" {
		return NegotiationReply{}, ErrMissingFields
	}

	if s.RequireToken {
		if err := s.authorize(ctx, req.Token); err != nil {
			return NegotiationReply{}, err
		}
	}

	sc := domain.ScenarioFor(req.Scenario)
	msgs := BuildHistory(req.History, orDefault(s.MaxHistory, DefaultMaxHistory))
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: TruncateRunes(req.UserMessage, orDefault(s.MaxMessageRunes, DefaultMaxMessageRunes)),
	})

	out, err := s.Model.Complete(ctx, llm.Request{
		System:      negotiationSystemPrompt(sc),
		Messages:    msgs,
		MaxTokens:   negotiationMaxTokens,
		Temperature: negotiationTemperature,
	})
	llmRequests.WithLabelValues("negotiate", outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model")
		if errors.Is(err, llm.ErrNotConfigured) {
			return NegotiationReply{}, ErrModelUnavailable
		}
		return NegotiationReply{}, fmt.Errorf("%w: %w", ErrSimulationFailed, err)
	}
	return NegotiationReply{Reply: strings.TrimSpace(out), Scenario: req.Scenario}, nil
}

// authorize accepts a paid decision-engine token. A consumed marker only
// records that the bundled analysis was used, so "used" still passes.
func (s *NegotiationService) authorize(ctx context.Context, token string) error {
	if s.Tokens == nil {
		return ErrPaymentNotVerified
	}
	v, err := s.Tokens.Verify(ctx, token, domain.ProductDecisionEngine)
	switch {
	case errors.Is(err, ErrMalformedToken):
		return ErrPaymentNotVerified
	case err != nil:
		return fmt.Errorf("%w: %w", ErrSimulationFailed, err)
	case v.Valid, v.Reason == domain.ReasonUsed:
		return nil
	}
	return ErrPaymentNotVerified
}

// BuildHistory keeps the last max turns and drops entries that are not
// user/assistant messages with content.
func BuildHistory(history []Turn, max int) []llm.Message {
	if max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}
	out := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		if h.Content == "" {
			continue
		}
		switch h.Role {
		case llm.RoleUser, llm.RoleAssistant:
			out = append(out, llm.Message{Role: h.Role, Content: h.Content})
		}
	}
	return out
}
