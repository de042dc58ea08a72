// Package services – AnalysisService
//
// This file implements AnalysisService, which spends a purchase token on one
// model-backed analysis of FDD item text. The order is verify, claim, model,
// consume:
//
//   - validation and authorization failures stop before the model is called;
//   - a model failure releases the claim and leaves the token unconsumed;
//   - unparseable model output still counts as a delivered analysis;
//   - a failed consume is logged and the findings are returned anyway.
//
// With the default NoopLedger the claim step is a no-op and the documented
// verify/consume race applies.

package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/llm"
	"github.com/tbourn/fdd-analyzer-backend/internal/repo"
)

// Analysis limits and model parameters.
const (
	DefaultMinTextRunes = 20
	DefaultMaxTextRunes = 50000

	analysisMaxTokens   = 2000
	analysisTemperature = 0.3
)

// AnalysisResult carries the findings of one call. Fallback is true when the
// findings are one of the fixed advisory entries.
type AnalysisResult struct {
	Findings []domain.Finding
	Fallback bool
}

// AnalysisService coordinates token checks and the model call.
type AnalysisService struct {
	Tokens TokenProtocol
	Model  ChatModel
	Ledger TokenLedger // nil means NoopLedger

	// Products accepted for analysis. Defaults to the analyzer and the
	// decision engine bundle, which includes it.
	Products []domain.Product

	// Consume stamps the token after a delivered analysis. When false the
	// caller finishes the purchase through complete-session.
	Consume bool

	// Optional guards
	MinTextRunes int
	MaxTextRunes int
	MaxFindings  int
}

func (s *AnalysisService) ledger() TokenLedger {
	if s.Ledger == nil {
		return NoopLedger{}
	}
	return s.Ledger
}

func (s *AnalysisService) products() []domain.Product {
	if len(s.Products) == 0 {
		return []domain.Product{domain.ProductFDDAnalyzer, domain.ProductDecisionEngine}
	}
	return s.Products
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// serviceIssue is the result returned alongside ErrAnalysisFailed.
func serviceIssue() AnalysisResult {
	findingsFallbacks.WithLabelValues("service").Inc()
	return AnalysisResult{Findings: []domain.Finding{FallbackServiceIssue}, Fallback: true}
}

// Analyze validates req, spends the token and returns findings. On
// ErrAnalysisFailed the returned result holds FallbackServiceIssue.
func (s *AnalysisService) Analyze(ctx context.Context, req domain.AnalysisRequest) (AnalysisResult, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Analyze",
		trace.WithAttributes(
			attribute.Int("item.num", req.ItemNum),
			attribute.Int("text.runes", utf8.RuneCountInString(req.Text)),
		),
	)
	defer span.End()
	lg := zerolog.Ctx(ctx)

	if req.Token == "" || req.ItemNum == 0 || req.Text == "" || req.Prompt == "" {
		return AnalysisResult{}, ErrMissingFields
	}
	if utf8.RuneCountInString(req.Text) < orDefault(s.MinTextRunes, DefaultMinTextRunes) {
		return AnalysisResult{}, ErrTextTooShort
	}
	text := TruncateRunes(norm.NFC.String(req.Text), orDefault(s.MaxTextRunes, DefaultMaxTextRunes))

	// Authorization
	v, err := s.Tokens.Verify(ctx, req.Token, s.products()...)
	switch {
	case errors.Is(err, ErrMalformedToken):
		return AnalysisResult{}, ErrInvalidSession
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify")
		return serviceIssue(), fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if !v.Valid {
		switch v.Reason {
		case domain.ReasonUnpaid:
			return AnalysisResult{}, ErrPaymentNotVerified
		case domain.ReasonUsed:
			return AnalysisResult{}, ErrAlreadyAnalyzed
		default:
			return AnalysisResult{}, ErrInvalidSession
		}
	}

	if err := s.ledger().Claim(ctx, req.Token); err != nil {
		if errors.Is(err, repo.ErrAlreadyClaimed) {
			return AnalysisResult{}, ErrAlreadyAnalyzed
		}
		span.RecordError(err)
		return serviceIssue(), fmt.Errorf("%w: claim: %w", ErrAnalysisFailed, err)
	}

	raw, err := s.Model.Complete(ctx, llm.Request{
		System:      analysisSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: analysisUserMessage(req.ItemNum, req.Prompt, text)}},
		MaxTokens:   analysisMaxTokens,
		Temperature: analysisTemperature,
	})
	llmRequests.WithLabelValues("analyze", outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model")
		if rerr := s.ledger().Release(ctx, req.Token); rerr != nil {
			lg.Warn().Err(rerr).Msg("release token claim")
		}
		return serviceIssue(), fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	res := AnalysisResult{}
	findings, ok := ParseFindings(raw, orDefault(s.MaxFindings, DefaultMaxFindings))
	if ok {
		res.Findings = findings
	} else {
		lg.Warn().Int("raw_len", len(raw)).Msg("model output not parseable as findings")
		findingsFallbacks.WithLabelValues("parse").Inc()
		res = AnalysisResult{Findings: []domain.Finding{FallbackUnparsed}, Fallback: true}
	}
	span.SetAttributes(attribute.Int("findings.count", len(res.Findings)), attribute.Bool("findings.fallback", res.Fallback))

	if !s.Consume {
		if rerr := s.ledger().Release(ctx, req.Token); rerr != nil {
			lg.Warn().Err(rerr).Msg("release token claim")
		}
		return res, nil
	}
	// The deliverable exists; a failed stamp leaves the token paid but
	// unconsumed for manual reconciliation.
	if _, err := s.Tokens.Consume(ctx, req.Token); err != nil {
		span.RecordError(err)
		lg.Error().Err(err).Msg("consume token after analysis")
	}
	return res, nil
}

// TruncateRunes cuts s to at most max runes.
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
