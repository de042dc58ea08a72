// Package app assembles the process: provider clients, the optional claim
// ledger, application services and HTTP handlers, all from one Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/fdd-analyzer-backend/internal/config"
	"github.com/tbourn/fdd-analyzer-backend/internal/http/handlers"
	"github.com/tbourn/fdd-analyzer-backend/internal/llm"
	"github.com/tbourn/fdd-analyzer-backend/internal/mailing"
	"github.com/tbourn/fdd-analyzer-backend/internal/payments"
	"github.com/tbourn/fdd-analyzer-backend/internal/repo"
	"github.com/tbourn/fdd-analyzer-backend/internal/services"
)

// ledgerPingTimeout bounds the startup reachability check of a Redis ledger.
const ledgerPingTimeout = 3 * time.Second

// App is the wired object graph. Close releases the ledger connection.
type App struct {
	Tokens   *services.TokenService
	Handlers *handlers.Handlers

	closers []func() error
}

// New wires every dependency from cfg. Provider clients connect lazily; only
// the ledger is contacted here, so a misconfigured claim store fails startup
// instead of failing every analysis.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	stripeClient := payments.New(cfg.Stripe)
	model := llm.New(cfg.LLM)
	kit := mailing.New(cfg.Kit)

	ledger, closer, err := openLedger(ctx, cfg.Ledger)
	if err != nil {
		return nil, err
	}

	tokens := &services.TokenService{Payments: stripeClient}
	analysis := &services.AnalysisService{
		Tokens:  tokens,
		Model:   model,
		Ledger:  ledger,
		Consume: cfg.AnalyzeConsumes,
	}
	negotiation := &services.NegotiationService{
		Model:        model,
		RequireToken: cfg.NegotiateRequireToken,
		Tokens:       tokens,
	}
	subscriptions := &services.SubscriptionService{
		List:       kit,
		SourceTags: cfg.Kit.SourceTags,
	}
	checkout := &services.CheckoutService{Gateway: stripeClient}

	a := &App{
		Tokens:   tokens,
		Handlers: handlers.New(checkout, tokens, analysis, negotiation, subscriptions),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	log.Info().
		Str("ledger", cfg.Ledger.Driver).
		Bool("analyze_consumes", cfg.AnalyzeConsumes).
		Bool("negotiate_require_token", cfg.NegotiateRequireToken).
		Bool("stripe_configured", cfg.Stripe.SecretKey != "").
		Bool("model_configured", cfg.LLM.APIKey != "").
		Bool("kit_configured", kit.Configured()).
		Msg("app wired")
	return a, nil
}

// Close releases held connections, returning the first error.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openLedger returns the claim store selected by cfg.Driver and its closer
// (nil when nothing needs closing).
func openLedger(ctx context.Context, cfg config.LedgerConfig) (services.TokenLedger, func() error, error) {
	switch cfg.Driver {
	case "", "none":
		return services.NoopLedger{}, nil, nil

	case "sqlite":
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger db: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("ledger db handle: %w", err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate ledger db: %w", err)
		}
		return &repo.SQLiteLedger{DB: db}, sqlDB.Close, nil

	case "redis":
		l := repo.NewRedisLedger(cfg.RedisAddr, cfg.RedisPassword, cfg.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, ledgerPingTimeout)
		defer cancel()
		if err := l.Ping(pingCtx); err != nil {
			_ = l.Close()
			return nil, nil, fmt.Errorf("ping ledger redis: %w", err)
		}
		return l, l.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}
