package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/fdd-analyzer-backend/internal/app"
	"github.com/tbourn/fdd-analyzer-backend/internal/config"
	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
)

// tokenOps is the slice of the token service the operator commands use.
type tokenOps interface {
	Inspect(ctx context.Context, token string) (*domain.PurchaseToken, error)
	Consume(ctx context.Context, token string) (domain.ConsumeResult, error)
}

// openTokens builds the token service from cfg; replaced in tests.
var openTokens = func(ctx context.Context, cfg config.Config) (tokenOps, func() error, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a.Tokens, a.Close, nil
}

// tokenStatus is the JSON printed by `token inspect`.
type tokenStatus struct {
	Token      string     `json:"token"`
	Status     string     `json:"status"`
	Product    string     `json:"product,omitempty"`
	Email      string     `json:"email,omitempty"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}

// consumeStatus is the JSON printed by `token consume`.
type consumeStatus struct {
	Token           string `json:"token"`
	Written         bool   `json:"written"`
	AlreadyConsumed bool   `json:"already_consumed"`
}

func tokenCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect or reconcile purchase tokens",
	}

	// withTokens runs fn against a freshly wired token service.
	withTokens := func(cmd *cobra.Command, fn func(context.Context, tokenOps) error) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, 2*cfg.Stripe.Timeout)
		defer cancel()

		ops, closeFn, err := openTokens(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		return fn(ctx, ops)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <session_id>",
		Short: "Print the lifecycle state of a purchase token as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokens(cmd, func(ctx context.Context, ops tokenOps) error {
				tok, err := ops.Inspect(ctx, args[0])
				if err != nil {
					return fmt.Errorf("inspect %s: %w", args[0], err)
				}
				return writeJSON(cmd.OutOrStdout(), tokenStatus{
					Token:      tok.ID,
					Status:     string(tok.Status()),
					Product:    string(tok.Product),
					Email:      tok.Email,
					ConsumedAt: tok.ConsumedAt,
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "consume <session_id>",
		Short: "Mark a paid token as used (manual reconciliation)",
		Long: `Stamps the token's payment intent exactly as a delivered analysis would.
Use it when an analysis was delivered but the consume step failed.
Consuming an already used token is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokens(cmd, func(ctx context.Context, ops tokenOps) error {
				res, err := ops.Consume(ctx, args[0])
				if err != nil {
					return fmt.Errorf("consume %s: %w", args[0], err)
				}
				return writeJSON(cmd.OutOrStdout(), consumeStatus{
					Token:           args[0],
					Written:         res.Written,
					AlreadyConsumed: res.AlreadyConsumed,
				})
			})
		},
	})

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
