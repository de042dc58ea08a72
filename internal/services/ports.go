package services

import (
	"context"
	"time"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/llm"
	"github.com/tbourn/fdd-analyzer-backend/internal/mailing"
)

// PaymentGateway reads and stamps purchase tokens at the payment provider.
// GetSession must return an error matching payments.ErrSessionNotFound for
// identifiers the provider does not recognize.
type PaymentGateway interface {
	GetSession(ctx context.Context, id string) (*domain.PurchaseToken, error)
	MarkConsumed(ctx context.Context, paymentIntentID string, at time.Time) error
}

// CheckoutGateway creates hosted checkout sessions.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, product domain.Product) (string, error)
}

// ChatModel produces one completion.
type ChatModel interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// MailingList is the signup provider.
type MailingList interface {
	Configured() bool
	CanTag() bool
	SubscribeToForm(ctx context.Context, s mailing.Subscriber) (string, error)
	Tag(ctx context.Context, tagID, email string) error
}

// TokenLedger serializes the verify/consume sequence per token. Claim must
// fail with repo.ErrAlreadyClaimed when the token is already held.
type TokenLedger interface {
	Claim(ctx context.Context, token string) error
	Release(ctx context.Context, token string) error
}

// TokenProtocol is the verify/consume pair used by the gated services.
type TokenProtocol interface {
	Verify(ctx context.Context, token string, products ...domain.Product) (domain.Verification, error)
	Consume(ctx context.Context, token string) (domain.ConsumeResult, error)
}

// NoopLedger never blocks. Two concurrent requests with the same token may
// both pass verification before either consumes it.
type NoopLedger struct{}

func (NoopLedger) Claim(context.Context, string) error   { return nil }
func (NoopLedger) Release(context.Context, string) error { return nil }
