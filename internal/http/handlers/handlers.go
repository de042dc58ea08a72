// Purchase-gated HTTP handlers.
//
// Endpoints (relative to the API base path):
//   - POST /create-checkout, /create-checkout-engine
//   - GET  /verify-session
//   - POST /complete-session
//   - POST /analyze
//   - POST /negotiate
//   - POST /subscribe
//
// Handlers are transport-thin: they bind input, call application services,
// and translate sentinel errors into status codes and message strings.
package handlers

import (
	"context"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// CheckoutService starts a hosted checkout for a product.
type CheckoutService interface {
	Create(ctx context.Context, product domain.Product) (string, error)
}

// TokenService is the verify/consume protocol over purchase tokens.
type TokenService interface {
	Verify(ctx context.Context, token string, products ...domain.Product) (domain.Verification, error)
	Consume(ctx context.Context, token string) (domain.ConsumeResult, error)
}

// AnalysisService runs one gated analysis.
type AnalysisService interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (services.AnalysisResult, error)
}

// NegotiationService produces one role-play reply.
type NegotiationService interface {
	Respond(ctx context.Context, req services.NegotiationRequest) (services.NegotiationReply, error)
}

// SubscriptionService adds a signup to the mailing list.
type SubscriptionService interface {
	Subscribe(ctx context.Context, req services.SubscribeRequest) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	checkoutSvc CheckoutService
	tokenSvc    TokenService
	analysisSvc AnalysisService
	negSvc      NegotiationService
	subSvc      SubscriptionService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(checkout CheckoutService, tokens TokenService, analysis AnalysisService, neg NegotiationService, sub SubscriptionService) *Handlers {
	return &Handlers{
		checkoutSvc: checkout,
		tokenSvc:    tokens,
		analysisSvc: analysis,
		negSvc:      neg,
		subSvc:      sub,
	}
}
