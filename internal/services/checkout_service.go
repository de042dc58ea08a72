package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
)

// CheckoutService starts purchases.
type CheckoutService struct {
	Gateway CheckoutGateway
}

// Create returns the hosted checkout URL for product.
func (s *CheckoutService) Create(ctx context.Context, product domain.Product) (string, error) {
	tr := otel.Tracer("services/CheckoutService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("product", string(product))),
	)
	defer span.End()

	url, err := s.Gateway.CreateCheckout(ctx, product)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create checkout")
		return "", fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}
	return url, nil
}
