// Package payments is the gateway to the payment provider (Stripe). It reads
// checkout sessions together with their payment intents, stamps the
// consumption marker onto payment intents, and creates checkout sessions for
// the product catalog.
//
// The gateway converts Stripe types into domain.PurchaseToken so nothing above
// this package depends on stripe-go. All calls honor the caller's context, are
// bounded by the configured HTTP timeout, and are never retried: the browser
// is the retry driver.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/tbourn/fdd-analyzer-backend/internal/config"
	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
	"github.com/tbourn/fdd-analyzer-backend/internal/http/middleware"
)

// Metadata keys written at checkout and on consumption.
const (
	MetaProduct    = "product"
	MetaAnalyzed   = "analyzed"
	MetaAnalyzedAt = "analyzed_at"
)

// ErrSessionNotFound indicates the provider does not recognize the identifier
// (Stripe invalid_request_error with 400/404 or resource_missing). It is an
// expected outcome, not an outage.
var ErrSessionNotFound = errors.New("checkout session not found")

// Client wraps a stripe-go API client bound to one secret key and backend.
type Client struct {
	api     *client.API
	siteURL string
}

// New builds a Client from configuration. APIURL overrides the Stripe base URL
// (used by tests and mock servers).
func New(cfg config.StripeConfig) *Client {
	bc := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     zerologLeveled{},
	}
	if cfg.APIURL != "" {
		bc.URL = stripe.String(cfg.APIURL)
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, bc),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, bc),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, bc),
	}
	return &Client{
		api:     client.New(cfg.SecretKey, backends),
		siteURL: cfg.SiteURL,
	}
}

// GetSession fetches the checkout session id with its payment intent expanded
// and returns the token snapshot. Unknown identifiers yield ErrSessionNotFound;
// every other failure is returned wrapped.
func (c *Client) GetSession(ctx context.Context, id string) (*domain.PurchaseToken, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, classify("get checkout session", err)
	}
	return toToken(id, sess), nil
}

// MarkConsumed writes the consumption marker and timestamp onto the payment
// intent. Stripe merges metadata keys, so "product" is preserved.
func (c *Client) MarkConsumed(ctx context.Context, paymentIntentID string, at time.Time) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddMetadata(MetaAnalyzed, "true")
	params.AddMetadata(MetaAnalyzedAt, at.UTC().Format(time.RFC3339))

	if _, err := c.api.PaymentIntents.Update(paymentIntentID, params); err != nil {
		return classify("update payment intent", err)
	}
	return nil
}

// CreateCheckout creates a one-off card checkout session for product and
// returns the hosted checkout URL.
func (c *Client) CreateCheckout(ctx context.Context, product domain.Product) (string, error) {
	offer, ok := Catalog[product]
	if !ok {
		return "", fmt.Errorf("unknown product %q", product)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(offer.Name),
						Description: stripe.String(offer.Description),
					},
					UnitAmount: stripe.Int64(offer.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.siteURL + offer.SuccessPath),
		CancelURL:  stripe.String(c.siteURL + offer.CancelPath),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: offer.metadata(),
		},
	}
	params.Context = ctx
	for k, v := range offer.metadata() {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", classify("create checkout session", err)
	}
	return sess.URL, nil
}

// toToken maps a Stripe session onto the domain snapshot. requestedID is used
// when the response omits the id.
func toToken(requestedID string, sess *stripe.CheckoutSession) *domain.PurchaseToken {
	tok := &domain.PurchaseToken{
		ID:      sess.ID,
		Paid:    sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Product: domain.Product(sess.Metadata[MetaProduct]),
	}
	if tok.ID == "" {
		tok.ID = requestedID
	}
	if sess.CustomerDetails != nil {
		tok.Email = sess.CustomerDetails.Email
	}
	if pi := sess.PaymentIntent; pi != nil {
		tok.PaymentIntentID = pi.ID
		tok.Consumed = pi.Metadata[MetaAnalyzed] == "true"
		if raw := pi.Metadata[MetaAnalyzedAt]; raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				tok.ConsumedAt = &ts
			}
		}
	}
	return tok
}

// classify maps Stripe's unknown-identifier answers to ErrSessionNotFound and
// wraps everything else with the operation name. Stripe also tags a rejected
// API key (401) and rate limiting (429) as invalid_request_error; those stay
// upstream failures.
func classify(op string, err error) error {
	if se, ok := notFound(err); ok {
		return fmt.Errorf("%s: %w: %s", op, ErrSessionNotFound, se.Msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(err error) (*stripe.Error, bool) {
	var se *stripe.Error
	if !errors.As(err, &se) || se.Type != stripe.ErrorTypeInvalidRequest {
		return nil, false
	}
	if se.Code == stripe.ErrorCodeResourceMissing {
		return se, true
	}
	return se, se.HTTPStatusCode == http.StatusBadRequest || se.HTTPStatusCode == http.StatusNotFound
}

// zerologLeveled bridges stripe-go's leveled logger onto the global zerolog
// logger. stripe-go puts request paths in its messages, and those carry
// session ids, so every line is scrubbed.
type zerologLeveled struct{}

func (zerologLeveled) Debugf(format string, v ...interface{}) {
	stripeLog(log.Debug(), format, v)
}

func (zerologLeveled) Infof(format string, v ...interface{}) {
	stripeLog(log.Debug(), format, v)
}

func (zerologLeveled) Warnf(format string, v ...interface{}) {
	stripeLog(log.Warn(), format, v)
}

func (zerologLeveled) Errorf(format string, v ...interface{}) {
	stripeLog(log.Error(), format, v)
}

func stripeLog(ev *zerolog.Event, format string, v []interface{}) {
	ev.Str("component", "stripe").Msg(middleware.Scrub(fmt.Sprintf(format, v...)))
}
