// Package domain defines the core types shared by the gateways, services and
// HTTP layer: purchase tokens and their lifecycle, analysis findings,
// negotiation scenarios, and the optional token claim row persisted by GORM.
package domain

import (
	"encoding/json"
	"time"
)

// Product identifies what a checkout session paid for. It is stamped into the
// session metadata at checkout time and checked on every verification so a
// token bought for one product cannot unlock another.
type Product string

const (
	ProductFDDAnalyzer    Product = "fdd_analyzer"
	ProductDecisionEngine Product = "decision_engine"
)

// TokenStatus is the three-state lifecycle of a purchase token:
// UNPAID → PAID → CONSUMED, with no back-edges.
type TokenStatus string

const (
	StatusUnpaid   TokenStatus = "UNPAID"
	StatusPaid     TokenStatus = "PAID"
	StatusConsumed TokenStatus = "CONSUMED"
)

// PurchaseToken is a read-only snapshot of a checkout session as held by the
// payment provider. The provider is the system of record; nothing here is
// stored locally.
//
// Fields:
//   - ID: the checkout session id, reused as the bearer capability.
//   - Paid: payment has settled.
//   - Consumed: the payment intent carries the "analyzed" marker.
//   - Product: session metadata "product" (may be empty for foreign sessions).
//   - Email: customer email captured at checkout, if any.
//   - PaymentIntentID: settlement record used to stamp consumption.
//   - ConsumedAt: parsed "analyzed_at" marker, when present and well formed.
type PurchaseToken struct {
	ID              string     `json:"id"`
	Paid            bool       `json:"paid"`
	Consumed        bool       `json:"consumed"`
	Product         Product    `json:"product,omitempty"`
	Email           string     `json:"email,omitempty"`
	PaymentIntentID string     `json:"payment_intent_id,omitempty"`
	ConsumedAt      *time.Time `json:"consumed_at,omitempty"`
}

// Status derives the lifecycle state. A consumed marker on an unpaid session
// cannot be produced by this system, so unpaid always wins.
func (t PurchaseToken) Status() TokenStatus {
	switch {
	case !t.Paid:
		return StatusUnpaid
	case t.Consumed:
		return StatusConsumed
	default:
		return StatusPaid
	}
}

// Reason explains why a token failed verification.
type Reason string

const (
	ReasonInvalid    Reason = "invalid"
	ReasonUnpaid     Reason = "unpaid"
	ReasonUsed       Reason = "used"
	ReasonConnection Reason = "connection"
)

// Verification is the outcome of checking a token against the provider.
// Reason is empty when Valid is true.
type Verification struct {
	Valid  bool   `json:"valid"`
	Reason Reason `json:"reason,omitempty"`
	Token  string `json:"token,omitempty"`
	Email  string `json:"email,omitempty"`
}

// MarshalJSON writes a valid verification as {valid, token, email} with
// email null when the session captured none, and a failed one as
// {valid, reason}.
func (v Verification) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return json.Marshal(struct {
			Valid  bool   `json:"valid"`
			Reason Reason `json:"reason,omitempty"`
		}{v.Valid, v.Reason})
	}
	var email *string
	if v.Email != "" {
		email = &v.Email
	}
	return json.Marshal(struct {
		Valid bool    `json:"valid"`
		Token string  `json:"token"`
		Email *string `json:"email"`
	}{v.Valid, v.Token, email})
}

// ConsumeResult reports what a consume call did. Written is false when the
// token was already consumed or had no settlement record to stamp.
type ConsumeResult struct {
	Written         bool
	AlreadyConsumed bool
}
