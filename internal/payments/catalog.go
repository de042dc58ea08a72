package payments

import "github.com/tbourn/fdd-analyzer-backend/internal/domain"

// Offer describes what a checkout session sells. The two variants differ only
// in price, copy, redirect paths and metadata.
type Offer struct {
	Name        string
	Description string
	UnitAmount  int64 // cents, USD
	SuccessPath string
	CancelPath  string
	// Unconsumed marks tokens that start out with analyzed=false so the
	// consumption marker is present (and false) from checkout onward.
	Unconsumed bool
	Product    domain.Product
}

func (o Offer) metadata() map[string]string {
	m := map[string]string{MetaProduct: string(o.Product)}
	if o.Unconsumed {
		m[MetaAnalyzed] = "false"
	}
	return m
}

// Catalog holds the purchasable products keyed by product tag.
var Catalog = map[domain.Product]Offer{
	domain.ProductFDDAnalyzer: {
		Product:     domain.ProductFDDAnalyzer,
		Name:        "AI FDD Analyzer",
		Description: "One-time AI analysis of your Franchise Disclosure Document. Covers all 23 FDD items with risk scoring, red flag detection, and downloadable PDF report.",
		UnitAmount:  6700,
		SuccessPath: "/fdd-analyzer-tool?session_id={CHECKOUT_SESSION_ID}",
		CancelPath:  "/fdd-analyzer",
		Unconsumed:  true,
	},
	domain.ProductDecisionEngine: {
		Product:     domain.ProductDecisionEngine,
		Name:        "AI Franchise Decision Engine",
		Description: "Full access: 5 negotiation scenarios, 5-way franchise comparison, 8 validation call script topics, plus the AI FDD Analyzer ($97 value included).",
		UnitAmount:  29700,
		SuccessPath: "/decision-engine-portal?session_id={CHECKOUT_SESSION_ID}",
		CancelPath:  "/decision-engine",
	},
}
