package services

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Label values come from closed sets (products, reasons,
// fixed outcome strings), so cardinality stays bounded.
var (
	tokenVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_verifications_total",
			Help: "Purchase token verifications by expected product and outcome.",
		},
		[]string{"product", "reason"},
	)

	tokenConsumptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_consumptions_total",
			Help: "Consume attempts by outcome (written, already_consumed, no_payment_intent, error).",
		},
		[]string{"outcome"},
	)

	llmRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Model calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	findingsFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "findings_fallback_total",
			Help: "Analyses answered with a fixed fallback finding, by kind (parse, service).",
		},
		[]string{"kind"},
	)

	mailingTagFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mailing_tag_failures_total",
			Help: "Swallowed failures of the post-signup tagging step.",
		},
	)
)

func init() {
	prometheus.MustRegister(tokenVerifications, tokenConsumptions, llmRequests, findingsFallbacks, mailingTagFailures)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
