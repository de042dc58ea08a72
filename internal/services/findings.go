package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tbourn/fdd-analyzer-backend/internal/domain"
)

// DefaultMaxFindings caps the number of findings returned per item.
const DefaultMaxFindings = 8

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// Fixed advisory findings.
var (
	// FallbackUnparsed replaces model output that yielded no usable finding.
	FallbackUnparsed = domain.Finding{
		Severity: domain.SeverityYellow,
		Finding:  "The AI analysis could not fully parse this section. The text may contain formatting that requires manual review. We recommend having a franchise attorney review this item directly.",
		Question: "Can you provide a clean, plain-text version of this FDD item for review?",
	}

	// FallbackServiceIssue accompanies a failed analysis.
	FallbackServiceIssue = domain.Finding{
		Severity: domain.SeverityYellow,
		Finding:  "This item could not be analyzed due to a temporary service issue. Please try again or consult a franchise attorney for review of this section.",
		Question: "N/A: retry analysis or consult an attorney.",
	}
)

// ParseFindings extracts well-formed findings from raw model output. An
// optional code fence is stripped, the remainder must be a JSON array, and
// entries with an unknown severity or an empty finding/question are dropped.
// At most limit findings are kept. ok is false when nothing usable remains.
func ParseFindings(raw string, limit int) (out []domain.Finding, ok bool) {
	if limit <= 0 {
		limit = DefaultMaxFindings
	}
	cleaned := strings.TrimSpace(raw)
	cleaned = fenceOpen.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(fenceClose.ReplaceAllString(cleaned, ""))

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, false
	}

	for _, it := range items {
		var obj map[string]any
		if err := json.Unmarshal(it, &obj); err != nil || obj == nil {
			continue
		}
		sev, _ := obj["severity"].(string)
		finding, _ := obj["finding"].(string)
		question, _ := obj["question"].(string)
		if !domain.Severity(sev).Valid() || strings.TrimSpace(finding) == "" || strings.TrimSpace(question) == "" {
			continue
		}
		out = append(out, domain.Finding{Severity: domain.Severity(sev), Finding: finding, Question: question})
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
