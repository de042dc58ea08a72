package domain

// Severity grades a finding. The set is closed.
type Severity string

const (
	SeverityRed    Severity = "red"
	SeverityYellow Severity = "yellow"
	SeverityGreen  Severity = "green"
)

// Valid reports whether s is one of the three known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityRed, SeverityYellow, SeverityGreen:
		return true
	}
	return false
}

// Finding is one structured risk item produced by an analysis.
type Finding struct {
	Severity Severity `json:"severity" example:"red"`
	Finding  string   `json:"finding" example:"The technology fee has no stated maximum."`
	Question string   `json:"question" example:"What is the contractual maximum for the technology fee?"`
}

// AnalysisRequest is the ephemeral input of one analysis call.
type AnalysisRequest struct {
	Token   string
	ItemNum int
	Text    string
	Prompt  string
}
