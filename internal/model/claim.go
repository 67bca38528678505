package model

import "time"

// RiskLevel classifies how damaging a claim would be if it turned out false
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Rank returns an ordering weight for prioritization (higher = riskier)
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the risk level is one of the closed set
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Claim represents a discrete, checkable factual assertion extracted
// from article text. Claims are immutable once produced; validation
// rounds reference them by SourceClaimIndex, never by copy.
type Claim struct {
	Text             string     `json:"text"`
	RiskLevel        RiskLevel  `json:"risk_level"`
	Category         string     `json:"category,omitempty"` // e.g. "statistic", "attribution", "event"
	Context          string     `json:"context,omitempty"`  // surrounding text that disambiguates the claim
	EventDate        *time.Time `json:"event_date,omitempty"`
	SourceClaimIndex int        `json:"source_claim_index"` // 0-based, contiguous, stable
}
