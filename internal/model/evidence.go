package model

import "time"

// SourceType categorizes which search channel an evidence item came from
type SourceType string

const (
	SourceNews       SourceType = "news"
	SourceResearch   SourceType = "research"
	SourceGeneral    SourceType = "general"
	SourceHistorical SourceType = "historical"
)

// AllSourceTypes returns the fixed category set searched for every claim
func AllSourceTypes() []SourceType {
	return []SourceType{SourceNews, SourceResearch, SourceGeneral, SourceHistorical}
}

// EvidenceItem is a single retrieved document supporting or contradicting
// a claim. Items are owned by the bundle that created them and never mutated.
type EvidenceItem struct {
	SourceType     SourceType `json:"source_type"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Snippet        string     `json:"snippet,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	RelevanceScore float64    `json:"relevance_score,omitempty"`
	Synthetic      bool       `json:"synthetic,omitempty"` // true only for test-mode fixtures
}

// ProviderError records a failed category search. It is data on the
// bundle, not a control-flow error: one failed category never aborts
// the gather.
type ProviderError struct {
	Category SourceType `json:"category"`
	Provider string     `json:"provider,omitempty"`
	Message  string     `json:"message"`
}

func (e *ProviderError) Error() string {
	return string(e.Category) + " search failed: " + e.Message
}

// EvidenceBundle holds everything retrieved for one claim in one
// validation attempt. Invariant: CountsByType sums to len(Items).
// Gathered distinguishes an empty bundle (all categories failed or
// returned nothing) from "not yet searched".
type EvidenceBundle struct {
	ClaimRef     int                `json:"claim_ref"`
	Items        []EvidenceItem     `json:"items"`
	CountsByType map[SourceType]int `json:"counts_by_type"`
	SearchErrors []ProviderError    `json:"search_errors,omitempty"`
	Gathered     bool               `json:"gathered"`
}

// HasSynthetic reports whether any item in the bundle is test-mode data
func (b *EvidenceBundle) HasSynthetic() bool {
	for _, item := range b.Items {
		if item.Synthetic {
			return true
		}
	}
	return false
}
