package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/veridex/veridex/internal/model"
)

// SyntheticAdapter generates deterministic, explicitly labeled fixture
// evidence. It exists only for the synthetic engine mode: every item it
// emits carries Synthetic=true so the validator and aggregator can
// detect it, and live job paths refuse to construct it at all.
type SyntheticAdapter struct {
	// FailCategories simulates provider failures for the listed
	// categories (used to exercise partial-failure paths)
	FailCategories map[model.SourceType]bool
}

// NewSyntheticAdapter creates a synthetic adapter
func NewSyntheticAdapter() *SyntheticAdapter {
	return &SyntheticAdapter{}
}

// Name returns the provider name
func (a *SyntheticAdapter) Name() string {
	return "synthetic"
}

// Health always passes: fixtures have no remote dependency
func (a *SyntheticAdapter) Health(ctx context.Context) error {
	return nil
}

// Search returns between 1 and limit deterministic items derived from
// the query hash, all labeled synthetic.
func (a *SyntheticAdapter) Search(ctx context.Context, query string, category model.SourceType, limit int) ([]model.EvidenceItem, error) {
	if a.FailCategories[category] {
		return nil, &model.ProviderError{Category: category, Provider: a.Name(), Message: "simulated provider failure"}
	}
	if limit <= 0 {
		limit = 1
	}

	hash := sha256.Sum256([]byte(query + "/" + string(category)))
	count := int(binary.BigEndian.Uint16(hash[:2]))%limit + 1

	published := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	items := make([]model.EvidenceItem, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, model.EvidenceItem{
			SourceType:     category,
			Title:          fmt.Sprintf("Synthetic %s result %d", category, i+1),
			URL:            fmt.Sprintf("https://synthetic.invalid/%s/%x/%d", category, hash[:4], i),
			Snippet:        fmt.Sprintf("Fixture snippet %d for query %q.", i+1, truncate(query, 60)),
			PublishedAt:    &published,
			RelevanceScore: 1.0 - float64(i)*0.1,
			Synthetic:      true,
		})
	}
	return items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
