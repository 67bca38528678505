package evidence

import (
	"context"

	"github.com/veridex/veridex/internal/model"
)

// SourceAdapter is the uniform interface to an external search provider.
// Category calls are independent: a failure in one category must not
// abort the others, and the adapter never substitutes fabricated items
// for a failed call. Synthetic data exists only behind the explicitly
// labeled synthetic adapter.
type SourceAdapter interface {
	// Name returns the provider name
	Name() string

	// Search runs one category search. A failed call returns a
	// *model.ProviderError; the caller records it and moves on.
	Search(ctx context.Context, query string, category model.SourceType, limit int) ([]model.EvidenceItem, error)

	// Health probes the provider at startup. A non-nil error means
	// unreachable or unauthenticated and is fatal in live mode —
	// loud failure, never a silent downgrade to placeholder data.
	Health(ctx context.Context) error
}
