package evidence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veridex/veridex/internal/model"
)

// Gatherer issues one search per category concurrently for a claim and
// merges the results into an evidence bundle. A category timeout or
// error contributes zero items and is recorded on the bundle; the
// bundle is returned even when every category fails.
type Gatherer struct {
	adapter          SourceAdapter
	categories       []model.SourceType
	perCategoryLimit int
	categoryTimeout  time.Duration
	calls            atomic.Int64
}

// NewGatherer creates a gatherer over the fixed category set
func NewGatherer(adapter SourceAdapter, perCategoryLimit int, categoryTimeout time.Duration) *Gatherer {
	return &Gatherer{
		adapter:          adapter,
		categories:       model.AllSourceTypes(),
		perCategoryLimit: perCategoryLimit,
		categoryTimeout:  categoryTimeout,
	}
}

// Calls reports how many provider searches this gatherer has issued,
// for cost accounting
func (g *Gatherer) Calls() int64 {
	return g.calls.Load()
}

type categoryResult struct {
	category model.SourceType
	items    []model.EvidenceItem
	err      *model.ProviderError
}

// Gather runs all category searches for the claim and waits for every
// one to settle (success or error) before merging. The merge is
// order-independent across categories: results are keyed and sorted by
// category so concurrent completion order never changes the bundle.
func (g *Gatherer) Gather(ctx context.Context, claim model.Claim) model.EvidenceBundle {
	query := buildQuery(claim)

	results := make([]categoryResult, len(g.categories))
	var wg sync.WaitGroup

	for i, category := range g.categories {
		wg.Add(1)
		go func(idx int, cat model.SourceType) {
			defer wg.Done()

			// Per-category timeout keeps one slow provider from
			// consuming the round budget
			catCtx, cancel := context.WithTimeout(ctx, g.categoryTimeout)
			defer cancel()

			g.calls.Add(1)
			items, err := g.adapter.Search(catCtx, query, cat, g.perCategoryLimit)
			if err != nil {
				results[idx] = categoryResult{category: cat, err: asProviderError(cat, err)}
				return
			}
			results[idx] = categoryResult{category: cat, items: items}
		}(i, category)
	}

	wg.Wait()

	bundle := model.EvidenceBundle{
		ClaimRef:     claim.SourceClaimIndex,
		Items:        []model.EvidenceItem{},
		CountsByType: make(map[model.SourceType]int),
		Gathered:     true,
	}

	sort.Slice(results, func(i, j int) bool { return results[i].category < results[j].category })
	for _, r := range results {
		if r.err != nil {
			bundle.SearchErrors = append(bundle.SearchErrors, *r.err)
			bundle.CountsByType[r.category] = 0
			continue
		}
		bundle.Items = append(bundle.Items, r.items...)
		bundle.CountsByType[r.category] = len(r.items)
	}

	return bundle
}

// asProviderError normalizes any adapter failure into the structured
// per-category record
func asProviderError(category model.SourceType, err error) *model.ProviderError {
	if pe, ok := err.(*model.ProviderError); ok {
		return pe
	}
	return &model.ProviderError{Category: category, Message: err.Error()}
}

func buildQuery(claim model.Claim) string {
	if claim.Context == "" {
		return claim.Text
	}
	return strings.TrimSpace(claim.Text + " " + claim.Context)
}
