package iterate

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/veridex/veridex/internal/evidence"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/validate"
	"github.com/veridex/veridex/internal/worker"
)

// materialConfidenceDelta is the confidence shift that counts as a
// material change even when the verdict itself is stable
const materialConfidenceDelta = 0.25

// Config bounds one controller run
type Config struct {
	MaxIterations int
	TopK          int
	Concurrency   int
	RoundTimeout  time.Duration
	Mode          model.EngineMode // stamped on results the controller synthesizes itself
}

// Controller drives bounded multi-pass refinement over the claim set.
// It has no failure terminal of its own: every claim-level failure is
// an ERROR verdict in the results, and Run always reaches DONE.
type Controller struct {
	gatherer  *evidence.Gatherer
	validator *validate.Validator
	cfg       Config
}

// NewController creates an iteration controller
func NewController(g *evidence.Gatherer, v *validate.Validator, cfg Config) *Controller {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 1
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Controller{gatherer: g, validator: v, cfg: cfg}
}

// Outcome is the final state of a controller run
type Outcome struct {
	Rounds       []model.IterationRound
	FinalResults []model.ValidationResult
	Converged    bool // early stop (no issues left), not a budget stop
}

// claimTask runs gather+validate for one claim inside the round pool
type claimTask struct {
	claim     model.Claim
	gatherer  *evidence.Gatherer
	validator *validate.Validator
}

type claimOutcome struct {
	result model.ValidationResult
}

func (o *claimOutcome) GetError() error { return nil }

func (t *claimTask) Execute(ctx context.Context) worker.Result {
	bundle := t.gatherer.Gather(ctx, t.claim)
	return &claimOutcome{result: t.validator.Validate(ctx, t.claim, bundle)}
}

// Run executes rounds until convergence, the iteration cap, or the
// caller's deadline. Rounds are strictly sequential: the stopping
// decision needs round N's full result set before N+1 may start.
func (c *Controller) Run(ctx context.Context, claims []model.Claim) Outcome {
	byRef := make(map[int]model.Claim, len(claims))
	for _, cl := range claims {
		byRef[cl.SourceClaimIndex] = cl
	}

	working := selectInitial(claims, c.cfg.TopK)
	latest := make(map[int]model.ValidationResult)

	var outcome Outcome

	for round := 1; round <= c.cfg.MaxIterations; round++ {
		start := time.Now()
		results := c.runRound(ctx, working)

		issues := 0
		materialChanges := 0
		refs := make([]int, 0, len(working))
		for i, cl := range working {
			refs = append(refs, cl.SourceClaimIndex)
			res := results[i]
			if res.Verdict.Issue() {
				issues++
			}
			if prev, seen := latest[res.ClaimRef]; seen && materialChange(prev, res) {
				materialChanges++
			}
			latest[res.ClaimRef] = res
		}

		outcome.Rounds = append(outcome.Rounds, model.IterationRound{
			RoundIndex:       round,
			ClaimsConsidered: refs,
			Results:          results,
			IssuesFound:      issues,
			DurationSeconds:  time.Since(start).Seconds(),
		})

		log.Printf("[iterate] round %d: %d claims, %d issues, %d material changes",
			round, len(working), issues, materialChanges)

		if issues == 0 {
			outcome.Converged = true
			break
		}
		if round > 1 && materialChanges == 0 {
			// Issues persist but nothing moved: more rounds would only
			// repeat the same verdicts
			outcome.Converged = true
			break
		}
		if ctx.Err() != nil || round == c.cfg.MaxIterations {
			break
		}

		working = c.revisitSet(byRef, latest)
		if len(working) == 0 {
			outcome.Converged = true
			break
		}
	}

	outcome.FinalResults = finalize(latest)
	return outcome
}

// runRound fans gather+validate out over the round's claim set with
// bounded concurrency. Claims without a completed result when the
// round deadline hits are marked ERROR with a timeout rationale — the
// round closes either way.
func (c *Controller) runRound(ctx context.Context, working []model.Claim) []model.ValidationResult {
	roundCtx, cancel := context.WithTimeout(ctx, c.cfg.RoundTimeout)
	defer cancel()

	pool := worker.NewPool(roundCtx, c.cfg.Concurrency, len(working))
	pool.Start()
	for _, cl := range working {
		pool.Submit(&claimTask{claim: cl, gatherer: c.gatherer, validator: c.validator})
	}

	completed := make(map[int]model.ValidationResult)
	for _, r := range pool.Wait() {
		if out, ok := r.(*claimOutcome); ok {
			completed[out.result.ClaimRef] = out.result
		}
	}

	results := make([]model.ValidationResult, 0, len(working))
	for _, cl := range working {
		if res, ok := completed[cl.SourceClaimIndex]; ok {
			results = append(results, res)
			continue
		}
		results = append(results, model.ValidationResult{
			ClaimRef:       cl.SourceClaimIndex,
			Verdict:        model.VerdictError,
			Confidence:     0,
			Rationale:      model.ErrRoundTimeout.Error(),
			EvidenceCount:  0,
			ValidationMode: string(c.cfg.Mode),
		})
	}
	return results
}

// revisitSet picks the claims whose latest verdict is still an open
// issue for the next round
func (c *Controller) revisitSet(byRef map[int]model.Claim, latest map[int]model.ValidationResult) []model.Claim {
	var next []model.Claim
	for ref, res := range latest {
		if res.Verdict.Issue() {
			if cl, ok := byRef[ref]; ok {
				next = append(next, cl)
			}
		}
	}
	sort.Slice(next, func(i, j int) bool {
		return next[i].SourceClaimIndex < next[j].SourceClaimIndex
	})
	return next
}

// selectInitial takes the top-k highest-risk claims, ties broken by
// original extraction order
func selectInitial(claims []model.Claim, topK int) []model.Claim {
	selected := make([]model.Claim, len(claims))
	copy(selected, claims)

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].RiskLevel.Rank() != selected[j].RiskLevel.Rank() {
			return selected[i].RiskLevel.Rank() > selected[j].RiskLevel.Rank()
		}
		return selected[i].SourceClaimIndex < selected[j].SourceClaimIndex
	})

	if topK > 0 && len(selected) > topK {
		selected = selected[:topK]
	}
	return selected
}

// materialChange reports whether a revalidation moved the needle
func materialChange(prev, next model.ValidationResult) bool {
	if prev.Verdict != next.Verdict {
		return true
	}
	delta := prev.Confidence - next.Confidence
	if delta < 0 {
		delta = -delta
	}
	return delta > materialConfidenceDelta
}

// finalize orders the latest result per claim by claim index
func finalize(latest map[int]model.ValidationResult) []model.ValidationResult {
	refs := make([]int, 0, len(latest))
	for ref := range latest {
		refs = append(refs, ref)
	}
	sort.Ints(refs)

	results := make([]model.ValidationResult, 0, len(refs))
	for _, ref := range refs {
		results = append(results, latest[ref])
	}
	return results
}
