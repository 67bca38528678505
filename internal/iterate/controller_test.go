package iterate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/veridex/veridex/internal/evidence"
	"github.com/veridex/veridex/internal/llm"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/validate"
)

type stubAdapter struct {
	failAll bool
}

func (a *stubAdapter) Name() string { return "stub" }
func (a *stubAdapter) Health(ctx context.Context) error { return nil }

func (a *stubAdapter) Search(ctx context.Context, query string, category model.SourceType, limit int) ([]model.EvidenceItem, error) {
	if a.failAll {
		return nil, &model.ProviderError{Category: category, Provider: a.Name(), Message: "stub outage"}
	}
	return []model.EvidenceItem{{
		SourceType: category,
		Title:      "stub result",
		URL:        fmt.Sprintf("https://evidence.example.com/%s", category),
		Snippet:    "stub snippet",
	}}, nil
}

// sequencedProvider replays verdict responses in call order; the last
// one repeats once the script runs out
type sequencedProvider struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (p *sequencedProvider) Name() string { return "sequenced" }

func (p *sequencedProvider) Health(ctx context.Context) error { return nil }

func (p *sequencedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	return &llm.CompletionResponse{Text: p.responses[idx], Model: "test", TokensUsed: 10}, nil
}

func verdictJSON(verdict string, confidence float64) string {
	return fmt.Sprintf(`{"verdict": %q, "confidence": %f, "rationale": "scripted", "evidence_count": 1}`, verdict, confidence)
}

func repeatResponse(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func highRiskClaims(n int) []model.Claim {
	claims := make([]model.Claim, 0, n)
	for i := 0; i < n; i++ {
		claims = append(claims, model.Claim{
			Text:             fmt.Sprintf("claim %d", i),
			RiskLevel:        model.RiskHigh,
			SourceClaimIndex: i,
		})
	}
	return claims
}

func newController(adapter evidence.SourceAdapter, provider llm.Provider, cfg Config) *Controller {
	g := evidence.NewGatherer(adapter, 3, 2*time.Second)
	v := validate.NewValidator(provider, model.EngineLive, model.ValidateConfig{RecencyWindowDays: 14})
	return NewController(g, v, cfg)
}

func TestRun_ReinspectsIssuesUntilClean(t *testing.T) {
	// Round 1 finds three FALSE claims; round 2 revalidates them and
	// they come back TRUE, so the run stops with no issues left.
	provider := &sequencedProvider{responses: append(
		repeatResponse(verdictJSON("FALSE", 0.9), 3),
		repeatResponse(verdictJSON("TRUE", 0.9), 3)...,
	)}
	ctrl := newController(&stubAdapter{}, provider, Config{
		MaxIterations: 3, TopK: 8, Concurrency: 2, RoundTimeout: 5 * time.Second,
	})

	out := ctrl.Run(context.Background(), highRiskClaims(3))

	if len(out.Rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(out.Rounds))
	}
	if out.Rounds[0].IssuesFound != 3 {
		t.Errorf("round 1 issues: got %d", out.Rounds[0].IssuesFound)
	}
	if out.Rounds[1].IssuesFound != 0 {
		t.Errorf("round 2 issues: got %d", out.Rounds[1].IssuesFound)
	}
	if !out.Converged {
		t.Error("a clean final round should be recorded as convergence")
	}
	if len(out.FinalResults) != 3 {
		t.Fatalf("final results: got %d", len(out.FinalResults))
	}
	for i, res := range out.FinalResults {
		if res.ClaimRef != i {
			t.Errorf("final results out of claim order: position %d has ref %d", i, res.ClaimRef)
		}
		if res.Verdict != model.VerdictTrue {
			t.Errorf("claim %d: latest verdict should win, got %s", res.ClaimRef, res.Verdict)
		}
	}
}

func TestRun_StopsAtIterationCap(t *testing.T) {
	// Verdicts stay FALSE but confidence swings every round, so the
	// stability rule never fires and only the cap ends the run
	provider := &sequencedProvider{responses: []string{
		verdictJSON("FALSE", 0.9), verdictJSON("FALSE", 0.9),
		verdictJSON("FALSE", 0.3), verdictJSON("FALSE", 0.3),
		verdictJSON("FALSE", 0.9), verdictJSON("FALSE", 0.9),
	}}
	ctrl := newController(&stubAdapter{}, provider, Config{
		MaxIterations: 3, TopK: 8, Concurrency: 2, RoundTimeout: 5 * time.Second,
	})

	out := ctrl.Run(context.Background(), highRiskClaims(2))

	if len(out.Rounds) != 3 {
		t.Fatalf("expected the full 3 rounds, got %d", len(out.Rounds))
	}
	if out.Converged {
		t.Error("a cap stop must not be reported as convergence")
	}
	for _, res := range out.FinalResults {
		if res.Verdict != model.VerdictFalse {
			t.Errorf("claim %d: got %s", res.ClaimRef, res.Verdict)
		}
	}
}

func TestRun_StableVerdictsStopEarly(t *testing.T) {
	// Identical FALSE verdicts in round 2 mean revalidation is not
	// moving anything; burning the remaining budget would be waste
	provider := &sequencedProvider{responses: []string{verdictJSON("FALSE", 0.8)}}
	ctrl := newController(&stubAdapter{}, provider, Config{
		MaxIterations: 5, TopK: 8, Concurrency: 2, RoundTimeout: 5 * time.Second,
	})

	out := ctrl.Run(context.Background(), highRiskClaims(2))

	if len(out.Rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(out.Rounds))
	}
	if !out.Converged {
		t.Error("stable verdicts should count as convergence")
	}
}

func TestRun_TopKSelectsHighestRisk(t *testing.T) {
	claims := []model.Claim{
		{Text: "low", RiskLevel: model.RiskLow, SourceClaimIndex: 0},
		{Text: "high a", RiskLevel: model.RiskHigh, SourceClaimIndex: 1},
		{Text: "medium", RiskLevel: model.RiskMedium, SourceClaimIndex: 2},
		{Text: "high b", RiskLevel: model.RiskHigh, SourceClaimIndex: 3},
	}
	provider := &sequencedProvider{responses: []string{verdictJSON("TRUE", 0.9)}}
	ctrl := newController(&stubAdapter{}, provider, Config{
		MaxIterations: 2, TopK: 2, Concurrency: 2, RoundTimeout: 5 * time.Second,
	})

	out := ctrl.Run(context.Background(), claims)

	if len(out.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(out.Rounds))
	}
	considered := out.Rounds[0].ClaimsConsidered
	if len(considered) != 2 || considered[0] != 1 || considered[1] != 3 {
		t.Errorf("top-k should pick the high-risk claims in extraction order, got %v", considered)
	}
	if len(out.FinalResults) != 2 {
		t.Errorf("only validated claims belong in final results, got %d", len(out.FinalResults))
	}
}

func TestRun_TotalSearchFailureStillCompletes(t *testing.T) {
	// Every category search fails for every claim; the run must still
	// finish with unverified verdicts rather than erroring out
	provider := &sequencedProvider{responses: []string{`{"never": "called"}`}}
	ctrl := newController(&stubAdapter{failAll: true}, provider, Config{
		MaxIterations: 3, TopK: 8, Concurrency: 2, RoundTimeout: 5 * time.Second,
	})

	out := ctrl.Run(context.Background(), highRiskClaims(3))

	if len(out.Rounds) != 1 {
		t.Fatalf("no issues means no second round, got %d rounds", len(out.Rounds))
	}
	if !out.Converged {
		t.Error("an issue-free round is convergence even when all searches failed")
	}
	for _, res := range out.FinalResults {
		if res.Verdict != model.VerdictUnverifiedInsufficientEvidence {
			t.Errorf("claim %d: got %s", res.ClaimRef, res.Verdict)
		}
	}
	if provider.calls != 0 {
		t.Errorf("validation provider must not be called without evidence, got %d calls", provider.calls)
	}
}

func TestRun_SingleWorkerHandlesWideRound(t *testing.T) {
	// A round with far more claims than workers must drain completely:
	// no claim may be marked ERROR just because it sat queued behind the
	// others while the worker was busy.
	provider := &sequencedProvider{responses: []string{verdictJSON("TRUE", 0.9)}}
	ctrl := newController(&stubAdapter{}, provider, Config{
		MaxIterations: 1, TopK: 16, Concurrency: 1, RoundTimeout: 2 * time.Second,
	})

	start := time.Now()
	out := ctrl.Run(context.Background(), highRiskClaims(8))

	if len(out.FinalResults) != 8 {
		t.Fatalf("expected 8 results, got %d", len(out.FinalResults))
	}
	for _, res := range out.FinalResults {
		if res.Verdict != model.VerdictTrue {
			t.Errorf("claim %d: got %s (%s)", res.ClaimRef, res.Verdict, res.Rationale)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("instant tasks should not run anywhere near the round deadline, took %s", elapsed)
	}
}

func TestRunRound_ExpiredContextFillsTimeoutErrors(t *testing.T) {
	provider := &sequencedProvider{responses: []string{verdictJSON("TRUE", 0.9)}}
	ctrl := newController(&stubAdapter{}, provider, Config{
		MaxIterations: 1, TopK: 8, Concurrency: 2, RoundTimeout: time.Second,
		Mode: model.EngineLive,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ctrl.runRound(ctx, highRiskClaims(3))

	if len(results) != 3 {
		t.Fatalf("every working claim needs a result, got %d", len(results))
	}
	for _, res := range results {
		if res.Verdict != model.VerdictError {
			t.Errorf("claim %d: expected ERROR after deadline, got %s", res.ClaimRef, res.Verdict)
		}
		if res.Confidence != 0 {
			t.Errorf("claim %d: ERROR must carry confidence 0", res.ClaimRef)
		}
		if !strings.Contains(res.Rationale, "deadline") {
			t.Errorf("claim %d: rationale should name the deadline, got %q", res.ClaimRef, res.Rationale)
		}
		if res.ValidationMode != string(model.EngineLive) {
			t.Errorf("claim %d: timeout fill should carry the engine mode, got %q", res.ClaimRef, res.ValidationMode)
		}
	}
}
