package validate

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/veridex/veridex/internal/llm"
	"github.com/veridex/veridex/internal/model"
)

// unverifiedConfidence is the fixed confidence for zero-evidence
// verdicts: low by definition, never high enough to look authoritative
const unverifiedConfidence = 0.2

// Validator produces a verdict, confidence and rationale for one claim
// against one evidence bundle. All failures become ERROR verdicts with
// confidence 0; nothing escapes as an exception to the round.
type Validator struct {
	provider      llm.Provider
	engineMode    model.EngineMode
	recencyWindow time.Duration
	tokens        atomic.Int64

	// now is injectable for recency-window tests
	now func() time.Time
}

// NewValidator creates a validator bound to an engine mode
func NewValidator(provider llm.Provider, engineMode model.EngineMode, cfg model.ValidateConfig) *Validator {
	return &Validator{
		provider:      provider,
		engineMode:    engineMode,
		recencyWindow: time.Duration(cfg.RecencyWindowDays) * 24 * time.Hour,
		now:           time.Now,
	}
}

// TokensUsed reports cumulative provider token usage for cost accounting
func (v *Validator) TokensUsed() int64 {
	return v.tokens.Load()
}

// Validate checks one claim against its evidence bundle
func (v *Validator) Validate(ctx context.Context, claim model.Claim, bundle model.EvidenceBundle) model.ValidationResult {
	if !bundle.Gathered {
		return v.errorResult(claim, 0, "evidence bundle was never gathered for this claim")
	}

	// Live jobs must never score fixture data; this is the production
	// guard against fabricated evidence reaching a verdict.
	if v.engineMode == model.EngineLive && bundle.HasSynthetic() {
		return v.errorResult(claim, len(bundle.Items), model.ErrSyntheticEvidence.Error())
	}

	evidenceCount := len(bundle.Items)
	if evidenceCount == 0 {
		return v.unverifiedResult(claim, bundle)
	}

	resp, err := v.provider.Complete(ctx, llm.CompletionRequest{
		System:      verdictSystem,
		Prompt:      buildVerdictPrompt(claim, bundle),
		Temperature: 0.1,
	})
	if err != nil {
		return v.errorResult(claim, evidenceCount, fmt.Sprintf("validation call failed: %v", err))
	}
	v.tokens.Add(int64(resp.TokensUsed))

	verdict, confidence, rationale, err := parseVerdictResponse(resp.Text)
	if err != nil {
		return v.errorResult(claim, evidenceCount, err.Error())
	}

	// The model cannot claim certainty it has no evidence for; the
	// bundle size is authoritative, not the model's own count.
	if verdict.Unverified() {
		confidence = clamp01(confidence)
		if confidence > unverifiedConfidence {
			confidence = unverifiedConfidence
		}
	}

	return model.ValidationResult{
		ClaimRef:       claim.SourceClaimIndex,
		Verdict:        verdict,
		Confidence:     confidence,
		Rationale:      rationale,
		EvidenceCount:  evidenceCount,
		ValidationMode: string(v.engineMode),
	}
}

// unverifiedResult renders the zero-evidence policy: TOO_RECENT when
// the claim's event date falls inside the recency window, otherwise
// INSUFFICIENT_EVIDENCE. Never TRUE or FALSE without evidence.
func (v *Validator) unverifiedResult(claim model.Claim, bundle model.EvidenceBundle) model.ValidationResult {
	verdict := model.VerdictUnverifiedInsufficientEvidence
	reason := "no evidence retrieved in any category"
	if len(bundle.SearchErrors) > 0 {
		reason = fmt.Sprintf("no evidence retrieved; %d of %d category searches failed",
			len(bundle.SearchErrors), len(bundle.CountsByType))
	}

	if claim.EventDate != nil {
		age := v.now().Sub(*claim.EventDate)
		if age < 0 {
			age = -age
		}
		if age <= v.recencyWindow {
			verdict = model.VerdictUnverifiedTooRecent
			reason = fmt.Sprintf("claimed event (%s) is within the %s recency window; coverage may not be indexed yet",
				claim.EventDate.Format("2006-01-02"), v.recencyWindow)
		}
	}

	return model.ValidationResult{
		ClaimRef:       claim.SourceClaimIndex,
		Verdict:        verdict,
		Confidence:     unverifiedConfidence,
		Rationale:      reason,
		EvidenceCount:  0,
		ValidationMode: string(v.engineMode),
	}
}

// errorResult renders a failure as data. Invariant: confidence 0 and a
// non-empty rationale.
func (v *Validator) errorResult(claim model.Claim, evidenceCount int, rationale string) model.ValidationResult {
	if strings.TrimSpace(rationale) == "" {
		rationale = "validation failed for an unknown reason"
	}
	return model.ValidationResult{
		ClaimRef:       claim.SourceClaimIndex,
		Verdict:        model.VerdictError,
		Confidence:     0,
		Rationale:      rationale,
		EvidenceCount:  evidenceCount,
		ValidationMode: string(v.engineMode),
	}
}

const verdictSystem = `You are a fact-checking verdict engine. You weigh a claim against the evidence provided — nothing else — and respond with JSON only.`

func buildVerdictPrompt(claim model.Claim, bundle model.EvidenceBundle) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Assess the claim strictly against the evidence below.

Verdicts (choose exactly one):
- TRUE, MOSTLY_TRUE, MIXED, MOSTLY_FALSE, FALSE
- MISLEADING: only for claims that are narrowly true but rely on context omission or deceptive framing
- MIXED: the claim bundles multiple sub-assertions of differing truth; when torn between MISLEADING and MIXED, choose MIXED
- UNVERIFIED_INSUFFICIENT_EVIDENCE: the evidence does not bear on the claim

Respond with JSON only:
{"verdict": "...", "confidence": 0.0, "rationale": "...", "evidence_count": %d}

Claim: %s
`, len(bundle.Items), claim.Text)

	if claim.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", claim.Context)
	}

	b.WriteString("\nEvidence:\n")
	for i, item := range bundle.Items {
		fmt.Fprintf(&b, "%d. [%s] %s — %s\n   %s\n", i+1, item.SourceType, item.Title, item.URL, item.Snippet)
	}

	return b.String()
}
