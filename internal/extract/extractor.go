package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/veridex/veridex/internal/llm"
	"github.com/veridex/veridex/internal/model"
)

// Extractor turns raw article text into an ordered list of discrete,
// checkable claims with risk classification. Extraction failure is
// fatal to the job: it signals a content problem, never a transient one.
type Extractor struct {
	provider      llm.Provider
	maxInputBytes int
	maxClaims     int
}

// NewExtractor creates a new claim extractor
func NewExtractor(provider llm.Provider, cfg model.ExtractConfig) *Extractor {
	return &Extractor{
		provider:      provider,
		maxInputBytes: cfg.MaxInputBytes,
		maxClaims:     cfg.MaxClaims,
	}
}

// claimResponse is the strict per-claim contract expected from the
// provider. Pointer fields distinguish "missing" from zero values.
type claimResponse struct {
	Text      *string `json:"text"`
	RiskLevel *string `json:"risk_level"`
	Category  string  `json:"category"`
	Context   string  `json:"context"`
	EventDate string  `json:"event_date"` // YYYY-MM-DD, optional
}

const extractSystem = `You extract discrete, checkable factual claims from news articles. You respond with JSON only, no prose.`

// Extract produces the claim list for the given article text. Each
// claim gets a stable 0-based source_claim_index assigned here, in
// order; all later stages cross-reference claims by that index only.
func (e *Extractor) Extract(ctx context.Context, text string) ([]model.Claim, int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, 0, &model.ExtractionError{Reason: "empty article text"}
	}
	if len(trimmed) > e.maxInputBytes {
		return nil, 0, &model.ExtractionError{
			Reason: fmt.Sprintf("article text exceeds limit: %d > %d bytes", len(trimmed), e.maxInputBytes),
		}
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System:      extractSystem,
		Prompt:      buildExtractPrompt(trimmed, e.maxClaims),
		Temperature: 0.1,
	})
	if err != nil {
		return nil, 0, &model.ExtractionError{Reason: fmt.Sprintf("extraction call failed: %v", err)}
	}

	claims, err := parseClaims(resp.Text, e.maxClaims)
	if err != nil {
		return nil, resp.TokensUsed, err
	}
	return claims, resp.TokensUsed, nil
}

// parseClaims enforces the extraction response contract. Anything that
// does not match becomes an ExtractionError; there is no best-effort
// salvage of a half-valid claim list.
func parseClaims(raw string, maxClaims int) ([]model.Claim, error) {
	var parsed []claimResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, &model.ExtractionError{Reason: fmt.Sprintf("malformed extraction response: %v", err)}
	}

	if len(parsed) == 0 {
		return nil, &model.ExtractionError{Reason: "no checkable claims found"}
	}
	if len(parsed) > maxClaims {
		parsed = parsed[:maxClaims]
	}

	claims := make([]model.Claim, 0, len(parsed))
	for i, c := range parsed {
		if c.Text == nil || strings.TrimSpace(*c.Text) == "" {
			return nil, &model.ExtractionError{Reason: fmt.Sprintf("claim %d missing text", i)}
		}
		if c.RiskLevel == nil {
			return nil, &model.ExtractionError{Reason: fmt.Sprintf("claim %d missing risk_level", i)}
		}
		risk := model.RiskLevel(strings.ToUpper(strings.TrimSpace(*c.RiskLevel)))
		if !risk.Valid() {
			return nil, &model.ExtractionError{Reason: fmt.Sprintf("claim %d has unknown risk_level %q", i, *c.RiskLevel)}
		}

		claim := model.Claim{
			Text:             strings.TrimSpace(*c.Text),
			RiskLevel:        risk,
			Category:         strings.TrimSpace(c.Category),
			Context:          strings.TrimSpace(c.Context),
			SourceClaimIndex: i,
		}
		if c.EventDate != "" {
			if d, err := time.Parse("2006-01-02", c.EventDate); err == nil {
				claim.EventDate = &d
			}
		}
		claims = append(claims, claim)
	}

	return claims, nil
}

func buildExtractPrompt(text string, maxClaims int) string {
	return fmt.Sprintf(`Extract up to %d discrete factual claims from the article below.

Rules:
- Each claim must be a single checkable assertion, not an opinion or prediction.
- risk_level is LOW, MEDIUM or HIGH: how damaging the claim is if false.
- category is one of: statistic, attribution, event, scientific, historical, other.
- context is the minimal surrounding detail needed to check the claim in isolation.
- event_date (YYYY-MM-DD) only when the claim refers to a dated event.
- Order claims as they appear in the article.

Respond with a JSON array only:
[{"text": "...", "risk_level": "HIGH", "category": "event", "context": "...", "event_date": ""}]

Article:
%s`, maxClaims, text)
}

// stripCodeFence removes a markdown code fence if the model wrapped its
// JSON in one
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
