package job

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/veridex/veridex/internal/llm"
	"github.com/veridex/veridex/internal/model"
)

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// articleGenerator writes the optional fact-check narrative. Generation
// problems degrade to warnings on the job; they never fail it.
type articleGenerator struct {
	provider llm.Provider
	tokens   atomic.Int64
}

func newArticleGenerator(provider llm.Provider) *articleGenerator {
	return &articleGenerator{provider: provider}
}

// TokensUsed reports cumulative provider token usage for cost accounting
func (g *articleGenerator) TokensUsed() int64 {
	return g.tokens.Load()
}

// Generate produces a narrative summary of the validated claims. Every
// claim reference in the text must cite a validated claim as [index];
// citation problems are returned as warnings alongside the text.
func (g *articleGenerator) Generate(ctx context.Context, title string, claims []model.Claim, results []model.ValidationResult) (string, []string, error) {
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		System:      articleSystem,
		Prompt:      buildArticlePrompt(title, claims, results),
		Temperature: 0.4,
	})
	if err != nil {
		return "", nil, fmt.Errorf("article generation: %w", err)
	}
	g.tokens.Add(int64(resp.TokensUsed))

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", nil, fmt.Errorf("article generation: empty response")
	}

	return text, checkCitations(text, results), nil
}

// checkCitations verifies the [index] references in the narrative
// against the validated claim set
func checkCitations(text string, results []model.ValidationResult) []string {
	validated := make(map[int]bool, len(results))
	for _, res := range results {
		validated[res.ClaimRef] = true
	}

	cited := make(map[int]bool)
	var warnings []string
	for _, match := range citationPattern.FindAllStringSubmatch(text, -1) {
		ref, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if !validated[ref] {
			warnings = append(warnings, fmt.Sprintf("narrative cites [%d], which is not a validated claim", ref))
			continue
		}
		cited[ref] = true
	}

	if len(cited) == 0 {
		warnings = append(warnings, "narrative contains no claim citations")
		return warnings
	}
	for _, res := range results {
		if !cited[res.ClaimRef] && res.Verdict.Issue() {
			warnings = append(warnings, fmt.Sprintf("narrative omits claim [%d], which has verdict %s", res.ClaimRef, res.Verdict))
		}
	}
	return warnings
}

const articleSystem = `You write concise fact-check summaries for a news backend. You only state what the validated verdicts support, and you cite every claim you discuss by its bracketed index.`

func buildArticlePrompt(title string, claims []model.Claim, results []model.ValidationResult) string {
	claimText := make(map[int]string, len(claims))
	for _, cl := range claims {
		claimText[cl.SourceClaimIndex] = cl.Text
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Write a short fact-check article (3-5 paragraphs) about %q.

Rules:
- Discuss only the validated claims listed below.
- Cite each claim you mention with its index in square brackets, e.g. [2].
- Lead with the claims found FALSE or MISLEADING, if any.
- Do not invent sources, quotes, or claims.

Validated claims:
`, title)

	for _, res := range results {
		fmt.Fprintf(&b, "[%d] %q — verdict %s (confidence %.2f): %s\n",
			res.ClaimRef, claimText[res.ClaimRef], res.Verdict, res.Confidence, res.Rationale)
	}
	return b.String()
}
