package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// Article-level verdict bands over the credibility score
const (
	bandTrue        = 90
	bandMostlyTrue  = 75
	bandMixed       = 55
	bandMostlyFalse = 40
)

// Aggregator derives the article-level credibility score and accuracy
// assessment from a final set of validation results. It is pure: the
// same result set always produces the same output, and recomputing
// after a refinement round replaces the assessment wholesale.
type Aggregator struct {
	engineMode model.EngineMode
}

// NewAggregator creates an aggregator bound to the engine mode so
// synthetic runs are flagged in the assessment they produce
func NewAggregator(engineMode model.EngineMode) *Aggregator {
	return &Aggregator{engineMode: engineMode}
}

// verdictPoints maps each verdict onto the 0-100 point scale. ERROR
// results score neutral so a failed validation neither inflates nor
// tanks the article.
func verdictPoints(v model.Verdict) float64 {
	switch v {
	case model.VerdictTrue:
		return 100
	case model.VerdictMostlyTrue:
		return 80
	case model.VerdictMixed:
		return 60
	case model.VerdictMisleading:
		return 45
	case model.VerdictMostlyFalse:
		return 40
	case model.VerdictFalse:
		return 20
	default: // UNVERIFIED_*, ERROR
		return 50
	}
}

// Aggregate computes the credibility score and assessment for a final
// result set. An empty set yields an UNVERIFIED assessment, never an
// error.
func (a *Aggregator) Aggregate(results []model.ValidationResult) (int, *model.ArticleAccuracyAssessment) {
	if len(results) == 0 {
		return 0, &model.ArticleAccuracyAssessment{
			ReliabilityScore: 0,
			Verdict:          "UNVERIFIED",
			Explanation:      a.annotate("No claims were validated."),
		}
	}

	var (
		pointSum      float64
		confidenceSum float64
		trueCount     int
		cleanCount    int // neither false-family nor misleading
		breakdown     model.ClaimBreakdown
		errorCount    int
	)

	for _, res := range results {
		// A synthetic-mode result reaching a live aggregation means a
		// wiring bug upstream; it is scored as an error, never as real.
		if a.engineMode == model.EngineLive && res.ValidationMode == string(model.EngineSynthetic) {
			res.Verdict = model.VerdictError
			res.Confidence = 0
			res.Rationale = model.ErrSyntheticEvidence.Error()
		}

		pointSum += verdictPoints(res.Verdict)
		confidenceSum += res.Confidence

		switch res.Verdict {
		case model.VerdictTrue:
			trueCount++
			breakdown.True++
		case model.VerdictMostlyTrue:
			breakdown.True++
		case model.VerdictFalse, model.VerdictMostlyFalse:
			breakdown.False++
		case model.VerdictMisleading:
			breakdown.Misleading++
		case model.VerdictUnverifiedInsufficientEvidence, model.VerdictUnverifiedTooRecent:
			breakdown.Unverified++
		case model.VerdictError:
			errorCount++
		}
		if !res.Verdict.Issue() && res.Verdict != model.VerdictMostlyFalse {
			cleanCount++
		}
	}
	breakdown.Total = len(results) - errorCount

	n := float64(len(results))
	mean := pointSum / n

	reliability := 0.4*(mean/100) +
		0.3*(float64(trueCount)/n) +
		0.2*(float64(cleanCount)/n) +
		0.1*(confidenceSum/n)
	if reliability < 0 {
		reliability = 0
	}
	if reliability > 1 {
		reliability = 1
	}

	credibility := int(math.Round(mean))
	verdict := articleVerdict(credibility, breakdown)

	return credibility, &model.ArticleAccuracyAssessment{
		ReliabilityScore: reliability,
		Verdict:          verdict,
		Explanation:      a.annotate(explain(credibility, reliability, breakdown, errorCount)),
		ClaimBreakdown:   breakdown,
		ErrorCount:       errorCount,
	}
}

// articleVerdict bands the credibility score into a headline verdict.
// A result set where nothing could be verified gets UNVERIFIED rather
// than the score-band verdict: a neutral score from missing evidence is
// not the same as a mixed record.
func articleVerdict(credibility int, breakdown model.ClaimBreakdown) string {
	if breakdown.Total == 0 || breakdown.Unverified == breakdown.Total {
		return "UNVERIFIED"
	}
	switch {
	case credibility >= bandTrue:
		return "TRUE"
	case credibility >= bandMostlyTrue:
		return "MOSTLY TRUE"
	case credibility >= bandMixed:
		return "MIXED"
	case credibility >= bandMostlyFalse:
		return "MOSTLY FALSE"
	default:
		return "FALSE"
	}
}

// explain spells out how the numbers were reached so the assessment is
// auditable from the response alone
func explain(credibility int, reliability float64, b model.ClaimBreakdown, errorCount int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d claims assessed: %d true, %d false, %d misleading, %d unverified.",
		b.Total, b.True, b.False, b.Misleading, b.Unverified)
	fmt.Fprintf(&sb, " Credibility %d/100 (mean of per-claim verdict points), reliability %.2f (weighted composite of verdict points, true-claim share, issue-free share and validator confidence).",
		credibility, reliability)
	if errorCount > 0 {
		fmt.Fprintf(&sb, " %d claims could not be validated and were scored neutral.", errorCount)
	}
	return sb.String()
}

// annotate stamps synthetic runs so their output can never pass for a
// live assessment
func (a *Aggregator) annotate(explanation string) string {
	if a.engineMode == model.EngineSynthetic {
		return explanation + " Synthetic engine mode: evidence was generated fixture data, not live sources."
	}
	return explanation
}
