package model

import "time"

// JobStatus is the lifecycle state of a fact-check job
type JobStatus string

const (
	StatusSubmitted    JobStatus = "submitted"
	StatusExtracting   JobStatus = "extracting"
	StatusValidating   JobStatus = "validating"
	StatusSynthesizing JobStatus = "synthesizing"
	StatusFinished     JobStatus = "finished"
	StatusFailed       JobStatus = "failed"
)

// Terminal reports whether the job accepts no further writes
func (s JobStatus) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// JobMode selects how thorough a run is
type JobMode string

const (
	ModeStandard  JobMode = "standard"
	ModeIterative JobMode = "iterative"
	ModeThorough  JobMode = "thorough"
	ModeSummary   JobMode = "summary"
)

// Valid reports whether the mode is recognized
func (m JobMode) Valid() bool {
	switch m {
	case ModeStandard, ModeIterative, ModeThorough, ModeSummary:
		return true
	}
	return false
}

// EngineMode distinguishes real evidence from explicitly labeled test
// fixtures. There is no implicit fallback between the two: the mode is
// chosen at startup and recorded on every job.
type EngineMode string

const (
	EngineLive      EngineMode = "live"
	EngineSynthetic EngineMode = "synthetic"
)

// ModeParams are the iteration parameters a job mode resolves to
type ModeParams struct {
	MaxIterations    int
	TopK             int
	PerCategoryLimit int
}

// ResolveMode maps a job mode onto concrete iteration parameters
func ResolveMode(m JobMode, cfg IterationConfig) ModeParams {
	switch m {
	case ModeSummary:
		return ModeParams{MaxIterations: 1, TopK: 3, PerCategoryLimit: cfg.PerCategoryLimit}
	case ModeStandard:
		return ModeParams{MaxIterations: 1, TopK: cfg.TopK, PerCategoryLimit: cfg.PerCategoryLimit}
	case ModeThorough:
		return ModeParams{
			MaxIterations:    cfg.MaxIterations + 1,
			TopK:             cfg.TopK * 2,
			PerCategoryLimit: cfg.PerCategoryLimit + 2,
		}
	default: // iterative
		return ModeParams{MaxIterations: cfg.MaxIterations, TopK: cfg.TopK, PerCategoryLimit: cfg.PerCategoryLimit}
	}
}

// EstimatedSeconds is the static time hint returned on submission
func EstimatedSeconds(m JobMode) int {
	switch m {
	case ModeSummary:
		return 20
	case ModeStandard:
		return 45
	case ModeThorough:
		return 240
	default:
		return 120
	}
}

// IterationRound records one pass of gather+validate over a claim
// subset. Rounds are immutable once closed.
type IterationRound struct {
	RoundIndex       int                `json:"round_index"`
	ClaimsConsidered []int              `json:"claims_considered"`
	Results          []ValidationResult `json:"results"`
	IssuesFound      int                `json:"issues_found"`
	DurationSeconds  float64            `json:"duration_seconds"`
}

// ClaimBreakdown tallies non-ERROR verdicts for the assessment
type ClaimBreakdown struct {
	True       int `json:"true"`
	False      int `json:"false"`
	Misleading int `json:"misleading"`
	Unverified int `json:"unverified"`
	Total      int `json:"total"`
}

// ArticleAccuracyAssessment is the article-level result derived from
// the final set of validation results. It is recomputed whole whenever
// that set changes, never patched.
type ArticleAccuracyAssessment struct {
	ReliabilityScore float64        `json:"reliability_score"` // composite [0,1], distinct from credibility score
	Verdict          string         `json:"verdict"`
	Explanation      string         `json:"explanation"`
	ClaimBreakdown   ClaimBreakdown `json:"claim_breakdown"`
	ErrorCount       int            `json:"error_count,omitempty"`
}

// CostBreakdown tracks spend per pipeline phase
type CostBreakdown struct {
	Extraction        float64 `json:"extraction"`
	EvidenceSearch    float64 `json:"evidence_search"`
	Validation        float64 `json:"validation"`
	ArticleGeneration float64 `json:"article_generation"`
	Total             float64 `json:"total"`
}

// Sum recomputes the total from the phase figures
func (c *CostBreakdown) Sum() {
	c.Total = c.Extraction + c.EvidenceSearch + c.Validation + c.ArticleGeneration
}

// FactCheckJob is the aggregate root for one fact-check run. It is
// mutated only by the job orchestrator through the store's single-writer
// handoff, and write-fenced once terminal.
type FactCheckJob struct {
	JobID      string     `json:"job_id"`
	SourceURL  string     `json:"source_url"`
	Mode       JobMode    `json:"mode"`
	EngineMode EngineMode `json:"engine_mode"`

	Status       JobStatus `json:"status"`
	Phase        string    `json:"phase,omitempty"`
	Progress     float64   `json:"progress"` // [0,1]
	ErrorMessage string    `json:"error_message,omitempty"`

	ArticleTitle string  `json:"article_title,omitempty"`
	Claims       []Claim `json:"claims,omitempty"`

	Rounds           []IterationRound           `json:"rounds,omitempty"`
	FinalResults     []ValidationResult         `json:"final_results,omitempty"`
	CredibilityScore int                        `json:"credibility_score"`
	Assessment       *ArticleAccuracyAssessment `json:"assessment,omitempty"`

	GenerateArticle  bool     `json:"generate_article,omitempty"`
	GeneratedArticle string   `json:"generated_article,omitempty"`
	ArticleWarnings  []string `json:"article_warnings,omitempty"`

	Costs       CostBreakdown `json:"costs"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// ElapsedSeconds returns wall-clock time since submission (or to
// completion once terminal).
func (j *FactCheckJob) ElapsedSeconds(now time.Time) float64 {
	end := now
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(j.CreatedAt).Seconds()
}
