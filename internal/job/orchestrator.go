package job

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/cache"
	"github.com/veridex/veridex/internal/evidence"
	"github.com/veridex/veridex/internal/extract"
	"github.com/veridex/veridex/internal/fetch"
	"github.com/veridex/veridex/internal/iterate"
	"github.com/veridex/veridex/internal/llm"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/score"
	"github.com/veridex/veridex/internal/validate"
)

// SubmitRequest is a request to fact-check one article. Either
// SourceURL or ArticleText must be set; inline text skips fetching.
type SubmitRequest struct {
	SourceURL       string
	ArticleText     string
	ArticleTitle    string
	Mode            model.JobMode
	GenerateArticle bool
}

// Orchestrator owns the job lifecycle: it validates submissions, runs
// the pipeline in a background goroutine under the job timeout, and is
// the sole writer of job state. Evidence, validation and cost counters
// are per-job instances; the provider, adapter and fetcher are shared.
type Orchestrator struct {
	cfg         *model.Config
	provider    llm.Provider
	adapter     evidence.SourceAdapter
	fetcher     *fetch.Fetcher
	searchCache cache.Cache
	store       *Store
}

// NewOrchestrator wires the pipeline from configuration. In live mode a
// missing search provider or LLM credential fails construction — the
// engine never substitutes synthetic evidence on its own.
func NewOrchestrator(cfg *model.Config) (*Orchestrator, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	searchCache := cache.NewMemoryCache(cfg.Search.CacheTTL, 10*time.Minute)

	var adapter evidence.SourceAdapter
	if cfg.Engine.Mode == model.EngineSynthetic {
		adapter = evidence.NewSyntheticAdapter()
	} else {
		adapter, err = evidence.NewSearchClient(cfg.Search, searchCache)
		if err != nil {
			return nil, fmt.Errorf("evidence provider: %w", err)
		}
	}

	return &Orchestrator{
		cfg:         cfg,
		provider:    provider,
		adapter:     adapter,
		fetcher:     fetch.NewFetcher(cfg.Fetch),
		searchCache: searchCache,
		store:       NewStore(cfg.Server.JobTTL),
	}, nil
}

// Mode reports the engine mode the orchestrator was configured with
func (o *Orchestrator) Mode() model.EngineMode {
	return o.cfg.Engine.Mode
}

// Health probes the evidence provider and the LLM provider
func (o *Orchestrator) Health(ctx context.Context) error {
	if err := o.adapter.Health(ctx); err != nil {
		return fmt.Errorf("evidence provider %s: %w", o.adapter.Name(), err)
	}
	if err := o.provider.Health(ctx); err != nil {
		return fmt.Errorf("llm provider %s: %w", o.provider.Name(), err)
	}
	return nil
}

// Submit registers a job and starts it in the background
func (o *Orchestrator) Submit(req SubmitRequest) (*model.FactCheckJob, error) {
	if strings.TrimSpace(req.SourceURL) == "" && strings.TrimSpace(req.ArticleText) == "" {
		return nil, fmt.Errorf("either source_url or article_text is required")
	}
	if req.Mode == "" {
		req.Mode = model.ModeStandard
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("unknown mode %q", req.Mode)
	}

	job := &model.FactCheckJob{
		JobID:           uuid.New().String(),
		SourceURL:       req.SourceURL,
		Mode:            req.Mode,
		EngineMode:      o.cfg.Engine.Mode,
		Status:          model.StatusSubmitted,
		ArticleTitle:    req.ArticleTitle,
		GenerateArticle: req.GenerateArticle,
		CreatedAt:       time.Now().UTC(),
	}
	o.store.Put(job)

	go o.run(job.JobID, req)

	snapshot := *job
	return &snapshot, nil
}

// Get returns a snapshot of the job
func (o *Orchestrator) Get(id string) (*model.FactCheckJob, error) {
	return o.store.Get(id)
}

// List returns snapshots of all retained jobs, newest first
func (o *Orchestrator) List() []*model.FactCheckJob {
	return o.store.List()
}

// run executes the pipeline for one job under the job timeout. Claim-
// and category-level failures are data in the results; only content
// failures (fetch, extraction) and the job deadline fail the job.
func (o *Orchestrator) run(jobID string, req SubmitRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.Iteration.JobTimeout)
	defer cancel()

	text, title, ok := o.loadArticle(ctx, jobID, req)
	if !ok {
		return
	}

	extractor := extract.NewExtractor(o.provider, o.cfg.Extract)
	o.update(jobID, func(j *model.FactCheckJob) {
		j.Phase = "extracting claims"
		j.Progress = 0.15
	})

	claims, extractTokens, err := extractor.Extract(ctx, text)
	if err != nil {
		o.fail(jobID, fmt.Sprintf("claim extraction: %v", err))
		return
	}
	if o.timedOut(ctx, jobID) {
		return
	}

	params := model.ResolveMode(req.Mode, o.cfg.Iteration)
	gatherer := evidence.NewGatherer(o.adapter, params.PerCategoryLimit, o.cfg.Search.CategoryTimeout)
	validator := validate.NewValidator(o.provider, o.cfg.Engine.Mode, o.cfg.Validate)
	controller := iterate.NewController(gatherer, validator, iterate.Config{
		MaxIterations: params.MaxIterations,
		TopK:          params.TopK,
		Concurrency:   o.cfg.Validate.Workers,
		RoundTimeout:  o.cfg.Iteration.RoundTimeout,
		Mode:          o.cfg.Engine.Mode,
	})

	o.update(jobID, func(j *model.FactCheckJob) {
		j.Status = model.StatusValidating
		j.Phase = "validating claims"
		j.Progress = 0.3
		j.ArticleTitle = title
		j.Claims = claims
	})

	outcome := controller.Run(ctx, claims)

	o.update(jobID, func(j *model.FactCheckJob) {
		j.Status = model.StatusSynthesizing
		j.Phase = "aggregating results"
		j.Progress = 0.75
		j.Rounds = outcome.Rounds
		j.FinalResults = outcome.FinalResults
	})
	if o.timedOut(ctx, jobID) {
		return
	}

	credibility, assessment := score.NewAggregator(o.cfg.Engine.Mode).Aggregate(outcome.FinalResults)

	var (
		narrative     string
		warnings      []string
		articleTokens int64
	)
	if req.GenerateArticle {
		generator := newArticleGenerator(o.provider)
		narrative, warnings, err = generator.Generate(ctx, title, claims, outcome.FinalResults)
		if err != nil {
			// Narrative is a bonus artifact; its failure is a warning
			warnings = append(warnings, err.Error())
			log.Printf("[job %s] %v", jobID, err)
		}
		articleTokens = generator.TokensUsed()
	}

	costs := o.assembleCosts(extractTokens, gatherer.Calls(), validator.TokensUsed(), articleTokens)

	now := time.Now().UTC()
	o.update(jobID, func(j *model.FactCheckJob) {
		j.Status = model.StatusFinished
		j.Phase = ""
		j.Progress = 1
		j.CredibilityScore = credibility
		j.Assessment = assessment
		j.GeneratedArticle = narrative
		j.ArticleWarnings = warnings
		j.Costs = costs
		j.CompletedAt = &now
	})
	log.Printf("[job %s] finished: %d claims, credibility %d, %d rounds",
		jobID, len(claims), credibility, len(outcome.Rounds))
}

// loadArticle resolves the article text, fetching when only a URL was
// given. Returns ok=false after failing the job.
func (o *Orchestrator) loadArticle(ctx context.Context, jobID string, req SubmitRequest) (text, title string, ok bool) {
	title = req.ArticleTitle

	if strings.TrimSpace(req.ArticleText) != "" {
		o.update(jobID, func(j *model.FactCheckJob) {
			j.Status = model.StatusExtracting
			j.Phase = "reading article"
			j.Progress = 0.05
		})
		return req.ArticleText, title, true
	}

	o.update(jobID, func(j *model.FactCheckJob) {
		j.Status = model.StatusExtracting
		j.Phase = "fetching article"
		j.Progress = 0.05
	})

	article, err := o.fetcher.Fetch(ctx, req.SourceURL)
	if err != nil {
		o.fail(jobID, fmt.Sprintf("article fetch: %v", err))
		return "", "", false
	}
	if title == "" {
		title = article.Title
	}
	return article.Text, title, true
}

func (o *Orchestrator) assembleCosts(extractTokens int, searchCalls, validateTokens, articleTokens int64) model.CostBreakdown {
	perToken := o.cfg.LLM.CostPer1K / 1000
	costs := model.CostBreakdown{
		Extraction:        float64(extractTokens) * perToken,
		EvidenceSearch:    float64(searchCalls) * o.cfg.Search.CostPerCall,
		Validation:        float64(validateTokens) * perToken,
		ArticleGeneration: float64(articleTokens) * perToken,
	}
	costs.Sum()
	return costs
}

// timedOut fails the job with the partial state it has accumulated when
// the job deadline has passed
func (o *Orchestrator) timedOut(ctx context.Context, jobID string) bool {
	if ctx.Err() == nil {
		return false
	}
	o.fail(jobID, model.ErrJobTimeout.Error())
	return true
}

// update applies a state change through the store's write fence. A
// late write against a terminal job is logged and dropped, never
// applied.
func (o *Orchestrator) update(jobID string, fn func(*model.FactCheckJob)) {
	if _, err := o.store.Update(jobID, fn); err != nil {
		log.Printf("[job %s] state update dropped: %v", jobID, err)
	}
}

func (o *Orchestrator) fail(jobID string, msg string) {
	now := time.Now().UTC()
	o.update(jobID, func(j *model.FactCheckJob) {
		j.Status = model.StatusFailed
		j.Phase = ""
		j.ErrorMessage = msg
		j.CompletedAt = &now
	})
	log.Printf("[job %s] failed: %s", jobID, msg)
}
