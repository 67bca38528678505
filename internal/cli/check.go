package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/job"
	"github.com/veridex/veridex/internal/model"
)

var (
	checkMode     string
	checkArticle  bool
	checkTimeout  time.Duration
	checkSynth    bool
	checkOutputJS string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Fact-check a single article and print the result",
	Long: `Check runs the full pipeline against one article URL and waits for
the result: claim extraction, evidence gathering, validation rounds and
the credibility assessment.

Example:
  veridex check https://news.example.com/article
  veridex check https://news.example.com/article --mode thorough
  veridex check https://news.example.com/article --synthetic --generate-article`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkMode, "mode", string(model.ModeStandard), "job mode: summary, standard, iterative, thorough")
	checkCmd.Flags().BoolVar(&checkArticle, "generate-article", false, "also generate a fact-check narrative")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 6*time.Minute, "overall wait budget")
	checkCmd.Flags().BoolVar(&checkSynth, "synthetic", false, "run with generated fixture evidence instead of live providers")
	checkCmd.Flags().StringVar(&checkOutputJS, "json", "", "write the full result JSON to this path")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Loaded environment from .env")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if checkSynth {
		cfg.Engine.Mode = model.EngineSynthetic
	}

	orchestrator, err := job.NewOrchestrator(cfg)
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	submitted, err := orchestrator.Submit(job.SubmitRequest{
		SourceURL:       args[0],
		Mode:            model.JobMode(checkMode),
		GenerateArticle: checkArticle,
	})
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Job %s submitted (mode %s, engine %s)\n", submitted.JobID, submitted.Mode, submitted.EngineMode)
	}

	result, err := waitForResult(orchestrator, submitted.JobID, checkTimeout)
	if err != nil {
		return err
	}

	printResult(result)

	if checkOutputJS != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := os.WriteFile(checkOutputJS, data, 0o644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Result written to %s\n", checkOutputJS)
	}

	if result.Status == model.StatusFailed {
		return fmt.Errorf("fact-check failed: %s", result.ErrorMessage)
	}
	return nil
}

// waitForResult polls the orchestrator until the job is terminal
func waitForResult(orchestrator *job.Orchestrator, id string, budget time.Duration) (*model.FactCheckJob, error) {
	deadline := time.Now().Add(budget)
	lastPhase := ""

	for time.Now().Before(deadline) {
		j, err := orchestrator.Get(id)
		if err != nil {
			return nil, err
		}
		if j.Status.Terminal() {
			return j, nil
		}
		if verbose && j.Phase != lastPhase {
			fmt.Fprintf(os.Stderr, "  %s (%.0f%%)\n", j.Phase, j.Progress*100)
			lastPhase = j.Phase
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, errors.New("wait budget exhausted before the job finished")
}

func printResult(j *model.FactCheckJob) {
	fmt.Printf("Article:     %s\n", j.ArticleTitle)
	fmt.Printf("Status:      %s\n", j.Status)
	if j.Status == model.StatusFailed {
		fmt.Printf("Error:       %s\n", j.ErrorMessage)
		return
	}

	fmt.Printf("Credibility: %d/100\n", j.CredibilityScore)
	if j.Assessment != nil {
		fmt.Printf("Verdict:     %s (reliability %.2f)\n", j.Assessment.Verdict, j.Assessment.ReliabilityScore)
		fmt.Printf("\n%s\n", j.Assessment.Explanation)
	}

	fmt.Printf("\nClaims (%d):\n", len(j.FinalResults))
	claimText := make(map[int]string, len(j.Claims))
	for _, cl := range j.Claims {
		claimText[cl.SourceClaimIndex] = cl.Text
	}
	for _, res := range j.FinalResults {
		fmt.Printf("  [%d] %-32s %s (%.2f)\n", res.ClaimRef, truncateText(claimText[res.ClaimRef], 32), res.Verdict, res.Confidence)
	}

	if j.GeneratedArticle != "" {
		fmt.Printf("\n--- Generated narrative ---\n%s\n", j.GeneratedArticle)
		for _, w := range j.ArticleWarnings {
			fmt.Printf("warning: %s\n", w)
		}
	}

	fmt.Printf("\nRounds: %d, cost: $%.4f\n", len(j.Rounds), j.Costs.Total)
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
