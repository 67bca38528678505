package model

import "time"

// Config is the full engine configuration.
//
// Hierarchy (highest to lowest priority): CLI flags, VERIDEX_* env vars,
// config file (~/.veridex/config.yaml), defaults below.
type Config struct {
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Validate  ValidateConfig  `yaml:"validate" mapstructure:"validate"`
	Iteration IterationConfig `yaml:"iteration" mapstructure:"iteration"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// EngineConfig selects live vs synthetic operation
type EngineConfig struct {
	Mode EngineMode `yaml:"mode" mapstructure:"mode"` // "live" or "synthetic"
}

// FetchConfig controls article retrieval
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ExtractConfig bounds claim extraction
type ExtractConfig struct {
	MaxInputBytes int `yaml:"max_input_bytes" mapstructure:"max_input_bytes"`
	MaxClaims     int `yaml:"max_claims" mapstructure:"max_claims"`
}

// SearchConfig configures the evidence search provider
type SearchConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey            string        `yaml:"api_key" mapstructure:"api_key"`
	CategoryTimeout   time.Duration `yaml:"category_timeout" mapstructure:"category_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CostPerCall       float64       `yaml:"cost_per_call" mapstructure:"cost_per_call"`
}

// LLMConfig configures the generative provider used for extraction,
// validation and narrative generation
type LLMConfig struct {
	Provider      string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model         string  `yaml:"model" mapstructure:"model"`
	APIKey        string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout       int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens     int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	CostPer1K     float64 `yaml:"cost_per_1k_tokens" mapstructure:"cost_per_1k_tokens"`
}

// ValidateConfig tunes per-claim validation
type ValidateConfig struct {
	RecencyWindowDays int `yaml:"recency_window_days" mapstructure:"recency_window_days"`
	Workers           int `yaml:"workers" mapstructure:"workers"` // bounded concurrency per round
}

// IterationConfig bounds the refinement loop
type IterationConfig struct {
	MaxIterations    int           `yaml:"max_iterations" mapstructure:"max_iterations"`
	TopK             int           `yaml:"top_k" mapstructure:"top_k"`
	PerCategoryLimit int           `yaml:"per_category_limit" mapstructure:"per_category_limit"`
	RoundTimeout     time.Duration `yaml:"round_timeout" mapstructure:"round_timeout"`
	JobTimeout       time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr   string        `yaml:"addr" mapstructure:"addr"`
	JobTTL time.Duration `yaml:"job_ttl" mapstructure:"job_ttl"` // retention for terminal jobs
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Mode: EngineLive,
		},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Veridex/0.1 (+https://github.com/veridex/veridex)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Extract: ExtractConfig{
			MaxInputBytes: 60_000,
			MaxClaims:     25,
		},
		Search: SearchConfig{
			CategoryTimeout:   12 * time.Second,
			RequestsPerSecond: 4,
			Burst:             8,
			CacheTTL:          15 * time.Minute,
			CostPerCall:       0.005,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Timeout:   45,
			MaxTokens: 1200,
			CostPer1K: 0.0006,
		},
		Validate: ValidateConfig{
			RecencyWindowDays: 14,
			Workers:           6,
		},
		Iteration: IterationConfig{
			MaxIterations:    3,
			TopK:             8,
			PerCategoryLimit: 4,
			RoundTimeout:     90 * time.Second,
			JobTimeout:       5 * time.Minute,
		},
		Server: ServerConfig{
			Addr:   ":8080",
			JobTTL: 24 * time.Hour,
		},
	}
}
