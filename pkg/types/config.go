package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "skills-dataset/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call the Claude API.
type AIConfig struct {
	// Model is the Claude model identifier (e.g. "claude-haiku-4-5-20251001").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the Claude API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint, for pointing at a locally hosted
	// compatible server. Empty means api.anthropic.com.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ValidationConfig holds settings for the validation stage.
type ValidationConfig struct {
	AIConfig   `yaml:",inline"`
	HTTPConfig `yaml:",inline"`

	// MainDB is the source database from the file fetcher (read-only).
	MainDB string `json:"main_db" yaml:"main_db"`

	// OutputDB is the validation results database.
	OutputDB string `json:"output_db" yaml:"output_db"`

	// ContentDir is the content tree from the file fetcher (read-only),
	// laid out as {owner}/{repo}/blob/{ref}/{path}.
	ContentDir string `json:"content_dir" yaml:"content_dir"`

	// CacheDir holds one JSON file per classified prompt hash. Shared
	// across runs.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// MaxConcurrent bounds outstanding API calls in the pool strategy
	// (default 3).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// UseBatches selects the Message Batches API strategy instead of the
	// concurrent per-file strategy.
	UseBatches bool `json:"use_batches" yaml:"use_batches"`

	// BatchTokenBudget caps the estimated token total per submitted batch
	// (default 1000000).
	BatchTokenBudget int `json:"batch_token_budget" yaml:"batch_token_budget"`

	// BatchMaxItems caps the request count per submitted batch (default 10000).
	BatchMaxItems int `json:"batch_max_items" yaml:"batch_max_items"`
}

// ExportConfig holds settings for the export stage.
type ExportConfig struct {
	// MainDB is the source database from the file fetcher (read-only).
	MainDB string `json:"main_db" yaml:"main_db"`

	// OutputDB is the validation results database.
	OutputDB string `json:"output_db" yaml:"output_db"`

	// OutputDir receives the Parquet files and dataset metadata.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// KaggleUsername enables dataset-metadata.json and README generation
	// when non-empty.
	KaggleUsername string `json:"kaggle_username,omitempty" yaml:"kaggle_username,omitempty"`

	// AllowNoRepo exports files whose repository metadata is missing
	// instead of failing.
	AllowNoRepo bool `json:"allow_no_repo" yaml:"allow_no_repo"`

	// AllowNoHistory exports files whose commit history is missing
	// instead of failing.
	AllowNoHistory bool `json:"allow_no_history" yaml:"allow_no_history"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Export     ExportConfig     `json:"export" yaml:"export"`
}
