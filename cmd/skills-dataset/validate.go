package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/skills-dataset/internal/classify"
	"github.com/pdiddy/skills-dataset/internal/validate"
	"github.com/pdiddy/skills-dataset/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "skills-dataset/0.1"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Classify fetched SKILL.md files with the Claude API",
	Long: `Validate runs the classification pipeline over every URL in the main
database: files without valid YAML frontmatter are rejected locally,
identical contents are deduplicated and served from the prompt cache,
and the rest are classified by Claude. Verdicts persist across runs;
interrupted or failed classifications are retried on the next run.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("main-db", "skills.db", "source database from the file fetcher")
	validateCmd.Flags().String("output-db", "validation.db", "validation results database")
	validateCmd.Flags().String("content-dir", "content", "fetched content tree")
	validateCmd.Flags().String("cache-dir", "validation_cache", "prompt verdict cache directory")
	validateCmd.Flags().String("model", classify.DefaultModel, "Claude model identifier")
	validateCmd.Flags().String("api-key", "", "Claude API key (default: .secrets/anthropic-api-key)")
	validateCmd.Flags().String("base-url", "", "override the Claude API endpoint")
	validateCmd.Flags().Int("max-concurrent", classify.DefaultMaxConcurrent, "concurrent API calls in pool mode")
	validateCmd.Flags().Bool("batch", false, "use the Message Batches API instead of the worker pool")
	validateCmd.Flags().Int("batch-token-budget", classify.DefaultBatchTokenBudget, "estimated token cap per submitted batch")
	validateCmd.Flags().Int("batch-max-items", classify.DefaultBatchMaxItems, "request cap per submitted batch")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	mainDB, _ := cmd.Flags().GetString("main-db")
	outputDB, _ := cmd.Flags().GetString("output-db")
	contentDir, _ := cmd.Flags().GetString("content-dir")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")
	baseURL, _ := cmd.Flags().GetString("base-url")
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
	useBatches, _ := cmd.Flags().GetBool("batch")
	tokenBudget, _ := cmd.Flags().GetInt("batch-token-budget")
	maxItems, _ := cmd.Flags().GetInt("batch-max-items")

	apiKey = secretDefault("anthropic-api-key", apiKey)
	if apiKey == "" {
		return fmt.Errorf("no Claude API key: pass --api-key or create .secrets/anthropic-api-key")
	}

	cfg := types.ValidationConfig{
		AIConfig: types.AIConfig{
			Model:   model,
			APIKey:  apiKey,
			BaseURL: baseURL,
		},
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		MainDB:           mainDB,
		OutputDB:         outputDB,
		ContentDir:       contentDir,
		CacheDir:         cacheDir,
		MaxConcurrent:    maxConcurrent,
		UseBatches:       useBatches,
		BatchTokenBudget: tokenBudget,
		BatchMaxItems:    maxItems,
	}

	_, err := validate.Run(cmd.Context(), cfg, nil, os.Stdout)
	return err
}
