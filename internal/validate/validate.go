// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate orchestrates the classification pipeline: candidate
// selection, the local pre-filter/cache phase, deduplicated Claude calls,
// durable verdict recording, and the derived files rebuild.
package validate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/skills-dataset/internal/classify"
	"github.com/pdiddy/skills-dataset/internal/corpus"
	"github.com/pdiddy/skills-dataset/internal/promptcache"
	"github.com/pdiddy/skills-dataset/internal/verdict"
	"github.com/pdiddy/skills-dataset/pkg/types"
)

// commitEvery bounds the work lost to an interrupted run: verdicts are
// committed after this many processed units.
const commitEvery = 100

// Summary holds the counts from one validation run.
type Summary struct {
	Valid    int
	Rejected int
	Errors   int
}

// Total returns the number of URLs that received a verdict this run.
func (s Summary) Total() int {
	return s.Valid + s.Rejected + s.Errors
}

// Run executes the full pipeline against cfg. A nil backend selects the
// real Claude API; tests inject a mock. Per-unit failures never abort the
// run: every candidate resolves to a verdict or a counted exclusion, and
// the summary reports whatever completed.
func Run(ctx context.Context, cfg types.ValidationConfig, backend classify.Backend, w io.Writer) (Summary, error) {
	src, err := corpus.Open(cfg.MainDB)
	if err != nil {
		return Summary{}, err
	}
	defer src.Close()

	store, err := verdict.Open(cfg.OutputDB)
	if err != nil {
		return Summary{}, err
	}
	defer store.Close()

	cache, err := promptcache.NewDirStore(cfg.CacheDir)
	if err != nil {
		return Summary{}, err
	}

	urls, err := src.URLs()
	if err != nil {
		return Summary{}, err
	}
	resolved, err := store.Resolved()
	if err != nil {
		return Summary{}, err
	}

	plan, err := BuildPlan(urls, resolved, cfg.ContentDir, cache)
	if err != nil {
		return Summary{}, err
	}

	fmt.Fprintf(w, "Total: %d, Already validated: %d, No content yet: %d, Skipped (bad URL): %d\n",
		plan.Stats.Total, plan.Stats.AlreadyResolved, plan.Stats.NoContent, plan.Stats.Unparseable)
	fmt.Fprintf(w, "Frontmatter rejected: %d, Cached: %d, Unique to submit: %d, Deduplicated: %d\n",
		plan.Stats.FrontmatterRejected, plan.Stats.Cached, len(plan.Pending), plan.Stats.Deduplicated)

	var summary Summary

	// Local results are durable before any API call is issued.
	batch, err := store.BeginBatch()
	if err != nil {
		return Summary{}, err
	}
	for _, lr := range plan.Local {
		if err := batch.Upsert(lr.URL, lr.IsSkill, lr.Reason); err != nil {
			return summary, err
		}
		summary.count(lr.IsSkill, lr.Reason)
	}
	if err := batch.Commit(); err != nil {
		return summary, err
	}

	if len(plan.Pending) > 0 {
		outcomes := startStrategy(ctx, cfg, backend, plan.Pending, w)
		if err := recordOutcomes(cfg, outcomes, cache, store, &summary, w); err != nil {
			return summary, err
		}
	}

	files, err := src.Files()
	if err != nil {
		return summary, err
	}
	validFiles, err := store.RebuildFiles(files)
	if err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "Done: %d validated, %d valid skills, %d rejected, %d errors\n",
		summary.Total(), summary.Valid, summary.Rejected, summary.Errors)
	fmt.Fprintf(w, "Output DB: %s (%d valid skill files)\n", cfg.OutputDB, validFiles)
	return summary, nil
}

// startStrategy launches the configured calling convention over the
// pending units and returns its outcome stream.
func startStrategy(ctx context.Context, cfg types.ValidationConfig, backend classify.Backend, pending []*classify.Unit, w io.Writer) <-chan classify.Outcome {
	if cfg.UseBatches {
		client := &classify.BatchClient{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Client:  &http.Client{Timeout: cfg.Timeout},
		}
		batches := classify.Pack(pending, cfg.BatchTokenBudget, cfg.BatchMaxItems)
		return client.Run(ctx, batches, w)
	}

	if backend == nil {
		backend = &classify.ClaudeBackend{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Client:  &http.Client{Timeout: cfg.Timeout},
		}
	}
	return classify.RunPool(ctx, backend, pending, cfg.MaxConcurrent)
}

// recordOutcomes drains the outcome stream in completion order: cache
// successful verdicts exactly once, fan each outcome out to its unit's
// member URLs, and commit periodically.
func recordOutcomes(cfg types.ValidationConfig, outcomes <-chan classify.Outcome, cache promptcache.Store, store *verdict.Store, summary *Summary, w io.Writer) error {
	batch, err := store.BeginBatch()
	if err != nil {
		return err
	}

	processed := 0
	for o := range outcomes {
		if !o.Failed {
			// Failures are deliberately not cached so the next run
			// re-attempts them.
			if err := cache.Put(o.Unit.Hash, promptcache.Entry{IsSkill: o.IsSkill, Reason: o.Reason}); err != nil {
				fmt.Fprintf(w, "  warning: cache write failed for %s: %v\n", o.Unit.Hash, err)
			}
		}

		for _, url := range o.Unit.URLs {
			if err := batch.Upsert(url, o.IsSkill, o.Reason); err != nil {
				return err
			}
			summary.count(o.IsSkill, o.Reason)
			if !cfg.UseBatches {
				printResult(w, url, o)
			}
		}

		processed++
		if processed%commitEvery == 0 {
			if err := batch.Commit(); err != nil {
				return err
			}
			if batch, err = store.BeginBatch(); err != nil {
				return err
			}
		}
	}

	return batch.Commit()
}

func printResult(w io.Writer, url string, o classify.Outcome) {
	if o.IsSkill {
		fmt.Fprintf(w, "  ok   %s\n", url)
	} else {
		fmt.Fprintf(w, "  no   %s - %s\n", url, o.Reason)
	}
}

func (s *Summary) count(isSkill bool, reason string) {
	switch {
	case isSkill:
		s.Valid++
	case isFailureReason(reason):
		s.Errors++
	default:
		s.Rejected++
	}
}

func isFailureReason(reason string) bool {
	return strings.HasPrefix(reason, classify.APIErrorPrefix) || strings.HasPrefix(reason, classify.ParseErrorPrefix)
}
