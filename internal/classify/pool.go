// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrent bounds outstanding API calls when the caller does
// not configure a pool size.
const DefaultMaxConcurrent = 3

// Reason prefixes marking failure outcomes. Verdicts carrying them are not
// cached and are re-attempted on the next run.
const (
	APIErrorPrefix   = "API error: "
	ParseErrorPrefix = "Parse error: "
)

// Unit is one unique rendered prompt and every URL whose content renders
// to it. All members receive the same verdict.
type Unit struct {
	Hash    string
	Content string
	URLs    []string
}

// Outcome is the terminal result for one unit. Failed outcomes carry a
// prefixed reason and must not be written to the prompt cache.
type Outcome struct {
	Unit    *Unit
	IsSkill bool
	Reason  string
	Failed  bool
}

// RetryDelays are the waits between classification attempts: 3 attempts
// total, 2s then 4s apart. Tests override this to avoid real sleeps.
var RetryDelays = []time.Duration{2 * time.Second, 4 * time.Second}

// RunPool classifies units with a fixed number of workers, each issuing
// one Messages API call per unit. Outcomes arrive on the returned channel
// in completion order, not submission order; the channel closes after the
// last unit resolves. Cancellation drains as failure outcomes so every
// unit still resolves to exactly one outcome.
func RunPool(ctx context.Context, backend Backend, units []*Unit, concurrency int) <-chan Outcome {
	if concurrency <= 0 {
		concurrency = DefaultMaxConcurrent
	}

	in := make(chan *Unit)
	out := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range in {
				out <- classifyUnit(ctx, backend, u)
			}
		}()
	}

	go func() {
		defer close(in)
		for _, u := range units {
			in <- u
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// classifyUnit runs the retry loop and parse chain for one unit.
func classifyUnit(ctx context.Context, backend Backend, u *Unit) Outcome {
	text, err := callWithRetry(ctx, backend, u.Content)
	if err != nil {
		return Outcome{Unit: u, Reason: APIErrorPrefix + clip(err.Error(), 120), Failed: true}
	}

	v, err := ParseVerdict(text)
	if err != nil {
		return Outcome{Unit: u, Reason: ParseErrorPrefix + clip(err.Error(), 120), Failed: true}
	}

	return Outcome{Unit: u, IsSkill: v.IsSkill, Reason: v.Reason}
}

// callWithRetry attempts the backend up to len(RetryDelays)+1 times,
// sleeping between attempts. Context cancellation cuts the loop short.
func callWithRetry(ctx context.Context, backend Backend, content string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= len(RetryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(RetryDelays[attempt-1]):
			}
		}

		text, err := backend.Classify(ctx, content)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}
