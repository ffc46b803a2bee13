// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/skills-dataset/internal/httputil"
)

// BatchPollInterval is the wait between Batches API status checks. Tests
// override this to avoid real sleeps.
var BatchPollInterval = 30 * time.Second

// BatchClient drives the Message Batches API: submit a batch of
// classification requests, poll until the job ends, stream per-request
// results correlated by prompt hash. Trades latency for the batch cost
// discount.
type BatchClient struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// batchRequestItem is one request inside a batch submission.
type batchRequestItem struct {
	CustomID string        `json:"custom_id"`
	Params   claudeRequest `json:"params"`
}

// batchJob is the Batches API job representation.
type batchJob struct {
	ID               string `json:"id"`
	ProcessingStatus string `json:"processing_status"`
	RequestCounts    struct {
		Processing int `json:"processing"`
		Succeeded  int `json:"succeeded"`
		Errored    int `json:"errored"`
		Canceled   int `json:"canceled"`
		Expired    int `json:"expired"`
	} `json:"request_counts"`
	ResultsURL string `json:"results_url"`
}

// batchResultLine is one JSONL line of a job's result stream.
type batchResultLine struct {
	CustomID string `json:"custom_id"`
	Result   struct {
		Type    string         `json:"type"`
		Message claudeResponse `json:"message"`
	} `json:"result"`
}

// Run submits each batch as one Batches API job, polling it to completion
// before submitting the next. Outcomes stream on the returned channel; the
// channel closes after the last batch resolves. A failed submission or
// poll resolves every unit of that batch as a failure outcome, so the run
// never loses units.
func (c *BatchClient) Run(ctx context.Context, batches [][]*Unit, w io.Writer) <-chan Outcome {
	out := make(chan Outcome)

	go func() {
		defer close(out)
		for i, batch := range batches {
			if err := c.runBatch(ctx, batch, out, w); err != nil {
				fmt.Fprintf(w, "batch %d/%d failed: %v\n", i+1, len(batches), err)
				for _, u := range batch {
					out <- Outcome{Unit: u, Reason: APIErrorPrefix + clip(err.Error(), 120), Failed: true}
				}
			}
		}
	}()

	return out
}

// runBatch submits one job, polls it to a terminal state, and streams its
// results as outcomes.
func (c *BatchClient) runBatch(ctx context.Context, batch []*Unit, out chan<- Outcome, w io.Writer) error {
	byHash := make(map[string]*Unit, len(batch))
	items := make([]batchRequestItem, 0, len(batch))
	for _, u := range batch {
		prompt, err := RenderPrompt(u.Content)
		if err != nil {
			return err
		}
		byHash[u.Hash] = u
		items = append(items, batchRequestItem{
			CustomID: u.Hash,
			Params: claudeRequest{
				Model:     c.Model,
				MaxTokens: maxTokens,
				Messages:  []claudeMessage{{Role: "user", Content: prompt}},
			},
		})
	}

	job, err := c.submit(ctx, items)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Submitted batch %s (%d requests)\n", job.ID, len(items))

	for job.ProcessingStatus != "ended" {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(BatchPollInterval):
		}

		job, err = c.retrieve(ctx, job.ID)
		if err != nil {
			return err
		}
		done := job.RequestCounts.Succeeded + job.RequestCounts.Errored + job.RequestCounts.Expired + job.RequestCounts.Canceled
		fmt.Fprintf(w, "  Progress: %d/%d (succeeded: %d, errored: %d)\n",
			done, len(items), job.RequestCounts.Succeeded, job.RequestCounts.Errored)
	}

	return c.streamResults(ctx, job, byHash, out)
}

// submit creates the batch job.
func (c *BatchClient) submit(ctx context.Context, items []batchRequestItem) (*batchJob, error) {
	body, err := json.Marshal(struct {
		Requests []batchRequestItem `json:"requests"`
	}{Requests: items})
	if err != nil {
		return nil, fmt.Errorf("marshaling batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/messages/batches"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating batch request: %w", err)
	}
	return c.doJSON(ctx, req)
}

// retrieve fetches the current job state.
func (c *BatchClient) retrieve(ctx context.Context, id string) (*batchJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/messages/batches/"+id), nil)
	if err != nil {
		return nil, fmt.Errorf("creating retrieve request: %w", err)
	}
	return c.doJSON(ctx, req)
}

// streamResults reads the job's JSONL result stream and emits one outcome
// per request, in whatever order the stream delivers them.
func (c *BatchClient) streamResults(ctx context.Context, job *batchJob, byHash map[string]*Unit, out chan<- Outcome) error {
	url := job.ResultsURL
	if url == "" {
		url = c.endpoint("/v1/messages/batches/" + job.ID + "/results")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating results request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, 0)
	if err != nil {
		return fmt.Errorf("fetching batch results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("batch results returned %d: %s", resp.StatusCode, clip(string(body), 200))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rl batchResultLine
		if err := json.Unmarshal(line, &rl); err != nil {
			return fmt.Errorf("decoding result line: %w", err)
		}

		u, ok := byHash[rl.CustomID]
		if !ok {
			// Result for a request this run never submitted; skip it.
			continue
		}

		out <- resultOutcome(u, rl)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading batch results: %w", err)
	}
	return nil
}

// resultOutcome converts one result line into an outcome, applying the
// shared parse chain to succeeded requests.
func resultOutcome(u *Unit, rl batchResultLine) Outcome {
	if rl.Result.Type != "succeeded" {
		return Outcome{Unit: u, Reason: APIErrorPrefix + rl.Result.Type, Failed: true}
	}

	var text string
	for _, block := range rl.Result.Message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	v, err := ParseVerdict(text)
	if err != nil {
		return Outcome{Unit: u, Reason: ParseErrorPrefix + clip(err.Error(), 120), Failed: true}
	}
	return Outcome{Unit: u, IsSkill: v.IsSkill, Reason: v.Reason}
}

// doJSON executes req with auth headers and decodes a batchJob response.
func (c *BatchClient) doJSON(ctx context.Context, req *http.Request) (*batchJob, error) {
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling Batches API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Batches API returned %d: %s", resp.StatusCode, clip(string(body), 200))
	}

	var job batchJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decoding Batches API response: %w", err)
	}
	return &job, nil
}

func (c *BatchClient) endpoint(path string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/") + path
}

func (c *BatchClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

func (c *BatchClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}
