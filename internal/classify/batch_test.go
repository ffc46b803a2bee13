// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeBatchServer simulates the Message Batches API: one submit, a fixed
// number of in-progress polls, then an ended job whose results are served
// as JSONL.
type fakeBatchServer struct {
	pollsBeforeEnd int32
	polls          int32
	submits        int32
	results        func(items []batchRequestItem) []string // JSONL lines
	submitted      []batchRequestItem
}

func (f *fakeBatchServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/messages/batches":
			atomic.AddInt32(&f.submits, 1)
			var req struct {
				Requests []batchRequestItem `json:"requests"`
			}
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.submitted = req.Requests
			writeJob(w, "batch_test_1", "in_progress", "")

		case r.Method == http.MethodGet && r.URL.Path == "/v1/messages/batches/batch_test_1":
			n := atomic.AddInt32(&f.polls, 1)
			if n <= f.pollsBeforeEnd {
				writeJob(w, "batch_test_1", "in_progress", "")
				return
			}
			writeJob(w, "batch_test_1", "ended", "http://"+r.Host+"/v1/messages/batches/batch_test_1/results")

		case r.Method == http.MethodGet && r.URL.Path == "/v1/messages/batches/batch_test_1/results":
			w.Header().Set("Content-Type", "application/x-jsonl")
			for _, line := range f.results(f.submitted) {
				fmt.Fprintln(w, line)
			}

		default:
			http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusNotFound)
		}
	}
}

func writeJob(w http.ResponseWriter, id, status, resultsURL string) {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(map[string]any{
		"id":                id,
		"processing_status": status,
		"request_counts":    map[string]int{"processing": 0, "succeeded": 0, "errored": 0, "canceled": 0, "expired": 0},
		"results_url":       resultsURL,
	})
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func succeededLine(customID, text string) string {
	line, _ := json.Marshal(map[string]any{
		"custom_id": customID,
		"result": map[string]any{
			"type": "succeeded",
			"message": map[string]any{
				"content": []map[string]string{{"type": "text", "text": text}},
			},
		},
	})
	return string(line)
}

func erroredLine(customID, kind string) string {
	line, _ := json.Marshal(map[string]any{
		"custom_id": customID,
		"result":    map[string]any{"type": kind},
	})
	return string(line)
}

func TestBatchClient_Run(t *testing.T) {
	fake := &fakeBatchServer{
		pollsBeforeEnd: 2,
		results: func(items []batchRequestItem) []string {
			return []string{
				succeededLine(items[0].CustomID, `{"is_skill": true, "reason": "workflow"}`),
				succeededLine(items[1].CustomID, "```json\n{\"is_skill\": false, \"reason\": \"template\"}\n```"),
				erroredLine(items[2].CustomID, "errored"),
			}
		},
	}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	client := &BatchClient{APIKey: "test-key", Model: "test-model", BaseURL: ts.URL, Client: ts.Client()}
	units := []*Unit{
		{Hash: "h1", Content: "c1", URLs: []string{"u1"}},
		{Hash: "h2", Content: "c2", URLs: []string{"u2", "u3"}},
		{Hash: "h3", Content: "c3", URLs: []string{"u4"}},
	}

	var out bytes.Buffer
	got := collect(t, client.Run(context.Background(), [][]*Unit{units}, &out))

	if len(got) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(got))
	}
	if o := got["h1"]; !o.IsSkill || o.Failed || o.Reason != "workflow" {
		t.Errorf("h1: %+v", o)
	}
	if o := got["h2"]; o.IsSkill || o.Failed || o.Reason != "template" {
		t.Errorf("h2: %+v", o)
	}
	if o := got["h3"]; !o.Failed || o.Reason != APIErrorPrefix+"errored" {
		t.Errorf("h3: %+v", o)
	}

	if n := atomic.LoadInt32(&fake.submits); n != 1 {
		t.Errorf("expected 1 submission, got %d", n)
	}
	if n := atomic.LoadInt32(&fake.polls); n != 3 {
		t.Errorf("expected 3 polls, got %d", n)
	}
	if !strings.Contains(out.String(), "Submitted batch batch_test_1") {
		t.Errorf("missing submit line in output: %q", out.String())
	}
}

func TestBatchClient_SubmitsRenderedPrompts(t *testing.T) {
	fake := &fakeBatchServer{
		results: func(items []batchRequestItem) []string {
			return []string{succeededLine(items[0].CustomID, `{"is_skill": true, "reason": "r"}`)}
		},
	}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	client := &BatchClient{APIKey: "k", Model: "test-model", BaseURL: ts.URL, Client: ts.Client()}
	units := []*Unit{{Hash: "h1", Content: "---\nname: x\n---\nBody", URLs: []string{"u1"}}}

	collect(t, client.Run(context.Background(), [][]*Unit{units}, io.Discard))

	if len(fake.submitted) != 1 {
		t.Fatalf("expected 1 submitted request, got %d", len(fake.submitted))
	}
	req := fake.submitted[0]
	if req.CustomID != "h1" {
		t.Errorf("custom_id = %q", req.CustomID)
	}
	if req.Params.Model != "test-model" || req.Params.MaxTokens != maxTokens {
		t.Errorf("params = %+v", req.Params)
	}
	if len(req.Params.Messages) != 1 || !strings.Contains(req.Params.Messages[0].Content, "---\nname: x\n---\nBody") {
		t.Error("submitted prompt does not embed the file content")
	}
}

func TestBatchClient_SubmitFailureResolvesAllUnits(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "invalid request"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	client := &BatchClient{APIKey: "k", Model: "m", BaseURL: ts.URL, Client: ts.Client()}
	units := []*Unit{
		{Hash: "h1", Content: "c1", URLs: []string{"u1"}},
		{Hash: "h2", Content: "c2", URLs: []string{"u2"}},
	}

	got := collect(t, client.Run(context.Background(), [][]*Unit{units}, io.Discard))
	if len(got) != 2 {
		t.Fatalf("expected every unit to resolve, got %d outcomes", len(got))
	}
	for hash, o := range got {
		if !o.Failed || !strings.HasPrefix(o.Reason, APIErrorPrefix) {
			t.Errorf("%s: expected API failure outcome, got %+v", hash, o)
		}
	}
}
