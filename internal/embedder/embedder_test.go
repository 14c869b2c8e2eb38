package embedder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func serveEmbeddings(t *testing.T, handler func(w http.ResponseWriter, req voyageRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req voyageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		handler(w, req)
	}))
}

func writeVectors(w http.ResponseWriter, n int) {
	type datum struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	}
	data := make([]datum, n)
	for i := range data {
		data[i] = datum{Embedding: []float32{float32(i), 1.0}, Index: i}
	}
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestEmbedDocuments_SplitsLargeBatches(t *testing.T) {
	var calls atomic.Int32
	var batchSizes []int
	srv := serveEmbeddings(t, func(w http.ResponseWriter, req voyageRequest) {
		calls.Add(1)
		batchSizes = append(batchSizes, len(req.Input))
		if req.InputType != "document" {
			t.Errorf("expected input_type document, got %q", req.InputType)
		}
		writeVectors(w, len(req.Input))
	})
	defer srv.Close()

	c := NewClient("test-key", "")
	c.BaseURL = srv.URL
	c.retry = fastRetry()

	texts := make([]string, MaxBatchSize+10)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}

	vectors, err := c.EmbedDocuments(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 API calls, got %d", calls.Load())
	}
	if len(batchSizes) != 2 || batchSizes[0] != MaxBatchSize || batchSizes[1] != 10 {
		t.Errorf("unexpected batch sizes %v", batchSizes)
	}
}

func TestEmbedQuery_SendsQueryInputType(t *testing.T) {
	srv := serveEmbeddings(t, func(w http.ResponseWriter, req voyageRequest) {
		if req.InputType != "query" {
			t.Errorf("expected input_type query, got %q", req.InputType)
		}
		if len(req.Input) != 1 || req.Input[0] != "python engineers" {
			t.Errorf("unexpected input %v", req.Input)
		}
		writeVectors(w, 1)
	})
	defer srv.Close()

	c := NewClient("test-key", "")
	c.BaseURL = srv.URL
	c.retry = fastRetry()

	vec, err := c.EmbedQuery(context.Background(), "python engineers")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2-dim test vector, got %d", len(vec))
	}
}

func TestEmbedQuery_RejectsEmptyText(t *testing.T) {
	c := NewClient("test-key", "")
	if _, err := c.EmbedQuery(context.Background(), "   "); err == nil {
		t.Error("expected error for blank query")
	}
}

func TestEmbed_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := serveEmbeddings(t, func(w http.ResponseWriter, req voyageRequest) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeVectors(w, len(req.Input))
	})
	defer srv.Close()

	c := NewClient("test-key", "")
	c.BaseURL = srv.URL
	c.retry = fastRetry()

	if _, err := c.EmbedQuery(context.Background(), "retry me"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestEmbed_DoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := serveEmbeddings(t, func(w http.ResponseWriter, req voyageRequest) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"invalid api key"}`)
	})
	defer srv.Close()

	c := NewClient("bad-key", "")
	c.BaseURL = srv.URL
	c.retry = fastRetry()

	_, err := c.EmbedQuery(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsRetryable(err) {
		t.Error("401 should not be retryable")
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls.Load())
	}
}

func TestEmbed_RecordsLatencyStats(t *testing.T) {
	srv := serveEmbeddings(t, func(w http.ResponseWriter, req voyageRequest) {
		writeVectors(w, len(req.Input))
	})
	defer srv.Close()

	c := NewClient("test-key", "")
	c.BaseURL = srv.URL
	c.retry = fastRetry()

	if _, err := c.EmbedQuery(context.Background(), "stats"); err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if snap := c.Stats.Snapshot(); snap.Count != 1 {
		t.Errorf("expected 1 recorded sample, got %d", snap.Count)
	}
}
