// Package embedder generates vector embeddings through the Voyage AI API.
// Documents and queries are embedded asymmetrically (input_type "document"
// vs "query") so retrieval works query-against-document.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hragent/internal/stats"
)

const (
	DefaultModel = "voyage-3"

	// Dimension is the vector size produced by voyage-3.
	Dimension = 1024

	// MaxBatchSize is the Voyage API limit on texts per request.
	MaxBatchSize = 128

	defaultBaseURL = "https://api.voyageai.com/v1/embeddings"
)

// Client calls the Voyage AI embeddings API.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	retry      RetryConfig

	// BaseURL is overridable for tests.
	BaseURL string

	// Stats records per-request latency for the stats endpoint.
	Stats *stats.Rolling
}

func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry:   DefaultRetryConfig(),
		BaseURL: defaultBaseURL,
		Stats:   stats.NewRolling(time.Hour),
	}
}

// Model returns the configured embedding model name.
func (c *Client) Model() string {
	return c.model
}

type voyageRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

type voyageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
}

// EmbedDocuments embeds document texts, splitting into sequential batches of
// at most MaxBatchSize. The returned vectors are index-aligned with texts.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embedder: at least one text required")
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embed(ctx, texts[start:end], "document")
		if err != nil {
			return nil, fmt.Errorf("embed batch starting at %d: %w", start, err)
		}
		all = append(all, vectors...)
	}

	if len(all) != len(texts) {
		return nil, fmt.Errorf("embedder: got %d vectors for %d texts", len(all), len(texts))
	}
	return all, nil
}

// EmbedQuery embeds a single search query with input_type "query".
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedder: query text must not be empty")
	}
	vectors, err := c.embed(ctx, []string{text}, "query")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	return retryWithBackoff(ctx, c.retry, func() ([][]float32, error) {
		start := time.Now()
		vectors, err := c.callAPI(ctx, texts, inputType)
		if c.Stats != nil {
			c.Stats.Record(time.Since(start).Milliseconds())
		}
		return vectors, err
	})
}

func (c *Client) callAPI(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	body, err := json.Marshal(voyageRequest{
		Input:     texts,
		Model:     c.model,
		InputType: inputType,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RetryableError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voyage api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp voyageResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("voyage returned %d embeddings for %d texts", len(apiResp.Data), len(texts))
	}

	// The API documents index-ordered results; place by index to be safe.
	vectors := make([][]float32, len(texts))
	for _, d := range apiResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("voyage returned out-of-range index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
