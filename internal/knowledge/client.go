package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/assistant-tools/internal/metrics"
	"github.com/JakeFAU/assistant-tools/internal/progress"
)

const (
	defaultK              = 10
	defaultScoreThreshold = 0.3
	defaultTimeout        = 30 * time.Second

	// defaultSource labels citations for documents without provenance.
	defaultSource = "knowledge_base"

	// statusSearching is the non-terminal code the host shows while the
	// upstream query is in flight.
	statusSearching = "searching"
	statusSuccess   = "success"
	statusNoResults = "no_results"
)

// Document is one knowledge-base record, passed through to the caller as
// received.
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Source   string         `json:"source"`
}

// QueryOptions tune a single query. Zero values fall back to the service
// defaults (k=10, score threshold 0.3, no filter).
type QueryOptions struct {
	K              int
	Filter         map[string]any
	ScoreThreshold float64
}

// Config controls Client behavior.
type Config struct {
	// BaseURL is the knowledge-base service address, e.g. "http://0.0.0.0:8082".
	BaseURL string
	// Token authenticates requests via the "token" header.
	Token string
	// Timeout bounds the query round trip; defaults to 30s.
	Timeout time.Duration
}

// Client queries the knowledge-base service.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type queryRequest struct {
	Query          string         `json:"query"`
	K              int            `json:"k"`
	FilterDict     map[string]any `json:"filter_dict"`
	ScoreThreshold float64        `json:"score_threshold"`
}

type queryResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Results []Document `json:"results"`
}

// Query searches the knowledge base and republishes each result as a citation
// event, in result order. On any failure it emits a terminal error status and
// returns an empty result; it never returns an error to the caller.
func (c *Client) Query(ctx context.Context, query string, opts QueryOptions, emitter *progress.Emitter) []Document {
	emitter.Progress(ctx, "Preparing to search knowledge base...")

	payload := queryRequest{
		Query:          query,
		K:              opts.K,
		FilterDict:     opts.Filter,
		ScoreThreshold: opts.ScoreThreshold,
	}
	if payload.K <= 0 {
		payload.K = defaultK
	}
	if payload.ScoreThreshold <= 0 {
		payload.ScoreThreshold = defaultScoreThreshold
	}

	emitter.Status(ctx, fmt.Sprintf("Searching knowledge base for: %s", query), statusSearching, false)

	resp, err := c.post(ctx, payload)
	if err != nil {
		c.failQuery(ctx, emitter, err)
		return nil
	}

	if resp.Status != statusSuccess {
		emitter.Status(ctx, messageOrDefault(resp.Message, "Query failed"), progress.StatusError, true)
		return resp.Results
	}
	if len(resp.Results) == 0 {
		emitter.Status(ctx, messageOrDefault(resp.Message, "No relevant documents found"), statusNoResults, true)
		return resp.Results
	}

	emitter.Status(ctx, fmt.Sprintf("Found %d relevant documents", len(resp.Results)), statusSuccess, true)
	for _, doc := range resp.Results {
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		source := doc.Source
		if source == "" {
			source = defaultSource
		}
		emitter.Citation(ctx, doc.Content, metadata, source)
	}
	return resp.Results
}

func (c *Client) post(ctx context.Context, payload queryRequest) (queryResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return queryResponse{}, fmt.Errorf("encode query payload: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return queryResponse{}, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("token", c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveUpstreamRequest("knowledge_base", time.Since(start))
	if err != nil {
		return queryResponse{}, fmt.Errorf("query knowledge base: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return queryResponse{}, fmt.Errorf("knowledge base responded %d", resp.StatusCode)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return queryResponse{}, fmt.Errorf("decode query response: %w", err)
	}
	return decoded, nil
}

func (c *Client) failQuery(ctx context.Context, emitter *progress.Emitter, err error) {
	msg := fmt.Sprintf("Error querying knowledge base: %v", err)
	c.logger.Error("knowledge base query failed", zap.Error(err))
	emitter.Fail(ctx, msg)
}

func messageOrDefault(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
