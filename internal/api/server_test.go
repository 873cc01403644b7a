package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/assistant-tools/internal/config"
	"github.com/JakeFAU/assistant-tools/internal/knowledge"
	"github.com/JakeFAU/assistant-tools/internal/progress"
)

type stubScraper struct {
	result string
}

func (s *stubScraper) Scrape(ctx context.Context, _ string, emitter *progress.Emitter) string {
	emitter.Progress(ctx, "Found 1 URLs to scrape")
	emitter.Complete(ctx, "Completed scraping 1 URLs")
	return s.result
}

type stubKB struct {
	docs []knowledge.Document
}

func (s *stubKB) Query(ctx context.Context, _ string, _ knowledge.QueryOptions, emitter *progress.Emitter) []knowledge.Document {
	emitter.Status(ctx, "Found 1 relevant documents", "success", true)
	for _, d := range s.docs {
		emitter.Citation(ctx, d.Content, d.Metadata, d.Source)
	}
	return s.docs
}

func testConfig() config.Config {
	return config.Config{
		Server:    config.ServerConfig{Port: 8080},
		Scrape:    config.ScrapeConfig{ReaderBaseURL: "https://reader.example", TimeoutSeconds: 30},
		Knowledge: config.KnowledgeConfig{BaseURL: "http://kb.example", TimeoutSeconds: 30},
	}
}

type ndjsonLine struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func decodeLines(t *testing.T, body string) []ndjsonLine {
	t.Helper()
	var lines []ndjsonLine
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var line ndjsonLine
		require.NoError(t, json.Unmarshal([]byte(scanner.Text()), &line))
		lines = append(lines, line)
	}
	return lines
}

// TestScrapeEndpointStreams verifies events arrive in order, followed by the
// result line.
func TestScrapeEndpointStreams(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubScraper{result: "## Web Scrape Result"}, &stubKB{}, testConfig(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/scrape",
		strings.NewReader(`{"text": "https://a.example"}`))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	lines := decodeLines(t, rec.Body.String())
	require.Len(t, lines, 3)
	require.Equal(t, "status", lines[0].Type)
	require.Equal(t, "status", lines[1].Type)
	require.Equal(t, "result", lines[2].Type)

	var result struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(lines[2].Data, &result))
	require.Equal(t, "## Web Scrape Result", result.Content)
}

func TestKnowledgeEndpointStreams(t *testing.T) {
	t.Parallel()

	kb := &stubKB{docs: []knowledge.Document{
		{Content: "doc", Metadata: map[string]any{}, Source: "kb"},
	}}
	srv := NewServer(&stubScraper{}, kb, testConfig(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/knowledge/query",
		strings.NewReader(`{"query": "policy", "k": 5}`))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := decodeLines(t, rec.Body.String())
	require.Len(t, lines, 3)
	require.Equal(t, "status", lines[0].Type)
	require.Equal(t, "citation", lines[1].Type)
	require.Equal(t, "result", lines[2].Type)

	var result struct {
		Results []knowledge.Document `json:"results"`
	}
	require.NoError(t, json.Unmarshal(lines[2].Data, &result))
	require.Len(t, result.Results, 1)
}

func TestScrapeEndpointRejectsEmptyText(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubScraper{}, &stubKB{}, testConfig(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/scrape", strings.NewReader(`{}`))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKnowledgeEndpointRejectsBadJSON(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubScraper{}, &stubKB{}, testConfig(), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/knowledge/query", strings.NewReader(`{`))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubScraper{}, &stubKB{}, testConfig(), nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKey: "top-secret"}
	srv := NewServer(&stubScraper{}, &stubKB{}, cfg, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-API-Key", "top-secret")
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

// TestHostSinksReceiveEvents checks server-wide sinks observe the same stream
// the client does.
func TestHostSinksReceiveEvents(t *testing.T) {
	t.Parallel()

	var seen []progress.Kind
	hostSink := progress.SinkFunc(func(_ context.Context, evt progress.Event) error {
		seen = append(seen, evt.Kind)
		return nil
	})
	srv := NewServer(&stubScraper{result: "r"}, &stubKB{}, testConfig(), nil, hostSink)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/scrape",
		strings.NewReader(`{"text": "https://a.example"}`))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, []progress.Kind{progress.KindStatus, progress.KindStatus}, seen)
}
