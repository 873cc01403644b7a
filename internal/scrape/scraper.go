package scrape

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/assistant-tools/internal/metrics"
	"github.com/JakeFAU/assistant-tools/internal/progress"
)

const (
	defaultTimeout = 30 * time.Second

	// noURLsResult is returned when the input contains nothing to scrape.
	noURLsResult = "No valid URLs found to scrape."

	// imagesMarker starts the trailing summary section the reader service
	// appends; everything from its last occurrence onward is discarded.
	imagesMarker = "Images:"
)

var urlPattern = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+[^\s]*`)

// FetchResult is the reader service response for one target URL.
type FetchResult struct {
	StatusCode int
	Body       string
}

// Fetcher issues a single GET against the reader service. Non-2xx responses
// are reported as errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) (FetchResult, error)
}

// Config controls Scraper behavior.
type Config struct {
	// BaseURL is the reader service endpoint, e.g. "https://r.jina.ai".
	BaseURL string
	// Timeout bounds each reader request; defaults to 30s.
	Timeout time.Duration
	// Delay pauses between consecutive URLs; defaults to zero.
	Delay time.Duration
}

// Scraper orchestrates the scrape workflow over a Fetcher.
type Scraper struct {
	cfg     Config
	fetcher Fetcher
	logger  *zap.Logger
}

// New constructs a Scraper.
func New(cfg Config, fetcher Fetcher, logger *zap.Logger) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Scrape extracts URLs from input, fetches each through the reader service in
// discovery order, and returns the concatenated result blocks. Per-URL
// failures are reported through emitter and embedded in the output; the
// method itself never fails. Cancelling ctx abandons the remaining URLs
// without emitting further events.
func (s *Scraper) Scrape(ctx context.Context, input string, emitter *progress.Emitter) string {
	urls := urlPattern.FindAllString(input, -1)
	if len(urls) == 0 {
		s.logger.Info("no valid URLs found in the input")
		emitter.Complete(ctx, "No valid URLs found in the input")
		return noURLsResult
	}

	emitter.Progress(ctx, fmt.Sprintf("Found %d URLs to scrape", len(urls)))

	var out strings.Builder
	for i, raw := range urls {
		if ctx.Err() != nil {
			return out.String()
		}
		out.WriteString(s.scrapeOne(ctx, raw, emitter))
		if s.cfg.Delay > 0 && i < len(urls)-1 {
			select {
			case <-time.After(s.cfg.Delay):
			case <-ctx.Done():
				return out.String()
			}
		}
	}

	emitter.Complete(ctx, fmt.Sprintf("Completed scraping %d URLs", len(urls)))
	return out.String()
}

// scrapeOne fetches a single URL and renders its result block. Panics from
// the fetcher are converted into an error block so the batch keeps going.
func (s *Scraper) scrapeOne(ctx context.Context, raw string, emitter *progress.Emitter) (block string) {
	url := normalizeURL(raw)
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("Unexpected error while processing %s: %v", url, rec)
			s.logger.Error("scrape panic recovered", zap.String("url", url), zap.Any("panic", rec))
			emitter.Status(ctx, msg, progress.StatusError, false)
			block = fmt.Sprintf("## Error processing %s: \n%s\n\n", url, msg)
		}
	}()

	target := readerURL(s.cfg.BaseURL, url)
	emitter.Progress(ctx, fmt.Sprintf("Initiating web scrape for: %s", url))
	emitter.Progress(ctx, fmt.Sprintf("Sending request to reader service for %s...", url))

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	start := time.Now()
	res, err := s.fetcher.Fetch(fetchCtx, target, readerHeader())
	metrics.ObserveUpstreamRequest("reader", time.Since(start))
	if err != nil {
		msg := fmt.Sprintf("Failed to scrape %s: %v", url, err)
		s.logger.Warn("scrape failed", zap.String("url", url), zap.Error(err))
		emitter.Status(ctx, msg, progress.StatusError, false)
		metrics.ObserveScrapedURL("error")
		return fmt.Sprintf("## Error scraping %s: \n%s\n\n", url, msg)
	}
	metrics.ObserveScrapedURL("ok")

	emitter.Progress(ctx, fmt.Sprintf("Processing response from reader service for %s...", url))
	return fmt.Sprintf("## Web Scrape Result for %s: \n\n%s\n\n", url, trimImagesSummary(res.Body))
}

// normalizeURL prepends https:// when the scheme is missing.
func normalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// readerURL appends the target page URL to the reader base as a path, so the
// request is routed through the extraction service.
func readerURL(base, target string) string {
	return strings.TrimSuffix(base, "/") + "/" + target
}

// trimImagesSummary cuts the reader's trailing images/links summary, keyed on
// the last occurrence of the marker.
func trimImagesSummary(body string) string {
	if i := strings.LastIndex(body, imagesMarker); i >= 0 {
		return strings.TrimSpace(body[:i])
	}
	return body
}

func readerHeader() http.Header {
	h := http.Header{}
	h.Set("X-No-Cache", "true")
	h.Set("X-With-Images-Summary", "true")
	h.Set("X-With-Links-Summary", "true")
	return h
}
