package scrape

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements Fetcher using the Colly collector. The reader
// endpoint is a first-party API, so robots.txt is ignored and revisits are
// allowed.
type CollyFetcher struct {
	userAgent     string
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// NewCollyFetcher builds a CollyFetcher.
func NewCollyFetcher(userAgent string) *CollyFetcher {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	transport := newHTTPTransport()
	c.WithTransport(transport)
	return &CollyFetcher{
		userAgent:     userAgent,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET. Responses outside the 2xx range surface
// through the error return with the status code recorded in the FetchResult.
func (f *CollyFetcher) Fetch(ctx context.Context, url string, header http.Header) (FetchResult, error) {
	var (
		result   FetchResult
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	collector.WithTransport(f.transport)
	if f.userAgent != "" {
		collector.UserAgent = f.userAgent
	}
	if deadline, ok := ctx.Deadline(); ok {
		collector.SetRequestTimeout(time.Until(deadline))
	}

	collector.OnResponse(func(r *colly.Response) {
		result = FetchResult{
			StatusCode: r.StatusCode,
			Body:       string(r.Body),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, url, header, &fetchErr); err != nil {
		return result, err
	}
	return result, nil
}

func (f *CollyFetcher) runCollector(
	ctx context.Context,
	collector *colly.Collector,
	url string,
	header http.Header,
	fetchErr *error,
) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Request(http.MethodGet, url, nil, nil, header)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("reader fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("reader request failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("reader response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
