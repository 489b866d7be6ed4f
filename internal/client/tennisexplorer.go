// Package client fetches raw ranking and match listings from Tennis Explorer.
// It is a pure I/O boundary: it returns page bytes or a FetchError and never
// interprets the markup.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"tennisdata/ingestion/internal/models"
)

// FetchError reports an unreachable source or a non-success response.
// StatusCode is zero for transport-level failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client is the Tennis Explorer HTTP client. It carries a concurrency
// semaphore and a polite delay between requests; the source throttles
// aggressive scrapers.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter chan struct{}
	delay       time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

// The source blocks default Go user agents outright.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewClient creates a Tennis Explorer client with the given request timeout
// and concurrent-request bound.
func NewClient(baseURL string, timeout time.Duration, concurrency int, delay time.Duration) *Client {
	if concurrency <= 0 {
		concurrency = 1
	}
	rateLimiter := make(chan struct{}, concurrency)
	for i := 0; i < concurrency; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		rateLimiter: rateLimiter,
		delay:       delay,
		maxRetries:  3,
		retryDelay:  time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchRankingsPage fetches one page of the current ranking listing for a tour.
func (c *Client) FetchRankingsPage(ctx context.Context, tour models.Tour, page int) ([]byte, error) {
	listing := "atp-men"
	if tour == models.TourWTA {
		listing = "wta-women"
	}
	url := fmt.Sprintf("%s/ranking/%s/?page=%d", c.baseURL, listing, page)
	return c.get(ctx, url)
}

// FetchPlayerPage fetches a player's match-history page.
func (c *Client) FetchPlayerPage(ctx context.Context, slug string) ([]byte, error) {
	url := fmt.Sprintf("%s/player/%s/?annual=all", c.baseURL, slug)
	return c.get(ctx, url)
}

// get performs a GET with retry, exponential backoff and rate limiting.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying fetch after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.doOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, url string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.rateLimiter:
		defer func() {
			if c.delay > 0 {
				time.Sleep(c.delay)
			}
			c.rateLimiter <- struct{}{}
		}()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	log.Debug().Str("url", url).Msg("Fetching page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("read response body: %w", err)}
	}

	log.Debug().Str("url", url).Int("size", len(body)).Msg("Fetch successful")
	return body, nil
}

// isRetryable reports whether the failure is transient: transport errors and
// throttling or upstream-unavailable statuses.
func isRetryable(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.StatusCode {
	case 0, http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
