package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-search/models"
	"golang.org/x/time/rate"
)

// Fetcher retrieves one result page, retrying transient failures and
// blocked responses until the policy runs out.
type Fetcher struct {
	client  HTTPClient
	headers http.Header
	blocks  *BlockDetector
	policy  RetryPolicy
	sleeper Sleeper
	limiter *rate.Limiter
	metrics *Metrics
}

// FetcherOption customises a Fetcher.
type FetcherOption func(*Fetcher)

// WithSleeper replaces the timer used between attempts.
func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) {
		if s != nil {
			f.sleeper = s
		}
	}
}

// WithRateLimiter makes every attempt wait for a token first.
func WithRateLimiter(l *rate.Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithMetrics records request and page outcomes on m.
func WithMetrics(m *Metrics) FetcherOption {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher sends headers with every request made through client.
func NewFetcher(client HTTPClient, headers http.Header, blocks *BlockDetector, policy RetryPolicy, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  client,
		headers: headers.Clone(),
		blocks:  blocks,
		policy:  policy,
		sleeper: timerSleeper{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns a success result or, once every attempt has failed, an
// exhausted result carrying a *PageExhaustedError. It never panics on
// network failures and never returns a blocked page as success.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) models.PageResult {
	var (
		last     models.PageResult
		lastErr  error
		attempts int
	)

	for attempt := 1; attempt <= f.policy.attempts(); attempt++ {
		if attempt > 1 {
			delay := f.policy.backoff()
			f.metrics.IncRetries()
			slog.Debug("retrying page",
				slog.String("url", pageURL),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			if err := f.sleeper.Sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		attempts = attempt
		result, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			result.Attempts = attempt
			f.metrics.IncPage(string(models.PageSuccess))
			return result
		}

		last, lastErr = result, err
		category := errorTypeLabel(err)
		f.metrics.IncError(category)
		slog.Warn("page attempt failed",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt),
			slog.String("category", category),
			slog.Any("error", err),
		)
	}

	f.metrics.IncPage(string(models.PageExhausted))
	return models.PageResult{
		URL:        pageURL,
		StatusCode: last.StatusCode,
		Status:     models.PageExhausted,
		Attempts:   attempts,
		Err:        &PageExhaustedError{URL: pageURL, Attempts: attempts, Err: lastErr},
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (models.PageResult, error) {
	result := models.PageResult{URL: pageURL}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return result, &TransientFetchError{URL: pageURL, Err: classifyError(err, 0)}
		}
	}

	start := time.Now()
	resp, err := f.client.Get(ctx, pageURL, f.headers)
	f.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		f.metrics.IncRequest("error")
		return result, &TransientFetchError{URL: pageURL, Err: classifyError(err, 0)}
	}

	result.StatusCode = resp.StatusCode
	result.Body = resp.Body
	if resp.StatusCode != http.StatusOK {
		f.metrics.IncRequest("status")
		return result, &TransientFetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        classifyError(nil, resp.StatusCode),
		}
	}

	if sig, blocked := f.blocks.Match(resp.Body); blocked {
		f.metrics.IncRequest("blocked")
		result.Status = models.PageBlocked
		return result, &BlockedPageError{URL: pageURL, Signature: sig}
	}

	f.metrics.IncRequest("success")
	result.Status = models.PageSuccess
	return result, nil
}
