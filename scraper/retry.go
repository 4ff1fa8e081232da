package scraper

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/aluiziolira/go-scrape-search/config"
)

// Sleeper waits out the delay between two attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy bounds how often a page is fetched and how long to wait in
// between. The delay is fixed; Jitter adds up to that much on top.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Jitter      time.Duration
}

// RetryPolicyFromConfig reads the retry settings from cfg.
func RetryPolicyFromConfig(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay,
		Jitter:      cfg.RetryJitter,
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) backoff() time.Duration {
	delay := p.Delay
	if delay < 0 {
		delay = 0
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int64N(int64(p.Jitter) + 1))
	}
	return delay
}
