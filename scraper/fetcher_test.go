package scraper

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-search/config"
	"github.com/aluiziolira/go-scrape-search/models"
	"golang.org/x/time/rate"
)

const pageURL = "http://example.test/s?k=phone&page=2"

func newTestFetcher(client HTTPClient, attempts int, sleeper Sleeper, opts ...FetcherOption) *Fetcher {
	policy := RetryPolicy{MaxAttempts: attempts, Delay: 3 * time.Second}
	opts = append([]FetcherOption{WithSleeper(sleeper), WithMetrics(NewMetrics())}, opts...)
	return NewFetcher(client, config.DefaultHeaders(), NewBlockDetector(config.DefaultBlockSignatures()), policy, opts...)
}

func TestFetchSuccessFirstAttempt(t *testing.T) {
	client := newFakeClient().on(pageURL, replyOK("<html>results</html>"))
	sleeper := &fakeSleeper{}

	result := newTestFetcher(client, 5, sleeper).Fetch(context.Background(), pageURL)

	if result.Status != models.PageSuccess || !result.OK() {
		t.Fatalf("status = %q, want success (err=%v)", result.Status, result.Err)
	}
	if result.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", result.Attempts)
	}
	if string(result.Body) != "<html>results</html>" {
		t.Fatalf("body = %q", result.Body)
	}
	if len(sleeper.recorded()) != 0 {
		t.Fatalf("slept %v, want no sleeps", sleeper.recorded())
	}
}

func TestFetchSendsFixedHeaders(t *testing.T) {
	client := newFakeClient().on(pageURL, replyOK("ok"))
	newTestFetcher(client, 1, &fakeSleeper{}).Fetch(context.Background(), pageURL)

	if len(client.headers) != 1 {
		t.Fatalf("requests = %d, want 1", len(client.headers))
	}
	h := client.headers[0]
	for _, key := range []string{"Accept", "Accept-Language", "Accept-Encoding"} {
		if h.Get(key) == "" {
			t.Fatalf("header %s missing from %v", key, h)
		}
	}
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	tests := []struct {
		name    string
		replies []reply
		want    int
	}{
		{name: "server error then ok", replies: []reply{replyStatus(http.StatusServiceUnavailable), replyOK("ok")}, want: 2},
		{name: "blocked then ok", replies: []reply{replyBlocked(), replyBlocked(), replyOK("ok")}, want: 3},
		{name: "connection error then ok", replies: []reply{replyErr(errConnReset), replyOK("ok")}, want: 2},
		{name: "ok on last attempt", replies: []reply{replyStatus(500), replyStatus(502), replyStatus(503), replyStatus(429), replyOK("ok")}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient().on(pageURL, tt.replies...)
			sleeper := &fakeSleeper{}

			result := newTestFetcher(client, 5, sleeper).Fetch(context.Background(), pageURL)

			if !result.OK() {
				t.Fatalf("status = %q, want success (err=%v)", result.Status, result.Err)
			}
			if result.Attempts != tt.want {
				t.Fatalf("attempts = %d, want %d", result.Attempts, tt.want)
			}
			if got := client.callsTo(pageURL); got != tt.want {
				t.Fatalf("calls = %d, want %d", got, tt.want)
			}
			delays := sleeper.recorded()
			if len(delays) != tt.want-1 {
				t.Fatalf("sleeps = %d, want %d", len(delays), tt.want-1)
			}
			for _, d := range delays {
				if d != 3*time.Second {
					t.Fatalf("delay = %v, want fixed 3s", d)
				}
			}
		})
	}
}

func TestFetchExhaustsAfterMaxAttempts(t *testing.T) {
	client := newFakeClient().on(pageURL, replyStatus(http.StatusServiceUnavailable))
	sleeper := &fakeSleeper{}

	result := newTestFetcher(client, 5, sleeper).Fetch(context.Background(), pageURL)

	if result.Status != models.PageExhausted {
		t.Fatalf("status = %q, want exhausted", result.Status)
	}
	if got := client.callsTo(pageURL); got != 5 {
		t.Fatalf("calls = %d, want exactly 5", got)
	}
	if len(sleeper.recorded()) != 4 {
		t.Fatalf("sleeps = %d, want 4", len(sleeper.recorded()))
	}

	var exhausted *PageExhaustedError
	if !errors.As(result.Err, &exhausted) {
		t.Fatalf("err = %T, want *PageExhaustedError", result.Err)
	}
	if exhausted.Attempts != 5 || exhausted.URL != pageURL {
		t.Fatalf("exhausted = %+v", exhausted)
	}
	var transient *TransientFetchError
	if !errors.As(result.Err, &transient) || transient.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("last error = %v, want transient 503", result.Err)
	}
}

func TestFetchNeverReturnsBlockedAsSuccess(t *testing.T) {
	client := newFakeClient().on(pageURL, replyBlocked())

	result := newTestFetcher(client, 3, &fakeSleeper{}).Fetch(context.Background(), pageURL)

	if result.OK() {
		t.Fatalf("blocked page reported as success")
	}
	var blocked *BlockedPageError
	if !errors.As(result.Err, &blocked) {
		t.Fatalf("err = %v, want wrapped *BlockedPageError", result.Err)
	}
	if blocked.Signature != "Enter the characters you see below" {
		t.Fatalf("signature = %q", blocked.Signature)
	}
	if got := errorTypeLabel(result.Err); got != "blocked" {
		t.Fatalf("label = %q, want blocked", got)
	}
}

func TestFetchStopsWhenContextCancelled(t *testing.T) {
	client := newFakeClient().on(pageURL, replyStatus(http.StatusInternalServerError))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestFetcher(client, 5, &fakeSleeper{}).Fetch(ctx, pageURL)

	if result.Status != models.PageExhausted {
		t.Fatalf("status = %q, want exhausted", result.Status)
	}
	if got := client.callsTo(pageURL); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if !errors.Is(result.Err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", result.Err)
	}
}

func TestFetchWaitsOnRateLimiter(t *testing.T) {
	client := newFakeClient().on(pageURL, replyOK("ok"))
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow() // drain the only token

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result := newTestFetcher(client, 1, &fakeSleeper{}, WithRateLimiter(limiter)).Fetch(ctx, pageURL)

	if result.OK() {
		t.Fatalf("fetch should not succeed without a limiter token")
	}
	if got := client.callsTo(pageURL); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
}

func TestRetryPolicyJitterBounds(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Delay: time.Second, Jitter: 200 * time.Millisecond}
	for i := 0; i < 100; i++ {
		d := p.backoff()
		if d < time.Second || d > 1200*time.Millisecond {
			t.Fatalf("backoff = %v, want within [1s, 1.2s]", d)
		}
	}
	if got := (RetryPolicy{Delay: time.Second}).backoff(); got != time.Second {
		t.Fatalf("backoff without jitter = %v, want 1s", got)
	}
}

func TestBlockDetector(t *testing.T) {
	d := NewBlockDetector([]string{"", "  ", "To discuss automated access"})
	if _, blocked := d.Match([]byte("<html>results</html>")); blocked {
		t.Fatalf("clean page flagged as blocked")
	}
	sig, blocked := d.Match([]byte("<p>To discuss automated access to Amazon data please contact us</p>"))
	if !blocked || sig != "To discuss automated access" {
		t.Fatalf("Match = %q, %v", sig, blocked)
	}
	var nilDetector *BlockDetector
	if _, blocked := nilDetector.Match([]byte("anything")); blocked {
		t.Fatalf("nil detector should not block")
	}
}
