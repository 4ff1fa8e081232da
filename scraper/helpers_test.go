package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jarcoal/httpmock"
)

type reply struct {
	status int
	body   string
	err    error
}

// fakeClient replays scripted replies per URL; the last reply repeats.
type fakeClient struct {
	mu       sync.Mutex
	replies  map[string][]reply
	calls    map[string]int
	headers  []http.Header
	inFlight int
	maxSeen  int

	// before runs on every call outside the lock, e.g. to hold a barrier.
	before func(url string)
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		replies: make(map[string][]reply),
		calls:   make(map[string]int),
	}
}

func (f *fakeClient) on(url string, replies ...reply) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[url] = append(f.replies[url], replies...)
	return f
}

func (f *fakeClient) Get(ctx context.Context, url string, headers http.Header) (*Response, error) {
	f.mu.Lock()
	n := f.calls[url]
	f.calls[url] = n + 1
	f.headers = append(f.headers, headers)
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	scripted := f.replies[url]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.before != nil {
		f.before(url)
	}
	if len(scripted) == 0 {
		return nil, fmt.Errorf("no reply scripted for %s", url)
	}
	r := scripted[min(n, len(scripted)-1)]
	if r.err != nil {
		return nil, r.err
	}
	return &Response{StatusCode: r.status, Body: []byte(r.body)}, nil
}

func (f *fakeClient) callsTo(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeClient) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeClient) maxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}

// fakeSleeper records requested delays and returns at once.
type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

var errConnReset = errors.New("connection reset by peer")

func replyOK(body string) reply { return reply{status: http.StatusOK, body: body} }

func replyStatus(code int) reply { return reply{status: code} }

func replyErr(err error) reply { return reply{err: err} }

func replyBlocked() reply {
	return replyOK(`<html><body><p>Enter the characters you see below</p></body></html>`)
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

// productID names the i-th product (1-based) of a result page.
func productID(page, i int) string {
	return fmt.Sprintf("B%03d%04d", page, i)
}

// buildResultPage renders a search-result page with perPage products and,
// when totalPages > 1, a pagination control advertising totalPages.
func buildResultPage(page, perPage, totalPages int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="s-main-slot s-result-list">`)

	for i := 1; i <= perPage; i++ {
		id := productID(page, i)
		fmt.Fprintf(&b, `<div data-component-type="s-search-result" data-asin="%s" class="s-result-item s-asin">`, id)
		fmt.Fprintf(&b, `<img class="s-image" src="/images/I/%s.jpg" alt="">`, id)
		fmt.Fprintf(&b, `<h2><a class="a-link-normal a-text-normal" href="/Phone-%s/dp/%s"><span class="a-size-medium a-color-base a-text-normal">Phone %s</span></a></h2>`, id, id, id)
		b.WriteString(`<span class="a-icon-alt">4.5 out of 5 stars</span>`)
		fmt.Fprintf(&b, `<span class="a-size-base" dir="auto">%d</span>`, 1000+i)
		fmt.Fprintf(&b, `<span class="a-price"><span class="a-offscreen">$%d.99</span><span aria-hidden="true">$%d<sup>99</sup></span></span>`, 100+i, 100+i)
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)

	if totalPages > 1 {
		b.WriteString(`<ul class="a-pagination"><li class="a-disabled">Previous</li>`)
		for p := 1; p <= totalPages; p++ {
			if p == page {
				fmt.Fprintf(&b, `<li class="a-selected"><a href="#">%d</a></li>`, p)
				continue
			}
			fmt.Fprintf(&b, `<li class="a-normal"><a href="/s?k=phone&page=%d">%d</a></li>`, p, p)
		}
		b.WriteString(`<li class="a-last"><a href="#">Next</a></li></ul>`)
	}

	b.WriteString(`</body></html>`)
	return b.String()
}
