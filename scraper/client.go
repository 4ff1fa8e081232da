package scraper

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-search/config"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// Response is the part of an HTTP response the fetcher looks at.
type Response struct {
	StatusCode int
	Body       []byte
}

// HTTPClient issues GET requests with a fixed header set. Implementations
// must be safe for concurrent use.
type HTTPClient interface {
	Get(ctx context.Context, rawURL string, headers http.Header) (*Response, error)
}

const responseKey = "response"

// CollyClient runs requests through a synchronous colly collector, which
// supplies the domain allow-list, robots.txt handling, request timeout and
// per-domain delay/parallelism limits.
type CollyClient struct {
	collector *colly.Collector
}

// NewCollyClient builds a client restricted to the configured base host.
func NewCollyClient(cfg *config.Config) (*CollyClient, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	// Non-2xx responses reach OnResponse so the fetcher can classify them.
	collector.ParseHTTPErrorResponse = true

	c := &CollyClient{collector: collector}
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	// A colly rule with Parallelism 0 serialises requests, so "unbounded"
	// is expressed as one slot per page the search can ever dispatch.
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = cfg.MaxPages
	}
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(responseKey, r)
	})

	return c, nil
}

// WithTransport swaps the underlying round tripper. Compressed bodies are
// still decoded.
func (c *CollyClient) WithTransport(rt http.RoundTripper) {
	c.collector.WithTransport(&decodingTransport{base: rt})
}

// Get performs a single GET. Non-200 statuses are returned as responses,
// not errors.
func (c *CollyClient) Get(ctx context.Context, rawURL string, headers http.Header) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqCtx := colly.NewContext()
	if err := c.collector.Request(http.MethodGet, rawURL, nil, reqCtx, headers.Clone()); err != nil {
		return nil, err
	}

	r, ok := reqCtx.GetAny(responseKey).(*colly.Response)
	if !ok {
		return nil, fmt.Errorf("no response recorded for %s", rawURL)
	}
	return &Response{StatusCode: r.StatusCode, Body: r.Body}, nil
}

// decodingTransport decodes gzip and brotli bodies. Setting Accept-Encoding
// by hand turns off net/http's transparent gzip handling.
type decodingTransport struct {
	base http.RoundTripper
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	var decoded io.Reader
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		decoded = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		decoded = gz
	default:
		return resp, nil
	}

	resp.Body = decodedBody{Reader: decoded, closer: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type decodedBody struct {
	io.Reader
	closer io.Closer
}

func (b decodedBody) Close() error {
	return b.closer.Close()
}
