package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-search/config"
	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/aluiziolira/go-scrape-search/pipeline"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Scraper runs keyword searches against the configured storefront.
type Scraper struct {
	cfg       *config.Config
	fetcher   *Fetcher
	paginator *Paginator
	extractor *Extractor
	Metrics   *Metrics
}

// NewScraper builds a scraper that fetches through a colly-backed client.
func NewScraper(cfg *config.Config, opts ...FetcherOption) (*Scraper, error) {
	client, err := NewCollyClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewScraperWithClient(cfg, client, opts...)
}

// NewScraperWithClient builds a scraper over a caller-supplied client.
func NewScraperWithClient(cfg *config.Config, client HTTPClient, opts ...FetcherOption) (*Scraper, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}

	metrics := NewMetrics()
	extractor, err := NewExtractor(cfg.BaseURL, metrics)
	if err != nil {
		return nil, err
	}

	fetcherOpts := []FetcherOption{WithMetrics(metrics)}
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		fetcherOpts = append(fetcherOpts, WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)))
	}
	fetcherOpts = append(fetcherOpts, opts...)

	return &Scraper{
		cfg: cfg,
		fetcher: NewFetcher(
			client,
			cfg.Headers,
			NewBlockDetector(cfg.BlockSignatures),
			RetryPolicyFromConfig(cfg),
			fetcherOpts...,
		),
		paginator: NewPaginator(cfg.MaxPages),
		extractor: extractor,
		Metrics:   metrics,
	}, nil
}

// Search fetches the first result page, works out how many pages exist and
// fetches the rest concurrently. Products come back in page order, then
// document order. A page that exhausts its retries is left out; only a
// failure on the first page aborts the search with *SearchAbortedError.
func (s *Scraper) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	res := &models.SearchResult{
		Query:     query,
		SearchURL: BuildSearchURL(s.cfg.BaseURL, query),
		StartTime: time.Now(),
	}
	slog.Info("search started",
		slog.String("query", query),
		slog.String("url", res.SearchURL),
	)

	first := s.fetcher.Fetch(ctx, res.SearchURL)
	if !first.OK() {
		slog.Error("first result page failed",
			slog.String("url", res.SearchURL),
			slog.Int("attempts", first.Attempts),
			slog.Any("error", first.Err),
		)
		return nil, &SearchAbortedError{Query: query, Err: first.Err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(first.Body))
	if err != nil {
		return nil, &SearchAbortedError{Query: query, Err: fmt.Errorf("parse first page: %w", err)}
	}

	res.PageCount = s.paginator.pageCount(doc.Selection)
	res.PageURLs = PageURLs(res.SearchURL, res.PageCount)
	slog.Info("result pages resolved", slog.Int("pages", res.PageCount))

	agg := newAggregator(res.PageCount)
	agg.put(1, first, s.extractor.extractDocument(doc.Selection))

	if res.PageCount > 1 {
		s.dispatch(ctx, agg, res.PageURLs)
	}

	agg.merge(res)
	res.EndTime = time.Now()
	slog.Info("search finished",
		slog.String("query", query),
		slog.Int("products", len(res.Products)),
		slog.Int("exhausted_pages", len(res.ExhaustedPages)),
		slog.Duration("elapsed", res.Duration()),
	)
	return res, nil
}

// Run searches and streams every product through p.
func (s *Scraper) Run(ctx context.Context, query string, p *pipeline.Pipeline) (*models.SearchResult, error) {
	res, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range res.Products {
		if err := p.Process(&res.Products[i]); err != nil {
			slog.Error("pipeline process error", slog.Any("error", err))
		}
	}
	return res, nil
}

// dispatch fetches pages 2..n, one unit of work per page. Workers never
// fail the group; a lost page is recorded in its slot instead.
func (s *Scraper) dispatch(ctx context.Context, agg *aggregator, pageURLs []string) {
	rest := pageURLs[1:]

	var g errgroup.Group
	g.SetLimit(s.workerLimit(len(rest)))
	for i, pageURL := range rest {
		page := i + 2
		g.Go(func() error {
			s.scrapePage(ctx, agg, page, pageURL)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scraper) workerLimit(units int) int {
	if s.cfg.Parallelism > 0 && s.cfg.Parallelism < units {
		return s.cfg.Parallelism
	}
	return units
}

func (s *Scraper) scrapePage(ctx context.Context, agg *aggregator, page int, pageURL string) {
	result := s.fetcher.Fetch(ctx, pageURL)
	if !result.OK() {
		slog.Warn("dropping result page",
			slog.Int("page", page),
			slog.String("url", pageURL),
			slog.Any("error", result.Err),
		)
		agg.put(page, result, nil)
		return
	}

	products, err := s.extractor.Extract(result.Body)
	if err != nil {
		slog.Error("extract result page",
			slog.Int("page", page),
			slog.String("url", pageURL),
			slog.Any("error", err),
		)
	}
	agg.put(page, result, products)
}
