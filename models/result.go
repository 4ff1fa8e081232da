package models

import "time"

// PageStatus describes the outcome of fetching one result page.
type PageStatus string

const (
	// PageSuccess is a 200 response that passed the validity check.
	PageSuccess PageStatus = "success"
	// PageBlocked is a 200 response carrying a known block signature.
	PageBlocked PageStatus = "blocked"
	// PageExhausted means every retry attempt for the URL failed.
	PageExhausted PageStatus = "exhausted"
)

// PageResult is the raw outcome of fetching a single result page.
type PageResult struct {
	URL        string
	Body       []byte
	StatusCode int
	Status     PageStatus
	Attempts   int
	Err        error
}

// OK reports whether the page can be handed to the extractor.
func (r PageResult) OK() bool {
	return r.Status == PageSuccess
}

// SearchResult holds the overall result of one search.
type SearchResult struct {
	Query          string
	SearchURL      string
	PageCount      int
	PageURLs       []string
	Products       []Product
	ExhaustedPages []string
	ErrorsByType   map[string]int
	RequestCount   int
	RetryCount     int
	StartTime      time.Time
	EndTime        time.Time
}

// Duration returns the wall-clock time the search took.
func (r *SearchResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
