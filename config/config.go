package config

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL          string
	MaxPages         int
	Parallelism      int // 0 means one worker per result page
	Delay            time.Duration
	RandomDelay      time.Duration
	Timeout          time.Duration
	MaxAttempts      int
	RetryDelay       time.Duration
	RetryJitter      time.Duration
	RatePerSecond    float64 // 0 disables client-side rate limiting
	RateBurst        int
	UserAgent        string
	Headers          http.Header
	BlockSignatures  []string
	RespectRobotsTxt bool

	OutputFile         string
	OutputFormat       string // json, jsonl, csv, or dual
	PipelineBufferSize int
	BatchSize          int
	DedupeMaxSize      int // 0 disables URL de-duplication
	MetricsAddr        string
	Verbose            bool
}

// DefaultConfig returns the defaults for the search target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "https://www.amazon.com",
		MaxPages:           50,
		Parallelism:        0,
		Delay:              0,
		RandomDelay:        0,
		Timeout:            15 * time.Second,
		MaxAttempts:        5,
		RetryDelay:         3 * time.Second,
		RetryJitter:        0,
		RatePerSecond:      0,
		RateBurst:          1,
		UserAgent:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
		Headers:            DefaultHeaders(),
		BlockSignatures:    DefaultBlockSignatures(),
		RespectRobotsTxt:   false,
		OutputFile:         "",
		OutputFormat:       "json",
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      100000,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

// DefaultHeaders is the fixed request identity sent with every fetch.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-GB,en-US;q=0.9,en;q=0.8")
	h.Set("Accept-Encoding", "gzip, br")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Dest", "document")
	return h
}

// DefaultBlockSignatures lists body fragments that mark a 200 response as
// a block or error page instead of real results.
func DefaultBlockSignatures() []string {
	return []string{
		"Sorry, we just need to make sure you're not a robot.",
		"Enter the characters you see below",
		"We're sorry. The Web address you entered is not a functioning page on our site.",
		"Try checking your spelling or use more general terms",
		"The request could not be satisfied",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism cannot be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.RetryJitter < 0 {
		return fmt.Errorf("retry jitter cannot be negative")
	}
	if c.RatePerSecond < 0 {
		return fmt.Errorf("rate per second cannot be negative")
	}
	if c.RatePerSecond > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("rate burst must be positive when rate limiting is enabled")
	}
	switch c.OutputFormat {
	case "json", "jsonl", "csv", "dual":
	default:
		return fmt.Errorf("output format must be json, jsonl, csv, or dual")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
