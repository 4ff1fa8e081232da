package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file from the working directory, if one exists.
// Variables already set in the environment win.
func LoadEnv() {
	_ = godotenv.Load()
}

// EnvString returns the trimmed value of key and whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvFloat parses key as a float.
func EnvFloat(key string) (float64, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return f, true, nil
}

// EnvDuration parses key with time.ParseDuration.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// EnvList splits key on sep, dropping empty entries.
func EnvList(key, sep string) ([]string, bool) {
	value, ok := EnvString(key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, len(out) > 0
}

// ApplyEnv overrides cfg from SCRAPER_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v, ok := EnvString("SCRAPER_BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok, err := EnvInt("SCRAPER_PAGES"); err != nil {
		return err
	} else if ok {
		cfg.MaxPages = v
	}
	if v, ok, err := EnvInt("SCRAPER_PARALLEL"); err != nil {
		return err
	} else if ok {
		cfg.Parallelism = v
	}
	if v, ok, err := EnvInt("SCRAPER_MAX_ATTEMPTS"); err != nil {
		return err
	} else if ok {
		cfg.MaxAttempts = v
	}
	if v, ok, err := EnvDuration("SCRAPER_RETRY_DELAY"); err != nil {
		return err
	} else if ok {
		cfg.RetryDelay = v
	}
	if v, ok, err := EnvDuration("SCRAPER_RETRY_JITTER"); err != nil {
		return err
	} else if ok {
		cfg.RetryJitter = v
	}
	if v, ok, err := EnvDuration("SCRAPER_TIMEOUT"); err != nil {
		return err
	} else if ok {
		cfg.Timeout = v
	}
	if v, ok, err := EnvFloat("SCRAPER_RATE"); err != nil {
		return err
	} else if ok {
		cfg.RatePerSecond = v
	}
	if v, ok := EnvString("SCRAPER_USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok := EnvList("SCRAPER_BLOCK_SIGNATURES", "|"); ok {
		cfg.BlockSignatures = v
	}
	if v, ok := EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = v
	}
	if v, ok := EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(v)
	}
	if v, ok := EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	return nil
}
