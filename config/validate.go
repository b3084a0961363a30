package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Address) == "" {
		return fmt.Errorf("address must not be empty")
	}

	if cfg.Browser.PageLoadTimeout <= 0 {
		return fmt.Errorf("browser.page_load_timeout must be > 0")
	}
	if cfg.Browser.StepTimeout <= 0 {
		return fmt.Errorf("browser.step_timeout must be > 0")
	}
	if cfg.Browser.ResultsTimeout <= 0 {
		return fmt.Errorf("browser.results_timeout must be > 0")
	}

	if cfg.Scrape.MaxPages < 0 {
		return fmt.Errorf("scrape.max_pages must be >= 0, got %d", cfg.Scrape.MaxPages)
	}
	if cfg.Scrape.MaxCardsPerPage < 0 {
		return fmt.Errorf("scrape.max_cards_per_page must be >= 0, got %d", cfg.Scrape.MaxCardsPerPage)
	}
	if cfg.Scrape.MaxRetries < 1 {
		return fmt.Errorf("scrape.max_retries must be >= 1, got %d", cfg.Scrape.MaxRetries)
	}
	if cfg.Scrape.MinDelay < 0 || cfg.Scrape.MaxDelay < cfg.Scrape.MinDelay {
		return fmt.Errorf("scrape delays must satisfy 0 <= min_delay <= max_delay")
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		return fmt.Errorf("output.dir must not be empty")
	}

	if cfg.Postgres.Enabled && (cfg.Postgres.Port < 1 || cfg.Postgres.Port > 65535) {
		return fmt.Errorf("postgres.port must be 1-65535, got %d", cfg.Postgres.Port)
	}
	if cfg.Mongo.Enabled && !strings.HasPrefix(cfg.Mongo.URI, "mongodb") {
		return fmt.Errorf("mongo.uri must be a mongodb:// or mongodb+srv:// URI")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if _, err := cfg.Registry(); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	return nil
}
