package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// A .env file in the working directory is loaded into the environment
// first when present. CLI flag overrides are applied by the caller.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("TASKRABBIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("taskrabbit")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so AutomaticEnv can
// resolve every key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("address", cfg.Address)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.page_load_timeout", cfg.Browser.PageLoadTimeout)
	v.SetDefault("browser.step_timeout", cfg.Browser.StepTimeout)
	v.SetDefault("browser.results_timeout", cfg.Browser.ResultsTimeout)

	v.SetDefault("scrape.max_pages", cfg.Scrape.MaxPages)
	v.SetDefault("scrape.max_cards_per_page", cfg.Scrape.MaxCardsPerPage)
	v.SetDefault("scrape.max_retries", cfg.Scrape.MaxRetries)
	v.SetDefault("scrape.retry_backoff", cfg.Scrape.RetryBackoff)
	v.SetDefault("scrape.min_delay", cfg.Scrape.MinDelay)
	v.SetDefault("scrape.max_delay", cfg.Scrape.MaxDelay)

	v.SetDefault("output.dir", cfg.Output.Dir)

	v.SetDefault("postgres.enabled", cfg.Postgres.Enabled)
	v.SetDefault("postgres.host", cfg.Postgres.Host)
	v.SetDefault("postgres.port", cfg.Postgres.Port)
	v.SetDefault("postgres.user", cfg.Postgres.User)
	v.SetDefault("postgres.password", cfg.Postgres.Password)
	v.SetDefault("postgres.name", cfg.Postgres.Name)
	v.SetDefault("postgres.sslmode", cfg.Postgres.SSLMode)

	v.SetDefault("mongo.enabled", cfg.Mongo.Enabled)
	v.SetDefault("mongo.uri", cfg.Mongo.URI)
	v.SetDefault("mongo.database", cfg.Mongo.Database)
	v.SetDefault("mongo.collection", cfg.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.progress", cfg.Logging.Progress)
}
