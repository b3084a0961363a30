package config

import "time"

// DefaultAddress is the booking address typed into the flow.
const DefaultAddress = "6619 10th Ave, brooklyn, 11219, NY"

type Config struct {
	Address    string           `mapstructure:"address"    yaml:"address"`
	Browser    BrowserConfig    `mapstructure:"browser"    yaml:"browser"`
	Scrape     ScrapeConfig     `mapstructure:"scrape"     yaml:"scrape"`
	Output     OutputConfig     `mapstructure:"output"     yaml:"output"`
	Postgres   PostgresConfig   `mapstructure:"postgres"   yaml:"postgres"`
	Mongo      MongoConfig      `mapstructure:"mongo"      yaml:"mongo"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Categories []CategoryConfig `mapstructure:"categories" yaml:"categories"`
}

type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless"          yaml:"headless"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	StepTimeout     time.Duration `mapstructure:"step_timeout"      yaml:"step_timeout"`
	ResultsTimeout  time.Duration `mapstructure:"results_timeout"   yaml:"results_timeout"`
}

// ScrapeConfig bounds a category run. MaxPages 0 means follow pagination
// until the site reports no further page.
type ScrapeConfig struct {
	MaxPages        int           `mapstructure:"max_pages"          yaml:"max_pages"`
	MaxCardsPerPage int           `mapstructure:"max_cards_per_page" yaml:"max_cards_per_page"`
	MaxRetries      int           `mapstructure:"max_retries"        yaml:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"      yaml:"retry_backoff"`
	MinDelay        time.Duration `mapstructure:"min_delay"          yaml:"min_delay"`
	MaxDelay        time.Duration `mapstructure:"max_delay"          yaml:"max_delay"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"  yaml:"enabled"`
	Host     string `mapstructure:"host"     yaml:"host"`
	Port     int    `mapstructure:"port"     yaml:"port"`
	User     string `mapstructure:"user"     yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name"     yaml:"name"`
	SSLMode  string `mapstructure:"sslmode"  yaml:"sslmode"`
}

type MongoConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"    yaml:"level"`
	Format   string `mapstructure:"format"   yaml:"format"`
	Progress bool   `mapstructure:"progress" yaml:"progress"`
}

func DefaultConfig() *Config {
	return &Config{
		Address: DefaultAddress,
		Browser: BrowserConfig{
			Headless:        false,
			PageLoadTimeout: 60 * time.Second,
			StepTimeout:     20 * time.Second,
			ResultsTimeout:  45 * time.Second,
		},
		Scrape: ScrapeConfig{
			MaxPages:        0,
			MaxCardsPerPage: 15,
			MaxRetries:      3,
			RetryBackoff:    2 * time.Second,
			MinDelay:        2 * time.Second,
			MaxDelay:        5 * time.Second,
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Postgres: PostgresConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     5433,
			User:     "postgres",
			Password: "postgres",
			Name:     "taskrabbit_scraper",
			SSLMode:  "disable",
		},
		Mongo: MongoConfig{
			Enabled:    false,
			URI:        "mongodb://localhost:27017",
			Database:   "taskrabbit_scraper",
			Collection: "taskers",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Progress: true,
		},
	}
}
