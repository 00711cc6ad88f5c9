package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "NEWSDIGEST_CONFIG"
	databaseURLEnv  = "DATABASE_URL"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	openAIBaseEnv   = "OPENAI_BASE_URL"
	runHourEnv      = "DAILY_RUN_HOUR"
	runMinuteEnv    = "DAILY_RUN_MINUTE"
	requestDelayEnv = "SCRAPER_DELAY_SECONDS"
	logLevelEnv     = "LOG_LEVEL"
	monitorAddrEnv  = "MONITORING_ADDR"
)

// Config holds every setting the application needs at construction time.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Limits     LimitsConfig     `yaml:"limits"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Sources    []SourceConfig   `yaml:"sources"`
}

// DatabaseConfig describes the Postgres connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SchedulerConfig defines the daily trigger time.
type SchedulerConfig struct {
	Hour       int  `yaml:"hour"`
	Minute     int  `yaml:"minute"`
	RunOnStart bool `yaml:"runOnStart"`
}

// ScraperConfig tunes outbound page and feed requests.
type ScraperConfig struct {
	DelaySeconds   float64 `yaml:"delaySeconds"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
}

// Delay returns the politeness pause between article requests.
func (s ScraperConfig) Delay() time.Duration {
	return time.Duration(s.DelaySeconds * float64(time.Second))
}

// Timeout returns the per-request HTTP timeout.
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// SummarizerConfig defines how to contact the completion API.
type SummarizerConfig struct {
	APIKey   string `yaml:"apiKey"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
	Required bool   `yaml:"required"`
}

// Enabled reports whether summarization is configured at all.
func (s SummarizerConfig) Enabled() bool {
	return s.APIKey != ""
}

// LimitsConfig caps per-run work.
type LimitsConfig struct {
	PerSource    int  `yaml:"perSource"`
	PerRun       int  `yaml:"perRun"`
	SkipExisting bool `yaml:"skipExisting"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MonitoringConfig enables the optional health/metrics listener.
type MonitoringConfig struct {
	Addr string `yaml:"addr"`
}

// SourceConfig declares a seed source upserted into the registry at startup.
type SourceConfig struct {
	Name     string `yaml:"name"`
	FeedURL  string `yaml:"feedUrl"`
	BaseURL  string `yaml:"baseUrl"`
	Category string `yaml:"category"`
}

// Load reads YAML configuration (if present) into the defaults and applies
// environment overrides. A .env file in the working directory is loaded
// first so local runs behave like deployed ones.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		// Decoding into the populated struct keeps defaults for absent
		// fields, so hour: 0 stays expressible.
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate reports fatal configuration problems. Anything it returns should
// stop the process before work begins.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required (database.url or %s)", databaseURLEnv)
	}
	if c.Scheduler.Hour < 0 || c.Scheduler.Hour > 23 {
		return fmt.Errorf("scheduler hour %d out of range", c.Scheduler.Hour)
	}
	if c.Scheduler.Minute < 0 || c.Scheduler.Minute > 59 {
		return fmt.Errorf("scheduler minute %d out of range", c.Scheduler.Minute)
	}
	if c.Summarizer.Required && !c.Summarizer.Enabled() {
		return fmt.Errorf("summarizer marked required but no api key configured (%s)", openAIKeyEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Summarizer.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.Summarizer.Model = v
	}
	if v := os.Getenv(openAIBaseEnv); v != "" {
		c.Summarizer.Endpoint = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(monitorAddrEnv); v != "" {
		c.Monitoring.Addr = v
	}

	c.Scheduler.Hour = envInt(runHourEnv, c.Scheduler.Hour)
	c.Scheduler.Minute = envInt(runMinuteEnv, c.Scheduler.Minute)
	c.Scraper.DelaySeconds = envFloat(requestDelayEnv, c.Scraper.DelaySeconds)
}

func envInt(key string, current int) int {
	v := os.Getenv(key)
	if v == "" {
		return current
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, keeping %d", key, v, current)
		return current
	}
	return n
}

func envFloat(key string, current float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return current
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, keeping %g", key, v, current)
		return current
	}
	return f
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{URL: ""},
		Scheduler: SchedulerConfig{
			Hour:       9,
			Minute:     0,
			RunOnStart: true,
		},
		Scraper: ScraperConfig{
			DelaySeconds:   2,
			TimeoutSeconds: 15,
		},
		Summarizer: SummarizerConfig{
			Model:    "gpt-4o-mini",
			Endpoint: "https://api.openai.com/v1/chat/completions",
		},
		Limits: LimitsConfig{
			PerSource:    25,
			PerRun:       100,
			SkipExisting: true,
		},
		Logging:    LoggingConfig{Level: "info"},
		Monitoring: MonitoringConfig{Addr: ""},
		Sources: []SourceConfig{
			{Name: "BBC News", FeedURL: "https://feeds.bbci.co.uk/news/rss.xml", BaseURL: "https://www.bbc.com", Category: "News"},
			{Name: "BBC Business", FeedURL: "https://feeds.bbci.co.uk/news/business/rss.xml", BaseURL: "https://www.bbc.com", Category: "Business"},
			{Name: "BBC Technology", FeedURL: "https://feeds.bbci.co.uk/news/technology/rss.xml", BaseURL: "https://www.bbc.com", Category: "Technology"},
			{Name: "BBC Health", FeedURL: "https://feeds.bbci.co.uk/news/health/rss.xml", BaseURL: "https://www.bbc.com", Category: "Health"},
			{Name: "BBC Sport", FeedURL: "https://feeds.bbci.co.uk/sport/rss.xml", BaseURL: "https://www.bbc.com", Category: "Sport"},
			{Name: "Guardian World", FeedURL: "https://www.theguardian.com/world/rss", BaseURL: "https://www.theguardian.com", Category: "World"},
			{Name: "NPR News", FeedURL: "https://feeds.npr.org/1001/rss.xml", BaseURL: "https://www.npr.org", Category: "General"},
		},
	}
}
