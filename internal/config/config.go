package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultEvalTimeout       = 5 * time.Second
	DefaultBroadcastInterval = 15 * time.Second
	DefaultScrapeInterval    = 30 * time.Second
	DefaultScrapeTimeout     = 5 * time.Second
	DefaultMetricsPort       = 9100
	DefaultDedupWindow       = 30 * time.Minute
	DefaultSQLitePath        = "data/netsentry.db"
)

// Config is the full server configuration parsed from config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// Auth configures API client authentication.
	Auth AuthConfig `yaml:"auth"`

	// Repository selects and configures the device repository backend.
	Repository RepositoryConfig `yaml:"repository"`

	// Evaluation bounds health evaluations and the broadcast cadence.
	Evaluation EvaluationConfig `yaml:"evaluation"`

	// Alerts configures emission dedup and webhook delivery.
	Alerts AlertsConfig `yaml:"alerts"`

	// Scrape configures the device metrics poller.
	Scrape ScrapeConfig `yaml:"scrape"`
}

// AuthConfig controls HTTP client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable holding the expected
	// API key. Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// RepositoryConfig selects the device repository backend.
type RepositoryConfig struct {
	// Backend is one of: memory | sqlite.
	Backend string `yaml:"backend"`

	// Path is the SQLite database file (backend: sqlite).
	Path string `yaml:"path"`
}

// EvaluationConfig bounds repository I/O during an evaluation and sets how
// often the WebSocket hub broadcasts a fresh summary.
type EvaluationConfig struct {
	// Timeout bounds all repository reads of one evaluation. Expiry is
	// surfaced as a repository failure.
	Timeout time.Duration `yaml:"timeout"`

	// BroadcastInterval is the WebSocket summary cadence; it is also the
	// periodic evaluation tick.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// AlertsConfig holds alert emission settings and webhook delivery targets.
type AlertsConfig struct {
	// DedupWindow suppresses a repeat health alert for this long after an
	// unacknowledged one of the same type was created.
	DedupWindow time.Duration `yaml:"dedup_window"`

	// RedisAddrEnv optionally names an environment variable holding a Redis
	// address. When set and resolvable, emission dedup is additionally
	// enforced through Redis so concurrent instances cannot double-emit.
	RedisAddrEnv string `yaml:"redis_addr_env"`

	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// RedisAddr returns the Redis address resolved from the environment.
func (a AlertsConfig) RedisAddr() string {
	if a.RedisAddrEnv == "" {
		return ""
	}
	return os.Getenv(a.RedisAddrEnv)
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// ScrapeConfig controls the device metrics poller.
type ScrapeConfig struct {
	Enabled bool `yaml:"enabled"`

	// Interval is how often every device is probed.
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds one device probe.
	Timeout time.Duration `yaml:"timeout"`

	// MetricsPort is the port devices expose their metrics endpoint on.
	MetricsPort int `yaml:"metrics_port"`
}

// Load reads and validates the configuration at path. A .env file in the
// working directory is loaded first so *_env indirections resolve.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Repository: RepositoryConfig{
				Backend: "memory",
				Path:    DefaultSQLitePath,
			},
			Evaluation: EvaluationConfig{
				Timeout:           DefaultEvalTimeout,
				BroadcastInterval: DefaultBroadcastInterval,
			},
			Alerts: AlertsConfig{
				DedupWindow: DefaultDedupWindow,
			},
			Scrape: ScrapeConfig{
				Interval:    DefaultScrapeInterval,
				Timeout:     DefaultScrapeTimeout,
				MetricsPort: DefaultMetricsPort,
			},
		},
	}
}

func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d out of range", s.HTTPPort)
	}
	switch s.Repository.Backend {
	case "memory":
	case "sqlite":
		if s.Repository.Path == "" {
			return fmt.Errorf("repository.path required for sqlite backend")
		}
	default:
		return fmt.Errorf("unsupported repository backend %q", s.Repository.Backend)
	}
	switch s.Auth.Mode {
	case "", "none", "apikey":
	default:
		return fmt.Errorf("unsupported auth mode %q", s.Auth.Mode)
	}
	if s.Evaluation.Timeout <= 0 {
		return fmt.Errorf("evaluation.timeout must be positive")
	}
	if s.Alerts.DedupWindow <= 0 {
		return fmt.Errorf("alerts.dedup_window must be positive")
	}
	for _, w := range s.Alerts.Webhooks {
		switch w.Type {
		case "teams", "slack", "http":
		default:
			return fmt.Errorf("unsupported webhook type %q", w.Type)
		}
	}
	if s.Scrape.Enabled {
		if s.Scrape.Interval <= 0 {
			return fmt.Errorf("scrape.interval must be positive")
		}
		if s.Scrape.MetricsPort <= 0 || s.Scrape.MetricsPort > 65535 {
			return fmt.Errorf("scrape.metrics_port %d out of range", s.Scrape.MetricsPort)
		}
	}
	return nil
}
