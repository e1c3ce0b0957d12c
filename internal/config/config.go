package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/orchestrator"
	"github.com/nidhogg/taskforce/internal/provider"
	"github.com/nidhogg/taskforce/internal/trend"
	"golang.org/x/time/rate"
)

// DefaultPath is used when neither CONFIG_PATH nor --config is set.
const DefaultPath = "configs/taskforce.json"

// Config is the top-level configuration structure.
type Config struct {
	Server ServerConfig `json:"server"`
	Team   TeamConfig   `json:"team"`
	Trend  TrendConfig  `json:"trend"`
	Search SearchConfig `json:"search"`
	Redis  RedisConfig  `json:"redis"`
	Notify NotifyConfig `json:"notify"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type TeamConfig struct {
	EnabledRoles    []string `json:"enabled_roles"`
	DefaultLocation string   `json:"default_location"`
	FindingLimit    int      `json:"finding_limit"`
	NewsTopic       string   `json:"news_topic"`
	InnovationTopic string   `json:"innovation_topic"`
	// DemoFallback defaults to true when omitted.
	DemoFallback *bool `json:"demo_fallback,omitempty"`
	Parallel     int   `json:"parallel"`
}

type TrendConfig struct {
	Epsilon             float64 `json:"epsilon"`
	MaxUnparseableRatio float64 `json:"max_unparseable_ratio"`
}

type SearchConfig struct {
	// CatalogPath overrides the embedded canned catalog.
	CatalogPath   string  `json:"catalog_path"`
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
	// MaxRetries < 0 disables retries.
	MaxRetries     int `json:"max_retries"`
	RetryInitialMS int `json:"retry_initial_ms"`
	RetryMaxMS     int `json:"retry_max_elapsed_ms"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type NotifyConfig struct {
	SlackWebhookURL   string `json:"slack_webhook_url"`
	DiscordWebhookURL string `json:"discord_webhook_url"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	team := orchestrator.DefaultConfig()
	if c.Team.EnabledRoles == nil {
		for _, r := range team.EnabledRoles {
			c.Team.EnabledRoles = append(c.Team.EnabledRoles, string(r))
		}
	}
	if c.Team.DefaultLocation == "" {
		c.Team.DefaultLocation = team.DefaultLocation
	}
	if c.Team.FindingLimit == 0 {
		c.Team.FindingLimit = team.FindingLimit
	}
	if c.Team.NewsTopic == "" {
		c.Team.NewsTopic = provider.DefaultNewsTopic
	}
	if c.Team.InnovationTopic == "" {
		c.Team.InnovationTopic = provider.DefaultInnovationTopic
	}
	if c.Team.DemoFallback == nil {
		on := team.DemoFallback
		c.Team.DemoFallback = &on
	}
	if c.Team.Parallel == 0 {
		c.Team.Parallel = team.Parallel
	}

	tc := trend.DefaultConfig()
	if c.Trend.Epsilon == 0 {
		c.Trend.Epsilon = tc.Epsilon
	}
	if c.Trend.MaxUnparseableRatio == 0 {
		c.Trend.MaxUnparseableRatio = tc.MaxUnparseableRatio
	}

	rp := provider.DefaultRetryPolicy()
	if c.Search.MaxRetries == 0 {
		c.Search.MaxRetries = rp.MaxRetries
	}
	if c.Search.RetryInitialMS == 0 {
		c.Search.RetryInitialMS = int(rp.InitialInterval / time.Millisecond)
	}
	if c.Search.RetryMaxMS == 0 {
		c.Search.RetryMaxMS = int(rp.MaxElapsed / time.Millisecond)
	}
	if c.Search.RatePerSecond > 0 && c.Search.Burst == 0 {
		c.Search.Burst = 1
	}
}

// Validate rejects configurations the team cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if _, err := c.Roles(); err != nil {
		errs = append(errs, fmt.Errorf("team.enabled_roles: %w", err))
	}
	if c.Team.FindingLimit <= 0 {
		errs = append(errs, fmt.Errorf("team.finding_limit must be positive, got %d", c.Team.FindingLimit))
	}
	if c.Team.Parallel < 0 {
		errs = append(errs, fmt.Errorf("team.parallel must not be negative, got %d", c.Team.Parallel))
	}
	if c.Trend.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("trend.epsilon must not be negative, got %v", c.Trend.Epsilon))
	}
	if c.Trend.MaxUnparseableRatio < 0 || c.Trend.MaxUnparseableRatio > 1 {
		errs = append(errs, fmt.Errorf("trend.max_unparseable_ratio must be within [0,1], got %v", c.Trend.MaxUnparseableRatio))
	}
	if c.Search.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("search.rate_per_second must not be negative, got %v", c.Search.RatePerSecond))
	}
	return errors.Join(errs...)
}

// Roles parses the enabled role names.
func (c *Config) Roles() ([]agent.Role, error) {
	set, err := agent.ParseRoles(c.Team.EnabledRoles)
	if err != nil {
		return nil, err
	}
	return set.Ordered(), nil
}

// Orchestrator returns the team configuration. Call Validate first.
func (c *Config) Orchestrator() orchestrator.Config {
	roles, _ := c.Roles()
	return orchestrator.Config{
		EnabledRoles:    roles,
		DefaultLocation: c.Team.DefaultLocation,
		FindingLimit:    c.Team.FindingLimit,
		NewsTopic:       c.Team.NewsTopic,
		InnovationTopic: c.Team.InnovationTopic,
		DemoFallback:    c.Team.DemoFallback == nil || *c.Team.DemoFallback,
		Parallel:        c.Team.Parallel,
	}
}

func (c *Config) TrendConfig() trend.Config {
	return trend.Config{Epsilon: c.Trend.Epsilon, MaxUnparseableRatio: c.Trend.MaxUnparseableRatio}
}

// Providers returns the settings for the default finding providers.
func (c *Config) Providers() provider.DefaultsConfig {
	out := provider.DefaultsConfig{
		NewsTopic:       c.Team.NewsTopic,
		InnovationTopic: c.Team.InnovationTopic,
		Retry: provider.RetryPolicy{
			MaxRetries:      c.Search.MaxRetries,
			InitialInterval: time.Duration(c.Search.RetryInitialMS) * time.Millisecond,
			MaxElapsed:      time.Duration(c.Search.RetryMaxMS) * time.Millisecond,
		},
	}
	if c.Search.RatePerSecond > 0 {
		out.Limiter = rate.NewLimiter(rate.Limit(c.Search.RatePerSecond), c.Search.Burst)
	}
	return out
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file, substitutes environment variable
// references and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes config JSON after environment substitution.
func Parse(data []byte) (*Config, error) {
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	dec := json.NewDecoder(strings.NewReader(resolved))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}
