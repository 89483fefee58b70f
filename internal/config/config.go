package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

var detectorNames = []string{"model", "lingua", "whatlang"}

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	LLMEndpoint    string        `envconfig:"LLM_ENDPOINT" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	LLMModel       string        `envconfig:"LLM_MODEL" default:"gemini-2.0-flash"`
	LLMAPIKey      string        `envconfig:"LLM_API_KEY" default:""`
	LLMTimeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	LLMTemperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	Detector       string        `envconfig:"DETECTOR" default:"model"`

	PreviewQuietPeriod time.Duration `envconfig:"PREVIEW_QUIET_PERIOD" default:"1s"`
	PreviewCallTimeout time.Duration `envconfig:"PREVIEW_CALL_TIMEOUT" default:"2m"`
	NoticeTTL          time.Duration `envconfig:"NOTICE_TTL" default:"6s"`
	SessionIdleTTL     time.Duration `envconfig:"SESSION_IDLE_TTL" default:"2h"`
	MaxSessions        int           `envconfig:"MAX_SESSIONS" default:"1000"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel))); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel)
	}
	if strings.TrimSpace(c.LLMEndpoint) == "" {
		return fmt.Errorf("LLM_ENDPOINT is required")
	}
	if strings.TrimSpace(c.LLMModel) == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	if !c.knownDetector() {
		return fmt.Errorf("DETECTOR %q is not one of %s", c.Detector, strings.Join(detectorNames, ", "))
	}
	if c.PreviewQuietPeriod <= 0 {
		return fmt.Errorf("PREVIEW_QUIET_PERIOD must be > 0")
	}
	if c.PreviewCallTimeout <= 0 {
		return fmt.Errorf("PREVIEW_CALL_TIMEOUT must be > 0")
	}
	if c.NoticeTTL <= 0 {
		return fmt.Errorf("NOTICE_TTL must be > 0")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be > 0")
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("MAX_SESSIONS must be >= 1")
	}
	return nil
}

// DetectorName is the configured detector, lowercased.
func (c *Config) DetectorName() string {
	if c == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Detector))
}

func (c *Config) knownDetector() bool {
	name := c.DetectorName()
	for _, known := range detectorNames {
		if name == known {
			return true
		}
	}
	return false
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
