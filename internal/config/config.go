// Package config loads process configuration once at startup: the YAML
// file, TRIAGE_* environment overrides and the secret files holding the
// two service credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/deduplication"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory
const DefaultFileName = "triage.yaml"

// Tracker backends
const (
	TrackerLinear = "linear"
	TrackerSQLite = "sqlite"
)

// Config is the process configuration
type Config struct {
	// TeamID is the tracker team whose backlog is triaged. Required for
	// runs; listing teams works without it.
	TeamID string `yaml:"team_id"`

	// Provider selects the reasoning backend: anthropic or openai
	Provider string `yaml:"provider" validate:"oneof=anthropic openai"`

	// Model overrides the provider's default model
	Model string `yaml:"model"`

	// ReasoningKeyFile holds the reasoning service API key
	ReasoningKeyFile string `yaml:"reasoning_key_file" validate:"required"`

	// ReasoningURL overrides the reasoning API endpoint
	ReasoningURL string `yaml:"reasoning_url" validate:"omitempty,url"`

	// Tracker selects the ticket store: linear or sqlite
	Tracker string `yaml:"tracker" validate:"oneof=linear sqlite"`

	// TrackerKeyFile holds the Linear API key
	TrackerKeyFile string `yaml:"tracker_key_file" validate:"required_if=Tracker linear"`

	// TrackerURL overrides the Linear GraphQL endpoint
	TrackerURL string `yaml:"tracker_url" validate:"omitempty,url"`

	// SQLitePath is the local tracker database. Empty means discover
	// .triage/*.db in the working directory.
	SQLitePath string `yaml:"sqlite_path"`

	// RateLimit caps reasoning calls per second (0 = unlimited)
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`

	// RequestTimeout bounds each reasoning call (0 = no timeout)
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`

	Dedup DedupConfig `yaml:"dedup"`

	// dir is the directory relative key file paths resolve against
	dir string
}

// DedupConfig is the YAML form of deduplication.Config
type DedupConfig struct {
	MaxCandidates int  `yaml:"max_candidates" validate:"gte=0,lte=10000"`
	SkipArchived  bool `yaml:"skip_archived"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	dedup := deduplication.DefaultConfig()
	return &Config{
		Provider:         string(ai.ProviderAnthropic),
		ReasoningKeyFile: "reasoning_key.txt",
		Tracker:          TrackerLinear,
		TrackerKeyFile:   "linear_key.txt",
		Dedup: DedupConfig{
			MaxCandidates: dedup.MaxCandidates,
			SkipArchived:  dedup.SkipArchived,
		},
	}
}

// Load reads configuration from path, then applies environment
// overrides and validates. An empty path looks for triage.yaml in the
// working directory and falls back to defaults when it is absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		cfg.dir = filepath.Dir(abs)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No file: defaults plus environment
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from TRIAGE_* environment variables
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TRIAGE_TEAM_ID":            &c.TeamID,
		"TRIAGE_PROVIDER":           &c.Provider,
		"TRIAGE_MODEL":              &c.Model,
		"TRIAGE_REASONING_KEY_FILE": &c.ReasoningKeyFile,
		"TRIAGE_REASONING_URL":      &c.ReasoningURL,
		"TRIAGE_TRACKER":            &c.Tracker,
		"TRIAGE_TRACKER_KEY_FILE":   &c.TrackerKeyFile,
		"TRIAGE_TRACKER_URL":        &c.TrackerURL,
		"TRIAGE_SQLITE_PATH":        &c.SQLitePath,
	}
	for key, dest := range strs {
		if value := os.Getenv(key); value != "" {
			*dest = value
		}
	}

	if value := os.Getenv("TRIAGE_RATE_LIMIT"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for TRIAGE_RATE_LIMIT: %w", err)
		}
		c.RateLimit = parsed
	}
	if value := os.Getenv("TRIAGE_REQUEST_TIMEOUT"); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value for TRIAGE_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = parsed
	}

	dedup, err := deduplication.ConfigFromEnv(c.DedupSettings())
	if err != nil {
		return err
	}
	c.Dedup = DedupConfig{
		MaxCandidates: dedup.MaxCandidates,
		SkipArchived:  dedup.SkipArchived,
	}
	return nil
}

// Validate checks field values and cross-field requirements
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireTeam reports an error when no team is configured
func (c *Config) RequireTeam() error {
	if c.TeamID == "" {
		return fmt.Errorf("team_id is required (set it in %s or TRIAGE_TEAM_ID; run 'triage teams' to list ids)", DefaultFileName)
	}
	return nil
}

// EngineConfig builds the reasoning engine configuration
func (c *Config) EngineConfig(creds *Credentials) ai.Config {
	return ai.Config{
		Provider:       ai.Provider(c.Provider),
		APIKey:         creds.ReasoningKey,
		Model:          c.Model,
		BaseURL:        c.ReasoningURL,
		RateLimit:      c.RateLimit,
		RequestTimeout: c.RequestTimeout,
	}
}

// DedupSettings converts the YAML dedup block
func (c *Config) DedupSettings() deduplication.Config {
	return deduplication.Config{
		MaxCandidates: c.Dedup.MaxCandidates,
		SkipArchived:  c.Dedup.SkipArchived,
	}
}

// resolve makes a relative key file path relative to the config file
func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}
