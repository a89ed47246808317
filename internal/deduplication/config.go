package deduplication

import (
	"fmt"
	"os"
	"strconv"

	"github.com/steveyegge/triage/internal/types"
)

// Config holds configuration for the deduplication scan
type Config struct {
	// MaxCandidates caps how many backlog tickets are compared, taken from
	// the front of the backlog. Each comparison is one engine call.
	// Default: 0 (compare against the whole backlog)
	MaxCandidates int

	// SkipArchived drops archived tickets before comparing
	// Default: false (archived tickets can still absorb reports)
	SkipArchived bool
}

// DefaultConfig returns the default deduplication configuration
func DefaultConfig() Config {
	return Config{
		MaxCandidates: 0,     // Whole backlog
		SkipArchived:  false, // Compare archived tickets too
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.MaxCandidates < 0 {
		return fmt.Errorf("max_candidates cannot be negative (got %d)", c.MaxCandidates)
	}
	if c.MaxCandidates > 10000 {
		return fmt.Errorf("max_candidates too large (got %d, max 10000)", c.MaxCandidates)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf("Config{MaxCandidates: %d, SkipArchived: %t}", c.MaxCandidates, c.SkipArchived)
}

// Candidates returns the tickets to compare, in backlog order
func (c Config) Candidates(backlog types.Backlog) types.Backlog {
	out := make(types.Backlog, 0, len(backlog))
	for _, ticket := range backlog {
		if c.SkipArchived && ticket.IsArchived() {
			continue
		}
		out = append(out, ticket)
		if c.MaxCandidates > 0 && len(out) == c.MaxCandidates {
			break
		}
	}
	return out
}

// ConfigFromEnv applies environment overrides on top of base. Variables
// that are unset keep the value from base.
//
// Environment variables:
//   - TRIAGE_DEDUP_MAX_CANDIDATES: Maximum number of tickets to compare against (0 = all)
//   - TRIAGE_DEDUP_SKIP_ARCHIVED: Ignore archived tickets
//
// Returns an error if any environment variable has an invalid value or the
// result does not validate.
func ConfigFromEnv(base Config) (Config, error) {
	cfg := base

	if err := parseEnvInt("TRIAGE_DEDUP_MAX_CANDIDATES", &cfg.MaxCandidates); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("TRIAGE_DEDUP_SKIP_ARCHIVED", &cfg.SkipArchived); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid dedup configuration: %w", err)
	}
	return cfg, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
