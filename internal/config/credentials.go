package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingCredential is returned when a key file is absent or empty
var ErrMissingCredential = errors.New("missing credential")

// Credentials holds the two service keys. It is built once at startup and
// passed explicitly to the clients that need it.
type Credentials struct {
	ReasoningKey string
	TrackerKey   string // Empty for the sqlite tracker
}

// String hides key material from logs and error messages
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ReasoningKey: %s, TrackerKey: %s}", redact(c.ReasoningKey), redact(c.TrackerKey))
}

func redact(key string) string {
	if key == "" {
		return "<unset>"
	}
	return "<redacted>"
}

// LoadCredentials reads the key files named by cfg. The tracker key is
// read only for the linear tracker.
func LoadCredentials(cfg *Config) (*Credentials, error) {
	reasoningKey, err := readKeyFile("reasoning", cfg.resolve(cfg.ReasoningKeyFile))
	if err != nil {
		return nil, err
	}

	creds := &Credentials{ReasoningKey: reasoningKey}
	if cfg.Tracker == TrackerLinear {
		creds.TrackerKey, err = readKeyFile("tracker", cfg.resolve(cfg.TrackerKeyFile))
		if err != nil {
			return nil, err
		}
	}
	return creds, nil
}

func readKeyFile(name, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: no %s key file configured", ErrMissingCredential, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s key file %s does not exist", ErrMissingCredential, name, path)
		}
		return "", fmt.Errorf("reading %s key file: %w", name, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w: %s key file %s is empty", ErrMissingCredential, name, path)
	}
	return key, nil
}
