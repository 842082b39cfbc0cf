// Package settings loads and stores the publisher configuration.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/quill/pkg/core"
)

// Environment variables that override the file.
const (
	EnvEndpoint = "QUILL_ENDPOINT"
	EnvUsername = "QUILL_USERNAME"
	EnvPassword = "QUILL_PASSWORD"
	EnvProxyURL = "QUILL_PROXY_URL"
)

// FileName is the settings file inside the config directory.
const FileName = "settings.yaml"

// Settings is the publisher configuration.
type Settings struct {
	Endpoint          string  `yaml:"endpoint"`
	ProxyURL          string  `yaml:"proxy_url"`
	Username          string  `yaml:"username"`
	Password          string  `yaml:"password"`
	BlogID            string  `yaml:"blog_id"`
	UseCurrentTime    bool    `yaml:"use_current_time"`
	PublishTimeOffset float64 `yaml:"publish_time_offset"` // hours
	Versioning        bool    `yaml:"versioning"`
}

// Default returns the settings used before anything is configured.
func Default() Settings {
	return Settings{
		BlogID:         "0",
		UseCurrentTime: true,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/quill/settings.yaml or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "quill", FileName), nil
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("invalid settings file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	s.applyEnv()
	s.normalize()
	return s, nil
}

// Save writes s to path, readable only by the owner since it holds the
// password.
func Save(path string, s Settings) error {
	s.normalize()
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0600)
}

// Validate reports core.ErrNotConfigured when the endpoint or credentials
// are missing.
func (s Settings) Validate() error {
	var missing []string
	if s.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if s.Username == "" {
		missing = append(missing, "username")
	}
	if s.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", core.ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// TimeOffset converts PublishTimeOffset to a duration.
func (s Settings) TimeOffset() time.Duration {
	return time.Duration(s.PublishTimeOffset * float64(time.Hour))
}

// Redacted hides the password, for display.
func (s Settings) Redacted() Settings {
	if s.Password != "" {
		s.Password = "********"
	}
	return s
}

func (s *Settings) applyEnv() {
	for env, field := range map[string]*string{
		EnvEndpoint: &s.Endpoint,
		EnvUsername: &s.Username,
		EnvPassword: &s.Password,
		EnvProxyURL: &s.ProxyURL,
	} {
		if v, ok := os.LookupEnv(env); ok {
			*field = v
		}
	}
}

func (s *Settings) normalize() {
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	s.ProxyURL = strings.TrimSpace(s.ProxyURL)
	s.Username = strings.TrimSpace(s.Username)
	s.BlogID = strings.TrimSpace(s.BlogID)
	if s.BlogID == "" {
		s.BlogID = "0"
	}
}
