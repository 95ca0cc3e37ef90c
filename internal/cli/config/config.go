package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/learntrack/backend/internal/session"
)

const (
	dirName    = "learntrack"
	fileName   = "config.json"
	dirPerms   = 0700
	filePerms  = 0600
	DefaultURL = "http://localhost:8080"

	// PathEnv overrides the config file location.
	PathEnv = "LEARNTRACK_CONFIG"
)

// Config holds persisted CLI state.
type Config struct {
	ServerURL string           `json:"server_url"`
	Session   *session.Session `json:"session,omitempty"`
}

// Path returns the full path to the config file.
func Path() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// Load reads the config from disk. A missing file yields the defaults.
func Load() (*Config, error) {
	p, err := Path()
	if err != nil {
		return &Config{ServerURL: DefaultURL}, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{ServerURL: DefaultURL}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultURL
	}
	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func Save(cfg *Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerms); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, filePerms)
}

// Clear removes the config file.
func Clear() error {
	p, err := Path()
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Config) Token() string {
	if c == nil || c.Session == nil {
		return ""
	}
	return c.Session.Token
}

func (c *Config) HasToken() bool {
	return c.Token() != ""
}

// Restore hands the stored session to m unless it has expired, in which
// case the stale session is dropped from c.
func (c *Config) Restore(m *session.Manager, now time.Time) {
	if c.Session == nil {
		return
	}
	if c.Session.Expired(now) {
		c.Session = nil
		return
	}
	m.Observe(c.Session)
}

// Bind keeps c and the config file in step with m. Saves happen only when
// the token changes. onErr receives save failures.
func (c *Config) Bind(m *session.Manager, onErr func(error)) func() {
	return m.Subscribe(func(s *session.Session) {
		token := ""
		if s != nil {
			token = s.Token
		}
		if token == c.Token() {
			return
		}
		c.Session = s
		if err := Save(c); err != nil && onErr != nil {
			onErr(err)
		}
	})
}
