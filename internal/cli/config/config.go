package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvPath points the CLI at a specific config file.
	EnvPath    = "SHOPLIST_CONFIG"
	DefaultURL = "http://localhost:8080"

	fileMode = 0600
	dirMode  = 0700
)

// ErrNoHousehold is returned when a command needs a household and neither
// an argument nor a selected household is available.
var ErrNoHousehold = errors.New(`no household given: pass one or run "shoplist households use <id>"`)

// Config is the CLI state kept between runs.
type Config struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token,omitempty"`
	// Household is the id chosen with "households use"; lists commands
	// fall back to it.
	Household string `json:"household,omitempty"`

	path string
}

// Path resolves the config file: $SHOPLIST_CONFIG, else
// <user config dir>/shoplist/config.json ($XDG_CONFIG_HOME on Linux).
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "shoplist", "config.json"), nil
}

// Load reads the config file. A missing file is not an error.
func Load() (*Config, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	cfg := &Config{path: p}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultURL
	}
	return cfg, nil
}

// Save writes the config with owner-only permissions, tightening the mode of
// a file that already exists.
func (c *Config) Save() error {
	if c.path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		c.path = p
	}
	if err := os.MkdirAll(filepath.Dir(c.path), dirMode); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, fileMode); err != nil {
		return err
	}
	return os.Chmod(c.path, fileMode)
}

// ClearSession forgets the token and selected household. The server URL is
// kept unless it is the default, in which case the file is removed.
func (c *Config) ClearSession() error {
	c.Token = ""
	c.Household = ""
	if c.ServerURL != DefaultURL {
		return c.Save()
	}
	p := c.path
	if p == "" {
		var err error
		if p, err = Path(); err != nil {
			return err
		}
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Config) HasToken() bool {
	return c.Token != ""
}

// HouseholdOr returns id when given, else the selected household.
func (c *Config) HouseholdOr(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if c.Household != "" {
		return c.Household, nil
	}
	return "", ErrNoHousehold
}
