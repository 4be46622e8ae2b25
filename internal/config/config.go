// Package config resolves gatepass settings from defaults, an optional YAML
// file in the data directory, an optional .env file and GATEPASS_* variables.
// Environment wins over the file, the file wins over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/naveenspark/gatepass/pkg/domain"
)

// FileName is the optional YAML config inside the data directory.
const FileName = "config.yaml"

const (
	defaultAPIURL              = "https://vms.example.com/api"
	defaultRequestTimeout      = 10 * time.Second
	defaultRestoreLocationWait = 10 * time.Second
	defaultPendingPoll         = 100 * time.Millisecond
)

// Config is the resolved client configuration.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	Debug          bool          `yaml:"debug"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// RestoreLocationWait bounds how long session restore waits for a fix.
	RestoreLocationWait time.Duration `yaml:"restore_location_wait"`
	PendingPollInterval time.Duration `yaml:"pending_poll_interval"`

	// Location configures the fix source. A static fix takes precedence
	// over LocationURL; neither means permission denied.
	Location    *domain.LocationFix `yaml:"location"`
	LocationURL string              `yaml:"location_url"`

	DataDir string `yaml:"-"`
}

// Path helpers for files in the data directory.
func (c Config) LogPath() string    { return filepath.Join(c.DataDir, "gatepass.log") }
func (c Config) PrefsPath() string  { return filepath.Join(c.DataDir, "prefs.json") }
func (c Config) KeyPath() string    { return filepath.Join(c.DataDir, "credential.bin") }
func (c Config) InboxDir() string   { return filepath.Join(c.DataDir, "inbox") }
func (c Config) ConfigPath() string { return filepath.Join(c.DataDir, FileName) }

// DefaultDataDir returns ~/.gatepass, or GATEPASS_HOME when set.
func DefaultDataDir() (string, error) {
	if d := os.Getenv("GATEPASS_HOME"); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".gatepass"), nil
}

// Load resolves the configuration. envFile names a dotenv file that is read
// if it exists; existing environment variables are not overridden by it.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	dir, err := DefaultDataDir()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg := Config{
		APIURL:              defaultAPIURL,
		RequestTimeout:      defaultRequestTimeout,
		RestoreLocationWait: defaultRestoreLocationWait,
		PendingPollInterval: defaultPendingPoll,
		DataDir:             dir,
	}

	if err := cfg.loadFile(cfg.ConfigPath()); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	dir := c.DataDir
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.DataDir = dir
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GATEPASS_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("GATEPASS_DEBUG"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: GATEPASS_DEBUG: %w", err)
		}
		c.Debug = on
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"GATEPASS_REQUEST_TIMEOUT", &c.RequestTimeout},
		{"GATEPASS_RESTORE_LOCATION_WAIT", &c.RestoreLocationWait},
		{"GATEPASS_PENDING_POLL", &c.PendingPollInterval},
	} {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		dur, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", d.key, err)
		}
		*d.dst = dur
	}
	if v := os.Getenv("GATEPASS_LOCATION_URL"); v != "" {
		c.LocationURL = v
	}
	if v := os.Getenv("GATEPASS_LOCATION"); v != "" {
		fix, err := ParseFix(v)
		if err != nil {
			return fmt.Errorf("config: GATEPASS_LOCATION: %w", err)
		}
		c.Location = fix
	}
	return nil
}

// ParseFix parses "lat,lon" or "lat,lon,accuracy".
func ParseFix(s string) (*domain.LocationFix, error) {
	fields := strings.Split(s, ",")
	if len(fields) < 2 || len(fields) > 3 {
		return nil, fmt.Errorf("parse %q: want lat,lon[,accuracy]", s)
	}
	vals := make([]float64, 3)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", s, err)
		}
		vals[i] = v
	}
	return &domain.LocationFix{Latitude: vals[0], Longitude: vals[1], Accuracy: vals[2]}, nil
}
