// Package configuration loads the fontcache configuration file and font face manifests.
package configuration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

const (
	DefaultWorkers       = 10
	DefaultQueueSize     = 100
	DefaultHTTPTimeout   = Duration(30 * time.Second)
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = Duration(200 * time.Millisecond)
)

// Config is the fontcache configuration.
//
//	cacheDir: /var/cache/fontcache
//	workers: 4
//	queueSize: 50
//	http:
//	  timeout: 10s
//	  userAgent: fontcache
//	retry:
//	  attempts: 5
//	  delay: 500ms
type Config struct {
	// CacheDir is the directory fetched resources are stored in.
	CacheDir string `json:"cacheDir,omitempty"`
	// Workers is the number of concurrent fetches.
	Workers int `json:"workers,omitempty"`
	// QueueSize bounds the number of fetches waiting for a worker.
	QueueSize int         `json:"queueSize,omitempty"`
	HTTP      HTTPConfig  `json:"http,omitempty"`
	Retry     RetryConfig `json:"retry,omitempty"`
}

type HTTPConfig struct {
	Timeout   Duration `json:"timeout,omitempty"`
	UserAgent string   `json:"userAgent,omitempty"`
}

// RetryConfig controls repetition of transient fetch failures within a single fetch.
type RetryConfig struct {
	// Attempts is the total number of tries, 1 disables retrying.
	Attempts int      `json:"attempts,omitempty"`
	Delay    Duration `json:"delay,omitempty"`
	MaxDelay Duration `json:"maxDelay,omitempty"`
}

// Duration wraps time.Duration to support human-readable duration strings (e.g. "30s").
type Duration time.Duration

func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to parse duration: %w", err)
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: must be a duration like 30s or 5m: %w", value, err)
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("duration must be a duration string or nanoseconds number, got %T", v)
	}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets all zero fields to their defaults.
func (c *Config) ApplyDefaults() {
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir()
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = DefaultRetryAttempts
	}
	if c.Retry.Delay == 0 {
		c.Retry.Delay = DefaultRetryDelay
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queueSize must not be negative, got %d", c.QueueSize))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout must not be negative, got %s", c.HTTP.Timeout))
	}
	if c.Retry.Attempts < 0 {
		errs = append(errs, fmt.Errorf("retry.attempts must not be negative, got %d", c.Retry.Attempts))
	}
	return errors.Join(errs...)
}

// DefaultCacheDir returns the fontcache directory below the user cache directory, falling
// back to the temporary directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "fontcache")
}

// Load reads the configuration file at path. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML or JSON configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
