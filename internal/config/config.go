// Package config loads the portal configuration.
//
// Sources, later ones winning:
//
//	defaults → config file named by PORTAL_CONFIG (YAML or JSON) → environment
package config

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full portal configuration.
type Config struct {
	Port           int           `json:"port" yaml:"port"`
	BackendURL     string        `json:"backend_url" yaml:"backend_url"`
	BackendTimeout time.Duration `json:"backend_timeout" yaml:"backend_timeout"`
	DBPath         string        `json:"db_path" yaml:"db_path"`
	TemplateDir    string        `json:"template_dir" yaml:"template_dir"`
	StaticDir      string        `json:"static_dir" yaml:"static_dir"`
	SessionSecret  string        `json:"session_secret" yaml:"session_secret"`
	CSRFKey        string        `json:"csrf_key" yaml:"csrf_key"`
	SecureCookies  bool          `json:"secure_cookies" yaml:"secure_cookies"`
	LogLevel       string        `json:"log_level" yaml:"log_level"`
	PurgeInterval  time.Duration `json:"purge_interval" yaml:"purge_interval"`
	Retention      time.Duration `json:"retention" yaml:"retention"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:           8080,
		BackendURL:     "http://localhost:8000",
		BackendTimeout: 10 * time.Second,
		DBPath:         "data/portal.db",
		TemplateDir:    "web/templates",
		StaticDir:      "web/static",
		LogLevel:       "info",
		PurgeInterval:  time.Hour,
		Retention:      30 * 24 * time.Hour,
	}
}

// Load builds the configuration from defaults, the optional config file and
// getenv. Pass os.Getenv in production.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("PORTAL_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes a YAML (.yaml/.yml) or JSON file over cfg.
func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("config: decoding YAML %s: %w", path, err)
		}
		return nil
	}

	// JSON has no duration type; accept the same "10s" strings as YAML.
	var raw struct {
		Config
		BackendTimeout string `json:"backend_timeout"`
		PurgeInterval  string `json:"purge_interval"`
		Retention      string `json:"retention"`
	}
	raw.Config = *cfg
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("config: decoding JSON %s: %w", path, err)
	}
	*cfg = raw.Config
	for _, d := range []struct {
		name string
		val  string
		dst  *time.Duration
	}{
		{"backend_timeout", raw.BackendTimeout, &cfg.BackendTimeout},
		{"purge_interval", raw.PurgeInterval, &cfg.PurgeInterval},
		{"retention", raw.Retention, &cfg.Retention},
	} {
		if d.val == "" {
			continue
		}
		v, err := time.ParseDuration(d.val)
		if err != nil {
			return fmt.Errorf("config: %s in %s: %w", d.name, path, err)
		}
		*d.dst = v
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := getenv("BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid BACKEND_TIMEOUT %q: %w", v, err)
		}
		cfg.BackendTimeout = d
	}
	if v := getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid SECURE_COOKIES %q: %w", v, err)
		}
		cfg.SecureCookies = b
	}

	for env, dst := range map[string]*string{
		"BACKEND_URL":    &cfg.BackendURL,
		"DB_PATH":        &cfg.DBPath,
		"TEMPLATE_DIR":   &cfg.TemplateDir,
		"STATIC_DIR":     &cfg.StaticDir,
		"SESSION_SECRET": &cfg.SessionSecret,
		"CSRF_KEY":       &cfg.CSRFKey,
		"LOG_LEVEL":      &cfg.LogLevel,
	} {
		if v := getenv(env); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: backend URL %q must be absolute", c.BackendURL)
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("config: SESSION_SECRET must be set to at least 16 characters")
	}
	if c.BackendTimeout < 0 {
		return errors.New("config: backend timeout must not be negative")
	}
	if c.PurgeInterval <= 0 || c.Retention <= 0 {
		return errors.New("config: purge interval and retention must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	return l, nil
}

// CSRFAuthKey is the 32-byte key for gorilla/csrf. Without an explicit
// CSRF_KEY it is derived from the session secret.
func (c Config) CSRFAuthKey() []byte {
	src := c.CSRFKey
	if src == "" {
		src = "csrf:" + c.SessionSecret
	}
	sum := sha256.Sum256([]byte(src))
	return sum[:]
}
