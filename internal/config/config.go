package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds printer and control API configuration loaded from YAML and env.
type Config struct {
	DisplayTime time.Duration // 0 = unset, every temporary print must carry its own
	RefreshRate time.Duration // 0 = no stop checks, < 0 = continuous
	Sep         string
	End         string
	MaxWidth    int // 0 = terminal width when attached to one

	AdminAddr           string // empty disables the control API
	AdminRateLimitRPS   int
	AdminRateLimitBurst int

	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Printer struct {
		DisplayTime string  `yaml:"display_time"`
		RefreshRate string  `yaml:"refresh_rate"`
		Sep         *string `yaml:"sep"`
		End         *string `yaml:"end"`
		MaxWidth    int     `yaml:"max_width"`
	} `yaml:"printer"`

	Admin struct {
		Addr           string `yaml:"addr"`
		RateLimitRPS   int    `yaml:"rate_limit_rps"`
		RateLimitBurst int    `yaml:"rate_limit_burst"`
	} `yaml:"admin"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

// DefaultRefreshRate is how often waits look for a skip unless configured otherwise.
const DefaultRefreshRate = 100 * time.Millisecond

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) relative to
// the working directory. A missing file yields defaults. Env overrides:
// TEMPPRINT_DISPLAY_TIME, TEMPPRINT_REFRESH_RATE, TEMPPRINT_ADMIN_ADDR.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		data = nil
	}
	return build(data)
}

// LoadFile reads configuration from an explicit path. Unlike Load, the file must exist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return build(data)
}

func build(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{
		Sep: " ",
	}
	cfg.DisplayTime = parseDurationOrZero(fc.Printer.DisplayTime, 0)
	if v := strings.TrimSpace(os.Getenv("TEMPPRINT_DISPLAY_TIME")); v != "" {
		cfg.DisplayTime = parseDurationOrZero(v, cfg.DisplayTime)
	}

	rr := fc.Printer.RefreshRate
	if v := strings.TrimSpace(os.Getenv("TEMPPRINT_REFRESH_RATE")); v != "" {
		rr = v
	}
	var ok bool
	cfg.RefreshRate, ok = ParseRefreshRate(rr, DefaultRefreshRate)
	if !ok {
		return nil, fmt.Errorf("printer.refresh_rate must be a duration, \"none\" or \"continuous\", got %q", rr)
	}

	if fc.Printer.Sep != nil {
		cfg.Sep = *fc.Printer.Sep
	}
	if fc.Printer.End != nil {
		cfg.End = *fc.Printer.End
	}
	cfg.MaxWidth = fc.Printer.MaxWidth

	cfg.AdminAddr = strings.TrimSpace(os.Getenv("TEMPPRINT_ADMIN_ADDR"))
	if cfg.AdminAddr == "" {
		cfg.AdminAddr = strings.TrimSpace(fc.Admin.Addr)
	}
	cfg.AdminRateLimitRPS = fc.Admin.RateLimitRPS
	if cfg.AdminRateLimitRPS == 0 {
		cfg.AdminRateLimitRPS = 20
	}
	cfg.AdminRateLimitBurst = fc.Admin.RateLimitBurst
	if cfg.AdminRateLimitBurst == 0 {
		cfg.AdminRateLimitBurst = 40
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 5*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseRefreshRate accepts a Go duration, "none" (0, no stop checks) or
// "continuous" (-1, immediate). Empty input returns defaultVal. The bool
// reports whether s was understood; on failure defaultVal is returned.
func ParseRefreshRate(s string, defaultVal time.Duration) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return defaultVal, true
	case "none", "off":
		return 0, true
	case "continuous", "instant":
		return -1, true
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal, false
	}
	return d, true
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	if cfg.DisplayTime < 0 {
		return fmt.Errorf("printer.display_time can't be negative, got %s", cfg.DisplayTime)
	}
	if strings.ContainsAny(cfg.Sep+cfg.End, "\n\r") {
		return fmt.Errorf("printer.sep and printer.end can't contain newline or carriage return")
	}
	if cfg.MaxWidth < 0 {
		return fmt.Errorf("printer.max_width can't be negative, got %d", cfg.MaxWidth)
	}
	if cfg.AdminRateLimitRPS < 0 || cfg.AdminRateLimitBurst < 0 {
		return fmt.Errorf("admin.rate_limit_rps and admin.rate_limit_burst can't be negative")
	}
	return nil
}
