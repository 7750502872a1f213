package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingEnvFileUsesDefaults(t *testing.T) {
	clearOverrides(t)
	t.Setenv("ENV_NAME", "nonexistent")
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DisplayTime != 0 {
		t.Errorf("DisplayTime = %v, want 0 (unset)", cfg.DisplayTime)
	}
	if cfg.RefreshRate != DefaultRefreshRate {
		t.Errorf("RefreshRate = %v, want %v", cfg.RefreshRate, DefaultRefreshRate)
	}
	if cfg.Sep != " " || cfg.End != "" {
		t.Errorf("Sep/End = %q/%q, want \" \"/\"\"", cfg.Sep, cfg.End)
	}
	if cfg.AdminAddr != "" {
		t.Errorf("AdminAddr = %q, want disabled", cfg.AdminAddr)
	}
	if cfg.AdminRateLimitRPS != 20 || cfg.AdminRateLimitBurst != 40 {
		t.Errorf("rate limit = %d/%d, want 20/40", cfg.AdminRateLimitRPS, cfg.AdminRateLimitBurst)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	clearOverrides(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, fullEnvYAML)
	chdir(t, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DisplayTime != 3*time.Second {
		t.Errorf("DisplayTime = %v, want 3s", cfg.DisplayTime)
	}
	if cfg.RefreshRate != 50*time.Millisecond {
		t.Errorf("RefreshRate = %v, want 50ms", cfg.RefreshRate)
	}
	if cfg.Sep != "" {
		t.Errorf("Sep = %q, want explicit empty separator", cfg.Sep)
	}
	if cfg.End != " ..." {
		t.Errorf("End = %q, want \" ...\"", cfg.End)
	}
	if cfg.MaxWidth != 60 {
		t.Errorf("MaxWidth = %d, want 60", cfg.MaxWidth)
	}
	if cfg.AdminAddr != "127.0.0.1:9090" {
		t.Errorf("AdminAddr = %q", cfg.AdminAddr)
	}
	if cfg.AdminRateLimitRPS != 5 || cfg.AdminRateLimitBurst != 10 {
		t.Errorf("rate limit = %d/%d, want 5/10", cfg.AdminRateLimitRPS, cfg.AdminRateLimitBurst)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 2s", cfg.ShutdownTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearOverrides(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, fullEnvYAML)
	chdir(t, dir)
	t.Setenv("TEMPPRINT_DISPLAY_TIME", "750ms")
	t.Setenv("TEMPPRINT_REFRESH_RATE", "continuous")
	t.Setenv("TEMPPRINT_ADMIN_ADDR", ":7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DisplayTime != 750*time.Millisecond {
		t.Errorf("DisplayTime = %v, want 750ms", cfg.DisplayTime)
	}
	if cfg.RefreshRate != -1 {
		t.Errorf("RefreshRate = %v, want continuous (-1)", cfg.RefreshRate)
	}
	if cfg.AdminAddr != ":7070" {
		t.Errorf("AdminAddr = %q, want :7070", cfg.AdminAddr)
	}
}

// TestLoad_InvalidEnvOverrideKeepsFileValue verifies that an unparsable env
// duration leaves the file value in place.
func TestLoad_InvalidEnvOverrideKeepsFileValue(t *testing.T) {
	dir := t.TempDir()
	writeEnvFile(t, dir, fullEnvYAML)
	chdir(t, dir)
	clearOverrides(t)
	t.Setenv("TEMPPRINT_DISPLAY_TIME", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DisplayTime != 3*time.Second {
		t.Errorf("DisplayTime = %v, want file value 3s", cfg.DisplayTime)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	clearOverrides(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, `
printer:
  display_time: "invalid"
shutdown:
  timeout: "-3s"
`)
	chdir(t, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DisplayTime != 0 {
		t.Errorf("DisplayTime = %v, want 0", cfg.DisplayTime)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want default 5s", cfg.ShutdownTimeout)
	}
}

// TestLoad_InvalidRefreshRate verifies that a refresh rate nothing can parse is
// rejected from the file and from the env override, matching --refresh-rate.
func TestLoad_InvalidRefreshRate(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		clearOverrides(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, "printer:\n  refresh_rate: \"sometimes\"\n")
		chdir(t, dir)

		cfg, err := Load()
		if err == nil {
			t.Fatalf("Load() expected error, got %+v", cfg)
		}
		if !strings.Contains(err.Error(), "refresh_rate") {
			t.Errorf("Load() error = %v, want message containing refresh_rate", err)
		}
	})
	t.Run("env", func(t *testing.T) {
		clearOverrides(t)
		dir := t.TempDir()
		writeEnvFile(t, dir, fullEnvYAML)
		chdir(t, dir)
		t.Setenv("TEMPPRINT_REFRESH_RATE", "often")

		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "often") {
			t.Errorf("Load() err = %v, want error naming \"often\"", err)
		}
	})
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"negative display time", "printer:\n  display_time: \"-1s\"\n", "display_time"},
		{"newline sep", "printer:\n  sep: \"\\n\"\n", "sep"},
		{"negative width", "printer:\n  max_width: -5\n", "max_width"},
		{"negative rps", "admin:\n  rate_limit_rps: -1\n", "rate_limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearOverrides(t)
			dir := t.TempDir()
			writeEnvFile(t, dir, tc.yaml)
			chdir(t, dir)

			cfg, err := Load()
			if err == nil {
				t.Fatalf("Load() expected error, got %+v", cfg)
			}
			if cfg != nil {
				t.Fatalf("Load() expected nil config on error, got %+v", cfg)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load() error = %v, want message containing %q", err, tc.want)
			}
		})
	}
}

func TestLoad_InvalidConfigYAML(t *testing.T) {
	clearOverrides(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "not: valid: yaml: [[[")
	chdir(t, dir)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid config YAML, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("Load() error = %v, want message about parse", err)
	}
}

func TestLoadFile(t *testing.T) {
	clearOverrides(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte(fullEnvYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.DisplayTime != 3*time.Second {
		t.Errorf("DisplayTime = %v, want 3s", cfg.DisplayTime)
	}

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("LoadFile(missing) err = %v, want not found", err)
	}
}

// TestLoad_ProjectDevConfig verifies that the checked-in config/dev.yaml loads.
func TestLoad_ProjectDevConfig(t *testing.T) {
	clearOverrides(t)
	t.Setenv("ENV_NAME", "dev")
	chdir(t, findProjectRoot(t))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DisplayTime <= 0 {
		t.Errorf("DisplayTime = %v, want value from config/dev.yaml", cfg.DisplayTime)
	}
}

func TestParseRefreshRate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{"", 7 * time.Millisecond, true},
		{"none", 0, true},
		{"OFF", 0, true},
		{"continuous", -1, true},
		{" instant ", -1, true},
		{"250ms", 250 * time.Millisecond, true},
		{"0s", 0, true},
		{"-5ms", -5 * time.Millisecond, true},
		{"bogus", 7 * time.Millisecond, false},
	}
	for _, tt := range tests {
		got, ok := ParseRefreshRate(tt.in, 7*time.Millisecond)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseRefreshRate(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

const fullEnvYAML = `
printer:
  display_time: "3s"
  refresh_rate: "50ms"
  sep: ""
  end: " ..."
  max_width: 60
admin:
  addr: "127.0.0.1:9090"
  rate_limit_rps: 5
  rate_limit_burst: 10
shutdown:
  timeout: "2s"
`

func clearOverrides(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TEMPPRINT_DISPLAY_TIME", "TEMPPRINT_REFRESH_RATE", "TEMPPRINT_ADMIN_ADDR", "ENV_NAME"} {
		t.Setenv(k, "")
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
}

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "dev.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

// TestCoverageGaps_IntentionallyUntested documents paths we reviewed but chose not to test.
// Run with -v to see skip reasons. These gaps do not affect coverage targets.
func TestCoverageGaps_IntentionallyUntested(t *testing.T) {
	t.Run("Load_read_config_error", func(t *testing.T) {
		t.Skip("ReadFile error path (permission denied, etc.) requires injecting failure; not worth portability cost")
	})
	t.Run("Load_getwd_error", func(t *testing.T) {
		t.Skip("os.Getwd failure needs a deleted working directory; platform-specific")
	})
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "config", "dev.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("config/dev.yaml not found (run tests from project root)")
		}
		dir = parent
	}
}
