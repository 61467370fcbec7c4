package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
api:
  token: "tok123"
export:
  output_dir: "/tmp/workouts"
  state_dir: "/tmp/state"
metrics:
  hr_max_theoretical: 190
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that file values load and defaults fill the gaps.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Token != "tok123" {
		t.Errorf("token = %q", cfg.API.Token)
	}
	if cfg.Export.OutputDir != "/tmp/workouts" {
		t.Errorf("output dir = %q", cfg.Export.OutputDir)
	}
	if cfg.Metrics.HRMaxTheoretical != 190 {
		t.Errorf("hr max = %v, want 190 (from file)", cfg.Metrics.HRMaxTheoretical)
	}
	if cfg.Metrics.HRCeiling != 250 {
		t.Errorf("hr ceiling = %v, want default 250", cfg.Metrics.HRCeiling)
	}
	if len(cfg.Metrics.ZoneBounds) != 4 {
		t.Errorf("zone bounds = %v, want the 4 defaults", cfg.Metrics.ZoneBounds)
	}
}

// TestLoadMissingFile verifies env vars alone can configure the tool —
// a missing config file is not an error.
func TestLoadMissingFile(t *testing.T) {
	t.Setenv("ZEPP_TOKEN", "envtok")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Token != "envtok" {
		t.Errorf("token = %q, want envtok", cfg.API.Token)
	}
	if cfg.Export.OutputDir != "workouts" {
		t.Errorf("output dir = %q, want default", cfg.Export.OutputDir)
	}
}

// TestEnvOverridesFile verifies env vars beat file values.
func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("ZEPP_TOKEN", "envtok")
	t.Setenv("ZEPP_HR_MAX", "185")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Token != "envtok" {
		t.Errorf("token = %q, want env override", cfg.API.Token)
	}
	if cfg.Metrics.HRMaxTheoretical != 185 {
		t.Errorf("hr max = %v, want 185", cfg.Metrics.HRMaxTheoretical)
	}
}

// TestMissingToken verifies a config without any token fails validation.
func TestMissingToken(t *testing.T) {
	_, err := Load(writeTemp(t, "export:\n  output_dir: x\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "token") {
		t.Errorf("error should mention token: %v", err)
	}
}

// TestInvalidZoneBounds rejects unsorted or out-of-range boundaries.
func TestInvalidZoneBounds(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unsorted", "api:\n  token: t\nmetrics:\n  zone_bounds: [0.7, 0.6]\n"},
		{"out of range", "api:\n  token: t\nmetrics:\n  zone_bounds: [0.5, 1.5]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, tt.yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// TestCeilingMustExceedMax rejects a ceiling at or below the theoretical max.
func TestCeilingMustExceedMax(t *testing.T) {
	yaml := "api:\n  token: t\nmetrics:\n  hr_max_theoretical: 200\n  hr_ceiling: 195\n"
	if _, err := Load(writeTemp(t, yaml)); err == nil {
		t.Fatal("expected validation error")
	}
}

// TestBadTimezone rejects unknown timezone names.
func TestBadTimezone(t *testing.T) {
	yaml := "api:\n  token: t\nexport:\n  timezone: Mars/Olympus\n"
	if _, err := Load(writeTemp(t, yaml)); err == nil {
		t.Fatal("expected validation error")
	}
}

// TestTimezoneResolution verifies a real zone name resolves.
func TestTimezoneResolution(t *testing.T) {
	cfg, err := Load(writeTemp(t, "api:\n  token: t\nexport:\n  timezone: America/Montreal\n"))
	if err != nil {
		t.Fatal(err)
	}
	loc, err := cfg.Export.Location()
	if err != nil {
		t.Fatal(err)
	}
	if loc.String() != "America/Montreal" {
		t.Errorf("location = %v", loc)
	}
}
