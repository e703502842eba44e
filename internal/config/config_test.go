package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load with no sources failed: %v", err)
	}

	if cfg.DBPath != "capsched.db" {
		t.Errorf("DBPath = %q, want capsched.db", cfg.DBPath)
	}
	if cfg.DailyMinutes != 60 {
		t.Errorf("DailyMinutes = %d, want 60", cfg.DailyMinutes)
	}
	if len(cfg.SRS.Intervals) == 0 || cfg.SRS.Intervals[0] != 0 {
		t.Errorf("default interval ladder is malformed: %v", cfg.SRS.Intervals)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capsched.yaml")
	content := `
db_path: /tmp/test.db
daily_minutes: 90
srs:
  grace_days: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want /tmp/test.db", cfg.DBPath)
	}
	if cfg.DailyMinutes != 90 {
		t.Errorf("DailyMinutes = %d, want 90", cfg.DailyMinutes)
	}
	if cfg.SRS.GraceDays != 5 {
		t.Errorf("GraceDays = %d, want 5", cfg.SRS.GraceDays)
	}
	// Untouched sections keep their defaults.
	if cfg.Planner.BaseMinutes != 5 {
		t.Errorf("BaseMinutes = %d, want default 5", cfg.Planner.BaseMinutes)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CAPSCHED_DAILY_MINUTES", "120")
	t.Setenv("CAPSCHED_SRS__GRACE_DAYS", "7")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DailyMinutes != 120 {
		t.Errorf("DailyMinutes = %d, want 120", cfg.DailyMinutes)
	}
	if cfg.SRS.GraceDays != 7 {
		t.Errorf("GraceDays = %d, want 7", cfg.SRS.GraceDays)
	}
}

func TestLoadFlagOverrides(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("daily-minutes", 60, "")
	if err := flags.Parse([]string{"--daily-minutes", "45"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DailyMinutes != 45 {
		t.Errorf("DailyMinutes = %d, want 45", cfg.DailyMinutes)
	}
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		if err := Default().Validate(); err != nil {
			t.Errorf("default config failed validation: %v", err)
		}
	})

	t.Run("zero daily minutes rejected", func(t *testing.T) {
		cfg := Default()
		cfg.DailyMinutes = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for daily_minutes = 0")
		}
	})

	t.Run("ladder must start at zero", func(t *testing.T) {
		cfg := Default()
		cfg.SRS.Intervals = []int{1, 3, 7}
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for ladder not starting at 0")
		}
	})

	t.Run("ladder must be non-decreasing", func(t *testing.T) {
		cfg := Default()
		cfg.SRS.Intervals = []int{0, 5, 3}
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for decreasing ladder")
		}
	})
}
