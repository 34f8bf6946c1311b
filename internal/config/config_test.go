package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/clinic_test")
	setEnv(t, "ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.ClinicTimezone != "Asia/Dhaka" {
		t.Errorf("ClinicTimezone = %q, want Asia/Dhaka", cfg.ClinicTimezone)
	}
	if cfg.ShiftMaxOpenHours != 24 {
		t.Errorf("ShiftMaxOpenHours = %d, want 24", cfg.ShiftMaxOpenHours)
	}
	if cfg.SecretKey == "" {
		t.Error("dev mode should fall back to a default secret key")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without DATABASE_URL")
	}
}

func TestValidateProductionSecretKey(t *testing.T) {
	cfg := &Config{
		Env:               "production",
		SessionTTLHours:   12,
		ShiftMaxOpenHours: 24,
		ClinicTimezone:    "Asia/Dhaka",
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail without SECRET_KEY in production")
	}

	cfg.SecretKey = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject short SECRET_KEY")
	}

	cfg.SecretKey = "0123456789abcdef0123456789abcdef"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateRejectsNonPositiveDurations(t *testing.T) {
	cfg := &Config{
		Env:               "development",
		SessionTTLHours:   0,
		ShiftMaxOpenHours: 24,
		ClinicTimezone:    "Asia/Dhaka",
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject SESSION_TTL_HOURS = 0")
	}

	cfg.SessionTTLHours = 12
	cfg.ShiftMaxOpenHours = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject negative SHIFT_MAX_OPEN_HOURS")
	}
}
