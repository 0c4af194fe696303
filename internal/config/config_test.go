package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.HoldTTLCart != 10*time.Minute || cfg.HoldTTLCheckout != 15*time.Minute || cfg.HoldTTLStaffReserve != 2*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SweepInterval != 30*time.Second || cfg.SweepBatchSize != 500 || cfg.RecommendLimit != 5 {
		t.Fatalf("unexpected sweep defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
	if cfg.SessionSecret != devSessionSecret {
		t.Fatalf("development should fall back to the dev secret")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	if err := os.WriteFile(file, []byte("PORT=9000\nHOLD_TTL_CART=5m\nSESSION_SECRET=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	// godotenv writes straight to the process env; register the keys with
	// t.Setenv so they are restored after the test.
	for _, k := range []string{"HOLD_TTL_CART", "SESSION_SECRET"} {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
	t.Setenv("PORT", "9100")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SWEEP_INTERVAL", "0")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Fatalf("process env must win, got port %s", cfg.Port)
	}
	if cfg.HoldTTLCart != 5*time.Minute || cfg.SessionSecret != "from-file" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.SweepInterval != 0 {
		t.Fatalf("expected disabled sweeper, got %v", cfg.SweepInterval)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("HOLD_TTL_CHECKOUT", "-1m")
	t.Setenv("SWEEP_BATCH_SIZE", "0")

	_, err := Load(filepath.Join(t.TempDir(), "none.env"))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"SESSION_SECRET", "HOLD_TTL_CHECKOUT", "SWEEP_BATCH_SIZE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfig_AddFlags(t *testing.T) {
	cfg := Config{Port: "8080", SweepInterval: time.Minute}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.AddFlags(flagSet)

	if err := flagSet.Parse([]string{"--port", "7000", "--sweep-interval", "0s"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "7000" || cfg.SweepInterval != 0 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}
