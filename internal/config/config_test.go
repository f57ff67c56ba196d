package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}

	if cfg.Addr != ":5000" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.RunMode != "development" {
		t.Fatalf("unexpected run mode %q", cfg.RunMode)
	}
	if cfg.Paystack.BaseURL != "https://api.paystack.co" {
		t.Fatalf("unexpected paystack base %q", cfg.Paystack.BaseURL)
	}
	if cfg.Paystack.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Paystack.Timeout)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("PAYMENTS_PAYSTACK_SECRET_KEY", "sk_live_x")
	os.Setenv("PAYMENTS_RUN_MODE", "production")
	defer os.Unsetenv("PAYMENTS_PAYSTACK_SECRET_KEY")
	defer os.Unsetenv("PAYMENTS_RUN_MODE")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paystack.SecretKey != "sk_live_x" {
		t.Fatalf("env override ignored: %q", cfg.Paystack.SecretKey)
	}
	if cfg.RunMode != "production" {
		t.Fatalf("env override ignored: %q", cfg.RunMode)
	}
}

func TestCallbackURLByRunMode(t *testing.T) {
	f := &Frontend{
		ProductionURL:  "https://production.example.com",
		DevelopmentURL: "http://localhost:3000",
		ClientHomePath: "/client/home",
	}

	if got := f.CallbackURL("production"); got != "https://production.example.com/client/home" {
		t.Fatalf("unexpected production callback %q", got)
	}
	if got := f.CallbackURL("development"); got != "http://localhost:3000/client/home" {
		t.Fatalf("unexpected development callback %q", got)
	}
}
