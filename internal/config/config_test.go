package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_PROJECT_ID", "test-project")
	t.Setenv("STORAGE_BUCKET", "test-project.appspot.com")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("CLIENT_URL", "https://app.example.com")
	t.Setenv("GOOGLE_API_KEY1", "g1")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.MonthlyCostLimitCents != 300 {
		t.Fatalf("expected default cost cap of 300 cents, got %d", cfg.MonthlyCostLimitCents)
	}
	if cfg.ReportTimezone != "America/New_York" {
		t.Fatalf("expected default report timezone, got %q", cfg.ReportTimezone)
	}
}

func TestLoadConfig_GoogleKeyFailoverOrder(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_API_KEY2", "g2")
	t.Setenv("GOOGLE_API_KEY3", "g3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keys := cfg.GoogleAPIKeys()
	if len(keys) != 3 || keys[0] != "g3" || keys[1] != "g2" || keys[2] != "g1" {
		t.Fatalf("keys must be in reverse numeric order, got %v", keys)
	}
}

func TestLoadConfig_RequiresAIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_API_KEY1", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected an error without any AI backend key")
	}
}

func TestLoadConfig_RequiresStripeKeys(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected an error without the Stripe secret key")
	}
}
