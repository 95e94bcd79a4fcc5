package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{
				"openai": {APIKey: "test-key"},
				"clip":   {BaseURL: "http://localhost:8100/v1"},
			},
			Image: ExtractorConfig{Provider: "clip", Model: "clip-vit-base-patch32", Dimensions: 512},
			Text:  ExtractorConfig{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingExtractorProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Image.Provider = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing image provider")
	}
}

func TestValidate_UndefinedExtractorProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Text.Provider = "missing"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for undefined provider reference")
	}
}

func TestValidate_MissingExtractorModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Text.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing text model")
	}
}

func TestValidate_SMTPRequiresFromEmail(t *testing.T) {
	cfg := validConfig()
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.Port = 587

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for SMTP host without from_email")
	}

	cfg.SMTP.FromEmail = "noreply@example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with from_email set: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "reclaim:" {
		t.Errorf("expected KeyPrefix='reclaim:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("expected SMTP Port=587, got %d", cfg.SMTP.Port)
	}
	if cfg.FollowUp.DelayHours != 48 {
		t.Errorf("expected DelayHours=48, got %d", cfg.FollowUp.DelayHours)
	}
	if cfg.FollowUp.PollIntervalSec != 60 {
		t.Errorf("expected PollIntervalSec=60, got %d", cfg.FollowUp.PollIntervalSec)
	}
	if cfg.FollowUp.BatchSize != 100 {
		t.Errorf("expected BatchSize=100, got %d", cfg.FollowUp.BatchSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 120, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
		FollowUp: FollowUpConfig{DelayHours: 24, PollIntervalSec: 30, BatchSize: 10},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.FollowUp.DelayHours != 24 {
		t.Errorf("expected DelayHours=24, got %d", cfg.FollowUp.DelayHours)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RECLAIM_TEST_VAR", "hello")

	got := string(expandEnvVars([]byte("value: ${RECLAIM_TEST_VAR}")))
	if got != "value: hello" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	got := string(expandEnvVars([]byte("value: ${RECLAIM_UNSET_VAR:-fallback}")))
	if got != "value: fallback" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_SetOverridesDefault(t *testing.T) {
	t.Setenv("RECLAIM_TEST_VAR", "actual")

	got := string(expandEnvVars([]byte("value: ${RECLAIM_TEST_VAR:-fallback}")))
	if got != "value: actual" {
		t.Errorf("got %q", got)
	}
}
