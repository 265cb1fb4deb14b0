package config

import (
	"strings"
	"testing"
	"time"
)

var gatewayEnvKeys = []string{
	"PARLEY_ADDR",
	"GROQ_API_KEY",
	"CARTESIA_API_KEY",
	"EXA_API_KEY",
	"PARLEY_EXA_BASE_URL",
	"PARLEY_CARTESIA_ENDPOINT",
	"PARLEY_DEFAULT_MODEL",
	"PARLEY_DEFAULT_TEMPERATURE",
	"PARLEY_DEFAULT_VOICE_ID",
	"PARLEY_ASR_MODEL",
	"PARLEY_MAX_TOOL_ROUNDS",
	"PARLEY_MAX_KNOWLEDGE_RESULTS",
	"PARLEY_MAX_BODY_BYTES",
	"PARLEY_TURN_TIMEOUT",
	"PARLEY_DATABASE_URL",
	"PARLEY_CORS_ORIGINS",
	"PARLEY_READ_HEADER_TIMEOUT",
	"PARLEY_SHUTDOWN_GRACE_PERIOD",
}

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range gatewayEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("CARTESIA_API_KEY", "ck_test")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DefaultModel != "moonshotai/kimi-k2-instruct-0905" {
		t.Fatalf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.DefaultTemperature != 0.7 {
		t.Fatalf("DefaultTemperature = %v, want 0.7", cfg.DefaultTemperature)
	}
	if cfg.ASRModel != "whisper-large-v3-turbo" {
		t.Fatalf("ASRModel = %q", cfg.ASRModel)
	}
	if cfg.MaxToolRounds != 8 {
		t.Fatalf("MaxToolRounds = %d, want 8", cfg.MaxToolRounds)
	}
	if cfg.MaxKnowledgeResults != 5 {
		t.Fatalf("MaxKnowledgeResults = %d, want 5", cfg.MaxKnowledgeResults)
	}
	if cfg.MaxBodyBytes != 32<<20 {
		t.Fatalf("MaxBodyBytes = %d, want %d", cfg.MaxBodyBytes, int64(32<<20))
	}
	if cfg.TurnTimeout != 2*time.Minute {
		t.Fatalf("TurnTimeout = %v, want 2m", cfg.TurnTimeout)
	}
	if cfg.ExaBaseURL != "https://api.exa.ai" {
		t.Fatalf("ExaBaseURL = %q", cfg.ExaBaseURL)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("CORSAllowedOrigins = %v, want empty", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv_RequiresProviderKeys(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("CARTESIA_API_KEY", "ck_test")

	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Fatalf("error = %v, want missing GROQ_API_KEY", err)
	}

	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("CARTESIA_API_KEY", "")
	if _, err := LoadFromEnv(); err == nil || !strings.Contains(err.Error(), "CARTESIA_API_KEY") {
		t.Fatalf("error = %v, want missing CARTESIA_API_KEY", err)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("CARTESIA_API_KEY", "ck_test")
	t.Setenv("PARLEY_ADDR", ":9999")
	t.Setenv("PARLEY_MAX_TOOL_ROUNDS", "3")
	t.Setenv("PARLEY_TURN_TIMEOUT", "45s")
	t.Setenv("PARLEY_CORS_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.MaxToolRounds != 3 {
		t.Fatalf("MaxToolRounds = %d", cfg.MaxToolRounds)
	}
	if cfg.TurnTimeout != 45*time.Second {
		t.Fatalf("TurnTimeout = %v", cfg.TurnTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://app.example.com"]; !ok {
		t.Fatalf("CORSAllowedOrigins missing trimmed origin: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv_RejectsBadLimits(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("CARTESIA_API_KEY", "ck_test")
	t.Setenv("PARLEY_MAX_TOOL_ROUNDS", "-1")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for non-positive tool round cap")
	}
}
