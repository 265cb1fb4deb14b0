package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Provider credentials. Groq and Cartesia are required to serve turns;
	// Exa is only needed when an agent has a knowledge source.
	GroqAPIKey     string
	CartesiaAPIKey string
	ExaAPIKey      string

	// Optional overrides for provider endpoints, mostly for tests.
	ExaBaseURL       string
	CartesiaEndpoint string

	// Default model settings applied when the agent profile leaves them blank.
	DefaultModel       string
	DefaultTemperature float64
	DefaultVoiceID     string
	ASRModel           string

	// Turn-pipeline limits.
	MaxToolRounds       int
	MaxKnowledgeResults int
	MaxBodyBytes        int64
	TurnTimeout         time.Duration

	// Postgres. Empty disables persistence; the converse endpoint still works.
	DatabaseURL string

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("PARLEY_ADDR", ":8080"),
		GroqAPIKey:          strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		CartesiaAPIKey:      strings.TrimSpace(os.Getenv("CARTESIA_API_KEY")),
		ExaAPIKey:           strings.TrimSpace(os.Getenv("EXA_API_KEY")),
		ExaBaseURL:          envOr("PARLEY_EXA_BASE_URL", "https://api.exa.ai"),
		CartesiaEndpoint:    strings.TrimSpace(os.Getenv("PARLEY_CARTESIA_ENDPOINT")),
		DefaultModel:        envOr("PARLEY_DEFAULT_MODEL", "moonshotai/kimi-k2-instruct-0905"),
		DefaultTemperature:  envFloat64Or("PARLEY_DEFAULT_TEMPERATURE", 0.7),
		DefaultVoiceID:      envOr("PARLEY_DEFAULT_VOICE_ID", "9626c31c-bec5-4cca-baa8-f8ba9e84c8bc"),
		ASRModel:            envOr("PARLEY_ASR_MODEL", "whisper-large-v3-turbo"),
		MaxToolRounds:       envIntOr("PARLEY_MAX_TOOL_ROUNDS", 8),
		MaxKnowledgeResults: envIntOr("PARLEY_MAX_KNOWLEDGE_RESULTS", 5),
		MaxBodyBytes:        envInt64Or("PARLEY_MAX_BODY_BYTES", 32<<20), // audio uploads
		TurnTimeout:         envDurationOr("PARLEY_TURN_TIMEOUT", 2*time.Minute),
		DatabaseURL:         strings.TrimSpace(os.Getenv("PARLEY_DATABASE_URL")),
		CORSAllowedOrigins:  make(map[string]struct{}),
		ReadHeaderTimeout:   envDurationOr("PARLEY_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("PARLEY_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("PARLEY_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.GroqAPIKey == "" {
		return Config{}, fmt.Errorf("GROQ_API_KEY must be set")
	}
	if cfg.CartesiaAPIKey == "" {
		return Config{}, fmt.Errorf("CARTESIA_API_KEY must be set")
	}
	if cfg.DefaultTemperature < 0 || cfg.DefaultTemperature > 2 {
		return Config{}, fmt.Errorf("PARLEY_DEFAULT_TEMPERATURE must be in [0, 2]")
	}
	if cfg.MaxToolRounds <= 0 {
		return Config{}, fmt.Errorf("PARLEY_MAX_TOOL_ROUNDS must be > 0")
	}
	if cfg.MaxKnowledgeResults <= 0 {
		return Config{}, fmt.Errorf("PARLEY_MAX_KNOWLEDGE_RESULTS must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("PARLEY_MAX_BODY_BYTES must be > 0")
	}
	if cfg.TurnTimeout <= 0 {
		return Config{}, fmt.Errorf("PARLEY_TURN_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("PARLEY_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("PARLEY_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
