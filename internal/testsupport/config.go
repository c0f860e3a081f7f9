package testsupport

import (
	"path/filepath"
	"testing"

	"studyhall/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Cache.Path = filepath.Join(base, "cache", "flashcards.db")
	cfgVal.Server.DataDir = filepath.Join(base, "data")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.JWTSecret = "test-secret-0123456789abcdef"
	cfgVal.Server.AllowedOrigins = nil
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Documents.PollIntervalSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAPI points the client settings at a backend.
func WithAPI(baseURL, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = baseURL
		b.cfg.API.Token = token
	}
}

// WithLLM enables generation against baseURL.
func WithLLM(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.LLM.APIKey = apiKey
	}
}

// WithoutCache disables the local flashcard cache.
func WithoutCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = false
	}
}
