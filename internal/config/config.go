package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the study backend.
type API struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Cache contains configuration for the local flashcard cache.
type Cache struct {
	Enabled bool   `toml:"enabled"` // Default: true
	Path    string `toml:"path"`    // Default: ~/.cache/studyhall/flashcards.db
}

// Review contains configuration for flashcard review sessions.
type Review struct {
	GenerateCount int `toml:"generate_count"`
}

// Documents contains configuration for document status tracking.
type Documents struct {
	PollIntervalSeconds int  `toml:"poll_interval_seconds"`
	MaxPolls            int  `toml:"max_polls"`
	Push                bool `toml:"push"`
}

// Server contains configuration for the development backend.
type Server struct {
	Bind                  string   `toml:"bind"`
	DataDir               string   `toml:"data_dir"`
	JWTSecret             string   `toml:"jwt_secret"`
	TokenTTLHours         int      `toml:"token_ttl_hours"`
	AllowedOrigins        []string `toml:"allowed_origins"`
	GenerateRatePerMinute int      `toml:"generate_rate_per_minute"`
	MaxUploadMiB          int      `toml:"max_upload_mib"`
}

// LLM contains connection settings for the OpenAI-compatible endpoint used to
// generate flashcards, summaries, and chat answers.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for studyhall.
//
// Configuration sections by subsystem:
//   - API: backend URL, bearer token, request timeout
//   - Cache: local flashcard cache location
//   - Review: review session defaults
//   - Documents: processing status polling and push
//   - Server: development backend bind address, storage, auth
//   - LLM: generation endpoint used by the backend
//   - Logging: log format, level, and retention
type Config struct {
	API       API       `toml:"api"`
	Cache     Cache     `toml:"cache"`
	Review    Review    `toml:"review"`
	Documents Documents `toml:"documents"`
	Server    Server    `toml:"server"`
	LLM       LLM       `toml:"llm"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/studyhall/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads .env files beside the config file and in the working
// directory. Variables already present in the environment win.
func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}
	seen := map[string]struct{}{}
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("studyhall.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the client cache and the
// development backend write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Server.DataDir, c.Logging.Dir}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.Cache.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// APITimeout returns the HTTP timeout applied to backend requests.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// PollInterval returns the document status polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Documents.PollIntervalSeconds) * time.Second
}

// LLMTimeout returns the timeout applied to generation requests.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of tokens minted for the development backend.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Server.TokenTTLHours) * time.Hour
}

// DatabasePath returns the SQLite file backing the development backend.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Server.DataDir, "studyhall.db")
}

// LockPath returns the lock file guarding a single backend instance.
func (c *Config) LockPath() string {
	return filepath.Join(c.Server.DataDir, "studyhalld.lock")
}

// LLMEnabled reports whether generation endpoints can reach a model.
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "studyhall", "flashcards.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/studyhall/flashcards.db"
	}
	return filepath.Join(home, ".cache", "studyhall", "flashcards.db")
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
