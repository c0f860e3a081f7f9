package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable by the client.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateReview(); err != nil {
		return err
	}
	if err := c.validateDocuments(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateLLM()
}

// ValidateServer applies the additional checks the development backend needs
// before it can issue and verify tokens.
func (c *Config) ValidateServer() error {
	if c.Server.JWTSecret == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/studyhall/config.toml"
		}
		return fmt.Errorf("server.jwt_secret is required. Set STUDYHALL_JWT_SECRET env var or edit %s (create with 'studyhall config init')", defaultPath)
	}
	if len(c.Server.JWTSecret) < 16 {
		return errors.New("server.jwt_secret must be at least 16 characters")
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.TokenTTLHours < 0 {
		return errors.New("server.token_ttl_hours must be positive")
	}
	if c.Server.GenerateRatePerMinute < 0 {
		return errors.New("server.generate_rate_per_minute must be zero (unlimited) or positive")
	}
	if c.Server.MaxUploadMiB < 0 {
		return errors.New("server.max_upload_mib must be positive")
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if _, err := parseHTTPURL(origin); err != nil {
			return fmt.Errorf("server.allowed_origins: %w", err)
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, err := parseHTTPURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.API.TimeoutSeconds < 0 {
		return errors.New("api.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateReview() error {
	if c.Review.GenerateCount < minGenerateCount || c.Review.GenerateCount > maxGenerateCount {
		return fmt.Errorf("review.generate_count must be between %d and %d", minGenerateCount, maxGenerateCount)
	}
	return nil
}

func (c *Config) validateDocuments() error {
	if c.Documents.PollIntervalSeconds <= 0 {
		return errors.New("documents.poll_interval_seconds must be positive")
	}
	if c.Documents.MaxPolls < 0 {
		return errors.New("documents.max_polls must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero (disabled) or positive")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if _, err := parseHTTPURL(c.LLM.BaseURL); err != nil {
		return fmt.Errorf("llm.base_url: %w", err)
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%q must use http or https", raw)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%q has no host", raw)
	}
	return parsed, nil
}
