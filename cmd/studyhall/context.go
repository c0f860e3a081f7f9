package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"studyhall/internal/config"
	"studyhall/internal/flashcache"
	"studyhall/internal/logging"
	"studyhall/internal/review"
	"studyhall/internal/studyapi"
)

const cliLogFile = "studyhall.log"

var errNoToken = errors.New("api token missing; set api.token or STUDYHALL_API_TOKEN (mint one with 'studyhall token mint')")

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// loggerValue returns the CLI logger. Output goes to the log file, and to
// stderr as well when --verbose is set.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		console := c.verbose != nil && *c.verbose
		logger, err := logging.NewFromConfig(cfg, cliLogFile, console)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logging.NewComponentLogger(logger, "cli")
	})
	return c.logger
}

func (c *commandContext) apiClient() (*studyapi.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := studyapi.New(studyapi.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.APITimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}
	if !client.HasToken() {
		return nil, errNoToken
	}
	return client, nil
}

// withCache opens the flashcard cache for the duration of fn. fn receives nil
// when the cache is disabled.
func (c *commandContext) withCache(ctx context.Context, fn func(*flashcache.Cache) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled {
		return fn(nil)
	}
	cache, err := flashcache.Open(ctx, cfg.Cache.Path, flashcache.WithLogger(c.loggerValue()))
	if err != nil {
		return fmt.Errorf("open flashcard cache: %w", err)
	}
	defer cache.Close()
	return fn(cache)
}

// withController builds a review controller for documentID over the backend
// and, when enabled, the flashcard cache. Background mutations are drained
// before the cache closes.
func (c *commandContext) withController(ctx context.Context, documentID string, fn func(*review.Controller, *studyapi.Client) error) error {
	client, err := c.apiClient()
	if err != nil {
		return err
	}
	return c.withCache(ctx, func(cache *flashcache.Cache) error {
		opts := []review.Option{review.WithLogger(c.loggerValue())}
		if cache != nil {
			opts = append(opts, review.WithCache(cache))
		}
		ctrl := review.NewController(documentID, client, opts...)
		defer ctrl.Wait()
		return fn(ctrl, client)
	})
}
