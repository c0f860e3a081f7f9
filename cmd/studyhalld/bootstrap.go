package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"studyhall/internal/config"
	"studyhall/internal/daemon"
	"studyhall/internal/logging"
)

const daemonLogFile = "studyhalld.log"

func newRootCommand() *cobra.Command {
	var configPath string
	var bind string

	cmd := &cobra.Command{
		Use:           "studyhalld",
		Short:         "Development backend for the studyhall client",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, bind)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}

// loadConfig resolves the configuration and applies command-line overrides.
func loadConfig(path, bind string) (*config.Config, error) {
	cfg, _, _, err := config.Load(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if bind = strings.TrimSpace(bind); bind != "" {
		cfg.Server.Bind = bind
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg, daemonLogFile, true)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(ctx, cfg, logger, daemon.WithLogPath(filepath.Join(cfg.Logging.Dir, daemonLogFile)))
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Run(ctx); err != nil {
		return err
	}
	logger.Info("studyhalld shutting down")
	return nil
}
