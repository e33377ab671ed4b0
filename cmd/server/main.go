package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wiregate/internal/app"
	"github.com/vovakirdan/wiregate/internal/config"
	applog "github.com/vovakirdan/wiregate/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
		noConsole  bool
	)

	cmd := &cobra.Command{
		Use:          "wiregate",
		Short:        "Line-protocol chat and command gateway",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := config.Load(applog.New("info", os.Stderr), configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)
			if noConsole {
				cfg.ConsoleEnabled = false
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := applog.New(cfg.LogLevel, os.Stderr)
			logger.Info().Str("path", path).Msg("config loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}

			logger.Info().
				Str("irc_addr", cfg.IRCAddr).
				Str("http_addr", cfg.HTTPAddr).
				Bool("console", cfg.ConsoleEnabled).
				Msg("starting wiregate")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited with error: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config.yaml")
	flags.StringVar(&overrides.IRCAddr, "irc-addr", "", "line protocol listen address")
	flags.StringVar(&overrides.HTTPAddr, "http-addr", "", "admin HTTP listen address")
	flags.StringVar(&overrides.DatabasePath, "db", "", "SQLite database path")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&noConsole, "no-console", false, "disable the operator console")

	cmd.AddCommand(newHashPasswordCmd())
	return cmd
}
