// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/crossseed/internal/buildinfo"
	"github.com/autobrr/crossseed/internal/config"
	"github.com/autobrr/crossseed/internal/metrics"
	"github.com/autobrr/crossseed/internal/pkg/timeouts"
	"github.com/autobrr/crossseed/internal/services/crossseed"
	"github.com/autobrr/crossseed/internal/torrents"
	"github.com/autobrr/crossseed/pkg/redact"
)

func RunSearchCommand() *cobra.Command {
	var (
		configPath string
		configDir  string
		overrides  []string
	)

	command := &cobra.Command{
		Use:   "run",
		Short: "Search indexers for the local torrents",
		Long: `Search every enabled indexer for every torrent under torrentsPath.

In script mode a single pass runs and the report is printed. In daemon mode
passes repeat every interval and, with watch enabled, whenever torrent files
change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := config.New(config.Options{
				ConfigPath: configPath,
				ConfigDir:  configDir,
				Overrides:  overrides,
			})
			if err != nil {
				return err
			}
			cfg := appCfg.Config

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logManager := config.NewLogManager()
			logManager.Initialize()
			if err := logManager.Apply(cfg.LogLevel, cfg.LogPath, cfg.LogMaxSize, cfg.LogMaxBackups); err != nil {
				return fmt.Errorf("failed to configure logging: %w", err)
			}
			defer logManager.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := newApp(cfg)
			app.logStartup(appCfg.ConfigFileUsed())

			if app.metrics != nil {
				server := metrics.NewMetricsServer(app.metrics, cfg.MetricsHost, cfg.MetricsPort, cfg.MetricsBasicAuthUsers)
				go func() {
					if err := server.ListenAndServe(); err != nil {
						log.Error().Err(err).Msg("Metrics server stopped")
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := server.Shutdown(shutdownCtx); err != nil {
						log.Warn().Err(err).Msg("Metrics server shutdown failed")
					}
				}()
			}

			if cfg.RunMode == config.RunModeDaemon {
				return app.daemon(ctx, cmd.OutOrStdout())
			}
			return app.pass(ctx, cmd.OutOrStdout())
		},
	}

	flags := command.Flags()
	flags.StringVar(&configPath, "config", "", "config file or directory (overrides CROSS_SEED_CONFIG)")
	flags.StringVar(&configDir, "config-dir", "", "directory holding config.toml")
	flags.StringArrayVar(&overrides, "set", nil, "override a config key, e.g. --set runMode=daemon")

	return command
}

type app struct {
	cfg     *config.Config
	service *crossseed.Service
	metrics *metrics.MetricsManager
}

func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg}

	if cfg.MetricsEnabled {
		a.metrics = metrics.NewMetricsManager()
	}

	indexers := make([]*crossseed.Indexer, 0, len(cfg.Indexers))
	for _, idx := range cfg.Indexers {
		indexers = append(indexers, crossseed.NewIndexer(idx.Name, idx.URL, idx.APIKey, idx.IsEnabled()))
	}

	opts := crossseed.Options{
		Workers:               cfg.Workers,
		PerIndexerConcurrency: cfg.PerIndexerConcurrency,
		RequestTimeout:        timeouts.RequestTimeout(cfg.RequestTimeout),
		RetryAttempts:         uint(cfg.RetryAttempts),
		UserAgent:             buildinfo.UserAgent(),
		SmartQueries:          cfg.SmartQueries,
	}
	if a.metrics != nil {
		opts.Observer = a.metrics
	}

	a.service = crossseed.NewService(indexers, opts)
	return a
}

func (a *app) logStartup(configFile string) {
	log.Info().
		Str("version", buildinfo.Version).
		Str("config", configFile).
		Str("runMode", string(a.cfg.RunMode)).
		Msg("Starting crossseed")

	log.Info().Str("path", a.cfg.TorrentsPath).Msg("Torrents directory")
	for _, ix := range a.service.Indexers() {
		log.Info().
			Str("indexer", ix.Name).
			Str("url", redact.URLString(ix.URL)).
			Bool("enabled", ix.Enabled).
			Msg("Indexer")
	}

	if a.cfg.EnabledIndexers() == 0 {
		log.Warn().Msg("No enabled indexers configured")
	}
}

// pass discovers torrents, searches them and prints the report. Only a
// discovery failure is returned; search failures live in the report.
func (a *app) pass(ctx context.Context, out io.Writer) error {
	ctx, cancel := timeouts.WithRunTimeout(ctx, a.cfg.RunTimeout)
	defer cancel()

	list, readErrs, err := torrents.Load(a.cfg.TorrentsPath)
	if err != nil {
		return fmt.Errorf("failed to read torrents: %w", err)
	}
	for _, readErr := range readErrs {
		log.Warn().Err(readErr).Msg("Skipping unreadable torrent")
	}

	report := a.service.Run(ctx, list)
	return report.WriteText(out)
}

func (a *app) daemon(ctx context.Context, out io.Writer) error {
	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	if a.cfg.Watch {
		watcher, err := torrents.NewWatcher(a.cfg.TorrentsPath, torrents.DefaultWatchDelay, notify)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", a.cfg.TorrentsPath, err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Torrent watcher stopped")
			}
		}()
	}

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := a.pass(ctx, out); err != nil {
			log.Error().Err(err).Msg("Search pass failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return nil
		case <-ticker.C:
		case <-trigger:
			log.Info().Msg("Torrent directory changed, searching again")
		}
	}
}
