// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/firetail/internal/api"
	"github.com/tomtom215/firetail/internal/config"
	"github.com/tomtom215/firetail/internal/discord"
	"github.com/tomtom215/firetail/internal/esi"
	"github.com/tomtom215/firetail/internal/intel"
	"github.com/tomtom215/firetail/internal/killmail"
	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/store"
	"github.com/tomtom215/firetail/internal/supervisor"
	"github.com/tomtom215/firetail/internal/supervisor/services"
	ws "github.com/tomtom215/firetail/internal/websocket"
	"github.com/tomtom215/firetail/internal/zkill"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Bool("killmail_enabled", cfg.Killmail.Enabled).
		Str("queue_id", cfg.Killmail.QueueID).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting Firetail with supervisor tree")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Firetail stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(store.Options{Path: cfg.Store.Path, InMemory: cfg.Store.InMemory})
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing subscription store")
		}
	}()
	logging.Info().Msg("Subscription store opened")

	esiClient := esi.NewClient(&cfg.ESI)
	discordClient := discord.NewClient(&cfg.Discord, cfg.ESI.UserAgent)

	registry := killmail.NewRegistry(st, discordClient)
	if err := registry.Load(ctx); err != nil {
		return err
	}

	hub := ws.NewHub()

	var listener *killmail.Listener
	if cfg.Killmail.Enabled {
		feed, err := zkill.NewRedisQ(&cfg.Killmail, cfg.ESI.UserAgent, esiClient)
		if err != nil {
			return err
		}
		listener = killmail.NewListener(feed, esiClient, registry, discordClient, killmail.ListenerConfig{
			ErrorPause: cfg.Killmail.ErrorPause,
		})
		listener.SetBroadcaster(hub)
		logging.Info().Str("feed_url", feed.URL()).Msg("Killmail listener configured")
	} else {
		logging.Info().Msg("Killmail listener disabled")
	}

	zkillClient := zkill.NewClient(&cfg.ZKill, cfg.ESI.UserAgent)
	intelService := intel.NewService(zkillClient, esiClient, intel.Config{
		LossSampleSize:   cfg.ZKill.LossSampleSize,
		FetchConcurrency: cfg.ZKill.FetchConcurrency,
	})

	// A nil *Listener must not become a non-nil Counter.
	var counter api.Counter
	if listener != nil {
		counter = listener
	}
	handler := api.NewHandler(registry, counter, intelService, esiClient, cfg, hub)
	handler.SetGroupIntel(intel.NewGroupService(zkillClient, esiClient), esiClient)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// WriteTimeout stays zero: the live feed holds connections open
		IdleTimeout: 120 * time.Second,
	}

	// sutureslog needs slog; the adapter writes through zerolog
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return err
	}

	if listener != nil {
		tree.AddIngestService(listener)
	}
	if cfg.ESI.CacheCleanupInterval > 0 {
		tree.AddIngestService(esi.NewCacheJanitor(esiClient, cfg.ESI.CacheCleanupInterval))
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Debug().Err(err).Msg("Supervisor tree stopped")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			treeErr = err
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	return treeErr
}
