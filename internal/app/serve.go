package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexibridge/internal/cli"
	"lexibridge/internal/history"
	"lexibridge/internal/httpapi"
	"lexibridge/internal/supabase"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	addr := fs.String("addr", "", "Listen address (overrides LISTEN_ADDR)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = rt.cfg.ListenAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	if rt.cfg.SupabaseURL != "" {
		remote, err := supabase.NewClient(rt.cfg.SupabaseURL, rt.cfg.SupabaseAnonKey, nil)
		if err != nil {
			rt.logger.Error().Err(err).Msg("supabase client init failed")
			fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
			return 1
		}
		token := rt.cfg.SupabaseToken
		syncer, err := history.NewSyncer(rt.historyDB, remote, func() string { return token }, rt.cfg.SyncSchedule, rt.logger)
		if err != nil {
			rt.logger.Error().Err(err).Msg("history syncer init failed")
			fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
			return 1
		}
		if err := syncer.Start(ctx); err != nil {
			rt.logger.Error().Err(err).Msg("history syncer start failed")
			fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
			return 1
		}
	}

	srv := httpapi.NewServer(rt.aggregator, rt.historyDB, rt.reviews, rt.settings, rt.registry, rt.logger, httpapi.Options{
		Addr:            listenAddr,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		AllowedOrigins:  rt.cfg.CORSAllowedOriginsList(),
	})

	if err := srv.Start(ctx); err != nil {
		rt.logger.Error().Err(err).Str("addr", listenAddr).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}
	return 0
}
