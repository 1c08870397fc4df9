// Command socialview serves view-scoped social interactions: optimistic likes
// and endorsements, threaded comments and @mentions.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GetStream/social-interaction-engine/api"
	"github.com/GetStream/social-interaction-engine/api/validator"
	"github.com/GetStream/social-interaction-engine/config"
	"github.com/GetStream/social-interaction-engine/redis"
	"github.com/GetStream/social-interaction-engine/remote"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	cmd := &cobra.Command{
		Use:          "socialview",
		Short:        "Serve view-scoped likes, endorsements, comments and mentions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cfg.RegistFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a := &api.API{
		Logger:         logger,
		Backend:        remote.New(cfg.RemoteURL, cfg.RemoteToken, cfg.RemoteTimeout),
		Val:            validator.New(),
		RecencyWindow:  cfg.RecencyWindow,
		StrictMentions: cfg.MentionStrict,
	}

	if cfg.RedisURL != "" {
		cache, err := redis.Connect(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()
		a.Cache = cache
		logger.Info("Caching in Redis", "ttl", cfg.CacheTTL)
	} else {
		logger.Info("Redis not configured, caching disabled")
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.Addr, "remote", cfg.RemoteURL)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
