package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/credential"
	"github.com/MingriLingran/yuanbao-chat/internal/server"
	"github.com/MingriLingran/yuanbao-chat/internal/tokenizer"
)

func serveCmd() *cobra.Command {
	var withGUI bool

	return configCommand("serve", "Start the API server",
		`Start the OpenAI-compatible Yuanbao2API server. Use --gui to show a desktop window (requires -tags=gui).`,
		func(fs *flag.FlagSet) {
			fs.BoolVar(&withGUI, "gui", false, "show GUI window")
		},
		func(cfg config.Config, logger *slog.Logger, _ []string) error {
			deps, err := buildServerDeps(cfg, logger)
			if err != nil {
				return err
			}

			// If GUI requested, delegate to GUI mode
			if withGUI {
				return runWithGUI(cfg, deps, logger)
			}
			return runHeadlessServer(cfg, deps, logger)
		})
}

// buildServerDeps probes for a startup cookie and loads the tokenizer.
// A missing cookie is not fatal: clients may still send their own.
func buildServerDeps(cfg config.Config, logger *slog.Logger) (server.Deps, error) {
	agents := newAgents()
	deps := server.Deps{Agents: agents}

	cookie, info, err := findCredential(context.Background(), cfg, agents, logger)
	switch {
	case errors.Is(err, credential.ErrNoCredential):
		logger.Warn("no valid Yuanbao cookie found; requests must carry Authorization: Bearer <cookie>", "cookie_file", cfg.CookieFile)
	case err != nil:
		return deps, err
	default:
		logger.Info("using Yuanbao cookie", "cookie", credential.Mask(cookie), "user", info.UserID)
		deps.Cookie = cookie
	}

	if cfg.TokenizerDir != "" {
		counter, err := tokenizer.New(cfg.TokenizerDir, logger)
		if err != nil {
			return deps, fmt.Errorf("tokenizer: %w", err)
		}
		logger.Info("tokenizers loaded", "models", counter.Available())
		deps.Counter = counter
	}
	return deps, nil
}

// startCleanup expires tracked conversations until ctx is done.
func startCleanup(ctx context.Context, srv *server.Server, interval time.Duration, logger *slog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if cleaned := srv.Tracker.Cleanup(); cleaned > 0 {
					logger.Info("cleaned expired conversations", "count", cleaned)
				}
			}
		}
	}()
}

func runHeadlessServer(cfg config.Config, deps server.Deps, logger *slog.Logger) error {
	srv := server.New(cfg, deps, logger)
	startCleanup(context.Background(), srv, cfg.CleanupInterval, logger)

	// graceful shutdown notifier
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		s := <-sigCh
		logger.Info("received signal, exiting", "signal", s.String())
		os.Exit(0)
	}()

	logger.Info("starting Yuanbao2API server", "host", cfg.Host, "port", cfg.Port, "metrics", cfg.EnableMetrics)
	if err := srv.Run(cfg.Host, cfg.Port); err != nil {
		logger.Error("server exited with error", "error", err)
		return err
	}
	return nil
}
