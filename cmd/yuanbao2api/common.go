package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/credential"
	appLog "github.com/MingriLingran/yuanbao-chat/internal/log"
	"github.com/MingriLingran/yuanbao-chat/internal/useragent"
	"github.com/MingriLingran/yuanbao-chat/internal/yuanbao"
)

// configCommand builds a cobra command whose flags are parsed by the config
// package, so every subcommand shares the same flag set.
func configCommand(use, short, long string, extra func(fs *flag.FlagSet), run func(cfg config.Config, logger *slog.Logger, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		Long:               long,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rest, err := config.ParseFlags(cmd.Name(), args, extra)
			if errors.Is(err, flag.ErrHelp) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := appLog.New(cfg.LogLevel)
			return run(cfg, logger, rest)
		},
	}
}

func newAgents() *useragent.Pool {
	return useragent.New(nil, nil)
}

func newClient(cfg config.Config, agents useragent.Picker, logger *slog.Logger) *yuanbao.Client {
	return yuanbao.New(cfg.BaseURL, cfg.ChatTimeout, agents, logger)
}

// findCredential runs the cookie probe with the configured sources.
func findCredential(ctx context.Context, cfg config.Config, agents useragent.Picker, logger *slog.Logger) (string, credential.AccountInfo, error) {
	prober := credential.NewProber(cfg.UserInfoURL, cfg.ProbeTimeout, agents, logger)
	opts := credential.Options{
		CookieFile:   cfg.CookieFile,
		UserInfoFile: cfg.UserInfoFile,
		Save:         cfg.SaveUserInfo,
	}
	if cfg.Cookie != "" {
		opts.Extra = []string{cfg.Cookie}
	}
	return prober.Find(ctx, opts)
}

// requireCredential is findCredential for commands that cannot run without one.
func requireCredential(ctx context.Context, cfg config.Config, agents useragent.Picker, logger *slog.Logger) (string, error) {
	cookie, info, err := findCredential(ctx, cfg, agents, logger)
	if errors.Is(err, credential.ErrNoCredential) {
		return "", fmt.Errorf("no usable Yuanbao cookie, check %s (YUANBAO_COOKIE=...)", cfg.CookieFile)
	}
	if err != nil {
		return "", err
	}
	logger.Info("using Yuanbao cookie", "cookie", credential.Mask(cookie), "user", info.UserID)
	return cookie, nil
}
