//go:build !gui

package main

import (
	"fmt"
	"log/slog"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/server"
)

func runWithGUI(config.Config, server.Deps, *slog.Logger) error {
	return fmt.Errorf("GUI support not compiled in. Rebuild with -tags=gui")
}
