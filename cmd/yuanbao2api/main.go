package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "yuanbao2api",
		Short:   "Yuanbao2API - client and OpenAI-compatible bridge for Tencent Yuanbao",
		Long:    `Finds a working Yuanbao cookie, chats with Yuanbao and serves an OpenAI-compatible API in front of it.`,
		Version: version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(probeCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(tokensCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
