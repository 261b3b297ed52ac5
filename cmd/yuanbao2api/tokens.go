package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/tokenizer"
)

func tokensCmd() *cobra.Command {
	return configCommand("tokens [flags] [text...]", "Count tokens with the local tokenizers",
		`Count the tokens of text (arguments, or stdin when none) for --model using the tokenizers under --tokenizer-dir. Unsupported models count as 0.`,
		nil,
		func(cfg config.Config, logger *slog.Logger, args []string) error {
			if cfg.TokenizerDir == "" {
				return errors.New("--tokenizer-dir (or TOKENIZER_DIR) is required")
			}
			counter, err := tokenizer.New(cfg.TokenizerDir, logger)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(raw)
			}

			fmt.Printf("%s: %d\n", cfg.Model, counter.Count(cfg.Model, text))
			return nil
		})
}
