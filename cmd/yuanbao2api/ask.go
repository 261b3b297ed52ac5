package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

const askDefaultMessage = "What can you do?"

func askCmd() *cobra.Command {
	return configCommand("ask [flags] [message...]", "Send one message and print the thinking and the answer",
		`Find a working cookie, send a single message to Yuanbao and print the merged thinking transcript followed by the answer.`,
		nil,
		func(cfg config.Config, logger *slog.Logger, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				message = askDefaultMessage
			}

			agents := newAgents()
			ctx := context.Background()
			cookie, err := requireCredential(ctx, cfg, agents, logger)
			if err != nil {
				return err
			}

			conversationID := cfg.ConversationID
			if conversationID == "" {
				conversationID = uuid.NewString()
			}

			fmt.Println("Waiting for the answer...")
			res, err := newClient(cfg, agents, logger).Chat(ctx, types.ChatRequest{
				Credential:     cookie,
				ConversationID: conversationID,
				Message:        message,
				Model:          cfg.Model,
				UseWebSearch:   cfg.WebSearch,
			})

			// the result is empty on failure and is printed all the same
			fmt.Printf("Thinking:\n%s\n\n", res.Reasoning)
			fmt.Printf("Answer:\n%s\n", res.Answer)
			if err != nil {
				return fmt.Errorf("chat in conversation %s: %w", conversationID, err)
			}
			return nil
		})
}
