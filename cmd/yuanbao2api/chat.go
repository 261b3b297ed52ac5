package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/reeflective/readline"
	"github.com/spf13/cobra"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/stream"
)

const (
	chatPromptColor = "\u001b[36m"
	chatGreen       = "\u001b[32m"
	chatYellow      = "\u001b[33m"
	chatMagenta     = "\u001b[35m"
	chatRed         = "\u001b[31m"
	chatGray        = "\u001b[90m"
	chatResetColor  = "\u001b[0m"
	chatCyan        = "\u001b[36m"
)

func chatCmd() *cobra.Command {
	return configCommand("chat", "Interactive chat with Yuanbao",
		`Start an interactive chat session. Thinking and answer are streamed as they arrive. Supports command highlighting and completion.`,
		nil,
		func(cfg config.Config, logger *slog.Logger, _ []string) error {
			return runChat(cfg, logger)
		})
}

func runChat(cfg config.Config, logger *slog.Logger) error {
	agents := newAgents()
	cookie, err := requireCredential(context.Background(), cfg, agents, logger)
	if err != nil {
		return err
	}
	client := newClient(cfg, agents, logger)
	state := newChatState(cfg)

	fmt.Println("Yuanbao CLI chat. Commands: " +
		colorize("/model <name>", chatMagenta) + ", " +
		colorize("/models", chatMagenta) + ", " +
		colorize("/search on|off", chatMagenta) + ", " +
		colorize("/conversation [id]", chatMagenta) + ", " +
		colorize("/reset", chatMagenta) + ", " +
		colorize("/exit", chatMagenta))

	executor := func(line string) (quit bool) {
		line = strings.TrimSpace(line)
		if line == "" {
			return false
		}
		if res, ok := state.handleCommand(line); ok {
			color := chatYellow
			if res.isErr {
				color = chatRed
			}
			printLine(res.label, res.text, color)
			return res.quit
		}

		fmt.Print("\033[1A\r\033[K") // Move up one line and clear it
		printLine("You", line, chatCyan)

		var thinkStarted, textStarted bool
		_, err := client.ChatStream(context.Background(), state.request(cookie, line), func(evt stream.Event) {
			switch evt.Kind {
			case stream.KindThink:
				if !thinkStarted {
					fmt.Printf("%s%s (think):%s ", chatGray, state.model, chatResetColor)
					thinkStarted = true
				}
				fmt.Print(chatGray + evt.Content + chatResetColor)
			case stream.KindText, stream.KindContent:
				if !textStarted {
					if thinkStarted {
						fmt.Print("\n")
					}
					fmt.Printf("%s%s:%s ", chatGreen, state.model, chatResetColor)
					textStarted = true
				}
				fmt.Print(evt.Content)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n%schat error:%s %v\n", chatRed, chatResetColor, err)
			return false
		}
		fmt.Print("\n")
		return false
	}

	// Setup readline with completions
	rl := readline.NewShell()
	rl.Prompt.Primary(func() string { return promptForModel(state.model) })

	rl.SyntaxHighlighter = func(line []rune) string {
		text := string(line)
		if !strings.HasPrefix(text, "/") {
			return text
		}
		parts := strings.Fields(text)
		if len(parts) == 0 {
			return text
		}
		cmd := parts[0]
		if slices.Contains(chatCommands, cmd) {
			highlighted := chatMagenta + cmd + chatResetColor
			if len(parts) > 1 {
				highlighted += " " + chatCyan + strings.Join(parts[1:], " ") + chatResetColor
			}
			return highlighted
		}
		highlighted := chatRed + cmd + chatResetColor
		if len(parts) > 1 {
			highlighted += " " + strings.Join(parts[1:], " ")
		}
		return highlighted
	}

	rl.Completer = func(line []rune, pos int) readline.Completions {
		text := string(line[:pos])
		if !strings.HasPrefix(text, "/") {
			return readline.Completions{}
		}
		parts := strings.Fields(text)
		if len(parts) == 0 || (len(parts) == 1 && !strings.HasSuffix(text, " ")) {
			return readline.CompleteValues(chatCommands...)
		}
		switch parts[0] {
		case "/model":
			return readline.CompleteValues(availableModels()...)
		case "/search":
			return readline.CompleteValues("on", "off")
		}
		return readline.Completions{}
	}

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		if executor(line) {
			return nil
		}
	}
}

func promptForModel(model string) string {
	return fmt.Sprintf("%s[%s]%s > ", chatPromptColor, model, chatResetColor)
}

func colorize(text, color string) string {
	return color + text + chatResetColor
}

func printLine(label, text, color string) {
	if text == "" {
		return
	}
	lines := strings.Split(text, "\n")
	indent := strings.Repeat(" ", len([]rune(label))+2)
	fmt.Printf("%s%s:%s %s\n", color, label, chatResetColor, lines[0])
	for _, l := range lines[1:] {
		fmt.Printf("%s%s\n", indent, l)
	}
}
