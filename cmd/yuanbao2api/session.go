package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/models"
	"github.com/MingriLingran/yuanbao-chat/internal/yuanbao"
	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

var chatCommands = []string{"/model", "/models", "/search", "/conversation", "/reset", "/exit"}

// chatState is what the interactive front ends remember between turns.
type chatState struct {
	model          string
	search         bool
	conversationID string
}

func newChatState(cfg config.Config) *chatState {
	s := &chatState{model: cfg.Model, search: cfg.WebSearch, conversationID: cfg.ConversationID}
	if s.conversationID == "" {
		s.conversationID = uuid.NewString()
	}
	return s
}

func (s *chatState) request(cookie, message string) types.ChatRequest {
	return types.ChatRequest{
		Credential:     cookie,
		ConversationID: s.conversationID,
		Message:        message,
		Model:          s.model,
		UseWebSearch:   s.search,
	}
}

// commandResult describes the outcome of a slash command.
type commandResult struct {
	label string
	text  string
	isErr bool
	quit  bool
}

// availableModels lists the Yuanbao selectors followed by the catalog ids.
func availableModels() []string {
	out := slices.Clone(yuanbao.Selectors())
	return append(out, models.Default().IDs()...)
}

// handleCommand mutates state; ok is false for lines that are not commands.
func (s *chatState) handleCommand(line string) (commandResult, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 || !slices.Contains(chatCommands, parts[0]) {
		return commandResult{}, false
	}
	switch parts[0] {
	case "/exit":
		return commandResult{label: "Bye", text: "Bye!", quit: true}, true
	case "/reset":
		s.conversationID = uuid.NewString()
		return commandResult{label: "Reset", text: "New conversation " + s.conversationID}, true
	case "/models":
		return commandResult{label: "Models", text: strings.Join(availableModels(), ", ")}, true
	case "/model":
		if len(parts) < 2 {
			return commandResult{label: "Model", text: "Usage: /model <name>", isErr: true}, true
		}
		if !slices.Contains(availableModels(), parts[1]) {
			return commandResult{label: "Model", text: "Unknown model. Use /models to list.", isErr: true}, true
		}
		s.model = parts[1]
		return commandResult{label: "Model", text: "Set to " + s.model}, true
	case "/search":
		if len(parts) < 2 {
			return commandResult{label: "Search", text: "Usage: /search on|off", isErr: true}, true
		}
		s.search = strings.EqualFold(parts[1], "on")
		return commandResult{label: "Search", text: fmt.Sprintf("Search enabled: %v", s.search)}, true
	case "/conversation":
		if len(parts) >= 2 {
			s.conversationID = parts[1]
		}
		return commandResult{label: "Conversation", text: s.conversationID}, true
	}
	return commandResult{}, false
}
