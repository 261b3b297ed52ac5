// Package converter maps between OpenAI chat-completion shapes and Yuanbao chat turns.
package converter

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

// ErrNoPrompt is returned when a request carries no user text.
var ErrNoPrompt = errors.New("request has no user message")

// PromptFromOpenAI returns the text of the last user message. Yuanbao keeps the
// conversation history server-side, so earlier turns are not resent.
func PromptFromOpenAI(req openai.ChatCompletionRequest) (string, error) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		m := req.Messages[i]
		if m.Role != openai.ChatMessageRoleUser {
			continue
		}
		if text := strings.TrimSpace(messageText(m)); text != "" {
			return text, nil
		}
	}
	return "", ErrNoPrompt
}

func messageText(m openai.ChatCompletionMessage) string {
	if m.Content != "" || len(m.MultiContent) == 0 {
		return m.Content
	}
	var b strings.Builder
	for _, part := range m.MultiContent {
		if part.Type != openai.ChatMessagePartTypeText || part.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// NewCompletionID returns an OpenAI-style completion id.
func NewCompletionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ToOpenAIResponse reshapes a chat result into a non-streaming completion.
func ToOpenAIResponse(id, model string, res types.ChatResult, usage openai.Usage) openai.ChatCompletionResponse {
	msg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: res.Answer,
	}
	if res.HasReasoning() {
		msg.ReasoningContent = res.Reasoning
	}
	return openai.ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      msg,
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: usage,
	}
}

// StreamChunk builds one chat.completion.chunk.
func StreamChunk(id, model string, created int64, delta openai.ChatCompletionStreamChoiceDelta, finish openai.FinishReason) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []openai.ChatCompletionStreamChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finish,
		}},
	}
}

// Usage assembles token usage from prompt and completion counts.
func Usage(prompt, completion int) openai.Usage {
	return openai.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// EstimateTokens is the rough len/4 count used when no tokenizer is loaded.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// CreateOpenAIErrorResponse builds an OpenAI-style error object.
func CreateOpenAIErrorResponse(message, typ string) types.OpenAIErrorResponse {
	return types.OpenAIErrorResponse{Error: types.OpenAIError{Message: message, Type: typ}}
}
