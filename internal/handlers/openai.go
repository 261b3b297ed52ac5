package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/MingriLingran/yuanbao-chat/internal/converter"
	"github.com/MingriLingran/yuanbao-chat/internal/stream"
	"github.com/MingriLingran/yuanbao-chat/internal/yuanbao"
	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

// PostChatCompletions handles /v1/chat/completions (OpenAI-compatible)
func (h *Handler) PostChatCompletions(c *gin.Context) {
	cookie := c.GetString(CredentialKey)
	if cookie == "" {
		c.JSON(http.StatusUnauthorized, converter.CreateOpenAIErrorResponse("no Yuanbao cookie available", "authentication_error"))
		return
	}

	var req openai.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, converter.CreateOpenAIErrorResponse(err.Error(), "invalid_request_error"))
		return
	}

	prompt, err := converter.PromptFromOpenAI(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, converter.CreateOpenAIErrorResponse(err.Error(), "invalid_request_error"))
		return
	}

	conversationID := h.conversationID(c)
	model := h.model(req.Model, conversationID)
	chatReq := types.ChatRequest{
		Credential:     cookie,
		ConversationID: conversationID,
		Message:        prompt,
		Model:          model,
		UseWebSearch:   h.webSearch(c),
	}
	c.Header("X-Conversation-ID", conversationID)

	if req.Stream {
		h.streamChat(c, chatReq)
		return
	}

	res, err := h.Client.Chat(c.Request.Context(), chatReq)
	if err != nil {
		h.Logger.Error("yuanbao chat failed", "conversation", conversationID, "error", err)
		c.JSON(upstreamStatus(err), converter.CreateOpenAIErrorResponse(err.Error(), "api_error"))
		return
	}
	h.Tracker.Save(conversationID, model)

	c.JSON(http.StatusOK, converter.ToOpenAIResponse(converter.NewCompletionID(), model, res, h.usage(model, prompt, res)))
}

// streamChat relays reassembled events as chat.completion.chunk frames.
// Headers are only committed once the upstream stream is open, so upstream
// failures can still be reported with a proper status.
func (h *Handler) streamChat(c *gin.Context, chatReq types.ChatRequest) {
	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	id := converter.NewCompletionID()
	created := time.Now().Unix()
	started := false
	// gone is set once a write fails; the client has left and nothing more is sent.
	gone := false

	write := func(frame []byte) {
		if gone {
			return
		}
		if _, err := w.Write(frame); err != nil {
			gone = true
			h.Logger.Warn("stream client went away", "conversation", chatReq.ConversationID, "error", err)
			return
		}
		flusher.Flush()
	}
	send := func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			h.Logger.Error("encoding stream chunk", "error", err)
			return
		}
		frame := make([]byte, 0, len(data)+8)
		frame = append(frame, "data: "...)
		frame = append(frame, data...)
		frame = append(frame, "\n\n"...)
		write(frame)
	}
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		send(converter.StreamChunk(id, chatReq.Model, created, openai.ChatCompletionStreamChoiceDelta{Role: openai.ChatMessageRoleAssistant}, ""))
	}

	res, err := h.Client.ChatStream(c.Request.Context(), chatReq, func(evt stream.Event) {
		if evt.Content == "" || gone {
			return
		}
		start()
		var delta openai.ChatCompletionStreamChoiceDelta
		if evt.Kind == stream.KindThink {
			delta.ReasoningContent = evt.Content
		} else {
			delta.Content = evt.Content
		}
		send(converter.StreamChunk(id, chatReq.Model, created, delta, ""))
	})
	if err != nil {
		h.Logger.Error("yuanbao chat failed", "conversation", chatReq.ConversationID, "error", err)
		c.JSON(upstreamStatus(err), converter.CreateOpenAIErrorResponse(err.Error(), "api_error"))
		return
	}
	h.Tracker.Save(chatReq.ConversationID, chatReq.Model)

	start()
	final := converter.StreamChunk(id, chatReq.Model, created, openai.ChatCompletionStreamChoiceDelta{}, openai.FinishReasonStop)
	usage := h.usage(chatReq.Model, chatReq.Message, res)
	final.Usage = &usage
	send(final)
	write([]byte("data: [DONE]\n\n"))
}

func (h *Handler) conversationID(c *gin.Context) string {
	if cid := c.Query("cid"); cid != "" {
		return cid
	}
	if cid := c.GetHeader("X-Conversation-ID"); cid != "" {
		return cid
	}
	if h.Config.ConversationID != "" {
		return h.Config.ConversationID
	}
	return uuid.NewString()
}

// model picks the requested model, else the one the conversation last used,
// else the configured default. Unknown names still go upstream and fall back
// to the default Yuanbao model there.
func (h *Handler) model(requested, conversationID string) string {
	if requested == "" {
		if conv, ok := h.Tracker.Get(conversationID); ok {
			return conv.Model
		}
		return h.Config.Model
	}
	if !h.Catalog.Has(requested) && !slices.Contains(yuanbao.Selectors(), requested) {
		h.Logger.Warn("unknown model, Yuanbao will use its default", "model", requested, "default", yuanbao.DefaultModelID)
	}
	return requested
}

func (h *Handler) webSearch(c *gin.Context) bool {
	if v := c.GetHeader("X-Web-Search"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			return on
		}
	}
	return h.Config.WebSearch
}

func (h *Handler) usage(model, prompt string, res types.ChatResult) openai.Usage {
	completion := res.Answer
	if res.HasReasoning() {
		completion = res.Reasoning + completion
	}
	if h.Counter == nil {
		return converter.Usage(converter.EstimateTokens(prompt), converter.EstimateTokens(completion))
	}
	return converter.Usage(h.Counter.Count(model, prompt), h.Counter.Count(model, completion))
}

func upstreamStatus(err error) int {
	if errors.Is(err, yuanbao.ErrUpstream) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
