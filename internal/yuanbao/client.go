package yuanbao

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MingriLingran/yuanbao-chat/internal/metrics"
	"github.com/MingriLingran/yuanbao-chat/internal/stream"
	"github.com/MingriLingran/yuanbao-chat/internal/useragent"
	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

// DefaultBaseURL is the chat endpoint prefix; the conversation id is appended.
const DefaultBaseURL = "https://yuanbao.tencent.com/api/chat"

// ErrUpstream wraps every transport or HTTP failure talking to Yuanbao.
var ErrUpstream = errors.New("yuanbao upstream error")

// Client wraps HTTP operations to the Yuanbao chat API.
type Client struct {
	BaseURL     string
	ChatTimeout time.Duration
	HTTPClient  *http.Client
	Agents      useragent.Picker
	Logger      *slog.Logger
}

// New creates a new client with defaults.
func New(baseURL string, chatTimeout time.Duration, agents useragent.Picker, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if agents == nil {
		agents = useragent.New(nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:     baseURL,
		ChatTimeout: chatTimeout,
		HTTPClient:  &http.Client{},
		Agents:      agents,
		Logger:      logger,
	}
}

// StreamCallback is called for every content-bearing event while the stream is read.
type StreamCallback func(evt stream.Event)

// Chat posts one prompt and returns the reassembled reasoning and answer.
// On failure the result is empty and the error wraps ErrUpstream.
func (c *Client) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResult, error) {
	return c.ChatStream(ctx, req, nil)
}

// ChatStream is Chat with a callback invoked as events arrive.
func (c *Client) ChatStream(ctx context.Context, req types.ChatRequest, callback StreamCallback) (types.ChatResult, error) {
	start := time.Now()
	defer func() { metrics.ChatDuration.Observe(time.Since(start).Seconds()) }()

	if req.Credential == "" {
		return types.ChatResult{}, errors.New("chat: missing credential")
	}
	if req.ConversationID == "" {
		return types.ChatResult{}, errors.New("chat: missing conversation id")
	}

	payload, err := json.Marshal(BuildPayload(req))
	if err != nil {
		return types.ChatResult{}, fmt.Errorf("marshal request: %w", err)
	}

	if c.ChatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ChatTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL(req.ConversationID), bytes.NewReader(payload))
	if err != nil {
		return types.ChatResult{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cookie", req.Credential)
	httpReq.Header.Set("User-Agent", c.Agents.Pick())

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		metrics.ChatRequests.WithLabelValues("transport_error").Inc()
		return types.ChatResult{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ChatRequests.WithLabelValues("http_error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return types.ChatResult{}, fmt.Errorf("%w: %s %s", ErrUpstream, resp.Status, strings.TrimSpace(string(body)))
	}
	metrics.ChatRequests.WithLabelValues("ok").Inc()

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/event-stream") {
		c.Logger.Debug("unexpected chat content type", "content_type", ct)
	}

	return c.reassemble(resp.Body, callback), nil
}

func (c *Client) reassemble(body io.Reader, callback StreamCallback) types.ChatResult {
	var r stream.Reassembler
	lines := stream.Lines(body, func(err error) {
		// a broken stream ends the answer like EOF does
		c.Logger.Warn("chat stream interrupted", "error", err)
	})
	for line := range lines {
		evt := r.Feed(line)
		metrics.StreamEvents.WithLabelValues(evt.Kind.String()).Inc()
		if callback != nil && evt.Kind != stream.KindSkip {
			callback(evt)
		}
	}
	return r.Result()
}

func (c *Client) chatURL(conversationID string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + url.PathEscape(conversationID)
}
