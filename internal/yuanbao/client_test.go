package yuanbao

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MingriLingran/yuanbao-chat/internal/stream"
	"github.com/MingriLingran/yuanbao-chat/internal/useragent"
	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

func newTestClient(baseURL string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(baseURL, 5*time.Second, useragent.Fixed("test-agent"), logger)
}

func TestResolveModelID(t *testing.T) {
	tests := map[string]string{
		"deep_seek_v3": "deep_seek_v3",
		"deep_seek_r1": "deep_seek",
		"hunyuan":      "hunyuan_gpt_175B_0404",
		"hunyuan_t1":   "hunyuan_t1",
		"deepseek-r1":  "deep_seek",
		"hunyuan-t1":   "hunyuan_t1",
		"v3":           DefaultModelID,
		"r1":           DefaultModelID,
		"":             DefaultModelID,
		"gpt-4o":       DefaultModelID,
	}
	for selector, want := range tests {
		assert.Equal(t, want, ResolveModelID(selector), selector)
	}
}

func TestBuildPayload(t *testing.T) {
	raw, err := json.Marshal(BuildPayload(types.ChatRequest{Message: "你好", Model: "deep_seek_r1"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "gpt_175B_0404",
		"prompt": "你好",
		"plugin": "Adaptive",
		"displayPrompt": "你好",
		"displayPromptType": 1,
		"options": {"imageIntention": {"needIntentionModel": true, "backendUpdateFlag": 2, "intentionStatus": true}},
		"multimedia": [],
		"agentId": "naQivTmsDa",
		"supportHint": 1,
		"version": "v2",
		"chatModelId": "deep_seek",
		"supportFunctions": []
	}`, string(raw))

	withSearch := BuildPayload(types.ChatRequest{Message: "x", UseWebSearch: true})
	assert.Equal(t, []string{"supportInternetSearch"}, withSearch.SupportFunctions)
	assert.Equal(t, DefaultModelID, withSearch.ChatModelID)
}

func TestClient_Chat(t *testing.T) {
	var gotPath, gotCookie, gotAgent string
	var gotPayload types.ChatPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCookie = r.Header.Get("Cookie")
		gotAgent = r.Header.Get("User-Agent")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, strings.Join([]string{
			"data: status",
			`data: {"type":"think","content":"Hm"}`,
			"",
			`data: {"type":"think","content":"."}`,
			"data: text",
			`data: {"type":"text","msg":"The answer "}`,
			`data: {"type":"text","msg":"is 4."}`,
			`data: ["EOF"]`,
		}, "\n"))
	}))
	defer srv.Close()

	var events []stream.Event
	res, err := newTestClient(srv.URL+"/api/chat").ChatStream(context.Background(), types.ChatRequest{
		Credential:     "hy_user=1",
		ConversationID: "conv-1",
		Message:        "2+2?",
		Model:          "hunyuan_t1",
		UseWebSearch:   true,
	}, func(evt stream.Event) { events = append(events, evt) })
	require.NoError(t, err)

	assert.Equal(t, types.ChatResult{Reasoning: "Hm.", Answer: "The answer is 4."}, res)
	assert.Equal(t, "/api/chat/conv-1", gotPath)
	assert.Equal(t, "hy_user=1", gotCookie)
	assert.Equal(t, "test-agent", gotAgent)
	assert.Equal(t, "2+2?", gotPayload.Prompt)
	assert.Equal(t, "2+2?", gotPayload.DisplayPrompt)
	assert.Equal(t, "hunyuan_t1", gotPayload.ChatModelID)
	assert.Equal(t, []string{"supportInternetSearch"}, gotPayload.SupportFunctions)
	require.Len(t, events, 4)
	assert.Equal(t, stream.KindThink, events[0].Kind)
	assert.Equal(t, stream.KindText, events[3].Kind)
}

func TestClient_ChatHTTPErrorReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "login required", http.StatusUnauthorized)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Chat(context.Background(), types.ChatRequest{Credential: "c", ConversationID: "x", Message: "hi"})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "login required")
	assert.Equal(t, types.ChatResult{}, res)
}

func TestClient_ChatTransportErrorReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	res, err := newTestClient(base).Chat(context.Background(), types.ChatRequest{Credential: "c", ConversationID: "x", Message: "hi"})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, types.ChatResult{}, res)
}

func TestClient_ChatEmptyStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Chat(context.Background(), types.ChatRequest{Credential: "c", ConversationID: "x"})
	require.NoError(t, err)
	assert.Equal(t, types.ChatResult{Reasoning: "null", Answer: ""}, res)
}

func TestClient_ChatValidatesRequest(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")
	_, err := c.Chat(context.Background(), types.ChatRequest{ConversationID: "x"})
	assert.Error(t, err)
	_, err = c.Chat(context.Background(), types.ChatRequest{Credential: "c"})
	assert.Error(t, err)
}

func TestClient_ChatURLEscapesConversation(t *testing.T) {
	c := newTestClient("https://example.test/api/chat/")
	assert.Equal(t, "https://example.test/api/chat/a%2Fb", c.chatURL("a/b"))
}
