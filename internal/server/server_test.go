package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/log"
	"github.com/MingriLingran/yuanbao-chat/internal/useragent"
	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

const upstreamBody = `data: {"type":"think","content":"Hm"}
data: {"type":"think","content":"."}
data: {"type":"text","msg":"The answer is "}
data: {"type":"text","msg":"4."}
data: [DONE]
`

// fakeYuanbao replies with body and records the cookie of the last request.
func fakeYuanbao(t *testing.T, status int, body string, gotCookie *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotCookie != nil {
			*gotCookie = r.Header.Get("Cookie")
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, upstream, cookie string) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.BaseURL = upstream
	cfg.ConversationID = "conv-1"
	cfg.EnableMetrics = true
	return New(cfg, Deps{Cookie: cookie, Agents: useragent.Fixed("test-agent")}, log.NewWithWriter(io.Discard, "error"))
}

func chatBody(t *testing.T, stream bool) io.Reader {
	t.Helper()
	raw, err := json.Marshal(openai.ChatCompletionRequest{
		Model:    "deepseek-r1",
		Stream:   stream,
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "2+2?"}},
	})
	require.NoError(t, err)
	return strings.NewReader(string(raw))
}

func TestListModels(t *testing.T) {
	s := newTestServer(t, "http://unused", "")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var list types.ModelList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, "list", list.Object)
	require.Len(t, list.Data, 4)
	for _, m := range list.Data {
		assert.Equal(t, "model", m.Object)
		assert.Equal(t, "yuanbao", m.OwnedBy)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "http://unused", "cookie")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var h types.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.Credential)
	assert.Zero(t, h.Conversations)
}

func TestRootListsMetrics(t *testing.T) {
	s := newTestServer(t, "http://unused", "")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), `"metrics":"/metrics"`)

	w = httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatCompletions_NoCredential(t *testing.T) {
	s := newTestServer(t, "http://unused", "")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", chatBody(t, false)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatCompletions_BadAuthorization(t *testing.T) {
	s := newTestServer(t, "http://unused", "cookie")
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", chatBody(t, false))
	req.Header.Set("Authorization", "Basic abc")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatCompletions_NoUserMessage(t *testing.T) {
	s := newTestServer(t, "http://unused", "cookie")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"deepseek-v3","messages":[{"role":"system","content":"x"}]}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatCompletions(t *testing.T) {
	var cookie string
	up := fakeYuanbao(t, http.StatusOK, upstreamBody, &cookie)
	s := newTestServer(t, up.URL, "startup-cookie")

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", chatBody(t, false))
	req.Header.Set("Authorization", "Bearer request-cookie")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "request-cookie", cookie)
	assert.Equal(t, "conv-1", w.Header().Get("X-Conversation-ID"))

	var resp openai.ChatCompletionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "The answer is 4.", resp.Choices[0].Message.Content)
	assert.Equal(t, "Hm.", resp.Choices[0].Message.ReasoningContent)
	assert.Positive(t, resp.Usage.PromptTokens)
	assert.Equal(t, 1, s.Tracker.Len())
}

func TestChatCompletions_UpstreamFailure(t *testing.T) {
	up := fakeYuanbao(t, http.StatusForbidden, "denied", nil)
	s := newTestServer(t, up.URL, "cookie")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", chatBody(t, false)))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Zero(t, s.Tracker.Len())
}

func TestChatCompletions_Stream(t *testing.T) {
	up := fakeYuanbao(t, http.StatusOK, upstreamBody, nil)
	s := newTestServer(t, up.URL, "cookie")
	ts := httptest.NewServer(s.Engine)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/chat/completions?cid=from-query", "application/json", chatBody(t, true))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "from-query", resp.Header.Get("X-Conversation-ID"))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var reasoning, content strings.Builder
	var sawDone, sawStop bool
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := strings.TrimPrefix(sc.Text(), "data: ")
		if line == "" {
			continue
		}
		if line == "[DONE]" {
			sawDone = true
			continue
		}
		var chunk openai.ChatCompletionStreamResponse
		require.NoError(t, json.Unmarshal([]byte(line), &chunk))
		require.Len(t, chunk.Choices, 1)
		reasoning.WriteString(chunk.Choices[0].Delta.ReasoningContent)
		content.WriteString(chunk.Choices[0].Delta.Content)
		if chunk.Choices[0].FinishReason == openai.FinishReasonStop {
			sawStop = true
			assert.NotNil(t, chunk.Usage)
		}
	}
	require.NoError(t, sc.Err())
	assert.True(t, sawDone)
	assert.True(t, sawStop)
	assert.Equal(t, "Hm.", reasoning.String())
	assert.Equal(t, "The answer is 4.", content.String())
}

func TestExtractBearer(t *testing.T) {
	tok, err := extractBearer("bearer  abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = extractBearer("Bearer")
	assert.Error(t, err)
	_, err = extractBearer("Bearer   ")
	assert.Error(t, err)
	_, err = extractBearer("Token abc")
	assert.Error(t, err)
}
