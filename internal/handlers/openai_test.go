package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/models"
	"github.com/MingriLingran/yuanbao-chat/internal/session"
	"github.com/MingriLingran/yuanbao-chat/internal/useragent"
	"github.com/MingriLingran/yuanbao-chat/internal/yuanbao"
	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T, upstreamBody string) *Handler {
	t.Helper()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, upstreamBody)
	}))
	t.Cleanup(up.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.ConversationID = "conv-1"
	client := yuanbao.New(up.URL, time.Minute, useragent.Fixed("test-agent"), logger)
	return New(cfg, client, models.Default(), session.NewTracker(0), nil, logger)
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
	writes int
}

func (b *brokenWriter) Header() http.Header { return b.header }
func (b *brokenWriter) WriteHeader(int)     {}
func (b *brokenWriter) Flush()              {}
func (b *brokenWriter) Write([]byte) (int, error) {
	b.writes++
	return 0, errors.New("connection reset by peer")
}

func TestStreamChat_StopsWritingWhenClientIsGone(t *testing.T) {
	h := newTestHandler(t, `data: {"type":"text","msg":"a"}`+"\n"+
		`data: {"type":"text","msg":"b"}`+"\n"+
		`data: {"type":"text","msg":"c"}`+"\n")

	w := &brokenWriter{header: http.Header{}}
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"deepseek-v3","stream":true,"messages":[{"role":"user","content":"hi"}]}`))
	c.Set(CredentialKey, "cookie")

	h.PostChatCompletions(c)

	assert.Equal(t, 1, w.writes)
}

func TestModel_FollowsConversation(t *testing.T) {
	h := newTestHandler(t, "")

	assert.Equal(t, h.Config.Model, h.model("", "new-conv"))

	h.Tracker.Save("old-conv", "deepseek-r1")
	assert.Equal(t, "deepseek-r1", h.model("", "old-conv"))
	assert.Equal(t, "hunyuan", h.model("hunyuan", "old-conv"))
	assert.Equal(t, "deep_seek_r1", h.model("deep_seek_r1", "old-conv"))
	// unknown names are passed through; the driver falls back upstream
	assert.Equal(t, "gpt-4", h.model("gpt-4", "old-conv"))
}

func TestHealth_ReportsLastActivity(t *testing.T) {
	h := newTestHandler(t, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Health(c)
	var before types.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))
	assert.Zero(t, before.Conversations)
	assert.Empty(t, before.LastActivity)

	h.Tracker.Save("conv-1", "deepseek-v3")
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	h.Health(c)
	var after types.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.Equal(t, 1, after.Conversations)
	_, err := time.Parse(time.RFC3339, after.LastActivity)
	assert.NoError(t, err)
}
