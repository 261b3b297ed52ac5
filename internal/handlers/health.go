package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

// Version is reported by /health and /.
var Version = "1.0.0-go"

func (h *Handler) Health(c *gin.Context) {
	resp := types.HealthResponse{
		Status:     "ok",
		Service:    "yuanbao2api",
		Version:    Version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Credential: h.HasCredential,
	}
	stats := h.Tracker.Stats()
	resp.Conversations = len(stats)
	if len(stats) > 0 {
		resp.LastActivity = stats[0].LastActivity.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Root(c *gin.Context) {
	endpoints := gin.H{
		"health":           "/health",
		"models":           "/v1/models",
		"chat_completions": "/v1/chat/completions",
	}
	if h.Config.EnableMetrics {
		endpoints["metrics"] = "/metrics"
	}
	c.JSON(http.StatusOK, gin.H{
		"name":        "Yuanbao2API",
		"description": "OpenAI compatible API in front of Tencent Yuanbao web chat",
		"version":     Version,
		"endpoints":   endpoints,
	})
}

// ListModels handles GET /v1/models.
func (h *Handler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.List())
}
