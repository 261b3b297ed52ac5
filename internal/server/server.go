package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/handlers"
	"github.com/MingriLingran/yuanbao-chat/internal/metrics"
	"github.com/MingriLingran/yuanbao-chat/internal/models"
	"github.com/MingriLingran/yuanbao-chat/internal/session"
	"github.com/MingriLingran/yuanbao-chat/internal/tokenizer"
	"github.com/MingriLingran/yuanbao-chat/internal/useragent"
	"github.com/MingriLingran/yuanbao-chat/internal/yuanbao"
)

// Server wraps the Gin engine and dependencies.
type Server struct {
	Engine  *gin.Engine
	Handler *handlers.Handler
	Tracker *session.Tracker
	Client  *yuanbao.Client
}

// Deps are the collaborators built by the caller.
type Deps struct {
	// Cookie is the credential validated at startup; may be empty.
	Cookie  string
	Counter *tokenizer.Counter
	Agents  useragent.Picker
}

// New constructs a configured Gin server with routes and middleware.
func New(cfg config.Config, deps Deps, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Conversation-ID", "X-Web-Search"},
		ExposeHeaders:    []string{"X-Conversation-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	tracker := session.NewTracker(cfg.SessionMaxAge)
	client := yuanbao.New(cfg.BaseURL, cfg.ChatTimeout, deps.Agents, logger)
	handler := handlers.New(cfg, client, models.Default(), tracker, deps.Counter, logger)
	handler.HasCredential = deps.Cookie != ""

	// public routes
	r.GET("/health", handler.Health)
	r.GET("/", handler.Root)
	r.GET("/v1/models", handler.ListModels)
	if cfg.EnableMetrics {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	chat := r.Group("/v1")
	chat.Use(CredentialMiddleware(deps.Cookie))
	chat.POST("/chat/completions", handler.PostChatCompletions)

	return &Server{Engine: r, Handler: handler, Tracker: tracker, Client: client}
}

// Run starts the HTTP server.
func (s *Server) Run(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	return s.Engine.Run(addr)
}

// CredentialMiddleware picks the cookie used upstream: a Bearer value on the
// request wins, otherwise the startup cookie. Requests with neither are left
// for the handler to reject.
func CredentialMiddleware(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := fallback
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			t, err := extractBearer(authHeader)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"type": "authentication_error", "message": err.Error()}})
				return
			}
			cookie = t
		}
		c.Set(handlers.CredentialKey, cookie)
		c.Next()
	}
}

func extractBearer(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("empty token in Authorization header")
	}
	return token, nil
}
