package handlers

import (
	"log/slog"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/models"
	"github.com/MingriLingran/yuanbao-chat/internal/session"
	"github.com/MingriLingran/yuanbao-chat/internal/tokenizer"
	"github.com/MingriLingran/yuanbao-chat/internal/yuanbao"
)

// CredentialKey is the gin context key holding the cookie for the request.
const CredentialKey = "yuanbaoCookie"

// Handler aggregates dependencies used by HTTP handlers.
type Handler struct {
	Config  config.Config
	Client  *yuanbao.Client
	Catalog models.Catalog
	Tracker *session.Tracker
	Counter *tokenizer.Counter
	Logger  *slog.Logger
	// HasCredential is set when a cookie was validated at startup.
	HasCredential bool
}

func New(cfg config.Config, client *yuanbao.Client, catalog models.Catalog, tracker *session.Tracker, counter *tokenizer.Counter, logger *slog.Logger) *Handler {
	return &Handler{
		Config:  cfg,
		Client:  client,
		Catalog: catalog,
		Tracker: tracker,
		Counter: counter,
		Logger:  logger,
	}
}
