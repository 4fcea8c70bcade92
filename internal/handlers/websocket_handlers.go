package handlers

import (
	"net/http"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/relay"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WebSocketHandlers struct {
	authService *auth.Service
	router      *relay.Router
	cfg         *config.Config
	upgrader    websocket.Upgrader
	logger      zerolog.Logger
}

func NewWebSocketHandlers(authService *auth.Service, router *relay.Router, cfg *config.Config, logger zerolog.Logger) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		router:      router,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(cfg.Relay.ClientOrigin),
		},
		logger: logger.With().Str("component", "ws-handlers").Logger(),
	}
}

// HandleWebSocket is the connection gate. The credential is verified
// before the upgrade; a missing or invalid token answers 401 with a
// distinguishable error and no session ever exists for the connection.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")

	identity, err := h.authService.Verify(tokenStr)
	if err != nil {
		h.logger.Warn().Err(err).Msg("rejecting connection")
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("upgrade failed")
		return
	}

	client := relay.NewClient(conn, h.router, h.cfg.Relay, h.logger)
	h.router.Register(client, *identity, tokenStr)

	h.logger.Info().Str("sender", identity.Sender).Str("conn_id", client.ID()).Msg("connection authenticated")

	go client.WritePump()
	go client.ReadPump()
}

func checkOrigin(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if allowed == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowed
	}
}
