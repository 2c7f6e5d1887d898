package websocket

import (
	"net/http"
	"time"

	"github.com/dennisdiepolder/workforce/internal/auth"
	"github.com/dennisdiepolder/workforce/internal/config"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// SnapshotSource provides the collection sent to a client when it connects
type SnapshotSource interface {
	All() []types.Call
}

// Handler upgrades subscription requests and registers the client with the hub
type Handler struct {
	hub      *Hub
	source   SnapshotSource
	config   *config.Config
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewHandler(hub *Hub, source SnapshotSource, cfg *config.Config, logger zerolog.Logger) *Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:    hub,
		source: source,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		logger: logger.With().Str("component", "ws_handler").Logger(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	claims, _ := auth.GetUserFromContext(r.Context())
	client := NewClient(h.hub, conn, h.config, h.logger, claims)

	// read only once registered, so no change falls between snapshot and broadcasts
	client.initial = func() ([]byte, error) {
		return EncodeSnapshot(h.source.All(), time.Now())
	}

	h.hub.register <- client
	client.Start()
}
