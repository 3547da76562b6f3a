package websocket

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/config"
	"github.com/princekumarofficial/familybook/internal/events"
	"github.com/princekumarofficial/familybook/internal/http/handlers"
	"github.com/princekumarofficial/familybook/internal/playback"
	"github.com/princekumarofficial/familybook/internal/services/access"
	"github.com/princekumarofficial/familybook/internal/types"
	wsClient "github.com/princekumarofficial/familybook/internal/websocket"
)

type WebSocketHandlers struct {
	hub       *wsClient.Hub
	upgrader  *websocket.Upgrader
	access    *access.Service
	stories   playback.StoryStore
	publisher events.Publisher
	playback  config.Playback
	logger    *zap.Logger
}

func NewWebSocketHandlers(hub *wsClient.Hub, allowedOrigins []string, acc *access.Service, stories playback.StoryStore, publisher events.Publisher, pb config.Playback, logger *zap.Logger) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:       hub,
		upgrader:  wsClient.NewUpgrader(allowedOrigins),
		access:    acc,
		stories:   stories,
		publisher: publisher,
		playback:  pb,
		logger:    logger,
	}
}

// Events streams account events to the caller. Authentication runs in the
// middleware, which accepts ?token= for browser handshakes.
// @Summary Account events stream
// @Tags realtime
// @Param token query string true "JWT"
// @Router /ws [get]
func (h *WebSocketHandlers) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error("failed to upgrade websocket connection", zap.Error(err))
			return
		}

		client := wsClient.NewClient(conn, session.UserID, h.logger)
		h.hub.RegisterClient(client)
		client.Start(nil, func() { h.hub.UnregisterClient(client) })

		h.logger.Info("websocket connection established", zap.String("user_id", session.UserID))
	}
}

// LiveStories runs the stories viewer of an account over a websocket. The
// server drives autoplay and pushes a frame after every change; the client
// sends {"action": "next"|"prev"|"delete"|"refresh"}.
// @Summary Live stories viewer
// @Tags realtime
// @Param account_id path int true "Account ID"
// @Param token query string true "JWT"
// @Failure 403 {object} response.Response "Forbidden"
// @Router /accounts/{account_id}/stories/live [get]
func (h *WebSocketHandlers) LiveStories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := handlers.Session(w, r)
		if !ok {
			return
		}
		accountID, err := handlers.PathID(r, "account_id")
		if err != nil {
			handlers.BadRequest(w, err.Error())
			return
		}

		if _, err := h.access.Require(r.Context(), accountID, session.UserID, access.ActionRead); err != nil {
			handlers.WriteError(w, h.logger, err, "failed to check access")
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error("failed to upgrade websocket connection", zap.Error(err))
			return
		}

		client := wsClient.NewClient(conn, session.UserID, h.logger)
		ctrl := playback.NewController(nil, h.playback.Interval, h.playback.Duration)
		player := playback.NewPlayer(ctrl,
			playback.WithObserver(wsClient.FrameObserver(client, accountID)),
			playback.WithLogger(h.logger))
		viewer := playback.NewViewer(h.stories, player, h.logger)

		live := wsClient.NewLiveSession(client, viewer, accountID, session.UserID, h.logger)
		live.OnDeleted = func(story types.Story) {
			h.publisher.PublishStoryDeleted(context.Background(), story)
		}

		// The request context ends with the handler; the session outlives it.
		go live.Run(context.Background(), h.hub)
	}
}
