package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"campuschat/internal/auth"
	"campuschat/internal/events"
	"campuschat/internal/transport/httpdto"
	"campuschat/pkg/logger"
)

const readWait = 60 * time.Second

// clientFrame is what connected clients send upstream: subscription
// management only. All state changes go through the HTTP API.
type clientFrame struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

type Handler struct {
	tokens     *auth.TokenParser
	hub        *Hub
	authorizer *ChannelAuthorizer
	log        *logger.Logger
}

func NewHandler(tokens *auth.TokenParser, hub *Hub, authorizer *ChannelAuthorizer, log *logger.Logger) *Handler {
	return &Handler{tokens: tokens, hub: hub, authorizer: authorizer, log: log}
}

// Connect upgrades the request, subscribes the client to its own user
// channel, then serves subscribe/unsubscribe frames until disconnect.
func (h *Handler) Connect(c *gin.Context) {
	actor, err := h.tokens.Parse(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHENTICATED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, actor.UserID, actor.SchoolID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	h.hub.Subscribe(client, events.ChannelPrefixUser+actor.UserID.String())
	go client.WriteLoop(ctx)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		switch frame.Action {
		case "subscribe":
			ok, err := h.authorizer.CanSubscribe(c.Request.Context(), actor, frame.Channel)
			if err != nil {
				h.log.Warnf("channel authorization failed for %s: %v", frame.Channel, err)
				continue
			}
			if ok {
				h.hub.Subscribe(client, frame.Channel)
			}
		case "unsubscribe":
			h.hub.Unsubscribe(client, frame.Channel)
		}
	}

	h.hub.Unregister(client)
}
