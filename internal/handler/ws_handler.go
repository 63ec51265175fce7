package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MyMonsterVR/location-app-school-backend/internal/config"
	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/internal/hub"
	"github.com/MyMonsterVR/location-app-school-backend/internal/repository"
	"github.com/MyMonsterVR/location-app-school-backend/internal/service"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/chat/ws", func(c *gin.Context) {
		h.HandleWebSocket(c.Writer, c.Request)
	})
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleFrame)
}

// handleFrame parses one inbound frame and dispatches on its discriminant.
// Unknown or malformed discriminants are rejected with an error frame.
// Persistence failures on this path are logged and the operation dropped:
// at-most-once, best effort.
func (h *WSHandler) handleFrame(client *hub.Client, raw []byte) {
	var base domain.BaseFrame
	if err := json.Unmarshal(raw, &base); err != nil {
		client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid frame"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.FrameJoin:
		var frame domain.JoinFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid join frame"))
			return
		}
		if err := h.service.JoinRoom(ctx, client, frame.RoomID, frame.UserID, frame.Username); err != nil {
			h.reportError(ctx, client, err, "join failed")
		}

	case domain.FrameMessage:
		var frame domain.MessageFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid message frame"))
			return
		}
		_, err := h.service.SendMessage(ctx, service.SendInput{
			RoomID:       frame.RoomID,
			SenderID:     frame.UserID,
			SenderName:   frame.Username,
			Text:         frame.Text,
			Kind:         frame.Kind,
			RoomKind:     frame.RoomKind,
			Participants: frame.Participants,
		})
		if err != nil {
			h.reportError(ctx, client, err, "send failed")
		}

	case domain.FrameRead:
		var frame domain.ReadFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "invalid read frame"))
			return
		}
		if err := h.service.MarkRead(ctx, frame.MessageID, frame.UserID, frame.RoomID); err != nil {
			h.reportError(ctx, client, err, "mark read failed")
		}

	case domain.FramePing:
		client.SendMessage(map[string]string{"type": domain.FramePong})

	default:
		client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, "unknown frame type: "+base.Type))
	}
}

func (h *WSHandler) reportError(ctx context.Context, client *hub.Client, err error, msg string) {
	l := log.Ctx(ctx)

	switch {
	case errors.Is(err, service.ErrValidation):
		client.SendMessage(domain.NewErrorFrame(domain.ErrCodeBadRequest, err.Error()))
	case errors.Is(err, repository.ErrMessageNotFound), errors.Is(err, repository.ErrRoomNotFound):
		client.SendMessage(domain.NewErrorFrame(domain.ErrCodeNotFound, err.Error()))
	default:
		// Store trouble: no frame, no retry, just the log line.
		l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg(msg)
	}
}
