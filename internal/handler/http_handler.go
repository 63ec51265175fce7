package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/internal/repository"
	"github.com/MyMonsterVR/location-app-school-backend/internal/service"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/middleware"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/response"
)

// HTTPHandler is the stateless request/response surface for clients without
// a live WebSocket.
type HTTPHandler struct {
	chatService    service.ChatService
	historyService service.HistoryService
	roomService    service.RoomService
	authMiddleware *middleware.AuthMiddleware
}

func NewHTTPHandler(
	chatService service.ChatService,
	historyService service.HistoryService,
	roomService service.RoomService,
	authMiddleware *middleware.AuthMiddleware,
) *HTTPHandler {
	return &HTTPHandler{
		chatService:    chatService,
		historyService: historyService,
		roomService:    roomService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.Use(h.authMiddleware.RequireAuth())
	{
		api.GET("/rooms/:room_id/messages", h.GetHistory)
		api.POST("/messages", h.SendMessage)
		api.POST("/messages/read", h.MarkRead)
		api.POST("/rooms", h.CreateRoom)
		api.POST("/rooms/:room_id/participants", h.AddParticipant)
		api.DELETE("/users/:user_id", h.RemoveUser)
	}

	r.GET("/health", h.HealthCheck)
}

// GetHistory returns one ascending history page for the authenticated viewer.
func (h *HTTPHandler) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID := c.Param("room_id")
	before := c.Query("before")

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	viewerID := middleware.GetUserID(c)

	result, err := h.historyService.GetHistory(ctx, roomID, viewerID, before, limit)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("history fetch failed")
		response.InternalError(c, "failed to fetch messages")
		return
	}

	response.Success(c, result)
}

// SendMessage persists and fans out a message.
func (h *HTTPHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid send request")
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.chatService.SendMessage(ctx, service.SendInput{
		RoomID:       req.RoomID,
		SenderID:     req.UserID,
		SenderName:   req.Username,
		Text:         req.Text,
		Kind:         req.Kind,
		RoomKind:     req.RoomKind,
		Participants: req.Participants,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Str(log.FieldRoomID, req.RoomID).Msg("send failed")
		response.InternalError(c, "failed to send message")
		return
	}

	response.Created(c, gin.H{"id": msg.ID})
}

// MarkRead records a read receipt.
func (h *HTTPHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid mark read request")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.chatService.MarkRead(ctx, req.MessageID, req.UserID, req.RoomID); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			response.BadRequest(c, err.Error())
		case errors.Is(err, repository.ErrMessageNotFound):
			response.NotFound(c, "message not found")
		default:
			l.Error().Err(err).Str(log.FieldMessageID, req.MessageID).Msg("mark read failed")
			response.InternalError(c, "failed to mark message as read")
		}
		return
	}

	response.Success(c, gin.H{"marked": true})
}

// CreateRoom creates a room administratively.
func (h *HTTPHandler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create room request")
		response.BadRequest(c, err.Error())
		return
	}

	room, err := h.roomService.CreateRoom(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Msg("create room failed")
		response.InternalError(c, "failed to create room")
		return
	}

	response.Created(c, room)
}

// AddParticipant adds an identity to an existing room.
func (h *HTTPHandler) AddParticipant(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID := c.Param("room_id")

	var req domain.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid add participant request")
		response.BadRequest(c, err.Error())
		return
	}

	room, err := h.roomService.AddParticipant(ctx, roomID, req.UserID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			response.BadRequest(c, err.Error())
		case errors.Is(err, repository.ErrRoomNotFound):
			response.NotFound(c, "room not found")
		default:
			l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("add participant failed")
			response.InternalError(c, "failed to add participant")
		}
		return
	}

	response.Success(c, room)
}

// RemoveUser strips an identity from every room it belongs to.
func (h *HTTPHandler) RemoveUser(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	userID := c.Param("user_id")

	touched, err := h.roomService.RemoveUser(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("remove user failed")
		response.InternalError(c, "failed to remove user")
		return
	}

	response.Success(c, gin.H{"rooms": touched})
}

// HealthCheck reports process liveness.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
