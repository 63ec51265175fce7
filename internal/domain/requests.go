package domain

// SendMessageRequest is the request/response-surface equivalent of a
// message frame, for clients without a live WebSocket.
type SendMessageRequest struct {
	RoomID       string   `json:"roomId" binding:"required"`
	UserID       string   `json:"userId" binding:"required"`
	Username     string   `json:"username"`
	Text         string   `json:"text" binding:"required"`
	Kind         string   `json:"messageType"`
	RoomKind     string   `json:"roomType" binding:"required"`
	Participants []string `json:"participants"`
}

// MarkReadRequest marks one message read for one identity.
type MarkReadRequest struct {
	MessageID string `json:"messageId" binding:"required"`
	UserID    string `json:"userId" binding:"required"`
	RoomID    string `json:"roomId" binding:"required"`
}

// CreateRoomRequest creates a room administratively.
type CreateRoomRequest struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind" binding:"required"`
	Participants []string `json:"participants" binding:"required"`
}

// AddParticipantRequest adds one identity to an existing room.
type AddParticipantRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username"`
}

// HistoryResponse is one ascending page of room history.
type HistoryResponse struct {
	Messages   []MessageView `json:"messages"`
	NextCursor string        `json:"nextCursor,omitempty"`
	HasMore    bool          `json:"hasMore"`
}
