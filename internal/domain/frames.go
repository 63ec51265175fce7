package domain

// WebSocket frame types from client.
const (
	FrameJoin    = "join"
	FrameMessage = "message"
	FrameRead    = "read"
	FramePing    = "ping"
)

// WebSocket frame types to client.
const (
	FrameHistory = "history"
	FrameSystem  = "system"
	FrameError   = "error"
	FramePong    = "pong"
)

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseFrame carries the discriminant shared by all WebSocket frames.
type BaseFrame struct {
	Type string `json:"type"`
}

// Client -> Server frames

type JoinFrame struct {
	Type     string `json:"type"`
	RoomID   string `json:"room"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type MessageFrame struct {
	Type         string   `json:"type"`
	RoomID       string   `json:"room"`
	UserID       string   `json:"userId"`
	Username     string   `json:"username"`
	Text         string   `json:"text"`
	Kind         string   `json:"messageType"`
	RoomKind     string   `json:"roomType,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

type ReadFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	RoomID    string `json:"room"`
}

// Server -> Client frames

type HistoryFrame struct {
	Type     string        `json:"type"`
	Messages []MessageView `json:"messages"`
}

// MessageOut is the fan-out shape of a persisted message. SentByClient is
// always false on broadcasts; clients use it to distinguish echoes of their
// own optimistic sends.
type MessageOut struct {
	Type         string   `json:"type"`
	ID           string   `json:"id"`
	UserID       string   `json:"userId"`
	Username     string   `json:"username"`
	Text         string   `json:"text"`
	Kind         string   `json:"messageType"`
	ReadBy       []string `json:"readBy"`
	SentByClient bool     `json:"sentByClient"`
}

type ReadOut struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type SystemOut struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorFrame builds an error frame for the client.
func NewErrorFrame(code, message string) *ErrorFrame {
	return &ErrorFrame{
		Type:    FrameError,
		Code:    code,
		Message: message,
	}
}

// NewMessageOut builds the broadcast frame for a persisted message.
func NewMessageOut(m *Message) *MessageOut {
	readBy := m.ReadBy
	if readBy == nil {
		readBy = []string{}
	}
	return &MessageOut{
		Type:         FrameMessage,
		ID:           m.ID,
		UserID:       m.SenderID,
		Username:     m.SenderName,
		Text:         m.Text,
		Kind:         m.Kind,
		ReadBy:       readBy,
		SentByClient: false,
	}
}
