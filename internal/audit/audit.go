package audit

import (
	"context"

	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

// Audit actions.
const (
	ActionJoinRoom       = "chat.join_room"
	ActionSendMessage    = "chat.send_message"
	ActionMarkRead       = "chat.mark_read"
	ActionCreateRoom     = "room.create"
	ActionAddParticipant = "room.add_participant"
	ActionRemoveUser     = "user.delete"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
