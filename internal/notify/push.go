package notify

import (
	"context"

	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

// Pusher delivers out-of-band notifications to identities without a live
// connection.
type Pusher interface {
	Push(ctx context.Context, userID, text string)
}

// NopPusher is the stub implementation: offline push delivery is out of
// scope, so it only records that a push would have happened.
type NopPusher struct{}

func (NopPusher) Push(ctx context.Context, userID, text string) {
	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldUserID, userID).
		Msg("push notification skipped (stub)")
}
