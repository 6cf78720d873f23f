package logger

import (
	"context"
	"strconv"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type eventInfoKey struct{}

// EventInfo identifies the marketplace event currently being applied
type EventInfo struct {
	Chain       string
	EventID     string
	EventType   string
	BlockNumber uint64
	LogIndex    uint
}

// Fields returns the event info as structured log fields
func (i EventInfo) Fields() []zap.Field {
	return []zap.Field{
		zap.String("chain", i.Chain),
		zap.String("event_id", i.EventID),
		zap.String("event_type", i.EventType),
		zap.Uint64("block_number", i.BlockNumber),
		zap.Uint("log_index", i.LogIndex),
	}
}

// WithEventInfo returns a context that carries the event for the *Ctx helpers,
// and a cloned Sentry hub whose scope is tagged with it.
func WithEventInfo(ctx context.Context, info EventInfo) context.Context {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub = hub.Clone()

	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("chain", info.Chain)
		scope.SetTag("event_type", info.EventType)
		scope.SetContext("event", sentry.Context{
			"id":           info.EventID,
			"block_number": strconv.FormatUint(info.BlockNumber, 10),
			"log_index":    strconv.FormatUint(uint64(info.LogIndex), 10),
		})
	})

	ctx = context.WithValue(ctx, eventInfoKey{}, info)
	return sentry.SetHubOnContext(ctx, hub)
}

// EventInfoFromContext returns the event attached by WithEventInfo
func EventInfoFromContext(ctx context.Context) (EventInfo, bool) {
	info, ok := ctx.Value(eventInfoKey{}).(EventInfo)
	return info, ok
}
