// Package attr provides slog attribute helpers shared by every module so log
// keys stay consistent across services, handlers and workers.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// CorrelationIDKey is the Watermill metadata key carrying the correlation id.
const CorrelationIDKey = "correlation_id"

type ctxKey string

const correlationIDCtxKey ctxKey = "correlation_id"

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Float(key string, value float64) slog.Attr { return slog.Float64(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

// Time logs the instant in UTC so log lines from different regions line up.
func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value.UTC()) }

func UUIDValue(key string, value uuid.UUID) slog.Attr { return slog.String(key, value.String()) }

// Error returns an "error" attribute; a nil error logs as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// UserID tags a Discord user snowflake.
func UserID(id string) slog.Attr { return slog.String("user_id", id) }

// ChannelID tags a Discord channel snowflake.
func ChannelID(id string) slog.Attr { return slog.String("channel_id", id) }

// WithCorrelationID stores id on the context for ExtractCorrelationID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDCtxKey, id)
}

// CorrelationIDFromContext returns the correlation id stored on ctx, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDCtxKey).(string)
	return id
}

// ExtractCorrelationID returns the correlation id attribute for ctx.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	return slog.String(CorrelationIDKey, CorrelationIDFromContext(ctx))
}

// CorrelationIDFromMsg returns the correlation id attribute for msg.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	if msg == nil {
		return slog.String(CorrelationIDKey, "")
	}
	return slog.String(CorrelationIDKey, msg.Metadata.Get(CorrelationIDKey))
}
