// Package attr provides slog attribute helpers shared by every module.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type ctxKey string

// CorrelationIDKey is the context key carrying the correlation id of the
// message currently being handled.
const CorrelationIDKey ctxKey = "correlation_id"

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Error renders err under the "error" key. A nil error renders as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// ChatID tags the chat a log line belongs to.
func ChatID(chatID string) slog.Attr { return slog.String("chat_id", chatID) }

// SessionID tags the scoring session a log line belongs to.
func SessionID(sessionID string) slog.Attr { return slog.String("session_id", sessionID) }

// WithCorrelationID stores id on ctx for ExtractCorrelationID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// ExtractCorrelationID returns the correlation id stored on ctx.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if ctx != nil {
		if id, ok := ctx.Value(CorrelationIDKey).(string); ok && id != "" {
			return slog.String("correlation_id", id)
		}
	}
	return slog.String("correlation_id", "")
}

// CorrelationIDFromMsg reads the watermill correlation id metadata.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	if msg == nil {
		return slog.String("correlation_id", "")
	}
	return slog.String("correlation_id", middleware.MessageCorrelationID(msg))
}
