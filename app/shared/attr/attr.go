// Package attr provides slog attribute constructors shared across services,
// plus correlation-ID propagation through context.
package attr

import (
	"context"
	"log/slog"
	"time"

	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

type correlationIDKey struct{}

// WithCorrelationID returns a context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation ID, or "" if unset.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// ExtractCorrelationID returns a slog attribute for the context's correlation
// ID. Safe to call with a nil or bare context.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	return slog.String("correlation_id", CorrelationIDFromContext(ctx))
}

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func GameID(key string, id sharedtypes.GameID) slog.Attr {
	return slog.Int64(key, int64(id))
}

func GuildID(key string, id sharedtypes.GuildID) slog.Attr {
	return slog.String(key, string(id))
}

func UserID(key string, id sharedtypes.UserID) slog.Attr {
	return slog.String(key, string(id))
}

func Amount(key string, a sharedtypes.Amount) slog.Attr {
	return slog.Int64(key, int64(a))
}
