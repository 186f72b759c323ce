// Package logifacebridge adapts a github.com/joeycumines/logiface.Logger
// into signalgraph.Logger, so the graph's internal diagnostics (activation
// transitions, rejected sends, loop detection) can be routed through any
// backend logiface supports (stumpy, zerolog, logrus, slog) rather than
// the package's own minimal built-in logger.
package logifacebridge

import (
	"github.com/joeycumines/go-signalgraph"
	"github.com/joeycumines/logiface"
)

// Bridge wraps a *logiface.Logger[E] as a signalgraph.Logger.
type Bridge[E logiface.Event] struct {
	logger *logiface.Logger[E]
}

// New wraps logger for use with signalgraph.WithLogger.
func New[E logiface.Event](logger *logiface.Logger[E]) *Bridge[E] {
	return &Bridge[E]{logger: logger}
}

func toLogifaceLevel(l signalgraph.LogLevel) logiface.Level {
	switch l {
	case signalgraph.LevelDebug:
		return logiface.LevelDebug
	case signalgraph.LevelInfo:
		return logiface.LevelInformational
	case signalgraph.LevelWarn:
		return logiface.LevelWarning
	case signalgraph.LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// IsEnabled reports whether logger would emit at this level.
func (b *Bridge[E]) IsEnabled(level signalgraph.LogLevel) bool {
	return b.logger.Level() >= toLogifaceLevel(level)
}

// Log builds and emits one logiface event from entry.
func (b *Bridge[E]) Log(entry signalgraph.LogEntry) {
	builder := b.logger.Build(toLogifaceLevel(entry.Level))
	if builder == nil {
		return
	}
	builder = builder.
		Str("category", entry.Category).
		Uint64("channel", entry.ChannelID)
	if entry.Err != nil {
		builder = builder.Err(entry.Err)
	}
	builder.Log(entry.Message)
}
