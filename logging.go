package signalgraph

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel is the severity of one LogEntry.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// LogEntry is one structured log record emitted by the graph's internal
// bookkeeping: activation/deactivation transitions, rejected sends, and
// loop detection.
type LogEntry struct {
	Level     LogLevel
	Category  string // "activation" or "send"
	ChannelID uint64
	Message   string
	Err       error
	Timestamp time.Time
}

// Logger is the structured logging facade every Channel and handler
// writes through. User code supplies an implementation via WithLogger;
// [github.com/joeycumines/go-signalgraph/logifacebridge] adapts a
// logiface.Logger into this interface.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

// NoOpLogger discards every entry. It is the default when no logger is
// configured, and the package's zero-allocation fast path: IsEnabled
// always reports false so callers can skip building a LogEntry entirely.
type NoOpLogger struct{}

func (NoOpLogger) Log(LogEntry) {}

func (NoOpLogger) IsEnabled(LogLevel) bool { return false }

// TextLogger is a minimal built-in Logger writing one line per entry to
// Out (os.Stderr if nil). It exists for zero-dependency debugging; use
// logifacebridge for production structured logging.
type TextLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	Out   *os.File
}

// NewTextLogger creates a TextLogger that emits entries at or above level.
func NewTextLogger(level LogLevel) *TextLogger {
	l := &TextLogger{Out: os.Stderr}
	l.level.Store(int32(level))
	return l
}

func (l *TextLogger) IsEnabled(level LogLevel) bool {
	return level >= LogLevel(l.level.Load())
}

func (l *TextLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.Out
	if out == nil {
		out = os.Stderr
	}
	if entry.Err != nil {
		fmt.Fprintf(out, "%s %s [%s] channel=%d %s: %v\n",
			entry.Timestamp.Format("15:04:05.000"), entry.Level, entry.Category, entry.ChannelID, entry.Message, entry.Err)
		return
	}
	fmt.Fprintf(out, "%s %s [%s] channel=%d %s\n",
		entry.Timestamp.Format("15:04:05.000"), entry.Level, entry.Category, entry.ChannelID, entry.Message)
}

var globalLogger struct {
	sync.RWMutex
	logger Logger
}

// SetDefaultLogger sets the package-level logger used by constructors
// that are not given an explicit WithLogger option.
func SetDefaultLogger(logger Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

func defaultLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return NoOpLogger{}
}

// orNoOpLogger returns logger, or the package default (itself falling
// back to NoOpLogger) if logger is nil. Every Channel constructor routes
// its logger through this so c.logger is never nil.
func orNoOpLogger(logger Logger) Logger {
	if logger != nil {
		return logger
	}
	return defaultLogger()
}
