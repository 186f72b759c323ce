package logifacebridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/go-signalgraph"
)

func newCapturingBridge(t *testing.T, level logiface.Level) (*Bridge[*stumpy.Event], *[]string) {
	t.Helper()
	var lines []string
	writer := logiface.WriterFunc[*stumpy.Event](func(e *stumpy.Event) error {
		lines = append(lines, string(e.Bytes()))
		return nil
	})
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithTimeField("")),
		stumpy.L.WithWriter(writer),
		stumpy.L.WithLevel(level),
	)
	return New[*stumpy.Event](logger), &lines
}

func TestBridgeIsEnabledRespectsConfiguredLevel(t *testing.T) {
	b, _ := newCapturingBridge(t, logiface.LevelWarning)

	assert.True(t, b.IsEnabled(signalgraph.LevelError))
	assert.True(t, b.IsEnabled(signalgraph.LevelWarn))
	assert.False(t, b.IsEnabled(signalgraph.LevelInfo))
	assert.False(t, b.IsEnabled(signalgraph.LevelDebug))
}

func TestBridgeLogEmitsCategoryAndChannelFields(t *testing.T) {
	b, lines := newCapturingBridge(t, logiface.LevelDebug)

	b.Log(signalgraph.LogEntry{
		Level:     signalgraph.LevelWarn,
		Category:  "activation",
		ChannelID: 42,
		Message:   "join rejected: would create a loop",
		Err:       signalgraph.ErrLoop,
	})

	if assert.Len(t, *lines, 1) {
		line := (*lines)[0]
		assert.Contains(t, line, `"category":"activation"`)
		assert.Contains(t, line, `"channel":"42"`)
		assert.Contains(t, line, "join rejected")
	}
}

func TestBridgeLogAtDisabledLevelDoesNotPanicOrEmit(t *testing.T) {
	b, lines := newCapturingBridge(t, logiface.LevelError)

	assert.NotPanics(t, func() {
		b.Log(signalgraph.LogEntry{Level: signalgraph.LevelDebug, Message: "should be skipped"})
	})
	assert.Empty(t, *lines)
}

func TestBridgeLogWithoutErrorOmitsErrField(t *testing.T) {
	b, lines := newCapturingBridge(t, logiface.LevelDebug)

	b.Log(signalgraph.LogEntry{Level: signalgraph.LevelInfo, Category: "send", Message: "ok"})

	if assert.Len(t, *lines, 1) {
		assert.NotContains(t, (*lines)[0], `"err"`)
	}
}

func TestBridgeLogWithErrorIncludesErrField(t *testing.T) {
	b, lines := newCapturingBridge(t, logiface.LevelDebug)

	b.Log(signalgraph.LogEntry{Level: signalgraph.LevelError, Message: "boom", Err: fmt.Errorf("wrapped: %w", errors.New("inner"))})

	if assert.Len(t, *lines, 1) {
		assert.Contains(t, (*lines)[0], `"err"`)
		assert.Contains(t, (*lines)[0], "wrapped: inner")
	}
}
