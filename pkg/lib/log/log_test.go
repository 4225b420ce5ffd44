package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLazyLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelDebug})))
	defer SetDefault(prev)

	l := Logger("behavior/ping")
	l.Info("hello", "rtt", 1)

	out := buf.String()
	require.Contains(t, out, "component=behavior/ping")
	require.Contains(t, out, "hello")
}

func TestLazyLoggerReflectsLaterSetDefault(t *testing.T) {
	l := Logger("late-bound")

	var first bytes.Buffer
	prev := Default()
	defer SetDefault(prev)

	SetDefault(slog.New(slog.NewTextHandler(&first, nil)))
	l.Info("first")
	require.True(t, strings.Contains(first.String(), "first"))

	var second bytes.Buffer
	SetDefault(slog.New(slog.NewTextHandler(&second, nil)))
	l.Info("second")
	require.True(t, strings.Contains(second.String(), "second"))
	require.False(t, strings.Contains(second.String(), "first"))
}
