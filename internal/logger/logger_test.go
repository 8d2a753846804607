package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriters_RoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWithWriters(&out, &errOut, slog.LevelInfo)

	log.Debug("hidden")
	log.Info("visible", slog.String("k", "v"))
	log.Error("broken", slog.Any("error", errors.New("disk full")))

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "INFO")
	assert.Contains(t, out.String(), "visible | k=v")
	assert.NotContains(t, out.String(), "broken")
	assert.Contains(t, errOut.String(), "ERROR")
	assert.Contains(t, errOut.String(), `error="disk full"`)
}

func TestReadableHandler_ComponentAndOp(t *testing.T) {
	var out bytes.Buffer
	log := NewWithWriters(&out, &out, slog.LevelDebug).With(
		slog.String("component", "feed-generator"),
		slog.String("op", "feed.GenerateFeed"),
	)

	log.Info("Feed generated", slog.Int("items", 3), slog.Duration("duration", 1500*time.Microsecond))

	line := out.String()
	assert.Contains(t, line, "INFO [feed-generator] (feed.GenerateFeed)")
	assert.Contains(t, line, "logger_test.go:")
	assert.Contains(t, line, ": Feed generated | items=3, duration=2ms")
}

func TestReadableHandler_Groups(t *testing.T) {
	var out bytes.Buffer
	log := NewWithWriters(&out, &out, slog.LevelInfo).WithGroup("req")

	log.Info("m", slog.Int("id", 7))

	assert.Contains(t, out.String(), "req.id=7")
}

func TestReadableHandler_ShortensURL(t *testing.T) {
	var out bytes.Buffer
	log := NewWithWriters(&out, &out, slog.LevelInfo)

	log.Info("fetch", slog.String("url", "https://example.com/a/very/long/path/that/keeps/going/and/going.xml"))

	assert.Contains(t, out.String(), "url=https://example.com/...")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
