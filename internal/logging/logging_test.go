package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePath(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got := FilePath("logs", "vtuner", start)
	assert.Equal(t, filepath.Join("logs", "vtuner_20260314-092653.log"), got)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestTeeHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := tee([]slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	})
	log := slog.New(h)
	log.Info("hello", "k", "v")

	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, b.String(), "hello")
}

func TestTeeHandler_EnabledRespectsLevels(t *testing.T) {
	var buf bytes.Buffer
	h := teeHandler{slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})}

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestManager_SetupWritesFile(t *testing.T) {
	var file bytes.Buffer
	m := NewManager()
	m.Setup(&file, "debug", "")

	m.Logger().Debug("file sink check")
	require.Contains(t, file.String(), "file sink check")
	assert.NoError(t, m.Close())
}

func TestManager_LoggerBeforeSetup(t *testing.T) {
	m := NewManager()
	assert.NotNil(t, m.Logger())
}
