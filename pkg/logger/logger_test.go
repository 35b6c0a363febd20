package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMuxHandler_FileKeepsInfoRegardlessOfStdoutLevel(t *testing.T) {
	var stdout, file bytes.Buffer

	log := slog.New(newMuxHandler(&stdout, &file, slog.LevelError))

	log.Info("перевод создан", slog.String("user", "user-001"))

	assert.Empty(t, stdout.String())
	assert.Contains(t, file.String(), "перевод создан")
	assert.Contains(t, file.String(), "user-001")
}

func TestMuxHandler_DebugStaysOutOfFile(t *testing.T) {
	var stdout, file bytes.Buffer

	log := slog.New(newMuxHandler(&stdout, &file, slog.LevelDebug))

	log.Debug("курс взят из кэша")

	assert.Contains(t, stdout.String(), "курс взят из кэша")
	assert.Empty(t, file.String())
}

func TestMuxHandler_WithAttrsPropagates(t *testing.T) {
	var stdout, file bytes.Buffer

	handler := newMuxHandler(&stdout, &file, slog.LevelInfo).
		WithAttrs([]slog.Attr{slog.String("trace_id", "req-42")})

	assert.True(t, handler.Enabled(context.Background(), slog.LevelInfo))

	slog.New(handler).Info("webhook accepted")

	assert.Contains(t, stdout.String(), "req-42")
	assert.Contains(t, file.String(), "req-42")
}

func TestNew_CreatesLogFile(t *testing.T) {
	fileName := t.TempDir() + "/autosave.log"

	lw, err := New(fileName, slog.LevelInfo)

	assert.NoError(t, err)
	assert.NotNil(t, lw.Logger)
	assert.NoError(t, lw.LogFile.Close())
}
