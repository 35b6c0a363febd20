package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LoggerWithFile пишет лог в два места: stdout для оператора (уровень
// настраивается через LOG_LEVEL) и файл — журнал от Info и выше с
// источником записи, по которому сверяются отчисления при разборе инцидентов.
type LoggerWithFile struct {
	Logger  *slog.Logger
	LogFile *os.File
}

type muxHandler struct {
	stdoutHandler slog.Handler
	fileHandler   slog.Handler
}

func newMuxHandler(stdout, file io.Writer, stdoutLevel slog.Level) *muxHandler {
	return &muxHandler{
		stdoutHandler: slog.NewJSONHandler(stdout, &slog.HandlerOptions{
			Level: stdoutLevel,
		}),

		// файл всегда от Info: журнал сверки не должен зависеть от LOG_LEVEL
		fileHandler: slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		}),
	}
}

func (h *muxHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stdoutHandler.Enabled(ctx, level) || h.fileHandler.Enabled(ctx, level)
}

func (h *muxHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.fileHandler.Enabled(ctx, r.Level) {
		if err := h.fileHandler.Handle(ctx, r); err != nil {
			return err
		}
	}

	if h.stdoutHandler.Enabled(ctx, r.Level) {
		return h.stdoutHandler.Handle(ctx, r)
	}
	return nil
}

func (h *muxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &muxHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		fileHandler:   h.fileHandler.WithAttrs(attrs),
	}
}

func (h *muxHandler) WithGroup(name string) slog.Handler {
	return &muxHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		fileHandler:   h.fileHandler.WithGroup(name),
	}
}

func New(fileName string, stdoutLevel slog.Level) (*LoggerWithFile, error) {
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл логов %s: %w", fileName, err)
	}

	return &LoggerWithFile{
		Logger:  slog.New(newMuxHandler(os.Stdout, logFile, stdoutLevel)),
		LogFile: logFile,
	}, nil
}
