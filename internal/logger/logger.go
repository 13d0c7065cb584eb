package logger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MaxLines bounds the in-memory history shown by the terminal overlay.
const MaxLines = 500

// Logger fans zap entries out to stderr, an optional JSON file and an in-memory line
// history that the terminal overlay reads back.
type Logger struct {
	zap  *zap.Logger
	file *os.File

	mu    sync.Mutex
	lines []string
}

// New builds a logger at level ("debug", "info", "warn", "error"). An empty path disables
// the file output; otherwise the file is appended to and its directory created.
func New(path, level string) (*Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	l := &Logger{}

	console := zap.NewDevelopmentEncoderConfig()
	console.EncodeLevel = zapcore.CapitalColorLevelEncoder

	history := zap.NewDevelopmentEncoderConfig()
	history.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	history.CallerKey = zapcore.OmitKey

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(console), zapcore.Lock(os.Stderr), lvl),
		zapcore.NewCore(zapcore.NewConsoleEncoder(history), zapcore.AddSync(l), zapcore.InfoLevel),
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		l.file = f
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), lvl))
	}
	l.zap = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return l, nil
}

// Zap returns the structured logger; components name their own children from it.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Log records a line typed into the terminal.
func (l *Logger) Log(line string) {
	l.zap.Named("terminal").Info(line)
}

// Write receives encoded entries for the history. Each entry is one line.
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		l.lines = append(l.lines, strings.TrimRight(string(line), "\r"))
	}
	if over := len(l.lines) - MaxLines; over > 0 {
		l.lines = append(l.lines[:0], l.lines[over:]...)
	}
	return len(p), nil
}

// Lines returns a copy of the stored history.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	_ = l.zap.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
