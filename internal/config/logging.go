// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogManager owns the global logger output and allows swapping it at runtime.
type LogManager struct {
	writer      *switchableWriter
	mu          sync.Mutex
	initialized atomic.Bool
}

func NewLogManager() *LogManager {
	return &LogManager{
		writer: newSwitchableWriter(baseLogWriter(os.Stderr)),
	}
}

// Initialize points the global logger at the manager's writer. Only the
// first call has an effect.
func (lm *LogManager) Initialize() {
	if lm.initialized.Swap(true) {
		return
	}
	// The logger stays at trace so SetGlobalLevel alone controls filtering.
	log.Logger = zerolog.New(lm.writer).With().Timestamp().Logger().Level(zerolog.TraceLevel)
}

// Apply sets the level and the optional rotated log file.
func (lm *LogManager) Apply(level, logPath string, maxSize, maxBackups int) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	setLogLevel(level)

	w, closer, err := buildWriter(baseLogWriter(os.Stderr), logPath, maxSize, maxBackups)
	if err != nil {
		return err
	}

	if old := lm.writer.swap(w, closer); old != nil {
		if err := old.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close old log rotator")
		}
	}

	return nil
}

// Close releases the log file, if any.
func (lm *LogManager) Close() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if old := lm.writer.swap(baseLogWriter(os.Stderr), nil); old != nil {
		return old.Close()
	}
	return nil
}

func buildWriter(base io.Writer, logPath string, maxSize, maxBackups int) (io.Writer, io.Closer, error) {
	if logPath == "" {
		return base, nil, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	if maxSize <= 0 {
		maxSize = 50
	}
	if maxBackups < 0 {
		maxBackups = 0
	}

	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}
	return zerolog.MultiLevelWriter(base, rotator), rotator, nil
}

// baseLogWriter uses a console writer on terminals and JSON otherwise.
func baseLogWriter(out *os.File) io.Writer {
	if term.IsTerminal(int(out.Fd())) {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}
	return out
}

func setLogLevel(level string) {
	zerolog.SetGlobalLevel(parseLogLevel(level))
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type writerWithCloser struct {
	w      io.Writer
	closer io.Closer
}

// switchableWriter forwards writes to a target that can be replaced atomically.
type switchableWriter struct {
	target atomic.Pointer[writerWithCloser]
}

func newSwitchableWriter(initial io.Writer) *switchableWriter {
	sw := &switchableWriter{}
	sw.target.Store(&writerWithCloser{w: initial})
	return sw
}

func (sw *switchableWriter) Write(p []byte) (int, error) {
	target := sw.target.Load()
	if target == nil || target.w == nil {
		return len(p), nil
	}
	return target.w.Write(p) //nolint:wrapcheck // io.Writer interface compliance
}

// swap installs w and returns the previous closer, if any.
func (sw *switchableWriter) swap(w io.Writer, closer io.Closer) io.Closer {
	old := sw.target.Swap(&writerWithCloser{w: w, closer: closer})
	if old == nil {
		return nil
	}
	return old.closer
}
