// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for marvin.
//
// Records always go to stderr (text or JSON) so the CLI plays well with
// pipes. When LogDir is set, every record is also appended as JSON to a
// daily file named {service}_{date}.log inside that directory.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: logging.LevelInfo})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("cycle complete", "age", 12, "reward", 1)
//
// Packages that only need a *slog.Logger take logger.Slog().
//
// # Thread Safety
//
// All Logger methods are safe for concurrent use.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultService is the service attribute attached when Config.Service is empty.
const DefaultService = "marvin"

// ErrUnknownLevel is returned by ParseLevel for unrecognised level names.
var ErrUnknownLevel = errors.New("unknown log level")

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name.
func (l Level) String() string {
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
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a case-insensitive level name into a Level.
//
// Inputs:
//   - name: One of "debug", "info", "warn", "warning", "error". Empty means info.
//
// Outputs:
//   - Level: The parsed level.
//   - error: ErrUnknownLevel (wrapped) for anything else.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
}

// Config controls where and how records are written.
//
// The zero value logs info and above as text to stderr with service "marvin".
type Config struct {
	// Level is the minimum severity written.
	Level Level

	// LogDir enables JSON file logging when non-empty. "~" expands to
	// the user's home directory.
	LogDir string

	// Service is attached to every record as the "service" attribute.
	Service string

	// JSON switches the console handler from text to JSON.
	JSON bool

	// Quiet disables console output. File output is unaffected.
	Quiet bool

	// Output overrides the console destination. Defaults to os.Stderr.
	Output io.Writer
}

// Logger wraps slog.Logger with an optional log file.
type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
	mu     *sync.Mutex
}

// New creates a Logger from config.
//
// Description:
//
//	Builds a console handler (unless Quiet) and, when LogDir is set, a
//	JSON file handler. Both are combined with a fan-out handler and the
//	service attribute is attached once at construction.
//
// Inputs:
//   - config: Logger configuration. Zero value is valid.
//
// Outputs:
//   - *Logger: Ready to use. Call Close when a LogDir was configured.
//   - error: Non-nil if the log directory or file cannot be created.
func New(config Config) (*Logger, error) {
	if config.Service == "" {
		config.Service = DefaultService
	}
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	var handlers []slog.Handler
	if !config.Quiet {
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(out, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(out, opts))
		}
	}

	var file *os.File
	if config.LogDir != "" {
		dir := expandPath(config.LogDir)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
		name := fmt.Sprintf("%s_%s.log", config.Service, time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	return &Logger{
		slog:   slog.New(handler).With("service", config.Service),
		config: config,
		file:   file,
		mu:     &sync.Mutex{},
	}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	l, _ := New(Config{Quiet: true})
	return l
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying the given attributes. The child
// shares the parent's file; closing either closes it for both.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
		file:   l.file,
		mu:     l.mu,
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the log file, if any. Safe to call twice.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	var errs []error
	if err := f.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("sync log file: %w", err))
	}
	if err := f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
