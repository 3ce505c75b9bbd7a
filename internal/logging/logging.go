// Package logging wires slog to a console handler on stderr and a rotating
// JSON log file with a latest.log symlink next to it.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	consoleslog "github.com/phsym/console-slog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Init.
type Options struct {
	Level slog.Level
	// Dir receives floatwm_<timestamp>.log and the latest.log symlink. Empty
	// disables the file sink unless File is set.
	Dir string
	// File overrides the generated file name.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Console defaults to os.Stderr.
	Console io.Writer
	// Now is used for the file name timestamp.
	Now func() time.Time
}

// Result is returned by Init.
type Result struct {
	Logger *slog.Logger
	Path   string
	Close  func() error
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Init builds the logger and installs it as slog's default.
func Init(opts Options) (*Result, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	handlers := []slog.Handler{
		consoleslog.NewHandler(console, &consoleslog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.Level <= slog.LevelDebug,
		}),
	}

	res := &Result{Close: func() error { return nil }}

	path := opts.File
	if path == "" && opts.Dir != "" {
		path = filepath.Join(opts.Dir, "floatwm_"+now().Format("20060102T150405")+".log")
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rot := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		handlers = append(handlers, slog.NewJSONHandler(rot, &slog.HandlerOptions{Level: opts.Level}))
		res.Path = path
		res.Close = rot.Close

		if err := linkLatest(path); err != nil {
			fmt.Fprintf(console, "warning: failed to update latest.log: %v\n", err)
		}
	}

	res.Logger = slog.New(Fanout(handlers...))
	slog.SetDefault(res.Logger)
	return res, nil
}

// linkLatest points <dir>/latest.log at path.
func linkLatest(path string) error {
	link := filepath.Join(filepath.Dir(path), "latest.log")
	if err := os.Remove(link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Symlink(filepath.Base(path), link)
}

// Recover logs a panic with its stack and re-panics. Use as
// `defer logging.Recover(logger)` at the top of long-running goroutines.
func Recover(logger *slog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("panic", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
	panic(r)
}

type fanout struct {
	handlers []slog.Handler
}

// Fanout returns a handler that forwards each record to every handler that
// accepts its level.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return &fanout{handlers: handlers}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: out}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithGroup(name)
	}
	return &fanout{handlers: out}
}
