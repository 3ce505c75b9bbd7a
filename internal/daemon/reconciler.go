package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// DefaultReconcileInterval is used when no interval is configured.
const DefaultReconcileInterval = 10 * time.Second

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks that the control socket still exists. A
// socket removed from under the server (a tmp cleaner, a second instance
// exiting) closes the server so the supervisor restarts it on a fresh one.
type Reconciler struct {
	interval time.Duration
	server   Server
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler watching server's socket.
func NewReconciler(cfg ReconcilerConfig, server Server) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		interval: interval,
		server:   server,
		logger:   logger.With("component", "reconciler"),
	}
}

func (r *Reconciler) String() string { return "daemon.Reconciler" }

// Serve runs the reconciliation loop until ctx is cancelled.
func (r *Reconciler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug("reconciler started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.ReconcileNow()
		}
	}
}

// ReconcileNow runs a single pass and reports whether the server was reset.
func (r *Reconciler) ReconcileNow() bool {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	err := checkSocket(r.server.SocketPath())
	if err == nil {
		return false
	}
	r.logger.Warn("control socket lost, restarting server", "socket", r.server.SocketPath(), "error", err)
	if err := r.server.Close(); err != nil {
		r.logger.Debug("close failed", "error", err)
	}
	return true
}

func checkSocket(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode().Type() != fs.ModeSocket {
		return fmt.Errorf("%s is not a socket", path)
	}
	return nil
}
