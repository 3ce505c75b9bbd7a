// Package daemon supervises the long-running parts of the compositor: the
// event loop, the IPC server and the socket reconciler.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/thejerf/suture/v4"
)

// stopTimeout bounds how long the supervisor waits for a service to return
// after its context is cancelled.
const stopTimeout = 5 * time.Second

// Loop is the compositor event loop. It runs once; returning ends the
// daemon.
type Loop interface {
	Run(ctx context.Context) error
}

// Server is the IPC server. Serve is restarted when it fails.
type Server interface {
	Service
	SocketPath() string
	Close() error
}

// Options configures Run.
type Options struct {
	// ReconcileInterval is how often the socket is checked. Zero uses the
	// reconciler default; negative disables it.
	ReconcileInterval time.Duration
	Logger            *slog.Logger
}

// Run supervises loop and server until the loop returns or ctx is done. The
// loop's error is returned; a clean quit returns nil.
func Run(ctx context.Context, loop Loop, server Server, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	super := suture.New("floatwm", suture.Spec{
		EventHook: EventHook(logger),
		Timeout:   stopTimeout,
	})

	errc := make(chan error, 1)
	var started atomic.Bool
	Add(super, NewServiceFunc("compositor", func(ctx context.Context) error {
		if started.Swap(true) {
			// A panicking loop is not restarted.
			return suture.ErrTerminateSupervisorTree
		}
		errc <- loop.Run(ctx)
		return suture.ErrTerminateSupervisorTree
	}))
	Add(super, server)
	if opts.ReconcileInterval >= 0 {
		Add(super, NewReconciler(ReconcilerConfig{
			Interval: opts.ReconcileInterval,
			Logger:   logger,
		}, server))
	}

	err := super.Serve(ctx)
	select {
	case loopErr := <-errc:
		return loopErr
	default:
	}
	if err == nil || errors.Is(err, suture.ErrTerminateSupervisorTree) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// EventHook logs supervisor events.
func EventHook(logger *slog.Logger) suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventStopTimeout:
			logger.Info("Service failed to terminate in a timely manner", slog.String("supervisor", e.SupervisorName), slog.String("service", e.ServiceName))
		case suture.EventServicePanic:
			logger.Warn("Caught a service panic", slog.String("service", e.ServiceName))
			logger.Info(e.Stacktrace, slog.String("panic", e.PanicMsg))
		case suture.EventServiceTerminate:
			if err, _ := e.Err.(error); err != nil && errors.Is(err, suture.ErrTerminateSupervisorTree) {
				logger.Debug("Service ended the supervisor tree", slog.String("service", e.ServiceName))
				return
			}
			logger.Error("Service failed", slog.Any("error", e.Err), slog.String("supervisor", e.SupervisorName), slog.String("service", e.ServiceName))
			b, _ := json.Marshal(e)
			logger.Debug(string(b))
		case suture.EventBackoff:
			logger.Debug("Too many service failures - entering the backoff state", slog.String("supervisor", e.SupervisorName))
		case suture.EventResume:
			logger.Debug("Exiting backoff state", slog.String("supervisor", e.SupervisorName))
		default:
			logger.Warn("Unknown suture supervisor event type", "type", int(e.Type()))
		}
	}
}

// Service forces the use of the String method
type Service interface {
	String() string
	suture.Service
}

// Add adds service to super with its errors sanitized.
func Add(super *suture.Supervisor, service Service) suture.ServiceToken {
	return super.Add(sanitizeService{Service: service})
}

type sanitizeService struct {
	Service
}

func (s sanitizeService) Serve(ctx context.Context) error {
	return SanitizeError(ctx, s.Service.Serve(ctx))
}

// SanitizeError keeps a stray context error from a service that is still
// supposed to run from being taken as a shutdown by the supervisor.
func SanitizeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}

	var newErrs [3]error
	if errors.Is(err, suture.ErrDoNotRestart) {
		newErrs[0] = suture.ErrDoNotRestart
	}
	if errors.Is(err, suture.ErrTerminateSupervisorTree) {
		newErrs[1] = suture.ErrTerminateSupervisorTree
	}
	newErrs[2] = errors.New(err.Error())
	return errors.Join(newErrs[:]...)
}

// ServiceFunc is a named function run as a service.
type ServiceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func NewServiceFunc(name string, fn func(ctx context.Context) error) ServiceFunc {
	return ServiceFunc{name: name, fn: fn}
}

func (s ServiceFunc) String() string { return s.name }

func (s ServiceFunc) Serve(ctx context.Context) error { return s.fn(ctx) }
