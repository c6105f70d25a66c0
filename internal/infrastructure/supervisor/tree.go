// Package supervisor runs the long-lived parts of the server (HTTP listener,
// delist retry worker) under a suture supervisor tree.
package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"
	"go.uber.org/zap"
)

// TreeConfig holds supervisor tree settings
type TreeConfig struct {
	// FailureThreshold is the number of failures before the tree backs off
	FailureThreshold float64
	// FailureDecay is the failure decay rate in seconds
	FailureDecay float64
	// FailureBackoff is how long the tree waits once the threshold is crossed
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long a service may take to stop
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's stock failure settings
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is a two-layer supervisor: the api layer serves requests and the
// worker layer runs background jobs. A crashing worker never restarts the
// HTTP listener.
type Tree struct {
	root    *suture.Supervisor
	api     *suture.Supervisor
	workers *suture.Supervisor
}

// NewTree builds the supervisor tree. Supervisor events are logged through logger.
func NewTree(logger *zap.Logger, cfg TreeConfig) *Tree {
	def := DefaultTreeConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = def.FailureDecay
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = def.FailureBackoff
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	spec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = EventHook(logger)

	t := &Tree{
		root:    suture.New("marketsync", rootSpec),
		api:     suture.New("api", spec),
		workers: suture.New("workers", spec),
	}
	t.root.Add(t.api)
	t.root.Add(t.workers)
	return t
}

// AddAPIService adds a request-serving service
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// AddWorker adds a background job
func (t *Tree) AddWorker(svc suture.Service) suture.ServiceToken {
	return t.workers.Add(svc)
}

// Serve runs the tree until ctx is cancelled
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel yields the
// result once the tree has stopped.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout
func (t *Tree) UnstoppedServiceReport() (suture.UnstoppedServiceReport, error) {
	return t.root.UnstoppedServiceReport()
}

// EventHook logs supervisor events. Panics and stop timeouts are errors,
// restarts after a failure are warnings.
func EventHook(logger *zap.Logger) suture.EventHook {
	return func(e suture.Event) {
		fields := make([]zap.Field, 0, len(e.Map())+1)
		fields = append(fields, zap.String("event", eventName(e.Type())))
		for k, v := range e.Map() {
			fields = append(fields, zap.Any(k, v))
		}

		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeStopTimeout:
			logger.Error("Supervisor event", fields...)
		case suture.EventTypeServiceTerminate, suture.EventTypeBackoff:
			logger.Warn("Supervisor event", fields...)
		default:
			logger.Info("Supervisor event", fields...)
		}
	}
}

func eventName(t suture.EventType) string {
	switch t {
	case suture.EventTypeStopTimeout:
		return "stop_timeout"
	case suture.EventTypeServicePanic:
		return "service_panic"
	case suture.EventTypeServiceTerminate:
		return "service_terminate"
	case suture.EventTypeBackoff:
		return "backoff"
	case suture.EventTypeResume:
		return "resume"
	default:
		return "unknown"
	}
}
