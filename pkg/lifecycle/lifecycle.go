// Package lifecycle runs named startup checks and shutdown hooks for the
// long-lived subsystems of a process.
package lifecycle

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// StartupFunc brings a subsystem up. A returned error marks the process as
// not ready; it does not stop other hooks.
type StartupFunc func(ctx context.Context) error

// Status is a snapshot of startup progress.
type Status struct {
	Started bool              `json:"started"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// Coordinator owns the process context. Startup hooks run concurrently as
// soon as they are registered; shutdown hooks run once the context is
// cancelled by Shutdown.
type Coordinator struct {
	ctx      context.Context
	cancel   context.CancelFunc
	startup  sync.WaitGroup
	shutdown sync.WaitGroup

	mu       sync.RWMutex
	started  bool
	failed   map[string]error
	stopping map[string]bool
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:      ctx,
		cancel:   cancel,
		failed:   make(map[string]error),
		stopping: make(map[string]bool),
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in the background under name.
func (c *Coordinator) OnStartup(name string, fn StartupFunc) {
	c.startup.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failed[name] = err
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers fn to run after the context is cancelled.
func (c *Coordinator) OnShutdown(name string, fn func()) {
	c.mu.Lock()
	c.stopping[name] = true
	c.mu.Unlock()

	c.shutdown.Go(func() {
		<-c.ctx.Done()
		fn()
		c.mu.Lock()
		delete(c.stopping, name)
		c.mu.Unlock()
	})
}

// WaitForStartup blocks until every startup hook has returned.
func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
}

// Ready reports whether startup finished with no failed hooks.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started && len(c.failed) == 0
}

// Status reports startup progress and the error of each failed hook.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Status{Started: c.started}
	if len(c.failed) > 0 {
		s.Failed = make(map[string]string, len(c.failed))
		for name, err := range c.failed {
			s.Failed[name] = err.Error()
		}
	}
	return s
}

// Shutdown cancels the context and waits up to timeout for shutdown hooks.
// On timeout the error names the hooks still running.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		c.mu.RLock()
		pending := slices.Sorted(maps.Keys(c.stopping))
		c.mu.RUnlock()
		return fmt.Errorf("shutdown timeout after %v, still running: %v", timeout, pending)
	}
}
