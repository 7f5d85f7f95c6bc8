package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/one2ten/stetho-agent/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	tests := []struct {
		name      string
		hooks     map[string]error
		wantReady bool
	}{
		{"no hooks", nil, true},
		{"all succeed", map[string]error{"database": nil, "storage": nil}, true},
		{"one fails", map[string]error{"database": errors.New("connection refused"), "storage": nil}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := lifecycle.New()
			if lc.Ready() {
				t.Fatal("ready before WaitForStartup")
			}

			for name, err := range tt.hooks {
				lc.OnStartup(name, func(context.Context) error { return err })
			}
			lc.WaitForStartup()

			if lc.Ready() != tt.wantReady {
				t.Errorf("Ready() = %v, want %v", lc.Ready(), tt.wantReady)
			}

			status := lc.Status()
			if !status.Started {
				t.Error("status should report started")
			}
			for name, err := range tt.hooks {
				msg, failed := status.Failed[name]
				if failed != (err != nil) {
					t.Errorf("hook %s: failed=%v, want %v", name, failed, err != nil)
				}
				if err != nil && msg != err.Error() {
					t.Errorf("hook %s: message %q, want %q", name, msg, err)
				}
			}
		})
	}
}

func TestStartupHooksRunConcurrently(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	release := make(chan struct{})
	for range 3 {
		lc.OnStartup("worker", func(context.Context) error {
			count.Add(1)
			<-release
			return nil
		})
	}

	deadline := time.After(time.Second)
	for count.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d hooks started", count.Load())
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)
	lc.WaitForStartup()
}

func TestShutdownRunsHooksAfterCancel(t *testing.T) {
	lc := lifecycle.New()

	var ranAfterCancel atomic.Bool
	lc.OnShutdown("database", func() {
		ranAfterCancel.Store(lc.Context().Err() != nil)
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !ranAfterCancel.Load() {
		t.Error("shutdown hook should run after the context is cancelled")
	}
}

func TestShutdownTimeoutNamesPendingHooks(t *testing.T) {
	lc := lifecycle.New()

	lc.OnShutdown("fast", func() {})
	lc.OnShutdown("http", func() { time.Sleep(500 * time.Millisecond) })

	err := lc.Shutdown(50 * time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "http") || strings.Contains(err.Error(), "fast") {
		t.Errorf("error = %v, want only the http hook listed", err)
	}
}

func TestStartupContextCancelledOnShutdown(t *testing.T) {
	lc := lifecycle.New()

	var sawCancel atomic.Bool
	lc.OnStartup("slow", func(ctx context.Context) error {
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	lc.WaitForStartup()

	if !sawCancel.Load() {
		t.Error("startup hook did not observe cancellation")
	}
	if lc.Ready() {
		t.Error("a hook that returned an error should leave the coordinator not ready")
	}
}
