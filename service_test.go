// MIT License
//
// Copyright (c) 2022-2026 Arsene Tochemey Gandote
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package steward

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/tochemey/steward/log"
)

// eventLog collects lifecycle events across goroutines.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// recordingBehavior writes its start and stop into an event log.
type recordingBehavior struct {
	name string
	log  *eventLog
}

func (b *recordingBehavior) Label() string { return b.name }

func (b *recordingBehavior) OnStart(context.Context, *Service) error {
	b.log.add("start:" + b.name)
	return nil
}

func (b *recordingBehavior) OnStop(context.Context, *Service) error {
	b.log.add("stop:" + b.name)
	return nil
}

// recordingResource writes its acquire and release into an event log.
type recordingResource struct {
	name string
	log  *eventLog
}

func (r *recordingResource) Acquire(context.Context) error {
	r.log.add("acquire:" + r.name)
	return nil
}

func (r *recordingResource) Release(context.Context) error {
	r.log.add("release:" + r.name)
	return nil
}

func newRecorded(name string, events *eventLog) *Service {
	return NewService(&recordingBehavior{name: name, log: events}, WithLogger(log.DiscardLogger))
}

func TestServiceLifecycle(t *testing.T) {
	t.Run("with start and stop", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		ctx := context.TODO()
		events := new(eventLog)
		service := newRecorded("app", events)

		assert.Equal(t, StateInit, service.State())
		require.NoError(t, service.Start(ctx))
		assert.Equal(t, StateStarted, service.State())
		require.NoError(t, service.Stop(ctx))
		assert.Equal(t, StateStopped, service.State())
		assert.Equal(t, []string{"start:app", "stop:app"}, events.snapshot())
	})
	t.Run("with idempotent start and stop", func(t *testing.T) {
		ctx := context.TODO()
		events := new(eventLog)
		service := newRecorded("app", events)

		require.NoError(t, service.Start(ctx))
		require.NoError(t, service.Start(ctx))
		started, err := service.MaybeStart(ctx)
		require.NoError(t, err)
		assert.False(t, started)

		require.NoError(t, service.Stop(ctx))
		require.NoError(t, service.Stop(ctx))
		assert.Equal(t, []string{"start:app", "stop:app"}, events.snapshot())
	})
	t.Run("with dependencies started in order and stopped in reverse", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		ctx := context.TODO()
		events := new(eventLog)
		parent := newRecorded("parent", events)
		parent.AddDependency(newRecorded("d1", events))
		parent.AddDependency(newRecorded("d2", events))
		parent.AddDependency(newRecorded("d3", events))

		require.NoError(t, parent.Start(ctx))
		require.NoError(t, parent.Stop(ctx))
		assert.Equal(t, []string{
			"start:d1", "start:d2", "start:d3", "start:parent",
			"stop:parent", "stop:d3", "stop:d2", "stop:d1",
		}, events.snapshot())
	})
	t.Run("with resources released in reverse acquisition order", func(t *testing.T) {
		ctx := context.TODO()
		events := new(eventLog)
		service := newRecorded("app", events)
		require.NoError(t, service.AddResource(ctx, &recordingResource{name: "r1", log: events}))
		require.NoError(t, service.AddResource(ctx, &recordingResource{name: "r2", log: events}))

		require.NoError(t, service.Start(ctx))
		require.NoError(t, service.Stop(ctx))
		assert.Equal(t, []string{
			"acquire:r1", "acquire:r2", "start:app",
			"stop:app", "release:r2", "release:r1",
		}, events.snapshot())
	})
	t.Run("with a failing resource aborting the start", func(t *testing.T) {
		ctx := context.TODO()
		failure := errors.New("no disk")
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.AddResource(ctx, &ResourceFunc{
			AcquireFunc: func(context.Context) error { return failure },
		}))

		err := service.Start(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrResourceAcquisition)
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, StateCrashed, service.State())
	})
	t.Run("with a failing dependency aborting the parent start", func(t *testing.T) {
		ctx := context.TODO()
		failure := errors.New("bad dependency")
		parent := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		parent.AddDependency(NewService(behaviorFunc(func(context.Context, *Service) error {
			return failure
		}), WithLogger(log.DiscardLogger)))

		err := parent.Start(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, StateCrashed, parent.State())
		assert.ErrorIs(t, parent.CrashReason(), failure)
	})
	t.Run("with closers closed in reverse registration order", func(t *testing.T) {
		ctx := context.TODO()
		events := new(eventLog)
		service := newRecorded("app", events)
		service.AddCloser(closerFunc(func() error { events.add("close:c1"); return nil }))
		service.AddCloser(closerFunc(func() error { events.add("close:c2"); return nil }))

		require.NoError(t, service.Start(ctx))
		require.NoError(t, service.Stop(ctx))
		assert.Equal(t, []string{"start:app", "stop:app", "close:c2", "close:c1"}, events.snapshot())
	})
	t.Run("with runtime dependency started right away", func(t *testing.T) {
		ctx := context.TODO()
		events := new(eventLog)
		parent := newRecorded("parent", events)
		require.NoError(t, parent.Start(ctx))

		child := newRecorded("late", events)
		require.NoError(t, parent.AddRuntimeDependency(ctx, child))
		assert.Equal(t, StateStarted, child.State())
		assert.Same(t, parent, child.Parent())

		require.NoError(t, parent.Stop(ctx))
		assert.Equal(t, StateStopped, child.State())
	})
	t.Run("with the beacon mirroring the ownership tree", func(t *testing.T) {
		events := new(eventLog)
		app := newRecorded("app", events)
		httpd := app.AddDependency(newRecorded("httpd", events))
		pool := httpd.AddDependency(newRecorded("pool", events))

		assert.Equal(t, "app.httpd.pool", pool.Beacon().Path())
		assert.Same(t, app.Beacon(), pool.Beacon().Root())
	})
}

func TestServiceCrash(t *testing.T) {
	t.Run("with a crash cascading to the root", func(t *testing.T) {
		ctx := context.TODO()
		events := new(eventLog)
		root := newRecorded("root", events)
		mid := root.AddDependency(newRecorded("mid", events))
		leaf := mid.AddDependency(newRecorded("leaf", events))
		require.NoError(t, root.Start(ctx))

		failure := errors.New("boom")
		leaf.Crash(ctx, failure)

		assert.Equal(t, StateCrashed, leaf.State())
		assert.Equal(t, StateCrashed, mid.State())
		assert.Equal(t, StateCrashed, root.State())
		assert.ErrorIs(t, root.CrashReason(), failure)
		require.NoError(t, root.Stop(ctx))
	})
	t.Run("with a supervised crash not cascading", func(t *testing.T) {
		ctx := context.TODO()
		events := new(eventLog)
		root := newRecorded("root", events)
		leaf := root.AddDependency(newRecorded("leaf", events))
		require.NoError(t, root.Start(ctx))

		strategy := &stubStrategy{}
		leaf.setSupervisor(strategy)
		leaf.Crash(ctx, errors.New("boom"))

		assert.Equal(t, StateCrashed, leaf.State())
		assert.Equal(t, StateStarted, root.State())
		assert.EqualValues(t, 1, strategy.wakeups.Load())
		require.NoError(t, root.Stop(ctx))
	})
	t.Run("with a nil reason ignored", func(t *testing.T) {
		ctx := context.TODO()
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))
		service.Crash(ctx, nil)
		assert.Equal(t, StateStarted, service.State())
		require.NoError(t, service.Stop(ctx))
	})
	t.Run("with a crash ignored while stopping", func(t *testing.T) {
		ctx := context.TODO()
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))
		require.NoError(t, service.Stop(ctx))
		service.Crash(ctx, errors.New("too late"))
		assert.Equal(t, StateStopped, service.State())
		assert.NoError(t, service.CrashReason())
	})
	t.Run("with the first crash reason kept", func(t *testing.T) {
		ctx := context.TODO()
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))

		first := errors.New("first")
		service.Crash(ctx, first)
		service.Crash(ctx, errors.New("second"))
		assert.ErrorIs(t, service.CrashReason(), first)
		require.NoError(t, service.Stop(ctx))
	})
	t.Run("with a task error crashing the service", func(t *testing.T) {
		ctx := context.TODO()
		failure := errors.New("task blew up")
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		service.AddTask(func(context.Context, *Service) error {
			return failure
		})

		require.NoError(t, service.Start(ctx))
		assert.Eventually(t, func() bool {
			return service.State() == StateCrashed
		}, time.Second, 10*time.Millisecond)
		assert.ErrorIs(t, service.CrashReason(), failure)
		require.NoError(t, service.Stop(ctx))
	})
	t.Run("with a crash racing the started transition never masked", func(t *testing.T) {
		ctx := context.TODO()
		failure := errors.New("died on arrival")
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		service.AddTask(func(context.Context, *Service) error {
			return failure
		})

		// the task fails immediately; whether it beats the Started transition
		// or not, the crash must end up recorded as state plus reason
		if err := service.Start(ctx); err != nil {
			assert.ErrorIs(t, err, failure)
		}
		assert.Eventually(t, func() bool {
			return service.State() == StateCrashed
		}, time.Second, 10*time.Millisecond)
		assert.ErrorIs(t, service.CrashReason(), failure)
		require.NoError(t, service.Stop(ctx))
	})
	t.Run("with task cancellation treated as a clean exit", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		ctx := context.TODO()
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		service.AddNamedTask("blocker", func(ctx context.Context, _ *Service) error {
			<-ctx.Done()
			return ctx.Err()
		})

		require.NoError(t, service.Start(ctx))
		require.NoError(t, service.Stop(ctx))
		assert.Equal(t, StateStopped, service.State())
		assert.NoError(t, service.CrashReason())
	})
}

func TestServiceRestart(t *testing.T) {
	t.Run("with restart of a stopped service", func(t *testing.T) {
		ctx := context.TODO()
		events := new(eventLog)
		parent := newRecorded("parent", events)
		parent.AddDependency(newRecorded("child", events))

		require.NoError(t, parent.Start(ctx))
		require.NoError(t, parent.Stop(ctx))
		require.NoError(t, parent.Restart(ctx))

		assert.Equal(t, StateStarted, parent.State())
		assert.EqualValues(t, 1, parent.RestartCount())
		assert.Equal(t, []string{
			"start:child", "start:parent", "stop:parent", "stop:child",
			"start:child", "start:parent",
		}, events.snapshot())
		require.NoError(t, parent.Stop(ctx))
	})
	t.Run("with restart of a crashed service clearing the reason", func(t *testing.T) {
		ctx := context.TODO()
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))
		service.Crash(ctx, errors.New("boom"))
		require.Equal(t, StateCrashed, service.State())

		require.NoError(t, service.Restart(ctx))
		assert.Equal(t, StateStarted, service.State())
		assert.NoError(t, service.CrashReason())
		require.NoError(t, service.Stop(ctx))
	})
	t.Run("with restart refused while running", func(t *testing.T) {
		ctx := context.TODO()
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))
		err := service.Restart(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotRestartable)
		require.NoError(t, service.Stop(ctx))
	})
	t.Run("with the restart hook running before the start sequence", func(t *testing.T) {
		ctx := context.TODO()
		behavior := &restartRecorder{}
		service := NewService(behavior, WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))
		require.NoError(t, service.Stop(ctx))
		require.NoError(t, service.Restart(ctx))
		assert.Equal(t, 1, behavior.restarts)
		require.NoError(t, service.Stop(ctx))
	})
}

func TestServiceHooks(t *testing.T) {
	t.Run("with the first start hook running once per instance", func(t *testing.T) {
		ctx := context.TODO()
		behavior := &firstStartRecorder{}
		service := NewService(behavior, WithLogger(log.DiscardLogger))

		require.NoError(t, service.Start(ctx))
		require.NoError(t, service.Stop(ctx))
		require.NoError(t, service.Restart(ctx))
		require.NoError(t, service.Stop(ctx))
		assert.Equal(t, 1, behavior.firstStarts)
		assert.Equal(t, 2, behavior.starts)
	})
	t.Run("with declared dependencies registered on first start", func(t *testing.T) {
		ctx := context.TODO()
		events := new(eventLog)
		child := newRecorded("declared", events)
		service := NewService(&providerBehavior{child: child}, WithLogger(log.DiscardLogger))

		require.NoError(t, service.Start(ctx))
		assert.Equal(t, StateStarted, child.State())
		assert.Len(t, service.Dependencies(), 1)
		require.NoError(t, service.Stop(ctx))
		assert.Equal(t, StateStopped, child.State())
	})
	t.Run("with the shutdown hook fired by SetShutdown", func(t *testing.T) {
		ctx := context.TODO()
		behavior := &shutdownRecorder{}
		service := NewService(behavior, WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))

		assert.False(t, service.ShouldStop())
		service.SetShutdown()
		assert.True(t, service.ShouldStop())
		assert.Equal(t, 1, behavior.shutdowns)
		// the state machine is untouched, teardown is still up to Stop
		assert.Equal(t, StateStarted, service.State())
		require.NoError(t, service.Stop(ctx))
	})
	t.Run("with the label derived from the behavior type", func(t *testing.T) {
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		assert.Equal(t, "NoopBehavior", service.Label())

		labeled := NewService(new(NoopBehavior), WithLabel("Custom"), WithLogger(log.DiscardLogger))
		assert.Equal(t, "Custom", labeled.Label())
	})
}

func TestServiceWait(t *testing.T) {
	t.Run("with WaitUntilStopped released by the stop", func(t *testing.T) {
		ctx := context.TODO()
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))

		released := make(chan error, 1)
		go func() {
			released <- service.WaitUntilStopped(context.TODO())
		}()
		require.NoError(t, service.Stop(ctx))

		select {
		case err := <-released:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("waiter was not released")
		}
	})
	t.Run("with Join returning the crash reason", func(t *testing.T) {
		ctx := context.TODO()
		failure := errors.New("boom")
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(ctx))

		joined := make(chan error, 1)
		go func() {
			joined <- service.Join(context.TODO())
		}()
		service.Crash(ctx, failure)

		select {
		case err := <-joined:
			assert.ErrorIs(t, err, failure)
		case <-time.After(time.Second):
			t.Fatal("joiner was not released")
		}
		require.NoError(t, service.Stop(ctx))
	})
	t.Run("with Join honoring context cancellation", func(t *testing.T) {
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(context.TODO()))

		ctx, cancel := context.WithCancel(context.TODO())
		cancel()
		assert.ErrorIs(t, service.Join(ctx), context.Canceled)
		require.NoError(t, service.Stop(context.TODO()))
	})
	t.Run("with Sleep returning early on shutdown", func(t *testing.T) {
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		require.NoError(t, service.Start(context.TODO()))
		service.SetShutdown()
		assert.False(t, service.Sleep(context.TODO(), time.Hour))
		require.NoError(t, service.Stop(context.TODO()))
	})
	t.Run("with a timer task repeating until stop", func(t *testing.T) {
		ctx := context.TODO()
		ticks := atomic.NewInt32(0)
		service := NewService(new(NoopBehavior), WithLogger(log.DiscardLogger))
		service.AddTimer(10*time.Millisecond, func(context.Context, *Service) error {
			ticks.Inc()
			return nil
		})

		require.NoError(t, service.Start(ctx))
		assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 10*time.Millisecond)
		require.NoError(t, service.Stop(ctx))
	})
}

// behaviorFunc adapts a start function into a Behavior.
type behaviorFunc func(ctx context.Context, service *Service) error

func (f behaviorFunc) OnStart(ctx context.Context, service *Service) error { return f(ctx, service) }
func (f behaviorFunc) OnStop(context.Context, *Service) error              { return nil }

// closerFunc adapts a function into an io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// stubStrategy counts wakeups.
type stubStrategy struct {
	wakeups atomic.Int32
}

func (s *stubStrategy) Wakeup()                          { s.wakeups.Inc() }
func (s *stubStrategy) Add(...*Service)                  {}
func (s *stubStrategy) Discard(...*Service)              {}
func (s *stubStrategy) ServiceOperational(*Service) bool { return true }
func (s *stubStrategy) RestartService(context.Context, *Service) error {
	return nil
}

// restartRecorder counts restart hook invocations.
type restartRecorder struct {
	NoopBehavior
	restarts int
}

func (b *restartRecorder) OnRestart(context.Context, *Service) error {
	b.restarts++
	return nil
}

// firstStartRecorder counts first-start and start hook invocations.
type firstStartRecorder struct {
	NoopBehavior
	firstStarts int
	starts      int
}

func (b *firstStartRecorder) OnFirstStart(context.Context, *Service) error {
	b.firstStarts++
	return nil
}

func (b *firstStartRecorder) OnStart(context.Context, *Service) error {
	b.starts++
	return nil
}

// providerBehavior declares one dependency up front.
type providerBehavior struct {
	NoopBehavior
	child *Service
}

func (b *providerBehavior) InitDependencies() []*Service {
	return []*Service{b.child}
}

// shutdownRecorder counts shutdown hook invocations.
type shutdownRecorder struct {
	NoopBehavior
	shutdowns int
}

func (b *shutdownRecorder) OnShutdown(*Service) {
	b.shutdowns++
}
