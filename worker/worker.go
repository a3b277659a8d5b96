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

// Package worker is the process-level driver of a service tree. A Worker
// wraps the given services into a root service, runs them until an OS signal
// or a crash, and converts the outcome into a process exit code.
package worker

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tochemey/steward"
	"github.com/tochemey/steward/log"
	"github.com/tochemey/steward/registry"
)

// DefaultSnapshotInterval is how often the service tree is snapshotted into
// the registry when one is configured.
const DefaultSnapshotInterval = 5 * time.Second

// Worker drives a tree of services as a foreground process: it starts the
// given services as dependencies of a root service, installs the signal
// handlers, optionally snapshots the tree into a registry, and blocks until
// termination.
type Worker struct {
	// service is the root service owning the driven tree
	service *steward.Service
	// services are the top-level services to drive
	services []*steward.Service
	logger   log.Logger
	// signals are the OS signals triggering a graceful stop
	signals    []os.Signal
	signalChan chan os.Signal
	// daemon keeps the worker running until a signal or a crash
	daemon bool
	// registry receives periodic tree snapshots when set
	registry         *registry.Registry
	snapshotInterval time.Duration
}

// enforce compilation error
var _ steward.Behavior = (*Worker)(nil)

// New creates a worker driving the given services.
func New(opts ...Option) *Worker {
	worker := &Worker{
		logger:           log.DefaultLogger,
		signals:          []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		signalChan:       make(chan os.Signal, 1),
		daemon:           true,
		snapshotInterval: DefaultSnapshotInterval,
	}

	// apply the various options
	for _, opt := range opts {
		opt.Apply(worker)
	}

	worker.service = steward.NewService(worker,
		steward.WithLabel("Worker"),
		steward.WithLogger(worker.logger))
	for _, service := range worker.services {
		worker.service.AddDependency(service)
	}
	if worker.daemon {
		worker.service.AddNamedTask("signals", worker.watchSignals)
	}
	if worker.registry != nil {
		worker.service.AddTimer(worker.snapshotInterval, worker.snapshot)
	}
	return worker
}

// AsService returns the root service owning the driven tree.
func (x *Worker) AsService() *steward.Service {
	return x.service
}

// OnFirstStart implements steward.FirstStarter: the registry is connected
// and the signal handlers are installed.
func (x *Worker) OnFirstStart(ctx context.Context, _ *steward.Service) error {
	if x.registry != nil {
		if err := x.registry.Connect(ctx); err != nil {
			return err
		}
	}
	if x.daemon {
		signal.Notify(x.signalChan, x.signals...)
	}
	return nil
}

// OnStart implements steward.Behavior.
func (x *Worker) OnStart(context.Context, *steward.Service) error {
	return nil
}

// OnStop implements steward.Behavior: the signal handlers are removed and
// the registry disconnected.
func (x *Worker) OnStop(ctx context.Context, _ *steward.Service) error {
	signal.Stop(x.signalChan)
	if x.registry != nil {
		return x.registry.Disconnect(ctx)
	}
	return nil
}

// Run starts the tree and blocks until it terminates. It returns nil after a
// graceful stop and the crash reason after a crash. The given context bounds
// the startup and teardown sequences, not the running time.
func (x *Worker) Run(ctx context.Context) error {
	if err := x.service.Start(ctx); err != nil {
		_ = x.service.Stop(context.WithoutCancel(ctx))
		return err
	}

	if !x.daemon {
		return x.service.Stop(ctx)
	}

	reason := x.service.Join(ctx)
	// a crash leaves the tree up; always unwind before reporting
	if err := x.service.Stop(context.WithoutCancel(ctx)); err != nil {
		x.logger.Errorf("worker teardown reported: %v", err)
	}
	return reason
}

// Execute runs the worker and converts the outcome into a process exit code.
func (x *Worker) Execute() int {
	if err := x.Run(context.Background()); err != nil {
		x.logger.Errorf("worker terminated: %v", err)
		return 1
	}
	return 0
}

// watchSignals is the background task turning a termination signal into a
// graceful stop of the whole tree.
func (x *Worker) watchSignals(ctx context.Context, service *steward.Service) error {
	select {
	case <-ctx.Done():
		return nil
	case sig := <-x.signalChan:
		x.logger.Infof("received signal=(%s), stopping", sig)
		// Stop cannot run on the task goroutine: the stop sequence waits for
		// the tasks to drain
		go func() {
			_ = service.Stop(context.Background())
		}()
		return nil
	}
}

// snapshot records the current state of every service in the tree.
func (x *Worker) snapshot(ctx context.Context, service *steward.Service) error {
	now := time.Now()
	var entries []*registry.Entry
	for node := range service.Beacon().Traverse() {
		current := node.Data()
		entries = append(entries, &registry.Entry{
			ServiceID:    current.ID(),
			Label:        current.Label(),
			State:        current.State().String(),
			Path:         node.Path(),
			RestartCount: current.RestartCount(),
			UpdatedAt:    now,
		})
	}
	return x.registry.Record(ctx, entries...)
}
