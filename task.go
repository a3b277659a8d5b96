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
	"time"
)

// Task is a unit of background work owned by a service. A task starts when
// the service reaches StateStarted and its context is cancelled when the
// service stops or crashes. Returning a non-nil error while the service is
// not shutting down crashes the service.
type Task func(ctx context.Context, service *Service) error

// taskSpec is a declared task or timer
type taskSpec struct {
	// name identifies the task in logs
	name string
	// task is the body to run
	task Task
	// interval is zero for a one-shot task, otherwise the timer period
	interval time.Duration
}

// AddTask declares a background task. Valid before the service starts, or
// between a stop and a restart.
func (x *Service) AddTask(task Task) {
	x.AddNamedTask("", task)
}

// AddNamedTask declares a background task carrying a name for diagnostics.
func (x *Service) AddNamedTask(name string, task Task) {
	if task == nil {
		return
	}
	x.wiringMutex.Lock()
	x.specs = append(x.specs, taskSpec{name: name, task: task})
	x.wiringMutex.Unlock()
}

// AddTimer declares a periodic task repeating at the given interval. The
// underlying sleep is cancellation-aware so shutdown latency is bounded by
// cancellation delivery, not the interval.
func (x *Service) AddTimer(interval time.Duration, task Task) {
	if task == nil || interval <= 0 {
		return
	}
	x.wiringMutex.Lock()
	x.specs = append(x.specs, taskSpec{task: task, interval: interval})
	x.wiringMutex.Unlock()
}

// runTask is the goroutine body of a spawned task or timer.
func (x *Service) runTask(ctx context.Context, waitGroup *sync.WaitGroup, spec taskSpec) {
	defer waitGroup.Done()

	var err error
	if spec.interval > 0 {
		err = x.runTimer(ctx, spec)
	} else {
		err = spec.task(ctx, x)
	}

	// cancellation during shutdown is the expected exit path
	if err == nil || errors.Is(err, context.Canceled) || x.ShouldStop() {
		return
	}

	name := spec.name
	if name == "" {
		name = "task"
	}
	x.logger.Errorf("service=(%s) %s failed: %v", x.label, name, err)
	x.Crash(context.WithoutCancel(ctx), err)
}

// runTimer repeats the task body at a fixed interval until shutdown.
func (x *Service) runTimer(ctx context.Context, spec taskSpec) error {
	for {
		if !x.Sleep(ctx, spec.interval) {
			return nil
		}
		if err := spec.task(ctx, x); err != nil {
			return err
		}
	}
}

// Sleep suspends the caller for the given duration. It returns early, with
// false, once the service should stop or the context is cancelled.
func (x *Service) Sleep(ctx context.Context, duration time.Duration) bool {
	if x.ShouldStop() {
		return false
	}

	timer := x.clock.Timer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return !x.ShouldStop()
	case <-ctx.Done():
		return false
	case <-x.shutdownSignal():
		return false
	}
}
