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
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tochemey/steward/log"
)

// SupervisorOption is the interface that applies a configuration option to a
// Supervisor.
type SupervisorOption interface {
	// Apply sets the Option value of a Supervisor.
	Apply(supervisor *Supervisor)
}

var _ SupervisorOption = SupervisorOptionFunc(nil)

// SupervisorOptionFunc implements the SupervisorOption interface.
type SupervisorOptionFunc func(supervisor *Supervisor)

// Apply applies the option to the Supervisor
func (f SupervisorOptionFunc) Apply(supervisor *Supervisor) {
	f(supervisor)
}

// WithSupervised places the given services under supervision from the start.
func WithSupervised(services ...*Service) SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.pendingServices = append(supervisor.pendingServices, services...)
	})
}

// WithMaxRestarts sets the restart budget: the number of recovery attempts
// tolerated within the restart window before the budget is exhausted.
func WithMaxRestarts(maxRestarts int) SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.maxRestarts = maxRestarts
	})
}

// WithRestartWindow sets the sliding window the restart budget is measured
// over.
func WithRestartWindow(over time.Duration) SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.over = over
	})
}

// WithRaises sets the error raised when the restart budget is exhausted.
func WithRaises(err error) SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.raises = err
	})
}

// WithReplacement sets a factory building a fresh service to take over from
// a crashed one, instead of restarting the crashed instance in place.
func WithReplacement(replacement Replacement) SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.replacement = replacement
	})
}

// WithForfeitOnFirstCrash makes a forfeiting supervisor discard on the very
// first crash, skipping any restart attempt. Ignored by the non-forfeiting
// strategies.
func WithForfeitOnFirstCrash() SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.forfeitOnFirstCrash = true
	})
}

// WithCheckInterval sets the fallback tick of the wake loop.
func WithCheckInterval(interval time.Duration) SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.checkInterval = interval
	})
}

// WithSupervisorClock sets the time source, mainly to substitute a mock in
// tests.
func WithSupervisorClock(cl clock.Clock) SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.clock = cl
	})
}

// WithSupervisorLogger sets the logger
func WithSupervisorLogger(logger log.Logger) SupervisorOption {
	return SupervisorOptionFunc(func(supervisor *Supervisor) {
		supervisor.logger = logger
	})
}
