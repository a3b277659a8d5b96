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

package worker

import (
	"io"
	"os"
	"time"

	"github.com/tochemey/steward"
	"github.com/tochemey/steward/log"
	"github.com/tochemey/steward/registry"
)

// Option is the interface that applies a configuration option to a Worker.
type Option interface {
	// Apply sets the Option value of a Worker.
	Apply(worker *Worker)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(worker *Worker)

// Apply applies the option to the Worker
func (f OptionFunc) Apply(worker *Worker) {
	f(worker)
}

// WithServices sets the top-level services the worker drives.
func WithServices(services ...*steward.Service) Option {
	return OptionFunc(func(worker *Worker) {
		worker.services = append(worker.services, services...)
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(worker *Worker) {
		worker.logger = logger
	})
}

// WithQuiet silences the worker's own logging.
func WithQuiet() Option {
	return OptionFunc(func(worker *Worker) {
		worker.logger = log.New(log.InfoLevel, io.Discard)
	})
}

// WithSignals overrides the OS signals triggering a graceful stop.
func WithSignals(signals ...os.Signal) Option {
	return OptionFunc(func(worker *Worker) {
		worker.signals = signals
	})
}

// WithNonDaemon makes Run return right after a successful start instead of
// blocking until a signal or a crash.
func WithNonDaemon() Option {
	return OptionFunc(func(worker *Worker) {
		worker.daemon = false
	})
}

// WithRegistry enables periodic snapshots of the service tree into the given
// registry.
func WithRegistry(reg *registry.Registry) Option {
	return OptionFunc(func(worker *Worker) {
		worker.registry = reg
	})
}

// WithSnapshotInterval sets the registry snapshot period.
func WithSnapshotInterval(interval time.Duration) Option {
	return OptionFunc(func(worker *Worker) {
		worker.snapshotInterval = interval
	})
}
