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

// Option is the interface that applies a configuration option to a Service.
type Option interface {
	// Apply sets the Option value of a Service.
	Apply(service *Service)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(service *Service)

// Apply applies the option to the Service
func (f OptionFunc) Apply(service *Service) {
	f(service)
}

// WithLabel overrides the type-derived service label.
func WithLabel(label string) Option {
	return OptionFunc(func(service *Service) {
		service.label = label
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(service *Service) {
		service.logger = logger
	})
}

// WithShutdownTimeout sets how long the stop sequence waits for background
// tasks to honor cancellation before abandoning them.
func WithShutdownTimeout(timeout time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.shutdownTimeout = timeout
	})
}

// WithWaitForShutdown makes the stop sequence wait for the cooperative
// shutdown signal raised by SetShutdown before tearing down.
func WithWaitForShutdown() Option {
	return OptionFunc(func(service *Service) {
		service.waitForShutdown = true
	})
}

// WithClock sets the time source, mainly to substitute a mock in tests.
func WithClock(cl clock.Clock) Option {
	return OptionFunc(func(service *Service) {
		service.clock = cl
	})
}
