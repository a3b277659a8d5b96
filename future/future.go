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

// Package future provides the small completion primitives the service runtime
// is built upon: a one-shot settable Future, a lockless single-consumer
// notification and a single-flight wrapper for idempotent initializers.
package future

import (
	"context"
	"sync"
)

// Future is a one-shot container for a result that may not exist yet.
// All mutators are safe on a nil receiver and report whether they actually
// settled the future, mirroring best-effort completion semantics.
type Future[T any] struct {
	mu sync.Mutex
	// done is closed once the future is settled
	done chan struct{}
	// value and err hold the outcome
	value   T
	err     error
	settled bool
}

// New creates a pending future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Done creates a future that is already completed with the given value.
func Done[T any](value T) *Future[T] {
	fut := New[T]()
	fut.Complete(value)
	return fut
}

// Complete settles the future with the given value. It returns false when the
// future is nil or already settled.
func (x *Future[T]) Complete(value T) bool {
	if x == nil {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.settled {
		return false
	}
	x.value = value
	x.settled = true
	close(x.done)
	return true
}

// Fail settles the future with the given error. It returns false when the
// future is nil or already settled.
func (x *Future[T]) Fail(err error) bool {
	if x == nil {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.settled {
		return false
	}
	x.err = err
	x.settled = true
	close(x.done)
	return true
}

// Cancel settles the future with context.Canceled. It returns false when the
// future is nil or already settled.
func (x *Future[T]) Cancel() bool {
	return x.Fail(context.Canceled)
}

// IsDone reports whether the future has been settled.
func (x *Future[T]) IsDone() bool {
	if x == nil {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.settled
}

// Await blocks until the future is settled or the context is done and
// returns the outcome.
func (x *Future[T]) Await(ctx context.Context) (T, error) {
	var zero T
	if x == nil {
		return zero, context.Canceled
	}
	select {
	case <-x.done:
		x.mu.Lock()
		defer x.mu.Unlock()
		return x.value, x.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Notify performs a non-blocking send on the given channel. It is the
// lockless single-consumer wakeup primitive: a nil channel or a channel whose
// buffer already carries a pending signal is left alone.
func Notify(ch chan<- struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}
