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

package future

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// stampedeKey is the single flight group key. A Stampede guards exactly one
// operation so a fixed key is enough.
const stampedeKey = "in-flight"

// Stampede wraps an idempotent initializer with thundering-herd protection:
// concurrent callers observe exactly one in-flight execution and share its
// outcome. Cancelling the context of the executing call propagates the
// cancellation to every waiter. Once the call completes, successfully or not,
// the in-flight marker is cleared and the next call executes again.
type Stampede[T any] struct {
	fun   func(ctx context.Context) (T, error)
	group singleflight.Group
}

// NewStampede creates a stampede wrapper around the given initializer.
func NewStampede[T any](fun func(ctx context.Context) (T, error)) *Stampede[T] {
	return &Stampede[T]{fun: fun}
}

// Do runs the wrapped initializer, or joins the execution already in flight.
// The context of the caller that actually executes governs the call.
func (x *Stampede[T]) Do(ctx context.Context) (T, error) {
	result, err, _ := x.group.Do(stampedeKey, func() (any, error) {
		return x.fun(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
