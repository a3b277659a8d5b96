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

import "context"

// Resource is a scoped resource whose acquisition and release are bound to
// the lifetime of the owning service. Resources are released in the exact
// reverse order of their acquisition on every exit path.
type Resource interface {
	// Acquire acquires the resource.
	Acquire(ctx context.Context) error
	// Release releases the resource.
	Release(ctx context.Context) error
}

// ResourceFunc builds a Resource out of two functions. Either function may be
// nil for a one-sided resource.
type ResourceFunc struct {
	// AcquireFunc acquires the resource
	AcquireFunc func(ctx context.Context) error
	// ReleaseFunc releases the resource
	ReleaseFunc func(ctx context.Context) error
}

// enforce compilation error
var _ Resource = (*ResourceFunc)(nil)

// Acquire implements Resource.
func (x *ResourceFunc) Acquire(ctx context.Context) error {
	if x.AcquireFunc == nil {
		return nil
	}
	return x.AcquireFunc(ctx)
}

// Release implements Resource.
func (x *ResourceFunc) Release(ctx context.Context) error {
	if x.ReleaseFunc == nil {
		return nil
	}
	return x.ReleaseFunc(ctx)
}
