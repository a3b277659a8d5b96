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

// Behavior defines the user-provided part of a service. The runtime wraps a
// Behavior into a Service that owns its lifecycle, dependencies, background
// tasks and scoped resources.
//
// A Behavior may additionally implement any of the optional capability
// interfaces (DependenciesProvider, FirstStarter, StartedHook, ShutdownHook,
// RestartHook, Labeled); missing capabilities default to no-ops.
type Behavior interface {
	// OnStart is the service's own startup hook. It runs after every
	// dependency has started and before background tasks are spawned.
	// A non-nil error aborts the start sequence and crashes the service.
	OnStart(ctx context.Context, service *Service) error
	// OnStop runs at the beginning of the teardown sequence, after background
	// tasks have been cancelled and before scoped resources are released.
	OnStop(ctx context.Context, service *Service) error
}

// DependenciesProvider is implemented by behaviors that declare their
// dependency services up front. The returned services are registered, in
// order, during the first start of the owning service.
type DependenciesProvider interface {
	InitDependencies() []*Service
}

// FirstStarter is implemented by behaviors that need a hook running exactly
// once per instance lifetime, before anything else starts.
type FirstStarter interface {
	OnFirstStart(ctx context.Context, service *Service) error
}

// StartedHook is implemented by behaviors that want to run once the service
// has fully transitioned to StateStarted.
type StartedHook interface {
	OnStarted(ctx context.Context, service *Service) error
}

// ShutdownHook is implemented by behaviors that want to observe the
// cooperative shutdown signal raised by SetShutdown.
type ShutdownHook interface {
	OnShutdown(service *Service)
}

// RestartHook is implemented by behaviors that want to run right before a
// restart re-enters the start sequence.
type RestartHook interface {
	OnRestart(ctx context.Context, service *Service) error
}

// Labeled is implemented by behaviors that provide their own service label
// instead of the default type-derived one.
type Labeled interface {
	Label() string
}

// NoopBehavior is a Behavior whose hooks all succeed without doing anything.
// Embed it to only override the hooks of interest.
type NoopBehavior struct{}

// enforce compilation error
var _ Behavior = (*NoopBehavior)(nil)

// OnStart implements Behavior.
func (NoopBehavior) OnStart(context.Context, *Service) error { return nil }

// OnStop implements Behavior.
func (NoopBehavior) OnStop(context.Context, *Service) error { return nil }
