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
	"fmt"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/steward/log"
	"github.com/tochemey/steward/tree"
)

// DefaultShutdownTimeout is how long the stop sequence waits for background
// tasks before abandoning them.
const DefaultShutdownTimeout = 3 * time.Second

// Service is the lifecycle state machine wrapping a Behavior. A service owns
// an ordered list of dependency services, background tasks and timers, and
// two stacks of scoped resources. Starting a service starts its dependencies
// in declaration order before its own startup hook; stopping unwinds
// everything in the exact reverse order.
//
// A Service must not be copied after creation. Lifecycle hooks run while the
// lifecycle is being driven and must not call Start, Stop or Restart on their
// own service.
type Service struct {
	// id uniquely identifies this instance in logs and diagnostics
	id string
	// label names the service, derived from the behavior type by default
	label string
	// behavior is the user-defined part, nil for a pure container
	behavior Behavior

	// state is the lifecycle state
	state *atomic.Int32
	// crashReason is the failure recorded on entering StateCrashed
	crashReason *atomic.Error
	// restartCount is incremented by every completed restart
	restartCount *atomic.Int64
	// shutdownFlag is raised by SetShutdown and by the stop sequence
	shutdownFlag *atomic.Bool

	logger          log.Logger
	clock           clock.Clock
	shutdownTimeout time.Duration
	waitForShutdown bool

	// mutex serializes the lifecycle transitions
	mutex *sync.Mutex
	// firstStartDone guards the once-per-instance first-start hook
	firstStartDone bool

	// wiringMutex guards the ownership wiring below
	wiringMutex  *sync.Mutex
	dependencies []*Service
	parent       *Service
	supervisor   SupervisorStrategy
	specs        []taskSpec
	// pending holds resources registered before the service started
	pending []Resource
	// acquired is the async scoped-resource stack, in acquisition order
	acquired []Resource
	// closers is the sync scoped-resource stack, in registration order
	closers []io.Closer

	// beacon mirrors this service in the ownership tree
	beacon *tree.Node[*Service]

	// runMutex guards the per-run fields below; it is never held across a
	// blocking call so that a crashing task can always record its crash
	runMutex       *sync.Mutex
	runCancel      context.CancelFunc
	taskWaitGroup  *sync.WaitGroup
	tasksDone      chan struct{}
	tasksSpawned   bool
	stoppedChan    chan struct{}
	stoppedClosed  bool
	crashedChan    chan struct{}
	crashedClosed  bool
	shutdownChan   chan struct{}
	shutdownClosed bool
}

// NewService creates a service around the given behavior. A nil behavior
// yields a pure container service that only manages dependencies, tasks and
// resources.
func NewService(behavior Behavior, opts ...Option) *Service {
	service := &Service{
		id:              uuid.NewString(),
		behavior:        behavior,
		state:           atomic.NewInt32(int32(StateInit)),
		crashReason:     atomic.NewError(nil),
		restartCount:    atomic.NewInt64(0),
		shutdownFlag:    atomic.NewBool(false),
		logger:          log.DefaultLogger,
		clock:           clock.New(),
		shutdownTimeout: DefaultShutdownTimeout,
		mutex:           &sync.Mutex{},
		wiringMutex:     &sync.Mutex{},
		runMutex:        &sync.Mutex{},
	}

	service.label = defaultLabel(behavior)
	if labeled, ok := behavior.(Labeled); ok {
		service.label = labeled.Label()
	}

	// apply the various options
	for _, opt := range opts {
		opt.Apply(service)
	}

	service.beacon = tree.New(service)
	service.resetRunState()
	return service
}

// defaultLabel derives a label from the behavior type name.
func defaultLabel(behavior Behavior) string {
	if behavior == nil {
		return "Service"
	}
	rtype := reflect.TypeOf(behavior)
	for rtype.Kind() == reflect.Pointer {
		rtype = rtype.Elem()
	}
	if name := rtype.Name(); name != "" {
		return name
	}
	return rtype.String()
}

// ID returns the unique identifier of this service instance.
func (x *Service) ID() string {
	return x.id
}

// Label returns the service label.
func (x *Service) Label() string {
	return x.label
}

// String returns the service label, which makes beacon paths readable.
func (x *Service) String() string {
	return x.label
}

// State returns the current lifecycle state.
func (x *Service) State() State {
	return State(x.state.Load())
}

// Logger returns the logging engine of this service.
func (x *Service) Logger() log.Logger {
	return x.logger
}

// CrashReason returns the failure recorded by the last crash, or nil.
func (x *Service) CrashReason() error {
	return x.crashReason.Load()
}

// RestartCount returns how many times this service has been restarted.
func (x *Service) RestartCount() int64 {
	return x.restartCount.Load()
}

// ShouldStop reports whether cooperative loops owned by this service are
// expected to wind down promptly.
func (x *Service) ShouldStop() bool {
	return x.shutdownFlag.Load() || x.State().ShouldStop()
}

// Beacon returns the tree node mirroring this service.
func (x *Service) Beacon() *tree.Node[*Service] {
	return x.beacon
}

// Supervisor returns the strategy governing this service, or nil.
func (x *Service) Supervisor() SupervisorStrategy {
	x.wiringMutex.Lock()
	defer x.wiringMutex.Unlock()
	return x.supervisor
}

// setSupervisor wires the governing strategy. A nil strategy detaches the
// service so that subsequent crashes cascade to the parent again.
func (x *Service) setSupervisor(strategy SupervisorStrategy) {
	x.wiringMutex.Lock()
	x.supervisor = strategy
	x.wiringMutex.Unlock()
}

// Parent returns the owning service, or nil for a root.
func (x *Service) Parent() *Service {
	x.wiringMutex.Lock()
	defer x.wiringMutex.Unlock()
	return x.parent
}

// Dependencies returns the owned child services in declaration order.
func (x *Service) Dependencies() []*Service {
	x.wiringMutex.Lock()
	defer x.wiringMutex.Unlock()
	out := make([]*Service, len(x.dependencies))
	copy(out, x.dependencies)
	return out
}

// AddDependency registers a child service for lifecycle co-management and
// grafts its beacon under this service's beacon. It returns the child for
// chaining. Dependencies must be wired before the parent starts; use
// AddRuntimeDependency for services discovered at runtime.
func (x *Service) AddDependency(service *Service) *Service {
	if service == nil || service == x {
		return service
	}
	x.wiringMutex.Lock()
	x.dependencies = append(x.dependencies, service)
	x.wiringMutex.Unlock()

	service.wiringMutex.Lock()
	service.parent = x
	service.wiringMutex.Unlock()

	service.beacon.Reattach(x.beacon)
	return service
}

// AddRuntimeDependency registers a child service like AddDependency and
// additionally starts it right away when this service is already started.
func (x *Service) AddRuntimeDependency(ctx context.Context, service *Service) error {
	if x.AddDependency(service) == nil {
		return nil
	}
	if x.State() == StateStarted {
		return service.Start(ctx)
	}
	return nil
}

// AddCloser registers a synchronous scoped resource closed when the service
// stops, in reverse registration order.
func (x *Service) AddCloser(closer io.Closer) {
	if closer == nil {
		return
	}
	x.wiringMutex.Lock()
	x.closers = append(x.closers, closer)
	x.wiringMutex.Unlock()
}

// AddResource registers an asynchronous scoped resource. When the service
// has already begun its start sequence the resource is acquired immediately;
// otherwise acquisition happens during Start. Either way the resource is
// released when the service stops, in reverse acquisition order.
func (x *Service) AddResource(ctx context.Context, resource Resource) error {
	if resource == nil {
		return nil
	}
	if x.State() == StateInit {
		x.wiringMutex.Lock()
		x.pending = append(x.pending, resource)
		x.wiringMutex.Unlock()
		return nil
	}
	if err := resource.Acquire(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrResourceAcquisition, err)
	}
	x.wiringMutex.Lock()
	x.acquired = append(x.acquired, resource)
	x.wiringMutex.Unlock()
	return nil
}

// Start brings the service up. It is a no-op when the service is already
// starting or started. The sequence is: first-start hook (once per
// instance), scoped-resource acquisition, dependencies in declaration order,
// the behavior's OnStart, background tasks and timers, then StateStarted.
// A failure anywhere aborts the remainder, records the crash reason and is
// returned to the caller.
func (x *Service) Start(ctx context.Context) error {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	switch x.State() {
	case StateStarting, StateStarted:
		return nil
	default:
		return x.start(ctx)
	}
}

// MaybeStart is the idempotent variant of Start reporting whether a start
// sequence was actually performed.
func (x *Service) MaybeStart(ctx context.Context) (bool, error) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	switch x.State() {
	case StateStarting, StateStarted:
		return false, nil
	default:
		return true, x.start(ctx)
	}
}

// start runs the start sequence. The lifecycle mutex is held.
func (x *Service) start(ctx context.Context) error {
	x.setState(StateStarting)
	x.logger.Infof("service=(%s) is starting", x.label)

	// once per instance lifetime: collect declared dependencies and run the
	// first-start hook
	if !x.firstStartDone {
		x.firstStartDone = true
		if provider, ok := x.behavior.(DependenciesProvider); ok {
			for _, dependency := range provider.InitDependencies() {
				x.AddDependency(dependency)
			}
		}
		if starter, ok := x.behavior.(FirstStarter); ok {
			if err := starter.OnFirstStart(ctx, x); err != nil {
				return x.abortStart(err)
			}
		}
	}

	// acquire the resources registered ahead of the start
	x.wiringMutex.Lock()
	pending := x.pending
	x.pending = nil
	x.wiringMutex.Unlock()
	for _, resource := range pending {
		if err := resource.Acquire(ctx); err != nil {
			return x.abortStart(fmt.Errorf("%w: %w", ErrResourceAcquisition, err))
		}
		x.wiringMutex.Lock()
		x.acquired = append(x.acquired, resource)
		x.wiringMutex.Unlock()
	}

	// start the dependencies strictly in declaration order so that a later
	// dependency may assume the earlier ones are ready
	for _, dependency := range x.Dependencies() {
		if err := dependency.Start(ctx); err != nil {
			return x.abortStart(err)
		}
	}

	// run the service's own startup hook
	if x.behavior != nil {
		if err := x.behavior.OnStart(ctx, x); err != nil {
			return x.abortStart(err)
		}
	}

	// spawn the background tasks and timers
	x.spawnTasks(ctx)

	// a task may fail before the Started transition is taken; the transition
	// must never mask a recorded crash, recordCrash serializes on runMutex
	x.runMutex.Lock()
	if x.crashedClosed {
		x.runMutex.Unlock()
		reason := x.CrashReason()
		x.logger.Errorf("service=(%s) failed to start: %v", x.label, reason)
		return reason
	}
	x.setState(StateStarted)
	x.runMutex.Unlock()
	x.logger.Infof("service=(%s) started", x.label)

	if hook, ok := x.behavior.(StartedHook); ok {
		if err := hook.OnStarted(ctx, x); err != nil {
			return x.abortStart(err)
		}
	}
	return nil
}

// abortStart records a crash for a failed start sequence and hands the
// failure back to the caller.
func (x *Service) abortStart(reason error) error {
	x.recordCrash(reason)
	x.logger.Errorf("service=(%s) failed to start: %v", x.label, reason)
	return reason
}

// spawnTasks launches every declared task and timer on a run context that is
// cancelled when the service stops or crashes.
func (x *Service) spawnTasks(ctx context.Context) {
	x.wiringMutex.Lock()
	specs := make([]taskSpec, len(x.specs))
	copy(specs, x.specs)
	x.wiringMutex.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	x.runMutex.Lock()
	x.runCancel = cancel
	x.tasksSpawned = true
	waitGroup := x.taskWaitGroup
	tasksDone := x.tasksDone
	x.runMutex.Unlock()

	waitGroup.Add(len(specs))
	for _, spec := range specs {
		go x.runTask(runCtx, waitGroup, spec)
	}
	go func() {
		waitGroup.Wait()
		close(tasksDone)
	}()
}

// Stop tears the service down. It is a no-op when the service is already
// stopped. The teardown always runs to completion: task cancellation,
// behavior OnStop, scoped-resource release in reverse acquisition order,
// then dependencies in reverse declaration order. Errors along the way are
// aggregated and returned, a shutdown timeout is only logged.
func (x *Service) Stop(ctx context.Context) error {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	return x.stop(ctx)
}

// stop runs the stop sequence. The lifecycle mutex is held.
func (x *Service) stop(ctx context.Context) error {
	if x.State() == StateStopped {
		return nil
	}

	x.setState(StateStopping)
	x.shutdownFlag.Store(true)
	x.logger.Infof("service=(%s) is stopping", x.label)

	// cancel the background tasks and wait for them to drain
	x.runMutex.Lock()
	cancel := x.runCancel
	spawned := x.tasksSpawned
	tasksDone := x.tasksDone
	x.runMutex.Unlock()
	if cancel != nil {
		cancel()
	}
	if spawned {
		select {
		case <-tasksDone:
		case <-x.clock.After(x.shutdownTimeout):
			// an unresponsive task is reported, never waited on indefinitely
			x.logger.Errorf("service=(%s): %v", x.label, ErrShutdownTimeout)
		case <-ctx.Done():
			x.logger.Warnf("service=(%s) stop interrupted: %v", x.label, ctx.Err())
		}
	}

	// honor the cooperative shutdown contract when requested
	if x.waitForShutdown {
		select {
		case <-x.shutdownSignal():
		case <-x.clock.After(x.shutdownTimeout):
			x.logger.Errorf("service=(%s) timed out waiting for the shutdown signal", x.label)
		case <-ctx.Done():
		}
	}

	var errs error
	if x.behavior != nil {
		errs = multierr.Append(errs, x.behavior.OnStop(ctx, x))
	}

	// release the scoped resources in reverse acquisition order
	x.wiringMutex.Lock()
	acquired := x.acquired
	x.acquired = nil
	closers := x.closers
	x.closers = nil
	x.wiringMutex.Unlock()
	for i := len(acquired) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, acquired[i].Release(ctx))
	}
	for i := len(closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, closers[i].Close())
	}

	// stop the dependencies in reverse declaration order
	dependencies := x.Dependencies()
	for i := len(dependencies) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, dependencies[i].Stop(ctx))
	}

	x.setState(StateStopped)
	x.closeStopped()
	x.logger.Infof("service=(%s) stopped", x.label)
	return errs
}

// Crash fails the service. No error is ever raised back to the caller: the
// crash is recorded as state plus reason, background tasks are cancelled,
// and the failure is either handed to the governing supervisor or cascaded
// to the owning parent, up to the root of the tree.
func (x *Service) Crash(ctx context.Context, reason error) {
	if reason == nil {
		return
	}
	if !x.recordCrash(reason) {
		return
	}
	x.logger.Errorf("service=(%s) crashed: %v", x.label, reason)

	if supervisor := x.Supervisor(); supervisor != nil {
		supervisor.Wakeup()
		return
	}
	if parent := x.Parent(); parent != nil {
		parent.Crash(ctx, reason)
	}
}

// recordCrash is the synchronous crash bookkeeping step, safe to call from
// any goroutine and from non-blocking contexts. It reports whether the crash
// transition was taken.
func (x *Service) recordCrash(reason error) bool {
	x.runMutex.Lock()
	state := x.State()
	if state == StateStopping || state == StateStopped {
		x.runMutex.Unlock()
		return false
	}
	if x.crashReason.Load() == nil {
		x.crashReason.Store(reason)
	}
	alreadyCrashed := x.crashedClosed
	x.setState(StateCrashed)
	if !x.crashedClosed {
		x.crashedClosed = true
		close(x.crashedChan)
	}
	cancel := x.runCancel
	x.runMutex.Unlock()

	// a crashed service does not keep its background work running
	if cancel != nil {
		cancel()
	}
	return !alreadyCrashed
}

// Restart brings a stopped or crashed service back up. The per-run internal
// state is reset while configuration, wiring and the restart counter are
// preserved.
func (x *Service) Restart(ctx context.Context) error {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	switch x.State() {
	case StateStopped, StateCrashed:
	default:
		return fmt.Errorf("%w: service=(%s) state=(%s)", ErrNotRestartable, x.label, x.State())
	}

	x.reset()
	if hook, ok := x.behavior.(RestartHook); ok {
		if err := hook.OnRestart(ctx, x); err != nil {
			return x.abortStart(err)
		}
	}
	x.restartCount.Inc()
	x.logger.Infof("service=(%s) restarting, attempt=(%d)", x.label, x.restartCount.Load())
	return x.start(ctx)
}

// reset clears the per-run state ahead of a restart. Dependencies that are
// themselves terminal are reset recursively so the next start sequence can
// bring the whole subtree back.
func (x *Service) reset() {
	x.setState(StateInit)
	x.crashReason.Store(nil)
	x.resetRunState()
	for _, dependency := range x.Dependencies() {
		switch dependency.State() {
		case StateStopped, StateCrashed:
			dependency.mutex.Lock()
			dependency.reset()
			dependency.mutex.Unlock()
		}
	}
}

// resetRunState recreates the channels and flags scoped to a single run.
func (x *Service) resetRunState() {
	x.runMutex.Lock()
	defer x.runMutex.Unlock()
	x.shutdownFlag.Store(false)
	x.runCancel = nil
	x.tasksSpawned = false
	x.taskWaitGroup = &sync.WaitGroup{}
	x.tasksDone = make(chan struct{})
	x.stoppedChan = make(chan struct{})
	x.stoppedClosed = false
	x.crashedChan = make(chan struct{})
	x.crashedClosed = false
	x.shutdownChan = make(chan struct{})
	x.shutdownClosed = false
}

// SetShutdown raises the cooperative shutdown signal without performing a
// state transition: ShouldStop becomes true, sleeping timers wake up and the
// behavior's shutdown hook fires, but the teardown itself is left to Stop.
func (x *Service) SetShutdown() {
	x.shutdownFlag.Store(true)

	x.runMutex.Lock()
	if !x.shutdownClosed {
		x.shutdownClosed = true
		close(x.shutdownChan)
	}
	x.runMutex.Unlock()

	if hook, ok := x.behavior.(ShutdownHook); ok {
		hook.OnShutdown(x)
	}
}

// WaitUntilStopped suspends the caller until the service reaches
// StateStopped, or until the context is done.
func (x *Service) WaitUntilStopped(ctx context.Context) error {
	if x.State() == StateStopped {
		return nil
	}
	select {
	case <-x.stoppedSignal():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join suspends the caller until the service terminates: it returns nil once
// the service is stopped, or the crash reason once the service has crashed.
// This is the completion channel an external driver observes.
func (x *Service) Join(ctx context.Context) error {
	select {
	case <-x.stoppedSignal():
		return nil
	case <-x.crashedSignal():
		return x.CrashReason()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// setState stores the lifecycle state.
func (x *Service) setState(state State) {
	x.state.Store(int32(state))
}

// closeStopped releases every WaitUntilStopped waiter.
func (x *Service) closeStopped() {
	x.runMutex.Lock()
	defer x.runMutex.Unlock()
	if !x.stoppedClosed {
		x.stoppedClosed = true
		close(x.stoppedChan)
	}
}

func (x *Service) stoppedSignal() <-chan struct{} {
	x.runMutex.Lock()
	defer x.runMutex.Unlock()
	return x.stoppedChan
}

func (x *Service) crashedSignal() <-chan struct{} {
	x.runMutex.Lock()
	defer x.runMutex.Unlock()
	return x.crashedChan
}

func (x *Service) shutdownSignal() <-chan struct{} {
	x.runMutex.Lock()
	defer x.runMutex.Unlock()
	return x.shutdownChan
}
