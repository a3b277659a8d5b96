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
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	goset "github.com/deckarep/golang-set/v2"
	"github.com/flowchartsman/retry"
	"go.uber.org/multierr"

	"github.com/tochemey/steward/future"
	"github.com/tochemey/steward/log"
)

// SupervisorStrategy is the contract between a service and the strategy
// governing it. A crashed service notifies its strategy through Wakeup
// instead of cascading the crash to its parent.
type SupervisorStrategy interface {
	// Wakeup nudges the strategy's wake loop. Safe from any goroutine.
	Wakeup()
	// Add places the given services under supervision.
	Add(services ...*Service)
	// Discard removes the given services from supervision. Their subsequent
	// crashes cascade normally.
	Discard(services ...*Service)
	// ServiceOperational reports whether the given service is healthy.
	ServiceOperational(service *Service) bool
	// RestartService performs the strategy-specific recovery of the given
	// crashed service.
	RestartService(ctx context.Context, service *Service) error
}

// Strategy enumerates the restart policies a Supervisor can apply.
type Strategy int

const (
	// OneForOne restarts only the crashed service; siblings are unaffected.
	OneForOne Strategy = iota
	// OneForAll stops and restarts every supervised service together when
	// any of them crashes.
	OneForAll
	// ForfeitOneForOne behaves like OneForOne until the restart budget is
	// exhausted, then permanently discards the affected service.
	ForfeitOneForOne
	// ForfeitOneForAll behaves like OneForAll until the restart budget is
	// exhausted, then permanently discards every supervised service.
	ForfeitOneForAll
	// Crashing converts any crash of a supervised service into a crash of
	// the supervisor itself, with no restart attempted.
	Crashing
)

// String returns the name of the strategy.
func (s Strategy) String() string {
	switch s {
	case OneForOne:
		return "OneForOne"
	case OneForAll:
		return "OneForAll"
	case ForfeitOneForOne:
		return "ForfeitOneForOne"
	case ForfeitOneForAll:
		return "ForfeitOneForAll"
	case Crashing:
		return "Crashing"
	default:
		return "Unknown"
	}
}

// Replacement builds a fresh service to take the place of a crashed one.
// The attempt number counts the recovery attempts for the crashed service.
type Replacement func(service *Service, attempt int) (*Service, error)

const (
	// DefaultMaxRestarts is the default restart budget.
	DefaultMaxRestarts = 100
	// DefaultRestartWindow is the default sliding window the budget is
	// measured over.
	DefaultRestartWindow = time.Second
	// DefaultCheckInterval is the fallback tick of the wake loop.
	DefaultCheckInterval = time.Second
)

// restart attempts that fail transiently are retried a few times before the
// failure is surfaced to the wake loop
const (
	restartRetries      = 3
	restartRetryInitial = 100 * time.Millisecond
	restartRetryMax     = time.Second
)

// Supervisor is the restart-policy engine. It is itself a service: its wake
// loop runs as a background task of its own service node, suspending until a
// supervised crash, a supervised-set change or a periodic tick, and then
// reconciling the supervised set against the configured Strategy.
type Supervisor struct {
	strategy Strategy
	service  *Service

	maxRestarts         int
	over                time.Duration
	raises              error
	replacement         Replacement
	forfeitOnFirstCrash bool
	checkInterval       time.Duration
	clock               clock.Clock
	logger              log.Logger

	// wakeupChan is the single-consumer wake signal of the loop
	wakeupChan chan struct{}

	// pendingServices holds services handed over through options until the
	// service node exists
	pendingServices []*Service

	// setMutex guards the supervised set and the crash ledgers. External
	// Add/Discard calls only mutate intent here and enqueue a wake; restart
	// decisions are made solely inside the wake loop.
	setMutex   *sync.Mutex
	supervised []*Service
	index      goset.Set[*Service]
	// ledgers holds the per-service crash-timestamp history
	ledgers map[*Service][]time.Time
	// sharedLedger is the per-supervisor history used by the OneForAll family
	sharedLedger []time.Time
	// attempts counts all-time recovery attempts per service
	attempts map[*Service]int
}

// enforce compilation error
var (
	_ SupervisorStrategy = (*Supervisor)(nil)
	_ Behavior           = (*Supervisor)(nil)
)

// NewOneForOneSupervisor creates a supervisor restarting only the crashed
// service, bounded by the restart budget.
func NewOneForOneSupervisor(opts ...SupervisorOption) *Supervisor {
	return newSupervisor(OneForOne, opts...)
}

// NewOneForAllSupervisor creates a supervisor restarting every supervised
// service together whenever any of them crashes.
func NewOneForAllSupervisor(opts ...SupervisorOption) *Supervisor {
	return newSupervisor(OneForAll, opts...)
}

// NewForfeitOneForOneSupervisor creates a OneForOne supervisor that discards
// the affected service once the restart budget is exhausted instead of
// crashing itself.
func NewForfeitOneForOneSupervisor(opts ...SupervisorOption) *Supervisor {
	return newSupervisor(ForfeitOneForOne, opts...)
}

// NewForfeitOneForAllSupervisor creates a OneForAll supervisor that discards
// every supervised service once the restart budget is exhausted instead of
// crashing itself.
func NewForfeitOneForAllSupervisor(opts ...SupervisorOption) *Supervisor {
	return newSupervisor(ForfeitOneForAll, opts...)
}

// NewCrashingSupervisor creates a fail-fast supervisor converting any
// supervised crash into a crash of the supervisor itself.
func NewCrashingSupervisor(opts ...SupervisorOption) *Supervisor {
	return newSupervisor(Crashing, opts...)
}

func newSupervisor(strategy Strategy, opts ...SupervisorOption) *Supervisor {
	supervisor := &Supervisor{
		strategy:      strategy,
		maxRestarts:   DefaultMaxRestarts,
		over:          DefaultRestartWindow,
		raises:        ErrMaxRestartsExceeded,
		checkInterval: DefaultCheckInterval,
		clock:         clock.New(),
		logger:        log.DefaultLogger,
		wakeupChan:    make(chan struct{}, 1),
		setMutex:      &sync.Mutex{},
		index:         goset.NewSet[*Service](),
		ledgers:       make(map[*Service][]time.Time),
		attempts:      make(map[*Service]int),
	}

	// apply the various options
	for _, opt := range opts {
		opt.Apply(supervisor)
	}

	supervisor.service = NewService(supervisor,
		WithLabel(fmt.Sprintf("%sSupervisor", strategy)),
		WithLogger(supervisor.logger),
		WithClock(supervisor.clock))
	supervisor.service.AddNamedTask("wake-loop", supervisor.wakeLoop)

	supervisor.Add(supervisor.pendingServices...)
	supervisor.pendingServices = nil
	return supervisor
}

// AsService returns the service node running this supervisor, for wiring the
// supervisor as a dependency of a parent service.
func (x *Supervisor) AsService() *Service {
	return x.service
}

// Start starts the supervisor and every supervised service.
func (x *Supervisor) Start(ctx context.Context) error {
	return x.service.Start(ctx)
}

// Stop stops the supervisor and every supervised service.
func (x *Supervisor) Stop(ctx context.Context) error {
	return x.service.Stop(ctx)
}

// Join suspends the caller until the supervisor terminates.
func (x *Supervisor) Join(ctx context.Context) error {
	return x.service.Join(ctx)
}

// State returns the lifecycle state of the supervisor's service node.
func (x *Supervisor) State() State {
	return x.service.State()
}

// OnStart implements Behavior: every supervised service is brought up.
func (x *Supervisor) OnStart(ctx context.Context, _ *Service) error {
	for _, service := range x.snapshot() {
		if _, err := service.MaybeStart(ctx); err != nil {
			return err
		}
	}
	return nil
}

// OnStop implements Behavior: the supervised services are stopped in the
// reverse of their supervision order.
func (x *Supervisor) OnStop(ctx context.Context, _ *Service) error {
	var errs error
	supervised := x.snapshot()
	for i := len(supervised) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, supervised[i].Stop(ctx))
	}
	return errs
}

// Wakeup nudges the wake loop without blocking.
func (x *Supervisor) Wakeup() {
	future.Notify(x.wakeupChan)
}

// Add places the given services under supervision. Already supervised
// services are ignored. When the supervisor is running, newly added services
// are started by the next wake-loop pass.
func (x *Supervisor) Add(services ...*Service) {
	x.setMutex.Lock()
	for _, service := range services {
		if service == nil || x.index.Contains(service) {
			continue
		}
		x.index.Add(service)
		x.supervised = append(x.supervised, service)
		service.setSupervisor(x)
		if x.service != nil {
			service.Beacon().Reattach(x.service.Beacon())
		}
	}
	x.setMutex.Unlock()
	x.Wakeup()
}

// Discard removes the given services from supervision. A discarded service
// is never restarted again by this supervisor and its crashes cascade
// normally afterwards.
func (x *Supervisor) Discard(services ...*Service) {
	x.setMutex.Lock()
	for _, service := range services {
		if service == nil || !x.index.Contains(service) {
			continue
		}
		x.index.Remove(service)
		for i, supervised := range x.supervised {
			if supervised == service {
				x.supervised = append(x.supervised[:i], x.supervised[i+1:]...)
				break
			}
		}
		service.setSupervisor(nil)
		delete(x.ledgers, service)
		delete(x.attempts, service)
	}
	x.setMutex.Unlock()
	x.Wakeup()
}

// Supervised returns the supervised services in supervision order.
func (x *Supervisor) Supervised() []*Service {
	return x.snapshot()
}

// ServiceOperational reports whether the given service is started and free
// of any recorded crash.
func (x *Supervisor) ServiceOperational(service *Service) bool {
	return service.State() == StateStarted && service.CrashReason() == nil
}

// wakeLoop is the supervisor's background task: it suspends until woken by a
// crash notification, a supervised-set change or the periodic tick, then
// reconciles. A reconcile error crashes the supervisor's own service, which
// cascades to its parent.
func (x *Supervisor) wakeLoop(ctx context.Context, service *Service) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-x.wakeupChan:
		case <-x.clock.After(x.checkInterval):
		}
		if service.ShouldStop() {
			return nil
		}
		if err := x.reconcile(ctx); err != nil {
			return err
		}
	}
}

// reconcile scans the supervised set and recovers crashed services according
// to the strategy.
func (x *Supervisor) reconcile(ctx context.Context) error {
	for _, service := range x.snapshot() {
		switch service.State() {
		case StateInit:
			// services added at runtime are brought up on the next pass
			if _, err := service.MaybeStart(ctx); err != nil {
				return err
			}
		case StateCrashed:
			if err := x.RestartService(ctx, service); err != nil {
				return err
			}
			if x.strategy == OneForAll || x.strategy == ForfeitOneForAll {
				// the whole set was already recovered in one sweep
				return nil
			}
		}
	}
	return nil
}

// RestartService performs the strategy-specific recovery of the given
// crashed service. The attempt is charged against the restart budget first;
// an exhausted budget either discards (Forfeit family) or returns the
// configured raises error, crashing the supervisor.
func (x *Supervisor) RestartService(ctx context.Context, service *Service) error {
	switch x.strategy {
	case Crashing:
		return fmt.Errorf("%w: service=(%s): %w", x.raises, service.Label(), service.CrashReason())
	case OneForAll, ForfeitOneForAll:
		return x.restartAll(ctx, service)
	default:
		return x.restartOne(ctx, service)
	}
}

// restartOne recovers a single crashed service, in place or via replacement.
func (x *Supervisor) restartOne(ctx context.Context, service *Service) error {
	if x.forfeits() && x.forfeitOnFirstCrash {
		x.logger.Warnf("supervisor=(%s) forfeiting service=(%s) on first crash", x.service.Label(), service.Label())
		x.Discard(service)
		return nil
	}

	attempt, withinBudget := x.recordAttempt(service)
	if !withinBudget {
		if x.forfeits() {
			x.logger.Warnf("supervisor=(%s) restart budget exhausted, forfeiting service=(%s)", x.service.Label(), service.Label())
			x.Discard(service)
			return nil
		}
		return fmt.Errorf("%w: service=(%s)", x.raises, service.Label())
	}

	if x.replacement != nil {
		return x.replace(ctx, service, attempt)
	}

	retrier := retry.NewRetrier(restartRetries, restartRetryInitial, restartRetryMax)
	return retrier.RunContext(ctx, func(ctx context.Context) error {
		switch service.State() {
		case StateCrashed, StateStopped:
			return service.Restart(ctx)
		default:
			return nil
		}
	})
}

// replace swaps a crashed service for a fresh instance built by the
// configured replacement factory.
func (x *Supervisor) replace(ctx context.Context, service *Service, attempt int) error {
	fresh, err := x.replacement(service, attempt)
	if err != nil {
		return fmt.Errorf("failed to build the replacement of service=(%s): %w", service.Label(), err)
	}

	if err := service.Stop(ctx); err != nil {
		x.logger.Warnf("supervisor=(%s) failed to stop the crashed service=(%s): %v", x.service.Label(), service.Label(), err)
	}

	// adopt the fresh instance in place of the crashed one
	x.setMutex.Lock()
	for i, supervised := range x.supervised {
		if supervised == service {
			x.supervised[i] = fresh
			break
		}
	}
	x.index.Remove(service)
	x.index.Add(fresh)
	x.ledgers[fresh] = x.ledgers[service]
	x.attempts[fresh] = x.attempts[service]
	delete(x.ledgers, service)
	delete(x.attempts, service)
	service.setSupervisor(nil)
	fresh.setSupervisor(x)
	x.setMutex.Unlock()

	service.Beacon().Detach(x.service.Beacon())
	fresh.Beacon().Reattach(x.service.Beacon())
	return fresh.Start(ctx)
}

// restartAll stops every supervised service then restarts them together so
// shared invariants are re-established atomically. No supervised service is
// started while another is still mid-restart.
func (x *Supervisor) restartAll(ctx context.Context, crashed *Service) error {
	if x.forfeits() && x.forfeitOnFirstCrash {
		x.logger.Warnf("supervisor=(%s) forfeiting the whole supervised set on first crash", x.service.Label())
		x.Discard(x.snapshot()...)
		return nil
	}

	_, withinBudget := x.recordSharedAttempt()
	if !withinBudget {
		if x.forfeits() {
			x.logger.Warnf("supervisor=(%s) restart budget exhausted, forfeiting the whole supervised set", x.service.Label())
			x.Discard(x.snapshot()...)
			return nil
		}
		return fmt.Errorf("%w: service=(%s)", x.raises, crashed.Label())
	}

	supervised := x.snapshot()
	// fate-sharing: stop everything first, in reverse supervision order
	for i := len(supervised) - 1; i >= 0; i-- {
		if err := supervised[i].Stop(ctx); err != nil {
			x.logger.Warnf("supervisor=(%s) failed to stop service=(%s): %v", x.service.Label(), supervised[i].Label(), err)
		}
	}
	for _, service := range supervised {
		if err := service.Restart(ctx); err != nil {
			return err
		}
	}
	return nil
}

// forfeits reports whether the strategy permanently discards services
// instead of raising on budget exhaustion.
func (x *Supervisor) forfeits() bool {
	return x.strategy == ForfeitOneForOne || x.strategy == ForfeitOneForAll
}

// recordAttempt timestamps a recovery attempt for the given service and
// evaluates it against the sliding restart budget.
func (x *Supervisor) recordAttempt(service *Service) (attempt int, withinBudget bool) {
	x.setMutex.Lock()
	defer x.setMutex.Unlock()
	x.attempts[service]++
	x.ledgers[service] = x.appendAttempt(x.ledgers[service])
	return x.attempts[service], len(x.ledgers[service]) <= x.maxRestarts
}

// recordSharedAttempt is recordAttempt against the per-supervisor ledger
// used by the OneForAll family.
func (x *Supervisor) recordSharedAttempt() (attempt int, withinBudget bool) {
	x.setMutex.Lock()
	defer x.setMutex.Unlock()
	x.sharedLedger = x.appendAttempt(x.sharedLedger)
	return len(x.sharedLedger), len(x.sharedLedger) <= x.maxRestarts
}

// appendAttempt prunes the entries that slid out of the trailing window,
// appends the current attempt and bounds the history length.
func (x *Supervisor) appendAttempt(ledger []time.Time) []time.Time {
	now := x.clock.Now()
	pruned := ledger[:0]
	for _, timestamp := range ledger {
		if now.Sub(timestamp) <= x.over {
			pruned = append(pruned, timestamp)
		}
	}
	pruned = append(pruned, now)
	// the window can never hold more than maxRestarts+1 relevant entries
	if overflow := len(pruned) - (x.maxRestarts + 1); overflow > 0 {
		pruned = pruned[overflow:]
	}
	return pruned
}

// snapshot returns the supervised services in supervision order.
func (x *Supervisor) snapshot() []*Service {
	x.setMutex.Lock()
	defer x.setMutex.Unlock()
	out := make([]*Service, len(x.supervised))
	copy(out, x.supervised)
	return out
}
