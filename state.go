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

// State represents the lifecycle state of a service.
//
// The state moves monotonically along
// StateInit → StateStarting → StateStarted → StateStopping → StateStopped,
// with two exceptions: any state other than StateStopping/StateStopped may
// transition to StateCrashed, and StateCrashed/StateStopped may transition
// back to StateStarting through Restart only.
type State int32

const (
	// StateInit is the state of a service that has been created but never started.
	StateInit State = iota
	// StateStarting is the state of a service executing its start sequence.
	StateStarting
	// StateStarted is the state of a running service.
	StateStarted
	// StateStopping is the state of a service executing its stop sequence.
	StateStopping
	// StateStopped is the state of a service whose stop sequence completed.
	StateStopped
	// StateCrashed is the state of a service that recorded a failure.
	StateCrashed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// ShouldStop reports whether cooperative background loops observing this
// state are expected to wind down.
func (s State) ShouldStop() bool {
	return s == StateStopping || s == StateStopped || s == StateCrashed
}
