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

// Package registry provides an in-memory inventory of service states. A
// driver snapshots its service tree into the registry so that diagnostics
// can query the latest observed state, path and restart count per service.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
	"go.uber.org/atomic"
)

// ErrNotConnected is returned when the registry is used before Connect.
var ErrNotConnected = errors.New("registry is not connected")

// Entry is one recorded observation of a service.
type Entry struct {
	// ServiceID is the unique identifier of the service instance
	ServiceID string
	// Label is the human-readable service name
	Label string
	// State is the lifecycle state at observation time
	State string
	// Path is the dot-joined beacon path from the tree root
	Path string
	// RestartCount is the number of restarts at observation time
	RestartCount int64
	// UpdatedAt is when the observation was recorded
	UpdatedAt time.Time
}

// Registry keeps in memory the latest observed state of every recorded
// service.
// NOTE: NOT RECOMMENDED FOR PRODUCTION CODE because all records are in memory and there is no durability.
type Registry struct {
	// specifies the underlying database
	db *memdb.MemDB
	// hold the connection state to avoid multiple connection of the same instance
	connected *atomic.Bool
}

// New creates a new instance of Registry
func New() *Registry {
	return &Registry{
		connected: atomic.NewBool(false),
	}
}

// Connect connects the registry
func (x *Registry) Connect(_ context.Context) error {
	if x.connected.Load() {
		return nil
	}

	db, err := memdb.NewMemDB(servicesSchema)
	if err != nil {
		return err
	}
	x.db = db

	x.connected.Store(true)
	return nil
}

// Disconnect disconnects the registry and frees every record
func (x *Registry) Disconnect(_ context.Context) error {
	if !x.connected.Load() {
		return nil
	}

	txn := x.db.Txn(true)
	if _, err := txn.DeleteAll(servicesTableName, servicesPK); err != nil {
		txn.Abort()
		return fmt.Errorf("failed to free memory resource: %w", err)
	}
	txn.Commit()

	x.connected.Store(false)
	return nil
}

// Record upserts the given entries, keyed by service ID.
func (x *Registry) Record(_ context.Context, entries ...*Entry) error {
	if !x.connected.Load() {
		return ErrNotConnected
	}

	txn := x.db.Txn(true)
	for _, entry := range entries {
		if err := txn.Insert(servicesTableName, entry); err != nil {
			txn.Abort()
			return fmt.Errorf("failed to record the service entry: %w", err)
		}
	}
	txn.Commit()
	return nil
}

// Get returns the latest entry recorded for the given service ID, or nil
// when the service has never been recorded.
func (x *Registry) Get(_ context.Context, serviceID string) (*Entry, error) {
	if !x.connected.Load() {
		return nil, ErrNotConnected
	}

	txn := x.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(servicesTableName, servicesPK, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the service entry: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*Entry), nil
}

// List returns every recorded entry.
func (x *Registry) List(_ context.Context) ([]*Entry, error) {
	if !x.connected.Load() {
		return nil, ErrNotConnected
	}

	txn := x.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(servicesTableName, servicesPK)
	if err != nil {
		return nil, fmt.Errorf("failed to list the service entries: %w", err)
	}

	var entries []*Entry
	for raw := it.Next(); raw != nil; raw = it.Next() {
		entries = append(entries, raw.(*Entry))
	}
	return entries, nil
}

// ByState returns every recorded entry observed in the given state.
func (x *Registry) ByState(_ context.Context, state string) ([]*Entry, error) {
	if !x.connected.Load() {
		return nil, ErrNotConnected
	}

	txn := x.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(servicesTableName, stateIndex, state)
	if err != nil {
		return nil, fmt.Errorf("failed to list the service entries: %w", err)
	}

	var entries []*Entry
	for raw := it.Next(); raw != nil; raw = it.Next() {
		entries = append(entries, raw.(*Entry))
	}
	return entries, nil
}
