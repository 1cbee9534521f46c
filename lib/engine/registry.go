// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AllWorkers selects every worker of a kind in Kill.
const AllWorkers = "all"

// Worker is a unit of concurrent work the engine starts and stops.
type Worker interface {
	// Name is the effect or log source identifier.
	Name() string

	// Run starts the worker and returns immediately.
	Run()

	// Cancel stops the worker and waits for it to exit.
	Cancel()

	// Cancelled reports whether the worker has finished or been
	// cancelled.
	Cancelled() bool

	// Done is closed when the worker has exited.
	Done() <-chan struct{}
}

// Entry is one registered worker.
type Entry struct {
	Handle  uuid.UUID
	Kind    Kind
	Name    string
	Started time.Time
	Worker  Worker
}

// Registry is an ordered, concurrency-safe collection of workers.
// Entries are only appended and removed; callers operate on
// snapshots.
type Registry struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers worker and returns its handle.
func (r *Registry) Add(kind Kind, worker Worker, started time.Time) uuid.UUID {
	entry := Entry{
		Handle:  uuid.New(),
		Kind:    kind,
		Name:    worker.Name(),
		Started: started,
		Worker:  worker,
	}
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	return entry.Handle
}

// Remove drops the entry with handle. It reports whether one existed.
func (r *Registry) Remove(handle uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := slices.IndexFunc(r.entries, func(entry Entry) bool { return entry.Handle == handle })
	if index < 0 {
		return false
	}
	r.entries = slices.Delete(r.entries, index, index+1)
	return true
}

// Snapshot returns all entries in registration order.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Kind returns the entries of kind in registration order.
func (r *Registry) Kind(kind Kind) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, entry := range r.entries {
		if entry.Kind == kind {
			out = append(out, entry)
		}
	}
	return out
}

// Match returns the entries of kind whose name equals name, ignoring
// case. AllWorkers, in any case, matches every entry of kind.
func (r *Registry) Match(kind Kind, name string) []Entry {
	name = strings.TrimSpace(name)
	all := strings.EqualFold(name, AllWorkers)
	var out []Entry
	for _, entry := range r.Kind(kind) {
		if all || strings.EqualFold(entry.Name, name) {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reap removes and returns the entries whose worker has exited. A
// worker that is cancelled but still joining stays registered until
// Done closes, so Shutdown still waits for it. Liveness is checked
// against a snapshot so worker calls never run under the registry
// lock.
func (r *Registry) Reap() []Entry {
	var finished []Entry
	for _, entry := range r.Snapshot() {
		select {
		case <-entry.Worker.Done():
			finished = append(finished, entry)
		default:
		}
	}
	for _, entry := range finished {
		r.Remove(entry.Handle)
	}
	return finished
}
