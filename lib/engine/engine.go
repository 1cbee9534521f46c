// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/clock"
	"github.com/ecs-project/ecs/lib/scenario"
)

// DefaultReapInterval is how often finished workers are dropped.
const DefaultReapInterval = 5 * time.Second

var (
	// ErrUnknownScene is returned by Activate for an identifier that
	// names no scene. The error is an *UnknownSceneError.
	ErrUnknownScene = errors.New("unknown scene")

	// ErrNoLogSources is returned by ClearIndex when the scenario has
	// no log source to borrow a backend profile from.
	ErrNoLogSources = errors.New("scenario has no log sources")

	// ErrShutdown is returned by operations after Shutdown.
	ErrShutdown = errors.New("engine is shut down")
)

// UnknownSceneError reports an Activate on an unknown identifier.
type UnknownSceneError struct {
	ID string

	// Suggestion is the closest scene identifier, or empty.
	Suggestion string
}

func (e *UnknownSceneError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown scene %q (did you mean %q?)", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("unknown scene %q", e.ID)
}

func (e *UnknownSceneError) Unwrap() error {
	return ErrUnknownScene
}

// Config configures an Engine.
type Config struct {
	// Data is the scenario. Required.
	Data *scenario.Data

	// Bus receives engine-level problems and is closed by Shutdown.
	// Required.
	Bus *bus.Bus

	// Factory builds workers. Required.
	Factory Factory

	// Clock drives the reaper and stamps registry entries. Nil means
	// the real clock.
	Clock clock.Clock

	// ReapInterval defaults to DefaultReapInterval.
	ReapInterval time.Duration

	Logger *slog.Logger
}

// Engine is the scenario state machine and worker registry.
type Engine struct {
	data     *scenario.Data
	bus      *bus.Bus
	factory  Factory
	clock    clock.Clock
	logger   *slog.Logger
	registry *Registry

	mu      sync.Mutex
	current string
	closed  bool

	stopReaper   chan struct{}
	reaperDone   chan struct{}
	shutdownOnce sync.Once
}

// New creates an Engine positioned on the scenario's initial scene
// and starts its reaper. Nothing is activated until Activate.
func New(config Config) (*Engine, error) {
	if config.Data == nil {
		return nil, errors.New("engine: scenario data is required")
	}
	if config.Bus == nil {
		return nil, errors.New("engine: bus is required")
	}
	if config.Factory == nil {
		return nil, errors.New("engine: worker factory is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	interval := config.ReapInterval
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		data:       config.Data,
		bus:        config.Bus,
		factory:    config.Factory,
		clock:      clk,
		logger:     logger,
		registry:   NewRegistry(),
		current:    config.Data.InitialScene(),
		stopReaper: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}

	ticker := clk.NewTicker(interval)
	go e.reap(ticker)
	return e, nil
}

// Data returns the scenario.
func (e *Engine) Data() *scenario.Data {
	return e.data
}

// Registry returns the worker registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Current returns the current scene. It is false only for an empty
// scenario.
func (e *Engine) Current() (scenario.Scene, bool) {
	e.mu.Lock()
	id := e.current
	e.mu.Unlock()
	return e.data.Scene(id)
}

// Scenes returns every scene identifier in natural order.
func (e *Engine) Scenes() []string {
	return e.data.SceneIDs()
}

// Effects returns every effect identifier in natural order.
func (e *Engine) Effects() []string {
	return e.data.EffectIDs()
}

// Logs returns every log source identifier in natural order.
func (e *Engine) Logs() []string {
	return e.data.LogIDs()
}

// Workers returns the registered workers of kind in start order.
func (e *Engine) Workers(kind Kind) []Entry {
	return e.registry.Kind(kind)
}

// WorkerNames returns the names of the registered workers of kind.
func (e *Engine) WorkerNames(kind Kind) []string {
	entries := e.registry.Kind(kind)
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

// Activate makes the scene identified by id (ignoring case) current
// and starts its effects and log sources. It does not wait for them.
func (e *Engine) Activate(id string) (scenario.Scene, error) {
	scene, ok := e.data.FindScene(strings.TrimSpace(id))
	if !ok {
		return scenario.Scene{}, &UnknownSceneError{ID: id, Suggestion: e.data.Suggest(id)}
	}

	// Held across spawning so Shutdown never misses a worker.
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return scenario.Scene{}, ErrShutdown
	}
	e.current = scene.ID

	e.logger.Info("scene activated", "scene", scene.ID, "effects", len(scene.Effects), "logs", len(scene.Logs))

	for _, effectID := range scene.Effects {
		effect, ok := e.data.Effect(effectID)
		if !ok {
			e.bus.Publishf(bus.Errors, "[!] Scene %s references unknown effect %s", scene.ID, effectID)
			continue
		}
		e.spawn(KindEffect, e.factory.Effect(effect))
	}
	for _, logID := range scene.Logs {
		source, ok := e.data.Log(logID)
		if !ok {
			e.bus.Publishf(bus.Errors, "[!] Scene %s references unknown log %s", scene.ID, logID)
			continue
		}
		e.spawn(KindLog, e.factory.Log(source))
	}
	return scene, nil
}

// ClearIndex starts a worker deleting index (or, for "all", every
// index replayed this session) using the backend profile of the first
// log source. Only the first whitespace-separated word of index is
// used. The worker is registered as a log worker named clear:<index>.
func (e *Engine) ClearIndex(index string) (string, error) {
	fields := strings.Fields(index)
	if len(fields) == 0 {
		return "", errors.New("no index given")
	}
	logIDs := e.data.LogIDs()
	if len(logIDs) == 0 {
		return "", ErrNoLogSources
	}
	source, _ := e.data.Log(logIDs[0])

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", ErrShutdown
	}

	worker := e.factory.Clear(source, fields[0])
	e.spawn(KindLog, worker)
	return worker.Name(), nil
}

// spawn registers worker, then runs it.
func (e *Engine) spawn(kind Kind, worker Worker) {
	handle := e.registry.Add(kind, worker, e.clock.Now())
	e.logger.Debug("worker started", "kind", kind, "name", worker.Name(), "handle", handle)
	worker.Run()
}

// Kill cancels and joins the workers of kind named name (ignoring
// case, or every one for "all"), then removes them from the registry.
// It returns the number killed.
func (e *Engine) Kill(kind Kind, name string) int {
	matched := e.registry.Match(kind, name)
	cancelAll(matched)
	for _, entry := range matched {
		e.registry.Remove(entry.Handle)
	}
	if len(matched) > 0 {
		e.logger.Info("workers killed", "kind", kind, "name", name, "count", len(matched))
	}
	return len(matched)
}

// Shutdown cancels and joins every worker, stops the reaper, and
// closes the bus. Calls after the first do nothing.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		close(e.stopReaper)
		<-e.reaperDone

		entries := e.registry.Snapshot()
		cancelAll(entries)
		for _, entry := range entries {
			e.registry.Remove(entry.Handle)
		}
		e.logger.Info("engine shut down", "workers", len(entries))
		e.bus.Close()
	})
}

// cancelAll cancels entries concurrently and waits for all of them.
func cancelAll(entries []Entry) {
	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry.Worker.Cancel()
		}()
	}
	wg.Wait()
}

func (e *Engine) reap(ticker *clock.Ticker) {
	defer close(e.reaperDone)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopReaper:
			return
		case <-ticker.C:
			for _, entry := range e.registry.Reap() {
				e.logger.Debug("worker reaped", "kind", entry.Kind, "name", entry.Name, "handle", entry.Handle)
			}
		}
	}
}
