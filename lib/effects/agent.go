// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package effects

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/scenario"
)

// AgentConfig holds an agent's collaborators.
type AgentConfig struct {
	// Bus receives session output (effects stream) and failures
	// (errors stream). Required.
	Bus *bus.Bus

	// Dialer connects to target hosts. Required.
	Dialer Dialer

	Logger *slog.Logger
}

// Agent runs one effect on all of its targets.
type Agent struct {
	effect scenario.Effect
	bus    *bus.Bus
	dialer Dialer
	logger *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once
	started  atomic.Bool

	mu     sync.Mutex
	states map[string]State
}

// NewAgent creates an idle agent for effect.
func NewAgent(effect scenario.Effect, config AgentConfig) *Agent {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())

	states := make(map[string]State, len(effect.Targets))
	for _, target := range effect.Targets {
		states[target.Identity()] = StatePending
	}
	return &Agent{
		effect: effect,
		bus:    config.Bus,
		dialer: config.Dialer,
		logger: logger.With("effect", effect.ID),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		states: states,
	}
}

// Name returns the effect identifier.
func (a *Agent) Name() string {
	return a.effect.ID
}

// Run reports the effect's configuration issues, then starts one
// session per target host and returns. Targets missing a username or
// password are skipped. Run on a running, finished, or cancelled agent
// does nothing.
func (a *Agent) Run() {
	if !a.started.CompareAndSwap(false, true) {
		return
	}

	for _, issue := range a.effect.Issues {
		a.fail("%s", issue)
	}

	var runnable []scenario.Target
	for _, target := range a.effect.Targets {
		if target.Username == "" || target.Password == "" {
			a.setState(target.Identity(), StateFailed)
			continue
		}
		runnable = append(runnable, target)
	}

	a.logger.Debug("effect agent starting", "hosts", len(runnable))
	a.sessions.Add(len(runnable))
	for _, target := range runnable {
		go func() {
			defer a.sessions.Done()
			a.session(a.ctx, target)
		}()
	}
	go func() {
		a.sessions.Wait()
		a.finish()
	}()
}

// Wait blocks until every host session has finished. It returns at
// once for an agent that was never run.
func (a *Agent) Wait() {
	if !a.started.Load() {
		return
	}
	<-a.done
}

// Cancel stops every host session and waits for them to exit. In-flight
// connects, uploads, and commands are interrupted.
func (a *Agent) Cancel() {
	a.cancel()
	if a.started.CompareAndSwap(false, true) {
		a.finish()
		return
	}
	<-a.done
}

// Cancelled reports whether the agent has finished or been cancelled.
func (a *Agent) Cancelled() bool {
	return a.ctx.Err() != nil
}

// Done is closed once every host session has exited.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// States returns a snapshot of each host session's state keyed by
// user@host.
func (a *Agent) States() map[string]State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.states)
}

func (a *Agent) finish() {
	a.cancel()
	a.doneOnce.Do(func() { close(a.done) })
}

func (a *Agent) setState(identity string, state State) {
	a.mu.Lock()
	a.states[identity] = state
	a.mu.Unlock()
}

func (a *Agent) publish(format string, args ...any) {
	if a.bus != nil {
		a.bus.Publishf(bus.Effects, format, args...)
	}
}

func (a *Agent) fail(format string, args ...any) {
	if a.bus != nil {
		a.bus.Publishf(bus.Errors, format, args...)
	}
}

// session runs the effect on one host.
func (a *Agent) session(ctx context.Context, target scenario.Target) {
	identity := target.Identity()
	logger := a.logger.With("host", target.Host)

	state := a.runSession(ctx, target, identity, logger)
	if state != StateDone && ctx.Err() != nil {
		state = StateCancelled
	}
	a.setState(identity, state)
	logger.Debug("host session ended", "state", state)
}

func (a *Agent) runSession(ctx context.Context, target scenario.Target, identity string, logger *slog.Logger) State {
	a.setState(identity, StateConnecting)
	conn, err := a.dialer.Dial(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return StateCancelled
		}
		a.fail("Could not connect to SSH on %s: %v", identity, err)
		return StateFailed
	}
	defer conn.Close()

	a.setState(identity, StateUploading)
	for _, upload := range a.effect.Uploads {
		if ctx.Err() != nil {
			return StateCancelled
		}
		a.publish("Effect Agent: %s \t File: %s \t Dest: %s", identity, upload.Source, upload.Destination)
		result, err := conn.Upload(ctx, upload.Source, upload.Destination)
		if err != nil {
			if ctx.Err() != nil {
				return StateCancelled
			}
			a.fail("Upload of %s to %s failed: %v", upload.Source, identity, err)
			return StateFailed
		}
		a.publish("%s => uploaded %s (%d bytes, blake3 %s)", identity, upload.Source, result.Bytes, result.DigestHex())
	}

	for _, command := range a.effect.Commands {
		if ctx.Err() != nil {
			return StateCancelled
		}
		a.setState(identity, StateExecuting)
		a.publish("Effect Agent: %s \t Command: %s", identity, command)
		process, err := conn.Start(ctx, command)
		if err != nil {
			if ctx.Err() != nil {
				return StateCancelled
			}
			a.fail("Command %q on %s failed to start: %v", command, identity, err)
			return StateFailed
		}
		if !a.stream(ctx, identity, command, process, logger) {
			return StateCancelled
		}
	}
	return StateDone
}

// stream relays one command's output until it exits. It returns false
// when ctx ended first.
func (a *Agent) stream(ctx context.Context, identity, command string, process Process, logger *slog.Logger) bool {
	defer process.Close()
	first := true
	for {
		select {
		case <-ctx.Done():
			return false
		case line, ok := <-process.Lines():
			if !ok {
				err := process.Wait()
				if ctx.Err() != nil {
					return false
				}
				if err != nil {
					a.fail("%s => %s: %v", identity, command, err)
				}
				logger.Debug("command finished", "command", command, "error", err)
				return true
			}
			if first {
				first = false
				a.setState(identity, StateStreaming)
				a.publish("%s => PID: %s", identity, line)
				continue
			}
			a.publish("%s => %s", identity, line)
		}
	}
}

