// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"log/slog"

	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/effects"
	"github.com/ecs-project/ecs/lib/replay"
	"github.com/ecs-project/ecs/lib/scenario"
)

// Factory constructs idle workers. The engine registers and runs what
// it returns.
type Factory interface {
	Effect(effect scenario.Effect) Worker
	Log(source scenario.LogSource) Worker
	Clear(source scenario.LogSource, index string) Worker
}

// FactoryConfig configures the production Factory.
type FactoryConfig struct {
	Bus    *bus.Bus
	Dialer effects.Dialer

	// Replay is shared by every log worker. Its Bus defaults to Bus
	// and its Ledger to a ledger private to the factory, so every
	// controller of the session shares one.
	Replay replay.Settings

	Logger *slog.Logger
}

// NewFactory returns a Factory building effects agents and replay
// controllers.
func NewFactory(config FactoryConfig) Factory {
	settings := config.Replay
	if settings.Bus == nil {
		settings.Bus = config.Bus
	}
	if settings.Ledger == nil {
		settings.Ledger = replay.NewIndexLedger()
	}
	if settings.Logger == nil {
		settings.Logger = config.Logger
	}
	return &workerFactory{
		agent: effects.AgentConfig{
			Bus:    config.Bus,
			Dialer: config.Dialer,
			Logger: config.Logger,
		},
		replay: settings,
	}
}

type workerFactory struct {
	agent  effects.AgentConfig
	replay replay.Settings
}

func (f *workerFactory) Effect(effect scenario.Effect) Worker {
	return effects.NewAgent(effect, f.agent)
}

func (f *workerFactory) Log(source scenario.LogSource) Worker {
	return replay.NewController(source, f.replay)
}

func (f *workerFactory) Clear(source scenario.LogSource, index string) Worker {
	return replay.NewClearController(source, index, f.replay)
}
