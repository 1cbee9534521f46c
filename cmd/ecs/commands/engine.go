// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"

	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/clock"
	"github.com/ecs-project/ecs/lib/config"
	"github.com/ecs-project/ecs/lib/effects"
	"github.com/ecs-project/ecs/lib/engine"
	"github.com/ecs-project/ecs/lib/remote"
	"github.com/ecs-project/ecs/lib/replay"
	"github.com/ecs-project/ecs/lib/scenario"
)

// newEngine wires the production engine: SSH effects agents and
// backend replay controllers publishing to eventBus.
func newEngine(cfg *config.Config, data *scenario.Data, eventBus *bus.Bus, logger *slog.Logger) (*engine.Engine, error) {
	dialer, err := remote.NewDialer(remote.Config{
		ConnectTimeout: cfg.ConnectTimeout(),
		KnownHosts:     cfg.Effects.KnownHosts,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating SSH dialer: %w", err)
	}

	factory := engine.NewFactory(engine.FactoryConfig{
		Bus:    eventBus,
		Dialer: effects.SSHDialer(dialer),
		Replay: replay.Settings{
			RequestTimeout: cfg.RequestTimeout(),
			BulkTimeout:    cfg.BulkTimeout(),
		},
		Logger: logger,
	})

	return engine.New(engine.Config{
		Data:         data,
		Bus:          eventBus,
		Factory:      factory,
		Clock:        clock.Real(),
		ReapInterval: cfg.ReapInterval(),
		Logger:       logger,
	})
}
