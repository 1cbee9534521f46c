// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/clock"
	"github.com/ecs-project/ecs/lib/engine"
)

type playParams struct {
	ScenarioFlags
	Scene   string `flag:"scene" desc:"scene to activate"`
	Wait    bool   `flag:"wait" desc:"exit once every worker of the scene has finished"`
	Verbose bool   `flag:"verbose,v" desc:"debug logging on stderr"`
}

func playCommand(stdout io.Writer) *cli.Command {
	var params playParams

	return &cli.Command{
		Name:    "play",
		Summary: "Activate one scene without the console",
		Description: `Activate a single scene headlessly and print every bus message to
stdout as "<stream> <text>".

Without --wait, the scene's workers run until SIGINT or SIGTERM. With
--wait, the command exits once every worker has finished. Either way,
remaining workers are cancelled and joined before exit.`,
		Usage: "ecs play --scenario FILE --scene ID [--wait]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("play", &params)
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			if params.Scene == "" {
				return errors.New("--scene is required")
			}
			cfg, data, err := openValidScenario(stdout, params.ScenarioFlags)
			if err != nil {
				return err
			}

			eventBus := bus.New(clock.Real())
			eng, err := newEngine(cfg, data, eventBus, logger)
			if err != nil {
				return err
			}

			pumped := make(chan error, 1)
			go func() {
				pumped <- bus.Pump(context.Background(), eventBus, func(message bus.Message) {
					fmt.Fprintf(stdout, "%-7s %s\n", message.Stream, message.Text)
				})
			}()

			scene, err := eng.Activate(params.Scene)
			if err == nil {
				logger.Info("scene running", "scene", scene.ID, "workers", eng.Registry().Len())
				if params.Wait {
					waitForWorkers(ctx, eng.Registry().Snapshot())
				} else {
					<-ctx.Done()
				}
			}

			eng.Shutdown()
			if pumpErr := <-pumped; pumpErr != nil {
				return pumpErr
			}
			return err
		},
	}
}

// waitForWorkers blocks until every entry's worker has exited or ctx
// is done.
func waitForWorkers(ctx context.Context, entries []engine.Entry) {
	for _, entry := range entries {
		select {
		case <-entry.Worker.Done():
		case <-ctx.Done():
			return
		}
	}
}
