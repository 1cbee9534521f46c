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
	"github.com/ecs-project/ecs/lib/config"
	"github.com/ecs-project/ecs/lib/elastic"
	"github.com/ecs-project/ecs/lib/replay"
)

type clearIndexParams struct {
	Config string `flag:"config,c" desc:"backend profile, an INI file with an [ELK] section"`
	Index  string `flag:"index,n" desc:"index to delete"`
}

func clearIndexCommand(stdout io.Writer) *cli.Command {
	var params clearIndexParams

	return &cli.Command{
		Name:    "clear-index",
		Summary: "Delete an index from the backend",
		Usage:   "ecs clear-index --config PROFILE --index NAME",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("clear-index", &params)
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			if params.Config == "" {
				return errors.New("--config is required")
			}
			if params.Index == "" {
				return errors.New("--index is required")
			}
			if replay.IsAllIndexes(params.Index) {
				return fmt.Errorf("--index %q is only meaningful inside a console session", params.Index)
			}
			cfg, err := config.Resolve("")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			profile, err := elastic.LoadProfile(params.Config)
			if err != nil {
				return err
			}

			eventBus := bus.New(clock.Real())
			controller := replay.NewProfileController(replay.Job{
				Name:    replay.ClearPrefix + params.Index,
				Profile: profile,
				Clear:   params.Index,
			}, replay.Settings{
				Bus:            eventBus,
				RequestTimeout: cfg.RequestTimeout(),
				Logger:         logger,
			})
			return runControllers(ctx, eventBus, stdout, true, []*replay.Controller{controller})
		},
	}
}
