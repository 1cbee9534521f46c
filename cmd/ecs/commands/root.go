// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the ecs command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
	"github.com/ecs-project/ecs/lib/version"
)

// Root builds and returns the complete ecs command tree. Command
// output goes to os.Stdout.
func Root() *cli.Command {
	return rootCommand(os.Stdout)
}

func rootCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name: "ecs",
		Description: `ECS: experiment control system.

Step through a scenario of scenes. Activating a scene runs its effects
on remote hosts over SSH and replays its recorded logs into an
Elasticsearch-compatible backend, so analysts see the experiment unfold
as if live.`,
		Version: func() string { return "ecs " + version.Info() },
		Subcommands: []*cli.Command{
			consoleCommand(stdout),
			playCommand(stdout),
			replayCommand(stdout),
			clearIndexCommand(stdout),
			validateCommand(stdout),
			scenesCommand(stdout),
			journalCommand(stdout),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Fprintf(stdout, "ecs %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check a scenario before running it",
				Command:     "ecs validate --scenario lab.xlsx",
			},
			{
				Description: "Run the operator console",
				Command:     "ecs console --scenario lab.xlsx --config ecs.yaml",
			},
			{
				Description: "Replay a dump using ./log_controller.conf",
				Command:     "ecs replay -f zeek.json -t now -v",
			},
		},
	}
}
