// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/clock"
	"github.com/ecs-project/ecs/lib/console"
)

type consoleParams struct {
	ScenarioFlags
	Verbose bool `flag:"verbose,v" desc:"show debug records in the status line"`
}

func consoleCommand(stdout io.Writer) *cli.Command {
	var params consoleParams

	return &cli.Command{
		Name:    "console",
		Summary: "Run the operator console",
		Description: `Open the interactive console on a scenario. The scenario is validated
first and refused when it has errors.

The header shows the current scene, its children, and its description.
The event pane shows effect output, log replay progress, and errors as
they arrive. Every message is also written to a session journal (and a
CBOR archive, unless disabled in the config).

Keys: i activate a scene, l list scenes and effects, e kill effects,
s kill log replays, x clear an index, c clear the message, q exit.`,
		Usage: "ecs console --scenario FILE [--config FILE]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("console", &params)
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			cfg, data, err := openValidScenario(stdout, params.ScenarioFlags)
			if err != nil {
				return err
			}

			recorder, err := bus.OpenRecorder(cfg.Console.LogDir, cfg.Console.JournalName, cfg.Console.Archive)
			if err != nil {
				return fmt.Errorf("opening session journal: %w", err)
			}

			// The terminal belongs to the program while it runs, so
			// diagnostics go to the footer instead of stderr.
			level := slog.LevelInfo
			if logger.Enabled(ctx, slog.LevelDebug) {
				level = slog.LevelDebug
			}
			handler := console.NewLogHandler(level)
			sessionLogger := slog.New(handler)

			eventBus := bus.New(clock.Real())
			eventBus.Publishf(bus.Errors, "[!] Starting log file @ %s", recorder.JournalPath())

			eng, err := newEngine(cfg, data, eventBus, sessionLogger)
			if err != nil {
				recorder.Close()
				return err
			}

			model := console.NewModel(console.Config{
				Engine:   eng,
				Bus:      eventBus,
				Recorder: recorder,
				Logger:   sessionLogger,
			})
			runErr := console.Run(ctx, model, handler)

			// Interrupted sessions leave messages the console never
			// consumed. Record them before closing the journal.
			eng.Shutdown()
			for _, message := range eventBus.Drain() {
				if err := recorder.Write(message); err != nil {
					logger.Warn("recording message failed", "error", err)
				}
			}
			if err := recorder.Close(); err != nil {
				logger.Warn("closing session journal failed", "error", err)
			}
			fmt.Fprintf(stdout, "Session journal: %s\n", recorder.JournalPath())
			if path := recorder.ArchivePath(); path != "" {
				fmt.Fprintf(stdout, "Session archive: %s\n", path)
			}

			if runErr != nil && ctx.Err() == nil {
				return runErr
			}
			return nil
		},
	}
}
