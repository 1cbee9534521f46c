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
)

func validateCommand(stdout io.Writer) *cli.Command {
	var params ScenarioFlags

	return &cli.Command{
		Name:    "validate",
		Summary: "Check a scenario for broken references and missing files",
		Description: `Load and build a scenario, then check every cross-reference and
referenced file. Configuration warnings (for example an effect host
without credentials) are listed but do not fail validation. Exits 1
when any error is found.`,
		Usage: "ecs validate --scenario FILE [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("validate", &params)
		},
		Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
			_, data, err := openScenario(params)
			if err != nil {
				return err
			}
			issues, validateErr := data.Validate()
			count := reportProblems(stdout, issues, validateErr)
			logger.Debug("scenario validated",
				"scenario", params.Scenario,
				"scenes", len(data.SceneIDs()),
				"effects", len(data.EffectIDs()),
				"logs", len(data.LogIDs()),
				"warnings", len(issues),
				"errors", count,
			)
			if count > 0 {
				fmt.Fprintf(stdout, "%s: %d error(s), %d warning(s)\n", params.Scenario, count, len(issues))
				return &cli.ExitError{Code: 1}
			}
			fmt.Fprintf(stdout, "%s: ok (%d scenes, %d effects, %d logs, %d warning(s))\n",
				params.Scenario, len(data.SceneIDs()), len(data.EffectIDs()), len(data.LogIDs()), len(issues))
			return nil
		},
	}
}
