// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
)

type scenesParams struct {
	ScenarioFlags
	JSON bool `flag:"json" desc:"print the scene graph as JSON"`
}

// sceneJSON is the --json form of one scene.
type sceneJSON struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Children    []string `json:"children"`
	Effects     []string `json:"effects"`
	Logs        []string `json:"logs"`
}

func scenesCommand(stdout io.Writer) *cli.Command {
	var params scenesParams

	return &cli.Command{
		Name:    "scenes",
		Summary: "Print the scene graph of a scenario",
		Usage:   "ecs scenes --scenario FILE [--json]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("scenes", &params)
		},
		Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
			_, data, err := openScenario(params.ScenarioFlags)
			if err != nil {
				return err
			}

			var scenes []sceneJSON
			for _, id := range data.SceneIDs() {
				scene, _ := data.Scene(id)
				scenes = append(scenes, sceneJSON{
					ID:          scene.ID,
					Description: scene.Description,
					Children:    nonNil(scene.Children),
					Effects:     nonNil(scene.Effects),
					Logs:        nonNil(scene.Logs),
				})
			}

			if params.JSON {
				encoder := json.NewEncoder(stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(scenes)
			}

			tw := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "SCENE\tCHILDREN\tEFFECTS\tLOGS")
			for _, scene := range scenes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", scene.ID,
					listCell(scene.Children), listCell(scene.Effects), listCell(scene.Logs))
			}
			return tw.Flush()
		},
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func listCell(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ",")
}
