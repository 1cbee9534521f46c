// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
	"github.com/ecs-project/ecs/lib/config"
	"github.com/ecs-project/ecs/lib/scenario"
)

// ScenarioFlags are shared by every command that loads a scenario. It
// is exported so commands can embed it in their parameter structs.
type ScenarioFlags struct {
	Scenario string `flag:"scenario" desc:"scenario file (.xlsx, .yaml, .yml, .json, or .jsonc)"`
	Config   string `flag:"config" desc:"operator config file (default: $ECS_CONFIG, else built-in defaults)"`
}

// openScenario resolves the operator config and loads the scenario
// with it. The scenario is built but not validated.
func openScenario(params ScenarioFlags) (*config.Config, *scenario.Data, error) {
	if params.Scenario == "" {
		return nil, nil, errors.New("--scenario is required")
	}
	cfg, err := config.Resolve(params.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	data, err := scenario.Open(params.Scenario, scenario.BuildOptions{
		DefaultDestination: cfg.Effects.DefaultDestination,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading scenario %s: %w", params.Scenario, err)
	}
	return cfg, data, nil
}

// reportProblems writes the warnings and errors of a validation to w,
// one per line, and returns the error count.
func reportProblems(w io.Writer, issues []scenario.Issue, err error) int {
	for _, issue := range issues {
		fmt.Fprintf(w, "warning: %s %s: %s\n", issue.Table, issue.ID, issue.Message)
	}
	for _, problem := range problemList(err) {
		fmt.Fprintf(w, "error: %v\n", problem)
	}
	return scenario.ProblemCount(err)
}

func problemList(err error) []error {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}

// openValidScenario loads the scenario and refuses it when validation
// finds errors. Problems are written to w.
func openValidScenario(w io.Writer, params ScenarioFlags) (*config.Config, *scenario.Data, error) {
	cfg, data, err := openScenario(params)
	if err != nil {
		return nil, nil, err
	}
	issues, err := data.Validate()
	if count := reportProblems(w, issues, err); count > 0 {
		fmt.Fprintf(w, "%s: %d problem(s); refusing to run\n", params.Scenario, count)
		return nil, nil, &cli.ExitError{Code: 1}
	}
	return cfg, data, nil
}
