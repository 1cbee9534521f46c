// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run runs the console on the terminal until the operator exits or
// ctx is cancelled. When handler is non-nil it is attached to the
// program, so diagnostic records logged through it reach the footer.
func Run(ctx context.Context, model Model, handler *LogHandler) error {
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if handler != nil {
		handler.SetProgram(program)
		defer handler.SetProgram(nil)
	}
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}
