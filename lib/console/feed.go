// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ecs-project/ecs/lib/bus"
)

// busBatchMsg carries every message drained from the bus in one wake.
type busBatchMsg struct {
	Messages []bus.Message
}

// busClosedMsg reports that the bus is closed and fully drained.
type busClosedMsg struct{}

// waitForBus returns a tea.Cmd that blocks until the bus has data,
// then drains it. The model re-arms the command after each batch, so
// exactly one wait is outstanding at a time.
func waitForBus(ctx context.Context, eventBus *bus.Bus) tea.Cmd {
	return func() tea.Msg {
		if err := eventBus.Wait(ctx); err != nil {
			return busClosedMsg{}
		}
		return busBatchMsg{Messages: eventBus.Drain()}
	}
}
