// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the console key bindings.
type KeyMap struct {
	// Operator actions.
	Scene       key.Binding
	Clear       key.Binding
	List        key.Binding
	KillEffects key.Binding
	KillLogs    key.Binding
	ClearIndex  key.Binding
	Quit        key.Binding

	// Event pane scrolling.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Bottom   key.Binding

	// Prompt.
	Submit key.Binding
	Cancel key.Binding

	// Interrupt shuts down without confirmation.
	Interrupt key.Binding
}

// DefaultKeyMap mirrors the original single-key console commands.
var DefaultKeyMap = KeyMap{
	Scene: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "input scene"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	List: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "list"),
	),
	KillEffects: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "kill effects"),
	),
	KillLogs: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "kill logs"),
	),
	ClearIndex: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear index"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "exit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "scroll down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "page down"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("End", "follow"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "submit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	Interrupt: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

// helpLine renders the idle-mode key summary.
func (keys KeyMap) helpLine() string {
	bindings := []key.Binding{
		keys.Scene, keys.Clear, keys.List, keys.KillEffects,
		keys.KillLogs, keys.ClearIndex, keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+": "+help.Desc)
	}
	return strings.Join(parts, "  ")
}
