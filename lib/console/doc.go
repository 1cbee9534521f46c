// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package console is the operator dashboard: a bubbletea program with
// three panes.
//
// The header shows the current scene, its children, and its
// description rendered from markdown. The event pane is a scrollable
// viewport of every bus message, coloured by stream. The footer holds
// the key help (or the latest diagnostic log record), the system
// message, and the input prompt.
//
// Single keys start operator actions: i activates a scene, e and s
// kill effect and log workers, x clears a backend index, l lists the
// scenario, c clears the system message, q exits. Actions that need a
// value open the prompt; Enter submits and Esc abandons. Engine calls
// run as tea.Cmds so a slow join never blocks rendering.
//
// Bus messages arrive through a command that waits on the bus, drains
// it, and re-arms itself. Every drained message is written to the
// session [Recorder] before it is displayed. The program exits once
// the engine has shut down and the bus is closed and drained, so the
// journal is complete.
package console
