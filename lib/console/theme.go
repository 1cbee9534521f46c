// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ecs-project/ecs/lib/bus"
)

// Theme is the console's colour palette, in ANSI 256-colour codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Stream colours for the event pane.
	EffectsText lipgloss.Color
	LogsText    lipgloss.Color
	ContextText lipgloss.Color
	ErrorsText  lipgloss.Color

	// Status line colours for diagnostic log records.
	WarnText  lipgloss.Color
	ErrorText lipgloss.Color
}

// StreamColor returns the event pane colour for stream.
func (theme Theme) StreamColor(stream bus.Stream) lipgloss.Color {
	switch stream {
	case bus.Effects:
		return theme.EffectsText
	case bus.Logs:
		return theme.LogsText
	case bus.Context:
		return theme.ContextText
	case bus.Errors:
		return theme.ErrorsText
	default:
		return theme.NormalText
	}
}

// DefaultTheme is tuned for dark 256-colour terminals. The stream
// colours follow the curses console operators are used to: effects
// green, logs yellow, context blue, errors red.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	EffectsText: lipgloss.Color("114"),
	LogsText:    lipgloss.Color("220"),
	ContextText: lipgloss.Color("75"),
	ErrorsText:  lipgloss.Color("196"),

	WarnText:  lipgloss.Color("208"),
	ErrorText: lipgloss.Color("196"),
}
