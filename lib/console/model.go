// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/engine"
	"github.com/ecs-project/ecs/lib/scenario"
)

// Engine is the part of the scenario engine the console drives.
// *engine.Engine implements it.
type Engine interface {
	Current() (scenario.Scene, bool)
	Activate(id string) (scenario.Scene, error)
	Scenes() []string
	Effects() []string
	WorkerNames(kind engine.Kind) []string
	Kill(kind engine.Kind, name string) int
	ClearIndex(index string) (string, error)
	Shutdown()
}

// Recorder persists every message the console displays.
// *bus.Recorder implements it.
type Recorder interface {
	Write(message bus.Message) error
}

// Config holds the console's collaborators.
type Config struct {
	// Engine is required.
	Engine Engine

	// Bus is the event bus the console consumes. Required.
	Bus *bus.Bus

	// Recorder, when set, receives every consumed message.
	Recorder Recorder

	Logger *slog.Logger
}

// mode is what the footer prompt is collecting.
type mode int

const (
	modeIdle mode = iota
	modeScene
	modeKillEffects
	modeKillLogs
	modeClearIndex
	modeQuit
)

// maxEventLines bounds the event pane history. The journal keeps the
// full record.
const maxEventLines = 10000

// tabWidth is the column width tabs in bus messages expand to.
const tabWidth = 4

// Fixed rows outside the header: two separators, help, system
// message, and prompt.
const chromeRows = 5

// Messages produced by engine commands.
type (
	sceneResultMsg struct {
		Scene scenario.Scene
		Err   error
	}
	killResultMsg struct {
		Kind  engine.Kind
		Name  string
		Count int
	}
	clearResultMsg struct {
		Name string
		Err  error
	}
	shutdownDoneMsg struct{}
)

// Model is the bubbletea model for the operator console.
type Model struct {
	engine   Engine
	bus      *bus.Bus
	recorder Recorder
	logger   *slog.Logger
	theme    Theme
	keys     KeyMap

	width, height int
	ready         bool

	header   string
	events   []bus.Message
	viewport viewport.Model
	input    textinput.Model

	mode       mode
	sysMessage string

	// status is the latest diagnostic log record; statusSequence
	// identifies it for logFadeMsg.
	status         string
	statusLevel    slog.Level
	statusSequence int

	shuttingDown bool
}

// NewModel returns a console model for config.
func NewModel(config Config) Model {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	input := textinput.New()
	input.Prompt = "> "
	input.ShowSuggestions = true

	model := Model{
		engine:   config.Engine,
		bus:      config.Bus,
		recorder: config.Recorder,
		logger:   logger,
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		viewport: viewport.New(80, 10),
		input:    input,
	}
	model.header = model.renderHeader()
	return model
}

// Init implements tea.Model. It starts consuming the bus.
func (model Model) Init() tea.Cmd {
	return waitForBus(context.Background(), model.bus)
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := model.update(message)
	model.layout()
	return model, cmd
}

func (model Model) update(message tea.Msg) (Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if key.Matches(message, model.keys.Interrupt) {
			return model.shutdown()
		}
		if model.mode != modeIdle {
			return model.handlePromptKeys(message)
		}
		return model.handleIdleKeys(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.header = model.renderHeader()
		model.viewport.SetContent(model.renderEvents())

	case busBatchMsg:
		model.appendEvents(message.Messages)
		return model, waitForBus(context.Background(), model.bus)

	case busClosedMsg:
		return model, tea.Quit

	case sceneResultMsg:
		var unknown *engine.UnknownSceneError
		switch {
		case errors.As(message.Err, &unknown):
			model.sysMessage = "Not an option try again."
			if unknown.Suggestion != "" {
				model.sysMessage += fmt.Sprintf(" Did you mean %q?", unknown.Suggestion)
			}
		case message.Err != nil:
			model.sysMessage = message.Err.Error()
		default:
			model.sysMessage = "Scene " + message.Scene.ID + " activated"
			model.header = model.renderHeader()
		}

	case killResultMsg:
		if message.Count == 0 {
			model.sysMessage = fmt.Sprintf("No %s threads named %s", message.Kind, message.Name)
		}

	case clearResultMsg:
		if message.Err != nil {
			model.sysMessage = message.Err.Error()
		} else {
			model.sysMessage = "Clearing " + strings.TrimPrefix(message.Name, "clear:")
		}

	case shutdownDoneMsg:
		// The bus is closed now; busClosedMsg follows once the
		// remaining messages are drained.

	case logRecordMsg:
		model.statusSequence++
		model.status = message.Summary
		model.statusLevel = message.Level
		sequence := model.statusSequence
		return model, tea.Tick(logFadeDelay, func(time.Time) tea.Msg {
			return logFadeMsg{Sequence: sequence}
		})

	case logFadeMsg:
		if message.Sequence == model.statusSequence {
			model.status = ""
		}
	}
	return model, nil
}

func (model Model) handleIdleKeys(message tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Scene):
		model.sysMessage = "Input Scene ID"
		model.input.SetSuggestions(model.engine.Scenes())
		return model.prompt(modeScene)

	case key.Matches(message, model.keys.Clear):
		model.sysMessage = ""

	case key.Matches(message, model.keys.List):
		model.sysMessage = "List of all Scene Options: " + strings.Join(model.engine.Scenes(), ", ") +
			"\n\nList of all Effects Options: " + strings.Join(model.engine.Effects(), ", ")

	case key.Matches(message, model.keys.KillEffects):
		names := model.engine.WorkerNames(engine.KindEffect)
		if len(names) == 0 {
			model.sysMessage = "No EFX Threads to kill"
			return model, nil
		}
		model.sysMessage = "Select EFX Threads to kill (or all): \n " + strings.Join(names, ", ")
		model.input.SetSuggestions(append(names, engine.AllWorkers))
		return model.prompt(modeKillEffects)

	case key.Matches(message, model.keys.KillLogs):
		names := model.engine.WorkerNames(engine.KindLog)
		if len(names) == 0 {
			model.sysMessage = "No Log Threads to kill"
			return model, nil
		}
		model.sysMessage = "Select Log Threads to kill (or all): \n " + strings.Join(names, ", ")
		model.input.SetSuggestions(append(names, engine.AllWorkers))
		return model.prompt(modeKillLogs)

	case key.Matches(message, model.keys.ClearIndex):
		model.sysMessage = "Input index to clear"
		model.input.SetSuggestions(nil)
		return model.prompt(modeClearIndex)

	case key.Matches(message, model.keys.Quit):
		model.sysMessage = "Are you sure you want to EXIT? (y/N)"
		model.input.SetSuggestions(nil)
		return model.prompt(modeQuit)

	case key.Matches(message, model.keys.Up):
		model.viewport.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.viewport.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.viewport.HalfViewUp()
	case key.Matches(message, model.keys.PageDown):
		model.viewport.HalfViewDown()
	case key.Matches(message, model.keys.Bottom):
		model.viewport.GotoBottom()
	}
	return model, nil
}

// prompt focuses the input for next.
func (model Model) prompt(next mode) (Model, tea.Cmd) {
	model.mode = next
	model.input.Reset()
	return model, model.input.Focus()
}

func (model Model) handlePromptKeys(message tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Cancel):
		model.endPrompt()
		model.sysMessage = ""
		return model, nil

	case key.Matches(message, model.keys.Submit):
		value := strings.TrimSpace(model.input.Value())
		current := model.mode
		model.endPrompt()
		return model.submit(current, value)
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	return model, cmd
}

func (model *Model) endPrompt() {
	model.mode = modeIdle
	model.input.Reset()
	model.input.Blur()
}

// submit acts on a completed prompt. Engine calls run as commands so
// joins never stall rendering.
func (model Model) submit(current mode, value string) (Model, tea.Cmd) {
	eng := model.engine
	switch current {
	case modeScene:
		if value == "" {
			model.sysMessage = ""
			return model, nil
		}
		return model, func() tea.Msg {
			scene, err := eng.Activate(value)
			return sceneResultMsg{Scene: scene, Err: err}
		}

	case modeKillEffects, modeKillLogs:
		if value == "" {
			model.sysMessage = ""
			return model, nil
		}
		kind := engine.KindEffect
		if current == modeKillLogs {
			kind = engine.KindLog
		}
		model.sysMessage = killNotice(kind, value)
		return model, func() tea.Msg {
			return killResultMsg{Kind: kind, Name: value, Count: eng.Kill(kind, value)}
		}

	case modeClearIndex:
		if value == "" {
			model.sysMessage = ""
			return model, nil
		}
		return model, func() tea.Msg {
			name, err := eng.ClearIndex(value)
			return clearResultMsg{Name: name, Err: err}
		}

	case modeQuit:
		switch strings.ToLower(value) {
		case "y", "yes":
			return model.shutdown()
		}
		model.sysMessage = ""
	}
	return model, nil
}

func killNotice(kind engine.Kind, name string) string {
	all := strings.EqualFold(name, engine.AllWorkers)
	switch {
	case kind == engine.KindEffect && all:
		return "Ending Effects"
	case kind == engine.KindEffect:
		return "Killing EFX: " + name
	case all:
		return "Ending Logs"
	default:
		return "Killing Logs: " + name
	}
}

// shutdown stops the engine in the background. The program quits
// when the bus reports closed, after the final messages are shown.
func (model Model) shutdown() (Model, tea.Cmd) {
	if model.shuttingDown {
		return model, nil
	}
	model.shuttingDown = true
	model.mode = modeIdle
	model.input.Blur()
	model.sysMessage = "Shutting down..."
	eng := model.engine
	return model, func() tea.Msg {
		eng.Shutdown()
		return shutdownDoneMsg{}
	}
}

// appendEvents records messages and adds them to the event pane,
// following the tail unless the operator has scrolled up.
func (model *Model) appendEvents(messages []bus.Message) {
	if len(messages) == 0 {
		return
	}
	follow := model.viewport.AtBottom()
	for _, message := range messages {
		if model.recorder != nil {
			if err := model.recorder.Write(message); err != nil {
				model.logger.Warn("recording message failed", "stream", message.Stream, "error", err)
			}
		}
	}
	model.events = append(model.events, messages...)
	if overflow := len(model.events) - maxEventLines; overflow > 0 {
		model.events = append(model.events[:0:0], model.events[overflow:]...)
	}
	model.viewport.SetContent(model.renderEvents())
	if follow {
		model.viewport.GotoBottom()
	}
}

// layout sizes the viewport to whatever the header and footer leave.
func (model *Model) layout() {
	if !model.ready {
		return
	}
	headerRows := strings.Count(model.header, "\n") + 1
	footerRows := strings.Count(model.renderSysMessage(), "\n")
	model.viewport.Width = model.width
	model.viewport.Height = max(3, model.height-headerRows-footerRows-chromeRows)
	model.input.Width = max(10, model.width-len(model.input.Prompt)-1)
}

func (model Model) renderSysMessage() string {
	return ansi.Wrap(model.sysMessage, model.contentWidth(), wrapBreakpoints)
}

func (model Model) contentWidth() int {
	if model.width <= 0 {
		return 80
	}
	return model.width
}

func (model Model) renderEvents() string {
	width := model.contentWidth()
	lines := make([]string, 0, len(model.events))
	for _, message := range model.events {
		style := lipgloss.NewStyle().Foreground(model.theme.StreamColor(message.Stream))
		text := expandTabs(message.Text)
		for _, line := range strings.Split(ansi.Wrap(text, width, wrapBreakpoints), "\n") {
			lines = append(lines, style.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// expandTabs replaces tabs with spaces up to the next tab stop.
func expandTabs(text string) string {
	if !strings.Contains(text, "\t") {
		return text
	}
	var builder strings.Builder
	column := 0
	for _, character := range text {
		switch character {
		case '\t':
			spaces := tabWidth - column%tabWidth
			builder.WriteString(strings.Repeat(" ", spaces))
			column += spaces
		case '\n':
			builder.WriteRune(character)
			column = 0
		default:
			builder.WriteRune(character)
			column++
		}
	}
	return builder.String()
}

func (model Model) renderHeader() string {
	width := model.contentWidth()
	title := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).
		Render("Experiment Control System")

	scene, ok := model.engine.Current()
	if !ok {
		return title + "\n" + lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("No scenes loaded")
	}

	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	sceneLine := "Current Scene: " + scene.ID
	if len(scene.Children) > 0 {
		sceneLine += faint.Render("    Next: " + strings.Join(scene.Children, ", "))
	}

	parts := []string{title, sceneLine}
	if description := renderMarkdown(scene.Description, model.theme, width); description != "" {
		parts = append(parts, description)
	}
	return strings.Join(parts, "\n")
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}
	separator := lipgloss.NewStyle().Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.contentWidth()))

	help := model.keys.helpLine()
	if model.status != "" {
		help = model.renderStatus()
	} else {
		help = lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(help)
	}

	inputLine := ""
	if model.mode != modeIdle {
		inputLine = model.input.View()
	}

	return strings.Join([]string{
		model.header,
		separator,
		model.viewport.View(),
		separator,
		help,
		model.renderSysMessage(),
		inputLine,
	}, "\n")
}

func (model Model) renderStatus() string {
	color := model.theme.FaintText
	switch {
	case model.statusLevel >= slog.LevelError:
		color = model.theme.ErrorText
	case model.statusLevel >= slog.LevelWarn:
		color = model.theme.WarnText
	}
	return lipgloss.NewStyle().Foreground(color).Render(ansi.Truncate(model.status, model.contentWidth(), "…"))
}
