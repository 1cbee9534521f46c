// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"strings"

	"github.com/ecs-project/ecs/lib/suggest"
)

// InitialSceneID is the scene the engine starts on when present.
const InitialSceneID = "0"

// Scene is one node of the scene graph.
type Scene struct {
	ID          string
	Description string
	Children    []string
	Effects     []string
	Logs        []string
}

// LogSource is a recorded log dump and the backend profile it replays
// to. Index and Time, when set, override the profile's values.
type LogSource struct {
	ID     string
	File   string
	Config string
	Index  string
	Time   string
}

// Data is a built scenario. It is immutable after Build and safe for
// concurrent readers.
type Data struct {
	// scenes is the arena, in natural identifier order; sceneIndex
	// maps an identifier to its position.
	scenes     []Scene
	sceneIndex map[string]int

	effects map[string]Effect
	logs    map[string]LogSource

	effectIDs []string
	logIDs    []string
	issues    []Issue
}

// BuildOptions controls Build.
type BuildOptions struct {
	// DefaultDestination is passed to NewEffect.
	DefaultDestination string
}

// Build converts raw tables into Data. It never fails: reference and
// file problems are reported by Validate, configuration problems by
// Issues.
func Build(tables Tables, options BuildOptions) *Data {
	data := &Data{
		sceneIndex: make(map[string]int, len(tables.Scenario)),
		effects:    make(map[string]Effect, len(tables.Effects)),
		logs:       make(map[string]LogSource, len(tables.Logs)),
	}

	for _, id := range sortedKeys(tables.Scenario) {
		row := tables.Scenario[id]
		data.sceneIndex[id] = len(data.scenes)
		data.scenes = append(data.scenes, Scene{
			ID:          id,
			Description: row.First(ColumnDescription),
			Children:    row[ColumnSceneChildren],
			Effects:     row[ColumnEffects],
			Logs:        row[ColumnLogs],
		})
	}

	data.effectIDs = sortedKeys(tables.Effects)
	for _, id := range data.effectIDs {
		row := tables.Effects[id]
		effect := NewEffect(id, EffectSpec{
			Commands:     row[ColumnEffectCommand],
			Files:        row[ColumnEffectFile],
			Destinations: row[ColumnEffectFileDestination],
			Hosts:        row[ColumnAgentIP],
			Usernames:    row[ColumnAgentUsername],
			Passwords:    row[ColumnAgentPassword],
		}, options.DefaultDestination)
		data.effects[id] = effect
		data.issues = append(data.issues, effect.Issues...)
	}

	data.logIDs = sortedKeys(tables.Logs)
	for _, id := range data.logIDs {
		row := tables.Logs[id]
		data.logs[id] = LogSource{
			ID:     id,
			File:   row.First(ColumnLogFile),
			Config: row.First(ColumnConfigFile),
			Index:  row.First(ColumnLogIndex),
			Time:   row.First(ColumnLogTime),
		}
	}

	return data
}

// Scene returns the scene with exactly this identifier.
func (d *Data) Scene(id string) (Scene, bool) {
	index, ok := d.sceneIndex[id]
	if !ok {
		return Scene{}, false
	}
	return d.scenes[index], true
}

// FindScene returns the scene whose identifier matches id, ignoring
// case. An exact match wins over a case-folded one.
func (d *Data) FindScene(id string) (Scene, bool) {
	if scene, ok := d.Scene(id); ok {
		return scene, true
	}
	for _, scene := range d.scenes {
		if strings.EqualFold(scene.ID, id) {
			return scene, true
		}
	}
	return Scene{}, false
}

// Children returns the child identifiers of scene id, or nil.
func (d *Data) Children(id string) []string {
	scene, ok := d.Scene(id)
	if !ok {
		return nil
	}
	return scene.Children
}

// InitialScene returns the scene a session starts on: "0" when
// defined, otherwise the first scene in natural order. It returns ""
// for a scenario without scenes.
func (d *Data) InitialScene() string {
	if _, ok := d.sceneIndex[InitialSceneID]; ok {
		return InitialSceneID
	}
	if len(d.scenes) == 0 {
		return ""
	}
	return d.scenes[0].ID
}

// Effect returns the effect with this identifier.
func (d *Data) Effect(id string) (Effect, bool) {
	effect, ok := d.effects[id]
	return effect, ok
}

// Log returns the log source with this identifier.
func (d *Data) Log(id string) (LogSource, bool) {
	source, ok := d.logs[id]
	return source, ok
}

// SceneIDs returns every scene identifier in natural order.
func (d *Data) SceneIDs() []string {
	ids := make([]string, len(d.scenes))
	for index, scene := range d.scenes {
		ids[index] = scene.ID
	}
	return ids
}

// EffectIDs returns every effect identifier in natural order.
func (d *Data) EffectIDs() []string {
	return append([]string(nil), d.effectIDs...)
}

// LogIDs returns every log source identifier in natural order.
func (d *Data) LogIDs() []string {
	return append([]string(nil), d.logIDs...)
}

// Issues returns the configuration problems found by Build.
func (d *Data) Issues() []Issue {
	return append([]Issue(nil), d.issues...)
}

// Suggest returns the scene identifier closest to a mistyped id, or "".
func (d *Data) Suggest(id string) string {
	return suggest.Closest(id, d.SceneIDs())
}
