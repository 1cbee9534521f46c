// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

// Table names.
const (
	TableScenario = "scenario"
	TableEffects  = "effects"
	TableLogs     = "logs"
)

// Column names. Workbook headers are matched after lowercasing.
const (
	ColumnDescription   = "description"
	ColumnSceneChildren = "scene_children"
	ColumnEffects       = "effects"
	ColumnLogs          = "logs"

	ColumnEffectCommand         = "effect_command"
	ColumnEffectFile            = "effect_file"
	ColumnEffectFileDestination = "effect_file_destination"
	ColumnAgentIP               = "agent_ip"
	ColumnAgentUsername         = "agent_username"
	ColumnAgentPassword         = "agent_password"

	ColumnLogFile    = "log_file"
	ColumnConfigFile = "config_file"
	ColumnLogIndex   = "log_index"
	ColumnLogTime    = "log_time"
)

// absentValue is the placeholder spreadsheets use for an empty cell.
const absentValue = "None"

// Row maps a column name to its values. An absent column has no
// entry; present columns never hold empty strings or "None".
type Row map[string][]string

// First returns the first value of column, or "".
func (r Row) First(column string) string {
	values := r[column]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Table maps an identifier to its row.
type Table map[string]Row

// Tables is the raw form of a scenario, as produced by the loaders.
type Tables struct {
	Scenario Table
	Effects  Table
	Logs     Table
}

// present reports whether a cell value carries data.
func present(value string) bool {
	return value != "" && value != absentValue
}

// setValues stores the present values under column, leaving the column
// absent when none remain.
func (r Row) setValues(column string, values []string) {
	var kept []string
	for _, value := range values {
		if present(value) {
			kept = append(kept, value)
		}
	}
	if len(kept) > 0 {
		r[column] = kept
	}
}
