// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// document is the YAML/JSON form of a scenario:
//
//	scenario:
//	  "0":
//	    description: Baseline traffic
//	    scene_children: ["1"]
//	    logs: baseline
//	effects: { ... }
//	logs: { ... }
type document struct {
	Scenario map[string]map[string]values `yaml:"scenario" json:"scenario"`
	Effects  map[string]map[string]values `yaml:"effects" json:"effects"`
	Logs     map[string]map[string]values `yaml:"logs" json:"logs"`
}

// values is one attribute: a scalar or a list of scalars. Numbers and
// booleans keep their literal text; null is absent.
type values []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (v *values) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = nil
			return nil
		}
		*v = values{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(values, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be scalars", item.Line)
			}
			if item.Tag == "!!null" {
				continue
			}
			out = append(out, item.Value)
		}
		*v = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// UnmarshalJSON accepts a scalar or an array of scalars.
func (v *values) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(values, 0, len(items))
		for _, item := range items {
			text, ok, err := jsonScalar(item)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, text)
			}
		}
		*v = out
		return nil
	}
	text, ok, err := jsonScalar(data)
	if err != nil {
		return err
	}
	if ok {
		*v = values{text}
	} else {
		*v = nil
	}
	return nil
}

// jsonScalar returns the text of a JSON string, number, or boolean.
// The second result is false for null.
func jsonScalar(data json.RawMessage) (string, bool, error) {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return "", false, fmt.Errorf("empty value")
	case string(data) == "null":
		return "", false, nil
	case data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return "", false, err
		}
		return text, true, nil
	case data[0] == '{' || data[0] == '[':
		return "", false, fmt.Errorf("expected a string or a list of strings, got %s", data)
	default:
		return string(data), true, nil
	}
}

// ParseYAML parses a YAML scenario document.
func ParseYAML(data []byte) (Tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Tables{}, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	return doc.tables(), nil
}

// ParseJSONC parses a JSON scenario document. Comments and trailing
// commas are allowed.
func ParseJSONC(data []byte) (Tables, error) {
	var doc document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return Tables{}, fmt.Errorf("parsing scenario JSON: %w", err)
	}
	return doc.tables(), nil
}

func (d document) tables() Tables {
	return Tables{
		Scenario: convertTable(d.Scenario),
		Effects:  convertTable(d.Effects),
		Logs:     convertTable(d.Logs),
	}
}

func convertTable(raw map[string]map[string]values) Table {
	table := make(Table, len(raw))
	for id, attributes := range raw {
		row := make(Row, len(attributes))
		for column, items := range attributes {
			column = strings.ToLower(strings.TrimSpace(column))
			if column == ColumnDescription {
				row.setValues(column, []string(items))
				continue
			}
			trimmed := make([]string, len(items))
			for index, item := range items {
				trimmed[index] = strings.TrimSpace(item)
			}
			row.setValues(column, trimmed)
		}
		table[strings.TrimSpace(id)] = row
	}
	return table
}
