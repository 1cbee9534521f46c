// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads raw tables from path, choosing the loader by extension:
// .xlsx for workbooks, .yaml/.yml for YAML, .json/.jsonc for JSON with
// comments.
func Load(path string) (Tables, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadWorkbook(path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Tables{}, fmt.Errorf("reading scenario: %w", err)
		}
		return ParseYAML(data)
	case ".json", ".jsonc":
		data, err := os.ReadFile(path)
		if err != nil {
			return Tables{}, fmt.Errorf("reading scenario: %w", err)
		}
		return ParseJSONC(data)
	default:
		return Tables{}, fmt.Errorf("unsupported scenario format %q (want .xlsx, .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}
}

// Open loads and builds the scenario at path.
func Open(path string, options BuildOptions) (*Data, error) {
	tables, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(tables, options), nil
}
