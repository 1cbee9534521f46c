// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"errors"
	"fmt"
	"os"
)

// Validate checks every cross-reference and referenced file. It
// returns the configuration issues from Build and, when anything is
// broken, one error joining every problem found:
//
//   - a scene referencing an unknown effect, log source, or child scene
//   - an effect_file, log_file, or config_file path that does not exist
//   - a log source without a config_file
func (d *Data) Validate() ([]Issue, error) {
	var problems []error

	for _, scene := range d.scenes {
		for _, id := range scene.Effects {
			if _, ok := d.effects[id]; !ok {
				problems = append(problems, fmt.Errorf("scene %s: effect reference %q does not exist", scene.ID, id))
			}
		}
		for _, id := range scene.Logs {
			if _, ok := d.logs[id]; !ok {
				problems = append(problems, fmt.Errorf("scene %s: log reference %q does not exist", scene.ID, id))
			}
		}
		for _, id := range scene.Children {
			if _, ok := d.sceneIndex[id]; !ok {
				problems = append(problems, fmt.Errorf("scene %s: scene child %q does not exist", scene.ID, id))
			}
		}
	}

	for _, id := range d.effectIDs {
		for _, upload := range d.effects[id].Uploads {
			if err := checkFile(upload.Source); err != nil {
				problems = append(problems, fmt.Errorf("effect %s: %s: %w", id, ColumnEffectFile, err))
			}
		}
	}

	for _, id := range d.logIDs {
		source := d.logs[id]
		if source.File != "" {
			if err := checkFile(source.File); err != nil {
				problems = append(problems, fmt.Errorf("log %s: %s: %w", id, ColumnLogFile, err))
			}
		}
		if source.Config == "" {
			problems = append(problems, fmt.Errorf("log %s: no %s given", id, ColumnConfigFile))
		} else if err := checkFile(source.Config); err != nil {
			problems = append(problems, fmt.Errorf("log %s: %s: %w", id, ColumnConfigFile, err))
		}
	}

	return d.Issues(), errors.Join(problems...)
}

func checkFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s does not exist", path)
	}
	return nil
}

// ProblemCount returns the number of problems joined in an error from
// Validate: zero for nil, one for a plain error.
func ProblemCount(err error) int {
	if err == nil {
		return 0
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return len(joined.Unwrap())
	}
	return 1
}
