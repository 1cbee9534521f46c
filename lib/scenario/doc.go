// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package scenario loads and validates experiment scenario definitions.
//
// A scenario is three tables keyed by identifier:
//
//   - scenario: scenes, each with a description, child scenes, and the
//     effects and log sources active while the scene is current
//   - effects: remote actions (hosts, credentials, uploads, commands)
//   - logs: recorded log dumps and the backend profile to replay them to
//
// The raw form ([Tables]) is what every loader produces: an .xlsx
// workbook with one sheet per table, or a YAML/JSON(C) document with one
// top-level key per table. [Build] converts raw tables into [Data], the
// typed, immutable view the engine consumes. Scenes live in an arena
// indexed by identifier; the scene graph may contain cycles and is
// never walked through pointers.
//
// Effect definitions are normalized once, in [NewEffect]: when fewer
// credentials than hosts (or destinations than uploads) are given, the
// last value is broadcast to the rest. Missing credentials are recorded
// as [Issue] values rather than errors; the affected hosts are skipped
// at run time while the rest of the scenario stays usable.
//
// [Data.Validate] checks every cross-reference and referenced file and
// reports all problems at once.
package scenario
