// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the ecs
// binary.
//
// The operator configuration is a single optional file named by the
// --config flag or the ECS_CONFIG environment variable (see [Resolve]).
// Without either, [Default] applies. Values present in the file
// replace defaults; nothing else overrides them.
//
// Durations are strings in time.ParseDuration syntax ("5s", "250ms").
// Path fields support ${VAR} and ${VAR:-default} expansion.
//
// Key exports:
//
//   - [Config] -- console, engine, effects, and replay sections
//   - [Default] -- a Config with the standard lab defaults
//   - [Load], [LoadFile], [Resolve] -- entry points for loading
//
// The analytics backend profiles are a separate INI format handled by
// lib/elastic; this package only covers the operator's own settings.
package config
