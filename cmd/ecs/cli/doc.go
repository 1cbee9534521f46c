// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the ecs binary.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/ecs/commands and dispatched via [Command.Execute], which handles
// flag parsing, subcommand routing, and structured help output with
// examples.
//
// Flags are usually declared as tagged struct fields and bound with
// [FlagsFromParams]. When a user types an unknown subcommand or flag,
// the framework suggests the closest known name (edit distance <= 3,
// see lib/suggest).
//
// Run receives a logger from [NewCommandLogger]: text on a terminal,
// JSON otherwise, at debug level when the command's --verbose flag is
// set. Commands that choose their own exit status return [ExitError].
package cli
