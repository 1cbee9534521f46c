// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Ecs is the experiment control system CLI. It steps an operator
// through a scenario of scenes, running remote effects over SSH and
// replaying recorded logs into an analytics backend as each scene is
// activated. Subcommands provide the interactive console, a headless
// player, the standalone log replayer, and scenario inspection tools.
package main
