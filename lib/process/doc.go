// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the ecs binary:
// fatal error reporting to stderr before the structured logger exists,
// and the single process exit after run() returns.
package process
