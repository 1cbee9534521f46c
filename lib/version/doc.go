// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the ecs
// binary.
//
// Version information is injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/ecs-project/ecs/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
