// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"strings"
)

// Kind classifies registered workers.
type Kind int

const (
	// KindEffect is an effects agent.
	KindEffect Kind = iota

	// KindLog is a replay or index-clearing controller.
	KindLog
)

func (k Kind) String() string {
	switch k {
	case KindEffect:
		return "effect"
	case KindLog:
		return "log"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses "effect" or "log", case-insensitively. The plural
// forms are accepted too.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "effect", "effects", "efx":
		return KindEffect, nil
	case "log", "logs":
		return KindLog, nil
	default:
		return 0, fmt.Errorf("unknown worker kind %q (want effect or log)", name)
	}
}
