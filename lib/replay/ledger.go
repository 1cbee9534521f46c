// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"strings"
	"sync"
)

// AllIndexes is the pseudo-index that expands to every index in the
// ledger. It is matched case-insensitively and never deleted
// literally.
const AllIndexes = "all"

// IsAllIndexes reports whether index names the "all" pseudo-index.
func IsAllIndexes(index string) bool {
	return strings.EqualFold(strings.TrimSpace(index), AllIndexes)
}

// IndexLedger records the index of every controller created in a
// session. It only grows; clearing reads it without consuming it, so
// "all" can be cleared more than once.
type IndexLedger struct {
	mu    sync.Mutex
	names []string
}

// NewIndexLedger returns an empty ledger.
func NewIndexLedger() *IndexLedger {
	return &IndexLedger{}
}

// Append records an index name.
func (l *IndexLedger) Append(index string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, index)
}

// Names returns every recorded name, duplicates included, in append
// order.
func (l *IndexLedger) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

// Distinct returns the recorded names without duplicates, in
// first-seen order.
func (l *IndexLedger) Distinct() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]bool, len(l.names))
	var distinct []string
	for _, name := range l.names {
		if seen[name] {
			continue
		}
		seen[name] = true
		distinct = append(distinct, name)
	}
	return distinct
}
