// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package effects runs scenario effects on their target hosts.
//
// An [Agent] owns one effect. Run starts one session per target host;
// each session connects, uploads the effect's artifacts in order, then
// runs its commands in order, streaming output onto the effects stream
// of the event bus tagged with user@host. Hosts are independent: a
// failed connection or upload ends only that host's session.
//
// All sessions share one context. Cancel cancels it and waits for every
// session to exit, so once Cancel returns the agent dials nothing and
// publishes nothing. When every session has ended on its own the agent
// marks itself finished the same way, which is what the engine's
// reaper looks for.
//
// The transport is abstracted behind [Dialer], [Conn], and [Process].
// [SSHDialer] adapts the lib/remote implementation.
package effects
