// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote is the SSH transport used by effect sessions.
//
// A [Dialer] opens authenticated connections (password, with a
// keyboard-interactive fallback that answers every prompt with the
// same password). Connection attempts are bounded by a short timeout
// and never retried; the operator re-runs the scene instead.
//
// [Conn.Upload] copies an artifact over SFTP. Destinations follow scp
// conventions: "~/" is the login directory, and a destination that is
// empty, ends in "/", or names an existing directory receives the
// source's base name. The copy is hashed with BLAKE3 as it streams so
// the operator can match what landed on the host against the local
// artifact.
//
// [Conn.Start] runs a command wrapped as
//
//	echo $$; exec bash -c '<command>'
//
// so the first output line is the PID of the process the command runs
// as. Standard output and standard error are merged into one line
// stream. Cancelling the context passed to Start closes the session,
// which ends the stream and unblocks every reader.
package remote
