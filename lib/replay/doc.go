// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package replay re-ingests recorded log dumps into the analytics
// backend so a scenario's telemetry appears as if it were happening
// now (or at any chosen time).
//
// The pipeline has three stages:
//
//   - [Parse] reads a dump in which each line may hold several JSON
//     records written back to back with no separator (the shape
//     logstash's json file output produces). [OpenDump] transparently
//     decompresses .gz, .zst, and .lz4 dumps.
//   - [Normalize] shifts every timestamp so the first one found lands
//     on the chosen origin while all inter-event deltas are preserved.
//     Two conventions are recognized: ISO-8601 millisecond timestamps
//     anywhere in a record (winlogbeat and friends), and a numeric
//     epoch-seconds "ts" field (Zeek). A record carrying both is a
//     format conflict, and nothing from the batch is delivered.
//   - [SendBulk] writes the whole batch in one request; [Trickle]
//     replays events one at a time, sleeping on the injected clock for
//     each original inter-event gap.
//
// A [Controller] runs the pipeline for one log source on its own
// goroutine, publishing progress to the event bus, and can be
// cancelled at any suspension point. Every controller of a session
// records its index in a shared [IndexLedger]; clearing the "all"
// pseudo-index deletes every index recorded there.
package replay
