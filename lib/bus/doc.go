// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package bus is the event bus that decouples workers from whoever is
// watching them.
//
// A [Bus] carries four independent streams of text lines: effect
// output, log-replay notices, context notices (reserved), and errors.
// Each stream is an unbounded FIFO [Queue]: remote sessions and log
// replays publish from their own goroutines, and a single consumer (the
// console, or the headless play command) drains them. Nothing is ever
// dropped; a slow consumer grows the queue instead of losing output
// from a live experiment.
//
// Consumers block in [Bus.Wait] and then call [Bus.Drain], which
// returns pending messages grouped by stream in the console's display
// order: effects, logs, context, errors.
//
// [Journal] and [Archive] persist what the consumer saw: a plain text
// system log (ECS_Log.txt, or ECS_Log1.txt, ECS_Log2.txt, ... when a
// previous run's journal exists) and a CBOR sequence of typed records
// for post-run analysis.
package bus
