// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Trickle replay waits out the recorded gap between events, and the
// engine reaper wakes on a fixed interval. Both take a Clock so tests
// can replay hours of recorded traffic, or a long operator session,
// without sleeping:
//
//	c := clock.Fake(time.Date(2022, 12, 9, 19, 14, 25, 0, time.UTC))
//	go replay.Trickle(ctx, sender, c, "winlogbeat", events, nil)
//	c.WaitForTimers(1)         // the replay is waiting for the next event
//	c.Advance(2 * time.Second) // release it deterministically
//
// # FakeClock Synchronization
//
// When a goroutine calls After or NewTicker on a FakeClock, it
// registers a pending waiter. WaitForTimers blocks until a given
// number of waiters are registered, which removes the race between
// registration and Advance.
package clock
