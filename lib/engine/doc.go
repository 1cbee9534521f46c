// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine steps an operator through a scenario.
//
// The [Engine] tracks the current scene. [Engine.Activate] moves to a
// scene and starts one worker per effect and per log source the scene
// references, without waiting for any of them. Workers are effects
// agents and replay controllers; the engine only needs the small
// [Worker] interface they share.
//
// Every started worker is recorded in a [Registry] under an opaque
// handle. A reaper goroutine, ticking on the injected clock, drops
// entries whose worker reports itself finished. [Engine.Kill] cancels
// and joins workers by kind and name before removing them, so a killed
// worker is fully stopped by the time Kill returns. [Engine.Shutdown]
// does the same for everything, stops the reaper, and closes the bus so
// its consumer drains and exits.
package engine
