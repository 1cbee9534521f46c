// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with a time.After fallback) so individual tests
// do not need direct time.After calls. They are the only place in the
// test suite where real wall-clock timeouts are used; everything else
// runs on a fake clock.
//
// [WriteFile] drops fixture files (log dumps, backend profiles,
// scenario tables) into a test's temporary directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
