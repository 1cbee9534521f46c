// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration used for the
// binary session archive.
//
// Operator-facing output is text (the console and the ECS_Log journal)
// and backend traffic is JSON. The archive is the one place where a
// run's event stream is kept in a compact, typed form for post-run
// analysis, and it is written as a CBOR sequence: one self-delimiting
// item per bus message, appended as the run progresses.
//
//	encoder := codec.NewEncoder(file)
//	err := encoder.Encode(record)
//
//	decoder := codec.NewDecoder(file)
//	for {
//	    var record bus.Record
//	    if err := decoder.Decode(&record); err == io.EOF {
//	        break
//	    }
//	}
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
// Types serialized here use `cbor` struct tags.
package codec
