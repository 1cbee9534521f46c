// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

// Package elastic talks to the search/analytics backend that recorded
// logs are replayed into.
//
// A [Profile] is loaded from an INI file with an [ELK] section:
//
//	[ELK]
//	ip = 10.1.7.135
//	port = 9200
//	time = 2022-12-13T12:00:00.000Z
//	username = elastic
//	password = password
//	index = test
//	security = False
//	delay = False
//
// Every key is required; [LoadProfile] reports the missing ones in an
// [*IncompleteProfileError]. [ReadProfile] accepts a caller-prepared
// viper instance so command-line flags and environment variables can
// be layered over (or replace) the file.
//
// [Client] implements the two operations the replay pipeline needs:
// bulk writes (POST /_bulk/?pretty with an NDJSON body) and index
// deletion (DELETE /{index}?pretty). TLS certificates are not verified:
// the backend lives on an operator-controlled lab network and commonly
// uses self-signed certificates.
package elastic
