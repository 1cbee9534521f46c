// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// TimestampLayout is the format of every timestamp Normalize writes:
// UTC with exactly three fractional digits.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ErrUnsupportedTimeOption is returned for a time option that is not
// no_update, now, or a YYYY-MM-DDTHH:MM:SS.mmmZ timestamp.
var ErrUnsupportedTimeOption = errors.New("time option not supported")

// TimeMode selects how Normalize picks its origin.
type TimeMode int

const (
	// NoUpdate leaves every record untouched.
	NoUpdate TimeMode = iota
	// Now aligns the first timestamp with the moment of normalization.
	Now
	// Explicit aligns the first timestamp with TimeOption.Origin.
	Explicit
)

// Time option keywords as written in profiles and on the command line.
const (
	OptionNoUpdate = "no_update"
	OptionNow      = "now"
)

// TimeOption is a parsed time alignment setting.
type TimeOption struct {
	Mode   TimeMode
	Origin time.Time
}

// String returns the option as it would be written in a profile.
func (o TimeOption) String() string {
	switch o.Mode {
	case NoUpdate:
		return OptionNoUpdate
	case Now:
		return OptionNow
	default:
		return o.Origin.UTC().Format(TimestampLayout)
	}
}

// explicitOrigin matches an explicit origin in full.
var explicitOrigin = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

// ParseTimeOption parses a time alignment setting.
func ParseTimeOption(value string) (TimeOption, error) {
	switch value {
	case OptionNoUpdate:
		return TimeOption{Mode: NoUpdate}, nil
	case OptionNow:
		return TimeOption{Mode: Now}, nil
	}
	if !explicitOrigin.MatchString(value) {
		return TimeOption{}, fmt.Errorf("%w: <%s>", ErrUnsupportedTimeOption, value)
	}
	origin, err := time.Parse(TimestampLayout, value)
	if err != nil {
		return TimeOption{}, fmt.Errorf("%w: <%s>: %v", ErrUnsupportedTimeOption, value, err)
	}
	return TimeOption{Mode: Explicit, Origin: origin}, nil
}
