// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import "fmt"

// DefaultDestination is the upload destination used when an effect
// names none: the remote user's home directory.
const DefaultDestination = "~/"

// Target is one remote host an effect runs on.
type Target struct {
	Host     string
	Username string
	Password string
}

// Identity returns "user@host", the tag used on every output line.
func (t Target) Identity() string {
	return t.Username + "@" + t.Host
}

// Upload is one artifact copied to every target before commands run.
type Upload struct {
	Source      string
	Destination string
}

// Effect is a remote action: uploads followed by commands, run on
// every target concurrently.
type Effect struct {
	ID       string
	Commands []string
	Uploads  []Upload
	Targets  []Target

	// Issues lists configuration problems found at construction. A
	// target with an empty Username or Password is never connected.
	Issues []Issue
}

// EffectSpec is the unnormalized form of an effect, one list per
// column, as written by the scenario author.
type EffectSpec struct {
	Commands     []string
	Files        []string
	Destinations []string
	Hosts        []string
	Usernames    []string
	Passwords    []string
}

// NewEffect builds a normalized Effect from spec. Targets and Uploads
// come out as fixed-size parallel sequences:
//
//   - usernames and passwords shorter than hosts are padded with their
//     last value; surplus values are ignored
//   - destinations shorter than files are padded with their last value,
//     and default to defaultDestination when none are given
//   - no usernames (or passwords) at all leaves the field empty on every
//     target and records one Issue per host
//
// An empty defaultDestination means DefaultDestination.
func NewEffect(id string, spec EffectSpec, defaultDestination string) Effect {
	if defaultDestination == "" {
		defaultDestination = DefaultDestination
	}
	effect := Effect{
		ID:       id,
		Commands: append([]string(nil), spec.Commands...),
	}

	usernames := broadcast(spec.Usernames, len(spec.Hosts))
	passwords := broadcast(spec.Passwords, len(spec.Hosts))
	for index, host := range spec.Hosts {
		target := Target{Host: host}
		if usernames != nil {
			target.Username = usernames[index]
		} else {
			effect.Issues = append(effect.Issues, Issue{
				Table:   TableEffects,
				ID:      id,
				Message: fmt.Sprintf("No username for IP: %s", host),
			})
		}
		if passwords != nil {
			target.Password = passwords[index]
		} else {
			effect.Issues = append(effect.Issues, Issue{
				Table:   TableEffects,
				ID:      id,
				Message: fmt.Sprintf("No password for IP: %s", host),
			})
		}
		effect.Targets = append(effect.Targets, target)
	}
	if len(spec.Hosts) == 0 && (len(spec.Commands) > 0 || len(spec.Files) > 0) {
		effect.Issues = append(effect.Issues, Issue{
			Table:   TableEffects,
			ID:      id,
			Message: fmt.Sprintf("No agent_ip for effect: %s", id),
		})
	}

	destinations := broadcast(spec.Destinations, len(spec.Files))
	for index, source := range spec.Files {
		destination := defaultDestination
		if destinations != nil {
			destination = destinations[index]
		}
		effect.Uploads = append(effect.Uploads, Upload{Source: source, Destination: destination})
	}

	return effect
}

// broadcast returns values stretched or cut to length n, repeating the
// last value. It returns nil when values is empty.
func broadcast(values []string, n int) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, n)
	for index := range out {
		if index < len(values) {
			out[index] = values[index]
		} else {
			out[index] = values[len(values)-1]
		}
	}
	return out
}

// Issue is a non-fatal configuration problem. The scenario stays
// usable; the affected part is skipped at run time.
type Issue struct {
	Table   string
	ID      string
	Message string
}

// String returns the operator-facing message.
func (i Issue) String() string {
	return i.Message
}
