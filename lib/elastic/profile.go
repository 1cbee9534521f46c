// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package elastic

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Section is the profile section holding every backend key. Viper
// lowercases section names, so [ELK] reads as "elk".
const Section = "elk"

// Profile keys.
const (
	KeyIP       = "ip"
	KeyPort     = "port"
	KeyTime     = "time"
	KeyIndex    = "index"
	KeyUsername = "username"
	KeyPassword = "password"
	KeySecurity = "security"
	KeyDelay    = "delay"
)

// RequiredKeys lists every key a profile must define, in file order.
var RequiredKeys = []string{KeyIP, KeyPort, KeyTime, KeyIndex, KeyUsername, KeyPassword, KeySecurity, KeyDelay}

// ErrMissingSection is returned when a profile file has no [ELK]
// section.
var ErrMissingSection = errors.New("profile has no [ELK] section")

// IncompleteProfileError reports the required keys a profile lacks.
type IncompleteProfileError struct {
	Source  string
	Missing []string
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("profile %s: missing %s", e.Source, strings.Join(e.Missing, ", "))
}

// Profile is a backend connection profile.
type Profile struct {
	IP       string
	Port     int
	Time     string
	Index    string
	Username string
	Password string

	// Secure selects https.
	Secure bool

	// Delay selects trickle delivery (paced by original timestamps)
	// instead of a single bulk write.
	Delay bool
}

// BaseURL returns the backend root, "{http|https}://{ip}:{port}".
func (p Profile) BaseURL() string {
	scheme := "http"
	if p.Secure {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

// Key returns the fully qualified viper key for a profile key.
func Key(name string) string {
	return Section + "." + name
}

// NewViper returns a viper instance configured to read INI profiles.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("ini")
	return v
}

// LoadProfile reads the INI profile at path. The file must contain the
// [ELK] section and every key in RequiredKeys.
func LoadProfile(path string) (Profile, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Profile{}, fmt.Errorf("reading profile %s: %w", path, err)
	}
	if !v.InConfig(Section) {
		return Profile{}, fmt.Errorf("%s: %w", path, ErrMissingSection)
	}
	return ReadProfile(v, path)
}

// ReadProfile extracts a Profile from v, which may combine a profile
// file with defaults, bound flags, and environment. source names the
// configuration in error messages.
func ReadProfile(v *viper.Viper, source string) (Profile, error) {
	var missing []string
	for _, key := range RequiredKeys {
		if !v.IsSet(Key(key)) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Profile{}, &IncompleteProfileError{Source: source, Missing: missing}
	}

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString(Key(KeyPort))))
	if err != nil || port <= 0 || port > 65535 {
		return Profile{}, fmt.Errorf("profile %s: invalid port %q", source, v.GetString(Key(KeyPort)))
	}
	secure, err := parseBool(v.GetString(Key(KeySecurity)))
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: security: %w", source, err)
	}
	delay, err := parseBool(v.GetString(Key(KeyDelay)))
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: delay: %w", source, err)
	}

	return Profile{
		IP:       strings.TrimSpace(v.GetString(Key(KeyIP))),
		Port:     port,
		Time:     strings.TrimSpace(v.GetString(Key(KeyTime))),
		Index:    strings.TrimSpace(v.GetString(Key(KeyIndex))),
		Username: v.GetString(Key(KeyUsername)),
		Password: v.GetString(Key(KeyPassword)),
		Secure:   secure,
		Delay:    delay,
	}, nil
}

// parseBool accepts the spellings profiles use: True/False in any
// case, 1/0, yes/no, on/off.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}
