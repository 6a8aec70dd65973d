// Package compat implements version parsing, compatibility checking and
// per-device version recommendations for frida components. It is pure
// computation: nothing in this package touches a device, the network or
// the filesystem.
package compat

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.?(\d+)?`)

// Tuple is a parsed three-component version. The zero Tuple is the
// defined result for unparsable input, never an error.
type Tuple struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// Parse extracts a version tuple from a free-form version string such as
// "16.1.17" or "v16.1". A missing patch component is zero. Input that does
// not begin with "<digits>.<digits>" parses to the zero Tuple.
func Parse(s string) Tuple {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Tuple{}
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch := 0
	if m[3] != "" {
		patch, _ = strconv.Atoi(m[3])
	}
	return Tuple{Major: major, Minor: minor, Patch: patch}
}

// Compare orders two tuples lexicographically by major, minor, patch.
func Compare(a, b Tuple) int {
	if c := cmp.Compare(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Minor, b.Minor); c != 0 {
		return c
	}
	return cmp.Compare(a.Patch, b.Patch)
}

// Compatible reports whether two version strings can interoperate.
// Strict requires full equality. Non-strict compares major and minor only:
// the frida client/server protocol is stable across patch releases.
func Compatible(v1, v2 string, strict bool) bool {
	a := Parse(v1)
	b := Parse(v2)
	if strict {
		return a == b
	}
	return a.Major == b.Major && a.Minor == b.Minor
}

// IsZero reports whether the tuple is the degenerate parse result.
func (t Tuple) IsZero() bool {
	return t == Tuple{}
}

func (t Tuple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}
