package compat

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultVersion is the last-resort install target when no better
	// version can be determined.
	DefaultVersion = "16.1.17"
	// DefaultMinVersion applies to Android releases missing from the table.
	DefaultMinVersion = "12.0.0"
)

//go:embed recommendations.yaml
var recommendationsYAML []byte

// Entry is one row of the per-Android-release version table.
type Entry struct {
	Min         string `yaml:"min"`
	Recommended string `yaml:"recommended"`
}

var recommendations = mustParseRecommendations(recommendationsYAML)

func mustParseRecommendations(raw []byte) map[int]Entry {
	var table struct {
		Android map[int]Entry `yaml:"android"`
	}
	if err := yaml.Unmarshal(raw, &table); err != nil {
		panic(fmt.Sprintf("compat: malformed recommendations.yaml: %v", err))
	}
	return table.Android
}

// Lookup returns the version table entry for an Android major release.
func Lookup(androidVersion int) (Entry, bool) {
	e, ok := recommendations[androidVersion]
	return e, ok
}

// LatestFunc resolves the newest published frida release. It is consulted
// only when the version table has no entry for the device's Android release.
type LatestFunc func(ctx context.Context) (string, error)

// Recommend derives the version recommendation for a device. A table miss
// falls back to the latest published release, and to DefaultVersion when
// that lookup fails too.
func Recommend(ctx context.Context, facts DeviceFacts, server VersionInfo, latest LatestFunc) Recommendation {
	entry, ok := Lookup(facts.AndroidVersion)
	if !ok {
		entry = Entry{Min: DefaultMinVersion}
		if latest != nil {
			if v, err := latest(ctx); err == nil {
				entry.Recommended = v
			}
		}
		if entry.Recommended == "" {
			entry.Recommended = DefaultVersion
		}
	}

	var notes []string
	if facts.AndroidVersion >= 14 {
		notes = append(notes, "Android 14+ may require latest Frida for full compatibility")
	}
	if strings.Contains(facts.ABI, "x86") {
		notes = append(notes, "x86 device detected - likely an emulator")
	}
	if facts.SecurityPatch != "" {
		notes = append(notes, "Security patch: "+facts.SecurityPatch)
	}

	rec := Recommendation{
		AndroidVersion:     facts.AndroidVersion,
		AndroidCodename:    Codename(facts.AndroidVersion),
		SDKVersion:         facts.SDKVersion,
		Architecture:       facts.Arch,
		MinVersion:         entry.Min,
		RecommendedVersion: entry.Recommended,
		Notes:              notes,
	}
	if server.Installed {
		rec.CurrentServerVersion = server.Version
	}
	return rec
}

var codenames = map[int]string{
	5:  "Lollipop",
	6:  "Marshmallow",
	7:  "Nougat",
	8:  "Oreo",
	9:  "Pie",
	10: "Q",
	11: "R",
	12: "S",
	13: "Tiramisu",
	14: "Upside Down Cake",
	15: "Vanilla Ice Cream",
}

// Codename maps an Android major release to its codename.
func Codename(androidVersion int) string {
	if name, ok := codenames[androidVersion]; ok {
		return name
	}
	return "Unknown"
}
