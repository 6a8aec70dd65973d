package compat

import "fmt"

// Component names used in version reports.
const (
	ComponentClient = "Frida Python"
	ComponentTools  = "Frida Tools"
	ComponentServer = "Frida Server"
)

// Status classifies the relationship between the host client version and
// the on-device server version.
type Status string

const (
	StatusMatch        Status = "match"
	StatusCompatible   Status = "compatible"
	StatusMismatch     Status = "mismatch"
	StatusUnknown      Status = "unknown"
	StatusNotInstalled Status = "not_installed"
)

// VersionInfo describes one observed frida component. Installed=false
// implies an empty Version; an installed component may still report a
// version string that does not parse.
type VersionInfo struct {
	Component string `json:"component"`
	Version   string `json:"version,omitempty"`
	Installed bool   `json:"installed"`
}

func (v VersionInfo) String() string {
	if !v.Installed {
		return v.Component + ": Not installed"
	}
	if v.Version == "" {
		return v.Component + ": Unknown"
	}
	return v.Component + ": " + v.Version
}

// Result is the outcome of a compatibility check.
type Result struct {
	Status        Status `json:"status"`
	Message       string `json:"message"`
	ClientVersion string `json:"client_version,omitempty"`
	ToolsVersion  string `json:"tools_version,omitempty"`
	ServerVersion string `json:"server_version,omitempty"`
	FixCommand    string `json:"fix_command,omitempty"`
}

// IsCompatible reports whether the host client can drive the device server.
// Match and Compatible both qualify; the distinction is messaging only.
func (r Result) IsCompatible() bool {
	return r.Status == StatusMatch || r.Status == StatusCompatible
}

// DeviceFacts captures the device properties that drive compatibility
// decisions and recommendations. Facts are gathered fresh for every
// analysis and never cached across reconnects.
type DeviceFacts struct {
	AndroidVersion int    `json:"android_version"`
	SDKVersion     int    `json:"sdk_version"`
	ABI            string `json:"abi"`
	Arch           string `json:"arch"`
	Model          string `json:"model,omitempty"`
	Manufacturer   string `json:"manufacturer,omitempty"`
	BuildID        string `json:"build_id,omitempty"`
	Fingerprint    string `json:"fingerprint,omitempty"`
	SecurityPatch  string `json:"security_patch,omitempty"`
}

func (f DeviceFacts) String() string {
	return fmt.Sprintf("Android %d (SDK %d, %s)", f.AndroidVersion, f.SDKVersion, f.Arch)
}

// Recommendation pairs a device with the frida-server versions known to
// work on its Android release.
type Recommendation struct {
	AndroidVersion       int      `json:"android_version"`
	AndroidCodename      string   `json:"android_codename"`
	SDKVersion           int      `json:"sdk_version"`
	Architecture         string   `json:"architecture"`
	MinVersion           string   `json:"min_frida_version"`
	RecommendedVersion   string   `json:"recommended_frida_version"`
	CurrentServerVersion string   `json:"current_server_version,omitempty"`
	Notes                []string `json:"notes,omitempty"`
}
