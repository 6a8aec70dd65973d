package automator

import (
	"fridactl/internal/compat"
	"fridactl/internal/frida"
)

// ActionKind identifies a remediation step.
type ActionKind string

const (
	ActionInstallServer  ActionKind = "install_frida_server"
	ActionFixVersion     ActionKind = "fix_version"
	ActionStartServer    ActionKind = "start_server"
	ActionDisableSELinux ActionKind = "disable_selinux"
	ActionInstallClient  ActionKind = "install_frida_client"
)

// Action is one planned remediation step. Command is the equivalent shell
// invocation, shown to users who prefer to run steps themselves.
type Action struct {
	Kind        ActionKind `json:"action"`
	Version     string     `json:"version,omitempty"`
	Arch        string     `json:"arch,omitempty"`
	Command     string     `json:"command"`
	Description string     `json:"description"`
}

// Outcome records what happened when an action ran.
type Outcome struct {
	Action  Action `json:"action"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Report is a point-in-time picture of the frida setup: what is installed
// where, whether the versions agree, and which steps would fix the gaps.
type Report struct {
	Device         *compat.DeviceFacts    `json:"device,omitempty"`
	Client         compat.VersionInfo     `json:"client"`
	Tools          compat.VersionInfo     `json:"tools"`
	Server         compat.VersionInfo     `json:"server"`
	Compatibility  compat.Result          `json:"compatibility"`
	Recommendation *compat.Recommendation `json:"recommendation,omitempty"`
	ServerStatus   *frida.ServerStatus    `json:"server_status,omitempty"`
	Issues         []string               `json:"issues"`
	Actions        []Action               `json:"actions"`
	TargetVersion  string                 `json:"target_version"`
	TargetReason   string                 `json:"target_reason"`
}

// RunResult is the outcome of a full analyze-and-fix pass.
type RunResult struct {
	Analysis     *Report             `json:"analysis"`
	ActionsTaken []Outcome           `json:"actions_taken"`
	Success      bool                `json:"success"`
	FinalStatus  *frida.ServerStatus `json:"final_status,omitempty"`
}
