// Package automator analyzes a device's frida setup and, on request, runs
// the remediation steps that bring it to a working state, from installing
// a version-matched server to relaxing SELinux enforcement.
//
// Analyze is read-only and returns the same Report whether or not fixes
// will run; Run executes the planned actions in order and never aborts the
// batch on a single failure.
package automator

import (
	"context"
	"fmt"
	"strings"

	"fridactl/internal/adb"
	"fridactl/internal/compat"
	"fridactl/internal/frida"
)

// Inventory is the component and device observation surface the automator
// consumes.
type Inventory interface {
	HostClient(ctx context.Context) compat.VersionInfo
	HostTools(ctx context.Context) compat.VersionInfo
	DeviceServer(ctx context.Context, serial string) compat.VersionInfo
	Facts(ctx context.Context, serial string) *compat.DeviceFacts
}

// AgentManager is the server lifecycle surface the automator consumes.
type AgentManager interface {
	Install(ctx context.Context, serial, version, arch string, force bool) (string, error)
	ListInstalled(ctx context.Context, serial string) []string
	Start(ctx context.Context, serial, serverPath string, wait bool) (int, error)
	Status(ctx context.Context, serial string) *frida.ServerStatus
}

// Shell runs commands on the device, with and without root.
type Shell interface {
	Shell(ctx context.Context, serial, command string) adb.Result
	ShellSu(ctx context.Context, serial, command string) adb.Result
}

// Automator plans and executes remediation for one device.
type Automator struct {
	serial string
	inv    Inventory
	mgr    AgentManager
	shell  Shell
	latest compat.LatestFunc
}

// New returns an Automator for the device with the given serial.
func New(serial string, inv Inventory, mgr AgentManager, shell Shell, latest compat.LatestFunc) *Automator {
	return &Automator{serial: serial, inv: inv, mgr: mgr, shell: shell, latest: latest}
}

// targetVersion decides which server version remediation should install,
// in fixed priority order: the host client version, the recommendation for
// the device's Android release, the latest published release, and finally
// the built-in default.
func (a *Automator) targetVersion(ctx context.Context, client compat.VersionInfo, facts *compat.DeviceFacts, server compat.VersionInfo) (string, string) {
	if client.Installed && client.Version != "" {
		return client.Version, "Matching host Frida client v" + client.Version
	}

	if facts != nil && facts.AndroidVersion > 0 {
		rec := compat.Recommend(ctx, *facts, server, a.latest)
		if rec.RecommendedVersion != "" {
			return rec.RecommendedVersion, fmt.Sprintf("Recommended for Android %d", rec.AndroidVersion)
		}
	}

	if a.latest != nil {
		if v, err := a.latest(ctx); err == nil && v != "" {
			return v, "Latest available version"
		}
	}

	return compat.DefaultVersion, "Default fallback version"
}

// Analyze inspects host and device and reports issues with the actions
// that would resolve them. It performs no writes on either side.
func (a *Automator) Analyze(ctx context.Context) *Report {
	client := a.inv.HostClient(ctx)
	tools := a.inv.HostTools(ctx)
	server := a.inv.DeviceServer(ctx, a.serial)
	facts := a.inv.Facts(ctx, a.serial)
	status := a.mgr.Status(ctx, a.serial)

	report := &Report{
		Device:        facts,
		Client:        client,
		Tools:         tools,
		Server:        server,
		Compatibility: compat.Check(client, tools, server),
		ServerStatus:  status,
		Issues:        []string{},
		Actions:       []Action{},
	}
	if facts != nil {
		rec := compat.Recommend(ctx, *facts, server, a.latest)
		report.Recommendation = &rec
	}
	report.TargetVersion, report.TargetReason = a.targetVersion(ctx, client, facts, server)

	arch := ""
	if facts != nil {
		arch = facts.Arch
	}

	if !client.Installed {
		report.Issues = append(report.Issues, "Frida Python library not installed on host")
		report.Actions = append(report.Actions, Action{
			Kind:        ActionInstallClient,
			Command:     "pip install frida frida-tools",
			Description: "Install Frida client and tools on the host",
		})
	}

	switch {
	case !server.Installed:
		report.Issues = append(report.Issues, "Frida server not installed on device")
		report.Actions = append(report.Actions, Action{
			Kind:        ActionInstallServer,
			Version:     report.TargetVersion,
			Arch:        arch,
			Command:     "fridactl install " + report.TargetVersion,
			Description: fmt.Sprintf("Install Frida server %s (%s)", report.TargetVersion, report.TargetReason),
		})
	case report.Compatibility.Status == compat.StatusMismatch:
		fixVersion, fixReason := report.TargetVersion, report.TargetReason
		if client.Installed && client.Version != "" {
			fixVersion = client.Version
			fixReason = "Matching host Frida client v" + client.Version
		}
		report.Issues = append(report.Issues, report.Compatibility.Message)
		report.Actions = append(report.Actions, Action{
			Kind:        ActionFixVersion,
			Version:     fixVersion,
			Arch:        arch,
			Command:     "fridactl install " + fixVersion,
			Description: fmt.Sprintf("Install Frida server %s (%s)", fixVersion, fixReason),
		})
	}

	if server.Installed && status != nil && !status.Running {
		report.Actions = append(report.Actions, Action{
			Kind:        ActionStartServer,
			Command:     "fridactl start",
			Description: "Start the Frida server",
		})
	}

	if res := a.shell.Shell(ctx, a.serial, "getenforce"); strings.Contains(res.Stdout, "Enforcing") {
		report.Issues = append(report.Issues, "SELinux is Enforcing (may block Frida)")
		report.Actions = append(report.Actions, Action{
			Kind:        ActionDisableSELinux,
			Command:     "adb shell su -c 'setenforce 0'",
			Description: "Set SELinux to Permissive",
		})
	}

	return report
}

// Run analyzes the device and, when fixIssues is set, executes every
// planned action in order. A failed action does not stop the batch.
// Success is false only when a server install step failed; the final
// server status is re-read after the batch so callers see the real end
// state.
func (a *Automator) Run(ctx context.Context, fixIssues bool) *RunResult {
	analysis := a.Analyze(ctx)
	result := &RunResult{Analysis: analysis, ActionsTaken: []Outcome{}, Success: true}
	if !fixIssues {
		return result
	}

	for _, action := range analysis.Actions {
		outcome := a.execute(ctx, analysis, action)
		result.ActionsTaken = append(result.ActionsTaken, outcome)
		if !outcome.Success && (action.Kind == ActionInstallServer || action.Kind == ActionFixVersion) {
			result.Success = false
		}
	}

	result.FinalStatus = a.mgr.Status(ctx, a.serial)
	return result
}

func (a *Automator) execute(ctx context.Context, analysis *Report, action Action) Outcome {
	out := Outcome{Action: action}

	switch action.Kind {
	case ActionInstallServer, ActionFixVersion:
		version := action.Version
		if version == "" {
			version = analysis.TargetVersion
		}
		if version == "" {
			out.Message = "Could not determine version to install"
			return out
		}
		arch := action.Arch
		if arch == "" && analysis.Device != nil {
			arch = analysis.Device.Arch
		}
		path, err := a.mgr.Install(ctx, a.serial, version, arch, true)
		switch {
		case err != nil:
			out.Message = err.Error()
		case path == "":
			out.Message = "Installation failed"
		default:
			out.Success = true
			out.Message = "Installed v" + version
		}

	case ActionStartServer:
		installed := a.mgr.ListInstalled(ctx, a.serial)
		if len(installed) == 0 {
			out.Message = "No server to start"
			return out
		}
		if _, err := a.mgr.Start(ctx, a.serial, installed[0], true); err != nil {
			out.Message = err.Error()
		} else {
			out.Success = true
			out.Message = "Server started"
		}

	case ActionDisableSELinux:
		a.shell.ShellSu(ctx, a.serial, "setenforce 0")
		out.Success = true
		out.Message = "SELinux set to Permissive"

	case ActionInstallClient:
		out.Message = "Run manually: pip install frida frida-tools"

	default:
		out.Message = fmt.Sprintf("Unknown action %q", action.Kind)
	}

	return out
}
