// Package inventory observes the three version-tagged frida components
// (host Python library, host tools, on-device server) and the device facts
// that drive version recommendations. Every query degrades independently:
// a missing component is reported as not installed, never as an error.
package inventory

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"fridactl/internal/compat"
	"fridactl/internal/frida"
)

const probeTimeout = 10 * time.Second

// runnerFunc executes a host command and returns its trimmed stdout.
// Swapped out in tests.
type runnerFunc func(ctx context.Context, name string, args ...string) (string, error)

// probe is one strategy for obtaining a component version. Probes run in
// order; the first one that yields a version wins.
type probe struct {
	name string
	run  func(ctx context.Context) (string, bool)
}

// PropertyReader exposes the device property dump Facts consumes.
type PropertyReader interface {
	GetProperties(ctx context.Context, serial string) (map[string]string, error)
}

// ServerLister exposes the server observations DeviceServer consumes.
type ServerLister interface {
	Running(ctx context.Context, serial string) []frida.Process
	ListInstalled(ctx context.Context, serial string) []string
}

// Inventory queries host and device state.
type Inventory struct {
	props   PropertyReader
	servers ServerLister
	run     runnerFunc
}

// New returns an Inventory backed by the given adb client and server
// manager.
func New(props PropertyReader, servers ServerLister) *Inventory {
	return &Inventory{props: props, servers: servers, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func firstHit(ctx context.Context, probes []probe) (string, bool) {
	for _, p := range probes {
		if v, ok := p.run(ctx); ok && v != "" {
			log.Debugf("Probe %q found version %s", p.name, v)
			return v, true
		}
		log.Debugf("Probe %q found nothing", p.name)
	}
	return "", false
}

// HostClient reports the frida Python library version installed on the
// host.
func (inv *Inventory) HostClient(ctx context.Context) compat.VersionInfo {
	probes := []probe{
		{name: "python3 frida module", run: func(ctx context.Context) (string, bool) {
			return inv.pythonModuleVersion(ctx, "python3")
		}},
		{name: "python frida module", run: func(ctx context.Context) (string, bool) {
			return inv.pythonModuleVersion(ctx, "python")
		}},
		{name: "pip show frida", run: func(ctx context.Context) (string, bool) {
			return inv.pipVersion(ctx, "frida")
		}},
	}
	v, ok := firstHit(ctx, probes)
	return compat.VersionInfo{Component: compat.ComponentClient, Version: v, Installed: ok}
}

// HostTools reports the frida-tools version installed on the host.
func (inv *Inventory) HostTools(ctx context.Context) compat.VersionInfo {
	probes := []probe{
		{name: "frida --version", run: func(ctx context.Context) (string, bool) {
			out, err := inv.run(ctx, "frida", "--version")
			if err != nil || out == "" {
				return "", false
			}
			return out, true
		}},
		{name: "pip show frida-tools", run: func(ctx context.Context) (string, bool) {
			return inv.pipVersion(ctx, "frida-tools")
		}},
	}
	v, ok := firstHit(ctx, probes)
	return compat.VersionInfo{Component: compat.ComponentTools, Version: v, Installed: ok}
}

func (inv *Inventory) pythonModuleVersion(ctx context.Context, python string) (string, bool) {
	out, err := inv.run(ctx, python, "-c", "import frida; print(frida.__version__)")
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}

func (inv *Inventory) pipVersion(ctx context.Context, pkg string) (string, bool) {
	out, err := inv.run(ctx, "pip", "show", pkg)
	if err != nil {
		return "", false
	}
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "Version:"); ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// DeviceServer reports the frida-server version on the device. A running
// instance's path wins; otherwise the first installed binary is consulted.
func (inv *Inventory) DeviceServer(ctx context.Context, serial string) compat.VersionInfo {
	info := compat.VersionInfo{Component: compat.ComponentServer}
	if serial == "" {
		return info
	}

	if procs := inv.servers.Running(ctx, serial); len(procs) > 0 && procs[0].Path != "" {
		if v := frida.VersionFromPath(procs[0].Path); v != "" {
			info.Version = v
			info.Installed = true
			return info
		}
	}

	if installed := inv.servers.ListInstalled(ctx, serial); len(installed) > 0 {
		if v := frida.VersionFromPath(installed[0]); v != "" {
			info.Version = v
			info.Installed = true
			return info
		}
	}
	return info
}

// All gathers the three component versions in one call.
func (inv *Inventory) All(ctx context.Context, serial string) (client, tools, server compat.VersionInfo) {
	return inv.HostClient(ctx), inv.HostTools(ctx), inv.DeviceServer(ctx, serial)
}

var abiToArch = map[string]string{
	"arm64-v8a":   "arm64",
	"arm64":       "arm64",
	"armeabi-v7a": "arm",
	"armeabi":     "arm",
	"x86":         "x86",
	"x86_64":      "x86_64",
}

// ArchFromABI maps an Android ABI string to the frida release architecture
// tag.
func ArchFromABI(abi string) string {
	if arch, ok := abiToArch[abi]; ok {
		return arch
	}
	return "unknown"
}

// Facts reads the device properties driving compatibility decisions from
// a single getprop dump. Returns nil without a serial; an unreachable
// device yields zero-valued facts rather than an error.
func (inv *Inventory) Facts(ctx context.Context, serial string) *compat.DeviceFacts {
	if serial == "" {
		return nil
	}

	props, err := inv.props.GetProperties(ctx, serial)
	if err != nil {
		log.Debugf("Could not read properties of %s: %v", serial, err)
		props = map[string]string{}
	}

	facts := &compat.DeviceFacts{}

	if release := props["ro.build.version.release"]; release != "" {
		major, _, _ := strings.Cut(release, ".")
		if v, err := strconv.Atoi(major); err == nil {
			facts.AndroidVersion = v
		}
	}

	if sdk := props["ro.build.version.sdk"]; sdk != "" {
		if v, err := strconv.Atoi(sdk); err == nil {
			facts.SDKVersion = v
		}
	}

	facts.ABI = props["ro.product.cpu.abi"]
	if facts.ABI == "" {
		facts.ABI = "unknown"
	}
	facts.Arch = ArchFromABI(facts.ABI)

	facts.BuildID = props["ro.build.id"]
	facts.Fingerprint = props["ro.build.fingerprint"]
	facts.Model = props["ro.product.model"]
	facts.Manufacturer = props["ro.product.manufacturer"]
	facts.SecurityPatch = props["ro.build.version.security_patch"]

	return facts
}
