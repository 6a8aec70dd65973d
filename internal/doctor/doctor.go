// Package doctor diagnoses common setup problems: missing adb, no device,
// no root, SELinux enforcement, a stale or absent frida-server. Each check
// yields a status and, when something is wrong, a suggested fix.
package doctor

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"fridactl/internal/adb"
	"fridactl/internal/compat"
	"fridactl/internal/frida"
)

// Status classifies a check result.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Check is the result of one diagnostic.
type Check struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// Summary counts check results by status.
type Summary struct {
	OK       int `json:"ok"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped"`
}

// Inventory is the component observation surface the doctor consumes.
type Inventory interface {
	HostClient(ctx context.Context) compat.VersionInfo
	HostTools(ctx context.Context) compat.VersionInfo
	DeviceServer(ctx context.Context, serial string) compat.VersionInfo
}

// Doctor runs the diagnostic suite against one host and, when a device is
// reachable, that device.
type Doctor struct {
	adb       *adb.Client
	mgr       *frida.Manager
	inv       Inventory
	serial    string
	serverDir string
	port      int
}

// New returns a Doctor. serial may be empty; device checks then pick the
// single connected device or report themselves skipped.
func New(client *adb.Client, mgr *frida.Manager, inv Inventory, serial, serverDir string, port int) *Doctor {
	if serverDir == "" {
		serverDir = frida.DefaultServerDir
	}
	if port == 0 {
		port = frida.DefaultPort
	}
	return &Doctor{adb: client, mgr: mgr, inv: inv, serial: serial, serverDir: serverDir, port: port}
}

// Run executes every check in order and returns the results. Checks never
// abort the suite; a broken precondition downgrades later checks to
// skipped.
func (d *Doctor) Run(ctx context.Context) []Check {
	serial := ""
	if device, err := d.adb.SelectDevice(ctx, d.serial); err == nil {
		serial = device.Serial
	}

	return []Check{
		d.checkADB(ctx),
		d.checkDeviceConnected(ctx),
		d.checkUSBDebugging(serial),
		d.checkRoot(ctx, serial),
		d.checkSELinux(ctx, serial),
		d.checkServer(ctx, serial),
		d.checkHostClient(ctx),
		d.checkHostTools(ctx),
		d.checkDiskSpace(ctx, serial),
	}
}

// Summarize tallies results by status.
func Summarize(checks []Check) Summary {
	var s Summary
	for _, c := range checks {
		switch c.Status {
		case StatusOK:
			s.OK++
		case StatusWarning:
			s.Warnings++
		case StatusError:
			s.Errors++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// HasErrors reports whether any check failed outright.
func HasErrors(checks []Check) bool {
	for _, c := range checks {
		if c.Status == StatusError {
			return true
		}
	}
	return false
}

// Fixes returns the suggested fix for every warning or error that has one.
func Fixes(checks []Check) []Check {
	var out []Check
	for _, c := range checks {
		if c.Fix != "" && (c.Status == StatusError || c.Status == StatusWarning) {
			out = append(out, c)
		}
	}
	return out
}

func adbInstallHint() string {
	switch runtime.GOOS {
	case "windows":
		return "Install Android SDK Platform Tools or run: winget install Google.PlatformTools"
	case "darwin":
		return "Install with: brew install android-platform-tools"
	case "linux":
		return "Install with: sudo apt install adb"
	default:
		return "Install Android SDK Platform Tools"
	}
}

func (d *Doctor) checkADB(ctx context.Context) Check {
	version, err := d.adb.Version(ctx)
	if err != nil {
		return Check{
			Name:    "ADB Installation",
			Status:  StatusError,
			Message: "ADB not found in PATH",
			Fix:     adbInstallHint(),
		}
	}
	return Check{Name: "ADB Installation", Status: StatusOK, Message: version}
}

func (d *Doctor) checkDeviceConnected(ctx context.Context) Check {
	devices, err := d.adb.Devices(ctx)
	if err != nil || len(devices) == 0 {
		return Check{
			Name:    "Device Connection",
			Status:  StatusError,
			Message: "No devices connected",
			Fix:     "Connect a device via USB and enable USB debugging",
		}
	}

	var authorized, unauthorized int
	for _, dev := range devices {
		switch dev.State {
		case "device":
			authorized++
		case "unauthorized":
			unauthorized++
		}
	}

	switch {
	case authorized > 0:
		return Check{
			Name:    "Device Connection",
			Status:  StatusOK,
			Message: fmt.Sprintf("%d device(s) connected and authorized", authorized),
		}
	case unauthorized > 0:
		return Check{
			Name:    "Device Connection",
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d device(s) need authorization", unauthorized),
			Fix:     "Accept the USB debugging prompt on your device",
		}
	default:
		return Check{
			Name:    "Device Connection",
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d device(s) in unknown state", len(devices)),
		}
	}
}

func (d *Doctor) checkUSBDebugging(serial string) Check {
	if serial == "" {
		return Check{Name: "USB Debugging", Status: StatusSkipped, Message: "No device available"}
	}
	// Reaching the device over adb implies debugging is on.
	return Check{Name: "USB Debugging", Status: StatusOK, Message: "USB debugging is enabled"}
}

func (d *Doctor) checkRoot(ctx context.Context, serial string) Check {
	if serial == "" {
		return Check{Name: "Root Access", Status: StatusSkipped, Message: "No device available to check"}
	}
	if d.adb.CheckRoot(ctx, serial) {
		return Check{Name: "Root Access", Status: StatusOK, Message: "Device has root access"}
	}
	return Check{
		Name:    "Root Access",
		Status:  StatusError,
		Message: "Device is not rooted or root not granted",
		Fix:     "Root your device or grant root access to ADB",
	}
}

func (d *Doctor) checkSELinux(ctx context.Context, serial string) Check {
	if serial == "" {
		return Check{Name: "SELinux", Status: StatusSkipped, Message: "No device available to check"}
	}

	res := d.adb.Shell(ctx, serial, "getenforce")
	switch {
	case strings.Contains(res.Stdout, "Permissive"):
		return Check{Name: "SELinux", Status: StatusOK, Message: "SELinux is Permissive"}
	case strings.Contains(res.Stdout, "Enforcing"):
		return Check{
			Name:    "SELinux",
			Status:  StatusWarning,
			Message: "SELinux is Enforcing (may block Frida)",
			Fix:     "Consider running: adb shell su -c 'setenforce 0'",
		}
	default:
		status := res.Stdout
		if status == "" {
			status = "Unknown"
		}
		return Check{Name: "SELinux", Status: StatusOK, Message: "SELinux status: " + status}
	}
}

func (d *Doctor) checkServer(ctx context.Context, serial string) Check {
	if serial == "" {
		return Check{Name: "Frida Server", Status: StatusSkipped, Message: "No device available to check"}
	}

	status := d.mgr.Status(ctx, serial)
	return serverCheck(status, d.inv.HostClient(ctx), d.inv.DeviceServer(ctx, serial), d.port)
}

// serverCheck judges one server status snapshot. A server version that
// disagrees with the host client is flagged even when the server is up
// and listening.
func serverCheck(status *frida.ServerStatus, client, server compat.VersionInfo, port int) Check {
	if client.Installed && server.Installed {
		if res := compat.Check(client, compat.VersionInfo{}, server); !res.IsCompatible() {
			return Check{
				Name:    "Frida Server",
				Status:  StatusWarning,
				Message: res.Message,
				Fix:     res.FixCommand,
			}
		}
	}

	switch {
	case status.Running && status.PortListening:
		return Check{
			Name:    "Frida Server",
			Status:  StatusOK,
			Message: fmt.Sprintf("Running and listening on port %d", port),
		}
	case status.Running:
		return Check{
			Name:    "Frida Server",
			Status:  StatusWarning,
			Message: "Running but not listening on default port",
			Fix:     "Restart the server with: fridactl restart",
		}
	case len(status.InstalledServers) > 0:
		return Check{
			Name:    "Frida Server",
			Status:  StatusWarning,
			Message: "Installed but not running",
			Fix:     "Start the server with: fridactl start",
		}
	default:
		return Check{
			Name:    "Frida Server",
			Status:  StatusError,
			Message: "Not installed",
			Fix:     "Install with: fridactl install --latest",
		}
	}
}

func (d *Doctor) checkHostClient(ctx context.Context) Check {
	client := d.inv.HostClient(ctx)
	if client.Installed {
		return Check{
			Name:    "Frida Client",
			Status:  StatusOK,
			Message: fmt.Sprintf("Frida v%s installed", client.Version),
		}
	}
	return Check{
		Name:    "Frida Client",
		Status:  StatusWarning,
		Message: "Frida Python library not installed on host",
		Fix:     "Install with: pip install frida",
	}
}

func (d *Doctor) checkHostTools(ctx context.Context) Check {
	tools := d.inv.HostTools(ctx)
	if tools.Installed {
		return Check{
			Name:    "Frida Tools",
			Status:  StatusOK,
			Message: fmt.Sprintf("frida-tools v%s installed", tools.Version),
		}
	}
	return Check{
		Name:    "Frida Tools",
		Status:  StatusWarning,
		Message: "frida-tools not installed on host",
		Fix:     "Install with: pip install frida-tools",
	}
}

// minFreeKB is the install floor on df's Available column, about 100MB.
const minFreeKB = 100 * 1024

func (d *Doctor) checkDiskSpace(ctx context.Context, serial string) Check {
	if serial == "" {
		return Check{Name: "Device Storage", Status: StatusSkipped, Message: "No device available"}
	}

	res := d.adb.Shell(ctx, serial, fmt.Sprintf("df %s | tail -1", d.serverDir))
	return storageCheck(res, d.serverDir)
}

// storageCheck parses one df output line. The Available column is in
// 1K blocks on Android's toybox df.
func storageCheck(res adb.Result, serverDir string) Check {
	unknown := Check{Name: "Device Storage", Status: StatusWarning, Message: "Could not determine available space"}
	if !res.Ok() || res.Stdout == "" {
		return unknown
	}
	fields := strings.Fields(res.Stdout)
	if len(fields) < 4 {
		return unknown
	}
	kb, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return unknown
	}

	free := humanize.Bytes(uint64(kb) * 1024)
	if kb < minFreeKB {
		return Check{
			Name:    "Device Storage",
			Status:  StatusWarning,
			Message: fmt.Sprintf("Only %s free in %s", free, serverDir),
			Fix:     "Free up space on the device before installing a server",
		}
	}
	return Check{
		Name:    "Device Storage",
		Status:  StatusOK,
		Message: fmt.Sprintf("Available space in %s: %s", serverDir, free),
	}
}
