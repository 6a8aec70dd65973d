// Package frida installs frida-server release builds on Android devices
// and manages the lifecycle of running instances.
package frida

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"fridactl/internal/adb"
)

const (
	// DefaultPort is the port frida-server listens on.
	DefaultPort = 27042
	// DefaultServerDir is where server binaries live on the device.
	DefaultServerDir = "/data/local/tmp"

	// Server start verification polling.
	startPollAttempts = 10
	startPollInterval = 1 * time.Second
	// Settle time between stop and start during a restart.
	restartSettle = 1 * time.Second
)

var serverVersionPattern = regexp.MustCompile(`frida-server-(\d+\.\d+\.\d+)`)

// Fetcher obtains a local server binary for a version and architecture.
// download.Client satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, version, arch string) (string, error)
}

// Process is one running frida-server instance.
type Process struct {
	PID  int    `json:"pid"`
	Path string `json:"path,omitempty"`
}

// ServerStatus is a point-in-time snapshot of frida-server state on a
// device.
type ServerStatus struct {
	Running          bool      `json:"running"`
	PortListening    bool      `json:"port_listening"`
	Instances        []Process `json:"instances"`
	InstalledServers []string  `json:"installed_servers"`
}

// Manager installs and controls frida-server on devices.
type Manager struct {
	adb       *adb.Client
	fetcher   Fetcher
	serverDir string
	port      int
}

// NewManager returns a Manager. serverDir and port fall back to the
// defaults when zero.
func NewManager(client *adb.Client, fetcher Fetcher, serverDir string, port int) *Manager {
	if serverDir == "" {
		serverDir = DefaultServerDir
	}
	if port == 0 {
		port = DefaultPort
	}
	return &Manager{adb: client, fetcher: fetcher, serverDir: serverDir, port: port}
}

// ServerPath is the canonical on-device path for a server version.
func (m *Manager) ServerPath(version, arch string) string {
	return fmt.Sprintf("%s/frida-server-%s-android-%s", m.serverDir, version, arch)
}

// VersionFromPath extracts the server version embedded in a binary path.
// Returns the empty string when the path does not carry one.
func VersionFromPath(path string) string {
	m := serverVersionPattern.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	return m[1]
}

// Running lists the frida-server processes currently running on the device.
func (m *Manager) Running(ctx context.Context, serial string) []Process {
	res := m.adb.Shell(ctx, serial, "ps -Af | grep frida-server")
	if !res.Ok() || res.Stdout == "" {
		return nil
	}
	return parseProcessList(res.Stdout)
}

// parseProcessList extracts frida-server entries from ps output. The PID is
// the second column; the binary path is the last column when it is a path.
func parseProcessList(output string) []Process {
	var procs []Process
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "frida-server") || strings.Contains(line, "grep") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		p := Process{PID: pid}
		if last := fields[len(fields)-1]; strings.Contains(last, "/") {
			p.Path = last
		}
		procs = append(procs, p)
	}
	return procs
}

// PortListening reports whether anything listens on the frida port.
func (m *Manager) PortListening(ctx context.Context, serial string) bool {
	res := m.adb.Shell(ctx, serial, fmt.Sprintf("netstat -tuln | grep %d", m.port))
	return strings.TrimSpace(res.Stdout) != ""
}

// ListInstalled returns the paths of all server binaries on the device.
func (m *Manager) ListInstalled(ctx context.Context, serial string) []string {
	res := m.adb.Shell(ctx, serial, fmt.Sprintf("ls %s/frida-server-* 2>/dev/null", m.serverDir))
	if !res.Ok() || res.Stdout == "" {
		return nil
	}
	var paths []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}

// IsInstalled reports whether a specific server version is on the device,
// returning its path when present.
func (m *Manager) IsInstalled(ctx context.Context, serial, version, arch string) (string, bool) {
	path := m.ServerPath(version, arch)
	if m.adb.FileExists(ctx, serial, path) {
		return path, true
	}
	return "", false
}

// Install fetches a server binary and places it on the device with
// executable permissions. An existing binary at the version path is reused
// unless force is set.
func (m *Manager) Install(ctx context.Context, serial, version, arch string, force bool) (string, error) {
	if arch == "" || arch == "unknown" {
		return "", errors.New("cannot install for unknown device architecture")
	}

	remotePath := m.ServerPath(version, arch)
	if !force && m.adb.FileExists(ctx, serial, remotePath) {
		log.Infof("Frida server %s already installed at %s", version, remotePath)
		return remotePath, nil
	}

	localPath, err := m.fetcher.Fetch(ctx, version, arch)
	if err != nil {
		return "", fmt.Errorf("fetch frida-server %s: %w", version, err)
	}

	log.Infof("Pushing frida-server to %s", remotePath)
	if err := m.adb.Push(ctx, serial, localPath, remotePath); err != nil {
		return "", err
	}
	if err := m.adb.Chmod(ctx, serial, remotePath, "755"); err != nil {
		return "", err
	}

	log.Infof("Frida server %s installed successfully", version)
	return remotePath, nil
}

// Start launches a server binary in the background via su and, when wait
// is set, polls until it shows up in the process list.
func (m *Manager) Start(ctx context.Context, serial, serverPath string, wait bool) (int, error) {
	log.Infof("Starting frida-server from %s", serverPath)
	m.adb.ShellSu(ctx, serial, fmt.Sprintf("nohup %s >/dev/null 2>&1 &", serverPath))

	if !wait {
		return 0, nil
	}

	var pid int
	err := retry.Do(func() error {
		procs := m.Running(ctx, serial)
		if len(procs) == 0 {
			return errors.New("frida-server not running yet")
		}
		pid = procs[0].PID
		return nil
	}, retry.Attempts(startPollAttempts), retry.Delay(startPollInterval), retry.MaxDelay(startPollInterval))
	if err != nil {
		return 0, fmt.Errorf("frida-server did not start within %v", startPollAttempts*startPollInterval)
	}

	log.Infof("Frida server started with PID %d", pid)
	return pid, nil
}

// Stop kills one running instance by PID.
func (m *Manager) Stop(ctx context.Context, serial string, pid int) error {
	log.Infof("Stopping frida-server PID %d", pid)
	res := m.adb.ShellSu(ctx, serial, fmt.Sprintf("kill -9 %d", pid))
	if !res.Ok() {
		return fmt.Errorf("kill PID %d: %s", pid, stderrOrStdout(res))
	}
	return nil
}

// StopAll kills every running instance, collecting individual failures.
func (m *Manager) StopAll(ctx context.Context, serial string) error {
	procs := m.Running(ctx, serial)
	if len(procs) == 0 {
		log.Debug("No frida servers running")
		return nil
	}

	var errs *multierror.Error
	for _, p := range procs {
		if err := m.Stop(ctx, serial, p.PID); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Restart stops all running instances and starts the given binary.
func (m *Manager) Restart(ctx context.Context, serial, serverPath string) (int, error) {
	if err := m.StopAll(ctx, serial); err != nil {
		return 0, err
	}
	time.Sleep(restartSettle)
	return m.Start(ctx, serial, serverPath, true)
}

// Uninstall removes one server version from the device.
func (m *Manager) Uninstall(ctx context.Context, serial, version, arch string) error {
	path := m.ServerPath(version, arch)
	res := m.adb.Shell(ctx, serial, "rm -f "+path)
	if !res.Ok() {
		return fmt.Errorf("remove %s: %s", path, stderrOrStdout(res))
	}
	return nil
}

// UninstallAll removes every server binary from the device.
func (m *Manager) UninstallAll(ctx context.Context, serial string) error {
	var errs *multierror.Error
	for _, path := range m.ListInstalled(ctx, serial) {
		res := m.adb.Shell(ctx, serial, "rm -f "+path)
		if !res.Ok() {
			errs = multierror.Append(errs, fmt.Errorf("remove %s: %s", path, stderrOrStdout(res)))
		}
	}
	return errs.ErrorOrNil()
}

// Status gathers a full server status snapshot.
func (m *Manager) Status(ctx context.Context, serial string) *ServerStatus {
	instances := m.Running(ctx, serial)
	return &ServerStatus{
		Running:          len(instances) > 0,
		PortListening:    m.PortListening(ctx, serial),
		Instances:        instances,
		InstalledServers: m.ListInstalled(ctx, serial),
	}
}

func stderrOrStdout(res adb.Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	if res.Stdout != "" {
		return res.Stdout
	}
	return "unknown error"
}
