package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fridactl/internal/compat"
	"fridactl/internal/frida"
)

// fakeRunner answers host commands from a canned map keyed by the full
// command line; everything else fails.
func fakeRunner(responses map[string]string, calls *[]string) runnerFunc {
	return func(_ context.Context, name string, args ...string) (string, error) {
		key := strings.TrimSpace(name + " " + strings.Join(args, " "))
		*calls = append(*calls, key)
		if out, ok := responses[key]; ok {
			return out, nil
		}
		return "", errors.New("command failed")
	}
}

const (
	python3Probe = `python3 -c import frida; print(frida.__version__)`
	pythonProbe  = `python -c import frida; print(frida.__version__)`
)

func TestHostClientFirstProbeWins(t *testing.T) {
	var calls []string
	inv := &Inventory{run: fakeRunner(map[string]string{
		python3Probe: "16.1.17",
	}, &calls)}

	info := inv.HostClient(context.Background())
	if !info.Installed {
		t.Fatal("client should be installed")
	}
	if info.Version != "16.1.17" {
		t.Errorf("Version = %q, want 16.1.17", info.Version)
	}
	if info.Component != compat.ComponentClient {
		t.Errorf("Component = %q, want %q", info.Component, compat.ComponentClient)
	}
	if len(calls) != 1 {
		t.Errorf("ran %d commands, want 1: %v", len(calls), calls)
	}
}

func TestHostClientFallsBackToPip(t *testing.T) {
	var calls []string
	inv := &Inventory{run: fakeRunner(map[string]string{
		"pip show frida": "Name: frida\nVersion: 16.1.17\nSummary: Dynamic instrumentation toolkit",
	}, &calls)}

	info := inv.HostClient(context.Background())
	if !info.Installed || info.Version != "16.1.17" {
		t.Errorf("HostClient = %+v, want installed 16.1.17", info)
	}
	want := []string{python3Probe, pythonProbe, "pip show frida"}
	if len(calls) != len(want) {
		t.Fatalf("ran %d commands, want %d: %v", len(calls), len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestHostClientNotInstalled(t *testing.T) {
	var calls []string
	inv := &Inventory{run: fakeRunner(nil, &calls)}

	info := inv.HostClient(context.Background())
	if info.Installed {
		t.Errorf("HostClient = %+v, want not installed", info)
	}
	if info.Version != "" {
		t.Errorf("Version = %q, want empty", info.Version)
	}
}

func TestHostTools(t *testing.T) {
	var calls []string
	inv := &Inventory{run: fakeRunner(map[string]string{
		"frida --version": "16.1.17",
	}, &calls)}

	info := inv.HostTools(context.Background())
	if !info.Installed || info.Version != "16.1.17" {
		t.Errorf("HostTools = %+v, want installed 16.1.17", info)
	}
	if info.Component != compat.ComponentTools {
		t.Errorf("Component = %q, want %q", info.Component, compat.ComponentTools)
	}
}

func TestHostToolsPipFallback(t *testing.T) {
	var calls []string
	inv := &Inventory{run: fakeRunner(map[string]string{
		"pip show frida-tools": "Name: frida-tools\nVersion: 12.3.0",
	}, &calls)}

	info := inv.HostTools(context.Background())
	if !info.Installed || info.Version != "12.3.0" {
		t.Errorf("HostTools = %+v, want installed 12.3.0", info)
	}
}

func TestPipVersionNoVersionLine(t *testing.T) {
	var calls []string
	inv := &Inventory{run: fakeRunner(map[string]string{
		"pip show frida": "Name: frida\nSummary: no version here",
	}, &calls)}

	if v, ok := inv.pipVersion(context.Background(), "frida"); ok {
		t.Errorf("pipVersion = %q, want miss", v)
	}
}

func TestArchFromABI(t *testing.T) {
	tests := []struct {
		abi  string
		want string
	}{
		{"arm64-v8a", "arm64"},
		{"arm64", "arm64"},
		{"armeabi-v7a", "arm"},
		{"armeabi", "arm"},
		{"x86", "x86"},
		{"x86_64", "x86_64"},
		{"mips", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		if got := ArchFromABI(tt.abi); got != tt.want {
			t.Errorf("ArchFromABI(%q) = %q, want %q", tt.abi, got, tt.want)
		}
	}
}

// fakeServers answers the device server observations from canned state.
type fakeServers struct {
	running   []frida.Process
	installed []string
}

func (f fakeServers) Running(context.Context, string) []frida.Process { return f.running }
func (f fakeServers) ListInstalled(context.Context, string) []string  { return f.installed }

func TestDeviceServer(t *testing.T) {
	tests := []struct {
		name      string
		serial    string
		running   []frida.Process
		installed []string
		want      compat.VersionInfo
	}{
		{
			name:      "running instance wins over installed binaries",
			serial:    "emulator-5554",
			running:   []frida.Process{{PID: 4242, Path: "/data/local/tmp/frida-server-16.1.17-android-arm64"}},
			installed: []string{"/data/local/tmp/frida-server-16.0.0-android-arm64"},
			want:      compat.VersionInfo{Component: compat.ComponentServer, Version: "16.1.17", Installed: true},
		},
		{
			name:      "first installed binary when nothing runs",
			serial:    "emulator-5554",
			installed: []string{"/data/local/tmp/frida-server-16.0.0-android-arm64", "/data/local/tmp/frida-server-15.2.2-android-arm64"},
			want:      compat.VersionInfo{Component: compat.ComponentServer, Version: "16.0.0", Installed: true},
		},
		{
			name:      "unversioned running path falls back to installed",
			serial:    "emulator-5554",
			running:   []frida.Process{{PID: 4242, Path: "/data/local/tmp/frida-server"}},
			installed: []string{"/data/local/tmp/frida-server-16.0.0-android-arm64"},
			want:      compat.VersionInfo{Component: compat.ComponentServer, Version: "16.0.0", Installed: true},
		},
		{
			name:   "nothing on device",
			serial: "emulator-5554",
			want:   compat.VersionInfo{Component: compat.ComponentServer},
		},
		{
			name: "no serial",
			want: compat.VersionInfo{Component: compat.ComponentServer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Inventory{servers: fakeServers{running: tt.running, installed: tt.installed}}
			got := inv.DeviceServer(context.Background(), tt.serial)
			if got != tt.want {
				t.Errorf("DeviceServer = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// fakeProps answers GetProperties from a canned map or error.
type fakeProps struct {
	props map[string]string
	err   error
}

func (f fakeProps) GetProperties(context.Context, string) (map[string]string, error) {
	return f.props, f.err
}

func TestFacts(t *testing.T) {
	full := map[string]string{
		"ro.build.version.release":        "13",
		"ro.build.version.sdk":            "33",
		"ro.product.cpu.abi":              "arm64-v8a",
		"ro.build.id":                     "TQ3A.230901.001",
		"ro.build.fingerprint":            "google/panther/panther:13/TQ3A.230901.001/10750268:user/release-keys",
		"ro.product.model":                "Pixel 7",
		"ro.product.manufacturer":         "Google",
		"ro.build.version.security_patch": "2023-09-05",
	}

	tests := []struct {
		name  string
		props map[string]string
		err   error
		want  compat.DeviceFacts
	}{
		{
			name:  "full property dump",
			props: full,
			want: compat.DeviceFacts{
				AndroidVersion: 13,
				SDKVersion:     33,
				ABI:            "arm64-v8a",
				Arch:           "arm64",
				BuildID:        "TQ3A.230901.001",
				Fingerprint:    "google/panther/panther:13/TQ3A.230901.001/10750268:user/release-keys",
				Model:          "Pixel 7",
				Manufacturer:   "Google",
				SecurityPatch:  "2023-09-05",
			},
		},
		{
			name: "dotted release keeps the major only",
			props: map[string]string{
				"ro.build.version.release": "7.1.2",
				"ro.build.version.sdk":     "25",
				"ro.product.cpu.abi":       "armeabi-v7a",
			},
			want: compat.DeviceFacts{AndroidVersion: 7, SDKVersion: 25, ABI: "armeabi-v7a", Arch: "arm"},
		},
		{
			name: "garbage release leaves the version zero",
			props: map[string]string{
				"ro.build.version.release": "Tiramisu",
				"ro.build.version.sdk":     "33",
				"ro.product.cpu.abi":       "arm64-v8a",
			},
			want: compat.DeviceFacts{SDKVersion: 33, ABI: "arm64-v8a", Arch: "arm64"},
		},
		{
			name: "unknown abi",
			props: map[string]string{
				"ro.build.version.release": "13",
				"ro.product.cpu.abi":       "mips",
			},
			want: compat.DeviceFacts{AndroidVersion: 13, ABI: "mips", Arch: "unknown"},
		},
		{
			name: "unreachable device yields zero facts",
			err:  errors.New("device offline"),
			want: compat.DeviceFacts{ABI: "unknown", Arch: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Inventory{props: fakeProps{props: tt.props, err: tt.err}}
			got := inv.Facts(context.Background(), "emulator-5554")
			if got == nil {
				t.Fatal("Facts returned nil for a connected device")
			}
			if *got != tt.want {
				t.Errorf("Facts = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestFactsWithoutSerial(t *testing.T) {
	inv := &Inventory{props: fakeProps{}}
	if got := inv.Facts(context.Background(), ""); got != nil {
		t.Errorf("Facts without serial = %+v, want nil", got)
	}
}
