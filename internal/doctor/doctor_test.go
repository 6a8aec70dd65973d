package doctor

import (
	"testing"

	"fridactl/internal/adb"
	"fridactl/internal/compat"
	"fridactl/internal/frida"
)

func sampleChecks() []Check {
	return []Check{
		{Name: "ADB Installation", Status: StatusOK, Message: "Android Debug Bridge version 1.0.41"},
		{Name: "Device Connection", Status: StatusOK, Message: "1 device(s) connected and authorized"},
		{Name: "Root Access", Status: StatusError, Message: "Device is not rooted", Fix: "Root your device"},
		{Name: "SELinux", Status: StatusWarning, Message: "SELinux is Enforcing (may block Frida)", Fix: "setenforce 0"},
		{Name: "Frida Server", Status: StatusWarning, Message: "Installed but not running"},
		{Name: "Device Storage", Status: StatusSkipped, Message: "No device available"},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleChecks())
	if s.OK != 2 {
		t.Errorf("OK = %d, want 2", s.OK)
	}
	if s.Warnings != 2 {
		t.Errorf("Warnings = %d, want 2", s.Warnings)
	}
	if s.Errors != 1 {
		t.Errorf("Errors = %d, want 1", s.Errors)
	}
	if s.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", s.Skipped)
	}
}

func TestHasErrors(t *testing.T) {
	if !HasErrors(sampleChecks()) {
		t.Error("sample checks contain an error")
	}
	clean := []Check{
		{Name: "A", Status: StatusOK},
		{Name: "B", Status: StatusWarning},
		{Name: "C", Status: StatusSkipped},
	}
	if HasErrors(clean) {
		t.Error("warnings and skips are not errors")
	}
}

func TestFixes(t *testing.T) {
	fixes := Fixes(sampleChecks())
	if len(fixes) != 2 {
		t.Fatalf("Fixes returned %d entries, want 2", len(fixes))
	}
	if fixes[0].Name != "Root Access" {
		t.Errorf("first fix = %s, want Root Access", fixes[0].Name)
	}
	if fixes[1].Name != "SELinux" {
		t.Errorf("second fix = %s, want SELinux", fixes[1].Name)
	}

	// A warning without a fix suggestion is not actionable.
	for _, f := range fixes {
		if f.Fix == "" {
			t.Errorf("fix entry %s has no fix text", f.Name)
		}
	}
}

func TestServerCheck(t *testing.T) {
	client := compat.VersionInfo{Component: compat.ComponentClient, Version: "16.1.17", Installed: true}
	server := func(version string) compat.VersionInfo {
		return compat.VersionInfo{Component: compat.ComponentServer, Version: version, Installed: version != ""}
	}

	tests := []struct {
		name       string
		status     *frida.ServerStatus
		client     compat.VersionInfo
		server     compat.VersionInfo
		wantStatus Status
		wantMsg    string
		wantFix    string
	}{
		{
			name:       "running and matching",
			status:     &frida.ServerStatus{Running: true, PortListening: true},
			client:     client,
			server:     server("16.1.17"),
			wantStatus: StatusOK,
			wantMsg:    "Running and listening on port 27042",
		},
		{
			name:       "running but version mismatch",
			status:     &frida.ServerStatus{Running: true, PortListening: true},
			client:     client,
			server:     server("16.0.0"),
			wantStatus: StatusWarning,
			wantMsg:    "Version mismatch: Client 16.1.17 != Server 16.0.0",
			wantFix:    "fridactl install 16.1.17",
		},
		{
			name:       "patch drift is still compatible",
			status:     &frida.ServerStatus{Running: true, PortListening: true},
			client:     client,
			server:     server("16.1.3"),
			wantStatus: StatusOK,
			wantMsg:    "Running and listening on port 27042",
		},
		{
			name:       "stale binary flagged before start advice",
			status:     &frida.ServerStatus{InstalledServers: []string{"/data/local/tmp/frida-server-15.2.2-android-arm64"}},
			client:     client,
			server:     server("15.2.2"),
			wantStatus: StatusWarning,
			wantMsg:    "Version mismatch: Client 16.1.17 != Server 15.2.2",
			wantFix:    "fridactl install 16.1.17",
		},
		{
			name:       "running but not listening",
			status:     &frida.ServerStatus{Running: true},
			client:     client,
			server:     server("16.1.17"),
			wantStatus: StatusWarning,
			wantMsg:    "Running but not listening on default port",
			wantFix:    "Restart the server with: fridactl restart",
		},
		{
			name:       "installed but not running",
			status:     &frida.ServerStatus{InstalledServers: []string{"/data/local/tmp/frida-server-16.1.17-android-arm64"}},
			client:     client,
			server:     server("16.1.17"),
			wantStatus: StatusWarning,
			wantMsg:    "Installed but not running",
			wantFix:    "Start the server with: fridactl start",
		},
		{
			name:       "nothing on device",
			status:     &frida.ServerStatus{},
			client:     client,
			server:     server(""),
			wantStatus: StatusError,
			wantMsg:    "Not installed",
			wantFix:    "Install with: fridactl install --latest",
		},
		{
			name:       "no host client skips the comparison",
			status:     &frida.ServerStatus{Running: true, PortListening: true},
			client:     compat.VersionInfo{Component: compat.ComponentClient},
			server:     server("16.0.0"),
			wantStatus: StatusOK,
			wantMsg:    "Running and listening on port 27042",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serverCheck(tt.status, tt.client, tt.server, 27042)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
			if got.Fix != tt.wantFix {
				t.Errorf("Fix = %q, want %q", got.Fix, tt.wantFix)
			}
		})
	}
}

func TestStorageCheck(t *testing.T) {
	tests := []struct {
		name       string
		res        adb.Result
		wantStatus Status
		wantMsg    string
		wantFix    bool
	}{
		{
			name:       "plenty of space",
			res:        adb.Result{Stdout: "/dev/block/dm-5 115343360 10485760 104857600 10% /data"},
			wantStatus: StatusOK,
			wantMsg:    "Available space in /data/local/tmp: 107 GB",
		},
		{
			name:       "low space warns",
			res:        adb.Result{Stdout: "/dev/block/dm-5 115343360 115292160 51200 99% /data"},
			wantStatus: StatusWarning,
			wantMsg:    "Only 52 MB free in /data/local/tmp",
			wantFix:    true,
		},
		{
			name:       "exactly at the floor passes",
			res:        adb.Result{Stdout: "/dev/block/dm-5 115343360 115241000 102400 99% /data"},
			wantStatus: StatusOK,
			wantMsg:    "Available space in /data/local/tmp: 105 MB",
		},
		{
			name:       "shell failure",
			res:        adb.Result{ExitCode: 1, Stderr: "df: /data/local/tmp: Permission denied"},
			wantStatus: StatusWarning,
			wantMsg:    "Could not determine available space",
		},
		{
			name:       "human readable column is not trusted",
			res:        adb.Result{Stdout: "/dev/block/dm-5 110G 10G 99.9G 10% /data"},
			wantStatus: StatusWarning,
			wantMsg:    "Could not determine available space",
		},
		{
			name:       "truncated line",
			res:        adb.Result{Stdout: "tmpfs 262144 0"},
			wantStatus: StatusWarning,
			wantMsg:    "Could not determine available space",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storageCheck(tt.res, "/data/local/tmp")
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
			if (got.Fix != "") != tt.wantFix {
				t.Errorf("Fix = %q, wantFix %v", got.Fix, tt.wantFix)
			}
		})
	}
}
