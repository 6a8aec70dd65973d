package adb

import (
	"strings"
	"testing"
)

func TestParseProperties(t *testing.T) {
	output := `[ro.build.version.release]: [13]
[ro.build.version.sdk]: [33]
[ro.product.cpu.abi]: [arm64-v8a]
[ro.product.model]: [Pixel 7]
[persist.sys.empty]: []
not a property line`

	props := parseProperties(output)

	tests := []struct {
		key  string
		want string
	}{
		{"ro.build.version.release", "13"},
		{"ro.build.version.sdk", "33"},
		{"ro.product.cpu.abi", "arm64-v8a"},
		{"ro.product.model", "Pixel 7"},
		{"persist.sys.empty", ""},
	}
	for _, tt := range tests {
		got, ok := props[tt.key]
		if !ok {
			t.Errorf("property %s missing", tt.key)
			continue
		}
		if got != tt.want {
			t.Errorf("property %s = %q, want %q", tt.key, got, tt.want)
		}
	}
	if len(props) != len(tests) {
		t.Errorf("parsed %d properties, want %d", len(props), len(tests))
	}
}

func TestDeviceArgs(t *testing.T) {
	got := deviceArgs("emulator-5554", "shell", "id")
	want := []string{"-s", "emulator-5554", "shell", "id"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("deviceArgs with serial = %v, want %v", got, want)
	}

	got = deviceArgs("", "devices")
	if len(got) != 1 || got[0] != "devices" {
		t.Errorf("deviceArgs without serial = %v, want [devices]", got)
	}
}

func TestTruncate(t *testing.T) {
	short := "short output"
	if got := truncate(short); got != short {
		t.Errorf("truncate(%q) = %q", short, got)
	}

	long := strings.Repeat("x", maxLogLength+50)
	got := truncate(long)
	if len(got) != maxLogLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate did not cap at %d chars: got %d", maxLogLength, len(got))
	}
}

func TestResultOk(t *testing.T) {
	if !(Result{ExitCode: 0}).Ok() {
		t.Error("exit 0 should be ok")
	}
	if (Result{ExitCode: 1}).Ok() {
		t.Error("exit 1 should not be ok")
	}
	if (Result{ExitCode: -1}).Ok() {
		t.Error("exit -1 should not be ok")
	}
}
