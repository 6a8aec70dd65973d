package compat

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Tuple
	}{
		{"16.1.17", Tuple{16, 1, 17}},
		{"v16.1.17", Tuple{16, 1, 17}},
		{"  16.1.17\n", Tuple{16, 1, 17}},
		{"16.1", Tuple{16, 1, 0}},
		{"16.1.17-beta.1", Tuple{16, 1, 17}},
		{"16.1.17.3", Tuple{16, 1, 17}},
		{"12.11.18", Tuple{12, 11, 18}},
		{"16", Tuple{}},
		{"", Tuple{}},
		{"dev", Tuple{}},
		{"a.b.c", Tuple{}},
		{"version 16.1.17", Tuple{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input)
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a    Tuple
		b    Tuple
		want int
	}{
		{"equal", Tuple{16, 1, 17}, Tuple{16, 1, 17}, 0},
		{"major wins", Tuple{17, 0, 0}, Tuple{16, 9, 9}, 1},
		{"minor wins", Tuple{16, 2, 0}, Tuple{16, 1, 17}, 1},
		{"patch wins", Tuple{16, 1, 4}, Tuple{16, 1, 17}, -1},
		{"zero vs real", Tuple{}, Tuple{1, 0, 0}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name   string
		v1     string
		v2     string
		strict bool
		want   bool
	}{
		{"identical strict", "16.1.17", "16.1.17", true, true},
		{"identical loose", "16.1.17", "16.1.17", false, true},
		{"patch drift strict", "16.1.17", "16.1.4", true, false},
		{"patch drift loose", "16.1.17", "16.1.4", false, true},
		{"minor drift loose", "16.2.0", "16.1.17", false, false},
		{"major drift loose", "15.2.2", "16.1.17", false, false},
		{"v prefix strict", "v16.1.17", "16.1.17", true, true},
		{"missing patch vs explicit zero", "16.1", "16.1.0", true, true},
		{"both unparsable loose", "dev", "nightly", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compatible(tt.v1, tt.v2, tt.strict); got != tt.want {
				t.Errorf("Compatible(%q, %q, %v) = %v, want %v", tt.v1, tt.v2, tt.strict, got, tt.want)
			}
		})
	}
}

func TestTupleString(t *testing.T) {
	if got := (Tuple{16, 1, 17}).String(); got != "16.1.17" {
		t.Errorf("String() = %q, want %q", got, "16.1.17")
	}
	if got := (Tuple{}).String(); got != "0.0.0" {
		t.Errorf("String() = %q, want %q", got, "0.0.0")
	}
}

func TestTupleIsZero(t *testing.T) {
	if !(Tuple{}).IsZero() {
		t.Error("zero Tuple should report IsZero")
	}
	if (Tuple{0, 0, 1}).IsZero() {
		t.Error("Tuple{0,0,1} should not report IsZero")
	}
}
