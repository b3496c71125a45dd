package version

import (
	"testing"
	"time"
)

func TestParseAndString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"23.0", "23.0"},
		{"23.1.2", "23.1.2"},
		{"23.1.4.dev0", "23.1.4.dev0"},
		{"23.1.4.dev11", "23.1.4.dev11"},
		{"23", "23"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "23.x", "23.1-rc1", "dev0", "23..1"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"23.0", "23.0", 0},
		{"23.0", "23.0.0", 0},
		{"23.0", "23.1", -1},
		{"23.2", "24.0", -1},
		{"23.1.1", "23.1", 1},
		{"23.1.dev0", "23.1", -1},
		{"23.1.dev0", "23.1.dev1", -1},
		{"23.0.1", "23.0.1.dev3", 1},
	}
	for _, tt := range tests {
		a, b := MustParse(tt.a), MustParse(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := b.Compare(a); got != -tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestMajorMinorStrings(t *testing.T) {
	tests := []struct {
		in        string
		wantMajor string
		wantMinor string
	}{
		{"23.0", "23.0", "0"},
		{"23", "23.0", "0"},
		{"23.0.1", "23.0", "1"},
		{"23.0.1.dev2", "23.0", "1.dev2"},
		{"23.1.2", "23.1", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			major, minor := MustParse(tt.in).MajorMinorStrings()
			if major != tt.wantMajor || minor != tt.wantMinor {
				t.Errorf("MajorMinorStrings() = (%q, %q), want (%q, %q)", major, minor, tt.wantMajor, tt.wantMinor)
			}
		})
	}
}

func TestNextDev(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"23.0.2.dev0", "23.0.2.dev1"},
		{"23.0.2", "23.0.3.dev0"},
		{"23.1", "23.1.1.dev0"},
	}
	for _, tt := range tests {
		if got := MustParse(tt.in).NextDev().String(); got != tt.want {
			t.Errorf("NextDev(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNextRelease(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"23.0", "23.1"},
		{"23.1", "23.2"},
		{"23.2", "24.0"},
	}
	for _, tt := range tests {
		if got := MustParse(tt.in).NextRelease().String(); got != tt.want {
			t.Errorf("NextRelease(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestReleaseDates(t *testing.T) {
	// 98.2 releases in October 2098; the first Monday of that month is the 6th.
	freeze, release := MustParse("98.2").ReleaseDates()
	if got := freeze.Format("2006-01-02"); got != "2098-10-06" {
		t.Errorf("freeze = %s, want 2098-10-06", got)
	}
	if got := release.Format("2006-01-02"); got != "2098-10-27" {
		t.Errorf("release = %s, want 2098-10-27", got)
	}
}

func TestNextWeekday(t *testing.T) {
	// 2024-07-01 is a Monday; the next Monday is a week out.
	d := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if got := NextWeekday(d, time.Monday); got.Day() != 8 {
		t.Errorf("NextWeekday from Monday = day %d, want 8", got.Day())
	}
	// From Sunday the 7th, the next Monday is the 8th.
	d = time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC)
	if got := NextWeekday(d, time.Monday); got.Day() != 8 {
		t.Errorf("NextWeekday from Sunday = day %d, want 8", got.Day())
	}
}
