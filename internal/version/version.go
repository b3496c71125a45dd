// Package version implements the PEP 440 subset used by Galaxy release
// identifiers: dotted release segments with an optional ".devN" suffix,
// e.g. "23.0", "23.1.2" or "23.1.4.dev0".
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)(?:\.dev(\d+))?$`)

// Version is a parsed Galaxy release identifier. The zero value is not a
// valid version; use Parse or MustParse.
type Version struct {
	release []int
	dev     int
	hasDev  bool
}

// Parse parses a version string such as "23.1", "23.1.4" or "23.1.4.dev0".
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	var v Version
	for _, part := range strings.Split(m[1], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		v.release = append(v.release, n)
	}
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		v.dev = n
		v.hasDev = true
	}
	return v, nil
}

// MustParse is like Parse but panics on invalid input. Intended for
// literals in tests and templates.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// New builds a release version from explicit segments.
func New(segments ...int) Version {
	return Version{release: append([]int(nil), segments...)}
}

// NewDev builds a dev version from release segments and a dev number.
func NewDev(dev int, segments ...int) Version {
	return Version{release: append([]int(nil), segments...), dev: dev, hasDev: true}
}

func (v Version) segment(i int) int {
	if i < len(v.release) {
		return v.release[i]
	}
	return 0
}

// Major returns the first release segment.
func (v Version) Major() int { return v.segment(0) }

// Minor returns the second release segment, or 0 when absent.
func (v Version) Minor() int { return v.segment(1) }

// Micro returns the third release segment, or 0 when absent.
func (v Version) Micro() int { return v.segment(2) }

// IsDev reports whether the version carries a ".devN" suffix.
func (v Version) IsDev() bool { return v.hasDev }

func (v Version) String() string {
	parts := make([]string, len(v.release))
	for i, n := range v.release {
		parts[i] = strconv.Itoa(n)
	}
	s := strings.Join(parts, ".")
	if v.hasDev {
		s += ".dev" + strconv.Itoa(v.dev)
	}
	return s
}

// Compare orders versions per PEP 440: release segments are compared
// numerically with missing segments treated as zero, and a dev release
// sorts before the release it precedes (23.1.dev0 < 23.1).
func (v Version) Compare(o Version) int {
	n := len(v.release)
	if len(o.release) > n {
		n = len(o.release)
	}
	for i := 0; i < n; i++ {
		if d := v.segment(i) - o.segment(i); d != 0 {
			if d < 0 {
				return -1
			}
			return 1
		}
	}
	switch {
	case v.hasDev && !o.hasDev:
		return -1
	case !v.hasDev && o.hasDev:
		return 1
	case v.dev < o.dev:
		return -1
	case v.dev > o.dev:
		return 1
	}
	return 0
}

// Equal reports whether two versions compare equal ("23.0" equals "23.0.0").
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// MajorMinor returns the "major.minor" release version, e.g. 23.1.4.dev2
// becomes 23.1.
func (v Version) MajorMinor() Version {
	return New(v.Major(), v.Minor())
}

// MajorMinorStrings splits a version into the Galaxy release string and the
// point-release remainder. The remainder defaults to "0" when the version
// names only the release, so "23.0" yields ("23.0", "0") and "23.0.1.dev2"
// yields ("23.0", "1.dev2").
func (v Version) MajorMinorStrings() (string, string) {
	major := fmt.Sprintf("%d.%d", v.Major(), v.Minor())
	s := v.String()
	if s == strconv.Itoa(v.Major()) || s == major {
		return major, "0"
	}
	return major, strings.TrimPrefix(s, major+".")
}

// NextDev returns the dev version that work continues on after v is
// released: an existing dev number is incremented, otherwise the micro
// version is bumped and dev0 appended.
func (v Version) NextDev() Version {
	if v.hasDev {
		return NewDev(v.dev+1, v.Major(), v.Minor(), v.Micro())
	}
	return NewDev(0, v.Major(), v.Minor(), v.Micro()+1)
}

// NextRelease returns the release that follows v in the Galaxy release
// calendar: three minor releases per year, rolling over to the next major.
func (v Version) NextRelease() Version {
	if v.Minor() < 2 {
		return New(v.Major(), v.Minor()+1)
	}
	return New(v.Major()+1, 0)
}
