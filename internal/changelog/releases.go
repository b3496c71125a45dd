package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

var releaseNotesFilePattern = regexp.MustCompile(`^\d+\.\d+\.rst$`)

// ReleasesPath returns the directory holding per-release documentation.
func ReleasesPath(galaxyRoot string) string {
	return filepath.Join(galaxyRoot, "doc", "source", "releases")
}

// ReleaseFile returns the path of a file in the releases directory.
func ReleaseFile(galaxyRoot, name string) string {
	return filepath.Join(ReleasesPath(galaxyRoot), name)
}

// Releases lists the releases that have notes files, sorted ascending.
func Releases(galaxyRoot string) ([]string, error) {
	entries, err := os.ReadDir(ReleasesPath(galaxyRoot))
	if err != nil {
		return nil, fmt.Errorf("reading releases directory: %w", err)
	}
	var releases []string
	for _, entry := range entries {
		if releaseNotesFilePattern.MatchString(entry.Name()) {
			releases = append(releases, strings.TrimSuffix(entry.Name(), ".rst"))
		}
	}
	sort.Strings(releases)
	return releases, nil
}

// PreviousRelease returns the release that precedes the given one in the
// releases directory, or the empty string when it is the oldest.
func PreviousRelease(galaxyRoot string, to version.Version) (string, error) {
	releases, err := Releases(galaxyRoot)
	if err != nil {
		return "", err
	}
	previous := ""
	for _, release := range releases {
		if release == to.String() {
			break
		}
		previous = release
	}
	return previous, nil
}

// SeenPullRequests extracts the PR numbers already linked in a release's
// PR registry file. A missing file means none.
func SeenPullRequests(prsPath string) (map[int]bool, error) {
	contents, err := os.ReadFile(prsPath)
	if os.IsNotExist(err) {
		return map[int]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	for _, m := range seenPRPattern.FindAllStringSubmatch(string(contents), -1) {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		seen[n] = true
	}
	return seen, nil
}

var seenPRPattern = regexp.MustCompile(`\.\. _Pull Request (\d+): https`)
