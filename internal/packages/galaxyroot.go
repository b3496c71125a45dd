// Package packages manages the Galaxy packages directory for point
// releases: reading package metadata, bumping versions, rewriting
// changelogs and building and uploading distributions.
package packages

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

// VersionFilePath returns the path of Galaxy's version module.
func VersionFilePath(galaxyRoot string) string {
	return filepath.Join(galaxyRoot, "lib", "galaxy", "version.py")
}

// VerifyGalaxyRoot checks that the given directory is a Galaxy clone.
func VerifyGalaxyRoot(galaxyRoot string) error {
	if _, err := os.Stat(VersionFilePath(galaxyRoot)); err != nil {
		return fmt.Errorf(
			"Galaxy files not found at `%s`. If you are running this command outside of the galaxy root directory, you should specify the '--galaxy-root' argument", galaxyRoot)
	}
	return nil
}

// RootVersion reads Galaxy's version from lib/galaxy/version.py.
func RootVersion(galaxyRoot string) (version.Version, error) {
	contents, err := os.ReadFile(VersionFilePath(galaxyRoot))
	if err != nil {
		return version.Version{}, err
	}
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	if len(lines) != 3 {
		return version.Version{}, fmt.Errorf("unexpected contents in %s: want 3 lines, got %d", VersionFilePath(galaxyRoot), len(lines))
	}
	major, err := quotedValue(lines[0])
	if err != nil {
		return version.Version{}, fmt.Errorf("parsing %s: %w", VersionFilePath(galaxyRoot), err)
	}
	minor, err := quotedValue(lines[1])
	if err != nil {
		return version.Version{}, fmt.Errorf("parsing %s: %w", VersionFilePath(galaxyRoot), err)
	}
	if minor == "" {
		return version.Parse(major)
	}
	return version.Parse(major + "." + minor)
}

func quotedValue(line string) (string, error) {
	parts := strings.Split(line, `"`)
	if len(parts) < 2 {
		return "", fmt.Errorf("no quoted value in line %q", line)
	}
	return parts[1], nil
}

// SetRootVersion writes Galaxy's version module for the given version,
// split into the release string and the point release remainder.
func SetRootVersion(versionPy string, newVersion version.Version) error {
	major, minor := newVersion.MajorMinorStrings()
	contents := fmt.Sprintf(`VERSION_MAJOR = "%s"
VERSION_MINOR = "%s"
VERSION = VERSION_MAJOR + (f".{VERSION_MINOR}" if VERSION_MINOR else "")
`, major, minor)
	return os.WriteFile(versionPy, []byte(contents), 0o644)
}

// NextDevVersion returns the dev version that follows the current root
// version, incrementing an existing dev number or opening the next micro.
func NextDevVersion(galaxyRoot string) (version.Version, error) {
	rootVersion, err := RootVersion(galaxyRoot)
	if err != nil {
		return version.Version{}, err
	}
	return rootVersion.NextDev(), nil
}

// UpdateClientVersion sets the version in the client package.json and, for
// releases that are published to npm, the root package.json. The edit
// preserves formatting and key order. Returns the modified paths.
func UpdateClientVersion(galaxyRoot string, newVersion version.Version) ([]string, error) {
	paths := []string{filepath.Join(galaxyRoot, "client", "package.json")}
	if !newVersion.IsDev() {
		// dev releases are not uploaded to npm
		paths = append(paths, filepath.Join(galaxyRoot, "package.json"))
	}
	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		updated, err := sjson.Set(string(contents), "version", newVersion.String())
		if err != nil {
			return nil, fmt.Errorf("updating version in %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
			return nil, err
		}
	}
	return paths, nil
}
