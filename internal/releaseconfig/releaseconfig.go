// Package releaseconfig loads the per-release configuration used by
// release commands, combining a YAML file in the releases directory with
// command line overrides.
package releaseconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

const (
	// DefaultOwner is the GitHub organization releases are cut from.
	DefaultOwner = "galaxyproject"
	// DefaultRepo is the GitHub repository releases are cut from.
	DefaultRepo = "galaxy"
)

// Config holds the parameters of one Galaxy release.
type Config struct {
	CurrentVersion  version.Version
	PreviousVersion version.Version
	NextVersion     *version.Version
	ReleaseDate     time.Time
	FreezeDate      time.Time
	Owner           string
	Repo            string
}

// Options carry the command line inputs that feed into Load. Pointer
// fields are overrides: nil means the flag was not given.
type Options struct {
	ConfigPath      string
	PreviousVersion *version.Version
	NextVersion     *version.Version
	ReleaseDate     *time.Time
	FreezeDate      *time.Time
}

// DefaultPath returns the conventional location of a release's config file.
func DefaultPath(galaxyRoot string, releaseVersion version.Version) string {
	return filepath.Join(galaxyRoot, "doc", "source", "releases", fmt.Sprintf("release_%s.yml", releaseVersion))
}

// Load resolves the release configuration. An explicit --release-config
// path must exist; otherwise the default path is tried. Command line
// flags override YAML values, and when no YAML file is found the required
// flags must all be given.
func Load(galaxyRoot string, releaseVersion version.Version, opts Options) (*Config, error) {
	config, err := tryLoadYAML(galaxyRoot, releaseVersion, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if config != nil {
		if opts.PreviousVersion != nil {
			config.PreviousVersion = *opts.PreviousVersion
		}
		if opts.NextVersion != nil {
			config.NextVersion = opts.NextVersion
		}
		if opts.ReleaseDate != nil {
			config.ReleaseDate = *opts.ReleaseDate
		}
		if opts.FreezeDate != nil {
			config.FreezeDate = *opts.FreezeDate
		}
		return config, nil
	}

	var missing []string
	if opts.PreviousVersion == nil {
		missing = append(missing, "--previous-version")
	}
	if opts.ReleaseDate == nil {
		missing = append(missing, "--release-date")
	}
	if opts.FreezeDate == nil {
		missing = append(missing, "--freeze-date")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"no release config YAML found and missing required flag(s): %s. Provide a config YAML via --release-config or supply the flags directly",
			strings.Join(missing, ", "))
	}
	return &Config{
		CurrentVersion:  releaseVersion,
		PreviousVersion: *opts.PreviousVersion,
		NextVersion:     opts.NextVersion,
		ReleaseDate:     *opts.ReleaseDate,
		FreezeDate:      *opts.FreezeDate,
		Owner:           DefaultOwner,
		Repo:            DefaultRepo,
	}, nil
}

func tryLoadYAML(galaxyRoot string, releaseVersion version.Version, configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("release config not found: %s", configPath)
		}
		return loadYAMLFile(configPath, releaseVersion)
	}
	defaultPath := DefaultPath(galaxyRoot, releaseVersion)
	if _, err := os.Stat(defaultPath); err != nil {
		return nil, nil
	}
	return loadYAMLFile(defaultPath, releaseVersion)
}

func loadYAMLFile(path string, releaseVersion version.Version) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("release config must be a YAML mapping in %s: %w", path, err)
	}
	if data == nil {
		return nil, fmt.Errorf("release config must be a YAML mapping in %s", path)
	}

	required := []string{"current-version", "previous-version", "freeze-date", "release-date"}
	var missing []string
	for _, field := range required {
		if _, ok := data[field]; !ok {
			missing = append(missing, fmt.Sprintf("'%s'", field))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required field(s) %s in %s", strings.Join(missing, ", "), path)
	}
	for _, field := range required {
		if data[field] == nil {
			return nil, fmt.Errorf("field '%s' is present but has no value in %s", field, path)
		}
	}

	currentVersion, err := parseVersionField(data, "current-version", path)
	if err != nil {
		return nil, err
	}
	previousVersion, err := parseVersionField(data, "previous-version", path)
	if err != nil {
		return nil, err
	}
	var nextVersion *version.Version
	if value, ok := data["next-version"]; ok && value != nil {
		v, err := parseVersionField(data, "next-version", path)
		if err != nil {
			return nil, err
		}
		nextVersion = &v
	}
	releaseDate, err := parseDateField(data, "release-date", path)
	if err != nil {
		return nil, err
	}
	freezeDate, err := parseDateField(data, "freeze-date", path)
	if err != nil {
		return nil, err
	}
	if !currentVersion.Equal(releaseVersion) {
		return nil, fmt.Errorf(
			"'current-version' in config (%s) does not match release-version argument (%s)", currentVersion, releaseVersion)
	}

	config := &Config{
		CurrentVersion:  currentVersion,
		PreviousVersion: previousVersion,
		NextVersion:     nextVersion,
		ReleaseDate:     releaseDate,
		FreezeDate:      freezeDate,
		Owner:           DefaultOwner,
		Repo:            DefaultRepo,
	}
	if owner, ok := data["owner"].(string); ok {
		config.Owner = owner
	}
	if repo, ok := data["repo"].(string); ok {
		config.Repo = repo
	}
	return config, nil
}

func parseVersionField(data map[string]any, field, path string) (version.Version, error) {
	raw := fmt.Sprintf("%v", data[field])
	v, err := version.Parse(raw)
	if err != nil {
		return version.Version{}, fmt.Errorf("invalid '%s' value %q in %s: %w", field, raw, path, err)
	}
	return v, nil
}

func parseDateField(data map[string]any, field, path string) (time.Time, error) {
	if t, ok := data[field].(time.Time); ok {
		return t, nil
	}
	raw := fmt.Sprintf("%v", data[field])
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid '%s' value %q in %s: %w", field, raw, path, err)
	}
	return t, nil
}
