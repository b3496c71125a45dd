package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/galaxyproject/galaxy-release-util/internal/releaseconfig"
	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

var galaxyRoot string

var rootCmd = &cobra.Command{
	Use:   "galaxy-release-util",
	Short: "Perform various tasks around creating Galaxy releases and point releases",
	Long: `Tasks around creating Galaxy releases: changelog and announcement
scaffolding, release checklist issues, blocking-item checks, package builds
and uploads, and full point-release orchestration.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&galaxyRoot, "galaxy-root", ".", "Path to galaxy root")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseReleaseVersion parses the positional VERSION argument common to the
// release commands.
func parseReleaseVersion(arg string) (version.Version, error) {
	v, err := version.Parse(arg)
	if err != nil {
		return version.Version{}, fmt.Errorf("%q is not a valid PEP440 version number: %w", arg, err)
	}
	return v, nil
}

// releaseOptions converts the raw release-config override flags into typed
// options. Empty strings mean the flag was not given.
func releaseOptions(configPath, previous, next, releaseDate, freezeDate string) (releaseconfig.Options, error) {
	opts := releaseconfig.Options{ConfigPath: configPath}
	if previous != "" {
		v, err := parseReleaseVersion(previous)
		if err != nil {
			return opts, err
		}
		opts.PreviousVersion = &v
	}
	if next != "" {
		v, err := parseReleaseVersion(next)
		if err != nil {
			return opts, err
		}
		opts.NextVersion = &v
	}
	if releaseDate != "" {
		t, err := parseDate(releaseDate)
		if err != nil {
			return opts, err
		}
		opts.ReleaseDate = &t
	}
	if freezeDate != "" {
		t, err := parseDate(freezeDate)
		if err != nil {
			return opts, err
		}
		opts.FreezeDate = &t
	}
	return opts, nil
}

func parseDate(arg string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a valid date, expected YYYY-MM-DD", arg)
	}
	return t, nil
}

// hasReleaseConfig reports whether a release config YAML is available,
// either explicitly or at the default location. Commands that can operate
// without one use this to decide whether to load it.
func hasReleaseConfig(galaxyRoot string, releaseVersion version.Version, configPath string) bool {
	if configPath != "" {
		return true
	}
	_, err := os.Stat(releaseconfig.DefaultPath(galaxyRoot, releaseVersion))
	return err == nil
}
