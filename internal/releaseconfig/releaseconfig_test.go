package releaseconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

func writeConfig(t *testing.T, galaxyRoot, filename, contents string) string {
	t.Helper()
	dir := filepath.Join(galaxyRoot, "doc", "source", "releases")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestLoadDefaultPath(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_98.2.yml",
		"current-version: '98.2'\nprevious-version: '98.1'\nfreeze-date: '2099-01-01'\nrelease-date: '2099-01-15'\n")
	config, err := Load(root, version.MustParse("98.2"), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !config.CurrentVersion.Equal(version.MustParse("98.2")) {
		t.Errorf("CurrentVersion = %v", config.CurrentVersion)
	}
	if !config.PreviousVersion.Equal(version.MustParse("98.1")) {
		t.Errorf("PreviousVersion = %v", config.PreviousVersion)
	}
	if config.NextVersion != nil {
		t.Errorf("NextVersion = %v, want nil", config.NextVersion)
	}
	if !config.ReleaseDate.Equal(date(t, "2099-01-15")) || !config.FreezeDate.Equal(date(t, "2099-01-01")) {
		t.Errorf("dates = %v / %v", config.ReleaseDate, config.FreezeDate)
	}
	if config.Owner != "galaxyproject" || config.Repo != "galaxy" {
		t.Errorf("owner/repo = %s/%s", config.Owner, config.Repo)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "custom.yml",
		"current-version: '25.0'\nprevious-version: '24.2'\nrelease-date: '2025-07-01'\nfreeze-date: '2025-06-01'\nowner: myorg\nrepo: myrepo\n")
	config, err := Load(root, version.MustParse("25.0"), Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Owner != "myorg" || config.Repo != "myrepo" {
		t.Errorf("owner/repo = %s/%s", config.Owner, config.Repo)
	}
	if !config.PreviousVersion.Equal(version.MustParse("24.2")) {
		t.Errorf("PreviousVersion = %v", config.PreviousVersion)
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	root := t.TempDir()
	_, err := Load(root, version.MustParse("99.0"), Options{ConfigPath: filepath.Join(root, "nonexistent.yml")})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLoadNoYAMLNoFlags(t *testing.T) {
	_, err := Load(t.TempDir(), version.MustParse("99.0"), Options{})
	if err == nil || !strings.Contains(err.Error(), "missing required flag") {
		t.Errorf("expected missing-flags error, got %v", err)
	}
}

func TestLoadFlagsOnly(t *testing.T) {
	previous := version.MustParse("98.0")
	releaseDate := date(t, "2099-01-15")
	freezeDate := date(t, "2099-01-01")
	config, err := Load(t.TempDir(), version.MustParse("99.0"), Options{
		PreviousVersion: &previous,
		ReleaseDate:     &releaseDate,
		FreezeDate:      &freezeDate,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !config.CurrentVersion.Equal(version.MustParse("99.0")) || !config.PreviousVersion.Equal(previous) {
		t.Errorf("versions = %v / %v", config.CurrentVersion, config.PreviousVersion)
	}
	if config.NextVersion != nil {
		t.Errorf("NextVersion = %v, want nil", config.NextVersion)
	}
	if config.Owner != "galaxyproject" || config.Repo != "galaxy" {
		t.Errorf("owner/repo = %s/%s", config.Owner, config.Repo)
	}
}

func TestLoadFlagsOverrideYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_98.2.yml",
		"current-version: '98.2'\nprevious-version: '98.1'\nfreeze-date: '2099-01-01'\nrelease-date: '2099-01-15'\n")
	next := version.MustParse("99.5")
	releaseDate := date(t, "2099-06-01")
	config, err := Load(root, version.MustParse("98.2"), Options{
		NextVersion: &next,
		ReleaseDate: &releaseDate,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.NextVersion == nil || !config.NextVersion.Equal(next) {
		t.Errorf("NextVersion = %v, want 99.5", config.NextVersion)
	}
	if !config.ReleaseDate.Equal(releaseDate) {
		t.Errorf("ReleaseDate = %v", config.ReleaseDate)
	}
	if !config.PreviousVersion.Equal(version.MustParse("98.1")) {
		t.Errorf("PreviousVersion = %v, want YAML value", config.PreviousVersion)
	}
}

func TestLoadMissingField(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_99.0.yml", "current-version: '99.0'\n")
	_, err := Load(root, version.MustParse("99.0"), Options{})
	if err == nil || !strings.Contains(err.Error(), "missing required field") {
		t.Errorf("expected missing-field error, got %v", err)
	}
}

// TestLoadNextVersionFromYAML verifies that next-version is still parsed
// from YAML when present.
func TestLoadNextVersionFromYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_98.2.yml",
		"current-version: '98.2'\nprevious-version: '98.1'\nnext-version: '99.0'\nfreeze-date: '2099-01-01'\nrelease-date: '2099-01-15'\n")
	config, err := Load(root, version.MustParse("98.2"), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.NextVersion == nil || !config.NextVersion.Equal(version.MustParse("99.0")) {
		t.Errorf("NextVersion = %v, want 99.0", config.NextVersion)
	}
}

func TestLoadNullRequiredField(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_99.0.yml",
		"current-version: '99.0'\nprevious-version:\nfreeze-date: '2099-01-01'\nrelease-date: '2099-01-15'\n")
	_, err := Load(root, version.MustParse("99.0"), Options{})
	if err == nil || !strings.Contains(err.Error(), "has no value") {
		t.Errorf("expected null-field error, got %v", err)
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_99.0.yml",
		"current-version: '!!!'\nprevious-version: '98.0'\nfreeze-date: '2099-01-01'\nrelease-date: '2099-01-15'\n")
	_, err := Load(root, version.MustParse("99.0"), Options{})
	if err == nil || !strings.Contains(err.Error(), "invalid 'current-version'") {
		t.Errorf("expected invalid-version error, got %v", err)
	}
}

func TestLoadInvalidDate(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_99.0.yml",
		"current-version: '99.0'\nprevious-version: '98.0'\nfreeze-date: '2099-01-01'\nrelease-date: 'not-a-date'\n")
	_, err := Load(root, version.MustParse("99.0"), Options{})
	if err == nil || !strings.Contains(err.Error(), "invalid 'release-date'") {
		t.Errorf("expected invalid-date error, got %v", err)
	}
}

func TestLoadNotAMapping(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_99.0.yml", "- item1\n- item2\n")
	_, err := Load(root, version.MustParse("99.0"), Options{})
	if err == nil || !strings.Contains(err.Error(), "must be a YAML mapping") {
		t.Errorf("expected mapping error, got %v", err)
	}
}

func TestLoadVersionMismatch(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "release_99.0.yml",
		"current-version: '98.0'\nprevious-version: '97.0'\nfreeze-date: '2099-01-01'\nrelease-date: '2099-01-15'\n")
	_, err := Load(root, version.MustParse("99.0"), Options{ConfigPath: path})
	if err == nil || !strings.Contains(err.Error(), "does not match release-version argument") {
		t.Errorf("expected mismatch error, got %v", err)
	}
}

// TestLoadUnquotedDates verifies YAML date scalars parse without quoting.
func TestLoadUnquotedDates(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "release_98.2.yml",
		"current-version: '98.2'\nprevious-version: '98.1'\nfreeze-date: 2099-01-01\nrelease-date: 2099-01-15\n")
	config, err := Load(root, version.MustParse("98.2"), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := config.FreezeDate.Format("2006-01-02"); got != "2099-01-01" {
		t.Errorf("FreezeDate = %s", got)
	}
}
