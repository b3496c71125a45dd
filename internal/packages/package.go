package packages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/galaxyproject/galaxy-release-util/internal/changelog"
	"github.com/galaxyproject/galaxy-release-util/internal/git"
	"github.com/galaxyproject/galaxy-release-util/internal/github"
	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

// Package is one entry of the Galaxy packages directory.
type Package struct {
	Path           string
	CurrentVersion string
	Commits        map[string]bool
	PRs            []*github.PullRequest
	ModifiedPaths  []string
	History        []changelog.Item

	// IsNew marks a package that has never been released: its history
	// holds a single undated dev section.
	IsNew bool
}

func (p *Package) Name() string { return filepath.Base(p.Path) }

func (p *Package) SetupCfg() string { return filepath.Join(p.Path, "setup.cfg") }

func (p *Package) HistoryRst() string { return filepath.Join(p.Path, "HISTORY.rst") }

// PinnedRequirementsTxt is Galaxy's pinned dependency list, relative to
// the package directory.
func (p *Package) PinnedRequirementsTxt() string {
	return filepath.Join(p.Path, "..", "..", "lib", "galaxy", "dependencies", "pinned-requirements.txt")
}

func (p *Package) String() string {
	return fmt.Sprintf("[Package: %s, Current Version: %s", p.Name(), p.CurrentVersion)
}

// Changelog renders the package history as HISTORY.rst contents.
func (p *Package) Changelog() string {
	return changelog.RenderHistory(p.History)
}

// WriteHistory writes the package changelog back to HISTORY.rst and
// records the file as modified.
func (p *Package) WriteHistory() error {
	if err := os.WriteFile(p.HistoryRst(), []byte(p.Changelog()), 0o644); err != nil {
		return err
	}
	p.ModifiedPaths = append(p.ModifiedPaths, p.HistoryRst())
	return nil
}

// CodePaths lists the source directories whose commits are attributed to
// this package. Package code directories hold symlinks into the Galaxy
// source tree; the meta package owns every commit.
func (p *Package) CodePaths() ([]string, error) {
	if p.Name() == "meta" {
		return []string{filepath.Join(p.Path, "..", "..")}, nil
	}
	var codePaths []string
	for _, codeDir := range []string{"galaxy", "tests", "galaxy_test"} {
		dir := filepath.Join(p.Path, codeDir)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			resolved, err := filepath.EvalSymlinks(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			info, err := os.Stat(resolved)
			if err != nil || !info.IsDir() {
				continue
			}
			codePaths = append(codePaths, resolved)
		}
	}
	return codePaths, nil
}

// FindCommitsSince collects the commits touching the package's code paths
// since the last release tag.
func (p *Package) FindCommitsSince(lastVersionTag string) error {
	fmt.Printf("finding commits to package %s made since %s\n", p.Name(), lastVersionTag)
	repo := git.New(p.Path)
	codePaths, err := p.CodePaths()
	if err != nil {
		return err
	}
	p.Commits = map[string]bool{}
	for _, codePath := range codePaths {
		commits, err := repo.CommitsSince(lastVersionTag, codePath)
		if err != nil {
			return err
		}
		for _, commit := range commits {
			p.Commits[commit] = true
		}
	}
	return nil
}

// BumpVersion rewrites the version line of the package's setup.cfg.
func (p *Package) BumpVersion(newVersion version.Version) error {
	contents, err := os.ReadFile(p.SetupCfg())
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "version = ") {
			lines[i] = "version = " + newVersion.String()
		}
	}
	if err := os.WriteFile(p.SetupCfg(), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return err
	}
	p.ModifiedPaths = append(p.ModifiedPaths, p.SetupCfg())
	return nil
}

// SortedPackagePaths lists package directories in dependency order, as
// recorded in packages_by_dep_dag.txt. Blank lines and comments are
// skipped.
func SortedPackagePaths(galaxyRoot string) ([]string, error) {
	rootPackagePath := filepath.Join(galaxyRoot, "packages")
	contents, err := os.ReadFile(filepath.Join(rootPackagePath, "packages_by_dep_dag.txt"))
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, filepath.Join(rootPackagePath, line))
	}
	return paths, nil
}

// ReadPackage loads a package's version and changelog from disk.
func ReadPackage(packagePath string) (*Package, error) {
	setupCfg := filepath.Join(packagePath, "setup.cfg")
	contents, err := os.ReadFile(setupCfg)
	if err != nil {
		return nil, err
	}
	p := &Package{Path: packagePath}
	for _, line := range strings.Split(string(contents), "\n") {
		if strings.HasPrefix(line, "version = ") {
			p.CurrentVersion = strings.TrimSpace(strings.TrimPrefix(line, "version = "))
			break
		}
	}
	if p.CurrentVersion == "" {
		return nil, fmt.Errorf("%s does not contain version line", setupCfg)
	}

	historyContents, err := os.ReadFile(p.HistoryRst())
	if err != nil {
		return nil, err
	}
	items, err := changelog.ParseHistory(string(historyContents))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p.HistoryRst(), err)
	}
	p.IsNew = changelog.IsNewHistory(items)
	p.History, err = changelog.CleanItems(items, p.IsNew)
	if err != nil {
		return nil, fmt.Errorf("error in '%s': %w", p.HistoryRst(), err)
	}
	return p, nil
}

// CommitsToPRs resolves every collected commit to the pull requests that
// introduced it and attributes those PRs to each package.
func CommitsToPRs(ctx context.Context, client *github.Client, pkgs []*Package) error {
	commits := map[string]bool{}
	for _, p := range pkgs {
		for commit := range p.Commits {
			commits[commit] = true
		}
	}
	sorted := make([]string, 0, len(commits))
	for commit := range commits {
		sorted = append(sorted, commit)
	}
	sort.Strings(sorted)

	prCache := map[int]*github.PullRequest{}
	commitToPR := map[string]*github.PullRequest{}
	for i, commit := range sorted {
		fmt.Printf("Processing commit %d of %d\n", i+1, len(sorted))
		prs, err := client.PullsForCommit(ctx, commit)
		if err != nil {
			return err
		}
		if len(prs) == 0 {
			return fmt.Errorf("commit %s has no associated PRs", commit)
		}
		for i := range prs {
			pr := &prs[i]
			if _, ok := prCache[pr.Number]; !ok {
				prCache[pr.Number] = pr
			}
			commitToPR[commit] = prCache[pr.Number]
		}
	}
	for _, p := range pkgs {
		seen := map[int]bool{}
		p.PRs = nil
		for commit := range p.Commits {
			pr, ok := commitToPR[commit]
			if !ok || seen[pr.Number] {
				continue
			}
			seen[pr.Number] = true
			p.PRs = append(p.PRs, pr)
		}
		sort.Slice(p.PRs, func(i, j int) bool { return p.PRs[i].Number < p.PRs[j].Number })
	}
	return nil
}

// changeCategories orders the kind sections of a package changelog entry.
var changeCategories = []string{"Bug fixes", "Enhancements", "Other changes"}

// NewHistoryItem builds the changelog section for a package's new release,
// grouping its pull requests into bug fix, enhancement and other sections.
func (p *Package) NewHistoryItem(newVersion version.Version, now time.Time) changelog.Item {
	var formatted []string
	changes := map[string][]string{}
	switch {
	case p.IsNew:
		// replace any current text for new packages, do not list PRs
		formatted = append(formatted, changelog.FirstReleaseText)
	case len(p.PRs) == 0:
		formatted = append(formatted, changelog.NoChangesText)
	default:
		for _, pr := range p.PRs {
			category := "Other changes"
			target, _ := changelog.TextTarget(pr, false)
			if target != "" {
				if strings.Contains(target, "bug") {
					category = "Bug fixes"
				}
				if strings.Contains(target, "enhancement") || strings.Contains(target, "feature") {
					category = "Enhancements"
				}
			}
			changes[category] = append(changes[category],
				fmt.Sprintf("* %s by `@%s <https://github.com/%s>`_ in `#%d <%s>`_",
					changelog.StripRelease(pr.Title), pr.User.Login, pr.User.Login, pr.Number, pr.HTMLURL))
		}
	}

	for _, kind := range changeCategories {
		entries := changes[kind]
		if len(entries) > 0 {
			formatted = append(formatted, changelog.KindHeader(kind))
		}
		formatted = append(formatted, entries...)
	}

	return changelog.Item{
		Version: newVersion,
		Date:    now.Format("2006-01-02"),
		Changes: formatted,
	}
}

// UpdatePackages bumps every package to the new version and prepends the
// release section to its changelog. Dev versions get an empty undated
// section instead. Returns the modified paths.
func UpdatePackages(pkgs []*Package, newVersion version.Version, isDevVersion bool, now time.Time) ([]string, error) {
	var modified []string
	for _, p := range pkgs {
		p.ModifiedPaths = nil
		if err := p.BumpVersion(newVersion); err != nil {
			return nil, err
		}
		var item changelog.Item
		if isDevVersion {
			item = changelog.Item{Version: newVersion}
		} else {
			item = p.NewHistoryItem(newVersion, now)
		}
		p.History = append([]changelog.Item{item}, p.History...)
		if err := p.WriteHistory(); err != nil {
			return nil, err
		}
		modified = append(modified, p.ModifiedPaths...)
		if p.Name() == "meta" && !isDevVersion {
			metaModified, err := BuildMetaRequirements(p, pkgs, newVersion)
			if err != nil {
				return nil, err
			}
			modified = append(modified, metaModified...)
		}
	}
	return modified, nil
}

// BuildMetaRequirements rewrites the meta package requirements: every
// released galaxy package pinned to the new version plus Galaxy's pinned
// dependencies. The tool shed package is not required at runtime and the
// meta package cannot depend on itself.
func BuildMetaRequirements(meta *Package, pkgs []*Package, newVersion version.Version) ([]string, error) {
	var deps []string
	for _, p := range pkgs {
		if name := p.Name(); name != "meta" && name != "tool_shed" {
			deps = append(deps, fmt.Sprintf("galaxy-%s==%s", name, newVersion))
		}
	}
	pinned, err := os.ReadFile(meta.PinnedRequirementsTxt())
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(string(pinned), "\n") {
		if line == "" || strings.HasPrefix(line, "--") || strings.HasPrefix(line, "#") {
			continue
		}
		deps = append(deps, line)
	}
	sort.Strings(deps)
	requirementsTxt := filepath.Join(meta.Path, "requirements.txt")
	if err := os.WriteFile(requirementsTxt, []byte(strings.Join(deps, "\n")), 0o644); err != nil {
		return nil, err
	}
	meta.ModifiedPaths = append(meta.ModifiedPaths, requirementsTxt)
	return []string{requirementsTxt}, nil
}
