package packages

import (
	"path/filepath"
	"regexp"

	"github.com/galaxyproject/galaxy-release-util/internal/changelog"
	"github.com/galaxyproject/galaxy-release-util/internal/git"
	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

var releaseBranchPattern = regexp.MustCompile(`^release_(\d{2}\.\d{1,2})$`)

// NewerBranches lists the release branches newer than the version being
// released, plus dev, in merge-forward order.
func NewerBranches(repo *git.Repo, newVersion version.Version, currentBranch string) ([]string, error) {
	branches, err := repo.Branches()
	if err != nil {
		return nil, err
	}
	majorMinor := newVersion.MajorMinor()
	var releaseBranches []string
	for _, branch := range branches {
		m := releaseBranchPattern.FindStringSubmatch(branch)
		if m == nil {
			continue
		}
		branchVersion, err := version.Parse(m[1])
		if err != nil {
			continue
		}
		if majorMinor.Less(branchVersion) {
			releaseBranches = append(releaseBranches, branch)
		}
	}
	if currentBranch != "dev" {
		releaseBranches = append(releaseBranches, "dev")
	}
	return releaseBranches, nil
}

// GalaxyVersionFiles are the files whose base-branch versions must not
// leak into newer branches during a merge forward.
func GalaxyVersionFiles(galaxyRoot string) []string {
	return []string{
		VersionFilePath(galaxyRoot),
		filepath.Join(galaxyRoot, "package.json"),
		filepath.Join(galaxyRoot, "client", "package.json"),
	}
}

// MergeAndResolveBranches merges baseBranch into newBranch, restoring the
// target branch's version files and reconciling package changelogs, then
// commits the result. Merge conflicts in version and changelog files are
// expected and resolved here.
func MergeAndResolveBranches(galaxyRoot, baseBranch, newBranch string, pkgs []*Package) error {
	repo := git.New(galaxyRoot)
	if err := repo.Checkout(newBranch); err != nil {
		return err
	}

	packagesByPath := map[string]*Package{}
	for _, p := range pkgs {
		packagesByPath[p.Path] = p
	}
	var packagesToRewrite []*Package
	for _, p := range pkgs {
		if p.Name() == "meta" {
			packagesToRewrite = append(packagesToRewrite, p)
		}
	}
	sortedPaths, err := SortedPackagePaths(galaxyRoot)
	if err != nil {
		return err
	}
	for _, packagePath := range sortedPaths {
		if _, ok := packagesByPath[packagePath]; !ok {
			continue
		}
		p, err := ReadPackage(packagePath)
		if err != nil {
			return err
		}
		packagesToRewrite = append(packagesToRewrite, p)
	}

	conflicted, err := repo.Merge(baseBranch)
	if err != nil {
		return err
	}
	// restore the target branch's galaxy versions
	if err := repo.CheckoutPaths(newBranch, GalaxyVersionFiles(galaxyRoot)...); err != nil {
		return err
	}
	devVersion, err := RootVersion(galaxyRoot)
	if err != nil {
		return err
	}
	for _, newPackage := range packagesToRewrite {
		previous := packagesByPath[newPackage.Path]
		history, err := changelog.ReconcileHistories(newPackage.Name(), previous.History, newPackage.History, devVersion)
		if err != nil {
			return err
		}
		// updated in place so merging forward across multiple branches
		// carries the reconciled history along
		previous.History = history
		if err := previous.WriteHistory(); err != nil {
			return err
		}
		if err := repo.Add(previous.HistoryRst()); err != nil {
			return err
		}
		if err := repo.CheckoutPaths(newBranch, previous.SetupCfg()); err != nil {
			return err
		}
	}
	if conflicted {
		return repo.CommitNoEdit()
	}
	return repo.CommitAmendNoEdit()
}
