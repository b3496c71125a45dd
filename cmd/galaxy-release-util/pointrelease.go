package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/galaxyproject/galaxy-release-util/internal/changelog"
	"github.com/galaxyproject/galaxy-release-util/internal/git"
	"github.com/galaxyproject/galaxy-release-util/internal/github"
	"github.com/galaxyproject/galaxy-release-util/internal/packages"
	"github.com/galaxyproject/galaxy-release-util/internal/ui"
	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

const defaultUpstreamURL = "https://github.com/" + changelog.ProjectOwner + "/" + changelog.ProjectName + ".git"

var (
	prNewVersion     string
	prLastCommit     string
	prBuildPackages  bool
	prUploadPackages bool
	prPackageSubset  []string
	prNoConfirm      bool
	prUpstream       string
)

var createPointReleaseCmd = &cobra.Command{
	Use:   "create-point-release",
	Short: "Create a new point release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		newVersion, err := parseReleaseVersion(prNewVersion)
		if err != nil {
			return err
		}
		if err := packages.VerifyGalaxyRoot(galaxyRoot); err != nil {
			return err
		}
		repo := git.New(galaxyRoot)
		if err := checkRepoIsClean(repo); err != nil {
			return err
		}
		baseBranch, err := repo.CurrentBranch()
		if err != nil {
			return err
		}
		if err := confirmVersions(newVersion, baseBranch); err != nil {
			return err
		}
		newerBranches, err := packages.NewerBranches(repo, newVersion, baseBranch)
		if err != nil {
			return err
		}
		allBranches := append(append([]string{}, newerBranches...), baseBranch)
		if err := ensureBranchesUpToDate(repo, allBranches, baseBranch, prUpstream); err != nil {
			return err
		}
		if err := ensureCleanMerges(repo, newerBranches, baseBranch); err != nil {
			return err
		}

		versionPy := packages.VersionFilePath(galaxyRoot)
		if err := packages.SetRootVersion(versionPy, newVersion); err != nil {
			return err
		}
		modifiedPaths := []string{versionPy}
		pkgs, err := loadPackages(prPackageSubset, prLastCommit)
		if err != nil {
			return err
		}
		token, err := github.LoadToken()
		if err != nil {
			return err
		}
		client := github.NewClient(token, changelog.ProjectOwner, changelog.ProjectName)
		if err := packages.CommitsToPRs(cmd.Context(), client, pkgs); err != nil {
			return err
		}
		now := time.Now()
		paths, err := packages.UpdatePackages(pkgs, newVersion, false, now)
		if err != nil {
			return err
		}
		modifiedPaths = append(modifiedPaths, paths...)
		clientPaths, err := packages.UpdateClientVersion(galaxyRoot, newVersion)
		if err != nil {
			return err
		}
		modifiedPaths = append(modifiedPaths, clientPaths...)
		if prBuildPackages {
			for _, p := range pkgs {
				if err := p.Build(); err != nil {
					return err
				}
			}
		}
		if err := showModifiedPathsAndDiff(repo, modifiedPaths); err != nil {
			return err
		}
		if err := uploadPackages(pkgs); err != nil {
			return err
		}
		if err := stageAndCommit(repo, modifiedPaths, fmt.Sprintf("Create version %s", newVersion)); err != nil {
			return err
		}
		releaseTag := "v" + newVersion.String()
		if err := createTag(repo, releaseTag); err != nil {
			return err
		}

		devVersion, err := packages.NextDevVersion(galaxyRoot)
		if err != nil {
			return err
		}
		if err := packages.SetRootVersion(versionPy, devVersion); err != nil {
			return err
		}
		modifiedPaths = []string{versionPy}
		paths, err = packages.UpdatePackages(pkgs, devVersion, true, now)
		if err != nil {
			return err
		}
		modifiedPaths = append(modifiedPaths, paths...)
		clientPaths, err = packages.UpdateClientVersion(galaxyRoot, devVersion)
		if err != nil {
			return err
		}
		modifiedPaths = append(modifiedPaths, clientPaths...)
		if err := stageAndCommit(repo, modifiedPaths, fmt.Sprintf("Start work on %s", devVersion)); err != nil {
			return err
		}

		if err := mergeIntoNewerBranches(repo, pkgs, newerBranches, baseBranch); err != nil {
			return err
		}
		return pushReferences(repo, releaseTag, allBranches, prUpstream)
	},
}

func checkRepoIsClean(repo *git.Repo) error {
	fmt.Printf("Making sure galaxy clone at '%s' is clean:\n", galaxyRoot)
	clean, err := repo.IsClean()
	if err != nil {
		return err
	}
	if !clean {
		return ui.ConfirmAbort("Your galaxy clone has untracked or staged changes, are you sure you want to continue?")
	}
	return nil
}

func confirmVersions(newVersion version.Version, baseBranch string) error {
	rootVersion, err := packages.RootVersion(galaxyRoot)
	if err != nil {
		return err
	}
	fmt.Printf("- Current Galaxy version: %s\n- New Galaxy version: %s\n- Base branch: %s\n",
		rootVersion, newVersion, baseBranch)
	if prNoConfirm {
		return nil
	}
	return ui.ConfirmAbort("Does this look correct?")
}

// ensureBranchesUpToDate verifies that every branch's local tip matches
// the branch tip at the upstream remote, then returns to the base branch.
func ensureBranchesUpToDate(repo *git.Repo, branches []string, baseBranch, upstream string) error {
	fmt.Println("Making sure that all branches are up to date")
	defer func() {
		_ = repo.Checkout(baseBranch)
	}()
	for _, branch := range branches {
		if err := repo.Checkout(branch); err != nil {
			return err
		}
		remoteTip, err := repo.RemoteBranchTip(upstream, branch)
		if err != nil {
			return err
		}
		localTip, err := repo.HeadCommit()
		if err != nil {
			return err
		}
		if remoteTip != localTip {
			return fmt.Errorf(
				"local tip of branch %s is %s, remote tip of branch is %s. Make sure that your local branches are up to date and track %s",
				branch, localTip, remoteTip, upstream)
		}
	}
	return nil
}

// ensureCleanMerges probes that merging the base branch forward into each
// newer release branch would not conflict, then returns to the base branch.
func ensureCleanMerges(repo *git.Repo, newerBranches []string, baseBranch string) error {
	fmt.Println("Making sure that merging forward will result in clean merges")
	defer func() {
		_ = repo.Checkout(baseBranch)
	}()
	for _, newBranch := range newerBranches {
		if err := repo.Checkout(newBranch); err != nil {
			return err
		}
		required, err := repo.MergeRequired(baseBranch)
		if err != nil {
			return err
		}
		if required {
			msg := fmt.Sprintf(
				"Merge conflicts occurred while attempting to merge branch %s into %s. You should resolve conflicts and try again.",
				baseBranch, newBranch)
			if prNoConfirm {
				return errors.New(msg)
			}
			fmt.Println(ui.RenderWarn(msg))
			if err := ui.ConfirmAbort("Continue anyway ?"); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// loadPackages reads the packages and collects the commits made to each
// one since the last release.
func loadPackages(subset []string, lastCommit string) ([]*packages.Package, error) {
	pkgs, err := readPackages(subset)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if err := p.FindCommitsSince(lastCommit); err != nil {
			return nil, err
		}
	}
	return pkgs, nil
}

func showModifiedPathsAndDiff(repo *git.Repo, modifiedPaths []string) error {
	fmt.Printf("The following paths have been modified: \n%s\n", strings.Join(modifiedPaths, "\n"))
	if prNoConfirm {
		return nil
	}
	show, err := ui.Confirm("show diff ?")
	if err != nil {
		return err
	}
	if !show {
		return nil
	}
	return repo.Diff(modifiedPaths...)
}

func uploadPackages(pkgs []*packages.Package) error {
	if !prBuildPackages || !prUploadPackages {
		return nil
	}
	confirmed := prNoConfirm
	if !confirmed {
		var err error
		if confirmed, err = ui.Confirm("Upload packages ?"); err != nil {
			return err
		}
	}
	if !confirmed {
		return nil
	}
	for _, p := range pkgs {
		if err := p.Upload(); err != nil {
			return err
		}
	}
	return nil
}

func stageAndCommit(repo *git.Repo, modifiedPaths []string, message string) error {
	if !prNoConfirm {
		if err := ui.ConfirmAbort("Stage and commit changes ?"); err != nil {
			return err
		}
	}
	if err := repo.Add(modifiedPaths...); err != nil {
		return err
	}
	return repo.Commit(message)
}

func createTag(repo *git.Repo, releaseTag string) error {
	if !prNoConfirm {
		if err := ui.ConfirmAbort(fmt.Sprintf("Create git tag '%s'?", releaseTag)); err != nil {
			return err
		}
	}
	return repo.Tag(releaseTag)
}

// mergeIntoNewerBranches merges the release forward, branch by branch,
// reconciling the per-package changelogs along the way.
func mergeIntoNewerBranches(repo *git.Repo, pkgs []*packages.Package, newerBranches []string, baseBranch string) error {
	if len(newerBranches) > 0 && !prNoConfirm {
		if err := ui.ConfirmAbort(fmt.Sprintf("Merge branch '%s' into %s ?", baseBranch, strings.Join(newerBranches, ", "))); err != nil {
			return err
		}
	}
	currentBranch := baseBranch
	for _, newBranch := range newerBranches {
		fmt.Printf("Merging %s into %s\n", baseBranch, newBranch)
		if err := packages.MergeAndResolveBranches(galaxyRoot, currentBranch, newBranch, pkgs); err != nil {
			return err
		}
		currentBranch = newBranch
	}
	return nil
}

func pushReferences(repo *git.Repo, releaseTag string, branches []string, upstream string) error {
	references := append([]string{releaseTag}, branches...)
	if !prNoConfirm {
		if err := ui.ConfirmAbort(fmt.Sprintf("Push %s to upstream '%s' ?", strings.Join(references, ","), upstream)); err != nil {
			return err
		}
	}
	for _, reference := range references {
		if err := repo.Push(upstream, reference); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	createPointReleaseCmd.Flags().StringVar(&prNewVersion, "new-version", "", "Specify new release version. Must be valid PEP 440 version")
	createPointReleaseCmd.Flags().StringVar(&prLastCommit, "last-commit", "", "Specify commit or tag that was used for the last package release. This is used to find the changelog for packages.")
	createPointReleaseCmd.Flags().BoolVar(&prBuildPackages, "build-packages", true, "Build packages before committing")
	createPointReleaseCmd.Flags().BoolVar(&prUploadPackages, "upload-packages", false, "Upload built packages to PyPI")
	createPointReleaseCmd.Flags().StringSliceVar(&prPackageSubset, "packages", nil, "Restrict release to specified packages")
	createPointReleaseCmd.Flags().BoolVar(&prNoConfirm, "no-confirm", false, "Skip confirmation prompts")
	createPointReleaseCmd.Flags().StringVar(&prUpstream, "upstream", defaultUpstreamURL, "Upstream git URL to verify against and push to")
	_ = createPointReleaseCmd.MarkFlagRequired("new-version")
	_ = createPointReleaseCmd.MarkFlagRequired("last-commit")
	rootCmd.AddCommand(createPointReleaseCmd)
}
