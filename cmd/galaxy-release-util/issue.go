package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/galaxyproject/galaxy-release-util/internal/changelog"
	"github.com/galaxyproject/galaxy-release-util/internal/github"
	"github.com/galaxyproject/galaxy-release-util/internal/packages"
	"github.com/galaxyproject/galaxy-release-util/internal/releaseconfig"
	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

var (
	issueConfigPath      string
	issuePreviousVersion string
)

var createReleaseIssueCmd = &cobra.Command{
	Use:   "create-release-issue VERSION",
	Short: "Create release checklist issue on GitHub",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		releaseVersion, err := parseReleaseVersion(args[0])
		if err != nil {
			return err
		}
		if err := packages.VerifyGalaxyRoot(galaxyRoot); err != nil {
			return err
		}

		owner, repo := releaseconfig.DefaultOwner, releaseconfig.DefaultRepo
		var previous version.Version
		if hasReleaseConfig(galaxyRoot, releaseVersion, issueConfigPath) {
			opts, err := releaseOptions(issueConfigPath, issuePreviousVersion, "", "", "")
			if err != nil {
				return err
			}
			config, err := releaseconfig.Load(galaxyRoot, releaseVersion, opts)
			if err != nil {
				return err
			}
			owner, repo = config.Owner, config.Repo
			previous = config.PreviousVersion
		} else if issuePreviousVersion != "" {
			if previous, err = parseReleaseVersion(issuePreviousVersion); err != nil {
				return err
			}
		} else {
			name, err := changelog.PreviousRelease(galaxyRoot, releaseVersion)
			if err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("no release preceding %s found under %s", releaseVersion, changelog.ReleasesPath(galaxyRoot))
			}
			if previous, err = version.Parse(name); err != nil {
				return fmt.Errorf("previous release file %s.rst: %w", name, err)
			}
		}

		token, err := github.LoadToken()
		if err != nil {
			return err
		}
		client := github.NewClient(token, owner, repo)
		issue, err := client.CreateIssue(cmd.Context(),
			changelog.ReleaseIssueTitle(releaseVersion),
			changelog.ReleaseIssue(releaseVersion, previous))
		if err != nil {
			return err
		}
		fmt.Printf("Created release issue #%d: %s\n", issue.Number, issue.HTMLURL)
		return nil
	},
}

func init() {
	createReleaseIssueCmd.Flags().StringVar(&issueConfigPath, "release-config", "", "Path to release config YAML (default: doc/source/releases/release_{version}.yml)")
	createReleaseIssueCmd.Flags().StringVar(&issuePreviousVersion, "previous-version", "", "Previous release version (default: latest doc/source/releases/*.rst)")
	rootCmd.AddCommand(createReleaseIssueCmd)
}
