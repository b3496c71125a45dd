package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/galaxyproject/galaxy-release-util/internal/changelog"
	"github.com/galaxyproject/galaxy-release-util/internal/github"
	"github.com/galaxyproject/galaxy-release-util/internal/releaseconfig"
	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

var (
	blockingPRsConfigPath   string
	blockingPRsDryRun       bool
	blockingIssuesConfig    string
	blockingIssuesDryRun    bool
	releaseIssueTitleMarker = "Publication of Galaxy Release"
)

// blockingClient builds a GitHub client for the release's repository,
// honoring a release config YAML when one is available.
func blockingClient(releaseVersion version.Version, configPath string) (*github.Client, error) {
	owner, repo := releaseconfig.DefaultOwner, releaseconfig.DefaultRepo
	if hasReleaseConfig(galaxyRoot, releaseVersion, configPath) {
		config, err := releaseconfig.Load(galaxyRoot, releaseVersion, releaseconfig.Options{ConfigPath: configPath})
		if err != nil {
			return nil, err
		}
		owner, repo = config.Owner, config.Repo
	}
	token, err := github.LoadToken()
	if err != nil {
		return nil, err
	}
	return github.NewClient(token, owner, repo), nil
}

var checkBlockingPRsCmd = &cobra.Command{
	Use:   "check-blocking-prs VERSION",
	Short: "List release blocking PRs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		releaseVersion, err := parseReleaseVersion(args[0])
		if err != nil {
			return err
		}
		if blockingPRsDryRun {
			fmt.Println("Dry run: would check blocking PRs")
			return nil
		}
		client, err := blockingClient(releaseVersion, blockingPRsConfigPath)
		if err != nil {
			return err
		}
		prs, err := client.FetchMilestonePulls(cmd.Context(), releaseVersion.String(), "open")
		if err != nil {
			return err
		}
		for i := range prs {
			fmt.Fprintf(os.Stderr, "Blocking PR| %s\n", changelog.PullToString(&prs[i]))
		}
		if len(prs) > 0 {
			os.Exit(1)
		}
		return nil
	},
}

var checkBlockingIssuesCmd = &cobra.Command{
	Use:   "check-blocking-issues VERSION",
	Short: "List release blocking issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		releaseVersion, err := parseReleaseVersion(args[0])
		if err != nil {
			return err
		}
		if blockingIssuesDryRun {
			fmt.Println("Dry run: would check blocking issues")
			return nil
		}
		client, err := blockingClient(releaseVersion, blockingIssuesConfig)
		if err != nil {
			return err
		}
		issues, err := client.FetchOpenIssues(cmd.Context())
		if err != nil {
			return err
		}
		block := false
		for i := range issues {
			issue := &issues[i]
			if issue.Milestone == nil || issue.Milestone.Title != releaseVersion.String() {
				continue
			}
			// The release checklist issue itself carries the milestone
			// but never blocks its own release.
			if strings.Contains(issue.Title, releaseIssueTitleMarker) {
				continue
			}
			fmt.Fprintf(os.Stderr, "Blocking issue| %s\n", changelog.IssueToString(issue))
			block = true
		}
		if block {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	checkBlockingPRsCmd.Flags().StringVar(&blockingPRsConfigPath, "release-config", "", "Path to release config YAML (default: doc/source/releases/release_{version}.yml)")
	checkBlockingPRsCmd.Flags().BoolVar(&blockingPRsDryRun, "dry-run", false, "Report what would be checked without calling the GitHub API")
	checkBlockingIssuesCmd.Flags().StringVar(&blockingIssuesConfig, "release-config", "", "Path to release config YAML (default: doc/source/releases/release_{version}.yml)")
	checkBlockingIssuesCmd.Flags().BoolVar(&blockingIssuesDryRun, "dry-run", false, "Report what would be checked without calling the GitHub API")
	rootCmd.AddCommand(checkBlockingPRsCmd)
	rootCmd.AddCommand(checkBlockingIssuesCmd)
}
