package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/galaxyproject/galaxy-release-util/internal/changelog"
	"github.com/galaxyproject/galaxy-release-util/internal/github"
	"github.com/galaxyproject/galaxy-release-util/internal/packages"
	"github.com/galaxyproject/galaxy-release-util/internal/releaseconfig"
	"github.com/galaxyproject/galaxy-release-util/internal/ui"
)

var (
	changelogConfigPath      string
	changelogPreviousVersion string
	changelogNextVersion     string
	changelogReleaseDate     string
	changelogFreezeDate      string
	changelogDryRun          bool
)

var createChangelogCmd = &cobra.Command{
	Use:   "create-changelog VERSION",
	Short: "Create or update release changelog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		releaseVersion, err := parseReleaseVersion(args[0])
		if err != nil {
			return err
		}
		if err := packages.VerifyGalaxyRoot(galaxyRoot); err != nil {
			return err
		}
		opts, err := releaseOptions(changelogConfigPath, changelogPreviousVersion, changelogNextVersion, changelogReleaseDate, changelogFreezeDate)
		if err != nil {
			return err
		}
		config, err := releaseconfig.Load(galaxyRoot, releaseVersion, opts)
		if err != nil {
			return err
		}
		fmt.Println(ui.RenderHeader(fmt.Sprintf("Release %s (freeze %s, release %s)",
			config.CurrentVersion,
			config.FreezeDate.Format("2006-01-02"),
			config.ReleaseDate.Format("2006-01-02"))))

		releaseFile := changelog.ReleaseFile(galaxyRoot, releaseVersion.String()+".rst")
		if _, err := writeFileSkipIfExists(releaseFile, changelog.ReleaseNotes(releaseVersion)); err != nil {
			return err
		}
		announceFile := changelog.ReleaseFile(galaxyRoot, releaseVersion.String()+"_announce.rst")
		if _, err := writeFileSkipIfExists(announceFile, changelog.Announce(releaseVersion)); err != nil {
			return err
		}
		announceUserFile := changelog.ReleaseFile(galaxyRoot, releaseVersion.String()+"_announce_user.rst")
		if _, err := writeFileSkipIfExists(announceUserFile, changelog.AnnounceUser(releaseVersion)); err != nil {
			return err
		}

		// Collect already linked PRs before (re)creating the registry so
		// reruns do not duplicate entries.
		prsFile := changelog.ReleaseFile(galaxyRoot, releaseVersion.String()+"_prs.rst")
		seen, err := changelog.SeenPullRequests(prsFile)
		if err != nil {
			return err
		}
		if _, err := writeFileSkipIfExists(prsFile, changelog.PullRequestLinksTemplate); err != nil {
			return err
		}

		nextVersion, nextAnnounce := changelog.NextAnnounce(releaseVersion)
		nextAnnounceFile := changelog.ReleaseFile(galaxyRoot, nextVersion.String()+"_announce.rst")
		if err := os.WriteFile(nextAnnounceFile, []byte(nextAnnounce), 0o644); err != nil {
			return err
		}
		if err := addToReleasesIndex(nextVersion.String() + "_announce"); err != nil {
			return err
		}

		if changelogDryRun {
			fmt.Println("Dry run: skipping GitHub API call")
			return nil
		}

		token, err := github.LoadToken()
		if err != nil {
			return err
		}
		client := github.NewClient(token, config.Owner, config.Repo)
		prs, err := client.FetchMilestonePulls(cmd.Context(), releaseVersion.String(), "closed")
		if err != nil {
			return err
		}

		history, err := readFile(releaseFile)
		if err != nil {
			return err
		}
		prsContent, err := readFile(prsFile)
		if err != nil {
			return err
		}
		userAnnounce, err := readFile(announceUserFile)
		if err != nil {
			return err
		}
		for i := range prs {
			pr := &prs[i]
			if !pr.Merged() || seen[pr.Number] {
				continue
			}
			var notes []string
			history, prsContent, userAnnounce, notes, err = changelog.InsertPullRequest(pr, history, prsContent, userAnnounce)
			if err != nil {
				return fmt.Errorf("PR #%d: %w", pr.Number, err)
			}
			for _, note := range notes {
				fmt.Println(ui.RenderWarn(note))
			}
		}
		if err := os.WriteFile(releaseFile, []byte(history), 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(prsFile, []byte(prsContent), 0o644); err != nil {
			return err
		}
		return os.WriteFile(announceUserFile, []byte(userAnnounce), 0o644)
	},
}

// addToReleasesIndex inserts an announcement document into the releases
// index toctree, directly after the announcements anchor. Inserting twice
// is a no-op.
func addToReleasesIndex(document string) error {
	indexFile := changelog.ReleaseFile(galaxyRoot, "index.rst")
	contents, err := readFile(indexFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	entry := "   " + document + "\n"
	if strings.Contains(contents, entry) {
		return nil
	}
	updated := strings.Replace(contents, ".. announcements\n", ".. announcements\n"+entry, 1)
	if updated == contents {
		return nil
	}
	return os.WriteFile(indexFile, []byte(updated), 0o644)
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeFileSkipIfExists writes contents to path unless it already exists,
// so rerunning the scaffolding commands preserves curated edits.
func writeFileSkipIfExists(path, contents string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func init() {
	createChangelogCmd.Flags().StringVar(&changelogConfigPath, "release-config", "", "Path to release config YAML (default: doc/source/releases/release_{version}.yml)")
	createChangelogCmd.Flags().StringVar(&changelogPreviousVersion, "previous-version", "", "Previous release version, overrides the release config")
	createChangelogCmd.Flags().StringVar(&changelogNextVersion, "next-version", "", "Next release version, overrides the release config")
	createChangelogCmd.Flags().StringVar(&changelogReleaseDate, "release-date", "", "Release date (YYYY-MM-DD), overrides the release config")
	createChangelogCmd.Flags().StringVar(&changelogFreezeDate, "freeze-date", "", "Freeze date (YYYY-MM-DD), overrides the release config")
	createChangelogCmd.Flags().BoolVar(&changelogDryRun, "dry-run", false, "Write scaffolding but skip the GitHub API call")
	rootCmd.AddCommand(createChangelogCmd)
}
