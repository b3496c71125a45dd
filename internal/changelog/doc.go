package changelog

import (
	"fmt"
	"strings"

	"github.com/galaxyproject/galaxy-release-util/internal/github"
)

// userAnnounceTargets maps area labels to the user announcement anchors
// their entries are mirrored into.
var userAnnounceTargets = []struct {
	Label  string
	Target string
}{
	{"area/datatypes", "datatypes"},
	{"area/visualizations", "visualizations"},
	{"area/tools", "tools"},
}

// InsertPullRequest files a merged pull request into the release notes,
// the PR link registry and, for user-facing areas, the user announcement.
// It returns the updated contents plus any classification diagnostics.
func InsertPullRequest(pr *github.PullRequest, history, prsContent, userAnnounce string) (string, string, string, []string, error) {
	toDoc := strings.TrimRight(pr.Title, ".") + " "

	owner := pr.User.Login
	link := fmt.Sprintf(".. _Pull Request %d: %s/pull/%d", pr.Number, ProjectURL, pr.Number)
	prsContent, err := ExtendTarget("github_links", link, prsContent)
	if err != nil {
		return "", "", "", nil, err
	}
	toDoc += fmt.Sprintf("\n(thanks to `@%s <https://github.com/%s>`__).", owner, owner)
	toDoc += fmt.Sprintf("\n`Pull Request %d`_", pr.Number)

	target, notes := TextTarget(pr, true)
	toDoc = Wrap(toDoc)
	if target != "" {
		history, err = ExtendTarget(target, toDoc, history)
		if err != nil {
			return "", "", "", notes, err
		}
	}
	for _, ut := range userAnnounceTargets {
		if HasLabel(pr, ut.Label) {
			userAnnounce, err = ExtendTarget(ut.Target, toDoc, userAnnounce)
			if err != nil {
				return "", "", "", notes, err
			}
		}
	}
	return history, prsContent, userAnnounce, notes, nil
}
