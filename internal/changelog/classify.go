package changelog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/galaxyproject/galaxy-release-util/internal/github"
)

// GroupedTag pairs an area label with the short tag used in anchor names.
// Order matters: the first matching area label wins when routing an entry
// to a grouped anchor.
type GroupedTag struct {
	Label string
	Tag   string
}

// GroupedTags are the area labels that get their own enhancement/bug
// anchors in the release notes.
var GroupedTags = []GroupedTag{
	{"area/visualizations", "viz"},
	{"area/datatypes", "datatypes"},
	{"area/tools", "tools"},
	{"area/workflows", "workflows"},
	{"area/client", "ui"},
	{"area/jobs", "jobs"},
	{"area/admin", "admin"},
}

var releaseTagPattern = regexp.MustCompile(`^\s*\[.*?\]\s*`)

// StripRelease removes a leading bracketed release tag like "[23.1]" from
// a pull request title.
func StripRelease(message string) string {
	return releaseTagPattern.ReplaceAllString(message, "")
}

// PullToString formats a pull request for blocking-list output.
func PullToString(pr *github.PullRequest) string {
	return fmt.Sprintf("PR #%d (%s) %s", pr.Number, pr.Title, pr.HTMLURL)
}

// IssueToString formats an issue for blocking-list output.
func IssueToString(issue *github.Issue) string {
	return fmt.Sprintf("Issue #%d (%s) %s", issue.Number, issue.Title, issue.HTMLURL)
}

// prLabels returns the lowercased label names of a pull request.
func prLabels(pr *github.PullRequest) []string {
	labels := make([]string, len(pr.Labels))
	for i, l := range pr.Labels {
		labels[i] = strings.ToLower(l.Name)
	}
	return labels
}

// TextTarget derives the release notes anchor a pull request files under
// from its kind/area labels. The returned target keeps a trailing newline
// so insertions land past the blank line that follows the anchor comment.
// An empty result means the entry has no home (unlabeled, or minor/merge
// PRs when skipMerge is set); diagnostics for those go to notes.
func TextTarget(pr *github.PullRequest, skipMerge bool) (target string, notes []string) {
	labels := prLabels(pr)
	if len(labels) == 0 {
		return "", []string{fmt.Sprintf("No labels found for %d", pr.Number)}
	}

	var isBug, isEnhancement, isFeature, isMinor, isMajor, isMerge, isSmallEnhancement bool
	for _, label := range labels {
		switch label {
		case "minor":
			isMinor = true
		case "major":
			isMajor = true
		case "merge":
			isMerge = true
		case "kind/bug":
			isBug = true
		case "kind/feature":
			isFeature = true
		case "kind/enhancement":
			isEnhancement = true
		case "kind/testing", "kind/refactoring":
			isSmallEnhancement = true
		case "procedures":
			// Treat procedures as an implicit enhancement.
			isEnhancement = true
		}
	}

	someKindOfEnhancement := isEnhancement || isFeature || isSmallEnhancement

	if !(isBug || someKindOfEnhancement || isMinor || isMerge) {
		notes = append(notes, fmt.Sprintf("No 'kind/*' or 'minor' or 'merge' or 'procedures' label found for %s", PullToString(pr)))
	}

	if isMinor || (isMerge && skipMerge) {
		return "", notes
	}

	switch {
	case someKindOfEnhancement && isMajor:
		target = "major_feature"
	case isFeature:
		target = "feature"
	case isEnhancement:
		target = groupedTarget("enhancement", labels)
	case someKindOfEnhancement:
		target = "small_enhancement"
	case isMajor:
		target = "major_bug"
	case isBug:
		target = groupedTarget("bug", labels)
	default:
		notes = append(notes, fmt.Sprintf("Logic problem, cannot determine section for %s", PullToString(pr)))
		return "", notes
	}
	return target + "\n", notes
}

// groupedTarget routes an entry to an area-specific anchor when the PR
// carries a grouped area label, falling back to the base anchor.
func groupedTarget(base string, labels []string) string {
	for _, gt := range GroupedTags {
		for _, label := range labels {
			if label == gt.Label {
				return fmt.Sprintf("%s_tag_%s", base, gt.Tag)
			}
		}
	}
	return base
}

// HasLabel reports whether the pull request carries the given label
// (case-insensitive).
func HasLabel(pr *github.PullRequest, name string) bool {
	for _, label := range prLabels(pr) {
		if label == name {
			return true
		}
	}
	return false
}
