package changelog

import (
	"testing"

	"github.com/galaxyproject/galaxy-release-util/internal/github"
)

// TestStripRelease verifies that only the first leading [*] tag is stripped.
func TestStripRelease(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"foo", "foo"},
		{"[1]foo", "foo"},
		{"[1.2.3]foo", "foo"},
		{"[]foo", "foo"},
		{"[][]foo", "[]foo"},
		{"foo[]", "foo[]"},
		{"[]foo[]", "foo[]"},
		{"foo[bar]", "foo[bar]"},
		{"foo[]baz", "foo[]baz"},
		{"foo[bar]baz", "foo[bar]baz"},
		{"  [23.1] Fix the thing", "Fix the thing"},
	}
	for _, tc := range cases {
		if got := StripRelease(tc.in); got != tc.want {
			t.Errorf("StripRelease(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func labeledPR(number int, labels ...string) *github.PullRequest {
	pr := &github.PullRequest{Number: number, Title: "title"}
	for _, name := range labels {
		pr.Labels = append(pr.Labels, github.Label{Name: name})
	}
	return pr
}

func TestTextTarget(t *testing.T) {
	cases := []struct {
		name      string
		labels    []string
		skipMerge bool
		want      string
	}{
		{"feature", []string{"kind/feature"}, true, "feature\n"},
		{"major feature", []string{"kind/feature", "major"}, true, "major_feature\n"},
		{"plain enhancement", []string{"kind/enhancement"}, true, "enhancement\n"},
		{"grouped enhancement", []string{"kind/enhancement", "area/workflows"}, true, "enhancement_tag_workflows\n"},
		{"grouped tag order", []string{"kind/enhancement", "area/jobs", "area/visualizations"}, true, "enhancement_tag_viz\n"},
		{"small enhancement", []string{"kind/testing"}, true, "small_enhancement\n"},
		{"refactoring", []string{"kind/refactoring"}, true, "small_enhancement\n"},
		{"procedures", []string{"procedures"}, true, "enhancement\n"},
		{"plain bug", []string{"kind/bug"}, true, "bug\n"},
		{"major bug", []string{"kind/bug", "major"}, true, "major_bug\n"},
		{"grouped bug", []string{"kind/bug", "area/datatypes"}, true, "bug_tag_datatypes\n"},
		{"minor skipped", []string{"kind/bug", "minor"}, true, ""},
		{"merge skipped", []string{"merge"}, true, ""},
		{"merge kept", []string{"merge", "kind/bug"}, false, "bug\n"},
		{"no labels", nil, true, ""},
		{"unclassifiable", []string{"area/jobs"}, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := TextTarget(labeledPR(1, tc.labels...), tc.skipMerge)
			if got != tc.want {
				t.Errorf("TextTarget(%v) = %q, want %q", tc.labels, got, tc.want)
			}
		})
	}
}

// TestTextTargetNotes verifies diagnostics for unlabeled and unclassifiable PRs.
func TestTextTargetNotes(t *testing.T) {
	_, notes := TextTarget(labeledPR(42), true)
	if len(notes) != 1 || notes[0] != "No labels found for 42" {
		t.Errorf("unexpected notes for unlabeled PR: %v", notes)
	}

	_, notes = TextTarget(labeledPR(43, "area/jobs"), true)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes for unclassifiable PR, got %v", notes)
	}
}
