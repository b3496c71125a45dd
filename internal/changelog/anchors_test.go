package changelog

import (
	"strings"
	"testing"
)

func TestProcessSentence(t *testing.T) {
	got := ProcessSentence("[23.1] Fix login, see #1234")
	want := "Fix login, see `#1234 <https://github.com/galaxyproject/galaxy/issues/1234>`__"
	if got != want {
		t.Errorf("ProcessSentence = %q, want %q", got, want)
	}
}

func TestExtendTarget(t *testing.T) {
	source := "Fixes\n\n.. bug\n\ntrailer\n"
	got, err := ExtendTarget("bug", "* fixed it", source)
	if err != nil {
		t.Fatalf("ExtendTarget: %v", err)
	}
	want := "Fixes\n\n.. bug\n* fixed it\n\ntrailer\n"
	if got != want {
		t.Errorf("ExtendTarget = %q, want %q", got, want)
	}
}

// TestExtendTargetTrailingNewline verifies that targets carrying a trailing
// newline insert past the blank line after the anchor comment.
func TestExtendTargetTrailingNewline(t *testing.T) {
	source := "Fixes\n\n.. bug\n\ntrailer\n"
	got, err := ExtendTarget("bug\n", "* fixed it", source)
	if err != nil {
		t.Fatalf("ExtendTarget: %v", err)
	}
	want := "Fixes\n\n.. bug\n\n* fixed it\ntrailer\n"
	if got != want {
		t.Errorf("ExtendTarget = %q, want %q", got, want)
	}
}

func TestExtendTargetMissing(t *testing.T) {
	if _, err := ExtendTarget("nope", "* x", "no anchors here\n"); err == nil {
		t.Error("expected error for missing target")
	}
}

func TestWrap(t *testing.T) {
	got := Wrap("Short title\nsecond line")
	want := "* Short title\n  second line"
	if got != want {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

// TestWrapLong verifies greedy wrapping at 160 columns with continuation indent.
func TestWrapLong(t *testing.T) {
	word := strings.Repeat("x", 30)
	message := strings.TrimSpace(strings.Repeat(word+" ", 8))
	got := Wrap(message)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "* ") {
		t.Errorf("first line marker missing: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  ") || strings.HasPrefix(lines[1], "   ") {
		t.Errorf("continuation indent wrong: %q", lines[1])
	}
	for _, line := range lines {
		if len(line) > 160 {
			t.Errorf("line exceeds width: %d chars", len(line))
		}
	}
}
