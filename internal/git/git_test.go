package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// setupTestRepo creates a temporary git repository with one commit.
func setupTestRepo(t *testing.T) *Repo {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	root := t.TempDir()
	repo := New(root)

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		if output, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, output)
		}
	}

	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")

	if err := os.WriteFile(filepath.Join(root, "README"), []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("failed to write README: %v", err)
	}
	run("add", "README")
	run("commit", "-m", "initial commit")

	return repo
}

func TestIsClean(t *testing.T) {
	repo := setupTestRepo(t)

	clean, err := repo.IsClean()
	if err != nil {
		t.Fatalf("IsClean() error: %v", err)
	}
	if !clean {
		t.Error("IsClean() = false for a fresh commit, want true")
	}

	if err := os.WriteFile(filepath.Join(repo.Root, "README"), []byte("changed\n"), 0o644); err != nil {
		t.Fatalf("failed to modify README: %v", err)
	}
	clean, err = repo.IsClean()
	if err != nil {
		t.Fatalf("IsClean() error: %v", err)
	}
	if clean {
		t.Error("IsClean() = true with a dirty working tree, want false")
	}
}

func TestCurrentBranchAndBranches(t *testing.T) {
	repo := setupTestRepo(t)

	branch, err := repo.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch() error: %v", err)
	}
	if branch != "main" {
		t.Errorf("CurrentBranch() = %q, want %q", branch, "main")
	}

	cmd := exec.Command("git", "branch", "release_24.1")
	cmd.Dir = repo.Root
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}

	branches, err := repo.Branches()
	if err != nil {
		t.Fatalf("Branches() error: %v", err)
	}
	want := map[string]bool{"main": true, "release_24.1": true}
	if len(branches) != 2 {
		t.Fatalf("Branches() = %v, want two branches", branches)
	}
	for _, b := range branches {
		if !want[b] {
			t.Errorf("unexpected branch %q", b)
		}
	}
}

func TestCommitsSince(t *testing.T) {
	repo := setupTestRepo(t)

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = repo.Root
		if output, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, output)
		}
	}
	run("tag", "v1.0")

	if err := os.MkdirAll(filepath.Join(repo.Root, "pkg"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repo.Root, "pkg", "file.txt"), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "pkg")
	run("commit", "-m", "add pkg file")

	commits, err := repo.CommitsSince("v1.0", filepath.Join(repo.Root, "pkg"))
	if err != nil {
		t.Fatalf("CommitsSince() error: %v", err)
	}
	if len(commits) != 1 {
		t.Errorf("CommitsSince() returned %d commits, want 1", len(commits))
	}

	// Commits outside the path are not attributed to it.
	commits, err = repo.CommitsSince("v1.0", filepath.Join(repo.Root, "README"))
	if err != nil {
		t.Fatalf("CommitsSince() error: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("CommitsSince() for untouched path returned %d commits, want 0", len(commits))
	}

	if _, err := repo.CommitsSince("no-such-tag", repo.Root); err == nil {
		t.Error("CommitsSince() with unknown revision succeeded, want error")
	}
}

func TestTagAndHeadCommit(t *testing.T) {
	repo := setupTestRepo(t)

	if err := repo.Tag("v9.9"); err != nil {
		t.Fatalf("Tag() error: %v", err)
	}
	head, err := repo.HeadCommit()
	if err != nil {
		t.Fatalf("HeadCommit() error: %v", err)
	}
	if len(head) != 40 {
		t.Errorf("HeadCommit() = %q, want a full commit hash", head)
	}
}
