// Package git wraps the git command line client for release operations.
// Every call shells out to git with the repository root as working
// directory; there is no embedded VCS implementation.
package git

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Repo is a handle on a git working copy.
type Repo struct {
	Root string
}

// New returns a Repo bound to the given working copy root.
func New(root string) *Repo {
	return &Repo{Root: root}
}

// run executes git with the repo root as working directory, streaming
// output to the operator. Used for commands whose output belongs on the
// terminal (checkout, merge, diff).
func (r *Repo) run(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// output executes git and captures stdout, wrapping stderr into the error.
func (r *Repo) output(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return string(out), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return string(out), fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// IsClean reports whether the working copy has no staged or unstaged
// changes relative to HEAD.
func (r *Repo) IsClean() (bool, error) {
	cmd := exec.Command("git", "diff-index", "--quiet", "HEAD")
	cmd.Dir = r.Root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == 1 {
				return false, nil
			}
			return false, fmt.Errorf("git diff-index --quiet HEAD failed with exit code %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return false, fmt.Errorf("git diff-index: %w", err)
	}
	return true, nil
}

// CurrentBranch returns the abbreviated name of the checked-out branch.
func (r *Repo) CurrentBranch() (string, error) {
	out, err := r.output("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Branches lists local branch names.
func (r *Repo) Branches() ([]string, error) {
	out, err := r.output("branch", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// Checkout switches to the given branch.
func (r *Repo) Checkout(branch string) error {
	return r.run("checkout", branch)
}

// CheckoutPaths restores the given paths from a branch without switching.
func (r *Repo) CheckoutPaths(branch string, paths ...string) error {
	args := append([]string{"checkout", branch}, paths...)
	return r.run(args...)
}

// Merge merges the given branch into the current one. The conflicted
// return is true when the merge exited non-zero, which the merge-forward
// workflow treats as an expected condition rather than a failure.
func (r *Repo) Merge(branch string) (conflicted bool, err error) {
	cmd := exec.Command("git", "merge", branch)
	cmd.Dir = r.Root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, nil
		}
		return false, fmt.Errorf("git merge %s: %w", branch, err)
	}
	return false, nil
}

// MergeRequired probes whether merging base into the current branch would
// introduce changes, aborting the probe merge afterwards. Returns true
// when the probe merge failed (conflicts).
func (r *Repo) MergeRequired(base string) (bool, error) {
	cmd := exec.Command("git", "merge", "--no-commit", "--no-ff", base)
	cmd.Dir = r.Root
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	runErr := cmd.Run()
	if stdout.String() != "Already up to date.\n" {
		abort := exec.Command("git", "merge", "--abort")
		abort.Dir = r.Root
		_ = abort.Run()
	}
	if runErr == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return true, nil
	}
	return false, fmt.Errorf("git merge --no-commit --no-ff %s: %w", base, runErr)
}

// Add stages the given paths.
func (r *Repo) Add(paths ...string) error {
	args := append([]string{"add"}, paths...)
	return r.run(args...)
}

// Commit records a commit with the given message.
func (r *Repo) Commit(message string) error {
	return r.run("commit", "-m", message)
}

// CommitNoEdit concludes an in-progress merge commit without editing the
// message.
func (r *Repo) CommitNoEdit() error {
	return r.run("commit", "--no-edit")
}

// CommitAmendNoEdit folds staged changes into the previous commit.
func (r *Repo) CommitAmendNoEdit() error {
	return r.run("commit", "--amend", "--no-edit")
}

// Tag creates a lightweight tag at HEAD.
func (r *Repo) Tag(name string) error {
	return r.run("tag", name)
}

// Push pushes a single reference to the given remote URL.
func (r *Repo) Push(remote, ref string) error {
	return r.run("push", remote, ref)
}

// RemoteBranchTip returns the commit hash of a branch at the given remote.
func (r *Repo) RemoteBranchTip(remote, branch string) (string, error) {
	out, err := r.output("ls-remote", remote, "refs/heads/"+branch)
	if err != nil {
		return "", err
	}
	fields := strings.SplitN(strings.TrimSpace(out), "\t", 2)
	if fields[0] == "" {
		return "", fmt.Errorf("branch %s not found at remote %s", branch, remote)
	}
	return fields[0], nil
}

// HeadCommit returns the commit hash of HEAD.
func (r *Repo) HeadCommit() (string, error) {
	out, err := r.output("rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CommitsSince returns the abbreviated hashes of non-merge commits
// touching path since the given revision.
func (r *Repo) CommitsSince(rev, path string) ([]string, error) {
	out, err := r.output("log", "--oneline", "--no-merges", "--pretty=format:%h", rev+"..HEAD", path)
	if err != nil {
		if strings.Contains(err.Error(), "unknown revision") {
			return nil, fmt.Errorf("revision %q was not recognized by git as a valid revision identifier", rev)
		}
		return nil, err
	}
	var commits []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			commits = append(commits, line)
		}
	}
	return commits, nil
}

// Diff shows the working tree diff for the given paths on the terminal.
func (r *Repo) Diff(paths ...string) error {
	args := append([]string{"diff"}, paths...)
	return r.run(args...)
}
