package packages

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// runInPackage executes a command in the package directory with output on
// the terminal.
func (p *Package) runInPackage(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = p.Path
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v in package %s: %w", name, args, p.Name(), err)
	}
	return nil
}

// Build runs the package's make targets: clean, dist and lint-dist.
func (p *Package) Build() error {
	fmt.Printf("Running make clean for package %s\n", p.Name())
	if err := p.runInPackage("make", "clean"); err != nil {
		return err
	}
	fmt.Printf("running make dist for package %s\n", p.Name())
	if err := p.runInPackage("make", "dist"); err != nil {
		return err
	}
	fmt.Printf("running make lint-dist for package %s\n", p.Name())
	return p.runInPackage("make", "lint-dist")
}

// Upload publishes the package's built artifacts with twine. Already
// published artifacts are skipped.
func (p *Package) Upload() error {
	fmt.Printf("uploading package %s\n", p.Name())
	artifacts, err := filepath.Glob(filepath.Join(p.Path, "dist", "*"))
	if err != nil {
		return err
	}
	args := append([]string{"upload", "--skip-existing"}, artifacts...)
	return p.runInPackage("twine", args...)
}
