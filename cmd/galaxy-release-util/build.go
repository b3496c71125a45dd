package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/galaxyproject/galaxy-release-util/internal/packages"
	"github.com/galaxyproject/galaxy-release-util/internal/ui"
)

var (
	buildPackageSubset  []string
	uploadPackageSubset []string
	uploadNoConfirm     bool
)

// readPackages loads the packages in dependency order, optionally
// restricted to a subset by name.
func readPackages(subset []string) ([]*packages.Package, error) {
	paths, err := packages.SortedPackagePaths(galaxyRoot)
	if err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, name := range subset {
		wanted[name] = true
	}
	var pkgs []*packages.Package
	for _, path := range paths {
		p, err := packages.ReadPackage(path)
		if err != nil {
			return nil, err
		}
		if len(wanted) > 0 && !wanted[p.Name()] {
			continue
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

func buildPackages(subset []string) ([]*packages.Package, error) {
	pkgs, err := readPackages(subset)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		fmt.Printf("Building package %s\n", p)
		if p.Name() == "meta" {
			rootVersion, err := packages.RootVersion(galaxyRoot)
			if err != nil {
				return nil, err
			}
			if _, err := packages.BuildMetaRequirements(p, pkgs, rootVersion); err != nil {
				return nil, err
			}
		}
		if err := p.Build(); err != nil {
			return nil, err
		}
	}
	return pkgs, nil
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build packages without uploading",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := buildPackages(buildPackageSubset)
		return err
	},
}

var buildAndUploadCmd = &cobra.Command{
	Use:   "build-and-upload",
	Short: "Build and upload packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgs, err := buildPackages(uploadPackageSubset)
		if err != nil {
			return err
		}
		confirmed := uploadNoConfirm
		if !confirmed {
			if confirmed, err = ui.Confirm("Upload packages ?"); err != nil {
				return err
			}
		}
		if !confirmed {
			return nil
		}
		for _, p := range pkgs {
			fmt.Printf("Uploading package %s\n", p)
			if err := p.Upload(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringSliceVar(&buildPackageSubset, "packages", nil, "Restrict build to specified packages")
	buildAndUploadCmd.Flags().StringSliceVar(&uploadPackageSubset, "packages", nil, "Restrict build to specified packages")
	buildAndUploadCmd.Flags().BoolVar(&uploadNoConfirm, "no-confirm", false, "Skip confirmation prompts")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(buildAndUploadCmd)
}
