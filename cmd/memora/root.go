// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// memora: a build-artifact cache keyed by the content of Git-tracked inputs.
//
// See spec.md / SPEC_FULL.md in the source repository for the design this
// CLI is a thin front-end for.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maruel/memora/internal/gitrepo"
	"github.com/maruel/memora/internal/logging"
	"github.com/maruel/memora/internal/manifest"
	"github.com/maruel/memora/internal/ops"
)

// version is bumped when the CLI or its behavior changes in any significant
// way, the same convention the teacher's main.go used for its own version
// const.
const version = "0.1.0"

var (
	verbose      bool
	manifestFlag string
)

var rootCmd = &cobra.Command{
	Use:           "memora",
	Short:         "A build-artifact cache keyed by Git-tracked input content",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&manifestFlag, "manifest", "", "path to the manifest, overriding the search order")
	cobra.OnInitialize(func() {
		logging.SetVerbose(verbose)
	})
}

// openOps locates the Git checkout from the current directory, loads the
// manifest (search order, or --manifest override), and wires an ops.Ops.
func openOps() (*ops.Ops, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	repo, err := gitrepo.Open(wd)
	if err != nil {
		return nil, err
	}

	relPath := manifestFlag
	if relPath == "" {
		relPath, err = manifest.Locate(repo.Root())
		if err != nil {
			return nil, err
		}
	}
	m, err := manifest.Load(repo.Root(), relPath)
	if err != nil {
		return nil, err
	}
	return ops.Open(repo, m), nil
}

// exitCode maps an operation's error, the way the teacher's mainImpl return
// value is mapped to os.Exit in main() below, per spec §7: misses are exit
// 1 and are never errors; any error is exit 2.
func exitCode(err error) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "memora: %v\n", err)
		return 2
	}
	return 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "memora: %v\n", err)
		os.Exit(2)
	}
}
