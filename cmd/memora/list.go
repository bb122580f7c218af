// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// listCmd is supplemented tooling (SPEC_FULL.md §10): it is not one of the
// three core operations, exists purely to inspect an artifact's cache
// contents, and exits 0 whenever the listing succeeds (including an empty
// cache); an error, such as an undeclared artifact, exits 2.
var listCmd = &cobra.Command{
	Use:   "list <artifact>",
	Short: "List every cached entry for an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOps()
		if err != nil {
			os.Exit(exitCode(err))
		}
		entries, err := o.List(args[0])
		if err != nil {
			os.Exit(exitCode(err))
		}
		for _, e := range entries {
			if e.Instance == "" {
				fmt.Println(e.ID)
			} else {
				fmt.Printf("%s\t%s\n", e.Instance, e.ID)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
