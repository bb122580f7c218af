// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maruel/memora/internal/ops"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <artifact>",
	Short: "Report whether an artifact is cached for the current HEAD, without touching the working tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOps()
		if err != nil {
			os.Exit(exitCode(err))
		}
		status, id, err := o.Lookup(args[0])
		if err != nil {
			os.Exit(exitCode(err))
		}
		if status == ops.Miss {
			os.Exit(1)
		}
		fmt.Println(id)
		os.Exit(0)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
