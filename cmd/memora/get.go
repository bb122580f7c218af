// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/maruel/memora/internal/ops"
)

var getCmd = &cobra.Command{
	Use:   "get <artifact>",
	Short: "Restore an artifact's outputs from the cache into the working tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOps()
		if err != nil {
			os.Exit(exitCode(err))
		}
		status, err := o.Get(args[0])
		if err != nil {
			os.Exit(exitCode(err))
		}
		if status == ops.Miss {
			os.Exit(1)
		}
		os.Exit(0)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
