// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var insertCmd = &cobra.Command{
	Use:   "insert <artifact>",
	Short: "Deposit an artifact's current outputs into the cache under the current HEAD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := openOps()
		if err != nil {
			os.Exit(exitCode(err))
		}
		if err := o.Insert(args[0]); err != nil {
			os.Exit(exitCode(err))
		}
		os.Exit(0)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
}
