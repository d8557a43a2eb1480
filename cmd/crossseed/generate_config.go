// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/crossseed/internal/config"
)

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Write a commented config.toml into the configuration directory.
An existing file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.WriteDefaultConfig(configDir)
			if err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}

			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "Configuration file already exists at %s. Skipping generation.\n", path)
				return nil
			}

			fmt.Fprintf(out, "Configuration file created at %s\n", path)
			fmt.Fprintln(out, "Edit torrentsPath and add one [indexers.<name>] table per indexer before running.")
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "directory for config.toml (defaults to the OS config dir)")

	return command
}
