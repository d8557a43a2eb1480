// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/autobrr/crossseed/internal/buildinfo"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "crossseed",
		Short:         "Search Torznab indexers for releases matching local torrents",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
	}

	root.AddCommand(
		RunSearchCommand(),
		RunGenerateConfigCommand(),
		RunVersionCommand(),
	)

	return root
}
