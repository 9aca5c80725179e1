// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
	"github.com/bureau-foundation/assetpipe/lib/asset"
)

type idResult struct {
	Path         string   `json:"path"`
	Normalized   string   `json:"normalized"`
	SettingsHash uint64   `json:"settings_hash"`
	ID           asset.ID `json:"id"`
}

func (a *app) idCommand() *cli.Command {
	var (
		settings uint64
		output   outputOptions
	)
	command := &cli.Command{
		Name:    "id",
		Summary: "Print the asset ID of logical paths",
		Description: `Print the asset ID of logical paths.

The ID depends only on the normalized path (lowercase, forward
slashes) and the settings hash, so it is stable across runs and
machines. No source is consulted.`,
		Usage: "assetctl id <path>... [flags]",
		Examples: []cli.Example{
			{Description: "Separators and case do not change the ID", Command: `assetctl id UI\Main.xml ui/main.xml`},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("id", pflag.ContinueOnError)
			flagSet.Uint64Var(&settings, "settings", 0, "import settings hash")
			output.register(flagSet)
			return flagSet
		},
	}
	command.Run = func(args []string) error {
		if len(args) == 0 {
			return command.UsageError("at least one logical path is required")
		}

		results := make([]idResult, 0, len(args))
		for _, logicalPath := range args {
			key := asset.NewKey(logicalPath, settings)
			if err := key.Validate(); err != nil {
				return err
			}
			results = append(results, idResult{
				Path:         logicalPath,
				Normalized:   asset.NormalizePath(logicalPath),
				SettingsHash: settings,
				ID:           key.ID(),
			})
		}

		if output.json {
			return cli.WriteJSON(a.stdout, results)
		}
		styles, err := a.styles(output)
		if err != nil {
			return err
		}
		table := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', 0)
		for _, result := range results {
			fmt.Fprintf(table, "%s\t%s\n", result.ID, styles.Path.Render(result.Normalized))
		}
		return table.Flush()
	}
	return command
}
