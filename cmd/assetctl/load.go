// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
)

// maxPathColumn bounds the path column of the load table.
const maxPathColumn = 60

func (a *app) loadCommand() *cli.Command {
	var (
		options storeOptions
		output  outputOptions
	)
	command := &cli.Command{
		Name:    "load",
		Summary: "Load assets and report their final state",
		Description: `Load assets through an in-process store and report their final state.

Every path is requested before any is waited on, so imports run
concurrently on the store's workers. The command exits 1 when any
asset did not become ready.`,
		Usage: "assetctl load <path>... [flags]",
		Examples: []cli.Example{
			{Description: "Load from a directory and a pack, roots first", Command: "assetctl load --root assets --pack base.apk ui/main.xml docs/readme.md"},
			{Description: "Machine-readable report", Command: "assetctl load --json --root assets config/game.json"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("load", pflag.ContinueOnError)
			options.register(flagSet)
			output.register(flagSet)
			return flagSet
		},
	}
	command.Run = func(args []string) error {
		if len(args) == 0 {
			return command.UsageError("at least one logical path is required")
		}
		store, closeStore, err := a.openStore(options)
		if err != nil {
			return err
		}
		defer closeStore()

		results := loadAll(store, args, options)

		notReady := 0
		for _, result := range results {
			if result.Status != "ready" {
				notReady++
			}
		}

		if output.json {
			if err := cli.WriteJSON(a.stdout, results); err != nil {
				return err
			}
		} else {
			styles, err := a.styles(output)
			if err != nil {
				return err
			}
			table := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(table, "%s\t%s\t%s\n",
				styles.Header.Render("PATH"), styles.Header.Render("ID"), styles.Header.Render("STATUS"))
			for _, result := range results {
				status := styles.Status(result.Status)
				if result.Message != "" {
					status += " " + styles.Faint.Render(result.Message)
				}
				fmt.Fprintf(table, "%s\t%s\t%s\n",
					styles.Path.Render(cli.Truncate(result.Path, maxPathColumn)), result.ID, status)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			stats := store.Stats()
			fmt.Fprintln(a.stdout, styles.Faint.Render(fmt.Sprintf(
				"%d requested, %d ready, %d failed, %d coalesced", len(results), stats.Ready, stats.Failed, stats.Coalesced)))
		}

		if notReady > 0 {
			return &cli.ExitError{Code: 1}
		}
		return nil
	}
	return command
}
