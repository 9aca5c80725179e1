// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
	"github.com/bureau-foundation/assetpipe/lib/asset/pack"
)

func (a *app) packCommand() *cli.Command {
	return &cli.Command{
		Name:    "pack",
		Summary: "Build and inspect asset packs",
		Description: `Build and inspect asset packs.

A pack bundles a directory tree into one file with a CBOR index and
per-entry compression. Packs are read-only sources: list them after
roots to let loose files override packed ones.`,
		Subcommands: []*cli.Command{
			a.packBuildCommand(),
			a.packListCommand(),
		},
	}
}

// packEntry is the report form of one index entry.
type packEntry struct {
	Path        string `json:"path"`
	Size        uint64 `json:"size"`
	StoredSize  uint64 `json:"stored_size"`
	Compression string `json:"compression"`
	Hash        string `json:"hash"`
}

func reportEntries(entries []pack.Entry) []packEntry {
	report := make([]packEntry, 0, len(entries))
	for _, entry := range entries {
		report = append(report, packEntry{
			Path:        entry.Path,
			Size:        entry.Size,
			StoredSize:  entry.StoredSize,
			Compression: entry.Compression.String(),
			Hash:        entry.Hash.String(),
		})
	}
	return report
}

func (a *app) packBuildCommand() *cli.Command {
	var (
		compression string
		output      outputOptions
	)
	command := &cli.Command{
		Name:    "build",
		Summary: "Bundle a directory into a pack file",
		Description: `Bundle every regular file under a directory into a pack.

Logical paths are the slash-separated paths relative to the
directory. Hidden files and directories are skipped. With
--compression auto each entry gets lz4, zstd, or no compression by
its extension and size.`,
		Usage: "assetctl pack build <dir> <out" + pack.Extension + "> [flags]",
		Examples: []cli.Example{
			{Command: "assetctl pack build assets base" + pack.Extension + " --compression zstd"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flagSet.StringVar(&compression, "compression", "auto", "entry compression: none, lz4, zstd, or auto")
			output.register(flagSet)
			return flagSet
		},
	}
	command.Run = func(args []string) error {
		if len(args) != 2 {
			return command.UsageError("expected a directory and an output file")
		}
		directory, outputPath := args[0], args[1]

		mode, err := pack.ParseCompression(compression)
		if err != nil {
			return err
		}
		builder, err := pack.BuildDirectory(directory, mode)
		if err != nil {
			return err
		}
		if builder.Len() == 0 {
			return fmt.Errorf("no files under %s", directory)
		}
		if err := builder.WriteFile(outputPath); err != nil {
			return err
		}

		entries := reportEntries(builder.Entries())
		if output.json {
			return cli.WriteJSON(a.stdout, entries)
		}
		styles, err := a.styles(output)
		if err != nil {
			return err
		}
		info, err := os.Stat(outputPath)
		if err != nil {
			return err
		}
		var raw uint64
		for _, entry := range entries {
			raw += entry.Size
		}
		fmt.Fprintf(a.stdout, "wrote %s: %d entries, %d bytes (%d raw)\n",
			styles.Path.Render(outputPath), len(entries), info.Size(), raw)
		return nil
	}
	return command
}

func (a *app) packListCommand() *cli.Command {
	var (
		verify bool
		output outputOptions
	)
	command := &cli.Command{
		Name:    "list",
		Summary: "List the entries of a pack file",
		Usage:   "assetctl pack list <file> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.BoolVar(&verify, "verify", false, "read every entry and check its hash")
			output.register(flagSet)
			return flagSet
		},
	}
	command.Run = func(args []string) error {
		if len(args) != 1 {
			return command.UsageError("exactly one pack file is required")
		}
		source, err := pack.Open(args[0])
		if err != nil {
			return err
		}
		defer source.Close()

		if verify {
			if err := source.Verify(); err != nil {
				return err
			}
		}

		entries := reportEntries(source.Entries())
		if output.json {
			return cli.WriteJSON(a.stdout, entries)
		}
		styles, err := a.styles(output)
		if err != nil {
			return err
		}
		table := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
			styles.Header.Render("SIZE"), styles.Header.Render("STORED"),
			styles.Header.Render("CODEC"), styles.Header.Render("HASH"), styles.Header.Render("PATH"))
		for _, entry := range entries {
			fmt.Fprintf(table, "%d\t%d\t%s\t%s\t%s\n",
				entry.Size, entry.StoredSize, entry.Compression, entry.Hash[:16], styles.Path.Render(entry.Path))
		}
		if err := table.Flush(); err != nil {
			return err
		}
		if verify {
			fmt.Fprintln(a.stdout, styles.Faint.Render(fmt.Sprintf("verified %d entries", len(entries))))
		}
		return nil
	}
	return command
}
