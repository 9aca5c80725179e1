// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/importers"
)

func (a *app) bindingsCommand() *cli.Command {
	var (
		extension string
		output    outputOptions
	)
	command := &cli.Command{
		Name:    "bindings",
		Summary: "List the importer registered for each extension",
		Description: `List extension-to-importer bindings of the default registry.

Within an extension, bindings appear in selection order: the first
one is used for untyped loads, and typed loads take the first whose
output type matches.`,
		Usage: "assetctl bindings [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("bindings", pflag.ContinueOnError)
			flagSet.StringVar(&extension, "extension", "", "show only this extension")
			output.register(flagSet)
			return flagSet
		},
	}
	command.Run = func(args []string) error {
		if len(args) > 0 {
			return command.UsageError("unexpected argument %q", args[0])
		}

		bindings := filterBindings(importers.NewDefaultRegistry().Bindings(), extension)
		if output.json {
			return cli.WriteJSON(a.stdout, bindings)
		}

		styles, err := a.styles(output)
		if err != nil {
			return err
		}
		return writeBindings(a.stdout, styles, bindings)
	}
	return command
}

// writeBindings prints bindings as a table, naming each extension once.
func writeBindings(w io.Writer, styles *cli.Styles, bindings []asset.Binding) error {
	table := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(table, "%s\t%s\t%s\t%s\n",
		styles.Header.Render("EXTENSION"), styles.Header.Render("IMPORTER"),
		styles.Header.Render("TYPE"), styles.Header.Render("PRIORITY"))
	previous := ""
	for _, binding := range bindings {
		name := "." + binding.Extension
		if binding.Extension == previous {
			name = ""
		}
		previous = binding.Extension
		fmt.Fprintf(table, "%s\t%s\t%s\t%d\n",
			styles.Path.Render(name), binding.Importer, binding.TypeName, binding.Priority)
	}
	return table.Flush()
}

func filterBindings(bindings []asset.Binding, extension string) []asset.Binding {
	if extension == "" {
		return bindings
	}
	key := asset.NewKey("x."+extension, 0)
	var matched []asset.Binding
	for _, binding := range bindings {
		if binding.Extension == key.Extension() {
			matched = append(matched, binding)
		}
	}
	return matched
}
