// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/importers"
)

// lexers maps blob container formats to chroma lexer names where the
// two differ.
var lexers = map[string]string{
	"md":    "markdown",
	"jsonc": "json",
	"txt":   "plaintext",
	"ui":    "plaintext",
	"ron":   "rust",
}

func (a *app) catCommand() *cli.Command {
	var (
		options storeOptions
		meta    bool
		color   string
	)
	command := &cli.Command{
		Name:    "cat",
		Summary: "Print the payload of a text asset",
		Description: `Load one asset as a blob and print its payload.

Byte-order marks are removed and line endings normalized, as consumers
see them. On a terminal the payload is syntax highlighted by its
container format. --meta prints the blob's metadata document instead.`,
		Usage: "assetctl cat <path> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
			options.register(flagSet)
			flagSet.BoolVar(&meta, "meta", false, "print the metadata JSON instead of the payload")
			flagSet.StringVar(&color, "color", cli.ColorAuto, "highlight output: auto, always, or never")
			return flagSet
		},
	}
	command.Run = func(args []string) error {
		if len(args) != 1 {
			return command.UsageError("exactly one logical path is required")
		}
		highlight, err := cli.ColorEnabled(a.stdout, color)
		if err != nil {
			return err
		}

		store, closeStore, err := a.openStore(options)
		if err != nil {
			return err
		}
		defer closeStore()

		result := loadAll(store, args, options)[0]
		if result.Status != "ready" {
			return fmt.Errorf("%s is %s: %s", result.Path, result.Status, result.Message)
		}
		blob, ok := store.GetBlob(result.ID)
		if !ok {
			return fmt.Errorf("%s was imported as a typed asset, not a blob; no blob importer handles .%s",
				result.Path, asset.NewKey(result.Path, 0).Extension())
		}

		if meta {
			return writeText(a.stdout, blob.MetaJSON+"\n", "json", highlight)
		}
		document, err := importers.ReadTextDocument(blob)
		if err != nil {
			return err
		}
		text := document.Text
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return writeText(a.stdout, text, blob.Format, highlight)
	}
	return command
}

// writeText writes text, highlighted for format when highlight is set.
// Formats chroma does not know are written plain.
func writeText(w io.Writer, text, format string, highlight bool) error {
	if highlight {
		lexer := format
		if mapped, ok := lexers[format]; ok {
			lexer = mapped
		}
		var highlighted strings.Builder
		if err := quick.Highlight(&highlighted, text, lexer, "terminal256", "monokai"); err == nil {
			_, err := io.WriteString(w, highlighted.String())
			return err
		}
	}
	_, err := io.WriteString(w, text)
	return err
}
