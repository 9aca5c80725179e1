// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
	"github.com/bureau-foundation/assetpipe/lib/version"
)

// app carries the output streams shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// logLevel applies to the in-process store's logger.
	logLevel slog.Level
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, logLevel: slog.LevelWarn}
}

func (a *app) root() *cli.Command {
	var showVersion bool

	root := &cli.Command{
		Name:    "assetctl",
		Summary: "Inspect, load, and pack assets",
		Description: `Inspect, load, and pack assets.

Local commands run an asset store in this process over --root
directories and --pack files (or the sources named by --config or
$ASSETPIPE_CONFIG). The query command talks to a running assetd.`,
		Output: a.stderr,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("assetctl", pflag.ContinueOnError)
			flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
			return flagSet
		},
		Subcommands: []*cli.Command{
			a.idCommand(),
			a.loadCommand(),
			a.catCommand(),
			a.bindingsCommand(),
			a.packCommand(),
			a.queryCommand(),
		},
	}
	root.Run = func(args []string) error {
		if showVersion {
			fmt.Fprintf(a.stdout, "assetctl %s\n", version.Full())
			return nil
		}
		root.PrintHelp(a.stderr)
		return errors.New("subcommand required")
	}
	return root
}

// outputOptions are the flags shared by commands that print reports.
type outputOptions struct {
	json  bool
	color string
}

func (o *outputOptions) register(flagSet *pflag.FlagSet) {
	flagSet.BoolVar(&o.json, "json", false, "output as JSON")
	flagSet.StringVar(&o.color, "color", cli.ColorAuto, "colorize output: auto, always, or never")
}

func (a *app) styles(options outputOptions) (*cli.Styles, error) {
	color, err := cli.ColorEnabled(a.stdout, options.color)
	if err != nil {
		return nil, err
	}
	return cli.NewStyles(a.stdout, color), nil
}
