// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesNested(t *testing.T) {
	var called string
	var received []string

	root := &Command{
		Name: "assetctl",
		Subcommands: []*Command{
			{Name: "id", Run: func(args []string) error { called = "id"; return nil }},
			{
				Name: "pack",
				Subcommands: []*Command{
					{Name: "list", Run: func(args []string) error {
						called = "pack list"
						received = args
						return nil
					}},
				},
			},
		},
	}

	if err := root.Execute([]string{"pack", "list", "base.apk"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "pack list" {
		t.Errorf("dispatched to %q", called)
	}
	if len(received) != 1 || received[0] != "base.apk" {
		t.Errorf("args = %v", received)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var settings uint64
	var roots []string
	var positional []string

	command := &Command{
		Name: "load",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("load", pflag.ContinueOnError)
			flagSet.Uint64Var(&settings, "settings", 0, "settings hash")
			flagSet.StringArrayVarP(&roots, "root", "r", nil, "asset root")
			return flagSet
		},
		Run: func(args []string) error {
			positional = args
			return nil
		},
	}

	err := command.Execute([]string{"--settings", "7", "-r", "a", "ui/main.xml", "--root=b"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if settings != 7 {
		t.Errorf("settings = %d", settings)
	}
	if len(roots) != 2 || roots[0] != "a" || roots[1] != "b" {
		t.Errorf("roots = %v", roots)
	}
	if len(positional) != 1 || positional[0] != "ui/main.xml" {
		t.Errorf("positional = %v", positional)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name: "assetctl",
		Subcommands: []*Command{
			{Name: "bindings", Run: func([]string) error { return nil }},
			{Name: "load", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"lod"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "load"`) {
		t.Fatalf("error = %v", err)
	}

	err = root.Execute([]string{"zzzzzzzz"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "assetctl --help") {
		t.Errorf("error lacks help pointer: %v", err)
	}
}

func TestExecuteSuggestsFlag(t *testing.T) {
	command := &Command{
		Name: "load",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("load", pflag.ContinueOnError)
			flagSet.Duration("timeout", 0, "wait limit")
			return flagSet
		},
		Run: func([]string) error { return nil },
	}

	err := command.Execute([]string{"--timout", "1s"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --timeout?") {
		t.Fatalf("error = %v", err)
	}
}

func TestExecuteHelp(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:    "assetctl",
		Summary: "Inspect assets",
		Output:  &help,
		Subcommands: []*Command{
			{
				Name:    "id",
				Summary: "Print an asset ID",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("id", pflag.ContinueOnError)
					flagSet.Uint64("settings", 0, "settings hash")
					return flagSet
				},
				Examples: []Example{{Description: "ID of the main UI", Command: "assetctl id ui/main.xml"}},
				Run:      func([]string) error { return errors.New("must not run") },
			},
		},
	}

	if err := root.Execute([]string{"--help"}); err != nil {
		t.Fatalf("Execute --help: %v", err)
	}
	for _, want := range []string{"Inspect assets", "assetctl <command> [flags]", "id", "Print an asset ID"} {
		if !strings.Contains(help.String(), want) {
			t.Errorf("root help lacks %q:\n%s", want, help.String())
		}
	}

	help.Reset()
	if err := root.Execute([]string{"id", "-h"}); err != nil {
		t.Fatalf("Execute id -h: %v", err)
	}
	for _, want := range []string{"assetctl id [flags]", "--settings", "# ID of the main UI"} {
		if !strings.Contains(help.String(), want) {
			t.Errorf("id help lacks %q:\n%s", want, help.String())
		}
	}
}

func TestExecuteRequiresSubcommand(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:        "pack",
		Output:      &help,
		Subcommands: []*Command{{Name: "list", Run: func([]string) error { return nil }}},
	}
	if err := root.Execute(nil); err == nil {
		t.Fatal("Execute with no subcommand succeeded")
	}
	if !strings.Contains(help.String(), "list") {
		t.Errorf("help not printed: %q", help.String())
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 3}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok || coder.ExitCode() != 3 {
		t.Fatalf("ExitError does not expose code 3")
	}
}
