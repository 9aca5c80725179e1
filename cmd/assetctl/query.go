// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/assethost"
	"github.com/bureau-foundation/assetpipe/lib/codec"
	"github.com/bureau-foundation/assetpipe/lib/config"
	"github.com/bureau-foundation/assetpipe/lib/service"
)

// queryGrace is added to --wait for the socket call deadline.
const queryGrace = 5 * time.Second

var queryActions = []string{
	assethost.ActionLoad,
	assethost.ActionState,
	assethost.ActionBlob,
	assethost.ActionStats,
	assethost.ActionBindings,
}

func (a *app) queryCommand() *cli.Command {
	var (
		socketPath string
		configPath string
		settings   uint64
		wait       time.Duration
		raw        bool
		output     outputOptions
	)
	command := &cli.Command{
		Name:    "query",
		Summary: "Send a request to a running assetd",
		Description: `Send one request to a running assetd and print the reply.

Actions:
  load <path>          request a load; --wait blocks until it settles
  state <path|id>      report an asset's state
  blob <path|id>       print a ready blob's metadata
  stats                store, host, and build statistics
  bindings             the daemon's importer bindings

A path argument is converted to its asset ID with --settings. --raw
prints the reply's CBOR in diagnostic notation.`,
		Usage: "assetctl query <action> [path|id] [flags]",
		Examples: []cli.Example{
			{Description: "Load and wait up to two seconds", Command: "assetctl query load ui/main.xml --wait 2s"},
			{Command: "assetctl query stats --json"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("query", pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", "", "assetd socket (default: from configuration)")
			flagSet.StringVar(&configPath, "config", "", "configuration file naming the socket")
			flagSet.Uint64Var(&settings, "settings", 0, "import settings hash for path arguments")
			flagSet.DurationVar(&wait, "wait", 0, "for load, wait this long for the asset to settle")
			flagSet.BoolVar(&raw, "raw", false, "print the reply as CBOR diagnostic notation")
			output.register(flagSet)
			return flagSet
		},
	}
	command.Run = func(args []string) error {
		if len(args) == 0 {
			return command.UsageError("an action is required (%v)", queryActions)
		}
		action := args[0]
		if !slices.Contains(queryActions, action) {
			return command.UsageError("unknown action %q (want one of %v)", action, queryActions)
		}

		var request any
		switch action {
		case assethost.ActionLoad:
			if len(args) != 2 {
				return command.UsageError("load takes exactly one path")
			}
			request = assethost.LoadRequest{Path: args[1], SettingsHash: settings, WaitMillis: wait.Milliseconds()}
		case assethost.ActionState, assethost.ActionBlob:
			if len(args) != 2 {
				return command.UsageError("%s takes exactly one path or ID", action)
			}
			request = assethost.IDRequest{ID: resolveID(args[1], settings)}
		default:
			if len(args) != 1 {
				return command.UsageError("%s takes no arguments", action)
			}
		}

		if socketPath == "" {
			resolved, err := defaultSocket(configPath)
			if err != nil {
				return err
			}
			socketPath = resolved
		}
		client := service.NewClient(socketPath)
		ctx, cancel := context.WithTimeout(context.Background(), wait+queryGrace)
		defer cancel()

		if raw {
			reply, err := client.CallRaw(ctx, action, request)
			if err != nil {
				return err
			}
			diagnostic, err := codec.Diagnose(reply)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, diagnostic)
			return err
		}

		styles, err := a.styles(output)
		if err != nil {
			return err
		}
		switch action {
		case assethost.ActionLoad, assethost.ActionState:
			var state assethost.AssetState
			if err := client.Call(ctx, action, request, &state); err != nil {
				return err
			}
			if output.json {
				return cli.WriteJSON(a.stdout, state)
			}
			return a.writeState(styles, state)
		case assethost.ActionBlob:
			var reply assethost.BlobReply
			if err := client.Call(ctx, action, request, &reply); err != nil {
				return err
			}
			if output.json {
				return cli.WriteJSON(a.stdout, reply)
			}
			return a.writeBlob(styles, reply)
		case assethost.ActionStats:
			var reply assethost.StatsReply
			if err := client.Call(ctx, action, request, &reply); err != nil {
				return err
			}
			if output.json {
				return cli.WriteJSON(a.stdout, reply)
			}
			return a.writeStats(styles, reply)
		default:
			var reply assethost.BindingsReply
			if err := client.Call(ctx, action, request, &reply); err != nil {
				return err
			}
			if output.json {
				return cli.WriteJSON(a.stdout, reply.Bindings)
			}
			return writeBindings(a.stdout, styles, reply.Bindings)
		}
	}
	return command
}

// resolveID accepts either an asset ID or a logical path.
func resolveID(argument string, settings uint64) asset.ID {
	if id, err := asset.ParseID(argument); err == nil {
		return id
	}
	return asset.NewKey(argument, settings).ID()
}

func defaultSocket(configPath string) (string, error) {
	cfg, err := loadedConfig(configPath)
	if err != nil {
		return "", err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg.Service.SocketPath, nil
}

func (a *app) writeState(styles *cli.Styles, state assethost.AssetState) error {
	line := fmt.Sprintf("%s  %s", state.ID, styles.Status(state.Status))
	if state.Path != "" {
		line += "  " + styles.Path.Render(state.Path)
	}
	if state.Message != "" {
		line += "\n  " + styles.Faint.Render(state.Kind+": "+state.Message)
	}
	_, err := fmt.Fprintln(a.stdout, line)
	return err
}

func (a *app) writeBlob(styles *cli.Styles, reply assethost.BlobReply) error {
	table := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintf(table, "%s\t%s\n", styles.Faint.Render("id"), reply.ID)
	fmt.Fprintf(table, "%s\t%s\n", styles.Faint.Render("type"), reply.Blob.TypeID)
	fmt.Fprintf(table, "%s\t%s\n", styles.Faint.Render("format"), reply.Blob.Format)
	fmt.Fprintf(table, "%s\t%d bytes\n", styles.Faint.Render("payload"), len(reply.Blob.Payload))
	fmt.Fprintf(table, "%s\t%d\n", styles.Faint.Render("dependencies"), len(reply.Blob.Dependencies))
	fmt.Fprintf(table, "%s\t%s\n", styles.Faint.Render("meta"), reply.Blob.MetaJSON)
	return table.Flush()
}

func (a *app) writeStats(styles *cli.Styles, reply assethost.StatsReply) error {
	table := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', 0)
	row := func(label string, value any) {
		fmt.Fprintf(table, "  %s\t%v\n", label, value)
	}

	fmt.Fprintln(table, styles.Header.Render("store"))
	row("rows", reply.Store.Rows)
	row("ready", reply.Store.Ready)
	row("loading", reply.Store.Loading)
	row("failed", reply.Store.Failed)
	row("loads", reply.Store.Loads)
	row("coalesced", reply.Store.Coalesced)
	row("in flight", reply.Store.InFlight)
	row("queued", reply.Store.Queued)
	row("dropped events", reply.Store.DroppedEvents)

	fmt.Fprintln(table, styles.Header.Render("last pump"))
	row("processed", reply.LastPump.Processed)
	row("bytes read", reply.LastPump.BytesRead)
	row("import time", reply.LastPump.ImportTime)
	row("duration", reply.LastPump.Duration)

	fmt.Fprintln(table, styles.Header.Render("host"))
	row("frames", reply.Host.Frames)
	row("steps", reply.Host.Steps)
	row("ready events", reply.Host.Ready)
	row("failed events", reply.Host.Failed)

	fmt.Fprintln(table, styles.Header.Render("build"))
	row("version", reply.Build.Version)
	row("commit", reply.Build.Commit)
	row("go", reply.Build.Go)
	return table.Flush()
}
