// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/assetpipe/cmd/assetctl/cli"
	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/assethost"
	"github.com/bureau-foundation/assetpipe/lib/config"
	"github.com/bureau-foundation/assetpipe/lib/importers"
	"github.com/bureau-foundation/assetpipe/lib/service"
	"github.com/bureau-foundation/assetpipe/lib/testutil"
)

// execute runs assetctl with args and returns its stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func decodeJSON(t *testing.T, output string, target any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), target); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
}

func exitCode(err error) int {
	var exitError *cli.ExitError
	if errors.As(err, &exitError) {
		return exitError.Code
	}
	return -1
}

func TestVersionAndSuggestions(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(stdout, "assetctl ") {
		t.Errorf("--version printed %q", stdout)
	}

	_, _, err = execute(t, "lod")
	if err == nil || !strings.Contains(err.Error(), `did you mean "load"`) {
		t.Errorf("mistyped command error = %v", err)
	}

	_, stderr, err := execute(t)
	if err == nil || !strings.Contains(stderr, "Commands:") {
		t.Errorf("bare invocation: err = %v, help = %q", err, stderr)
	}
}

func TestIDCommand(t *testing.T) {
	stdout, _, err := execute(t, "id", "--json", `UI\Main.xml`, "ui/main.xml")
	if err != nil {
		t.Fatalf("id: %v", err)
	}
	var results []idResult
	decodeJSON(t, stdout, &results)
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	want := asset.NewKey("ui/main.xml", 0).ID()
	for _, result := range results {
		if result.ID != want || result.Normalized != "ui/main.xml" {
			t.Errorf("result = %+v, want id %s", result, want)
		}
	}

	stdout, _, err = execute(t, "id", "--settings", "9", "--color", "never", "ui/main.xml")
	if err != nil {
		t.Fatalf("id --settings: %v", err)
	}
	if !strings.Contains(stdout, asset.NewKey("ui/main.xml", 9).ID().String()) {
		t.Errorf("id output %q lacks the settings-9 ID", stdout)
	}

	if _, _, err := execute(t, "id", "../escape.txt"); err == nil {
		t.Error("id accepted a path that escapes the root")
	}
	if _, _, err := execute(t, "id"); err == nil {
		t.Error("id accepted no paths")
	}
}

func TestLoadCommand(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"ui/main.xml":      "<ui><button/></ui>",
		"config/game.json": `{"lives": 3}`,
	})

	stdout, _, err := execute(t, "load", "--json", "--root", root, "ui/main.xml", "config/game.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var results []loadResult
	decodeJSON(t, stdout, &results)
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for _, result := range results {
		if result.Status != "ready" {
			t.Errorf("%s = %+v", result.Path, result)
		}
	}

	stdout, _, err = execute(t, "load", "--json", "--root", root, "ui/main.xml", "ui/missing.xml")
	if exitCode(err) != 1 {
		t.Fatalf("load with a missing asset: err = %v", err)
	}
	decodeJSON(t, stdout, &results)
	if results[0].Status != "ready" || results[1].Status != "failed" || results[1].Kind != "source" {
		t.Errorf("results = %+v", results)
	}

	stdout, _, err = execute(t, "load", "--color", "never", "--root", root, "ui/main.xml")
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	for _, want := range []string{"PATH", "ui/main.xml", "ready", "1 requested, 1 ready"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("table lacks %q:\n%s", want, stdout)
		}
	}
}

func TestLoadNeedsSources(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	_, _, err := execute(t, "load", "ui/main.xml")
	if err == nil || !strings.Contains(err.Error(), "no asset sources") {
		t.Fatalf("err = %v", err)
	}

	_, _, err = execute(t, "load", "--root", t.TempDir(), "--budget", "0", "ui/main.xml")
	if err == nil || !strings.Contains(err.Error(), "--budget") {
		t.Fatalf("budget 0: err = %v", err)
	}
}

func TestLoadFromConfig(t *testing.T) {
	directory := testutil.WriteTree(t, map[string]string{
		"assets/notes/todo.txt": "ship it",
		"assetpipe.yaml":        "assets:\n  roots: [assets]\n",
	})
	t.Setenv(config.EnvironmentVariable, filepath.Join(directory, "assetpipe.yaml"))

	stdout, _, err := execute(t, "load", "--json", "notes/todo.txt")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var results []loadResult
	decodeJSON(t, stdout, &results)
	if len(results) != 1 || results[0].Status != "ready" {
		t.Errorf("results = %+v", results)
	}
}

func TestCatCommand(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"notes/readme.txt": "\ufeffhello\r\nworld",
	})

	stdout, _, err := execute(t, "cat", "--color", "never", "--root", root, "notes/readme.txt")
	if err != nil {
		t.Fatalf("cat: %v", err)
	}
	if stdout != "hello\nworld\n" {
		t.Errorf("cat = %q", stdout)
	}

	stdout, _, err = execute(t, "cat", "--meta", "--color", "never", "--root", root, "notes/readme.txt")
	if err != nil {
		t.Fatalf("cat --meta: %v", err)
	}
	meta, err := importers.ParseTextMeta(stdout)
	if err != nil {
		t.Fatalf("ParseTextMeta(%q): %v", stdout, err)
	}
	if meta.Schema != importers.TextMetaSchema || meta.Container != "txt" {
		t.Errorf("meta = %+v", meta)
	}

	stdout, _, err = execute(t, "cat", "--color", "always", "--root", root, "notes/readme.txt")
	if err != nil {
		t.Fatalf("cat --color always: %v", err)
	}
	if !strings.Contains(cli.Plain(stdout), "hello") {
		t.Errorf("highlighted cat = %q", stdout)
	}

	if _, _, err := execute(t, "cat", "--root", root, "notes/absent.txt"); err == nil {
		t.Error("cat of a missing asset succeeded")
	}
}

func TestBindingsCommand(t *testing.T) {
	stdout, _, err := execute(t, "bindings", "--json", "--extension", ".MD")
	if err != nil {
		t.Fatalf("bindings: %v", err)
	}
	var bindings []asset.Binding
	decodeJSON(t, stdout, &bindings)
	if len(bindings) < 2 {
		t.Fatalf("bindings = %+v", bindings)
	}
	if bindings[0].Importer != "text-blob" {
		t.Errorf("first .md binding = %+v, want text-blob", bindings[0])
	}
	for _, binding := range bindings {
		if binding.Extension != "md" {
			t.Errorf("unfiltered binding %+v", binding)
		}
	}

	stdout, _, err = execute(t, "bindings", "--color", "never")
	if err != nil {
		t.Fatalf("bindings table: %v", err)
	}
	if !strings.Contains(stdout, ".yaml") || !strings.Contains(stdout, "EXTENSION") {
		t.Errorf("bindings table:\n%s", stdout)
	}
}

func TestPackBuildListAndLoad(t *testing.T) {
	directory := testutil.WriteTree(t, map[string]string{
		"ui/main.xml":    "<ui/>",
		"docs/guide.md":  "# Guide\n\nRead me.",
		".hidden/secret": "skipped",
	})
	packPath := filepath.Join(t.TempDir(), "base.apk")

	stdout, _, err := execute(t, "pack", "build", directory, packPath, "--compression", "zstd", "--color", "never")
	if err != nil {
		t.Fatalf("pack build: %v", err)
	}
	if !strings.Contains(stdout, "2 entries") {
		t.Errorf("build output = %q", stdout)
	}

	stdout, _, err = execute(t, "pack", "list", "--verify", "--json", packPath)
	if err != nil {
		t.Fatalf("pack list: %v", err)
	}
	var entries []packEntry
	decodeJSON(t, stdout, &entries)
	if len(entries) != 2 || entries[0].Path != "docs/guide.md" || entries[1].Path != "ui/main.xml" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[1].Size != uint64(len("<ui/>")) {
		t.Errorf("ui/main.xml size = %d", entries[1].Size)
	}

	stdout, _, err = execute(t, "cat", "--color", "never", "--pack", packPath, "docs/guide.md")
	if err != nil {
		t.Fatalf("cat from pack: %v", err)
	}
	if stdout != "# Guide\n\nRead me.\n" {
		t.Errorf("cat from pack = %q", stdout)
	}

	if _, _, err := execute(t, "pack", "build", directory, packPath, "--compression", "brotli"); err == nil {
		t.Error("unknown compression accepted")
	}
	if _, _, err := execute(t, "pack", "list", filepath.Join(directory, "ui/main.xml")); err == nil {
		t.Error("listing a non-pack succeeded")
	}
}

// serveDaemon runs a host over root on a test socket and returns the
// socket path.
func serveDaemon(t *testing.T, root string) string {
	t.Helper()
	store := asset.NewStore(importers.NewDefaultRegistry(), asset.StoreConfig{
		Sources: []asset.Source{asset.NewFileSystemSource(root)},
	})
	t.Cleanup(store.Close)
	host, err := assethost.New(assethost.Config{Store: store, FrameInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("assethost.New: %v", err)
	}

	socketPath := filepath.Join(testutil.SocketDir(t), "assetd.sock")
	server := service.NewSocketServer(socketPath, nil)
	host.RegisterActions(server)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go host.Run(ctx)
	go func() { serveDone <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, host.Done(), testutil.DefaultTimeout, "host did not stop")
		testutil.RequireReceive(t, serveDone, testutil.DefaultTimeout, "server did not stop")
	})

	client := service.NewClient(socketPath)
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return client.Call(context.Background(), assethost.ActionStats, nil, nil) == nil
	}, "socket never answered")
	return socketPath
}

func TestQueryCommand(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"ui/main.xml": "<ui/>"})
	socketPath := serveDaemon(t, root)

	stdout, _, err := execute(t, "query", "load", "ui/main.xml", "--wait", "5s", "--json", "--socket", socketPath)
	if err != nil {
		t.Fatalf("query load: %v", err)
	}
	var state assethost.AssetState
	decodeJSON(t, stdout, &state)
	if state.Status != "ready" || state.ID != asset.NewKey("ui/main.xml", 0).ID() {
		t.Fatalf("state = %+v", state)
	}

	stdout, _, err = execute(t, "query", "state", state.ID.String(), "--color", "never", "--socket", socketPath)
	if err != nil {
		t.Fatalf("query state: %v", err)
	}
	if !strings.Contains(stdout, "ready") || !strings.Contains(stdout, "ui/main.xml") {
		t.Errorf("state output = %q", stdout)
	}

	stdout, _, err = execute(t, "query", "blob", "UI/Main.xml", "--json", "--socket", socketPath)
	if err != nil {
		t.Fatalf("query blob by path: %v", err)
	}
	var blob assethost.BlobReply
	decodeJSON(t, stdout, &blob)
	if blob.Blob == nil || blob.Blob.Format != "xml" || string(blob.Blob.Payload) != "<ui/>" {
		t.Errorf("blob = %+v", blob)
	}

	stdout, _, err = execute(t, "query", "stats", "--color", "never", "--socket", socketPath)
	if err != nil {
		t.Fatalf("query stats: %v", err)
	}
	for _, want := range []string{"store", "rows", "host", "frames", "build"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stats lacks %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = execute(t, "query", "state", "ui/main.xml", "--raw", "--socket", socketPath)
	if err != nil {
		t.Fatalf("query --raw: %v", err)
	}
	if !strings.Contains(stdout, `"ready"`) {
		t.Errorf("diagnostic = %q", stdout)
	}

	stdout, _, err = execute(t, "query", "bindings", "--json", "--socket", socketPath)
	if err != nil {
		t.Fatalf("query bindings: %v", err)
	}
	var bindings []asset.Binding
	decodeJSON(t, stdout, &bindings)
	if len(bindings) == 0 {
		t.Error("daemon reported no bindings")
	}
}

func TestQueryUsageErrors(t *testing.T) {
	tests := [][]string{
		{"query"},
		{"query", "reload"},
		{"query", "load"},
		{"query", "state"},
		{"query", "stats", "extra"},
	}
	for _, args := range tests {
		if _, _, err := execute(t, args...); err == nil {
			t.Errorf("%v succeeded", args)
		}
	}

	socketPath := filepath.Join(testutil.SocketDir(t), "absent.sock")
	if _, _, err := execute(t, "query", "stats", "--socket", socketPath); err == nil {
		t.Error("query against a missing socket succeeded")
	}
}
