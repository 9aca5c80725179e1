// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind assetctl.
//
// A [Command] tree dispatches on the first positional argument, parses
// per-command pflag sets, and prints structured help. Mistyped
// commands and flags get a did-you-mean suggestion. Output helpers
// cover the two modes every command supports: styled tables for a
// terminal and indented JSON (--json) for scripts.
package cli
