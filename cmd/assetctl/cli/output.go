// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Color modes accepted by --color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorEnabled resolves a --color mode for output written to w. Auto
// colors only a terminal and honors NO_COLOR.
func ColorEnabled(w io.Writer, mode string) (bool, error) {
	switch mode {
	case ColorAlways:
		return true, nil
	case ColorNever:
		return false, nil
	case ColorAuto, "":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		return IsTerminal(w), nil
	default:
		return false, fmt.Errorf("invalid color mode %q (want auto, always, or never)", mode)
	}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Styles renders command output. Without color every style renders
// its input unchanged.
type Styles struct {
	Color bool

	Header lipgloss.Style
	Path   lipgloss.Style
	Faint  lipgloss.Style

	ready    lipgloss.Style
	loading  lipgloss.Style
	failed   lipgloss.Style
	unloaded lipgloss.Style
}

// NewStyles builds styles for output written to w. The color profile
// is forced rather than detected so that --color=always works through
// a pipe.
func NewStyles(w io.Writer, color bool) *Styles {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	return &Styles{
		Color:    color,
		Header:   renderer.NewStyle().Bold(true).Underline(true),
		Path:     renderer.NewStyle().Foreground(lipgloss.Color("75")),
		Faint:    renderer.NewStyle().Foreground(lipgloss.Color("245")),
		ready:    renderer.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		loading:  renderer.NewStyle().Foreground(lipgloss.Color("214")),
		failed:   renderer.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		unloaded: renderer.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Status renders an asset status word ("ready", "failed", ...).
func (s *Styles) Status(status string) string {
	switch status {
	case "ready":
		return s.ready.Render(status)
	case "loading":
		return s.loading.Render(status)
	case "failed":
		return s.failed.Render(status)
	default:
		return s.unloaded.Render(status)
	}
}

// Truncate shortens s to width display cells, marking the cut with an
// ellipsis. Escape sequences do not count toward the width.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// Plain strips escape sequences from s.
func Plain(s string) string {
	return ansi.Strip(s)
}

// WriteJSON writes value to w as indented JSON. A nil slice is written
// as [] rather than null.
func WriteJSON(w io.Writer, value any) error {
	if v := reflect.ValueOf(value); v.Kind() == reflect.Slice && v.IsNil() {
		value = reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
