// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// The goldmark instance is configured once and is safe to share; each
// conversion creates its own parse state.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
			),
		)
	})
	return markdownInstance
}

// MarkdownDocument is a Markdown file rendered to HTML, with its
// heading outline.
type MarkdownDocument struct {
	Source   string
	HTML     string
	Headings []Heading
}

// Heading is one ATX or setext heading.
type Heading struct {
	Level int
	Text  string
}

func (*MarkdownDocument) AssetTypeName() string { return "markdown" }

// Title returns the text of the first level-1 heading, or "".
func (d *MarkdownDocument) Title() string {
	for _, heading := range d.Headings {
		if heading.Level == 1 {
			return heading.Text
		}
	}
	return ""
}

// MarkdownImporter imports md and markdown files as
// [MarkdownDocument] using GitHub-flavored Markdown.
type MarkdownImporter struct{}

func (MarkdownImporter) Name() string         { return "markdown" }
func (MarkdownImporter) Extensions() []string { return []string{"md", "markdown"} }

func (MarkdownImporter) Import(data []byte, key asset.Key) (*MarkdownDocument, error) {
	source := bytes.TrimPrefix(data, utf8BOM)
	document := markdown().Parser().Parse(text.NewReader(source))

	var rendered bytes.Buffer
	if err := markdown().Renderer().Render(&rendered, source, document); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var headings []Heading
	err := ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := node.(*ast.Heading); ok {
			headings = append(headings, Heading{
				Level: heading.Level,
				Text:  strings.TrimSpace(inlineText(heading, source)),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking markdown: %w", err)
	}

	return &MarkdownDocument{
		Source:   string(source),
		HTML:     rendered.String(),
		Headings: headings,
	}, nil
}

// inlineText concatenates the text segments below node.
func inlineText(node ast.Node, source []byte) string {
	var builder strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch typed := child.(type) {
		case *ast.Text:
			builder.Write(typed.Segment.Value(source))
			if typed.SoftLineBreak() {
				builder.WriteByte(' ')
			}
		case *ast.String:
			builder.Write(typed.Value)
		default:
			builder.WriteString(inlineText(child, source))
		}
	}
	return builder.String()
}
