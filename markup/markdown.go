package markup

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// markdown is shared between conversions; goldmark instances are safe for
// concurrent use once built.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM, // Tables, strikethrough, autolinks, task lists
		extension.Footnote,
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(), // keep inline HTML, it is parsed, never executed
	),
)

// ParseMarkdown renders Markdown to HTML with GFM extensions and parses the
// result with ParseHTML. The first level-one heading becomes the title.
func ParseMarkdown(r io.Reader) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Format: "markdown", Err: err}
	}

	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, &ParseError{Format: "markdown", Err: fmt.Errorf("rendering: %w", err)}
	}

	doc, err := ParseHTML(&buf, "text/html; charset=utf-8")
	if err != nil {
		return nil, err
	}
	if h1 := doc.Root.Find("h1"); h1 != nil && doc.Title == "" {
		doc.Title = h1.TextContent()
	}
	return doc, nil
}

// ParseMarkdownString is a convenience wrapper around ParseMarkdown.
func ParseMarkdownString(s string) (*Document, error) {
	return ParseMarkdown(bytes.NewBufferString(s))
}
