package markup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ============================================================================
// HTML Tests
// ============================================================================

func TestParseHTML_SimpleDocument(t *testing.T) {
	src := `<!DOCTYPE html>
<html>
<head>
	<title>Test Document</title>
	<meta name="author" content="Test Author">
	<meta name="Description" content="Test description">
</head>
<body>
	<h1>Main Heading</h1>
	<p class="lead intro">This is a <b>paragraph</b>.</p>
</body>
</html>`

	doc, err := ParseHTMLString(src)
	if err != nil {
		t.Fatalf("ParseHTMLString() failed: %v", err)
	}

	if doc.Title != "Test Document" {
		t.Errorf("Title = %q, want 'Test Document'", doc.Title)
	}
	if doc.Meta["author"] != "Test Author" {
		t.Errorf("Meta[author] = %q", doc.Meta["author"])
	}
	if doc.Meta["description"] != "Test description" {
		t.Errorf("Meta[description] = %q", doc.Meta["description"])
	}
	if doc.Root.Tag != "body" {
		t.Errorf("Root.Tag = %q, want body", doc.Root.Tag)
	}

	p := doc.Root.Find("p")
	if p == nil {
		t.Fatal("Find(p) returned nil")
	}
	if got := p.TextContent(); got != "This is a paragraph." {
		t.Errorf("TextContent() = %q", got)
	}
	if classes := p.Classes(); len(classes) != 2 || classes[1] != "intro" {
		t.Errorf("Classes() = %v", classes)
	}
	if p.Parent != doc.Root {
		t.Error("Parent pointer not set")
	}
}

func TestParseHTML_Malformed(t *testing.T) {
	// HTML parsing is lenient
	doc, err := ParseHTMLString(`<p>unclosed <b>bold`)
	if err != nil {
		t.Fatalf("ParseHTMLString() should handle malformed HTML: %v", err)
	}
	if doc.Root.Find("b") == nil {
		t.Error("expected <b> element to be recovered")
	}
}

func TestParseHTML_SkipsComments(t *testing.T) {
	doc, err := ParseHTMLString(`<p>a<!-- hidden -->b</p>`)
	if err != nil {
		t.Fatalf("ParseHTMLString() failed: %v", err)
	}
	if got := doc.Root.TextContent(); got != "ab" {
		t.Errorf("TextContent() = %q, want 'ab'", got)
	}
}

func TestParseHTML_AttributesLowercased(t *testing.T) {
	doc, _ := ParseHTMLString(`<a HREF="x.html">x</a>`)
	a := doc.Root.Find("a")
	if a.Attr("href") != "x.html" {
		t.Errorf("Attr(href) = %q", a.Attr("href"))
	}
	if !a.HasAttr("href") || a.HasAttr("title") {
		t.Error("HasAttr mismatch")
	}
}

func TestParseHTML_Latin1Charset(t *testing.T) {
	// "café" encoded in ISO-8859-1
	src := []byte("<html><head><meta charset=\"iso-8859-1\"></head><body><p>caf\xe9</p></body></html>")
	doc, err := ParseHTML(strings.NewReader(string(src)), "")
	if err != nil {
		t.Fatalf("ParseHTML() failed: %v", err)
	}
	if got := doc.Root.Find("p").TextContent(); got != "café" {
		t.Errorf("TextContent() = %q, want 'café'", got)
	}
}

func TestParseHTML_DeepNesting(t *testing.T) {
	src := strings.Repeat("<span>", 5000) + "deep" + strings.Repeat("</span>", 5000)
	doc, err := ParseHTMLString(src)
	if err != nil {
		t.Fatalf("ParseHTMLString() failed: %v", err)
	}
	if !strings.Contains(doc.Root.TextContent(), "deep") {
		t.Error("deep text lost")
	}
}

func TestOpenHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.html")
	if err := os.WriteFile(path, []byte("<p>Test</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := OpenHTML(path)
	if err != nil {
		t.Fatalf("OpenHTML() failed: %v", err)
	}
	if doc.Root.Find("p") == nil {
		t.Error("missing <p>")
	}

	if _, err := OpenHTML("/nonexistent/file.html"); err == nil {
		t.Error("OpenHTML() expected error for nonexistent file")
	}
}

// ============================================================================
// XML Tests
// ============================================================================

func TestParseXML_Vocabulary(t *testing.T) {
	src := `<?xml version="1.0"?>
<book title="Manual" lang="en" xmlns:x="urn:x">
	<chapter-title>Start</chapter-title>
	<content>Some <emphasis>text</emphasis></content>
	<![CDATA[raw <data>]]>
</book>`

	doc, err := ParseXMLString(src)
	if err != nil {
		t.Fatalf("ParseXMLString() failed: %v", err)
	}
	if doc.Root.Tag != "book" {
		t.Errorf("Root.Tag = %q", doc.Root.Tag)
	}
	if doc.Title != "Manual" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Meta["lang"] != "en" {
		t.Errorf("Meta[lang] = %q", doc.Meta["lang"])
	}
	if doc.Root.HasAttr("x") {
		t.Error("namespace declarations should be dropped")
	}
	if got := doc.Root.Find("content").TextContent(); got != "Some text" {
		t.Errorf("content text = %q", got)
	}
	if !strings.Contains(doc.Root.TextContent(), "raw <data>") {
		t.Error("CDATA text missing")
	}
	if len(doc.Root.ElementChildren()) != 2 {
		t.Errorf("ElementChildren() = %d, want 2", len(doc.Root.ElementChildren()))
	}
}

func TestParseXML_Malformed(t *testing.T) {
	_, err := ParseXMLString(`<a><b></a>`)
	if err == nil {
		t.Fatal("ParseXMLString() expected error for mismatched tags")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T is not *ParseError", err)
	}
	if perr.Format != "xml" {
		t.Errorf("Format = %q, want xml", perr.Format)
	}
}

func TestParseXML_Empty(t *testing.T) {
	_, err := ParseXMLString("")
	if err == nil {
		t.Fatal("ParseXMLString() expected error for empty input")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Errorf("error %T is not *ParseError", err)
	}
}

// ============================================================================
// Markdown Tests
// ============================================================================

func TestParseMarkdown(t *testing.T) {
	src := "# Title\n\nHello **World**\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n"
	doc, err := ParseMarkdownString(src)
	if err != nil {
		t.Fatalf("ParseMarkdownString() failed: %v", err)
	}
	if doc.Title != "Title" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Root.Find("strong") == nil {
		t.Error("missing <strong>")
	}
	if doc.Root.Find("table") == nil {
		t.Error("GFM table not rendered")
	}
	if doc.Root.Find("del") == nil {
		t.Error("GFM strikethrough not rendered")
	}
}

// ============================================================================
// Node Tests
// ============================================================================

func TestNodeBuilders(t *testing.T) {
	p := NewElement("p", nil, NewText("a"), NewElement("b", map[string]string{"id": "x"}, NewText("c")))
	if p.Children[1].Parent != p {
		t.Error("AppendChild should set Parent")
	}
	if p.TextContent() != "ac" {
		t.Errorf("TextContent() = %q", p.TextContent())
	}
	if !p.Children[0].IsText() || !p.Children[1].IsElement() {
		t.Error("IsText/IsElement mismatch")
	}
	if p.Find("b").Attr("id") != "x" {
		t.Error("Find(b) failed")
	}
	if p.Find("missing") != nil {
		t.Error("Find(missing) should be nil")
	}
	var nilNode *Node
	if nilNode.Attr("x") != "" || nilNode.IsElement() {
		t.Error("nil node accessors should be safe")
	}
}
