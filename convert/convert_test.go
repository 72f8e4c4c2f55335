package convert

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"testing/fstest"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// ============================================================================
// Helpers
// ============================================================================

func convertHTML(t *testing.T, src string, opts Options) (*model.Document, []Warning) {
	t.Helper()
	doc, err := markup.ParseHTMLString(src)
	require.NoError(t, err)
	out, warnings, err := Convert(doc, opts)
	require.NoError(t, err)
	return out, warnings
}

func paragraphAt(t *testing.T, doc *model.Document, i int) *model.Paragraph {
	t.Helper()
	blocks := doc.Blocks()
	require.Greater(t, len(blocks), i, "block %d missing", i)
	p, ok := blocks[i].(*model.Paragraph)
	require.True(t, ok, "block %d is %v, want paragraph", i, blocks[i].Type())
	return p
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURI(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

// ============================================================================
// Paragraph and Heading Tests
// ============================================================================

func TestConvertHeadingAndParagraph(t *testing.T) {
	doc, warnings := convertHTML(t, "<h1>Title</h1><p>Hello <b>World</b></p>", DefaultOptions())
	assert.Empty(t, warnings)
	require.Equal(t, 2, doc.Len())

	h := paragraphAt(t, doc, 0)
	assert.Equal(t, 1, h.HeadingLevel)
	assert.Equal(t, "Heading1", h.StyleID)
	require.Len(t, h.Runs, 1)
	assert.Equal(t, "Title", h.Runs[0].Text)
	assert.True(t, h.Runs[0].Style.Bold)
	assert.Equal(t, 22.0, h.Runs[0].Style.FontSize)

	p := paragraphAt(t, doc, 1)
	assert.Zero(t, p.HeadingLevel)
	require.Len(t, p.Runs, 2)
	assert.Equal(t, "Hello ", p.Runs[0].Text)
	assert.False(t, p.Runs[0].Style.Bold)
	assert.Equal(t, "World", p.Runs[1].Text)
	assert.True(t, p.Runs[1].Style.Bold)
}

func TestConvertHeadingSizes(t *testing.T) {
	doc, _ := convertHTML(t, "<h3>a</h3><h6>b</h6>", DefaultOptions())
	assert.Equal(t, 18.0, paragraphAt(t, doc, 0).Runs[0].Style.FontSize)
	assert.Equal(t, 12.0, paragraphAt(t, doc, 1).Runs[0].Style.FontSize)
}

func TestConvertSiblingParagraphs(t *testing.T) {
	for _, n := range []int{1, 3, 10} {
		src := strings.Repeat("<p>para</p>\n", n)
		doc, _ := convertHTML(t, src, DefaultOptions())
		assert.Equal(t, n, len(doc.Paragraphs()), "n=%d", n)
	}
}

func TestConvertEmptyParagraph(t *testing.T) {
	doc, _ := convertHTML(t, "<p></p>", DefaultOptions())
	require.Equal(t, 1, doc.Len())
	p := paragraphAt(t, doc, 0)
	require.Len(t, p.Runs, 1)
	assert.Equal(t, "", p.Runs[0].Text)
}

func TestConvertWhitespace(t *testing.T) {
	doc, _ := convertHTML(t, "<p>  Hello\n   world  </p>", DefaultOptions())
	assert.Equal(t, "Hello world", paragraphAt(t, doc, 0).GetText())

	opts := DefaultOptions()
	opts.PreserveWhitespace = true
	doc, _ = convertHTML(t, "<p>a  b</p>", opts)
	assert.Equal(t, "a  b", paragraphAt(t, doc, 0).GetText())
}

func TestConvertLineBreak(t *testing.T) {
	doc, _ := convertHTML(t, "<p>one<br> two</p>", DefaultOptions())
	p := paragraphAt(t, doc, 0)
	assert.Equal(t, "one\ntwo", p.GetText())
	assert.True(t, p.Runs[1].Break)
}

func TestConvertPlainText(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		heuristic bool
		want      string
	}{
		{"headings and inline", "<h1>Title</h1><p>Hello <b>World</b></p><ul><li>A</li></ul><hr><p>End</p>", false,
			"Title\nHello World\n• A\nEnd\n"},
		{"nested lists", "<ul><li>A<ol><li>B</li><li>C</li></ol>D</li><li>E</li></ul>", false,
			"• A\n1. B\n2. C\nD\n• E\n"},
		{"quote and code", "<blockquote><p>said</p></blockquote><pre>x = 1\ny</pre>", false,
			"said\nx = 1\ny\n"},
		{"image placeholder", `<p>See <img src="https://example.com/a.png" alt="chart"> here</p>`, false,
			"See [image: chart] here\n"},
		{"html table", "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td></tr></table>", false,
			"a\tb\nc\t\n"},
		{"xml vocabulary", "<book><title>T</title><para>Body <bold>text</bold></para></book>", true,
			"T\nBody text\n"},
		{"text-only table element", "<doc><data>hello</data></doc>", true,
			"hello\n"},
		{"metadata element", "<doc><metadata>v1</metadata><para>p</para></doc>", true,
			"v1\np\n"},
		{"text-only rows", "<doc><grid><row>abc</row><row>def</row></grid></doc>", true,
			"abc\ndef\n"},
		{"loose text in table", "<doc><table>loose<row><cell>c</cell></row></table></doc>", true,
			"loose\nc\n"},
		{"loose text in row", "<doc><grid><row>a<cell>b</cell></row></grid></doc>", true,
			"a\tb\n"},
		{"xml list", "<doc><list><item>one</item><item>two</item></list></doc>", true,
			"• one\n• two\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc *markup.Document
			var err error
			opts := DefaultOptions()
			if tt.heuristic {
				doc, err = markup.ParseXMLString(tt.src)
				opts.Classifier = classify.NewHeuristic()
			} else {
				doc, err = markup.ParseHTMLString(tt.src)
			}
			require.NoError(t, err)

			out, _, err := Convert(doc, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.PlainText())
		})
	}
}

func TestConvertMetadata(t *testing.T) {
	src := `<html><head><title>T</title><meta name="author" content="Ann">
<meta name="keywords" content="a, b"></head><body><p>x</p></body></html>`

	doc, _ := convertHTML(t, src, DefaultOptions())
	assert.Equal(t, "T", doc.Metadata.Title)
	assert.Equal(t, "Ann", doc.Metadata.Author)
	assert.Equal(t, []string{"a", "b"}, doc.Metadata.Keywords)

	opts := DefaultOptions()
	opts.Title = "Override"
	doc, _ = convertHTML(t, src, opts)
	assert.Equal(t, "Override", doc.Metadata.Title)
}

func TestConvertNilDocument(t *testing.T) {
	_, _, err := Convert(nil, DefaultOptions())
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

// ============================================================================
// Inline Style Tests
// ============================================================================

func TestConvertNestedInlineStyles(t *testing.T) {
	doc, _ := convertHTML(t, "<p><b><i>x</i></b></p>", DefaultOptions())
	p := paragraphAt(t, doc, 0)
	require.Len(t, p.Runs, 1)
	assert.True(t, p.Runs[0].Style.Bold)
	assert.True(t, p.Runs[0].Style.Italic)
}

func TestConvertInlineCSS(t *testing.T) {
	src := `<p style="text-align:center"><span style="color:#f00; font-weight:bold; font-size:10pt">x</span></p>`
	doc, _ := convertHTML(t, src, DefaultOptions())
	p := paragraphAt(t, doc, 0)
	assert.Equal(t, model.AlignCenter, p.Alignment)
	require.Len(t, p.Runs, 1)
	st := p.Runs[0].Style
	assert.Equal(t, "FF0000", st.Color)
	assert.True(t, st.Bold)
	assert.Equal(t, 10.0, st.FontSize)
}

func TestConvertInvalidFontSize(t *testing.T) {
	for _, size := range []string{"nanpt", "infpt", "-infpt", "1e999pt", "0px"} {
		t.Run(size, func(t *testing.T) {
			doc, _ := convertHTML(t, `<p><span style="font-size: `+size+`">a</span>b</p>`, DefaultOptions())
			p := paragraphAt(t, doc, 0)
			require.Len(t, p.Runs, 1)
			assert.Equal(t, "ab", p.Runs[0].Text)
			assert.Zero(t, p.Runs[0].Style.FontSize)
		})
	}
}

func TestConvertSuperscriptAndCode(t *testing.T) {
	doc, _ := convertHTML(t, "<p>E=mc<sup>2</sup> <code>x</code></p>", DefaultOptions())
	p := paragraphAt(t, doc, 0)
	require.Len(t, p.Runs, 4)
	assert.Equal(t, model.VertAlignSuperscript, p.Runs[1].Style.VertAlign)
	assert.Equal(t, classify.MonospaceFont, p.Runs[3].Style.FontFamily)
}

func TestConvertPageBreak(t *testing.T) {
	src := `<p>a</p><div style="page-break-before: always"></div><p>b</p>`
	doc, _ := convertHTML(t, src, DefaultOptions())
	require.Equal(t, 3, doc.Len())
	assert.Equal(t, model.BlockTypePageBreak, doc.Blocks()[1].Type())
}

// ============================================================================
// Link Tests
// ============================================================================

func TestConvertLinks(t *testing.T) {
	src := `<p><a href="https://example.com">site</a> <a href="">plain</a> <a href="javascript:void(0)">js</a></p>`
	doc, _ := convertHTML(t, src, DefaultOptions())
	p := paragraphAt(t, doc, 0)
	require.Len(t, p.Runs, 2)

	link := p.Runs[0].Style
	assert.Equal(t, "https://example.com", link.Hyperlink)
	assert.True(t, link.Underline)
	assert.Equal(t, LinkColor, link.Color)

	assert.Equal(t, " plain js", p.Runs[1].Text)
	assert.False(t, p.Runs[1].Style.IsHyperlink())
}

func TestConvertEmptyHrefIsPlainRun(t *testing.T) {
	doc, _ := convertHTML(t, `<p><a href="">text</a></p>`, DefaultOptions())
	p := paragraphAt(t, doc, 0)
	require.Len(t, p.Runs, 1)
	assert.Equal(t, model.RunStyle{}, p.Runs[0].Style)
}

// ============================================================================
// List Tests
// ============================================================================

func TestConvertUnorderedList(t *testing.T) {
	doc, _ := convertHTML(t, "<ul><li>A</li><li>B</li></ul>", DefaultOptions())
	require.Equal(t, 2, doc.Len())
	for i, want := range []string{"• A", "• B"} {
		p := paragraphAt(t, doc, i)
		assert.Equal(t, want, p.GetText())
		assert.Greater(t, p.Indent, 0.0)
		assert.Equal(t, "ListParagraph", p.StyleID)
	}
}

func TestConvertOrderedList(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"default", "<ol><li>a</li><li>b</li></ol>", []string{"1. a", "2. b"}},
		{"start", `<ol start="5"><li>a</li><li>b</li></ol>`, []string{"5. a", "6. b"}},
		{"alpha", `<ol type="a"><li>a</li><li>b</li></ol>`, []string{"a. a", "b. b"}},
		{"roman", `<ol type="I"><li>a</li><li>b</li></ol>`, []string{"I. a", "II. b"}},
		{"reversed", `<ol reversed start="2"><li>a</li><li>b</li></ol>`, []string{"2. a", "1. b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := convertHTML(t, tt.src, DefaultOptions())
			var got []string
			for _, p := range doc.Paragraphs() {
				got = append(got, p.GetText())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertNestedListReadingOrder(t *testing.T) {
	src := "<ul><li>A<ul><li>B</li></ul>C</li><li>D</li></ul>"
	doc, _ := convertHTML(t, src, DefaultOptions())

	paras := doc.Paragraphs()
	require.Len(t, paras, 4)
	assert.Equal(t, "• A", paras[0].GetText())
	assert.Equal(t, "• B", paras[1].GetText())
	assert.Equal(t, "C", paras[2].GetText())
	assert.Equal(t, "• D", paras[3].GetText())

	assert.Equal(t, ListIndentStep, paras[0].Indent)
	assert.Equal(t, 2*ListIndentStep, paras[1].Indent)
	assert.Equal(t, paras[0].Indent, paras[2].Indent)
}

func TestConvertListItemParagraph(t *testing.T) {
	doc, _ := convertHTML(t, "<ul><li><p>A</p></li></ul>", DefaultOptions())
	require.Equal(t, 1, doc.Len())
	assert.Equal(t, "• A", paragraphAt(t, doc, 0).GetText())
}

func TestConvertExcludedItemMarker(t *testing.T) {
	opts := DefaultOptions()
	opts.Navigation = NavigationExclusionExplicit
	doc, _ := convertHTML(t, `<ol><li>one</li><li role="navigation">skip</li></ol><li>bare</li>`, opts)

	paras := doc.Paragraphs()
	require.Len(t, paras, 2)
	assert.Equal(t, "1. one", paras[0].GetText())
	assert.Equal(t, "• bare", paras[1].GetText())
}

func TestConvertListTooDeep(t *testing.T) {
	src := strings.Repeat("<ul><li>x", MaxListDepth+1)
	doc, err := markup.ParseHTMLString(src)
	require.NoError(t, err)

	_, _, err = Convert(doc, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructureTooDeep))

	var deep *StructureTooDeepError
	require.True(t, errors.As(err, &deep))
	assert.Equal(t, "list", deep.What)
	assert.Equal(t, MaxListDepth, deep.Limit)
}

func TestConvertListAtMaxDepth(t *testing.T) {
	src := strings.Repeat("<ul><li>x", MaxListDepth)
	doc, _ := convertHTML(t, src, DefaultOptions())
	assert.Equal(t, MaxListDepth, len(doc.Paragraphs()))
}

func TestConvertElementTooDeep(t *testing.T) {
	src := strings.Repeat("<div>", 50) + "x"
	doc, err := markup.ParseHTMLString(src)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxDepth = 20
	_, _, err = Convert(doc, opts)
	assert.True(t, errors.Is(err, ErrStructureTooDeep))
}

// ============================================================================
// Table Tests
// ============================================================================

func TestConvertTablePadding(t *testing.T) {
	src := `<table>
<tr><td>a</td><td>b</td><td>c</td></tr>
<tr><td>d</td></tr>
<tr><td>e</td><td>f</td></tr>
</table>`
	doc, _ := convertHTML(t, src, DefaultOptions())
	tables := doc.Tables()
	require.Len(t, tables, 1)

	tbl := tables[0]
	assert.Equal(t, 3, tbl.Columns)
	for i, row := range tbl.Rows {
		assert.Len(t, row, 3, "row %d", i)
	}
	assert.Equal(t, "", tbl.Rows[1][2].GetText())
	assert.NoError(t, tbl.Validate())
}

func TestConvertTableHeaders(t *testing.T) {
	src := `<table><thead><tr><th>H</th></tr></thead><tbody><tr><td>v</td></tr></tbody></table>`

	opts := DefaultOptions()
	opts.HeaderRow = false
	doc, _ := convertHTML(t, src, opts)
	tbl := doc.Tables()[0]

	h := tbl.Rows[0][0]
	assert.True(t, h.IsHeader)
	assert.True(t, h.Paragraphs()[0].Runs[0].Style.Bold)

	v := tbl.Rows[1][0]
	assert.False(t, v.IsHeader)
	assert.False(t, v.Paragraphs()[0].Runs[0].Style.Bold)
}

func TestConvertTableHeaderRowOption(t *testing.T) {
	src := `<table><tr><td>first</td></tr><tr><td>second</td></tr></table>`
	doc, _ := convertHTML(t, src, DefaultOptions())
	tbl := doc.Tables()[0]
	assert.True(t, tbl.Rows[0][0].IsHeader)
	assert.False(t, tbl.Rows[1][0].IsHeader)
}

func TestConvertTableColSpanAndCaption(t *testing.T) {
	src := `<table><caption>Totals</caption>
<tr><td colspan="2">wide</td></tr><tr><td>a</td><td>b</td></tr></table>`
	doc, _ := convertHTML(t, src, DefaultOptions())
	require.Equal(t, 2, doc.Len())

	caption := paragraphAt(t, doc, 0)
	assert.Equal(t, "Totals", caption.GetText())
	assert.Equal(t, model.AlignCenter, caption.Alignment)
	assert.True(t, caption.Runs[0].Style.Bold)

	tbl := doc.Tables()[0]
	assert.Equal(t, 2, tbl.Columns)
	assert.Len(t, tbl.Rows[0], 1)
	assert.Equal(t, 2, tbl.Rows[0][0].ColSpan)
}

func TestConvertNestedTable(t *testing.T) {
	src := `<table><tr><td>outer<table><tr><td>inner</td></tr></table></td></tr></table>`
	doc, _ := convertHTML(t, src, DefaultOptions())
	require.Len(t, doc.Tables(), 1)

	cell := doc.Tables()[0].Rows[0][0]
	require.Len(t, cell.Blocks, 2)
	assert.Equal(t, model.BlockTypeTable, cell.Blocks[1].Type())
}

// ============================================================================
// Image Tests
// ============================================================================

func TestConvertEmbeddedPNG(t *testing.T) {
	data := testPNG(t)
	src := `<p>Before<img src="` + dataURI(data) + `" alt="dot">After</p>`
	doc, warnings := convertHTML(t, src, DefaultOptions())
	assert.Empty(t, warnings)
	require.Equal(t, 3, doc.Len())

	img, ok := doc.Blocks()[1].(*model.Image)
	require.True(t, ok)
	assert.Equal(t, model.ImageFormatPNG, img.Format)
	assert.Equal(t, data, img.Data)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, "dot", img.AltText)
	assert.Equal(t, "After", paragraphAt(t, doc, 2).GetText())
}

func TestConvertImageSizeAttributes(t *testing.T) {
	src := `<img src="` + dataURI(testPNG(t)) + `" width="40">`
	doc, _ := convertHTML(t, src, DefaultOptions())
	img := doc.Images()[0]
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 20, img.Height)
}

func TestConvertImageFromResources(t *testing.T) {
	opts := DefaultOptions()
	opts.HeaderRow = false
	opts.Resources = fstest.MapFS{"book/img/a.png": {Data: testPNG(t)}}
	opts.BaseDir = "book/text"

	src := `<table><tr><td><img src="../img/a.png" alt="A"></td><td>x</td></tr></table>`
	doc, warnings := convertHTML(t, src, opts)
	assert.Empty(t, warnings)

	cell := doc.Tables()[0].Rows[0][0]
	require.Len(t, cell.Blocks, 1)
	assert.Equal(t, model.BlockTypeImage, cell.Blocks[0].Type())
	assert.Len(t, doc.Images(), 1)
}

func TestConvertImageDegradation(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantKind WarningKind
		wantText string
	}{
		{"remote", `<img src="https://example.com/a.png">`, RemoteResource, "[image: https://example.com/a.png]"},
		{"missing", `<img src="nope.png" alt="Gone">`, MissingLocalResource, "[image: Gone]"},
		{"unsupported", `<img src="data:image/svg+xml,%3Csvg%3E%3C/svg%3E" alt="Vector">`, UnsupportedImageFormat, "[image: Vector]"},
		{"corrupt", `<img src="data:image/png;base64,iVBORw0KGgoAAAA" alt="Bad">`, ImageDecodeError, "[image: Bad]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.BaseDir = t.TempDir()
			doc, warnings := convertHTML(t, tt.src, opts)

			require.Len(t, warnings, 1)
			assert.Equal(t, tt.wantKind, warnings[0].Kind)
			assert.Equal(t, "img", warnings[0].Tag)
			assert.Empty(t, doc.Images())
			assert.Equal(t, tt.wantText+"\n", doc.PlainText())
		})
	}
}

func TestConvertPlaceholderTruncatesOnRunes(t *testing.T) {
	alt := strings.Repeat("图", 81)
	opts := DefaultOptions()
	opts.BaseDir = t.TempDir()
	doc, warnings := convertHTML(t, `<img src="nope.png" alt="`+alt+`">`, opts)

	require.Len(t, warnings, 1)
	text := doc.PlainText()
	assert.True(t, utf8.ValidString(text))
	assert.Equal(t, "[image: "+strings.Repeat("图", 80)+"...]\n", text)
}

func TestConvertImagesDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeImages = false
	doc, warnings := convertHTML(t, `<p>a<img src="https://example.com/x.png"></p>`, opts)
	assert.Empty(t, warnings)
	assert.Equal(t, "a\n", doc.PlainText())
}

func TestDecodeDataURI(t *testing.T) {
	data, err := decodeDataURI("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	data, err = decodeDataURI("data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	_, err = decodeDataURI("data:nocomma")
	assert.Error(t, err)
}

// ============================================================================
// Code and Quote Tests
// ============================================================================

func TestConvertCodeBlock(t *testing.T) {
	doc, _ := convertHTML(t, "<pre>line1\n  line2\n</pre>", DefaultOptions())
	p := paragraphAt(t, doc, 0)
	assert.Equal(t, "Code", p.StyleID)
	assert.Equal(t, "line1\n  line2", p.GetText())
	for _, r := range p.Runs {
		assert.Equal(t, classify.MonospaceFont, r.Style.FontFamily)
	}
}

func TestConvertHighlightedCode(t *testing.T) {
	src := `<pre><code class="language-go">package main
</code></pre>`
	doc, _ := convertHTML(t, src, DefaultOptions())
	p := paragraphAt(t, doc, 0)
	assert.Equal(t, "package main", p.GetText())
	assert.Greater(t, len(p.Runs), 1)
	for _, r := range p.Runs {
		assert.Equal(t, classify.MonospaceFont, r.Style.FontFamily)
	}

	opts := DefaultOptions()
	opts.HighlightCode = false
	doc, _ = convertHTML(t, src, opts)
	assert.Len(t, paragraphAt(t, doc, 0).Runs, 1)
}

func TestConvertQuote(t *testing.T) {
	doc, _ := convertHTML(t, "<blockquote><p>q1</p><p>q2</p></blockquote>", DefaultOptions())
	require.Equal(t, 2, doc.Len())
	for i := 0; i < 2; i++ {
		p := paragraphAt(t, doc, i)
		assert.Equal(t, "Quote", p.StyleID)
		assert.Equal(t, QuoteIndent, p.Indent)
		assert.True(t, p.BorderLeft)
	}
}

func TestConvertHorizontalRule(t *testing.T) {
	doc, _ := convertHTML(t, "<p>a</p><hr><p>b</p>", DefaultOptions())
	require.Equal(t, 3, doc.Len())
	assert.Equal(t, model.BlockTypeHorizontalRule, doc.Blocks()[1].Type())
}

// ============================================================================
// Classifier and Navigation Tests
// ============================================================================

func TestConvertHeuristicXML(t *testing.T) {
	src := `<book>
  <title>My Book</title>
  <chapter>
    <title>One</title>
    <para>Some <emphasis>text</emphasis>.</para>
  </chapter>
  <list><item>a</item><item>b</item></list>
</book>`
	doc, err := markup.ParseXMLString(src)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Classifier = classify.NewHeuristic()
	out, _, err := Convert(doc, opts)
	require.NoError(t, err)

	toc := out.TableOfContents()
	require.Len(t, toc, 2)
	assert.Equal(t, "My Book", toc[0].Text)
	assert.Equal(t, "One", toc[1].Text)

	paras := out.Paragraphs()
	require.Len(t, paras, 5)
	assert.Equal(t, "Some text.", paras[2].GetText())
	assert.True(t, paras[2].Runs[1].Style.Italic)
	assert.Equal(t, "• a", paras[3].GetText())
}

func TestConvertHeuristicTable(t *testing.T) {
	src := `<datagrid><record><name>a</name><qty>1</qty></record><record><name>b</name></record></datagrid>`
	doc, err := markup.ParseXMLString(src)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Classifier = classify.NewHeuristic()
	out, _, err := Convert(doc, opts)
	require.NoError(t, err)

	require.Len(t, out.Tables(), 1)
	tbl := out.Tables()[0]
	assert.Equal(t, 2, tbl.Columns)
	assert.Equal(t, "b", tbl.Rows[1][0].GetText())
}

func TestConvertTagRoleOverrides(t *testing.T) {
	opts := DefaultOptions()
	opts.TagRoles = map[string]classify.Role{"note": {Kind: classify.Heading, Level: 3}}
	doc, _ := convertHTML(t, "<p>x</p><note>y</note>", opts)
	assert.Equal(t, 3, paragraphAt(t, doc, 1).HeadingLevel)
}

func TestConvertAmbiguousTagLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	doc, err := markup.ParseXMLString("<doc><section-list-text>x</section-list-text></doc>")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Classifier = classify.NewHeuristic()
	opts.Logger = zap.New(core)
	_, _, err = Convert(doc, opts)
	require.NoError(t, err)

	entries := logs.FilterMessage("ambiguous tag role").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "section-list-text", entries[0].ContextMap()["tag"])
}

func TestConvertNavigationExclusion(t *testing.T) {
	src := `<body><nav><a href="/">Home</a></nav><header>Site</header>
<div class="sidebar">Side</div><p>Main</p><footer>Foot</footer></body>`

	tests := []struct {
		mode NavigationExclusion
		want string
	}{
		{NavigationExclusionNone, "Home\nSite\nSide\nMain\nFoot\n"},
		{NavigationExclusionExplicit, "Side\nMain\n"},
		{NavigationExclusionStandard, "Main\n"},
	}
	for _, tt := range tests {
		opts := DefaultOptions()
		opts.Navigation = tt.mode
		doc, _ := convertHTML(t, src, opts)
		assert.Equal(t, tt.want, doc.PlainText(), "mode %d", tt.mode)
	}
}

// ============================================================================
// Warning Tests
// ============================================================================

func TestFormatWarnings(t *testing.T) {
	ws := []Warning{
		{Kind: RemoteResource, Tag: "img", Source: "http://x"},
		{Kind: MissingLocalResource, Message: "gone"},
	}
	assert.Equal(t, "remote resource not fetched <img> http://x\nmissing local resource: gone", FormatWarnings(ws))
}

func TestParseNavigationExclusion(t *testing.T) {
	assert.Equal(t, NavigationExclusionStandard, ParseNavigationExclusion("standard"))
	assert.Equal(t, NavigationExclusionNone, ParseNavigationExclusion("bogus"))
}
