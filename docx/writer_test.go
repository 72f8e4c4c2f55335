package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/quire/model"
)

// fakePNG only needs to survive the round trip; the writer does not decode it.
var fakePNG = []byte("\x89PNG\r\n\x1a\nnot really a png")

func text(s string) model.Run { return model.Run{Text: s} }

func sampleDocument() *model.Document {
	doc := model.NewDocument()
	doc.Metadata.Title = "Sample"
	doc.Metadata.Author = "Ann Author"
	doc.Metadata.Subject = "Testing"
	doc.Metadata.Keywords = []string{"one", "two"}

	doc.Append(&model.Paragraph{
		StyleID:       "Heading1",
		HeadingLevel:  1,
		SpacingBefore: 12,
		SpacingAfter:  6,
		Runs:          []model.Run{{Text: "Title", Style: model.RunStyle{Bold: true, FontSize: 22}}},
	})
	doc.Append(&model.Paragraph{Runs: []model.Run{
		text("plain "),
		{Text: "bold", Style: model.RunStyle{Bold: true}},
		text(" and "),
		{Text: "link", Style: model.RunStyle{Hyperlink: "https://example.com", Underline: true, Color: "0563C1"}},
		{Break: true},
		text("a\tb"),
	}})
	doc.Append(&model.Paragraph{StyleID: "Quote", Indent: 36, BorderLeft: true, Runs: []model.Run{text("quoted")}})
	doc.Append(&model.Paragraph{StyleID: "Code", Shading: "F2F2F2", Runs: []model.Run{
		{Text: "x := 1", Style: model.RunStyle{FontFamily: "Courier New"}},
	}})

	nested := model.NewTable([][]model.Cell{{{Blocks: []model.Block{&model.Paragraph{Runs: []model.Run{text("inner")}}}}}})
	doc.Append(model.NewTable([][]model.Cell{
		{{Blocks: []model.Block{&model.Paragraph{Runs: []model.Run{text("Head")}}}, IsHeader: true, ColSpan: 2}},
		{{Blocks: []model.Block{&model.Paragraph{Runs: []model.Run{text("left")}}}}, {Blocks: []model.Block{nested}}},
		{{Blocks: []model.Block{&model.Paragraph{Runs: []model.Run{text("short")}}}}},
	}))

	doc.Append(&model.Image{Data: fakePNG, Format: model.ImageFormatPNG, Width: 10, Height: 5, AltText: "dot"})
	doc.Append(model.PageBreak{})
	doc.Append(model.HorizontalRule{})
	doc.Append(&model.Paragraph{Runs: []model.Run{{Text: "see above", Style: model.RunStyle{Hyperlink: "#top"}}}})
	return doc
}

func writeSample(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, sampleDocument()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return buf.Bytes()
}

func TestWrite_Parts(t *testing.T) {
	r := openBytes(t, writeSample(t))
	defer r.Close()

	for _, part := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/media/image1.png",
		"docProps/core.xml",
		"docProps/app.xml",
	} {
		if !r.HasPart(part) {
			t.Errorf("missing part %s (have %v)", part, r.Parts())
		}
	}
}

func TestWrite_ContentTypes(t *testing.T) {
	data := writeSample(t)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	var ct string
	for _, f := range zr.File {
		if f.Name == "[Content_Types].xml" {
			rc, _ := f.Open()
			b, _ := io.ReadAll(rc)
			rc.Close()
			ct = string(b)
		}
	}
	for _, want := range []string{`Extension="png"`, `ContentType="image/png"`, `PartName="/word/document.xml"`} {
		if !strings.Contains(ct, want) {
			t.Errorf("content types missing %s:\n%s", want, ct)
		}
	}
	if strings.Contains(ct, `Extension="gif"`) {
		t.Error("content types declares gif without any gif media")
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	r := openBytes(t, writeSample(t))
	defer r.Close()

	doc, err := r.Document()
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	blocks := doc.Blocks()
	if len(blocks) != 9 {
		t.Fatalf("block count = %d, want 9", len(blocks))
	}

	heading := blocks[0].(*model.Paragraph)
	if heading.StyleID != "Heading1" || heading.HeadingLevel != 1 {
		t.Errorf("heading style = %q level %d", heading.StyleID, heading.HeadingLevel)
	}
	if heading.SpacingBefore != 12 || heading.SpacingAfter != 6 {
		t.Errorf("heading spacing = %v/%v, want 12/6", heading.SpacingBefore, heading.SpacingAfter)
	}
	if got := heading.Runs[0].Style; !got.Bold || got.FontSize != 22 {
		t.Errorf("heading run style = %+v", got)
	}

	body := blocks[1].(*model.Paragraph)
	if got, want := body.GetText(), "plain bold and link\na\tb"; got != want {
		t.Errorf("body text = %q, want %q", got, want)
	}
	var link *model.Run
	for i := range body.Runs {
		if body.Runs[i].Style.IsHyperlink() {
			link = &body.Runs[i]
		}
	}
	if link == nil || link.Text != "link" || link.Style.Hyperlink != "https://example.com" || !link.Style.Underline {
		t.Errorf("hyperlink run = %+v", link)
	}

	quote := blocks[2].(*model.Paragraph)
	if quote.StyleID != "Quote" || quote.Indent != 36 || !quote.BorderLeft {
		t.Errorf("quote = %+v", quote)
	}

	code := blocks[3].(*model.Paragraph)
	if code.Shading != "F2F2F2" || code.Runs[0].Style.FontFamily != "Courier New" {
		t.Errorf("code = %+v", code)
	}

	table := blocks[4].(*model.Table)
	if table.Columns != 2 || table.RowCount() != 3 {
		t.Fatalf("table = %d cols %d rows, want 2x3", table.Columns, table.RowCount())
	}
	if err := table.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if head := table.GetCell(0, 0); !head.IsHeader || head.ColSpan != 2 || head.GetText() != "Head" {
		t.Errorf("header cell = %+v", head)
	}
	inner := table.GetCell(1, 1)
	if nestedTable, ok := inner.Blocks[0].(*model.Table); !ok || nestedTable.GetCell(0, 0).GetText() != "inner" {
		t.Errorf("nested cell blocks = %#v", inner.Blocks)
	}
	if len(table.Rows[2]) != 2 {
		t.Errorf("short row has %d cells, want padding to 2", len(table.Rows[2]))
	}

	img := blocks[5].(*model.Image)
	if !bytes.Equal(img.Data, fakePNG) || img.Format != model.ImageFormatPNG {
		t.Errorf("image = %v bytes format %v", len(img.Data), img.Format)
	}
	if img.Width != 10 || img.Height != 5 || img.AltText != "dot" {
		t.Errorf("image size = %dx%d alt %q", img.Width, img.Height, img.AltText)
	}

	if _, ok := blocks[6].(model.PageBreak); !ok {
		t.Errorf("block 6 is %T, want PageBreak", blocks[6])
	}
	if _, ok := blocks[7].(model.HorizontalRule); !ok {
		t.Errorf("block 7 is %T, want HorizontalRule", blocks[7])
	}
	anchor := blocks[8].(*model.Paragraph)
	if anchor.Runs[0].Style.Hyperlink != "#top" {
		t.Errorf("anchor link = %q, want #top", anchor.Runs[0].Style.Hyperlink)
	}

	md := doc.Metadata
	if md.Title != "Sample" || md.Author != "Ann Author" || md.Subject != "Testing" {
		t.Errorf("metadata = %+v", md)
	}
	if strings.Join(md.Keywords, ",") != "one,two" {
		t.Errorf("keywords = %v", md.Keywords)
	}
	if md.Custom["application"] != Application {
		t.Errorf("application = %q, want %q", md.Custom["application"], Application)
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, model.NewDocument()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	r := openBytes(t, buf.Bytes())
	defer r.Close()

	doc, err := r.Document()
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if doc.Len() != 0 {
		t.Errorf("Len() = %d, want 0", doc.Len())
	}
}

func TestWrite_NilDocument(t *testing.T) {
	if err := Write(io.Discard, nil); !errors.Is(err, ErrNilDocument) {
		t.Errorf("Write(nil) error = %v, want ErrNilDocument", err)
	}
}

func TestWriter_Primitives(t *testing.T) {
	w := NewWriter()
	w.SetCreated(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	w.SetMetadata(model.Metadata{Title: "Prims"})
	w.AddParagraph(&model.Paragraph{Runs: []model.Run{{Text: "one", Style: model.RunStyle{Hyperlink: "https://a.example"}}}})
	w.AddParagraph(&model.Paragraph{Runs: []model.Run{{Text: "two", Style: model.RunStyle{Hyperlink: "https://a.example"}}}})
	if err := w.AddImage(fakePNG, model.ImageFormatPNG, 0, 0, ""); err != nil {
		t.Fatalf("AddImage() error = %v", err)
	}
	w.AddPageBreak()
	w.AddHorizontalRule()
	if err := w.AddTable(model.NewTable(nil)); err != nil {
		t.Errorf("AddTable(empty) error = %v", err)
	}

	// Same target reuses one relationship; styles and image add two more
	if len(w.rels) != 3 {
		t.Errorf("relationships = %d, want 3: %+v", len(w.rels), w.rels)
	}

	var buf bytes.Buffer
	if err := w.Flush(&buf); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	r := openBytes(t, buf.Bytes())
	defer r.Close()
	if r.coreProps == nil || !strings.HasPrefix(r.coreProps.Created, "2024-05-01T12:00:00") {
		t.Errorf("created = %+v", r.coreProps)
	}
	if r.appProps == nil || r.appProps.Words != "2" || r.appProps.Paragraphs != "2" {
		t.Errorf("app props = %+v", r.appProps)
	}
}

func TestWriter_UnsupportedImage(t *testing.T) {
	w := NewWriter()
	err := w.AddImage([]byte("x"), model.ImageFormatUnknown, 1, 1, "")
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("AddImage() error = %v, want ErrUnsupportedImage", err)
	}
}

func TestWriter_InvalidTable(t *testing.T) {
	w := NewWriter()
	bad := &model.Table{Columns: 3, Rows: [][]model.Cell{{model.EmptyCell()}}}
	if err := w.AddTable(bad); err == nil {
		t.Error("AddTable() should reject a non-rectangular table")
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")
	if err := Save(path, sampleDocument()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	if len(r.Paragraphs()) == 0 {
		t.Error("saved document has no paragraphs")
	}
}

func TestSave_RemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	doc := model.NewDocument()
	doc.Append(&model.Image{Data: []byte("x")})

	if err := Save(path, doc); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("Save() error = %v, want ErrUnsupportedImage", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: %v", err)
	}
}

func TestExtent(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		cx, cy        int64
	}{
		{"known", 100, 50, 100 * emuPerPixel, 50 * emuPerPixel},
		{"unknown", 0, 0, defaultPixel * emuPerPixel, defaultPixel * emuPerPixel},
		{"width only", 40, 0, 40 * emuPerPixel, 40 * emuPerPixel},
		{"too wide", 1248, 624, maxImageEMU, maxImageEMU / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cx, cy := extent(tt.width, tt.height)
			if cx != tt.cx || cy != tt.cy {
				t.Errorf("extent(%d, %d) = %d, %d, want %d, %d", tt.width, tt.height, cx, cy, tt.cx, tt.cy)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"tab\tnewline\n", "tab\tnewline\n"},
		{"bell\x07null\x00", "bellnull"},
		{"cr\r", "cr"},
		{"emoji 😀", "emoji 😀"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStyles_Headings(t *testing.T) {
	r := openBytes(t, writeSample(t))
	defer r.Close()

	if r.styles == nil {
		t.Fatal("styles.xml not parsed")
	}
	ids := make(map[string]bool)
	for _, s := range r.styles.Styles {
		ids[s.StyleID] = true
	}
	for _, id := range []string{"Normal", "Heading1", "Heading6", "ListParagraph", "Quote", "Code", "Hyperlink", "TableGrid"} {
		if !ids[id] {
			t.Errorf("styles.xml missing %s", id)
		}
	}
	if name := r.styleName("Heading2"); name != "heading 2" {
		t.Errorf("styleName(Heading2) = %q, want %q", name, "heading 2")
	}
}
