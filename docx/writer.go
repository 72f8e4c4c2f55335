// Package docx reads and writes DOCX (Office Open XML) documents.
//
// The Writer serializes a model.Document into a WordprocessingML package.
// The Reader opens a package and rebuilds a model.Document from it, which
// is enough to verify written output and to inspect simple documents.
package docx

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/tsawler/quire/model"
)

// Page geometry in twips (1/20 pt): US Letter with one inch margins.
const (
	pageWidth    = 12240
	pageHeight   = 15840
	pageMargin   = 1440
	contentWidth = pageWidth - 2*pageMargin

	emuPerPixel  = 9525
	maxImageEMU  = contentWidth * 635 // content width in EMU (6.5in)
	defaultPixel = 96
)

var (
	// ErrNilDocument is returned when writing a nil document.
	ErrNilDocument = errors.New("docx: nil document")

	// ErrUnsupportedImage is returned for images with no known format.
	ErrUnsupportedImage = errors.New("docx: unsupported image format")
)

// relationship is an entry in word/_rels/document.xml.rels.
type relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// mediaPart is an embedded image stored under word/media.
type mediaPart struct {
	Name   string // file name inside word/media
	Data   []byte
	Format model.ImageFormat
}

// Writer accumulates document content and produces a DOCX package.
// Blocks must be added in reading order.
type Writer struct {
	doc  *etree.Document
	body *etree.Element

	meta    model.Metadata
	created time.Time

	rels    []relationship
	links   map[string]string // hyperlink target -> relationship id
	media   []mediaPart
	shapeID int

	paragraphs int
	words      int
	characters int
}

// NewWriter creates a Writer with an empty body.
func NewWriter() *Writer {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsW)
	root.CreateAttr("xmlns:r", nsR)
	root.CreateAttr("xmlns:wp", nsWP)
	root.CreateAttr("xmlns:a", nsA)
	root.CreateAttr("xmlns:pic", nsPic)

	w := &Writer{
		doc:     doc,
		body:    root.CreateElement("w:body"),
		created: time.Now().UTC(),
		links:   make(map[string]string),
	}
	w.addRelationship(relStyles, "styles.xml", false)
	return w
}

// SetMetadata sets the values written to docProps/core.xml.
func (w *Writer) SetMetadata(md model.Metadata) {
	w.meta = md
}

// SetCreated sets the creation and modification time recorded in the package.
func (w *Writer) SetCreated(t time.Time) {
	w.created = t.UTC()
}

// AddBlock appends any model block.
func (w *Writer) AddBlock(b model.Block) error {
	return w.appendBlock(w.body, b)
}

// AddParagraph appends a paragraph with its runs and hyperlinks.
func (w *Writer) AddParagraph(p *model.Paragraph) {
	w.appendParagraph(w.body, p)
}

// AddTable appends a table. Cell content may contain any block, including
// nested tables.
func (w *Writer) AddTable(t *model.Table) error {
	return w.appendTable(w.body, t)
}

// AddImage embeds image data and appends it in its own paragraph.
// Width and height are in pixels; zero means unknown.
func (w *Writer) AddImage(data []byte, format model.ImageFormat, width, height int, alt string) error {
	return w.appendImage(w.body, &model.Image{Data: data, Format: format, Width: width, Height: height, AltText: alt})
}

// AddPageBreak appends a paragraph holding a page break.
func (w *Writer) AddPageBreak() {
	w.appendPageBreak(w.body)
}

// AddHorizontalRule appends an empty paragraph with a bottom border.
func (w *Writer) AddHorizontalRule() {
	w.appendHorizontalRule(w.body)
}

func (w *Writer) appendBlock(parent *etree.Element, b model.Block) error {
	switch v := b.(type) {
	case *model.Paragraph:
		w.appendParagraph(parent, v)
	case *model.Table:
		return w.appendTable(parent, v)
	case *model.Image:
		return w.appendImage(parent, v)
	case model.PageBreak, *model.PageBreak:
		w.appendPageBreak(parent)
	case model.HorizontalRule, *model.HorizontalRule:
		w.appendHorizontalRule(parent)
	case nil:
	default:
		return fmt.Errorf("docx: unsupported block type %s", b.Type())
	}
	return nil
}

// ============================================================================
// Paragraphs and runs
// ============================================================================

func (w *Writer) appendParagraph(parent *etree.Element, p *model.Paragraph) {
	para := parent.CreateElement("w:p")
	writeParagraphProps(para, p)
	w.paragraphs++

	// Consecutive runs with the same target share one hyperlink element
	var link *etree.Element
	linkTarget := ""
	for _, r := range p.Runs {
		if !r.Break {
			w.words += len(strings.Fields(r.Text))
			w.characters += utf8.RuneCountInString(r.Text)
		}
		target := r.Style.Hyperlink
		if target == "" {
			link, linkTarget = nil, ""
			writeRun(para, r)
			continue
		}
		if link == nil || target != linkTarget {
			link = w.createHyperlink(para, target)
			linkTarget = target
		}
		writeRun(link, r)
	}
}

func writeParagraphProps(para *etree.Element, p *model.Paragraph) {
	if p.StyleID == "" && !p.BorderLeft && p.Shading == "" && p.SpacingBefore == 0 &&
		p.SpacingAfter == 0 && p.Indent == 0 && p.Alignment == model.AlignLeft && p.HeadingLevel == 0 {
		return
	}
	ppr := para.CreateElement("w:pPr")
	if p.StyleID != "" {
		setVal(ppr.CreateElement("w:pStyle"), p.StyleID)
	}
	if p.BorderLeft {
		bdr := ppr.CreateElement("w:pBdr")
		writeBorder(bdr.CreateElement("w:left"), "12", "4", "BFBFBF")
	}
	if p.Shading != "" {
		writeShading(ppr.CreateElement("w:shd"), p.Shading)
	}
	if p.SpacingBefore != 0 || p.SpacingAfter != 0 {
		sp := ppr.CreateElement("w:spacing")
		sp.CreateAttr("w:before", twips(p.SpacingBefore))
		sp.CreateAttr("w:after", twips(p.SpacingAfter))
	}
	if p.Indent != 0 {
		ppr.CreateElement("w:ind").CreateAttr("w:left", twips(p.Indent))
	}
	if jc := justification(p.Alignment); jc != "" {
		setVal(ppr.CreateElement("w:jc"), jc)
	}
	if p.HeadingLevel > 0 {
		setVal(ppr.CreateElement("w:outlineLvl"), strconv.Itoa(p.HeadingLevel-1))
	}
}

// writeRun emits one w:r. Tabs and newlines inside text become w:tab and
// w:br elements.
func writeRun(parent *etree.Element, r model.Run) {
	run := parent.CreateElement("w:r")
	writeRunProps(run, r.Style)
	if r.Break {
		run.CreateElement("w:br")
		return
	}

	text := sanitize(r.Text)
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			run.CreateElement("w:br")
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				run.CreateElement("w:tab")
			}
			if seg == "" {
				continue
			}
			t := run.CreateElement("w:t")
			t.CreateAttr("xml:space", "preserve")
			t.SetText(seg)
		}
	}
	if text == "" {
		// Keep empty runs so an empty paragraph still carries its formatting
		t := run.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
	}
}

func writeRunProps(run *etree.Element, s model.RunStyle) {
	if s == (model.RunStyle{}) {
		return
	}
	rpr := run.CreateElement("w:rPr")
	if s.Hyperlink != "" {
		setVal(rpr.CreateElement("w:rStyle"), "Hyperlink")
	}
	if s.FontFamily != "" {
		fonts := rpr.CreateElement("w:rFonts")
		fonts.CreateAttr("w:ascii", s.FontFamily)
		fonts.CreateAttr("w:hAnsi", s.FontFamily)
		fonts.CreateAttr("w:cs", s.FontFamily)
	}
	if s.Bold {
		rpr.CreateElement("w:b")
	}
	if s.Italic {
		rpr.CreateElement("w:i")
	}
	if s.Strike {
		rpr.CreateElement("w:strike")
	}
	if s.Color != "" {
		setVal(rpr.CreateElement("w:color"), strings.ToUpper(s.Color))
	}
	if s.FontSize > 0 {
		half := strconv.Itoa(int(math.Round(s.FontSize * 2)))
		setVal(rpr.CreateElement("w:sz"), half)
		setVal(rpr.CreateElement("w:szCs"), half)
	}
	if s.Underline {
		setVal(rpr.CreateElement("w:u"), "single")
	}
	switch s.VertAlign {
	case model.VertAlignSuperscript:
		setVal(rpr.CreateElement("w:vertAlign"), "superscript")
	case model.VertAlignSubscript:
		setVal(rpr.CreateElement("w:vertAlign"), "subscript")
	}
}

// createHyperlink opens a w:hyperlink. Targets starting with "#" refer to
// a bookmark in the document; others get an external relationship.
func (w *Writer) createHyperlink(para *etree.Element, target string) *etree.Element {
	link := para.CreateElement("w:hyperlink")
	if strings.HasPrefix(target, "#") {
		link.CreateAttr("w:anchor", strings.TrimPrefix(target, "#"))
		return link
	}
	id, ok := w.links[target]
	if !ok {
		id = w.addRelationship(relHyperlink, target, true)
		w.links[target] = id
	}
	link.CreateAttr("r:id", id)
	link.CreateAttr("w:history", "1")
	return link
}

func (w *Writer) appendPageBreak(parent *etree.Element) {
	br := parent.CreateElement("w:p").CreateElement("w:r").CreateElement("w:br")
	br.CreateAttr("w:type", "page")
}

func (w *Writer) appendHorizontalRule(parent *etree.Element) {
	ppr := parent.CreateElement("w:p").CreateElement("w:pPr")
	writeBorder(ppr.CreateElement("w:pBdr").CreateElement("w:bottom"), "6", "1", "auto")
	sp := ppr.CreateElement("w:spacing")
	sp.CreateAttr("w:before", "0")
	sp.CreateAttr("w:after", "0")
	sp.CreateAttr("w:line", "1")
	sp.CreateAttr("w:lineRule", "exact")
}

// ============================================================================
// Tables
// ============================================================================

func (w *Writer) appendTable(parent *etree.Element, t *model.Table) error {
	if t == nil || t.Columns == 0 {
		return nil
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("docx: writing table: %w", err)
	}

	colWidth := contentWidth / t.Columns
	tbl := parent.CreateElement("w:tbl")

	tblPr := tbl.CreateElement("w:tblPr")
	setVal(tblPr.CreateElement("w:tblStyle"), "TableGrid")
	tw := tblPr.CreateElement("w:tblW")
	tw.CreateAttr("w:w", "5000")
	tw.CreateAttr("w:type", "pct")
	borders := tblPr.CreateElement("w:tblBorders")
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		writeBorder(borders.CreateElement("w:"+side), "4", "0", "auto")
	}
	look := tblPr.CreateElement("w:tblLook")
	look.CreateAttr("w:val", "04A0")
	look.CreateAttr("w:firstRow", "1")
	look.CreateAttr("w:lastRow", "0")
	look.CreateAttr("w:firstColumn", "0")
	look.CreateAttr("w:lastColumn", "0")
	look.CreateAttr("w:noHBand", "0")
	look.CreateAttr("w:noVBand", "1")

	grid := tbl.CreateElement("w:tblGrid")
	for i := 0; i < t.Columns; i++ {
		grid.CreateElement("w:gridCol").CreateAttr("w:w", strconv.Itoa(colWidth))
	}

	for _, row := range t.Rows {
		tr := tbl.CreateElement("w:tr")
		if rowIsHeader(row) {
			tr.CreateElement("w:trPr").CreateElement("w:tblHeader")
		}
		for i := range row {
			if err := w.appendCell(tr, &row[i], colWidth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) appendCell(tr *etree.Element, cell *model.Cell, colWidth int) error {
	span := cell.ColSpan
	if span < 1 {
		span = 1
	}
	tc := tr.CreateElement("w:tc")
	tcPr := tc.CreateElement("w:tcPr")
	tcW := tcPr.CreateElement("w:tcW")
	tcW.CreateAttr("w:w", strconv.Itoa(colWidth*span))
	tcW.CreateAttr("w:type", "dxa")
	if span > 1 {
		setVal(tcPr.CreateElement("w:gridSpan"), strconv.Itoa(span))
	}

	for _, b := range cell.Blocks {
		if err := w.appendBlock(tc, b); err != nil {
			return err
		}
	}

	// A cell must end with a paragraph
	if last := lastChild(tc); last == nil || last.Tag != "p" {
		tc.CreateElement("w:p")
	}
	return nil
}

func rowIsHeader(row []model.Cell) bool {
	if len(row) == 0 {
		return false
	}
	for _, c := range row {
		if !c.IsHeader {
			return false
		}
	}
	return true
}

func lastChild(e *etree.Element) *etree.Element {
	children := e.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[len(children)-1]
}

// ============================================================================
// Images
// ============================================================================

func (w *Writer) appendImage(parent *etree.Element, img *model.Image) error {
	if img == nil {
		return nil
	}
	ext := img.Format.Extension()
	if ext == "" || len(img.Data) == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, img.Format)
	}

	name := fmt.Sprintf("image%d%s", len(w.media)+1, ext)
	w.media = append(w.media, mediaPart{Name: name, Data: img.Data, Format: img.Format})
	relID := w.addRelationship(relImage, "media/"+name, false)
	w.shapeID++
	cx, cy := extent(img.Width, img.Height)

	drawing := parent.CreateElement("w:p").CreateElement("w:r").CreateElement("w:drawing")
	inline := drawing.CreateElement("wp:inline")
	for _, d := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(d, "0")
	}
	ext1 := inline.CreateElement("wp:extent")
	ext1.CreateAttr("cx", strconv.FormatInt(cx, 10))
	ext1.CreateAttr("cy", strconv.FormatInt(cy, 10))

	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", strconv.Itoa(w.shapeID))
	docPr.CreateAttr("name", fmt.Sprintf("Picture %d", w.shapeID))
	if alt := sanitize(img.AltText); alt != "" {
		docPr.CreateAttr("descr", alt)
	}
	inline.CreateElement("wp:cNvGraphicFramePr").
		CreateElement("a:graphicFrameLocks").
		CreateAttr("noChangeAspect", "1")

	data := inline.CreateElement("a:graphic").CreateElement("a:graphicData")
	data.CreateAttr("uri", "http://schemas.openxmlformats.org/drawingml/2006/picture")
	pic := data.CreateElement("pic:pic")

	nv := pic.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", "0")
	cNvPr.CreateAttr("name", name)
	nv.CreateElement("pic:cNvPicPr")

	fill := pic.CreateElement("pic:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", relID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := pic.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext2 := xfrm.CreateElement("a:ext")
	ext2.CreateAttr("cx", strconv.FormatInt(cx, 10))
	ext2.CreateAttr("cy", strconv.FormatInt(cy, 10))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")
	return nil
}

// extent converts pixel dimensions to EMU, scaled down to the content width
// with the aspect ratio kept.
func extent(width, height int) (int64, int64) {
	switch {
	case width <= 0 && height <= 0:
		width, height = defaultPixel, defaultPixel
	case width <= 0:
		width = height
	case height <= 0:
		height = width
	}
	cx := int64(width) * emuPerPixel
	cy := int64(height) * emuPerPixel
	if cx > maxImageEMU {
		cy = cy * maxImageEMU / cx
		cx = maxImageEMU
	}
	return cx, cy
}

// ============================================================================
// Output
// ============================================================================

// Write serializes doc as a DOCX package to out.
func Write(out io.Writer, doc *model.Document) error {
	if doc == nil {
		return ErrNilDocument
	}
	w := NewWriter()
	w.SetMetadata(doc.Metadata)
	for _, b := range doc.Blocks() {
		if err := w.AddBlock(b); err != nil {
			return err
		}
	}
	return w.Flush(out)
}

// Save writes doc to the named file. A partially written file is removed
// on failure.
func Save(filename string, doc *model.Document) (err error) {
	if doc == nil {
		return ErrNilDocument
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", filename, cerr)
		}
		if err != nil {
			os.Remove(filename)
		}
	}()
	return Write(f, doc)
}

// ============================================================================
// Helpers
// ============================================================================

func (w *Writer) addRelationship(typ, target string, external bool) string {
	id := "rId" + strconv.Itoa(len(w.rels)+1)
	w.rels = append(w.rels, relationship{ID: id, Type: typ, Target: target, External: external})
	return id
}

func setVal(e *etree.Element, val string) {
	e.CreateAttr("w:val", val)
}

func writeBorder(e *etree.Element, size, space, color string) {
	e.CreateAttr("w:val", "single")
	e.CreateAttr("w:sz", size)
	e.CreateAttr("w:space", space)
	e.CreateAttr("w:color", color)
}

func writeShading(e *etree.Element, fill string) {
	e.CreateAttr("w:val", "clear")
	e.CreateAttr("w:color", "auto")
	e.CreateAttr("w:fill", strings.ToUpper(fill))
}

func justification(a model.TextAlignment) string {
	switch a {
	case model.AlignCenter:
		return "center"
	case model.AlignRight:
		return "right"
	case model.AlignJustify:
		return "both"
	}
	return ""
}

// twips converts points to twentieths of a point.
func twips(pt float64) string {
	return strconv.Itoa(int(math.Round(pt * 20)))
}

// sanitize drops characters that XML 1.0 does not allow.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n':
			return r
		case r < 0x20, r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}
