package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/tsawler/quire/model"
)

// ErrNotDOCX is returned when an archive lacks the parts every DOCX has.
var ErrNotDOCX = errors.New("docx: not a DOCX package")

// Reader provides access to DOCX document content.
type Reader struct {
	zipReader *zip.Reader
	closer    io.Closer
	files     map[string]*zip.File

	document  *documentXML
	styles    *stylesXML
	rels      map[string]relationshipXML
	coreProps *corePropertiesXML
	appProps  *appPropertiesXML

	paragraphs []ParagraphInfo
}

// ParagraphInfo summarises one top-level paragraph.
type ParagraphInfo struct {
	Text         string
	StyleID      string
	StyleName    string
	HeadingLevel int // 1-9, 0 for body text
}

// IsHeading reports whether the paragraph uses a heading style.
func (p ParagraphInfo) IsHeading() bool { return p.HeadingLevel > 0 }

// Open opens a DOCX file for reading.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	r, err := newReader(&zr.Reader)
	if err != nil {
		zr.Close()
		return nil, err
	}
	r.closer = zr
	return r, nil
}

// OpenReader reads a DOCX package from ra, which holds size bytes.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	return newReader(zr)
}

func newReader(zr *zip.Reader) (*Reader, error) {
	r := &Reader{
		zipReader: zr,
		files:     make(map[string]*zip.File, len(zr.File)),
		rels:      make(map[string]relationshipXML),
	}
	for _, f := range zr.File {
		r.files[f.Name] = f
	}

	if err := r.validate(); err != nil {
		return nil, err
	}

	// Relationships first; the document refers to them
	if err := r.parseRelationships(); err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	if err := r.parseDocument(); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	// Styles and properties are optional
	r.parseStyles()
	r.parseCoreProperties()
	r.parseAppProperties()

	r.processParagraphs()
	return r, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

// validate checks that required DOCX files exist.
func (r *Reader) validate() error {
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		if r.files[name] == nil {
			return fmt.Errorf("%w: missing required file %s", ErrNotDOCX, name)
		}
	}
	return nil
}

// getFileContent reads the content of a file from the ZIP archive.
func (r *Reader) getFileContent(name string) ([]byte, error) {
	f := r.files[name]
	if f == nil {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// HasPart reports whether the package contains the named part.
func (r *Reader) HasPart(name string) bool {
	return r.files[name] != nil
}

// Parts returns the names of all parts in archive order.
func (r *Reader) Parts() []string {
	names := make([]string, 0, len(r.zipReader.File))
	for _, f := range r.zipReader.File {
		names = append(names, f.Name)
	}
	return names
}

// Paragraphs returns the top-level paragraphs with their styles.
func (r *Reader) Paragraphs() []ParagraphInfo {
	return r.paragraphs
}

// Text returns the text of all top-level paragraphs.
func (r *Reader) Text() string {
	var result strings.Builder
	for i, para := range r.paragraphs {
		if i > 0 {
			result.WriteString("\n")
			if para.IsHeading() {
				result.WriteString("\n") // Extra blank line before headings
			}
		}
		result.WriteString(para.Text)
	}
	return result.String()
}

// Metadata returns document metadata.
func (r *Reader) Metadata() model.Metadata {
	meta := model.Metadata{Custom: make(map[string]string)}
	if r.coreProps != nil {
		meta.Title = r.coreProps.Title
		meta.Author = r.coreProps.Creator
		meta.Subject = r.coreProps.Subject
		if r.coreProps.Keywords != "" {
			for _, kw := range strings.Split(r.coreProps.Keywords, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					meta.Keywords = append(meta.Keywords, kw)
				}
			}
		}
		if r.coreProps.Description != "" {
			meta.Custom["description"] = r.coreProps.Description
		}
	}
	if r.appProps != nil && r.appProps.Application != "" {
		meta.Custom["application"] = r.appProps.Application
	}
	return meta
}

// Document rebuilds a model.Document from the package.
func (r *Reader) Document() (*model.Document, error) {
	if r.document == nil || r.document.Body == nil {
		return nil, fmt.Errorf("document not parsed")
	}
	doc := model.NewDocument()
	doc.Metadata = r.Metadata()

	blocks, err := r.buildBlocks(r.document.Body.Elements)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		doc.Append(b)
	}
	return doc, nil
}

// ============================================================================
// Part parsing
// ============================================================================

// parseRelationships parses the document relationships file.
func (r *Reader) parseRelationships() error {
	data, err := r.getFileContent("word/_rels/document.xml.rels")
	if err != nil {
		// Relationships file is optional
		return nil
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return err
	}
	for _, rel := range rels.Relationships {
		r.rels[rel.ID] = rel
	}
	return nil
}

// parseDocument parses the main document content.
func (r *Reader) parseDocument() error {
	data, err := r.getFileContent("word/document.xml")
	if err != nil {
		return err
	}

	r.document = &documentXML{}
	if err := xml.Unmarshal(data, r.document); err != nil {
		return fmt.Errorf("unmarshaling document.xml: %w", err)
	}
	return nil
}

// parseStyles parses the styles definition file.
func (r *Reader) parseStyles() {
	data, err := r.getFileContent("word/styles.xml")
	if err != nil {
		return
	}

	styles := &stylesXML{}
	if xml.Unmarshal(data, styles) == nil {
		r.styles = styles
	}
}

// parseCoreProperties parses Dublin Core metadata.
func (r *Reader) parseCoreProperties() {
	data, err := r.getFileContent("docProps/core.xml")
	if err != nil {
		return
	}

	props := &corePropertiesXML{}
	if xml.Unmarshal(data, props) == nil {
		r.coreProps = props
	}
}

// parseAppProperties parses application metadata.
func (r *Reader) parseAppProperties() {
	data, err := r.getFileContent("docProps/app.xml")
	if err != nil {
		return
	}

	props := &appPropertiesXML{}
	if xml.Unmarshal(data, props) == nil {
		r.appProps = props
	}
}

// processParagraphs summarises the top-level paragraphs.
func (r *Reader) processParagraphs() {
	if r.document == nil || r.document.Body == nil {
		return
	}
	for _, el := range r.document.Body.Elements {
		if el.Paragraph == nil {
			continue
		}
		p := r.buildParagraph(el.Paragraph)
		info := ParagraphInfo{
			Text:         p.GetText(),
			StyleID:      p.StyleID,
			HeadingLevel: p.HeadingLevel,
		}
		info.StyleName = r.styleName(p.StyleID)
		r.paragraphs = append(r.paragraphs, info)
	}
}

// ============================================================================
// Model reconstruction
// ============================================================================

func (r *Reader) buildBlocks(elems []bodyElement) ([]model.Block, error) {
	var blocks []model.Block
	for _, el := range elems {
		switch {
		case el.Table != nil:
			t, err := r.buildTable(el.Table)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, t)
		case el.Paragraph != nil:
			more, err := r.paragraphBlocks(el.Paragraph)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, more...)
		}
	}
	return blocks, nil
}

// paragraphBlocks maps one w:p to model blocks. A paragraph holding only a
// page break, only a bottom border, or pictures maps to the matching
// non-text blocks.
func (r *Reader) paragraphBlocks(px *paragraphXML) ([]model.Block, error) {
	if isPageBreakParagraph(px) {
		return []model.Block{model.PageBreak{}}, nil
	}
	if len(px.Content) == 0 && px.Properties.Borders != nil && px.Properties.Borders.Bottom != nil {
		return []model.Block{model.HorizontalRule{}}, nil
	}

	var blocks []model.Block
	for _, in := range px.Content {
		if in.Run == nil {
			continue
		}
		for _, c := range in.Run.Content {
			if c.Drawing == nil {
				continue
			}
			img, err := r.buildImage(c.Drawing)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, img)
		}
	}

	p := r.buildParagraph(px)
	if len(blocks) == 0 || strings.TrimSpace(p.GetText()) != "" {
		blocks = append(blocks, p)
	}
	return blocks, nil
}

func (r *Reader) buildParagraph(px *paragraphXML) *model.Paragraph {
	props := px.Properties
	p := &model.Paragraph{
		StyleID:       props.Style.Val,
		Alignment:     parseJustification(props.Justification.Val),
		Indent:        parseTwips(firstNonEmpty(props.Indent.Left, props.Indent.Start)),
		SpacingBefore: parseTwips(props.Spacing.Before),
		SpacingAfter:  parseTwips(props.Spacing.After),
	}
	if props.Borders != nil && props.Borders.Left != nil && props.Borders.Left.Val != "nil" {
		p.BorderLeft = true
	}
	if props.Shading != nil && props.Shading.Fill != "" && props.Shading.Fill != "auto" {
		p.Shading = props.Shading.Fill
	}
	if ok, level := r.isHeadingStyle(p.StyleID); ok {
		p.HeadingLevel = level
	} else if lvl := parseOutlineLevel(props.OutlineLvl.Val); props.OutlineLvl.Val != "" && lvl >= 0 {
		p.HeadingLevel = lvl + 1
	}

	for _, in := range px.Content {
		switch {
		case in.Run != nil:
			p.Runs = appendRunContent(p.Runs, in.Run, "")
		case in.Hyperlink != nil:
			target := r.hyperlinkTarget(in.Hyperlink)
			for i := range in.Hyperlink.Runs {
				p.Runs = appendRunContent(p.Runs, &in.Hyperlink.Runs[i], target)
			}
		}
	}
	if len(p.Runs) == 0 {
		p.Runs = []model.Run{{}}
	}
	return p
}

// appendRunContent converts a w:r into model runs, merging text with the
// previous run when the styles match.
func appendRunContent(runs []model.Run, rx *runXML, link string) []model.Run {
	style := runStyle(rx.Properties)
	style.Hyperlink = link

	add := func(text string) {
		if text == "" {
			return
		}
		if n := len(runs); n > 0 && !runs[n-1].Break && runs[n-1].Style == style {
			runs[n-1].Text += text
			return
		}
		runs = append(runs, model.Run{Text: text, Style: style})
	}

	for _, c := range rx.Content {
		switch {
		case c.Tab:
			add("\t")
		case c.IsBreak:
			if c.Break == "page" {
				add("\n")
				continue
			}
			runs = append(runs, model.Run{Break: true, Style: style})
		case c.Drawing != nil:
		default:
			add(c.Text)
		}
	}
	return runs
}

func runStyle(props runPropsXML) model.RunStyle {
	s := model.RunStyle{
		Bold:       props.Bold.present(),
		Italic:     props.Italic.present(),
		Strike:     props.Strike.present(),
		Underline:  props.Underline.present() && props.Underline.Val != "none",
		FontFamily: firstNonEmpty(props.Fonts.ASCII, props.Fonts.HAnsi),
	}
	if c := props.Color.Val; c != "" && c != "auto" {
		s.Color = c
	}
	if v := parseHalfPoints(props.Size.Val); v > 0 {
		s.FontSize = v
	}
	switch props.VertAlign.Val {
	case "superscript":
		s.VertAlign = model.VertAlignSuperscript
	case "subscript":
		s.VertAlign = model.VertAlignSubscript
	}
	return s
}

func (r *Reader) hyperlinkTarget(h *hyperlinkXML) string {
	if h.ID != "" {
		if rel, ok := r.rels[h.ID]; ok {
			return rel.Target
		}
	}
	if h.Anchor != "" {
		return "#" + h.Anchor
	}
	return ""
}

func (r *Reader) buildTable(tx *tableXML) (*model.Table, error) {
	rows := make([][]model.Cell, 0, len(tx.Rows))
	for _, row := range tx.Rows {
		header := row.Properties.Header != nil
		cells := make([]model.Cell, 0, len(row.Cells))
		for i := range row.Cells {
			cx := &row.Cells[i]
			blocks, err := r.buildBlocks(cx.Elements)
			if err != nil {
				return nil, err
			}
			span, _ := strconv.Atoi(cx.Properties.GridSpan.Val)
			if span < 1 {
				span = 1
			}
			cells = append(cells, model.Cell{Blocks: blocks, IsHeader: header, ColSpan: span})
		}
		rows = append(rows, cells)
	}
	return model.NewTable(rows), nil
}

func (r *Reader) buildImage(dr *drawingXML) (*model.Image, error) {
	rel, ok := r.rels[dr.Inline.Blip.Embed]
	if !ok {
		return nil, fmt.Errorf("image relationship %q not found", dr.Inline.Blip.Embed)
	}
	name := path.Join("word", rel.Target)
	data, err := r.getFileContent(name)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return &model.Image{
		Data:    data,
		Format:  model.ParseImageFormat(strings.TrimPrefix(path.Ext(name), ".")),
		Width:   int(dr.Inline.Extent.Cx / emuPerPixel),
		Height:  int(dr.Inline.Extent.Cy / emuPerPixel),
		AltText: dr.Inline.DocPr.Descr,
	}, nil
}

func isPageBreakParagraph(px *paragraphXML) bool {
	found := false
	for _, in := range px.Content {
		if in.Run == nil {
			return false
		}
		for _, c := range in.Run.Content {
			switch {
			case c.IsBreak && c.Break == "page":
				found = true
			case c.Text == "" && !c.Tab && !c.IsBreak && c.Drawing == nil:
			default:
				return false
			}
		}
	}
	return found
}

// ============================================================================
// Styles
// ============================================================================

func (r *Reader) styleName(styleID string) string {
	if r.styles == nil || styleID == "" {
		return ""
	}
	for _, style := range r.styles.Styles {
		if style.StyleID == styleID {
			return style.Name.Val
		}
	}
	return ""
}

// isHeadingStyle determines if a style ID represents a heading.
func (r *Reader) isHeadingStyle(styleID string) (bool, int) {
	if styleID == "" {
		return false, 0
	}
	lower := strings.ToLower(styleID)

	// Standard Word heading style IDs
	if strings.HasPrefix(lower, "heading") {
		if n, err := strconv.Atoi(strings.TrimPrefix(lower, "heading")); err == nil && n >= 1 && n <= 9 {
			return true, n
		}
	}
	if lower == "title" {
		return true, 1
	}

	// Check style definitions for outline level
	if r.styles != nil {
		for _, style := range r.styles.Styles {
			if !strings.EqualFold(style.StyleID, styleID) {
				continue
			}
			if style.PPr.OutlineLvl.Val != "" {
				// OutlineLvl is 0-based in OOXML
				if level := parseOutlineLevel(style.PPr.OutlineLvl.Val); level >= 0 {
					return true, level + 1
				}
			}
			if strings.Contains(strings.ToLower(style.Name.Val), "heading") {
				return true, 1
			}
		}
	}

	return false, 0
}

// parseOutlineLevel parses an outline level string to an integer.
func parseOutlineLevel(s string) int {
	level, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || level < 0 || level > 8 {
		return -1
	}
	return level
}

func parseJustification(val string) model.TextAlignment {
	switch val {
	case "center":
		return model.AlignCenter
	case "right", "end":
		return model.AlignRight
	case "both", "distribute":
		return model.AlignJustify
	}
	return model.AlignLeft
}

// Word uses half-points for font sizes (e.g., "24" = 12pt).
func parseHalfPoints(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v / 2
}

// parseTwips converts twentieths of a point to points.
func parseTwips(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v / 20
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
