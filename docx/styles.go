package docx

import (
	"encoding/xml"
	"strconv"

	"github.com/beevik/etree"
)

// stylesXML represents the structure of word/styles.xml
type stylesXML struct {
	XMLName xml.Name      `xml:"styles"`
	Styles  []styleDefXML `xml:"style"`
}

// styleDefXML represents a style definition.
type styleDefXML struct {
	Type    string `xml:"type,attr"` // paragraph, character, table
	StyleID string `xml:"styleId,attr"`
	Name    valXML `xml:"name"`
	BasedOn valXML `xml:"basedOn"`
	PPr     struct {
		OutlineLvl valXML `xml:"outlineLvl"`
	} `xml:"pPr"`
}

// Default body font and size (half-points).
const (
	defaultFont     = "Calibri"
	defaultHalfPts  = 22
	codeFont        = "Courier New"
	headingColor    = "1F3864"
	hyperlinkColor  = "0563C1"
	quoteTextColor  = "404040"
	codeHalfPts     = 20
	headingMaxLevel = 6
)

// styleDef describes one entry written to styles.xml.
type styleDef struct {
	typ       string
	id        string
	name      string
	basedOn   string
	next      string
	isDefault bool
	outline   int // heading outline level + 1, 0 for none
	keepNext  bool
	before    int // spacing in twips
	after     int
	indent    int
	font      string
	halfPts   int
	bold      bool
	italic    bool
	underline bool
	color     string
}

// paragraphStyles are the styles paragraphs refer to through StyleID.
func paragraphStyles() []styleDef {
	defs := []styleDef{
		{typ: "paragraph", id: "Normal", name: "Normal", isDefault: true, after: 160},
	}
	for level := 1; level <= headingMaxLevel; level++ {
		size := 24 - 2*level
		if size < 12 {
			size = 12
		}
		defs = append(defs, styleDef{
			typ:      "paragraph",
			id:       "Heading" + strconv.Itoa(level),
			name:     "heading " + strconv.Itoa(level),
			basedOn:  "Normal",
			next:     "Normal",
			outline:  level,
			keepNext: true,
			before:   240,
			after:    120,
			halfPts:  size * 2,
			bold:     true,
			color:    headingColor,
		})
	}
	defs = append(defs,
		styleDef{typ: "paragraph", id: "ListParagraph", name: "List Paragraph", basedOn: "Normal", after: 0, indent: 720},
		styleDef{typ: "paragraph", id: "Quote", name: "Quote", basedOn: "Normal", next: "Normal", italic: true, color: quoteTextColor},
		styleDef{typ: "paragraph", id: "Code", name: "Code", basedOn: "Normal", after: 0, font: codeFont, halfPts: codeHalfPts},
		styleDef{typ: "character", id: "Hyperlink", name: "Hyperlink", underline: true, color: hyperlinkColor},
	)
	return defs
}

// buildStyles generates word/styles.xml.
func buildStyles() *etree.Document {
	doc := newPart()
	styles := doc.CreateElement("w:styles")
	styles.CreateAttr("xmlns:w", nsW)

	defaults := styles.CreateElement("w:docDefaults")
	rpr := defaults.CreateElement("w:rPrDefault").CreateElement("w:rPr")
	fonts := rpr.CreateElement("w:rFonts")
	for _, attr := range []string{"w:ascii", "w:hAnsi", "w:eastAsia", "w:cs"} {
		fonts.CreateAttr(attr, defaultFont)
	}
	setVal(rpr.CreateElement("w:sz"), strconv.Itoa(defaultHalfPts))
	setVal(rpr.CreateElement("w:szCs"), strconv.Itoa(defaultHalfPts))
	setVal(rpr.CreateElement("w:lang"), "en-US")
	sp := defaults.CreateElement("w:pPrDefault").CreateElement("w:pPr").CreateElement("w:spacing")
	sp.CreateAttr("w:after", "160")
	sp.CreateAttr("w:line", "259")
	sp.CreateAttr("w:lineRule", "auto")

	for _, def := range paragraphStyles() {
		writeStyle(styles, def)
	}
	writeTableGridStyle(styles)
	return doc
}

func writeStyle(parent *etree.Element, def styleDef) {
	st := parent.CreateElement("w:style")
	st.CreateAttr("w:type", def.typ)
	if def.isDefault {
		st.CreateAttr("w:default", "1")
	}
	st.CreateAttr("w:styleId", def.id)
	setVal(st.CreateElement("w:name"), def.name)
	if def.basedOn != "" {
		setVal(st.CreateElement("w:basedOn"), def.basedOn)
	}
	if def.next != "" {
		setVal(st.CreateElement("w:next"), def.next)
	}
	st.CreateElement("w:qFormat")

	if def.typ == "paragraph" {
		ppr := st.CreateElement("w:pPr")
		if def.keepNext {
			ppr.CreateElement("w:keepNext")
			ppr.CreateElement("w:keepLines")
		}
		spacing := ppr.CreateElement("w:spacing")
		spacing.CreateAttr("w:before", strconv.Itoa(def.before))
		spacing.CreateAttr("w:after", strconv.Itoa(def.after))
		if def.indent != 0 {
			ppr.CreateElement("w:ind").CreateAttr("w:left", strconv.Itoa(def.indent))
		}
		if def.outline > 0 {
			setVal(ppr.CreateElement("w:outlineLvl"), strconv.Itoa(def.outline-1))
		}
	}

	if def.font == "" && def.halfPts == 0 && !def.bold && !def.italic && !def.underline && def.color == "" {
		return
	}
	rpr := st.CreateElement("w:rPr")
	if def.font != "" {
		fonts := rpr.CreateElement("w:rFonts")
		fonts.CreateAttr("w:ascii", def.font)
		fonts.CreateAttr("w:hAnsi", def.font)
		fonts.CreateAttr("w:cs", def.font)
	}
	if def.bold {
		rpr.CreateElement("w:b")
		rpr.CreateElement("w:bCs")
	}
	if def.italic {
		rpr.CreateElement("w:i")
		rpr.CreateElement("w:iCs")
	}
	if def.color != "" {
		setVal(rpr.CreateElement("w:color"), def.color)
	}
	if def.halfPts > 0 {
		setVal(rpr.CreateElement("w:sz"), strconv.Itoa(def.halfPts))
		setVal(rpr.CreateElement("w:szCs"), strconv.Itoa(def.halfPts))
	}
	if def.underline {
		setVal(rpr.CreateElement("w:u"), "single")
	}
}

func writeTableGridStyle(parent *etree.Element) {
	st := parent.CreateElement("w:style")
	st.CreateAttr("w:type", "table")
	st.CreateAttr("w:styleId", "TableGrid")
	setVal(st.CreateElement("w:name"), "Table Grid")
	setVal(st.CreateElement("w:basedOn"), "TableNormal")
	ppr := st.CreateElement("w:pPr").CreateElement("w:spacing")
	ppr.CreateAttr("w:after", "0")
	ppr.CreateAttr("w:line", "240")
	ppr.CreateAttr("w:lineRule", "auto")

	tblPr := st.CreateElement("w:tblPr")
	borders := tblPr.CreateElement("w:tblBorders")
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		writeBorder(borders.CreateElement("w:"+side), "4", "0", "auto")
	}
	mar := tblPr.CreateElement("w:tblCellMar")
	for _, side := range []string{"left", "right"} {
		m := mar.CreateElement("w:" + side)
		m.CreateAttr("w:w", "108")
		m.CreateAttr("w:type", "dxa")
	}
}
