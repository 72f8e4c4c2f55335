package docx

import "encoding/xml"

// XML namespaces used in DOCX files
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsDC  = "http://purl.org/dc/elements/1.1/"
	nsCP  = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDCT = "http://purl.org/dc/terms/"
	nsXSI = "http://www.w3.org/2001/XMLSchema-instance"
	nsEP  = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
	nsPR  = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsCT  = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Relationship types
const (
	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// documentXML represents the structure of word/document.xml
type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    *bodyXML `xml:"body"`
}

// bodyXML represents the document body. Paragraphs and tables are kept in
// document order.
type bodyXML struct {
	Elements []bodyElement
}

func (b *bodyXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	elems, err := decodeBlocks(d, nil)
	b.Elements = elems
	return err
}

// bodyElement represents an element in the document body (paragraph or table).
type bodyElement struct {
	Paragraph *paragraphXML
	Table     *tableXML
}

// decodeBlocks reads <w:p> and <w:tbl> children up to the end of the
// current element. Other children go to other, or are skipped when it is nil.
func decodeBlocks(d *xml.Decoder, other func(xml.StartElement) error) ([]bodyElement, error) {
	var elems []bodyElement
	for {
		tok, err := d.Token()
		if err != nil {
			return elems, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				p := &paragraphXML{}
				if err := d.DecodeElement(p, &t); err != nil {
					return elems, err
				}
				elems = append(elems, bodyElement{Paragraph: p})
			case "tbl":
				tbl := &tableXML{}
				if err := d.DecodeElement(tbl, &t); err != nil {
					return elems, err
				}
				elems = append(elems, bodyElement{Table: tbl})
			default:
				if other != nil {
					if err := other(t); err != nil {
						return elems, err
					}
					continue
				}
				if err := d.Skip(); err != nil {
					return elems, err
				}
			}
		case xml.EndElement:
			return elems, nil
		}
	}
}

// paragraphXML represents a paragraph element (<w:p>). Runs and hyperlinks
// are kept in order in Content.
type paragraphXML struct {
	Properties paragraphPropsXML
	Content    []inlineXML
}

// inlineXML is a run, or a hyperlink wrapping runs.
type inlineXML struct {
	Run       *runXML
	Hyperlink *hyperlinkXML
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := d.DecodeElement(&p.Properties, &t); err != nil {
					return err
				}
			case "r":
				r := &runXML{}
				if err := d.DecodeElement(r, &t); err != nil {
					return err
				}
				p.Content = append(p.Content, inlineXML{Run: r})
			case "hyperlink":
				h := &hyperlinkXML{}
				if err := d.DecodeElement(h, &t); err != nil {
					return err
				}
				p.Content = append(p.Content, inlineXML{Hyperlink: h})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// paragraphPropsXML represents paragraph properties (<w:pPr>).
type paragraphPropsXML struct {
	Style         valXML       `xml:"pStyle"`
	Justification valXML       `xml:"jc"`
	Spacing       spacingXML   `xml:"spacing"`
	Indent        indentXML    `xml:"ind"`
	OutlineLvl    valXML       `xml:"outlineLvl"`
	Borders       *pBordersXML `xml:"pBdr"`
	Shading       *shadingXML  `xml:"shd"`
}

// valXML is the common single w:val attribute element.
type valXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

// present reports whether the element appeared, and for toggles like <w:b>
// whether it is on.
func (v valXML) present() bool {
	return v.XMLName.Local != "" && v.Val != "false" && v.Val != "0"
}

// spacingXML represents paragraph spacing.
type spacingXML struct {
	Before string `xml:"before,attr"`
	After  string `xml:"after,attr"`
}

// indentXML represents paragraph indentation.
type indentXML struct {
	Left  string `xml:"left,attr"`
	Start string `xml:"start,attr"`
}

type pBordersXML struct {
	Left   *borderXML `xml:"left"`
	Bottom *borderXML `xml:"bottom"`
}

type borderXML struct {
	Val string `xml:"val,attr"`
}

type shadingXML struct {
	Fill string `xml:"fill,attr"`
}

// runXML represents a text run (<w:r>). Text, tabs, breaks and drawings
// are kept in order in Content.
type runXML struct {
	Properties runPropsXML
	Content    []runContent
}

type runContent struct {
	Text    string
	Tab     bool
	Break   string // break type; "textWrapping" for line breaks
	IsBreak bool
	Drawing *drawingXML
}

func (r *runXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := d.DecodeElement(&r.Properties, &t); err != nil {
					return err
				}
			case "t":
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, runContent{Text: s})
			case "tab":
				r.Content = append(r.Content, runContent{Tab: true})
				if err := d.Skip(); err != nil {
					return err
				}
			case "br", "cr":
				typ := "textWrapping"
				for _, a := range t.Attr {
					if a.Name.Local == "type" {
						typ = a.Value
					}
				}
				r.Content = append(r.Content, runContent{IsBreak: true, Break: typ})
				if err := d.Skip(); err != nil {
					return err
				}
			case "drawing":
				dr := &drawingXML{}
				if err := d.DecodeElement(dr, &t); err != nil {
					return err
				}
				r.Content = append(r.Content, runContent{Drawing: dr})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// runPropsXML represents run properties (<w:rPr>).
type runPropsXML struct {
	Style     valXML   `xml:"rStyle"`
	Fonts     fontsXML `xml:"rFonts"`
	Bold      valXML   `xml:"b"`
	Italic    valXML   `xml:"i"`
	Strike    valXML   `xml:"strike"`
	Color     valXML   `xml:"color"`
	Size      valXML   `xml:"sz"`
	Underline valXML   `xml:"u"`
	VertAlign valXML   `xml:"vertAlign"`
}

// fontsXML represents font settings.
type fontsXML struct {
	ASCII string `xml:"ascii,attr"`
	HAnsi string `xml:"hAnsi,attr"`
}

// hyperlinkXML represents a hyperlink element.
type hyperlinkXML struct {
	ID     string   `xml:"id,attr"`
	Anchor string   `xml:"anchor,attr"`
	Runs   []runXML `xml:"r"`
}

// drawingXML holds the parts of an inline picture the reader needs.
type drawingXML struct {
	Inline struct {
		Extent struct {
			Cx int64 `xml:"cx,attr"`
			Cy int64 `xml:"cy,attr"`
		} `xml:"extent"`
		DocPr struct {
			Descr string `xml:"descr,attr"`
		} `xml:"docPr"`
		Blip struct {
			Embed string `xml:"embed,attr"`
		} `xml:"graphic>graphicData>pic>blipFill>blip"`
	} `xml:"inline"`
}

// tableXML represents a table element (<w:tbl>).
type tableXML struct {
	Grid struct {
		Cols []struct {
			W string `xml:"w,attr"`
		} `xml:"gridCol"`
	} `xml:"tblGrid"`
	Rows []tableRowXML `xml:"tr"`
}

// tableRowXML represents a table row (<w:tr>).
type tableRowXML struct {
	Properties struct {
		Header *struct{} `xml:"tblHeader"`
	} `xml:"trPr"`
	Cells []tableCellXML `xml:"tc"`
}

// tableCellXML represents a table cell (<w:tc>). Its blocks are kept in
// order, like the body's.
type tableCellXML struct {
	Properties tableCellPropsXML
	Elements   []bodyElement
}

func (c *tableCellXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	elems, err := decodeBlocks(d, func(t xml.StartElement) error {
		if t.Name.Local == "tcPr" {
			return d.DecodeElement(&c.Properties, &t)
		}
		return d.Skip()
	})
	c.Elements = elems
	return err
}

// tableCellPropsXML represents cell properties.
type tableCellPropsXML struct {
	GridSpan valXML      `xml:"gridSpan"`
	Shading  *shadingXML `xml:"shd"`
}

// relationshipsXML represents _rels/*.rels files
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

// relationshipXML represents a single relationship.
type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"` // External or empty (internal)
}

// corePropertiesXML represents docProps/core.xml (Dublin Core metadata)
type corePropertiesXML struct {
	XMLName     xml.Name `xml:"coreProperties"`
	Title       string   `xml:"title"`
	Subject     string   `xml:"subject"`
	Creator     string   `xml:"creator"`
	Keywords    string   `xml:"keywords"`
	Description string   `xml:"description"`
	Created     string   `xml:"created"`
	Modified    string   `xml:"modified"`
}

// appPropertiesXML represents docProps/app.xml
type appPropertiesXML struct {
	XMLName     xml.Name `xml:"Properties"`
	Application string   `xml:"Application"`
	Words       string   `xml:"Words"`
	Characters  string   `xml:"Characters"`
	Paragraphs  string   `xml:"Paragraphs"`
}
