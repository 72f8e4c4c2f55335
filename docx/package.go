package docx

import (
	"archive/zip"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/tsawler/quire/model"
)

// Application is recorded in docProps/app.xml.
const Application = "quire"

// Flush writes the package to out. The Writer must not be used afterwards.
func (w *Writer) Flush(out io.Writer) error {
	w.appendSectionProps()

	zw := zip.NewWriter(out)
	parts := []struct {
		name string
		doc  *etree.Document
	}{
		{"[Content_Types].xml", w.contentTypes()},
		{"_rels/.rels", packageRels()},
		{"docProps/core.xml", w.coreProperties()},
		{"docProps/app.xml", w.appProperties()},
		{"word/document.xml", w.doc},
		{"word/styles.xml", buildStyles()},
		{"word/_rels/document.xml.rels", w.documentRels()},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := p.doc.WriteTo(f); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}

	for _, m := range w.media {
		// Images are already compressed
		f, err := zw.CreateHeader(&zip.FileHeader{Name: "word/media/" + m.Name, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("creating media %s: %w", m.Name, err)
		}
		if _, err := f.Write(m.Data); err != nil {
			return fmt.Errorf("writing media %s: %w", m.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

func (w *Writer) appendSectionProps() {
	sect := w.body.CreateElement("w:sectPr")
	size := sect.CreateElement("w:pgSz")
	size.CreateAttr("w:w", strconv.Itoa(pageWidth))
	size.CreateAttr("w:h", strconv.Itoa(pageHeight))
	mar := sect.CreateElement("w:pgMar")
	for _, side := range []string{"top", "right", "bottom", "left"} {
		mar.CreateAttr("w:"+side, strconv.Itoa(pageMargin))
	}
	mar.CreateAttr("w:header", "720")
	mar.CreateAttr("w:footer", "720")
	mar.CreateAttr("w:gutter", "0")
}

func newPart() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	return doc
}

func (w *Writer) contentTypes() *etree.Document {
	doc := newPart()
	types := doc.CreateElement("Types")
	types.CreateAttr("xmlns", nsCT)

	def := func(ext, ct string) {
		e := types.CreateElement("Default")
		e.CreateAttr("Extension", ext)
		e.CreateAttr("ContentType", ct)
	}
	def("rels", "application/vnd.openxmlformats-package.relationships+xml")
	def("xml", "application/xml")

	seen := make(map[model.ImageFormat]bool)
	for _, m := range w.media {
		if !seen[m.Format] {
			seen[m.Format] = true
			def(strings.TrimPrefix(m.Format.Extension(), "."), m.Format.ContentType())
		}
	}

	override := func(part, ct string) {
		e := types.CreateElement("Override")
		e.CreateAttr("PartName", part)
		e.CreateAttr("ContentType", ct)
	}
	override("/word/document.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml")
	override("/word/styles.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml")
	override("/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	return doc
}

func packageRels() *etree.Document {
	doc := newPart()
	rels := doc.CreateElement("Relationships")
	rels.CreateAttr("xmlns", nsPR)
	for _, r := range []relationship{
		{ID: "rId1", Type: relOfficeDocument, Target: "word/document.xml"},
		{ID: "rId2", Type: relCoreProps, Target: "docProps/core.xml"},
		{ID: "rId3", Type: relExtendedProps, Target: "docProps/app.xml"},
	} {
		writeRelationship(rels, r)
	}
	return doc
}

func (w *Writer) documentRels() *etree.Document {
	doc := newPart()
	rels := doc.CreateElement("Relationships")
	rels.CreateAttr("xmlns", nsPR)
	for _, r := range w.rels {
		writeRelationship(rels, r)
	}
	return doc
}

func writeRelationship(parent *etree.Element, r relationship) {
	e := parent.CreateElement("Relationship")
	e.CreateAttr("Id", r.ID)
	e.CreateAttr("Type", r.Type)
	e.CreateAttr("Target", sanitize(r.Target))
	if r.External {
		e.CreateAttr("TargetMode", "External")
	}
}

func (w *Writer) coreProperties() *etree.Document {
	doc := newPart()
	cp := doc.CreateElement("cp:coreProperties")
	cp.CreateAttr("xmlns:cp", nsCP)
	cp.CreateAttr("xmlns:dc", nsDC)
	cp.CreateAttr("xmlns:dcterms", nsDCT)
	cp.CreateAttr("xmlns:xsi", nsXSI)

	text := func(tag, val string) {
		if val = sanitize(strings.TrimSpace(val)); val != "" {
			cp.CreateElement(tag).SetText(val)
		}
	}
	text("dc:title", w.meta.Title)
	text("dc:subject", w.meta.Subject)
	text("dc:creator", w.meta.Author)
	text("cp:keywords", strings.Join(w.meta.Keywords, ", "))
	text("dc:description", w.meta.Custom["description"])
	text("cp:lastModifiedBy", w.meta.Author)

	stamp := w.created.Format(time.RFC3339)
	for _, tag := range []string{"dcterms:created", "dcterms:modified"} {
		e := cp.CreateElement(tag)
		e.CreateAttr("xsi:type", "dcterms:W3CDTF")
		e.SetText(stamp)
	}
	return doc
}

func (w *Writer) appProperties() *etree.Document {
	doc := newPart()
	props := doc.CreateElement("Properties")
	props.CreateAttr("xmlns", nsEP)
	props.CreateElement("Application").SetText(Application)
	props.CreateElement("Words").SetText(strconv.Itoa(w.words))
	props.CreateElement("Characters").SetText(strconv.Itoa(w.characters))
	props.CreateElement("Paragraphs").SetText(strconv.Itoa(w.paragraphs))
	return doc
}
