package epub

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io/fs"
	"strings"

	"github.com/tsawler/quire/markup"
)

var errNoNav = errors.New("epub: no toc nav element")

// ncxDocument represents an EPUB 2 NCX navigation document.
type ncxDocument struct {
	XMLName   xml.Name      `xml:"ncx"`
	Title     string        `xml:"docTitle>text"`
	NavPoints []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxNavPoint struct {
	Label   string `xml:"navLabel>text"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

// parseNavigation reads the EPUB 3 nav document, falls back to the EPUB 2
// NCX, and finally to a list generated from the spine.
func (r *Reader) parseNavigation() *TableOfContents {
	if item := r.findNavDocument(); item != nil {
		if data, err := fs.ReadFile(r.fsys, r.resolveHref(item.Href)); err == nil {
			if toc, err := parseNavXHTML(data); err == nil {
				return toc
			}
		}
	}

	if item := r.findNCX(); item != nil {
		if data, err := fs.ReadFile(r.fsys, r.resolveHref(item.Href)); err == nil {
			if toc, err := parseNCX(data); err == nil {
				return toc
			}
		}
	}

	return r.generateTOCFromSpine()
}

// findNavDocument finds the EPUB 3 nav document in the manifest.
func (r *Reader) findNavDocument() *ManifestItem {
	for _, item := range r.pkg.Manifest {
		if item.HasProperty("nav") {
			return &item
		}
	}
	return nil
}

// findNCX finds the NCX document in the manifest.
func (r *Reader) findNCX() *ManifestItem {
	for _, item := range r.pkg.Manifest {
		if item.MediaType == "application/x-dtbncx+xml" {
			return &item
		}
	}
	return nil
}

// parseNavXHTML parses an EPUB 3 nav document: the <nav epub:type="toc">
// element, its heading, and its nested <ol> lists.
func parseNavXHTML(content []byte) (*TableOfContents, error) {
	doc, err := markup.ParseHTML(bytes.NewReader(content), "application/xhtml+xml")
	if err != nil {
		return nil, err
	}

	nav := findTOCNav(doc.Root)
	if nav == nil {
		return nil, errNoNav
	}

	toc := &TableOfContents{}
	for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		if h := nav.Find(tag); h != nil {
			toc.Title = strings.TrimSpace(h.TextContent())
			break
		}
	}
	if ol := nav.Find("ol"); ol != nil {
		toc.Entries = parseOLEntries(ol)
	}
	return toc, nil
}

func findTOCNav(n *markup.Node) *markup.Node {
	if n == nil || !n.IsElement() {
		return nil
	}
	if n.Tag == "nav" {
		typ := n.Attr("epub:type") + " " + n.Attr("type") + " " + n.Attr("role")
		if strings.Contains(typ, "toc") {
			return n
		}
	}
	for _, c := range n.ElementChildren() {
		if found := findTOCNav(c); found != nil {
			return found
		}
	}
	return nil
}

// parseOLEntries parses TOC entries from an <ol> element.
func parseOLEntries(ol *markup.Node) []TOCEntry {
	var entries []TOCEntry
	for _, li := range ol.ElementChildren() {
		if li.Tag != "li" {
			continue
		}
		if entry := parseLIEntry(li); entry.Title != "" || entry.Href != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// parseLIEntry parses a single TOC entry from an <li> element.
func parseLIEntry(li *markup.Node) TOCEntry {
	var entry TOCEntry
	for _, c := range li.ElementChildren() {
		switch c.Tag {
		case "a":
			entry.Title = strings.TrimSpace(c.TextContent())
			entry.Href = c.Attr("href")
		case "span":
			if entry.Title == "" {
				entry.Title = strings.TrimSpace(c.TextContent())
			}
		case "ol":
			entry.Children = parseOLEntries(c)
		}
	}
	return entry
}

// parseNCX parses an EPUB 2 NCX document.
func parseNCX(content []byte) (*TableOfContents, error) {
	var ncx ncxDocument
	if err := xml.Unmarshal(content, &ncx); err != nil {
		return nil, err
	}
	return &TableOfContents{
		Title:   strings.TrimSpace(ncx.Title),
		Entries: convertNCXNavPoints(ncx.NavPoints),
	}, nil
}

func convertNCXNavPoints(points []ncxNavPoint) []TOCEntry {
	entries := make([]TOCEntry, 0, len(points))
	for _, p := range points {
		entries = append(entries, TOCEntry{
			Title:    strings.TrimSpace(p.Label),
			Href:     p.Content.Src,
			Children: convertNCXNavPoints(p.Children),
		})
	}
	return entries
}

// generateTOCFromSpine creates a basic TOC from the chapters when the book
// has no navigation document.
func (r *Reader) generateTOCFromSpine() *TableOfContents {
	toc := &TableOfContents{
		Title:   r.pkg.Metadata.Title,
		Entries: make([]TOCEntry, 0, len(r.chapters)),
	}
	for _, ch := range r.chapters {
		title := ch.Title
		if title == "" {
			title = ch.ID
		}
		toc.Entries = append(toc.Entries, TOCEntry{Title: title, Href: ch.Href})
	}
	return toc
}

// TableOfContents returns the book's table of contents.
func (r *Reader) TableOfContents() *TableOfContents {
	if r.toc == nil {
		r.toc = r.parseNavigation()
	}
	return r.toc
}
