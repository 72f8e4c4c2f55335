package epub

import (
	"encoding/xml"
	"errors"
	"io/fs"
	"path"
	"strings"
	"time"
)

// OPF-related errors.
var (
	ErrNoOPF      = errors.New("epub: missing package document (OPF)")
	ErrInvalidOPF = errors.New("epub: invalid package document")
	ErrEmptySpine = errors.New("epub: no content in spine")
)

// opfPackage represents the OPF package document.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Items    []opfItem   `xml:"manifest>item"`
	Spine    []opfRef    `xml:"spine>itemref"`
}

type opfMetadata struct {
	Title       []string  `xml:"title"`
	Creator     []string  `xml:"creator"`
	Language    []string  `xml:"language"`
	Identifier  []string  `xml:"identifier"`
	Publisher   []string  `xml:"publisher"`
	Date        []string  `xml:"date"`
	Description []string  `xml:"description"`
	Subject     []string  `xml:"subject"`
	Rights      []string  `xml:"rights"`
	Meta        []opfMeta `xml:"meta"`
}

type opfMeta struct {
	Property string `xml:"property,attr"`
	Name     string `xml:"name,attr"`    // EPUB 2 style
	Content  string `xml:"content,attr"` // EPUB 2 style
	Value    string `xml:",chardata"`    // EPUB 3 style
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// parseOPF reads the package document and returns it with the directory
// that relative hrefs resolve against.
func parseOPF(fsys fs.FS, opfPath string) (*Package, string, error) {
	data, err := fs.ReadFile(fsys, opfPath)
	if err != nil {
		return nil, "", ErrNoOPF
	}

	baseDir := path.Dir(opfPath)
	if baseDir == "." {
		baseDir = ""
	}

	var opf opfPackage
	if err := xml.Unmarshal(data, &opf); err != nil {
		return nil, "", ErrInvalidOPF
	}

	pkg := &Package{
		Version:  opf.Version,
		Metadata: convertMetadata(&opf.Metadata),
		Manifest: make(map[string]ManifestItem, len(opf.Items)),
		Spine:    make([]SpineItem, 0, len(opf.Spine)),
	}
	for _, item := range opf.Items {
		pkg.Manifest[item.ID] = ManifestItem{
			ID:         item.ID,
			Href:       item.Href,
			MediaType:  item.MediaType,
			Properties: strings.Fields(item.Properties),
		}
	}
	for _, ref := range opf.Spine {
		pkg.Spine = append(pkg.Spine, SpineItem{
			IDRef:  ref.IDRef,
			Linear: ref.Linear != "no", // Default is true
		})
	}

	if len(pkg.Spine) == 0 {
		return nil, "", ErrEmptySpine
	}
	return pkg, baseDir, nil
}

func convertMetadata(m *opfMetadata) Metadata {
	meta := Metadata{
		Title:       first(m.Title),
		Creator:     nonEmpty(m.Creator),
		Language:    first(m.Language),
		Identifier:  first(m.Identifier),
		Publisher:   first(m.Publisher),
		Date:        first(m.Date),
		Description: first(m.Description),
		Subjects:    nonEmpty(m.Subject),
		Rights:      first(m.Rights),
	}

	// EPUB 3 records the modification date in a meta property
	for _, mt := range m.Meta {
		if mt.Property == "dcterms:modified" {
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(mt.Value)); err == nil {
				meta.Modified = t
			}
		}
	}
	return meta
}

// first returns the first non-empty trimmed value.
func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
