// Package format provides input format detection for the quire library.
package format

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned when neither the name nor the content
// identifies a supported format.
var ErrUnknownFormat = errors.New("format: unknown input format")

// Format represents a recognized document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// HTML indicates an HTML or XHTML document.
	HTML
	// XML indicates a generic XML document.
	XML
	// Markdown indicates a CommonMark/GFM document.
	Markdown
	// EPUB indicates an EPUB publication.
	EPUB
	// DOCX indicates a Microsoft Word (.docx) document. It is an output
	// format; detecting it lets callers reject or verify such files.
	DOCX
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case HTML:
		return "HTML"
	case XML:
		return "XML"
	case Markdown:
		return "Markdown"
	case EPUB:
		return "EPUB"
	case DOCX:
		return "DOCX"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case HTML:
		return ".html"
	case XML:
		return ".xml"
	case Markdown:
		return ".md"
	case EPUB:
		return ".epub"
	case DOCX:
		return ".docx"
	default:
		return ""
	}
}

// IsInput reports whether the format can be converted.
func (f Format) IsInput() bool {
	return f == HTML || f == XML || f == Markdown || f == EPUB
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html", ".htm", ".xhtml":
		return HTML
	case ".xml":
		return XML
	case ".md", ".markdown", ".mdown", ".mkd":
		return Markdown
	case ".epub":
		return EPUB
	case ".docx":
		return DOCX
	default:
		return Unknown
	}
}

var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// DetectFromMagic checks leading bytes to determine format. ZIP archives
// return Unknown; use DetectFromReader to look inside them.
func DetectFromMagic(data []byte) Format {
	if bytes.HasPrefix(data, zipMagic) {
		return Unknown
	}
	return detectText(data)
}

// detectText classifies text content by its first non-blank bytes.
func detectText(data []byte) Format {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Unknown
	}

	head := strings.ToUpper(string(data[:min(512, len(data))]))
	switch {
	case strings.HasPrefix(head, "<!DOCTYPE HTML"), strings.HasPrefix(head, "<HTML"):
		return HTML
	case strings.HasPrefix(head, "<?XML"):
		// XHTML carries an html root after the declaration
		if strings.Contains(head, "<HTML") || strings.Contains(head, "<!DOCTYPE HTML") {
			return HTML
		}
		return XML
	case strings.HasPrefix(head, "<!--"):
		if strings.Contains(head, "<HTML") || strings.Contains(head, "<BODY") {
			return HTML
		}
		return XML
	case strings.HasPrefix(head, "<"):
		for _, tag := range []string{"<HEAD", "<BODY", "<DIV", "<P>", "<P ", "<H1", "<TABLE", "<UL", "<SECTION", "<ARTICLE"} {
			if strings.HasPrefix(head, tag) {
				return HTML
			}
		}
		return XML
	}

	if looksLikeMarkdown(string(data[:min(2048, len(data))])) {
		return Markdown
	}
	return Unknown
}

// looksLikeMarkdown reports whether text has block-level Markdown syntax
// on any of its first lines.
func looksLikeMarkdown(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimLeft(line, " ")
		switch {
		case strings.HasPrefix(trimmed, "# "), strings.HasPrefix(trimmed, "## "),
			strings.HasPrefix(trimmed, "### "):
			return true
		case strings.HasPrefix(trimmed, "```"), strings.HasPrefix(trimmed, "~~~"):
			return true
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "),
			strings.HasPrefix(trimmed, "> "):
			return true
		case strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") >= 2:
			return true
		case strings.Contains(line, "](") && strings.Contains(line, "["):
			return true
		}
	}
	return false
}

// DetectFromReader inspects the content to determine format. It can tell
// EPUB from DOCX by looking inside ZIP archives.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 2048)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if bytes.HasPrefix(magic, zipMagic) {
		return detectZIPFormat(r, size)
	}
	return detectText(magic), nil
}

// DetectFile combines the filename and content checks. Content wins when it
// is conclusive; otherwise the extension decides. Unknown results return
// ErrUnknownFormat.
func DetectFile(filename string, r io.ReaderAt, size int64) (Format, error) {
	f, err := DetectFromReader(r, size)
	if err != nil {
		return Unknown, err
	}
	byName := Detect(filename)

	switch {
	case f == Unknown:
		f = byName
	case f == XML && byName == HTML:
		f = HTML
	}
	if f == Unknown {
		return Unknown, ErrUnknownFormat
	}
	return f, nil
}

// detectZIPFormat inspects a ZIP archive to determine if it's EPUB or DOCX.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	// EPUB declares itself in a mimetype entry
	for _, f := range zr.File {
		if f.Name == "mimetype" {
			rc, err := f.Open()
			if err == nil {
				data := make([]byte, 64)
				n, _ := io.ReadFull(rc, data)
				rc.Close()
				if strings.TrimSpace(string(data[:n])) == "application/epub+zip" {
					return EPUB, nil
				}
			}
		}
	}

	for _, f := range zr.File {
		switch {
		case f.Name == "META-INF/container.xml":
			return EPUB, nil
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, nil
		}
	}

	return Unknown, nil
}
