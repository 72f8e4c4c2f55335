// Package quire provides a fluent API for converting HTML, XML, Markdown and
// EPUB content into Word (.docx) documents.
//
// Basic usage:
//
//	warnings, err := quire.Open("page.html").SaveDOCX("page.docx")
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", quire.FormatWarnings(warnings))
//	}
//
// With options:
//
//	doc, _, err := quire.Open("catalog.xml").
//	    Heuristic().
//	    TagRole("entry", "listitem").
//	    Title("Catalog").
//	    Document()
//
// For advanced use cases, the lower-level convert and docx packages are also
// available.
package quire

import (
	"fmt"
	"io"
	"os"

	"github.com/tsawler/quire/format"
)

// Open returns a Converter for a file. The format is detected from the
// content and the file extension when a terminal operation runs.
//
// Example:
//
//	warnings, err := quire.Open("page.html").SaveDOCX("page.docx")
func Open(filename string) *Converter {
	return &Converter{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromString returns a Converter for in-memory markup. The format is
// sniffed from the content; anything unrecognised is treated as HTML.
//
// Example:
//
//	doc, _, err := quire.FromString("<h1>Hi</h1><p>there</p>").Document()
func FromString(s string) *Converter {
	return FromBytes([]byte(s))
}

// FromBytes is like FromString for a byte slice. The slice is not copied.
func FromBytes(data []byte) *Converter {
	return &Converter{
		data:    data,
		loaded:  true,
		options: defaultOptions(),
	}
}

// FromReader reads r fully and returns a Converter for its content. Read
// errors surface from the terminal operation.
//
// Example:
//
//	resp, _ := http.Get(url)
//	defer resp.Body.Close()
//	warnings, err := quire.FromReader(resp.Body).WriteDOCX(w)
func FromReader(r io.Reader) *Converter {
	c := &Converter{loaded: true, options: defaultOptions()}
	data, err := io.ReadAll(r)
	if err != nil {
		c.err = fmt.Errorf("reading input: %w", err)
		return c
	}
	c.data = data
	return c
}

// DetectFile reports the format of a file without converting it.
func DetectFile(filename string) (format.Format, error) {
	f, err := os.Open(filename)
	if err != nil {
		return format.Unknown, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return format.Unknown, err
	}
	return format.DetectFile(filename, f, info.Size())
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	f := quire.Must(quire.DetectFile("page.html"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustDocument is a helper that wraps a call to Document() or Text() and
// panics if the error is non-nil. It discards warnings and returns just the
// value.
//
// Example:
//
//	doc := quire.MustDocument(quire.FromString(html).Document())
func MustDocument[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
