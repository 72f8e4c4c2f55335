package quire

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/convert"
	"github.com/tsawler/quire/docx"
	"github.com/tsawler/quire/epub"
	"github.com/tsawler/quire/format"
	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// Converter provides a fluent interface for converting markup into DOCX.
// Each configuration method returns a new Converter instance, making it
// safe for concurrent use and allowing method chaining.
type Converter struct {
	// Source: a file name, or in-memory data when loaded is set
	filename string
	data     []byte
	loaded   bool

	// Configuration
	options ConvertOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Converter with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (c *Converter) clone() *Converter {
	return &Converter{
		filename: c.filename,
		data:     c.data,
		loaded:   c.loaded,
		options:  c.options.clone(),
		err:      c.err,
	}
}

// ============================================================================
// Configuration Methods (return new Converter instance)
// ============================================================================

// As forces the input format instead of detecting it.
//
// Example:
//
//	doc, _, err := quire.FromString(data).As(format.XML).Document()
func (c *Converter) As(f format.Format) *Converter {
	n := c.clone()
	n.options.format = f
	return n
}

// WithOptions replaces all engine options, for callers that build
// convert.Options themselves (for example from a config file).
func (c *Converter) WithOptions(opts convert.Options) *Converter {
	n := c.clone()
	n.options.engine = opts.Clone()
	return n
}

// PreserveWhitespace keeps literal whitespace instead of collapsing it.
func (c *Converter) PreserveWhitespace() *Converter {
	n := c.clone()
	n.options.engine.PreserveWhitespace = true
	return n
}

// NoImages skips images entirely, without placeholders.
func (c *Converter) NoImages() *Converter {
	n := c.clone()
	n.options.engine.IncludeImages = false
	return n
}

// Title sets the document title, overriding the source's <title>.
func (c *Converter) Title(title string) *Converter {
	n := c.clone()
	n.options.engine.Title = title
	return n
}

// Author sets the document author.
func (c *Converter) Author(author string) *Converter {
	n := c.clone()
	n.options.engine.Author = author
	return n
}

// Subject sets the document subject.
func (c *Converter) Subject(subject string) *Converter {
	n := c.clone()
	n.options.engine.Subject = subject
	return n
}

// Classifier sets the tag classification strategy.
func (c *Converter) Classifier(cl classify.Classifier) *Converter {
	n := c.clone()
	n.options.engine.Classifier = cl
	return n
}

// Heuristic classifies tags by keyword matching, for XML vocabularies
// that are not HTML. XML input uses it unless another classifier is set.
//
// Example:
//
//	doc, _, err := quire.Open("report.xml").Heuristic().Document()
func (c *Converter) Heuristic() *Converter {
	return c.Classifier(classify.NewHeuristic())
}

// TagRole maps a tag to a role name such as "heading2", "bold" or "ignore".
// An unknown role name fails the terminal operation.
//
// Example:
//
//	doc, _, err := quire.Open("book.xml").
//	    TagRole("chapter-title", "heading1").
//	    TagRole("aside", "ignore").
//	    Document()
func (c *Converter) TagRole(tag, role string) *Converter {
	n := c.clone()
	if n.err != nil {
		return n
	}
	r, err := classify.ParseRole(role)
	if err != nil {
		n.err = fmt.Errorf("tag %q: %w", tag, err)
		return n
	}
	if n.options.engine.TagRoles == nil {
		n.options.engine.TagRoles = make(map[string]classify.Role)
	}
	n.options.engine.TagRoles[tag] = r
	return n
}

// TagRoles merges a tag-to-role mapping into the custom mapping.
func (c *Converter) TagRoles(roles map[string]classify.Role) *Converter {
	n := c.clone()
	if n.options.engine.TagRoles == nil {
		n.options.engine.TagRoles = make(map[string]classify.Role, len(roles))
	}
	for tag, r := range roles {
		n.options.engine.TagRoles[tag] = r
	}
	return n
}

// HeaderRow controls whether the first row of every table is a header row.
func (c *Converter) HeaderRow(enabled bool) *Converter {
	n := c.clone()
	n.options.engine.HeaderRow = enabled
	return n
}

// MaxDepth bounds element nesting. Deeper input fails with
// convert.ErrStructureTooDeep.
func (c *Converter) MaxDepth(depth int) *Converter {
	n := c.clone()
	n.options.engine.MaxDepth = depth
	return n
}

// MaxImageBytes bounds a single local image read.
func (c *Converter) MaxImageBytes(size int64) *Converter {
	n := c.clone()
	n.options.engine.MaxImageBytes = size
	return n
}

// BaseDir sets the directory relative image paths resolve against. Files
// opened with Open default to their own directory.
func (c *Converter) BaseDir(dir string) *Converter {
	n := c.clone()
	n.options.engine.BaseDir = dir
	return n
}

// Resources resolves local images inside fsys instead of the filesystem.
func (c *Converter) Resources(fsys fs.FS) *Converter {
	n := c.clone()
	n.options.engine.Resources = fsys
	return n
}

// ExcludeNavigation skips navigation and boilerplate content.
//
// Example:
//
//	warnings, err := quire.Open("article.html").
//	    ExcludeNavigation(convert.NavigationExclusionStandard).
//	    SaveDOCX("article.docx")
func (c *Converter) ExcludeNavigation(mode convert.NavigationExclusion) *Converter {
	n := c.clone()
	n.options.engine.Navigation = mode
	return n
}

// Highlight colours code blocks with the named chroma style. An empty name
// keeps the current style.
func (c *Converter) Highlight(style string) *Converter {
	n := c.clone()
	n.options.engine.HighlightCode = true
	if style != "" {
		n.options.engine.CodeStyle = style
	}
	return n
}

// NoHighlight disables code colouring.
func (c *Converter) NoHighlight() *Converter {
	n := c.clone()
	n.options.engine.HighlightCode = false
	return n
}

// Logger receives conversion diagnostics.
func (c *Converter) Logger(log *zap.Logger) *Converter {
	n := c.clone()
	n.options.engine.Logger = log
	return n
}

// ============================================================================
// Terminal Methods
// ============================================================================

// Format reports the detected (or forced) input format.
func (c *Converter) Format() (format.Format, error) {
	if c.err != nil {
		return format.Unknown, c.err
	}
	src, err := c.openSource()
	if err != nil {
		return format.Unknown, err
	}
	src.Close()
	return src.format, nil
}

// Document converts the input into a document model.
//
// Example:
//
//	doc, warnings, err := quire.Open("page.html").Document()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(doc.Stats().Words)
func (c *Converter) Document() (*model.Document, []Warning, error) {
	if c.err != nil {
		return nil, nil, c.err
	}

	src, err := c.openSource()
	if err != nil {
		return nil, nil, err
	}
	defer src.Close()

	opts := c.options.forFormat(src.format)
	if opts.BaseDir == "" && opts.Resources == nil && c.filename != "" {
		opts.BaseDir = filepath.Dir(c.filename)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("converting",
		zap.String("source", c.sourceName()),
		zap.Stringer("format", src.format))

	if src.format == format.EPUB {
		book, err := epub.OpenReader(src.readerAt, src.size)
		if err != nil {
			return nil, nil, err
		}
		defer book.Close()
		return book.Document(opts)
	}

	var parsed *markup.Document
	switch src.format {
	case format.HTML:
		parsed, err = markup.ParseHTML(src.reader(), "")
	case format.XML:
		parsed, err = markup.ParseXML(src.reader())
	case format.Markdown:
		parsed, err = markup.ParseMarkdown(src.reader())
	default:
		return nil, nil, fmt.Errorf("%w: %s is not a conversion input", format.ErrUnknownFormat, src.format)
	}
	if err != nil {
		return nil, nil, err
	}

	return convert.Convert(parsed, opts)
}

// Text converts the input and returns its plain text.
//
// Example:
//
//	text, _, err := quire.FromString(html).Text()
func (c *Converter) Text() (string, []Warning, error) {
	doc, warnings, err := c.Document()
	if err != nil {
		return "", warnings, err
	}
	return doc.PlainText(), warnings, nil
}

// Stats converts the input and reports content statistics.
func (c *Converter) Stats() (model.Stats, []Warning, error) {
	doc, warnings, err := c.Document()
	if err != nil {
		return model.Stats{}, warnings, err
	}
	return doc.Stats(), warnings, nil
}

// WriteDOCX converts the input and writes a .docx package to w.
//
// Example:
//
//	var buf bytes.Buffer
//	warnings, err := quire.FromString(html).WriteDOCX(&buf)
func (c *Converter) WriteDOCX(w io.Writer) ([]Warning, error) {
	doc, warnings, err := c.Document()
	if err != nil {
		return warnings, err
	}
	if err := docx.Write(w, doc); err != nil {
		return warnings, fmt.Errorf("writing docx: %w", err)
	}
	return warnings, nil
}

// SaveDOCX converts the input and saves it as a .docx file. A partially
// written file is removed on failure.
//
// Example:
//
//	warnings, err := quire.Open("notes.md").SaveDOCX("notes.docx")
func (c *Converter) SaveDOCX(filename string) ([]Warning, error) {
	doc, warnings, err := c.Document()
	if err != nil {
		return warnings, err
	}
	if err := docx.Save(filename, doc); err != nil {
		return warnings, fmt.Errorf("saving docx: %w", err)
	}
	return warnings, nil
}

// ============================================================================
// Source handling
// ============================================================================

// source is an opened input with its resolved format.
type source struct {
	format   format.Format
	readerAt io.ReaderAt
	size     int64
	closer   io.Closer
}

func (s *source) reader() io.Reader {
	return io.NewSectionReader(s.readerAt, 0, s.size)
}

func (s *source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (c *Converter) sourceName() string {
	if c.filename != "" {
		return c.filename
	}
	return "<memory>"
}

// openSource opens the file or wraps the in-memory data and resolves the
// format. Files that cannot be identified fail with format.ErrUnknownFormat;
// unidentified in-memory data is treated as HTML.
func (c *Converter) openSource() (*source, error) {
	if c.loaded {
		r := bytes.NewReader(c.data)
		src := &source{readerAt: r, size: r.Size(), format: c.options.format}
		if src.format == format.Unknown {
			f, err := format.DetectFromReader(r, src.size)
			if err != nil {
				return nil, fmt.Errorf("detecting format: %w", err)
			}
			if f == format.Unknown {
				f = format.HTML
			}
			src.format = f
		}
		return src, nil
	}

	if c.filename == "" {
		return nil, fmt.Errorf("no filename specified")
	}
	f, err := os.Open(c.filename)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening input: %w", err)
	}

	src := &source{readerAt: f, size: info.Size(), closer: f, format: c.options.format}
	if src.format == format.Unknown {
		detected, err := format.DetectFile(c.filename, f, src.size)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w", c.filename, err)
		}
		src.format = detected
	}
	return src, nil
}
