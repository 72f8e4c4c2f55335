package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/quire/convert"
	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// Reader-related errors.
var (
	ErrInvalidArchive  = errors.New("epub: invalid or corrupted archive")
	ErrInvalidMimetype = errors.New("epub: invalid mimetype (not an EPUB)")
	ErrMissingContent  = errors.New("epub: referenced content file not found")
)

// Reader provides access to EPUB content.
type Reader struct {
	closer   io.Closer
	fsys     fs.FS
	pkg      *Package
	baseDir  string // directory containing the OPF
	chapters []*Chapter
	toc      *TableOfContents
}

// Open opens an EPUB file from a path.
func Open(filePath string) (*Reader, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	r := &Reader{closer: zr}
	if err := r.init(zr); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

// OpenReader opens an EPUB from an io.ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	r := &Reader{}
	if err := r.init(zr); err != nil {
		return nil, err
	}
	return r, nil
}

// init parses the EPUB structure. Any fs.FS laid out as an EPUB works.
func (r *Reader) init(fsys fs.FS) error {
	r.fsys = fsys

	// Some EPUBs omit the mimetype file; only a wrong one is rejected
	if err := validateMimetype(fsys); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	// Check for DRM - reject if found
	if err := checkForDRM(fsys); err != nil {
		return err
	}

	opfPath, err := parseContainer(fsys)
	if err != nil {
		return err
	}

	pkg, baseDir, err := parseOPF(fsys, opfPath)
	if err != nil {
		return err
	}
	r.pkg = pkg
	r.baseDir = baseDir

	return r.loadChapters()
}

// validateMimetype checks that the mimetype file is correct.
func validateMimetype(fsys fs.FS) error {
	data, err := fs.ReadFile(fsys, "mimetype")
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(data)) != "application/epub+zip" {
		return ErrInvalidMimetype
	}
	return nil
}

// loadChapters loads every spine item that resolves to a file.
func (r *Reader) loadChapters() error {
	r.chapters = make([]*Chapter, 0, len(r.pkg.Spine))

	for i, spineItem := range r.pkg.Spine {
		item, ok := r.pkg.Manifest[spineItem.IDRef]
		if !ok {
			continue
		}

		href := r.resolveHref(item.Href)
		content, err := fs.ReadFile(r.fsys, href)
		if err != nil {
			continue
		}

		chapter := &Chapter{
			ID:        item.ID,
			Index:     i,
			Href:      href,
			MediaType: item.MediaType,
			Linear:    spineItem.Linear,
			Content:   content,
		}
		chapter.Title = extractChapterTitle(content, item.MediaType)
		r.chapters = append(r.chapters, chapter)
	}

	if len(r.chapters) == 0 {
		return ErrEmptySpine
	}
	return nil
}

// resolveHref resolves a relative href against the OPF base directory.
func (r *Reader) resolveHref(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	if r.baseDir == "" {
		return path.Clean(href)
	}
	return path.Join(r.baseDir, href)
}

// extractChapterTitle returns the document title, or the first heading.
func extractChapterTitle(content []byte, mediaType string) string {
	doc, err := markup.ParseHTML(bytes.NewReader(content), mediaType)
	if err != nil {
		return ""
	}
	if doc.Title != "" {
		return doc.Title
	}
	for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		if h := doc.Root.Find(tag); h != nil {
			if title := strings.TrimSpace(h.TextContent()); title != "" {
				return title
			}
		}
	}
	return ""
}

// Close closes the reader and releases resources.
func (r *Reader) Close() error {
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

// Package returns the parsed package document.
func (r *Reader) Package() *Package {
	return r.pkg
}

// Metadata returns the EPUB metadata.
func (r *Reader) Metadata() Metadata {
	return r.pkg.Metadata
}

// ChapterCount returns the number of chapters.
func (r *Reader) ChapterCount() int {
	return len(r.chapters)
}

// Chapters returns all chapters in spine order.
func (r *Reader) Chapters() []*Chapter {
	return r.chapters
}

// FS returns the archive contents. Chapter hrefs and image paths are
// relative to its root.
func (r *Reader) FS() fs.FS {
	return r.fsys
}

// ParseChapter parses one chapter into a markup tree.
func (r *Reader) ParseChapter(ch *Chapter) (*markup.Document, error) {
	return markup.ParseHTML(bytes.NewReader(ch.Content), ch.MediaType)
}

// ModelMetadata maps the Dublin Core metadata onto the document model.
func (r *Reader) ModelMetadata() model.Metadata {
	m := r.pkg.Metadata
	md := model.Metadata{
		Title:    m.Title,
		Author:   strings.Join(m.Creator, ", "),
		Subject:  strings.Join(m.Subjects, ", "),
		Keywords: append([]string(nil), m.Subjects...),
		Custom:   make(map[string]string),
	}
	for k, v := range map[string]string{
		"language":    m.Language,
		"identifier":  m.Identifier,
		"publisher":   m.Publisher,
		"date":        m.Date,
		"description": m.Description,
		"rights":      m.Rights,
	} {
		if v != "" {
			md.Custom[k] = v
		}
	}
	return md
}

// Document converts every chapter and joins them with page breaks. Images
// resolve against the archive relative to each chapter. Title, Author and
// Subject in opts override the book's metadata.
func (r *Reader) Document(opts convert.Options) (*model.Document, []convert.Warning, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	out := model.NewDocument()
	out.Metadata = r.ModelMetadata()
	if opts.Title != "" {
		out.Metadata.Title = opts.Title
	}
	if opts.Author != "" {
		out.Metadata.Author = opts.Author
	}
	if opts.Subject != "" {
		out.Metadata.Subject = opts.Subject
	}

	var warnings []convert.Warning
	for _, ch := range r.chapters {
		src, err := r.ParseChapter(ch)
		if err != nil {
			return nil, warnings, fmt.Errorf("chapter %s: %w", ch.Href, err)
		}

		chOpts := opts.Clone()
		chOpts.Resources = r.fsys
		chOpts.BaseDir = path.Dir(ch.Href)

		chDoc, ws, err := convert.Convert(src, chOpts)
		warnings = append(warnings, ws...)
		if err != nil {
			return nil, warnings, fmt.Errorf("chapter %s: %w", ch.Href, err)
		}
		log.Debug("converted chapter",
			zap.String("href", ch.Href),
			zap.Int("blocks", chDoc.Len()),
			zap.Int("warnings", len(ws)))

		if out.Len() > 0 && chDoc.Len() > 0 {
			out.Append(model.PageBreak{})
		}
		for _, b := range chDoc.Blocks() {
			out.Append(b)
		}
	}
	return out, warnings, nil
}

// Text returns the plain text of all chapters.
func (r *Reader) Text() (string, error) {
	doc, _, err := r.Document(convert.DefaultOptions())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.PlainText()), nil
}
