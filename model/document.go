package model

import (
	"strings"
	"unicode/utf8"
)

// Document represents a converted document: metadata plus an ordered,
// append-only sequence of blocks.
type Document struct {
	Metadata Metadata
	blocks   []Block
}

// Metadata contains document-level information
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
	// Custom metadata
	Custom map[string]string
}

// NewDocument creates a new empty document
func NewDocument() *Document {
	return &Document{
		Metadata: Metadata{
			Custom: make(map[string]string),
		},
		blocks: make([]Block, 0),
	}
}

// Append adds a block at the end of the document. Nil blocks are ignored.
func (d *Document) Append(b Block) {
	if b == nil {
		return
	}
	d.blocks = append(d.blocks, b)
}

// Blocks returns the blocks in reading order. The returned slice must not be
// modified.
func (d *Document) Blocks() []Block {
	return d.blocks
}

// Len returns the number of blocks
func (d *Document) Len() int {
	return len(d.blocks)
}

// Paragraphs returns all top-level paragraphs
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, b := range d.blocks {
		if p, ok := b.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns all top-level tables
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, b := range d.blocks {
		if t, ok := b.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// Images returns all images, including those inside table cells
func (d *Document) Images() []*Image {
	var out []*Image
	walkBlocks(d.blocks, func(b Block) {
		if img, ok := b.(*Image); ok {
			out = append(out, img)
		}
	})
	return out
}

// PlainText returns the document text. Paragraphs are separated by
// newlines, table cells by tabs.
func (d *Document) PlainText() string {
	var sb strings.Builder
	for _, b := range d.blocks {
		switch v := b.(type) {
		case *Table:
			sb.WriteString(v.GetText())
		case TextBlock:
			sb.WriteString(v.GetText())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// WordCount returns the number of whitespace-separated words across all runs
func (d *Document) WordCount() int {
	count := 0
	d.eachRun(func(r Run) {
		count += len(strings.Fields(r.Text))
	})
	return count
}

// CharCount returns the number of characters across all runs
func (d *Document) CharCount() int {
	count := 0
	d.eachRun(func(r Run) {
		count += utf8.RuneCountInString(r.Text)
	})
	return count
}

// Stats summarises document content for reporting.
type Stats struct {
	Blocks     int
	Paragraphs int
	Headings   int
	Tables     int
	Images     int
	Words      int
	Characters int
}

// Stats computes content statistics.
func (d *Document) Stats() Stats {
	s := Stats{Blocks: len(d.blocks)}
	walkBlocks(d.blocks, func(b Block) {
		switch v := b.(type) {
		case *Paragraph:
			s.Paragraphs++
			if v.IsHeading() {
				s.Headings++
			}
		case *Table:
			s.Tables++
		case *Image:
			s.Images++
		}
	})
	s.Words = d.WordCount()
	s.Characters = d.CharCount()
	return s
}

// TableOfContents returns headings organized as a document outline
func (d *Document) TableOfContents() []TOCEntry {
	var toc []TOCEntry
	for _, p := range d.Paragraphs() {
		if p.IsHeading() {
			toc = append(toc, TOCEntry{
				Level: p.HeadingLevel,
				Text:  strings.TrimSpace(p.GetText()),
			})
		}
	}
	return toc
}

// TOCEntry represents an entry in the table of contents
type TOCEntry struct {
	Level int    // Heading level (1-6)
	Text  string // Heading text
}

func (d *Document) eachRun(fn func(Run)) {
	walkBlocks(d.blocks, func(b Block) {
		if p, ok := b.(*Paragraph); ok {
			for _, r := range p.Runs {
				fn(r)
			}
		}
	})
}

// walkBlocks visits blocks depth-first, descending into table cells.
func walkBlocks(blocks []Block, fn func(Block)) {
	for _, b := range blocks {
		fn(b)
		if t, ok := b.(*Table); ok {
			for _, row := range t.Rows {
				for i := range row {
					walkBlocks(row[i].Blocks, fn)
				}
			}
		}
	}
}
