// Package model provides the rich-document representation produced by a
// markup conversion.
//
// This package defines the data structures that sit between the conversion
// engine and a document writer. The engine appends blocks in reading order;
// a writer consumes them exactly once, in the same order.
//
// # Document Structure
//
// The [Document] type holds metadata and an ordered, append-only sequence of
// [Block] values:
//
//	doc := model.NewDocument()
//	doc.Metadata.Title = "My Document"
//	doc.Append(&model.Paragraph{Runs: []model.Run{{Text: "Hello"}}})
//
// Blocks are never removed or modified once appended.
//
// # Blocks
//
// All document-level content implements the [Block] interface. The concrete
// types are:
//
//   - [Paragraph] - a paragraph of styled runs (headings and list items included)
//   - [Table] - a rectangular grid of cells
//   - [Image] - an embedded raster image
//   - [PageBreak] - a hard page break
//   - [HorizontalRule] - a horizontal separator line
//
// # Runs and Styles
//
// A [Run] is a span of text sharing one [RunStyle]. Styles are plain values,
// so copying a style and changing one field never affects another run.
//
// # Aggregates
//
// [Document.WordCount], [Document.CharCount] and [Document.Stats] sum run
// text across the whole document, including table cells. They exist for
// reporting only.
package model
