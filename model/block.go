package model

import "strings"

// BlockType represents the type of a document block
type BlockType int

const (
	BlockTypeUnknown BlockType = iota
	BlockTypeParagraph
	BlockTypeTable
	BlockTypeImage
	BlockTypePageBreak
	BlockTypeHorizontalRule
)

func (bt BlockType) String() string {
	switch bt {
	case BlockTypeParagraph:
		return "Paragraph"
	case BlockTypeTable:
		return "Table"
	case BlockTypeImage:
		return "Image"
	case BlockTypePageBreak:
		return "PageBreak"
	case BlockTypeHorizontalRule:
		return "HorizontalRule"
	default:
		return "Unknown"
	}
}

// Block is the interface for all document-level content
type Block interface {
	Type() BlockType
}

// TextBlock is an interface for blocks containing text
type TextBlock interface {
	Block
	GetText() string
}

// Paragraph represents a paragraph of styled runs.
// Headings are paragraphs with a non-zero HeadingLevel.
type Paragraph struct {
	Runs          []Run
	Alignment     TextAlignment
	Indent        float64 // left indent in points
	SpacingBefore float64 // points
	SpacingAfter  float64 // points
	StyleID       string  // e.g. "Heading1", "Quote", "Code"
	HeadingLevel  int     // 1-6, 0 for body text
	BorderLeft    bool
	Shading       string // background fill as RRGGBB, empty for none
}

func (p *Paragraph) Type() BlockType { return BlockTypeParagraph }

// GetText returns the concatenated text of all runs. Breaks become newlines.
func (p *Paragraph) GetText() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		if r.Break {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// IsHeading reports whether the paragraph is a heading.
func (p *Paragraph) IsHeading() bool { return p.HeadingLevel > 0 }

// Image represents an embedded image
type Image struct {
	Data    []byte
	Format  ImageFormat
	Width   int // pixels, 0 if unknown
	Height  int // pixels, 0 if unknown
	AltText string
}

func (i *Image) Type() BlockType { return BlockTypeImage }

// ImageFormat represents image format
type ImageFormat int

const (
	ImageFormatUnknown ImageFormat = iota
	ImageFormatPNG
	ImageFormatJPEG
	ImageFormatGIF
	ImageFormatBMP
)

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatPNG:
		return "png"
	case ImageFormatJPEG:
		return "jpeg"
	case ImageFormatGIF:
		return "gif"
	case ImageFormatBMP:
		return "bmp"
	default:
		return "unknown"
	}
}

// Extension returns the file extension conventionally used for the format.
func (f ImageFormat) Extension() string {
	switch f {
	case ImageFormatJPEG:
		return ".jpeg"
	case ImageFormatUnknown:
		return ""
	default:
		return "." + f.String()
	}
}

// ContentType returns the MIME type of the format.
func (f ImageFormat) ContentType() string {
	if f == ImageFormatUnknown {
		return ""
	}
	return "image/" + f.String()
}

// ParseImageFormat maps a format name (as reported by image.DecodeConfig or
// a data URI media subtype) to an ImageFormat.
func ParseImageFormat(name string) ImageFormat {
	switch strings.ToLower(name) {
	case "png":
		return ImageFormatPNG
	case "jpeg", "jpg", "pjpeg":
		return ImageFormatJPEG
	case "gif":
		return ImageFormatGIF
	case "bmp", "x-ms-bmp", "x-bmp":
		return ImageFormatBMP
	default:
		return ImageFormatUnknown
	}
}

// PageBreak forces subsequent content onto a new page
type PageBreak struct{}

func (PageBreak) Type() BlockType { return BlockTypePageBreak }

// HorizontalRule is a separator line. Writers render it as an empty,
// zero-height paragraph with a bottom border.
type HorizontalRule struct{}

func (HorizontalRule) Type() BlockType { return BlockTypeHorizontalRule }

// TextAlignment represents text alignment
type TextAlignment int

const (
	AlignLeft TextAlignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

func (a TextAlignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return "left"
	}
}
