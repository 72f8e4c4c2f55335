package model

// Run represents an inline span of text sharing one style.
// A run with Break set carries no text and represents a line break.
type Run struct {
	Text  string
	Break bool
	Style RunStyle
}

// RunStyle represents the formatting of a run.
// Zero values mean "inherit from the paragraph style".
type RunStyle struct {
	Bold       bool
	Italic     bool
	Underline  bool
	Strike     bool
	VertAlign  VertAlign
	FontFamily string
	FontSize   float64 // points
	Color      string  // RRGGBB
	Hyperlink  string  // target URL or "#anchor"
}

// IsHyperlink reports whether the run links somewhere.
func (s RunStyle) IsHyperlink() bool { return s.Hyperlink != "" }

// VertAlign represents superscript/subscript positioning
type VertAlign int

const (
	VertAlignBaseline VertAlign = iota
	VertAlignSuperscript
	VertAlignSubscript
)

func (v VertAlign) String() string {
	switch v {
	case VertAlignSuperscript:
		return "superscript"
	case VertAlignSubscript:
		return "subscript"
	default:
		return "baseline"
	}
}
