// Package classify maps markup tag names to semantic roles.
//
// Two strategies implement the [Classifier] interface: [HTML], an exact
// dictionary for standard HTML, and [Heuristic], which substring-matches
// arbitrary tag vocabularies against keyword groups. [WithOverrides] layers a
// caller-supplied mapping over either one.
//
// All classifiers are immutable after construction and safe for concurrent
// use.
package classify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/quire/model"
)

// Kind is the semantic category of a tag.
type Kind int

const (
	Unknown Kind = iota
	Heading
	Paragraph
	Inline
	List
	ListItem
	Table
	Row
	Cell
	Image
	Link
	LineBreak
	HorizontalRule
	CodeBlock
	Quote
	Ignore
	Container    // transparent block container (div, section, ...)
	TableSection // thead, tbody, tfoot
	Caption
	PageBreak
)

var kindNames = map[Kind]string{
	Unknown:        "unknown",
	Heading:        "heading",
	Paragraph:      "paragraph",
	Inline:         "inline",
	List:           "list",
	ListItem:       "listitem",
	Table:          "table",
	Row:            "row",
	Cell:           "cell",
	Image:          "image",
	Link:           "link",
	LineBreak:      "linebreak",
	HorizontalRule: "hr",
	CodeBlock:      "code",
	Quote:          "quote",
	Ignore:         "ignore",
	Container:      "container",
	TableSection:   "tablesection",
	Caption:        "caption",
	PageBreak:      "pagebreak",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsBlock reports whether elements of this kind start a new block.
func (k Kind) IsBlock() bool {
	switch k {
	case Heading, Paragraph, List, ListItem, Table, Row, Cell, HorizontalRule,
		CodeBlock, Quote, Container, TableSection, Caption, PageBreak:
		return true
	}
	return false
}

// Role is the classification of one tag.
type Role struct {
	Kind    Kind
	Level   int        // Heading level 1-6
	Ordered bool       // List
	Header  bool       // Cell, TableSection (thead)
	Delta   StyleDelta // Inline
}

func (r Role) String() string {
	switch r.Kind {
	case Heading:
		return "heading" + strconv.Itoa(r.Level)
	case List:
		if r.Ordered {
			return "orderedlist"
		}
		return "list"
	case Cell:
		if r.Header {
			return "headercell"
		}
		return "cell"
	case Inline:
		return "inline(" + r.Delta.String() + ")"
	}
	return r.Kind.String()
}

// Classifier maps a tag name to a Role.
type Classifier interface {
	Classify(tag string) Role
}

// Axis is a bit set of style properties a StyleDelta changes.
type Axis uint16

const (
	AxisBold Axis = 1 << iota
	AxisItalic
	AxisUnderline
	AxisStrike
	AxisVertAlign
	AxisFontFamily
	AxisFontSize
	AxisColor
	AxisHyperlink
)

// MonospaceFont is the font family forced on code.
const MonospaceFont = "Courier New"

// StyleDelta is a partial style override contributed by one inline element.
// Only the properties named in Axes are applied.
type StyleDelta struct {
	Axes       Axis
	Bold       bool
	Italic     bool
	Underline  bool
	Strike     bool
	VertAlign  model.VertAlign
	FontFamily string
	FontSize   float64
	Color      string
	Hyperlink  string
}

// IsZero reports whether the delta changes nothing.
func (d StyleDelta) IsZero() bool { return d.Axes == 0 }

// Merge returns d with every axis set in o overriding d's value.
func (d StyleDelta) Merge(o StyleDelta) StyleDelta {
	if o.Axes&AxisBold != 0 {
		d.Bold = o.Bold
	}
	if o.Axes&AxisItalic != 0 {
		d.Italic = o.Italic
	}
	if o.Axes&AxisUnderline != 0 {
		d.Underline = o.Underline
	}
	if o.Axes&AxisStrike != 0 {
		d.Strike = o.Strike
	}
	if o.Axes&AxisVertAlign != 0 {
		d.VertAlign = o.VertAlign
	}
	if o.Axes&AxisFontFamily != 0 {
		d.FontFamily = o.FontFamily
	}
	if o.Axes&AxisFontSize != 0 {
		d.FontSize = o.FontSize
	}
	if o.Axes&AxisColor != 0 {
		d.Color = o.Color
	}
	if o.Axes&AxisHyperlink != 0 {
		d.Hyperlink = o.Hyperlink
	}
	d.Axes |= o.Axes
	return d
}

// Apply returns s with the delta's axes applied. Applying deltas from the
// outermost element inwards gives innermost-wins on each axis.
func (d StyleDelta) Apply(s model.RunStyle) model.RunStyle {
	if d.Axes&AxisBold != 0 {
		s.Bold = d.Bold
	}
	if d.Axes&AxisItalic != 0 {
		s.Italic = d.Italic
	}
	if d.Axes&AxisUnderline != 0 {
		s.Underline = d.Underline
	}
	if d.Axes&AxisStrike != 0 {
		s.Strike = d.Strike
	}
	if d.Axes&AxisVertAlign != 0 {
		s.VertAlign = d.VertAlign
	}
	if d.Axes&AxisFontFamily != 0 {
		s.FontFamily = d.FontFamily
	}
	if d.Axes&AxisFontSize != 0 {
		s.FontSize = d.FontSize
	}
	if d.Axes&AxisColor != 0 {
		s.Color = d.Color
	}
	if d.Axes&AxisHyperlink != 0 {
		s.Hyperlink = d.Hyperlink
	}
	return s
}

func (d StyleDelta) String() string {
	var parts []string
	add := func(a Axis, name string) {
		if d.Axes&a != 0 {
			parts = append(parts, name)
		}
	}
	add(AxisBold, "bold")
	add(AxisItalic, "italic")
	add(AxisUnderline, "underline")
	add(AxisStrike, "strike")
	if d.Axes&AxisVertAlign != 0 {
		parts = append(parts, d.VertAlign.String())
	}
	add(AxisFontFamily, "font")
	add(AxisFontSize, "size")
	add(AxisColor, "color")
	add(AxisHyperlink, "link")
	return strings.Join(parts, "+")
}

// Common deltas.
var (
	DeltaBold        = StyleDelta{Axes: AxisBold, Bold: true}
	DeltaItalic      = StyleDelta{Axes: AxisItalic, Italic: true}
	DeltaUnderline   = StyleDelta{Axes: AxisUnderline, Underline: true}
	DeltaStrike      = StyleDelta{Axes: AxisStrike, Strike: true}
	DeltaSuperscript = StyleDelta{Axes: AxisVertAlign, VertAlign: model.VertAlignSuperscript}
	DeltaSubscript   = StyleDelta{Axes: AxisVertAlign, VertAlign: model.VertAlignSubscript}
	DeltaCode        = StyleDelta{Axes: AxisFontFamily, FontFamily: MonospaceFont}
)

// ParseRole parses a role name as used in configuration files:
// "heading1".."heading6", "paragraph", "bold", "italic", "underline",
// "strike", "superscript", "subscript", "code", "span", "list",
// "orderedlist", "listitem", "table", "row", "cell", "headercell", "image",
// "link", "linebreak", "hr", "codeblock", "quote", "ignore", "container",
// "caption", "pagebreak".
func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(name, "heading") {
		level, err := strconv.Atoi(strings.TrimPrefix(name, "heading"))
		if err != nil || level < 1 || level > 6 {
			return Role{}, fmt.Errorf("invalid heading role %q", name)
		}
		return Role{Kind: Heading, Level: level}, nil
	}

	switch name {
	case "paragraph", "p":
		return Role{Kind: Paragraph}, nil
	case "bold", "strong":
		return Role{Kind: Inline, Delta: DeltaBold}, nil
	case "italic", "em", "emphasis":
		return Role{Kind: Inline, Delta: DeltaItalic}, nil
	case "underline":
		return Role{Kind: Inline, Delta: DeltaUnderline}, nil
	case "strike", "strikethrough":
		return Role{Kind: Inline, Delta: DeltaStrike}, nil
	case "superscript", "sup":
		return Role{Kind: Inline, Delta: DeltaSuperscript}, nil
	case "subscript", "sub":
		return Role{Kind: Inline, Delta: DeltaSubscript}, nil
	case "code":
		return Role{Kind: Inline, Delta: DeltaCode}, nil
	case "span", "inline":
		return Role{Kind: Inline}, nil
	case "list", "bulletlist":
		return Role{Kind: List}, nil
	case "orderedlist", "numberedlist":
		return Role{Kind: List, Ordered: true}, nil
	case "listitem", "item":
		return Role{Kind: ListItem}, nil
	case "table":
		return Role{Kind: Table}, nil
	case "row":
		return Role{Kind: Row}, nil
	case "cell":
		return Role{Kind: Cell}, nil
	case "headercell":
		return Role{Kind: Cell, Header: true}, nil
	case "image":
		return Role{Kind: Image}, nil
	case "link":
		return Role{Kind: Link}, nil
	case "linebreak", "br":
		return Role{Kind: LineBreak}, nil
	case "hr", "horizontalrule":
		return Role{Kind: HorizontalRule}, nil
	case "codeblock", "pre":
		return Role{Kind: CodeBlock}, nil
	case "quote", "blockquote":
		return Role{Kind: Quote}, nil
	case "ignore", "skip":
		return Role{Kind: Ignore}, nil
	case "container":
		return Role{Kind: Container}, nil
	case "caption":
		return Role{Kind: Caption}, nil
	case "pagebreak":
		return Role{Kind: PageBreak}, nil
	case "unknown":
		return Role{Kind: Unknown}, nil
	}
	return Role{}, fmt.Errorf("unknown role %q", name)
}

// ParseRoles parses a tag-to-role-name map.
func ParseRoles(names map[string]string) (map[string]Role, error) {
	roles := make(map[string]Role, len(names))
	for tag, name := range names {
		role, err := ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tag, err)
		}
		roles[tag] = role
	}
	return roles, nil
}
