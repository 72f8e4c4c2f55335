package convert

import (
	"strings"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/model"
)

// sink receives completed blocks: the document itself, or a table cell.
type sink interface {
	append(b model.Block)
}

type documentSink struct{ doc *model.Document }

func (s documentSink) append(b model.Block) { s.doc.Append(b) }

type cellSink struct{ cell *model.Cell }

func (s cellSink) append(b model.Block) {
	if b != nil {
		s.cell.Blocks = append(s.cell.Blocks, b)
	}
}

// blockFormat is the paragraph formatting inherited by paragraphs opened
// inside a block element.
type blockFormat struct {
	indent     float64
	styleID    string
	align      model.TextAlignment
	borderLeft bool
	shading    string
	preserve   bool // keep whitespace and turn newlines into breaks
	spaceAfter float64
}

// openParagraph tracks the paragraph currently receiving runs.
type openParagraph struct {
	p          *model.Paragraph
	keep       bool // emit even when empty, with one empty run
	prefixRuns int  // leading list-marker runs
	hasContent bool
}

// parseContext holds the mutable state of one conversion. It is created
// per call and never shared, so a conversion needs no locking.
type parseContext struct {
	sink    sink
	open    *openParagraph
	styles  []model.RunStyle
	formats []blockFormat

	depth      int
	listDepth  int
	inlineOnly int // >0 inside headings, where nested blocks flatten to inline

	roles    map[string]classify.Role
	warnings []Warning
}

func newParseContext(doc *model.Document) *parseContext {
	return &parseContext{
		sink:    documentSink{doc: doc},
		styles:  []model.RunStyle{{}},
		formats: []blockFormat{{spaceAfter: ParagraphSpace}},
		roles:   make(map[string]classify.Role),
	}
}

// ============================================================================
// Style and format stacks
// ============================================================================

func (c *parseContext) style() model.RunStyle {
	return c.styles[len(c.styles)-1]
}

func (c *parseContext) pushStyle(d classify.StyleDelta) {
	c.styles = append(c.styles, d.Apply(c.style()))
}

func (c *parseContext) popStyle() {
	if len(c.styles) > 1 {
		c.styles = c.styles[:len(c.styles)-1]
	}
}

func (c *parseContext) format() blockFormat {
	return c.formats[len(c.formats)-1]
}

func (c *parseContext) pushFormat(f blockFormat) {
	c.formats = append(c.formats, f)
}

func (c *parseContext) popFormat() {
	if len(c.formats) > 1 {
		c.formats = c.formats[:len(c.formats)-1]
	}
}

// ============================================================================
// Paragraph lifecycle
// ============================================================================

// newParagraph starts a paragraph from the current block format. Any open
// paragraph must already be closed.
func (c *parseContext) newParagraph(keep bool) *model.Paragraph {
	f := c.format()
	p := &model.Paragraph{
		Alignment:    f.align,
		Indent:       f.indent,
		StyleID:      f.styleID,
		BorderLeft:   f.borderLeft,
		Shading:      f.shading,
		SpacingAfter: f.spaceAfter,
	}
	c.open = &openParagraph{p: p, keep: keep}
	return p
}

// ensureParagraph returns the open paragraph, lazily opening one.
func (c *parseContext) ensureParagraph() *model.Paragraph {
	if c.open == nil {
		c.newParagraph(false)
	}
	return c.open.p
}

// closeParagraph trims trailing whitespace from the open paragraph and hands
// it to the sink. Paragraphs without runs are dropped unless kept.
func (c *parseContext) closeParagraph() {
	op := c.open
	if op == nil {
		return
	}
	c.open = nil

	p := op.p
	if c.format().preserve {
		for len(p.Runs) > op.prefixRuns && p.Runs[len(p.Runs)-1].Break {
			p.Runs = p.Runs[:len(p.Runs)-1]
		}
	} else {
		for len(p.Runs) > op.prefixRuns {
			last := &p.Runs[len(p.Runs)-1]
			if last.Break {
				break
			}
			last.Text = strings.TrimRight(last.Text, " ")
			if last.Text != "" {
				break
			}
			p.Runs = p.Runs[:len(p.Runs)-1]
		}
	}

	if len(p.Runs) == 0 {
		if !op.keep {
			return
		}
		p.Runs = []model.Run{{Style: c.style()}}
	}
	c.sink.append(p)
}

// startBlock prepares for a block-level element: an open paragraph with no
// runs at all is discarded, any other is closed.
func (c *parseContext) startBlock() {
	if c.open != nil && len(c.open.p.Runs) == 0 {
		c.open = nil
		return
	}
	c.closeParagraph()
}

// boundary closes the open paragraph only when it has received content, so
// a fresh list item or cell paragraph survives a wrapper element.
func (c *parseContext) boundary() {
	if c.open != nil && c.open.hasContent {
		c.closeParagraph()
	}
}

// fresh reports whether an open paragraph exists that has no content yet.
func (c *parseContext) fresh() bool {
	return c.open != nil && !c.open.hasContent
}

// appendBlock emits a non-paragraph block after closing the open paragraph.
func (c *parseContext) appendBlock(b model.Block) {
	c.startBlock()
	c.sink.append(b)
}

// ============================================================================
// Runs
// ============================================================================

// addPrefix adds a list marker run to a freshly opened paragraph.
func (c *parseContext) addPrefix(text string) {
	p := c.ensureParagraph()
	st := c.style()
	st.Hyperlink = ""
	p.Runs = append(p.Runs, model.Run{Text: text, Style: st})
	c.open.prefixRuns = len(p.Runs)
}

// addText appends text in the current style, merging with the previous run
// when the styles match.
func (c *parseContext) addText(text string) {
	if text == "" {
		return
	}
	p := c.ensureParagraph()
	st := c.style()
	if n := len(p.Runs); n > c.open.prefixRuns && !p.Runs[n-1].Break && p.Runs[n-1].Style == st {
		p.Runs[n-1].Text += text
	} else {
		p.Runs = append(p.Runs, model.Run{Text: text, Style: st})
	}
	c.open.hasContent = true
}

// addBreak appends a line break run.
func (c *parseContext) addBreak() {
	p := c.ensureParagraph()
	p.Runs = append(p.Runs, model.Run{Break: true, Style: c.style()})
	c.open.hasContent = true
}

// addRuns appends prepared runs, such as highlighted code.
func (c *parseContext) addRuns(runs []model.Run) {
	if len(runs) == 0 {
		return
	}
	p := c.ensureParagraph()
	p.Runs = append(p.Runs, runs...)
	c.open.hasContent = true
}

// atLineStart reports whether collapsed text should drop its leading space:
// no paragraph is open, the paragraph has only its prefix, or the previous
// run ends in a space or break.
func (c *parseContext) atLineStart() bool {
	if c.open == nil || !c.open.hasContent {
		return true
	}
	runs := c.open.p.Runs
	last := runs[len(runs)-1]
	return last.Break || strings.HasSuffix(last.Text, " ")
}

func (c *parseContext) warn(w Warning) {
	c.warnings = append(c.warnings, w)
}
