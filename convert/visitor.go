package convert

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// visitor walks a markup tree once, dispatching on each element's role and
// appending completed blocks to the document.
type visitor struct {
	*parseContext

	opts       Options
	classifier classify.Classifier
	log        *zap.Logger
	nav        *exclusionChecker

	listBase   float64 // indent outside the outermost list
	itemPrefix string  // marker for the next list item, set by its list
}

func newVisitor(doc *model.Document, opts Options, root *markup.Node) *visitor {
	return &visitor{
		parseContext: newParseContext(doc),
		opts:         opts,
		classifier:   opts.classifier(),
		log:          opts.logger(),
		nav:          newExclusionChecker(opts.Navigation, root),
	}
}

// role classifies a tag once per conversion.
func (v *visitor) role(tag string) classify.Role {
	if r, ok := v.roles[tag]; ok {
		return r
	}
	r := v.classifier.Classify(tag)
	if a, ok := v.classifier.(interface{ Ambiguous(string) []string }); ok {
		if matched := a.Ambiguous(tag); len(matched) > 1 {
			v.log.Debug("ambiguous tag role",
				zap.String("tag", tag),
				zap.Strings("matched", matched),
				zap.Stringer("role", r))
		}
	}
	v.roles[tag] = r
	return r
}

// visit processes one node and its subtree.
func (v *visitor) visit(n *markup.Node) error {
	switch {
	case n.IsText():
		v.visitText(n.Text)
		return nil
	case n.IsElement():
		return v.visitElement(n, v.role(n.Tag))
	}
	return nil
}

func (v *visitor) visitChildren(n *markup.Node) error {
	for _, c := range n.Children {
		if err := v.visit(c); err != nil {
			return err
		}
	}
	return nil
}

// visitElement applies the element's own styling and dispatches on role.
func (v *visitor) visitElement(n *markup.Node, role classify.Role) error {
	if role.Kind == classify.Ignore {
		return nil
	}
	if v.nav.shouldExclude(n) {
		v.log.Debug("skipping navigation element", zap.String("tag", n.Tag))
		return nil
	}

	v.depth++
	defer func() { v.depth-- }()
	if limit := v.opts.maxDepth(); v.depth > limit {
		return &StructureTooDeepError{What: "element", Depth: v.depth, Limit: limit, Tag: n.Tag}
	}

	delta, bs := elementStyle(n)
	if role.Kind == classify.Inline {
		delta = role.Delta.Merge(delta)
	}

	blockLevel := v.inlineOnly == 0
	if bs.pageBreakBefore && blockLevel {
		v.appendBlock(model.PageBreak{})
	}
	if !delta.IsZero() {
		v.pushStyle(delta)
		defer v.popStyle()
	}
	if bs.hasAlign && (role.Kind.IsBlock() || role.Kind == classify.Unknown) {
		f := v.format()
		f.align = bs.align
		v.pushFormat(f)
		defer v.popFormat()
		if v.fresh() {
			v.open.p.Alignment = bs.align
		}
	}

	if err := v.dispatch(n, role); err != nil {
		return err
	}

	if bs.pageBreakAfter && blockLevel {
		v.appendBlock(model.PageBreak{})
	}
	return nil
}

func (v *visitor) dispatch(n *markup.Node, role classify.Role) error {
	switch role.Kind {
	case classify.Heading:
		return v.visitHeading(n, role.Level)
	case classify.Paragraph, classify.Caption:
		return v.visitParagraph(n)
	case classify.Inline:
		return v.visitChildren(n)
	case classify.List:
		return v.visitList(n, role.Ordered)
	case classify.ListItem:
		return v.visitListItem(n)
	case classify.Table:
		return v.visitTable(n)
	case classify.Image:
		return v.visitImage(n)
	case classify.Link:
		return v.visitLink(n)
	case classify.LineBreak:
		v.addBreak()
		return v.visitChildren(n)
	case classify.HorizontalRule:
		if v.inlineOnly == 0 {
			v.appendBlock(model.HorizontalRule{})
		}
		return nil
	case classify.PageBreak:
		if v.inlineOnly == 0 {
			v.appendBlock(model.PageBreak{})
		}
		return nil
	case classify.CodeBlock:
		return v.visitCodeBlock(n)
	case classify.Quote:
		return v.visitQuote(n)
	default:
		// Container, Unknown, and table parts found outside a table
		return v.visitContainer(n)
	}
}

// ============================================================================
// Text
// ============================================================================

func (v *visitor) visitText(text string) {
	if v.opts.PreserveWhitespace || v.format().preserve {
		if v.open == nil && strings.TrimSpace(text) == "" {
			return
		}
		text = strings.ReplaceAll(text, "\r\n", "\n")
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				v.addBreak()
			}
			v.addText(line)
		}
		return
	}

	text = collapseWhitespace(text)
	if v.open == nil && strings.TrimSpace(text) == "" {
		return
	}
	if v.atLineStart() {
		text = strings.TrimLeft(text, " ")
	}
	v.addText(text)
}

// collapseWhitespace replaces each run of ASCII whitespace with one space.
// Non-breaking spaces are kept.
func collapseWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}

// ============================================================================
// Block elements
// ============================================================================

func (v *visitor) visitHeading(n *markup.Node, level int) error {
	if v.inlineOnly > 0 {
		return v.visitChildren(n)
	}
	// Vocabularies like <chapter> wrap a whole section; treat those as
	// containers and let their title child become the heading.
	if v.hasStructuralChild(n) {
		return v.visitContainer(n)
	}
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}

	v.startBlock()
	p := v.newParagraph(true)
	p.StyleID = fmt.Sprintf("Heading%d", level)
	p.HeadingLevel = level
	p.SpacingBefore = HeadingSpaceBef
	p.SpacingAfter = HeadingSpaceAft

	size := math.Max(MinHeadingSize, BaseFontSize-2*float64(level))
	v.pushStyle(classify.StyleDelta{
		Axes:     classify.AxisBold | classify.AxisFontSize,
		Bold:     true,
		FontSize: size,
	})
	v.inlineOnly++
	err := v.visitChildren(n)
	v.inlineOnly--
	v.popStyle()
	v.closeParagraph()
	return err
}

func (v *visitor) visitParagraph(n *markup.Node) error {
	if v.inlineOnly > 0 {
		return v.visitChildren(n)
	}
	if v.fresh() {
		// First paragraph of a list item or cell continues its paragraph
		v.open.keep = true
	} else {
		v.startBlock()
		v.newParagraph(true)
	}
	err := v.visitChildren(n)
	v.closeParagraph()
	return err
}

// visitContainer handles transparent wrappers. With no block children and
// a paragraph already in progress the wrapper is inline content.
func (v *visitor) visitContainer(n *markup.Node) error {
	if v.inlineOnly > 0 || (v.open != nil && v.open.hasContent && !v.hasBlockChild(n)) {
		return v.visitChildren(n)
	}
	v.boundary()
	err := v.visitChildren(n)
	v.boundary()
	return err
}

func (v *visitor) visitQuote(n *markup.Node) error {
	if v.inlineOnly > 0 {
		return v.visitChildren(n)
	}
	v.startBlock()
	f := v.format()
	f.indent += QuoteIndent
	f.borderLeft = true
	f.styleID = "Quote"
	v.pushFormat(f)
	err := v.visitChildren(n)
	v.closeParagraph()
	v.popFormat()
	return err
}

func (v *visitor) visitCodeBlock(n *markup.Node) error {
	if v.inlineOnly > 0 {
		v.pushStyle(classify.DeltaCode)
		defer v.popStyle()
		return v.visitChildren(n)
	}

	v.startBlock()
	f := v.format()
	f.styleID = "Code"
	f.preserve = true
	f.shading = "F2F2F2"
	v.pushFormat(f)
	v.pushStyle(classify.DeltaCode)
	v.newParagraph(true)

	var err error
	highlighted := false
	if lang := codeLanguage(n); v.opts.HighlightCode && lang != "" {
		var runs []model.Run
		runs, highlighted = highlightRuns(n.TextContent(), lang, v.codeStyle(), v.style())
		if highlighted {
			v.addRuns(runs)
		} else {
			v.log.Debug("no lexer for code language", zap.String("lang", lang))
		}
	}
	if !highlighted {
		err = v.visitChildren(n)
	}

	v.closeParagraph()
	v.popStyle()
	v.popFormat()
	return err
}

func (v *visitor) codeStyle() string {
	if v.opts.CodeStyle == "" {
		return DefaultCodeStyle
	}
	return v.opts.CodeStyle
}

// ============================================================================
// Inline elements
// ============================================================================

func (v *visitor) visitLink(n *markup.Node) error {
	href := linkTarget(n)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return v.visitChildren(n)
	}
	v.pushStyle(classify.StyleDelta{
		Axes:      classify.AxisHyperlink | classify.AxisUnderline | classify.AxisColor,
		Hyperlink: href,
		Underline: true,
		Color:     LinkColor,
	})
	err := v.visitChildren(n)
	v.popStyle()
	return err
}

// linkTarget returns the link destination. Non-HTML vocabularies are also
// checked for url, link and target attributes.
func linkTarget(n *markup.Node) string {
	keys := []string{"href", "xlink:href"}
	if n.Tag != "a" {
		keys = append(keys, "url", "link", "target")
	}
	for _, k := range keys {
		if t := strings.TrimSpace(n.Attr(k)); t != "" {
			return t
		}
	}
	return ""
}

func (v *visitor) visitImage(n *markup.Node) error {
	if !v.opts.IncludeImages {
		return nil
	}
	src := imageSource(n)
	if src == "" && len(n.ElementChildren()) > 0 {
		// A figure-like wrapper rather than an image reference
		return v.visitContainer(n)
	}

	img, err := v.loadImage(n, src)
	if err != nil {
		kind := ImageDecodeError
		var le *imageLoadError
		if errors.As(err, &le) {
			kind = le.kind
		}
		v.warn(Warning{Kind: kind, Tag: n.Tag, Source: src, Message: err.Error()})
		v.log.Warn("image replaced by placeholder",
			zap.String("src", truncate(src, 80)),
			zap.Stringer("kind", kind),
			zap.Error(err))
		v.addPlaceholder(placeholderText(n, src))
		return nil
	}

	if v.inlineOnly > 0 {
		v.addPlaceholder(placeholderText(n, src))
		return nil
	}
	v.appendBlock(img)
	return nil
}

func (v *visitor) addPlaceholder(text string) {
	if !v.atLineStart() {
		text = " " + text
	}
	v.addText(text)
}

// ============================================================================
// Helpers
// ============================================================================

// hasBlockChild reports whether any element child has a block role.
func (v *visitor) hasBlockChild(n *markup.Node) bool {
	for _, c := range n.Children {
		if c.IsElement() && v.role(c.Tag).Kind.IsBlock() {
			return true
		}
	}
	return false
}

// hasStructuralChild reports whether n holds paragraphs, headings, lists,
// tables or quotes, as opposed to plain wrappers.
func (v *visitor) hasStructuralChild(n *markup.Node) bool {
	for _, c := range n.Children {
		if !c.IsElement() {
			continue
		}
		switch v.role(c.Tag).Kind {
		case classify.Heading, classify.Paragraph, classify.List, classify.ListItem,
			classify.Table, classify.Quote, classify.CodeBlock:
			return true
		}
	}
	return false
}
