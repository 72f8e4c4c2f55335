package convert

import (
	"strconv"
	"strings"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// maxColSpan bounds a single cell's colspan attribute.
const maxColSpan = 64

// tableCell is the content of one cell. node supplies the cell's role,
// inline style and colspan; it is nil for loose text gathered under a table
// or row.
type tableCell struct {
	node    *markup.Node
	content []*markup.Node
}

func elementCell(n *markup.Node) tableCell {
	return tableCell{node: n, content: n.Children}
}

// tableRow is a row element and the cells collected under it.
type tableRow struct {
	cells  []tableCell
	header bool
}

// tableLayout is the row structure found under a table element, before any
// cell content is converted.
type tableLayout struct {
	rows     []tableRow
	captions []*markup.Node
}

func (v *visitor) visitTable(n *markup.Node) error {
	if v.inlineOnly > 0 {
		return v.visitChildren(n)
	}
	if !v.hasTableStructure(n) {
		// Text-only table elements, common in generic XML, read as paragraphs
		return v.visitContainer(n)
	}
	v.startBlock()

	var layout tableLayout
	v.collectRows(n, false, &layout)

	for _, c := range layout.captions {
		if err := v.visitCaption(c); err != nil {
			return err
		}
	}
	if len(layout.rows) == 0 {
		return nil
	}

	rows := make([][]model.Cell, 0, len(layout.rows))
	for i, r := range layout.rows {
		header := r.header || (i == 0 && v.opts.HeaderRow)
		row := make([]model.Cell, 0, len(r.cells))
		for _, cn := range r.cells {
			cell, err := v.buildCell(cn, header)
			if err != nil {
				return err
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}

	if table := model.NewTable(rows); table.Columns > 0 {
		v.sink.append(table)
	}
	return nil
}

// collectRows gathers rows through sections and unknown wrappers. An
// element that contains no rows is itself a row, so generic vocabularies
// where a table's children are rows and their children are cells work.
// Loose text between rows becomes a cell of its own.
func (v *visitor) collectRows(n *markup.Node, header bool, layout *tableLayout) {
	var stray []tableCell
	flush := func() {
		if len(stray) > 0 {
			layout.rows = append(layout.rows, tableRow{cells: stray, header: header})
			stray = nil
		}
	}

	for _, c := range n.Children {
		if !c.IsElement() {
			if c.IsText() && strings.TrimSpace(c.Text) != "" {
				stray = append(stray, tableCell{content: []*markup.Node{c}})
			}
			continue
		}
		role := v.role(c.Tag)
		switch role.Kind {
		case classify.Ignore:
			continue
		case classify.Caption:
			layout.captions = append(layout.captions, c)
			continue
		case classify.Cell:
			// Cells directly under the table form an implicit row
			stray = append(stray, elementCell(c))
			continue
		}
		flush()

		switch {
		case role.Kind == classify.Row:
			layout.rows = append(layout.rows, tableRow{cells: v.rowCells(c), header: header})
		case role.Kind == classify.TableSection || v.containsRows(c):
			v.collectRows(c, header || role.Header, layout)
		default:
			layout.rows = append(layout.rows, tableRow{cells: v.rowCells(c), header: header})
		}
	}
	flush()
}

// hasTableStructure reports whether n has any element child that can hold
// rows or cells.
func (v *visitor) hasTableStructure(n *markup.Node) bool {
	for _, c := range n.ElementChildren() {
		switch v.role(c.Tag).Kind {
		case classify.Ignore, classify.Caption:
		default:
			return true
		}
	}
	return false
}

func (v *visitor) containsRows(n *markup.Node) bool {
	for _, c := range n.ElementChildren() {
		switch v.role(c.Tag).Kind {
		case classify.Row, classify.TableSection:
			return true
		}
	}
	return false
}

// rowCells returns the cells of a row. Element children are cells and loose
// text between them is a cell too. A row holding only text is one cell.
func (v *visitor) rowCells(row *markup.Node) []tableCell {
	var cells []tableCell
	hasText := false
	for _, c := range row.Children {
		switch {
		case c.IsElement():
			if v.role(c.Tag).Kind != classify.Ignore {
				cells = append(cells, elementCell(c))
			}
		case c.IsText() && strings.TrimSpace(c.Text) != "":
			hasText = true
			cells = append(cells, tableCell{content: []*markup.Node{c}})
		}
	}
	if hasText && len(cells) == 1 {
		return []tableCell{elementCell(row)}
	}
	return cells
}

// buildCell converts one cell element into a model cell. Cell content uses
// the full visitor, so cells may hold lists, images and nested tables.
func (v *visitor) buildCell(tc tableCell, header bool) (model.Cell, error) {
	cn := tc.node
	if cn == nil {
		cn = markup.NewElement("", nil)
	}

	// Count the row and the cell towards the nesting limit
	v.depth += 2
	defer func() { v.depth -= 2 }()
	if limit := v.opts.maxDepth(); v.depth > limit {
		return model.Cell{}, &StructureTooDeepError{What: "element", Depth: v.depth, Limit: limit, Tag: cn.Tag}
	}

	role := v.role(cn.Tag)
	cell := model.Cell{
		IsHeader: header || (role.Kind == classify.Cell && role.Header),
		ColSpan:  colSpan(cn),
	}

	delta, bs := elementStyle(cn)
	if cell.IsHeader {
		delta = classify.DeltaBold.Merge(delta)
	}

	savedSink, savedOpen := v.sink, v.open
	savedList, savedBase, savedPrefix := v.listDepth, v.listBase, v.itemPrefix
	v.sink, v.open = cellSink{cell: &cell}, nil
	v.listDepth, v.listBase, v.itemPrefix = 0, 0, ""

	f := blockFormat{}
	if bs.hasAlign {
		f.align = bs.align
	}
	v.pushFormat(f)
	v.pushStyle(delta)
	v.newParagraph(true)

	var err error
	for _, c := range tc.content {
		if err = v.visit(c); err != nil {
			break
		}
	}
	v.closeParagraph()

	v.popStyle()
	v.popFormat()
	v.sink, v.open = savedSink, savedOpen
	v.listDepth, v.listBase, v.itemPrefix = savedList, savedBase, savedPrefix

	if err != nil {
		return model.Cell{}, err
	}
	if len(cell.Blocks) == 0 {
		cell.Blocks = model.EmptyCell().Blocks
	}
	return cell, nil
}

// visitCaption emits a caption as a bold, centred paragraph.
func (v *visitor) visitCaption(n *markup.Node) error {
	v.startBlock()
	f := v.format()
	f.align = model.AlignCenter
	v.pushFormat(f)
	v.pushStyle(classify.DeltaBold)
	v.newParagraph(false)
	err := v.visitChildren(n)
	v.closeParagraph()
	v.popStyle()
	v.popFormat()
	return err
}

func colSpan(n *markup.Node) int {
	span, err := strconv.Atoi(strings.TrimSpace(n.Attr("colspan")))
	if err != nil || span < 1 {
		return 1
	}
	if span > maxColSpan {
		return maxColSpan
	}
	return span
}
