package model

import (
	"fmt"
	"strings"
)

// Table represents a rectangular grid of cells.
// The span total of every row equals Columns.
type Table struct {
	Rows    [][]Cell
	Columns int
}

func (t *Table) Type() BlockType { return BlockTypeTable }
func (t *Table) GetText() string {
	var sb strings.Builder
	for _, row := range t.Rows {
		for j, cell := range row {
			sb.WriteString(cell.GetText())
			if j < len(row)-1 {
				sb.WriteString("\t")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// NewTable creates a table from ragged rows. Columns is set to the largest
// row span total and short rows are padded with empty cells.
func NewTable(rows [][]Cell) *Table {
	cols := 0
	for _, row := range rows {
		if w := rowWidth(row); w > cols {
			cols = w
		}
	}

	table := &Table{
		Rows:    make([][]Cell, len(rows)),
		Columns: cols,
	}
	for i, row := range rows {
		padded := make([]Cell, 0, cols)
		for _, cell := range row {
			if cell.ColSpan < 1 {
				cell.ColSpan = 1
			}
			padded = append(padded, cell)
		}
		for w := rowWidth(padded); w < cols; w++ {
			padded = append(padded, EmptyCell())
		}
		table.Rows[i] = padded
	}
	return table
}

// EmptyCell returns a cell holding a single empty paragraph.
func EmptyCell() Cell {
	return Cell{
		Blocks:  []Block{&Paragraph{Runs: []Run{{}}}},
		ColSpan: 1,
	}
}

func rowWidth(row []Cell) int {
	w := 0
	for _, cell := range row {
		if cell.ColSpan > 1 {
			w += cell.ColSpan
		} else {
			w++
		}
	}
	return w
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of grid columns
func (t *Table) ColCount() int {
	return t.Columns
}

// GetCell returns the cell at the given row and cell index (0-indexed)
func (t *Table) GetCell(row, col int) *Cell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return &t.Rows[row][col]
}

// Validate checks the rectangular invariant.
func (t *Table) Validate() error {
	for i, row := range t.Rows {
		if w := rowWidth(row); w != t.Columns {
			return fmt.Errorf("row %d spans %d columns, table has %d", i, w, t.Columns)
		}
	}
	return nil
}

// ToMarkdown converts the table to markdown format
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(row []Cell) {
		for j, cell := range row {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(cell.GetText(), "\n", " "))
			sb.WriteString(" ")
			if j == len(row)-1 {
				sb.WriteString("|")
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.Rows[0])
	for j := range t.Rows[0] {
		sb.WriteString("|---")
		if j == len(t.Rows[0])-1 {
			sb.WriteString("|")
		}
	}
	sb.WriteString("\n")
	for i := 1; i < len(t.Rows); i++ {
		writeRow(t.Rows[i])
	}

	return sb.String()
}

// Cell represents a table cell. Its content is an ordered list of blocks,
// normally paragraphs.
type Cell struct {
	Blocks   []Block
	IsHeader bool
	ColSpan  int
}

// GetText returns the text of the cell's blocks joined by newlines.
func (c *Cell) GetText() string {
	parts := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		if tb, ok := b.(TextBlock); ok {
			parts = append(parts, strings.TrimRight(tb.GetText(), "\n"))
		}
	}
	return strings.Join(parts, "\n")
}

// Paragraphs returns the paragraphs directly inside the cell.
func (c *Cell) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, b := range c.Blocks {
		if p, ok := b.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}
