package convert

import (
	"strconv"
	"strings"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/markup"
)

// BulletPrefix marks unordered list items.
const BulletPrefix = "• "

func (v *visitor) visitList(n *markup.Node, ordered bool) error {
	if v.inlineOnly > 0 {
		return v.visitChildren(n)
	}
	if v.listDepth >= MaxListDepth {
		return &StructureTooDeepError{What: "list", Depth: v.listDepth + 1, Limit: MaxListDepth, Tag: n.Tag}
	}

	v.startBlock()
	if v.listDepth == 0 {
		v.listBase = v.format().indent
	}
	v.listDepth++
	defer func() { v.listDepth-- }()

	counter := 1
	if s, err := strconv.Atoi(strings.TrimSpace(n.Attr("start"))); err == nil {
		counter = s
	}
	step := 1
	if n.HasAttr("reversed") {
		step = -1
	}
	numbering := n.Attr("type")

	for _, c := range n.Children {
		if !c.IsElement() {
			if err := v.visit(c); err != nil {
				return err
			}
			continue
		}

		role := v.role(c.Tag)
		switch role.Kind {
		case classify.Ignore:
			continue
		case classify.List:
			// A list nested directly in a list, without an enclosing item
			if err := v.visit(c); err != nil {
				return err
			}
			continue
		}

		// Every other element child is treated as an item
		prefix := BulletPrefix
		if ordered {
			if val, err := strconv.Atoi(strings.TrimSpace(c.Attr("value"))); err == nil {
				counter = val
			}
			prefix = formatOrdinal(counter, numbering) + ". "
			counter += step
		}
		v.itemPrefix = prefix
		err := v.visitElement(c, classify.Role{Kind: classify.ListItem})
		// An excluded item never consumes its marker
		v.itemPrefix = ""
		if err != nil {
			return err
		}
	}
	return nil
}

// visitListItem emits the item's first paragraph with its marker. Nested
// blocks close that paragraph first; text after them continues at the
// item's indent without a marker.
func (v *visitor) visitListItem(n *markup.Node) error {
	if v.inlineOnly > 0 {
		return v.visitChildren(n)
	}
	prefix := v.itemPrefix
	v.itemPrefix = ""
	if prefix == "" {
		prefix = BulletPrefix
	}
	depth := v.listDepth
	if depth == 0 {
		v.listBase = v.format().indent
		depth = 1
	}

	v.startBlock()
	f := v.format()
	f.indent = v.listBase + ListIndentStep*float64(depth)
	f.styleID = "ListParagraph"
	f.spaceAfter = 0
	v.pushFormat(f)
	v.newParagraph(true)
	v.addPrefix(prefix)

	err := v.visitChildren(n)
	v.closeParagraph()
	v.popFormat()
	return err
}

// formatOrdinal renders n using an HTML list type: "1", "a", "A", "i" or "I".
func formatOrdinal(n int, numbering string) string {
	switch numbering {
	case "a":
		return alphaOrdinal(n, 'a')
	case "A":
		return alphaOrdinal(n, 'A')
	case "i":
		return strings.ToLower(romanOrdinal(n))
	case "I":
		return romanOrdinal(n)
	}
	return strconv.Itoa(n)
}

// alphaOrdinal returns a, b, ..., z, aa, ab, ...
func alphaOrdinal(n int, base byte) string {
	if n < 1 {
		return strconv.Itoa(n)
	}
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{base + byte(n%26)}, out...)
		n /= 26
	}
	return string(out)
}

func romanOrdinal(n int) string {
	if n < 1 || n > 3999 {
		return strconv.Itoa(n)
	}
	values := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	symbols := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var sb strings.Builder
	for i, val := range values {
		for n >= val {
			sb.WriteString(symbols[i])
			n -= val
		}
	}
	return sb.String()
}
