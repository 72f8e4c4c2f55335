package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// blockStyle holds the paragraph-level properties found on an element.
type blockStyle struct {
	align           model.TextAlignment
	hasAlign        bool
	pageBreakBefore bool
	pageBreakAfter  bool
}

// namedColors covers the CSS basic colour keywords plus a few common extras.
var namedColors = map[string]string{
	"black":   "000000",
	"silver":  "C0C0C0",
	"gray":    "808080",
	"grey":    "808080",
	"white":   "FFFFFF",
	"maroon":  "800000",
	"red":     "FF0000",
	"purple":  "800080",
	"fuchsia": "FF00FF",
	"magenta": "FF00FF",
	"green":   "008000",
	"lime":    "00FF00",
	"olive":   "808000",
	"yellow":  "FFFF00",
	"navy":    "000080",
	"blue":    "0000FF",
	"teal":    "008080",
	"aqua":    "00FFFF",
	"cyan":    "00FFFF",
	"orange":  "FFA500",
	"brown":   "A52A2A",
	"pink":    "FFC0CB",
}

// elementStyle returns the run delta and block properties carried by an
// element's style attribute and legacy presentational attributes.
func elementStyle(n *markup.Node) (classify.StyleDelta, blockStyle) {
	var d classify.StyleDelta
	var b blockStyle

	if align, ok := parseAlignment(n.Attr("align")); ok {
		b.align, b.hasAlign = align, true
	}
	if n.Tag == "center" {
		b.align, b.hasAlign = model.AlignCenter, true
	}
	if n.Tag == "font" {
		if c, ok := parseColor(n.Attr("color")); ok {
			d = d.Merge(classify.StyleDelta{Axes: classify.AxisColor, Color: c})
		}
		if face := firstFontFamily(n.Attr("face")); face != "" {
			d = d.Merge(classify.StyleDelta{Axes: classify.AxisFontFamily, FontFamily: face})
		}
		if size, ok := legacyFontSize(n.Attr("size")); ok {
			d = d.Merge(classify.StyleDelta{Axes: classify.AxisFontSize, FontSize: size})
		}
	}

	style := n.Attr("style")
	if style == "" {
		return d, b
	}
	for _, decl := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if value == "" {
			continue
		}
		applyDeclaration(prop, value, &d, &b)
	}
	return d, b
}

func applyDeclaration(prop, raw string, d *classify.StyleDelta, b *blockStyle) {
	value := strings.ToLower(raw)
	switch prop {
	case "font-weight":
		bold := value == "bold" || value == "bolder"
		if n, err := strconv.Atoi(value); err == nil {
			bold = n >= 600
		}
		*d = d.Merge(classify.StyleDelta{Axes: classify.AxisBold, Bold: bold})
	case "font-style":
		*d = d.Merge(classify.StyleDelta{Axes: classify.AxisItalic, Italic: value == "italic" || value == "oblique"})
	case "text-decoration", "text-decoration-line":
		if strings.Contains(value, "underline") {
			*d = d.Merge(classify.DeltaUnderline)
		}
		if strings.Contains(value, "line-through") {
			*d = d.Merge(classify.DeltaStrike)
		}
		if value == "none" {
			*d = d.Merge(classify.StyleDelta{Axes: classify.AxisUnderline | classify.AxisStrike})
		}
	case "color":
		if c, ok := parseColor(value); ok {
			*d = d.Merge(classify.StyleDelta{Axes: classify.AxisColor, Color: c})
		}
	case "font-size":
		if size, ok := parseFontSize(value); ok {
			*d = d.Merge(classify.StyleDelta{Axes: classify.AxisFontSize, FontSize: size})
		}
	case "font-family":
		if face := firstFontFamily(raw); face != "" {
			*d = d.Merge(classify.StyleDelta{Axes: classify.AxisFontFamily, FontFamily: face})
		}
	case "vertical-align":
		switch value {
		case "super":
			*d = d.Merge(classify.DeltaSuperscript)
		case "sub":
			*d = d.Merge(classify.DeltaSubscript)
		case "baseline":
			*d = d.Merge(classify.StyleDelta{Axes: classify.AxisVertAlign, VertAlign: model.VertAlignBaseline})
		}
	case "text-align":
		if align, ok := parseAlignment(value); ok {
			b.align, b.hasAlign = align, true
		}
	case "page-break-before", "break-before":
		b.pageBreakBefore = value == "always" || value == "page"
	case "page-break-after", "break-after":
		b.pageBreakAfter = value == "always" || value == "page"
	}
}

func parseAlignment(s string) (model.TextAlignment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "start":
		return model.AlignLeft, true
	case "center", "middle":
		return model.AlignCenter, true
	case "right", "end":
		return model.AlignRight, true
	case "justify":
		return model.AlignJustify, true
	}
	return model.AlignLeft, false
}

// parseColor accepts #rgb, #rrggbb, rgb(r, g, b) and named colours, and
// returns an upper-case RRGGBB value.
func parseColor(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		return hex, true
	}
	if strings.HasPrefix(s, "#") {
		h := s[1:]
		if len(h) == 3 {
			h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		}
		if len(h) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(h, 16, 32); err != nil {
			return "", false
		}
		return strings.ToUpper(h), true
	}
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return "", false
		}
		var rgb [3]int
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return "", false
			}
			rgb[i] = v
		}
		return fmt.Sprintf("%02X%02X%02X", rgb[0], rgb[1], rgb[2]), true
	}
	return "", false
}

// parseFontSize converts pt, px, em and keyword sizes to points.
func parseFontSize(s string) (float64, bool) {
	switch s {
	case "xx-small":
		return 7, true
	case "x-small":
		return 7.5, true
	case "small":
		return 10, true
	case "medium":
		return 12, true
	case "large":
		return 13.5, true
	case "x-large":
		return 18, true
	case "xx-large":
		return 24, true
	}

	unit := 1.0
	switch {
	case strings.HasSuffix(s, "pt"):
		s = strings.TrimSuffix(s, "pt")
	case strings.HasSuffix(s, "px"):
		s, unit = strings.TrimSuffix(s, "px"), 0.75
	case strings.HasSuffix(s, "em"):
		s, unit = strings.TrimSuffix(s, "em"), 12
	case strings.HasSuffix(s, "%"):
		s, unit = strings.TrimSuffix(s, "%"), 0.12
	default:
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	size := v * unit
	if size > 400 {
		size = 400
	}
	return size, true
}

// legacyFontSize maps <font size="1".."7"> to points.
func legacyFontSize(s string) (float64, bool) {
	sizes := [...]float64{7.5, 10, 12, 13.5, 18, 24, 36}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	if n < 1 {
		n = 1
	}
	if n > len(sizes) {
		n = len(sizes)
	}
	return sizes[n-1], true
}

func firstFontFamily(s string) string {
	first, _, _ := strings.Cut(s, ",")
	first = strings.Trim(strings.TrimSpace(first), `"'`)
	switch strings.ToLower(first) {
	case "monospace":
		return classify.MonospaceFont
	case "serif":
		return "Times New Roman"
	case "sans-serif":
		return "Arial"
	}
	return first
}
