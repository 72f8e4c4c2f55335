package classify

import (
	"strings"

	"golang.org/x/text/cases"
)

// keywordGroup maps a set of substrings to a role. Groups are tried in
// slice order; the first group with a matching keyword wins.
type keywordGroup struct {
	name     string
	keywords []string
	role     Role
}

// heuristicGroups is ordered Heading > List > Table > Paragraph, followed by
// the embedded and inline groups. Within a category the more specific
// keywords come first (item before list, row and cell before table).
var heuristicGroups = []keywordGroup{
	{"heading", []string{"title", "head", "caption"}, Role{Kind: Heading, Level: 1}},
	{"heading", []string{"chapter", "section"}, Role{Kind: Heading, Level: 2}},
	{"list", []string{"item"}, Role{Kind: ListItem}},
	{"list", []string{"list"}, Role{Kind: List}},
	{"table", []string{"row", "record"}, Role{Kind: Row}},
	{"table", []string{"cell", "field"}, Role{Kind: Cell}},
	{"table", []string{"table", "grid", "data"}, Role{Kind: Table}},
	{"paragraph", []string{"text", "content", "desc", "para"}, Role{Kind: Paragraph}},
	{"image", []string{"image", "img", "figure", "picture"}, Role{Kind: Image}},
	{"link", []string{"link", "url", "href"}, Role{Kind: Link}},
	{"inline", []string{"bold", "strong"}, Role{Kind: Inline, Delta: DeltaBold}},
	{"inline", []string{"emph", "italic"}, Role{Kind: Inline, Delta: DeltaItalic}},
}

// heuristicExact holds short tags that substring matching cannot handle
// safely but that XHTML-like vocabularies commonly reuse.
var heuristicExact = map[string]Role{
	"p":      {Kind: Paragraph},
	"br":     {Kind: LineBreak},
	"hr":     {Kind: HorizontalRule},
	"b":      {Kind: Inline, Delta: DeltaBold},
	"strong": {Kind: Inline, Delta: DeltaBold},
	"i":      {Kind: Inline, Delta: DeltaItalic},
	"em":     {Kind: Inline, Delta: DeltaItalic},
	"u":      {Kind: Inline, Delta: DeltaUnderline},
	"sup":    {Kind: Inline, Delta: DeltaSuperscript},
	"sub":    {Kind: Inline, Delta: DeltaSubscript},
	"a":      {Kind: Link},
	"img":    {Kind: Image},
}

// Heuristic classifies arbitrary tag vocabularies by keyword substring
// matching. Tags matching no keyword are Unknown.
type Heuristic struct{}

// NewHeuristic returns the heuristic classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify implements Classifier.
func (h *Heuristic) Classify(tag string) Role {
	name := normalizeTag(tag)
	if role, ok := heuristicExact[name]; ok {
		return role
	}
	for _, g := range heuristicGroups {
		if containsAny(name, g.keywords) {
			return g.role
		}
	}
	return Role{Kind: Unknown}
}

// Ambiguous returns the distinct keyword categories a tag matches, in
// priority order. More than one entry means Classify resolved a tie.
func (h *Heuristic) Ambiguous(tag string) []string {
	name := normalizeTag(tag)
	var matched []string
	for _, g := range heuristicGroups {
		if !containsAny(name, g.keywords) {
			continue
		}
		if len(matched) == 0 || matched[len(matched)-1] != g.name {
			matched = append(matched, g.name)
		}
	}
	return matched
}

// normalizeTag case-folds a tag and drops any namespace prefix.
func normalizeTag(tag string) string {
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		tag = tag[i+1:]
	}
	// A Caser keeps state, so one is created per call
	return cases.Fold().String(tag)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
