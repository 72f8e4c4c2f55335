package convert

import (
	"regexp"
	"strings"

	"github.com/tsawler/quire/markup"
)

// navigationPatterns matches class/id values that indicate navigation or
// boilerplate content.
var navigationPatterns = regexp.MustCompile(
	`(?i)(^|[^a-z])(nav|navbar|navigation|menu|topnav|sidenav|breadcrumb|breadcrumbs|` +
		`site-header|page-header|masthead|banner|` +
		`footer|site-footer|page-footer|colophon|` +
		`sidebar|widget-area|widget|aside)([^a-z]|$)`)

// exclusionChecker decides which subtrees are skipped as boilerplate.
type exclusionChecker struct {
	mode             NavigationExclusion
	body             *markup.Node
	topLevelWrapper  *markup.Node
	linkDensityCache map[*markup.Node]float64
}

func newExclusionChecker(mode NavigationExclusion, root *markup.Node) *exclusionChecker {
	ec := &exclusionChecker{
		mode:             mode,
		body:             root,
		linkDensityCache: make(map[*markup.Node]float64),
	}
	if mode != NavigationExclusionNone && root != nil {
		ec.topLevelWrapper = detectTopLevelWrapper(root)
	}
	return ec
}

// detectTopLevelWrapper finds a single structural wrapper element, as in
// <body><div id="wrapper">...</div></body>.
func detectTopLevelWrapper(body *markup.Node) *markup.Node {
	var structural []*markup.Node
	for _, c := range body.ElementChildren() {
		switch c.Tag {
		case "div", "main":
			structural = append(structural, c)
		case "script", "style", "noscript", "template":
		default:
			return nil
		}
	}
	if len(structural) == 1 {
		return structural[0]
	}
	return nil
}

func (ec *exclusionChecker) shouldExclude(n *markup.Node) bool {
	if ec == nil || ec.mode == NavigationExclusionNone || !n.IsElement() {
		return false
	}
	if ec.shouldExcludeExplicit(n) {
		return true
	}
	if ec.mode >= NavigationExclusionStandard && ec.shouldExcludeByPattern(n) {
		return true
	}
	if ec.mode >= NavigationExclusionAggressive && ec.shouldExcludeByLinkDensity(n) {
		return true
	}
	return false
}

func (ec *exclusionChecker) shouldExcludeExplicit(n *markup.Node) bool {
	switch n.Tag {
	case "nav", "aside":
		return true
	}

	switch n.Attr("role") {
	case "navigation", "complementary":
		return true
	case "banner", "contentinfo":
		return ec.isTopLevel(n)
	}

	switch n.Tag {
	case "header", "footer":
		return ec.isTopLevel(n)
	}
	return false
}

// isTopLevel reports whether n is a direct child of the body or of a single
// top-level wrapper.
func (ec *exclusionChecker) isTopLevel(n *markup.Node) bool {
	parent := n.Parent
	if parent == nil {
		return false
	}
	return parent == ec.body || (ec.topLevelWrapper != nil && parent == ec.topLevelWrapper)
}

func (ec *exclusionChecker) shouldExcludeByPattern(n *markup.Node) bool {
	if class := n.Attr("class"); class != "" && navigationPatterns.MatchString(class) {
		return true
	}
	if id := n.Attr("id"); id != "" && navigationPatterns.MatchString(id) {
		return true
	}
	return false
}

// shouldExcludeByLinkDensity flags block containers where more than 60% of
// the text sits inside at least four links.
func (ec *exclusionChecker) shouldExcludeByLinkDensity(n *markup.Node) bool {
	switch n.Tag {
	case "div", "section", "ul", "ol":
	default:
		return false
	}
	return ec.linkDensity(n) > 0.6 && countLinks(n) >= 4
}

func (ec *exclusionChecker) linkDensity(n *markup.Node) float64 {
	if cached, ok := ec.linkDensityCache[n]; ok {
		return cached
	}
	density := 0.0
	if total := textLength(n); total > 0 {
		density = float64(linkTextLength(n)) / float64(total)
	}
	ec.linkDensityCache[n] = density
	return density
}

func textLength(n *markup.Node) int {
	if n.IsText() {
		return len(strings.TrimSpace(n.Text))
	}
	total := 0
	for _, c := range n.Children {
		total += textLength(c)
	}
	return total
}

func linkTextLength(n *markup.Node) int {
	if n.IsElement() && n.Tag == "a" {
		return textLength(n)
	}
	total := 0
	for _, c := range n.Children {
		total += linkTextLength(c)
	}
	return total
}

func countLinks(n *markup.Node) int {
	count := 0
	if n.IsElement() && n.Tag == "a" {
		count = 1
	}
	for _, c := range n.Children {
		count += countLinks(c)
	}
	return count
}
