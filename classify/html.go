package classify

import "strings"

// Dictionary is an exact tag-to-role mapping.
type Dictionary struct {
	roles    map[string]Role
	fallback Role
}

// Classify returns the role for tag, or the dictionary's fallback.
func (d *Dictionary) Classify(tag string) Role {
	if role, ok := d.roles[strings.ToLower(tag)]; ok {
		return role
	}
	return d.fallback
}

// Lookup returns the role for tag and whether the dictionary defines it.
func (d *Dictionary) Lookup(tag string) (Role, bool) {
	role, ok := d.roles[strings.ToLower(tag)]
	return role, ok
}

// NewDictionary builds a dictionary from a mapping. Unmapped tags classify
// as fallback. The map is copied.
func NewDictionary(roles map[string]Role, fallback Role) *Dictionary {
	d := &Dictionary{roles: make(map[string]Role, len(roles)), fallback: fallback}
	for tag, role := range roles {
		d.roles[strings.ToLower(tag)] = role
	}
	return d
}

// HTML is the fixed dictionary for standard HTML. Unmapped tags are Unknown
// and treated as transparent containers.
var HTML = NewDictionary(htmlRoles(), Role{Kind: Unknown})

func htmlRoles() map[string]Role {
	roles := map[string]Role{
		// Headings
		"h1": {Kind: Heading, Level: 1},
		"h2": {Kind: Heading, Level: 2},
		"h3": {Kind: Heading, Level: 3},
		"h4": {Kind: Heading, Level: 4},
		"h5": {Kind: Heading, Level: 5},
		"h6": {Kind: Heading, Level: 6},

		// Paragraph-level
		"p":          {Kind: Paragraph},
		"dt":         {Kind: Paragraph},
		"dd":         {Kind: Paragraph},
		"figcaption": {Kind: Paragraph},
		"address":    {Kind: Paragraph},
		"pre":        {Kind: CodeBlock},
		"listing":    {Kind: CodeBlock},
		"xmp":        {Kind: CodeBlock},
		"blockquote": {Kind: Quote},

		// Lists
		"ul":   {Kind: List},
		"menu": {Kind: List},
		"dir":  {Kind: List},
		"ol":   {Kind: List, Ordered: true},
		"li":   {Kind: ListItem},

		// Tables
		"table":   {Kind: Table},
		"thead":   {Kind: TableSection, Header: true},
		"tbody":   {Kind: TableSection},
		"tfoot":   {Kind: TableSection},
		"tr":      {Kind: Row},
		"td":      {Kind: Cell},
		"th":      {Kind: Cell, Header: true},
		"caption": {Kind: Caption},

		// Embedded and structural inline
		"a":   {Kind: Link},
		"img": {Kind: Image},
		"br":  {Kind: LineBreak},
		"hr":  {Kind: HorizontalRule},

		// Inline styles
		"b":      {Kind: Inline, Delta: DeltaBold},
		"strong": {Kind: Inline, Delta: DeltaBold},
		"i":      {Kind: Inline, Delta: DeltaItalic},
		"em":     {Kind: Inline, Delta: DeltaItalic},
		"cite":   {Kind: Inline, Delta: DeltaItalic},
		"var":    {Kind: Inline, Delta: DeltaItalic},
		"dfn":    {Kind: Inline, Delta: DeltaItalic},
		"u":      {Kind: Inline, Delta: DeltaUnderline},
		"ins":    {Kind: Inline, Delta: DeltaUnderline},
		"s":      {Kind: Inline, Delta: DeltaStrike},
		"strike": {Kind: Inline, Delta: DeltaStrike},
		"del":    {Kind: Inline, Delta: DeltaStrike},
		"sup":    {Kind: Inline, Delta: DeltaSuperscript},
		"sub":    {Kind: Inline, Delta: DeltaSubscript},
		"code":   {Kind: Inline, Delta: DeltaCode},
		"kbd":    {Kind: Inline, Delta: DeltaCode},
		"samp":   {Kind: Inline, Delta: DeltaCode},
		"tt":     {Kind: Inline, Delta: DeltaCode},
		"big":    {Kind: Inline, Delta: StyleDelta{Axes: AxisFontSize, FontSize: 14}},
		"small":  {Kind: Inline, Delta: StyleDelta{Axes: AxisFontSize, FontSize: 9}},
		"mark":   {Kind: Inline},
		"span":   {Kind: Inline},
		"abbr":   {Kind: Inline},
		"label":  {Kind: Inline},
		"font":   {Kind: Inline},
		"q":      {Kind: Inline},
		"time":   {Kind: Inline},
		"data":   {Kind: Inline},
		"bdi":    {Kind: Inline},
		"bdo":    {Kind: Inline},
		"nobr":   {Kind: Inline},
		"wbr":    {Kind: Inline},
	}

	// Transparent block containers
	for _, tag := range []string{
		"html", "body", "div", "section", "article", "main", "header", "footer",
		"nav", "aside", "figure", "details", "summary", "center", "form",
		"fieldset", "dl", "hgroup", "search",
	} {
		roles[tag] = Role{Kind: Container}
	}

	// Non-content elements
	for _, tag := range []string{
		"head", "title", "meta", "link", "script", "style", "noscript",
		"template", "svg", "math", "iframe", "object", "embed", "canvas",
		"video", "audio", "source", "track", "map", "area", "button",
		"input", "select", "textarea", "option", "datalist", "dialog",
		"param", "base", "col", "colgroup",
	} {
		roles[tag] = Role{Kind: Ignore}
	}

	return roles
}
