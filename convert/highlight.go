package convert

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// codeLanguage returns the language declared on a code block or its single
// <code> child via class="language-x", class="lang-x" or data-lang.
func codeLanguage(n *markup.Node) string {
	candidates := []*markup.Node{n}
	if kids := n.ElementChildren(); len(kids) == 1 && kids[0].Tag == "code" {
		candidates = append(candidates, kids[0])
	}
	for _, c := range candidates {
		if lang := c.Attr("data-lang"); lang != "" {
			return strings.ToLower(lang)
		}
		for _, class := range c.Classes() {
			for _, prefix := range []string{"language-", "lang-"} {
				if strings.HasPrefix(class, prefix) {
					return strings.ToLower(strings.TrimPrefix(class, prefix))
				}
			}
		}
	}
	return ""
}

// highlightRuns tokenises code and returns coloured runs. Newlines become
// break runs. ok is false when no lexer matches the language.
func highlightRuns(code, lang, styleName string, base model.RunStyle) (runs []model.Run, ok bool) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return nil, false
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iter, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, false
	}

	for tok := iter(); tok != chroma.EOF; tok = iter() {
		rs := base
		entry := style.Get(tok.Type)
		if entry.Colour.IsSet() {
			rs.Color = strings.ToUpper(strings.TrimPrefix(entry.Colour.String(), "#"))
		}
		if entry.Bold == chroma.Yes {
			rs.Bold = true
		}
		if entry.Italic == chroma.Yes {
			rs.Italic = true
		}
		runs = appendLines(runs, tok.Value, rs)
	}
	return runs, true
}

// appendLines appends text as runs, turning each newline into a break run.
func appendLines(runs []model.Run, text string, style model.RunStyle) []model.Run {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			runs = append(runs, model.Run{Break: true, Style: style})
		}
		if line != "" {
			runs = append(runs, model.Run{Text: line, Style: style})
		}
	}
	return runs
}
