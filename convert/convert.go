// Package convert turns a parsed markup tree into a document model.
//
// Conversion is a single depth-first pass. Each element is classified into a
// role, and the role decides whether the element opens a block, contributes
// inline styling, or is skipped. Blocks are appended to the output only once
// complete, so the output is always in document reading order.
//
// Recoverable problems, such as an image that cannot be embedded, degrade to
// placeholder text and are reported as warnings. Only excessive nesting
// aborts a conversion.
package convert

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// Convert builds a document model from a parsed markup tree.
// It returns the document, the warnings collected along the way, and an
// error only when the tree cannot be converted at all.
func Convert(doc *markup.Document, opts Options) (*model.Document, []Warning, error) {
	if doc == nil || doc.Root == nil {
		return nil, nil, &ParseError{Format: "markup", Err: markup.ErrNoRoot}
	}

	out := model.NewDocument()
	out.Metadata = buildMetadata(doc, opts)

	v := newVisitor(out, opts, doc.Root)
	if err := v.visit(doc.Root); err != nil {
		v.log.Error("conversion aborted", zap.Error(err))
		return nil, v.warnings, err
	}
	v.closeParagraph()

	v.log.Debug("conversion complete",
		zap.Int("blocks", out.Len()),
		zap.Int("warnings", len(v.warnings)))
	return out, v.warnings, nil
}

// buildMetadata prefers explicit options and falls back to the source's
// title and meta tags.
func buildMetadata(doc *markup.Document, opts Options) model.Metadata {
	md := model.Metadata{
		Title:   firstNonEmpty(opts.Title, doc.Title),
		Author:  firstNonEmpty(opts.Author, doc.Meta["author"]),
		Subject: firstNonEmpty(opts.Subject, doc.Meta["subject"], doc.Meta["description"]),
		Custom:  make(map[string]string),
	}
	if kw := doc.Meta["keywords"]; kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				md.Keywords = append(md.Keywords, k)
			}
		}
	}
	for k, val := range doc.Meta {
		switch k {
		case "author", "subject", "description", "keywords":
		default:
			md.Custom[k] = val
		}
	}
	return md
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
