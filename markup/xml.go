package markup

import (
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/unicode/norm"
)

// ParseXML parses an XML document with an arbitrary tag vocabulary. Unlike
// HTML, XML is parsed strictly: malformed input returns a *ParseError.
// The returned Root is the document element; Title is taken from a
// top-level title attribute when present.
func ParseXML(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &ParseError{Format: "xml", Err: err}
	}

	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Format: "xml", Err: ErrNoRoot}
	}

	out := &Document{
		Root:  fromXML(root),
		Title: root.SelectAttrValue("title", ""),
		Meta:  make(map[string]string),
	}
	for _, a := range root.Attr {
		if a.Space == "" && a.Key != "title" {
			out.Meta[a.Key] = a.Value
		}
	}
	return out, nil
}

// ParseXMLString is a convenience wrapper around ParseXML.
func ParseXMLString(s string) (*Document, error) {
	return ParseXML(strings.NewReader(s))
}

func fromXML(src *etree.Element) *Node {
	root := copyXMLElement(src)

	type pending struct {
		src *etree.Element
		dst *Node
	}
	stack := []pending{{src, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, tok := range p.src.Child {
			switch t := tok.(type) {
			case *etree.Element:
				child := copyXMLElement(t)
				p.dst.AppendChild(child)
				stack = append(stack, pending{t, child})
			case *etree.CharData:
				p.dst.AppendChild(NewText(norm.NFC.String(t.Data)))
			}
		}
	}
	return root
}

func copyXMLElement(e *etree.Element) *Node {
	attrs := make(map[string]string, len(e.Attr))
	for _, a := range e.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		attrs[a.Key] = a.Value
	}
	return &Node{Type: ElementNode, Tag: e.Tag, Attrs: attrs}
}
