package markup

import (
	"bytes"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

// OpenHTML parses an HTML file.
func OpenHTML(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseHTML(bytes.NewReader(data), "")
}

// ParseHTML parses an HTML document. The input encoding is detected from a
// BOM, a <meta charset> declaration or contentType (which may be empty), and
// decoded to UTF-8. The returned Root is the <body> element, or the document
// node when the source has no body.
func ParseHTML(r io.Reader, contentType string) (*Document, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, &ParseError{Format: "html", Err: err}
	}

	doc, err := html.Parse(utf8Reader)
	if err != nil {
		return nil, &ParseError{Format: "html", Err: err}
	}

	out := &Document{Meta: make(map[string]string)}
	extractHead(doc, out)

	body := findHTMLElement(doc, "body")
	if body == nil {
		// No body tag, try to extract from root
		body = doc
	}
	out.Root = fromHTML(body)

	return out, nil
}

// ParseHTMLString is a convenience wrapper around ParseHTML.
func ParseHTMLString(s string) (*Document, error) {
	return ParseHTML(strings.NewReader(s), "text/html; charset=utf-8")
}

// extractHead extracts title and meta tags from the head element.
func extractHead(n *html.Node, out *Document) {
	head := findHTMLElement(n, "head")
	if head == nil {
		return
	}
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "title":
			out.Title = strings.TrimSpace(htmlText(c))
		case "meta":
			name, content := "", ""
			for _, attr := range c.Attr {
				switch attr.Key {
				case "name", "property":
					name = strings.ToLower(attr.Val)
				case "content":
					content = attr.Val
				}
			}
			if name != "" && content != "" {
				out.Meta[name] = content
			}
		}
	}
}

// fromHTML copies an x/net/html subtree into a Node tree. The walk uses an
// explicit stack so pathological nesting cannot exhaust the goroutine stack.
func fromHTML(src *html.Node) *Node {
	root := copyHTMLNode(src)
	if root == nil {
		root = NewElement("body", nil)
	}

	type pending struct {
		src *html.Node
		dst *Node
	}
	stack := []pending{{src, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for c := p.src.FirstChild; c != nil; c = c.NextSibling {
			child := copyHTMLNode(c)
			if child == nil {
				continue
			}
			p.dst.AppendChild(child)
			if c.FirstChild != nil && child.Type == ElementNode {
				stack = append(stack, pending{c, child})
			}
		}
	}
	return root
}

func copyHTMLNode(n *html.Node) *Node {
	switch n.Type {
	case html.ElementNode:
		attrs := make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			attrs[strings.ToLower(a.Key)] = a.Val
		}
		return &Node{Type: ElementNode, Tag: n.Data, Attrs: attrs}
	case html.DocumentNode:
		return &Node{Type: ElementNode, Tag: "body", Attrs: map[string]string{}}
	case html.TextNode:
		return NewText(norm.NFC.String(n.Data))
	default:
		// Comments and doctypes carry no content
		return nil
	}
}

// findHTMLElement finds the first element with the given tag name.
func findHTMLElement(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findHTMLElement(c, tagName); result != nil {
			return result
		}
	}
	return nil
}

func htmlText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
