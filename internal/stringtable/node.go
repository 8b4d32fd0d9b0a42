package stringtable

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is one element of a parsed XML document.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Children []*Node
	// Text is the element's character data with surrounding whitespace trimmed.
	Text string
	// Raw marks Text as unescaped content, written back inside a CDATA section.
	Raw bool
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if qualifiedName(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasText reports whether the element carries a text payload.
func (n *Node) HasText() bool {
	return n.Text != ""
}

// ChildrenNamed returns the direct children with the given tag, in order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseTree decodes an XML document into its root element. Comments,
// processing instructions and directives are discarded. Namespace prefixes
// are kept verbatim so they survive a rewrite.
func parseTree(data []byte) (*Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		root  *Node
		stack []*Node
		text  []*strings.Builder
	)

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: qualifiedName(t.Name), Attrs: copyAttrs(t.Attr)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("decode xml: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("decode xml: unexpected end element </%s>", qualifiedName(t.Name))
			}
			n := stack[len(stack)-1]
			if n.Name != qualifiedName(t.Name) {
				return nil, fmt.Errorf("decode xml: element <%s> closed by </%s>", n.Name, qualifiedName(t.Name))
			}
			n.Text = strings.TrimSpace(text[len(text)-1].String())
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("decode xml: no root element")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("decode xml: unclosed element <%s>", stack[len(stack)-1].Name)
	}
	return root, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func copyAttrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(attrs))
	copy(out, attrs)
	return out
}

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

// render writes the document rooted at n. With pretty set every element
// starts on its own line, indented by one tab per level.
func render(w io.StringWriter, n *Node, pretty bool) error {
	sw := &stickyWriter{w: w}
	sw.write(xmlHeader)
	renderNode(sw, n, 0, pretty)
	if pretty {
		sw.write("\n")
	}
	return sw.err
}

func renderNode(sw *stickyWriter, n *Node, depth int, pretty bool) {
	sw.write("<" + n.Name)
	for _, a := range n.Attrs {
		sw.write(" " + qualifiedName(a.Name) + `="` + attrEscaper.Replace(a.Value) + `"`)
	}
	sw.write(">")

	if n.Text != "" {
		sw.write(renderText(n))
	}

	for _, c := range n.Children {
		if pretty {
			sw.write("\n" + strings.Repeat("\t", depth+1))
		}
		renderNode(sw, c, depth+1, pretty)
	}
	if pretty && len(n.Children) > 0 {
		sw.write("\n" + strings.Repeat("\t", depth))
	}

	sw.write("</" + n.Name + ">")
}

func renderText(n *Node) string {
	if !n.Raw {
		return textEscaper.Replace(n.Text)
	}
	// A literal "]]>" cannot appear inside CDATA; split it across two sections.
	return "<![CDATA[" + strings.ReplaceAll(n.Text, "]]>", "]]]]><![CDATA[>") + "]]>"
}

type stickyWriter struct {
	w   io.StringWriter
	err error
}

func (s *stickyWriter) write(str string) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.WriteString(str)
}
