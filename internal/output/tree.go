package output

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TreeBuilder is a Context that assembles an in-memory result tree. Escaped
// text becomes text nodes; unescaped text becomes raw nodes, which the
// renderer inserts verbatim.
type TreeBuilder struct {
	root    *html.Node
	current *html.Node
}

// NewTreeBuilder creates a builder with an empty document root
func NewTreeBuilder() *TreeBuilder {
	root := &html.Node{Type: html.DocumentNode}
	return &TreeBuilder{root: root, current: root}
}

func (b *TreeBuilder) Text(value string, escape bool) {
	if value == "" {
		return
	}
	typ := html.TextNode
	if !escape {
		typ = html.RawNode
	}
	b.current.AppendChild(&html.Node{Type: typ, Data: value})
}

func (b *TreeBuilder) StartElement(name string) {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     name,
		DataAtom: atom.Lookup([]byte(name)),
	}
	b.current.AppendChild(n)
	b.current = n
}

func (b *TreeBuilder) Attribute(name, value string) {
	n := b.current
	if n.Type != html.ElementNode || n.FirstChild != nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func (b *TreeBuilder) EndElement(name string) {
	if b.current.Parent != nil {
		b.current = b.current.Parent
	}
}

func (b *TreeBuilder) Comment(value string) {
	b.current.AppendChild(&html.Node{Type: html.CommentNode, Data: value})
}

// Root returns the document node of the result tree.
func (b *TreeBuilder) Root() *html.Node { return b.root }

// Render writes the result tree as HTML.
func (b *TreeBuilder) Render(w io.Writer) error {
	for c := b.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}
