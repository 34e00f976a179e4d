// Package source holds the raw, already-parsed template tree consumed by the
// compiler, and the markup reader that produces it.
//
// A source tree is plain data: element names, ordered attribute text and
// ordered children, each tagged with the position it was read from. It is
// never validated here; validation belongs to the compiler.
package source

import (
	"fmt"
	"strings"
)

// InstructionPrefix marks elements that belong to the instruction namespace.
const InstructionPrefix = "xsl:"

// Kind distinguishes the node types of a source tree.
type Kind int

const (
	DocumentNode Kind = iota
	ElementNode
	TextNode
	CommentNode
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

// Position locates a node in its source file. Line and Column are 1-based;
// zero means unknown.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	file := p.File
	if file == "" {
		file = "<input>"
	}
	if p.Line == 0 {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, p.Line, p.Column)
}

// Attr is one raw attribute as written in the source.
type Attr struct {
	Name  string
	Value string
}

// Node is a raw source node.
type Node struct {
	Kind     Kind
	Name     string
	Attrs    []Attr
	Data     string
	Children []*Node
	Pos      Position
}

// NewDocument returns a document node owning children.
func NewDocument(children ...*Node) *Node {
	return &Node{Kind: DocumentNode, Children: children}
}

// NewElement returns an element node.
func NewElement(name string, attrs []Attr, children ...*Node) *Node {
	return &Node{Kind: ElementNode, Name: name, Attrs: attrs, Children: children}
}

// NewText returns a text node.
func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

// NewComment returns a comment node.
func NewComment(data string) *Node {
	return &Node{Kind: CommentNode, Data: data}
}

// Attr returns the raw value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// IsInstruction reports whether n is an element in the instruction namespace.
func (n *Node) IsInstruction() bool {
	return n.Kind == ElementNode && strings.HasPrefix(n.Name, InstructionPrefix)
}

// IsWhitespace reports whether n is a text node holding only XML whitespace.
func (n *Node) IsWhitespace() bool {
	return n.Kind == TextNode && strings.TrimLeft(n.Data, " \t\r\n") == ""
}

// Root returns the single element child of a document node, or nil when
// there is none or more than one.
func (n *Node) Root() *Node {
	var root *Node
	for _, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		if root != nil {
			return nil
		}
		root = c
	}
	return root
}
