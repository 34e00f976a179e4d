package instruction

import (
	"context"
	"errors"
	"fmt"

	"github.com/conneroisu/xslate/internal/attrtype"
	"github.com/conneroisu/xslate/internal/contentmodel"
	xerrors "github.com/conneroisu/xslate/internal/errors"
	"github.com/conneroisu/xslate/internal/logging"
	"github.com/conneroisu/xslate/internal/source"
)

// Compiler turns raw source trees into Ready instructions.
type Compiler struct {
	registry *Registry
	logger   logging.Logger
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithRegistry makes the compiler resolve instructions in r.
func WithRegistry(r *Registry) CompilerOption {
	return func(c *Compiler) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger sets the compiler's logger.
func WithLogger(l logging.Logger) CompilerOption {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCompiler creates a compiler using the built-in instruction table.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{registry: Default(), logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("compiler")
	return c
}

// scope collects what one compilation declares and references, so names
// can be checked once the whole tree is set up.
type scope struct {
	templates map[string]*Template
	calls     []*CallTemplate
}

func newScope() *scope {
	return &scope{templates: make(map[string]*Template)}
}

func (s *scope) resolve() error {
	for _, call := range s.calls {
		if _, ok := s.templates[call.target]; ok {
			continue
		}
		pos := call.Pos()
		return xerrors.NewAttributeError(xerrors.ErrCodeTemplateNotFound, "name", call.target,
			fmt.Sprintf("no template named %q", call.target)).
			WithInstruction(call.Name()).
			WithLocation(pos.File, pos.Line, pos.Column)
	}
	return nil
}

// Compile sets up a stylesheet document. The root element is either
// xsl:stylesheet (or xsl:transform), or a literal result element, which is
// treated as the body of a template matching "/".
func (c *Compiler) Compile(doc *source.Node) (*Tree, error) {
	if doc == nil {
		return nil, xerrors.NewSourceError(xerrors.ErrCodeMalformedSource, "no stylesheet document", nil)
	}
	root := doc
	if doc.Kind == source.DocumentNode {
		root = doc.Root()
		if root == nil {
			return nil, xerrors.NewSourceError(xerrors.ErrCodeMalformedSource,
				"document must contain exactly one root element", nil).
				WithLocation(doc.Pos.File, 0, 0)
		}
	}

	perf := logging.StartOperation(c.logger, "compile")
	sc := newScope()

	var sheet *Stylesheet
	if root.IsInstruction() {
		in, err := c.setup(root, nil, sc)
		if err != nil {
			perf.EndWithError(context.Background(), err)
			return nil, err
		}
		s, ok := in.(*Stylesheet)
		if !ok {
			err := xerrors.NewContentModelError(xerrors.ErrCodeChildMismatch,
				fmt.Sprintf("%s cannot be the root of a stylesheet", root.Name), 0).
				WithContext("child", "element:"+root.Name).
				WithContext("expected", []string{"element:xsl:stylesheet", "element:xsl:transform", "literal-element"}).
				WithLocation(root.Pos.File, root.Pos.Line, root.Pos.Column)
			perf.EndWithError(context.Background(), err)
			return nil, err
		}
		sheet = s
	} else {
		body, err := c.setup(root, nil, sc)
		if err != nil {
			perf.EndWithError(context.Background(), err)
			return nil, err
		}
		sheet = simplified(root, body)
	}

	if err := sc.resolve(); err != nil {
		perf.EndWithError(context.Background(), err)
		return nil, err
	}
	sheet.templates = sc.templates

	perf.End(context.Background())
	c.logger.Debug(context.Background(), "Stylesheet compiled",
		"file", root.Pos.File,
		"templates", len(sc.templates),
		"method", string(sheet.output.Method))

	return &Tree{
		root:      sheet,
		entry:     sheet.entry,
		output:    sheet.output,
		templates: sc.templates,
	}, nil
}

// CompileElement sets up a single instruction subtree outside any
// stylesheet. Template calls inside it cannot resolve and are rejected.
func (c *Compiler) CompileElement(n *source.Node) (Instruction, error) {
	if n == nil || n.Kind != source.ElementNode {
		return nil, xerrors.NewSourceError(xerrors.ErrCodeMalformedSource, "expected an element", nil)
	}
	sc := newScope()
	in, err := c.setup(n, nil, sc)
	if err != nil {
		return nil, err
	}
	if err := sc.resolve(); err != nil {
		return nil, err
	}
	return in, nil
}

func (c *Compiler) definition(n *source.Node) (*Definition, error) {
	if !n.IsInstruction() {
		return literalDefinition, nil
	}
	def, ok := c.registry.Get(n.Name)
	if !ok {
		return nil, xerrors.NewContentModelError(xerrors.ErrCodeUnknownInstruction,
			fmt.Sprintf("unknown instruction %s", n.Name), 0).
			WithContext("child", "element:"+n.Name).
			WithInstruction(n.Name).
			WithLocation(n.Pos.File, n.Pos.Line, n.Pos.Column)
	}
	return def, nil
}

// setup runs the full setup of one element: placement, content model,
// attributes, children, then the kind's own Setup. parent is nil for the
// element being compiled.
func (c *Compiler) setup(n *source.Node, parent *Definition, sc *scope) (Instruction, error) {
	def, err := c.definition(n)
	if err != nil {
		return nil, err
	}
	if err := placement(n, def, parent); err != nil {
		return nil, err
	}

	children := significantChildren(n, def.PreserveSpace)
	kinds := make([]contentmodel.Child, len(children))
	for i, ch := range children {
		kinds[i] = childKind(ch)
	}
	if err := contentmodel.Validate(def.Model, kinds); err != nil {
		return nil, annotate(err, n, children)
	}

	el := &Element{Def: def, Node: n, scope: sc}

	if !def.AnyAttributes {
		raw := make(map[string]string, len(n.Attrs))
		for _, a := range n.Attrs {
			raw[a.Name] = a.Value
		}
		set, err := attrtype.CoerceAll(def.Attrs, raw)
		if err != nil {
			return nil, annotate(err, n, nil)
		}
		el.Attrs = set
	}

	for _, ch := range children {
		switch ch.Kind {
		case source.TextNode:
			el.texts = append(el.texts, ch.Data)
			el.Body = append(el.Body, &textRun{
				Base:  Base{name: "#text", pos: ch.Pos},
				value: ch.Data,
			})
		case source.ElementNode:
			in, err := c.setup(ch, def, sc)
			if err != nil {
				return nil, err
			}
			el.Body = append(el.Body, in)
		}
	}

	in, err := def.Setup(el)
	if err != nil {
		return nil, annotate(err, n, nil)
	}
	return in, nil
}

// placement checks that top-level kinds sit directly in a stylesheet and
// that nothing else does.
func placement(n *source.Node, def, parent *Definition) error {
	if parent == nil || def == literalDefinition {
		return nil
	}
	atTop := parent.Name == NameStylesheet || parent.Name == NameTransform
	if def.TopLevel == atTop {
		return nil
	}

	msg := fmt.Sprintf("%s is only allowed at the top level of a stylesheet", n.Name)
	if atTop {
		msg = fmt.Sprintf("%s is not allowed at the top level of a stylesheet", n.Name)
	}
	return xerrors.NewContentModelError(xerrors.ErrCodeMisplaced, msg, 0).
		WithContext("child", "element:"+n.Name).
		WithContext("parent", parent.Name).
		WithInstruction(n.Name).
		WithLocation(n.Pos.File, n.Pos.Line, n.Pos.Column)
}

// significantChildren drops whitespace-only text unless preserve is set.
func significantChildren(n *source.Node, preserve bool) []*source.Node {
	out := make([]*source.Node, 0, len(n.Children))
	for _, ch := range n.Children {
		if !preserve && ch.IsWhitespace() {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func childKind(n *source.Node) contentmodel.Child {
	switch n.Kind {
	case source.TextNode:
		return contentmodel.Child{Kind: contentmodel.ChildText}
	case source.CommentNode:
		return contentmodel.Child{Kind: contentmodel.ChildComment}
	default:
		return contentmodel.Child{Kind: contentmodel.ChildElement, Name: n.Name, Instruction: n.IsInstruction()}
	}
}

// annotate attaches the instruction and its location to a setup error that
// does not carry them yet. Content model errors also get the position of the
// offending child.
func annotate(err error, n *source.Node, children []*source.Node) error {
	var xe *xerrors.XslateError
	if !errors.As(err, &xe) {
		xe = xerrors.NewInternalError(xerrors.ErrCodeInternalError, "setup failed", err)
	}
	if xe.Instruction == "" {
		xe.WithInstruction(n.Name).WithLocation(n.Pos.File, n.Pos.Line, n.Pos.Column)
	}
	if xe.Type == xerrors.ErrorTypeContentModel {
		if pos, ok := xe.Context["position"].(int); ok && pos < len(children) {
			xe.WithContext("child_at", children[pos].Pos.String())
		}
	}
	return xe
}
