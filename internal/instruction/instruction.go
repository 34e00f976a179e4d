// Package instruction defines the instruction kinds of the template language
// and the two phases every compiled node goes through.
//
// Setup happens once, in the Compiler: the raw source element is checked
// against its kind's content model, its attributes are coerced to typed
// values, its children are set up, and the kind's Setup function turns the
// resulting Element into a Ready Instruction. Instantiate happens at run
// time, any number of times, against a RunContext that belongs to a single
// run. Instructions never change after setup, so one compiled tree can serve
// any number of concurrent runs as long as each has its own RunContext.
package instruction

import (
	"context"
	"sort"
	"strings"

	"github.com/conneroisu/xslate/internal/attrtype"
	"github.com/conneroisu/xslate/internal/logging"
	"github.com/conneroisu/xslate/internal/output"
	"github.com/conneroisu/xslate/internal/source"
)

// MaxDepth bounds nested template calls within one run.
const MaxDepth = 256

// Instruction is a Ready node of a compiled template tree.
type Instruction interface {
	// Name returns the qualified name of the instruction kind.
	Name() string
	// Pos returns where the instruction was read from.
	Pos() source.Position
	// Instantiate executes the instruction against rc.
	Instantiate(rc *RunContext) error
}

// Element is a Constructed node handed to a Definition's Setup function.
// By the time Setup sees it, its children have been validated against the
// content model and set up, and its declared attributes have been typed.
type Element struct {
	Def  *Definition
	Node *source.Node
	// Attrs holds the typed declared attributes.
	Attrs attrtype.Set
	// Body holds the set-up children in document order. Text children
	// appear as text runs; comments are dropped.
	Body []Instruction

	texts []string
	scope *scope
}

// Pos returns the source position of the element.
func (e *Element) Pos() source.Position { return e.Node.Pos }

// Texts returns the text children in document order.
func (e *Element) Texts() []string { return append([]string(nil), e.texts...) }

// Text returns all text children concatenated.
func (e *Element) Text() string { return strings.Join(e.texts, "") }

// Base carries the name and position every instruction reports.
// Instruction kinds embed it.
type Base struct {
	name string
	pos  source.Position
}

// NewBase creates the common part of an instruction set up from el.
func NewBase(el *Element) Base {
	return Base{name: el.Node.Name, pos: el.Node.Pos}
}

// Name returns the qualified name of the instruction.
func (b Base) Name() string { return b.name }

// Pos returns the source position of the instruction.
func (b Base) Pos() source.Position { return b.pos }

// RunContext is the state of one run. It is created per run, passed by
// reference down the tree walk and never shared between runs.
type RunContext struct {
	Ctx    context.Context
	Out    output.Context
	Logger logging.Logger

	templates map[string]*Template
	depth     int
}

// NewRunContext prepares a run of tree writing to out.
func NewRunContext(ctx context.Context, tree *Tree, out output.Context, logger logging.Logger) *RunContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	rc := &RunContext{Ctx: ctx, Out: out, Logger: logger}
	if tree != nil {
		rc.templates = tree.templates
	}
	return rc
}

// Depth returns the current template call depth.
func (rc *RunContext) Depth() int { return rc.depth }

// InstantiateAll runs body in order and stops at the first error.
func InstantiateAll(rc *RunContext, body []Instruction) error {
	for _, in := range body {
		if err := in.Instantiate(rc); err != nil {
			return err
		}
	}
	return nil
}

// Tree is a compiled stylesheet.
type Tree struct {
	root      Instruction
	entry     *Template
	output    OutputSettings
	templates map[string]*Template
}

// Root returns the root instruction.
func (t *Tree) Root() Instruction { return t.root }

// Entry returns the template a run starts from.
func (t *Tree) Entry() *Template { return t.entry }

// Output returns the serialization settings declared by the stylesheet.
func (t *Tree) Output() OutputSettings { return t.output }

// Template returns the named template.
func (t *Tree) Template(name string) (*Template, bool) {
	tmpl, ok := t.templates[name]
	return tmpl, ok
}

// TemplateNames returns the names of all named templates.
func (t *Tree) TemplateNames() []string {
	names := make([]string, 0, len(t.templates))
	for n := range t.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Instantiate runs the tree against out.
func (t *Tree) Instantiate(ctx context.Context, out output.Context, logger logging.Logger) error {
	return t.root.Instantiate(NewRunContext(ctx, t, out, logger))
}
