// Package engine is the public face of the template engine: it compiles
// stylesheets from source and runs them into output contexts, writers,
// result trees or templ components.
package engine

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	xerrors "github.com/conneroisu/xslate/internal/errors"
	"github.com/conneroisu/xslate/internal/instruction"
	"github.com/conneroisu/xslate/internal/logging"
	"github.com/conneroisu/xslate/internal/output"
	"github.com/conneroisu/xslate/internal/source"
)

// Option configures compilation and the runs of the resulting stylesheet.
type Option func(*options)

type options struct {
	logger   logging.Logger
	registry *instruction.Registry
	sanitize bool
	policy   *bluemonday.Policy
	method   output.Method
}

// WithLogger sets the logger used while compiling and running.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry compiles against a custom instruction table.
func WithRegistry(r *instruction.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithSanitizeRaw passes every unescaped text write through an HTML
// sanitizer before it reaches the output.
func WithSanitizeRaw(enabled bool) Option {
	return func(o *options) { o.sanitize = enabled }
}

// WithRawPolicy sets the sanitizer policy and enables sanitizing.
func WithRawPolicy(p *bluemonday.Policy) Option {
	return func(o *options) {
		o.policy = p
		o.sanitize = p != nil
	}
}

// WithMethod overrides the output method declared by the stylesheet.
func WithMethod(m output.Method) Option {
	return func(o *options) { o.method = m }
}

// Stylesheet is a compiled, immutable stylesheet. It is safe for concurrent
// use; every run gets its own output context.
type Stylesheet struct {
	tree   *instruction.Tree
	file   string
	opts   options
	logger logging.Logger
}

// Compile sets up a parsed source document.
func Compile(root *source.Node, opts ...Option) (*Stylesheet, error) {
	o := options{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.method != "" {
		if _, err := output.ParseMethod(string(o.method)); err != nil {
			return nil, xerrors.NewConfigError(xerrors.ErrCodeConfigInvalid, err.Error())
		}
	}

	compiler := instruction.NewCompiler(
		instruction.WithRegistry(o.registry),
		instruction.WithLogger(o.logger),
	)
	tree, err := compiler.Compile(root)
	if err != nil {
		return nil, err
	}

	return &Stylesheet{
		tree:   tree,
		file:   root.Pos.File,
		opts:   o,
		logger: o.logger.WithComponent("engine"),
	}, nil
}

// CompileReader parses and compiles markup read from r. name is used in
// diagnostics.
func CompileReader(r io.Reader, name string, opts ...Option) (*Stylesheet, error) {
	doc, err := source.Parse(r, name)
	if err != nil {
		return nil, err
	}
	return Compile(doc, opts...)
}

// CompileFile parses and compiles the stylesheet at path.
func CompileFile(path string, opts ...Option) (*Stylesheet, error) {
	doc, err := source.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(doc, opts...)
}

// File returns the name the stylesheet was compiled from.
func (s *Stylesheet) File() string { return s.file }

// Tree returns the compiled instruction tree.
func (s *Stylesheet) Tree() *instruction.Tree { return s.tree }

// Output returns the effective serialization settings.
func (s *Stylesheet) Output() instruction.OutputSettings {
	settings := s.tree.Output()
	if s.opts.method != "" {
		settings.Method = s.opts.method
	}
	return settings
}

// Transform runs the stylesheet once, writing to out.
func (s *Stylesheet) Transform(ctx context.Context, out output.Context) error {
	logger := s.logger.With("run_id", uuid.NewString(), "file", s.file)
	if s.opts.sanitize {
		out = output.NewSanitizing(out, s.opts.policy)
	}

	perf := logging.StartOperation(logger, "transform")
	if err := s.tree.Instantiate(ctx, out, logger); err != nil {
		perf.EndWithError(ctx, err)
		return err
	}
	perf.End(ctx)
	return nil
}

// Render runs the stylesheet and serializes the result to w using the
// stylesheet's output settings.
func (s *Stylesheet) Render(ctx context.Context, w io.Writer) error {
	return s.render(ctx, w, s.Output().SerializerOptions())
}

func (s *Stylesheet) render(ctx context.Context, w io.Writer, opts output.SerializerOptions) error {
	ser, err := output.NewSerializer(w, opts)
	if err != nil {
		return xerrors.NewConfigError(xerrors.ErrCodeConfigInvalid, err.Error())
	}

	runErr := s.Transform(ctx, ser)
	closeErr := ser.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return xerrors.NewIOError(xerrors.ErrCodeWriteFailed, "cannot write result", closeErr)
	}
	return nil
}

// Events runs the stylesheet into a recorder and returns what was written.
func (s *Stylesheet) Events(ctx context.Context) ([]output.Event, error) {
	rec := output.NewRecorder()
	if err := s.Transform(ctx, rec); err != nil {
		return nil, err
	}
	return rec.Events(), nil
}

// ResultTree runs the stylesheet into an in-memory HTML node tree.
func (s *Stylesheet) ResultTree(ctx context.Context) (*html.Node, error) {
	b := output.NewTreeBuilder()
	if err := s.Transform(ctx, b); err != nil {
		return nil, err
	}
	return b.Root(), nil
}

// Component adapts the stylesheet to a templ component, so its result can
// be embedded in templ pages. The XML declaration is never written.
func (s *Stylesheet) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		opts := s.Output().SerializerOptions()
		opts.OmitXMLDeclaration = true
		return s.render(ctx, w, opts)
	})
}
