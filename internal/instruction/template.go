package instruction

import (
	"fmt"

	"github.com/conneroisu/xslate/internal/contentmodel"
	xerrors "github.com/conneroisu/xslate/internal/errors"
	"github.com/conneroisu/xslate/internal/output"
	"github.com/conneroisu/xslate/internal/source"
)

// Template is xsl:template: a reusable body, called by name or used as the
// entry point of a run.
type Template struct {
	Base
	template string
	match    string
	body     []Instruction
}

// TemplateName returns the value of the name attribute, if any.
func (t *Template) TemplateName() string { return t.template }

// Match returns the value of the match attribute, if any.
func (t *Template) Match() string { return t.match }

// Instantiate runs the template body.
func (t *Template) Instantiate(rc *RunContext) error {
	return InstantiateAll(rc, t.body)
}

func setupTemplate(el *Element) (Instruction, error) {
	t := &Template{
		Base:  NewBase(el),
		match: el.Attrs.Text("match"),
		body:  el.Body,
	}
	if el.Attrs.Has("name") {
		t.template = el.Attrs.QName("name").String()
	}
	if t.template == "" && t.match == "" {
		return nil, xerrors.NewAttributeError(xerrors.ErrCodeAttributeRequired, "name", "",
			"template needs a name or a match attribute")
	}

	if t.template != "" && el.scope != nil {
		if prev, dup := el.scope.templates[t.template]; dup {
			return nil, xerrors.NewAttributeError(xerrors.ErrCodeDuplicateTemplate, "name", t.template,
				fmt.Sprintf("template %q is already defined at %s", t.template, prev.Pos())).
				WithContext("previous", prev.Pos().String())
		}
		el.scope.templates[t.template] = t
	}
	return t, nil
}

// CallTemplate is xsl:call-template.
type CallTemplate struct {
	Base
	target string
}

// Target returns the name of the called template.
func (c *CallTemplate) Target() string { return c.target }

func (c *CallTemplate) Instantiate(rc *RunContext) error {
	tmpl, ok := rc.templates[c.target]
	if !ok {
		pos := c.Pos()
		return xerrors.NewRuntimeError(xerrors.ErrCodeTemplateNotFound,
			fmt.Sprintf("no template named %q in this run", c.target)).
			WithInstruction(c.Name()).
			WithLocation(pos.File, pos.Line, pos.Column)
	}
	if rc.depth >= MaxDepth {
		pos := c.Pos()
		return xerrors.NewRuntimeError(xerrors.ErrCodeRecursionLimit,
			fmt.Sprintf("template calls nested deeper than %d", MaxDepth)).
			WithContext("template", c.target).
			WithInstruction(c.Name()).
			WithLocation(pos.File, pos.Line, pos.Column)
	}

	rc.depth++
	defer func() { rc.depth-- }()
	return tmpl.Instantiate(rc)
}

func setupCallTemplate(el *Element) (Instruction, error) {
	c := &CallTemplate{Base: NewBase(el), target: el.Attrs.QName("name").String()}
	if el.scope != nil {
		el.scope.calls = append(el.scope.calls, c)
	}
	return c, nil
}

// OutputSettings are the serialization settings declared by xsl:output.
type OutputSettings struct {
	Method             output.Method `json:"method" yaml:"method"`
	Indent             bool          `json:"indent" yaml:"indent"`
	Encoding           string        `json:"encoding" yaml:"encoding"`
	OmitXMLDeclaration bool          `json:"omit_xml_declaration" yaml:"omit_xml_declaration"`
}

// DefaultOutputSettings are used when a stylesheet has no xsl:output.
func DefaultOutputSettings() OutputSettings {
	return OutputSettings{Method: output.MethodXML, Encoding: "UTF-8"}
}

// SerializerOptions converts the settings for output.NewSerializer.
func (o OutputSettings) SerializerOptions() output.SerializerOptions {
	return output.SerializerOptions{
		Method:             o.Method,
		Indent:             o.Indent,
		Encoding:           o.Encoding,
		OmitXMLDeclaration: o.OmitXMLDeclaration,
	}
}

// Output is xsl:output. It writes nothing; the stylesheet reads its
// settings during setup.
type Output struct {
	Base
	settings OutputSettings
}

// Settings returns the declared serialization settings.
func (o *Output) Settings() OutputSettings { return o.settings }

func (o *Output) Instantiate(rc *RunContext) error { return nil }

func setupOutput(el *Element) (Instruction, error) {
	return &Output{
		Base: NewBase(el),
		settings: OutputSettings{
			Method:             output.Method(el.Attrs.Text("method")),
			Indent:             el.Attrs.Bool("indent"),
			Encoding:           el.Attrs.Text("encoding"),
			OmitXMLDeclaration: el.Attrs.Bool("omit-xml-declaration"),
		},
	}, nil
}

// Stylesheet is the root of a compiled tree. Instantiating it runs the
// entry template.
type Stylesheet struct {
	Base
	output    OutputSettings
	entry     *Template
	templates map[string]*Template
}

// Settings returns the serialization settings of the stylesheet.
func (s *Stylesheet) Settings() OutputSettings { return s.output }

func (s *Stylesheet) Instantiate(rc *RunContext) error {
	if rc.templates == nil {
		rc.templates = s.templates
	}
	return s.entry.Instantiate(rc)
}

func setupStylesheet(el *Element) (Instruction, error) {
	s := &Stylesheet{Base: NewBase(el), output: DefaultOutputSettings()}

	var byMatch *Template
	for _, in := range el.Body {
		switch v := in.(type) {
		case *Output:
			s.output = v.Settings()
		case *Template:
			if v.TemplateName() == "main" {
				s.entry = v
			}
			if byMatch == nil && v.Match() == "/" {
				byMatch = v
			}
		}
	}
	if s.entry == nil {
		s.entry = byMatch
	}
	if s.entry == nil {
		return nil, xerrors.NewContentModelError(xerrors.ErrCodeNoEntryTemplate,
			`stylesheet needs a template named "main" or one matching "/"`, len(el.Body)).
			WithContext("child", contentmodel.EndOfContent).
			WithContext("expected", []string{"element:xsl:template"})
	}
	return s, nil
}

// simplified wraps a literal result element used as the whole stylesheet in
// an implicit template matching "/".
func simplified(root *source.Node, body Instruction) *Stylesheet {
	entry := &Template{
		Base:  Base{name: "xsl:template", pos: root.Pos},
		match: "/",
		body:  []Instruction{body},
	}
	return &Stylesheet{
		Base:   Base{name: "xsl:stylesheet", pos: root.Pos},
		output: DefaultOutputSettings(),
		entry:  entry,
	}
}
