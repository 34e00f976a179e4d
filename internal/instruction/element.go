package instruction

import (
	"strings"

	"github.com/conneroisu/xslate/internal/source"
)

// LiteralElement is an element outside the instruction namespace, copied to
// the result with its attributes.
type LiteralElement struct {
	Base
	attrs []source.Attr
	body  []Instruction
}

func (l *LiteralElement) Instantiate(rc *RunContext) error {
	rc.Out.StartElement(l.name)
	for _, a := range l.attrs {
		rc.Out.Attribute(a.Name, a.Value)
	}
	if err := InstantiateAll(rc, l.body); err != nil {
		return err
	}
	rc.Out.EndElement(l.name)
	return nil
}

func setupLiteral(el *Element) (Instruction, error) {
	attrs := make([]source.Attr, 0, len(el.Node.Attrs))
	for _, a := range el.Node.Attrs {
		if strings.HasPrefix(a.Name, source.InstructionPrefix) || a.Name == "xmlns:xsl" {
			continue
		}
		attrs = append(attrs, a)
	}
	return &LiteralElement{Base: NewBase(el), attrs: attrs, body: el.Body}, nil
}

// ComputedElement is xsl:element.
type ComputedElement struct {
	Base
	element string
	body    []Instruction
}

func (c *ComputedElement) Instantiate(rc *RunContext) error {
	rc.Out.StartElement(c.element)
	if err := InstantiateAll(rc, c.body); err != nil {
		return err
	}
	rc.Out.EndElement(c.element)
	return nil
}

func setupElement(el *Element) (Instruction, error) {
	return &ComputedElement{
		Base:    NewBase(el),
		element: el.Attrs.QName("name").String(),
		body:    el.Body,
	}, nil
}

// Attribute is xsl:attribute. It adds an attribute to the element being
// written.
type Attribute struct {
	Base
	attribute string
	value     string
}

func (a *Attribute) Instantiate(rc *RunContext) error {
	rc.Out.Attribute(a.attribute, a.value)
	return nil
}

func setupAttribute(el *Element) (Instruction, error) {
	return &Attribute{
		Base:      NewBase(el),
		attribute: el.Attrs.QName("name").String(),
		value:     el.Text(),
	}, nil
}
