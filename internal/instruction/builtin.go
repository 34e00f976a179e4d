package instruction

import (
	"github.com/conneroisu/xslate/internal/attrtype"
	"github.com/conneroisu/xslate/internal/contentmodel"
)

// Qualified names of the built-in instructions.
const (
	NameStylesheet   = "xsl:stylesheet"
	NameTransform    = "xsl:transform"
	NameOutput       = "xsl:output"
	NameTemplate     = "xsl:template"
	NameCallTemplate = "xsl:call-template"
	NameText         = "xsl:text"
	NameElement      = "xsl:element"
	NameAttribute    = "xsl:attribute"
	NameComment      = "xsl:comment"
	NameMessage      = "xsl:message"
)

// Reserved returns the names of the built-in instructions. Kinds registered
// under any other name are matched by contentmodel.Instruction in bodies and
// at the top level of a stylesheet.
func Reserved() []string {
	return []string{
		NameStylesheet, NameTransform, NameOutput, NameTemplate, NameCallTemplate,
		NameText, NameElement, NameAttribute, NameComment, NameMessage,
	}
}

// BodyModel is the content of template bodies and result elements: any
// xsl:attribute children first, then text, comments, body instructions and
// literal result elements in any order.
func BodyModel() contentmodel.Model {
	return contentmodel.Sequence(
		contentmodel.ZeroOrMore(contentmodel.Element(NameAttribute)),
		contentmodel.ZeroOrMore(contentmodel.Choice(
			contentmodel.Text(),
			contentmodel.Comment(),
			contentmodel.Element(NameText),
			contentmodel.Element(NameElement),
			contentmodel.Element(NameComment),
			contentmodel.Element(NameMessage),
			contentmodel.Element(NameCallTemplate),
			contentmodel.Literal(),
			contentmodel.Instruction(Reserved()...),
		)),
	)
}

func stylesheetModel() contentmodel.Model {
	return contentmodel.Sequence(
		contentmodel.ZeroOrMore(contentmodel.Comment()),
		contentmodel.Optional(contentmodel.Element(NameOutput)),
		contentmodel.ZeroOrMore(contentmodel.Choice(
			contentmodel.Element(NameTemplate),
			contentmodel.Comment(),
			contentmodel.Instruction(Reserved()...),
		)),
	)
}

var literalDefinition = &Definition{
	Name:          "literal result element",
	Model:         BodyModel(),
	AnyAttributes: true,
	Setup:         setupLiteral,
}

// LiteralDefinition describes elements outside the instruction namespace.
func LiteralDefinition() *Definition { return literalDefinition }

func builtins() []*Definition {
	stylesheet := func(name string) *Definition {
		return &Definition{
			Name:  name,
			Model: stylesheetModel(),
			Attrs: attrtype.Decls{
				"version": attrtype.Enum("", "1.0").Required(),
				"id":      attrtype.String(),
			},
			Setup: setupStylesheet,
		}
	}

	return []*Definition{
		stylesheet(NameStylesheet),
		stylesheet(NameTransform),
		{
			Name:  NameOutput,
			Model: contentmodel.Empty(),
			Attrs: attrtype.Decls{
				"method":               attrtype.Enum("xml", "xml", "html", "text"),
				"indent":               attrtype.YesNo("no"),
				"encoding":             attrtype.Encoding("UTF-8"),
				"omit-xml-declaration": attrtype.YesNo("no"),
			},
			TopLevel: true,
			Setup:    setupOutput,
		},
		{
			Name:  NameTemplate,
			Model: BodyModel(),
			Attrs: attrtype.Decls{
				"name":  attrtype.QName(),
				"match": attrtype.String(),
			},
			TopLevel: true,
			Setup:    setupTemplate,
		},
		{
			Name:  NameCallTemplate,
			Model: contentmodel.Empty(),
			Attrs: attrtype.Decls{
				"name": attrtype.QName().Required(),
			},
			Setup: setupCallTemplate,
		},
		{
			Name:  NameText,
			Model: contentmodel.Text(),
			Attrs: attrtype.Decls{
				"disable-output-escaping": attrtype.YesNo("no"),
			},
			PreserveSpace: true,
			Setup:         setupText,
		},
		{
			Name:  NameElement,
			Model: BodyModel(),
			Attrs: attrtype.Decls{
				"name": attrtype.QName().Required(),
			},
			Setup: setupElement,
		},
		{
			Name:  NameAttribute,
			Model: contentmodel.Text(),
			Attrs: attrtype.Decls{
				"name": attrtype.QName().Required(),
			},
			PreserveSpace: true,
			Setup:         setupAttribute,
		},
		{
			Name:          NameComment,
			Model:         contentmodel.Text(),
			PreserveSpace: true,
			Setup:         setupComment,
		},
		{
			Name:  NameMessage,
			Model: contentmodel.Text(),
			Attrs: attrtype.Decls{
				"terminate": attrtype.YesNo("no"),
			},
			PreserveSpace: true,
			Setup:         setupMessage,
		},
	}
}
