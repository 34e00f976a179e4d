// Package attrtype converts raw attribute text into typed instruction
// parameters.
//
// Every declared attribute of an instruction kind has a Type. During setup
// the compiler coerces the raw text (or its absence) through that Type, so
// no instruction ever inspects raw attribute text while it runs.
package attrtype

import (
	"strings"
)

// Kind is the primitive kind of an attribute type.
type Kind int

const (
	KindYesNo Kind = iota
	KindString
	KindEnum
	KindQName
	KindEncoding
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindYesNo:
		return "yes-or-no"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindQName:
		return "qname"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Type is an immutable attribute type descriptor.
type Type struct {
	kind       Kind
	def        string
	hasDefault bool
	required   bool
	tokens     []string
}

// YesNo is a boolean written as the tokens "yes" and "no". def is used when
// the attribute is absent.
func YesNo(def string) Type {
	return Type{kind: KindYesNo, def: def, hasDefault: true, tokens: []string{"yes", "no"}}
}

// String accepts any text and has no default.
func String() Type { return Type{kind: KindString} }

// StringDefault accepts any text and falls back to def.
func StringDefault(def string) Type {
	return Type{kind: KindString, def: def, hasDefault: true}
}

// Enum accepts exactly one of tokens. An empty def means no default.
func Enum(def string, tokens ...string) Type {
	return Type{kind: KindEnum, def: def, hasDefault: def != "", tokens: append([]string(nil), tokens...)}
}

// QName accepts a qualified name, prefix:local or local.
func QName() Type { return Type{kind: KindQName} }

// Encoding accepts a character encoding label known to the WHATWG encoding
// index, falling back to def.
func Encoding(def string) Type {
	return Type{kind: KindEncoding, def: def, hasDefault: def != ""}
}

// Required returns a copy of t that must be present in the source. A required
// attribute never uses its default.
func (t Type) Required() Type {
	t.required = true
	t.tokens = append([]string(nil), t.tokens...)
	return t
}

// Kind returns the primitive kind.
func (t Type) Kind() Kind { return t.kind }

// IsRequired reports whether the attribute must be present.
func (t Type) IsRequired() bool { return t.required }

// Default returns the declared default, if any.
func (t Type) Default() (string, bool) { return t.def, t.hasDefault }

// Tokens returns a copy of the allowed tokens of yes/no and enum types.
func (t Type) Tokens() []string { return append([]string(nil), t.tokens...) }

// String describes the type for diagnostics and listings.
func (t Type) String() string {
	var b strings.Builder
	switch t.kind {
	case KindYesNo, KindEnum:
		b.WriteString(strings.Join(t.tokens, "|"))
	default:
		b.WriteString(t.kind.String())
	}
	switch {
	case t.required:
		b.WriteString(" (required)")
	case t.hasDefault:
		b.WriteString(" = " + t.def)
	}
	return b.String()
}

// QNameValue is a parsed qualified name.
type QNameValue struct {
	Prefix string
	Local  string
}

func (q QNameValue) String() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// Value is a coerced attribute value. The zero Value is an absent optional
// attribute.
type Value struct {
	kind  Kind
	set   bool
	text  string
	b     bool
	qname QNameValue
}

// IsSet reports whether the attribute was present or defaulted.
func (v Value) IsSet() bool { return v.set }

// Kind returns the primitive kind the value was coerced to.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the value of a yes/no attribute.
func (v Value) Bool() bool { return v.b }

// String returns the attribute text after defaulting.
func (v Value) String() string { return v.text }

// QName returns the parsed name of a qualified-name attribute.
func (v Value) QName() QNameValue { return v.qname }
