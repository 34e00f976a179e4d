// Package contentmodel declares the grammars that constrain an instruction's
// children and checks parsed children against them.
//
// Models are immutable values built from a handful of constructors. A model
// is attached to an instruction kind once, when the kind is defined, and is
// consulted once per element during setup.
package contentmodel

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a model.
type Kind int

const (
	// KindText accepts zero or more text children and nothing else.
	KindText Kind = iota
	// KindEmpty accepts no children.
	KindEmpty
	// KindAny accepts any children.
	KindAny
	KindSequence
	KindChoice
	KindRepeat
	// KindElement matches one element with a given qualified name.
	KindElement
	// KindLiteral matches one element outside the instruction namespace.
	KindLiteral
	// KindComment matches one comment child.
	KindComment
	// KindInstruction matches one instruction element whose name is not
	// reserved.
	KindInstruction
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text-only"
	case KindEmpty:
		return "empty"
	case KindAny:
		return "any"
	case KindSequence:
		return "sequence"
	case KindChoice:
		return "choice"
	case KindRepeat:
		return "repeat"
	case KindElement:
		return "element"
	case KindLiteral:
		return "literal"
	case KindComment:
		return "comment"
	case KindInstruction:
		return "instruction"
	default:
		return "unknown"
	}
}

// Unbounded is the maximum of a repeat with no upper limit.
const Unbounded = -1

// Model is an immutable content model.
type Model struct {
	kind  Kind
	name  string
	items []Model
	min   int
	max   int
	// reserved names are never matched by a KindInstruction model.
	reserved map[string]struct{}
}

// Text accepts zero or more text children.
func Text() Model { return Model{kind: KindText} }

// Empty accepts no children at all.
func Empty() Model { return Model{kind: KindEmpty} }

// Any accepts every sequence of children.
func Any() Model { return Model{kind: KindAny} }

// Element matches exactly one element named name.
func Element(name string) Model { return Model{kind: KindElement, name: name} }

// Literal matches exactly one element outside the instruction namespace.
func Literal() Model { return Model{kind: KindLiteral} }

// Comment matches exactly one comment child.
func Comment() Model { return Model{kind: KindComment} }

// Instruction matches exactly one instruction element, except those named in
// reserved. It lets instruction kinds added at run time appear wherever the
// built-in ones are listed explicitly.
func Instruction(reserved ...string) Model {
	m := Model{kind: KindInstruction, reserved: make(map[string]struct{}, len(reserved))}
	for _, name := range reserved {
		m.reserved[name] = struct{}{}
	}
	return m
}

// Reserves reports whether a KindInstruction model refuses name.
func (m Model) Reserves(name string) bool {
	_, ok := m.reserved[name]
	return ok
}

// Sequence matches its items one after another.
func Sequence(items ...Model) Model {
	return Model{kind: KindSequence, items: append([]Model(nil), items...)}
}

// Choice matches any one of its items.
func Choice(items ...Model) Model {
	return Model{kind: KindChoice, items: append([]Model(nil), items...)}
}

// Repeat matches m between min and max times. max may be Unbounded.
func Repeat(m Model, min, max int) Model {
	if min < 0 {
		min = 0
	}
	if max != Unbounded && max < min {
		max = min
	}
	return Model{kind: KindRepeat, items: []Model{m}, min: min, max: max}
}

// Optional matches m zero or one time.
func Optional(m Model) Model { return Repeat(m, 0, 1) }

// ZeroOrMore matches m any number of times.
func ZeroOrMore(m Model) Model { return Repeat(m, 0, Unbounded) }

// Kind returns the model's shape.
func (m Model) Kind() Kind { return m.kind }

// Name returns the element name of a KindElement model.
func (m Model) Name() string { return m.name }

// Items returns a copy of the sub-models of a composite model.
func (m Model) Items() []Model { return append([]Model(nil), m.items...) }

// Bounds returns the repeat bounds of a KindRepeat model.
func (m Model) Bounds() (min, max int) { return m.min, m.max }

// String renders the model in a compact DTD-like notation.
func (m Model) String() string {
	switch m.kind {
	case KindText:
		return "text"
	case KindEmpty:
		return "empty"
	case KindAny:
		return "any"
	case KindElement:
		return "element:" + m.name
	case KindLiteral:
		return "literal-element"
	case KindComment:
		return "comment"
	case KindInstruction:
		return "instruction"
	case KindSequence:
		return "(" + joinItems(m.items, ", ") + ")"
	case KindChoice:
		return "(" + joinItems(m.items, " | ") + ")"
	case KindRepeat:
		inner := m.items[0].String()
		switch {
		case m.min == 0 && m.max == 1:
			return inner + "?"
		case m.min == 0 && m.max == Unbounded:
			return inner + "*"
		case m.min == 1 && m.max == Unbounded:
			return inner + "+"
		case m.max == Unbounded:
			return fmt.Sprintf("%s{%d,}", inner, m.min)
		default:
			return fmt.Sprintf("%s{%d,%d}", inner, m.min, m.max)
		}
	default:
		return "unknown"
	}
}

func joinItems(items []Model, sep string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, sep)
}
