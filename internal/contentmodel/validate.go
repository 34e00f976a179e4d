package contentmodel

import (
	"fmt"
	"sort"
	"strings"

	xerrors "github.com/conneroisu/xslate/internal/errors"
)

// EndOfContent is the expectation reported where the children may stop.
const EndOfContent = "end of content"

// ChildKind classifies a parsed child.
type ChildKind int

const (
	ChildText ChildKind = iota
	ChildElement
	ChildComment
)

// Child describes one parsed child for validation.
type Child struct {
	Kind ChildKind
	// Name is the qualified element name of element children.
	Name string
	// Instruction is true for elements in the instruction namespace.
	Instruction bool
}

// String returns the kind tag used in diagnostics, e.g. "element:xsl:text".
func (c Child) String() string {
	switch c.Kind {
	case ChildText:
		return "text"
	case ChildComment:
		return "comment"
	default:
		return "element:" + c.Name
	}
}

// Validate checks that children conform to m. On failure it returns a
// content model error whose context carries the offending child's position,
// its kind tag and the sorted set of kinds that were acceptable there.
func Validate(m Model, children []Child) error {
	v := &validator{children: children, furthest: -1, expected: make(map[string]struct{})}

	ends := v.match(m, 0)
	for _, end := range ends {
		if end == len(children) {
			return nil
		}
		v.expect(end, EndOfContent)
	}

	return v.failure()
}

type validator struct {
	children []Child
	furthest int
	expected map[string]struct{}
}

// expect records that desc would have been accepted at pos.
func (v *validator) expect(pos int, desc string) {
	switch {
	case pos > v.furthest:
		v.furthest = pos
		v.expected = map[string]struct{}{desc: {}}
	case pos == v.furthest:
		v.expected[desc] = struct{}{}
	}
}

func (v *validator) failure() error {
	expected := make([]string, 0, len(v.expected))
	for e := range v.expected {
		expected = append(expected, e)
	}
	sort.Strings(expected)
	want := strings.Join(expected, ", ")

	pos := v.furthest
	if pos < 0 {
		pos = 0
	}

	if pos >= len(v.children) {
		return xerrors.NewContentModelError(xerrors.ErrCodeMissingChildren,
			fmt.Sprintf("content ended early; expected %s", want), pos).
			WithContext("child", EndOfContent).
			WithContext("expected", expected)
	}

	child := v.children[pos].String()
	return xerrors.NewContentModelError(xerrors.ErrCodeChildMismatch,
		fmt.Sprintf("child %d (%s) is not allowed here; expected %s", pos, child, want), pos).
		WithContext("child", child).
		WithContext("expected", expected)
}

// match returns every position at which m can finish when started at pos,
// in ascending order.
func (v *validator) match(m Model, pos int) []int {
	switch m.kind {
	case KindEmpty:
		return []int{pos}

	case KindAny:
		ends := make([]int, 0, len(v.children)-pos+1)
		for p := pos; p <= len(v.children); p++ {
			ends = append(ends, p)
		}
		return ends

	case KindText:
		ends := []int{pos}
		p := pos
		for p < len(v.children) && v.children[p].Kind == ChildText {
			p++
			ends = append(ends, p)
		}
		v.expect(p, m.String())
		return ends

	case KindElement, KindLiteral, KindComment, KindInstruction:
		if pos < len(v.children) && atomMatches(m, v.children[pos]) {
			return []int{pos + 1}
		}
		v.expect(pos, m.String())
		return nil

	case KindSequence:
		current := []int{pos}
		for _, item := range m.items {
			next := newPosSet()
			for _, p := range current {
				next.add(v.match(item, p)...)
			}
			current = next.sorted()
			if len(current) == 0 {
				return nil
			}
		}
		return current

	case KindChoice:
		ends := newPosSet()
		for _, item := range m.items {
			ends.add(v.match(item, pos)...)
		}
		return ends.sorted()

	case KindRepeat:
		return v.matchRepeat(m, pos)
	}

	return nil
}

// matchRepeat explores (position, count) states breadth first. Counts are
// capped at min for unbounded repeats so zero-width iterations terminate.
func (v *validator) matchRepeat(m Model, pos int) []int {
	type state struct{ pos, count int }

	capCount := func(c int) int {
		if m.max == Unbounded && c > m.min {
			return m.min
		}
		return c
	}

	ends := newPosSet()
	seen := map[state]bool{{pos, 0}: true}
	queue := []state{{pos, 0}}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		if s.count >= m.min {
			ends.add(s.pos)
		}
		if m.max != Unbounded && s.count >= m.max {
			continue
		}
		for _, p := range v.match(m.items[0], s.pos) {
			next := state{p, capCount(s.count + 1)}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	return ends.sorted()
}

func atomMatches(m Model, c Child) bool {
	switch m.kind {
	case KindElement:
		return c.Kind == ChildElement && c.Name == m.name
	case KindLiteral:
		return c.Kind == ChildElement && !c.Instruction
	case KindComment:
		return c.Kind == ChildComment
	case KindInstruction:
		return c.Kind == ChildElement && c.Instruction && !m.Reserves(c.Name)
	}
	return false
}

type posSet map[int]struct{}

func newPosSet() posSet { return make(posSet) }

func (s posSet) add(ps ...int) {
	for _, p := range ps {
		s[p] = struct{}{}
	}
}

func (s posSet) sorted() []int {
	out := make([]int, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
