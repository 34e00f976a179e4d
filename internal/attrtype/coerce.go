package attrtype

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/htmlindex"

	xerrors "github.com/conneroisu/xslate/internal/errors"
)

// Coerce converts raw into a typed value for the attribute name. present is
// false when the attribute does not appear in the source; the declared
// default is then substituted and coerced like any written value.
func Coerce(name string, t Type, raw string, present bool) (Value, error) {
	if !present {
		if t.required {
			return Value{}, xerrors.NewAttributeError(xerrors.ErrCodeAttributeRequired, name, "",
				fmt.Sprintf("attribute %q is required", name))
		}
		if !t.hasDefault {
			return Value{kind: t.kind}, nil
		}
		raw = t.def
	}

	v := Value{kind: t.kind, set: true, text: raw}

	switch t.kind {
	case KindYesNo:
		switch raw {
		case "yes":
			v.b = true
		case "no":
			v.b = false
		default:
			return Value{}, invalid(name, raw, "expected yes or no")
		}

	case KindEnum:
		if !containsToken(t.tokens, raw) {
			return Value{}, invalid(name, raw, "expected one of "+strings.Join(t.tokens, ", "))
		}

	case KindQName:
		q, ok := ParseQName(raw)
		if !ok {
			return Value{}, invalid(name, raw, "expected a qualified name")
		}
		v.qname = q

	case KindEncoding:
		if _, err := htmlindex.Get(raw); err != nil {
			return Value{}, invalid(name, raw, "unsupported encoding")
		}

	case KindString:
	}

	return v, nil
}

func invalid(name, raw, reason string) error {
	return xerrors.NewAttributeError(xerrors.ErrCodeAttributeInvalid, name, raw,
		fmt.Sprintf("invalid value %q for attribute %q: %s", raw, name, reason))
}

func containsToken(tokens []string, s string) bool {
	for _, tok := range tokens {
		if tok == s {
			return true
		}
	}
	return false
}

// ParseQName splits s into prefix and local part, each of which must be an
// NCName.
func ParseQName(s string) (QNameValue, bool) {
	prefix, local, found := strings.Cut(s, ":")
	if !found {
		return QNameValue{Local: s}, IsNCName(s)
	}
	if !IsNCName(prefix) || !IsNCName(local) {
		return QNameValue{}, false
	}
	return QNameValue{Prefix: prefix, Local: local}, true
}

// IsNCName reports whether s is a non-colonized XML name.
func IsNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if r != '_' && !unicode.IsLetter(r) {
				return false
			}
			continue
		}
		switch {
		case r == '_', r == '-', r == '.':
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Lm):
		default:
			return false
		}
	}
	return true
}

// Decls maps attribute names to their declared types.
type Decls map[string]Type

// Names returns the declared attribute names in sorted order.
func (d Decls) Names() []string {
	names := make([]string, 0, len(d))
	for n := range d {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set is the fully typed attribute set of one instruction.
type Set struct {
	values map[string]Value
}

// CoerceAll types every declared attribute from raw. Unprefixed attributes
// that are not declared are rejected; prefixed ones belong to other
// namespaces and are ignored. Errors are reported in name order so the same
// input always yields the same diagnostic.
func CoerceAll(decls Decls, raw map[string]string) (Set, error) {
	unknown := make([]string, 0)
	for n := range raw {
		if _, ok := decls[n]; ok || strings.Contains(n, ":") || n == "xmlns" {
			continue
		}
		unknown = append(unknown, n)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Set{}, xerrors.NewAttributeError(xerrors.ErrCodeAttributeUnknown, unknown[0], raw[unknown[0]],
			fmt.Sprintf("attribute %q is not allowed here", unknown[0]))
	}

	set := Set{values: make(map[string]Value, len(decls))}
	for _, n := range decls.Names() {
		text, present := raw[n]
		v, err := Coerce(n, decls[n], text, present)
		if err != nil {
			return Set{}, err
		}
		set.values[n] = v
	}
	return set, nil
}

// Get returns the typed value of name, or the zero Value when undeclared.
func (s Set) Get(name string) Value { return s.values[name] }

// Has reports whether name was present or defaulted.
func (s Set) Has(name string) bool { return s.values[name].IsSet() }

// Bool returns the yes/no value of name.
func (s Set) Bool(name string) bool { return s.values[name].Bool() }

// Text returns the text value of name.
func (s Set) Text(name string) string { return s.values[name].String() }

// QName returns the qualified-name value of name.
func (s Set) QName(name string) QNameValue { return s.values[name].QName() }

// Len returns the number of declared attributes in the set.
func (s Set) Len() int { return len(s.values) }
