// Package output provides the run-time sinks that instructions write their
// results to.
//
// A Context receives result-tree events in document order. Writes are
// append-only: nothing written can be inspected or undone by a later writer.
// Every method is infallible from the caller's point of view; sinks that
// perform I/O keep the first failure and report it when they are closed.
//
// One Context belongs to exactly one transformation run. It is not safe for
// concurrent use.
package output

import "fmt"

// Context is the sink instructions write to.
type Context interface {
	// Text appends character data. When escape is true the sink applies the
	// escaping rules of its result format so that re-parsing the output
	// yields value exactly. When escape is false value is inserted verbatim.
	Text(value string, escape bool)
	StartElement(name string)
	// Attribute adds an attribute to the element most recently started.
	// Attributes arriving after the element has content are dropped.
	Attribute(name, value string)
	EndElement(name string)
	Comment(value string)
}

// EventKind identifies a result-tree event.
type EventKind int

const (
	EventText EventKind = iota
	EventStartElement
	EventAttribute
	EventEndElement
	EventComment
)

// String returns the string representation of the EventKind
func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventStartElement:
		return "start-element"
	case EventAttribute:
		return "attribute"
	case EventEndElement:
		return "end-element"
	case EventComment:
		return "comment"
	default:
		return "unknown"
	}
}

// MarshalText lets encoders write the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	if k < EventText || k > EventComment {
		return nil, fmt.Errorf("output: unknown event kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// Event is one recorded write.
type Event struct {
	Kind   EventKind `json:"kind" yaml:"kind"`
	Name   string    `json:"name,omitempty" yaml:"name,omitempty"`
	Value  string    `json:"value,omitempty" yaml:"value,omitempty"`
	Escape bool      `json:"escape,omitempty" yaml:"escape,omitempty"`
}

// Apply replays the event into dst.
func (e Event) Apply(dst Context) {
	switch e.Kind {
	case EventText:
		dst.Text(e.Value, e.Escape)
	case EventStartElement:
		dst.StartElement(e.Name)
	case EventAttribute:
		dst.Attribute(e.Name, e.Value)
	case EventEndElement:
		dst.EndElement(e.Name)
	case EventComment:
		dst.Comment(e.Value)
	}
}

// Method selects the serialization format of a result.
type Method string

const (
	MethodXML  Method = "xml"
	MethodHTML Method = "html"
	MethodText Method = "text"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodXML, MethodHTML, MethodText:
		return m, nil
	default:
		return "", fmt.Errorf("output: unknown method %q", s)
	}
}
