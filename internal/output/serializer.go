package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// SerializerOptions mirrors the serialization settings of a stylesheet.
type SerializerOptions struct {
	Method             Method
	Indent             bool
	Encoding           string
	OmitXMLDeclaration bool
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Content of these HTML elements is never escaped.
var rawTextElements = map[string]bool{"script": true, "style": true}

type frame struct {
	name            string
	hasElementChild bool
	hasText         bool
}

type pendingAttr struct {
	name, value string
}

// Serializer is a streaming Context that writes xml, html or text.
type Serializer struct {
	opts    SerializerOptions
	buf     *bufio.Writer
	encoder *transform.Writer

	stack   []frame
	tagOpen bool
	attrs   []pendingAttr
	started bool
	closed  bool
	err     error
}

// NewSerializer creates a serializer writing to w. A non-UTF-8 encoding is
// applied on the way out; characters it cannot represent are written as
// character references (or replaced, for the text method).
func NewSerializer(w io.Writer, opts SerializerOptions) (*Serializer, error) {
	if opts.Method == "" {
		opts.Method = MethodXML
	}
	if _, err := ParseMethod(string(opts.Method)); err != nil {
		return nil, err
	}

	s := &Serializer{opts: opts}

	if opts.Encoding != "" {
		enc, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, fmt.Errorf("output: unsupported encoding %q: %w", opts.Encoding, err)
		}
		if name, _ := htmlindex.Name(enc); name != "utf-8" {
			var encoder *encoding.Encoder
			if opts.Method == MethodText {
				encoder = encoding.ReplaceUnsupported(enc.NewEncoder())
			} else {
				encoder = encoding.HTMLEscapeUnsupported(enc.NewEncoder())
			}
			s.encoder = transform.NewWriter(w, encoder)
			w = s.encoder
		}
	}

	s.buf = bufio.NewWriter(w)
	return s, nil
}

func (s *Serializer) write(str string) {
	if s.err != nil || s.closed {
		return
	}
	_, s.err = s.buf.WriteString(str)
}

func (s *Serializer) begin() {
	if s.started {
		return
	}
	s.started = true
	if s.opts.Method == MethodXML && !s.opts.OmitXMLDeclaration {
		enc := s.opts.Encoding
		if enc == "" {
			enc = "UTF-8"
		}
		s.write(`<?xml version="1.0" encoding="` + html.EscapeString(enc) + `"?>`)
		if s.opts.Indent {
			s.write("\n")
		}
	}
}

func (s *Serializer) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return &s.stack[len(s.stack)-1]
}

// closeTag finishes a start tag whose attributes are still pending.
func (s *Serializer) closeTag() {
	if !s.tagOpen {
		return
	}
	s.tagOpen = false
	for _, a := range s.attrs {
		s.write(" " + a.name + `="` + html.EscapeString(a.value) + `"`)
	}
	s.attrs = s.attrs[:0]
	s.write(">")
}

func (s *Serializer) newline(depth int) {
	s.write("\n" + strings.Repeat("  ", depth))
}

func (s *Serializer) Text(value string, escape bool) {
	if value == "" {
		return
	}
	s.begin()
	if s.opts.Method == MethodText {
		s.write(value)
		return
	}
	s.closeTag()
	top := s.top()
	if top != nil {
		top.hasText = true
	}
	if escape && !(s.opts.Method == MethodHTML && top != nil && rawTextElements[top.name]) {
		value = html.EscapeString(value)
	}
	s.write(value)
}

func (s *Serializer) StartElement(name string) {
	s.begin()
	if s.opts.Method == MethodText {
		return
	}
	s.closeTag()

	parent := s.top()
	if s.opts.Indent && parent != nil && !parent.hasText {
		s.newline(len(s.stack))
	}
	if parent != nil {
		parent.hasElementChild = true
	}

	s.write("<" + name)
	s.tagOpen = true
	s.stack = append(s.stack, frame{name: name})
}

func (s *Serializer) Attribute(name, value string) {
	if !s.tagOpen {
		return
	}
	for i := range s.attrs {
		if s.attrs[i].name == name {
			s.attrs[i].value = value
			return
		}
	}
	s.attrs = append(s.attrs, pendingAttr{name: name, value: value})
}

func (s *Serializer) EndElement(name string) {
	if s.opts.Method == MethodText || len(s.stack) == 0 {
		return
	}
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	if s.tagOpen {
		switch {
		case s.opts.Method == MethodHTML && voidElements[strings.ToLower(f.name)]:
			s.closeTag()
			return
		case s.opts.Method == MethodXML:
			s.tagOpen = false
			for _, a := range s.attrs {
				s.write(" " + a.name + `="` + html.EscapeString(a.value) + `"`)
			}
			s.attrs = s.attrs[:0]
			s.write("/>")
			return
		default:
			s.closeTag()
		}
	}

	if s.opts.Indent && f.hasElementChild && !f.hasText {
		s.newline(len(s.stack))
	}
	s.write("</" + f.name + ">")
}

func (s *Serializer) Comment(value string) {
	s.begin()
	if s.opts.Method == MethodText {
		return
	}
	s.closeTag()
	value = strings.ReplaceAll(value, "--", "- -")
	if strings.HasSuffix(value, "-") {
		value += " "
	}
	s.write("<!--" + value + "-->")
}

// Err returns the first write error, if any.
func (s *Serializer) Err() error { return s.err }

// Close finishes any pending start tag, flushes buffered output and the
// encoder, and returns the first error encountered while writing.
func (s *Serializer) Close() error {
	if s.closed {
		return s.err
	}
	s.closeTag()
	if s.err == nil {
		s.err = s.buf.Flush()
	}
	if s.encoder != nil {
		if err := s.encoder.Close(); err != nil && s.err == nil {
			s.err = err
		}
	}
	s.closed = true
	return s.err
}
