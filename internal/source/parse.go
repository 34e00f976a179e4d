package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"

	xerrors "github.com/conneroisu/xslate/internal/errors"
)

// ParseFile reads the stylesheet at path.
func ParseFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.NewIOError(xerrors.ErrCodeFileNotFound, "cannot open template", err).
			WithLocation(path, 0, 0)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads markup from r into a document node. It uses the HTML tokenizer
// without tree construction, so elements nest exactly as written and names
// keep their prefixes. Character references are decoded in ordinary text;
// CDATA sections become text nodes holding their content as written.
func Parse(r io.Reader, file string) (*Node, error) {
	z := html.NewTokenizer(r)
	z.AllowCDATA(true)

	doc := &Node{Kind: DocumentNode, Pos: Position{File: file, Line: 1, Column: 1}}
	stack := []*Node{doc}
	cursor := position{line: 1, column: 1}

	for {
		tt := z.Next()
		pos := Position{File: file, Line: cursor.line, Column: cursor.column}
		cursor.advance(z.Raw())

		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return nil, xerrors.NewSourceError(xerrors.ErrCodeMalformedSource, "cannot read template", z.Err()).
					WithLocation(file, pos.Line, pos.Column)
			}
			if len(stack) > 1 {
				open := stack[len(stack)-1]
				return nil, malformed(open.Pos, fmt.Sprintf("element <%s> is never closed", open.Name))
			}
			return doc, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			el := &Node{Kind: ElementNode, Name: tok.Data, Pos: pos}
			for _, a := range tok.Attr {
				name := a.Key
				if a.Namespace != "" {
					name = a.Namespace + ":" + a.Key
				}
				if _, dup := el.Attr(name); dup {
					return nil, malformed(pos, fmt.Sprintf("duplicate attribute %q on <%s>", name, el.Name))
				}
				el.Attrs = append(el.Attrs, Attr{Name: name, Value: a.Val})
			}

			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, el)
			if tt == html.StartTagToken {
				stack = append(stack, el)
				z.NextIsNotRawText()
			}

		case html.EndTagToken:
			tok := z.Token()
			if len(stack) == 1 {
				return nil, malformed(pos, fmt.Sprintf("unexpected end tag </%s>", tok.Data))
			}
			open := stack[len(stack)-1]
			if open.Name != tok.Data {
				return nil, malformed(pos, fmt.Sprintf("end tag </%s> does not match <%s> opened at %s", tok.Data, open.Name, open.Pos))
			}
			stack = stack[:len(stack)-1]

		case html.TextToken:
			data, ok := cdata(z.Raw())
			if !ok {
				data = string(z.Text())
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Kind: TextNode, Data: data, Pos: pos})

		case html.CommentToken:
			data := string(z.Text())
			// Processing instructions such as the XML declaration surface as
			// bogus comments.
			if strings.HasPrefix(data, "?") {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Kind: CommentNode, Data: data, Pos: pos})

		case html.DoctypeToken:
			continue
		}
	}
}

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// cdata returns the literal content of a CDATA section token. The tokenizer
// decodes entity references in Text, which CDATA content must not see.
func cdata(raw []byte) (string, bool) {
	if !bytes.HasPrefix(raw, []byte(cdataOpen)) {
		return "", false
	}
	body := bytes.TrimPrefix(raw, []byte(cdataOpen))
	body = bytes.TrimSuffix(body, []byte(cdataClose))
	return strings.ReplaceAll(string(body), "\r\n", "\n"), true
}

func malformed(pos Position, msg string) error {
	return xerrors.NewSourceError(xerrors.ErrCodeMalformedSource, msg, nil).
		WithLocation(pos.File, pos.Line, pos.Column)
}

type position struct {
	line   int
	column int
}

func (p *position) advance(raw []byte) {
	for {
		i := bytes.IndexByte(raw, '\n')
		if i < 0 {
			p.column += len(raw)
			return
		}
		p.line++
		p.column = 1
		raw = raw[i+1:]
	}
}
