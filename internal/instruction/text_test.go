package instruction

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/xslate/internal/contentmodel"
	xerrors "github.com/conneroisu/xslate/internal/errors"
	"github.com/conneroisu/xslate/internal/output"
	"github.com/conneroisu/xslate/internal/source"
)

func textNode(doe string, children ...*source.Node) *source.Node {
	var attrs []source.Attr
	if doe != "" {
		attrs = append(attrs, source.Attr{Name: "disable-output-escaping", Value: doe})
	}
	return source.NewElement(NameText, attrs, children...)
}

func run(t *testing.T, in Instruction) []output.Event {
	t.Helper()
	rec := output.NewRecorder()
	require.NoError(t, in.Instantiate(NewRunContext(context.Background(), nil, rec, nil)))
	return rec.Events()
}

func TestTextEscaped(t *testing.T) {
	for _, doe := range []string{"", "no"} {
		t.Run("doe="+doe, func(t *testing.T) {
			in, err := NewCompiler().CompileElement(textNode(doe, source.NewText("hello")))
			require.NoError(t, err)

			want := []output.Event{{Kind: output.EventText, Value: "hello", Escape: true}}
			if diff := cmp.Diff(want, run(t, in)); diff != "" {
				t.Fatalf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTextDisableOutputEscaping(t *testing.T) {
	in, err := NewCompiler().CompileElement(textNode("yes", source.NewText("<b>")))
	require.NoError(t, err)

	rec := output.NewRecorder()
	require.NoError(t, in.Instantiate(NewRunContext(context.Background(), nil, rec, nil)))

	want := []output.Event{{Kind: output.EventText, Value: "<b>", Escape: false}}
	if diff := cmp.Diff(want, rec.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	s, err := output.NewSerializer(&buf, output.SerializerOptions{OmitXMLDeclaration: true})
	require.NoError(t, err)
	rec.Replay(s)
	require.NoError(t, s.Close())
	assert.Equal(t, "<b>", buf.String())
}

func TestTextWithoutChildrenWritesNothing(t *testing.T) {
	for _, doe := range []string{"", "no", "yes"} {
		t.Run("doe="+doe, func(t *testing.T) {
			in, err := NewCompiler().CompileElement(textNode(doe))
			require.NoError(t, err)

			counter := &countingContext{}
			require.NoError(t, in.Instantiate(NewRunContext(context.Background(), nil, counter, nil)))
			assert.Zero(t, counter.calls)
		})
	}
}

func TestTextPreservesWhitespace(t *testing.T) {
	in, err := NewCompiler().CompileElement(textNode("", source.NewText("  ")))
	require.NoError(t, err)
	assert.Equal(t, "  ", in.(*Text).Value())
}

func TestTextConcatenatesTextChildren(t *testing.T) {
	doc, err := source.Parse(strings.NewReader(`<xsl:text>a<![CDATA[<]]>b</xsl:text>`), "concat.xsl")
	require.NoError(t, err)

	in, err := NewCompiler().CompileElement(doc.Root())
	require.NoError(t, err)

	txt := in.(*Text)
	assert.Equal(t, "a<b", txt.Value())
	assert.False(t, txt.DisableOutputEscaping())
}

func TestTextCDATAIsVerbatim(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		escape bool
		want   string
	}{
		{"raw", `<xsl:text disable-output-escaping="yes"><![CDATA[&lt;b&gt;]]></xsl:text>`, false, "&lt;b&gt;"},
		{"escaped", `<xsl:text><![CDATA[a &amp; b]]></xsl:text>`, true, "a &amp;amp; b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := source.Parse(strings.NewReader(tt.src), "cdata.xsl")
			require.NoError(t, err)

			in, err := NewCompiler().CompileElement(doc.Root())
			require.NoError(t, err)

			rec := output.NewRecorder()
			require.NoError(t, in.Instantiate(NewRunContext(context.Background(), nil, rec, nil)))

			var buf bytes.Buffer
			s, err := output.NewSerializer(&buf, output.SerializerOptions{OmitXMLDeclaration: true})
			require.NoError(t, err)
			rec.Replay(s)
			require.NoError(t, s.Close())
			assert.Equal(t, tt.want, buf.String())

			events := rec.Events()
			require.Len(t, events, 1)
			assert.Equal(t, tt.escape, events[0].Escape)
		})
	}
}

func TestTextRejectsNonTextChild(t *testing.T) {
	tests := []struct {
		name  string
		child *source.Node
		kind  string
	}{
		{"literal element", source.NewElement("b", nil), "element:b"},
		{"instruction", source.NewElement(NameText, nil), "element:xsl:text"},
		{"comment", source.NewComment("note"), "comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.child.Pos = source.Position{File: "bad.xsl", Line: 3, Column: 9}
			n := textNode("", source.NewText("before"), tt.child)
			n.Pos = source.Position{File: "bad.xsl", Line: 3, Column: 1}

			in, err := NewCompiler().CompileElement(n)
			require.Error(t, err)
			assert.Nil(t, in)
			assert.True(t, xerrors.IsContentModelError(err))

			var xe *xerrors.XslateError
			require.ErrorAs(t, err, &xe)
			assert.Equal(t, NameText, xe.Instruction)
			assert.Equal(t, 3, xe.Line)
			assert.Equal(t, 1, xe.Context["position"])
			assert.Equal(t, tt.kind, xe.Context["child"])
			assert.Equal(t, "bad.xsl:3:9", xe.Context["child_at"])
			assert.Equal(t, []string{contentmodel.EndOfContent, "text"}, xe.Context["expected"])
		})
	}
}

func TestSetupNeverRunsOnInvalidContent(t *testing.T) {
	reg := Default().Clone()
	setups := 0
	reg.MustRegister(&Definition{
		Name:  "xsl:probe",
		Model: contentmodel.Text(),
		Setup: func(el *Element) (Instruction, error) {
			setups++
			return setupText(el)
		},
	})

	c := NewCompiler(WithRegistry(reg))
	_, err := c.CompileElement(source.NewElement("xsl:probe", nil, source.NewElement("b", nil)))
	require.Error(t, err)
	assert.True(t, xerrors.IsContentModelError(err))
	assert.Zero(t, setups)

	_, err = c.CompileElement(source.NewElement("xsl:probe", nil, source.NewText("ok")))
	require.NoError(t, err)
	assert.Equal(t, 1, setups)
}

func TestTextAttributeErrors(t *testing.T) {
	tests := []struct {
		name  string
		attrs []source.Attr
		code  string
		attr  string
		value string
	}{
		{
			name:  "bad yes/no token",
			attrs: []source.Attr{{Name: "disable-output-escaping", Value: "Yes"}},
			code:  xerrors.ErrCodeAttributeInvalid,
			attr:  "disable-output-escaping",
			value: "Yes",
		},
		{
			name:  "undeclared attribute",
			attrs: []source.Attr{{Name: "escape", Value: "no"}},
			code:  xerrors.ErrCodeAttributeUnknown,
			attr:  "escape",
			value: "no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := source.NewElement(NameText, tt.attrs, source.NewText("x"))
			_, err := NewCompiler().CompileElement(n)
			require.Error(t, err)
			assert.True(t, xerrors.IsAttributeError(err))

			var xe *xerrors.XslateError
			require.ErrorAs(t, err, &xe)
			assert.Equal(t, tt.code, xe.Code)
			assert.Equal(t, tt.attr, xe.Context["attribute"])
			assert.Equal(t, tt.value, xe.Context["value"])
			assert.Equal(t, NameText, xe.Instruction)
		})
	}
}

func TestTextIgnoresForeignAttributes(t *testing.T) {
	n := source.NewElement(NameText, []source.Attr{{Name: "xml:space", Value: "preserve"}}, source.NewText("x"))
	_, err := NewCompiler().CompileElement(n)
	assert.NoError(t, err)
}

func TestTextIsReentrant(t *testing.T) {
	in, err := NewCompiler().CompileElement(textNode("no", source.NewText("hello")))
	require.NoError(t, err)

	want := []output.Event{{Kind: output.EventText, Value: "hello", Escape: true}}

	first := output.NewRecorder()
	second := output.NewRecorder()
	require.NoError(t, in.Instantiate(NewRunContext(context.Background(), nil, first, nil)))
	require.NoError(t, in.Instantiate(NewRunContext(context.Background(), nil, second, nil)))

	assert.Empty(t, cmp.Diff(want, first.Events()))
	assert.Empty(t, cmp.Diff(want, second.Events()))
}

func TestTextConcurrentRuns(t *testing.T) {
	in, err := NewCompiler().CompileElement(textNode("yes", source.NewText("<i>x</i>")))
	require.NoError(t, err)

	const runs = 16
	recorders := make([]*output.Recorder, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		recorders[i] = output.NewRecorder()
		wg.Add(1)
		go func(rec *output.Recorder) {
			defer wg.Done()
			assert.NoError(t, in.Instantiate(NewRunContext(context.Background(), nil, rec, nil)))
		}(recorders[i])
	}
	wg.Wait()

	want := []output.Event{{Kind: output.EventText, Value: "<i>x</i>"}}
	for _, rec := range recorders {
		assert.Empty(t, cmp.Diff(want, rec.Events()))
	}
}

type countingContext struct {
	calls int
}

func (c *countingContext) Text(string, bool) { c.calls++ }
func (c *countingContext) StartElement(string) { c.calls++ }
func (c *countingContext) Attribute(string, string) { c.calls++ }
func (c *countingContext) EndElement(string) { c.calls++ }
func (c *countingContext) Comment(string) { c.calls++ }
