package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(ctx Context) {
	ctx.StartElement("p")
	ctx.Attribute("class", `a"b`)
	ctx.Text("x<y", true)
	ctx.StartElement("br")
	ctx.EndElement("br")
	ctx.Text("<b>", false)
	ctx.Comment("note")
	ctx.EndElement("p")
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	feed(rec)
	rec.Text("", true)
	rec.Text("", false)

	want := []Event{
		{Kind: EventStartElement, Name: "p"},
		{Kind: EventAttribute, Name: "class", Value: `a"b`},
		{Kind: EventText, Value: "x<y", Escape: true},
		{Kind: EventStartElement, Name: "br"},
		{Kind: EventEndElement, Name: "br"},
		{Kind: EventText, Value: "<b>", Escape: false},
		{Kind: EventComment, Value: "note"},
		{Kind: EventEndElement, Name: "p"},
	}
	if diff := cmp.Diff(want, rec.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, len(want), rec.Len())

	events := rec.Events()
	events[0].Name = "changed"
	assert.Equal(t, "p", rec.Events()[0].Name)
}

func TestRecorderReplay(t *testing.T) {
	src := NewRecorder()
	feed(src)

	dst := NewRecorder()
	src.Replay(dst)
	assert.Equal(t, src.Events(), dst.Events())
}

func serialize(t *testing.T, opts SerializerOptions, fn func(Context)) string {
	t.Helper()
	var buf bytes.Buffer
	s, err := NewSerializer(&buf, opts)
	require.NoError(t, err)
	fn(s)
	require.NoError(t, s.Close())
	return buf.String()
}

func TestSerializerXML(t *testing.T) {
	out := serialize(t, SerializerOptions{Method: MethodXML}, feed)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><p class="a&#34;b">x&lt;y<br/><b><!--note--></p>`, out)
}

func TestSerializerDefaultsToXML(t *testing.T) {
	out := serialize(t, SerializerOptions{OmitXMLDeclaration: true}, func(c Context) {
		c.StartElement("a")
		c.EndElement("a")
	})
	assert.Equal(t, "<a/>", out)
}

func TestSerializerRawTextNotEscaped(t *testing.T) {
	out := serialize(t, SerializerOptions{Method: MethodXML, OmitXMLDeclaration: true}, func(c Context) {
		c.Text("<b>", false)
	})
	assert.Equal(t, "<b>", out)
}

func TestSerializerHTML(t *testing.T) {
	out := serialize(t, SerializerOptions{Method: MethodHTML}, func(c Context) {
		c.StartElement("div")
		c.StartElement("br")
		c.EndElement("br")
		c.StartElement("script")
		c.Text("if (a < b) {}", true)
		c.EndElement("script")
		c.StartElement("span")
		c.EndElement("span")
		c.EndElement("div")
	})
	assert.Equal(t, `<div><br><script>if (a < b) {}</script><span></span></div>`, out)
}

func TestSerializerText(t *testing.T) {
	out := serialize(t, SerializerOptions{Method: MethodText}, func(c Context) {
		c.StartElement("p")
		c.Attribute("id", "x")
		c.Text("a<b", true)
		c.Comment("dropped")
		c.Text("&", false)
		c.EndElement("p")
	})
	assert.Equal(t, "a<b&", out)
}

func TestSerializerAttributes(t *testing.T) {
	out := serialize(t, SerializerOptions{OmitXMLDeclaration: true}, func(c Context) {
		c.StartElement("p")
		c.Attribute("id", "1")
		c.Attribute("id", "2")
		c.Attribute("lang", "en")
		c.Text("a", true)
		c.Attribute("late", "dropped")
		c.EndElement("p")
	})
	assert.Equal(t, `<p id="2" lang="en">a</p>`, out)
}

func TestSerializerIndent(t *testing.T) {
	out := serialize(t, SerializerOptions{OmitXMLDeclaration: true, Indent: true}, func(c Context) {
		c.StartElement("a")
		c.StartElement("b")
		c.EndElement("b")
		c.StartElement("c")
		c.Text("t", true)
		c.EndElement("c")
		c.EndElement("a")
	})
	assert.Equal(t, "<a>\n  <b/>\n  <c>t</c>\n</a>", out)
}

func TestSerializerIndentKeepsMixedContent(t *testing.T) {
	out := serialize(t, SerializerOptions{OmitXMLDeclaration: true, Indent: true}, func(c Context) {
		c.StartElement("p")
		c.Text("hello ", true)
		c.StartElement("b")
		c.Text("world", true)
		c.EndElement("b")
		c.EndElement("p")
	})
	assert.Equal(t, "<p>hello <b>world</b></p>", out)
}

func TestSerializerComment(t *testing.T) {
	out := serialize(t, SerializerOptions{OmitXMLDeclaration: true}, func(c Context) {
		c.Comment("a--b-")
	})
	assert.Equal(t, "<!--a- -b- -->", out)
}

func TestSerializerEncoding(t *testing.T) {
	out := serialize(t, SerializerOptions{Method: MethodXML, Encoding: "ISO-8859-1"}, func(c Context) {
		c.Text("é☃", true)
	})
	assert.Equal(t, "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\xe9&#9731;", out)
}

func TestSerializerRejectsBadOptions(t *testing.T) {
	_, err := NewSerializer(&bytes.Buffer{}, SerializerOptions{Method: "pdf"})
	assert.Error(t, err)

	_, err = NewSerializer(&bytes.Buffer{}, SerializerOptions{Encoding: "klingon-1"})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestSerializerStickyError(t *testing.T) {
	s, err := NewSerializer(failingWriter{}, SerializerOptions{Method: MethodText})
	require.NoError(t, err)

	s.Text("hello", true)
	err = s.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, err, s.Err())
	assert.Equal(t, err, s.Close())

	s.Text("ignored", true)
}

func TestTreeBuilder(t *testing.T) {
	b := NewTreeBuilder()
	feed(b)

	var buf bytes.Buffer
	require.NoError(t, b.Render(&buf))
	assert.Equal(t, `<p class="a&#34;b">x&lt;y<br/><b><!--note--></p>`, buf.String())

	p := b.Root().FirstChild
	require.NotNil(t, p)
	assert.Equal(t, "p", p.Data)
}

func TestTreeBuilderDropsLateAttributes(t *testing.T) {
	b := NewTreeBuilder()
	b.StartElement("p")
	b.Text("x", true)
	b.Attribute("late", "1")
	b.EndElement("p")
	b.EndElement("extra")

	assert.Empty(t, b.Root().FirstChild.Attr)
}

func TestSanitizing(t *testing.T) {
	rec := NewRecorder()
	s := NewSanitizing(rec, nil)

	s.Text(`<b>bold</b><script>alert(1)</script>`, false)
	s.Text(`<script>`, true)
	s.StartElement("p")

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "<b>bold</b>", events[0].Value)
	assert.False(t, events[0].Escape)
	assert.Equal(t, "<script>", events[1].Value)
	assert.Equal(t, EventStartElement, events[2].Kind)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("html")
	require.NoError(t, err)
	assert.Equal(t, MethodHTML, m)

	_, err = ParseMethod("HTML")
	assert.Error(t, err)
}

func TestEventKindMarshalText(t *testing.T) {
	b, err := EventAttribute.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "attribute", string(b))

	_, err = EventKind(42).MarshalText()
	assert.Error(t, err)
}
