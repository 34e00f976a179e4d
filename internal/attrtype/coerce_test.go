package attrtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/conneroisu/xslate/internal/errors"
)

func TestCoerceYesNo(t *testing.T) {
	typ := YesNo("no")

	tests := []struct {
		name    string
		raw     string
		present bool
		want    bool
		wantErr bool
	}{
		{"absent uses default", "", false, false, false},
		{"yes", "yes", true, true, false},
		{"no", "no", true, false, false},
		{"case sensitive", "Yes", true, false, true},
		{"empty", "", true, false, true},
		{"other token", "true", true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Coerce("disable-output-escaping", typ, tt.raw, tt.present)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, xerrors.IsAttributeError(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, v.IsSet())
			assert.Equal(t, tt.want, v.Bool())
			assert.Equal(t, KindYesNo, v.Kind())
		})
	}
}

func TestCoerceYesNoDefaultYes(t *testing.T) {
	v, err := Coerce("indent", YesNo("yes"), "", false)
	require.NoError(t, err)
	assert.True(t, v.Bool())
	assert.Equal(t, "yes", v.String())
}

func TestCoerceErrorCarriesNameAndValue(t *testing.T) {
	_, err := Coerce("terminate", YesNo("no"), "maybe", true)
	require.Error(t, err)

	xe, ok := err.(*xerrors.XslateError)
	require.True(t, ok)
	assert.Equal(t, xerrors.ErrCodeAttributeInvalid, xe.Code)
	assert.Equal(t, "terminate", xe.Context["attribute"])
	assert.Equal(t, "maybe", xe.Context["value"])
}

func TestCoerceRequired(t *testing.T) {
	typ := QName().Required()

	_, err := Coerce("name", typ, "", false)
	require.Error(t, err)
	xe := err.(*xerrors.XslateError)
	assert.Equal(t, xerrors.ErrCodeAttributeRequired, xe.Code)
	assert.Equal(t, "name", xe.Context["attribute"])

	v, err := Coerce("name", typ, "html:div", true)
	require.NoError(t, err)
	assert.Equal(t, QNameValue{Prefix: "html", Local: "div"}, v.QName())
	assert.Equal(t, "html:div", v.QName().String())
}

func TestCoerceOptionalAbsent(t *testing.T) {
	v, err := Coerce("match", String(), "", false)
	require.NoError(t, err)
	assert.False(t, v.IsSet())
	assert.Equal(t, "", v.String())
}

func TestCoerceString(t *testing.T) {
	v, err := Coerce("match", String(), "/", true)
	require.NoError(t, err)
	assert.Equal(t, "/", v.String())

	v, err = Coerce("match", StringDefault("*"), "", false)
	require.NoError(t, err)
	assert.Equal(t, "*", v.String())
}

func TestCoerceEnum(t *testing.T) {
	typ := Enum("xml", "xml", "html", "text")

	v, err := Coerce("method", typ, "", false)
	require.NoError(t, err)
	assert.Equal(t, "xml", v.String())

	v, err = Coerce("method", typ, "html", true)
	require.NoError(t, err)
	assert.Equal(t, "html", v.String())

	_, err = Coerce("method", typ, "pdf", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one of xml, html, text")

	_, err = Coerce("version", Enum("", "1.0").Required(), "", false)
	assert.Error(t, err)
}

func TestCoerceQName(t *testing.T) {
	valid := []string{"main", "my-template", "_x", "ns:local", "a.b", "été"}
	for _, s := range valid {
		_, err := Coerce("name", QName(), s, true)
		assert.NoError(t, err, s)
	}

	invalid := []string{"", "1abc", ":x", "x:", "a:b:c", "has space", "-lead"}
	for _, s := range invalid {
		_, err := Coerce("name", QName(), s, true)
		assert.Error(t, err, s)
	}
}

func TestCoerceEncoding(t *testing.T) {
	for _, s := range []string{"UTF-8", "utf-8", "ISO-8859-1", "windows-1252", "Shift_JIS"} {
		_, err := Coerce("encoding", Encoding("UTF-8"), s, true)
		assert.NoError(t, err, s)
	}

	v, err := Coerce("encoding", Encoding("UTF-8"), "", false)
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", v.String())

	_, err = Coerce("encoding", Encoding("UTF-8"), "klingon-1", true)
	assert.Error(t, err)
}

func TestCoerceAll(t *testing.T) {
	decls := Decls{
		"name":    QName().Required(),
		"indent":  YesNo("no"),
		"method":  Enum("xml", "xml", "html", "text"),
		"comment": String(),
	}

	set, err := CoerceAll(decls, map[string]string{
		"name":      "out",
		"indent":    "yes",
		"xmlns:xsl": "http://www.w3.org/1999/XSL/Transform",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, set.Len())
	assert.Equal(t, "out", set.QName("name").Local)
	assert.True(t, set.Bool("indent"))
	assert.Equal(t, "xml", set.Text("method"))
	assert.False(t, set.Has("comment"))
	assert.True(t, set.Has("method"))
	assert.False(t, set.Get("undeclared").IsSet())
}

func TestCoerceAllUnknownAttribute(t *testing.T) {
	decls := Decls{"name": QName()}

	_, err := CoerceAll(decls, map[string]string{"zeta": "1", "alpha": "2"})
	require.Error(t, err)
	xe := err.(*xerrors.XslateError)
	assert.Equal(t, xerrors.ErrCodeAttributeUnknown, xe.Code)
	assert.Equal(t, "alpha", xe.Context["attribute"])
	assert.Equal(t, "2", xe.Context["value"])
	assert.Contains(t, xe.Message, `"alpha"`)
}

func TestCoerceAllReportsFirstDeclaredFailure(t *testing.T) {
	decls := Decls{
		"b": YesNo("no"),
		"a": YesNo("no"),
	}

	_, err := CoerceAll(decls, map[string]string{"a": "x", "b": "y"})
	require.Error(t, err)
	assert.Equal(t, "a", err.(*xerrors.XslateError).Context["attribute"])
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "yes|no = no", YesNo("no").String())
	assert.Equal(t, "qname (required)", QName().Required().String())
	assert.Equal(t, "xml|html|text = xml", Enum("xml", "xml", "html", "text").String())
	assert.Equal(t, "string", String().String())
	assert.Equal(t, "encoding = UTF-8", Encoding("UTF-8").String())

	def, ok := YesNo("yes").Default()
	assert.True(t, ok)
	assert.Equal(t, "yes", def)

	_, ok = QName().Default()
	assert.False(t, ok)
	assert.True(t, QName().Required().IsRequired())
	assert.Equal(t, []string{"yes", "no"}, YesNo("no").Tokens())
}
