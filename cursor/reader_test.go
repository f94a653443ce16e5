package cursor

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nsApp = "urn:app"

func events(t *testing.T, doc string) (got []string) {
	r := New(strings.NewReader(doc))
	for {
		kind, err := r.Next()
		require.NoError(t, err)
		switch kind {
		case StartElement, EndElement:
			got = append(got, kind.String()+" "+r.Name().Local)
		case Text:
			got = append(got, kind.String()+" "+r.Text())
		case EndDocument:
			return append(got, kind.String())
		}
	}
}

func TestReaderEvents(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "elements",
			doc:  `<a><b/></a>`,
			want: []string{"START_ELEMENT a", "START_ELEMENT b", "END_ELEMENT b", "END_ELEMENT a", "END_DOCUMENT"},
		},
		{
			name: "prolog and trailing whitespace",
			doc:  "<?xml version=\"1.0\"?>\n<!-- c -->\n<a>x</a>\n",
			want: []string{"START_ELEMENT a", "CHARACTERS x", "END_ELEMENT a", "END_DOCUMENT"},
		},
		{
			name: "coalesced text",
			doc:  `<a>one<![CDATA[ two ]]>three<!-- gone -->four</a>`,
			want: []string{"START_ELEMENT a", "CHARACTERS one two three", "CHARACTERS four", "END_ELEMENT a", "END_DOCUMENT"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, events(t, tc.doc))
		})
	}
}

func TestReaderEndDocumentRepeats(t *testing.T) {
	check := assert.New(t)
	r, err := Open(strings.NewReader(`<a/>`))
	require.NoError(t, err)
	check.Equal(StartElement, r.Kind())
	kind, err := r.Next()
	check.NoError(err)
	check.Equal(EndElement, kind)
	for i := 0; i < 2; i++ {
		kind, err = r.Next()
		check.NoError(err)
		check.Equal(EndDocument, kind)
	}
}

func TestReaderAttributesAndNamespaces(t *testing.T) {
	check := assert.New(t)
	doc := `<a xmlns="urn:app" xmlns:xlink="http://www.w3.org/1999/xlink" id="1" xlink:href="#x">` +
		`<b xmlns:p="urn:p" p:k="v"/><c/></a>`
	r, err := Open(strings.NewReader(doc))
	require.NoError(t, err)

	check.Equal(xml.Name{Space: nsApp, Local: "a"}, r.Name())
	check.Equal(2, r.AttrCount())
	check.Equal(xml.Name{Local: "id"}, r.AttrName(0))
	check.Equal("1", r.AttrValue(0))
	href, ok := r.Attr(xmlutil.XLinkHref)
	check.True(ok)
	check.Equal("#x", href)
	_, ok = r.Attr(xml.Name{Local: "missing"})
	check.False(ok)
	check.Equal(nsApp, r.Namespaces().Namespace(""))
	check.Equal("", r.Namespaces().Namespace("p"))

	kind, err := r.NextElement()
	require.NoError(t, err)
	check.Equal(StartElement, kind)
	check.Equal("urn:p", r.Namespaces().Namespace("p"))
	check.Equal(xmlutil.NSXLink, r.Namespaces().Namespace("xlink"))
	v, ok := r.Attr(xml.Name{Space: "urn:p", Local: "k"})
	check.True(ok)
	check.Equal("v", v)

	// the end element still sees the scope of its start element
	_, err = r.NextElement()
	require.NoError(t, err)
	check.Equal("urn:p", r.Namespaces().Namespace("p"))

	_, err = r.NextElement()
	require.NoError(t, err)
	check.Equal("c", r.Name().Local)
	check.Equal("", r.Namespaces().Namespace("p"))
	check.Equal(0, r.AttrCount())
}

func TestReaderElementText(t *testing.T) {
	check := assert.New(t)
	r, err := Open(strings.NewReader(`<a><b>12.5</b><c>x<d/></c></a>`))
	require.NoError(t, err)

	_, err = r.NextElement()
	require.NoError(t, err)
	text, err := r.ElementText()
	check.NoError(err)
	check.Equal("12.5", text)
	check.NoError(r.Require(EndElement, xml.Name{Local: "b"}))

	_, err = r.NextElement()
	require.NoError(t, err)
	_, err = r.ElementText()
	check.Error(err)
	check.True(gmlerr.HasTag(err, "unexpected-element"))
	check.True(gmlerr.IsType(err, gmlerr.TypeStructural))
}

func TestReaderSkipElement(t *testing.T) {
	check := assert.New(t)
	r, err := Open(strings.NewReader(`<a><b><b><c/></b>text</b><e/></a>`))
	require.NoError(t, err)
	_, err = r.NextElement()
	require.NoError(t, err)
	check.NoError(r.SkipElement())
	check.Equal(EndElement, r.Kind())
	check.Equal("b", r.Name().Local)
	check.Equal(1, r.Depth())

	kind, err := r.NextElement()
	check.NoError(err)
	check.Equal(StartElement, kind)
	check.Equal("e", r.Name().Local)
}

func TestReaderRequire(t *testing.T) {
	check := assert.New(t)
	r, err := Open(strings.NewReader(`<a/>`), WithSystemID("file:///doc.gml"))
	require.NoError(t, err)

	check.NoError(r.Require(StartElement, xml.Name{}))
	check.NoError(r.Require(StartElement, xml.Name{Local: "a"}))
	err = r.Require(EndElement, xml.Name{})
	check.Error(err)
	check.Contains(err.Error(), "expected END_ELEMENT, found START_ELEMENT a")
	check.Contains(err.Error(), "file:///doc.gml:1:")
	check.Error(r.Require(StartElement, xml.Name{Local: "b"}))
}

func TestReaderStreamErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		tag  string
	}{
		{name: "truncated", doc: `<a><b>`, tag: "unexpected-eof"},
		{name: "mismatched", doc: `<a><b></a>`, tag: "malformed-markup"},
		{name: "empty", doc: ``, tag: "unexpected-eof"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			check := assert.New(t)
			r := New(strings.NewReader(tc.doc))
			var err error
			for err == nil {
				_, err = r.Next()
			}
			check.True(gmlerr.IsType(err, gmlerr.TypeStream), err.Error())
			check.True(gmlerr.HasTag(err, tc.tag), err.Error())

			// stream errors are sticky
			_, again := r.Next()
			check.Equal(err, again)
		})
	}
}

func TestOpenEmpty(t *testing.T) {
	_, err := Open(strings.NewReader("  "))
	assert.True(t, gmlerr.HasTag(err, "unexpected-eof"))
}
