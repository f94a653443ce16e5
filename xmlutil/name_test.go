package xmlutil

import (
	"encoding/xml"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXMLName(t *testing.T) {
	for _, tc := range []struct {
		local  string
		spaces []string
		want   xml.Name
	}{
		{local: "foo", want: xml.Name{Local: "foo"}},
		{local: "foo", spaces: []string{"bar"}, want: xml.Name{Local: "foo", Space: "bar"}},
		{local: "foo", spaces: []string{"bar", "baz"}, want: xml.Name{Local: "foo", Space: "bar"}},
		{want: xml.Name{}},
	} {
		t.Run(fmt.Sprintf("%v", tc.want), func(t *testing.T) { assert.New(t).Equal(tc.want, XMLName(tc.local, tc.spaces...)) })
	}
}

func TestNameStrings(t *testing.T) {
	check := assert.New(t)
	check.Equal("{http://www.opengis.net/gml/3.2}Point", Clark(XMLName("Point", NSGML32)))
	check.Equal("Point", Clark(XMLName("Point")))
}

func TestIsNamespaceDecl(t *testing.T) {
	check := assert.New(t)
	check.True(IsNamespaceDecl(xml.Attr{Name: XMLName("gml", "xmlns")}))
	check.True(IsNamespaceDecl(xml.Attr{Name: XMLName("xmlns")}))
	check.False(IsNamespaceDecl(xml.Attr{Name: XSINil}))
	check.False(IsNamespaceDecl(xml.Attr{Name: XMLName("uom")}))
}
