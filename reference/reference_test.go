package reference

import (
	"encoding/xml"
	"testing"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linkDecl = &catalog.PropertyType{Name: xml.Name{Local: "link"}, Kind: catalog.KindFeature}

func newFeature(t *testing.T, id string, props ...*feature.Property) *feature.Feature {
	f, err := feature.NewFeature(id, xml.Name{Local: "Thing"}, nil, props, feature.StandardProps{})
	require.NoError(t, err)
	return f
}

func link(t *testing.T, ref *feature.Reference) *feature.Property {
	p, err := feature.NewProperty(linkDecl, linkDecl.Name, ref, false, nil)
	require.NoError(t, err)
	return p
}

func TestRegister(t *testing.T) {
	check := assert.New(t)
	reg := NewRegistry()
	ref := feature.NewReference("#F1", feature.ObjectFeature, "")
	reg.Register(ref)
	reg.Register(ref)
	reg.Register(nil)
	check.Equal(1, reg.Len())

	other := NewRegistry()
	other.Register(ref)
	other.Register(feature.NewReference("#F1", feature.ObjectFeature, ""))
	reg.Merge(other)
	check.Equal(2, reg.Len())
	check.Len(reg.Pending(), 2)
}

func TestResolveForwardReference(t *testing.T) {
	check := assert.New(t)
	reg := NewRegistry()
	index := feature.NewIndex()

	// the reference is met before its target is decoded
	ref := feature.NewReference("#F1", feature.ObjectFeature, "file:///a.gml")
	reg.Register(ref)
	src := newFeature(t, "S", link(t, ref))
	require.NoError(t, index.Add(src))
	target := newFeature(t, "F1")
	require.NoError(t, index.Add(target))

	rep := reg.ResolveAll(index, nil)
	check.Equal(1, rep.Resolved)
	check.Empty(rep.Dangling)
	check.NoError(rep.Err())

	v, err := src.Properties()[0].Resolved()
	check.NoError(err)
	check.Same(target, v)
	check.Empty(reg.Pending())

	// a second pass has nothing to do
	rep = reg.ResolveAll(index, nil)
	check.Equal(0, rep.Resolved)
}

func TestResolveDangling(t *testing.T) {
	check := assert.New(t)
	reg := NewRegistry()
	index := feature.NewIndex()
	require.NoError(t, index.Add(feature.NewGeometry("G1", nil, nil)))

	missing := feature.NewReference("#nope", feature.ObjectFeature, "")
	wrongKind := feature.NewReference("#G1", feature.ObjectFeature, "")
	external := feature.NewReference("other.gml#F1", feature.ObjectFeature, "")
	good := feature.NewReference("#G1", feature.ObjectGeometry, "")
	for _, ref := range []*feature.Reference{missing, wrongKind, external, good} {
		reg.Register(ref)
	}

	rep := reg.ResolveAll(index, nil)
	check.Equal(1, rep.Resolved)
	require.Len(t, rep.Dangling, 3)
	for i, ref := range []*feature.Reference{missing, wrongKind, external} {
		check.Same(ref, rep.Dangling[i].Reference)
		check.True(gmlerr.HasTag(rep.Dangling[i].Err, "dangling-reference"), "%v", rep.Dangling[i].Err)
		check.Equal(feature.RefDangling, ref.State())
	}
	check.Equal(feature.RefResolved, good.State())
	check.Error(rep.Err())
}

// stubSession decodes any element into a feature carrying its gml:id, with
// one link property per child element having an xlink:href.
type stubSession struct {
	systemID string
	reg      *Registry
	index    *feature.Index
	decoded  *int
}

func (s *stubSession) Registry() *Registry   { return s.reg }
func (s *stubSession) Index() *feature.Index { return s.index }

func (s *stubSession) DecodeObject(c cursor.Cursor, kind feature.ObjectKind) (feature.Object, error) {
	*s.decoded++
	id, _ := c.Attr(xml.Name{Space: xmlutil.NSGML32, Local: "id"})
	name := c.Name()
	var props []*feature.Property
	for {
		k, err := c.NextElement()
		if err != nil {
			return nil, err
		}
		if k == cursor.EndElement {
			break
		}
		if href, ok := c.Attr(xmlutil.XLinkHref); ok {
			ref := feature.NewReference(href, feature.ObjectFeature, s.systemID)
			s.reg.Register(ref)
			p, err := feature.NewProperty(linkDecl, c.Name(), ref, false, nil)
			if err != nil {
				return nil, err
			}
			props = append(props, p)
		}
		if err := c.SkipElement(); err != nil {
			return nil, err
		}
	}
	f, err := feature.NewFeature(id, name, nil, props, feature.StandardProps{})
	if err != nil {
		return nil, err
	}
	return f, s.index.Add(f)
}

func newStubResolver(loader Loader, decoded *int) *DocumentResolver {
	return NewDocumentResolver(loader, func(systemID string) Session {
		return &stubSession{systemID: systemID, reg: NewRegistry(), index: feature.NewIndex(), decoded: decoded}
	})
}

const (
	docB = `<?xml version="1.0"?>
<wfs:FeatureCollection xmlns:wfs="http://www.opengis.net/wfs/2.0" xmlns:gml="http://www.opengis.net/gml/3.2"
    xmlns:app="urn:app" xmlns:xlink="http://www.w3.org/1999/xlink">
  <wfs:member>
    <app:Town gml:id="T1"><app:twin xlink:href="c.gml#T2"/><app:self xlink:href="#T1"/></app:Town>
  </wfs:member>
  <wfs:member><app:Town gml:id="T3"/></wfs:member>
</wfs:FeatureCollection>`
	docC = `<app:Town xmlns:app="urn:app" xmlns:gml="http://www.opengis.net/gml/3.2" xmlns:xlink="http://www.w3.org/1999/xlink"
    gml:id="T2"><app:twin xlink:href="b.gml#T1"/><app:gone xlink:href="#T9"/></app:Town>`
)

func TestDocumentResolver(t *testing.T) {
	check := assert.New(t)
	decoded := 0
	res := newStubResolver(MapLoader{
		"file:///data/b.gml": docB,
		"file:///data/c.gml": docC,
	}, &decoded)

	reg := NewRegistry()
	toT1 := feature.NewReference("b.gml#T1", feature.ObjectFeature, "file:///data/a.gml")
	again := feature.NewReference("b.gml#T1", feature.ObjectFeature, "file:///data/a.gml")
	missing := feature.NewReference("b.gml#T7", feature.ObjectFeature, "file:///data/a.gml")
	noDoc := feature.NewReference("z.gml#T1", feature.ObjectFeature, "file:///data/a.gml")
	for _, ref := range []*feature.Reference{toT1, again, missing, noDoc} {
		reg.Register(ref)
	}

	rep := reg.ResolveAll(feature.NewIndex(), res)
	check.Equal(2, rep.Resolved)
	require.Len(t, rep.Dangling, 2)
	check.Same(missing, rep.Dangling[0].Reference)
	check.Same(noDoc, rep.Dangling[1].Reference)

	obj, err := toT1.Object()
	require.NoError(t, err)
	t1 := obj.(*feature.Feature)
	check.Equal("T1", t1.ID())
	check.Equal(xml.Name{Space: "urn:app", Local: "Town"}, t1.Name())
	obj, err = again.Object()
	require.NoError(t, err)
	check.Same(t1, obj, "decoded objects are memoized")

	// T1 -> c.gml#T2 -> b.gml#T1 is a cycle across documents
	props := t1.Properties()
	require.Len(t, props, 2)
	v, err := props[0].Resolved()
	require.NoError(t, err)
	t2 := v.(*feature.Feature)
	check.Equal("T2", t2.ID())
	v, err = t2.Properties()[0].Resolved()
	require.NoError(t, err)
	check.Same(t1, v)

	// T1's self reference resolves through its own session index
	v, err = props[1].Resolved()
	require.NoError(t, err)
	check.Same(t1, v)

	check.Equal(2, decoded)
	nested := res.Nested()
	require.Len(t, nested, 1)
	check.Equal("#T9", nested[0].Reference.Href())
}

func TestDocumentResolverMalformed(t *testing.T) {
	decoded := 0
	res := newStubResolver(MapLoader{"bad.gml": "<a><b></a>"}, &decoded)
	_, err := res.ResolveExternal(feature.NewReference("bad.gml#x", feature.ObjectFeature, ""))
	assert.True(t, gmlerr.HasTag(err, "dangling-reference"), "%v", err)
	assert.Equal(t, 0, decoded)
}
