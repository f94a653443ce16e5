package feature

import (
	"encoding/json"
	"encoding/xml"
	"testing"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/gmlerr"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func app(local string) xml.Name { return xml.Name{Space: "urn:app", Local: local} }

func mustProperty(t *testing.T, decl *catalog.PropertyType, value Value) *Property {
	p, err := NewProperty(decl, decl.Name, value, false, nil)
	require.NoError(t, err)
	return p
}

func mustFeature(t *testing.T, id string, props ...*Property) *Feature {
	f, err := NewFeature(id, app("Thing"), nil, props, StandardProps{})
	require.NoError(t, err)
	return f
}

var (
	geomDecl    = &catalog.PropertyType{Name: app("geom"), Kind: catalog.KindGeometry, MaxOccurs: 1}
	featureDecl = &catalog.PropertyType{Name: app("link"), Kind: catalog.KindFeature, MaxOccurs: catalog.Unbounded}
	arrayDecl   = &catalog.PropertyType{Name: app("members"), Kind: catalog.KindArray, MaxOccurs: 1}
)

func pointProperty(t *testing.T, x, y float64) *Property {
	return mustProperty(t, geomDecl, NewGeometry("", nil, orb.Point{x, y}))
}

func TestValidateID(t *testing.T) {
	for _, tc := range []struct {
		id    string
		valid bool
	}{
		{"F1", true},
		{"_1", true},
		{"road.12", true},
		{"ä9", true},
		{"", false},
		{"1F", false},
		{"a:b", false},
		{":", false},
		{"ab:", false},
	} {
		t.Run(tc.id, func(t *testing.T) {
			err := ValidateID(tc.id)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, gmlerr.HasTag(err, "invalid-id"), "%v", err)
		})
	}
}

func TestNewFeatureInvalidID(t *testing.T) {
	_, err := NewFeature("9lives", app("Cat"), nil, nil, StandardProps{})
	assert.True(t, gmlerr.HasTag(err, "invalid-id"))
	_, err = NewTimeSlice("a:b", app("Slice"), nil, nil)
	assert.True(t, gmlerr.HasTag(err, "invalid-id"))
}

func TestNewProperty(t *testing.T) {
	intDecl := &catalog.PropertyType{Name: app("lanes"), Kind: catalog.KindSimple, Primitive: catalog.PrimitiveInteger}
	untypedDecl := &catalog.PropertyType{Name: app("note"), Kind: catalog.KindSimple}

	for _, tc := range []struct {
		name    string
		decl    *catalog.PropertyType
		value   Value
		nilled  bool
		wantErr bool
	}{
		{name: "typed match", decl: intDecl, value: PrimitiveValue{Text: "2", Value: int64(2), Type: catalog.PrimitiveInteger}},
		{name: "typed mismatch", decl: intDecl, value: PrimitiveValue{Text: "2", Value: "2"}, wantErr: true},
		{name: "typed wrong shape", decl: intDecl, value: Code{Value: "2"}, wantErr: true},
		{name: "typed nil", decl: intDecl, nilled: true},
		{name: "untyped any", decl: untypedDecl, value: PrimitiveValue{Text: "x", Value: 1.5}},
		{name: "nilled with value", decl: untypedDecl, value: PrimitiveValue{Text: "x"}, nilled: true, wantErr: true},
		{name: "no declaration", value: Measure{Value: 1, UOM: "m"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			check := assert.New(t)
			p, err := NewProperty(tc.decl, app("p"), tc.value, tc.nilled, nil)
			if tc.wantErr {
				check.Error(err)
				return
			}
			require.NoError(t, err)
			check.Equal(tc.nilled, p.Nil())
			check.Equal(tc.value, p.Value())
			check.Same(tc.decl, p.Declaration())
		})
	}
}

func TestPropertyValueKinds(t *testing.T) {
	f := mustFeature(t, "F1")
	for _, v := range []Value{
		PrimitiveValue{Text: "x", Value: "x"},
		Code{Value: "A1"},
		Measure{Value: 1, UOM: "m"},
		StringOrRef{Text: "see"},
		FeatureArray{f},
		&Geometry{Geometry: orb.Point{1, 2}},
		&Envelope{Null: true},
		&TimePrimitive{Instant: true},
		&TimeSlice{},
		&GenericElement{Name: app("note")},
		mustProperty(t, &catalog.PropertyType{Name: app("p")}, nil),
		f,
		NewReference("#F1", ObjectFeature, ""),
	} {
		p, err := NewProperty(nil, app("p"), v, false, nil)
		require.NoError(t, err)
		assert.Equal(t, v, p.Value(), "%T", v)
	}
}

func TestReferenceStates(t *testing.T) {
	check := assert.New(t)
	target := mustFeature(t, "F1")

	ref := NewReference("#F1", ObjectFeature, "file:///data/a.gml")
	check.True(ref.IsLocal())
	check.Equal("F1", ref.Fragment())
	check.Equal(RefPending, ref.State())
	_, err := ref.Object()
	check.True(errors.Is(err, ErrUnresolved))

	p, err := NewProperty(featureDecl, featureDecl.Name, ref, false, nil)
	require.NoError(t, err)
	_, err = p.Resolved()
	check.True(errors.Is(err, ErrUnresolved))

	require.NoError(t, ref.Resolve(target))
	check.Equal(RefResolved, ref.State())
	obj, err := ref.Object()
	check.NoError(err)
	check.Same(target, obj)
	v, err := p.Resolved()
	check.NoError(err)
	check.Equal(target, v)
	check.Error(ref.Resolve(target), "a reference resolves once")

	dangling := NewReference("#F2", ObjectFeature, "")
	dangling.MarkDangling("no object with id F2")
	check.Equal(RefDangling, dangling.State())
	_, err = dangling.Object()
	check.True(errors.Is(err, ErrDangling))
	check.Contains(err.Error(), "no object with id F2")
}

func TestReferenceKindMismatch(t *testing.T) {
	ref := NewReference("#G1", ObjectFeature, "")
	err := ref.Resolve(NewGeometry("G1", nil, orb.Point{}))
	assert.True(t, gmlerr.HasTag(err, "dangling-reference"))
	assert.Equal(t, RefPending, ref.State())

	generic := NewReference("#G1", ObjectGeneric, "")
	assert.NoError(t, generic.Resolve(NewGeometry("G1", nil, orb.Point{})))
}

func TestReferenceDocument(t *testing.T) {
	for _, tc := range []struct {
		href, base, want string
	}{
		{href: "#F1", base: "file:///data/a.gml", want: "file:///data/a.gml"},
		{href: "b.gml#F1", base: "file:///data/a.gml", want: "file:///data/b.gml"},
		{href: "../c/b.gml#F1", base: "http://example.com/x/a.gml", want: "http://example.com/c/b.gml"},
		{href: "http://other.org/b.gml#F1", base: "file:///data/a.gml", want: "http://other.org/b.gml"},
		{href: "b.gml#F1", want: "b.gml"},
	} {
		t.Run(tc.href, func(t *testing.T) {
			ref := NewReference(tc.href, ObjectFeature, tc.base)
			got, err := ref.Document()
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, "F1", ref.Fragment())
		})
	}
}

func TestEnvelope(t *testing.T) {
	check := assert.New(t)

	none := mustFeature(t, "N")
	_, ok := none.Envelope()
	check.False(ok)

	inner := mustFeature(t, "I", pointProperty(t, 10, -5))
	arr := mustProperty(t, arrayDecl, FeatureArray{mustFeature(t, "A1", pointProperty(t, -2, 3))})
	outer := mustFeature(t, "O",
		pointProperty(t, 1, 1),
		mustProperty(t, featureDecl, inner),
		arr,
		mustProperty(t, geomDecl, NewGeometry("", nil, orb.LineString{})),
	)
	b, ok := outer.Envelope()
	check.True(ok)
	check.Equal(orb.Bound{Min: orb.Point{-2, -5}, Max: orb.Point{10, 3}}, b)
}

func TestEnvelopeCycle(t *testing.T) {
	check := assert.New(t)
	toB := NewReference("#B", ObjectFeature, "")
	toA := NewReference("#A", ObjectFeature, "")
	a := mustFeature(t, "A", pointProperty(t, 0, 0), mustProperty(t, featureDecl, toB))
	b := mustFeature(t, "B", pointProperty(t, 5, 5), mustProperty(t, featureDecl, toA))
	require.NoError(t, toB.Resolve(b))
	require.NoError(t, toA.Resolve(a))

	want := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{5, 5}}
	for _, f := range []*Feature{a, b} {
		got, ok := f.Envelope()
		check.True(ok)
		check.Equal(want, got)
	}

	self := NewReference("#S", ObjectFeature, "")
	s := mustFeature(t, "S", mustProperty(t, featureDecl, self))
	require.NoError(t, self.Resolve(s))
	_, ok := s.Envelope()
	check.False(ok)
}

func TestEnvelopeUnresolvedReference(t *testing.T) {
	f := mustFeature(t, "A", mustProperty(t, featureDecl, NewReference("#B", ObjectFeature, "")))
	_, ok := f.Envelope()
	assert.False(t, ok)
}

func TestEnvelopeCache(t *testing.T) {
	check := assert.New(t)
	cache, err := NewEnvelopeCache(2)
	require.NoError(t, err)

	ref := NewReference("#P", ObjectFeature, "")
	f := mustFeature(t, "F", mustProperty(t, featureDecl, ref))
	_, ok := cache.Envelope(f)
	check.False(ok)

	require.NoError(t, ref.Resolve(mustFeature(t, "P", pointProperty(t, 1, 2))))
	_, ok = cache.Envelope(f)
	check.False(ok, "cached until purged")

	cache.Purge()
	check.Equal(0, cache.Len())
	b, ok := cache.Envelope(f)
	check.True(ok)
	check.Equal(orb.Point{1, 2}, b.Min)

	_, err = NewEnvelopeCache(0)
	check.Error(err)
}

func TestIndex(t *testing.T) {
	check := assert.New(t)
	ix := NewIndex()
	f := mustFeature(t, "F1")
	check.NoError(ix.Add(f))
	check.NoError(ix.Add(f))
	check.NoError(ix.Add(mustFeature(t, "")))
	err := ix.Add(NewGeometry("F1", nil, orb.Point{}))
	check.True(gmlerr.HasTag(err, "duplicate-id"))

	obj, ok := ix.Object("F1")
	check.True(ok)
	check.Same(f, obj)
	check.Equal(1, ix.Len())
	check.Len(ix.Objects(), 1)
}

func TestFeatureAccessors(t *testing.T) {
	check := assert.New(t)
	name := &catalog.PropertyType{Name: app("name"), Kind: catalog.KindSimple}
	p1 := mustProperty(t, name, PrimitiveValue{Text: "a", Value: "a"})
	p2 := mustProperty(t, name, PrimitiveValue{Text: "b", Value: "b"})
	g := pointProperty(t, 1, 1)
	f := mustFeature(t, "F", p1, g, p2)

	check.Equal([]*Property{p1, p2}, f.Property(app("name")))
	check.Equal([]*Property{p1, g, p2}, f.Properties())
	check.Len(f.Geometries(), 1)

	// the property list is not shared with callers
	props := f.Properties()
	props[0] = nil
	check.Same(p1, f.Properties()[0])
}

func TestCollectionFeatures(t *testing.T) {
	f := mustFeature(t, "F")
	resolved := NewReference("#G", ObjectFeature, "")
	g := mustFeature(t, "G")
	require.NoError(t, resolved.Resolve(g))
	c := &Collection{Members: []Value{f, resolved, NewReference("#H", ObjectFeature, "")}}
	assert.Equal(t, []*Feature{f, g}, c.Features())
}

func TestToGeoJSON(t *testing.T) {
	check := assert.New(t)
	name := &catalog.PropertyType{Name: app("name"), Kind: catalog.KindSimple}
	width := &catalog.PropertyType{Name: app("width"), Kind: catalog.KindMeasure}
	f, err := NewFeature("R1", app("Road"), nil, []*Property{
		mustProperty(t, name, PrimitiveValue{Text: "A1", Value: "A1"}),
		mustProperty(t, name, PrimitiveValue{Text: "M1", Value: "M1"}),
		pointProperty(t, 3, 4),
		mustProperty(t, width, Measure{Value: 12.5, UOM: "m"}),
		mustProperty(t, featureDecl, NewReference("#T1", ObjectFeature, "")),
	}, StandardProps{Names: []Code{{Value: "Main road"}}})
	require.NoError(t, err)

	gf := ToGeoJSON(f)
	check.Equal("R1", gf.ID)
	check.Equal(orb.Point{3, 4}, gf.Geometry)
	check.Equal([]interface{}{"A1", "M1"}, gf.Properties["name"])
	check.Equal(12.5, gf.Properties["width"])
	check.Equal("#T1", gf.Properties["link"])
	check.Equal("Main road", gf.Properties["gml:name"])

	data, err := json.Marshal(ToFeatureCollection([]*Feature{f}))
	require.NoError(t, err)
	check.Contains(string(data), `"type":"FeatureCollection"`)
}

func TestParseCRS(t *testing.T) {
	for _, tc := range []struct {
		name string
		code int
	}{
		{"EPSG:4326", 4326},
		{"urn:ogc:def:crs:EPSG::25832", 25832},
		{"urn:ogc:def:crs:EPSG:6.6:4258", 4258},
		{"http://www.opengis.net/def/crs/EPSG/0/3857", 3857},
		{"http://www.opengis.net/gml/srs/epsg.xml#4326", 4326},
		{"urn:ogc:def:crs:OGC:1.3:CRS84", 0},
	} {
		crs := ParseCRS(tc.name)
		require.NotNil(t, crs)
		assert.Equal(t, tc.code, crs.Code, tc.name)
		assert.Equal(t, tc.name, crs.String())
	}
	assert.Nil(t, ParseCRS(" "))
	assert.True(t, ParseCRS("EPSG:4326").Equal(ParseCRS("urn:ogc:def:crs:EPSG::4326")))
	assert.False(t, ParseCRS("EPSG:4326").Equal(nil))
}
