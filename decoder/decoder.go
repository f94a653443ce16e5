// Package decoder implements the GML object decoder: a recursive-descent
// reader that turns a markup cursor into features and properties, driven
// by the property declarations of a schema catalog.
//
// Every Parse method is called with the cursor at the start element of
// the object to read and returns with the cursor at its matching end
// element. References given by xlink:href are registered with the
// decoder's registry and left pending; call Resolve once the document has
// been read to resolve them, including forward references.
//
// A Decoder holds the state of one decode session (its reference registry
// and object index) and must not be used concurrently. The catalog it
// reads from is never modified and may be shared.
package decoder

import (
	"io"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/geometry"
	"github.com/andaru/gml/reference"
	"github.com/andaru/gml/temporal"
	"github.com/pkg/errors"
)

// GeometryDecoder decodes geometry elements.
type GeometryDecoder interface {
	IsGeometryElement(c cursor.Cursor) bool
	Parse(c cursor.Cursor, crs *feature.CRS) (*feature.Geometry, error)
	ParseEnvelope(c cursor.Cursor, crs *feature.CRS) (*feature.Envelope, error)
}

// TimeDecoder decodes time geometric primitives.
type TimeDecoder interface {
	IsTimeElement(c cursor.Cursor) bool
	Read(c cursor.Cursor) (*feature.TimePrimitive, error)
}

// Decoder is a GML decode session.
type Decoder struct {
	catalog      catalog.Catalog
	version      catalog.Version
	crs          *feature.CRS
	geom         GeometryDecoder
	time         TimeDecoder
	registry     *reference.Registry
	index        *feature.Index
	schemaless   bool
	strictOccurs bool
	std          []*catalog.PropertyType
	standard     map[*catalog.PropertyType]bool
	boundedBy    *catalog.PropertyType
	decls        map[*catalog.FeatureType][]*catalog.PropertyType
}

var _ reference.Session = (*Decoder)(nil)

// New returns a decoder reading against cat. A nil cat implies
// WithSchemaless. When cat is a *catalog.Schema its version is the
// default GML version.
func New(cat catalog.Catalog, opts ...Option) *Decoder {
	d := &Decoder{
		catalog:      cat,
		geom:         geometry.NewDecoder(),
		time:         temporal.NewDecoder(),
		strictOccurs: true,
		schemaless:   cat == nil,
	}
	if s, ok := cat.(interface{ Version() catalog.Version }); ok {
		d.version = s.Version()
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = reference.NewRegistry()
	}
	if d.index == nil {
		d.index = feature.NewIndex()
	}
	d.std = catalog.StandardProperties(d.version)
	d.standard = make(map[*catalog.PropertyType]bool, len(d.std))
	for _, p := range d.std {
		d.standard[p] = true
	}
	d.boundedBy = catalog.BoundedBy(d.version)
	d.decls = map[*catalog.FeatureType][]*catalog.PropertyType{}
	return d
}

// Registry returns the registry holding the references met so far.
func (d *Decoder) Registry() *reference.Registry { return d.registry }

// Index returns the index of the identified objects decoded so far.
func (d *Decoder) Index() *feature.Index { return d.index }

// Version returns the GML version the decoder reads.
func (d *Decoder) Version() catalog.Version { return d.version }

// Resolve resolves the pending references of the session. external, if
// not nil, resolves references into other documents.
func (d *Decoder) Resolve(external reference.Resolver) *reference.Report {
	return d.registry.ResolveAll(d.index, external)
}

// ExternalResolver returns a resolver that decodes objects of external
// documents opened by loader, using decoders configured like d.
func (d *Decoder) ExternalResolver(loader reference.Loader) *reference.DocumentResolver {
	return reference.NewDocumentResolver(loader, func(string) reference.Session { return d.fork() })
}

// fork returns a decoder with d's configuration and a fresh session.
func (d *Decoder) fork() *Decoder {
	n := *d
	n.registry = reference.NewRegistry()
	n.index = feature.NewIndex()
	n.decls = map[*catalog.FeatureType][]*catalog.PropertyType{}
	return &n
}

// DecodeObject decodes the object at c for reference resolution.
func (d *Decoder) DecodeObject(c cursor.Cursor, kind feature.ObjectKind) (feature.Object, error) {
	switch kind {
	case feature.ObjectFeature:
		f, err := d.ParseFeature(c, d.crs)
		if err != nil {
			return nil, err
		}
		return f, nil
	case feature.ObjectTimeSlice:
		ts, err := d.ParseTimeSlice(c, nil, d.crs)
		if err != nil {
			return nil, err
		}
		return ts, nil
	}
	v, err := d.ParseObject(c, d.crs)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(feature.Object)
	if !ok {
		return nil, errors.Errorf("%T is not an identifiable object", v)
	}
	return obj, nil
}

// DecodeDocument reads the document from r. systemID is the URI of the
// document, against which relative references resolve.
func (d *Decoder) DecodeDocument(r io.Reader, systemID string) (*feature.Collection, error) {
	c, err := cursor.Open(r, cursor.WithSystemID(systemID))
	if err != nil {
		return nil, err
	}
	return d.Decode(c)
}
