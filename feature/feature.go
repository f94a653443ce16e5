// Package feature holds the GML object model produced by decoding:
// features, their properties and property values, references between
// objects, and derived views such as bounding envelopes and GeoJSON.
package feature

import (
	"encoding/xml"
	"strings"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/gmlerr"
	"github.com/pkg/errors"
)

// ValidateID checks that id is a valid GML object identifier: non-empty,
// not starting with a digit, and without colons.
func ValidateID(id string) error {
	if id == "" || ('0' <= id[0] && id[0] <= '9') || strings.IndexByte(id, ':') >= 0 {
		return errors.WithStack(gmlerr.InvalidID(id))
	}
	return nil
}

// StandardProps are the standard GML object properties of a feature,
// kept apart from its ordinary properties.
type StandardProps struct {
	Description          *StringOrRef
	DescriptionReference string
	Identifier           *Code
	Names                []Code
}

// Feature is a decoded feature.
type Feature struct {
	id    string
	name  xml.Name
	ftype *catalog.FeatureType
	props []*Property
	std   StandardProps
}

// NewFeature returns a feature. id may be empty; otherwise it must be a
// valid identifier. name is the element name the feature was read from.
func NewFeature(id string, name xml.Name, ft *catalog.FeatureType, props []*Property, std StandardProps) (*Feature, error) {
	if id != "" {
		if err := ValidateID(id); err != nil {
			return nil, err
		}
	}
	return &Feature{id: id, name: name, ftype: ft, props: props, std: std}, nil
}

func (f *Feature) ID() string                   { return f.id }
func (f *Feature) Name() xml.Name               { return f.name }
func (f *Feature) Type() *catalog.FeatureType   { return f.ftype }
func (f *Feature) StandardProps() StandardProps { return f.std }
func (f *Feature) ObjectKind() ObjectKind       { return ObjectFeature }
func (f *Feature) String() string               { return "feature " + f.name.Local + "#" + f.id }

// Properties returns the properties of f in document order.
func (f *Feature) Properties() []*Property { return append([]*Property(nil), f.props...) }

// Property returns the properties of f named name, in document order.
func (f *Feature) Property(name xml.Name) []*Property {
	var out []*Property
	for _, p := range f.props {
		if p.name == name {
			out = append(out, p)
		}
	}
	return out
}

// Geometries returns the values of the geometry properties of f.
func (f *Feature) Geometries() []*Geometry {
	var out []*Geometry
	for _, p := range f.props {
		if g, ok := p.value.(*Geometry); ok {
			out = append(out, g)
		}
	}
	return out
}

func (*Feature) isValue() {}

// Collection is a decoded feature collection document. Members are
// inline *Feature values, or *Reference values for members given by href.
type Collection struct {
	ID        string
	Name      xml.Name
	BoundedBy *Envelope
	Members   []Value
}

// Features returns the inline and resolved member features.
func (c *Collection) Features() []*Feature {
	var out []*Feature
	for _, m := range c.Members {
		switch m := m.(type) {
		case *Feature:
			out = append(out, m)
		case *Reference:
			if obj, err := m.Object(); err == nil {
				if f, ok := obj.(*Feature); ok {
					out = append(out, f)
				}
			}
		}
	}
	return out
}

// Index maps object identifiers to the objects decoded in a session.
type Index struct {
	objects map[string]Object
	order   []Object
}

// NewIndex returns an empty index.
func NewIndex() *Index { return &Index{objects: map[string]Object{}} }

// Add indexes obj by its identifier. Objects without an identifier are
// ignored; a second object with the same identifier is an error.
func (ix *Index) Add(obj Object) error {
	id := obj.ID()
	if id == "" {
		return nil
	}
	if prev, ok := ix.objects[id]; ok {
		if prev == obj {
			return nil
		}
		return errors.WithStack(gmlerr.DuplicateID(id))
	}
	ix.objects[id] = obj
	ix.order = append(ix.order, obj)
	return nil
}

// Object returns the object with identifier id.
func (ix *Index) Object(id string) (Object, bool) {
	obj, ok := ix.objects[id]
	return obj, ok
}

// Objects returns the indexed objects in the order they were added.
func (ix *Index) Objects() []Object { return append([]Object(nil), ix.order...) }

func (ix *Index) Len() int { return len(ix.objects) }
