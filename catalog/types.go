package catalog

import (
	"encoding/xml"
	"strings"

	"github.com/andaru/gml/xmlutil"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Unbounded is the MaxOccurs value of a property without an upper bound.
const Unbounded = -1

// AttributeDecl declares an attribute of a complex type.
type AttributeDecl struct {
	Name     xml.Name
	Type     PrimitiveType
	Required bool
}

// ContentType is the content model of a complex type.
type ContentType int

const (
	// ContentElement is element-only content.
	ContentElement ContentType = iota
	// ContentSimple is text-only content.
	ContentSimple
	// ContentMixed interleaves text and elements.
	ContentMixed
	// ContentEmpty has neither text nor elements.
	ContentEmpty
)

var contentNames = [...]string{
	ContentElement: "element",
	ContentSimple:  "simple",
	ContentMixed:   "mixed",
	ContentEmpty:   "empty",
}

func (c ContentType) String() string {
	if c >= 0 && int(c) < len(contentNames) {
		return contentNames[c]
	}
	return "unknown"
}

func (c *ContentType) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*c = ContentElement
		return nil
	}
	for i, name := range contentNames {
		if strings.EqualFold(name, s) {
			*c = ContentType(i)
			return nil
		}
	}
	return errors.Errorf("unknown content type %q", s)
}

// ComplexType is a named complex type used by generic element content.
type ComplexType struct {
	Name       xml.Name
	Content    ContentType
	Attributes []*AttributeDecl
	// Children are the element declarations allowed as children.
	Children []*ElementDecl
	// AnyChild allows any child element in addition to Children.
	AnyChild bool
	// Text is the type of the text of simple content.
	Text PrimitiveType
}

// Attribute returns the declaration of the named attribute.
func (t *ComplexType) Attribute(name xml.Name) (*AttributeDecl, bool) {
	if t == nil {
		return nil, false
	}
	for _, a := range t.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// ElementDecl declares an element.
//
// An element declaration with a nil Type has simple content typed by
// Primitive. An element declaration with a Property is decoded as that
// property.
type ElementDecl struct {
	Name      xml.Name
	Nillable  bool
	Type      *ComplexType
	Primitive PrimitiveType
	Property  *PropertyType
}

// IsWildcard reports whether d is the wildcard entry of an allowed
// children map.
func (d *ElementDecl) IsWildcard() bool { return d != nil && d.Name == xmlutil.Wildcard }

// PropertyType declares a property of a feature type.
type PropertyType struct {
	Name      xml.Name
	Kind      Kind
	MinOccurs int
	// MaxOccurs is the occurrence upper bound, or Unbounded.
	MaxOccurs int
	Nillable  bool
	// Abstract properties may only occur through one of their substitutions.
	Abstract bool

	// Primitive fixes the value type of simple properties.
	Primitive PrimitiveType
	// ValueType is the expected feature type of feature, array and time
	// slice properties. The zero value accepts any feature type.
	ValueType xml.Name
	// Geometries restricts geometry properties. Empty accepts any geometry.
	Geometries []GeometryType
	// Element is the element declaration of the property element, if any.
	// Without one all attributes are accepted.
	Element *ElementDecl

	substitutions []*PropertyType
}

// Declaration returns the element declaration used for attribute and
// nil checking of the property element.
func (p *PropertyType) Declaration() *ElementDecl {
	if p.Element != nil {
		return p.Element
	}
	return &ElementDecl{Name: p.Name, Nillable: p.Nillable, Primitive: p.Primitive}
}

// AcceptsGeometry reports whether geom satisfies the geometry constraint of p.
func (p *PropertyType) AcceptsGeometry(geom orb.Geometry) bool {
	if len(p.Geometries) == 0 {
		return geom != nil
	}
	for _, g := range p.Geometries {
		if g.Accepts(geom) {
			return true
		}
	}
	return false
}

// Unbounded reports whether p has no upper occurrence bound.
func (p *PropertyType) Unbounded() bool { return p.MaxOccurs == Unbounded }

// AddSubstitution adds s to the substitution group headed by p.
func (p *PropertyType) AddSubstitution(s *PropertyType) { p.substitutions = append(p.substitutions, s) }

func (p *PropertyType) String() string {
	return p.Kind.String() + " property " + xmlutil.Clark(p.Name)
}

// FeatureType is a feature type declaration. Properties holds the
// inherited properties of Parent first, then the properties declared by
// the type itself, in declaration order.
type FeatureType struct {
	Name       xml.Name
	Parent     *FeatureType
	Abstract   bool
	Properties []*PropertyType
}

// NewFeatureType returns a feature type extending parent (which may be
// nil) with the properties props.
func NewFeatureType(name xml.Name, parent *FeatureType, props ...*PropertyType) *FeatureType {
	ft := &FeatureType{Name: name, Parent: parent}
	if parent != nil {
		ft.Properties = append(ft.Properties, parent.Properties...)
	}
	ft.Properties = append(ft.Properties, props...)
	return ft
}

// Extends reports whether ft is base or derived from it.
func (ft *FeatureType) Extends(base *FeatureType) bool {
	for t := ft; t != nil; t = t.Parent {
		if t == base || t.Name == base.Name {
			return true
		}
	}
	return false
}
