// Package catalog provides the application schema consulted while
// decoding GML: feature types, their ordered property declarations,
// substitution groups and the complex types of generic element content.
//
// A Schema is immutable once built and may be shared by concurrent
// decoders. Schemas are assembled with a Builder or loaded from YAML.
package catalog

import (
	"encoding/xml"

	"github.com/andaru/gml/xmlutil"
	"github.com/pkg/errors"
)

// Catalog is the read-only schema query surface used by the decoder.
type Catalog interface {
	// FeatureType returns the feature type whose element is name.
	FeatureType(name xml.Name) (*FeatureType, bool)
	// IsSubtype reports whether actual is expected or derived from it.
	// A nil expected type accepts any feature type.
	IsSubtype(expected, actual *FeatureType) bool
	// PropertyDeclaration returns the declaration of the property element
	// name within ft, considering substitutions.
	PropertyDeclaration(ft *FeatureType, name xml.Name) (*PropertyType, bool)
	// Substitutions returns the declarations that may occur in place of
	// pt, pt itself first unless it is abstract.
	Substitutions(pt *PropertyType) []*PropertyType
	// AllowedChildElements returns the child element declarations of ct,
	// keyed by element name. The xmlutil.Wildcard key allows any element.
	AllowedChildElements(ct *ComplexType) map[xml.Name]*ElementDecl
}

// Schema is an immutable Catalog.
type Schema struct {
	version      Version
	namespaces   xmlutil.PrefixMap
	featureTypes map[xml.Name]*FeatureType
	complexTypes map[xml.Name]*ComplexType
	order        []*FeatureType
}

var _ Catalog = (*Schema)(nil)

// Version returns the GML version the schema's application schema uses.
func (s *Schema) Version() Version { return s.version }

// Namespaces returns the prefixes declared for the schema.
func (s *Schema) Namespaces() xmlutil.PrefixMap { return s.namespaces }

// FeatureTypes returns all feature types in declaration order.
func (s *Schema) FeatureTypes() []*FeatureType { return append([]*FeatureType(nil), s.order...) }

func (s *Schema) FeatureType(name xml.Name) (*FeatureType, bool) {
	ft, ok := s.featureTypes[name]
	return ft, ok
}

// ComplexType returns the named complex type.
func (s *Schema) ComplexType(name xml.Name) (*ComplexType, bool) {
	ct, ok := s.complexTypes[name]
	return ct, ok
}

func (s *Schema) IsSubtype(expected, actual *FeatureType) bool {
	if expected == nil {
		return true
	}
	if actual == nil {
		return false
	}
	return actual.Extends(expected)
}

func (s *Schema) PropertyDeclaration(ft *FeatureType, name xml.Name) (*PropertyType, bool) {
	if ft == nil {
		return nil, false
	}
	for _, p := range ft.Properties {
		for _, sub := range s.Substitutions(p) {
			if sub.Name == name {
				return sub, true
			}
		}
	}
	return nil, false
}

func (s *Schema) Substitutions(pt *PropertyType) []*PropertyType {
	var out []*PropertyType
	seen := map[*PropertyType]bool{}
	var walk func(p *PropertyType)
	walk = func(p *PropertyType) {
		if seen[p] {
			return
		}
		seen[p] = true
		if !p.Abstract {
			out = append(out, p)
		}
		for _, sub := range p.substitutions {
			walk(sub)
		}
	}
	walk(pt)
	return out
}

func (s *Schema) AllowedChildElements(ct *ComplexType) map[xml.Name]*ElementDecl {
	if ct == nil {
		return map[xml.Name]*ElementDecl{xmlutil.Wildcard: {Name: xmlutil.Wildcard}}
	}
	m := make(map[xml.Name]*ElementDecl, len(ct.Children)+1)
	for _, d := range ct.Children {
		m[d.Name] = d
	}
	if ct.AnyChild {
		m[xmlutil.Wildcard] = &ElementDecl{Name: xmlutil.Wildcard}
	}
	return m
}

// Builder assembles a Schema.
type Builder struct {
	s   *Schema
	err error
}

// NewBuilder returns a Builder for a schema of GML version v.
func NewBuilder(v Version) *Builder {
	return &Builder{s: &Schema{
		version:      v,
		namespaces:   xmlutil.PrefixMap{},
		featureTypes: map[xml.Name]*FeatureType{},
		complexTypes: map[xml.Name]*ComplexType{},
	}}
}

// Namespaces adds prefix bindings to the schema.
func (b *Builder) Namespaces(m xmlutil.PrefixMap) *Builder {
	b.s.namespaces = b.s.namespaces.Merge(m)
	return b
}

// ComplexType adds ct to the schema.
func (b *Builder) ComplexType(ct *ComplexType) *Builder {
	if _, ok := b.s.complexTypes[ct.Name]; ok {
		b.fail(errors.Errorf("complex type %s declared twice", xmlutil.Clark(ct.Name)))
		return b
	}
	b.s.complexTypes[ct.Name] = ct
	return b
}

// FeatureType adds ft to the schema.
func (b *Builder) FeatureType(ft *FeatureType) *Builder {
	if _, ok := b.s.featureTypes[ft.Name]; ok {
		b.fail(errors.Errorf("feature type %s declared twice", xmlutil.Clark(ft.Name)))
		return b
	}
	b.s.featureTypes[ft.Name] = ft
	b.s.order = append(b.s.order, ft)
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = errors.WithStack(err)
	}
}

// Build checks the schema and returns it. The builder may continue to be
// used; later changes do not affect the returned schema.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, ft := range b.s.order {
		for _, p := range ft.Properties {
			for _, sub := range b.s.Substitutions(p) {
				if err := b.checkProperty(ft, sub); err != nil {
					return nil, err
				}
			}
		}
	}

	s := &Schema{
		version:      b.s.version,
		namespaces:   b.s.namespaces.Merge(nil),
		featureTypes: make(map[xml.Name]*FeatureType, len(b.s.featureTypes)),
		complexTypes: make(map[xml.Name]*ComplexType, len(b.s.complexTypes)),
		order:        append([]*FeatureType(nil), b.s.order...),
	}
	for k, v := range b.s.featureTypes {
		s.featureTypes[k] = v
	}
	for k, v := range b.s.complexTypes {
		s.complexTypes[k] = v
	}
	return s, nil
}

func (b *Builder) checkProperty(ft *FeatureType, p *PropertyType) error {
	if p.MaxOccurs != Unbounded && p.MaxOccurs < p.MinOccurs {
		return errors.Errorf("%s of %s: maxOccurs %d is less than minOccurs %d",
			p, xmlutil.Clark(ft.Name), p.MaxOccurs, p.MinOccurs)
	}
	switch p.Kind {
	case KindFeature, KindArray, KindTimeSlice:
		if p.ValueType == (xml.Name{}) {
			return nil
		}
		if _, ok := b.s.featureTypes[p.ValueType]; !ok {
			return errors.Errorf("%s of %s: unknown value type %s",
				p, xmlutil.Clark(ft.Name), xmlutil.Clark(p.ValueType))
		}
	}
	return nil
}
