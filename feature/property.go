package feature

import (
	"encoding/xml"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/pkg/errors"
)

// Property is a named, declared, possibly nilled value of a feature.
type Property struct {
	name   xml.Name
	decl   *catalog.PropertyType
	value  Value
	nilled bool
	attrs  []Attribute
}

// NewProperty returns a property named name with declaration decl.
//
// A nilled property has no value. When decl fixes the primitive type of a
// simple property, a non-nil value must be a PrimitiveValue of exactly
// that type.
func NewProperty(decl *catalog.PropertyType, name xml.Name, value Value, nilled bool, attrs []Attribute) (*Property, error) {
	if nilled && value != nil {
		return nil, errors.WithStack(gmlerr.InvalidValue(xmlutil.Clark(name),
			gmlerr.WithType(gmlerr.TypeInternal), gmlerr.WithMessage("nilled property carries a value")))
	}
	if decl != nil && decl.Kind == catalog.KindSimple && decl.Primitive != catalog.PrimitiveUntyped && value != nil {
		pv, ok := value.(PrimitiveValue)
		if !ok || !decl.Primitive.Matches(pv.Value) {
			return nil, errors.WithStack(gmlerr.InvalidValue(xmlutil.Clark(name),
				gmlerr.WithMessagef("value %v does not have declared type %s", describe(value), decl.Primitive)))
		}
	}
	return &Property{name: name, decl: decl, value: value, nilled: nilled, attrs: attrs}, nil
}

func describe(v Value) interface{} {
	if pv, ok := v.(PrimitiveValue); ok {
		return pv.Value
	}
	return v
}

func (p *Property) Name() xml.Name                     { return p.name }
func (p *Property) Declaration() *catalog.PropertyType { return p.decl }
func (p *Property) Nil() bool                          { return p.nilled }
func (p *Property) Attrs() []Attribute                 { return p.attrs }

// Value returns the value as decoded. Referencing properties given by
// href hold a *Reference. Nilled and empty properties return nil.
func (p *Property) Value() Value { return p.value }

// Resolved returns the value, reading through a reference to its target.
// It fails for references which are not resolved.
func (p *Property) Resolved() (Value, error) {
	if ref, ok := p.value.(*Reference); ok {
		obj, err := ref.Object()
		if err != nil {
			return nil, err
		}
		return obj, nil
	}
	return p.value, nil
}

// Attr returns the named attribute of the property element.
func (p *Property) Attr(name xml.Name) (Attribute, bool) {
	for _, a := range p.attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func (*Property) isValue() {}
