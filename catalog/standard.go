package catalog

import "encoding/xml"

// StandardProperties returns the standard object properties that may
// lead any GML object of version v, in the order they must appear.
func StandardProperties(v Version) []*PropertyType {
	ns := v.Namespace()
	name := func(local string) xml.Name { return xml.Name{Space: ns, Local: local} }

	switch v {
	case GML2:
		return []*PropertyType{
			{Name: name("description"), Kind: KindSimple, Primitive: PrimitiveString, MaxOccurs: 1},
			{Name: name("name"), Kind: KindSimple, Primitive: PrimitiveString, MaxOccurs: 1},
		}
	case GML31:
		return []*PropertyType{
			{Name: name("description"), Kind: KindStringOrRef, MaxOccurs: 1},
			{Name: name("name"), Kind: KindCode, MaxOccurs: Unbounded},
		}
	}
	return []*PropertyType{
		{Name: name("description"), Kind: KindStringOrRef, MaxOccurs: 1},
		{Name: name("descriptionReference"), Kind: KindStringOrRef, MaxOccurs: 1},
		{Name: name("identifier"), Kind: KindCode, MaxOccurs: 1},
		{Name: name("name"), Kind: KindCode, MaxOccurs: Unbounded},
	}
}

// BoundedBy returns the gml:boundedBy declaration of version v, which
// follows the standard object properties of a feature.
func BoundedBy(v Version) *PropertyType {
	return &PropertyType{
		Name:      xml.Name{Space: v.Namespace(), Local: "boundedBy"},
		Kind:      KindEnvelope,
		MaxOccurs: 1,
		Nillable:  true,
	}
}
