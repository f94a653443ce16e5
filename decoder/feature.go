package decoder

import (
	"encoding/xml"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// objectID returns the identifier of the element at c: gml:id in either
// GML namespace, or the GML 2 fid attribute.
func (d *Decoder) objectID(c cursor.Cursor) string {
	for _, ns := range []string{d.version.Namespace(), xmlutil.NSGML32, xmlutil.NSGML} {
		if id, ok := c.Attr(xml.Name{Space: ns, Local: "id"}); ok {
			return id
		}
	}
	if id, ok := c.Attr(xml.Name{Local: "fid"}); ok {
		return id
	}
	return ""
}

func (d *Decoder) validID(c cursor.Cursor) (string, error) {
	id := d.objectID(c)
	if id == "" {
		return "", nil
	}
	if err := feature.ValidateID(id); err != nil {
		return "", located(c, err)
	}
	return id, nil
}

func (d *Decoder) featureType(name xml.Name) (*catalog.FeatureType, bool) {
	if d.catalog == nil || d.schemaless {
		return nil, false
	}
	return d.catalog.FeatureType(name)
}

// valueType returns the feature type expected by decl, nil for any.
func (d *Decoder) valueType(decl *catalog.PropertyType) *catalog.FeatureType {
	if decl == nil || decl.ValueType == (xml.Name{}) {
		return nil
	}
	ft, _ := d.featureType(decl.ValueType)
	return ft
}

func (d *Decoder) isSubtype(expected, actual *catalog.FeatureType) bool {
	if expected == nil {
		return true
	}
	if actual == nil || d.catalog == nil {
		return false
	}
	return d.catalog.IsSubtype(expected, actual)
}

// ParseFeature decodes the feature element at c. crs is the CRS in effect
// for its geometries, overridden by the feature's own gml:boundedBy.
func (d *Decoder) ParseFeature(c cursor.Cursor, crs *feature.CRS) (*feature.Feature, error) {
	if err := c.Require(cursor.StartElement, xml.Name{}); err != nil {
		return nil, err
	}
	name := c.Name()
	id, err := d.validID(c)
	if err != nil {
		return nil, err
	}

	var (
		props []*feature.Property
		std   feature.StandardProps
		ft    *catalog.FeatureType
	)
	if d.schemaless {
		glog.V(1).Infof("feature %s id=%q (schemaless)", xmlutil.Clark(name), id)
		if props, err = d.parseGenericProperties(c, crs); err != nil {
			return nil, err
		}
	} else {
		var ok bool
		if ft, ok = d.featureType(name); !ok {
			return nil, errors.WithStack(gmlerr.UnknownFeatureType(xmlutil.Clark(name), at(c)))
		}
		if ft.Abstract {
			return nil, errors.WithStack(gmlerr.WrongFeatureType(xmlutil.Clark(name), at(c),
				gmlerr.WithMessage("feature type is abstract")))
		}
		glog.V(1).Infof("feature %s id=%q", xmlutil.Clark(name), id)
		if props, std, err = d.parseProperties(c, d.declarations(ft), crs, false); err != nil {
			return nil, err
		}
	}

	f, err := feature.NewFeature(id, name, ft, props, std)
	if err != nil {
		return nil, located(c, err)
	}
	if err := d.index.Add(f); err != nil {
		return nil, located(c, err)
	}
	return f, nil
}

// ParseTimeSlice decodes the time slice element at c. decl, if not nil,
// is the property declaring it and may constrain its type.
func (d *Decoder) ParseTimeSlice(c cursor.Cursor, decl *catalog.PropertyType, crs *feature.CRS) (*feature.TimeSlice, error) {
	if err := c.Require(cursor.StartElement, xml.Name{}); err != nil {
		return nil, err
	}
	name := c.Name()
	id, err := d.validID(c)
	if err != nil {
		return nil, err
	}

	var props []*feature.Property
	ft, ok := d.featureType(name)
	if expected := d.valueType(decl); expected != nil && (!ok || !d.isSubtype(expected, ft)) {
		return nil, errors.WithStack(gmlerr.WrongFeatureType(xmlutil.Clark(name), at(c),
			gmlerr.WithMessagef("expected a time slice of type %s", xmlutil.Clark(expected.Name))))
	}
	if ok {
		props, _, err = d.parseProperties(c, d.declarations(ft), crs, true)
	} else {
		glog.V(1).Infof("time slice %s has no declared type, reading generically", xmlutil.Clark(name))
		props, err = d.parseGenericProperties(c, crs)
	}
	if err != nil {
		return nil, err
	}

	ts, err := feature.NewTimeSlice(id, name, ft, props)
	if err != nil {
		return nil, located(c, err)
	}
	if err := d.index.Add(ts); err != nil {
		return nil, located(c, err)
	}
	return ts, nil
}

// declarations returns the property sequence of ft: the standard object
// properties, gml:boundedBy, then the properties of ft itself.
func (d *Decoder) declarations(ft *catalog.FeatureType) []*catalog.PropertyType {
	if decls, ok := d.decls[ft]; ok {
		return decls
	}
	decls := make([]*catalog.PropertyType, 0, len(d.std)+1+len(ft.Properties))
	decls = append(decls, d.std...)
	decls = append(decls, d.boundedBy)
	decls = append(decls, ft.Properties...)
	d.decls[ft] = decls
	return decls
}

func (d *Decoder) substitutions(decl *catalog.PropertyType) []*catalog.PropertyType {
	if d.catalog == nil {
		return []*catalog.PropertyType{decl}
	}
	return d.catalog.Substitutions(decl)
}

// match returns the first declaration from decls[from:] that name can
// occur as, with its index.
func (d *Decoder) match(decls []*catalog.PropertyType, from int, name xml.Name) (*catalog.PropertyType, int) {
	for i := from; i < len(decls); i++ {
		for _, sub := range d.substitutions(decls[i]) {
			if sub.Name == name {
				return sub, i
			}
		}
	}
	return nil, -1
}

func maxOccurs(decl *catalog.PropertyType) int {
	if decl.MaxOccurs == 0 {
		return 1
	}
	return decl.MaxOccurs
}

// parseProperties reads the property elements of the object at c against
// the ordered declaration sequence decls. Standard object properties are
// returned separately unless keepStandard is set.
func (d *Decoder) parseProperties(c cursor.Cursor, decls []*catalog.PropertyType, crs *feature.CRS, keepStandard bool) ([]*feature.Property, feature.StandardProps, error) {
	var (
		props []*feature.Property
		std   feature.StandardProps
		owner = c.Name()
		cur   = 0
		count = 0
	)
	tooFew := func(from, to int) error {
		if !d.strictOccurs {
			return nil
		}
		for i := from; i < to && i < len(decls); i++ {
			n := 0
			if i == from {
				n = count
			}
			if n < decls[i].MinOccurs {
				return errors.WithStack(gmlerr.TooFew(xmlutil.Clark(decls[i].Name), at(c),
					gmlerr.WithMessagef("%s requires at least %d, found %d", xmlutil.Clark(owner), decls[i].MinOccurs, n)))
			}
		}
		return nil
	}

	for {
		kind, err := c.NextElement()
		if err != nil {
			return nil, std, err
		}
		if kind == cursor.EndElement {
			break
		}
		name := c.Name()
		decl, i := d.match(decls, cur, name)
		if decl == nil {
			return nil, std, unexpected(c, "not a property of %s at this position", xmlutil.Clark(owner))
		}
		if i != cur {
			if err := tooFew(cur, i); err != nil {
				return nil, std, err
			}
			cur, count = i, 0
		}
		count++
		if d.strictOccurs && !decls[cur].Unbounded() && count > maxOccurs(decls[cur]) {
			return nil, std, errors.WithStack(gmlerr.TooMany(xmlutil.Clark(name), at(c),
				gmlerr.WithMessagef("%s allows at most %d", xmlutil.Clark(owner), maxOccurs(decls[cur]))))
		}

		p, err := d.ParseProperty(c, decl, crs)
		if err != nil {
			return nil, std, err
		}
		if decls[cur] == d.boundedBy {
			if env, ok := p.Value().(*feature.Envelope); ok && env.CRS != nil {
				crs = env.CRS
			}
		}
		if d.standard[decls[cur]] && !keepStandard {
			addStandard(&std, p)
			continue
		}
		props = append(props, p)
	}
	if err := tooFew(cur, len(decls)); err != nil {
		return nil, std, err
	}
	return props, std, nil
}

func addStandard(std *feature.StandardProps, p *feature.Property) {
	if p.Nil() {
		return
	}
	switch p.Name().Local {
	case "description":
		switch v := p.Value().(type) {
		case feature.StringOrRef:
			std.Description = &v
		case feature.PrimitiveValue:
			std.Description = &feature.StringOrRef{Text: v.Text}
		}
	case "descriptionReference":
		if v, ok := p.Value().(feature.StringOrRef); ok {
			std.DescriptionReference = v.Href
		}
	case "identifier":
		if v, ok := p.Value().(feature.Code); ok {
			std.Identifier = &v
		}
	case "name":
		switch v := p.Value().(type) {
		case feature.Code:
			std.Names = append(std.Names, v)
		case feature.PrimitiveValue:
			std.Names = append(std.Names, feature.Code{Value: v.Text})
		}
	}
}

// parseGenericProperties reads every child of the object at c as a
// generic property.
func (d *Decoder) parseGenericProperties(c cursor.Cursor, crs *feature.CRS) ([]*feature.Property, error) {
	var props []*feature.Property
	for {
		kind, err := c.NextElement()
		if err != nil {
			return nil, err
		}
		if kind == cursor.EndElement {
			return props, nil
		}
		decl := &catalog.PropertyType{
			Name:      c.Name(),
			Kind:      catalog.KindCustom,
			MaxOccurs: catalog.Unbounded,
			Nillable:  true,
		}
		p, err := d.ParseProperty(c, decl, crs)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
}
