package decoder

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var (
	attrCodeSpace = xmlutil.XMLName("codeSpace")
	attrUOM       = xmlutil.XMLName("uom")
)

// ParseProperty decodes the property element at c as an instance of decl.
//
// A property of a referencing kind carrying xlink:href yields a pending
// *feature.Reference registered with the decoder, and its content is
// skipped. An xsi:nil property has no value. Otherwise the value is read
// according to the kind of decl.
func (d *Decoder) ParseProperty(c cursor.Cursor, decl *catalog.PropertyType, crs *feature.CRS) (*feature.Property, error) {
	if err := c.Require(cursor.StartElement, xml.Name{}); err != nil {
		return nil, err
	}
	name := c.Name()
	attrs, nilled, err := d.parseAttributes(c, decl.Declaration())
	if err != nil {
		return nil, err
	}

	if decl.Kind.Referencing() {
		if href, ok := c.Attr(xmlutil.XLinkHref); ok {
			ref := feature.NewReference(href, feature.ObjectKindOf(decl.Kind), c.SystemID())
			d.registry.Register(ref)
			glog.V(2).Infof("property %s: %s", xmlutil.Clark(name), ref)
			if err := c.SkipElement(); err != nil {
				return nil, err
			}
			return newProperty(c, decl, name, ref, false, attrs)
		}
	}

	if nilled {
		if err := c.SkipElement(); err != nil {
			return nil, err
		}
		return newProperty(c, decl, name, nil, true, attrs)
	}

	value, err := d.propertyValue(c, decl, attrs, crs)
	if err != nil {
		return nil, err
	}
	return newProperty(c, decl, name, value, false, attrs)
}

func newProperty(c cursor.Cursor, decl *catalog.PropertyType, name xml.Name, value feature.Value, nilled bool, attrs []feature.Attribute) (*feature.Property, error) {
	p, err := feature.NewProperty(decl, name, value, nilled, attrs)
	if err != nil {
		return nil, located(c, err)
	}
	return p, nil
}

// propertyValue reads the content of the property element at c, leaving
// c at its end element. A nil value with no error is an empty property.
func (d *Decoder) propertyValue(c cursor.Cursor, decl *catalog.PropertyType, attrs []feature.Attribute, crs *feature.CRS) (feature.Value, error) {
	switch decl.Kind {
	case catalog.KindSimple:
		text, err := c.ElementText()
		if err != nil {
			return nil, err
		}
		pv, err := feature.NewPrimitive(strings.TrimSpace(text), decl.Primitive)
		if err != nil {
			return nil, invalid(c, "%v", err)
		}
		return pv, nil

	case catalog.KindFeature:
		empty, err := d.first(c)
		if err != nil || empty {
			return nil, err
		}
		f, err := d.featureValue(c, decl, crs)
		if err != nil {
			return nil, err
		}
		return f, expectEnd(c)

	case catalog.KindGeometry:
		empty, err := d.first(c)
		if err != nil {
			return nil, err
		}
		if empty {
			return nil, invalid(c, "geometry property has no geometry")
		}
		if !d.geom.IsGeometryElement(c) {
			return nil, unexpected(c, "not a geometry")
		}
		g, err := d.geom.Parse(c, crs)
		if err != nil {
			return nil, err
		}
		if !decl.AcceptsGeometry(g.Geometry) {
			return nil, errors.WithStack(gmlerr.WrongGeometryType(xmlutil.Clark(c.Name()), at(c),
				gmlerr.WithMessagef("%s does not accept a %s", decl, g.Geometry.GeoJSONType())))
		}
		if err := d.index.Add(g); err != nil {
			return nil, located(c, err)
		}
		return g, expectEnd(c)

	case catalog.KindTimeObject:
		empty, err := d.first(c)
		if err != nil {
			return nil, err
		}
		if empty {
			return nil, invalid(c, "time property has no time object")
		}
		t, err := d.time.Read(c)
		if err != nil {
			return nil, located(c, err)
		}
		if err := d.index.Add(t); err != nil {
			return nil, located(c, err)
		}
		return t, expectEnd(c)

	case catalog.KindTimeSlice:
		empty, err := d.first(c)
		if err != nil || empty {
			return nil, err
		}
		ts, err := d.ParseTimeSlice(c, decl, crs)
		if err != nil {
			return nil, err
		}
		return ts, expectEnd(c)

	case catalog.KindCustom:
		g, err := d.genericContent(c, decl.Element, attrs, crs)
		if err != nil {
			return nil, err
		}
		return g, nil

	case catalog.KindEnvelope:
		empty, err := d.first(c)
		if err != nil {
			return nil, err
		}
		if empty {
			return nil, invalid(c, "envelope property has no envelope")
		}
		var env *feature.Envelope
		if n := c.Name(); isGML(n) && (n.Local == "Null" || n.Local == "null") {
			reason, err := c.ElementText()
			if err != nil {
				return nil, err
			}
			env = &feature.Envelope{Null: true, NullReason: strings.TrimSpace(reason)}
		} else if env, err = d.geom.ParseEnvelope(c, crs); err != nil {
			return nil, err
		}
		return env, expectEnd(c)

	case catalog.KindCode:
		space, _ := c.Attr(attrCodeSpace)
		text, err := c.ElementText()
		if err != nil {
			return nil, err
		}
		return feature.Code{Value: strings.TrimSpace(text), CodeSpace: space}, nil

	case catalog.KindMeasure:
		uom, _ := c.Attr(attrUOM)
		text, err := c.ElementText()
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, invalid(c, "measure %q is not a number", text)
		}
		return feature.Measure{Value: v, UOM: uom}, nil

	case catalog.KindStringOrRef:
		href, _ := c.Attr(xmlutil.XLinkHref)
		text, err := c.ElementText()
		if err != nil {
			return nil, err
		}
		return feature.StringOrRef{Text: strings.TrimSpace(text), Href: href}, nil

	case catalog.KindArray:
		var arr feature.FeatureArray
		for {
			kind, err := c.NextElement()
			if err != nil {
				return nil, err
			}
			if kind == cursor.EndElement {
				break
			}
			f, err := d.featureValue(c, decl, crs)
			if err != nil {
				return nil, err
			}
			arr = append(arr, f)
		}
		if len(arr) == 0 {
			return nil, nil
		}
		return arr, nil
	}
	panic(errors.WithStack(gmlerr.UnhandledKind(decl.Kind, at(c))))
}

// first advances c to the first child element of the property element,
// reporting whether the property is empty instead.
func (d *Decoder) first(c cursor.Cursor) (bool, error) {
	kind, err := c.NextElement()
	if err != nil {
		return false, err
	}
	return kind == cursor.EndElement, nil
}

// featureValue decodes the feature element at c, checking it against the
// value type of decl.
func (d *Decoder) featureValue(c cursor.Cursor, decl *catalog.PropertyType, crs *feature.CRS) (*feature.Feature, error) {
	if expected := d.valueType(decl); expected != nil {
		ft, ok := d.featureType(c.Name())
		if ok && !d.isSubtype(expected, ft) {
			return nil, errors.WithStack(gmlerr.WrongFeatureType(xmlutil.Clark(c.Name()), at(c),
				gmlerr.WithMessagef("%s requires a %s", decl, xmlutil.Clark(expected.Name))))
		}
	}
	return d.ParseFeature(c, crs)
}

func isGML(name xml.Name) bool {
	return name.Space == xmlutil.NSGML32 || name.Space == xmlutil.NSGML
}
