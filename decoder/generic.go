package decoder

import (
	"encoding/xml"
	"strings"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var attrNilReason = xmlutil.XMLName("nilReason")

// tolerated reports whether the attribute name is accepted on any
// element regardless of its declaration.
func tolerated(name xml.Name) bool {
	return name.Space == xmlutil.NSXLink || name == attrNilReason
}

func isTrue(s string) bool {
	switch strings.TrimSpace(s) {
	case "true", "1":
		return true
	}
	return false
}

// parseAttributes reads the attributes of the element at c against decl.
// XML Schema instance attributes are consumed and not returned; xsi:nil
// is reported as nilled and is only allowed on nillable elements. When
// decl has a complex type its attribute declarations type the values,
// and undeclared or missing required attributes are errors.
func (d *Decoder) parseAttributes(c cursor.Cursor, decl *catalog.ElementDecl) ([]feature.Attribute, bool, error) {
	var (
		ct     *catalog.ComplexType
		attrs  []feature.Attribute
		nilled bool
		elem   = xmlutil.Clark(c.Name())
	)
	if decl != nil {
		ct = decl.Type
	}
	for i := 0; i < c.AttrCount(); i++ {
		name, value := c.AttrName(i), c.AttrValue(i)
		if name == xmlutil.XSINil {
			if !isTrue(value) {
				continue
			}
			if decl != nil && !decl.Nillable {
				return nil, false, errors.WithStack(gmlerr.NotNillable(elem, at(c)))
			}
			nilled = true
			continue
		}
		if name.Space == xmlutil.NSXSI {
			continue
		}

		typ := catalog.PrimitiveUntyped
		if ct != nil {
			ad, ok := ct.Attribute(name)
			switch {
			case ok:
				typ = ad.Type
			case !tolerated(name):
				return nil, false, errors.WithStack(gmlerr.BadAttribute(xmlutil.Clark(name), elem, at(c),
					gmlerr.WithMessagef("attribute is not declared by %s", xmlutil.Clark(ct.Name))))
			}
		}
		pv, err := feature.NewPrimitive(value, typ)
		if err != nil {
			return nil, false, errors.WithStack(gmlerr.BadAttribute(xmlutil.Clark(name), elem, at(c),
				gmlerr.WithMessagef("%v", err)))
		}
		attrs = append(attrs, feature.Attribute{Name: name, Value: pv})
	}

	if ct != nil {
		for _, ad := range ct.Attributes {
			if !ad.Required {
				continue
			}
			if _, ok := c.Attr(ad.Name); !ok {
				return nil, false, errors.WithStack(gmlerr.MissingAttribute(xmlutil.Clark(ad.Name), elem, at(c)))
			}
		}
	}
	return attrs, nilled, nil
}

// ParseGenericElement decodes the element at c generically, guided by
// decl. A nil decl, or one with a wildcard name, reads any content.
func (d *Decoder) ParseGenericElement(c cursor.Cursor, decl *catalog.ElementDecl, crs *feature.CRS) (*feature.GenericElement, error) {
	if err := c.Require(cursor.StartElement, xml.Name{}); err != nil {
		return nil, err
	}
	if decl.IsWildcard() {
		decl = nil
	}
	attrs, nilled, err := d.parseAttributes(c, decl)
	if err != nil {
		return nil, err
	}
	var g *feature.GenericElement
	if nilled {
		g = &feature.GenericElement{Name: c.Name(), Decl: decl, Attrs: attrs, Nil: true}
		if err := c.SkipElement(); err != nil {
			return nil, err
		}
	} else if g, err = d.genericContent(c, decl, attrs, crs); err != nil {
		return nil, err
	}
	return g, located(c, d.index.Add(g))
}

// genericContent reads the content of the element at c, whose attributes
// have been read, leaving c at its end element.
func (d *Decoder) genericContent(c cursor.Cursor, decl *catalog.ElementDecl, attrs []feature.Attribute, crs *feature.CRS) (*feature.GenericElement, error) {
	g := &feature.GenericElement{Name: c.Name(), Decl: decl, Attrs: attrs}
	if decl != nil && decl.Type == nil {
		text, err := c.ElementText()
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		pv, err := feature.NewPrimitive(text, decl.Primitive)
		if err != nil {
			return nil, invalid(c, "%v", err)
		}
		if text != "" || decl.Primitive != catalog.PrimitiveUntyped {
			g.Children = append(g.Children, pv)
		}
		return g, nil
	}

	var ct *catalog.ComplexType
	content := catalog.ContentMixed
	if decl != nil {
		ct = decl.Type
		content = ct.Content
	}
	allowed := d.allowedChildren(ct)
	glog.V(2).Infof("generic element %s (%s content)", xmlutil.Clark(g.Name), content)

	var text strings.Builder
	for {
		kind, err := c.Next()
		if err != nil {
			return nil, err
		}
		switch kind {
		case cursor.Text:
			switch content {
			case catalog.ContentSimple:
				text.WriteString(c.Text())
			case catalog.ContentMixed:
				if strings.TrimSpace(c.Text()) != "" {
					g.Children = append(g.Children, feature.PrimitiveValue{Text: c.Text(), Value: c.Text()})
				}
			default:
				if strings.TrimSpace(c.Text()) != "" {
					return nil, invalid(c, "text is not allowed in %s content", content)
				}
			}
		case cursor.StartElement:
			if content == catalog.ContentSimple || content == catalog.ContentEmpty {
				return nil, unexpected(c, "child elements are not allowed in %s content", content)
			}
			child, err := d.genericChild(c, allowed, crs)
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, child)
		case cursor.EndElement:
			if content == catalog.ContentSimple {
				pv, err := feature.NewPrimitive(text.String(), ct.Text)
				if err != nil {
					return nil, invalid(c, "%v", err)
				}
				g.Children = append(g.Children, pv)
			}
			return g, nil
		default:
			return nil, errors.WithStack(gmlerr.UnexpectedEOF(at(c)))
		}
	}
}

func (d *Decoder) allowedChildren(ct *catalog.ComplexType) map[xml.Name]*catalog.ElementDecl {
	if d.catalog == nil {
		return map[xml.Name]*catalog.ElementDecl{xmlutil.Wildcard: {Name: xmlutil.Wildcard}}
	}
	return d.catalog.AllowedChildElements(ct)
}

// genericChild decodes the child element at c of generic content whose
// allowed children are allowed. Declared children follow their
// declaration; wildcard children are recognised as objects where
// possible.
func (d *Decoder) genericChild(c cursor.Cursor, allowed map[xml.Name]*catalog.ElementDecl, crs *feature.CRS) (feature.Value, error) {
	cd, ok := allowed[c.Name()]
	if !ok {
		if _, wild := allowed[xmlutil.Wildcard]; !wild {
			return nil, unexpected(c, "element is not allowed here")
		}
		return d.ParseObject(c, crs)
	}
	if cd.Property != nil {
		return d.ParseProperty(c, cd.Property, crs)
	}
	return d.ParseGenericElement(c, cd, crs)
}

// ParseObject decodes the element at c as the object it names: a
// geometry, a time object, a feature of a known type, or otherwise a
// generic element.
func (d *Decoder) ParseObject(c cursor.Cursor, crs *feature.CRS) (feature.Value, error) {
	if err := c.Require(cursor.StartElement, xml.Name{}); err != nil {
		return nil, err
	}
	if d.geom.IsGeometryElement(c) {
		g, err := d.geom.Parse(c, crs)
		if err != nil {
			return nil, err
		}
		return g, located(c, d.index.Add(g))
	}
	if d.time.IsTimeElement(c) {
		t, err := d.time.Read(c)
		if err != nil {
			return nil, located(c, err)
		}
		return t, located(c, d.index.Add(t))
	}
	if _, ok := d.featureType(c.Name()); ok {
		f, err := d.ParseFeature(c, crs)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return d.ParseGenericElement(c, nil, crs)
}
