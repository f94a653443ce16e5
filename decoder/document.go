package decoder

import (
	"encoding/xml"

	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

func isCollectionNS(space string) bool {
	switch space {
	case xmlutil.NSGML32, xmlutil.NSGML, xmlutil.NSWFS, xmlutil.NSWFS20:
		return true
	}
	return false
}

// Decode reads a GML document from c, positioned at the start of the
// document or at its document element.
//
// A document element of a known feature type, or outside the GML and WFS
// namespaces when schemaless, is returned as a collection holding that
// feature. Any other document element is read as a feature
// collection: its gml:boundedBy and its featureMember, featureMembers,
// member and members children are decoded, other children are skipped.
func (d *Decoder) Decode(c cursor.Cursor) (*feature.Collection, error) {
	if c.Kind() == cursor.StartDocument {
		if _, err := c.NextElement(); err != nil {
			return nil, err
		}
	}
	if err := c.Require(cursor.StartElement, xml.Name{}); err != nil {
		return nil, err
	}
	name := c.Name()
	if _, ok := d.featureType(name); ok || (d.schemaless && !isCollectionNS(name.Space)) {
		f, err := d.ParseFeature(c, d.crs)
		if err != nil {
			return nil, err
		}
		return &feature.Collection{Members: []feature.Value{f}}, nil
	}

	id, err := d.validID(c)
	if err != nil {
		return nil, err
	}
	coll := &feature.Collection{ID: id, Name: name}
	crs := d.crs
	glog.V(1).Infof("collection %s id=%q", xmlutil.Clark(name), id)
	for {
		kind, err := c.NextElement()
		if err != nil {
			return nil, err
		}
		if kind == cursor.EndElement {
			break
		}
		n := c.Name()
		if !isCollectionNS(n.Space) {
			glog.V(1).Infof("collection %s: skipping %s", xmlutil.Clark(name), xmlutil.Clark(n))
			if err := c.SkipElement(); err != nil {
				return nil, err
			}
			continue
		}
		switch n.Local {
		case "boundedBy":
			decl := *d.boundedBy
			decl.Name = n
			p, err := d.ParseProperty(c, &decl, crs)
			if err != nil {
				return nil, err
			}
			if env, ok := p.Value().(*feature.Envelope); ok {
				coll.BoundedBy = env
				if env.CRS != nil {
					crs = env.CRS
				}
			}
		case "featureMember", "member":
			m, err := d.member(c, crs)
			if err != nil {
				return nil, err
			}
			if m != nil {
				coll.Members = append(coll.Members, m)
			}
		case "featureMembers", "members":
			for {
				kind, err := c.NextElement()
				if err != nil {
					return nil, err
				}
				if kind == cursor.EndElement {
					break
				}
				v, err := d.memberObject(c, crs)
				if err != nil {
					return nil, err
				}
				coll.Members = append(coll.Members, v)
			}
		default:
			glog.V(1).Infof("collection %s: skipping %s", xmlutil.Clark(name), xmlutil.Clark(n))
			if err := c.SkipElement(); err != nil {
				return nil, err
			}
		}
	}
	glog.V(1).Infof("collection %s: %d members", xmlutil.Clark(name), len(coll.Members))
	return coll, nil
}

// member reads a single member property. A member given by href is a
// pending feature reference.
func (d *Decoder) member(c cursor.Cursor, crs *feature.CRS) (feature.Value, error) {
	if href, ok := c.Attr(xmlutil.XLinkHref); ok {
		ref := feature.NewReference(href, feature.ObjectFeature, c.SystemID())
		d.registry.Register(ref)
		return ref, c.SkipElement()
	}
	empty, err := d.first(c)
	if err != nil || empty {
		return nil, err
	}
	v, err := d.memberObject(c, crs)
	if err != nil {
		return nil, err
	}
	return v, expectEnd(c)
}

// memberObject decodes a member element: a feature, or in a WFS 2.0
// response any other object.
func (d *Decoder) memberObject(c cursor.Cursor, crs *feature.CRS) (feature.Value, error) {
	if d.schemaless {
		f, err := d.ParseFeature(c, crs)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	if _, ok := d.featureType(c.Name()); !ok && !d.geom.IsGeometryElement(c) && !d.time.IsTimeElement(c) {
		return nil, errors.WithStack(gmlerr.UnknownFeatureType(xmlutil.Clark(c.Name()), at(c)))
	}
	return d.ParseObject(c, crs)
}
