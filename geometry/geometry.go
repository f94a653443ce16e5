// Package geometry decodes GML geometry elements into orb geometries.
//
// Both GML namespaces are accepted. Supported elements are Point,
// LineString, LinearRing, Curve (with LineStringSegment segments),
// Polygon, MultiPoint, MultiLineString, MultiCurve, MultiPolygon,
// MultiSurface, MultiGeometry, Envelope and Box. Coordinates may be given
// as pos, posList, coordinates or coord elements.
package geometry

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

var geometryElements = map[string]bool{
	"Point":           true,
	"LineString":      true,
	"LinearRing":      true,
	"Curve":           true,
	"Polygon":         true,
	"MultiPoint":      true,
	"MultiLineString": true,
	"MultiCurve":      true,
	"MultiPolygon":    true,
	"MultiSurface":    true,
	"MultiGeometry":   true,
	"Envelope":        true,
	"Box":             true,
}

// Decoder is the default geometry decoder.
type Decoder struct{}

// NewDecoder returns a geometry decoder.
func NewDecoder() *Decoder { return &Decoder{} }

func isGML(name xml.Name) bool {
	return name.Space == xmlutil.NSGML32 || name.Space == xmlutil.NSGML
}

// IsGeometryElement reports whether c is at the start of a geometry
// element this decoder understands.
func (d *Decoder) IsGeometryElement(c cursor.Cursor) bool {
	return c.Kind() == cursor.StartElement && isGML(c.Name()) && geometryElements[c.Name().Local]
}

// srs is the spatial reference context of a geometry element.
type srs struct {
	crs *feature.CRS
	dim int
}

func (s srs) with(c cursor.Cursor) srs {
	if name, ok := c.Attr(xml.Name{Local: "srsName"}); ok && strings.TrimSpace(name) != "" {
		s.crs = feature.ParseCRS(name)
	}
	if dim, ok := dimension(c); ok {
		s.dim = dim
	}
	return s
}

func dimension(c cursor.Cursor) (int, bool) {
	v, ok := c.Attr(xml.Name{Local: "srsDimension"})
	if !ok {
		v, ok = c.Attr(xml.Name{Local: "dimension"})
	}
	if !ok {
		return 0, false
	}
	dim, err := strconv.Atoi(strings.TrimSpace(v))
	return dim, err == nil && dim >= 2
}

func gmlID(c cursor.Cursor) string {
	for _, ns := range []string{xmlutil.NSGML32, xmlutil.NSGML} {
		if id, ok := c.Attr(xml.Name{Space: ns, Local: "id"}); ok {
			return id
		}
	}
	return ""
}

// Parse decodes the geometry element at c. crs applies unless the element
// names its own srsName. The cursor is left at the end of the element.
func (d *Decoder) Parse(c cursor.Cursor, crs *feature.CRS) (*feature.Geometry, error) {
	if !d.IsGeometryElement(c) {
		return nil, unexpected(c, "not a geometry element")
	}
	id := gmlID(c)
	if id != "" {
		if err := feature.ValidateID(id); err != nil {
			return nil, err
		}
	}
	s := srs{crs: crs, dim: 2}.with(c)
	g, err := d.geometry(c, s)
	if err != nil {
		return nil, err
	}
	return feature.NewGeometry(id, s.crs, g), nil
}

// ParseEnvelope decodes the Envelope or Box element at c.
func (d *Decoder) ParseEnvelope(c cursor.Cursor, crs *feature.CRS) (*feature.Envelope, error) {
	if c.Kind() != cursor.StartElement || !isGML(c.Name()) ||
		(c.Name().Local != "Envelope" && c.Name().Local != "Box") {
		return nil, unexpected(c, "not an envelope element")
	}
	s := srs{crs: crs, dim: 2}.with(c)
	b, err := d.bound(c, s)
	if err != nil {
		return nil, err
	}
	return &feature.Envelope{CRS: s.crs, Bound: b}, nil
}

// element decodes a nested geometry element.
func (d *Decoder) element(c cursor.Cursor, s srs) (orb.Geometry, error) {
	if !d.IsGeometryElement(c) {
		return nil, unexpected(c, "not a geometry element")
	}
	return d.geometry(c, s.with(c))
}

func (d *Decoder) geometry(c cursor.Cursor, s srs) (orb.Geometry, error) {
	switch local := c.Name().Local; local {
	case "Point":
		pts, err := d.points(c, s)
		if err != nil {
			return nil, err
		}
		if len(pts) != 1 {
			return nil, invalid(c, "point has %d positions", len(pts))
		}
		return pts[0], nil

	case "LineString":
		pts, err := d.points(c, s)
		if err != nil {
			return nil, err
		}
		if len(pts) < 2 {
			return nil, invalid(c, "line string has %d positions", len(pts))
		}
		return orb.LineString(pts), nil

	case "LinearRing":
		pts, err := d.points(c, s)
		if err != nil {
			return nil, err
		}
		if len(pts) < 4 || pts[0] != pts[len(pts)-1] {
			return nil, invalid(c, "linear ring must be closed and have at least 4 positions")
		}
		return orb.Ring(pts), nil

	case "Curve":
		return d.curve(c, s)

	case "Polygon":
		return d.polygon(c, s)

	case "MultiPoint", "MultiLineString", "MultiCurve", "MultiPolygon", "MultiSurface", "MultiGeometry":
		members, err := d.members(c, s)
		if err != nil {
			return nil, err
		}
		return aggregate(c, local, members)

	case "Envelope", "Box":
		return d.bound(c, s)
	}
	return nil, unexpected(c, "unsupported geometry")
}

func (d *Decoder) curve(c cursor.Cursor, s srs) (orb.Geometry, error) {
	var line orb.LineString
	err := d.children(c, func() error {
		if c.Name().Local != "segments" {
			return unexpected(c, "")
		}
		return d.children(c, func() error {
			if local := c.Name().Local; local != "LineStringSegment" {
				return unexpected(c, "unsupported curve segment")
			}
			pts, err := d.points(c, s.with(c))
			if err != nil {
				return err
			}
			if n := len(line); n > 0 && len(pts) > 0 && line[n-1] == pts[0] {
				pts = pts[1:]
			}
			line = append(line, pts...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(line) < 2 {
		return nil, invalid(c, "curve has %d positions", len(line))
	}
	return line, nil
}

func (d *Decoder) polygon(c cursor.Cursor, s srs) (orb.Geometry, error) {
	var poly orb.Polygon
	err := d.children(c, func() error {
		switch c.Name().Local {
		case "exterior", "outerBoundaryIs":
			if len(poly) > 0 {
				return unexpected(c, "polygon has more than one exterior")
			}
		case "interior", "innerBoundaryIs":
			if len(poly) == 0 {
				return unexpected(c, "interior before exterior")
			}
		default:
			return unexpected(c, "")
		}
		return d.children(c, func() error {
			if c.Name().Local != "LinearRing" {
				return unexpected(c, "polygon boundaries must be linear rings")
			}
			g, err := d.element(c, s)
			if err != nil {
				return err
			}
			poly = append(poly, g.(orb.Ring))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(poly) == 0 {
		return nil, invalid(c, "polygon has no exterior")
	}
	return poly, nil
}

func (d *Decoder) members(c cursor.Cursor, s srs) ([]orb.Geometry, error) {
	var out []orb.Geometry
	err := d.children(c, func() error {
		local := c.Name().Local
		switch {
		case strings.HasSuffix(local, "Members"):
		case strings.HasSuffix(local, "Member"):
			if _, ok := c.Attr(xmlutil.XLinkHref); ok {
				return invalid(c, "referenced geometry members are not supported")
			}
		default:
			return unexpected(c, "")
		}
		return d.children(c, func() error {
			g, err := d.element(c, s)
			if err != nil {
				return err
			}
			out = append(out, g)
			return nil
		})
	})
	return out, err
}

func aggregate(c cursor.Cursor, local string, members []orb.Geometry) (orb.Geometry, error) {
	bad := func(g orb.Geometry) error {
		return invalid(c, "%s cannot contain a %s", local, g.GeoJSONType())
	}
	switch local {
	case "MultiPoint":
		mp := orb.MultiPoint{}
		for _, g := range members {
			p, ok := g.(orb.Point)
			if !ok {
				return nil, bad(g)
			}
			mp = append(mp, p)
		}
		return mp, nil
	case "MultiLineString", "MultiCurve":
		mls := orb.MultiLineString{}
		for _, g := range members {
			switch g := g.(type) {
			case orb.LineString:
				mls = append(mls, g)
			case orb.Ring:
				mls = append(mls, orb.LineString(g))
			default:
				return nil, bad(g)
			}
		}
		return mls, nil
	case "MultiPolygon", "MultiSurface":
		mp := orb.MultiPolygon{}
		for _, g := range members {
			p, ok := g.(orb.Polygon)
			if !ok {
				return nil, bad(g)
			}
			mp = append(mp, p)
		}
		return mp, nil
	}
	return orb.Collection(members), nil
}

func (d *Decoder) bound(c cursor.Cursor, s srs) (orb.Bound, error) {
	pts, err := d.points(c, s)
	if err != nil {
		return orb.Bound{}, err
	}
	if len(pts) != 2 {
		return orb.Bound{}, invalid(c, "envelope has %d corners", len(pts))
	}
	return orb.MultiPoint(pts).Bound(), nil
}

// children calls fn at the start of each child element of the current
// element, leaving c at its end. fn must leave c at the end of the child.
func (d *Decoder) children(c cursor.Cursor, fn func() error) error {
	for {
		kind, err := c.NextElement()
		if err != nil {
			return err
		}
		if kind == cursor.EndElement {
			return nil
		}
		if !isGML(c.Name()) {
			return unexpected(c, "")
		}
		if err := fn(); err != nil {
			return err
		}
	}
}

func unexpected(c cursor.Cursor, msg string) error {
	opts := []gmlerr.Option{gmlerr.WithLocation(c.Location())}
	if msg != "" {
		opts = append(opts, gmlerr.WithMessage(msg))
	}
	return errors.WithStack(gmlerr.UnexpectedElement(xmlutil.Clark(c.Name()), opts...))
}

func invalid(c cursor.Cursor, format string, args ...interface{}) error {
	return errors.WithStack(gmlerr.InvalidValue(xmlutil.Clark(c.Name()),
		gmlerr.WithLocation(c.Location()), gmlerr.WithMessagef(format, args...)))
}
