package catalog

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Kind is the closed set of property type kinds.
type Kind int

const (
	KindSimple Kind = iota
	KindFeature
	KindGeometry
	KindTimeObject
	KindTimeSlice
	KindCustom
	KindEnvelope
	KindCode
	KindMeasure
	KindStringOrRef
	KindArray
)

var kindNames = [...]string{
	KindSimple:      "simple",
	KindFeature:     "feature",
	KindGeometry:    "geometry",
	KindTimeObject:  "timeObject",
	KindTimeSlice:   "timeSlice",
	KindCustom:      "custom",
	KindEnvelope:    "envelope",
	KindCode:        "code",
	KindMeasure:     "measure",
	KindStringOrRef: "stringOrRef",
	KindArray:       "array",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Referencing reports whether a property of kind k may carry an
// xlink:href in place of inline content.
func (k Kind) Referencing() bool {
	switch k {
	case KindFeature, KindGeometry, KindTimeObject, KindTimeSlice:
		return true
	}
	return false
}

func (k *Kind) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			*k = Kind(i)
			return nil
		}
	}
	return errors.Errorf("unknown property kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// GeometryType constrains the geometries a geometry property accepts.
type GeometryType int

const (
	GeometryAny GeometryType = iota
	GeometryPoint
	GeometryCurve
	GeometrySurface
	// GeometryPrimitive is any of point, curve or surface.
	GeometryPrimitive
	GeometryMultiPoint
	GeometryMultiCurve
	GeometryMultiSurface
	// GeometryMultiGeometry is any aggregate geometry.
	GeometryMultiGeometry
)

var geometryNames = [...]string{
	GeometryAny:           "any",
	GeometryPoint:         "point",
	GeometryCurve:         "curve",
	GeometrySurface:       "surface",
	GeometryPrimitive:     "primitive",
	GeometryMultiPoint:    "multiPoint",
	GeometryMultiCurve:    "multiCurve",
	GeometryMultiSurface:  "multiSurface",
	GeometryMultiGeometry: "multiGeometry",
}

func (g GeometryType) String() string {
	if g >= 0 && int(g) < len(geometryNames) {
		return geometryNames[g]
	}
	return "unknown"
}

func (g *GeometryType) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for i, name := range geometryNames {
		if strings.EqualFold(name, s) {
			*g = GeometryType(i)
			return nil
		}
	}
	return errors.Errorf("unknown geometry type %q", s)
}

func (g GeometryType) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// Accepts reports whether geom is an instance of g.
func (g GeometryType) Accepts(geom orb.Geometry) bool {
	switch g {
	case GeometryAny:
		return geom != nil
	case GeometryPoint:
		_, ok := geom.(orb.Point)
		return ok
	case GeometryCurve:
		switch geom.(type) {
		case orb.LineString, orb.Ring:
			return true
		}
	case GeometrySurface:
		_, ok := geom.(orb.Polygon)
		return ok
	case GeometryPrimitive:
		return GeometryPoint.Accepts(geom) || GeometryCurve.Accepts(geom) || GeometrySurface.Accepts(geom)
	case GeometryMultiPoint:
		_, ok := geom.(orb.MultiPoint)
		return ok
	case GeometryMultiCurve:
		_, ok := geom.(orb.MultiLineString)
		return ok
	case GeometryMultiSurface:
		_, ok := geom.(orb.MultiPolygon)
		return ok
	case GeometryMultiGeometry:
		switch geom.(type) {
		case orb.Collection, orb.MultiPoint, orb.MultiLineString, orb.MultiPolygon:
			return true
		}
	}
	return false
}
