package feature

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// ToGeoJSON converts f to a GeoJSON feature. The first geometry property
// becomes the feature geometry; other properties are flattened to JSON
// values keyed by their local name, with repeated properties collected
// into arrays. Nested features are represented by their identifier.
func ToGeoJSON(f *Feature) *geojson.Feature {
	var gf *geojson.Feature
	props := geojson.Properties{}
	for _, p := range f.props {
		if g, ok := p.value.(*Geometry); ok && gf == nil && g.Geometry != nil {
			gf = geojson.NewFeature(g.Geometry)
			continue
		}
		v, ok := jsonValue(p.value)
		if !ok {
			continue
		}
		key := p.name.Local
		switch prev := props[key].(type) {
		case nil:
			props[key] = v
		case []interface{}:
			props[key] = append(prev, v)
		default:
			props[key] = []interface{}{prev, v}
		}
	}
	if gf == nil {
		gf = geojson.NewFeature(nil)
	}
	if f.id != "" {
		gf.ID = f.id
	}
	if names := f.std.Names; len(names) > 0 {
		props["gml:name"] = names[0].Value
	}
	gf.Properties = props
	return gf
}

// ToFeatureCollection converts features to a GeoJSON feature collection.
func ToFeatureCollection(features []*Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(ToGeoJSON(f))
	}
	return fc
}

func jsonValue(v Value) (interface{}, bool) {
	switch v := v.(type) {
	case PrimitiveValue:
		if t, ok := v.Value.(time.Time); ok {
			return t.Format(time.RFC3339Nano), true
		}
		return v.Value, true
	case Code:
		return v.Value, true
	case Measure:
		return v.Value, true
	case StringOrRef:
		if v.Text == "" {
			return v.Href, v.Href != ""
		}
		return v.Text, true
	case *Feature:
		return v.id, v.id != ""
	case FeatureArray:
		ids := make([]interface{}, 0, len(v))
		for _, f := range v {
			ids = append(ids, f.id)
		}
		return ids, true
	case *Reference:
		if obj, err := v.Object(); err == nil && obj.ID() != "" {
			return obj.ID(), true
		}
		return v.href, true
	case *Envelope:
		if v.Null {
			return nil, false
		}
		return []float64{v.Bound.Min[0], v.Bound.Min[1], v.Bound.Max[0], v.Bound.Max[1]}, true
	case *TimePrimitive:
		return timeString(v.Begin), true
	case *GenericElement:
		return v.Text(), true
	}
	return nil, false
}

func timeString(p TimePosition) string {
	if p.Indeterminate != "" {
		return p.Indeterminate
	}
	return p.Time.Format(time.RFC3339Nano)
}
