package feature

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Envelope returns the union of the bounds of every geometry reachable
// from f through its properties: its own geometry properties, nested and
// array features, resolved references and generic content. Each feature
// is visited once, so cyclic feature graphs terminate. The second result
// is false when no geometry is reachable.
func (f *Feature) Envelope() (orb.Bound, bool) {
	w := boundWalker{visited: map[*Feature]bool{}}
	w.feature(f)
	return w.bound, w.ok
}

// MergeBounds merges two bounds axis by axis. Bounds are planar.
func MergeBounds(a, b orb.Bound) orb.Bound {
	return orb.Bound{
		Min: orb.Point{min(a.Min[0], b.Min[0]), min(a.Min[1], b.Min[1])},
		Max: orb.Point{max(a.Max[0], b.Max[0]), max(a.Max[1], b.Max[1])},
	}
}

type boundWalker struct {
	visited map[*Feature]bool
	bound   orb.Bound
	ok      bool
}

func (w *boundWalker) add(b orb.Bound) {
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		// empty geometry
		return
	}
	if !w.ok {
		w.bound, w.ok = b, true
		return
	}
	w.bound = MergeBounds(w.bound, b)
}

func (w *boundWalker) feature(f *Feature) {
	if f == nil || w.visited[f] {
		return
	}
	w.visited[f] = true
	w.properties(f.props)
}

func (w *boundWalker) properties(props []*Property) {
	for _, p := range props {
		w.value(p.value)
	}
}

func (w *boundWalker) value(v Value) {
	switch v := v.(type) {
	case *Geometry:
		if v != nil && v.Geometry != nil {
			w.add(v.Geometry.Bound())
		}
	case *Feature:
		w.feature(v)
	case FeatureArray:
		for _, f := range v {
			w.feature(f)
		}
	case *Reference:
		if obj, err := v.Object(); err == nil {
			w.value(obj)
		}
	case *TimeSlice:
		w.properties(v.properties)
	case *Property:
		w.value(v.value)
	case *GenericElement:
		for _, c := range v.Children {
			w.value(c)
		}
	}
}

// EnvelopeCache memoizes feature envelopes. Cached envelopes are not
// invalidated when references resolve; call Purge after a resolution
// pass.
type EnvelopeCache struct {
	cache *lru.Cache[*Feature, envelopeEntry]
}

type envelopeEntry struct {
	bound orb.Bound
	ok    bool
}

// NewEnvelopeCache returns a cache holding up to size envelopes.
func NewEnvelopeCache(size int) (*EnvelopeCache, error) {
	c, err := lru.New[*Feature, envelopeEntry](size)
	if err != nil {
		return nil, errors.Wrap(err, "envelope cache")
	}
	return &EnvelopeCache{cache: c}, nil
}

// Envelope returns f.Envelope(), computing it at most once while cached.
func (c *EnvelopeCache) Envelope(f *Feature) (orb.Bound, bool) {
	if e, ok := c.cache.Get(f); ok {
		return e.bound, e.ok
	}
	b, ok := f.Envelope()
	c.cache.Add(f, envelopeEntry{bound: b, ok: ok})
	return b, ok
}

func (c *EnvelopeCache) Len() int { return c.cache.Len() }
func (c *EnvelopeCache) Purge()   { c.cache.Purge() }
