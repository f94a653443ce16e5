package decoder

import (
	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/reference"
)

// Option is a Decoder option function
type Option func(*Decoder)

// WithVersion sets the GML version of the documents read.
func WithVersion(v catalog.Version) Option { return func(d *Decoder) { d.version = v } }

// WithDefaultCRS sets the CRS of geometries that do not name one.
func WithDefaultCRS(crs *feature.CRS) Option { return func(d *Decoder) { d.crs = crs } }

// WithGeometryDecoder replaces the geometry decoder.
func WithGeometryDecoder(g GeometryDecoder) Option { return func(d *Decoder) { d.geom = g } }

// WithTimeDecoder replaces the time object decoder.
func WithTimeDecoder(t TimeDecoder) Option { return func(d *Decoder) { d.time = t } }

// WithRegistry makes the decoder register references with r, so that
// several documents can share one resolution pass.
func WithRegistry(r *reference.Registry) Option { return func(d *Decoder) { d.registry = r } }

// WithIndex makes the decoder index objects into ix.
func WithIndex(ix *feature.Index) Option { return func(d *Decoder) { d.index = ix } }

// WithSchemaless decodes without consulting the catalog: every element is
// read as generic content and any feature element is accepted.
func WithSchemaless() Option { return func(d *Decoder) { d.schemaless = true } }

// WithStrictOccurrence sets whether property occurrence bounds are
// checked. Property order is always checked.
func WithStrictOccurrence(strict bool) Option { return func(d *Decoder) { d.strictOccurs = strict } }
