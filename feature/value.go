package feature

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/xmlutil"
	"github.com/paulmach/orb"
)

// Value is the value of a property, or a child of a generic element.
// The set of implementations is closed:
//
//	PrimitiveValue   simple properties, generic text
//	*Feature         feature properties
//	FeatureArray     array properties
//	*Geometry        geometry properties
//	*TimePrimitive   time object properties
//	*TimeSlice       time slice properties
//	*Envelope        envelope properties
//	Code             code properties
//	Measure          measure properties
//	StringOrRef      string-or-reference properties
//	*GenericElement  custom properties, generic children
//	*Property        generic children declared as properties
//	*Reference       referencing properties given by href
type Value interface {
	isValue()
}

// ObjectKind is the kind of an identifiable object, and the kind of
// object a reference denotes.
type ObjectKind int

const (
	ObjectFeature ObjectKind = iota
	ObjectGeometry
	ObjectTimeObject
	ObjectTimeSlice
	// ObjectGeneric references accept any object.
	ObjectGeneric
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectFeature:
		return "feature"
	case ObjectGeometry:
		return "geometry"
	case ObjectTimeObject:
		return "time object"
	case ObjectTimeSlice:
		return "time slice"
	case ObjectGeneric:
		return "object"
	}
	return "unknown"
}

// ObjectKindOf returns the kind of object referenced by properties of
// kind k.
func ObjectKindOf(k catalog.Kind) ObjectKind {
	switch k {
	case catalog.KindFeature, catalog.KindArray:
		return ObjectFeature
	case catalog.KindGeometry:
		return ObjectGeometry
	case catalog.KindTimeObject:
		return ObjectTimeObject
	case catalog.KindTimeSlice:
		return ObjectTimeSlice
	}
	return ObjectGeneric
}

// Object is an identifiable object that references may resolve to.
type Object interface {
	Value
	ID() string
	ObjectKind() ObjectKind
}

// PrimitiveValue is a typed scalar along with the text it was read from.
type PrimitiveValue struct {
	Text  string
	Value interface{}
	Type  catalog.PrimitiveType
}

// NewPrimitive parses text as a value of type typ.
func NewPrimitive(text string, typ catalog.PrimitiveType) (PrimitiveValue, error) {
	v, err := typ.Parse(text)
	if err != nil {
		return PrimitiveValue{}, err
	}
	return PrimitiveValue{Text: text, Value: v, Type: typ}, nil
}

func (p PrimitiveValue) String() string { return p.Text }

// Attribute is a typed attribute of a property or generic element.
type Attribute struct {
	Name  xml.Name
	Value PrimitiveValue
}

// Code is a term from a code list.
type Code struct {
	Value     string
	CodeSpace string
}

// Measure is a quantity with a unit of measure.
type Measure struct {
	Value float64
	UOM   string
}

// StringOrRef is text, or a reference to remote text.
type StringOrRef struct {
	Text string
	Href string
}

// FeatureArray is the value of an array property: features in document
// order.
type FeatureArray []*Feature

// Geometry is a decoded geometry.
type Geometry struct {
	id       string
	CRS      *CRS
	Geometry orb.Geometry
}

// NewGeometry returns geom in crs with identifier id, which may be empty.
func NewGeometry(id string, crs *CRS, geom orb.Geometry) *Geometry {
	return &Geometry{id: id, CRS: crs, Geometry: geom}
}

func (g *Geometry) ID() string             { return g.id }
func (g *Geometry) ObjectKind() ObjectKind { return ObjectGeometry }

// Envelope is a bounding box, or an explicit null envelope.
type Envelope struct {
	CRS   *CRS
	Bound orb.Bound
	// Null is set for gml:Null / gml:null envelopes. NullReason holds the
	// element text.
	Null       bool
	NullReason string
}

// TimePosition is a point in time, or an indeterminate position such as
// "now" or "unknown".
type TimePosition struct {
	Time          time.Time
	Indeterminate string
}

// TimePrimitive is a time instant or period.
type TimePrimitive struct {
	id    string
	Begin TimePosition
	// End equals Begin for instants.
	End     TimePosition
	Instant bool
}

// NewTimeInstant returns an instant with identifier id.
func NewTimeInstant(id string, at TimePosition) *TimePrimitive {
	return &TimePrimitive{id: id, Begin: at, End: at, Instant: true}
}

// NewTimePeriod returns a period with identifier id.
func NewTimePeriod(id string, begin, end TimePosition) *TimePrimitive {
	return &TimePrimitive{id: id, Begin: begin, End: end}
}

func (t *TimePrimitive) ID() string             { return t.id }
func (t *TimePrimitive) ObjectKind() ObjectKind { return ObjectTimeObject }

// TimeSlice is a feature-shaped snapshot of a feature's properties
// during some validity time.
type TimeSlice struct {
	id         string
	name       xml.Name
	ftype      *catalog.FeatureType
	properties []*Property
}

// NewTimeSlice returns a time slice. id may be empty.
func NewTimeSlice(id string, name xml.Name, ft *catalog.FeatureType, props []*Property) (*TimeSlice, error) {
	if id != "" {
		if err := ValidateID(id); err != nil {
			return nil, err
		}
	}
	return &TimeSlice{id: id, name: name, ftype: ft, properties: props}, nil
}

func (t *TimeSlice) ID() string                 { return t.id }
func (t *TimeSlice) Name() xml.Name             { return t.name }
func (t *TimeSlice) Type() *catalog.FeatureType { return t.ftype }
func (t *TimeSlice) ObjectKind() ObjectKind     { return ObjectTimeSlice }

// Properties returns the time slice properties in document order.
func (t *TimeSlice) Properties() []*Property { return append([]*Property(nil), t.properties...) }

// GenericElement is an element decoded without a specialised property
// kind. Children are PrimitiveValue text runs, nested *GenericElement
// values, or values decoded from declared properties, in document order.
// A nilled element has no children.
type GenericElement struct {
	Name     xml.Name
	Decl     *catalog.ElementDecl
	Attrs    []Attribute
	Children []Value
	Nil      bool
}

// ID returns the gml:id attribute of the element, if any.
func (g *GenericElement) ID() string {
	for _, a := range g.Attrs {
		if a.Name.Local == "id" && (a.Name.Space == xmlutil.NSGML32 || a.Name.Space == xmlutil.NSGML) {
			return a.Value.Text
		}
	}
	return ""
}

func (g *GenericElement) ObjectKind() ObjectKind { return ObjectGeneric }

// Attr returns the named attribute.
func (g *GenericElement) Attr(name xml.Name) (Attribute, bool) {
	for _, a := range g.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Text returns the concatenated text children of g.
func (g *GenericElement) Text() string {
	var sb strings.Builder
	for _, c := range g.Children {
		if p, ok := c.(PrimitiveValue); ok {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func (PrimitiveValue)  isValue() {}
func (Code)            isValue() {}
func (Measure)         isValue() {}
func (StringOrRef)     isValue() {}
func (FeatureArray)    isValue() {}
func (*Geometry)       isValue() {}
func (*Envelope)       isValue() {}
func (*TimePrimitive)  isValue() {}
func (*TimeSlice)      isValue() {}
func (*GenericElement) isValue() {}
