// Package gmlerr defines the error taxonomy of the GML decoder.
//
// Every decode failure is an *Error carrying a Type (what class of failure
// it is), a Tag (which check failed), the document position at which it
// was detected and a human readable message. Structural errors describe
// markup that violates the application schema; stream errors describe
// markup that could not be read at all; reference errors are reported by
// the reference resolution pass; internal errors indicate a programming
// error.
package gmlerr

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/pkg/errors"
)

// Type represents the class of a decode error
type Type int

const (
	// TypeStructural is a violation of the application schema by the markup
	TypeStructural Type = iota
	// TypeStream is a malformed or truncated markup stream. Always fatal.
	TypeStream
	// TypeReference is an unresolvable reference, reported at resolution time
	TypeReference
	// TypeInternal is a broken invariant inside the decoder
	TypeInternal
)

func (t Type) String() string {
	switch t {
	case TypeStructural:
		return "structural"
	case TypeStream:
		return "stream"
	case TypeReference:
		return "reference"
	case TypeInternal:
		return "internal"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

func (t *Type) UnmarshalText(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "structural":
		*t = TypeStructural
	case "stream":
		*t = TypeStream
	case "reference":
		*t = TypeReference
	case "internal":
		*t = TypeInternal
	default:
		return errors.New("unknown value")
	}
	return nil
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Location is a position within a markup document.
type Location struct {
	SystemID string `xml:"system-id,omitempty" json:"system-id,omitempty"`
	Line     int    `xml:"line,omitempty" json:"line,omitempty"`
	Column   int    `xml:"column,omitempty" json:"column,omitempty"`
}

func (l Location) String() string {
	switch {
	case l.Line == 0 && l.SystemID == "":
		return ""
	case l.SystemID == "":
		return fmt.Sprintf("line %d, column %d", l.Line, l.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", l.SystemID, l.Line, l.Column)
	}
}

// IsZero reports whether l carries no position information.
func (l Location) IsZero() bool { return l == Location{} }

// Error represents a GML decode error.
//
// Errors marshal to XML and JSON so that service layers can embed them in
// protocol exception reports.
type Error struct {
	XMLName   xml.Name `xml:"decode-error" json:"-"`
	Type      Type     `xml:"error-type" json:"error-type"`
	Tag       string   `xml:"error-tag" json:"error-tag"`
	Element   string   `xml:"bad-element,omitempty" json:"bad-element,omitempty"`
	Attribute string   `xml:"bad-attribute,omitempty" json:"bad-attribute,omitempty"`
	Message   string   `xml:"error-message,omitempty" json:"error-message,omitempty"`
	Location  Location `xml:"location" json:"location"`
}

func (e Error) Error() string {
	s := fmt.Sprintf("%s error tag:%s", e.Type, e.Tag)
	if e.Element != "" {
		s += " element:" + e.Element
	}
	if e.Attribute != "" {
		s += " attribute:" + e.Attribute
	}
	if loc := e.Location.String(); loc != "" {
		s += " at:" + loc
	}
	if e.Message != "" {
		s += " " + e.Message
	}
	return s
}

func newError(typ Type, tag string, opts []Option) *Error {
	e := &Error{Type: typ, Tag: tag}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Structural errors

func UnexpectedElement(elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "unexpected-element", opts)
	e.Element = elementName
	return e
}

func BadAttribute(attributeName, elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "bad-attribute", opts)
	e.Attribute, e.Element = attributeName, elementName
	return e
}

func MissingAttribute(attributeName, elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "missing-attribute", opts)
	e.Attribute, e.Element = attributeName, elementName
	return e
}

func NotNillable(elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "not-nillable", opts)
	e.Element = elementName
	return e
}

func UnknownFeatureType(elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "unknown-feature-type", opts)
	e.Element = elementName
	return e
}

func WrongFeatureType(elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "wrong-feature-type", opts)
	e.Element = elementName
	return e
}

func WrongGeometryType(elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "wrong-geometry-type", opts)
	e.Element = elementName
	return e
}

func InvalidID(id string, opts ...Option) *Error {
	e := newError(TypeStructural, "invalid-id", opts)
	if e.Message == "" {
		e.Message = fmt.Sprintf("%q is not a valid GML id: it must not start with a digit and must not contain a colon", id)
	}
	return e
}

func DuplicateID(id string, opts ...Option) *Error {
	e := newError(TypeStructural, "duplicate-id", opts)
	if e.Message == "" {
		e.Message = fmt.Sprintf("object id %q is not unique", id)
	}
	return e
}

func InvalidValue(elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "invalid-value", opts)
	e.Element = elementName
	return e
}

func TooMany(elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "too-many", opts)
	e.Element = elementName
	return e
}

func TooFew(elementName string, opts ...Option) *Error {
	e := newError(TypeStructural, "too-few", opts)
	e.Element = elementName
	return e
}

// Stream errors

func MalformedMarkup(opts ...Option) *Error {
	return newError(TypeStream, "malformed-markup", opts)
}

func UnexpectedEOF(opts ...Option) *Error {
	return newError(TypeStream, "unexpected-eof", opts)
}

// Reference errors

func DanglingReference(href string, opts ...Option) *Error {
	e := newError(TypeReference, "dangling-reference", opts)
	e.Attribute = href
	return e
}

// Internal errors

func UnhandledKind(kind fmt.Stringer, opts ...Option) *Error {
	e := newError(TypeInternal, "unhandled-kind", opts)
	if e.Message == "" {
		e.Message = fmt.Sprintf("property type kind %v not handled", kind)
	}
	return e
}

// As returns the *Error within err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasTag reports whether err is an *Error with the given tag.
func HasTag(err error, tag string) bool {
	e, ok := As(err)
	return ok && e.Tag == tag
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, typ Type) bool {
	e, ok := As(err)
	return ok && e.Type == typ
}
