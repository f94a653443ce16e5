// Package cursor provides a forward-only, pull-style view of a markup
// document, one event at a time.
//
// All GML decoding is expressed against the Cursor interface. Decode
// routines are called with the cursor positioned at a start element event
// and must return with it positioned at the matching end element event.
package cursor

import (
	"encoding/xml"

	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
)

// Kind is the kind of the current markup event.
type Kind int

const (
	// StartDocument is the state before the first event has been read.
	StartDocument Kind = iota
	StartElement
	EndElement
	Text
	// EndDocument follows the end element event of the document element.
	EndDocument
)

func (k Kind) String() string {
	switch k {
	case StartDocument:
		return "START_DOCUMENT"
	case StartElement:
		return "START_ELEMENT"
	case EndElement:
		return "END_ELEMENT"
	case Text:
		return "CHARACTERS"
	case EndDocument:
		return "END_DOCUMENT"
	}
	return "UNKNOWN"
}

// Cursor is a forward-only position over a markup event stream.
type Cursor interface {
	// Kind returns the kind of the current event.
	Kind() Kind
	// Name returns the element name of the current start or end element event.
	Name() xml.Name
	// AttrCount returns the number of attributes of the current start element,
	// excluding namespace declarations.
	AttrCount() int
	AttrName(i int) xml.Name
	AttrValue(i int) string
	// Attr returns the value of the named attribute of the current start element.
	Attr(name xml.Name) (string, bool)
	// Text returns the character data of the current text event.
	Text() string
	// Namespaces returns the namespace prefixes in scope at the current event.
	Namespaces() xmlutil.PrefixMap

	// Next advances to the next event.
	Next() (Kind, error)
	// NextElement advances to the next start or end element event,
	// skipping text.
	NextElement() (Kind, error)
	// ElementText reads the text content of the current start element,
	// leaving the cursor at its end element event. Child elements are an
	// error.
	ElementText() (string, error)
	// SkipElement advances from the current start element event to its
	// matching end element event.
	SkipElement() error
	// Require checks the current event kind and, if name is not the zero
	// value, the current element name.
	Require(kind Kind, name xml.Name) error

	// Location returns the position of the current event.
	Location() gmlerr.Location
	// SystemID returns the URI of the document being read, if known.
	SystemID() string
}
