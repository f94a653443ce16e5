package decoder

import (
	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/pkg/errors"
)

// located sets the location of the decode error in err's chain to the
// current position of c, unless it already carries one.
func located(c cursor.Cursor, err error) error {
	if e, ok := gmlerr.As(err); ok && e.Location.IsZero() {
		e.Location = c.Location()
	}
	return err
}

func at(c cursor.Cursor) gmlerr.Option { return gmlerr.WithLocation(c.Location()) }

func unexpected(c cursor.Cursor, format string, args ...interface{}) error {
	return errors.WithStack(gmlerr.UnexpectedElement(xmlutil.Clark(c.Name()), at(c), gmlerr.WithMessagef(format, args...)))
}

func invalid(c cursor.Cursor, format string, args ...interface{}) error {
	return errors.WithStack(gmlerr.InvalidValue(xmlutil.Clark(c.Name()), at(c), gmlerr.WithMessagef(format, args...)))
}

// expectEnd advances c past insignificant text to the end element of the
// property element enclosing the value just read.
func expectEnd(c cursor.Cursor) error {
	kind, err := c.NextElement()
	if err != nil {
		return err
	}
	if kind != cursor.EndElement {
		return unexpected(c, "property element holds more than one value")
	}
	return nil
}
