// Package temporal decodes GML time geometric primitives: TimeInstant and
// TimePeriod, in either GML namespace.
package temporal

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/pkg/errors"
)

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02Z07:00",
	"2006-01-02",
	"2006-01",
	"2006",
}

// Decoder is the default time object decoder.
type Decoder struct{}

// NewDecoder returns a time object decoder.
func NewDecoder() *Decoder { return &Decoder{} }

func isGML(name xml.Name) bool {
	return name.Space == xmlutil.NSGML32 || name.Space == xmlutil.NSGML
}

// IsTimeElement reports whether c is at the start of a time primitive.
func (d *Decoder) IsTimeElement(c cursor.Cursor) bool {
	if c.Kind() != cursor.StartElement || !isGML(c.Name()) {
		return false
	}
	switch c.Name().Local {
	case "TimeInstant", "TimePeriod":
		return true
	}
	return false
}

// Read decodes the TimeInstant or TimePeriod element at c, leaving c at
// its end.
func (d *Decoder) Read(c cursor.Cursor) (*feature.TimePrimitive, error) {
	if !d.IsTimeElement(c) {
		return nil, unexpected(c)
	}
	var id string
	for _, ns := range []string{xmlutil.NSGML32, xmlutil.NSGML} {
		if v, ok := c.Attr(xml.Name{Space: ns, Local: "id"}); ok {
			id = v
		}
	}
	if id != "" {
		if err := feature.ValidateID(id); err != nil {
			return nil, err
		}
	}

	if c.Name().Local == "TimeInstant" {
		var at *feature.TimePosition
		err := children(c, func() error {
			if c.Name().Local != "timePosition" || at != nil {
				return unexpected(c)
			}
			p, err := position(c)
			at = &p
			return err
		})
		if err != nil {
			return nil, err
		}
		if at == nil {
			return nil, invalid(c, "time instant has no position")
		}
		return feature.NewTimeInstant(id, *at), nil
	}

	var begin, end *feature.TimePosition
	err := children(c, func() error {
		var p feature.TimePosition
		var err error
		switch c.Name().Local {
		case "beginPosition", "endPosition":
			p, err = position(c)
		case "begin", "end":
			p, err = d.instantProperty(c)
		default:
			return unexpected(c)
		}
		if err != nil {
			return err
		}
		if strings.HasPrefix(c.Name().Local, "begin") {
			begin = &p
		} else {
			end = &p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if begin == nil || end == nil {
		return nil, invalid(c, "time period needs a begin and an end")
	}
	if !begin.Time.IsZero() && !end.Time.IsZero() && end.Time.Before(begin.Time) {
		return nil, invalid(c, "time period ends before it begins")
	}
	return feature.NewTimePeriod(id, *begin, *end), nil
}

// instantProperty reads a begin or end element holding a TimeInstant.
func (d *Decoder) instantProperty(c cursor.Cursor) (feature.TimePosition, error) {
	var p *feature.TimePosition
	err := children(c, func() error {
		if c.Name().Local != "TimeInstant" || p != nil {
			return unexpected(c)
		}
		t, err := d.Read(c)
		if err != nil {
			return err
		}
		p = &t.Begin
		return nil
	})
	if err == nil && p == nil {
		err = invalid(c, "missing time instant")
	}
	if err != nil {
		return feature.TimePosition{}, err
	}
	return *p, nil
}

func position(c cursor.Cursor) (feature.TimePosition, error) {
	indeterminate, _ := c.Attr(xml.Name{Local: "indeterminatePosition"})
	text, err := c.ElementText()
	if err != nil {
		return feature.TimePosition{}, err
	}
	p := feature.TimePosition{Indeterminate: indeterminate}
	text = strings.TrimSpace(text)
	if text == "" {
		if indeterminate == "" {
			return p, invalid(c, "empty time position")
		}
		return p, nil
	}
	for _, layout := range layouts {
		if p.Time, err = time.Parse(layout, text); err == nil {
			return p, nil
		}
	}
	return p, invalid(c, "invalid time position %q", text)
}

func children(c cursor.Cursor, fn func() error) error {
	for {
		kind, err := c.NextElement()
		if err != nil {
			return err
		}
		if kind == cursor.EndElement {
			return nil
		}
		if !isGML(c.Name()) {
			return unexpected(c)
		}
		if err := fn(); err != nil {
			return err
		}
	}
}

func unexpected(c cursor.Cursor) error {
	return errors.WithStack(gmlerr.UnexpectedElement(xmlutil.Clark(c.Name()), gmlerr.WithLocation(c.Location())))
}

func invalid(c cursor.Cursor, format string, args ...interface{}) error {
	return errors.WithStack(gmlerr.InvalidValue(xmlutil.Clark(c.Name()),
		gmlerr.WithLocation(c.Location()), gmlerr.WithMessagef(format, args...)))
}
