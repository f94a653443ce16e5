package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// PrimitiveType is the schema type of a simple value.
type PrimitiveType int

const (
	// PrimitiveUntyped values are kept as their text.
	PrimitiveUntyped PrimitiveType = iota
	PrimitiveString
	PrimitiveBoolean
	// PrimitiveInteger values are int64.
	PrimitiveInteger
	// PrimitiveDecimal and PrimitiveDouble values are float64.
	PrimitiveDecimal
	PrimitiveDouble
	// PrimitiveDate and PrimitiveDateTime values are time.Time.
	PrimitiveDate
	PrimitiveDateTime
	PrimitiveAnyURI
)

var primitiveNames = [...]string{
	PrimitiveUntyped:  "untyped",
	PrimitiveString:   "string",
	PrimitiveBoolean:  "boolean",
	PrimitiveInteger:  "integer",
	PrimitiveDecimal:  "decimal",
	PrimitiveDouble:   "double",
	PrimitiveDate:     "date",
	PrimitiveDateTime: "dateTime",
	PrimitiveAnyURI:   "anyURI",
}

func (p PrimitiveType) String() string {
	if p >= 0 && int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "PrimitiveType(" + strconv.Itoa(int(p)) + ")"
}

func (p *PrimitiveType) UnmarshalText(b []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(b)), "xs:")
	switch s {
	case "":
		*p = PrimitiveUntyped
		return nil
	case "int", "long", "short", "nonNegativeInteger", "positiveInteger":
		*p = PrimitiveInteger
		return nil
	case "float":
		*p = PrimitiveDouble
		return nil
	}
	for i, name := range primitiveNames {
		if strings.EqualFold(name, s) {
			*p = PrimitiveType(i)
			return nil
		}
	}
	return errors.Errorf("unknown primitive type %q", s)
}

func (p PrimitiveType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

var (
	dateLayouts     = []string{"2006-01-02Z07:00", "2006-01-02"}
	dateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}
)

// Parse converts element or attribute text to a value of type p.
func (p PrimitiveType) Parse(text string) (interface{}, error) {
	s := strings.TrimSpace(text)
	switch p {
	case PrimitiveUntyped, PrimitiveString:
		return text, nil
	case PrimitiveBoolean:
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, errors.Errorf("invalid boolean %q", s)
	case PrimitiveInteger:
		v, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
		return v, errors.Wrapf(err, "invalid integer %q", s)
	case PrimitiveDecimal:
		v, err := strconv.ParseFloat(s, 64)
		if err == nil && (math.IsInf(v, 0) || math.IsNaN(v)) {
			err = errors.New("special values are not decimals")
		}
		return v, errors.Wrapf(err, "invalid decimal %q", s)
	case PrimitiveDouble:
		switch s {
		case "INF":
			return math.Inf(1), nil
		case "-INF":
			return math.Inf(-1), nil
		case "NaN":
			return math.NaN(), nil
		}
		v, err := strconv.ParseFloat(s, 64)
		return v, errors.Wrapf(err, "invalid double %q", s)
	case PrimitiveDate:
		return parseTime(s, dateLayouts)
	case PrimitiveDateTime:
		return parseTime(s, dateTimeLayouts)
	case PrimitiveAnyURI:
		if _, err := url.Parse(s); err != nil {
			return nil, errors.Wrapf(err, "invalid anyURI %q", s)
		}
		return s, nil
	}
	return nil, errors.Errorf("cannot parse %s values", p)
}

func parseTime(s string, layouts []string) (interface{}, error) {
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, errors.Wrapf(err, "invalid time %q", s)
}

// Matches reports whether v has the runtime type produced by p.
func (p PrimitiveType) Matches(v interface{}) bool {
	switch v.(type) {
	case string:
		return p == PrimitiveUntyped || p == PrimitiveString || p == PrimitiveAnyURI
	case bool:
		return p == PrimitiveBoolean
	case int64:
		return p == PrimitiveInteger
	case float64:
		return p == PrimitiveDecimal || p == PrimitiveDouble
	case time.Time:
		return p == PrimitiveDate || p == PrimitiveDateTime
	}
	return false
}
