package catalog

import (
	"strings"

	"github.com/andaru/gml/xmlutil"
	"github.com/pkg/errors"
)

// Version is a GML version. It selects the GML namespace, the identifier
// attribute and the set of standard object properties.
type Version int

const (
	GML32 Version = iota
	GML31
	GML2
)

func (v Version) String() string {
	switch v {
	case GML2:
		return "2.1"
	case GML31:
		return "3.1"
	case GML32:
		return "3.2"
	}
	return "unknown"
}

// Namespace returns the GML namespace of v.
func (v Version) Namespace() string {
	if v == GML32 {
		return xmlutil.NSGML32
	}
	return xmlutil.NSGML
}

// ParseVersion parses a version string such as "3.2" or "GML2".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "GML")
	switch strings.TrimSpace(s) {
	case "2", "2.1", "2.1.2":
		return GML2, nil
	case "3.1", "3.1.1", "31":
		return GML31, nil
	case "", "3.2", "3.2.1", "32":
		return GML32, nil
	}
	return GML32, errors.Errorf("unknown GML version %q", s)
}

func (v *Version) UnmarshalText(b []byte) (err error) {
	*v, err = ParseVersion(string(b))
	return
}

func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }
