package feature

import (
	"strconv"
	"strings"
)

// CRS identifies a coordinate reference system by its srsName. Code is
// the EPSG code when the name follows one of the common EPSG spellings.
type CRS struct {
	Name string
	Code int
}

// ParseCRS returns the CRS named srsName, or nil when srsName is empty.
//
// Recognised EPSG spellings are EPSG:4326, urn:ogc:def:crs:EPSG::4326,
// urn:ogc:def:crs:EPSG:6.6:4326, http://www.opengis.net/def/crs/EPSG/0/4326
// and http://www.opengis.net/gml/srs/epsg.xml#4326.
func ParseCRS(srsName string) *CRS {
	srsName = strings.TrimSpace(srsName)
	if srsName == "" {
		return nil
	}
	crs := &CRS{Name: srsName}
	upper := strings.ToUpper(srsName)
	if !strings.Contains(upper, "EPSG") {
		return crs
	}
	i := strings.LastIndexAny(srsName, ":/#")
	if code, err := strconv.Atoi(srsName[i+1:]); err == nil && code > 0 {
		crs.Code = code
	}
	return crs
}

func (c *CRS) String() string {
	if c == nil {
		return ""
	}
	return c.Name
}

// Equal reports whether c and other denote the same CRS.
func (c *CRS) Equal(other *CRS) bool {
	switch {
	case c == nil || other == nil:
		return c == other
	case c.Code != 0 && other.Code != 0:
		return c.Code == other.Code
	}
	return c.Name == other.Name
}
