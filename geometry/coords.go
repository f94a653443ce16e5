package geometry

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/andaru/gml/cursor"
	"github.com/paulmach/orb"
)

// points reads the positions given by the coordinate children of the
// current element, leaving c at its end. Positions keep their first two
// ordinates; the rest are checked against srsDimension and dropped.
func (d *Decoder) points(c cursor.Cursor, s srs) ([]orb.Point, error) {
	var pts []orb.Point
	err := d.children(c, func() error {
		switch c.Name().Local {
		case "pos", "lowerCorner", "upperCorner":
			dim := s.dim
			if v, ok := dimension(c); ok {
				dim = v
			}
			nums, err := d.numbers(c)
			if err != nil {
				return err
			}
			if len(nums) < 2 || len(nums) > dim && dim > 2 {
				return invalid(c, "position has %d ordinates", len(nums))
			}
			pts = append(pts, orb.Point{nums[0], nums[1]})

		case "posList":
			dim := s.dim
			if v, ok := dimension(c); ok {
				dim = v
			}
			nums, err := d.numbers(c)
			if err != nil {
				return err
			}
			if len(nums)%dim != 0 {
				return invalid(c, "%d ordinates do not form %d-dimensional positions", len(nums), dim)
			}
			for i := 0; i < len(nums); i += dim {
				pts = append(pts, orb.Point{nums[i], nums[i+1]})
			}

		case "coordinates":
			more, err := coordinates(c)
			if err != nil {
				return err
			}
			pts = append(pts, more...)

		case "coord":
			p, err := d.coord(c)
			if err != nil {
				return err
			}
			pts = append(pts, p)

		case "pointProperty", "pointRep":
			return d.children(c, func() error {
				if c.Name().Local != "Point" {
					return unexpected(c, "expected a point")
				}
				g, err := d.element(c, s)
				if err != nil {
					return err
				}
				pts = append(pts, g.(orb.Point))
				return nil
			})

		default:
			return unexpected(c, "")
		}
		return nil
	})
	return pts, err
}

func (d *Decoder) numbers(c cursor.Cursor) ([]float64, error) {
	text, err := c.ElementText()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(text)
	nums := make([]float64, len(fields))
	for i, f := range fields {
		if nums[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, invalid(c, "invalid ordinate %q", f)
		}
	}
	return nums, nil
}

// coordinates parses a GML 2 style coordinates element, honouring its
// decimal, cs (coordinate separator) and ts (tuple separator) attributes.
func coordinates(c cursor.Cursor) ([]orb.Point, error) {
	attr := func(name, def string) string {
		if v, ok := c.Attr(xml.Name{Local: name}); ok && v != "" {
			return v
		}
		return def
	}
	decimal, cs, ts := attr("decimal", "."), attr("cs", ","), attr("ts", " ")

	text, err := c.ElementText()
	if err != nil {
		return nil, err
	}
	var tuples []string
	if strings.TrimSpace(ts) == "" {
		tuples = strings.Fields(text)
	} else {
		tuples = strings.Split(strings.TrimSpace(text), ts)
	}

	var pts []orb.Point
	for _, tuple := range tuples {
		if tuple = strings.TrimSpace(tuple); tuple == "" {
			continue
		}
		parts := strings.Split(tuple, cs)
		if len(parts) < 2 {
			return nil, invalid(c, "invalid coordinate tuple %q", tuple)
		}
		var p orb.Point
		for i := 0; i < 2; i++ {
			v := strings.TrimSpace(parts[i])
			if decimal != "." {
				v = strings.ReplaceAll(v, decimal, ".")
			}
			if p[i], err = strconv.ParseFloat(v, 64); err != nil {
				return nil, invalid(c, "invalid coordinate tuple %q", tuple)
			}
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// coord parses a GML 2 coord element with X, Y and optional Z children.
func (d *Decoder) coord(c cursor.Cursor) (orb.Point, error) {
	var p orb.Point
	var seen int
	err := d.children(c, func() error {
		var i int
		switch c.Name().Local {
		case "X":
			i = 0
		case "Y":
			i = 1
		case "Z":
			return c.SkipElement()
		default:
			return unexpected(c, "")
		}
		text, err := c.ElementText()
		if err != nil {
			return err
		}
		if p[i], err = strconv.ParseFloat(strings.TrimSpace(text), 64); err != nil {
			return invalid(c, "invalid ordinate %q", text)
		}
		seen |= 1 << i
		return nil
	})
	if err == nil && seen != 3 {
		err = invalid(c, "coord needs X and Y")
	}
	return p, err
}
