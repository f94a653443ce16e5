package temporal

import (
	"strings"
	"testing"
	"time"

	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/gmlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, doc string) cursor.Cursor {
	c, err := cursor.Open(strings.NewReader(`<w xmlns:gml="http://www.opengis.net/gml/3.2">` + doc + `<next/></w>`))
	require.NoError(t, err)
	_, err = c.NextElement()
	require.NoError(t, err)
	return c
}

func TestReadInstant(t *testing.T) {
	check := assert.New(t)
	c := open(t, `<gml:TimeInstant gml:id="t1"><gml:timePosition>2024-03-01T12:00:00Z</gml:timePosition></gml:TimeInstant>`)
	tp, err := NewDecoder().Read(c)
	require.NoError(t, err)
	check.Equal("t1", tp.ID())
	check.True(tp.Instant)
	check.True(tp.Begin.Time.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	check.Equal(tp.Begin, tp.End)
	check.Equal(cursor.EndElement, c.Kind())
	check.Equal("TimeInstant", c.Name().Local)
}

func TestReadPeriod(t *testing.T) {
	for _, tc := range []struct {
		name          string
		doc           string
		begin         time.Time
		indeterminate string
	}{
		{
			name: "positions",
			doc: `<gml:TimePeriod><gml:beginPosition>2020-01-01</gml:beginPosition>` +
				`<gml:endPosition indeterminatePosition="now"/></gml:TimePeriod>`,
			begin:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			indeterminate: "now",
		},
		{
			name: "instants",
			doc: `<gml:TimePeriod gml:id="p1">` +
				`<gml:begin><gml:TimeInstant><gml:timePosition>2019</gml:timePosition></gml:TimeInstant></gml:begin>` +
				`<gml:end><gml:TimeInstant><gml:timePosition>2021-06</gml:timePosition></gml:TimeInstant></gml:end>` +
				`</gml:TimePeriod>`,
			begin: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			check := assert.New(t)
			c := open(t, tc.doc)
			tp, err := NewDecoder().Read(c)
			require.NoError(t, err)
			check.False(tp.Instant)
			check.True(tc.begin.Equal(tp.Begin.Time))
			check.Equal(tc.indeterminate, tp.End.Indeterminate)
			check.Equal("TimePeriod", c.Name().Local)
			kind, err := c.NextElement()
			check.NoError(err)
			check.Equal(cursor.StartElement, kind)
			check.Equal("next", c.Name().Local)
		})
	}
}

func TestReadErrors(t *testing.T) {
	for _, tc := range []struct {
		name, doc, tag string
	}{
		{"not time", `<gml:Point/>`, "unexpected-element"},
		{"no position", `<gml:TimeInstant/>`, "invalid-value"},
		{"bad position", `<gml:TimeInstant><gml:timePosition>soon</gml:timePosition></gml:TimeInstant>`, "invalid-value"},
		{"missing end", `<gml:TimePeriod><gml:beginPosition>2020</gml:beginPosition></gml:TimePeriod>`, "invalid-value"},
		{"reversed", `<gml:TimePeriod><gml:beginPosition>2021</gml:beginPosition><gml:endPosition>2020</gml:endPosition></gml:TimePeriod>`, "invalid-value"},
		{"stray child", `<gml:TimePeriod><gml:duration>P1D</gml:duration></gml:TimePeriod>`, "unexpected-element"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDecoder().Read(open(t, tc.doc))
			assert.True(t, gmlerr.HasTag(err, tc.tag), "%v", err)
		})
	}
}
