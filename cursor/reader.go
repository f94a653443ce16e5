package cursor

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/pkg/errors"
)

// Reader is a Cursor reading tokens from an encoding/xml Decoder.
//
// Adjacent character data (including CDATA sections) is reported as a
// single text event. Comments, processing instructions and directives are
// not reported. Namespace declarations are tracked but are not reported
// as attributes.
type Reader struct {
	dec      *xml.Decoder
	systemID string

	kind      Kind
	name      xml.Name
	attrs     []xml.Attr
	text      string
	depth     int
	line, col int
	done      bool
	err       error

	scopes   []xmlutil.PrefixMap
	popScope bool

	peeked  xml.Token
	peekErr error
}

// Option is a Reader option function
type Option func(*Reader)

// WithSystemID sets the URI of the document, used in locations and to
// resolve relative references.
func WithSystemID(id string) Option { return func(r *Reader) { r.systemID = id } }

// WithStrict sets the strictness of the underlying xml.Decoder.
func WithStrict(strict bool) Option { return func(r *Reader) { r.dec.Strict = strict } }

// New returns a Reader over src positioned before the first event.
func New(src io.Reader, opts ...Option) *Reader {
	r := &Reader{dec: xml.NewDecoder(src)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns a Reader over src positioned at the start element event of
// the document element.
func Open(src io.Reader, opts ...Option) (*Reader, error) {
	r := New(src, opts...)
	kind, err := r.NextElement()
	if err != nil {
		return nil, err
	}
	if kind != StartElement {
		return nil, errors.WithStack(gmlerr.UnexpectedEOF(
			gmlerr.WithLocation(r.Location()), gmlerr.WithMessage("document has no document element")))
	}
	return r, nil
}

func (r *Reader) Kind() Kind       { return r.kind }
func (r *Reader) Name() xml.Name   { return r.name }
func (r *Reader) Text() string     { return r.text }
func (r *Reader) AttrCount() int   { return len(r.attrs) }
func (r *Reader) SystemID() string { return r.systemID }

// Depth returns the element nesting depth of the current event.
func (r *Reader) Depth() int { return r.depth }

func (r *Reader) AttrName(i int) xml.Name { return r.attrs[i].Name }
func (r *Reader) AttrValue(i int) string  { return r.attrs[i].Value }

func (r *Reader) Attr(name xml.Name) (string, bool) {
	for _, a := range r.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (r *Reader) Namespaces() xmlutil.PrefixMap {
	if n := len(r.scopes); n > 0 {
		return r.scopes[n-1]
	}
	return xmlutil.PrefixMap{}
}

func (r *Reader) Location() gmlerr.Location {
	return gmlerr.Location{SystemID: r.systemID, Line: r.line, Column: r.col}
}

func (r *Reader) Next() (Kind, error) {
	if r.err != nil {
		return r.kind, r.err
	}
	if r.done {
		r.kind, r.name, r.attrs, r.text = EndDocument, xml.Name{}, nil, ""
		return r.kind, nil
	}
	if r.popScope {
		r.scopes = r.scopes[:len(r.scopes)-1]
		r.popScope = false
	}

	for {
		r.line, r.col = r.dec.InputPos()
		token, err := r.token()
		if err != nil {
			return r.kind, r.fail(err)
		}
		switch token := token.(type) {
		case xml.StartElement:
			r.depth++
			r.kind, r.name, r.text = StartElement, token.Name, ""
			r.attrs = r.attrs[:0]
			var decls []xml.Attr
			for _, attr := range token.Attr {
				if xmlutil.IsNamespaceDecl(attr) {
					decls = append(decls, attr)
					continue
				}
				r.attrs = append(r.attrs, attr)
			}
			r.pushScope(decls)
			return r.kind, nil

		case xml.EndElement:
			r.depth--
			r.kind, r.name, r.attrs, r.text = EndElement, token.Name, nil, ""
			r.popScope = true
			r.done = r.depth == 0
			return r.kind, nil

		case xml.CharData:
			if r.depth == 0 {
				// whitespace around the document element
				continue
			}
			r.kind, r.text = Text, r.coalesce(token)
			return r.kind, nil

		default:
			// comments, processing instructions and directives are not
			// reported
		}
	}
}

func (r *Reader) NextElement() (Kind, error) {
	for {
		kind, err := r.Next()
		if err != nil {
			return kind, err
		}
		if kind != Text {
			return kind, nil
		}
	}
}

func (r *Reader) ElementText() (string, error) {
	if err := r.Require(StartElement, xml.Name{}); err != nil {
		return "", err
	}
	start := r.name
	var sb strings.Builder
	for {
		kind, err := r.Next()
		if err != nil {
			return "", err
		}
		switch kind {
		case Text:
			sb.WriteString(r.text)
		case EndElement:
			return sb.String(), nil
		case StartElement:
			return "", errors.WithStack(gmlerr.UnexpectedElement(xmlutil.Clark(r.name),
				gmlerr.WithLocation(r.Location()),
				gmlerr.WithMessagef("element %s must only contain text", xmlutil.Clark(start))))
		}
	}
}

func (r *Reader) SkipElement() error {
	if err := r.Require(StartElement, xml.Name{}); err != nil {
		return err
	}
	for depth := 1; depth > 0; {
		kind, err := r.Next()
		if err != nil {
			return err
		}
		switch kind {
		case StartElement:
			depth++
		case EndElement:
			depth--
		}
	}
	return nil
}

func (r *Reader) Require(kind Kind, name xml.Name) error {
	if r.kind == kind && (name == (xml.Name{}) || r.name == name) {
		return nil
	}
	msg := "expected " + kind.String()
	if name != (xml.Name{}) {
		msg += " " + xmlutil.Clark(name)
	}
	msg += ", found " + r.kind.String()
	if r.kind == StartElement || r.kind == EndElement {
		msg += " " + xmlutil.Clark(r.name)
	}
	return errors.WithStack(gmlerr.UnexpectedElement(xmlutil.Clark(r.name),
		gmlerr.WithLocation(r.Location()), gmlerr.WithMessage(msg)))
}

func (r *Reader) token() (xml.Token, error) {
	if r.peeked != nil {
		token := r.peeked
		r.peeked = nil
		return token, nil
	}
	if r.peekErr != nil {
		err := r.peekErr
		r.peekErr = nil
		return nil, err
	}
	token, err := r.dec.Token()
	if err != nil {
		return nil, err
	}
	return xml.CopyToken(token), nil
}

// coalesce joins cd with any directly following character data tokens.
func (r *Reader) coalesce(cd xml.CharData) string {
	buf := []byte(cd)
	for {
		token, err := r.dec.Token()
		if err != nil {
			r.peekErr = err
			break
		}
		if more, ok := token.(xml.CharData); ok {
			buf = append(buf, more...)
			continue
		}
		r.peeked = xml.CopyToken(token)
		break
	}
	return string(buf)
}

func (r *Reader) pushScope(decls []xml.Attr) {
	var parent xmlutil.PrefixMap
	if n := len(r.scopes); n > 0 {
		parent = r.scopes[n-1]
	}
	if len(decls) == 0 && parent != nil {
		r.scopes = append(r.scopes, parent)
		return
	}
	r.scopes = append(r.scopes, parent.Merge(xmlutil.NewPrefixMap(decls...)))
}

// fail records err as the terminal stream error of r.
func (r *Reader) fail(err error) error {
	loc := r.Location()
	var syntaxErr *xml.SyntaxError
	switch {
	case err == io.EOF, err == io.ErrUnexpectedEOF:
		r.err = gmlerr.UnexpectedEOF(gmlerr.WithLocation(loc), gmlerr.WithMessage("premature end of input"))
	case errors.As(err, &syntaxErr):
		loc.Line = syntaxErr.Line
		if syntaxErr.Msg == "unexpected EOF" {
			r.err = gmlerr.UnexpectedEOF(gmlerr.WithLocation(loc), gmlerr.WithMessage("premature end of input"))
		} else {
			r.err = gmlerr.MalformedMarkup(gmlerr.WithLocation(loc), gmlerr.WithMessage(syntaxErr.Msg))
		}
	default:
		r.err = gmlerr.MalformedMarkup(gmlerr.WithLocation(loc), gmlerr.WithMessage(err.Error()))
	}
	r.err = errors.WithStack(r.err)
	return r.err
}
