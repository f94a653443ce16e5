package reference

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/andaru/gml/cursor"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/andaru/gml/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Loader opens documents by URI.
type Loader interface {
	Load(uri string) (io.ReadCloser, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(uri string) (io.ReadCloser, error)

func (f LoaderFunc) Load(uri string) (io.ReadCloser, error) { return f(uri) }

// MapLoader serves documents from memory, keyed by URI.
type MapLoader map[string]string

func (m MapLoader) Load(uri string) (io.ReadCloser, error) {
	doc, ok := m[uri]
	if !ok {
		return nil, errors.Wrap(os.ErrNotExist, uri)
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

// FileLoader opens file: URIs and plain paths from the local filesystem.
var FileLoader = LoaderFunc(func(uri string) (io.ReadCloser, error) {
	f, err := os.Open(strings.TrimPrefix(uri, "file://"))
	return f, errors.WithStack(err)
})

// Session decodes objects for a DocumentResolver. Each object is decoded
// by a fresh session, whose references are resolved in turn.
type Session interface {
	DecodeObject(c cursor.Cursor, kind feature.ObjectKind) (feature.Object, error)
	Registry() *Registry
	Index() *feature.Index
}

// SessionFunc returns a new decode session for the document systemID.
type SessionFunc func(systemID string) Session

type document struct {
	ids map[string]*xmlquery.Node
	err error
}

// DocumentResolver resolves external references by loading the target
// document, locating the element carrying the referenced gml:id (or GML 2
// fid) and decoding it. Documents and decoded objects are memoized for
// the lifetime of the resolver, so references between external documents
// may form cycles.
type DocumentResolver struct {
	loader     Loader
	newSession SessionFunc

	docs    map[string]*document
	objects map[string]feature.Object
	nested  []Dangling
}

var _ Resolver = (*DocumentResolver)(nil)

// NewDocumentResolver returns a resolver loading documents with loader
// and decoding objects with sessions from newSession.
func NewDocumentResolver(loader Loader, newSession SessionFunc) *DocumentResolver {
	return &DocumentResolver{
		loader:     loader,
		newSession: newSession,
		docs:       map[string]*document{},
		objects:    map[string]feature.Object{},
	}
}

// Nested returns the dangling references found inside objects decoded
// from external documents.
func (r *DocumentResolver) Nested() []Dangling { return append([]Dangling(nil), r.nested...) }

func (r *DocumentResolver) ResolveExternal(ref *feature.Reference) (feature.Object, error) {
	uri, err := ref.Document()
	if err != nil {
		return nil, errors.WithStack(gmlerr.DanglingReference(ref.Href(), gmlerr.WithMessage(err.Error())))
	}
	if uri == "" {
		return nil, errors.WithStack(gmlerr.DanglingReference(ref.Href(), gmlerr.WithMessage("no document")))
	}
	id := ref.Fragment()
	key := uri + "#" + id
	if obj, ok := r.objects[key]; ok {
		return obj, nil
	}

	doc := r.document(uri)
	if doc.err != nil {
		return nil, errors.WithStack(gmlerr.DanglingReference(ref.Href(),
			gmlerr.WithMessagef("loading %s: %v", uri, doc.err)))
	}
	node, ok := doc.ids[id]
	if !ok {
		return nil, errors.WithStack(gmlerr.DanglingReference(ref.Href(),
			gmlerr.WithMessagef("no object with id %q in %s", id, uri)))
	}

	c, err := cursor.Open(strings.NewReader(fragment(node)), cursor.WithSystemID(uri))
	if err == nil {
		_, err = c.NextElement()
	}
	if err != nil {
		return nil, err
	}
	session := r.newSession(uri)
	obj, err := session.DecodeObject(c, ref.Kind())
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", key)
	}
	r.objects[key] = obj
	glog.V(1).Infof("decoded %s for %s", key, ref)

	rep := session.Registry().ResolveAll(session.Index(), r)
	r.nested = append(r.nested, rep.Dangling...)
	return obj, nil
}

func (r *DocumentResolver) document(uri string) *document {
	if doc, ok := r.docs[uri]; ok {
		return doc
	}
	doc := &document{}
	r.docs[uri] = doc

	rc, err := r.loader.Load(uri)
	if err != nil {
		doc.err = err
		return doc
	}
	defer rc.Close()
	root, err := xmlquery.Parse(rc)
	if err != nil {
		doc.err = errors.WithStack(gmlerr.MalformedMarkup(gmlerr.WithMessage(err.Error()),
			gmlerr.WithLocation(gmlerr.Location{SystemID: uri})))
		return doc
	}
	doc.ids = map[string]*xmlquery.Node{}
	for _, n := range xmlquery.QuerySelectorAll(root, xpIdentified) {
		if id := objectID(n); id != "" {
			if _, dup := doc.ids[id]; !dup {
				doc.ids[id] = n
			}
		}
	}
	glog.V(1).Infof("loaded %s: %d identified elements", uri, len(doc.ids))
	return doc
}

var xpIdentified = xpath.MustCompile(`//*[@*[local-name()='id'] or @fid]`)

// objectID returns the gml:id or fid attribute of n.
func objectID(n *xmlquery.Node) string {
	for _, a := range n.Attr {
		switch {
		case a.Name.Local == "id" && (a.NamespaceURI == xmlutil.NSGML32 || a.NamespaceURI == xmlutil.NSGML || a.Name.Space == "gml"):
			return a.Value
		case a.Name.Local == "fid" && a.Name.Space == "":
			return a.Value
		}
	}
	return ""
}

// fragment serializes n wrapped in an element declaring every namespace
// prefix n inherits from its ancestors.
func fragment(n *xmlquery.Node) string {
	var ancestors []*xmlquery.Node
	for p := n.Parent; p != nil; p = p.Parent {
		ancestors = append(ancestors, p)
	}
	scope := xmlutil.PrefixMap{}
	for i := len(ancestors) - 1; i >= 0; i-- {
		var decls []xml.Attr
		for _, a := range ancestors[i].Attr {
			if attr := (xml.Attr{Name: a.Name, Value: a.Value}); xmlutil.IsNamespaceDecl(attr) {
				decls = append(decls, attr)
			}
		}
		scope = scope.Merge(xmlutil.NewPrefixMap(decls...))
	}

	var sb strings.Builder
	sb.WriteString("<_")
	for _, a := range scope.Attr() {
		sb.WriteString(" ")
		if a.Name.Space != "" {
			sb.WriteString(a.Name.Space + ":")
		}
		sb.WriteString(a.Name.Local + `="` + escapeAttr(a.Value) + `"`)
	}
	sb.WriteString(">")
	sb.WriteString(n.OutputXML(true))
	sb.WriteString("</_>")
	return sb.String()
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;")

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
