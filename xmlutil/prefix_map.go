package xmlutil

import (
	"encoding/xml"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// PrefixMap is a prefix to namespace URI map
type PrefixMap map[string]string

// NewPrefixMap returns a PrefixMap, containing the passed XML attributes
func NewPrefixMap(attrs ...xml.Attr) PrefixMap {
	pmap := PrefixMap{}
	for _, attr := range attrs {
		switch {
		case attr.Name.Space == "xmlns":
			pmap[attr.Name.Local] = attr.Value
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			pmap[""] = attr.Value
		}
	}
	return pmap
}

// Attr returns the prefix map contents as a series of xmlns:<prefix>=<nsuri> attributes,
// sorted lexically by prefix. The default namespace, if any, is rendered as xmlns=<nsuri>.
func (m PrefixMap) Attr() (a []xml.Attr) {
	for k, v := range m {
		if k == "" {
			a = append(a, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: v})
			continue
		}
		a = append(a, xml.Attr{Name: xml.Name{Space: "xmlns", Local: k}, Value: v})
	}
	if len(a) > 0 {
		// sort lexically by prefix
		sort.Slice(a, func(i int, j int) bool { return a[i].Name.Local < a[j].Name.Local })
	}
	return a
}

// Namespace returns the namespace URI for the given prefix
func (m PrefixMap) Namespace(prefix string) string { return m[prefix] }

// Merge returns a new PrefixMap holding m's entries overridden by those in inner.
func (m PrefixMap) Merge(inner PrefixMap) PrefixMap {
	out := make(PrefixMap, len(m)+len(inner))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range inner {
		out[k] = v
	}
	return out
}

// Resolve expands a prefixed name (pfx:local) into an xml.Name. Unprefixed
// names take the default namespace, if one is mapped.
func (m PrefixMap) Resolve(qname string) (xml.Name, error) {
	qname = strings.TrimSpace(qname)
	if qname == "" {
		return xml.Name{}, errors.Errorf("empty qualified name")
	}
	pfx, local, ok := strings.Cut(qname, ":")
	if !ok {
		return xml.Name{Space: m[""], Local: qname}, nil
	}
	ns, found := m[pfx]
	if !found {
		return xml.Name{}, errors.Errorf("unbound prefix %q in %q", pfx, qname)
	}
	return xml.Name{Space: ns, Local: local}, nil
}
