package catalog

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/andaru/gml/xmlutil"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type yamlSchema struct {
	Version      Version           `yaml:"version"`
	Namespaces   map[string]string `yaml:"namespaces"`
	ComplexTypes []yamlComplexType `yaml:"complexTypes"`
	FeatureTypes []yamlFeatureType `yaml:"featureTypes"`
}

type yamlAttribute struct {
	Name     string        `yaml:"name"`
	Type     PrimitiveType `yaml:"type"`
	Required bool          `yaml:"required"`
}

type yamlElement struct {
	Name        string        `yaml:"name"`
	Type        PrimitiveType `yaml:"type"`
	Nillable    bool          `yaml:"nillable"`
	ComplexType string        `yaml:"complexType"`
	Property    *yamlProperty `yaml:"property"`
}

type yamlComplexType struct {
	Name       string          `yaml:"name"`
	Content    ContentType     `yaml:"content"`
	Text       PrimitiveType   `yaml:"text"`
	AnyChild   bool            `yaml:"anyChild"`
	Attributes []yamlAttribute `yaml:"attributes"`
	Children   []yamlElement   `yaml:"children"`
}

type yamlProperty struct {
	Name        string          `yaml:"name"`
	Kind        Kind            `yaml:"kind"`
	Type        PrimitiveType   `yaml:"type"`
	MinOccurs   *int            `yaml:"minOccurs"`
	MaxOccurs   string          `yaml:"maxOccurs"`
	Nillable    bool            `yaml:"nillable"`
	Abstract    bool            `yaml:"abstract"`
	ValueType   string          `yaml:"valueType"`
	Geometries  []GeometryType  `yaml:"geometries"`
	ComplexType string          `yaml:"complexType"`
	Attributes  []yamlAttribute `yaml:"attributes"`
	Substitutes []yamlProperty  `yaml:"substitutes"`
}

type yamlFeatureType struct {
	Name       string         `yaml:"name"`
	Parent     string         `yaml:"parent"`
	Abstract   bool           `yaml:"abstract"`
	Properties []yamlProperty `yaml:"properties"`
}

// LoadYAML reads a schema from its YAML description. Qualified names are
// written prefix:local using the prefixes of the namespaces mapping;
// unprefixed names take the "" (default) namespace.
//
//	version: "3.2"
//	namespaces:
//	  "": urn:app
//	featureTypes:
//	  - name: Road
//	    properties:
//	      - {name: name, kind: simple, type: string}
//	      - {name: centerline, kind: geometry, geometries: [curve]}
func LoadYAML(r io.Reader) (*Schema, error) {
	var doc yamlSchema
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "catalog yaml")
	}
	l := &yamlLoader{
		doc:          &doc,
		pmap:         xmlutil.PrefixMap(doc.Namespaces).Merge(nil),
		b:            NewBuilder(doc.Version),
		complexTypes: map[xml.Name]*ComplexType{},
		featureTypes: map[xml.Name]*FeatureType{},
		pending:      map[xml.Name]bool{},
	}
	if _, ok := l.pmap["gml"]; !ok {
		l.pmap["gml"] = doc.Version.Namespace()
	}
	return l.load()
}

type yamlLoader struct {
	doc          *yamlSchema
	pmap         xmlutil.PrefixMap
	b            *Builder
	complexTypes map[xml.Name]*ComplexType
	featureTypes map[xml.Name]*FeatureType
	pending      map[xml.Name]bool
	byName       map[xml.Name]*yamlFeatureType
}

func (l *yamlLoader) load() (*Schema, error) {
	l.b.Namespaces(l.pmap)

	// complex types may refer to each other, so declare them all first
	for _, yct := range l.doc.ComplexTypes {
		name, err := l.name(yct.Name)
		if err != nil {
			return nil, err
		}
		ct := &ComplexType{Name: name, Content: yct.Content, Text: yct.Text, AnyChild: yct.AnyChild}
		l.complexTypes[name] = ct
		l.b.ComplexType(ct)
	}
	for _, yct := range l.doc.ComplexTypes {
		if err := l.fillComplexType(yct); err != nil {
			return nil, err
		}
	}

	l.byName = make(map[xml.Name]*yamlFeatureType, len(l.doc.FeatureTypes))
	for i := range l.doc.FeatureTypes {
		yft := &l.doc.FeatureTypes[i]
		name, err := l.name(yft.Name)
		if err != nil {
			return nil, err
		}
		if _, ok := l.byName[name]; ok {
			return nil, errors.Errorf("feature type %s declared twice", xmlutil.Clark(name))
		}
		l.byName[name] = yft
	}
	for _, yft := range l.doc.FeatureTypes {
		name, _ := l.name(yft.Name)
		ft, err := l.featureType(name)
		if err != nil {
			return nil, err
		}
		l.b.FeatureType(ft)
	}
	return l.b.Build()
}

func (l *yamlLoader) name(qname string) (xml.Name, error) {
	name, err := l.pmap.Resolve(qname)
	return name, errors.WithStack(err)
}

func (l *yamlLoader) optionalName(qname string) (xml.Name, error) {
	if strings.TrimSpace(qname) == "" {
		return xml.Name{}, nil
	}
	return l.name(qname)
}

func (l *yamlLoader) complexType(qname string) (*ComplexType, error) {
	name, err := l.name(qname)
	if err != nil {
		return nil, err
	}
	ct, ok := l.complexTypes[name]
	if !ok {
		return nil, errors.Errorf("unknown complex type %s", qname)
	}
	return ct, nil
}

func (l *yamlLoader) fillComplexType(yct yamlComplexType) error {
	ct, err := l.complexType(yct.Name)
	if err != nil {
		return err
	}
	if ct.Attributes, err = l.attributes(yct.Attributes); err != nil {
		return errors.Wrapf(err, "complex type %s", yct.Name)
	}
	for _, ye := range yct.Children {
		d, err := l.element(ye)
		if err != nil {
			return errors.Wrapf(err, "complex type %s", yct.Name)
		}
		ct.Children = append(ct.Children, d)
	}
	return nil
}

func (l *yamlLoader) attributes(yas []yamlAttribute) ([]*AttributeDecl, error) {
	var out []*AttributeDecl
	for _, ya := range yas {
		// unprefixed attribute names are in no namespace
		name := xml.Name{Local: ya.Name}
		if strings.Contains(ya.Name, ":") {
			var err error
			if name, err = l.name(ya.Name); err != nil {
				return nil, err
			}
		}
		out = append(out, &AttributeDecl{Name: name, Type: ya.Type, Required: ya.Required})
	}
	return out, nil
}

func (l *yamlLoader) element(ye yamlElement) (*ElementDecl, error) {
	name, err := l.name(ye.Name)
	if err != nil {
		return nil, err
	}
	d := &ElementDecl{Name: name, Nillable: ye.Nillable, Primitive: ye.Type}
	if ye.ComplexType != "" {
		if d.Type, err = l.complexType(ye.ComplexType); err != nil {
			return nil, err
		}
	}
	if ye.Property != nil {
		yp := *ye.Property
		if yp.Name == "" {
			yp.Name = ye.Name
		}
		if d.Property, err = l.property(yp); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (l *yamlLoader) featureType(name xml.Name) (*FeatureType, error) {
	if ft, ok := l.featureTypes[name]; ok {
		return ft, nil
	}
	yft, ok := l.byName[name]
	if !ok {
		return nil, errors.Errorf("unknown feature type %s", xmlutil.Clark(name))
	}
	if l.pending[name] {
		return nil, errors.Errorf("feature type %s derives from itself", xmlutil.Clark(name))
	}
	l.pending[name] = true
	defer delete(l.pending, name)

	var parent *FeatureType
	if yft.Parent != "" {
		pname, err := l.name(yft.Parent)
		if err != nil {
			return nil, err
		}
		if parent, err = l.featureType(pname); err != nil {
			return nil, err
		}
	}
	var props []*PropertyType
	for _, yp := range yft.Properties {
		p, err := l.property(yp)
		if err != nil {
			return nil, errors.Wrapf(err, "feature type %s", yft.Name)
		}
		props = append(props, p)
	}
	ft := NewFeatureType(name, parent, props...)
	ft.Abstract = yft.Abstract
	l.featureTypes[name] = ft
	return ft, nil
}

func (l *yamlLoader) property(yp yamlProperty) (*PropertyType, error) {
	name, err := l.name(yp.Name)
	if err != nil {
		return nil, err
	}
	p := &PropertyType{
		Name:       name,
		Kind:       yp.Kind,
		MinOccurs:  1,
		Nillable:   yp.Nillable,
		Abstract:   yp.Abstract,
		Primitive:  yp.Type,
		Geometries: yp.Geometries,
	}
	if yp.MinOccurs != nil {
		p.MinOccurs = *yp.MinOccurs
	}
	if p.MaxOccurs, err = parseMaxOccurs(yp.MaxOccurs); err != nil {
		return nil, errors.Wrapf(err, "property %s", yp.Name)
	}
	if p.ValueType, err = l.optionalName(yp.ValueType); err != nil {
		return nil, err
	}
	if yp.ComplexType != "" || len(yp.Attributes) > 0 {
		p.Element = &ElementDecl{Name: name, Nillable: yp.Nillable, Primitive: yp.Type}
		if yp.ComplexType != "" {
			if p.Element.Type, err = l.complexType(yp.ComplexType); err != nil {
				return nil, err
			}
		} else {
			p.Element.Type = &ComplexType{Name: name, Content: ContentSimple, Text: yp.Type}
		}
		if len(yp.Attributes) > 0 {
			attrs, err := l.attributes(yp.Attributes)
			if err != nil {
				return nil, err
			}
			if yp.ComplexType != "" {
				// extend a copy, the named type is shared
				ct := *p.Element.Type
				ct.Attributes = append(append([]*AttributeDecl(nil), ct.Attributes...), attrs...)
				p.Element.Type = &ct
			} else {
				p.Element.Type.Attributes = attrs
			}
		}
	}
	for _, ys := range yp.Substitutes {
		if ys.Kind == KindSimple && ys.Type == PrimitiveUntyped {
			ys.Kind, ys.Type = yp.Kind, yp.Type
		}
		s, err := l.property(ys)
		if err != nil {
			return nil, err
		}
		p.AddSubstitution(s)
	}
	return p, nil
}

func parseMaxOccurs(s string) (int, error) {
	switch s = strings.TrimSpace(s); s {
	case "":
		return 1, nil
	case "unbounded", "*":
		return Unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.Errorf("invalid maxOccurs %q", s)
	}
	return n, nil
}
