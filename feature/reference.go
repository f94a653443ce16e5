package feature

import (
	"net/url"
	"strings"

	"github.com/andaru/gml/gmlerr"
	"github.com/pkg/errors"
)

var (
	// ErrUnresolved is returned when reading through a reference that the
	// resolution pass has not yet handled.
	ErrUnresolved = errors.New("reference is not resolved")
	// ErrDangling is returned when reading through a reference that could
	// not be resolved.
	ErrDangling = errors.New("reference is dangling")
)

// RefState is the resolution state of a Reference.
type RefState int

const (
	RefPending RefState = iota
	RefResolved
	RefDangling
)

func (s RefState) String() string {
	switch s {
	case RefPending:
		return "pending"
	case RefResolved:
		return "resolved"
	case RefDangling:
		return "dangling"
	}
	return "unknown"
}

// Reference is an xlink:href to an object of a given kind. A reference
// starts pending and moves once to resolved or dangling.
type Reference struct {
	href   string
	kind   ObjectKind
	base   string
	state  RefState
	target Object
	reason string
}

// NewReference returns a pending reference. base is the system id of the
// referencing document, against which relative hrefs resolve.
func NewReference(href string, kind ObjectKind, base string) *Reference {
	return &Reference{href: strings.TrimSpace(href), kind: kind, base: base}
}

func (r *Reference) Href() string     { return r.href }
func (r *Reference) Kind() ObjectKind { return r.kind }
func (r *Reference) Base() string     { return r.base }
func (r *Reference) State() RefState  { return r.state }
func (r *Reference) Reason() string   { return r.reason }
func (r *Reference) String() string   { return r.kind.String() + " reference " + r.href }

func (*Reference) isValue() {}

// IsLocal reports whether the href is a bare fragment identifier, that
// is a reference into the referencing document.
func (r *Reference) IsLocal() bool { return strings.HasPrefix(r.href, "#") }

// Fragment returns the object identifier part of the href.
func (r *Reference) Fragment() string {
	if i := strings.IndexByte(r.href, '#'); i >= 0 {
		return r.href[i+1:]
	}
	return ""
}

// Document returns the absolute URI of the referenced document, resolved
// against the base of the reference.
func (r *Reference) Document() (string, error) {
	if r.IsLocal() {
		return r.base, nil
	}
	ref, err := url.Parse(r.href)
	if err != nil {
		return "", errors.Wrapf(err, "href %q", r.href)
	}
	ref.Fragment, ref.RawFragment = "", ""
	if r.base == "" {
		return ref.String(), nil
	}
	base, err := url.Parse(r.base)
	if err != nil {
		return "", errors.Wrapf(err, "base %q", r.base)
	}
	return base.ResolveReference(ref).String(), nil
}

// Object returns the target of a resolved reference.
func (r *Reference) Object() (Object, error) {
	switch r.state {
	case RefResolved:
		return r.target, nil
	case RefDangling:
		return nil, errors.Wrapf(ErrDangling, "%s: %s", r, r.reason)
	}
	return nil, errors.Wrap(ErrUnresolved, r.String())
}

// Resolve sets the target of a pending reference. The target must be of
// the kind the reference denotes.
func (r *Reference) Resolve(obj Object) error {
	if r.state != RefPending {
		return errors.Errorf("%s is already %s", r, r.state)
	}
	if obj == nil {
		return errors.Errorf("%s: nil target", r)
	}
	if r.kind != ObjectGeneric && obj.ObjectKind() != r.kind {
		return errors.WithStack(gmlerr.DanglingReference(r.href,
			gmlerr.WithMessagef("target %q is a %s, want a %s", obj.ID(), obj.ObjectKind(), r.kind)))
	}
	r.state, r.target = RefResolved, obj
	return nil
}

// MarkDangling records that the reference cannot be resolved.
func (r *Reference) MarkDangling(reason string) {
	if r.state == RefPending {
		r.state, r.reason = RefDangling, reason
	}
}
