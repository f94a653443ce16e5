// Package reference collects the xlink:href references met while decoding
// and resolves them in a separate pass, once every object of the document
// has been decoded. Local references resolve against the session's object
// index, including forward references; external references resolve
// through a Resolver, typically a DocumentResolver.
package reference

import (
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/gmlerr"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Resolver resolves references into other documents.
type Resolver interface {
	ResolveExternal(ref *feature.Reference) (feature.Object, error)
}

// Registry holds the references of one decode session.
type Registry struct {
	refs []*feature.Reference
	seen map[*feature.Reference]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: map[*feature.Reference]bool{}}
}

// Register adds ref. Registering the same reference again has no effect.
func (r *Registry) Register(ref *feature.Reference) {
	if ref == nil || r.seen[ref] {
		return
	}
	r.seen[ref] = true
	r.refs = append(r.refs, ref)
}

// Merge registers the references of other.
func (r *Registry) Merge(other *Registry) {
	for _, ref := range other.refs {
		r.Register(ref)
	}
}

// References returns all registered references in registration order.
func (r *Registry) References() []*feature.Reference {
	return append([]*feature.Reference(nil), r.refs...)
}

// Pending returns the references not yet resolved or marked dangling.
func (r *Registry) Pending() (out []*feature.Reference) {
	for _, ref := range r.refs {
		if ref.State() == feature.RefPending {
			out = append(out, ref)
		}
	}
	return
}

func (r *Registry) Len() int { return len(r.refs) }

// Dangling is a reference that could not be resolved.
type Dangling struct {
	Reference *feature.Reference
	Err       error
}

// Report summarises a resolution pass.
type Report struct {
	Resolved int
	Dangling []Dangling
}

// Err returns the first dangling reference error, or nil.
func (rep *Report) Err() error {
	if len(rep.Dangling) == 0 {
		return nil
	}
	return rep.Dangling[0].Err
}

// ResolveAll resolves every pending reference. Local references are
// looked up in index; a local reference missing from index, or any other
// reference, is passed to external when it is non-nil. References that
// cannot be resolved are marked dangling and reported; one dangling
// reference does not stop the resolution of the others.
func (r *Registry) ResolveAll(index *feature.Index, external Resolver) *Report {
	rep := &Report{}
	for _, ref := range r.Pending() {
		// resolution of an earlier reference may have resolved this one
		// through a shared external document
		if ref.State() != feature.RefPending {
			continue
		}
		if err := resolve(ref, index, external); err != nil {
			ref.MarkDangling(errors.Cause(err).Error())
			if e, ok := gmlerr.As(err); !ok || e.Type != gmlerr.TypeReference {
				err = errors.WithStack(gmlerr.DanglingReference(ref.Href(), gmlerr.WithMessage(err.Error())))
			}
			glog.Warningf("dangling %s: %v", ref, err)
			rep.Dangling = append(rep.Dangling, Dangling{Reference: ref, Err: err})
			continue
		}
		glog.V(1).Infof("resolved %s", ref)
		rep.Resolved++
	}
	return rep
}

func resolve(ref *feature.Reference, index *feature.Index, external Resolver) error {
	if ref.IsLocal() && index != nil {
		if obj, ok := index.Object(ref.Fragment()); ok {
			return ref.Resolve(obj)
		}
	}
	if ref.IsLocal() && (external == nil || ref.Base() == "") {
		return errors.WithStack(gmlerr.DanglingReference(ref.Href(),
			gmlerr.WithMessagef("no object with id %q", ref.Fragment())))
	}
	if external == nil {
		return errors.WithStack(gmlerr.DanglingReference(ref.Href(),
			gmlerr.WithMessage("external reference and no resolver")))
	}
	obj, err := external.ResolveExternal(ref)
	if err != nil {
		return err
	}
	return ref.Resolve(obj)
}
