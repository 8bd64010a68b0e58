package gen

import (
	"fmt"

	"github.com/syssam/apigen/log"
)

// Warning is a non-fatal finding of the resolver.
type Warning struct {
	Type    string `json:"type" yaml:"type"`
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// String returns the warning as "Type.field: message".
func (w Warning) String() string {
	return fmt.Sprintf("%s.%s: %s", w.Type, w.Field, w.Message)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger of the resolver.
func WithLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithFatalWarnings makes the resolver fail on warnings. It overrides the
// strict mode of the graph configuration.
func WithFatalWarnings(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// Resolver infers the relation of every reference field in a graph.
//
// Each reference field is tested against the relation kinds in a fixed
// order, O2O, M2O, O2M and M2M, and the first kind that holds wins. The
// resolver assigns the relation kind, the foreign-key and back-reference
// roles and the referenced column of the field and of its inverse. Running
// it again over a resolved graph changes nothing.
type Resolver struct {
	graph    *Graph
	log      *log.Logger
	strict   bool
	warnings []Warning

	// x-uselist: true scalars that no detector matched yet.
	unmatched []*Field
}

// NewResolver creates a resolver for the graph. Strict mode defaults to the
// graph configuration.
func NewResolver(g *Graph, opts ...ResolverOption) *Resolver {
	r := &Resolver{graph: g, log: log.Nop()}
	if g.Config != nil {
		r.strict = g.IsStrict()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Warnings returns the warnings of the last Resolve call.
func (r *Resolver) Warnings() []Warning {
	return r.warnings
}

// detectors are tried in priority order. O2O comes before M2O, since a
// scalar reference with x-uselist: false matches both.
var detectors = []struct {
	rel    Rel
	detect func(*Resolver, *Field, *Type) error
}{
	{O2O, (*Resolver).oneToOne},
	{M2O, (*Resolver).manyToOne},
	{O2M, (*Resolver).oneToMany},
	{M2M, (*Resolver).manyToMany},
}

// Resolve resolves the relations of all reference fields in place. The first
// error aborts the pass, and the graph must be discarded.
func (r *Resolver) Resolve() error {
	r.warnings, r.unmatched = nil, nil
	for _, t := range r.graph.Nodes {
		for _, f := range t.Fields {
			if !f.IsReference() {
				continue
			}
			target, ok := r.graph.Linked(f.Link)
			if !ok {
				r.log.Debug().Str("type", t.Name).Str("field", f.Name).Str("link", f.Link).Msg("skip reference to unknown entity")
				r.warn(f, fmt.Sprintf("reference to %q does not name an entity", f.Link))
				continue
			}
			if err := r.resolve(f, target); err != nil {
				return err
			}
		}
	}
	for _, f := range r.unmatched {
		if f.Rel == Unk {
			r.warn(f, fmt.Sprintf("x-uselist: true on a scalar reference to %q matches no relation", f.Link))
		}
	}
	if r.strict && len(r.warnings) > 0 {
		w := r.warnings[0]
		return NewSchemaError(w.Type, w.Field, w.Message, nil)
	}
	return nil
}

func (r *Resolver) resolve(f *Field, target *Type) error {
	// Inverse sides are wired by their owning field.
	if f.BackRefColumn && f.IsRelation() {
		return r.checkInverse(f)
	}
	for _, d := range detectors {
		if err := d.detect(r, f, target); err != nil {
			return err
		}
		if f.Rel == d.rel {
			r.log.Debug().
				Str("type", f.typ.Name).
				Str("field", f.Name).
				Stringer("rel", f.Rel).
				Str("ref", f.ref.String()).
				Msg("relation resolved")
			return nil
		}
	}
	switch {
	case f.Type.scalarRef() && f.UseList != nil && *f.UseList:
		// An array of the target may still take it as its owning side.
		r.unmatched = append(r.unmatched, f)
	default:
		r.warn(f, fmt.Sprintf("reference to %q was not resolved to a relation", f.Link))
	}
	return nil
}

// oneToOne handles scalar references with x-uselist: false. The field owns the
// join column. With an x-backref, the named field of the target becomes the
// inverse side.
func (r *Resolver) oneToOne(f *Field, target *Type) error {
	if !f.Type.scalarRef() || f.UseList == nil || *f.UseList {
		return nil
	}
	pk, err := target.primaryKey(f.String())
	if err != nil {
		return err
	}
	if err := r.setRel(f, O2O); err != nil {
		return err
	}
	if err := r.bind(f, pk); err != nil {
		return err
	}
	f.ForeignKey = true
	if f.BackRef == "" {
		return nil
	}
	inverse, ok := target.FieldByName(f.BackRef)
	if !ok {
		return NewReferencedColumnError(f.typ.Name, f.Name, "",
			fmt.Sprintf("couldn't find a referenced column %s in an entity %s", f.BackRef, target.Name))
	}
	if done, err := r.checkReferencedColumn(inverse, f); done || err != nil {
		return err
	}
	if inverse.BackRef != "" {
		return NewReferencedColumnError(f.typ.Name, f.Name, inverse.String(),
			"the back referenced column has to be only from one side")
	}
	if err := r.setRel(inverse, O2O); err != nil {
		return err
	}
	if err := r.bind(inverse, f); err != nil {
		return err
	}
	inverse.BackRefColumn = true
	return nil
}

// manyToOne handles scalar references without an x-uselist hint. The field
// owns the join column, and an array field of the target that links back
// becomes its O2M inverse side.
func (r *Resolver) manyToOne(f *Field, target *Type) error {
	if !f.Type.scalarRef() || f.UseList != nil {
		return nil
	}
	pk, err := target.primaryKey(f.String())
	if err != nil {
		return err
	}
	if err := r.setRel(f, M2O); err != nil {
		return err
	}
	if err := r.bind(f, pk); err != nil {
		return err
	}
	f.ForeignKey = true
	related, err := r.relatedField(target, f)
	if err != nil || related == nil {
		return err
	}
	if !related.IsArray() {
		return NewPropertyTypeError(related.typ.Name, related.Name, TypeArray, related.Type)
	}
	if done, err := r.checkReferencedColumn(related, f); done || err != nil {
		return err
	}
	if err := r.setRel(related, O2M); err != nil {
		return err
	}
	if err := r.bind(related, f); err != nil {
		return err
	}
	related.BackRefColumn = true
	return nil
}

// oneToMany handles array references whose target links back with a scalar
// field. The scalar field becomes the M2O owner of the join column.
func (r *Resolver) oneToMany(f *Field, target *Type) error {
	if !f.IsArray() {
		return nil
	}
	related, err := r.relatedField(target, f)
	if err != nil || related == nil || !related.Type.scalarRef() {
		return err
	}
	// The owning side of a one-to-one is never the owner of a collection.
	if related.UseList != nil && !*related.UseList {
		return nil
	}
	pk, err := f.typ.primaryKey(related.String())
	if err != nil {
		return err
	}
	done, err := r.checkReferencedColumn(related, pk)
	if err != nil {
		return err
	}
	if !done {
		if err := r.setRel(related, M2O); err != nil {
			return err
		}
		if err := r.bind(related, pk); err != nil {
			return err
		}
		related.ForeignKey = true
	}
	// An owner that already has an inverse side is not paired twice.
	if inv := inverseOf(related, f.typ); inv != nil && inv != f {
		return nil
	}
	if err := r.setRel(f, O2M); err != nil {
		return err
	}
	if err := r.bind(f, related); err != nil {
		return err
	}
	f.BackRefColumn = true
	return nil
}

// manyToMany handles array references whose target links back with an array
// field. Each side references the primary key of the other type. An array
// that references its own type without a counterpart pairs with itself.
func (r *Resolver) manyToMany(f *Field, target *Type) error {
	if !f.IsArray() {
		return nil
	}
	related, err := r.relatedField(target, f)
	if err != nil {
		return err
	}
	if related == nil {
		if target != f.typ {
			return nil
		}
		related = f
	}
	pk, err := f.typ.primaryKey(related.String())
	if err != nil {
		return err
	}
	if done, err := r.checkReferencedColumn(related, pk); done || err != nil {
		return err
	}
	if !related.IsArray() {
		return nil
	}
	targetPK, err := target.primaryKey(f.String())
	if err != nil {
		return err
	}
	if err := r.setRel(related, M2M); err != nil {
		return err
	}
	if err := r.bind(related, pk); err != nil {
		return err
	}
	if err := r.setRel(f, M2M); err != nil {
		return err
	}
	return r.bind(f, targetPK)
}

// checkInverse verifies that the owning field of an inverse side still
// points back at the inverse side's type.
func (r *Resolver) checkInverse(f *Field) error {
	owner := f.ReferencedColumn()
	if owner == nil {
		return NewReferencedColumnError(f.typ.Name, f.Name, f.ref.String(), "the referenced column does not exist")
	}
	back := owner.ReferencedColumn()
	if !owner.ForeignKey || owner.Rel != f.Rel.Inverse() || back == nil || back.typ != f.typ {
		return NewReferencedColumnError(owner.typ.Name, owner.Name, f.String(),
			fmt.Sprintf("the %s relation does not point back to %s", owner.Rel, f.typ.Name))
	}
	return nil
}

// inverseOf returns the field of t that is the inverse side of owner.
func inverseOf(owner *Field, t *Type) *Field {
	id := owner.ID()
	for _, f := range t.Fields {
		if f.BackRefColumn && f.ref == id {
			return f
		}
	}
	return nil
}

// relatedField returns the field of target that links back to the type of f.
// More than one candidate is reported, and the first one is used.
func (r *Resolver) relatedField(target *Type, f *Field) (*Field, error) {
	fields := target.RelatedFields(f.typ.OriginName, f)
	switch len(fields) {
	case 0:
		return nil, nil
	case 1:
		return fields[0], nil
	}
	msg := fmt.Sprintf("%d fields of %s link to %s, using %s", len(fields), target.Name, f.typ.Name, fields[0].Name)
	if r.strict {
		return nil, NewReferencedColumnError(f.typ.Name, f.Name, fields[0].String(), msg)
	}
	r.warn(f, msg)
	return fields[0], nil
}

// checkReferencedColumn reports if f is already paired with want. It fails if
// f is paired with another column.
func (r *Resolver) checkReferencedColumn(f, want *Field) (bool, error) {
	switch {
	case f.ref.IsZero():
		return false, nil
	case f.ref == want.ID():
		return true, nil
	default:
		return false, NewReferencedColumnError(f.typ.Name, f.Name, f.ref.String(),
			fmt.Sprintf("wrong referenced column %s", want))
	}
}

// bind pairs f with the column to. A field is never re-paired with a
// different column.
func (r *Resolver) bind(f, to *Field) error {
	id := to.ID()
	switch {
	case f.ref.IsZero():
		f.ref = id
	case f.ref != id:
		return NewReferencedColumnError(f.typ.Name, f.Name, f.ref.String(),
			fmt.Sprintf("cannot change the referenced column to %s", id))
	}
	return nil
}

// setRel assigns the relation kind of f. A resolved kind never changes.
func (r *Resolver) setRel(f *Field, rel Rel) error {
	if f.Rel != Unk && f.Rel != rel {
		return NewReferencedColumnError(f.typ.Name, f.Name, f.ref.String(),
			fmt.Sprintf("relation is already resolved as %s, cannot change to %s", f.Rel, rel))
	}
	f.Rel = rel
	return nil
}

func (r *Resolver) warn(f *Field, msg string) {
	w := Warning{Type: f.typ.Name, Field: f.Name, Message: msg}
	for _, prev := range r.warnings {
		if prev == w {
			return
		}
	}
	r.warnings = append(r.warnings, w)
	r.log.Warn().Str("type", w.Type).Str("field", w.Field).Msg(w.Message)
}

// Resolve resolves the relations of the graph with a new Resolver and
// returns its warnings.
func (g *Graph) Resolve(opts ...ResolverOption) ([]Warning, error) {
	r := NewResolver(g, opts...)
	if err := r.Resolve(); err != nil {
		return r.Warnings(), err
	}
	return r.Warnings(), nil
}
