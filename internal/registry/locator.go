package registry

import "finderkit/internal/metamodel"

// Locator serves the type-index lookups: resolving a qualified type name to
// its physical identifier, fetching structural details, and writing updated
// annotations back. It satisfies the finder package's TypeLocator and
// TypeWriter interfaces.
type Locator struct {
	store *Store
}

// NewLocator returns a type locator over the registry.
func NewLocator(store *Store) *Locator { return &Locator{store: store} }

// PhysicalTypeID resolves a qualified type name to the identifier of its
// type record.
func (l *Locator) PhysicalTypeID(name metamodel.TypeName) (string, bool) {
	rec, ok := l.store.TypeByName(name)
	if !ok {
		return "", false
	}
	return rec.ID, true
}

// TypeDetails fetches the structural details of a physical type.
func (l *Locator) TypeDetails(id string) (*metamodel.TypeDetails, bool) {
	rec, ok := l.store.TypeByID(id)
	if !ok {
		return nil, false
	}
	return rec.Details(), true
}

// UpdateTypeAnnotation persists one annotation on the type record, leaving
// all other record state untouched.
func (l *Locator) UpdateTypeAnnotation(id string, ann metamodel.Annotation) error {
	return l.store.UpdateTypeAnnotation(id, ann)
}

// Resolver serves the entity-index lookups. It is deliberately a separate
// service from Locator: the two indexes are maintained independently and the
// finder operations surface their disagreement as a consistency failure.
type Resolver struct {
	store *Store
}

// NewResolver returns an entity metadata resolver over the registry.
func NewResolver(store *Store) *Resolver { return &Resolver{store: store} }

// EntityMetadata fetches the persistence metadata of a managed entity.
func (r *Resolver) EntityMetadata(id string) (*metamodel.EntityMetadata, bool) {
	rec, ok := r.store.EntityByID(id)
	if !ok {
		return nil, false
	}
	return rec.Metadata(), true
}

// PhysicalDetails fetches the physical type record through the entity
// subsystem's own path. An entity row whose type row is gone yields false.
func (r *Resolver) PhysicalDetails(id string) (*metamodel.TypeDetails, bool) {
	if _, ok := r.store.EntityByID(id); !ok {
		return nil, false
	}
	rec, ok := r.store.TypeByID(id)
	if !ok {
		return nil, false
	}
	return rec.Details(), true
}

// IdentifierFields returns the names of the entity's identity fields.
func (r *Resolver) IdentifierFields(id string) []metamodel.Symbol {
	rec, ok := r.store.EntityByID(id)
	if !ok {
		return nil
	}
	return append([]metamodel.Symbol(nil), rec.IDFields...)
}

// VersionField returns the entity's version field, if it has one.
func (r *Resolver) VersionField(id string) (metamodel.Symbol, bool) {
	rec, ok := r.store.EntityByID(id)
	if !ok || rec.VersionField == "" {
		return "", false
	}
	return rec.VersionField, true
}

// Scanner flattens structural details into the member view the query grammar
// works over.
type Scanner struct{}

// Scan returns the members of the type in declaration order.
func (Scanner) Scan(details *metamodel.TypeDetails) *metamodel.MemberDetails {
	if details == nil {
		return &metamodel.MemberDetails{}
	}
	return &metamodel.MemberDetails{Fields: append([]metamodel.Field(nil), details.Fields...)}
}
