package finder

import (
	"fmt"
	"sort"

	"finderkit/internal/metamodel"
)

// List enumerates every finder name derivable from the entity's members up
// to depth, resolves each one independently, and returns the rendered
// signatures as a sorted, duplicate-free slice. A name that fails semantic
// resolution becomes a "name - failure" entry; one bad name never aborts the
// batch. Unknown types and non-entities are hard failures here, unlike
// Install.
func (o *Operations) List(name metamodel.TypeName, depth int) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("type name required")
	}

	id, ok := o.locator.PhysicalTypeID(name)
	if !ok {
		return nil, fmt.Errorf("cannot locate source for %q", name)
	}

	meta, ok := o.metadata.EntityMetadata(id)
	if !ok {
		return nil, fmt.Errorf("cannot provide finders because %q is not a managed entity", name)
	}

	// Second resolution of the physical type through the entity subsystem's
	// own path. Both indexes answered for this id above, so absence here is
	// an internal consistency breach, not a user error.
	details, ok := o.metadata.PhysicalDetails(id)
	if !ok {
		return nil, fmt.Errorf("could not determine physical type details for %q", name)
	}
	members := o.scanner.Scan(details)

	// Identity, version, and manager fields are infrastructure, never finder
	// material.
	exclusions := map[metamodel.Symbol]struct{}{
		meta.ManagerField: {},
	}
	for _, idField := range o.metadata.IdentifierFields(id) {
		exclusions[idField] = struct{}{}
	}
	if version, ok := o.metadata.VersionField(id); ok {
		exclusions[version] = struct{}{}
	}

	names := o.queries.Finders(members, meta.Plural, depth, exclusions)
	rendered := make(map[string]struct{}, len(names))
	for _, candidate := range names {
		rendered[o.renderOne(members, candidate, meta)] = struct{}{}
	}
	if len(rendered) != len(names) {
		// Name derivation guarantees unique names, so identical rendered
		// entries should be unreachable; collapsing is safe but worth noting.
		o.log.Warn().
			Str("type", string(name)).
			Int("derived", len(names)).
			Int("rendered", len(rendered)).
			Msg("duplicate rendered finder entries collapsed")
	}

	out := make([]string, 0, len(rendered))
	for entry := range rendered {
		out = append(out, entry)
	}
	sort.Strings(out)
	return out, nil
}

// renderOne resolves a single candidate and renders its signature, degrading
// to the failure marker on any resolution error or panic from the grammar
// service.
func (o *Operations) renderOne(members *metamodel.MemberDetails, candidate metamodel.Symbol, meta *metamodel.EntityMetadata) (entry string) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Debug().Str("finder", string(candidate)).Any("panic", r).Msg("finder resolution panicked")
			entry = string(candidate) + " - failure"
		}
	}()
	sig, err := o.queries.Resolve(members, candidate, meta.Plural, meta.EntityName)
	if err != nil || sig == nil {
		return string(candidate) + " - failure"
	}
	return sig.Render()
}
