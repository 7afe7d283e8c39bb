package finder

import (
	"fmt"

	"finderkit/internal/metamodel"
)

// Install merges the finder name into the entity's declared-finder
// annotation attribute and persists the result. Expected, recoverable
// conditions (unknown type, type not a managed entity, missing entity
// annotation, unresolvable finder name) are logged at warn level and return
// nil without writing anything. A malformed finders attribute and
// index disagreement are hard failures. On success exactly one metadata
// write happens; installing the same name twice leaves the list unchanged.
func (o *Operations) Install(name metamodel.TypeName, finderName metamodel.Symbol) error {
	if name == "" {
		return fmt.Errorf("type name required")
	}
	if finderName == "" {
		return fmt.Errorf("finder name required")
	}

	id, ok := o.locator.PhysicalTypeID(name)
	if !ok {
		o.log.Warn().Str("type", string(name)).Msg("cannot locate source")
		return nil
	}

	// Any type carrying finders has to be a managed entity.
	meta, ok := o.metadata.EntityMetadata(id)
	if !ok {
		o.log.Warn().Str("type", string(name)).Msg("cannot provide finders: not a managed entity")
		return nil
	}

	// Entity metadata exists, so the type record must too. Its absence here
	// means the two indexes disagree.
	details, ok := o.locator.TypeDetails(id)
	if !ok {
		return fmt.Errorf("cannot locate source for %q although entity metadata exists", name)
	}

	ann, ok := details.Annotation(metamodel.EntityAnnotation)
	if !ok {
		o.log.Warn().Str("type", string(name)).Msg("unable to find the entity annotation")
		return nil
	}

	// Confirm the candidate resolves to a valid query before declaring it.
	members := o.scanner.Scan(details)
	if _, err := o.queries.Resolve(members, finderName, meta.Plural, meta.EntityName); err != nil {
		o.log.Warn().
			Str("finder", string(finderName)).
			Err(err).
			Msg("finder name either does not exist or contains an error")
		return nil
	}

	declared, err := metamodel.ParseDeclaredFinders(ann.Attribute(metamodel.FindersAttribute))
	if err != nil {
		return err
	}
	declared, _ = declared.Add(string(finderName))

	updated := ann.WithAttribute(metamodel.FindersAttribute, declared.Names())
	return o.writer.UpdateTypeAnnotation(id, updated)
}
