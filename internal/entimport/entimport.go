// Package entimport turns ent schema definitions into registry records.
// It walks each schema's field descriptors, classifies identity and version
// fields, and attaches the entity configuration annotation, optionally
// seeded with declared finders from a schema annotation.
package entimport

import (
	"fmt"
	"reflect"

	"entgo.io/ent"
	entschema "entgo.io/ent/schema"

	"finderkit/internal/metamodel"
	"finderkit/internal/registry"
)

// Schema is the part of an ent schema the importer reads. Structs embedding
// ent.Schema satisfy it by defining Fields.
type Schema interface {
	Fields() []ent.Field
}

// FindersAnnotation declares finder names directly on an ent schema; the
// importer seeds the entity annotation's finders attribute from it.
type FindersAnnotation struct {
	Finders []string
}

// Name implements schema.Annotation.
func (FindersAnnotation) Name() string { return "Finders" }

// Finders builds a FindersAnnotation.
func Finders(names ...string) FindersAnnotation {
	return FindersAnnotation{Finders: names}
}

// Options control how schemas map onto registry records.
type Options struct {
	// SourcePath is recorded as the source location of every imported type.
	SourcePath string
	// Package qualifies imported type names ("<Package>.<Schema>"). Empty
	// leaves names unqualified.
	Package string
	// ManagerField names the entity-manager handle field. Defaults to
	// "client", the generated ent client handle.
	ManagerField metamodel.Symbol
}

// Records converts the schemas into paired type and entity records. The two
// slices are index-aligned and share record identifiers.
func Records(schemas []Schema, opts Options) ([]registry.TypeRecord, []registry.EntityRecord, error) {
	manager := opts.ManagerField
	if manager == "" {
		manager = "client"
	}

	types := make([]registry.TypeRecord, 0, len(schemas))
	entities := make([]registry.EntityRecord, 0, len(schemas))
	for _, s := range schemas {
		name := schemaName(s)
		if name == "" {
			return nil, nil, fmt.Errorf("cannot determine schema name for %T", s)
		}
		qualified := metamodel.TypeName(name)
		if opts.Package != "" {
			qualified = metamodel.TypeName(opts.Package + "." + name)
		}
		id := registry.TypeID(opts.SourcePath, qualified)

		var (
			fields   []metamodel.Field
			idFields []metamodel.Symbol
			version  metamodel.Symbol
		)
		for _, f := range s.Fields() {
			d := f.Descriptor()
			fieldType := metamodel.TypeName("")
			if d.Info != nil {
				fieldType = metamodel.TypeName(d.Info.String())
			}
			fields = append(fields, metamodel.Field{
				Name: metamodel.Symbol(d.Name),
				Type: fieldType,
			})
			if d.Name == "id" || (d.Unique && d.Immutable) {
				idFields = append(idFields, metamodel.Symbol(d.Name))
			}
			if d.Name == "version" {
				version = metamodel.Symbol(d.Name)
			}
		}

		ann := metamodel.Annotation{Name: metamodel.EntityAnnotation}
		if declared := declaredFinders(s); len(declared) > 0 {
			ann = ann.WithAttribute(metamodel.FindersAttribute, declared)
		}

		types = append(types, registry.TypeRecord{
			ID:          id,
			Name:        qualified,
			SourcePath:  opts.SourcePath,
			Fields:      fields,
			Annotations: []metamodel.Annotation{ann},
		})
		entities = append(entities, registry.EntityRecord{
			ID:           id,
			Name:         qualified,
			EntityName:   name,
			Plural:       registry.Pluralize(name),
			ManagerField: manager,
			IDFields:     idFields,
			VersionField: version,
		})
	}
	return types, entities, nil
}

// Apply imports the schemas into the registry: every type record and entity
// record is written, and the file backend is flushed.
func Apply(store *registry.Store, schemas []Schema, opts Options) error {
	types, entities, err := Records(schemas, opts)
	if err != nil {
		return err
	}
	store.EnsureLoaded()
	for i := range types {
		if err := store.PutType(types[i]); err != nil {
			return fmt.Errorf("import type %s: %w", types[i].Name, err)
		}
		if err := store.PutEntity(entities[i]); err != nil {
			return fmt.Errorf("import entity %s: %w", entities[i].Name, err)
		}
	}
	store.Save()
	return nil
}

func schemaName(s Schema) string {
	t := reflect.Indirect(reflect.ValueOf(s)).Type()
	if t.Kind() != reflect.Struct {
		return ""
	}
	return t.Name()
}

// declaredFinders reads the optional Finders annotation off a schema, using
// the same optional-interface probing ent's own loader applies.
func declaredFinders(s Schema) []string {
	annotated, ok := s.(interface {
		Annotations() []entschema.Annotation
	})
	if !ok {
		return nil
	}
	for _, a := range annotated.Annotations() {
		if fa, ok := a.(FindersAnnotation); ok {
			return append([]string(nil), fa.Finders...)
		}
	}
	return nil
}
