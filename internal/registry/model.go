package registry

import (
	"strings"

	"finderkit/internal/metamodel"
)

// TypeRecord is one row of the type index: a physical type, its source
// location, fields, and annotations.
type TypeRecord struct {
	ID          string                 `json:"id"`
	Name        metamodel.TypeName     `json:"name"`
	SourcePath  string                 `json:"source_path"`
	Fields      []metamodel.Field      `json:"fields"`
	Annotations []metamodel.Annotation `json:"annotations,omitempty"`
}

// Details converts the record to the metamodel view consumed by resolvers.
func (r TypeRecord) Details() *metamodel.TypeDetails {
	return &metamodel.TypeDetails{
		Name:        r.Name,
		SourcePath:  r.SourcePath,
		Fields:      append([]metamodel.Field(nil), r.Fields...),
		Annotations: append([]metamodel.Annotation(nil), r.Annotations...),
	}
}

// EntityRecord is one row of the entity index: the persistence metadata of a
// managed entity. The entity index and the type index are maintained
// independently; they are expected to agree, and the finder operations treat
// disagreement as a consistency failure.
type EntityRecord struct {
	ID           string             `json:"id"`
	Name         metamodel.TypeName `json:"name"`
	EntityName   string             `json:"entity_name"`
	Plural       string             `json:"plural"`
	ManagerField metamodel.Symbol   `json:"manager_field"`
	IDFields     []metamodel.Symbol `json:"id_fields"`
	VersionField metamodel.Symbol   `json:"version_field,omitempty"`
}

// Metadata converts the record to the metamodel view consumed by resolvers.
func (r EntityRecord) Metadata() *metamodel.EntityMetadata {
	return &metamodel.EntityMetadata{
		Type:         r.Name,
		EntityName:   r.EntityName,
		Plural:       r.Plural,
		ManagerField: r.ManagerField,
	}
}

// TypeID builds the canonical identifier of a physical type record.
func TypeID(sourcePath string, name metamodel.TypeName) string {
	return strings.TrimSpace(sourcePath) + "#" + strings.TrimSpace(string(name))
}

func normalizeType(r TypeRecord) TypeRecord {
	r.ID = strings.TrimSpace(r.ID)
	r.SourcePath = strings.TrimSpace(r.SourcePath)
	r.Name = metamodel.TypeName(strings.TrimSpace(string(r.Name)))
	if r.ID == "" && r.Name != "" {
		r.ID = TypeID(r.SourcePath, r.Name)
	}
	return r
}

func normalizeEntity(r EntityRecord) EntityRecord {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = metamodel.TypeName(strings.TrimSpace(string(r.Name)))
	r.EntityName = strings.TrimSpace(r.EntityName)
	r.Plural = strings.TrimSpace(r.Plural)
	if r.EntityName == "" {
		r.EntityName = r.Name.Simple()
	}
	if r.Plural == "" {
		r.Plural = Pluralize(r.EntityName)
	}
	return r
}

// Pluralize derives a display plural from an entity name. Naive English
// rules only; callers that care set the plural explicitly.
func Pluralize(name string) string {
	switch {
	case name == "":
		return ""
	case strings.HasSuffix(name, "y") && len(name) > 1 && !strings.ContainsRune("aeiou", rune(name[len(name)-2])):
		return name[:len(name)-1] + "ies"
	case strings.HasSuffix(name, "s"), strings.HasSuffix(name, "x"), strings.HasSuffix(name, "ch"), strings.HasSuffix(name, "sh"):
		return name + "es"
	default:
		return name + "s"
	}
}
