// Package metamodel holds the value types shared by the registry, the query
// grammar, and the finder operations: type names, fields, member details,
// annotations, and resolved query signatures. Everything here is plain data;
// resolution and persistence live elsewhere.
package metamodel

import "strings"

// TypeName is a qualified type name, e.g. "store/customer.Customer" or
// "time.Time". Builtin types carry no qualifier.
type TypeName string

// Simple returns the unqualified type name: the part after the last dot,
// with any slice/pointer markers preserved.
func (t TypeName) Simple() string {
	s := string(t)
	prefix := ""
	for {
		switch {
		case strings.HasPrefix(s, "[]"):
			prefix += "[]"
			s = s[2:]
			continue
		case strings.HasPrefix(s, "*"):
			prefix += "*"
			s = s[1:]
			continue
		}
		break
	}
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	return prefix + s
}

// Symbol is the name of a field, parameter, or finder. Symbols compare
// case-sensitively; no normalization is ever applied.
type Symbol string

// Field is one persisted member of an entity type.
type Field struct {
	Name Symbol   `json:"name"`
	Type TypeName `json:"type"`
}

// MemberDetails is the scanned member structure of a type, in declaration
// order.
type MemberDetails struct {
	Fields []Field
}

// Field returns the member with the given name.
func (m *MemberDetails) Field(name Symbol) (Field, bool) {
	if m == nil {
		return Field{}, false
	}
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TypeDetails is the physical shape of a type as recorded in the type index:
// where its source lives, its fields, and its annotations.
type TypeDetails struct {
	Name        TypeName
	SourcePath  string
	Fields      []Field
	Annotations []Annotation
}

// Annotation returns the annotation with the given name.
func (d *TypeDetails) Annotation(name string) (Annotation, bool) {
	if d == nil {
		return Annotation{}, false
	}
	for _, a := range d.Annotations {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// EntityMetadata is the persistence-level metadata of a managed entity, as
// served by the entity index.
type EntityMetadata struct {
	Type         TypeName
	EntityName   string
	Plural       string
	ManagerField Symbol
}
