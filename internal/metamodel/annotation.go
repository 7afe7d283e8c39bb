package metamodel

import "errors"

// EntityAnnotation is the configuration annotation carried by every managed
// entity type. Declared finders are stored under its FindersAttribute.
const EntityAnnotation = "Entity"

// FindersAttribute is the EntityAnnotation attribute holding the declared
// finder names.
const FindersAttribute = "finders"

// ErrFindersAttribute is returned whenever the declared-finder attribute has
// an unexpected shape: not an array, or an array containing a non-string
// element. The message is fixed; callers match on the error value.
var ErrFindersAttribute = errors.New("annotation " + EntityAnnotation + " attribute '" + FindersAttribute + "' must be an array of strings")

// Annotation is a named bag of untyped attributes, as read from and written
// to metadata storage. Attribute values coming off storage are JSON-shaped
// (strings, []any, ...); typed access goes through parse helpers such as
// ParseDeclaredFinders.
type Annotation struct {
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Attribute returns the raw attribute value, or nil when absent.
func (a Annotation) Attribute(name string) any {
	if a.Attributes == nil {
		return nil
	}
	return a.Attributes[name]
}

// WithAttribute returns a copy of the annotation with the one attribute set
// and every other attribute untouched.
func (a Annotation) WithAttribute(name string, value any) Annotation {
	attrs := make(map[string]any, len(a.Attributes)+1)
	for k, v := range a.Attributes {
		attrs[k] = v
	}
	attrs[name] = value
	return Annotation{Name: a.Name, Attributes: attrs}
}

// DeclaredFinders is an ordered, duplicate-free list of declared finder
// names. The zero value is an empty list.
type DeclaredFinders struct {
	names []string
}

// ParseDeclaredFinders validates and converts a raw finders attribute value.
// Accepts nil (absent attribute, empty list), []string, and []any whose
// elements are all strings. Any other shape fails with ErrFindersAttribute;
// there is no partial repair.
func ParseDeclaredFinders(raw any) (DeclaredFinders, error) {
	switch v := raw.(type) {
	case nil:
		return DeclaredFinders{}, nil
	case []string:
		return DeclaredFinders{names: append([]string(nil), v...)}, nil
	case []any:
		names := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return DeclaredFinders{}, ErrFindersAttribute
			}
			names = append(names, s)
		}
		return DeclaredFinders{names: names}, nil
	default:
		return DeclaredFinders{}, ErrFindersAttribute
	}
}

// Add appends the name unless it is already present. Comparison is exact,
// case-sensitive string equality; insertion order of prior entries is
// preserved. The second result reports whether the list grew.
func (d DeclaredFinders) Add(name string) (DeclaredFinders, bool) {
	for _, n := range d.names {
		if n == name {
			return d, false
		}
	}
	return DeclaredFinders{names: append(append([]string(nil), d.names...), name)}, true
}

// Names returns the declared names in insertion order.
func (d DeclaredFinders) Names() []string {
	return append([]string(nil), d.names...)
}

// Len returns the number of declared names.
func (d DeclaredFinders) Len() int { return len(d.names) }
