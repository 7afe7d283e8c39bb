package metamodel

import "strings"

// Param is one parameter of a resolved finder signature.
type Param struct {
	Type TypeName
	Name Symbol
}

// QuerySignature is the parameter list a finder name resolves to. Derived,
// never persisted.
type QuerySignature struct {
	Finder Symbol
	Params []Param
}

// Render formats the signature as "name(Type1 name1, Type2 name2)". Types
// render with their simple (unqualified) names, parameters in declaration
// order.
func (q QuerySignature) Render() string {
	var b strings.Builder
	b.WriteString(string(q.Finder))
	b.WriteByte('(')
	for i, p := range q.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.Simple())
		b.WriteByte(' ')
		b.WriteString(string(p.Name))
	}
	b.WriteByte(')')
	return b.String()
}
