// Package query implements the finder naming convention: deriving candidate
// finder names from an entity's member fields, and resolving a finder name
// back into a typed parameter signature. The finder operations consume this
// package only through an interface; nothing here touches storage.
package query

import (
	"strings"
	"unicode"

	"finderkit/internal/metamodel"
)

// Prefix starts every finder name.
const Prefix = "findBy"

// Service derives and resolves finder names. It is stateless and safe for
// concurrent use.
type Service struct{}

// NewService returns a query grammar service.
func NewService() *Service { return &Service{} }

// Finders derives every finder name reachable from the member fields, using
// combinations of up to depth fields in declaration order, joined by And and
// Or. Fields in the exclusion set never appear. Derivation is purely
// syntactic: a derived name may still fail Resolve on semantic grounds.
//
// Negative depth is treated as zero; no other depth validation happens here.
func (s *Service) Finders(members *metamodel.MemberDetails, plural string, depth int, exclusions map[metamodel.Symbol]struct{}) []metamodel.Symbol {
	if members == nil || depth <= 0 {
		return nil
	}
	fields := make([]metamodel.Field, 0, len(members.Fields))
	for _, f := range members.Fields {
		if _, excluded := exclusions[f.Name]; excluded {
			continue
		}
		fields = append(fields, f)
	}

	var names []metamodel.Symbol
	var walk func(start int, tokens []string, used int)
	walk = func(start int, tokens []string, used int) {
		for i := start; i < len(fields); i++ {
			token := fieldToken(fields[i].Name)
			if used == 0 {
				names = append(names, metamodel.Symbol(Prefix+token))
				if used+1 < depth {
					walk(i+1, []string{token}, used+1)
				}
				continue
			}
			for _, join := range []string{tokenAnd, tokenOr} {
				joined := append(append([]string(nil), tokens...), join, token)
				names = append(names, metamodel.Symbol(Prefix+strings.Join(joined, "")))
				if used+1 < depth {
					walk(i+1, joined, used+1)
				}
			}
		}
	}
	walk(0, nil, 0)
	return names
}

const (
	tokenAnd = "And"
	tokenOr  = "Or"
)

// fieldToken converts a field name to its finder-name token: snake_case and
// camelCase names both become UpperCamel ("user_id" -> "UserId").
func fieldToken(name metamodel.Symbol) string {
	parts := strings.Split(string(name), "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// paramName converts a field name to its parameter name: lowerCamel.
func paramName(name metamodel.Symbol) metamodel.Symbol {
	t := fieldToken(name)
	if t == "" {
		return ""
	}
	r := []rune(t)
	r[0] = unicode.ToLower(r[0])
	return metamodel.Symbol(string(r))
}

// titled uppercases the first rune.
func titled(s metamodel.Symbol) string {
	if s == "" {
		return ""
	}
	r := []rune(string(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
