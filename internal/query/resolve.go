package query

import (
	"fmt"
	"sort"
	"strings"

	"finderkit/internal/metamodel"
)

// Operator suffixes accepted after a field token. Listed longest-first so
// the tokenizer can match greedily ("IsNotNull" before "IsNull", "Not").
var operators = []string{"IsNotNull", "IsNull", "Between", "Like", "Not"}

// Resolve parses a finder name against the member fields and returns its
// parameter signature. It fails when the name does not start with the finder
// prefix, references an unknown field, or uses an operator the field's type
// cannot support. Fields whose types cannot serve as query parameters
// (slices, maps, functions, channels) resolve syntactically but fail here;
// that is the semantic failure the enumerator isolates per name.
func (s *Service) Resolve(members *metamodel.MemberDetails, finder metamodel.Symbol, plural, entityName string) (*metamodel.QuerySignature, error) {
	name := string(finder)
	if !strings.HasPrefix(name, Prefix) || len(name) == len(Prefix) {
		return nil, fmt.Errorf("finder %q on %s: name must be of the form %s<Field>...", name, entityName, Prefix)
	}
	rest := name[len(Prefix):]

	tokens := fieldTokens(members)
	sig := &metamodel.QuerySignature{Finder: finder}
	for {
		field, ok := matchField(tokens, rest)
		if !ok {
			return nil, fmt.Errorf("finder %q on %s: %q does not match any field", name, entityName, rest)
		}
		rest = rest[len(fieldToken(field.Name)):]

		op := ""
		for _, candidate := range operators {
			if strings.HasPrefix(rest, candidate) {
				op = candidate
				rest = rest[len(candidate):]
				break
			}
		}
		if err := appendParams(sig, field, op, entityName); err != nil {
			return nil, err
		}

		if rest == "" {
			return sig, nil
		}
		switch {
		case strings.HasPrefix(rest, tokenAnd):
			rest = rest[len(tokenAnd):]
		case strings.HasPrefix(rest, tokenOr):
			rest = rest[len(tokenOr):]
		default:
			return nil, fmt.Errorf("finder %q on %s: unexpected trailing %q", name, entityName, rest)
		}
		if rest == "" {
			return nil, fmt.Errorf("finder %q on %s: dangling junction", name, entityName)
		}
	}
}

// appendParams adds the parameters contributed by one field clause.
func appendParams(sig *metamodel.QuerySignature, field metamodel.Field, op, entityName string) error {
	switch op {
	case "IsNull", "IsNotNull":
		return nil
	case "Like":
		if field.Type.Simple() != "string" {
			return fmt.Errorf("field %q of %s has type %s: Like requires a string field", field.Name, entityName, field.Type)
		}
	case "Between":
		if err := queryable(field, entityName); err != nil {
			return err
		}
		sig.Params = append(sig.Params,
			metamodel.Param{Type: field.Type, Name: "min" + metamodel.Symbol(titled(paramName(field.Name)))},
			metamodel.Param{Type: field.Type, Name: "max" + metamodel.Symbol(titled(paramName(field.Name)))},
		)
		return nil
	}
	if err := queryable(field, entityName); err != nil {
		return err
	}
	sig.Params = append(sig.Params, metamodel.Param{Type: field.Type, Name: paramName(field.Name)})
	return nil
}

// queryable rejects field types that cannot appear as query parameters.
func queryable(field metamodel.Field, entityName string) error {
	t := string(field.Type)
	switch {
	case t == "",
		strings.HasPrefix(t, "[]"),
		strings.HasPrefix(t, "map["),
		strings.HasPrefix(t, "chan "),
		strings.HasPrefix(t, "func("):
		return fmt.Errorf("field %q of %s has type %q which cannot be a query parameter", field.Name, entityName, field.Type)
	}
	return nil
}

// fieldTokens maps each member's finder token to its field, longest token
// first so prefixed names ("Name" vs "NameSuffix") match greedily.
func fieldTokens(members *metamodel.MemberDetails) []tokenField {
	if members == nil {
		return nil
	}
	out := make([]tokenField, 0, len(members.Fields))
	for _, f := range members.Fields {
		out = append(out, tokenField{token: fieldToken(f.Name), field: f})
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].token) > len(out[j].token) })
	return out
}

type tokenField struct {
	token string
	field metamodel.Field
}

func matchField(tokens []tokenField, rest string) (metamodel.Field, bool) {
	for _, tf := range tokens {
		if tf.token != "" && strings.HasPrefix(rest, tf.token) {
			return tf.field, true
		}
	}
	return metamodel.Field{}, false
}
