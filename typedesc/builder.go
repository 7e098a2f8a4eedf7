package typedesc

import (
	"errors"
	"fmt"

	"github.com/soypat/gshade/value"
)

// MaxStructDepth bounds struct nesting during value construction and layout validation.
const MaxStructDepth = 32

var ErrStructDepth = errors.New("struct nesting exceeds maximum depth")

// ArityError is returned when a struct literal does not hold exactly one
// initializer per struct member.
type ArityError struct {
	Type     string
	Expected int
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("wrong number of initializers for %s - expect %d, got %d", e.Type, e.Expected, e.Got)
}

// ParseValue converts a serialized literal into a value of type t.
// Non-struct types are delegated to [value.Parse]. Struct literals are split into one
// substring per member with [value.SplitStruct] and each substring is parsed with the
// member's own type, so the resulting [*value.Aggregate] mirrors the declaration order.
// Struct types declared without members have no layout and yield their literal as a
// [value.Str]. Errors from member parsing are returned unmodified.
func (r *Registry) ParseValue(t TypeDesc, literal string) (value.Value, error) {
	return r.parseValue(t, literal, 0)
}

func (r *Registry) parseValue(t TypeDesc, literal string, depth int) (value.Value, error) {
	if !t.IsStruct() {
		return value.Parse(literal, t.name)
	} else if !t.layout.Valid() {
		return value.Str(literal), nil
	} else if depth >= MaxStructDepth {
		return nil, fmt.Errorf("%w: parsing %s", ErrStructDepth, t.name)
	}
	members, err := r.StructMembers(t)
	if err != nil {
		return nil, err
	}
	sub := value.SplitStruct(literal)
	if len(sub) != len(members) {
		return nil, &ArityError{Type: t.name, Expected: len(members), Got: len(sub)}
	}
	result := &value.Aggregate{Type: t.name, Members: make([]value.Value, 0, len(members))}
	for i, m := range members {
		v, err := r.parseValue(m.Type, sub[i], depth+1)
		if err != nil {
			return nil, err
		}
		result.Append(v)
	}
	return result, nil
}
