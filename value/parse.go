package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

const (
	structOpen  = '{'
	structClose = '}'
	structSep   = ';'
	// componentSep separates vector, matrix and array components. It is
	// also accepted as struct member separator when a literal holds no structSep.
	componentSep = ','
)

var (
	// ErrUnsupportedType is returned by [Parse] for types that have no literal form, such as closures.
	ErrUnsupportedType = errors.New("type has no literal form")
	errComponentCount  = errors.New("wrong number of components")
)

// ParseError reports a literal that could not be parsed as the requested type.
type ParseError struct {
	Type    string
	Literal string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q as %s: %s", e.Literal, e.Type, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a scalar, vector, matrix or array literal of the named type.
// Components are separated by commas and may be surrounded by braces, i.e: "0.5, 0.5, 1".
// Struct literals are not handled here since decomposing them requires the struct's layout.
func Parse(literal, typeName string) (Value, error) {
	v, err := parse(literal, typeName)
	if err != nil {
		return nil, &ParseError{Type: typeName, Literal: literal, Err: err}
	}
	return v, nil
}

func parse(literal, typeName string) (Value, error) {
	s := strings.TrimSpace(literal)
	switch typeName {
	case TypeString:
		return Str(literal), nil
	case TypeFilename:
		return Filename(literal), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(s)
		return Bool(b), err
	case TypeInteger:
		n, err := parseInt(s)
		return Int(n), err
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		return Float(f), err
	case TypeIntegerArray:
		return parseInts(s)
	case TypeFloatArray:
		return parseFloats(s, -1)
	}
	var arr [16]float32
	var n int
	switch typeName {
	case TypeVector2:
		n = 2
	case TypeVector3, TypeColor3:
		n = 3
	case TypeVector4, TypeColor4:
		n = 4
	case TypeMatrix33:
		n = 9
	case TypeMatrix44:
		n = 16
	default:
		return nil, ErrUnsupportedType
	}
	f, err := parseFloats(s, n)
	if err != nil {
		return nil, err
	}
	copy(arr[:], f)
	switch typeName {
	case TypeVector2:
		return Vector2(ms2.Vec{X: arr[0], Y: arr[1]}), nil
	case TypeVector3:
		return Vector3(ms3.Vec{X: arr[0], Y: arr[1], Z: arr[2]}), nil
	case TypeColor3:
		return Color3(ms3.Vec{X: arr[0], Y: arr[1], Z: arr[2]}), nil
	case TypeVector4:
		return Vector4([4]float32(arr[:4])), nil
	case TypeColor4:
		return Color4([4]float32(arr[:4])), nil
	case TypeMatrix33:
		return Matrix33(ms3.NewMat3(arr[:9])), nil
	default:
		return Matrix44(ms3.NewMat4(arr[:16])), nil
	}
}

func parseInt(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Conv[int32](n)
}

func parseInts(s string) (IntArray, error) {
	fields := splitComponents(s)
	arr := make(IntArray, len(fields))
	for i, f := range fields {
		n, err := parseInt(f)
		if err != nil {
			return nil, err
		}
		arr[i] = n
	}
	return arr, nil
}

// parseFloats parses comma separated floats. If want is not negative the
// number of components must match it.
func parseFloats(s string, want int) (FloatArray, error) {
	fields := splitComponents(s)
	if want >= 0 && len(fields) != want {
		return nil, fmt.Errorf("%w: want %d, got %d", errComponentCount, want, len(fields))
	}
	arr := make(FloatArray, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		arr[i] = float32(v)
	}
	return arr, nil
}

func splitComponents(s string) []string {
	s = strings.TrimSpace(trimBraces(s))
	if s == "" {
		return nil
	}
	fields := strings.Split(s, string(componentSep))
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// SplitStruct splits a struct literal into its member substrings.
// Outer braces are optional. Members are separated by ';' at the top level, or by ','
// when the literal holds no top-level ';'. Braces group a member so nested struct
// literals and multi-component members may be written as "{1;{0.5, 0.5};2}".
// An empty literal or "{}" yields zero substrings.
func SplitStruct(literal string) []string {
	s := strings.TrimSpace(trimBraces(literal))
	if s == "" {
		return nil
	}
	sep := byte(componentSep)
	if indexTopLevel(s, structSep) >= 0 {
		sep = structSep
	}
	var parts []string
	for {
		idx := indexTopLevel(s, sep)
		if idx < 0 {
			parts = append(parts, strings.TrimSpace(s))
			return parts
		}
		parts = append(parts, strings.TrimSpace(s[:idx]))
		s = s[idx+1:]
	}
}

// trimBraces removes one pair of braces enclosing the whole of s.
func trimBraces(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != structOpen || s[len(s)-1] != structClose {
		return s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case structOpen:
			depth++
		case structClose:
			depth--
			if depth == 0 && i != len(s)-1 {
				return s // Opening brace closed before the end, i.e: "{a};{b}".
			}
		}
	}
	return s[1 : len(s)-1]
}

func indexTopLevel(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case structOpen:
			depth++
		case structClose:
			depth--
		case c:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
