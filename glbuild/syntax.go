package glbuild

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gshade/shadergen"
	"github.com/soypat/gshade/typedesc"
	"github.com/soypat/gshade/value"
)

var _ shadergen.Syntax = (*Syntax)(nil) // Interface implementation compile-time check.

var errNoLiteral = errors.New("type has no GLSL literal")

// Syntax formats gshade types and values as GLSL. Struct types are resolved
// through the registry the Syntax was created with.
type Syntax struct {
	reg *typedesc.Registry
}

// NewSyntax returns the GLSL syntax resolving struct types with reg.
func NewSyntax(reg *typedesc.Registry) *Syntax {
	return &Syntax{reg: reg}
}

// glslTypes maps builtin type names to GLSL. Strings and filenames have no GLSL
// equivalent and are carried as integer handles.
var glslTypes = map[string]string{
	"none":               "void",
	"boolean":            "bool",
	"integer":            "int",
	"integerarray":       "int[]",
	"float":              "float",
	"floatarray":         "float[]",
	"vector2":            "vec2",
	"vector3":            "vec3",
	"vector4":            "vec4",
	"color3":             "vec3",
	"color4":             "vec4",
	"matrix33":           "mat3",
	"matrix44":           "mat4",
	"string":             "int",
	"filename":           "int",
	"BSDF":               "BSDF",
	"EDF":                "EDF",
	"VDF":                "VDF",
	"surfaceshader":      "surfaceshader",
	"volumeshader":       "volumeshader",
	"displacementshader": "displacementshader",
	"lightshader":        "lightshader",
	"material":           "material",
}

var glslDefaults = map[string]string{
	"boolean":            "false",
	"integer":            "0",
	"integerarray":       "int[1](0)",
	"float":              "0.0",
	"floatarray":         "float[1](0.0)",
	"vector2":            "vec2(0.0)",
	"vector3":            "vec3(0.0)",
	"vector4":            "vec4(0.0)",
	"color3":             "vec3(0.0)",
	"color4":             "vec4(0.0)",
	"matrix33":           "mat3(1.0)",
	"matrix44":           "mat4(1.0)",
	"string":             "0",
	"filename":           "0",
	"BSDF":               "BSDF(vec3(0.0),vec3(1.0))",
	"EDF":                "EDF(0.0)",
	"VDF":                "VDF(vec3(0.0),vec3(0.0))",
	"surfaceshader":      "surfaceshader(vec3(0.0),vec3(0.0))",
	"volumeshader":       "volumeshader(vec3(0.0),vec3(0.0))",
	"displacementshader": "displacementshader(vec3(0.0),1.0)",
	"lightshader":        "lightshader(vec3(0.0),vec3(0.0))",
	"material":           "material(vec3(0.0),vec3(0.0))",
}

// TypeName returns the GLSL name of t. Struct types keep their name.
func (s *Syntax) TypeName(t typedesc.TypeDesc) string {
	if name, ok := glslTypes[t.Name()]; ok {
		return name
	}
	return t.Name()
}

// DefaultValue returns the GLSL literal t is initialized with. Struct defaults are built
// from the members' declared default values.
func (s *Syntax) DefaultValue(t typedesc.TypeDesc) string {
	return string(s.appendDefault(nil, t, 0))
}

func (s *Syntax) appendDefault(b []byte, t typedesc.TypeDesc, depth int) []byte {
	if def, ok := glslDefaults[t.Name()]; ok {
		return append(b, def...)
	}
	b = append(b, t.Name()...)
	b = append(b, '(')
	members, err := s.reg.StructMembers(t)
	if err != nil || depth >= typedesc.MaxStructDepth {
		return append(b, ')')
	}
	for i, m := range members {
		if i > 0 {
			b = append(b, ',')
		}
		start := len(b)
		if m.DefaultValue != "" {
			v, err := s.reg.ParseValue(m.Type, m.DefaultValue)
			if err == nil {
				b, err = s.appendValue(b, m.Type, v, depth+1)
			}
			if err == nil {
				continue
			}
			b = b[:start]
		}
		b = s.appendDefault(b, m.Type, depth+1)
	}
	return append(b, ')')
}

// ValueString returns v as a GLSL literal of type t.
func (s *Syntax) ValueString(t typedesc.TypeDesc, v value.Value) (string, error) {
	b, err := s.AppendValue(nil, t, v)
	return string(b), err
}

// AppendValue appends v as a GLSL literal of type t to b and returns the result.
func (s *Syntax) AppendValue(b []byte, t typedesc.TypeDesc, v value.Value) ([]byte, error) {
	return s.appendValue(b, t, v, 0)
}

func (s *Syntax) appendValue(b []byte, t typedesc.TypeDesc, v value.Value, depth int) ([]byte, error) {
	switch v := v.(type) {
	case value.Bool:
		return strconv.AppendBool(b, bool(v)), nil
	case value.Int:
		return strconv.AppendInt(b, int64(v), 10), nil
	case value.Float:
		return AppendFloat(b, '-', '.', float32(v)), nil
	case value.Str, value.Filename:
		return append(b, '0'), nil
	case value.Vector2:
		return appendCtor(b, "vec2", v.X, v.Y), nil
	case value.Vector3:
		return appendCtor(b, "vec3", v.X, v.Y, v.Z), nil
	case value.Color3:
		return appendCtor(b, "vec3", v.X, v.Y, v.Z), nil
	case value.Vector4:
		return appendCtor(b, "vec4", v[:]...), nil
	case value.Color4:
		return appendCtor(b, "vec4", v[:]...), nil
	case value.Matrix33:
		arr := ms3.Mat3(v).Array()
		return appendMatCtor(b, "mat3", 3, 3, arr[:]), nil
	case value.Matrix44:
		arr := ms3.Mat4(v).Array()
		return appendMatCtor(b, "mat4", 4, 4, arr[:]), nil
	case value.IntArray:
		b = appendStartArray(b, "int", len(v))
		for i, n := range v {
			if i > 0 {
				b = append(b, ',')
			}
			b = strconv.AppendInt(b, int64(n), 10)
		}
		return append(b, ')'), nil
	case value.FloatArray:
		b = appendStartArray(b, "float", len(v))
		b = AppendFloats(b, ',', '-', '.', v...)
		return append(b, ')'), nil
	case *value.Aggregate:
		return s.appendAggregate(b, t, v, depth)
	case nil:
		return b, errors.New("nil value")
	}
	return b, fmt.Errorf("%w: %s", errNoLiteral, v.TypeName())
}

func (s *Syntax) appendAggregate(b []byte, t typedesc.TypeDesc, v *value.Aggregate, depth int) ([]byte, error) {
	if depth >= typedesc.MaxStructDepth {
		return b, typedesc.ErrStructDepth
	}
	members, err := s.reg.StructMembers(t)
	if err != nil {
		return b, err
	} else if len(members) != len(v.Members) {
		return b, &typedesc.ArityError{Type: t.Name(), Expected: len(members), Got: len(v.Members)}
	}
	b = append(b, t.Name()...)
	b = append(b, '(')
	for i, m := range members {
		if i > 0 {
			b = append(b, ',')
		}
		b, err = s.appendValue(b, m.Type, v.Members[i], depth+1)
		if err != nil {
			return b, fmt.Errorf("member %q of %s: %w", m.Name, t.Name(), err)
		}
	}
	return append(b, ')'), nil
}

// IsReserved reports whether word is a GLSL keyword or builtin type name.
func (s *Syntax) IsReserved(word string) bool {
	_, reserved := glslKeywords[word]
	return reserved
}

var glslKeywords = map[string]struct{}{
	"void": {}, "bool": {}, "int": {}, "uint": {}, "float": {}, "double": {},
	"vec2": {}, "vec3": {}, "vec4": {}, "ivec2": {}, "ivec3": {}, "ivec4": {},
	"uvec2": {}, "uvec3": {}, "uvec4": {}, "bvec2": {}, "bvec3": {}, "bvec4": {},
	"dvec2": {}, "dvec3": {}, "dvec4": {},
	"mat2": {}, "mat3": {}, "mat4": {}, "sampler2D": {}, "sampler3D": {}, "samplerCube": {},
	"attribute": {}, "const": {}, "uniform": {}, "varying": {}, "buffer": {}, "shared": {},
	"layout": {}, "centroid": {}, "flat": {}, "smooth": {}, "noperspective": {}, "patch": {}, "sample": {},
	"break": {}, "continue": {}, "do": {}, "for": {}, "while": {}, "switch": {}, "case": {}, "default": {},
	"if": {}, "else": {}, "in": {}, "out": {}, "inout": {}, "true": {}, "false": {},
	"invariant": {}, "precise": {}, "discard": {}, "return": {}, "struct": {}, "subroutine": {},
	"lowp": {}, "mediump": {}, "highp": {}, "precision": {},
	"input": {}, "output": {}, "main": {}, "texture": {}, "fragColor": {},
	// Closure types declared by the closure library.
	"BSDF": {}, "EDF": {}, "VDF": {}, "surfaceshader": {}, "volumeshader": {},
	"displacementshader": {}, "lightshader": {}, "material": {},
}
