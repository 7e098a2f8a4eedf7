// Package value implements the typed literals that flow through a shading network
// and the parsers that turn serialized literal strings into them.
package value

import (
	"bytes"
	"strconv"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Value is a typed literal. Struct-typed values are [*Aggregate]s holding one
// child Value per struct member.
type Value interface {
	// TypeName returns the name of the value's type, i.e: "float", "color3" or a struct name.
	TypeName() string
	// AppendString appends the serialized form of the value to b and returns the result.
	// The serialized form can be parsed back with [Parse] using the value's TypeName.
	AppendString(b []byte) []byte
}

// String returns the serialized form of v.
func String(v Value) string {
	if v == nil {
		return ""
	}
	return string(v.AppendString(nil))
}

// Type names of the values implemented by this package.
const (
	TypeBoolean      = "boolean"
	TypeInteger      = "integer"
	TypeIntegerArray = "integerarray"
	TypeFloat        = "float"
	TypeFloatArray   = "floatarray"
	TypeVector2      = "vector2"
	TypeVector3      = "vector3"
	TypeVector4      = "vector4"
	TypeColor3       = "color3"
	TypeColor4       = "color4"
	TypeMatrix33     = "matrix33"
	TypeMatrix44     = "matrix44"
	TypeString       = "string"
	TypeFilename     = "filename"
)

var (
	_ Value = Bool(false)
	_ Value = Int(0)
	_ Value = Float(0)
	_ Value = Str("")
	_ Value = Filename("")
	_ Value = Vector2{}
	_ Value = Vector3{}
	_ Value = Vector4{}
	_ Value = Color3{}
	_ Value = Color4{}
	_ Value = Matrix33{}
	_ Value = Matrix44{}
	_ Value = IntArray(nil)
	_ Value = FloatArray(nil)
	_ Value = (*Aggregate)(nil)
)

type (
	Bool     bool
	Int      int32
	Float    float32
	Str      string
	Filename string
	// Vector2 is a two component float vector.
	Vector2 ms2.Vec
	// Vector3 is a three component float vector.
	Vector3 ms3.Vec
	// Color3 is an RGB color stored in X, Y, Z.
	Color3 ms3.Vec
	// Vector4 is a four component float vector.
	Vector4 [4]float32
	// Color4 is an RGBA color.
	Color4 [4]float32
	// Matrix33 is a 3x3 float matrix.
	Matrix33 ms3.Mat3
	// Matrix44 is a 4x4 float matrix.
	Matrix44 ms3.Mat4
	IntArray   []int32
	FloatArray []float32
)

func (Bool) TypeName() string       { return TypeBoolean }
func (Int) TypeName() string        { return TypeInteger }
func (Float) TypeName() string      { return TypeFloat }
func (Str) TypeName() string        { return TypeString }
func (Filename) TypeName() string   { return TypeFilename }
func (Vector2) TypeName() string    { return TypeVector2 }
func (Vector3) TypeName() string    { return TypeVector3 }
func (Vector4) TypeName() string    { return TypeVector4 }
func (Color3) TypeName() string     { return TypeColor3 }
func (Color4) TypeName() string     { return TypeColor4 }
func (Matrix33) TypeName() string   { return TypeMatrix33 }
func (Matrix44) TypeName() string   { return TypeMatrix44 }
func (IntArray) TypeName() string   { return TypeIntegerArray }
func (FloatArray) TypeName() string { return TypeFloatArray }

func (v Bool) AppendString(b []byte) []byte     { return strconv.AppendBool(b, bool(v)) }
func (v Int) AppendString(b []byte) []byte      { return strconv.AppendInt(b, int64(v), 10) }
func (v Float) AppendString(b []byte) []byte    { return appendFloat(b, float32(v)) }
func (v Str) AppendString(b []byte) []byte      { return append(b, v...) }
func (v Filename) AppendString(b []byte) []byte { return append(b, v...) }

func (v Vector2) AppendString(b []byte) []byte { return appendFloats(b, v.X, v.Y) }
func (v Vector3) AppendString(b []byte) []byte { return appendFloats(b, v.X, v.Y, v.Z) }
func (v Color3) AppendString(b []byte) []byte  { return appendFloats(b, v.X, v.Y, v.Z) }
func (v Vector4) AppendString(b []byte) []byte { return appendFloats(b, v[:]...) }
func (v Color4) AppendString(b []byte) []byte  { return appendFloats(b, v[:]...) }

// AppendString appends the matrix in row major order.
func (v Matrix33) AppendString(b []byte) []byte {
	arr := ms3.Mat3(v).Array()
	return appendFloats(b, arr[:]...)
}

// AppendString appends the matrix in row major order.
func (v Matrix44) AppendString(b []byte) []byte {
	arr := ms3.Mat4(v).Array()
	return appendFloats(b, arr[:]...)
}

func (v IntArray) AppendString(b []byte) []byte {
	for i, n := range v {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = strconv.AppendInt(b, int64(n), 10)
	}
	return b
}

func (v FloatArray) AppendString(b []byte) []byte { return appendFloats(b, v...) }

// Vec returns the vector as a geometry vector.
func (v Vector2) Vec() ms2.Vec { return ms2.Vec(v) }

// Vec returns the vector as a geometry vector.
func (v Vector3) Vec() ms3.Vec { return ms3.Vec(v) }

// Vec returns the color as a geometry vector with R,G,B mapped to X,Y,Z.
func (v Color3) Vec() ms3.Vec { return ms3.Vec(v) }

// Mat returns the matrix as a geometry matrix.
func (v Matrix33) Mat() ms3.Mat3 { return ms3.Mat3(v) }

// Mat returns the matrix as a geometry matrix.
func (v Matrix44) Mat() ms3.Mat4 { return ms3.Mat4(v) }

// Aggregate is the value of a struct type. Members are stored in declaration order.
type Aggregate struct {
	Type    string
	Members []Value
}

// TypeName returns the struct type's name.
func (a *Aggregate) TypeName() string { return a.Type }

// AppendString appends the aggregate in struct literal form, i.e: "{1;{2;3}}".
func (a *Aggregate) AppendString(b []byte) []byte {
	b = append(b, structOpen)
	for i, m := range a.Members {
		if i > 0 {
			b = append(b, structSep)
		}
		start := len(b)
		b = m.AppendString(b)
		if _, nested := m.(*Aggregate); !nested && bytes.IndexByte(b[start:], ',') >= 0 {
			// Group multi-component members so they are not split apart.
			b = append(b[:start], structOpen)
			b = m.AppendString(b)
			b = append(b, structClose)
		}
	}
	return append(b, structClose)
}

// Append appends a member value to the aggregate.
func (a *Aggregate) Append(v Value) { a.Members = append(a.Members, v) }

func appendFloat(b []byte, v float32) []byte {
	return strconv.AppendFloat(b, float64(v), 'g', -1, 32)
}

func appendFloats(b []byte, vs ...float32) []byte {
	for i, v := range vs {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = appendFloat(b, v)
	}
	return b
}
