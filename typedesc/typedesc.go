// Package typedesc describes the type of every value that can flow through a
// shading network and provides the [Registry] that resolves type names to
// descriptors.
//
// Builtin types are registered once when a Registry is created and are never
// modified afterwards. Custom types, usually struct types declared by documents,
// may be registered and cleared at any time and from multiple goroutines.
package typedesc

import "strings"

// BaseType is the underlying data category of a type.
type BaseType uint8

const (
	BaseNone BaseType = iota
	BaseBoolean
	BaseInteger
	BaseFloat
	BaseString
	BaseStruct
)

func (b BaseType) String() string {
	switch b {
	case BaseNone:
		return "none"
	case BaseBoolean:
		return "boolean"
	case BaseInteger:
		return "integer"
	case BaseFloat:
		return "float"
	case BaseString:
		return "string"
	case BaseStruct:
		return "struct"
	}
	return "BaseType(?)"
}

// Semantic tags a type with its meaning in a shading network.
type Semantic uint8

const (
	SemanticNone Semantic = iota
	SemanticColor
	SemanticVector
	SemanticMatrix
	SemanticFilename
	// SemanticClosure is carried by BSDF, EDF and VDF.
	SemanticClosure
	// SemanticShader is carried by the surface, volume, displacement and light shader types.
	SemanticShader
	SemanticMaterial
	SemanticEnum
)

func (s Semantic) String() string {
	switch s {
	case SemanticNone:
		return "none"
	case SemanticColor:
		return "color"
	case SemanticVector:
		return "vector"
	case SemanticMatrix:
		return "matrix"
	case SemanticFilename:
		return "filename"
	case SemanticClosure:
		return "closure"
	case SemanticShader:
		return "shader"
	case SemanticMaterial:
		return "material"
	case SemanticEnum:
		return "enum"
	}
	return "Semantic(?)"
}

// ParseSemantic returns the Semantic named s. The empty string is SemanticNone.
func ParseSemantic(s string) (Semantic, bool) {
	if s == "" {
		return SemanticNone, true
	}
	for sem := SemanticNone; sem <= SemanticEnum; sem++ {
		if strings.EqualFold(s, sem.String()) {
			return sem, true
		}
	}
	return SemanticNone, false
}

// LayoutHandle references a [StructLayout] owned by a [Registry]. Handles are tagged with
// the registry's custom type generation so that layouts dropped by
// [Registry.ClearCustomTypes] are detected as stale instead of silently reused.
// The zero LayoutHandle references no layout.
type LayoutHandle struct {
	index      uint32
	generation uint32
}

// Valid reports whether h references a layout. A valid handle may still be stale.
func (h LayoutHandle) Valid() bool { return h.generation != 0 }

// TypeDesc describes a type. TypeDescs are small values meant to be copied.
// Two TypeDescs describe the same type when their names are equal, see [TypeDesc.Equal].
type TypeDesc struct {
	name     string
	base     BaseType
	semantic Semantic
	size     uint16
	layout   LayoutHandle
}

// New returns a TypeDesc with no struct layout. A size of zero marks an array type.
func New(name string, base BaseType, semantic Semantic, size uint16) TypeDesc {
	return TypeDesc{name: name, base: base, semantic: semantic, size: size}
}

// Builtin types registered in every [Registry].
var (
	None               = New("none", BaseNone, SemanticNone, 1)
	Boolean            = New("boolean", BaseBoolean, SemanticNone, 1)
	Integer            = New("integer", BaseInteger, SemanticNone, 1)
	IntegerArray       = New("integerarray", BaseInteger, SemanticNone, 0)
	Float              = New("float", BaseFloat, SemanticNone, 1)
	FloatArray         = New("floatarray", BaseFloat, SemanticNone, 0)
	Vector2            = New("vector2", BaseFloat, SemanticVector, 2)
	Vector3            = New("vector3", BaseFloat, SemanticVector, 3)
	Vector4            = New("vector4", BaseFloat, SemanticVector, 4)
	Color3             = New("color3", BaseFloat, SemanticColor, 3)
	Color4             = New("color4", BaseFloat, SemanticColor, 4)
	Matrix33           = New("matrix33", BaseFloat, SemanticMatrix, 9)
	Matrix44           = New("matrix44", BaseFloat, SemanticMatrix, 16)
	String             = New("string", BaseString, SemanticNone, 1)
	Filename           = New("filename", BaseString, SemanticFilename, 1)
	BSDF               = New("BSDF", BaseNone, SemanticClosure, 1)
	EDF                = New("EDF", BaseNone, SemanticClosure, 1)
	VDF                = New("VDF", BaseNone, SemanticClosure, 1)
	SurfaceShader      = New("surfaceshader", BaseNone, SemanticShader, 1)
	VolumeShader       = New("volumeshader", BaseNone, SemanticShader, 1)
	DisplacementShader = New("displacementshader", BaseNone, SemanticShader, 1)
	LightShader        = New("lightshader", BaseNone, SemanticShader, 1)
	Material           = New("material", BaseNone, SemanticMaterial, 1)
)

// standardTypes lists the builtins in registration order.
var standardTypes = []TypeDesc{
	None, Boolean, Integer, IntegerArray, Float, FloatArray,
	Vector2, Vector3, Vector4, Color3, Color4, Matrix33, Matrix44,
	String, Filename, BSDF, EDF, VDF,
	SurfaceShader, VolumeShader, DisplacementShader, LightShader, Material,
}

func (t TypeDesc) Name() string          { return t.name }
func (t TypeDesc) BaseType() BaseType    { return t.base }
func (t TypeDesc) Semantic() Semantic    { return t.semantic }
func (t TypeDesc) Size() uint16          { return t.size }
func (t TypeDesc) Layout() LayoutHandle  { return t.layout }
func (t TypeDesc) Equal(o TypeDesc) bool { return t.name == o.name }
func (t TypeDesc) IsNone() bool          { return t.name == None.name }
func (t TypeDesc) IsStruct() bool        { return t.base == BaseStruct }
func (t TypeDesc) IsArray() bool         { return t.size == 0 }
func (t TypeDesc) IsAggregate() bool     { return t.size > 1 }
func (t TypeDesc) IsFloat3() bool        { return t.size == 3 && t.base == BaseFloat }
func (t TypeDesc) IsFloat4() bool        { return t.size == 4 && t.base == BaseFloat }
func (t TypeDesc) String() string        { return t.name }

// HasSemantic reports whether the type is tagged with s.
func (t TypeDesc) HasSemantic(s Semantic) bool { return t.semantic == s }

// IsScalar reports whether the type is a single boolean, integer or float.
func (t TypeDesc) IsScalar() bool {
	return t.size == 1 && (t.base == BaseFloat || t.base == BaseInteger || t.base == BaseBoolean)
}

// IsClosure reports whether the type is a closure, shader or material type.
// Closure types have no literal values.
func (t TypeDesc) IsClosure() bool {
	return t.semantic == SemanticClosure || t.semantic == SemanticShader || t.semantic == SemanticMaterial
}

// StructMember is a named, typed member of a [StructLayout].
type StructMember struct {
	Name string
	Type TypeDesc
	// DefaultValue is the member's serialized default value. May be empty.
	DefaultValue string
}

// StructLayout is the ordered member list of a struct type.
type StructLayout struct {
	Name    string
	Members []StructMember
}
