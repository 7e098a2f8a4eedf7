package shadergraph

import "strings"

// Classification is a bitmask of capability flags describing a node's shading role.
type Classification uint32

const (
	ClassTexture Classification = 1 << iota
	ClassClosure
	ClassShader
	ClassMaterial
	ClassFileTexture
	ClassConditional
	ClassConstant
	ClassBSDF
	ClassBSDFReflection
	ClassBSDFTransmission
	ClassEDF
	ClassVDF
	ClassLayer
	ClassSurface
	ClassVolume
	ClassLight
	ClassUnlit
	ClassSample2D
	ClassSample3D
	ClassGeometric
	ClassDot
	classEnd
)

var classNames = [...]string{
	"texture", "closure", "shader", "material", "filetexture", "conditional",
	"constant", "bsdf", "bsdf_r", "bsdf_t", "edf", "vdf", "layer", "surface",
	"volume", "light", "unlit", "sample2d", "sample3d", "geometric", "dot",
}

// Has reports whether every flag of c is set.
func (cl Classification) Has(c Classification) bool { return cl&c == c }

// String returns the flag names joined with '|', i.e: "closure|shader|surface".
func (cl Classification) String() string {
	if cl == 0 {
		return "none"
	}
	var sb strings.Builder
	for i, name := range classNames {
		if cl&(1<<i) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(name)
	}
	if cl&^(classEnd-1) != 0 {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString("?")
	}
	return sb.String()
}

// ParseClassification returns the flag named name. Names are case insensitive.
func ParseClassification(name string) (Classification, bool) {
	for i, n := range classNames {
		if strings.EqualFold(n, name) {
			return 1 << i, true
		}
	}
	return 0, false
}
