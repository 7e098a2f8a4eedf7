package glsllib

import (
	_ "embed"

	"github.com/soypat/gshade/glbuild"
)

//go:embed closures.glsl
var closuresSrc []byte

// ClosureTypes returns the GLSL definitions of the closure and shader types:
// BSDF, EDF, VDF, surfaceshader, volumeshader, displacementshader, lightshader
// and material, which is an alias of surfaceshader.
func ClosureTypes() []byte { return closuresSrc }

//go:embed surface_unlit.glsl
var surfaceUnlitSrc []byte

// SurfaceUnlit is an unlit surface shader:
//
//	surfaceshader mx_surface_unlit(float emission, vec3 emission_color, float transmission, vec3 transmission_color, float opacity)
func SurfaceUnlit() glbuild.ShaderFunction {
	fn, _ := glbuild.MakeShaderFunction(surfaceUnlitSrc)
	return fn
}

//go:embed mix_surfaceshader.glsl
var mixSurfaceSrc []byte

// MixSurfaceShader blends two surface shaders, w=1 selects fg:
//
//	surfaceshader mx_mix_surfaceshader(surfaceshader fg, surfaceshader bg, float w)
func MixSurfaceShader() glbuild.ShaderFunction {
	fn, _ := glbuild.MakeShaderFunction(mixSurfaceSrc)
	return fn
}

// Functions returns every function of the library.
func Functions() []glbuild.ShaderFunction {
	return []glbuild.ShaderFunction{SurfaceUnlit(), MixSurfaceShader()}
}
