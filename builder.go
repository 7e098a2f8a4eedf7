package gshade

import (
	"errors"
	"fmt"

	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
	"github.com/soypat/gshade/value"
)

// Builder wraps graph construction for the nodes of the GLSL library.
// Provides error handling strategies with panics or error accumulation during graph construction.
type Builder struct {
	NoPanic   bool
	accumErrs []error
}

func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) graphErrorf(msg string, args ...any) {
	err := fmt.Errorf(msg, args...)
	if !bld.NoPanic {
		panic(err)
	}
	bld.accumErrs = append(bld.accumErrs, err)
}

// SurfaceUnlit adds an unlit surface shader node emitting emissionColor scaled by
// emission with full opacity.
func (bld *Builder) SurfaceUnlit(g *shadergraph.Graph, name string, emission float32, emissionColor value.Color3) *shadergraph.Output {
	n, err := g.AddNode(name, "surface_unlit")
	if err != nil {
		bld.graphErrorf("surface_unlit: %w", err)
		return nil
	}
	n.SetFunction("mx_surface_unlit")
	n.SetClassification(shadergraph.ClassSurface | shadergraph.ClassClosure | shadergraph.ClassUnlit)
	bld.input(n, "emission", typedesc.Float, value.Float(emission))
	bld.input(n, "emission_color", typedesc.Color3, emissionColor)
	bld.input(n, "transmission", typedesc.Float, value.Float(0))
	bld.input(n, "transmission_color", typedesc.Color3, value.Color3{X: 1, Y: 1, Z: 1})
	bld.input(n, "opacity", typedesc.Float, value.Float(1))
	return bld.output(n, "out", typedesc.SurfaceShader)
}

// MixSurface adds a node blending two surface shaders. A weight of 1 selects fg.
func (bld *Builder) MixSurface(g *shadergraph.Graph, name string, fg, bg *shadergraph.Output, weight float32) *shadergraph.Output {
	if fg == nil || bg == nil {
		bld.graphErrorf("mix_surfaceshader %q: nil surface argument", name)
		return nil
	}
	n, err := g.AddNode(name, "mix_surfaceshader")
	if err != nil {
		bld.graphErrorf("mix_surfaceshader: %w", err)
		return nil
	}
	n.SetFunction("mx_mix_surfaceshader")
	n.SetClassification(fg.Node().Classification() | bg.Node().Classification() | shadergraph.ClassSurface)
	bld.connect(bld.input(n, "fg", typedesc.SurfaceShader, nil), fg)
	bld.connect(bld.input(n, "bg", typedesc.SurfaceShader, nil), bg)
	bld.input(n, "mix", typedesc.Float, value.Float(weight))
	return bld.output(n, "out", typedesc.SurfaceShader)
}

// Material adds a material node fed by the surface shader output surface.
// A nil surface leaves the material unconnected.
func (bld *Builder) Material(g *shadergraph.Graph, name string, surface *shadergraph.Output) *shadergraph.Output {
	n, err := g.AddNode(name, "material")
	if err != nil {
		bld.graphErrorf("material: %w", err)
		return nil
	}
	in := bld.input(n, shadergraph.SurfaceShaderInput, typedesc.SurfaceShader, nil)
	if surface != nil {
		bld.connect(in, surface)
	}
	return bld.output(n, "out", typedesc.Material)
}

// Output adds an output socket to g fed by src.
func (bld *Builder) Output(g *shadergraph.Graph, name string, src *shadergraph.Output) {
	if src == nil {
		bld.graphErrorf("output %q: nil source", name)
		return
	}
	sock, err := g.AddOutputSocket(name, src.Type())
	if err != nil {
		bld.graphErrorf("output socket: %w", err)
		return
	}
	bld.connect(sock, src)
}

func (bld *Builder) input(n *shadergraph.Node, name string, t typedesc.TypeDesc, v value.Value) *shadergraph.Input {
	in, err := n.AddInput(name, t)
	if err != nil {
		bld.graphErrorf("node %q: %w", n.Name(), err)
		return nil
	}
	if v != nil {
		in.SetValue(v)
	}
	return in
}

func (bld *Builder) output(n *shadergraph.Node, name string, t typedesc.TypeDesc) *shadergraph.Output {
	out, err := n.AddOutput(name, t)
	if err != nil {
		bld.graphErrorf("node %q: %w", n.Name(), err)
		return nil
	}
	return out
}

func (bld *Builder) connect(in *shadergraph.Input, src *shadergraph.Output) {
	if in == nil || src == nil {
		return // Error already reported.
	}
	err := in.Connect(src)
	if err != nil {
		bld.graphErrorf("connecting %q: %w", in.Name(), err)
	}
}
