package shadergen_test

import (
	"slices"
	"testing"

	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/shadergen"
	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
	"github.com/soypat/gshade/value"
)

func newContext() *shadergen.Context {
	reg := typedesc.NewDefaultRegistry()
	return shadergen.NewContext(reg, glbuild.NewSyntax(reg), nil)
}

type materialGraph struct {
	g       *shadergraph.Graph
	sock    *shadergraph.Output
	srf     *shadergraph.Node
	srfOut  *shadergraph.Output
	mat     *shadergraph.Node
	matIn   *shadergraph.Input
	matOut  *shadergraph.Output
	outSock *shadergraph.Input
}

// newMaterialGraph builds a graph with an unlit surface node and an unconnected
// material node. The graph exposes a surfaceshader input socket.
func newMaterialGraph(t *testing.T) *materialGraph {
	t.Helper()
	var mg materialGraph
	var err error
	mg.g = shadergraph.NewGraph("main")
	mg.sock, err = mg.g.AddInputSocket("surface", typedesc.SurfaceShader)
	if err != nil {
		t.Fatal(err)
	}
	mg.srf, err = mg.g.AddNode("srf", "surface_unlit")
	if err != nil {
		t.Fatal(err)
	}
	mg.srf.SetClassification(shadergraph.ClassSurface)
	mg.srf.SetFunction("mx_surface_unlit")
	emission, err := mg.srf.AddInput("emission", typedesc.Float)
	if err != nil {
		t.Fatal(err)
	}
	emission.SetValue(value.Float(1))
	mg.srfOut, err = mg.srf.AddOutput("out", typedesc.SurfaceShader)
	if err != nil {
		t.Fatal(err)
	}
	mg.mat, err = mg.g.AddNode("mat", "material")
	if err != nil {
		t.Fatal(err)
	}
	mg.matIn, err = mg.mat.AddInput(shadergraph.SurfaceShaderInput, typedesc.SurfaceShader)
	if err != nil {
		t.Fatal(err)
	}
	mg.matOut, err = mg.mat.AddOutput("out", typedesc.Material)
	if err != nil {
		t.Fatal(err)
	}
	mg.outSock, err = mg.g.AddOutputSocket("out", typedesc.Material)
	if err != nil {
		t.Fatal(err)
	}
	err = mg.outSock.Connect(mg.matOut)
	if err != nil {
		t.Fatal(err)
	}
	mg.srfOut.SetVariable("srf_out")
	mg.matOut.SetVariable("mat_out")
	return &mg
}

func TestMaterialClassification(t *testing.T) {
	ctx := newContext()
	mg := newMaterialGraph(t)

	// Unconnected.
	if err := ctx.Classify(mg.g); err != nil {
		t.Fatal(err)
	}
	if got := mg.mat.Classification(); got != shadergraph.ClassShader {
		t.Errorf("unconnected: want shader, got %s", got)
	}

	// Sibling surface shader: union of shader and the sibling's flags.
	if err := mg.matIn.Connect(mg.srfOut); err != nil {
		t.Fatal(err)
	}
	want := shadergraph.ClassShader | shadergraph.ClassSurface
	for i := 0; i < 2; i++ {
		if err := ctx.Classify(mg.g); err != nil {
			t.Fatal(err)
		}
		if got := mg.mat.Classification(); got != want {
			t.Errorf("pass %d: want %s, got %s", i, want, got)
		}
	}
	if !mg.mat.Classification().Has(mg.srf.Classification()) {
		t.Error("material must carry every flag of its surface shader")
	}

	// Graph interface pass-through.
	if err := mg.matIn.Connect(mg.sock); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Classify(mg.g); err != nil {
		t.Fatal(err)
	}
	if got := mg.mat.Classification(); got != shadergraph.ClassShader {
		t.Errorf("interface connection: want shader, got %s", got)
	}

	// Sibling lacking the surface flag.
	mg.srf.SetClassification(shadergraph.ClassTexture)
	if err := mg.matIn.Connect(mg.srfOut); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Classify(mg.g); err != nil {
		t.Fatal(err)
	}
	if got := mg.mat.Classification(); got != shadergraph.ClassShader {
		t.Errorf("non-surface sibling: want shader, got %s", got)
	}
}

func TestMaterialEmission(t *testing.T) {
	ctx := newContext()
	mg := newMaterialGraph(t)
	if err := mg.matIn.Connect(mg.srfOut); err != nil {
		t.Fatal(err)
	}
	emit := func(s shadergen.Stage) []string {
		t.Helper()
		stage := shadergen.NewShaderStage(s)
		err := shadergen.MaterialNode{}.EmitFunctionCall(mg.mat, ctx, stage)
		if err != nil {
			t.Fatal(err)
		}
		return stage.Lines()
	}
	want := []string{
		"surfaceshader srf_out = mx_surface_unlit(1.);",
		"material mat_out = srf_out;",
	}
	first := emit(shadergen.StagePixel)
	if !slices.Equal(first, want) {
		t.Errorf("want\n%q\ngot\n%q", want, first)
	}
	second := emit(shadergen.StagePixel)
	if !slices.Equal(first, second) {
		t.Errorf("emission not repeatable:\n%q\n%q", first, second)
	}
	if lines := emit(shadergen.StageVertex); len(lines) != 0 {
		t.Errorf("vertex stage: want no statements, got %q", lines)
	}

	// Without a sibling surface shader only the output is declared.
	wantDefault := []string{"material mat_out = material(vec3(0.0),vec3(0.0));"}
	mg.matIn.Disconnect()
	if got := emit(shadergen.StagePixel); !slices.Equal(got, wantDefault) {
		t.Errorf("unconnected: want %q, got %q", wantDefault, got)
	}
	if lines := emit(shadergen.StageVertex); len(lines) != 0 {
		t.Errorf("unconnected vertex stage: want no statements, got %q", lines)
	}
	if err := mg.matIn.Connect(mg.sock); err != nil {
		t.Fatal(err)
	}
	if got := emit(shadergen.StagePixel); !slices.Equal(got, wantDefault) {
		t.Errorf("interface connection: want %q, got %q", wantDefault, got)
	}
	if lines := emit(shadergen.StageVertex); len(lines) != 0 {
		t.Errorf("interface vertex stage: want no statements, got %q", lines)
	}
}

func TestMaterialEmissionSameStage(t *testing.T) {
	ctx := newContext()
	mg := newMaterialGraph(t)
	if err := mg.matIn.Connect(mg.srfOut); err != nil {
		t.Fatal(err)
	}
	stage := shadergen.NewShaderStage(shadergen.StagePixel)
	for i := 0; i < 2; i++ {
		if err := (shadergen.MaterialNode{}).EmitFunctionCall(mg.mat, ctx, stage); err != nil {
			t.Fatal(err)
		}
	}
	// The surface shader is emitted once, the assignment once per call.
	want := []string{
		"surfaceshader srf_out = mx_surface_unlit(1.);",
		"material mat_out = srf_out;",
		"material mat_out = srf_out;",
	}
	if got := stage.Lines(); !slices.Equal(got, want) {
		t.Errorf("want\n%q\ngot\n%q", want, got)
	}

	// Dispatching through the context emits the material once.
	stage = shadergen.NewShaderStage(shadergen.StagePixel)
	for i := 0; i < 2; i++ {
		if err := ctx.EmitFunctionCall(mg.mat, stage); err != nil {
			t.Fatal(err)
		}
	}
	if got := stage.Lines(); !slices.Equal(got, want[:2]) {
		t.Errorf("want\n%q\ngot\n%q", want[:2], got)
	}
}

func TestMaterialEmitsSurfaceOnce(t *testing.T) {
	ctx := newContext()
	mg := newMaterialGraph(t)
	if err := mg.matIn.Connect(mg.srfOut); err != nil {
		t.Fatal(err)
	}
	stage := shadergen.NewShaderStage(shadergen.StagePixel)
	for _, n := range []*shadergraph.Node{mg.srf, mg.mat} {
		if err := ctx.EmitFunctionCall(n, stage); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(stage.Lines()); got != 2 {
		t.Errorf("want 2 statements, got %d: %q", got, stage.Lines())
	}
}
