package glbuild_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/glbuild/glsllib"
	"github.com/soypat/gshade/shadergen"
	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
	"github.com/soypat/gshade/value"
)

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{0, "0."},
		{1, "1."},
		{0.5, "0.5"},
		{-2.25, "-2.25"},
		{math32.NaN(), "(0.0/0.0)"},
		{math32.Inf(1), "(1.0/0.0)"},
		{math32.Inf(-1), "(-1.0/0.0)"},
	} {
		got := string(glbuild.AppendFloat(nil, '-', '.', test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%v): want %q, got %q", test.v, test.want, got)
		}
	}
	got := string(glbuild.AppendFloat(nil, 'n', 'p', -1.5))
	if got != "n1p5" {
		t.Errorf("want custom sign and decimal, got %q", got)
	}
}

func TestSyntaxTypes(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	syntax := glbuild.NewSyntax(reg)
	for _, test := range []struct {
		t        typedesc.TypeDesc
		name     string
		defvalue string
	}{
		{typedesc.Float, "float", "0.0"},
		{typedesc.Color3, "vec3", "vec3(0.0)"},
		{typedesc.Vector4, "vec4", "vec4(0.0)"},
		{typedesc.Matrix33, "mat3", "mat3(1.0)"},
		{typedesc.Filename, "int", "0"},
		{typedesc.SurfaceShader, "surfaceshader", "surfaceshader(vec3(0.0),vec3(0.0))"},
		{typedesc.Material, "material", "material(vec3(0.0),vec3(0.0))"},
	} {
		if got := syntax.TypeName(test.t); got != test.name {
			t.Errorf("TypeName(%s): want %q, got %q", test.t, test.name, got)
		}
		if got := syntax.DefaultValue(test.t); got != test.defvalue {
			t.Errorf("DefaultValue(%s): want %q, got %q", test.t, test.defvalue, got)
		}
	}
	if !syntax.IsReserved("out") || !syntax.IsReserved("surfaceshader") || syntax.IsReserved("albedo") {
		t.Error("unexpected reserved word set")
	}
}

func TestSyntaxValues(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	syntax := glbuild.NewSyntax(reg)
	mat, err := value.Parse("1,2,3,4,5,6,7,8,9", "matrix33")
	if err != nil {
		t.Fatal(err)
	}
	got, err := syntax.ValueString(typedesc.Matrix33, mat)
	if err != nil {
		t.Fatal(err)
	}
	// Matrices are given in row major order and constructed column major.
	if want := "mat3(1.,4.,7.,2.,5.,8.,3.,6.,9.)"; got != want {
		t.Errorf("matrix: want %q, got %q", want, got)
	}
	got, err = syntax.ValueString(typedesc.FloatArray, value.FloatArray{1, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if want := "float[2](1.,0.5)"; got != want {
		t.Errorf("array: want %q, got %q", want, got)
	}

	light, err := reg.RegisterCustomType("Light", typedesc.BaseStruct, typedesc.SemanticNone, 1, []typedesc.StructMember{
		{Name: "color", Type: typedesc.Color3, DefaultValue: "1, 1, 1"},
		{Name: "intensity", Type: typedesc.Float},
		{Name: "enabled", Type: typedesc.Boolean, DefaultValue: "true"},
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := reg.ParseValue(light, "{0.5,0.5,0.5};2;false")
	if err != nil {
		t.Fatal(err)
	}
	got, err = syntax.ValueString(light, v)
	if err != nil {
		t.Fatal(err)
	}
	if want := "Light(vec3(0.5,0.5,0.5),2.,false)"; got != want {
		t.Errorf("struct: want %q, got %q", want, got)
	}
	if want, got := "Light(vec3(1.,1.,1.),0.0,true)", syntax.DefaultValue(light); got != want {
		t.Errorf("struct default: want %q, got %q", want, got)
	}
	_, err = syntax.ValueString(light, &value.Aggregate{Type: "Light", Members: []value.Value{value.Float(1)}})
	var arity *typedesc.ArityError
	if !errors.As(err, &arity) {
		t.Errorf("want arity error, got %v", err)
	}
}

func TestAddFunctions(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	p := glbuild.NewDefaultProgrammer(reg, glbuild.NewSyntax(reg))
	fns := glsllib.Functions()
	if err := p.AddFunctions(fns...); err != nil {
		t.Fatal(err)
	}
	if err := p.AddFunctions(fns...); err != nil {
		t.Error("re-adding identical functions:", err)
	}
	conflict, err := glbuild.MakeShaderFunction([]byte("surfaceshader mx_surface_unlit(float e) { return surfaceshader(vec3(e),vec3(0.0)); }"))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.AddFunctions(conflict); err == nil {
		t.Error("want error adding distinct function with same name")
	}
	if string(fns[0].Name) != "mx_surface_unlit" {
		t.Errorf("unexpected function name %q", fns[0].Name)
	}
}

func TestMakeShaderFunction(t *testing.T) {
	_, err := glbuild.MakeShaderFunction([]byte("not a function"))
	if err == nil {
		t.Error("want error for source with no function")
	}
	fn, err := glbuild.MakeShaderFunction([]byte("  float twice(float x) { return 2.0*x; }\n"))
	if err != nil {
		t.Fatal(err)
	}
	if string(fn.Name) != "twice" {
		t.Errorf("want name twice, got %q", fn.Name)
	}
}

func TestWriteFragment(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	syntax := glbuild.NewSyntax(reg)
	tint, err := reg.RegisterCustomType("Tint", typedesc.BaseStruct, typedesc.SemanticNone, 1, []typedesc.StructMember{
		{Name: "color", Type: typedesc.Color3},
		{Name: "amount", Type: typedesc.Float},
	})
	if err != nil {
		t.Fatal(err)
	}
	g := shadergraph.NewGraph("main")
	base, _ := g.AddInputSocket("base", typedesc.Float)
	base.SetValue(value.Float(0.75))
	if _, err = g.AddInputSocket("tint", tint); err != nil {
		t.Fatal(err)
	}
	srf, _ := g.AddNode("srf", "surface_unlit")
	srf.SetClassification(shadergraph.ClassSurface)
	srf.SetFunction("mx_surface_unlit")
	for _, name := range []string{"emission", "emission_color", "transmission", "transmission_color", "opacity"} {
		typ := typedesc.Float
		if strings.HasSuffix(name, "color") {
			typ = typedesc.Color3
		}
		if _, err := srf.AddInput(name, typ); err != nil {
			t.Fatal(err)
		}
	}
	srf.Input("opacity").SetValue(value.Float(1))
	if err := srf.Input("emission").Connect(base); err != nil {
		t.Fatal(err)
	}
	srfOut, _ := srf.AddOutput("out", typedesc.SurfaceShader)
	mat, _ := g.AddNode("mat", "material")
	matIn, _ := mat.AddInput(shadergraph.SurfaceShaderInput, typedesc.SurfaceShader)
	matOut, _ := mat.AddOutput("out", typedesc.Material)
	out, _ := g.AddOutputSocket("out", typedesc.Material)
	if err := matIn.Connect(srfOut); err != nil {
		t.Fatal(err)
	}
	if err := out.Connect(matOut); err != nil {
		t.Fatal(err)
	}

	ctx := shadergen.NewContext(reg, syntax, nil)
	sh, err := ctx.Generate(g)
	if err != nil {
		t.Fatal(err)
	}
	p := glbuild.NewDefaultProgrammer(reg, syntax)
	p.SetPrelude(glsllib.ClosureTypes())
	if err := p.AddFunctions(glsllib.Functions()...); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := p.WriteFragment(&buf, sh)
	if err != nil {
		t.Fatal(err)
	} else if n != buf.Len() {
		t.Fatalf("written length mismatch %d != %d", n, buf.Len())
	}
	src := buf.String()
	for _, want := range []string{
		"#version 430\n",
		"struct surfaceshader",
		"struct Tint {\n\tvec3 color;\n\tfloat amount;\n};",
		"uniform float base=0.75;",
		"uniform Tint tint;",
		"out vec4 fragColor;",
		"\tmaterial mat_out = srf_out;\n",
		"\tfragColor = vec4(out_.color,1.0);",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in program:\n%s", want, src)
		}
	}
	if strings.Count(src, "surfaceshader mx_surface_unlit(") != 1 {
		t.Errorf("want one referenced library function in program:\n%s", src)
	}
	if strings.Contains(src, "mx_mix_surfaceshader") {
		t.Error("unreferenced library function written to program")
	}

	buf.Reset()
	_, err = p.WriteVertex(&buf, sh)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "gl_Position") {
		t.Errorf("vertex program lacks gl_Position:\n%s", buf.String())
	}
}
