package document_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/soypat/gshade/document"
	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/shadergen"
	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
	"github.com/soypat/gshade/value"
)

func TestLoadFile(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	doc, err := document.LoadFile("testdata/unlit.yaml", reg)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Types) != 1 || doc.Types[0].Name() != "Light" {
		t.Fatalf("unexpected types %v", doc.Types)
	}
	if !reg.GetCustomType("Light").IsStruct() {
		t.Fatal("Light not registered")
	}
	g := doc.Graph("main")
	if g == nil {
		t.Fatal("graph main not loaded")
	}
	key := g.InputSocket("key")
	agg, ok := key.Value().(*value.Aggregate)
	if !ok || len(agg.Members) != 2 {
		t.Fatalf("want Light aggregate value, got %#v", key.Value())
	}
	if agg.Members[1] != value.Float(2) {
		t.Errorf("want intensity 2, got %v", agg.Members[1])
	}

	ctx := shadergen.NewContext(reg, glbuild.NewSyntax(reg), nil)
	sh, err := ctx.Generate(g)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"surfaceshader srf_out = mx_surface_unlit(base, vec3(1.,0.5,0.));",
		"material mat_out = srf_out;",
		"material out_ = mat_out;",
	}
	if got := sh.Stage(shadergen.StagePixel).Lines(); !slices.Equal(got, want) {
		t.Errorf("want\n%q\ngot\n%q", want, got)
	}
	mat := g.FindNode("mat")
	wantClass := shadergraph.ClassShader | shadergraph.ClassSurface | shadergraph.ClassClosure
	if mat.Classification() != wantClass {
		t.Errorf("want material classification %s, got %s", wantClass, mat.Classification())
	}
}

func TestLoadNodeGraphs(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	doc, err := document.LoadFile("testdata/wrapped.yaml", reg)
	if err != nil {
		t.Fatal(err)
	}
	g := doc.Graph("wrapped")
	w1, w2 := g.FindNode("w1"), g.FindNode("w2")
	if w1.Subgraph() == nil || w2.Subgraph() == nil {
		t.Fatal("want compound nodes")
	}
	if w1.Subgraph() == w2.Subgraph() {
		t.Error("each reference must expand to its own graph")
	}
	if w1.Impl() != "compound" {
		t.Errorf("want default compound impl, got %q", w1.Impl())
	}
	ctx := shadergen.NewContext(reg, glbuild.NewSyntax(reg), nil)
	sh, err := ctx.Generate(g)
	if err != nil {
		t.Fatal(err)
	}
	code := sh.Stage(shadergen.StagePixel).Code()
	if strings.Count(code, "mx_surface_unlit()") != 1 {
		t.Errorf("surface shader must be emitted once:\n%s", code)
	}
	for _, want := range []string{"surfaceshader w1_surface = srf_out;", "material out_ = w1_out;"} {
		if !strings.Contains(code, want) {
			t.Errorf("missing %q in\n%s", want, code)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown type",
			doc:  "graphs: [{name: g, inputs: [{name: a, type: float5}]}]",
			want: document.ErrUnknownType,
		},
		{
			name: "unknown node",
			doc: `graphs: [{name: g, nodes: [{name: m, impl: material, inputs: [{name: surfaceshader, type: surfaceshader, node: nope}]}]}]`,
			want: document.ErrUnknownNode,
		},
		{
			name: "unknown graph",
			doc:  "graphs: [{name: g, nodes: [{name: c, graph: nope}]}]",
			want: document.ErrUnknownGraph,
		},
		{
			name: "type mismatch",
			doc: `graphs: [{name: g, inputs: [{name: a, type: float}],
  nodes: [{name: m, impl: material, inputs: [{name: surfaceshader, type: surfaceshader, interface: a}]}]}]`,
			want: shadergraph.ErrTypeMismatch,
		},
		{
			name: "duplicate node",
			doc:  "graphs: [{name: g, nodes: [{name: n, impl: add}, {name: n, impl: add}]}]",
			want: shadergraph.ErrDuplicateNode,
		},
		{
			name: "builtin typedef",
			doc:  "typedefs: [{name: float, members: []}]",
			want: typedesc.ErrBuiltinType,
		},
	} {
		reg := typedesc.NewDefaultRegistry()
		_, err := document.Load(strings.NewReader(test.doc), reg)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: want %v, got %v", test.name, test.want, err)
		}
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	_, err := document.Load(strings.NewReader("graphs: [{name: g, colour: red}]"), reg)
	if err == nil {
		t.Error("want error for unknown field")
	}
}

func TestLoadEmpty(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	doc, err := document.Load(strings.NewReader(""), reg)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Graphs) != 0 || len(doc.Types) != 0 {
		t.Error("want empty document")
	}
}

func TestLoadFiles(t *testing.T) {
	reg := typedesc.NewDefaultRegistry()
	paths := []string{"testdata/unlit.yaml", "testdata/wrapped.yaml"}
	docs, err := document.LoadFiles(context.Background(), reg, paths)
	if err != nil {
		t.Fatal(err)
	}
	for i, doc := range docs {
		if doc.Path != paths[i] {
			t.Errorf("document %d: want path %q, got %q", i, paths[i], doc.Path)
		}
	}
	for _, name := range []string{"Light", "Tint"} {
		if !reg.GetCustomType(name).IsStruct() {
			t.Errorf("type %q not registered", name)
		}
	}
	_, err = document.LoadFiles(context.Background(), reg, []string{"testdata/unlit.yaml", "testdata/missing.yaml"})
	if err == nil {
		t.Error("want error loading missing file")
	}
}
