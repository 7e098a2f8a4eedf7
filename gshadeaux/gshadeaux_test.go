package gshadeaux_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/gshade/gshadeaux"
	"github.com/soypat/gshade/typedesc"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gshade.toml")
	writeFile(t, path, "[generate]\nsilent = true\ngraphs = [\"scene\"]\nvertex = true\n")
	cfg, err := gshadeaux.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	gen := cfg.Generate
	if !gen.Silent || !gen.Vertex || len(gen.Graphs) != 1 || gen.Graphs[0] != "scene" {
		t.Errorf("unexpected config %+v", gen)
	}
	if gen.RejectDuplicateTypes || gen.OutputDir != "" {
		t.Errorf("absent keys must keep zero value: %+v", gen)
	}

	for _, bad := range []string{
		"silent = true\n",
		"[generate]\nsilentt = true\n",
		"[generate]\ngraphs = []\n",
		"[generate\n",
	} {
		writeFile(t, path, bad)
		_, err = gshadeaux.LoadConfig(path)
		if err == nil {
			t.Errorf("want error for config %q", bad)
		}
	}
}

func TestGenerateToWriter(t *testing.T) {
	var out, logs bytes.Buffer
	cfg := gshadeaux.GenerateConfig{Graphs: []string{"scene"}}
	err := gshadeaux.Generate(context.Background(), []string{"testdata/scene.yaml"}, cfg, &out, &logs)
	if err != nil {
		t.Fatal(err)
	}
	src := out.String()
	for _, want := range []string{
		"// scene.frag\n",
		"uniform Tint tint;",
		"uniform float glow=2.;",
		"material mat_out = srf_out;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in output:\n%s", want, src)
		}
	}
	if strings.Contains(src, "flat.frag") {
		t.Error("unselected graph generated")
	}
	if !strings.Contains(logs.String(), "generated scene") {
		t.Errorf("missing log line in %q", logs.String())
	}

	logs.Reset()
	out.Reset()
	cfg.Silent = true
	err = gshadeaux.Generate(context.Background(), []string{"testdata/scene.yaml"}, cfg, &out, &logs)
	if err != nil {
		t.Fatal(err)
	}
	if logs.Len() != 0 {
		t.Errorf("silent generation logged %q", logs.String())
	}
}

func TestGenerateOutputDirAndTypeCache(t *testing.T) {
	dir := t.TempDir()
	cfg := gshadeaux.GenerateConfig{
		Silent:    true,
		Vertex:    true,
		OutputDir: filepath.Join(dir, "shaders"),
		TypeCache: filepath.Join(dir, "types.cache"),
	}
	err := gshadeaux.Generate(context.Background(), []string{"testdata/scene.yaml"}, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"scene.frag", "scene.vert", "flat.frag", "flat.vert"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Error(err)
		}
	}
	if _, err := os.Stat(cfg.TypeCache); err != nil {
		t.Fatal("type cache not written:", err)
	}

	// Tint is only declared by scene.yaml and is restored from the cache.
	err = gshadeaux.Generate(context.Background(), []string{"testdata/cached.yaml"}, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	frag, err := os.ReadFile(filepath.Join(cfg.OutputDir, "cached.frag"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(frag), "struct Tint {") {
		t.Errorf("cached type not declared:\n%s", frag)
	}
}

func TestGenerateRerunsWithTypeCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "types.cache")
	for _, reject := range []bool{false, true, true, false} {
		var out, logs bytes.Buffer
		cfg := gshadeaux.GenerateConfig{RejectDuplicateTypes: reject, TypeCache: cachePath}
		err := gshadeaux.Generate(context.Background(), []string{"testdata/scene.yaml"}, cfg, &out, &logs)
		if err != nil {
			t.Fatalf("reject=%v: %v", reject, err)
		}
		if !strings.Contains(logs.String(), "wrote 1 types to") {
			t.Errorf("reject=%v: want one cached type, log:\n%s", reject, logs.String())
		}
		fp, err := os.Open(cachePath)
		if err != nil {
			t.Fatal(err)
		}
		n, err := typedesc.NewDefaultRegistry().ReadCustomTypes(fp)
		fp.Close()
		if err != nil {
			t.Fatal(err)
		} else if n != 1 {
			t.Errorf("reject=%v: cache holds %d types, want 1", reject, n)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	var out bytes.Buffer
	ctx := context.Background()
	if err := gshadeaux.Generate(ctx, nil, gshadeaux.GenerateConfig{}, &out, nil); err == nil {
		t.Error("want error with no documents")
	}
	if err := gshadeaux.Generate(ctx, []string{"testdata/scene.yaml"}, gshadeaux.GenerateConfig{}, nil, nil); err == nil {
		t.Error("want error with no output")
	}
	cfg := gshadeaux.GenerateConfig{Graphs: []string{"missing"}}
	if err := gshadeaux.Generate(ctx, []string{"testdata/scene.yaml"}, cfg, &out, nil); err == nil {
		t.Error("want error when no graph is selected")
	}
	// Tint is unknown without the cache.
	if err := gshadeaux.Generate(ctx, []string{"testdata/cached.yaml"}, gshadeaux.GenerateConfig{}, &out, nil); err == nil {
		t.Error("want error for unknown type")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		t.Fatal(err)
	}
}
