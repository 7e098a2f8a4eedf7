package gshadeaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/soypat/gshade"
	"github.com/soypat/gshade/document"
	"github.com/soypat/gshade/typedesc"
)

// Generate is an auxiliary function to aid users in getting setup in using gshade quickly.
// It loads the documents at paths and writes a GLSL program for every selected graph,
// either to files in cfg.OutputDir or to output. Log lines are written to logOutput
// unless cfg.Silent is set.
func Generate(ctx context.Context, paths []string, cfg GenerateConfig, output, logOutput io.Writer) (err error) {
	if len(paths) == 0 {
		return errors.New("Generate requires at least one document")
	} else if cfg.OutputDir == "" && output == nil {
		return errors.New("Generate requires output directory or writer")
	}
	log := func(args ...any) {
		if !cfg.Silent && logOutput != nil {
			fmt.Fprintln(logOutput, args...)
		}
	}
	reg := typedesc.NewRegistry(typedesc.RegistryConfig{RejectDuplicates: cfg.RejectDuplicateTypes})
	if cfg.TypeCache != "" {
		n, err := readTypeCache(reg, cfg.TypeCache)
		if err != nil {
			return err
		}
		log("read", n, "cached types from", cfg.TypeCache)
	}

	watch := stopwatch()
	docs, err := document.LoadFiles(ctx, reg, paths)
	if err != nil {
		return err
	}
	log("loaded", len(docs), "documents in", watch())

	sess, err := gshade.NewSession(reg)
	if err != nil {
		return err
	}
	if cfg.OutputDir != "" {
		err = os.MkdirAll(cfg.OutputDir, 0o755)
		if err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	generated := 0
	for _, doc := range docs {
		for _, g := range doc.Graphs {
			if len(cfg.Graphs) > 0 && !slices.Contains(cfg.Graphs, g.Name()) {
				continue
			}
			watch = stopwatch()
			buf.Reset()
			_, err = sess.WriteFragment(&buf, g)
			if err != nil {
				return fmt.Errorf("%s: %w", doc.Path, err)
			}
			err = writeProgram(output, cfg.OutputDir, g.Name()+".frag", buf.Bytes())
			if err != nil {
				return err
			}
			if cfg.Vertex {
				buf.Reset()
				_, err = sess.WriteVertex(&buf, g)
				if err != nil {
					return fmt.Errorf("%s: %w", doc.Path, err)
				}
				err = writeProgram(output, cfg.OutputDir, g.Name()+".vert", buf.Bytes())
				if err != nil {
					return err
				}
			}
			generated++
			log("generated", g.Name(), "in", watch())
		}
	}
	if generated == 0 {
		return errors.New("no graphs generated")
	}

	if cfg.TypeCache != "" {
		n, err := writeTypeCache(reg, cfg.TypeCache)
		if err != nil {
			return err
		}
		log("wrote", n, "types to", cfg.TypeCache)
	}
	return nil
}

func writeProgram(output io.Writer, dir, filename string, src []byte) error {
	if dir == "" {
		_, err := fmt.Fprintf(output, "// %s\n%s\n", filename, src)
		return err
	}
	return os.WriteFile(filepath.Join(dir, filename), src, 0o644)
}

// readTypeCache registers the custom types cached at path. A missing file is not an error.
func readTypeCache(reg *typedesc.Registry, path string) (int, error) {
	fp, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	defer fp.Close()
	n, err := reg.ReadCustomTypes(fp)
	if err != nil {
		return n, fmt.Errorf("reading type cache %s: %w", path, err)
	}
	return n, nil
}

func writeTypeCache(reg *typedesc.Registry, path string) (int, error) {
	fp, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := reg.WriteCustomTypes(fp)
	if err != nil {
		fp.Close()
		return 0, fmt.Errorf("writing type cache %s: %w", path, err)
	}
	return n, fp.Close()
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
