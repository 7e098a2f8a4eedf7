package gshadeaux

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the generation configuration read from a gshade.toml file:
//
//	[generate]
//	silent = false
//	reject_duplicate_types = false
//	graphs = ["main"]
//	vertex = false
//	output_dir = "shaders"
//	type_cache = ".gshade-types"
type Config struct {
	Generate GenerateConfig `toml:"generate"`
}

type GenerateConfig struct {
	Silent bool `toml:"silent"`
	// RejectDuplicateTypes fails loading when a custom type is declared twice, by two
	// documents or by a document and the type cache.
	RejectDuplicateTypes bool `toml:"reject_duplicate_types"`
	// Graphs lists the graphs to generate. Every graph is generated if empty.
	Graphs []string `toml:"graphs"`
	// Vertex enables writing vertex programs next to fragment programs.
	Vertex bool `toml:"vertex"`
	// OutputDir is the directory programs are written to as <graph>.frag and
	// <graph>.vert. Programs are written to the writer passed to
	// Generate if empty.
	OutputDir string `toml:"output_dir"`
	// TypeCache is a file custom types are read from before loading and written to after.
	TypeCache string `toml:"type_cache"`
}

// LoadConfig reads the configuration at path. Keys absent from the file keep
// their zero value.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("generate") {
		return Config{}, fmt.Errorf("%s: missing [generate]", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("generate", "graphs") && len(cfg.Generate.Graphs) == 0 {
		return Config{}, fmt.Errorf("%s: [generate].graphs is empty", path)
	}
	return cfg, nil
}
