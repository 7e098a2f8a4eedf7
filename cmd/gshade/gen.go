package main

import (
	"github.com/soypat/gshade/gshadeaux"
	"github.com/spf13/cobra"
)

func newGenCmd() *cobra.Command {
	var (
		configPath string
		cfg        gshadeaux.GenerateConfig
	)
	cmd := &cobra.Command{
		Use:   "gen <documents...>",
		Short: "Generate GLSL programs for the graphs of the given documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := cfg
			if configPath != "" {
				file, err := gshadeaux.LoadConfig(configPath)
				if err != nil {
					return err
				}
				gen = mergeFlags(cmd, file.Generate, cfg)
			}
			quiet, _ := cmd.Flags().GetBool("quiet")
			gen.Silent = gen.Silent || quiet
			return gshadeaux.Generate(cmd.Context(), args, gen, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "TOML configuration file")
	flags.StringVarP(&cfg.OutputDir, "output-dir", "o", "", "directory to write programs to instead of stdout")
	flags.StringSliceVarP(&cfg.Graphs, "graph", "g", nil, "graph to generate, may be repeated (default all)")
	flags.BoolVar(&cfg.Vertex, "vertex", false, "also write vertex programs")
	flags.BoolVar(&cfg.RejectDuplicateTypes, "reject-duplicates", false, "fail when a custom type is declared twice")
	flags.StringVar(&cfg.TypeCache, "type-cache", "", "custom type cache file")
	return cmd
}

// mergeFlags returns the file configuration overridden by the flags set on the command line.
func mergeFlags(cmd *cobra.Command, file, flags gshadeaux.GenerateConfig) gshadeaux.GenerateConfig {
	changed := cmd.Flags().Changed
	if changed("output-dir") {
		file.OutputDir = flags.OutputDir
	}
	if changed("graph") {
		file.Graphs = flags.Graphs
	}
	if changed("vertex") {
		file.Vertex = flags.Vertex
	}
	if changed("reject-duplicates") {
		file.RejectDuplicateTypes = flags.RejectDuplicateTypes
	}
	if changed("type-cache") {
		file.TypeCache = flags.TypeCache
	}
	return file
}
