package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/soypat/gshade/document"
	"github.com/soypat/gshade/typedesc"
	"github.com/spf13/cobra"
)

var (
	builtinColor = color.New(color.FgCyan)
	customColor  = color.New(color.FgGreen, color.Bold)
	memberColor  = color.New(color.FgYellow)
)

func newTypesCmd() *cobra.Command {
	var customOnly bool
	cmd := &cobra.Command{
		Use:   "types [documents...]",
		Short: "List builtin types and the custom types declared by documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := typedesc.NewDefaultRegistry()
			if len(args) > 0 {
				_, err := document.LoadFiles(cmd.Context(), reg, args)
				if err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if !customOnly {
				for _, t := range reg.BuiltinTypes() {
					printType(out, builtinColor, t)
				}
			}
			for _, t := range reg.CustomTypes() {
				printType(out, customColor, t)
				members, err := reg.StructMembers(t)
				if err != nil {
					return err
				}
				for _, m := range members {
					line := fmt.Sprintf("    %-16s %s", m.Name, m.Type.Name())
					if m.DefaultValue != "" {
						line += " = " + m.DefaultValue
					}
					memberColor.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&customOnly, "custom", false, "only list custom types")
	return cmd
}

func printType(w io.Writer, c *color.Color, t typedesc.TypeDesc) {
	size := fmt.Sprint(t.Size())
	if t.IsArray() {
		size = "array"
	}
	attrs := []string{t.BaseType().String(), t.Semantic().String(), size}
	c.Fprintf(w, "%-20s", t.Name())
	fmt.Fprintln(w, strings.Join(attrs, " "))
}
