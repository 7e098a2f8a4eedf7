// Package gshade generates GLSL shader programs from shading networks.
//
// A [Session] ties together the pieces of a compilation: the type registry
// documents register their struct types in, the GLSL syntax, the table of node
// implementations and the programmer that writes complete GLSL sources. Graphs
// are built with [shadergraph] directly, with a [Builder], or loaded from YAML
// documents by the document package.
package gshade

import (
	"errors"
	"fmt"
	"io"

	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/glbuild/glsllib"
	"github.com/soypat/gshade/shadergen"
	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
)

// Session generates GLSL programs. A Session is not safe for concurrent use
// though its Registry is.
type Session struct {
	Registry   *typedesc.Registry
	Syntax     *glbuild.Syntax
	Context    *shadergen.Context
	Programmer *glbuild.Programmer
}

// NewSession returns a Session using reg for type resolution. A new registry is
// created if reg is nil. The closure types and library functions of glsllib are
// available to generated programs.
func NewSession(reg *typedesc.Registry) (*Session, error) {
	if reg == nil {
		reg = typedesc.NewDefaultRegistry()
	}
	syntax := glbuild.NewSyntax(reg)
	p := glbuild.NewDefaultProgrammer(reg, syntax)
	p.SetPrelude(glsllib.ClosureTypes())
	err := p.AddFunctions(glsllib.Functions()...)
	if err != nil {
		return nil, err
	}
	return &Session{
		Registry:   reg,
		Syntax:     syntax,
		Context:    shadergen.NewContext(reg, syntax, nil),
		Programmer: p,
	}, nil
}

// Generate classifies g and generates the statements of every stage.
func (s *Session) Generate(g *shadergraph.Graph) (*shadergen.Shader, error) {
	if g == nil {
		return nil, errors.New("nil graph")
	}
	return s.Context.Generate(g)
}

// WriteFragment generates g and writes its fragment program to w.
func (s *Session) WriteFragment(w io.Writer, g *shadergraph.Graph) (int, error) {
	sh, err := s.Generate(g)
	if err != nil {
		return 0, fmt.Errorf("generating %q: %w", g.Name(), err)
	}
	return s.Programmer.WriteFragment(w, sh)
}

// WriteVertex generates g and writes its vertex program to w.
func (s *Session) WriteVertex(w io.Writer, g *shadergraph.Graph) (int, error) {
	sh, err := s.Generate(g)
	if err != nil {
		return 0, fmt.Errorf("generating %q: %w", g.Name(), err)
	}
	return s.Programmer.WriteVertex(w, sh)
}
