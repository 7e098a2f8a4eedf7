package shadergen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/gshade/shadergraph"
)

// maxGraphDepth bounds compound node nesting.
const maxGraphDepth = 32

var errGraphDepth = errors.New("compound graph nesting too deep")

// Shader is the result of generating a graph: one statement buffer per stage.
type Shader struct {
	Name   string
	Graph  *shadergraph.Graph
	stages [numStages]*ShaderStage
}

// Stage returns the statements generated for s.
func (sh *Shader) Stage(s Stage) *ShaderStage {
	if s >= numStages {
		return nil
	}
	return sh.stages[s]
}

// Generate classifies g and emits every stage. Variables are assigned to every
// port before emission: input sockets of g keep their names and are expected to be
// declared by the caller as uniforms, output sockets are assigned last in the pixel
// stage.
func (c *Context) Generate(g *shadergraph.Graph) (*Shader, error) {
	err := c.Classify(g)
	if err != nil {
		return nil, err
	}
	nm := newNamer(c.Syntax)
	for _, sock := range g.InputSockets() {
		sock.SetVariable(nm.call(sock.Name()))
	}
	for _, sock := range g.OutputSockets() {
		sock.SetVariable(nm.call(sock.Name()))
	}
	err = assignVariables(g, nm, 0)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	sh := &Shader{Name: g.Name(), Graph: g}
	for s := StageVertex; s < numStages; s++ {
		stage := NewShaderStage(s)
		for _, n := range order {
			err = c.EmitFunctionCall(n, stage)
			if err != nil {
				return nil, fmt.Errorf("%s stage: %w", s, err)
			}
		}
		if s == StagePixel {
			for _, sock := range g.OutputSockets() {
				expr, err := c.InputExpression(sock)
				if err != nil {
					return nil, fmt.Errorf("output %q: %w", sock.Name(), err)
				}
				stage.EmitLine(c.Syntax.TypeName(sock.Type()) + " " + sock.Variable() + " = " + expr)
			}
		}
		sh.stages[s] = stage
	}
	return sh, nil
}

// assignVariables names the output variables of g's nodes and the sockets of their subgraphs.
func assignVariables(g *shadergraph.Graph, nm *namer, depth int) error {
	if depth > maxGraphDepth {
		return errGraphDepth
	}
	for _, n := range g.Nodes() {
		for _, out := range n.Outputs() {
			out.SetVariable(nm.call(n.Name() + "_" + out.Name()))
		}
		sub := n.Subgraph()
		if sub == nil {
			continue
		}
		for _, sock := range sub.InputSockets() {
			sock.SetVariable(nm.call(n.Name() + "_" + sock.Name()))
		}
		err := assignVariables(sub, nm, depth+1)
		if err != nil {
			return err
		}
	}
	return nil
}

// namer generates unique identifiers for a generated shader.
type namer struct {
	syntax    Syntax
	usedNames map[string]struct{}
	counter   uint32
}

func newNamer(syntax Syntax) *namer {
	return &namer{syntax: syntax, usedNames: make(map[string]struct{})}
}

// call returns a unique identifier derived from base.
func (nm *namer) call(base string) string {
	name := nm.sanitize(base)
	if _, used := nm.usedNames[name]; !used {
		nm.usedNames[name] = struct{}{}
		return name
	}
	prefix := strings.TrimRight(name, "_") + "_"
	for {
		nm.counter++
		candidate := prefix + strconv.FormatUint(uint64(nm.counter), 10)
		if _, used := nm.usedNames[candidate]; !used {
			nm.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}

// sanitize maps base to a valid identifier that is not reserved by the syntax.
func (nm *namer) sanitize(base string) string {
	if base == "" {
		return "unnamed"
	}
	b := []byte(base)
	for i, c := range b {
		isAlnum := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
		if !isAlnum {
			b[i] = '_'
		}
	}
	name := string(b)
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_") // Double underscores are reserved in GLSL.
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "v" + name
	}
	if strings.HasPrefix(name, "gl_") {
		name = "v" + name
	} else if nm.syntax.IsReserved(name) {
		name += "_"
	}
	return name
}
