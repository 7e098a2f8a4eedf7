package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/soypat/gshade/shadergen"
	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
)

const VersionStr = "#version 430\n"

// ShaderFunction is a GLSL function definition that generated code may call.
type ShaderFunction struct {
	// Name is the name of the function within Source.
	Name   []byte
	Source []byte
}

// MakeShaderFunction parses the name of the function defined in shaderDef.
func MakeShaderFunction(shaderDef []byte) (sf ShaderFunction, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	fnNameEnd := bytes.IndexByte(shaderDef, '(')
	fnNameStart := bytes.IndexByte(shaderDef, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return ShaderFunction{}, errors.New("unable to parse function name")
	}
	name := shaderDef[fnNameStart:fnNameEnd]
	name = bytes.TrimSpace(name)
	if len(name) == 0 {
		return ShaderFunction{}, errors.New("empty function name")
	}
	return ShaderFunction{Name: name, Source: shaderDef}, nil
}

// Programmer writes complete GLSL programs from generated [shadergen.Shader]s.
type Programmer struct {
	syntax  *Syntax
	reg     *typedesc.Registry
	scratch []byte
	prelude []byte
	funcs   []ShaderFunction
	// names maps function name hashes to body hashes for checking duplicates.
	names map[uint64]uint64
}

// NewDefaultProgrammer returns a Programmer formatting with syntax and resolving struct types with reg.
func NewDefaultProgrammer(reg *typedesc.Registry, syntax *Syntax) *Programmer {
	return &Programmer{
		syntax:  syntax,
		reg:     reg,
		scratch: make([]byte, 0, 1024),
		names:   make(map[uint64]uint64),
	}
}

// SetPrelude sets the source written after the version directive of every program,
// usually the closure type definitions.
func (p *Programmer) SetPrelude(src []byte) { p.prelude = src }

// AddFunctions adds library functions. A function is written to a program only if
// the program's code references it. Adding a function that was already added is a
// no-op, adding a distinct function with the same name is an error.
func (p *Programmer) AddFunctions(fns ...ShaderFunction) error {
	for _, fn := range fns {
		nameHash := hash(fn.Name, 0)
		bodyHash := hash(fn.Source, nameHash) // Body hash mixes name as well.
		gotBodyHash, nameConflict := p.names[nameHash]
		if nameConflict {
			if gotBodyHash == bodyHash {
				continue // Already added and identical.
			}
			return fmt.Errorf("duplicate shader function name %q with distinct body", fn.Name)
		}
		p.names[nameHash] = bodyHash
		p.funcs = append(p.funcs, fn)
	}
	return nil
}

// WriteFragment writes the fragment program of sh to w. The graph's input sockets are
// declared as uniforms and its first output socket is written to fragColor.
func (p *Programmer) WriteFragment(w io.Writer, sh *shadergen.Shader) (n int, err error) {
	stage := sh.Stage(shadergen.StagePixel)
	if stage == nil {
		return 0, errors.New("shader has no pixel stage")
	}
	b, err := p.appendHeader(p.scratch[:0], sh, stage)
	if err != nil {
		return 0, err
	}
	for _, sock := range sh.Graph.InputSockets() {
		init := ""
		if v := sock.Value(); v != nil {
			init, err = p.syntax.ValueString(sock.Type(), v)
			if err != nil {
				return 0, fmt.Errorf("input %q: %w", sock.Name(), err)
			}
		}
		b = AppendUniformDecl(b, p.syntax.TypeName(sock.Type()), sock.Variable(), init)
	}
	b = append(b, "out vec4 fragColor;\n\nvoid main() {\n"...)
	b = stage.AppendCode(b)
	b = append(b, "\tfragColor = "...)
	b = appendFragColor(b, sh.Graph)
	b = append(b, ";\n}\n"...)
	p.scratch = b
	return w.Write(b)
}

// WriteVertex writes the vertex program of sh to w.
func (p *Programmer) WriteVertex(w io.Writer, sh *shadergen.Shader) (n int, err error) {
	stage := sh.Stage(shadergen.StageVertex)
	if stage == nil {
		return 0, errors.New("shader has no vertex stage")
	}
	b, err := p.appendHeader(p.scratch[:0], sh, stage)
	if err != nil {
		return 0, err
	}
	b = append(b, "layout(location = 0) in vec3 position;\n\nvoid main() {\n"...)
	b = stage.AppendCode(b)
	b = append(b, "\tgl_Position = vec4(position, 1.0);\n}\n"...)
	p.scratch = b
	return w.Write(b)
}

func (p *Programmer) appendHeader(b []byte, sh *shadergen.Shader, stage *shadergen.ShaderStage) ([]byte, error) {
	b = append(b, VersionStr...)
	b = append(b, p.prelude...)
	structs, err := p.structTypes(sh.Graph)
	if err != nil {
		return b, err
	}
	for _, t := range structs {
		members, err := p.reg.StructMembers(t)
		if err != nil {
			return b, err
		}
		b = AppendStructDecl(b, t.Name(), members, p.syntax)
	}
	code := stage.AppendCode(nil)
	for _, fn := range p.funcs {
		if !bytes.Contains(code, fn.Name) {
			continue
		}
		b = append(b, '\n')
		b = append(b, fn.Source...)
		b = append(b, '\n')
	}
	return append(b, '\n'), nil
}

// structTypes returns the struct types used by the ports of g, its nodes and their
// subgraphs. Struct types used as members come before the structs containing them.
func (p *Programmer) structTypes(g *shadergraph.Graph) ([]typedesc.TypeDesc, error) {
	var result []typedesc.TypeDesc
	seen := make(map[string]bool)
	var add func(t typedesc.TypeDesc, depth int) error
	add = func(t typedesc.TypeDesc, depth int) error {
		if !t.IsStruct() || seen[t.Name()] {
			return nil
		} else if depth > typedesc.MaxStructDepth {
			return typedesc.ErrStructDepth
		}
		members, err := p.reg.StructMembers(t)
		if err != nil {
			return err
		}
		seen[t.Name()] = true
		for _, m := range members {
			err = add(m.Type, depth+1)
			if err != nil {
				return err
			}
		}
		result = append(result, t)
		return nil
	}
	var walk func(n *shadergraph.Node, depth int) error
	walk = func(n *shadergraph.Node, depth int) error {
		for _, in := range n.Inputs() {
			if err := add(in.Type(), 0); err != nil {
				return err
			}
		}
		for _, out := range n.Outputs() {
			if err := add(out.Type(), 0); err != nil {
				return err
			}
		}
		sub := n.Subgraph()
		if sub == nil {
			return nil
		} else if depth > typedesc.MaxStructDepth {
			return errors.New("compound graph nesting too deep")
		}
		if err := walk(sub.AsNode(), depth+1); err != nil {
			return err
		}
		for _, child := range sub.Nodes() {
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	err := walk(g.AsNode(), 0)
	for _, n := range g.Nodes() {
		if err != nil {
			break
		}
		err = walk(n, 0)
	}
	return result, err
}

// appendFragColor appends a vec4 expression converting the graph's first output socket.
func appendFragColor(b []byte, g *shadergraph.Graph) []byte {
	socks := g.OutputSockets()
	if len(socks) == 0 {
		return append(b, "vec4(0.0,0.0,0.0,1.0)"...)
	}
	sock := socks[0]
	v := sock.Variable()
	t := sock.Type()
	switch {
	case t.Equal(typedesc.SurfaceShader), t.Equal(typedesc.Material):
		b = append(b, "vec4("...)
		b = append(b, v...)
		b = append(b, ".color,1.0)"...)
	case t.IsFloat3():
		b = append(b, "vec4("...)
		b = append(b, v...)
		b = append(b, ",1.0)"...)
	case t.IsFloat4():
		b = append(b, v...)
	case t.Equal(typedesc.Vector2):
		b = append(b, "vec4("...)
		b = append(b, v...)
		b = append(b, ",0.0,1.0)"...)
	case t.Equal(typedesc.Float), t.Equal(typedesc.Integer):
		b = append(b, "vec4(vec3(float("...)
		b = append(b, v...)
		b = append(b, ")),1.0)"...)
	default:
		b = append(b, "vec4(0.0,0.0,0.0,1.0)"...)
	}
	return b
}

// AppendUniformDecl appends a uniform declaration. The initializer is omitted if init is empty.
//
//	uniform <typename> <varname>[=<init>];
func AppendUniformDecl(b []byte, typename, varname, init string) []byte {
	b = append(b, "uniform "...)
	return AppendVarDecl(b, typename, varname, init)
}

// AppendVarDecl appends a variable declaration. The initializer is omitted if init is empty.
func AppendVarDecl(b []byte, typename, varname, init string) []byte {
	b = append(b, typename...)
	b = append(b, ' ')
	b = append(b, varname...)
	if init != "" {
		b = append(b, '=')
		b = append(b, init...)
	}
	b = append(b, ';', '\n')
	return b
}

// AppendStructDecl appends the declaration of a struct type.
//
//	struct <name> {
//		<member type> <member name>;
//	};
func AppendStructDecl(b []byte, name string, members []typedesc.StructMember, syntax *Syntax) []byte {
	b = append(b, "struct "...)
	b = append(b, name...)
	b = append(b, " {\n"...)
	for _, m := range members {
		b = append(b, '\t')
		b = AppendVarDecl(b, syntax.TypeName(m.Type), m.Name, "")
	}
	b = append(b, "};\n"...)
	return b
}

// appendCtor appends a vector constructor, i.e: "vec3(1.,0.5,0.)".
func appendCtor(b []byte, typename string, v ...float32) []byte {
	b = append(b, typename...)
	b = append(b, '(')
	b = AppendFloats(b, ',', '-', '.', v...)
	return append(b, ')')
}

// appendMatCtor appends a matrix constructor from a row major array.
func appendMatCtor(b []byte, typename string, row, col int, arr []float32) []byte {
	b = append(b, typename...)
	b = append(b, '(')
	for i := 0; i < row; i++ {
		for j := 0; j < col; j++ {
			v := arr[j*row+i] // Column major access, as per OpenGL standard.
			b = AppendFloat(b, '-', '.', v)
			last := i == row-1 && j == col-1
			if !last {
				b = append(b, ',')
			}
		}
	}
	return append(b, ')')
}

func appendStartArray(b []byte, typename string, length int) []byte {
	b = append(b, typename...)
	b = append(b, '[')
	b = strconv.AppendInt(b, int64(length), 10)
	b = append(b, "]("...)
	return b
}

const decimalDigits = 9

// AppendFloat appends v as a GLSL float literal, replacing the minus sign with neg and
// the decimal point with decimal. GLSL has no literal for non-finite values so they are
// written as constant divisions.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	switch {
	case math32.IsNaN(v):
		return append(b, "(0.0/0.0)"...)
	case math32.IsInf(v, 1):
		return append(b, "(1.0/0.0)"...)
	case math32.IsInf(v, -1):
		return append(b, "(-1.0/0.0)"...)
	}
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
