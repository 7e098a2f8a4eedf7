package shadergen

import (
	"errors"
	"strings"

	"github.com/soypat/gshade/shadergraph"
)

var (
	_ NodeImpl = MaterialNode{}
	_ NodeImpl = SourceCodeNode{}
	_ NodeImpl = CompoundNode{}
)

// MaterialNode implements material terminals. A material has no identity of its
// own: it inherits the classification and the result of the surface shader node
// connected to its "surfaceshader" input.
//
// Only sibling connections count. A surfaceshader input fed by the enclosing
// graph's interface is resolved where the graph itself is used.
type MaterialNode struct{}

// AddClassification always adds ClassShader. When a sibling node with
// ClassSurface feeds the surfaceshader input its whole classification is added
// as well, so the result is the union of both.
func (MaterialNode) AddClassification(n *shadergraph.Node) {
	n.AddClassification(shadergraph.ClassShader)
	src, ok := materialSurface(n)
	if ok {
		n.AddClassification(src.Node().Classification())
	}
}

// EmitFunctionCall emits the surface shader feeding the material and assigns its
// result to the material's output. A material with no sibling surface shader only
// declares its outputs with default values. Only the pixel stage is emitted.
//
// The surface shader is emitted through [Context.EmitFunctionCall] and so at most
// once per stage. The material itself is not tracked here: calling this twice on
// the same stage emits the assignment twice. Use [Context.EmitFunctionCall] to
// emit each node once.
func (MaterialNode) EmitFunctionCall(n *shadergraph.Node, ctx *Context, stage *ShaderStage) error {
	if stage.Stage() != StagePixel {
		return nil
	}
	src, ok := materialSurface(n)
	if !ok {
		return ctx.EmitOutputVariables(n, stage)
	}
	err := ctx.EmitFunctionCall(src.Node(), stage)
	if err != nil {
		return err
	}
	out := n.DefaultOutput()
	if out == nil {
		return nil
	}
	stage.EmitLine(ctx.Syntax.TypeName(out.Type()) + " " + out.Variable() + " = " + src.Variable())
	return nil
}

// materialSurface returns the sibling surface shader output connected to the
// surfaceshader input of material node n.
func materialSurface(n *shadergraph.Node) (*shadergraph.Output, bool) {
	src, ok := shadergraph.SiblingConnection(n, shadergraph.SurfaceShaderInput)
	if !ok || !src.Node().Classification().Has(shadergraph.ClassSurface) {
		return nil, false
	}
	return src, true
}

// SourceCodeNode emits a call to the node's function. It is used for every node
// with no registered implementation. Nodes with one output are emitted as
//
//	<type> <output> = <function>(<inputs>...);
//
// while nodes with several outputs declare them first and pass them as trailing
// out arguments.
type SourceCodeNode struct{}

// AddClassification keeps the node's declared classification.
func (SourceCodeNode) AddClassification(n *shadergraph.Node) {}

func (SourceCodeNode) EmitFunctionCall(n *shadergraph.Node, ctx *Context, stage *ShaderStage) error {
	if stage.Stage() != StagePixel {
		return nil
	}
	err := ctx.emitUpstream(n, stage)
	if err != nil {
		return err
	}
	fn := n.Function()
	if fn == "" {
		return errors.New("node has no function")
	}
	outputs := n.Outputs()
	if len(outputs) == 0 {
		return errors.New("node has no outputs")
	}
	args := make([]string, 0, len(n.Inputs())+len(outputs))
	for _, in := range n.Inputs() {
		expr, err := ctx.InputExpression(in)
		if err != nil {
			return err
		}
		args = append(args, expr)
	}
	call := fn + "(" + strings.Join(args, ", ")
	if len(outputs) == 1 {
		out := outputs[0]
		stage.EmitLine(ctx.Syntax.TypeName(out.Type()) + " " + out.Variable() + " = " + call + ")")
		return nil
	}
	err = ctx.EmitOutputVariables(n, stage)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		call += ", " + out.Variable()
	}
	stage.EmitLine(call + ")")
	return nil
}

// CompoundNode emits a node that expands to a subgraph inline: input sockets are
// declared from the node's inputs, the interior nodes are emitted, and the node's
// outputs are assigned from the output sockets. Only the pixel stage is emitted.
type CompoundNode struct{}

// AddClassification adds the classification of the interior nodes feeding the
// subgraph's output sockets. The subgraph must be classified beforehand.
func (CompoundNode) AddClassification(n *shadergraph.Node) {
	sub := n.Subgraph()
	if sub == nil {
		return
	}
	for _, sock := range sub.OutputSockets() {
		if src := sock.Connection(); src != nil && src.Node().Parent() == sub {
			n.AddClassification(src.Node().Classification())
		}
	}
}

func (CompoundNode) EmitFunctionCall(n *shadergraph.Node, ctx *Context, stage *ShaderStage) error {
	if stage.Stage() != StagePixel {
		return nil
	}
	sub := n.Subgraph()
	if sub == nil {
		return errors.New("compound node has no subgraph")
	}
	err := ctx.emitUpstream(n, stage)
	if err != nil {
		return err
	}
	for _, sock := range sub.InputSockets() {
		expr := ctx.Syntax.DefaultValue(sock.Type())
		if in := n.Input(sock.Name()); in != nil {
			expr, err = ctx.InputExpression(in)
			if err != nil {
				return err
			}
		}
		stage.EmitLine(ctx.Syntax.TypeName(sock.Type()) + " " + sock.Variable() + " = " + expr)
	}
	order, err := sub.TopologicalOrder()
	if err != nil {
		return err
	}
	for _, child := range order {
		err = ctx.EmitFunctionCall(child, stage)
		if err != nil {
			return err
		}
	}
	for _, sock := range sub.OutputSockets() {
		out := n.Output(sock.Name())
		if out == nil {
			continue
		}
		expr, err := ctx.InputExpression(sock)
		if err != nil {
			return err
		}
		stage.EmitLine(ctx.Syntax.TypeName(out.Type()) + " " + out.Variable() + " = " + expr)
	}
	return nil
}
