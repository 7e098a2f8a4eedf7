package shadergraph

import (
	"errors"
	"fmt"

	"github.com/soypat/gshade/typedesc"
	"github.com/soypat/gshade/value"
)

// SurfaceShaderInput is the name of the material node input fed by a surface shader.
const SurfaceShaderInput = "surfaceshader"

var (
	ErrEmptyName     = errors.New("empty name")
	ErrDuplicatePort = errors.New("duplicate port name")
	ErrDuplicateNode = errors.New("duplicate node name")
	ErrTypeMismatch  = errors.New("connection type mismatch")
	ErrCycle         = errors.New("graph contains a cycle")
)

// Input is a node port that receives at most one upstream connection.
type Input struct {
	node       *Node
	name       string
	typ        typedesc.TypeDesc
	variable   string
	value      value.Value
	connection *Output
}

// Output is a node port whose variable may feed any number of inputs.
type Output struct {
	node        *Node
	name        string
	typ         typedesc.TypeDesc
	variable    string
	value       value.Value
	connections []*Input
}

func (in *Input) Node() *Node             { return in.node }
func (in *Input) Name() string            { return in.name }
func (in *Input) Type() typedesc.TypeDesc { return in.typ }
func (in *Input) Variable() string        { return in.variable }
func (in *Input) Value() value.Value      { return in.value }
func (in *Input) Connection() *Output     { return in.connection }
func (in *Input) SetVariable(v string)    { in.variable = v }
func (in *Input) SetValue(v value.Value)  { in.value = v }

// Connect connects the input to the upstream output, replacing any previous connection.
// Both ports must carry the same type.
func (in *Input) Connect(src *Output) error {
	if !in.typ.Equal(src.typ) {
		return fmt.Errorf("%w: %s.%s (%s) to %s.%s (%s)", ErrTypeMismatch,
			src.node.name, src.name, src.typ, in.node.name, in.name, in.typ)
	}
	in.Disconnect()
	in.connection = src
	src.connections = append(src.connections, in)
	return nil
}

// Disconnect breaks the input's upstream connection, if any.
func (in *Input) Disconnect() {
	src := in.connection
	if src == nil {
		return
	}
	in.connection = nil
	for i, c := range src.connections {
		if c == in {
			src.connections = append(src.connections[:i], src.connections[i+1:]...)
			break
		}
	}
}

func (out *Output) Node() *Node             { return out.node }
func (out *Output) Name() string            { return out.name }
func (out *Output) Type() typedesc.TypeDesc { return out.typ }
func (out *Output) Variable() string        { return out.variable }
func (out *Output) Value() value.Value      { return out.value }
func (out *Output) SetVariable(v string)    { out.variable = v }
func (out *Output) SetValue(v value.Value)  { out.value = v }

// Connections returns the downstream inputs fed by the output. The slice must not be modified.
func (out *Output) Connections() []*Input { return out.connections }

// Node is a graph vertex. Its classification is computed by a classification
// pass from its connectivity, starting from the base classification set with
// [Node.SetClassification].
type Node struct {
	name     string
	impl     string
	function string
	parent   *Graph
	subgraph *Graph
	inputs   []*Input
	outputs  []*Output
	base     Classification
	class    Classification
}

func (n *Node) Name() string { return n.name }

// Impl returns the key of the node's implementation, i.e: "material".
func (n *Node) Impl() string { return n.impl }

// Function returns the target language function called to evaluate the node.
func (n *Node) Function() string { return n.function }

func (n *Node) SetFunction(fn string) { n.function = fn }

// Parent returns the graph owning the node. The node of a root graph has no parent
// and the node of a subgraph is owned by the graph holding its compound node.
func (n *Node) Parent() *Graph { return n.parent }

// Subgraph returns the graph the node expands to. Only compound nodes have one.
func (n *Node) Subgraph() *Graph { return n.subgraph }

func (n *Node) Inputs() []*Input   { return n.inputs }
func (n *Node) Outputs() []*Output { return n.outputs }

// AddInput adds an input port of type t.
func (n *Node) AddInput(name string, t typedesc.TypeDesc) (*Input, error) {
	if name == "" {
		return nil, ErrEmptyName
	} else if n.Input(name) != nil {
		return nil, fmt.Errorf("%w: input %q on %q", ErrDuplicatePort, name, n.name)
	}
	in := &Input{node: n, name: name, typ: t}
	n.inputs = append(n.inputs, in)
	return in, nil
}

// AddOutput adds an output port of type t.
func (n *Node) AddOutput(name string, t typedesc.TypeDesc) (*Output, error) {
	if name == "" {
		return nil, ErrEmptyName
	} else if n.Output(name) != nil {
		return nil, fmt.Errorf("%w: output %q on %q", ErrDuplicatePort, name, n.name)
	}
	out := &Output{node: n, name: name, typ: t}
	n.outputs = append(n.outputs, out)
	return out, nil
}

// Input returns the input named name or nil.
func (n *Node) Input(name string) *Input {
	for _, in := range n.inputs {
		if in.name == name {
			return in
		}
	}
	return nil
}

// Output returns the output named name or nil.
func (n *Node) Output(name string) *Output {
	for _, out := range n.outputs {
		if out.name == name {
			return out
		}
	}
	return nil
}

// DefaultOutput returns the node's first output or nil if it has none.
func (n *Node) DefaultOutput() *Output {
	if len(n.outputs) == 0 {
		return nil
	}
	return n.outputs[0]
}

// Classification returns the node's current classification.
func (n *Node) Classification() Classification { return n.class }

// BaseClassification returns the classification the node was declared with.
func (n *Node) BaseClassification() Classification { return n.base }

// SetClassification sets the declared and current classification.
func (n *Node) SetClassification(c Classification) {
	n.base = c
	n.class = c
}

// AddClassification sets the flags of c in the current classification.
func (n *Node) AddClassification(c Classification) { n.class |= c }

// ResetClassification restores the declared classification, discarding flags
// added by a previous classification pass.
func (n *Node) ResetClassification() { n.class = n.base }

// SiblingConnection returns the upstream output connected to n's input named inputName
// if its node is owned by the same graph as n. A connection that resolves to a graph
// interface socket does not qualify since the socket belongs to the graph node itself,
// which lives one level up.
func SiblingConnection(n *Node, inputName string) (*Output, bool) {
	in := n.Input(inputName)
	if in == nil || in.connection == nil {
		return nil, false
	}
	src := in.connection
	if n.parent == nil || !n.parent.owns(src.node) || src.node == n {
		return nil, false
	}
	return src, true
}

// IsInterfaceConnection reports whether the input is fed by an input socket of
// the graph owning the input's node.
func IsInterfaceConnection(in *Input) bool {
	return in.connection != nil && in.node.parent != nil && in.connection.node == &in.node.parent.Node
}
