// Package shadergen turns a classified [shadergraph.Graph] into per-stage shader
// statements. Each node is emitted by the [NodeImpl] registered for its
// implementation key in an [ImplTable].
package shadergen

import (
	"errors"
	"fmt"

	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
	"github.com/soypat/gshade/value"
)

var ErrDuplicateImpl = errors.New("node implementation already registered")

// Syntax formats types and values for a target shading language.
type Syntax interface {
	// TypeName returns the target language name of t.
	TypeName(t typedesc.TypeDesc) string
	// DefaultValue returns the literal a variable of type t is initialized with when
	// no value is provided.
	DefaultValue(t typedesc.TypeDesc) string
	// ValueString returns v as a target language literal of type t.
	ValueString(t typedesc.TypeDesc, v value.Value) (string, error)
	// IsReserved reports whether word can not be used as an identifier.
	IsReserved(word string) bool
}

// NodeImpl implements the classification and code emission of a kind of node.
type NodeImpl interface {
	// AddClassification adds the flags derived from the node's connectivity to its
	// classification. Nodes feeding n have been classified already.
	AddClassification(n *shadergraph.Node)
	// EmitFunctionCall emits the statements evaluating n in stage. Implementations
	// emit upstream nodes they depend on through [Context.EmitFunctionCall].
	EmitFunctionCall(n *shadergraph.Node, ctx *Context, stage *ShaderStage) error
}

// ImplTable maps node implementation keys to their [NodeImpl].
type ImplTable struct {
	impls map[string]NodeImpl
}

// NewImplTable returns an empty table. Nodes with no registered implementation
// are emitted by [SourceCodeNode], or [CompoundNode] if they expand to a subgraph.
func NewImplTable() *ImplTable {
	return &ImplTable{impls: make(map[string]NodeImpl)}
}

// DefaultImplTable returns a table with the implementations of this package registered.
func DefaultImplTable() *ImplTable {
	t := NewImplTable()
	t.MustRegister("material", MaterialNode{})
	t.MustRegister("surfacematerial", MaterialNode{})
	t.MustRegister("compound", CompoundNode{})
	return t
}

// Register registers impl under key.
func (t *ImplTable) Register(key string, impl NodeImpl) error {
	if key == "" {
		return errors.New("empty implementation key")
	} else if impl == nil {
		return fmt.Errorf("nil implementation for %q", key)
	} else if _, exists := t.impls[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateImpl, key)
	}
	t.impls[key] = impl
	return nil
}

// MustRegister is like Register but panics on error. Meant for use during initialization.
func (t *ImplTable) MustRegister(key string, impl NodeImpl) {
	err := t.Register(key, impl)
	if err != nil {
		panic(err)
	}
}

// Get returns the implementation registered under key.
func (t *ImplTable) Get(key string) (NodeImpl, bool) {
	impl, ok := t.impls[key]
	return impl, ok
}

// Context holds the state shared by every node implementation during classification
// and generation. The Registry is used to resolve struct types while formatting values.
type Context struct {
	Registry *typedesc.Registry
	Syntax   Syntax
	Impls    *ImplTable
}

// NewContext returns a Context. If impls is nil [DefaultImplTable] is used.
func NewContext(reg *typedesc.Registry, syntax Syntax, impls *ImplTable) *Context {
	if impls == nil {
		impls = DefaultImplTable()
	}
	return &Context{Registry: reg, Syntax: syntax, Impls: impls}
}

// Impl returns the implementation used for n.
func (c *Context) Impl(n *shadergraph.Node) NodeImpl {
	if impl, ok := c.Impls.Get(n.Impl()); ok {
		return impl
	} else if n.Subgraph() != nil {
		return CompoundNode{}
	}
	return SourceCodeNode{}
}

// Classify runs the classification pass over g's nodes, and the nodes of their
// subgraphs, in dependency order. Each node first reverts to its declared
// classification so the pass may be repeated after g is edited.
func (c *Context) Classify(g *shadergraph.Graph) error {
	return c.classify(g, 0)
}

func (c *Context) classify(g *shadergraph.Graph, depth int) error {
	if depth > maxGraphDepth {
		return errGraphDepth
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}
	for _, n := range order {
		if sub := n.Subgraph(); sub != nil {
			err = c.classify(sub, depth+1)
			if err != nil {
				return err
			}
		}
		n.ResetClassification()
		c.Impl(n).AddClassification(n)
	}
	return nil
}

// EmitFunctionCall emits n in stage unless it has been emitted in stage already.
func (c *Context) EmitFunctionCall(n *shadergraph.Node, stage *ShaderStage) error {
	if stage.IsEmitted(n) {
		return nil
	}
	stage.markEmitted(n)
	err := c.Impl(n).EmitFunctionCall(n, c, stage)
	if err != nil {
		return fmt.Errorf("emitting %q: %w", n.Name(), err)
	}
	return nil
}

// EmitOutputVariables declares every output variable of n initialized with the
// output's value, or the type's default value if it has none. Nothing is emitted
// if a value can not be written.
func (c *Context) EmitOutputVariables(n *shadergraph.Node, stage *ShaderStage) error {
	lines := make([]string, 0, len(n.Outputs()))
	for _, out := range n.Outputs() {
		init := c.Syntax.DefaultValue(out.Type())
		if v := out.Value(); v != nil {
			s, err := c.Syntax.ValueString(out.Type(), v)
			if err != nil {
				return fmt.Errorf("output %q value: %w", out.Name(), err)
			}
			init = s
		}
		lines = append(lines, c.Syntax.TypeName(out.Type())+" "+out.Variable()+" = "+init)
	}
	for _, line := range lines {
		stage.EmitLine(line)
	}
	return nil
}

// InputExpression returns the expression read by an input: the variable of its
// upstream output, its literal value, or the default value of its type.
func (c *Context) InputExpression(in *shadergraph.Input) (string, error) {
	if src := in.Connection(); src != nil {
		return src.Variable(), nil
	} else if v := in.Value(); v != nil {
		return c.Syntax.ValueString(in.Type(), v)
	}
	return c.Syntax.DefaultValue(in.Type()), nil
}

// emitUpstream emits every sibling node feeding n.
func (c *Context) emitUpstream(n *shadergraph.Node, stage *ShaderStage) error {
	for _, in := range n.Inputs() {
		src, ok := shadergraph.SiblingConnection(n, in.Name())
		if !ok {
			continue
		}
		err := c.EmitFunctionCall(src.Node(), stage)
		if err != nil {
			return err
		}
	}
	return nil
}
