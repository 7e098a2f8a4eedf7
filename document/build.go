package document

import (
	"errors"
	"fmt"

	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
)

// maxGraphDepth bounds node graph expansion.
const maxGraphDepth = 32

type builder struct {
	reg        *typedesc.Registry
	nodegraphs map[string]*yamlGraph
}

func (b *builder) lookupType(name string) (typedesc.TypeDesc, error) {
	t := b.reg.Get(name)
	if t.IsNone() && name != typedesc.None.Name() {
		return t, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	return t, nil
}

func (b *builder) registerType(td *yamlTypedef) (typedesc.TypeDesc, error) {
	semantic, ok := typedesc.ParseSemantic(td.Semantic)
	if !ok {
		return typedesc.None, fmt.Errorf("unknown semantic %q", td.Semantic)
	}
	members := make([]typedesc.StructMember, 0, len(td.Members))
	for _, m := range td.Members {
		t, err := b.lookupType(m.Type)
		if err != nil {
			return typedesc.None, fmt.Errorf("member %q: %w", m.Name, err)
		}
		if m.Value != "" {
			_, err = b.reg.ParseValue(t, m.Value)
			if err != nil {
				return typedesc.None, fmt.Errorf("member %q default: %w", m.Name, err)
			}
		}
		members = append(members, typedesc.StructMember{Name: m.Name, Type: t, DefaultValue: m.Value})
	}
	return b.reg.RegisterCustomType(td.Name, typedesc.BaseStruct, semantic, 1, members)
}

// buildGraph builds yg. Nodes are created before any connection is made so
// inputs may reference nodes declared after them.
func (b *builder) buildGraph(yg *yamlGraph, depth int) (*shadergraph.Graph, error) {
	if depth > maxGraphDepth {
		return nil, errors.New("node graph nesting too deep")
	}
	g := shadergraph.NewGraph(yg.Name)
	for _, p := range yg.Inputs {
		t, err := b.lookupType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", p.Name, err)
		}
		sock, err := g.AddInputSocket(p.Name, t)
		if err != nil {
			return nil, err
		}
		if p.Value != "" {
			v, err := b.reg.ParseValue(t, p.Value)
			if err != nil {
				return nil, fmt.Errorf("input %q: %w", p.Name, err)
			}
			sock.SetValue(v)
		}
	}
	for i := range yg.Nodes {
		err := b.addNode(g, &yg.Nodes[i], depth)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", yg.Nodes[i].Name, err)
		}
	}
	for i := range yg.Nodes {
		yn := &yg.Nodes[i]
		n := g.FindNode(yn.Name)
		for _, p := range yn.Inputs {
			err := b.connectInput(g, n.Input(p.Name), &p)
			if err != nil {
				return nil, fmt.Errorf("node %q input %q: %w", yn.Name, p.Name, err)
			}
		}
	}
	for _, p := range yg.Outputs {
		t, err := b.lookupType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", p.Name, err)
		}
		sock, err := g.AddOutputSocket(p.Name, t)
		if err != nil {
			return nil, err
		}
		err = b.connectInput(g, sock, &p)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", p.Name, err)
		}
	}
	return g, nil
}

// addNode creates the node declared by yn with its ports. Nodes referencing a node
// graph get the graph's sockets as ports and may only declare inputs matching them.
func (b *builder) addNode(g *shadergraph.Graph, yn *yamlNode, depth int) error {
	var n *shadergraph.Node
	var err error
	if yn.Graph != "" {
		yg, ok := b.nodegraphs[yn.Graph]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownGraph, yn.Graph)
		}
		sub, err := b.buildGraph(yg, depth+1)
		if err != nil {
			return fmt.Errorf("node graph %q: %w", yn.Graph, err)
		}
		impl := yn.Impl
		if impl == "" {
			impl = "compound"
		}
		n, err = g.AddCompoundNode(yn.Name, impl, sub)
		if err != nil {
			return err
		}
	} else {
		n, err = g.AddNode(yn.Name, yn.Impl)
		if err != nil {
			return err
		}
		for _, p := range yn.Inputs {
			t, err := b.lookupType(p.Type)
			if err != nil {
				return fmt.Errorf("input %q: %w", p.Name, err)
			}
			_, err = n.AddInput(p.Name, t)
			if err != nil {
				return err
			}
		}
		for _, p := range yn.Outputs {
			t, err := b.lookupType(p.Type)
			if err != nil {
				return fmt.Errorf("output %q: %w", p.Name, err)
			}
			_, err = n.AddOutput(p.Name, t)
			if err != nil {
				return err
			}
		}
	}
	n.SetFunction(yn.Function)
	var class shadergraph.Classification
	for _, name := range yn.Class {
		c, ok := shadergraph.ParseClassification(name)
		if !ok {
			return fmt.Errorf("unknown classification %q", name)
		}
		class |= c
	}
	n.SetClassification(class)
	return nil
}

// connectInput connects in as declared by p or sets its value.
func (b *builder) connectInput(g *shadergraph.Graph, in *shadergraph.Input, p *yamlPort) error {
	if in == nil {
		return fmt.Errorf("%w %q", ErrUnknownPort, p.Name)
	}
	switch {
	case p.Node != "" && p.Interface != "":
		return errors.New("input connected to both a node and an interface socket")
	case p.Node != "":
		src := g.FindNode(p.Node)
		if src == nil {
			return fmt.Errorf("%w %q", ErrUnknownNode, p.Node)
		}
		out := src.DefaultOutput()
		if p.Output != "" {
			out = src.Output(p.Output)
		}
		if out == nil {
			return fmt.Errorf("%w: node %q has no output %q", ErrUnknownPort, p.Node, p.Output)
		}
		return in.Connect(out)
	case p.Interface != "":
		sock := g.InputSocket(p.Interface)
		if sock == nil {
			return fmt.Errorf("%w: graph %q has no input %q", ErrUnknownPort, g.Name(), p.Interface)
		}
		return in.Connect(sock)
	case p.Value != "":
		v, err := b.reg.ParseValue(in.Type(), p.Value)
		if err != nil {
			return err
		}
		in.SetValue(v)
	}
	return nil
}
