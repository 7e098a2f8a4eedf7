// Package shadergraph implements the node graph that is turned into shader
// source: typed ports, nodes with a classification bitmask, and graphs whose
// interface is exposed through input and output sockets.
//
// Graphs are built single threaded and must not be modified while a
// classification or code generation pass walks them.
package shadergraph

import (
	"fmt"

	"github.com/soypat/gshade/typedesc"
)

// Graph is a node holding child nodes. Input sockets are outputs of the graph's
// own node that feed interior nodes, output sockets are inputs of the graph's
// own node fed by interior nodes.
type Graph struct {
	Node
	nodes  []*Node
	byName map[string]*Node
}

// NewGraph returns an empty root graph.
func NewGraph(name string) *Graph {
	g := &Graph{byName: make(map[string]*Node)}
	g.Node.name = name
	g.Node.impl = "graph"
	return g
}

// AsNode returns the graph's own node which owns the interface sockets.
func (g *Graph) AsNode() *Node { return &g.Node }

// AddNode adds a child node with the implementation key impl.
func (g *Graph) AddNode(name, impl string) (*Node, error) {
	if name == "" {
		return nil, ErrEmptyName
	} else if _, exists := g.byName[name]; exists {
		return nil, fmt.Errorf("%w: %q in graph %q", ErrDuplicateNode, name, g.name)
	}
	n := &Node{name: name, impl: impl, parent: g}
	g.nodes = append(g.nodes, n)
	g.byName[name] = n
	return n, nil
}

// AddCompoundNode adds a child node that expands to the subgraph sub. The node receives
// one input per input socket and one output per output socket of sub.
// A subgraph may be used by a single compound node.
func (g *Graph) AddCompoundNode(name, impl string, sub *Graph) (*Node, error) {
	if sub == g {
		return nil, fmt.Errorf("graph %q can not contain itself", g.name)
	} else if sub.parent != nil {
		return nil, fmt.Errorf("graph %q already used by a compound node in %q", sub.name, sub.parent.name)
	}
	n, err := g.AddNode(name, impl)
	if err != nil {
		return nil, err
	}
	n.subgraph = sub
	sub.parent = g
	for _, sock := range sub.InputSockets() {
		_, err = n.AddInput(sock.name, sock.typ)
		if err != nil {
			return nil, err
		}
	}
	for _, sock := range sub.OutputSockets() {
		_, err = n.AddOutput(sock.name, sock.typ)
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Nodes returns the graph's child nodes in insertion order. The slice must not be modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

// FindNode returns the child node named name or nil.
func (g *Graph) FindNode(name string) *Node { return g.byName[name] }

// AddInputSocket adds an interface input to the graph. Interior nodes connect to the
// returned socket to read the value passed into the graph.
func (g *Graph) AddInputSocket(name string, t typedesc.TypeDesc) (*Output, error) {
	return g.Node.AddOutput(name, t)
}

// AddOutputSocket adds an interface output to the graph. The returned socket is
// connected to the interior output that provides the graph's result.
func (g *Graph) AddOutputSocket(name string, t typedesc.TypeDesc) (*Input, error) {
	return g.Node.AddInput(name, t)
}

func (g *Graph) InputSocket(name string) *Output { return g.Node.Output(name) }
func (g *Graph) OutputSocket(name string) *Input { return g.Node.Input(name) }
func (g *Graph) InputSockets() []*Output         { return g.Node.outputs }
func (g *Graph) OutputSockets() []*Input         { return g.Node.inputs }

// TopologicalOrder returns the graph's child nodes ordered so that every node comes
// after the sibling nodes feeding it. Nodes with no dependency between them keep
// their insertion order. ErrCycle is returned if the child nodes form a cycle.
func (g *Graph) TopologicalOrder() ([]*Node, error) {
	pending := make(map[*Node]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, in := range n.inputs {
			if src := in.connection; src != nil && g.owns(src.node) {
				pending[n]++
			}
		}
	}
	order := make([]*Node, 0, len(g.nodes))
	done := make(map[*Node]bool, len(g.nodes))
	for len(order) < len(g.nodes) {
		progress := false
		for _, n := range g.nodes {
			if done[n] || pending[n] > 0 {
				continue
			}
			done[n] = true
			progress = true
			order = append(order, n)
			for _, out := range n.outputs {
				for _, dst := range out.connections {
					if g.owns(dst.node) {
						pending[dst.node]--
					}
				}
			}
		}
		if !progress {
			return nil, fmt.Errorf("%w: %q", ErrCycle, g.name)
		}
	}
	return order, nil
}

func (g *Graph) owns(n *Node) bool { return n.parent == g && g.byName[n.name] == n }
