// Package document loads shading network documents written in YAML. A document
// declares custom struct types, which are registered in a [typedesc.Registry],
// and node graphs, which are built as [shadergraph.Graph]s.
//
//	typedefs:
//	  - name: Light
//	    members: [{name: color, type: color3, value: "1,1,1"}, {name: intensity, type: float}]
//	nodegraphs:
//	  - name: wrap
//	    inputs: [{name: surface, type: surfaceshader}]
//	    nodes:
//	      - {name: m, impl: material, outputs: [{name: out, type: material}],
//	         inputs: [{name: surfaceshader, type: surfaceshader, interface: surface}]}
//	    outputs: [{name: out, type: material, node: m}]
//	graphs:
//	  - name: main
//	    inputs: [{name: base, type: float, value: "0.8"}]
//	    nodes:
//	      - {name: srf, impl: surface_unlit, class: [surface, closure], function: mx_surface_unlit,
//	         inputs: [{name: emission, type: float, interface: base}],
//	         outputs: [{name: out, type: surfaceshader}]}
//	      - {name: mat, impl: material, outputs: [{name: out, type: material}],
//	         inputs: [{name: surfaceshader, type: surfaceshader, node: srf}]}
//	    outputs: [{name: out, type: material, node: mat}]
//
// Graphs listed under nodegraphs are only built when a node references them
// through its graph field, once per referencing node.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soypat/gshade/shadergraph"
	"github.com/soypat/gshade/typedesc"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownType  = errors.New("unknown type")
	ErrUnknownNode  = errors.New("unknown node")
	ErrUnknownPort  = errors.New("unknown port")
	ErrUnknownGraph = errors.New("unknown node graph")
)

// Document is a loaded document.
type Document struct {
	// Path is the file the document was loaded from. Empty for documents read by [Load].
	Path string
	// Types holds the custom types registered by the document in declaration order.
	Types  []typedesc.TypeDesc
	Graphs []*shadergraph.Graph
}

// Graph returns the graph named name or nil.
func (d *Document) Graph(name string) *shadergraph.Graph {
	for _, g := range d.Graphs {
		if g.Name() == name {
			return g
		}
	}
	return nil
}

type yamlDocument struct {
	Typedefs   []yamlTypedef `yaml:"typedefs,omitempty"`
	NodeGraphs []yamlGraph   `yaml:"nodegraphs,omitempty"`
	Graphs     []yamlGraph   `yaml:"graphs,omitempty"`
}

type yamlTypedef struct {
	Name     string       `yaml:"name"`
	Semantic string       `yaml:"semantic,omitempty"`
	Members  []yamlMember `yaml:"members"`
}

type yamlMember struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value string `yaml:"value,omitempty"`
}

type yamlGraph struct {
	Name    string     `yaml:"name"`
	Inputs  []yamlPort `yaml:"inputs,omitempty"`
	Nodes   []yamlNode `yaml:"nodes,omitempty"`
	Outputs []yamlPort `yaml:"outputs,omitempty"`
}

type yamlNode struct {
	Name     string   `yaml:"name"`
	Impl     string   `yaml:"impl"`
	Function string   `yaml:"function,omitempty"`
	Class    []string `yaml:"class,omitempty"`
	// Graph names the node graph the node expands to.
	Graph   string     `yaml:"graph,omitempty"`
	Inputs  []yamlPort `yaml:"inputs,omitempty"`
	Outputs []yamlPort `yaml:"outputs,omitempty"`
}

// yamlPort declares a port. An input is either connected to the output of a
// sibling node, to an input socket of the enclosing graph, or holds a value.
type yamlPort struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value string `yaml:"value,omitempty"`
	// Node and Output name the upstream output. The node's first output is used
	// when Output is empty.
	Node   string `yaml:"node,omitempty"`
	Output string `yaml:"output,omitempty"`
	// Interface names the upstream input socket of the enclosing graph.
	Interface string `yaml:"interface,omitempty"`
}

// Load reads a document from r registering its types in reg. Types are registered
// before any graph is built so graphs may use every type of the document.
func Load(r io.Reader, reg *typedesc.Registry) (*Document, error) {
	var yd yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&yd)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	b := builder{reg: reg, nodegraphs: make(map[string]*yamlGraph, len(yd.NodeGraphs))}
	doc := &Document{}
	for i := range yd.Typedefs {
		t, err := b.registerType(&yd.Typedefs[i])
		if err != nil {
			return nil, fmt.Errorf("typedef %q: %w", yd.Typedefs[i].Name, err)
		}
		doc.Types = append(doc.Types, t)
	}
	for i := range yd.NodeGraphs {
		ng := &yd.NodeGraphs[i]
		if _, exists := b.nodegraphs[ng.Name]; exists {
			return nil, fmt.Errorf("duplicate node graph %q", ng.Name)
		}
		b.nodegraphs[ng.Name] = ng
	}
	for i := range yd.Graphs {
		g, err := b.buildGraph(&yd.Graphs[i], 0)
		if err != nil {
			return nil, fmt.Errorf("graph %q: %w", yd.Graphs[i].Name, err)
		}
		doc.Graphs = append(doc.Graphs, g)
	}
	return doc, nil
}

// LoadFile loads the document at path.
func LoadFile(path string, reg *typedesc.Registry) (*Document, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	doc, err := Load(fp, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// LoadFiles loads the documents at paths concurrently, registering every type in
// reg. Documents are returned in the order of paths. A document may only use
// custom types declared by itself or registered in reg beforehand.
func LoadFiles(ctx context.Context, reg *typedesc.Registry, paths []string) ([]*Document, error) {
	docs := make([]*Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path // Per-iteration copies; module targets go1.21 loop semantics.
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			doc, err := LoadFile(path, reg)
			if err != nil {
				return err
			}
			docs[i] = doc // Index is unique to this goroutine.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
