package shadergen

import "github.com/soypat/gshade/shadergraph"

// Stage identifies a shader evaluation stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StagePixel
	numStages
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	}
	return "Stage(?)"
}

// ShaderStage accumulates the statements emitted for one stage. It also records which
// nodes have been emitted so that a node reached through several dependents is only
// emitted once per stage.
type ShaderStage struct {
	stage   Stage
	lines   []string
	emitted map[*shadergraph.Node]bool
}

// NewShaderStage returns an empty statement buffer for stage s.
func NewShaderStage(s Stage) *ShaderStage {
	return &ShaderStage{stage: s, emitted: make(map[*shadergraph.Node]bool)}
}

func (ss *ShaderStage) Stage() Stage { return ss.stage }

// EmitLine appends a statement. The statement terminator is added by EmitLine.
func (ss *ShaderStage) EmitLine(line string) {
	ss.lines = append(ss.lines, line+";")
}

// EmitComment appends a single line comment.
func (ss *ShaderStage) EmitComment(comment string) {
	ss.lines = append(ss.lines, "// "+comment)
}

// Lines returns a copy of the statements emitted so far.
func (ss *ShaderStage) Lines() []string { return append([]string{}, ss.lines...) }

// IsEmitted reports whether n has already been emitted in the stage.
func (ss *ShaderStage) IsEmitted(n *shadergraph.Node) bool { return ss.emitted[n] }

func (ss *ShaderStage) markEmitted(n *shadergraph.Node) { ss.emitted[n] = true }

// AppendCode appends the stage's statements to b, one per line and indented with
// a tab, and returns the result.
func (ss *ShaderStage) AppendCode(b []byte) []byte {
	for _, line := range ss.lines {
		b = append(b, '\t')
		b = append(b, line...)
		b = append(b, '\n')
	}
	return b
}

// Code returns the stage's statements as source text.
func (ss *ShaderStage) Code() string { return string(ss.AppendCode(nil)) }
