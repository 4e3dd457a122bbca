package stack

import (
	"github.com/chazu/methodgen/bytecode"
)

// Jump branches to a label. Conditional jumps consume their operands.
type Jump struct {
	Op    bytecode.Opcode
	Label *bytecode.Label
}

// JumpTo returns a branch to label.
func JumpTo(op bytecode.Opcode, label *bytecode.Label) Jump {
	return Jump{Op: op, Label: label}
}

func (j Jump) IsValid() bool {
	return j.Label != nil && j.Op.IsBranch()
}

func (j Jump) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(j)
	sink.JumpInsn(j.Op, j.Label)
	return Size{Net: j.Op.Info().StackEffect}
}

// MarkLabel binds a label at the current position.
type MarkLabel struct {
	Label *bytecode.Label
}

func (m MarkLabel) IsValid() bool { return m.Label != nil }

func (m MarkLabel) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(m)
	sink.Mark(m.Label)
	return Zero
}

// Frame emits verifier metadata when the output version requires it and
// nothing otherwise.
type Frame struct {
	Frame bytecode.Frame
}

// SameFrame describes unchanged locals and an empty stack.
func SameFrame() Frame {
	return Frame{Frame: bytecode.Frame{Kind: bytecode.FrameSame}}
}

// SameFrame1 describes unchanged locals and one stack value of the given
// verification type.
func SameFrame1(stackType string) Frame {
	return Frame{Frame: bytecode.Frame{Kind: bytecode.FrameSame1, Stack: []string{stackType}}}
}

func (Frame) IsValid() bool { return true }

func (f Frame) Apply(sink bytecode.Sink, ctx *Context) Size {
	if ctx.RequiresFrames() {
		sink.Frame(f.Frame)
	}
	return Zero
}

// VerificationType returns the frame entry for a value of the given
// descriptor: "I" for int-like values, "J", "F", "D", or the internal name
// of a reference type.
func VerificationType(desc string) string {
	switch desc {
	case "Z", "B", "S", "C", "I":
		return "I"
	case "J", "F", "D":
		return desc
	}
	if len(desc) > 2 && desc[0] == 'L' {
		return desc[1 : len(desc)-1]
	}
	return desc
}
