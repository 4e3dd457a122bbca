package stack

import (
	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
)

// ---------------------------------------------------------------------------
// Local variables
// ---------------------------------------------------------------------------

// VariableAccess loads or stores a local variable slot.
type VariableAccess struct {
	Type  *descriptor.Type
	Slot  int
	Store bool
}

// Load returns an operation loading slot as type t.
func Load(t *descriptor.Type, slot int) VariableAccess {
	return VariableAccess{Type: t, Slot: slot}
}

// Store returns an operation storing the top of the stack into slot.
func Store(t *descriptor.Type, slot int) VariableAccess {
	return VariableAccess{Type: t, Slot: slot, Store: true}
}

// LoadThis loads the receiver from slot 0.
func LoadThis() VariableAccess {
	return Load(descriptor.Object, 0)
}

func (v VariableAccess) IsValid() bool {
	return v.Type != nil && !v.Type.IsVoid() && v.Slot >= 0
}

func (v VariableAccess) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(v)
	var op bytecode.Opcode
	switch computational(v.Type) {
	case 0:
		op = bytecode.OpILoad
	case 1:
		op = bytecode.OpLLoad
	case 2:
		op = bytecode.OpFLoad
	case 3:
		op = bytecode.OpDLoad
	default:
		op = bytecode.OpALoad
	}
	if v.Store {
		// Each store opcode sits at a fixed distance from its load.
		op += bytecode.OpIStore - bytecode.OpILoad
		sink.VarInsn(op, v.Slot)
		return SizeOfType(v.Type).Decreasing()
	}
	sink.VarInsn(op, v.Slot)
	return SizeOfType(v.Type).Increasing()
}

// LoadParameter loads parameter i of m.
func LoadParameter(m *descriptor.Method, i int) VariableAccess {
	return Load(m.Params[i], m.ParameterOffset(i))
}

// LoadArguments loads all parameters of m in order, preceded by the
// receiver when prependThis is set and m is not static.
func LoadArguments(m *descriptor.Method, prependThis bool) Operation {
	ops := make([]Operation, 0, len(m.Params)+1)
	if prependThis && !m.IsStatic() {
		ops = append(ops, LoadThis())
	}
	for i := range m.Params {
		ops = append(ops, LoadParameter(m, i))
	}
	return Compose(ops...)
}

// ---------------------------------------------------------------------------
// Returns
// ---------------------------------------------------------------------------

// MethodReturn returns a value of the given type, or nothing for void.
type MethodReturn struct {
	Type *descriptor.Type
}

// Return returns an operation returning a value of type t.
func Return(t *descriptor.Type) MethodReturn {
	return MethodReturn{Type: t}
}

func (r MethodReturn) IsValid() bool { return r.Type != nil }

func (r MethodReturn) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(r)
	switch {
	case r.Type.IsVoid():
		sink.Insn(bytecode.OpReturn)
	case r.Type.Sort == descriptor.SortReference || r.Type.IsArray():
		sink.Insn(bytecode.OpAReturn)
	default:
		sink.Insn(bytecode.OpIReturn + bytecode.Opcode(computational(r.Type)))
	}
	return SizeOfType(r.Type).Decreasing()
}

// ConditionalReturn returns a constant boolean from the method unless a
// condition holds. When the jump instruction's condition is met, execution
// continues after the operation; otherwise the method returns Value.
type ConditionalReturn struct {
	Jump  bytecode.Opcode
	Value bool
}

// ReturnUnlessIntegerEqual returns false unless the two ints on top are equal.
func ReturnUnlessIntegerEqual() ConditionalReturn {
	return ConditionalReturn{Jump: bytecode.OpIfICmpEq}
}

// ReturnOnZero returns false when the int on top is zero.
func ReturnOnZero() ConditionalReturn {
	return ConditionalReturn{Jump: bytecode.OpIfNe}
}

// ReturnOnNonZero returns false when the int on top is not zero.
func ReturnOnNonZero() ConditionalReturn {
	return ConditionalReturn{Jump: bytecode.OpIfEq}
}

// ReturnOnNull returns false when the reference on top is null.
func ReturnOnNull() ConditionalReturn {
	return ConditionalReturn{Jump: bytecode.OpIfNonNull}
}

// ReturnOnIdentity returns false when the two references on top are the
// same object.
func ReturnOnIdentity() ConditionalReturn {
	return ConditionalReturn{Jump: bytecode.OpIfACmpNe}
}

// ReturnOnNonIdentity returns false when the two references on top differ.
func ReturnOnNonIdentity() ConditionalReturn {
	return ConditionalReturn{Jump: bytecode.OpIfACmpEq}
}

// ReturningTrue returns a copy that returns true instead of false.
func (r ConditionalReturn) ReturningTrue() ConditionalReturn {
	r.Value = true
	return r
}

func (r ConditionalReturn) IsValid() bool {
	return r.Jump.IsBranch() && r.Jump != bytecode.OpGoto
}

func (r ConditionalReturn) Apply(sink bytecode.Sink, ctx *Context) Size {
	mustBeValid(r)
	skip := bytecode.NewLabel("")
	sink.JumpInsn(r.Jump, skip)
	if r.Value {
		sink.Insn(bytecode.OpIConst1)
	} else {
		sink.Insn(bytecode.OpIConst0)
	}
	sink.Insn(bytecode.OpIReturn)
	sink.Mark(skip)
	if ctx.RequiresFrames() {
		sink.Frame(bytecode.Frame{Kind: bytecode.FrameSame})
	}
	return Size{Net: r.Jump.Info().StackEffect}
}
