package stack

import (
	"math"

	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
)

// IntegerConstant pushes an int using the shortest encoding.
type IntegerConstant int32

func (IntegerConstant) IsValid() bool { return true }

func (c IntegerConstant) Apply(sink bytecode.Sink, _ *Context) Size {
	v := int32(c)
	switch {
	case v >= -1 && v <= 5:
		sink.Insn(bytecode.OpIConst0 + bytecode.Opcode(v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		sink.IntInsn(bytecode.OpBIPush, int(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		sink.IntInsn(bytecode.OpSIPush, int(v))
	default:
		sink.Ldc(bytecode.IntConstant(v))
	}
	return SingleSlot.Increasing()
}

// BooleanConstant pushes 1 or 0.
func BooleanConstant(v bool) IntegerConstant {
	if v {
		return 1
	}
	return 0
}

// LongConstant pushes a long.
type LongConstant int64

func (LongConstant) IsValid() bool { return true }

func (c LongConstant) Apply(sink bytecode.Sink, _ *Context) Size {
	switch c {
	case 0:
		sink.Insn(bytecode.OpLConst0)
	case 1:
		sink.Insn(bytecode.OpLConst1)
	default:
		sink.Ldc(bytecode.LongConstant(int64(c)))
	}
	return DoubleSlots.Increasing()
}

// FloatConstant pushes a float. Only exact bit patterns of 0, 1 and 2 use the
// short form, so negative zero is loaded from the pool.
type FloatConstant float32

func (FloatConstant) IsValid() bool { return true }

func (c FloatConstant) Apply(sink bytecode.Sink, _ *Context) Size {
	bits := math.Float32bits(float32(c))
	switch bits {
	case math.Float32bits(0):
		sink.Insn(bytecode.OpFConst0)
	case math.Float32bits(1):
		sink.Insn(bytecode.OpFConst1)
	case math.Float32bits(2):
		sink.Insn(bytecode.OpFConst2)
	default:
		sink.Ldc(bytecode.FloatConstant(float32(c)))
	}
	return SingleSlot.Increasing()
}

// DoubleConstant pushes a double.
type DoubleConstant float64

func (DoubleConstant) IsValid() bool { return true }

func (c DoubleConstant) Apply(sink bytecode.Sink, _ *Context) Size {
	bits := math.Float64bits(float64(c))
	switch bits {
	case math.Float64bits(0):
		sink.Insn(bytecode.OpDConst0)
	case math.Float64bits(1):
		sink.Insn(bytecode.OpDConst1)
	default:
		sink.Ldc(bytecode.DoubleConstant(float64(c)))
	}
	return DoubleSlots.Increasing()
}

// TextConstant pushes a string literal.
type TextConstant string

func (TextConstant) IsValid() bool { return true }

func (c TextConstant) Apply(sink bytecode.Sink, _ *Context) Size {
	sink.Ldc(bytecode.StringConstant(string(c)))
	return SingleSlot.Increasing()
}

// NullConstant pushes null.
type NullConstant struct{}

func (NullConstant) IsValid() bool { return true }

func (NullConstant) Apply(sink bytecode.Sink, _ *Context) Size {
	sink.Insn(bytecode.OpAConstNull)
	return SingleSlot.Increasing()
}

// ClassConstant pushes the class literal of a type. Primitive literals are
// read from the TYPE field of their wrapper.
type ClassConstant struct {
	Type *descriptor.Type
}

func (c ClassConstant) IsValid() bool { return c.Type != nil }

func (c ClassConstant) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(c)
	if c.Type.IsVoid() {
		sink.FieldInsn(bytecode.OpGetStatic, "java/lang/Void", "TYPE", descriptor.Class.Descriptor())
	} else if w, ok := descriptor.Box(c.Type); ok {
		sink.FieldInsn(bytecode.OpGetStatic, w.InternalName(), "TYPE", descriptor.Class.Descriptor())
	} else {
		sink.Ldc(bytecode.ClassConstant(c.Type.InternalName()))
	}
	return SingleSlot.Increasing()
}

// DefaultValue pushes the zero value of t, or nothing for void.
func DefaultValue(t *descriptor.Type) Operation {
	switch t.Sort {
	case descriptor.SortVoid:
		return Trivial{}
	case descriptor.SortLong:
		return LongConstant(0)
	case descriptor.SortFloat:
		return FloatConstant(0)
	case descriptor.SortDouble:
		return DoubleConstant(0)
	case descriptor.SortReference, descriptor.SortArray:
		return NullConstant{}
	default:
		return IntegerConstant(0)
	}
}
