package stack

import (
	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
)

// ---------------------------------------------------------------------------
// Duplication and removal
// ---------------------------------------------------------------------------

// Duplicate copies the value of type t on top of the stack.
func Duplicate(t *descriptor.Type) Operation {
	switch SizeOfType(t) {
	case ZeroSlots:
		return Trivial{}
	case DoubleSlots:
		return insn{bytecode.OpDup2, DoubleSlots.Increasing()}
	default:
		return insn{bytecode.OpDup, SingleSlot.Increasing()}
	}
}

// Remove pops the value of type t from the top of the stack.
func Remove(t *descriptor.Type) Operation {
	switch SizeOfType(t) {
	case ZeroSlots:
		return Trivial{}
	case DoubleSlots:
		return insn{bytecode.OpPop2, DoubleSlots.Decreasing()}
	default:
		return insn{bytecode.OpPop, SingleSlot.Decreasing()}
	}
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// arithmetic opcodes by computational type: int, long, float, double
type arithmetic [4]bytecode.Opcode

var (
	addition       = arithmetic{bytecode.OpIAdd, bytecode.OpLAdd, bytecode.OpFAdd, bytecode.OpDAdd}
	multiplication = arithmetic{bytecode.OpIMul, bytecode.OpLMul, bytecode.OpFMul, bytecode.OpDMul}
	exclusiveOr    = arithmetic{bytecode.OpIXor, bytecode.OpLXor}
	unsignedShift  = arithmetic{bytecode.OpIUShr, bytecode.OpLUShr}
)

// computational returns the index of t's computational type in an
// arithmetic table, or -1 for non-numeric types.
func computational(t *descriptor.Type) int {
	switch t.Sort {
	case descriptor.SortBoolean, descriptor.SortByte, descriptor.SortShort, descriptor.SortChar, descriptor.SortInt:
		return 0
	case descriptor.SortLong:
		return 1
	case descriptor.SortFloat:
		return 2
	case descriptor.SortDouble:
		return 3
	default:
		return -1
	}
}

func binary(table arithmetic, t *descriptor.Type, popped int) Operation {
	i := computational(t)
	if i < 0 || table[i] == 0 {
		return Illegal{}
	}
	return insn{table[i], Size{Net: -popped}}
}

// Add adds the two values of type t on top of the stack.
func Add(t *descriptor.Type) Operation {
	return binary(addition, t, t.Width())
}

// Multiply multiplies the two values of type t on top of the stack.
func Multiply(t *descriptor.Type) Operation {
	return binary(multiplication, t, t.Width())
}

// Xor combines the two int or long values on top of the stack.
func Xor(t *descriptor.Type) Operation {
	return binary(exclusiveOr, t, t.Width())
}

// UnsignedShiftRight shifts an int or long value by an int amount.
func UnsignedShiftRight(t *descriptor.Type) Operation {
	return binary(unsignedShift, t, 1)
}

// ---------------------------------------------------------------------------
// Primitive conversion
// ---------------------------------------------------------------------------

// conversions by computational type: from x to
var conversions = [4][4]bytecode.Opcode{
	{0, bytecode.OpI2L, bytecode.OpI2F, bytecode.OpI2D},
	{bytecode.OpL2I, 0, bytecode.OpL2F, bytecode.OpL2D},
	{bytecode.OpF2I, bytecode.OpF2L, 0, bytecode.OpF2D},
	{bytecode.OpD2I, bytecode.OpD2L, bytecode.OpD2F, 0},
}

// widensTo lists the int-like sorts each int-like sort widens to without
// an instruction.
var widensTo = map[descriptor.Sort][]descriptor.Sort{
	descriptor.SortByte:  {descriptor.SortShort, descriptor.SortInt},
	descriptor.SortShort: {descriptor.SortInt},
	descriptor.SortChar:  {descriptor.SortInt},
}

// Widen converts a primitive value to a wider primitive type. Identity
// conversions are trivial; narrowing and boolean conversions are illegal.
func Widen(from, to *descriptor.Type) Operation {
	if from.Same(to) {
		return Trivial{}
	}
	if from.Sort == descriptor.SortBoolean || to.Sort == descriptor.SortBoolean {
		return Illegal{}
	}
	fi, ti := computational(from), computational(to)
	if fi < 0 || ti < 0 {
		return Illegal{}
	}
	if fi == 0 && ti == 0 {
		for _, s := range widensTo[from.Sort] {
			if s == to.Sort {
				return Trivial{}
			}
		}
		return Illegal{}
	}
	// int, long, float, double are ordered by widening
	if ti <= fi {
		return Illegal{}
	}
	return Convert(from, to)
}

// Convert emits the conversion instruction between two computational
// types, including narrowing ones such as long to int. Conversions inside
// the int category are trivial.
func Convert(from, to *descriptor.Type) Operation {
	fi, ti := computational(from), computational(to)
	if fi < 0 || ti < 0 {
		return Illegal{}
	}
	if fi == ti {
		return Trivial{}
	}
	return insn{conversions[fi][ti], effect(to.Width() - from.Width())}
}

// LongComparison compares the two longs on top of the stack, leaving -1, 0
// or 1.
func LongComparison() Operation {
	return insn{bytecode.OpLCmp, Size{Net: -3}}
}
