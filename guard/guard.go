// Package guard builds the null checks that surround a nullable field's
// contribution to a synthesized hash code or equality check.
//
// A guard is a pair of operations placed around the value strategy. When the
// field is null the strategy is skipped by a forward jump, and the jump target
// carries frame metadata if the output version requires it. Guards need
// scratch local slots starting at the first slot after the method's
// parameters.
package guard

import (
	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/stack"
)

// Guard wraps the strategy for one field.
type Guard struct {
	Before       stack.Operation
	After        stack.Operation
	ScratchWidth int
}

// NoOp is the guard of fields that can never be null.
func NoOp() Guard {
	return Guard{Before: stack.Trivial{}, After: stack.Trivial{}}
}

// IsNoOp reports whether the guard emits nothing.
func (g Guard) IsNoOp() bool {
	return g.ScratchWidth == 0
}

// needsGuard reports whether a field's value can be null at all. Arrays are
// not guarded because the array helpers accept null.
func needsGuard(field *descriptor.Field, nullable bool) bool {
	t := field.Type
	return nullable && !t.IsPrimitive() && !t.IsArray()
}

// ---------------------------------------------------------------------------
// Hash accumulation
// ---------------------------------------------------------------------------

// Accumulate returns the guard for folding field into an int accumulator.
// Before expects the field value on top of the accumulator; when the value
// is null the accumulator alone remains at the jump target.
func Accumulate(method *descriptor.Method, field *descriptor.Field, nullable bool) Guard {
	if !needsGuard(field, nullable) {
		return NoOp()
	}
	slot := method.StackSize()
	skip := bytecode.NewLabel("null" + capitalize(field.Name))
	return Guard{
		Before: stack.Compose(
			stack.Store(descriptor.Object, slot),
			stack.Load(descriptor.Object, slot),
			stack.JumpTo(bytecode.OpIfNull, skip),
			stack.Load(descriptor.Object, slot),
		),
		After: stack.Compose(
			stack.MarkLabel{Label: skip},
			stack.SameFrame1("I"),
		),
		ScratchWidth: 1,
	}
}

// ---------------------------------------------------------------------------
// Equality comparison
// ---------------------------------------------------------------------------

// Compare returns the guard for comparing two values of field. Before
// expects both values on the stack. Two nulls are equal, exactly one null
// returns false from the method.
func Compare(method *descriptor.Method, field *descriptor.Field, nullable bool) Guard {
	if !needsGuard(field, nullable) {
		return NoOp()
	}
	slot := method.StackSize()
	firstNull := bytecode.NewLabel("firstNull")
	secondNull := bytecode.NewLabel("secondNull")
	end := bytecode.NewLabel("endOf" + capitalize(field.Name))
	return Guard{
		Before: stack.Compose(
			stack.Store(descriptor.Object, slot),
			stack.Store(descriptor.Object, slot+1),
			stack.Load(descriptor.Object, slot+1),
			stack.Load(descriptor.Object, slot),
			stack.JumpTo(bytecode.OpIfNull, secondNull),
			stack.JumpTo(bytecode.OpIfNull, firstNull),
			stack.Load(descriptor.Object, slot+1),
			stack.Load(descriptor.Object, slot),
		),
		After:        branches(firstNull, secondNull, end),
		ScratchWidth: 2,
	}
}

// branches resolves the null checks of a comparison. Falling through from
// the comparison jumps to the end. The second-null target still holds the
// first value and tests it. The first-null target returns false.
func branches(firstNull, secondNull, end *bytecode.Label) stack.Operation {
	return reconciled{
		Operation: stack.Compose(
			stack.JumpTo(bytecode.OpGoto, end),
			stack.MarkLabel{Label: secondNull},
			stack.SameFrame1(descriptor.Object.InternalName()),
			stack.JumpTo(bytecode.OpIfNull, end),
			stack.MarkLabel{Label: firstNull},
			stack.SameFrame(),
			stack.IntegerConstant(0),
			stack.Return(descriptor.Int),
			stack.MarkLabel{Label: end},
			stack.SameFrame(),
		),
		// Execution continues at the end label with the height the
		// comparison left behind; the second-null target holds one
		// value above it.
		size: stack.Size{Net: 0, Max: 1},
	}
}

// reconciled reports the size along the paths that reach its end rather
// than the straight-line sum of its instructions.
type reconciled struct {
	stack.Operation
	size stack.Size
}

func (r reconciled) Apply(sink bytecode.Sink, ctx *stack.Context) stack.Size {
	r.Operation.Apply(sink, ctx)
	return r.size
}

// ---------------------------------------------------------------------------
// Budget
// ---------------------------------------------------------------------------

// Budget is the scratch width an enclosing method must reserve. Guards
// reuse the same slots one after another, so requests are combined by
// maximum.
type Budget int

// Request returns the budget after a guard's request.
func (b Budget) Request(g Guard) Budget {
	return max(b, Budget(g.ScratchWidth))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
