// Package stack provides the operations that synthesized method bodies are
// composed of. Every operation is either valid or invalid; valid operations
// write instructions into a bytecode.Sink and report their exact stack
// effect.
package stack

import (
	"fmt"

	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
)

// Operation is a unit of code generation.
type Operation interface {
	// IsValid reports whether the operation has a legal encoding. It never
	// emits anything.
	IsValid() bool
	// Apply writes the operation into sink. It panics when the operation is
	// invalid.
	Apply(sink bytecode.Sink, ctx *Context) Size
}

// Context carries what operations need to know about the method being
// synthesized.
type Context struct {
	InstrumentedType *descriptor.Type
	Version          bytecode.Version
}

// RequiresFrames reports whether frame metadata must be emitted at branch
// targets. A nil context never requires frames.
func (c *Context) RequiresFrames() bool {
	return c != nil && c.Version.RequiresFrames()
}

// mustBeValid panics when op is invalid.
func mustBeValid(op Operation) {
	if !op.IsValid() {
		panic(fmt.Sprintf("stack: cannot apply invalid operation %T", op))
	}
}

// ---------------------------------------------------------------------------
// Trivial and Illegal
// ---------------------------------------------------------------------------

// Trivial emits nothing and has no effect.
type Trivial struct{}

func (Trivial) IsValid() bool { return true }

func (Trivial) Apply(bytecode.Sink, *Context) Size { return Zero }

func (Trivial) String() string { return "trivial" }

// Illegal marks a request that has no legal encoding.
type Illegal struct{}

func (Illegal) IsValid() bool { return false }

func (Illegal) Apply(bytecode.Sink, *Context) Size {
	panic("stack: cannot apply an illegal operation")
}

func (Illegal) String() string { return "illegal" }

// ---------------------------------------------------------------------------
// Compound
// ---------------------------------------------------------------------------

// Compound applies operations in order.
type Compound struct {
	ops   []Operation
	valid bool
}

// Compose returns an operation applying ops in order. Nested compounds are
// flattened and trivial operations dropped. The result is invalid if any
// member is invalid.
func Compose(ops ...Operation) Operation {
	c := &Compound{valid: true}
	for _, op := range ops {
		c.add(op)
	}
	return c
}

func (c *Compound) add(op Operation) {
	switch v := op.(type) {
	case nil, Trivial:
	case *Compound:
		for _, inner := range v.ops {
			c.add(inner)
		}
		c.valid = c.valid && v.valid
	default:
		c.ops = append(c.ops, op)
		c.valid = c.valid && op.IsValid()
	}
}

// Operations returns the flattened members.
func (c *Compound) Operations() []Operation {
	return c.ops
}

func (c *Compound) IsValid() bool {
	return c.valid
}

func (c *Compound) Apply(sink bytecode.Sink, ctx *Context) Size {
	if !c.valid {
		panic("stack: cannot apply a compound with an invalid member")
	}
	size := Zero
	for _, op := range c.ops {
		size = size.Aggregate(op.Apply(sink, ctx))
	}
	return size
}

// ---------------------------------------------------------------------------
// Measuring
// ---------------------------------------------------------------------------

// SizeOf measures op without emitting it and checks that, started at the
// given height, the stack never drops below zero between the members of a
// compound or at its end. Dips inside a single member are not visible.
func SizeOf(op Operation, ctx *Context, start int) (Size, error) {
	if !op.IsValid() {
		return Zero, failure.Invalid(nil, "cannot measure an invalid operation")
	}
	parts := []Operation{op}
	if c, ok := op.(*Compound); ok {
		parts = c.Operations()
	}
	size := Zero
	height := start
	for i, part := range parts {
		s := part.Apply(bytecode.Discard, ctx)
		height += s.Net
		if height < 0 {
			return size.Aggregate(s), failure.Invalid(nil, "stack underflow: height %d after operation %d of %d", height, i+1, len(parts))
		}
		size = size.Aggregate(s)
	}
	return size, nil
}

// ---------------------------------------------------------------------------
// Fixed instruction
// ---------------------------------------------------------------------------

// insn is a single operand-less instruction with a known effect.
type insn struct {
	op   bytecode.Opcode
	size Size
}

func (i insn) IsValid() bool { return true }

func (i insn) Apply(sink bytecode.Sink, _ *Context) Size {
	sink.Insn(i.op)
	return i.size
}

func (i insn) String() string { return i.op.Name() }
