// Package assign converts a value on the operand stack from one type to
// another.
package assign

import (
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/stack"
)

// Typing selects whether an assignment may rely on a runtime type check.
type Typing bool

const (
	// Static only allows assignments the verifier accepts without a cast.
	Static Typing = false
	// Dynamic allows down-casts checked at runtime.
	Dynamic Typing = true
)

func (t Typing) String() string {
	if t == Dynamic {
		return "dynamic"
	}
	return "static"
}

// Assigner produces the operation converting the value of type source on
// top of the stack into a value of type target. Impossible assignments
// yield an invalid operation.
type Assigner interface {
	Assign(source, target *descriptor.Type, typing Typing) stack.Operation
}

// Default handles void, primitive widening, boxing and unboxing, and
// reference assignments.
var Default Assigner = voidAware{}

// AssignerFunc adapts a function to the Assigner interface.
type AssignerFunc func(source, target *descriptor.Type, typing Typing) stack.Operation

func (f AssignerFunc) Assign(source, target *descriptor.Type, typing Typing) stack.Operation {
	return f(source, target, typing)
}

// voidAware pops values assigned to void. A void source can only be
// assigned to a non-void target dynamically, which pushes the target's
// default value.
type voidAware struct{}

func (voidAware) Assign(source, target *descriptor.Type, typing Typing) stack.Operation {
	switch {
	case source.IsVoid() && target.IsVoid():
		return stack.Trivial{}
	case source.IsVoid():
		if typing == Dynamic {
			return stack.DefaultValue(target)
		}
		return stack.Illegal{}
	case target.IsVoid():
		return stack.Remove(source)
	}
	return primitiveAware(source, target, typing)
}

func primitiveAware(source, target *descriptor.Type, typing Typing) stack.Operation {
	switch {
	case source.IsPrimitive() && target.IsPrimitive():
		return stack.Widen(source, target)
	case source.IsPrimitive():
		return box(source, target, typing)
	case target.IsPrimitive():
		return unbox(source, target, typing)
	}
	return reference(source, target, typing)
}

func box(source, target *descriptor.Type, typing Typing) stack.Operation {
	wrapper, ok := descriptor.Box(source)
	if !ok {
		return stack.Illegal{}
	}
	return stack.Compose(
		stack.Invoke(wrapper.MustMethod("valueOf", "("+source.Descriptor()+")"+wrapper.Descriptor())),
		reference(wrapper, target, typing),
	)
}

// unbox reads the primitive out of a wrapper and widens it. A source that
// is not a wrapper is cast to the target's wrapper first when typing is
// dynamic.
func unbox(source, target *descriptor.Type, typing Typing) stack.Operation {
	if primitive, ok := descriptor.Unbox(source); ok {
		return stack.Compose(unwrap(source, primitive), stack.Widen(primitive, target))
	}
	if typing == Static {
		return stack.Illegal{}
	}
	wrapper, ok := descriptor.Box(target)
	if !ok {
		return stack.Illegal{}
	}
	return stack.Compose(stack.TypeCasting{Type: wrapper}, unwrap(wrapper, target))
}

func unwrap(wrapper, primitive *descriptor.Type) stack.Operation {
	return stack.Invoke(wrapper.MustMethod(primitive.Name+"Value", "()"+primitive.Descriptor()))
}

func reference(source, target *descriptor.Type, typing Typing) stack.Operation {
	switch {
	case source.IsAssignableTo(target):
		return stack.Trivial{}
	case typing == Dynamic:
		return stack.TypeCasting{Type: target}
	default:
		return stack.Illegal{}
	}
}
