package implementation

import (
	"fmt"

	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/guard"
	"github.com/chazu/methodgen/stack"
	"github.com/chazu/methodgen/strategy"
)

const (
	// DefaultHashOffset is the initial value of a hash code.
	DefaultHashOffset = 17
	// DefaultHashMultiplier is the factor applied before each field.
	DefaultHashMultiplier = 31
)

// OffsetProvider yields the operation pushing a hash code's initial value.
type OffsetProvider interface {
	Offset(target *Target, method *descriptor.Method) (stack.Operation, error)
}

// FixedOffset starts a hash code from a constant.
type FixedOffset int32

func (o FixedOffset) Offset(*Target, *descriptor.Method) (stack.Operation, error) {
	return stack.IntegerConstant(o), nil
}

// SuperOffset starts a hash code from the superclass's hash code.
type SuperOffset struct{}

func (SuperOffset) Offset(target *Target, method *descriptor.Method) (stack.Operation, error) {
	if target.Instrumented.Super == nil {
		return nil, failure.Misuse(method, "%s does not declare a superclass", target.Instrumented.Name)
	}
	super, err := target.Dispatch.ResolveSuper(method.Token())
	if err != nil {
		return nil, failure.Attribute(err, method)
	}
	return stack.Compose(stack.LoadThis(), super), nil
}

// TypeHashOffset starts a hash code from the hash of the instrumented
// class. A dynamic offset hashes the runtime class of the receiver, a
// static one the class literal.
type TypeHashOffset struct {
	Dynamic bool
}

func (o TypeHashOffset) Offset(target *Target, _ *descriptor.Method) (stack.Operation, error) {
	hashCode := stack.InvokeVirtual(descriptor.Object.MustMethod("hashCode", "()I"), descriptor.Class)
	if !o.Dynamic {
		return stack.Compose(stack.ClassConstant{Type: target.Instrumented}, hashCode), nil
	}
	return stack.Compose(
		stack.LoadThis(),
		stack.InvokeVirtual(descriptor.Object.MustMethod("getClass", "()Ljava/lang/Class;"), target.Instrumented),
		hashCode,
	), nil
}

// HashCode implements hashCode() over the instrumented type's instance
// fields. Each field's value is folded into the accumulator as
// acc = acc*Multiplier + hash(value), null values contributing nothing.
type HashCode struct {
	OffsetProvider OffsetProvider
	Multiplier     int32
	Ignored        FieldMatcher
	NonNullable    FieldMatcher
	Identity       FieldMatcher // hashed by identity rather than value
}

// NewHashCode returns a hash code starting from DefaultHashOffset.
func NewHashCode() HashCode {
	return HashCodeUsingOffset(FixedOffset(DefaultHashOffset))
}

// HashCodeUsingOffset returns a hash code starting from the given offset.
func HashCodeUsingOffset(offset OffsetProvider) HashCode {
	return HashCode{OffsetProvider: offset, Multiplier: DefaultHashMultiplier}
}

// WithMultiplier replaces the multiplier. Zero would discard every field but
// the last and is rejected.
func (h HashCode) WithMultiplier(multiplier int32) (HashCode, error) {
	if multiplier == 0 {
		return h, fmt.Errorf("implementation: hash code multiplier must not be zero")
	}
	h.Multiplier = multiplier
	return h, nil
}

// WithIgnoredFields excludes additional fields.
func (h HashCode) WithIgnoredFields(m FieldMatcher) HashCode {
	h.Ignored = h.Ignored.Or(m)
	return h
}

// WithNonNullableFields skips the null check for additional fields.
func (h HashCode) WithNonNullableFields(m FieldMatcher) HashCode {
	h.NonNullable = h.NonNullable.Or(m)
	return h
}

// WithIdentityFields hashes additional reference fields by identity.
func (h HashCode) WithIdentityFields(m FieldMatcher) HashCode {
	h.Identity = h.Identity.Or(m)
	return h
}

func (h HashCode) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	if err := requireClass(target, method, "hash code method"); err != nil {
		return nil, err
	}
	if err := requireInstance(method, "hash code method"); err != nil {
		return nil, err
	}
	if !method.Return.Same(descriptor.Int) {
		return nil, failure.Misuse(method, "hash code method does not return int")
	}
	if h.Multiplier == 0 {
		return nil, failure.Misuse(method, "hash code multiplier must not be zero")
	}
	offset, err := h.OffsetProvider.Offset(target, method)
	if err != nil {
		return nil, err
	}

	ops := []stack.Operation{offset}
	var budget guard.Budget
	for _, f := range instanceFields(target.Instrumented, h.Ignored) {
		ops = append(ops,
			stack.IntegerConstant(h.Multiplier),
			stack.Multiply(descriptor.Int),
			readField(f),
		)
		if !f.Type.IsPrimitive() && h.Identity.Matches(f) {
			ops = append(ops, strategy.IdentityHash(), stack.Add(descriptor.Int))
			continue
		}
		g := guard.Accumulate(method, f, !h.NonNullable.Matches(f))
		ops = append(ops,
			g.Before,
			strategy.For(f.Type, strategy.Hashing),
			stack.Add(descriptor.Int),
			g.After,
		)
		budget = budget.Request(g)
	}
	ops = append(ops, stack.Return(descriptor.Int))
	return newAppender(method, stack.Compose(ops...), int(budget))
}
