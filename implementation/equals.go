package implementation

import (
	"sort"

	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/guard"
	"github.com/chazu/methodgen/stack"
	"github.com/chazu/methodgen/strategy"
)

// Equals implements equals(Object) over the instrumented type's instance
// fields.
type Equals struct {
	// SuperCheck requires the superclass's equals to hold first.
	SuperCheck bool
	// Subclass accepts instances of subclasses instead of requiring the
	// exact runtime class.
	Subclass    bool
	Ignored     FieldMatcher
	NonNullable FieldMatcher
	// Order lists field predicates; fields matching earlier predicates are
	// compared first, declaration order breaking ties.
	Order []FieldMatcher
}

// NewEquals returns an equals method that ignores the superclass.
func NewEquals() Equals {
	return Equals{}
}

// RequiringSuperEquality returns an equals method that first calls the
// superclass's equals.
func RequiringSuperEquality() Equals {
	return Equals{SuperCheck: true}
}

// WithIgnoredFields excludes additional fields.
func (e Equals) WithIgnoredFields(m FieldMatcher) Equals {
	e.Ignored = e.Ignored.Or(m)
	return e
}

// WithNonNullableFields skips the null check for additional fields.
func (e Equals) WithNonNullableFields(m FieldMatcher) Equals {
	e.NonNullable = e.NonNullable.Or(m)
	return e
}

// WithSubclassEquality accepts instances of subclasses.
func (e Equals) WithSubclassEquality() Equals {
	e.Subclass = true
	return e
}

// WithFieldOrder compares fields matching m before the others.
func (e Equals) WithFieldOrder(m FieldMatcher) Equals {
	e.Order = append(e.Order[:len(e.Order):len(e.Order)], m)
	return e
}

// WithPrimitiveFieldsFirst compares primitive fields first.
func (e Equals) WithPrimitiveFieldsFirst() Equals {
	return e.WithFieldOrder(func(f *descriptor.Field) bool { return f.Type.IsPrimitive() })
}

// WithEnumFieldsFirst compares enumeration fields first.
func (e Equals) WithEnumFieldsFirst() Equals {
	return e.WithFieldOrder(func(f *descriptor.Field) bool { return f.Type.IsEnum() })
}

// WithPrimitiveWrapperFieldsFirst compares boxed primitive fields first.
func (e Equals) WithPrimitiveWrapperFieldsFirst() Equals {
	return e.WithFieldOrder(func(f *descriptor.Field) bool { return f.Type.IsPrimitiveWrapper() })
}

// WithStringFieldsFirst compares String fields first.
func (e Equals) WithStringFieldsFirst() Equals {
	return e.WithFieldOrder(func(f *descriptor.Field) bool { return f.Type.Same(descriptor.String) })
}

// ordered sorts fields by the order predicates.
func (e Equals) ordered(fields []*descriptor.Field) []*descriptor.Field {
	sort.SliceStable(fields, func(i, j int) bool {
		for _, m := range e.Order {
			a, b := m.Matches(fields[i]), m.Matches(fields[j])
			if a != b {
				return a
			}
		}
		return false
	})
	return fields
}

func (e Equals) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	if err := requireClass(target, method, "equals method"); err != nil {
		return nil, err
	}
	if err := requireInstance(method, "equals method"); err != nil {
		return nil, err
	}
	if len(method.Params) != 1 || method.Params[0].IsPrimitive() {
		return nil, failure.Misuse(method, "equals method must take a single reference")
	}
	if !method.Return.Same(descriptor.Boolean) {
		return nil, failure.Misuse(method, "equals method does not return boolean")
	}

	instrumented := target.Instrumented
	other := stack.Load(descriptor.Object, 1)
	var ops []stack.Operation
	if e.SuperCheck {
		if instrumented.Super == nil {
			return nil, failure.Misuse(method, "%s does not declare a superclass", instrumented.Name)
		}
		super, err := target.Dispatch.ResolveSuper(method.Token())
		if err != nil {
			return nil, failure.Attribute(err, method)
		}
		ops = append(ops, stack.LoadThis(), other, super, stack.ReturnOnZero())
	}
	ops = append(ops, stack.LoadThis(), other, stack.ReturnOnIdentity().ReturningTrue())

	if e.Subclass {
		ops = append(ops, other, stack.InstanceCheck{Type: instrumented}, stack.ReturnOnZero())
	} else {
		getClass := stack.Invoke(descriptor.Object.MustMethod("getClass", "()Ljava/lang/Class;"))
		ops = append(ops,
			other,
			stack.ReturnOnNull(),
			stack.LoadThis(),
			getClass,
			other,
			getClass,
			stack.ReturnOnNonIdentity(),
		)
	}

	var budget guard.Budget
	for _, f := range e.ordered(instanceFields(instrumented, e.Ignored)) {
		g := guard.Compare(method, f, !e.NonNullable.Matches(f))
		ops = append(ops,
			stack.LoadThis(),
			stack.ReadField(f),
			other,
			stack.TypeCasting{Type: instrumented},
			stack.ReadField(f),
			g.Before,
			strategy.For(f.Type, strategy.Equality),
			g.After,
		)
		budget = budget.Request(g)
	}
	ops = append(ops, stack.BooleanConstant(true), stack.Return(descriptor.Boolean))
	return newAppender(method, stack.Compose(ops...), int(budget))
}
