// Package implementation synthesizes complete method bodies: hash codes,
// equality checks, string renderings, field accessors, fixed values and
// super, default or forwarded calls.
//
// An Implementation is checked against the method it implements before any
// instruction is produced. Structural problems are reported as misuse
// failures and an Appender is only returned for a body that has a legal
// encoding, so a failing method never yields partial output.
package implementation

import (
	"github.com/chazu/methodgen/assign"
	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/dispatch"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/stack"
)

// Target is what an implementation sees of a synthesis request.
type Target struct {
	Instrumented *descriptor.Type
	Dispatch     *dispatch.Target
	Assigner     assign.Assigner
	Context      *stack.Context
}

// NewTarget creates the target of a request for instrumented emitting the
// given class-file version.
func NewTarget(instrumented *descriptor.Type, version bytecode.Version) *Target {
	return &Target{
		Instrumented: instrumented,
		Dispatch:     dispatch.NewTarget(instrumented, version),
		Assigner:     assign.Default,
		Context:      &stack.Context{InstrumentedType: instrumented, Version: version},
	}
}

// MethodSize is the operand stack depth and local variable count a method
// body needs.
type MethodSize struct {
	Stack  int
	Locals int
}

// Implementation produces the body of a method.
type Implementation interface {
	Appender(target *Target, method *descriptor.Method) (*Appender, error)
}

// Appender holds a validated method body.
type Appender struct {
	Method  *descriptor.Method
	Code    stack.Operation
	Padding int // scratch slots beyond the parameters
}

func newAppender(method *descriptor.Method, code stack.Operation, padding int) (*Appender, error) {
	if !code.IsValid() {
		return nil, failure.Invalid(method, "body has no legal encoding")
	}
	return &Appender{Method: method, Code: code, Padding: padding}, nil
}

// Apply writes the body to sink.
func (a *Appender) Apply(sink bytecode.Sink, ctx *stack.Context) MethodSize {
	size := a.Code.Apply(sink, ctx)
	return MethodSize{Stack: size.Max, Locals: a.Method.StackSize() + a.Padding}
}

// ---------------------------------------------------------------------------
// Chaining
// ---------------------------------------------------------------------------

// dropping is implemented by invoking implementations that can discard
// their result instead of returning it.
type dropping interface {
	Implementation
	dropResult() Implementation
}

// AndThen runs first, discards its result, and then runs then. first must
// be an invoking implementation.
func AndThen(first, then Implementation) Implementation {
	return chain{first, then}
}

type chain struct {
	first, then Implementation
}

func (c chain) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	d, ok := c.first.(dropping)
	if !ok {
		return nil, failure.Misuse(method, "%T cannot be followed by another implementation", c.first)
	}
	first, err := d.dropResult().Appender(target, method)
	if err != nil {
		return nil, err
	}
	then, err := c.then.Appender(target, method)
	if err != nil {
		return nil, err
	}
	return newAppender(method, stack.Compose(first.Code, then.Code), max(first.Padding, then.Padding))
}

// terminate returns the value of type t from the method, or pops it when
// the result is dropped.
func terminate(t *descriptor.Type, drop bool) stack.Operation {
	if drop {
		return stack.Remove(t)
	}
	return stack.Return(t)
}

// ---------------------------------------------------------------------------
// Structural checks
// ---------------------------------------------------------------------------

func requireClass(target *Target, method *descriptor.Method, what string) error {
	if target.Instrumented.IsInterface() {
		return failure.Misuse(method, "cannot implement a meaningful %s for interface %s", what, target.Instrumented.Name)
	}
	return nil
}

func requireInstance(method *descriptor.Method, what string) error {
	if method.IsStatic() {
		return failure.Misuse(method, "%s must not be static", what)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Fields
// ---------------------------------------------------------------------------

// FieldMatcher selects fields. A nil matcher matches nothing.
type FieldMatcher func(*descriptor.Field) bool

// Matches reports whether m selects f.
func (m FieldMatcher) Matches(f *descriptor.Field) bool {
	return m != nil && m(f)
}

// Or matches fields selected by either matcher.
func (m FieldMatcher) Or(other FieldMatcher) FieldMatcher {
	switch {
	case m == nil:
		return other
	case other == nil:
		return m
	}
	return func(f *descriptor.Field) bool { return m(f) || other(f) }
}

// Named matches fields by name.
func Named(names ...string) FieldMatcher {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(f *descriptor.Field) bool { return set[f.Name] }
}

// instanceFields returns the non-static fields declared by t that ignored
// does not match, in declaration order.
func instanceFields(t *descriptor.Type, ignored FieldMatcher) []*descriptor.Field {
	var fields []*descriptor.Field
	for _, f := range t.Fields {
		if f.IsStatic() || ignored.Matches(f) {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// locateField finds the field named name on t or its superclasses that is
// visible from t.
func locateField(t *descriptor.Type, name string) (*descriptor.Field, bool) {
	for c := t; c != nil; c = c.Super {
		if f, ok := c.Field(name); ok && f.IsVisibleTo(t) {
			return f, true
		}
	}
	return nil, false
}

// readField loads the value of f, reading the receiver first for instance
// fields.
func readField(f *descriptor.Field) stack.Operation {
	if f.IsStatic() {
		return stack.ReadField(f)
	}
	return stack.Compose(stack.LoadThis(), stack.ReadField(f))
}
