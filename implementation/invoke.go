package implementation

import (
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/dispatch"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/stack"
)

// SuperMethodCall invokes the method the instrumented method overrides with
// all of its arguments: the superclass's version when there is one and the
// unique default method otherwise.
type SuperMethodCall struct {
	drop bool
}

func (c SuperMethodCall) dropResult() Implementation {
	return SuperMethodCall{drop: true}
}

func (c SuperMethodCall) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	if err := requireInstance(method, "super method call"); err != nil {
		return nil, err
	}
	candidate, err := target.Dispatch.ResolveDominant(method.Token())
	if err != nil {
		return nil, failure.Attribute(err, method)
	}
	return newAppender(method, stack.Compose(
		stack.LoadArguments(method, true),
		candidate,
		terminate(method.Return, c.drop),
	), 0)
}

// DefaultMethodCall invokes a default method of one of the instrumented
// type's interfaces with all arguments.
type DefaultMethodCall struct {
	prioritization dispatch.Prioritization
	drop           bool
}

// Prioritize returns a default method call preferring the given interfaces
// in order. Interfaces the instrumented type does not implement directly
// are ignored.
func Prioritize(interfaces ...*descriptor.Type) DefaultMethodCall {
	return DefaultMethodCall{prioritization: interfaces}
}

// UnambiguousOnly returns a default method call that fails unless exactly
// one interface offers a default method.
func UnambiguousOnly() DefaultMethodCall {
	return DefaultMethodCall{}
}

func (c DefaultMethodCall) dropResult() Implementation {
	c.drop = true
	return c
}

func (c DefaultMethodCall) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	if err := requireInstance(method, "default method call"); err != nil {
		return nil, err
	}
	candidate, err := target.Dispatch.ResolveDefault(method.Token(), c.prioritization)
	if err != nil {
		return nil, failure.Attribute(err, method)
	}
	return newAppender(method, stack.Compose(
		stack.LoadArguments(method, true),
		candidate,
		terminate(method.Return, c.drop),
	), 0)
}

// Forwarding invokes the instrumented method on the value of a field.
type Forwarding struct {
	Field string
	drop  bool
}

// ForwardTo forwards to the value of the named field.
func ForwardTo(field string) Forwarding {
	return Forwarding{Field: field}
}

func (f Forwarding) dropResult() Implementation {
	f.drop = true
	return f
}

func (f Forwarding) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	if err := requireInstance(method, "forwarded method"); err != nil {
		return nil, err
	}
	field, ok := locateField(target.Instrumented, f.Field)
	if !ok {
		return nil, failure.Misuse(method, "%s has no visible field %s", target.Instrumented.Name, f.Field)
	}
	if field.Type.IsPrimitive() || !field.Type.IsAssignableTo(method.Declaring) {
		return nil, failure.Misuse(method, "cannot forward to field %s of type %s", field.Name, field.Type)
	}
	return newAppender(method, stack.Compose(
		readField(field),
		stack.LoadArguments(method, false),
		stack.InvokeVirtual(method, field.Type),
		terminate(method.Return, f.drop),
	), 0)
}
