package implementation

import (
	"strings"

	"github.com/chazu/methodgen/assign"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/stack"
)

// FieldAccessor implements a getter or setter. Methods without parameters
// read the field; methods with one parameter write it.
type FieldAccessor struct {
	// Field names the accessed field. When empty the name is derived from
	// the method following bean property conventions.
	Field  string
	Typing assign.Typing
}

// OfBeanProperty accesses the field named by the method's bean property.
func OfBeanProperty() FieldAccessor {
	return FieldAccessor{}
}

// OfField accesses the named field.
func OfField(name string) FieldAccessor {
	return FieldAccessor{Field: name}
}

// WithTyping allows assignments that need a runtime check.
func (a FieldAccessor) WithTyping(typing assign.Typing) FieldAccessor {
	a.Typing = typing
	return a
}

// propertyName returns the bean property of getX, isX or setX.
func propertyName(method *descriptor.Method) (string, bool) {
	var rest string
	switch {
	case strings.HasPrefix(method.Name, "get") && len(method.Params) == 0:
		rest = method.Name[3:]
	case strings.HasPrefix(method.Name, "is") && len(method.Params) == 0 && method.Return.Same(descriptor.Boolean):
		rest = method.Name[2:]
	case strings.HasPrefix(method.Name, "set") && len(method.Params) == 1:
		rest = method.Name[3:]
	}
	if rest == "" {
		return "", false
	}
	return strings.ToLower(rest[:1]) + rest[1:], true
}

func (a FieldAccessor) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	name := a.Field
	if name == "" {
		var ok bool
		if name, ok = propertyName(method); !ok {
			return nil, failure.Misuse(method, "%s is not a bean property accessor", method.Name)
		}
	}
	field, ok := locateField(target.Instrumented, name)
	if !ok {
		return nil, failure.Misuse(method, "%s has no visible field %s", target.Instrumented.Name, name)
	}
	if method.IsStatic() && !field.IsStatic() {
		return nil, failure.Misuse(method, "cannot access instance field %s from a static method", field.Name)
	}

	var receiver stack.Operation = stack.Trivial{}
	if !field.IsStatic() {
		receiver = stack.LoadThis()
	}

	switch len(method.Params) {
	case 0:
		if method.Return.IsVoid() {
			return nil, failure.Misuse(method, "getter must return a value")
		}
		return newAppender(method, stack.Compose(
			receiver,
			stack.ReadField(field),
			target.Assigner.Assign(field.Type, method.Return, a.Typing),
			stack.Return(method.Return),
		), 0)
	case 1:
		if !method.Return.IsVoid() {
			return nil, failure.Misuse(method, "setter must return void")
		}
		if field.Modifiers.IsFinal() {
			return nil, failure.Misuse(method, "cannot set final field %s", field.Name)
		}
		return newAppender(method, stack.Compose(
			receiver,
			stack.LoadParameter(method, 0),
			target.Assigner.Assign(method.Params[0], field.Type, a.Typing),
			stack.WriteField(field),
			stack.Return(descriptor.Void),
		), 0)
	default:
		return nil, failure.Misuse(method, "accessor must take at most one parameter")
	}
}
