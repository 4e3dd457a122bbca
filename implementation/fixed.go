package implementation

import (
	"fmt"

	"github.com/chazu/methodgen/assign"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/stack"
)

type fixedKind uint8

const (
	fixedConstant fixedKind = iota
	fixedSelf
	fixedArgument
)

// FixedValue returns the same value from every call: a constant, the
// receiver or one of the arguments.
type FixedValue struct {
	kind     fixedKind
	value    stack.Operation
	typ      *descriptor.Type // nil for the null constant
	argument int
	Typing   assign.Typing
}

// Value returns a fixed constant. Supported values are nil, bool, int,
// int32, int64, float32, float64 and string.
func Value(v interface{}) (FixedValue, error) {
	f := FixedValue{kind: fixedConstant}
	switch c := v.(type) {
	case nil:
		f.value = stack.NullConstant{}
	case bool:
		f.value, f.typ = stack.BooleanConstant(c), descriptor.Boolean
	case int:
		if int(int32(c)) != c {
			return f, fmt.Errorf("implementation: fixed value %d overflows int", c)
		}
		f.value, f.typ = stack.IntegerConstant(c), descriptor.Int
	case int32:
		f.value, f.typ = stack.IntegerConstant(c), descriptor.Int
	case int64:
		f.value, f.typ = stack.LongConstant(c), descriptor.Long
	case float32:
		f.value, f.typ = stack.FloatConstant(c), descriptor.Float
	case float64:
		f.value, f.typ = stack.DoubleConstant(c), descriptor.Double
	case string:
		f.value, f.typ = stack.TextConstant(c), descriptor.String
	default:
		return f, fmt.Errorf("implementation: unsupported fixed value of type %T", v)
	}
	return f, nil
}

// Self returns the receiver.
func Self() FixedValue {
	return FixedValue{kind: fixedSelf}
}

// Argument returns the argument at index.
func Argument(index int) FixedValue {
	return FixedValue{kind: fixedArgument, argument: index}
}

// WithTyping allows assignments that need a runtime check.
func (f FixedValue) WithTyping(typing assign.Typing) FixedValue {
	f.Typing = typing
	return f
}

func (f FixedValue) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	if method.Return.IsVoid() {
		return nil, failure.Misuse(method, "cannot return a fixed value from a void method")
	}
	var load, conversion stack.Operation
	switch f.kind {
	case fixedSelf:
		if method.IsStatic() {
			return nil, failure.Misuse(method, "static method has no receiver to return")
		}
		load = stack.LoadThis()
		conversion = target.Assigner.Assign(target.Instrumented, method.Return, f.Typing)
	case fixedArgument:
		if f.argument < 0 || f.argument >= len(method.Params) {
			return nil, failure.Misuse(method, "method has no argument at index %d", f.argument)
		}
		load = stack.LoadParameter(method, f.argument)
		conversion = target.Assigner.Assign(method.Params[f.argument], method.Return, f.Typing)
	default:
		load = f.value
		switch {
		case f.typ != nil:
			conversion = target.Assigner.Assign(f.typ, method.Return, f.Typing)
		case method.Return.IsPrimitive():
			conversion = stack.Illegal{}
		default:
			conversion = stack.Trivial{}
		}
	}
	return newAppender(method, stack.Compose(load, conversion, stack.Return(method.Return)), 0)
}
