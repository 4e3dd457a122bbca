// Package strategy selects, for a value's type, the operation that folds it
// into a hash, compares it for equality, or appends it to a string builder.
package strategy

import (
	"fmt"
	"strings"

	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/stack"
)

// Category is the closed set of value categories that strategies
// distinguish.
type Category uint8

const (
	Void Category = iota
	Boolean
	Byte
	Short
	Char
	Int
	Long
	Float
	Double
	String
	CharSequence
	Reference
	BooleanArray
	ByteArray
	ShortArray
	CharArray
	IntArray
	LongArray
	FloatArray
	DoubleArray
	ReferenceArray
	NestedArray
)

var categoryNames = [...]string{
	Void:           "void",
	Boolean:        "boolean",
	Byte:           "byte",
	Short:          "short",
	Char:           "char",
	Int:            "int",
	Long:           "long",
	Float:          "float",
	Double:         "double",
	String:         "string",
	CharSequence:   "char sequence",
	Reference:      "reference",
	BooleanArray:   "boolean[]",
	ByteArray:      "byte[]",
	ShortArray:     "short[]",
	CharArray:      "char[]",
	IntArray:       "int[]",
	LongArray:      "long[]",
	FloatArray:     "float[]",
	DoubleArray:    "double[]",
	ReferenceArray: "reference[]",
	NestedArray:    "nested array",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// IsIntLike reports whether values of c compute as int.
func (c Category) IsIntLike() bool {
	return c >= Boolean && c <= Int
}

// IsArray reports whether c is an array category.
func (c Category) IsArray() bool {
	return c >= BooleanArray
}

var primitiveCategories = map[descriptor.Sort]Category{
	descriptor.SortVoid:    Void,
	descriptor.SortBoolean: Boolean,
	descriptor.SortByte:    Byte,
	descriptor.SortShort:   Short,
	descriptor.SortChar:    Char,
	descriptor.SortInt:     Int,
	descriptor.SortLong:    Long,
	descriptor.SortFloat:   Float,
	descriptor.SortDouble:  Double,
}

// CategoryOf classifies a type.
func CategoryOf(t *descriptor.Type) Category {
	if t.IsPrimitive() {
		return primitiveCategories[t.Sort]
	}
	if t.IsArray() {
		c := t.Component
		switch {
		case c.IsArray():
			return NestedArray
		case c.IsPrimitive():
			return primitiveCategories[c.Sort] + BooleanArray - Boolean
		default:
			return ReferenceArray
		}
	}
	switch {
	case t.Same(descriptor.String):
		return String
	case t.IsAssignableTo(descriptor.CharSequence):
		return CharSequence
	default:
		return Reference
	}
}

// Purpose names the caller a strategy is selected for.
type Purpose uint8

const (
	// Hashing turns the value on top of the stack into an int.
	Hashing Purpose = iota
	// Equality consumes two values and returns false from the method
	// unless they are equal.
	Equality
	// TextRendering appends the value to the StringBuilder below it.
	TextRendering
)

func (p Purpose) String() string {
	switch p {
	case Hashing:
		return "hashing"
	case Equality:
		return "equality"
	case TextRendering:
		return "text rendering"
	default:
		return fmt.Sprintf("Purpose(%d)", p)
	}
}

// For returns the operation handling a value of type t for purpose p. Void
// values have no strategy and yield an illegal operation.
func For(t *descriptor.Type, p Purpose) stack.Operation {
	c := CategoryOf(t)
	if c == Void {
		return stack.Illegal{}
	}
	switch p {
	case Hashing:
		return hashing(c, t)
	case Equality:
		return equality(c, t)
	case TextRendering:
		return rendering(c)
	default:
		return stack.Illegal{}
	}
}

// IdentityHash replaces the reference on top of the stack with its identity
// hash code.
func IdentityHash() stack.Operation {
	return stack.Invoke(descriptor.System.MustMethod("identityHashCode", "(Ljava/lang/Object;)I"))
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

// arrayDescriptor is the parameter descriptor of the Arrays utility
// overload for an array category.
func arrayDescriptor(c Category) string {
	switch c {
	case BooleanArray:
		return "[Z"
	case ByteArray:
		return "[B"
	case ShortArray:
		return "[S"
	case CharArray:
		return "[C"
	case IntArray:
		return "[I"
	case LongArray:
		return "[J"
	case FloatArray:
		return "[F"
	case DoubleArray:
		return "[D"
	default:
		return "[Ljava/lang/Object;"
	}
}

// arraysCall invokes the java.util.Arrays helper for an array category,
// using the deep variant for nested arrays.
func arraysCall(c Category, name, params, ret string) stack.Operation {
	if c == NestedArray {
		name = "deep" + strings.ToUpper(name[:1]) + name[1:]
	}
	return stack.Invoke(descriptor.Arrays.MustMethod(name, "("+params+")"+ret))
}

// fold narrows the long on top of the stack to an int by xor-ing its halves.
func fold() stack.Operation {
	return stack.Compose(
		stack.Duplicate(descriptor.Long),
		stack.IntegerConstant(32),
		stack.UnsignedShiftRight(descriptor.Long),
		stack.Xor(descriptor.Long),
		stack.Convert(descriptor.Long, descriptor.Int),
	)
}

func hashing(c Category, t *descriptor.Type) stack.Operation {
	switch {
	case c.IsIntLike():
		return stack.Trivial{}
	case c == Long:
		return fold()
	case c == Float:
		return stack.Invoke(descriptor.FloatWrapper.MustMethod("floatToIntBits", "(F)I"))
	case c == Double:
		return stack.Compose(
			stack.Invoke(descriptor.DoubleWrapper.MustMethod("doubleToLongBits", "(D)J")),
			fold(),
		)
	case c.IsArray():
		d := arrayDescriptor(c)
		return arraysCall(c, "hashCode", d, "I")
	default:
		return stack.InvokeVirtual(descriptor.Object.MustMethod("hashCode", "()I"), t)
	}
}

func equality(c Category, t *descriptor.Type) stack.Operation {
	switch {
	case c.IsIntLike():
		return stack.ReturnUnlessIntegerEqual()
	case c == Long:
		return stack.Compose(stack.LongComparison(), stack.ReturnOnNonZero())
	case c == Float:
		return stack.Compose(
			stack.Invoke(descriptor.FloatWrapper.MustMethod("compare", "(FF)I")),
			stack.ReturnOnNonZero(),
		)
	case c == Double:
		return stack.Compose(
			stack.Invoke(descriptor.DoubleWrapper.MustMethod("compare", "(DD)I")),
			stack.ReturnOnNonZero(),
		)
	case c.IsArray():
		d := arrayDescriptor(c)
		return stack.Compose(arraysCall(c, "equals", d+d, "Z"), stack.ReturnOnZero())
	default:
		return stack.Compose(
			stack.InvokeVirtual(descriptor.Object.MustMethod("equals", "(Ljava/lang/Object;)Z"), t),
			stack.ReturnOnZero(),
		)
	}
}

// appendMethod returns StringBuilder.append for a parameter descriptor.
func appendMethod(param string) stack.Operation {
	return stack.Invoke(descriptor.StringBuilder.MustMethod("append", "("+param+")Ljava/lang/StringBuilder;"))
}

func rendering(c Category) stack.Operation {
	switch c {
	case Boolean:
		return appendMethod("Z")
	case Char:
		return appendMethod("C")
	case Byte, Short, Int:
		return appendMethod("I")
	case Long:
		return appendMethod("J")
	case Float:
		return appendMethod("F")
	case Double:
		return appendMethod("D")
	case String:
		return appendMethod("Ljava/lang/String;")
	case CharSequence:
		return appendMethod("Ljava/lang/CharSequence;")
	case Reference:
		return appendMethod("Ljava/lang/Object;")
	default:
		return stack.Compose(
			arraysCall(c, "toString", arrayDescriptor(c), "Ljava/lang/String;"),
			appendMethod("Ljava/lang/String;"),
		)
	}
}
