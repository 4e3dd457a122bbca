package implementation

import (
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
	"github.com/chazu/methodgen/stack"
	"github.com/chazu/methodgen/strategy"
)

// PrefixResolver names the instrumented type at the start of a rendering.
type PrefixResolver interface {
	Prefix(t *descriptor.Type) string
}

// PrefixFunc adapts a function to the PrefixResolver interface.
type PrefixFunc func(t *descriptor.Type) string

func (f PrefixFunc) Prefix(t *descriptor.Type) string { return f(t) }

var (
	FullyQualifiedName PrefixResolver = PrefixFunc(func(t *descriptor.Type) string { return t.Name })
	CanonicalName      PrefixResolver = PrefixFunc((*descriptor.Type).CanonicalName)
	SimpleName         PrefixResolver = PrefixFunc((*descriptor.Type).SimpleName)
)

// FixedPrefix always renders the same prefix.
func FixedPrefix(prefix string) PrefixResolver {
	return PrefixFunc(func(*descriptor.Type) string { return prefix })
}

// ToString implements toString() as
// prefix + Start + name + Definer + value (+ Separator + ...) + End.
type ToString struct {
	Prefix    PrefixResolver
	Start     string
	End       string
	Separator string
	Definer   string
	Ignored   FieldMatcher
}

// NewToString renders with the given prefix and the tokens "{", "}", ", "
// and "=".
func NewToString(prefix PrefixResolver) ToString {
	return ToString{Prefix: prefix, Start: "{", End: "}", Separator: ", ", Definer: "="}
}

// WithIgnoredFields excludes additional fields.
func (s ToString) WithIgnoredFields(m FieldMatcher) ToString {
	s.Ignored = s.Ignored.Or(m)
	return s
}

// WithTokens replaces the structural tokens.
func (s ToString) WithTokens(start, end, separator, definer string) ToString {
	s.Start, s.End, s.Separator, s.Definer = start, end, separator, definer
	return s
}

func (s ToString) Appender(target *Target, method *descriptor.Method) (*Appender, error) {
	if err := requireClass(target, method, "toString method"); err != nil {
		return nil, err
	}
	if err := requireInstance(method, "toString method"); err != nil {
		return nil, err
	}
	if !descriptor.String.IsAssignableTo(method.Return) {
		return nil, failure.Misuse(method, "toString method does not return a String-compatible type")
	}
	if s.Prefix == nil {
		return nil, failure.Misuse(method, "toString method has no prefix")
	}

	appendText := func(text string) []stack.Operation {
		return []stack.Operation{stack.TextConstant(text), strategy.For(descriptor.String, strategy.TextRendering)}
	}
	ops := []stack.Operation{
		stack.TypeCreation{Type: descriptor.StringBuilder},
		stack.Duplicate(descriptor.StringBuilder),
		stack.TextConstant(s.Prefix.Prefix(target.Instrumented)),
		stack.Invoke(descriptor.StringBuilder.MustMethod("<init>", "(Ljava/lang/String;)V")),
	}
	ops = append(ops, appendText(s.Start)...)
	for i, f := range instanceFields(target.Instrumented, s.Ignored) {
		if i > 0 {
			ops = append(ops, appendText(s.Separator)...)
		}
		ops = append(ops, appendText(f.Name+s.Definer)...)
		ops = append(ops, readField(f), strategy.For(f.Type, strategy.TextRendering))
	}
	ops = append(ops, appendText(s.End)...)
	ops = append(ops,
		stack.Invoke(descriptor.StringBuilder.MustMethod("toString", "()Ljava/lang/String;")),
		stack.Return(method.Return),
	)
	return newAppender(method, stack.Compose(ops...), 0)
}
