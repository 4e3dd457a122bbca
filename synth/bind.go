package synth

import (
	"fmt"
	"math"

	"github.com/chazu/methodgen/assign"
	"github.com/chazu/methodgen/config"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/implementation"
)

// implementation builds the implementation a binding names for method,
// applying the shared [hash], [equals], [tostring] and [dispatch] settings.
func (s *Synthesizer) implementation(b *config.Binding, method *descriptor.Method) (implementation.Implementation, error) {
	impl, err := s.single(b, method)
	if err != nil || b.Then == nil {
		return impl, err
	}
	then, err := s.implementation(b.Then, method)
	if err != nil {
		return nil, err
	}
	return implementation.AndThen(impl, then), nil
}

func (s *Synthesizer) single(b *config.Binding, method *descriptor.Method) (implementation.Implementation, error) {
	typing := assign.Static
	if b.Typing == "dynamic" {
		typing = assign.Dynamic
	}

	switch b.Impl {
	case config.ImplHashCode:
		return s.hashCode()
	case config.ImplEquals:
		return s.equals(), nil
	case config.ImplToString:
		return s.toString(), nil
	case config.ImplAccessor:
		if b.Field == "" {
			return implementation.OfBeanProperty().WithTyping(typing), nil
		}
		return implementation.OfField(b.Field).WithTyping(typing), nil
	case config.ImplFixed:
		v, err := implementation.Value(fixedValue(b.Value, method.Return))
		if err != nil {
			return nil, err
		}
		return v.WithTyping(typing), nil
	case config.ImplSelf:
		return implementation.Self().WithTyping(typing), nil
	case config.ImplArgument:
		return implementation.Argument(b.Argument).WithTyping(typing), nil
	case config.ImplSuper:
		return implementation.SuperMethodCall{}, nil
	case config.ImplDefault:
		if len(s.prioritization) == 0 {
			return implementation.UnambiguousOnly(), nil
		}
		return implementation.Prioritize(s.prioritization...), nil
	case config.ImplForward:
		return implementation.ForwardTo(b.Field), nil
	default:
		return nil, fmt.Errorf("unknown implementation %q", b.Impl)
	}
}

// fixedValue narrows the int64 and float64 values TOML decodes to the
// return type of the method they are returned from. Integers that fit an
// int become ints unless the method returns long, and floating-point
// values become floats for float methods.
func fixedValue(v interface{}, ret *descriptor.Type) interface{} {
	switch n := v.(type) {
	case int64:
		if !ret.Same(descriptor.Long) && n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n)
		}
	case float64:
		if ret.Same(descriptor.Float) && math.Abs(n) <= math.MaxFloat32 {
			return float32(n)
		}
	}
	return v
}

func (s *Synthesizer) hashCode() (implementation.Implementation, error) {
	c := s.config.Hash
	var offset implementation.OffsetProvider
	switch c.Offset {
	case "super":
		offset = implementation.SuperOffset{}
	case "type":
		offset = implementation.TypeHashOffset{}
	case "runtime-type":
		offset = implementation.TypeHashOffset{Dynamic: true}
	default:
		offset = implementation.FixedOffset(c.Value)
	}
	h, err := implementation.HashCodeUsingOffset(offset).WithMultiplier(c.Multiplier)
	if err != nil {
		return nil, err
	}
	return h.
		WithIgnoredFields(implementation.Named(c.Ignore...)).
		WithNonNullableFields(implementation.Named(c.NonNullable...)).
		WithIdentityFields(implementation.Named(c.Identity...)), nil
}

func (s *Synthesizer) equals() implementation.Implementation {
	c := s.config.Equals
	e := implementation.NewEquals()
	if c.Super {
		e = implementation.RequiringSuperEquality()
	}
	if c.Subclass {
		e = e.WithSubclassEquality()
	}
	e = e.WithIgnoredFields(implementation.Named(c.Ignore...)).
		WithNonNullableFields(implementation.Named(c.NonNullable...))
	for _, o := range c.Order {
		switch o {
		case "primitives":
			e = e.WithPrimitiveFieldsFirst()
		case "enums":
			e = e.WithEnumFieldsFirst()
		case "strings":
			e = e.WithStringFieldsFirst()
		case "wrappers":
			e = e.WithPrimitiveWrapperFieldsFirst()
		}
	}
	return e
}

func (s *Synthesizer) toString() implementation.Implementation {
	c := s.config.ToString
	var prefix implementation.PrefixResolver
	switch c.Prefix {
	case "qualified":
		prefix = implementation.FullyQualifiedName
	case "canonical":
		prefix = implementation.CanonicalName
	case "fixed":
		prefix = implementation.FixedPrefix(c.Fixed)
	default:
		prefix = implementation.SimpleName
	}
	return implementation.NewToString(prefix).
		WithTokens(c.Start, c.End, c.Separator, c.Definer).
		WithIgnoredFields(implementation.Named(c.Ignore...))
}
