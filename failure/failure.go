// Package failure defines the errors reported when a method body cannot be
// synthesized.
package failure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/methodgen/descriptor"
)

// Kind classifies a synthesis failure.
type Kind uint8

const (
	// InvalidOperation means a requested operation has no legal encoding.
	InvalidOperation Kind = iota + 1
	// NoDispatchCandidate means no super or default method is reachable.
	NoDispatchCandidate
	// AmbiguousDispatchCandidate means several default methods tie.
	AmbiguousDispatchCandidate
	// StructuralMisuse means the binding cannot apply to the method at all,
	// e.g. a setter for a final field.
	StructuralMisuse
)

// String returns a human-readable name for Kind.
func (k Kind) String() string {
	switch k {
	case InvalidOperation:
		return "invalid operation"
	case NoDispatchCandidate:
		return "no dispatch candidate"
	case AmbiguousDispatchCandidate:
		return "ambiguous dispatch candidate"
	case StructuralMisuse:
		return "structural misuse"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrInvalidOperation           = &Error{Kind: InvalidOperation}
	ErrNoDispatchCandidate        = &Error{Kind: NoDispatchCandidate}
	ErrAmbiguousDispatchCandidate = &Error{Kind: AmbiguousDispatchCandidate}
	ErrStructuralMisuse           = &Error{Kind: StructuralMisuse}
)

// Error is a labeled synthesis failure.
type Error struct {
	Kind      Kind
	Method    *descriptor.Method // instrumented method, if known
	Conflicts []*descriptor.Type // declaring types of ambiguous candidates
	Detail    string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Method != nil {
		sb.WriteString(" for ")
		sb.WriteString(e.Method.String())
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if len(e.Conflicts) > 0 {
		names := make([]string, len(e.Conflicts))
		for i, t := range e.Conflicts {
			names[i] = t.Name
		}
		sb.WriteString(" (")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString(")")
	}
	return sb.String()
}

// Is matches any failure of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New creates a failure of the given kind.
func New(kind Kind, method *descriptor.Method, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Method: method, Detail: fmt.Sprintf(format, args...)}
}

// Invalid reports an operation without legal encoding.
func Invalid(method *descriptor.Method, format string, args ...interface{}) *Error {
	return New(InvalidOperation, method, format, args...)
}

// Misuse reports a binding that cannot apply to method.
func Misuse(method *descriptor.Method, format string, args ...interface{}) *Error {
	return New(StructuralMisuse, method, format, args...)
}

// NoCandidate reports that no dispatch target is reachable.
func NoCandidate(method *descriptor.Method, format string, args ...interface{}) *Error {
	return New(NoDispatchCandidate, method, format, args...)
}

// Ambiguous reports two or more tying dispatch targets.
func Ambiguous(method *descriptor.Method, conflicts ...*descriptor.Type) *Error {
	return &Error{
		Kind:      AmbiguousDispatchCandidate,
		Method:    method,
		Conflicts: conflicts,
		Detail:    "more than one default method applies",
	}
}

// KindOf returns the kind of the first failure in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Attribute returns err attributed to method when err is a failure that does
// not name its method yet. Any other error is returned unchanged. The
// original failure is copied, never modified.
func Attribute(err error, method *descriptor.Method) error {
	fe, ok := err.(*Error)
	if !ok || fe.Method != nil || method == nil {
		return err
	}
	attributed := *fe
	attributed.Method = method
	return &attributed
}
