package bytecode

import "fmt"

// Sink receives primitive instructions. Operations write into a sink without
// knowing whether it produces binary code, records a trace, or discards.
type Sink interface {
	// Insn emits an instruction without operands.
	Insn(op Opcode)
	// IntInsn emits BIPUSH or SIPUSH.
	IntInsn(op Opcode, operand int)
	// VarInsn emits a local variable load or store.
	VarInsn(op Opcode, slot int)
	// TypeInsn emits NEW, CHECKCAST or INSTANCEOF for an internal type name.
	TypeInsn(op Opcode, internalName string)
	// FieldInsn emits a field read or write.
	FieldInsn(op Opcode, owner, name, descriptor string)
	// MethodInsn emits a method invocation.
	MethodInsn(op Opcode, owner, name, descriptor string, onInterface bool)
	// JumpInsn emits a branch to label.
	JumpInsn(op Opcode, label *Label)
	// Ldc pushes a pooled constant.
	Ldc(c Constant)
	// Mark binds label to the current position.
	Mark(label *Label)
	// Frame records verifier metadata for the current position.
	Frame(f Frame)
}

// Label is a branch target. Labels are created by the operations that use
// them and bound by a sink when marked.
type Label struct {
	Name string // debugging name, may be empty
}

// NewLabel creates an unbound label.
func NewLabel(name string) *Label {
	return &Label{Name: name}
}

func (l *Label) String() string {
	if l.Name == "" {
		return fmt.Sprintf("L%p", l)
	}
	return l.Name
}

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

// ConstantKind identifies the type of a pooled constant.
type ConstantKind uint8

const (
	ConstInt    ConstantKind = 1
	ConstLong   ConstantKind = 2
	ConstFloat  ConstantKind = 3
	ConstDouble ConstantKind = 4
	ConstString ConstantKind = 5
	ConstClass  ConstantKind = 6
	ConstMember ConstantKind = 7
)

// String returns a human-readable name for ConstantKind.
func (k ConstantKind) String() string {
	switch k {
	case ConstInt:
		return "int"
	case ConstLong:
		return "long"
	case ConstFloat:
		return "float"
	case ConstDouble:
		return "double"
	case ConstString:
		return "string"
	case ConstClass:
		return "class"
	case ConstMember:
		return "member"
	default:
		return fmt.Sprintf("ConstantKind(%d)", k)
	}
}

// Constant is an entry of the constant pool.
type Constant struct {
	Kind  ConstantKind `cbor:"1,keyasint"`
	Int   int64        `cbor:"2,keyasint,omitempty"`
	Float float64      `cbor:"3,keyasint,omitempty"`
	Text  string       `cbor:"4,keyasint,omitempty"`
}

// IntConstant returns a pooled int constant.
func IntConstant(v int32) Constant { return Constant{Kind: ConstInt, Int: int64(v)} }

// LongConstant returns a pooled long constant.
func LongConstant(v int64) Constant { return Constant{Kind: ConstLong, Int: v} }

// FloatConstant returns a pooled float constant.
func FloatConstant(v float32) Constant { return Constant{Kind: ConstFloat, Float: float64(v)} }

// DoubleConstant returns a pooled double constant.
func DoubleConstant(v float64) Constant { return Constant{Kind: ConstDouble, Float: v} }

// StringConstant returns a pooled string constant.
func StringConstant(s string) Constant { return Constant{Kind: ConstString, Text: s} }

// ClassConstant returns a pooled class literal for an internal name.
func ClassConstant(internalName string) Constant {
	return Constant{Kind: ConstClass, Text: internalName}
}

// Wide reports whether the constant occupies two stack slots.
func (c Constant) Wide() bool {
	return c.Kind == ConstLong || c.Kind == ConstDouble
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt, ConstLong:
		return fmt.Sprintf("%s %d", c.Kind, c.Int)
	case ConstFloat, ConstDouble:
		return fmt.Sprintf("%s %g", c.Kind, c.Float)
	case ConstString:
		return fmt.Sprintf("%q", c.Text)
	default:
		return fmt.Sprintf("%s %s", c.Kind, c.Text)
	}
}

// ---------------------------------------------------------------------------
// Frames
// ---------------------------------------------------------------------------

// FrameKind is the compressed form of a verifier frame.
type FrameKind uint8

const (
	// FrameSame keeps the locals of the previous frame with an empty stack.
	FrameSame FrameKind = iota
	// FrameSame1 keeps the locals of the previous frame with one stack value.
	FrameSame1
	// FrameFull declares locals and stack explicitly.
	FrameFull
)

// String returns a human-readable name for FrameKind.
func (k FrameKind) String() string {
	switch k {
	case FrameSame:
		return "SAME"
	case FrameSame1:
		return "SAME1"
	case FrameFull:
		return "FULL"
	default:
		return fmt.Sprintf("FrameKind(%d)", k)
	}
}

// Frame describes the verifier-visible state at a merge point. Entries are
// verification type names: "I", "J", "F", "D" or an internal class name.
type Frame struct {
	Kind   FrameKind `cbor:"1,keyasint"`
	Locals []string  `cbor:"2,keyasint,omitempty"`
	Stack  []string  `cbor:"3,keyasint,omitempty"`
}

// ---------------------------------------------------------------------------
// Discard
// ---------------------------------------------------------------------------

// Discard is a sink that drops everything written to it.
var Discard Sink = discard{}

type discard struct{}

func (discard) Insn(Opcode) {}
func (discard) IntInsn(Opcode, int) {}
func (discard) VarInsn(Opcode, int) {}
func (discard) TypeInsn(Opcode, string) {}
func (discard) FieldInsn(Opcode, string, string, string) {}
func (discard) MethodInsn(Opcode, string, string, string, bool) {}
func (discard) JumpInsn(Opcode, *Label) {}
func (discard) Ldc(Constant) {}
func (discard) Mark(*Label) {}
func (discard) Frame(Frame) {}
