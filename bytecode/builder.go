package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ---------------------------------------------------------------------------
// Builder: binary instruction writer
// ---------------------------------------------------------------------------

// FrameEntry is a frame bound to a code offset.
type FrameEntry struct {
	Offset int   `cbor:"1,keyasint"`
	Frame  Frame `cbor:"2,keyasint"`
}

// Code is the finished output of a Builder.
type Code struct {
	Bytes     []byte
	Constants []Constant
	Frames    []FrameEntry
}

// Builder writes instructions into a byte buffer. Operands are big-endian,
// branch offsets are relative to the branch instruction. Builder implements
// Sink; errors are recorded and reported by Finish.
type Builder struct {
	bytes     []byte
	pool      []Constant
	poolIndex map[Constant]int
	labels    map[*Label]*labelState
	frames    []FrameEntry
	err       error
}

// labelState tracks a label's resolution inside one builder.
type labelState struct {
	resolved bool
	position int        // target offset once resolved
	refs     []labelRef // branches waiting for the position
}

// labelRef is a branch operand to patch.
type labelRef struct {
	insn    int // offset of the branch opcode
	operand int // offset of the 16-bit operand
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		bytes:     make([]byte, 0, 64),
		poolIndex: make(map[Constant]int),
		labels:    make(map[*Label]*labelState),
	}
}

// Len returns the current code length.
func (b *Builder) Len() int {
	return len(b.bytes)
}

// errorf records the first error encountered.
func (b *Builder) errorf(format string, args ...interface{}) {
	if b.err == nil {
		b.err = fmt.Errorf("bytecode: "+format, args...)
	}
}

// constant adds a constant to the pool and returns its index.
// If the constant already exists, returns the existing index.
func (b *Builder) constant(c Constant) int {
	if idx, ok := b.poolIndex[c]; ok {
		return idx
	}
	idx := len(b.pool)
	if idx > math.MaxUint16 {
		b.errorf("constant pool overflow")
		return 0
	}
	b.pool = append(b.pool, c)
	b.poolIndex[c] = idx
	return idx
}

func (b *Builder) emitUint16(op Opcode, operand int) {
	b.bytes = append(b.bytes, byte(op))
	b.bytes = binary.BigEndian.AppendUint16(b.bytes, uint16(operand))
}

func (b *Builder) checkOperand(op Opcode, want OperandKind) bool {
	if !op.Known() {
		b.errorf("unknown opcode 0x%02X", byte(op))
		return false
	}
	if got := op.Info().Operand; got != want {
		b.errorf("%s does not take a %s operand", op, operandName(want))
		return false
	}
	return true
}

// Insn appends an opcode with no operands.
func (b *Builder) Insn(op Opcode) {
	if b.checkOperand(op, OperandNone) {
		b.bytes = append(b.bytes, byte(op))
	}
}

// IntInsn appends BIPUSH or SIPUSH.
func (b *Builder) IntInsn(op Opcode, operand int) {
	switch op {
	case OpBIPush:
		if operand < math.MinInt8 || operand > math.MaxInt8 {
			b.errorf("BIPUSH operand %d out of range", operand)
			return
		}
		b.bytes = append(b.bytes, byte(op), byte(int8(operand)))
	case OpSIPush:
		if operand < math.MinInt16 || operand > math.MaxInt16 {
			b.errorf("SIPUSH operand %d out of range", operand)
			return
		}
		b.emitUint16(op, int(uint16(int16(operand))))
	default:
		b.errorf("%s does not take an immediate operand", op)
	}
}

// VarInsn appends a local variable instruction.
func (b *Builder) VarInsn(op Opcode, slot int) {
	if !b.checkOperand(op, OperandLocal) {
		return
	}
	switch {
	case slot < 0 || slot > math.MaxUint16:
		b.errorf("local variable index %d out of range", slot)
	case slot > math.MaxUint8:
		b.bytes = append(b.bytes, byte(OpWide))
		b.emitUint16(op, slot)
	default:
		b.bytes = append(b.bytes, byte(op), byte(slot))
	}
}

// TypeInsn appends NEW, CHECKCAST or INSTANCEOF.
func (b *Builder) TypeInsn(op Opcode, internalName string) {
	switch op {
	case OpNew, OpCheckCast, OpInstanceOf:
		b.emitUint16(op, b.constant(ClassConstant(internalName)))
	default:
		b.errorf("%s is not a type instruction", op)
	}
}

// FieldInsn appends a field access.
func (b *Builder) FieldInsn(op Opcode, owner, name, descriptor string) {
	switch op {
	case OpGetField, OpPutField, OpGetStatic, OpPutStatic:
		b.emitUint16(op, b.constant(memberConstant(owner, name, descriptor, false)))
	default:
		b.errorf("%s is not a field instruction", op)
	}
}

// MethodInsn appends an invocation.
func (b *Builder) MethodInsn(op Opcode, owner, name, descriptor string, onInterface bool) {
	idx := b.constant(memberConstant(owner, name, descriptor, onInterface))
	switch op {
	case OpInvokeVirtual, OpInvokeSpecial, OpInvokeStatic:
		b.emitUint16(op, idx)
	case OpInvokeInterface:
		args, err := ArgumentSlots(descriptor)
		if err != nil {
			b.errorf("%v", err)
			return
		}
		b.emitUint16(op, idx)
		b.bytes = append(b.bytes, byte(args+1), 0)
	default:
		b.errorf("%s is not an invocation", op)
	}
}

// Ldc appends the shortest constant load for c.
func (b *Builder) Ldc(c Constant) {
	idx := b.constant(c)
	switch {
	case c.Wide():
		b.emitUint16(OpLdc2W, idx)
	case idx <= math.MaxUint8:
		b.bytes = append(b.bytes, byte(OpLdc), byte(idx))
	default:
		b.emitUint16(OpLdcW, idx)
	}
}

// ---------------------------------------------------------------------------
// Label management for jumps
// ---------------------------------------------------------------------------

func (b *Builder) state(label *Label) *labelState {
	st, ok := b.labels[label]
	if !ok {
		st = &labelState{}
		b.labels[label] = st
	}
	return st
}

// Mark resolves a label to the current position and patches all forward
// references.
func (b *Builder) Mark(label *Label) {
	st := b.state(label)
	if st.resolved {
		b.errorf("label %s already resolved", label)
		return
	}
	st.resolved = true
	st.position = len(b.bytes)
	for _, ref := range st.refs {
		b.patch(ref, st.position)
	}
	st.refs = nil
}

func (b *Builder) patch(ref labelRef, target int) {
	offset := target - ref.insn
	if offset < math.MinInt16 || offset > math.MaxInt16 {
		b.errorf("branch offset %d out of range", offset)
		return
	}
	binary.BigEndian.PutUint16(b.bytes[ref.operand:], uint16(int16(offset)))
}

// JumpInsn emits a branch instruction to a label.
func (b *Builder) JumpInsn(op Opcode, label *Label) {
	if !b.checkOperand(op, OperandBranch) {
		return
	}
	st := b.state(label)
	ref := labelRef{insn: len(b.bytes), operand: len(b.bytes) + 1}
	b.bytes = append(b.bytes, byte(op), 0, 0)
	if st.resolved {
		b.patch(ref, st.position)
	} else {
		st.refs = append(st.refs, ref)
	}
}

// Frame binds verifier metadata to the current offset. A later frame at the
// same offset replaces the earlier one.
func (b *Builder) Frame(f Frame) {
	offset := len(b.bytes)
	if n := len(b.frames); n > 0 && b.frames[n-1].Offset == offset {
		b.frames[n-1].Frame = f
		return
	}
	b.frames = append(b.frames, FrameEntry{Offset: offset, Frame: f})
}

// Finish returns the written code. It fails if any label was referenced but
// never marked or if an instruction could not be encoded.
func (b *Builder) Finish() (*Code, error) {
	if b.err != nil {
		return nil, b.err
	}
	for label, st := range b.labels {
		if !st.resolved && len(st.refs) > 0 {
			return nil, fmt.Errorf("bytecode: label %s referenced but never marked", label)
		}
	}
	return &Code{Bytes: b.bytes, Constants: b.pool, Frames: b.frames}, nil
}

// ---------------------------------------------------------------------------
// Descriptor helpers
// ---------------------------------------------------------------------------

func memberConstant(owner, name, descriptor string, onInterface bool) Constant {
	c := Constant{Kind: ConstMember, Text: owner + "." + name + ":" + descriptor}
	if onInterface {
		c.Int = 1
	}
	return c
}

// ArgumentSlots returns the number of stack slots taken by the parameters of
// a method descriptor such as "(IJLjava/lang/String;)V".
func ArgumentSlots(descriptor string) (int, error) {
	if !strings.HasPrefix(descriptor, "(") {
		return 0, fmt.Errorf("bytecode: malformed method descriptor %q", descriptor)
	}
	slots := 0
	for i := 1; i < len(descriptor); {
		switch descriptor[i] {
		case ')':
			return slots, nil
		case 'J', 'D':
			slots += 2
			i++
		case 'Z', 'B', 'S', 'C', 'I', 'F':
			slots++
			i++
		case 'L':
			end := strings.IndexByte(descriptor[i:], ';')
			if end < 0 {
				return 0, fmt.Errorf("bytecode: malformed method descriptor %q", descriptor)
			}
			slots++
			i += end + 1
		case '[':
			for i < len(descriptor) && descriptor[i] == '[' {
				i++
			}
			if i < len(descriptor) && descriptor[i] == 'L' {
				end := strings.IndexByte(descriptor[i:], ';')
				if end < 0 {
					return 0, fmt.Errorf("bytecode: malformed method descriptor %q", descriptor)
				}
				i += end + 1
			} else {
				i++
			}
			slots++
		default:
			return 0, fmt.Errorf("bytecode: malformed method descriptor %q", descriptor)
		}
	}
	return 0, fmt.Errorf("bytecode: malformed method descriptor %q", descriptor)
}

func operandName(k OperandKind) string {
	switch k {
	case OperandNone:
		return "empty"
	case OperandInt8, OperandInt16:
		return "immediate"
	case OperandLocal:
		return "local"
	case OperandBranch:
		return "branch"
	default:
		return "pool"
	}
}
