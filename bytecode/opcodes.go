package bytecode

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single instruction. Values follow the JVM numbering for
// the subset of instructions that synthesized methods use.
type Opcode byte

// Constants
const (
	OpNOP        Opcode = 0x00 // no operation
	OpAConstNull Opcode = 0x01 // push null
	OpIConstM1   Opcode = 0x02 // push int -1
	OpIConst0    Opcode = 0x03 // push int 0
	OpIConst1    Opcode = 0x04 // push int 1
	OpIConst2    Opcode = 0x05 // push int 2
	OpIConst3    Opcode = 0x06 // push int 3
	OpIConst4    Opcode = 0x07 // push int 4
	OpIConst5    Opcode = 0x08 // push int 5
	OpLConst0    Opcode = 0x09 // push long 0
	OpLConst1    Opcode = 0x0A // push long 1
	OpFConst0    Opcode = 0x0B // push float 0
	OpFConst1    Opcode = 0x0C // push float 1
	OpFConst2    Opcode = 0x0D // push float 2
	OpDConst0    Opcode = 0x0E // push double 0
	OpDConst1    Opcode = 0x0F // push double 1
	OpBIPush     Opcode = 0x10 // push signed 8-bit int
	OpSIPush     Opcode = 0x11 // push signed 16-bit int
	OpLdc        Opcode = 0x12 // push constant (8-bit pool index)
	OpLdcW       Opcode = 0x13 // push constant (16-bit pool index)
	OpLdc2W      Opcode = 0x14 // push long/double constant (16-bit pool index)
)

// Local variables
const (
	OpILoad  Opcode = 0x15
	OpLLoad  Opcode = 0x16
	OpFLoad  Opcode = 0x17
	OpDLoad  Opcode = 0x18
	OpALoad  Opcode = 0x19
	OpIStore Opcode = 0x36
	OpLStore Opcode = 0x37
	OpFStore Opcode = 0x38
	OpDStore Opcode = 0x39
	OpAStore Opcode = 0x3A
)

// Stack manipulation
const (
	OpPop  Opcode = 0x57
	OpPop2 Opcode = 0x58
	OpDup  Opcode = 0x59
	OpDup2 Opcode = 0x5C
)

// Arithmetic
const (
	OpIAdd  Opcode = 0x60
	OpLAdd  Opcode = 0x61
	OpFAdd  Opcode = 0x62
	OpDAdd  Opcode = 0x63
	OpIMul  Opcode = 0x68
	OpLMul  Opcode = 0x69
	OpFMul  Opcode = 0x6A
	OpDMul  Opcode = 0x6B
	OpIUShr Opcode = 0x7C
	OpLUShr Opcode = 0x7D
	OpIXor  Opcode = 0x82
	OpLXor  Opcode = 0x83
)

// Conversions
const (
	OpI2L Opcode = 0x85
	OpI2F Opcode = 0x86
	OpI2D Opcode = 0x87
	OpL2I Opcode = 0x88
	OpL2F Opcode = 0x89
	OpL2D Opcode = 0x8A
	OpF2I Opcode = 0x8B
	OpF2L Opcode = 0x8C
	OpF2D Opcode = 0x8D
	OpD2I Opcode = 0x8E
	OpD2L Opcode = 0x8F
	OpD2F Opcode = 0x90
	OpI2B Opcode = 0x91
	OpI2C Opcode = 0x92
	OpI2S Opcode = 0x93
)

// Comparisons and control flow
const (
	OpLCmp      Opcode = 0x94
	OpIfEq      Opcode = 0x99 // pop int, jump if zero
	OpIfNe      Opcode = 0x9A // pop int, jump if non-zero
	OpIfICmpEq  Opcode = 0x9F // pop two ints, jump if equal
	OpIfICmpNe  Opcode = 0xA0 // pop two ints, jump if not equal
	OpIfACmpEq  Opcode = 0xA5 // pop two references, jump if identical
	OpIfACmpNe  Opcode = 0xA6 // pop two references, jump if not identical
	OpGoto      Opcode = 0xA7 // unconditional jump
	OpIfNull    Opcode = 0xC6 // pop reference, jump if null
	OpIfNonNull Opcode = 0xC7 // pop reference, jump if not null
)

// Returns
const (
	OpIReturn Opcode = 0xAC
	OpLReturn Opcode = 0xAD
	OpFReturn Opcode = 0xAE
	OpDReturn Opcode = 0xAF
	OpAReturn Opcode = 0xB0
	OpReturn  Opcode = 0xB1
)

// Members and objects
const (
	OpGetStatic       Opcode = 0xB2
	OpPutStatic       Opcode = 0xB3
	OpGetField        Opcode = 0xB4
	OpPutField        Opcode = 0xB5
	OpInvokeVirtual   Opcode = 0xB6
	OpInvokeSpecial   Opcode = 0xB7
	OpInvokeStatic    Opcode = 0xB8
	OpInvokeInterface Opcode = 0xB9
	OpNew             Opcode = 0xBB
	OpCheckCast       Opcode = 0xC0
	OpInstanceOf      Opcode = 0xC1
)

// OpWide prefixes a local variable instruction whose index needs 16 bits.
// It is not an instruction of its own and has no table entry.
const OpWide Opcode = 0xC4

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OperandKind describes how an instruction's operands are encoded.
type OperandKind uint8

const (
	OperandNone      OperandKind = iota // no operands
	OperandInt8                         // signed byte (BIPUSH)
	OperandInt16                        // signed 16-bit value (SIPUSH)
	OperandLocal                        // local variable index (8-bit)
	OperandPool8                        // constant pool index (8-bit)
	OperandPool16                       // constant pool index (16-bit)
	OperandBranch                       // signed 16-bit branch offset
	OperandInterface                    // pool index, argument count, zero byte
)

// Width returns the number of operand bytes for the kind.
func (k OperandKind) Width() int {
	switch k {
	case OperandInt8, OperandLocal, OperandPool8:
		return 1
	case OperandInt16, OperandPool16, OperandBranch:
		return 2
	case OperandInterface:
		return 4
	default:
		return 0
	}
}

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string      // human-readable name
	Operand     OperandKind // operand encoding
	StackEffect int         // net effect on the stack in slots
	Variable    bool        // effect depends on the referenced member
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpNOP:        {"NOP", OperandNone, 0, false},
	OpAConstNull: {"ACONST_NULL", OperandNone, 1, false},
	OpIConstM1:   {"ICONST_M1", OperandNone, 1, false},
	OpIConst0:    {"ICONST_0", OperandNone, 1, false},
	OpIConst1:    {"ICONST_1", OperandNone, 1, false},
	OpIConst2:    {"ICONST_2", OperandNone, 1, false},
	OpIConst3:    {"ICONST_3", OperandNone, 1, false},
	OpIConst4:    {"ICONST_4", OperandNone, 1, false},
	OpIConst5:    {"ICONST_5", OperandNone, 1, false},
	OpLConst0:    {"LCONST_0", OperandNone, 2, false},
	OpLConst1:    {"LCONST_1", OperandNone, 2, false},
	OpFConst0:    {"FCONST_0", OperandNone, 1, false},
	OpFConst1:    {"FCONST_1", OperandNone, 1, false},
	OpFConst2:    {"FCONST_2", OperandNone, 1, false},
	OpDConst0:    {"DCONST_0", OperandNone, 2, false},
	OpDConst1:    {"DCONST_1", OperandNone, 2, false},
	OpBIPush:     {"BIPUSH", OperandInt8, 1, false},
	OpSIPush:     {"SIPUSH", OperandInt16, 1, false},
	OpLdc:        {"LDC", OperandPool8, 1, false},
	OpLdcW:       {"LDC_W", OperandPool16, 1, false},
	OpLdc2W:      {"LDC2_W", OperandPool16, 2, false},

	OpILoad:  {"ILOAD", OperandLocal, 1, false},
	OpLLoad:  {"LLOAD", OperandLocal, 2, false},
	OpFLoad:  {"FLOAD", OperandLocal, 1, false},
	OpDLoad:  {"DLOAD", OperandLocal, 2, false},
	OpALoad:  {"ALOAD", OperandLocal, 1, false},
	OpIStore: {"ISTORE", OperandLocal, -1, false},
	OpLStore: {"LSTORE", OperandLocal, -2, false},
	OpFStore: {"FSTORE", OperandLocal, -1, false},
	OpDStore: {"DSTORE", OperandLocal, -2, false},
	OpAStore: {"ASTORE", OperandLocal, -1, false},

	OpPop:  {"POP", OperandNone, -1, false},
	OpPop2: {"POP2", OperandNone, -2, false},
	OpDup:  {"DUP", OperandNone, 1, false},
	OpDup2: {"DUP2", OperandNone, 2, false},

	OpIAdd:  {"IADD", OperandNone, -1, false},
	OpLAdd:  {"LADD", OperandNone, -2, false},
	OpFAdd:  {"FADD", OperandNone, -1, false},
	OpDAdd:  {"DADD", OperandNone, -2, false},
	OpIMul:  {"IMUL", OperandNone, -1, false},
	OpLMul:  {"LMUL", OperandNone, -2, false},
	OpFMul:  {"FMUL", OperandNone, -1, false},
	OpDMul:  {"DMUL", OperandNone, -2, false},
	OpIUShr: {"IUSHR", OperandNone, -1, false},
	OpLUShr: {"LUSHR", OperandNone, -1, false},
	OpIXor:  {"IXOR", OperandNone, -1, false},
	OpLXor:  {"LXOR", OperandNone, -2, false},

	OpI2L: {"I2L", OperandNone, 1, false},
	OpI2F: {"I2F", OperandNone, 0, false},
	OpI2D: {"I2D", OperandNone, 1, false},
	OpL2I: {"L2I", OperandNone, -1, false},
	OpL2F: {"L2F", OperandNone, -1, false},
	OpL2D: {"L2D", OperandNone, 0, false},
	OpF2I: {"F2I", OperandNone, 0, false},
	OpF2L: {"F2L", OperandNone, 1, false},
	OpF2D: {"F2D", OperandNone, 1, false},
	OpD2I: {"D2I", OperandNone, -1, false},
	OpD2L: {"D2L", OperandNone, 0, false},
	OpD2F: {"D2F", OperandNone, -1, false},
	OpI2B: {"I2B", OperandNone, 0, false},
	OpI2C: {"I2C", OperandNone, 0, false},
	OpI2S: {"I2S", OperandNone, 0, false},

	OpLCmp:      {"LCMP", OperandNone, -3, false},
	OpIfEq:      {"IFEQ", OperandBranch, -1, false},
	OpIfNe:      {"IFNE", OperandBranch, -1, false},
	OpIfICmpEq:  {"IF_ICMPEQ", OperandBranch, -2, false},
	OpIfICmpNe:  {"IF_ICMPNE", OperandBranch, -2, false},
	OpIfACmpEq:  {"IF_ACMPEQ", OperandBranch, -2, false},
	OpIfACmpNe:  {"IF_ACMPNE", OperandBranch, -2, false},
	OpGoto:      {"GOTO", OperandBranch, 0, false},
	OpIfNull:    {"IFNULL", OperandBranch, -1, false},
	OpIfNonNull: {"IFNONNULL", OperandBranch, -1, false},

	OpIReturn: {"IRETURN", OperandNone, -1, false},
	OpLReturn: {"LRETURN", OperandNone, -2, false},
	OpFReturn: {"FRETURN", OperandNone, -1, false},
	OpDReturn: {"DRETURN", OperandNone, -2, false},
	OpAReturn: {"ARETURN", OperandNone, -1, false},
	OpReturn:  {"RETURN", OperandNone, 0, false},

	OpGetStatic:       {"GETSTATIC", OperandPool16, 0, true},
	OpPutStatic:       {"PUTSTATIC", OperandPool16, 0, true},
	OpGetField:        {"GETFIELD", OperandPool16, 0, true},
	OpPutField:        {"PUTFIELD", OperandPool16, 0, true},
	OpInvokeVirtual:   {"INVOKEVIRTUAL", OperandPool16, 0, true},
	OpInvokeSpecial:   {"INVOKESPECIAL", OperandPool16, 0, true},
	OpInvokeStatic:    {"INVOKESTATIC", OperandPool16, 0, true},
	OpInvokeInterface: {"INVOKEINTERFACE", OperandInterface, 0, true},
	OpNew:             {"NEW", OperandPool16, 1, false},
	OpCheckCast:       {"CHECKCAST", OperandPool16, 0, false},
	OpInstanceOf:      {"INSTANCEOF", OperandPool16, 0, false},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// Known reports whether the opcode is part of the supported instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// IsBranch reports whether the opcode takes a branch offset.
func (op Opcode) IsBranch() bool {
	return op.Info().Operand == OperandBranch
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}
