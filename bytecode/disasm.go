package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ---------------------------------------------------------------------------
// Reader
// ---------------------------------------------------------------------------

// ErrUnderflow is returned when an instruction runs past the end of the code.
var ErrUnderflow = errors.New("bytecode: underflow")

// Reader reads encoded instructions for disassembly.
type Reader struct {
	bytes []byte
	pos   int
}

// NewReader creates a reader for encoded instructions.
func NewReader(code []byte) *Reader {
	return &Reader{bytes: code}
}

// Position returns the current read position.
func (r *Reader) Position() int {
	return r.pos
}

// HasMore returns true if there are more bytes to read.
func (r *Reader) HasMore() bool {
	return r.pos < len(r.bytes)
}

// ReadByte reads a single unsigned byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.bytes) {
		return 0, ErrUnderflow
	}
	b := r.bytes[r.pos]
	r.pos++
	return b, nil
}

// ReadUint16 reads a big-endian 16-bit operand.
func (r *Reader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.bytes) {
		return 0, ErrUnderflow
	}
	v := binary.BigEndian.Uint16(r.bytes[r.pos:])
	r.pos += 2
	return v, nil
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// Instruction is one decoded instruction.
type Instruction struct {
	Offset  int
	Op      Opcode
	Operand int    // immediate, local index, pool index or branch target
	Comment string // resolved constant, if any
	Wide    bool   // local index encoded with the WIDE prefix
}

// String renders the instruction without its comment.
func (i Instruction) String() string {
	switch i.Op.Info().Operand {
	case OperandNone:
		return fmt.Sprintf("%04d  %s", i.Offset, i.Op.Name())
	case OperandLocal:
		if i.Wide {
			return fmt.Sprintf("%04d  WIDE %s %d", i.Offset, i.Op.Name(), i.Operand)
		}
		return fmt.Sprintf("%04d  %s %d", i.Offset, i.Op.Name(), i.Operand)
	case OperandBranch:
		return fmt.Sprintf("%04d  %s -> %04d", i.Offset, i.Op.Name(), i.Operand)
	case OperandPool8, OperandPool16, OperandInterface:
		return fmt.Sprintf("%04d  %s #%d", i.Offset, i.Op.Name(), i.Operand)
	default:
		return fmt.Sprintf("%04d  %s %d", i.Offset, i.Op.Name(), i.Operand)
	}
}

// DisassembleInstruction decodes the instruction at the reader's position
// and advances the reader. pool resolves constant comments and may be nil.
func DisassembleInstruction(r *Reader, pool []Constant) (Instruction, error) {
	insn := Instruction{Offset: r.Position()}
	b, err := r.ReadByte()
	if err != nil {
		return insn, err
	}
	insn.Op = Opcode(b)
	if insn.Op == OpWide {
		return disassembleWide(r, insn)
	}
	info := insn.Op.Info()
	if !insn.Op.Known() {
		return insn, fmt.Errorf("bytecode: unknown opcode 0x%02X at %d", b, insn.Offset)
	}

	switch info.Operand {
	case OperandNone:
	case OperandInt8:
		v, err := r.ReadByte()
		if err != nil {
			return insn, err
		}
		insn.Operand = int(int8(v))
	case OperandLocal, OperandPool8:
		v, err := r.ReadByte()
		if err != nil {
			return insn, err
		}
		insn.Operand = int(v)
	case OperandInt16:
		v, err := r.ReadUint16()
		if err != nil {
			return insn, err
		}
		insn.Operand = int(int16(v))
	case OperandPool16:
		v, err := r.ReadUint16()
		if err != nil {
			return insn, err
		}
		insn.Operand = int(v)
	case OperandBranch:
		v, err := r.ReadUint16()
		if err != nil {
			return insn, err
		}
		insn.Operand = insn.Offset + int(int16(v))
	case OperandInterface:
		v, err := r.ReadUint16()
		if err != nil {
			return insn, err
		}
		insn.Operand = int(v)
		if _, err := r.ReadUint16(); err != nil {
			return insn, err
		}
	}

	switch info.Operand {
	case OperandPool8, OperandPool16, OperandInterface:
		if insn.Operand < len(pool) {
			insn.Comment = pool[insn.Operand].String()
		}
	}
	return insn, nil
}

func disassembleWide(r *Reader, insn Instruction) (Instruction, error) {
	b, err := r.ReadByte()
	if err != nil {
		return insn, err
	}
	insn.Op, insn.Wide = Opcode(b), true
	if insn.Op.Info().Operand != OperandLocal {
		return insn, fmt.Errorf("bytecode: WIDE cannot prefix 0x%02X at %d", b, insn.Offset)
	}
	v, err := r.ReadUint16()
	if err != nil {
		return insn, err
	}
	insn.Operand = int(v)
	return insn, nil
}

// Disassemble decodes all instructions of code.
func Disassemble(code *Code) ([]Instruction, error) {
	r := NewReader(code.Bytes)
	var insns []Instruction
	for r.HasMore() {
		insn, err := DisassembleInstruction(r, code.Constants)
		if err != nil {
			return insns, err
		}
		insns = append(insns, insn)
	}
	return insns, nil
}

// Listing renders code as an aligned table with one instruction per line.
// Frames are listed before the instruction at their offset.
func Listing(code *Code) (string, error) {
	insns, err := Disassemble(code)
	if err != nil {
		return "", err
	}

	width := 0
	for _, insn := range insns {
		if w := runewidth.StringWidth(insn.String()); w > width {
			width = w
		}
	}

	frames := make(map[int]Frame, len(code.Frames))
	for _, entry := range code.Frames {
		frames[entry.Offset] = entry.Frame
	}

	var sb strings.Builder
	for _, insn := range insns {
		if f, ok := frames[insn.Offset]; ok {
			fmt.Fprintf(&sb, "      %s\n", Event{Kind: EventFrame, Frame: f})
		}
		if insn.Comment == "" {
			sb.WriteString(insn.String())
		} else {
			sb.WriteString(runewidth.FillRight(insn.String(), width))
			sb.WriteString("  // ")
			sb.WriteString(runewidth.Truncate(insn.Comment, 60, "..."))
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
