package bytecode

import (
	"fmt"
	"strconv"
)

// EventKind distinguishes recorded instructions from labels and frames.
type EventKind uint8

const (
	EventInsn EventKind = iota
	EventLabel
	EventFrame
)

// Event is one call made on a Recorder.
type Event struct {
	Kind    EventKind
	Op      Opcode
	Operand string
	Label   *Label
	Frame   Frame
}

// String renders the event the way Trace does.
func (e Event) String() string {
	switch e.Kind {
	case EventLabel:
		return e.Label.String() + ":"
	case EventFrame:
		return fmt.Sprintf("FRAME %s locals=%v stack=%v", e.Frame.Kind, e.Frame.Locals, e.Frame.Stack)
	default:
		if e.Operand == "" {
			return e.Op.Name()
		}
		return e.Op.Name() + " " + e.Operand
	}
}

// Recorder is a Sink that keeps every call in order. It is meant for
// inspecting what an operation emits.
type Recorder struct {
	Events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) insn(op Opcode, operand string) {
	r.Events = append(r.Events, Event{Kind: EventInsn, Op: op, Operand: operand})
}

func (r *Recorder) Insn(op Opcode) { r.insn(op, "") }

func (r *Recorder) IntInsn(op Opcode, operand int) { r.insn(op, strconv.Itoa(operand)) }

func (r *Recorder) VarInsn(op Opcode, slot int) { r.insn(op, strconv.Itoa(slot)) }

func (r *Recorder) TypeInsn(op Opcode, internalName string) {
	r.insn(op, internalName)
}

func (r *Recorder) FieldInsn(op Opcode, owner, name, descriptor string) {
	r.insn(op, owner+"."+name+":"+descriptor)
}

func (r *Recorder) MethodInsn(op Opcode, owner, name, descriptor string, onInterface bool) {
	r.insn(op, owner+"."+name+descriptor)
}

func (r *Recorder) JumpInsn(op Opcode, label *Label) {
	r.Events = append(r.Events, Event{Kind: EventInsn, Op: op, Operand: label.String(), Label: label})
}

func (r *Recorder) Ldc(c Constant) {
	op := OpLdc
	if c.Wide() {
		op = OpLdc2W
	}
	r.insn(op, c.String())
}

func (r *Recorder) Mark(label *Label) {
	r.Events = append(r.Events, Event{Kind: EventLabel, Label: label})
}

func (r *Recorder) Frame(f Frame) {
	r.Events = append(r.Events, Event{Kind: EventFrame, Frame: f})
}

// Opcodes returns the recorded instructions' opcodes, skipping labels and frames.
func (r *Recorder) Opcodes() []Opcode {
	var ops []Opcode
	for _, e := range r.Events {
		if e.Kind == EventInsn {
			ops = append(ops, e.Op)
		}
	}
	return ops
}

// Count returns the number of recorded instructions.
func (r *Recorder) Count() int {
	return len(r.Opcodes())
}

// Frames returns the recorded frames in order.
func (r *Recorder) Frames() []Frame {
	var frames []Frame
	for _, e := range r.Events {
		if e.Kind == EventFrame {
			frames = append(frames, e.Frame)
		}
	}
	return frames
}

// Labels returns the number of marked labels.
func (r *Recorder) Labels() int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == EventLabel {
			n++
		}
	}
	return n
}

// Trace returns one line per recorded instruction, e.g. "ALOAD 0" or
// "INVOKESTATIC java/lang/Float.floatToIntBits(F)I".
func (r *Recorder) Trace() []string {
	var lines []string
	for _, e := range r.Events {
		if e.Kind == EventInsn {
			lines = append(lines, e.String())
		}
	}
	return lines
}
