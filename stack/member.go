package stack

import (
	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
)

// ---------------------------------------------------------------------------
// Field access
// ---------------------------------------------------------------------------

// FieldAccess reads or writes a field. Instance access expects the receiver
// below the value on the stack.
type FieldAccess struct {
	Field *descriptor.Field
	Write bool
}

// ReadField returns an operation reading f.
func ReadField(f *descriptor.Field) FieldAccess {
	return FieldAccess{Field: f}
}

// WriteField returns an operation writing f.
func WriteField(f *descriptor.Field) FieldAccess {
	return FieldAccess{Field: f, Write: true}
}

func (a FieldAccess) IsValid() bool {
	return a.Field != nil && !a.Field.Type.IsVoid()
}

func (a FieldAccess) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(a)
	f := a.Field
	width := f.Type.Width()
	receiver := 1
	if f.IsStatic() {
		receiver = 0
	}

	var op bytecode.Opcode
	var net int
	switch {
	case a.Write && f.IsStatic():
		op, net = bytecode.OpPutStatic, -width
	case a.Write:
		op, net = bytecode.OpPutField, -width-receiver
	case f.IsStatic():
		op, net = bytecode.OpGetStatic, width
	default:
		op, net = bytecode.OpGetField, width-receiver
	}
	sink.FieldInsn(op, f.Declaring.InternalName(), f.Name, f.Type.Descriptor())
	return effect(net)
}

// ---------------------------------------------------------------------------
// Invocation
// ---------------------------------------------------------------------------

// Invocation calls a method on an owner type with a fixed invocation
// instruction.
type Invocation struct {
	Method *descriptor.Method
	Owner  *descriptor.Type
	Op     bytecode.Opcode
	valid  bool
}

// Invoke returns the natural invocation of m on its declaring type: static,
// special for constructors and private methods, interface or virtual
// otherwise.
func Invoke(m *descriptor.Method) Invocation {
	var op bytecode.Opcode
	switch {
	case m.IsStatic():
		op = bytecode.OpInvokeStatic
	case m.IsConstructor() || m.IsPrivate():
		op = bytecode.OpInvokeSpecial
	case m.Declaring.IsInterface():
		op = bytecode.OpInvokeInterface
	default:
		op = bytecode.OpInvokeVirtual
	}
	return Invocation{Method: m, Owner: m.Declaring, Op: op, valid: true}
}

// InvokeSpecial returns a non-virtual invocation of m through owner, as
// used for super and default method calls. It is invalid for abstract or
// static methods.
func InvokeSpecial(m *descriptor.Method, owner *descriptor.Type) Invocation {
	valid := !m.IsAbstract() && !m.IsStatic() && owner.IsAssignableTo(m.Declaring)
	return Invocation{Method: m, Owner: owner, Op: bytecode.OpInvokeSpecial, valid: valid}
}

// InvokeVirtual returns a virtual invocation of m on a receiver of type
// owner. Interface owners use the interface instruction.
func InvokeVirtual(m *descriptor.Method, owner *descriptor.Type) Invocation {
	op := bytecode.OpInvokeVirtual
	if owner.IsInterface() {
		op = bytecode.OpInvokeInterface
	}
	valid := !m.IsStatic() && !m.IsPrivate() && !m.IsConstructor() && owner.IsAssignableTo(m.Declaring)
	return Invocation{Method: m, Owner: owner, Op: op, valid: valid}
}

func (i Invocation) IsValid() bool {
	return i.valid && i.Method != nil
}

func (i Invocation) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(i)
	m := i.Method
	onInterface := i.Owner.IsInterface()
	sink.MethodInsn(i.Op, i.Owner.InternalName(), m.Name, m.Descriptor(), onInterface)
	net := m.Return.Width() - m.StackSize()
	return effect(net)
}

// ---------------------------------------------------------------------------
// Type creation and casting
// ---------------------------------------------------------------------------

// TypeCreation allocates an uninitialized instance of a class.
type TypeCreation struct {
	Type *descriptor.Type
}

func (c TypeCreation) IsValid() bool {
	t := c.Type
	return t != nil && t.Sort == descriptor.SortReference && !t.IsInterface() && !t.Modifiers.IsAbstract()
}

func (c TypeCreation) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(c)
	sink.TypeInsn(bytecode.OpNew, c.Type.InternalName())
	return SingleSlot.Increasing()
}

// TypeCasting checks the reference on top of the stack against a type.
type TypeCasting struct {
	Type *descriptor.Type
}

func (c TypeCasting) IsValid() bool {
	return c.Type != nil && !c.Type.IsPrimitive()
}

func (c TypeCasting) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(c)
	sink.TypeInsn(bytecode.OpCheckCast, c.Type.InternalName())
	return Zero
}

// InstanceCheck replaces the reference on top of the stack with 1 if it is
// an instance of Type and 0 otherwise.
type InstanceCheck struct {
	Type *descriptor.Type
}

func (c InstanceCheck) IsValid() bool {
	return c.Type != nil && !c.Type.IsPrimitive()
}

func (c InstanceCheck) Apply(sink bytecode.Sink, _ *Context) Size {
	mustBeValid(c)
	sink.TypeInsn(bytecode.OpInstanceOf, c.Type.InternalName())
	return Zero
}
