package stack

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
)

// synthetic reports a fixed size without emitting anything.
type synthetic struct {
	size Size
}

func (synthetic) IsValid() bool { return true }

func (s synthetic) Apply(bytecode.Sink, *Context) Size { return s.size }

func randomOps(r *rand.Rand, n int) []Operation {
	ops := make([]Operation, n)
	for i := range ops {
		net := r.Intn(9) - 4
		ops[i] = synthetic{Size{Net: net, Max: max(net, 0) + r.Intn(4)}}
	}
	return ops
}

func measure(t *testing.T, op Operation) Size {
	t.Helper()
	size, err := SizeOf(op, nil, 100)
	if err != nil {
		t.Fatalf("SizeOf: %v", err)
	}
	return size
}

// ---------------------------------------------------------------------------
// Size arithmetic
// ---------------------------------------------------------------------------

func TestAggregate(t *testing.T) {
	got := Size{Net: 2, Max: 3}.Aggregate(Size{Net: -1, Max: 2})
	want := Size{Net: 1, Max: 4}
	if got != want {
		t.Errorf("Aggregate = %v, want %v", got, want)
	}
}

func TestCompositionMatchesAggregate(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a := randomOps(r, 1+r.Intn(6))
		b := randomOps(r, 1+r.Intn(6))

		sa := measure(t, Compose(a...))
		sb := measure(t, Compose(b...))
		sab := measure(t, Compose(Compose(a...), Compose(b...)))

		if sab.Net != sa.Net+sb.Net {
			t.Fatalf("net %d, want %d", sab.Net, sa.Net+sb.Net)
		}
		if want := max(sa.Max, sa.Net+sb.Max); sab.Max != want {
			t.Fatalf("max %d, want %d", sab.Max, want)
		}
	}
}

func TestCompositionIsAssociative(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a, b, c := randomOps(r, 3), randomOps(r, 2), randomOps(r, 4)
		left := measure(t, Compose(Compose(Compose(a...), Compose(b...)), Compose(c...)))
		right := measure(t, Compose(Compose(a...), Compose(Compose(b...), Compose(c...))))
		if left != right {
			t.Fatalf("left %v != right %v", left, right)
		}
	}
}

func TestStackSize(t *testing.T) {
	if got := SizeOfType(descriptor.Double).Increasing(); got != (Size{Net: 2, Max: 2}) {
		t.Errorf("double increasing = %v", got)
	}
	if got := SizeOfType(descriptor.Int).Decreasing(); got != (Size{Net: -1}) {
		t.Errorf("int decreasing = %v", got)
	}
	if got := SizeOfType(descriptor.Void); got != ZeroSlots {
		t.Errorf("void = %v", got)
	}
	if SingleSlot.Maximum(DoubleSlots) != DoubleSlots {
		t.Error("Maximum mismatch")
	}
}

// ---------------------------------------------------------------------------
// Validity
// ---------------------------------------------------------------------------

func TestInvalidPropagation(t *testing.T) {
	for pos := 0; pos < 4; pos++ {
		ops := []Operation{IntegerConstant(1), IntegerConstant(2), Add(descriptor.Int)}
		ops = append(ops[:pos], append([]Operation{Illegal{}}, ops[pos:]...)...)
		op := Compose(ops...)
		if op.IsValid() {
			t.Errorf("compound with illegal member at %d is valid", pos)
		}
		nested := Compose(Trivial{}, Compose(IntegerConstant(3), op))
		if nested.IsValid() {
			t.Errorf("nested compound with illegal member at %d is valid", pos)
		}
	}
	if !Compose().IsValid() {
		t.Error("empty compound should be valid")
	}
}

func TestApplyInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Compose(IntegerConstant(1), Illegal{}).Apply(bytecode.NewRecorder(), nil)
}

func TestSizeOfErrors(t *testing.T) {
	_, err := SizeOf(Illegal{}, nil, 0)
	if !errors.Is(err, failure.ErrInvalidOperation) {
		t.Errorf("err = %v, want invalid operation", err)
	}
	_, err = SizeOf(Remove(descriptor.Long), nil, 1)
	if !errors.Is(err, failure.ErrInvalidOperation) {
		t.Errorf("err = %v, want underflow failure", err)
	}
	if _, err := SizeOf(Remove(descriptor.Long), nil, 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSizeOfIntermediateUnderflow(t *testing.T) {
	dip := Compose(Remove(descriptor.Long), LongConstant(1))
	if _, err := SizeOf(dip, nil, 1); !errors.Is(err, failure.ErrInvalidOperation) {
		t.Errorf("err = %v, want underflow failure", err)
	}
	size, err := SizeOf(dip, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (Size{Net: 0, Max: 0}); size != want {
		t.Errorf("size = %v, want %v", size, want)
	}
}

func TestCompoundFlattens(t *testing.T) {
	op := Compose(IntegerConstant(1), Compose(Trivial{}, IntegerConstant(2)), nil)
	c, ok := op.(*Compound)
	if !ok {
		t.Fatalf("Compose returned %T", op)
	}
	if len(c.Operations()) != 2 {
		t.Errorf("operations = %d, want 2", len(c.Operations()))
	}
}

// ---------------------------------------------------------------------------
// Encodings
// ---------------------------------------------------------------------------

func trace(op Operation, ctx *Context) ([]string, Size) {
	r := bytecode.NewRecorder()
	size := op.Apply(r, ctx)
	return r.Trace(), size
}

func TestIntegerConstantEncoding(t *testing.T) {
	tests := []struct {
		v    int32
		want string
	}{
		{-1, "ICONST_M1"},
		{0, "ICONST_0"},
		{5, "ICONST_5"},
		{6, "BIPUSH 6"},
		{-128, "BIPUSH -128"},
		{31, "BIPUSH 31"},
		{1000, "SIPUSH 1000"},
		{100000, "LDC int 100000"},
	}
	for _, tt := range tests {
		got, size := trace(IntegerConstant(tt.v), nil)
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("IntegerConstant(%d) = %v, want %q", tt.v, got, tt.want)
		}
		if size != (Size{Net: 1, Max: 1}) {
			t.Errorf("IntegerConstant(%d) size = %v", tt.v, size)
		}
	}
}

func TestWideConstants(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{LongConstant(1), "LCONST_1"},
		{LongConstant(17), "LDC2_W long 17"},
		{FloatConstant(2), "FCONST_2"},
		{FloatConstant(0.5), "LDC float 0.5"},
		{DoubleConstant(0), "DCONST_0"},
		{DoubleConstant(3.25), "LDC2_W double 3.25"},
		{TextConstant("x"), `LDC "x"`},
		{NullConstant{}, "ACONST_NULL"},
		{ClassConstant{descriptor.Int}, "GETSTATIC java/lang/Integer.TYPE:Ljava/lang/Class;"},
		{ClassConstant{descriptor.String}, "LDC class java/lang/String"},
	}
	for _, tt := range tests {
		got, _ := trace(tt.op, nil)
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("%T = %v, want %q", tt.op, got, tt.want)
		}
	}
}

func TestNegativeZeroFloatUsesPool(t *testing.T) {
	negZero := float32(0)
	negZero = -negZero
	got, _ := trace(FloatConstant(negZero), nil)
	if got[0] == "FCONST_0" {
		t.Error("negative zero must not use FCONST_0")
	}
}

func TestFieldAccessSizes(t *testing.T) {
	owner := descriptor.NewClass("com.example.Point", descriptor.Public, nil)
	x := owner.AddField("x", descriptor.Long, descriptor.Private)
	count := owner.AddField("count", descriptor.Int, descriptor.Static)

	tests := []struct {
		op   Operation
		want Size
		insn string
	}{
		{ReadField(x), Size{Net: 1, Max: 1}, "GETFIELD com/example/Point.x:J"},
		{WriteField(x), Size{Net: -3}, "PUTFIELD com/example/Point.x:J"},
		{ReadField(count), Size{Net: 1, Max: 1}, "GETSTATIC com/example/Point.count:I"},
		{WriteField(count), Size{Net: -1}, "PUTSTATIC com/example/Point.count:I"},
	}
	for _, tt := range tests {
		got, size := trace(tt.op, nil)
		if got[0] != tt.insn {
			t.Errorf("insn = %q, want %q", got[0], tt.insn)
		}
		if size != tt.want {
			t.Errorf("%s size = %v, want %v", tt.insn, size, tt.want)
		}
	}
}

func TestInvocation(t *testing.T) {
	iface := descriptor.NewInterface("com.example.Greeter", descriptor.Public)
	greet := iface.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.Int)

	got, size := trace(Invoke(greet), nil)
	if got[0] != "INVOKEINTERFACE com/example/Greeter.greet(I)Ljava/lang/String;" {
		t.Errorf("insn = %q", got[0])
	}
	if size != (Size{Net: -1}) {
		t.Errorf("size = %v", size)
	}

	bits := descriptor.DoubleWrapper.MustMethod("doubleToLongBits", "(D)J")
	if _, size := trace(Invoke(bits), nil); size != (Size{}) {
		t.Errorf("doubleToLongBits size = %v", size)
	}

	abstract := iface.AddMethod("name", descriptor.Public|descriptor.Abstract, descriptor.String)
	if InvokeSpecial(abstract, iface).IsValid() {
		t.Error("special invocation of abstract method should be invalid")
	}
	hash := descriptor.Object.MustMethod("hashCode", "()I")
	if !InvokeSpecial(hash, descriptor.String).IsValid() {
		t.Error("special invocation of Object.hashCode through String should be valid")
	}
}

func TestArithmeticAndConversion(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want Size
	}{
		{"iadd", Add(descriptor.Int), Size{Net: -1}},
		{"dmul", Multiply(descriptor.Double), Size{Net: -2}},
		{"lxor", Xor(descriptor.Long), Size{Net: -2}},
		{"lushr", UnsignedShiftRight(descriptor.Long), Size{Net: -1}},
		{"i2l", Widen(descriptor.Int, descriptor.Long), Size{Net: 1, Max: 1}},
		{"l2i", Convert(descriptor.Long, descriptor.Int), Size{Net: -1}},
		{"f2d", Widen(descriptor.Float, descriptor.Double), Size{Net: 1, Max: 1}},
	}
	for _, tt := range tests {
		if !tt.op.IsValid() {
			t.Errorf("%s: invalid", tt.name)
			continue
		}
		if _, size := trace(tt.op, nil); size != tt.want {
			t.Errorf("%s: size = %v, want %v", tt.name, size, tt.want)
		}
	}

	illegal := []Operation{
		Xor(descriptor.Float),
		Add(descriptor.String),
		Widen(descriptor.Long, descriptor.Int),
		Widen(descriptor.Double, descriptor.Float),
		Widen(descriptor.Char, descriptor.Short),
		Widen(descriptor.Boolean, descriptor.Int),
	}
	for i, op := range illegal {
		if op.IsValid() {
			t.Errorf("illegal[%d] is valid", i)
		}
	}
	if _, ok := Widen(descriptor.Byte, descriptor.Int).(Trivial); !ok {
		t.Error("byte to int should be trivial")
	}
}

func TestLongFoldSize(t *testing.T) {
	fold := Compose(
		Duplicate(descriptor.Long),
		IntegerConstant(32),
		UnsignedShiftRight(descriptor.Long),
		Xor(descriptor.Long),
		Convert(descriptor.Long, descriptor.Int),
	)
	got, size := trace(fold, nil)
	want := []string{"DUP2", "BIPUSH 32", "LUSHR", "LXOR", "L2I"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fold mismatch (-want +got):\n%s", diff)
	}
	if size != (Size{Net: -1, Max: 3}) {
		t.Errorf("fold size = %v, want (net -1, max 3)", size)
	}
}

func TestVariableAccess(t *testing.T) {
	owner := descriptor.NewClass("com.example.Calc", descriptor.Public, nil)
	m := owner.AddMethod("mix", descriptor.Public, descriptor.Void, descriptor.Int, descriptor.Double, descriptor.String)

	got, size := trace(LoadArguments(m, true), nil)
	want := []string{"ALOAD 0", "ILOAD 1", "DLOAD 2", "ALOAD 4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("arguments mismatch (-want +got):\n%s", diff)
	}
	if size != (Size{Net: 5, Max: 5}) {
		t.Errorf("size = %v", size)
	}

	got, size = trace(Store(descriptor.Long, 3), nil)
	if got[0] != "LSTORE 3" || size != (Size{Net: -2}) {
		t.Errorf("store = %v %v", got, size)
	}
	if Load(descriptor.Void, 1).IsValid() {
		t.Error("void load should be invalid")
	}
}

func TestReturns(t *testing.T) {
	tests := []struct {
		typ  *descriptor.Type
		want string
	}{
		{descriptor.Void, "RETURN"},
		{descriptor.Boolean, "IRETURN"},
		{descriptor.Long, "LRETURN"},
		{descriptor.Float, "FRETURN"},
		{descriptor.Double, "DRETURN"},
		{descriptor.String, "ARETURN"},
		{descriptor.ArrayOf(descriptor.Int), "ARETURN"},
	}
	for _, tt := range tests {
		got, _ := trace(Return(tt.typ), nil)
		if got[0] != tt.want {
			t.Errorf("Return(%s) = %q, want %q", tt.typ, got[0], tt.want)
		}
	}
}

func TestConditionalReturn(t *testing.T) {
	ctx := &Context{Version: bytecode.V8}
	r := bytecode.NewRecorder()
	size := ReturnUnlessIntegerEqual().Apply(r, ctx)
	if size != (Size{Net: -2}) {
		t.Errorf("size = %v, want (net -2, max 0)", size)
	}
	want := []bytecode.Opcode{bytecode.OpIfICmpEq, bytecode.OpIConst0, bytecode.OpIReturn}
	if diff := cmp.Diff(want, r.Opcodes()); diff != "" {
		t.Errorf("opcodes mismatch (-want +got):\n%s", diff)
	}
	if len(r.Frames()) != 1 {
		t.Errorf("frames = %d, want 1", len(r.Frames()))
	}

	old := bytecode.NewRecorder()
	ReturnOnNonZero().ReturningTrue().Apply(old, &Context{Version: bytecode.V5})
	if len(old.Frames()) != 0 {
		t.Error("V5 should not emit frames")
	}
	if old.Opcodes()[1] != bytecode.OpIConst1 {
		t.Error("ReturningTrue should push 1")
	}
}

func TestBuilderAcceptsOperations(t *testing.T) {
	b := bytecode.NewBuilder()
	op := Compose(
		LoadThis(),
		ReturnOnNull(),
		IntegerConstant(1),
		Return(descriptor.Int),
	)
	op.Apply(b, &Context{Version: bytecode.V8})
	code, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(code.Frames) != 1 {
		t.Errorf("frames = %d, want 1", len(code.Frames))
	}
}

func TestTypeOperations(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
		size Size
	}{
		{TypeCreation{Type: descriptor.StringBuilder}, "NEW java/lang/StringBuilder", Size{Net: 1, Max: 1}},
		{TypeCasting{Type: descriptor.String}, "CHECKCAST java/lang/String", Size{}},
		{InstanceCheck{Type: descriptor.CharSequence}, "INSTANCEOF java/lang/CharSequence", Size{}},
	}
	for _, tt := range tests {
		got, size := trace(tt.op, nil)
		if diff := cmp.Diff([]string{tt.want}, got); diff != "" {
			t.Errorf("trace mismatch (-want +got):\n%s", diff)
		}
		if size != tt.size {
			t.Errorf("%s: size = %v, want %v", tt.want, size, tt.size)
		}
	}

	for _, op := range []Operation{
		TypeCreation{Type: descriptor.CharSequence},
		TypeCasting{Type: descriptor.Int},
		InstanceCheck{Type: descriptor.Long},
	} {
		if op.IsValid() {
			t.Errorf("%#v should be invalid", op)
		}
	}
}
