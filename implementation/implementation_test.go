package implementation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/methodgen/assign"
	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/failure"
)

const appendString = "INVOKEVIRTUAL java/lang/StringBuilder.append(Ljava/lang/String;)Ljava/lang/StringBuilder;"

func point() *descriptor.Type {
	p := descriptor.NewClass("com.example.Point", descriptor.Public, nil)
	p.AddField("x", descriptor.Int, descriptor.Private)
	p.AddField("label", descriptor.String, descriptor.Private)
	p.AddField("COUNT", descriptor.Int, descriptor.Private|descriptor.Static)
	return p
}

func synthesize(t *testing.T, impl Implementation, typ *descriptor.Type, m *descriptor.Method, version bytecode.Version) (*bytecode.Recorder, MethodSize) {
	t.Helper()
	target := NewTarget(typ, version)
	a, err := impl.Appender(target, m)
	if err != nil {
		t.Fatalf("Appender: %v", err)
	}
	r := bytecode.NewRecorder()
	size := a.Apply(r, target.Context)
	return r, size
}

func appenderError(impl Implementation, typ *descriptor.Type, m *descriptor.Method) error {
	_, err := impl.Appender(NewTarget(typ, bytecode.V8), m)
	return err
}

func diffTrace(t *testing.T, want []string, r *bytecode.Recorder) {
	t.Helper()
	if diff := cmp.Diff(want, r.Trace()); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Hash code
// ---------------------------------------------------------------------------

func TestHashCode(t *testing.T) {
	p := point()
	m := p.AddMethod("hashCode", descriptor.Public, descriptor.Int)
	r, size := synthesize(t, NewHashCode(), p, m, bytecode.V8)
	diffTrace(t, []string{
		"BIPUSH 17",
		"BIPUSH 31",
		"IMUL",
		"ALOAD 0",
		"GETFIELD com/example/Point.x:I",
		"IADD",
		"BIPUSH 31",
		"IMUL",
		"ALOAD 0",
		"GETFIELD com/example/Point.label:Ljava/lang/String;",
		"ASTORE 1",
		"ALOAD 1",
		"IFNULL nullLabel",
		"ALOAD 1",
		"INVOKEVIRTUAL java/lang/String.hashCode()I",
		"IADD",
		"IRETURN",
	}, r)
	if size != (MethodSize{Stack: 2, Locals: 2}) {
		t.Errorf("size = %+v", size)
	}
	wantFrames := []bytecode.Frame{{Kind: bytecode.FrameSame1, Stack: []string{"I"}}}
	if diff := cmp.Diff(wantFrames, r.Frames()); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestHashCodeFieldHandling(t *testing.T) {
	p := point()
	m := p.AddMethod("hashCode", descriptor.Public, descriptor.Int)

	r, size := synthesize(t, NewHashCode().WithNonNullableFields(Named("label")), p, m, bytecode.V8)
	if strings.Contains(strings.Join(r.Trace(), "\n"), "ASTORE") {
		t.Errorf("non-nullable field is guarded: %v", r.Trace())
	}
	if size.Locals != 1 {
		t.Errorf("locals = %d, want 1", size.Locals)
	}

	r, _ = synthesize(t, NewHashCode().WithIdentityFields(Named("label", "x")), p, m, bytecode.V8)
	trace := strings.Join(r.Trace(), "\n")
	if strings.Count(trace, "System.identityHashCode") != 1 {
		t.Errorf("identity hashing applies to reference fields only:\n%s", trace)
	}

	r, _ = synthesize(t, NewHashCode().WithIgnoredFields(Named("x", "label")), p, m, bytecode.V8)
	diffTrace(t, []string{"BIPUSH 17", "IRETURN"}, r)
}

func TestHashCodeOffsets(t *testing.T) {
	p := point()
	m := p.AddMethod("hashCode", descriptor.Public, descriptor.Int)
	ignoreAll := Named("x", "label")
	tests := []struct {
		name   string
		offset OffsetProvider
		want   []string
	}{
		{"fixed", FixedOffset(3), []string{"ICONST_3"}},
		{"super", SuperOffset{}, []string{"ALOAD 0", "INVOKESPECIAL java/lang/Object.hashCode()I"}},
		{"dynamic type", TypeHashOffset{Dynamic: true}, []string{
			"ALOAD 0",
			"INVOKEVIRTUAL com/example/Point.getClass()Ljava/lang/Class;",
			"INVOKEVIRTUAL java/lang/Class.hashCode()I",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impl := HashCodeUsingOffset(tt.offset).WithIgnoredFields(ignoreAll)
			r, _ := synthesize(t, impl, p, m, bytecode.V8)
			diffTrace(t, append(tt.want, "IRETURN"), r)
		})
	}

	impl := HashCodeUsingOffset(TypeHashOffset{}).WithIgnoredFields(ignoreAll)
	r, _ := synthesize(t, impl, p, m, bytecode.V8)
	want := []bytecode.Opcode{bytecode.OpLdc, bytecode.OpInvokeVirtual, bytecode.OpIReturn}
	if diff := cmp.Diff(want, r.Opcodes()); diff != "" {
		t.Errorf("static type hash mismatch (-want +got):\n%s", diff)
	}
}

func TestHashCodeMultiplier(t *testing.T) {
	if _, err := NewHashCode().WithMultiplier(0); err == nil {
		t.Error("zero multiplier accepted")
	}
	h, err := NewHashCode().WithMultiplier(7)
	if err != nil {
		t.Fatal(err)
	}
	p := point()
	m := p.AddMethod("hashCode", descriptor.Public, descriptor.Int)
	r, _ := synthesize(t, h.WithIgnoredFields(Named("label")), p, m, bytecode.V8)
	if r.Trace()[1] != "BIPUSH 7" {
		t.Errorf("trace = %v", r.Trace())
	}
}

func TestHashCodeMisuse(t *testing.T) {
	p := point()
	iface := descriptor.NewInterface("com.example.Shape", descriptor.Public)
	tests := []struct {
		name string
		typ  *descriptor.Type
		m    *descriptor.Method
	}{
		{"interface", iface, iface.AddMethod("hashCode", descriptor.Public, descriptor.Int)},
		{"static", p, p.AddMethod("hash", descriptor.Public|descriptor.Static, descriptor.Int)},
		{"long return", p, p.AddMethod("longHash", descriptor.Public, descriptor.Long)},
	}
	for _, tt := range tests {
		err := appenderError(NewHashCode(), tt.typ, tt.m)
		if !errors.Is(err, failure.ErrStructuralMisuse) {
			t.Errorf("%s: err = %v, want misuse", tt.name, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Equals
// ---------------------------------------------------------------------------

func TestEquals(t *testing.T) {
	p := point()
	m := p.AddMethod("equals", descriptor.Public, descriptor.Boolean, descriptor.Object)
	r, size := synthesize(t, NewEquals(), p, m, bytecode.V8)

	want := []bytecode.Opcode{
		// identity
		bytecode.OpALoad, bytecode.OpALoad, bytecode.OpIfACmpNe, bytecode.OpIConst1, bytecode.OpIReturn,
		// null and exact class
		bytecode.OpALoad, bytecode.OpIfNonNull, bytecode.OpIConst0, bytecode.OpIReturn,
		bytecode.OpALoad, bytecode.OpInvokeVirtual, bytecode.OpALoad, bytecode.OpInvokeVirtual,
		bytecode.OpIfACmpEq, bytecode.OpIConst0, bytecode.OpIReturn,
		// x
		bytecode.OpALoad, bytecode.OpGetField, bytecode.OpALoad, bytecode.OpCheckCast, bytecode.OpGetField,
		bytecode.OpIfICmpEq, bytecode.OpIConst0, bytecode.OpIReturn,
		// label
		bytecode.OpALoad, bytecode.OpGetField, bytecode.OpALoad, bytecode.OpCheckCast, bytecode.OpGetField,
		bytecode.OpAStore, bytecode.OpAStore, bytecode.OpALoad, bytecode.OpALoad,
		bytecode.OpIfNull, bytecode.OpIfNull, bytecode.OpALoad, bytecode.OpALoad,
		bytecode.OpInvokeVirtual, bytecode.OpIfNe, bytecode.OpIConst0, bytecode.OpIReturn,
		bytecode.OpGoto, bytecode.OpIfNull, bytecode.OpIConst0, bytecode.OpIReturn,
		// result
		bytecode.OpIConst1, bytecode.OpIReturn,
	}
	if diff := cmp.Diff(want, r.Opcodes()); diff != "" {
		t.Errorf("opcodes mismatch (-want +got):\n%s", diff)
	}
	if size != (MethodSize{Stack: 2, Locals: 4}) {
		t.Errorf("size = %+v", size)
	}
	if n := len(r.Frames()); n != 8 {
		t.Errorf("frames = %d, want 8", n)
	}

	r, _ = synthesize(t, NewEquals(), p, m, bytecode.V5)
	if n := len(r.Frames()); n != 0 {
		t.Errorf("frames below version 6 = %d", n)
	}
}

func TestEqualsSuperAndSubclass(t *testing.T) {
	p := point()
	m := p.AddMethod("equals", descriptor.Public, descriptor.Boolean, descriptor.Object)
	impl := RequiringSuperEquality().WithSubclassEquality().WithIgnoredFields(Named("x", "label"))
	r, _ := synthesize(t, impl, p, m, bytecode.V8)
	trace := r.Trace()
	want := []string{"ALOAD 0", "ALOAD 1", "INVOKESPECIAL java/lang/Object.equals(Ljava/lang/Object;)Z"}
	if diff := cmp.Diff(want, trace[:3]); diff != "" {
		t.Errorf("super check mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(strings.Join(trace, "\n"), "INSTANCEOF com/example/Point") {
		t.Errorf("no subclass check in %v", trace)
	}
	if strings.Contains(strings.Join(trace, "\n"), "getClass") {
		t.Errorf("subclass equality compares classes: %v", trace)
	}
}

func TestEqualsFieldOrder(t *testing.T) {
	color := descriptor.NewClass("com.example.Color", descriptor.Public|descriptor.Enum|descriptor.Final, descriptor.EnumBase)
	c := descriptor.NewClass("com.example.Item", descriptor.Public, nil)
	c.AddField("note", descriptor.Object, descriptor.Private)
	c.AddField("name", descriptor.String, descriptor.Private)
	c.AddField("count", descriptor.IntegerWrapper, descriptor.Private)
	c.AddField("color", color, descriptor.Private)
	c.AddField("weight", descriptor.Double, descriptor.Private)
	m := c.AddMethod("equals", descriptor.Public, descriptor.Boolean, descriptor.Object)

	fieldOrder := func(r *bytecode.Recorder) []string {
		var names []string
		for i, line := range r.Trace() {
			// each field is read twice; keep the first read
			if strings.HasPrefix(line, "GETFIELD") && r.Trace()[i-1] == "ALOAD 0" {
				name := strings.TrimPrefix(line, "GETFIELD com/example/Item.")
				names = append(names, name[:strings.IndexByte(name, ':')])
			}
		}
		return names
	}
	tests := []struct {
		name string
		impl Equals
		want []string
	}{
		{"declaration", NewEquals(), []string{"note", "name", "count", "color", "weight"}},
		{"primitives", NewEquals().WithPrimitiveFieldsFirst(), []string{"weight", "note", "name", "count", "color"}},
		{"enums", NewEquals().WithEnumFieldsFirst(), []string{"color", "note", "name", "count", "weight"}},
		{"strings then wrappers", NewEquals().WithStringFieldsFirst().WithPrimitiveWrapperFieldsFirst(),
			[]string{"name", "count", "note", "color", "weight"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := synthesize(t, tt.impl, c, m, bytecode.V8)
			if diff := cmp.Diff(tt.want, fieldOrder(r)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEqualsMisuse(t *testing.T) {
	p := point()
	tests := []struct {
		name string
		m    *descriptor.Method
	}{
		{"no parameter", p.AddMethod("equals", descriptor.Public, descriptor.Boolean)},
		{"primitive parameter", p.AddMethod("equals", descriptor.Public, descriptor.Boolean, descriptor.Int)},
		{"int return", p.AddMethod("equals", descriptor.Public, descriptor.Int, descriptor.Object)},
		{"static", p.AddMethod("same", descriptor.Public|descriptor.Static, descriptor.Boolean, descriptor.Object)},
	}
	for _, tt := range tests {
		if err := appenderError(NewEquals(), p, tt.m); !errors.Is(err, failure.ErrStructuralMisuse) {
			t.Errorf("%s: err = %v, want misuse", tt.name, err)
		}
	}
}

// ---------------------------------------------------------------------------
// toString
// ---------------------------------------------------------------------------

func TestToString(t *testing.T) {
	p := point()
	m := p.AddMethod("toString", descriptor.Public, descriptor.String)
	r, size := synthesize(t, NewToString(SimpleName), p, m, bytecode.V8)
	diffTrace(t, []string{
		"NEW java/lang/StringBuilder",
		"DUP",
		`LDC "Point"`,
		"INVOKESPECIAL java/lang/StringBuilder.<init>(Ljava/lang/String;)V",
		`LDC "{"`,
		appendString,
		`LDC "x="`,
		appendString,
		"ALOAD 0",
		"GETFIELD com/example/Point.x:I",
		"INVOKEVIRTUAL java/lang/StringBuilder.append(I)Ljava/lang/StringBuilder;",
		`LDC ", "`,
		appendString,
		`LDC "label="`,
		appendString,
		"ALOAD 0",
		"GETFIELD com/example/Point.label:Ljava/lang/String;",
		appendString,
		`LDC "}"`,
		appendString,
		"INVOKEVIRTUAL java/lang/StringBuilder.toString()Ljava/lang/String;",
		"ARETURN",
	}, r)
	if size != (MethodSize{Stack: 3, Locals: 1}) {
		t.Errorf("size = %+v", size)
	}
}

func TestToStringPrefixesAndTokens(t *testing.T) {
	nested := descriptor.NewClass("com.example.Outer$Inner", descriptor.Public, nil)
	m := nested.AddMethod("toString", descriptor.Public, descriptor.CharSequence)
	tests := []struct {
		prefix PrefixResolver
		want   string
	}{
		{FullyQualifiedName, `LDC "com.example.Outer$Inner"`},
		{CanonicalName, `LDC "com.example.Outer.Inner"`},
		{SimpleName, `LDC "Inner"`},
		{FixedPrefix("Thing"), `LDC "Thing"`},
	}
	for _, tt := range tests {
		r, _ := synthesize(t, NewToString(tt.prefix).WithTokens("[", "]", "; ", ": "), nested, m, bytecode.V8)
		trace := r.Trace()
		if trace[2] != tt.want {
			t.Errorf("prefix = %s, want %s", trace[2], tt.want)
		}
		if trace[4] != `LDC "["` || trace[6] != `LDC "]"` {
			t.Errorf("tokens not used: %v", trace)
		}
	}
}

func TestToStringMisuse(t *testing.T) {
	p := point()
	m := p.AddMethod("toString", descriptor.Public, descriptor.Int)
	if err := appenderError(NewToString(SimpleName), p, m); !errors.Is(err, failure.ErrStructuralMisuse) {
		t.Errorf("err = %v, want misuse", err)
	}
}

// ---------------------------------------------------------------------------
// Field accessors
// ---------------------------------------------------------------------------

func TestFieldAccessor(t *testing.T) {
	p := point()
	tests := []struct {
		name string
		impl FieldAccessor
		m    *descriptor.Method
		want []string
	}{
		{"getter", OfBeanProperty(), p.AddMethod("getLabel", descriptor.Public, descriptor.String),
			[]string{"ALOAD 0", "GETFIELD com/example/Point.label:Ljava/lang/String;", "ARETURN"}},
		{"widening getter", OfField("x"), p.AddMethod("wideX", descriptor.Public, descriptor.Long),
			[]string{"ALOAD 0", "GETFIELD com/example/Point.x:I", "I2L", "LRETURN"}},
		{"setter", OfBeanProperty(), p.AddMethod("setX", descriptor.Public, descriptor.Void, descriptor.Int),
			[]string{"ALOAD 0", "ILOAD 1", "PUTFIELD com/example/Point.x:I", "RETURN"}},
		{"static getter", OfField("COUNT"), p.AddMethod("count", descriptor.Public|descriptor.Static, descriptor.Int),
			[]string{"GETSTATIC com/example/Point.COUNT:I", "IRETURN"}},
		{"dynamic setter", OfField("label").WithTyping(assign.Dynamic),
			p.AddMethod("setLabel", descriptor.Public, descriptor.Void, descriptor.Object),
			[]string{"ALOAD 0", "ALOAD 1", "CHECKCAST java/lang/String", "PUTFIELD com/example/Point.label:Ljava/lang/String;", "RETURN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := synthesize(t, tt.impl, p, tt.m, bytecode.V8)
			diffTrace(t, tt.want, r)
		})
	}
}

func TestFieldAccessorInheritedField(t *testing.T) {
	base := descriptor.NewClass("com.example.Base", descriptor.Public, nil)
	base.AddField("id", descriptor.Long, descriptor.Protected)
	sub := descriptor.NewClass("com.example.Sub", descriptor.Public, base)
	m := sub.AddMethod("getId", descriptor.Public, descriptor.Long)
	r, size := synthesize(t, OfBeanProperty(), sub, m, bytecode.V8)
	diffTrace(t, []string{"ALOAD 0", "GETFIELD com/example/Base.id:J", "LRETURN"}, r)
	if size != (MethodSize{Stack: 2, Locals: 1}) {
		t.Errorf("size = %+v", size)
	}
}

func TestFieldAccessorFailures(t *testing.T) {
	p := point()
	p.AddField("origin", descriptor.String, descriptor.Private|descriptor.Final)
	tests := []struct {
		name string
		impl FieldAccessor
		m    *descriptor.Method
		kind failure.Kind
	}{
		{"missing field", OfBeanProperty(), p.AddMethod("getZ", descriptor.Public, descriptor.Int), failure.StructuralMisuse},
		{"not a property", OfBeanProperty(), p.AddMethod("compute", descriptor.Public, descriptor.Int), failure.StructuralMisuse},
		{"instance field from static", OfField("x"), p.AddMethod("staticX", descriptor.Public|descriptor.Static, descriptor.Int), failure.StructuralMisuse},
		{"final setter", OfBeanProperty(), p.AddMethod("setOrigin", descriptor.Public, descriptor.Void, descriptor.String), failure.StructuralMisuse},
		{"setter returning value", OfBeanProperty(), p.AddMethod("setX", descriptor.Public, descriptor.Int, descriptor.Int), failure.StructuralMisuse},
		{"two parameters", OfField("x"), p.AddMethod("put", descriptor.Public, descriptor.Void, descriptor.Int, descriptor.Int), failure.StructuralMisuse},
		{"narrowing getter", OfField("x"), p.AddMethod("shortX", descriptor.Public, descriptor.Short), failure.InvalidOperation},
	}
	for _, tt := range tests {
		err := appenderError(tt.impl, p, tt.m)
		if got := failure.KindOf(err); got != tt.kind {
			t.Errorf("%s: kind = %s (%v), want %s", tt.name, got, err, tt.kind)
		}
	}
}

// ---------------------------------------------------------------------------
// Fixed values
// ---------------------------------------------------------------------------

func TestFixedValue(t *testing.T) {
	p := point()
	text, _ := Value("hi")
	long, _ := Value(int64(1))
	boxed, _ := Value(42)
	null, _ := Value(nil)
	tests := []struct {
		name string
		impl FixedValue
		m    *descriptor.Method
		want []string
	}{
		{"string", text, p.AddMethod("text", descriptor.Public, descriptor.String), []string{`LDC "hi"`, "ARETURN"}},
		{"long", long, p.AddMethod("one", descriptor.Public, descriptor.Long), []string{"LCONST_1", "LRETURN"}},
		{"boxed", boxed, p.AddMethod("answer", descriptor.Public, descriptor.Object),
			[]string{"BIPUSH 42", "INVOKESTATIC java/lang/Integer.valueOf(I)Ljava/lang/Integer;", "ARETURN"}},
		{"null", null, p.AddMethod("nothing", descriptor.Public, descriptor.String), []string{"ACONST_NULL", "ARETURN"}},
		{"self", Self(), p.AddMethod("self", descriptor.Public, descriptor.Object), []string{"ALOAD 0", "ARETURN"}},
		{"argument", Argument(1), p.AddMethod("second", descriptor.Public, descriptor.Long, descriptor.String, descriptor.Int),
			[]string{"ILOAD 2", "I2L", "LRETURN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := synthesize(t, tt.impl, p, tt.m, bytecode.V8)
			diffTrace(t, tt.want, r)
		})
	}
}

func TestFixedValueFailures(t *testing.T) {
	if _, err := Value(struct{}{}); err == nil {
		t.Error("unsupported value accepted")
	}
	if _, err := Value(1 << 40); err == nil {
		t.Error("overflowing int accepted")
	}

	p := point()
	null, _ := Value(nil)
	text, _ := Value("hi")
	tests := []struct {
		name string
		impl FixedValue
		m    *descriptor.Method
		kind failure.Kind
	}{
		{"void", text, p.AddMethod("run", descriptor.Public, descriptor.Void), failure.StructuralMisuse},
		{"static self", Self(), p.AddMethod("make", descriptor.Public|descriptor.Static, descriptor.Object), failure.StructuralMisuse},
		{"missing argument", Argument(1), p.AddMethod("first", descriptor.Public, descriptor.Int, descriptor.Int), failure.StructuralMisuse},
		{"null primitive", null, p.AddMethod("zero", descriptor.Public, descriptor.Int), failure.InvalidOperation},
		{"string as int", text, p.AddMethod("number", descriptor.Public, descriptor.Int), failure.InvalidOperation},
	}
	for _, tt := range tests {
		err := appenderError(tt.impl, p, tt.m)
		if got := failure.KindOf(err); got != tt.kind {
			t.Errorf("%s: kind = %s (%v), want %s", tt.name, got, err, tt.kind)
		}
	}
}

// ---------------------------------------------------------------------------
// Invocations
// ---------------------------------------------------------------------------

func greeters() (base, a, b *descriptor.Type) {
	base = descriptor.NewClass("com.example.Base", descriptor.Public, nil)
	base.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)
	a = descriptor.NewInterface("com.example.A", descriptor.Public)
	a.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)
	b = descriptor.NewInterface("com.example.B", descriptor.Public)
	b.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)
	return base, a, b
}

func TestSuperMethodCall(t *testing.T) {
	base, a, _ := greeters()
	child := descriptor.NewClass("com.example.Child", descriptor.Public, base, a)
	m := child.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)
	r, size := synthesize(t, SuperMethodCall{}, child, m, bytecode.V8)
	diffTrace(t, []string{
		"ALOAD 0",
		"ALOAD 1",
		"INVOKESPECIAL com/example/Base.greet(Ljava/lang/String;)Ljava/lang/String;",
		"ARETURN",
	}, r)
	if size != (MethodSize{Stack: 2, Locals: 2}) {
		t.Errorf("size = %+v", size)
	}

	orphan := descriptor.NewClass("com.example.Orphan", descriptor.Public, nil, a)
	m = orphan.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)
	r, _ = synthesize(t, SuperMethodCall{}, orphan, m, bytecode.V8)
	if got := r.Trace()[2]; got != "INVOKESPECIAL com/example/A.greet(Ljava/lang/String;)Ljava/lang/String;" {
		t.Errorf("default fallback = %s", got)
	}

	lonely := descriptor.NewClass("com.example.Lonely", descriptor.Public, nil)
	m = lonely.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)
	if err := appenderError(SuperMethodCall{}, lonely, m); !errors.Is(err, failure.ErrNoDispatchCandidate) {
		t.Errorf("err = %v, want no candidate", err)
	}
}

func TestDefaultMethodCall(t *testing.T) {
	_, a, b := greeters()
	impl := descriptor.NewClass("com.example.Impl", descriptor.Public, nil, a, b)
	m := impl.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)

	r, _ := synthesize(t, Prioritize(b), impl, m, bytecode.V8)
	if got := r.Trace()[2]; got != "INVOKESPECIAL com/example/B.greet(Ljava/lang/String;)Ljava/lang/String;" {
		t.Errorf("prioritized call = %s", got)
	}

	err := appenderError(UnambiguousOnly(), impl, m)
	if failure.KindOf(err) != failure.AmbiguousDispatchCandidate {
		t.Errorf("err = %v, want ambiguity", err)
	}

	_, err = Prioritize(b).Appender(NewTarget(impl, bytecode.V7), m)
	if !errors.Is(err, failure.ErrNoDispatchCandidate) {
		t.Errorf("version 7 err = %v", err)
	}
}

func TestDispatchFailuresNameMethod(t *testing.T) {
	_, a, b := greeters()
	impl := descriptor.NewClass("com.example.Impl", descriptor.Public, nil, a, b)
	greet := impl.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)
	lonely := descriptor.NewClass("com.example.Lonely", descriptor.Public, nil)
	alone := lonely.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)

	shape := descriptor.NewClass("com.example.Shape", descriptor.Public|descriptor.Abstract, nil)
	shape.AddMethod("hashCode", descriptor.Public|descriptor.Abstract, descriptor.Int)
	shape.AddMethod("equals", descriptor.Public|descriptor.Abstract, descriptor.Boolean, descriptor.Object)
	square := descriptor.NewClass("com.example.Square", descriptor.Public, shape)
	hash := square.AddMethod("hashCode", descriptor.Public, descriptor.Int)
	equals := square.AddMethod("equals", descriptor.Public, descriptor.Boolean, descriptor.Object)

	tests := []struct {
		name   string
		impl   Implementation
		typ    *descriptor.Type
		method *descriptor.Method
		kind   failure.Kind
	}{
		{"ambiguous default", UnambiguousOnly(), impl, greet, failure.AmbiguousDispatchCandidate},
		{"ambiguous dominant", SuperMethodCall{}, impl, greet, failure.AmbiguousDispatchCandidate},
		{"missing super", SuperMethodCall{}, lonely, alone, failure.NoDispatchCandidate},
		{"missing default", UnambiguousOnly(), lonely, alone, failure.NoDispatchCandidate},
		{"abstract super hash", HashCodeUsingOffset(SuperOffset{}), square, hash, failure.NoDispatchCandidate},
		{"abstract super equals", RequiringSuperEquality(), square, equals, failure.NoDispatchCandidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := appenderError(tt.impl, tt.typ, tt.method)
			var fe *failure.Error
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want a failure", err)
			}
			if fe.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", fe.Kind, tt.kind)
			}
			if fe.Method != tt.method {
				t.Errorf("method = %v, want %v", fe.Method, tt.method)
			}
			if !strings.Contains(err.Error(), tt.method.String()) {
				t.Errorf("message %q does not name %s", err, tt.method)
			}
		})
	}
}

func TestForwarding(t *testing.T) {
	greeter := descriptor.NewInterface("com.example.Greeter", descriptor.Public)
	greet := greeter.AddMethod("greet", descriptor.Public|descriptor.Abstract, descriptor.String, descriptor.String)
	proxy := descriptor.NewClass("com.example.Proxy", descriptor.Public, nil, greeter)
	proxy.AddField("delegate", greeter, descriptor.Private)
	proxy.AddField("count", descriptor.Int, descriptor.Private)

	r, _ := synthesize(t, ForwardTo("delegate"), proxy, greet, bytecode.V8)
	diffTrace(t, []string{
		"ALOAD 0",
		"GETFIELD com/example/Proxy.delegate:Lcom/example/Greeter;",
		"ALOAD 1",
		"INVOKEINTERFACE com/example/Greeter.greet(Ljava/lang/String;)Ljava/lang/String;",
		"ARETURN",
	}, r)

	for _, name := range []string{"count", "missing"} {
		if err := appenderError(ForwardTo(name), proxy, greet); !errors.Is(err, failure.ErrStructuralMisuse) {
			t.Errorf("%s: err = %v, want misuse", name, err)
		}
	}
}

func TestAndThen(t *testing.T) {
	base, _, _ := greeters()
	child := descriptor.NewClass("com.example.Child", descriptor.Public, base)
	m := child.AddMethod("greet", descriptor.Public, descriptor.String, descriptor.String)
	text, _ := Value("done")

	r, _ := synthesize(t, AndThen(SuperMethodCall{}, text), child, m, bytecode.V8)
	diffTrace(t, []string{
		"ALOAD 0",
		"ALOAD 1",
		"INVOKESPECIAL com/example/Base.greet(Ljava/lang/String;)Ljava/lang/String;",
		"POP",
		`LDC "done"`,
		"ARETURN",
	}, r)

	if err := appenderError(AndThen(text, SuperMethodCall{}), child, m); !errors.Is(err, failure.ErrStructuralMisuse) {
		t.Errorf("err = %v, want misuse", err)
	}
}

func TestAppenderWritesVerifiableCode(t *testing.T) {
	p := point()
	m := p.AddMethod("equals", descriptor.Public, descriptor.Boolean, descriptor.Object)
	target := NewTarget(p, bytecode.V8)
	a, err := NewEquals().Appender(target, m)
	if err != nil {
		t.Fatal(err)
	}
	b := bytecode.NewBuilder()
	a.Apply(b, target.Context)
	code, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(code.Frames) != 8 {
		t.Errorf("frames = %d, want 8", len(code.Frames))
	}
	if _, err := bytecode.Disassemble(code); err != nil {
		t.Errorf("Disassemble: %v", err)
	}
}
