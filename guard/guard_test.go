package guard

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/methodgen/bytecode"
	"github.com/chazu/methodgen/descriptor"
	"github.com/chazu/methodgen/stack"
)

func fixture() (*descriptor.Type, *descriptor.Method, *descriptor.Method) {
	person := descriptor.NewClass("com.example.Person", descriptor.Public, nil)
	person.AddField("name", descriptor.String, descriptor.Private)
	person.AddField("age", descriptor.Int, descriptor.Private)
	person.AddField("tags", descriptor.ArrayOf(descriptor.String), descriptor.Private)
	hashCode := person.AddMethod("hashCode", descriptor.Public, descriptor.Int)
	equals := person.AddMethod("equals", descriptor.Public, descriptor.Boolean, descriptor.Object)
	return person, hashCode, equals
}

func field(t *testing.T, typ *descriptor.Type, name string) *descriptor.Field {
	t.Helper()
	f, ok := typ.Field(name)
	if !ok {
		t.Fatalf("no field %s", name)
	}
	return f
}

func record(op stack.Operation, version bytecode.Version) (*bytecode.Recorder, stack.Size) {
	r := bytecode.NewRecorder()
	size := op.Apply(r, &stack.Context{Version: version})
	return r, size
}

func TestGuardElision(t *testing.T) {
	person, hashCode, equals := fixture()
	tests := []struct {
		field    string
		nullable bool
	}{
		{"age", true},
		{"tags", true},
		{"name", false},
	}
	for _, tt := range tests {
		f := field(t, person, tt.field)
		for _, g := range []Guard{Accumulate(hashCode, f, tt.nullable), Compare(equals, f, tt.nullable)} {
			if !g.IsNoOp() {
				t.Errorf("%s (nullable=%v): expected no-op guard", tt.field, tt.nullable)
			}
			r, _ := record(stack.Compose(g.Before, g.After), bytecode.V8)
			if len(r.Events) != 0 {
				t.Errorf("%s: no-op guard emitted %v", tt.field, r.Events)
			}
		}
	}
}

func TestAccumulate(t *testing.T) {
	person, hashCode, _ := fixture()
	g := Accumulate(hashCode, field(t, person, "name"), true)
	if g.ScratchWidth != 1 {
		t.Errorf("scratch width = %d, want 1", g.ScratchWidth)
	}

	r, size := record(g.Before, bytecode.V8)
	want := []string{"ASTORE 1", "ALOAD 1", "IFNULL nullName", "ALOAD 1"}
	if diff := cmp.Diff(want, r.Trace()); diff != "" {
		t.Errorf("before mismatch (-want +got):\n%s", diff)
	}
	if size != (stack.Size{}) {
		t.Errorf("before size = %v", size)
	}

	r, size = record(g.After, bytecode.V8)
	if r.Count() != 0 || r.Labels() != 1 {
		t.Errorf("after emitted %v", r.Events)
	}
	wantFrames := []bytecode.Frame{{Kind: bytecode.FrameSame1, Stack: []string{"I"}}}
	if diff := cmp.Diff(wantFrames, r.Frames()); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if size != (stack.Size{}) {
		t.Errorf("after size = %v", size)
	}
}

func TestAccumulateWithoutFrames(t *testing.T) {
	person, hashCode, _ := fixture()
	g := Accumulate(hashCode, field(t, person, "name"), true)
	r, _ := record(g.After, bytecode.V5)
	if len(r.Frames()) != 0 {
		t.Errorf("frames emitted below version 6: %v", r.Frames())
	}
}

func TestCompare(t *testing.T) {
	person, _, equals := fixture()
	g := Compare(equals, field(t, person, "name"), true)
	if g.ScratchWidth != 2 {
		t.Errorf("scratch width = %d, want 2", g.ScratchWidth)
	}

	r, size := record(g.Before, bytecode.V8)
	want := []string{
		"ASTORE 2",
		"ASTORE 3",
		"ALOAD 3",
		"ALOAD 2",
		"IFNULL secondNull",
		"IFNULL firstNull",
		"ALOAD 3",
		"ALOAD 2",
	}
	if diff := cmp.Diff(want, r.Trace()); diff != "" {
		t.Errorf("before mismatch (-want +got):\n%s", diff)
	}
	if size != (stack.Size{}) {
		t.Errorf("before size = %v", size)
	}

	r, size = record(g.After, bytecode.V8)
	want = []string{"GOTO endOfName", "IFNULL endOfName", "ICONST_0", "IRETURN"}
	if diff := cmp.Diff(want, r.Trace()); diff != "" {
		t.Errorf("after mismatch (-want +got):\n%s", diff)
	}
	wantFrames := []bytecode.Frame{
		{Kind: bytecode.FrameSame1, Stack: []string{"java/lang/Object"}},
		{Kind: bytecode.FrameSame},
		{Kind: bytecode.FrameSame},
	}
	if diff := cmp.Diff(wantFrames, r.Frames()); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if r.Labels() != 3 {
		t.Errorf("labels = %d, want 3", r.Labels())
	}
	if size != (stack.Size{Net: 0, Max: 1}) {
		t.Errorf("after size = %v", size)
	}
}

func TestCompareProducesFreshLabels(t *testing.T) {
	person, _, equals := fixture()
	f := field(t, person, "name")
	a, b := Compare(equals, f, true), Compare(equals, f, true)
	ra, _ := record(a.After, bytecode.V8)
	rb, _ := record(b.After, bytecode.V8)
	if ra.Events[0].Label == rb.Events[0].Label {
		t.Error("guards share a label")
	}
}

func TestBudget(t *testing.T) {
	person, hashCode, equals := fixture()
	name := field(t, person, "name")
	var b Budget
	b = b.Request(NoOp())
	if b != 0 {
		t.Errorf("budget = %d, want 0", b)
	}
	b = b.Request(Compare(equals, name, true)).Request(Accumulate(hashCode, name, true))
	if b != 2 {
		t.Errorf("budget = %d, want 2", b)
	}
}
