package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/methodgen/artifact"
	"github.com/chazu/methodgen/bytecode"
)

func answerClass(t *testing.T) *artifact.Class {
	t.Helper()
	b := bytecode.NewBuilder()
	b.Insn(bytecode.OpIConst1)
	b.Insn(bytecode.OpIReturn)
	code, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return &artifact.Class{
		Name:    "com.example.Point",
		Version: bytecode.V8,
		Methods: []artifact.Method{artifact.NewMethod("answer", "()I", code, 1, 1)},
		Failures: []artifact.Failure{{
			Method:     "equals",
			Descriptor: "(I)Z",
			Kind:       "structural misuse",
			Detail:     "equals method must take a single reference",
		}},
	}
}

func TestPrintClass(t *testing.T) {
	class := answerClass(t)
	var buf bytes.Buffer
	if err := printClass(&buf, class, false); err != nil {
		t.Fatalf("printClass: %v", err)
	}

	want := strings.Join([]string{
		"com.example.Point (class file 52 (release 8))",
		"",
		fmt.Sprintf("answer()I stack=1 locals=1 hash=%x", class.Methods[0].Hash[:6]),
		"  0000  ICONST_1",
		"  0001  IRETURN",
		"",
		"equals(I)Z structural misuse",
		"  equals method must take a single reference",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("plain output contains escape sequences")
	}
}

func TestPrintClassColor(t *testing.T) {
	var buf bytes.Buffer
	if err := printClass(&buf, answerClass(t), true); err != nil {
		t.Fatalf("printClass: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		ansiBold + "com.example.Point" + ansiReset,
		ansiBold + "answer()I" + ansiReset,
		ansiRed + "equals(I)Z" + ansiReset,
		"  0001  IRETURN\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestPrintClassBadCode(t *testing.T) {
	class := &artifact.Class{
		Name:    "com.example.Broken",
		Version: bytecode.V8,
		Methods: []artifact.Method{{Name: "m", Descriptor: "()V", Code: []byte{0xFE}}},
	}
	var buf bytes.Buffer
	err := printClass(&buf, class, false)
	if err == nil || !strings.Contains(err.Error(), "m()V") {
		t.Errorf("err = %v, want a failure naming m()V", err)
	}
}

func TestUnjoin(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	if got := unjoin(errors.Join(a, b)); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("unjoin(joined) = %v", got)
	}
	if got := unjoin(a); len(got) != 1 || got[0] != a {
		t.Errorf("unjoin(single) = %v", got)
	}
}
