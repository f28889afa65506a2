package bindast

import (
	"testing"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

func testDescriptor(t *testing.T) *hostdesc.Descriptor {
	t.Helper()
	d, err := hostdesc.NewDescriptor("X", []hostdesc.Member{
		{Name: "Foo", Kind: hostdesc.KindProperty, Type: "string"},
		{Name: "Bar", Kind: hostdesc.KindProperty, Type: "int"},
	})
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	return d
}

func TestNewDeclaration_RejectsMissingMember(t *testing.T) {
	d := testDescriptor(t)
	if _, err := NewDeclaration(d, 2, "a", Position{Line: 1, Column: 1}); err == nil {
		t.Fatalf("expected error for out-of-range member index")
	}
	if _, err := NewDeclaration(d, -1, "a", Position{Line: 1, Column: 1}); err == nil {
		t.Fatalf("expected error for negative member index")
	}
	if _, err := NewDeclaration(d, 0, " ", Position{Line: 1, Column: 1}); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}

func TestBuilder_PreservesOrderAndRejectsDuplicates(t *testing.T) {
	d := testDescriptor(t)
	b := NewBuilder("arrow", d.TypeName())

	a, err := NewDeclaration(d, 0, "a", Position{Line: 1, Column: 1})
	if err != nil {
		t.Fatalf("NewDeclaration: %v", err)
	}
	bb, err := NewDeclaration(d, 1, "b", Position{Line: 2, Column: 1}, Transform{Name: "default", Args: []string{`"0"`}})
	if err != nil {
		t.Fatalf("NewDeclaration: %v", err)
	}
	if _, ok := b.Add(a); !ok {
		t.Fatalf("first add should succeed")
	}
	if _, ok := b.Add(bb); !ok {
		t.Fatalf("second add should succeed")
	}
	dup, _ := NewDeclaration(d, 1, "a", Position{Line: 3, Column: 1})
	prev, ok := b.Add(dup)
	if ok || prev.Line != 1 {
		t.Fatalf("duplicate add: ok=%v prev=%v", ok, prev)
	}

	root := b.Build()
	if root.Len() != 2 || root.Empty() {
		t.Fatalf("Len=%d", root.Len())
	}
	decls := root.Declarations()
	if decls[0].Member.Name != "Foo" || decls[1].Member.Name != "Bar" {
		t.Fatalf("order not preserved: %v", decls)
	}
	at1 := root.At(1)
	if got := at1.String(); got != `b -> Bar | default("0")` {
		t.Fatalf("String=%q", got)
	}

	decls[1].Transforms[0].Args[0] = "mutated"
	if root.At(1).Transforms[0].Args[0] != `"0"` {
		t.Fatalf("program mutated through copy")
	}
}

func TestProgramRoot_NilIsEmpty(t *testing.T) {
	var root *ProgramRoot
	if !root.Empty() || root.Len() != 0 || root.Declarations() != nil {
		t.Fatalf("nil program should be empty")
	}
}
