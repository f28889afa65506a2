package bindparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/r9s-ai/xcompile/pkg/bindast"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

func overloadedHost(t *testing.T) *hostdesc.Descriptor {
	t.Helper()
	d, err := hostdesc.NewDescriptor("X", []hostdesc.Member{
		{Name: "Foo", Kind: hostdesc.KindProperty, Type: "string"},
		{Name: "Greet", Kind: hostdesc.KindMethod, Params: []string{"string"}, Results: []string{"string"}},
		{Name: "Greet", Kind: hostdesc.KindMethod, Params: []string{"string", "int"}, Results: []string{"string"}},
		{Name: "Greet", Kind: hostdesc.KindMethod, Params: []string{"int"}, Results: []string{"string"}},
	})
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	return d
}

func TestResolve(t *testing.T) {
	d := overloadedHost(t)
	cases := []struct {
		name  string
		ref   string
		arity int
		want  int
	}{
		{name: "exact name", ref: "Foo", arity: NoArity, want: 0},
		{name: "first declared without arity", ref: "Greet", arity: NoArity, want: 1},
		{name: "exact arity", ref: "Greet", arity: 2, want: 2},
		{name: "arity tie breaks by order", ref: "Greet", arity: 1, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(d, tc.ref, tc.arity)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Resolve(%q, %d)=%d want=%d", tc.ref, tc.arity, got, tc.want)
			}
		})
	}
}

func TestResolve_Misses(t *testing.T) {
	d := overloadedHost(t)
	var rerr *BindingResolutionError

	_, err := Resolve(d, "foo", NoArity)
	if !errors.As(err, &rerr) || rerr.Symbol != "foo" {
		t.Fatalf("case-insensitive match must fail, got %v", err)
	}
	_, err = Resolve(d, "Greet", 3)
	if !errors.As(err, &rerr) || rerr.Symbol != "Greet" {
		t.Fatalf("unknown arity must fail, got %v", err)
	}
}

func TestBinder(t *testing.T) {
	d := overloadedHost(t)
	b := NewBinder("ui.arrow", "arrow", d)

	if err := b.Bind(Reference{Binding: "a", Qualifier: "X", Member: "Foo", Arity: NoArity, Pos: bindast.Position{Line: 1, Column: 1}}); err != nil {
		t.Fatalf("Bind a: %v", err)
	}

	err := b.Bind(Reference{Binding: "b", Qualifier: "Y", Member: "Foo", Arity: NoArity, Pos: bindast.Position{Line: 2, Column: 1}, MemberPos: bindast.Position{Line: 2, Column: 6}})
	var rerr *BindingResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected resolution error for qualifier mismatch, got %v", err)
	}
	if rerr.Symbol != "Y.Foo" || rerr.Line != 2 || rerr.Column != 6 {
		t.Fatalf("unexpected error %#v", rerr)
	}

	err = b.Bind(Reference{Binding: "c", Qualifier: "X", Member: "Nope", Arity: NoArity, Pos: bindast.Position{Line: 3, Column: 1}})
	if !errors.As(err, &rerr) || rerr.Symbol != "X.Nope" {
		t.Fatalf("unknown member should keep the qualified reference, got %v", err)
	}
	err = b.Bind(Reference{Binding: "c", Qualifier: "Y", Member: "Foo", Implicit: true, Arity: NoArity, Pos: bindast.Position{Line: 3, Column: 1}})
	if !errors.As(err, &rerr) || rerr.Symbol != "Foo" {
		t.Fatalf("implicit qualifier is not part of the reference, got %v", err)
	}

	err = b.Bind(Reference{Binding: "a", Member: "Greet", Arity: NoArity, Pos: bindast.Position{Line: 3, Column: 1}})
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Line != 3 {
		t.Fatalf("expected duplicate symbol parse error, got %v", err)
	}

	root := b.Program()
	if root.Len() != 1 || root.Language() != "arrow" || root.HostType() != "X" {
		t.Fatalf("unexpected program: len=%d lang=%q host=%q", root.Len(), root.Language(), root.HostType())
	}
}

func TestSnippet(t *testing.T) {
	src := "a -> X.Foo\nb -> X.Baz\nc -> X.Bar"
	err := &BindingResolutionError{Symbol: "Baz", Line: 2, Column: 8}
	got := Snippet(err, src)
	want := "1 | a -> X.Foo\n2 | b -> X.Baz\n  |        ^\n3 | c -> X.Bar\n"
	if got != want {
		t.Fatalf("Snippet=\n%s\nwant=\n%s", got, want)
	}
	if Snippet(errors.New("plain"), src) != "" {
		t.Fatalf("unpositioned error should render nothing")
	}
}

func TestParseError_Format(t *testing.T) {
	err := Errorf("", 4, 2, "unexpected %q", "}")
	if got := err.Error(); got != `<source>:4:2: unexpected "}"` {
		t.Fatalf("Error=%q", got)
	}
	wrapped := errors.Join(errors.New("ctx"), err)
	line, col, ok := Position(wrapped)
	if !ok || line != 4 || col != 2 {
		t.Fatalf("Position through wrap = %d:%d ok=%v", line, col, ok)
	}
	if !strings.Contains((&BindingResolutionError{Symbol: "Foo", Binding: "a"}).Error(), `"Foo" (bound by "a")`) {
		t.Fatalf("resolution error should name symbol and binding")
	}
}
