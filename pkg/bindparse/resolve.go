package bindparse

import (
	"fmt"
	"strings"

	"github.com/r9s-ai/xcompile/pkg/bindast"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

// NoArity marks a reference that does not pin an arity.
const NoArity = -1

// Resolve finds the member named exactly name. When several members share the
// name, an exact arity match wins, then the first one in descriptor order.
// arity == NoArity skips the arity step.
func Resolve(desc *hostdesc.Descriptor, name string, arity int) (int, error) {
	candidates := desc.Lookup(name)
	if len(candidates) == 0 {
		return -1, &BindingResolutionError{Symbol: name, Host: desc.TypeName()}
	}
	if arity == NoArity {
		return candidates[0], nil
	}
	for _, idx := range candidates {
		m, _ := desc.Member(idx)
		if m.Arity() == arity {
			return idx, nil
		}
	}
	return -1, &BindingResolutionError{
		Symbol: name,
		Host:   desc.TypeName(),
		Reason: fmt.Sprintf("no overload with arity %d", arity),
	}
}

// Reference is one binding statement as a dialect saw it.
type Reference struct {
	Binding    string
	Qualifier  string
	Member     string
	Arity      int
	Pos        bindast.Position
	MemberPos  bindast.Position
	Transforms []bindast.Transform
	Implicit   bool // Qualifier comes from an enclosing host block
}

// symbol is the reference as written in the source.
func (r Reference) symbol() string {
	if r.Qualifier == "" || r.Implicit {
		return r.Member
	}
	return r.Qualifier + "." + r.Member
}

// Binder resolves references against one descriptor and accumulates the program.
type Binder struct {
	file    string
	desc    *hostdesc.Descriptor
	builder *bindast.Builder
}

func NewBinder(file, language string, desc *hostdesc.Descriptor) *Binder {
	return &Binder{
		file:    file,
		desc:    desc,
		builder: bindast.NewBuilder(language, desc.TypeName()),
	}
}

// Bind resolves ref and appends the declaration.
func (b *Binder) Bind(ref Reference) error {
	at := ref.MemberPos
	if at.Line == 0 {
		at = ref.Pos
	}
	if q := strings.TrimSpace(ref.Qualifier); q != "" && q != b.desc.TypeName() {
		return &BindingResolutionError{
			File:    b.file,
			Symbol:  ref.symbol(),
			Binding: ref.Binding,
			Host:    b.desc.TypeName(),
			Line:    at.Line,
			Column:  at.Column,
			Reason:  fmt.Sprintf("qualifier %q does not name the host", q),
		}
	}
	idx, err := Resolve(b.desc, ref.Member, ref.Arity)
	if err != nil {
		rerr := err.(*BindingResolutionError)
		rerr.File = b.file
		rerr.Symbol = ref.symbol()
		rerr.Binding = ref.Binding
		rerr.Line = at.Line
		rerr.Column = at.Column
		return rerr
	}
	decl, err := bindast.NewDeclaration(b.desc, idx, ref.Binding, ref.Pos, ref.Transforms...)
	if err != nil {
		return &ParseError{File: b.file, Line: ref.Pos.Line, Column: ref.Pos.Column, Msg: err.Error(), Err: err}
	}
	if prev, ok := b.builder.Add(decl); !ok {
		return Errorf(b.file, ref.Pos.Line, ref.Pos.Column, "symbol %q already bound at %s", ref.Binding, prev)
	}
	return nil
}

// Program returns the accumulated program. The binder must not be used afterwards.
func (b *Binder) Program() *bindast.ProgramRoot {
	return b.builder.Build()
}
