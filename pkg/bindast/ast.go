// Package bindast is the program model produced by binding-language parsers:
// an ordered list of declarations, each tying a DSL symbol to a resolved host member.
package bindast

import (
	"fmt"
	"strings"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

// Position is a 1-based source location.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Transform is optional metadata attached to a declaration, e.g. `| default("x")`.
type Transform struct {
	Name string
	Args []string
}

func (t Transform) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "(" + strings.Join(t.Args, ", ") + ")"
}

// BindingDeclaration links one DSL symbol to one member of the host descriptor
// it was resolved against.
type BindingDeclaration struct {
	Symbol      string
	Member      hostdesc.Member
	MemberIndex int
	Transforms  []Transform
	Pos         Position
}

// NewDeclaration resolves index against desc. It fails when the index does not
// name a member of desc, so a declaration never refers to a missing member.
func NewDeclaration(desc *hostdesc.Descriptor, index int, symbol string, pos Position, transforms ...Transform) (*BindingDeclaration, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("binding at %s: empty symbol", pos)
	}
	m, ok := desc.Member(index)
	if !ok {
		return nil, fmt.Errorf("binding %q at %s: member index %d not in host %q", symbol, pos, index, desc.TypeName())
	}
	out := &BindingDeclaration{
		Symbol:      symbol,
		Member:      m,
		MemberIndex: index,
		Pos:         pos,
	}
	for _, t := range transforms {
		out.Transforms = append(out.Transforms, Transform{Name: t.Name, Args: append([]string(nil), t.Args...)})
	}
	return out, nil
}

func (d *BindingDeclaration) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s -> %s", d.Symbol, d.Member.Name)
	for _, t := range d.Transforms {
		b.WriteString(" | ")
		b.WriteString(t.String())
	}
	return b.String()
}

// ProgramRoot is the result of a successful parse. It is immutable: callers only
// get copies of its declarations.
type ProgramRoot struct {
	language string
	hostType string
	decls    []*BindingDeclaration
}

// Language is the identifying name of the dialect that produced the program.
func (p *ProgramRoot) Language() string {
	if p == nil {
		return ""
	}
	return p.language
}

// HostType is the declared type name of the host the program was resolved against.
func (p *ProgramRoot) HostType() string {
	if p == nil {
		return ""
	}
	return p.hostType
}

func (p *ProgramRoot) Len() int {
	if p == nil {
		return 0
	}
	return len(p.decls)
}

// Empty reports whether there is nothing to generate. A nil program is empty.
func (p *ProgramRoot) Empty() bool {
	return p.Len() == 0
}

func (p *ProgramRoot) At(i int) BindingDeclaration {
	return copyDecl(p.decls[i])
}

// Declarations returns the declarations in source order.
func (p *ProgramRoot) Declarations() []BindingDeclaration {
	if p == nil {
		return nil
	}
	out := make([]BindingDeclaration, 0, len(p.decls))
	for _, d := range p.decls {
		out = append(out, copyDecl(d))
	}
	return out
}

func copyDecl(d *BindingDeclaration) BindingDeclaration {
	out := *d
	out.Member.Params = append([]string(nil), d.Member.Params...)
	out.Member.Results = append([]string(nil), d.Member.Results...)
	out.Transforms = make([]Transform, 0, len(d.Transforms))
	for _, t := range d.Transforms {
		out.Transforms = append(out.Transforms, Transform{Name: t.Name, Args: append([]string(nil), t.Args...)})
	}
	return out
}

// Builder accumulates declarations in the order they are added.
type Builder struct {
	root *ProgramRoot
	seen map[string]Position
}

func NewBuilder(language, hostType string) *Builder {
	return &Builder{
		root: &ProgramRoot{language: language, hostType: hostType},
		seen: map[string]Position{},
	}
}

// Add appends d. It returns the position of an earlier declaration of the same
// symbol and false when the symbol is already bound.
func (b *Builder) Add(d *BindingDeclaration) (Position, bool) {
	if prev, ok := b.seen[d.Symbol]; ok {
		return prev, false
	}
	b.seen[d.Symbol] = d.Pos
	b.root.decls = append(b.root.decls, d)
	return Position{}, true
}

// Build freezes the program. The builder must not be used afterwards.
func (b *Builder) Build() *ProgramRoot {
	root := b.root
	b.root = nil
	return root
}
