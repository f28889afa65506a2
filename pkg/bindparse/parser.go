// Package bindparse defines the contract every binding dialect implements and the
// binding-resolution rules they share.
//
// A dialect turns source text into a *bindast.ProgramRoot against one host
// descriptor. Failures are always one of:
//
//   - *ParseError: the text violates the dialect grammar. Always positioned.
//   - *BindingResolutionError: a statement names a host member the descriptor lacks.
//
// Dialects should not resolve members themselves; they describe each statement
// as a Reference and hand it to a Binder, which applies the resolution policy
// (exact name, then exact arity, then descriptor order) and keeps source order.
package bindparse

import (
	"github.com/r9s-ai/xcompile/pkg/bindast"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

// Parser parses one source text against one host descriptor.
// name is used for error positions only.
type Parser interface {
	Parse(name, source string, desc *hostdesc.Descriptor) (*bindast.ProgramRoot, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(name, source string, desc *hostdesc.Descriptor) (*bindast.ProgramRoot, error)

func (f ParserFunc) Parse(name, source string, desc *hostdesc.Descriptor) (*bindast.ProgramRoot, error) {
	return f(name, source, desc)
}
