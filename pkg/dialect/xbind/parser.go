// Package xbind implements the block-structured binding dialect:
//
//	syntax "xbind/0.1";
//	host Window {
//	  bind title = Title;
//	  bind resize = Resize(2) | debounce(50);
//	}
//
// Every host block must name the host type. Blocks concatenate in source order.
package xbind

import (
	"errors"
	"strconv"

	"github.com/alecthomas/participle/v2"

	"github.com/r9s-ai/xcompile/pkg/bindast"
	"github.com/r9s-ai/xcompile/pkg/bindparse"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

const (
	Name = "xbind"

	// SyntaxVersion is the only `syntax` directive value accepted.
	SyntaxVersion = "xbind/0.1"
)

type Parser struct{}

func (Parser) Parse(name, source string, desc *hostdesc.Descriptor) (*bindast.ProgramRoot, error) {
	file, err := grammar.ParseString(name, source)
	if err != nil {
		return nil, parseError(name, err)
	}
	if file.Syntax != nil {
		v, uerr := strconv.Unquote(file.Syntax.Version)
		if uerr != nil || v != SyntaxVersion {
			return nil, bindparse.Errorf(name, file.Syntax.Pos.Line, file.Syntax.Pos.Column,
				"unsupported syntax %s (want %q)", file.Syntax.Version, SyntaxVersion)
		}
	}

	b := bindparse.NewBinder(name, Name, desc)
	for _, h := range file.Hosts {
		for _, stmt := range h.Binds {
			ref := bindparse.Reference{
				Binding:   stmt.Symbol,
				Qualifier: h.Name,
				Implicit:  true,
				Member:    stmt.Member.Name,
				Arity:     bindparse.NoArity,
				Pos:       bindast.Position{Line: stmt.Pos.Line, Column: stmt.Pos.Column},
				MemberPos: bindast.Position{Line: stmt.Member.Pos.Line, Column: stmt.Member.Pos.Column},
			}
			if stmt.Member.Arity != nil {
				ref.Arity = *stmt.Member.Arity
			}
			for _, t := range stmt.Transforms {
				ref.Transforms = append(ref.Transforms, bindast.Transform{Name: t.Name, Args: t.Args})
			}
			if err := b.Bind(ref); err != nil {
				return nil, err
			}
		}
	}
	return b.Program(), nil
}

// parseError keeps participle's position and message but reports through
// the shared ParseError type.
func parseError(name string, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &bindparse.ParseError{File: name, Line: pos.Line, Column: pos.Column, Msg: perr.Message(), Err: err}
	}
	return &bindparse.ParseError{File: name, Line: 1, Column: 1, Msg: err.Error(), Err: err}
}

// Language is the xbind BindingLanguage.
type Language struct{}

func (Language) Name() string { return Name }

func (Language) Parser() bindparse.Parser { return Parser{} }

func (Language) Extensions() []string { return []string{".xbind"} }
