// Package arrow implements the line-oriented binding dialect:
//
//	# comment
//	title   -> Window.Title
//	resize  -> Window.Resize/2 | debounce(50)
//	caption -> Caption | default("untitled"); visible -> Visible
//
// Each statement binds the symbol on the left to a member of the host on the
// right. The host qualifier is optional; when present it must name the host
// type. `/n` pins the overload arity. `| name(args)` attaches transform metadata.
package arrow

import (
	"strconv"
	"strings"

	"github.com/r9s-ai/xcompile/pkg/bindast"
	"github.com/r9s-ai/xcompile/pkg/bindparse"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

const Name = "arrow"

// Parser parses arrow sources. It holds no state between calls.
type Parser struct{}

func (Parser) Parse(name, source string, desc *hostdesc.Descriptor) (*bindast.ProgramRoot, error) {
	s := newScanner(name, source)
	b := bindparse.NewBinder(name, Name, desc)
	for {
		tok := s.nextNonTrivia()
		switch tok.kind {
		case tokEOF:
			return b.Program(), nil
		case tokNewline, tokSemicolon:
			continue
		case tokIdent:
			ref, err := parseStatement(s, tok)
			if err != nil {
				return nil, err
			}
			if err := b.Bind(ref); err != nil {
				return nil, err
			}
		default:
			return nil, unexpected(s, tok, "expected binding symbol")
		}
	}
}

func parseStatement(s *scanner, sym token) (bindparse.Reference, error) {
	line, col := s.lineCol(sym.pos)
	ref := bindparse.Reference{
		Binding: sym.text,
		Arity:   bindparse.NoArity,
		Pos:     bindast.Position{Line: line, Column: col},
	}

	if tok := s.nextNonTrivia(); tok.kind != tokArrow {
		return ref, unexpected(s, tok, "expected '->' after "+strconv.Quote(sym.text))
	}
	first := s.nextNonTrivia()
	if first.kind != tokIdent {
		return ref, unexpected(s, first, "expected host member after '->'")
	}
	memberTok := first
	if s.peek().kind == tokDot {
		s.nextNonTrivia()
		memberTok = s.nextNonTrivia()
		if memberTok.kind != tokIdent {
			return ref, unexpected(s, memberTok, "expected member name after '.'")
		}
		ref.Qualifier = first.text
	}
	ref.Member = memberTok.text
	ml, mc := s.lineCol(memberTok.pos)
	ref.MemberPos = bindast.Position{Line: ml, Column: mc}

	if s.peek().kind == tokSlash {
		s.nextNonTrivia()
		n := s.nextNonTrivia()
		if n.kind != tokInt {
			return ref, unexpected(s, n, "expected arity after '/'")
		}
		arity, err := strconv.Atoi(n.text)
		if err != nil {
			return ref, s.errAt(n, "invalid arity %q", n.text)
		}
		ref.Arity = arity
	}

	for s.peek().kind == tokPipe {
		s.nextNonTrivia()
		t, err := parseTransform(s)
		if err != nil {
			return ref, err
		}
		ref.Transforms = append(ref.Transforms, t)
	}

	switch end := s.nextNonTrivia(); end.kind {
	case tokNewline, tokSemicolon, tokEOF:
		return ref, nil
	default:
		return ref, unexpected(s, end, "expected end of statement")
	}
}

func parseTransform(s *scanner) (bindast.Transform, error) {
	name := s.nextNonTrivia()
	if name.kind != tokIdent {
		return bindast.Transform{}, unexpected(s, name, "expected transform name after '|'")
	}
	t := bindast.Transform{Name: name.text}
	if s.peek().kind != tokLParen {
		return t, nil
	}
	s.nextNonTrivia()
	if s.peek().kind == tokRParen {
		s.nextNonTrivia()
		return t, nil
	}
	for {
		arg := s.nextNonTrivia()
		switch arg.kind {
		case tokIdent, tokInt, tokString:
			t.Args = append(t.Args, arg.text)
		default:
			return t, unexpected(s, arg, "expected transform argument")
		}
		switch sep := s.nextNonTrivia(); sep.kind {
		case tokComma:
			continue
		case tokRParen:
			return t, nil
		default:
			return t, unexpected(s, sep, "expected ',' or ')' in transform arguments")
		}
	}
}

func unexpected(s *scanner, tok token, want string) error {
	if tok.kind == tokIllegal && strings.HasPrefix(tok.text, `"`) {
		return s.errAt(tok, "unterminated string")
	}
	return s.errAt(tok, "%s, got %s", want, tok.describe())
}

// Language is the arrow BindingLanguage.
type Language struct{}

func (Language) Name() string { return Name }

func (Language) Parser() bindparse.Parser { return Parser{} }

func (Language) Extensions() []string { return []string{".arrow", ".xb"} }
