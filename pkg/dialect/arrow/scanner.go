package arrow

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/r9s-ai/xcompile/pkg/bindparse"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIllegal
	tokNewline
	tokIdent
	tokInt
	tokString
	tokArrow
	tokDot
	tokSlash
	tokPipe
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
)

var tokNames = map[tokKind]string{
	tokEOF:       "end of file",
	tokIllegal:   "illegal character",
	tokNewline:   "newline",
	tokIdent:     "identifier",
	tokInt:       "integer",
	tokString:    "string",
	tokArrow:     "'->'",
	tokDot:       "'.'",
	tokSlash:     "'/'",
	tokPipe:      "'|'",
	tokLParen:    "'('",
	tokRParen:    "')'",
	tokComma:     "','",
	tokSemicolon: "';'",
}

type token struct {
	kind tokKind
	text string
	pos  int
}

func (t token) describe() string {
	switch t.kind {
	case tokIdent, tokInt, tokString, tokIllegal:
		return fmt.Sprintf("%s %q", tokNames[t.kind], t.text)
	default:
		return tokNames[t.kind]
	}
}

type scanner struct {
	path       string
	src        string
	off        int
	lineStarts []int
	peeked     *token
}

func newScanner(path, src string) *scanner {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &scanner{path: path, src: src, lineStarts: starts}
}

// lineCol converts a byte offset into a 1-based line and rune column.
func (s *scanner) lineCol(pos int) (int, int) {
	line := sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > pos })
	start := s.lineStarts[line-1]
	return line, utf8.RuneCountInString(s.src[start:pos]) + 1
}

func (s *scanner) errAt(tok token, format string, args ...any) error {
	line, col := s.lineCol(tok.pos)
	return bindparse.Errorf(s.path, line, col, format, args...)
}

func (s *scanner) peek() token {
	if s.peeked == nil {
		t := s.scan()
		s.peeked = &t
	}
	return *s.peeked
}

// nextNonTrivia returns the next token, skipping blanks and comments.
// Newlines are significant: they terminate statements.
func (s *scanner) nextNonTrivia() token {
	if s.peeked != nil {
		t := *s.peeked
		s.peeked = nil
		return t
	}
	return s.scan()
}

func (s *scanner) scan() token {
	s.skipTrivia()
	if s.off >= len(s.src) {
		return token{kind: tokEOF, pos: len(s.src)}
	}
	start := s.off
	r, size := utf8.DecodeRuneInString(s.src[s.off:])
	switch {
	case r == '\n':
		s.off += size
		return token{kind: tokNewline, text: "\n", pos: start}
	case isIdentStart(r):
		for s.off < len(s.src) {
			r, size := utf8.DecodeRuneInString(s.src[s.off:])
			if !isIdentStart(r) && !isDigit(r) {
				break
			}
			s.off += size
		}
		return token{kind: tokIdent, text: s.src[start:s.off], pos: start}
	case isDigit(r):
		for s.off < len(s.src) && s.src[s.off] >= '0' && s.src[s.off] <= '9' {
			s.off++
		}
		return token{kind: tokInt, text: s.src[start:s.off], pos: start}
	case r == '"':
		return s.scanString(start)
	case r == '-' && s.off+1 < len(s.src) && s.src[s.off+1] == '>':
		s.off += 2
		return token{kind: tokArrow, text: "->", pos: start}
	}
	s.off += size
	kind := tokIllegal
	switch r {
	case '.':
		kind = tokDot
	case '/':
		kind = tokSlash
	case '|':
		kind = tokPipe
	case '(':
		kind = tokLParen
	case ')':
		kind = tokRParen
	case ',':
		kind = tokComma
	case ';':
		kind = tokSemicolon
	}
	return token{kind: kind, text: string(r), pos: start}
}

func (s *scanner) scanString(start int) token {
	s.off++ // opening quote
	for s.off < len(s.src) {
		switch s.src[s.off] {
		case '\\':
			s.off += 2
			continue
		case '\n':
			return token{kind: tokIllegal, text: s.src[start:s.off], pos: start}
		case '"':
			s.off++
			return token{kind: tokString, text: s.src[start:s.off], pos: start}
		}
		s.off++
	}
	if s.off > len(s.src) {
		s.off = len(s.src)
	}
	return token{kind: tokIllegal, text: s.src[start:s.off], pos: start}
}

func (s *scanner) skipTrivia() {
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			s.off++
		case c == '#':
			s.skipLine()
		case c == '/' && s.off+1 < len(s.src) && s.src[s.off+1] == '/':
			s.skipLine()
		default:
			return
		}
	}
}

// skipLine stops before the newline so it still terminates the statement.
func (s *scanner) skipLine() {
	for s.off < len(s.src) && s.src[s.off] != '\n' {
		s.off++
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r < utf8.RuneSelf && unicode.IsLetter(r))
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
