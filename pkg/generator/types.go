package generator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TypeKind int

const (
	TypeNamed TypeKind = iota
	TypeSlice
	TypeArray
	TypeMap
	TypePointer
	TypeChan
	TypeFunc
	TypeStruct
)

// ChanDir is the direction of a channel type.
type ChanDir int

const (
	ChanBoth ChanDir = iota
	ChanRecv
	ChanSend
)

// TypeExpr is a parsed canonical type signature as produced by hostdesc:
// Go-shaped type syntax such as "[]string", "map[string]int" or
// "func(int) (string, error)".
type TypeExpr struct {
	Kind     TypeKind
	Name     string // TypeNamed: "string", "ui.Color"; TypeArray: the length
	Elem     *TypeExpr
	Key      *TypeExpr
	Params   []*TypeExpr
	Results  []*TypeExpr
	Variadic bool // parameter written as ...T; Elem is T
	Dir      ChanDir
}

func (t *TypeExpr) String() string {
	if t == nil {
		return ""
	}
	if t.Variadic && t.Kind == TypeSlice {
		return "..." + t.Elem.String()
	}
	prefix := ""
	if t.Variadic {
		prefix = "..."
	}
	switch t.Kind {
	case TypeSlice:
		return prefix + "[]" + t.Elem.String()
	case TypeArray:
		return prefix + "[" + t.Name + "]" + t.Elem.String()
	case TypeMap:
		return prefix + "map[" + t.Key.String() + "]" + t.Elem.String()
	case TypePointer:
		return prefix + "*" + t.Elem.String()
	case TypeChan:
		switch t.Dir {
		case ChanRecv:
			return prefix + "<-chan " + t.Elem.String()
		case ChanSend:
			return prefix + "chan<- " + t.Elem.String()
		}
		return prefix + "chan " + t.Elem.String()
	case TypeFunc:
		params := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, p.String())
		}
		results := make([]string, 0, len(t.Results))
		for _, r := range t.Results {
			results = append(results, r.String())
		}
		sig := "func(" + strings.Join(params, ", ") + ")"
		switch len(results) {
		case 0:
		case 1:
			sig += " " + results[0]
		default:
			sig += " (" + strings.Join(results, ", ") + ")"
		}
		return prefix + sig
	case TypeStruct:
		return prefix + "struct{...}"
	default:
		return prefix + t.Name
	}
}

// Base returns the unqualified name of a named type ("ui.Color" -> "Color").
func (t *TypeExpr) Base() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// ParseType parses one canonical type signature.
func ParseType(s string) (*TypeExpr, error) {
	p := &typeParser{src: s}
	p.skipSpace()
	t, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", s, err)
	}
	p.skipSpace()
	if !p.eof() {
		return nil, fmt.Errorf("parse type %q: unexpected %q at offset %d", s, p.src[p.off:], p.off)
	}
	return t, nil
}

// ParseParam parses a method parameter type, which may be variadic ("...T").
func ParseParam(s string) (*TypeExpr, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "...") {
		elem, err := ParseType(trimmed[3:])
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeSlice, Elem: elem, Variadic: true}, nil
	}
	return ParseType(trimmed)
}

type typeParser struct {
	src string
	off int
}

func (p *typeParser) eof() bool { return p.off >= len(p.src) }

func (p *typeParser) skipSpace() {
	for p.off < len(p.src) && (p.src[p.off] == ' ' || p.src[p.off] == '\t') {
		p.off++
	}
}

func (p *typeParser) consume(lit string) bool {
	if strings.HasPrefix(p.src[p.off:], lit) {
		p.off += len(lit)
		return true
	}
	return false
}

func (p *typeParser) expect(lit string) error {
	p.skipSpace()
	if !p.consume(lit) {
		if p.eof() {
			return fmt.Errorf("expected %q, got end of type", lit)
		}
		return fmt.Errorf("expected %q at offset %d", lit, p.off)
	}
	return nil
}

func (p *typeParser) parseType() (*TypeExpr, error) {
	p.skipSpace()
	switch {
	case p.eof():
		return nil, fmt.Errorf("empty type")
	case p.consume("*"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypePointer, Elem: elem}, nil
	case p.consume("[]"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeSlice, Elem: elem}, nil
	case p.consume("["):
		start := p.off
		for p.off < len(p.src) && p.src[p.off] >= '0' && p.src[p.off] <= '9' {
			p.off++
		}
		n := p.src[start:p.off]
		if n == "" {
			return nil, fmt.Errorf("expected array length at offset %d", p.off)
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeArray, Name: n, Elem: elem}, nil
	case p.consume("<-chan"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeChan, Elem: elem, Dir: ChanRecv}, nil
	case p.consume("chan<-"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeChan, Elem: elem, Dir: ChanSend}, nil
	}

	name := p.ident()
	switch name {
	case "":
		return nil, fmt.Errorf("unexpected %q at offset %d", p.src[p.off:p.off+1], p.off)
	case "map":
		if err := p.expect("["); err != nil {
			return nil, err
		}
		key, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeMap, Key: key, Elem: elem}, nil
	case "chan":
		p.skipSpace()
		dir := ChanBoth
		if p.consume("<-") {
			dir = ChanSend
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeChan, Elem: elem, Dir: dir}, nil
	case "func":
		return p.parseFunc()
	case "struct":
		if err := p.skipBraces(); err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeStruct}, nil
	case "interface":
		if err := p.skipBraces(); err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeNamed, Name: "any"}, nil
	}
	return &TypeExpr{Kind: TypeNamed, Name: name}, nil
}

// ident reads a possibly qualified identifier such as "ui.Color".
func (p *typeParser) ident() string {
	start := p.off
	for p.off < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.off:])
		if r == '_' || unicode.IsLetter(r) || (p.off > start && (unicode.IsDigit(r) || r == '.')) {
			p.off += size
			continue
		}
		break
	}
	return p.src[start:p.off]
}

func (p *typeParser) skipBraces() error {
	if err := p.expect("{"); err != nil {
		return err
	}
	depth := 1
	for p.off < len(p.src) && depth > 0 {
		switch p.src[p.off] {
		case '{':
			depth++
		case '}':
			depth--
		}
		p.off++
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced braces")
	}
	return nil
}

func (p *typeParser) parseFunc() (*TypeExpr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	params, err := p.parseList()
	if err != nil {
		return nil, err
	}
	out := &TypeExpr{Kind: TypeFunc, Params: params}
	p.skipSpace()
	if p.eof() || p.src[p.off] == ',' || p.src[p.off] == ')' || p.src[p.off] == ']' {
		return out, nil
	}
	if p.consume("(") {
		results, err := p.parseList()
		if err != nil {
			return nil, err
		}
		out.Results = results
		return out, nil
	}
	r, err := p.parseType()
	if err != nil {
		return nil, err
	}
	out.Results = []*TypeExpr{r}
	return out, nil
}

// parseList reads "T1, name T2, ...T3)" after the opening parenthesis.
// Parameter names are accepted and dropped.
func (p *typeParser) parseList() ([]*TypeExpr, error) {
	var out []*TypeExpr
	p.skipSpace()
	if p.consume(")") {
		return out, nil
	}
	for {
		p.skipSpace()
		t, err := p.parseListEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		p.skipSpace()
		if p.consume(",") {
			continue
		}
		if p.consume(")") {
			return out, nil
		}
		return nil, fmt.Errorf("expected ',' or ')' at offset %d", p.off)
	}
}

func (p *typeParser) parseListEntry() (*TypeExpr, error) {
	save := p.off
	if name := p.ident(); name != "" && !strings.Contains(name, ".") && !typeKeywords[name] {
		p.skipSpace()
		if !p.eof() && p.src[p.off] != ',' && p.src[p.off] != ')' && p.src[p.off] != '[' && p.src[p.off] != '{' && p.src[p.off] != '(' {
			// "name T" or "name ...T"
			return p.parseEntryType()
		}
	}
	p.off = save
	return p.parseEntryType()
}

var typeKeywords = map[string]bool{"map": true, "chan": true, "func": true, "struct": true, "interface": true}

func (p *typeParser) parseEntryType() (*TypeExpr, error) {
	if p.consume("...") {
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Kind: TypeSlice, Elem: elem, Variadic: true}, nil
	}
	return p.parseType()
}
