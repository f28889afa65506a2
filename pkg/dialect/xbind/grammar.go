package xbind

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var lexdef = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\\n])*"`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[{};=|(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var grammar = participle.MustBuild[xFile](
	participle.Lexer(lexdef),
	participle.Elide("Comment", "Whitespace"),
)

type xFile struct {
	Syntax *xSyntax `@@?`
	Hosts  []*xHost `@@*`
}

type xSyntax struct {
	Pos     lexer.Position
	Version string `"syntax" @String ";"`
}

type xHost struct {
	Pos   lexer.Position
	Name  string   `"host" @Ident "{"`
	Binds []*xBind `@@* "}"`
}

type xBind struct {
	Pos        lexer.Position
	Symbol     string        `"bind" @Ident "="`
	Member     *xRef         `@@`
	Transforms []*xTransform `( "|" @@ )* ";"`
}

type xRef struct {
	Pos   lexer.Position
	Name  string `@Ident`
	Arity *int   `( "(" @Int ")" )?`
}

type xTransform struct {
	Pos  lexer.Position
	Name string   `@Ident`
	Call bool     `( @"("`
	Args []string `  ( @(Ident | Int | String) ( "," @(Ident | Int | String) )* )? ")" )?`
}
