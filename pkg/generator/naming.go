package generator

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers keep state between calls, so each conversion builds its own.
func title(w string) string { return cases.Title(language.Und, cases.NoLower).String(w) }

func lower(w string) string { return cases.Lower(language.Und).String(w) }

// splitWords breaks an identifier into words at '_', '-', '.', spaces and
// lower-to-upper case changes: "fooBar_baz" -> [foo Bar baz], "HTTPServer" ->
// [HTTP Server].
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if i > 0 && unicode.IsUpper(r) && len(cur) > 0 {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// PascalCase: "greet_user" -> "GreetUser", "httpServer" -> "HttpServer".
func PascalCase(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(title(w))
	}
	return b.String()
}

// CamelCase: "greet_user" -> "greetUser", "Title" -> "title", "URL" -> "url".
func CamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(lower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(title(w))
	}
	return b.String()
}

// safeIdent makes name usable as an identifier: a leading digit gets a '_'
// prefix and reserved words get a '_' suffix.
func safeIdent(name string, reserved map[string]bool) string {
	if name == "" {
		return "_"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "_" + name
	}
	if reserved[name] {
		name += "_"
	}
	return name
}

// ClassName is the generated class/struct name for outputName.
func ClassName(outputName string) string {
	base := PascalCase(outputName)
	if base == "" {
		base = "Generated"
	}
	if unicode.IsDigit([]rune(base)[0]) {
		base = "X" + base
	}
	return base + "Bindings"
}

// GoPackageName lower-cases outputName and drops every non-alphanumeric rune.
func GoPackageName(outputName string) string {
	var b strings.Builder
	for _, r := range lower(outputName) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) || goKeywords[name] {
		return "bindings"
	}
	return name
}

func keywordSet(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

var (
	goKeywords = keywordSet("break", "case", "chan", "const", "continue", "default", "defer", "else",
		"fallthrough", "for", "func", "go", "goto", "if", "import", "interface", "map", "package",
		"range", "return", "select", "struct", "switch", "type", "var")
	csharpKeywords = keywordSet("abstract", "as", "base", "bool", "break", "byte", "case", "catch",
		"char", "checked", "class", "const", "continue", "decimal", "default", "delegate", "do",
		"double", "else", "enum", "event", "explicit", "extern", "false", "finally", "fixed", "float",
		"for", "foreach", "goto", "if", "implicit", "in", "int", "interface", "internal", "is", "lock",
		"long", "namespace", "new", "null", "object", "operator", "out", "override", "params",
		"private", "protected", "public", "readonly", "ref", "return", "sbyte", "sealed", "short",
		"sizeof", "stackalloc", "static", "string", "struct", "switch", "this", "throw", "true", "try",
		"typeof", "uint", "ulong", "unchecked", "unsafe", "ushort", "using", "virtual", "void",
		"volatile", "while")
	typescriptKeywords = keywordSet("break", "case", "catch", "class", "const", "constructor",
		"continue", "debugger", "default", "delete", "do", "else", "enum", "export", "extends",
		"false", "finally", "for", "function", "if", "import", "in", "instanceof", "new", "null",
		"return", "super", "switch", "this", "throw", "true", "try", "typeof", "var", "void",
		"while", "with")
	javaKeywords = keywordSet("abstract", "assert", "boolean", "break", "byte", "case", "catch",
		"char", "class", "const", "continue", "default", "do", "double", "else", "enum", "extends",
		"final", "finally", "float", "for", "goto", "if", "implements", "import", "instanceof", "int",
		"interface", "long", "native", "new", "package", "private", "protected", "public", "return",
		"short", "static", "strictfp", "super", "switch", "synchronized", "this", "throw", "throws",
		"transient", "try", "void", "volatile", "while")
)
