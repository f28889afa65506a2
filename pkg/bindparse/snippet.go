package bindparse

import (
	"fmt"
	"strings"
)

// Snippet renders the source lines around a positioned error with a caret under
// the offending column:
//
//	  1 | a -> X.Foo
//	  2 | b -> X.Baz
//	    |        ^
//	  3 | c -> X.Bar
//
// It returns "" when err carries no position.
func Snippet(err error, source string) string {
	line, col, ok := Position(err)
	if !ok {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}
	if line > len(lines) {
		line = len(lines)
	}
	if line < 1 {
		line = 1
	}
	text := lines[line-1]
	if col < 1 {
		col = 1
	}
	if col > len([]rune(text))+1 {
		col = len([]rune(text)) + 1
	}

	first, last := line-1, line+1
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}
	width := len(fmt.Sprint(last))

	var b strings.Builder
	for n := first; n <= last; n++ {
		fmt.Fprintf(&b, "%*d | %s\n", width, n, lines[n-1])
		if n == line {
			fmt.Fprintf(&b, "%*s | %s^\n", width, "", caretPad(text, col))
		}
	}
	return b.String()
}

// caretPad keeps tabs so the caret lines up with the source as displayed.
func caretPad(text string, col int) string {
	var b strings.Builder
	for i, r := range []rune(text) {
		if i >= col-1 {
			break
		}
		if r == '\t' {
			b.WriteRune('\t')
			continue
		}
		b.WriteByte(' ')
	}
	return b.String()
}
