package bindparse

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError is a lexical or grammatical violation of a binding dialect.
// Every dialect reports failures through it, so every failure carries a position.
type ParseError struct {
	File   string
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	file := strings.TrimSpace(e.File)
	if file == "" {
		file = "<source>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, e.Line, e.Column, strings.TrimSpace(e.Msg))
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Errorf builds a ParseError at line:col.
func Errorf(file string, line, col int, format string, args ...any) *ParseError {
	return &ParseError{File: file, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

// BindingResolutionError reports a reference to a host member that the host
// descriptor does not contain. Symbol is the reference exactly as written.
type BindingResolutionError struct {
	File    string
	Symbol  string
	Binding string
	Host    string
	Line    int
	Column  int
	Reason  string
}

func (e *BindingResolutionError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Line > 0 {
		file := strings.TrimSpace(e.File)
		if file == "" {
			file = "<source>"
		}
		fmt.Fprintf(&b, "%s:%d:%d: ", file, e.Line, e.Column)
	}
	fmt.Fprintf(&b, "unresolved host member %q", e.Symbol)
	if e.Binding != "" {
		fmt.Fprintf(&b, " (bound by %q)", e.Binding)
	}
	if e.Host != "" {
		fmt.Fprintf(&b, " on host %s", e.Host)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Position returns the 1-based location carried by err, if any.
func Position(err error) (line, col int, ok bool) {
	var perr *ParseError
	if errors.As(err, &perr) && perr.Line > 0 {
		return perr.Line, perr.Column, true
	}
	var rerr *BindingResolutionError
	if errors.As(err, &rerr) && rerr.Line > 0 {
		return rerr.Line, rerr.Column, true
	}
	return 0, 0, false
}
