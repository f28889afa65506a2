package generator

import (
	"fmt"
	"strings"
	"sync"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// GenerationError reports a declaration a target could not emit. It is
// delivered to the Sink; it never aborts the other declarations or targets.
type GenerationError struct {
	Target Target
	Symbol string
	Member string
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "generate %s", e.Target)
	if e.Symbol != "" {
		fmt.Fprintf(&b, ": %s", e.Symbol)
		if e.Member != "" {
			fmt.Fprintf(&b, " -> %s", e.Member)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Diagnostic is one message delivered to a Sink.
type Diagnostic struct {
	Target   Target
	Severity Severity
	Symbol   string
	Member   string
	Message  string
	Err      error
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", d.Target, d.Severity)
	if d.Symbol != "" {
		fmt.Fprintf(&b, " %s", d.Symbol)
		if d.Member != "" {
			fmt.Fprintf(&b, " -> %s", d.Member)
		}
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

func diagnosticFor(err *GenerationError) Diagnostic {
	msg := err.Reason
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return Diagnostic{
		Target:   err.Target,
		Severity: SeverityError,
		Symbol:   err.Symbol,
		Member:   err.Member,
		Message:  msg,
		Err:      err,
	}
}

// Sink receives generation diagnostics.
type Sink interface {
	Report(Diagnostic)
}

type SinkFunc func(Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Collector keeps every reported diagnostic. It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.diags = append(c.diags, d)
	c.mu.Unlock()
}

func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diags...)
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}

// Tee reports every diagnostic to each non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(d)
			}
		}
	})
}
