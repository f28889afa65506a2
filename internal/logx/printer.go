package logx

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/r9s-ai/xcompile/pkg/bindparse"
	"github.com/r9s-ai/xcompile/pkg/generator"
	"github.com/r9s-ai/xcompile/pkg/xcompile"
)

// Printer writes compile errors, diagnostics and summaries. It is safe for
// concurrent use; each call writes whole lines.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
	s  styles
}

func NewPrinter(w io.Writer, colorMode string) *Printer {
	color := UseColor(w, colorMode)
	return &Printer{w: w, s: newStyles(w, color)}
}

// Error prints a fatal compile error. Positioned errors get a caret snippet
// of source.
func (p *Printer) Error(err error, source string) {
	if p == nil || err == nil {
		return
	}
	var b strings.Builder
	label := p.s.render(p.s.err, "error")
	if kind := xcompile.ErrorKind(err); kind != "" && kind != "internal" {
		label += p.s.render(p.s.dim, "["+kind+"]")
	}
	fmt.Fprintf(&b, "%s: %s\n", label, err.Error())
	if snippet := bindparse.Snippet(err, source); snippet != "" {
		b.WriteString(p.styleSnippet(snippet))
	}
	p.write(b.String())
}

func (p *Printer) styleSnippet(snippet string) string {
	if !p.s.enabled {
		return snippet
	}
	lines := strings.SplitAfter(snippet, "\n")
	for i, l := range lines {
		if strings.HasSuffix(strings.TrimRight(l, "\n"), "^") {
			body := strings.TrimRight(l, "\n")
			lines[i] = body[:len(body)-1] + p.s.render(p.s.caret, "^") + l[len(body):]
		}
	}
	return strings.Join(lines, "")
}

// Diagnostic prints one generation diagnostic.
func (p *Printer) Diagnostic(d generator.Diagnostic) {
	if p == nil {
		return
	}
	sev := p.s.render(p.s.err, d.Severity.String())
	if d.Severity == generator.SeverityWarning {
		sev = p.s.render(p.s.warn, d.Severity.String())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]", sev, d.Target)
	if d.Symbol != "" {
		fmt.Fprintf(&b, " %s", p.s.render(p.s.bold, d.Symbol))
		if d.Member != "" {
			fmt.Fprintf(&b, " -> %s", d.Member)
		}
	}
	fmt.Fprintf(&b, ": %s\n", d.Message)
	p.write(b.String())
}

// Sink adapts the printer to a generator.Sink.
func (p *Printer) Sink() generator.Sink {
	return generator.SinkFunc(p.Diagnostic)
}

// Result prints one line per generated output.
func (p *Printer) Result(job string, res *xcompile.Result) {
	if p == nil || res == nil {
		return
	}
	prefix := ""
	if job != "" {
		prefix = p.s.render(p.s.bold, job) + ": "
	}
	if res.Skipped {
		p.write(fmt.Sprintf("%s%s\n", prefix, p.s.render(p.s.dim, "no declarations, nothing generated")))
		return
	}
	var b strings.Builder
	for _, o := range res.Outputs {
		where := o.Path
		if where == "" {
			where = o.FileName
		}
		status := p.s.render(p.s.ok, "ok")
		if o.Partial {
			status = p.s.render(p.s.warn, "partial")
		}
		fmt.Fprintf(&b, "%s%s %s (%d declarations)\n", prefix, status, where, res.Declarations)
	}
	p.write(b.String())
}

// Checked prints the outcome of a parse-only run.
func (p *Printer) Checked(job string, res *xcompile.Result) {
	if p == nil || res == nil {
		return
	}
	prefix := ""
	if job != "" {
		prefix = p.s.render(p.s.bold, job) + ": "
	}
	if res.Skipped {
		p.write(fmt.Sprintf("%s%s\n", prefix, p.s.render(p.s.dim, "no declarations")))
		return
	}
	p.write(fmt.Sprintf("%s%s %d declarations bound to %s\n", prefix, p.s.render(p.s.ok, "ok"), res.Declarations, res.HostType))
}

func (p *Printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, s)
}
