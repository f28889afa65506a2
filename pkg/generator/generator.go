// Package generator turns a bindast.ProgramRoot into source text for one
// target language.
//
// Each target emits a single file holding one class (or struct) that keeps a
// live reference to the host, typed as the host's declared type, and one glue
// member per declaration in program order. A declaration the target cannot
// express is reported to the Sink as a *GenerationError and left out; the
// rest of the file is still produced and Output.Partial is set.
//
// Output is a pure function of the program, the output name and the target.
package generator

import (
	"fmt"
	"strings"

	"github.com/r9s-ai/xcompile/pkg/bindast"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

// Generator emits code for one target.
type Generator interface {
	Target() Target
	Generate(root *bindast.ProgramRoot, outputName string, sink Sink) Output
}

// Output is one generated file.
type Output struct {
	Target   Target
	FileName string
	Content  []byte
	// Partial is set when at least one declaration was skipped.
	Partial bool
	Emitted int
	Skipped int
}

// For returns a fresh generator for target.
func For(target Target) (Generator, error) {
	var em emitter
	switch target {
	case CSharp:
		em = csharpEmitter{}
	case Go:
		em = goEmitter{}
	case TypeScript:
		em = typescriptEmitter{}
	case Java:
		em = javaEmitter{}
	default:
		return nil, fmt.Errorf("generator: unsupported target %s", target)
	}
	return &codeGenerator{target: target, em: em}, nil
}

// Generate runs the generator for target once.
func Generate(root *bindast.ProgramRoot, outputName string, target Target, sink Sink) (Output, error) {
	g, err := For(target)
	if err != nil {
		return Output{}, err
	}
	return g.Generate(root, outputName, sink), nil
}

// emitter is the per-target part of code generation.
type emitter interface {
	indentUnit() string
	mapType(t *TypeExpr) (string, error)
	// returnType renders a method result list.
	returnType(results []*TypeExpr) (string, error)
	memberName(symbol string, kind hostdesc.Kind) string
	// names lists every identifier g occupies in the generated class.
	names(g *glue) []string
	reserved(f *fileInfo) []string
	begin(w *codeWriter, f *fileInfo)
	emit(w *codeWriter, f *fileInfo, g *glue)
	end(w *codeWriter, f *fileInfo)
}

type fileInfo struct {
	Target     Target
	Language   string
	HostType   string
	OutputName string
	ClassName  string
}

type param struct {
	Name     string
	Type     string
	Variadic bool
}

// glue is one declaration with every type already rendered for the target.
type glue struct {
	Decl     bindast.BindingDeclaration
	Name     string
	Value    string
	Params   []param
	Return   string
	Results  int
	Settable bool
}

type codeGenerator struct {
	target Target
	em     emitter
}

func (g *codeGenerator) Target() Target { return g.target }

func (g *codeGenerator) Generate(root *bindast.ProgramRoot, outputName string, sink Sink) Output {
	if sink == nil {
		sink = Discard
	}
	outputName = strings.TrimSpace(outputName)
	if outputName == "" {
		outputName = root.Language()
	}
	out := Output{Target: g.target, FileName: outputName + g.target.Extension()}
	f := &fileInfo{
		Target:     g.target,
		Language:   root.Language(),
		HostType:   root.HostType(),
		OutputName: outputName,
		ClassName:  ClassName(outputName),
	}

	w := &codeWriter{unit: g.em.indentUnit()}
	g.em.begin(w, f)
	owner := map[string]string{}
	for _, name := range g.em.reserved(f) {
		owner[name] = ""
	}
	for _, d := range root.Declarations() {
		gl, gerr := g.prepare(d)
		if gerr == nil {
			gerr = g.claim(owner, gl)
		}
		if gerr != nil {
			sink.Report(diagnosticFor(gerr))
			out.Skipped++
			continue
		}
		g.em.emit(w, f, gl)
		out.Emitted++
	}
	g.em.end(w, f)

	out.Content = []byte(w.String())
	out.Partial = out.Skipped > 0
	return out
}

func (g *codeGenerator) fail(d bindast.BindingDeclaration, reason string, err error) *GenerationError {
	return &GenerationError{Target: g.target, Symbol: d.Symbol, Member: d.Member.Name, Reason: reason, Err: err}
}

func (g *codeGenerator) prepare(d bindast.BindingDeclaration) (*glue, *GenerationError) {
	m := d.Member
	gl := &glue{Decl: d, Name: g.em.memberName(d.Symbol, m.Kind)}
	if gl.Name == "" {
		return nil, g.fail(d, fmt.Sprintf("symbol %q has no %s identifier", d.Symbol, g.target), nil)
	}

	if m.Kind != hostdesc.KindMethod {
		t, err := ParseType(m.Type)
		if err != nil {
			return nil, g.fail(d, "unparsable member type", err)
		}
		if gl.Value, err = g.em.mapType(t); err != nil {
			return nil, g.fail(d, "unrepresentable type", err)
		}
		gl.Settable = !m.ReadOnly
		return gl, nil
	}

	for i, p := range m.Params {
		t, err := ParseParam(p)
		if err != nil {
			return nil, g.fail(d, "unparsable parameter type", err)
		}
		pt := t
		if t.Variadic {
			if i != len(m.Params)-1 {
				return nil, g.fail(d, "unparsable parameter type", fmt.Errorf("variadic parameter %d is not last", i))
			}
			pt = t.Elem
		}
		rendered, err := g.em.mapType(pt)
		if err != nil {
			return nil, g.fail(d, "unrepresentable type", err)
		}
		gl.Params = append(gl.Params, param{Name: fmt.Sprintf("arg%d", i), Type: rendered, Variadic: t.Variadic})
	}
	results := make([]*TypeExpr, 0, len(m.Results))
	for _, r := range m.Results {
		t, err := ParseType(r)
		if err != nil {
			return nil, g.fail(d, "unparsable result type", err)
		}
		results = append(results, t)
	}
	ret, err := g.em.returnType(results)
	if err != nil {
		return nil, g.fail(d, "unrepresentable type", err)
	}
	gl.Return = ret
	gl.Results = len(results)
	return gl, nil
}

// claim registers the identifiers of gl, failing when one is already taken
// by the scaffold or by an earlier declaration.
func (g *codeGenerator) claim(owner map[string]string, gl *glue) *GenerationError {
	names := g.em.names(gl)
	for _, n := range names {
		prev, taken := owner[n]
		if !taken {
			continue
		}
		what := "a generated member"
		if prev != "" {
			what = fmt.Sprintf("symbol %q", prev)
		}
		return g.fail(gl.Decl, fmt.Sprintf("name collision: %q is already used by %s", n, what), nil)
	}
	for _, n := range names {
		owner[n] = gl.Decl.Symbol
	}
	return nil
}

func unrepresentable(t *TypeExpr, target Target) error {
	return fmt.Errorf("%s has no %s equivalent", t, target)
}

type codeWriter struct {
	b     strings.Builder
	depth int
	unit  string
}

func (w *codeWriter) line(format string, args ...any) {
	if format == "" {
		w.b.WriteByte('\n')
		return
	}
	w.b.WriteString(strings.Repeat(w.unit, w.depth))
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		fmt.Fprintf(&w.b, format, args...)
	}
	w.b.WriteByte('\n')
}

func (w *codeWriter) in()  { w.depth++ }
func (w *codeWriter) out() { w.depth-- }

func (w *codeWriter) String() string { return w.b.String() }

// header is the first line of every generated file.
func header(f *fileInfo) string {
	lang := f.Language
	if lang == "" {
		lang = "binding"
	}
	return fmt.Sprintf("// Code generated by xcompile from %s bindings. DO NOT EDIT.", lang)
}

// describe is the comment placed above each glue member.
func describe(d bindast.BindingDeclaration) string {
	return fmt.Sprintf("%s (%s %s)", d.String(), d.Member.Kind, d.Member.Type)
}

func paramNames(ps []param) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
