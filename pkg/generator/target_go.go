package generator

import (
	"fmt"
	"strings"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

type goEmitter struct{}

func (goEmitter) indentUnit() string { return "\t" }

func (e goEmitter) mapType(t *TypeExpr) (string, error) {
	switch t.Kind {
	case TypeFunc, TypeStruct:
		return "", unrepresentable(t, Go)
	case TypeSlice, TypeArray, TypeMap, TypePointer, TypeChan:
		if t.Key != nil {
			if _, err := e.mapType(t.Key); err != nil {
				return "", err
			}
		}
		if _, err := e.mapType(t.Elem); err != nil {
			return "", err
		}
	}
	return t.String(), nil
}

func (e goEmitter) returnType(results []*TypeExpr) (string, error) {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		s, err := e.mapType(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	default:
		return "(" + strings.Join(parts, ", ") + ")", nil
	}
}

func (goEmitter) memberName(symbol string, _ hostdesc.Kind) string {
	name := PascalCase(symbol)
	if name == "" {
		return ""
	}
	return safeIdent(name, goKeywords)
}

func (goEmitter) names(g *glue) []string {
	if g.Decl.Member.Kind != hostdesc.KindMethod && g.Settable {
		return []string{g.Name, "Set" + g.Name}
	}
	return []string{g.Name}
}

func (goEmitter) reserved(*fileInfo) []string { return []string{"Host"} }

func (goEmitter) begin(w *codeWriter, f *fileInfo) {
	w.line("%s", header(f))
	w.line("")
	w.line("package %s", GoPackageName(f.OutputName))
	w.line("")
	w.line("// %s binds %s symbols to a live %s.", f.ClassName, f.Language, f.HostType)
	w.line("type %s struct {", f.ClassName)
	w.in()
	w.line("Host *%s", f.HostType)
	w.out()
	w.line("}")
	w.line("")
	w.line("func New%s(host *%s) *%s {", f.ClassName, f.HostType, f.ClassName)
	w.in()
	w.line("return &%s{Host: host}", f.ClassName)
	w.out()
	w.line("}")
}

func (goEmitter) emit(w *codeWriter, f *fileInfo, g *glue) {
	m := g.Decl.Member
	recv := fmt.Sprintf("func (b *%s)", f.ClassName)
	w.line("")
	w.line("// %s binds %s.", g.Name, describe(g.Decl))

	if m.Kind == hostdesc.KindMethod {
		params := make([]string, 0, len(g.Params))
		args := make([]string, 0, len(g.Params))
		for _, p := range g.Params {
			if p.Variadic {
				params = append(params, p.Name+" ..."+p.Type)
				args = append(args, p.Name+"...")
				continue
			}
			params = append(params, p.Name+" "+p.Type)
			args = append(args, p.Name)
		}
		sig := fmt.Sprintf("%s %s(%s)", recv, g.Name, strings.Join(params, ", "))
		if g.Return != "" {
			sig += " " + g.Return
		}
		call := fmt.Sprintf("b.Host.%s(%s)", m.Name, strings.Join(args, ", "))
		w.line("%s {", sig)
		w.in()
		if g.Results > 0 {
			w.line("return %s", call)
		} else {
			w.line("%s", call)
		}
		w.out()
		w.line("}")
		return
	}

	read, write := "b.Host."+m.HostName(), "b.Host."+m.HostName()+" = v"
	if !m.FieldBacked() {
		read, write = "b.Host."+m.Name+"()", "b.Host.Set"+m.Name+"(v)"
	}
	w.line("%s %s() %s {", recv, g.Name, g.Value)
	w.in()
	w.line("return %s", read)
	w.out()
	w.line("}")
	if g.Settable {
		w.line("")
		w.line("%s Set%s(v %s) {", recv, g.Name, g.Value)
		w.in()
		w.line("%s", write)
		w.out()
		w.line("}")
	}
}

func (goEmitter) end(*codeWriter, *fileInfo) {}
