package generator

import (
	"fmt"
	"strings"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

var typescriptScalars = map[string]string{
	"bool":    "boolean",
	"string":  "string",
	"int":     "number",
	"int8":    "number",
	"int16":   "number",
	"int32":   "number",
	"int64":   "bigint",
	"uint":    "number",
	"uint8":   "number",
	"byte":    "number",
	"uint16":  "number",
	"uint32":  "number",
	"uint64":  "bigint",
	"uintptr": "bigint",
	"rune":    "number",
	"float32": "number",
	"float64": "number",
	"any":     "unknown",
	"error":   "Error",
}

type typescriptEmitter struct{}

func (typescriptEmitter) indentUnit() string { return "  " }

func (e typescriptEmitter) mapType(t *TypeExpr) (string, error) {
	switch t.Kind {
	case TypeNamed:
		if s, ok := typescriptScalars[t.Name]; ok {
			return s, nil
		}
		if strings.HasPrefix(t.Name, "complex") {
			return "", unrepresentable(t, TypeScript)
		}
		return t.Base(), nil
	case TypeSlice, TypeArray:
		elem, err := e.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return "Array<" + elem + ">", nil
	case TypeMap:
		key, err := e.mapType(t.Key)
		if err != nil {
			return "", err
		}
		val, err := e.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Map<%s, %s>", key, val), nil
	case TypePointer:
		elem, err := e.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return elem + " | null", nil
	default:
		return "", unrepresentable(t, TypeScript)
	}
}

func (e typescriptEmitter) returnType(results []*TypeExpr) (string, error) {
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
		return "void", nil
	case 1:
		return parts[0], nil
	default:
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
}

func (typescriptEmitter) memberName(symbol string, _ hostdesc.Kind) string {
	name := CamelCase(symbol)
	if name == "" {
		return ""
	}
	return safeIdent(name, typescriptKeywords)
}

func (typescriptEmitter) names(g *glue) []string { return []string{g.Name} }

func (typescriptEmitter) reserved(*fileInfo) []string {
	return []string{"host", "constructor"}
}

func hostBase(hostType string) string {
	if i := strings.LastIndexByte(hostType, '.'); i >= 0 {
		return hostType[i+1:]
	}
	return hostType
}

func (typescriptEmitter) begin(w *codeWriter, f *fileInfo) {
	host := hostBase(f.HostType)
	w.line("%s", header(f))
	w.line("")
	w.line("import type { %s } from \"./%s\";", host, host)
	w.line("")
	w.line("export class %s {", f.ClassName)
	w.in()
	w.line("constructor(public readonly host: %s) {}", host)
}

func (typescriptEmitter) emit(w *codeWriter, _ *fileInfo, g *glue) {
	m := g.Decl.Member
	w.line("")
	w.line("/** %s */", describe(g.Decl))
	if m.Kind == hostdesc.KindMethod {
		params := make([]string, 0, len(g.Params))
		args := make([]string, 0, len(g.Params))
		for _, p := range g.Params {
			if p.Variadic {
				params = append(params, fmt.Sprintf("...%s: Array<%s>", p.Name, p.Type))
				args = append(args, "..."+p.Name)
				continue
			}
			params = append(params, p.Name+": "+p.Type)
			args = append(args, p.Name)
		}
		call := fmt.Sprintf("this.host.%s(%s)", m.Name, strings.Join(args, ", "))
		w.line("%s(%s): %s {", g.Name, strings.Join(params, ", "), g.Return)
		w.in()
		if g.Results > 0 {
			w.line("return %s;", call)
		} else {
			w.line("%s;", call)
		}
		w.out()
		w.line("}")
		return
	}
	w.line("get %s(): %s {", g.Name, g.Value)
	w.in()
	w.line("return this.host.%s;", m.HostName())
	w.out()
	w.line("}")
	if g.Settable {
		w.line("")
		w.line("set %s(value: %s) {", g.Name, g.Value)
		w.in()
		w.line("this.host.%s = value;", m.HostName())
		w.out()
		w.line("}")
	}
}

func (typescriptEmitter) end(w *codeWriter, _ *fileInfo) {
	w.out()
	w.line("}")
}
