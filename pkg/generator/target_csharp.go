package generator

import (
	"fmt"
	"strings"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

var csharpScalars = map[string]string{
	"bool":    "bool",
	"string":  "string",
	"int":     "long",
	"int8":    "sbyte",
	"int16":   "short",
	"int32":   "int",
	"int64":   "long",
	"uint":    "ulong",
	"uint8":   "byte",
	"byte":    "byte",
	"uint16":  "ushort",
	"uint32":  "uint",
	"uint64":  "ulong",
	"uintptr": "nuint",
	"rune":    "int",
	"float32": "float",
	"float64": "double",
	"any":     "object",
	"error":   "System.Exception",
}

type csharpEmitter struct{}

func (csharpEmitter) indentUnit() string { return "    " }

func (csharpEmitter) mapType(t *TypeExpr) (string, error) {
	switch t.Kind {
	case TypeNamed:
		if s, ok := csharpScalars[t.Name]; ok {
			return s, nil
		}
		if strings.HasPrefix(t.Name, "complex") {
			return "", unrepresentable(t, CSharp)
		}
		return t.Base(), nil
	case TypeSlice, TypeArray:
		elem, err := csharpEmitter{}.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case TypeMap:
		key, err := csharpEmitter{}.mapType(t.Key)
		if err != nil {
			return "", err
		}
		val, err := csharpEmitter{}.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("System.Collections.Generic.IDictionary<%s, %s>", key, val), nil
	case TypePointer:
		elem, err := csharpEmitter{}.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return elem + "?", nil
	default:
		return "", unrepresentable(t, CSharp)
	}
}

func (e csharpEmitter) returnType(results []*TypeExpr) (string, error) {
	if len(results) == 0 {
		return "void", nil
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		s, err := e.mapType(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

func (csharpEmitter) memberName(symbol string, _ hostdesc.Kind) string {
	name := PascalCase(symbol)
	if name == "" {
		return ""
	}
	return safeIdent(name, csharpKeywords)
}

func (csharpEmitter) names(g *glue) []string { return []string{g.Name} }

func (csharpEmitter) reserved(f *fileInfo) []string {
	return []string{f.ClassName, "Host", "_host"}
}

func (csharpEmitter) begin(w *codeWriter, f *fileInfo) {
	w.line("%s", header(f))
	w.line("// Host type: %s", f.HostType)
	w.line("")
	w.line("public sealed partial class %s", f.ClassName)
	w.line("{")
	w.in()
	w.line("private readonly %s _host;", f.HostType)
	w.line("")
	w.line("public %s(%s host)", f.ClassName, f.HostType)
	w.line("{")
	w.in()
	w.line("_host = host ?? throw new System.ArgumentNullException(nameof(host));")
	w.out()
	w.line("}")
	w.line("")
	w.line("public %s Host => _host;", f.HostType)
}

func (csharpEmitter) emit(w *codeWriter, _ *fileInfo, g *glue) {
	m := g.Decl.Member
	w.line("")
	w.line("// %s", describe(g.Decl))
	if m.Kind == hostdesc.KindMethod {
		params := make([]string, 0, len(g.Params))
		for _, p := range g.Params {
			if p.Variadic {
				params = append(params, fmt.Sprintf("params %s[] %s", p.Type, p.Name))
				continue
			}
			params = append(params, p.Type+" "+p.Name)
		}
		w.line("public %s %s(%s) => _host.%s(%s);", g.Return, g.Name, strings.Join(params, ", "), m.Name, paramNames(g.Params))
		return
	}
	if !g.Settable {
		w.line("public %s %s => _host.%s;", g.Value, g.Name, m.HostName())
		return
	}
	w.line("public %s %s", g.Value, g.Name)
	w.line("{")
	w.in()
	w.line("get => _host.%s;", m.HostName())
	w.line("set => _host.%s = value;", m.HostName())
	w.out()
	w.line("}")
}

func (csharpEmitter) end(w *codeWriter, _ *fileInfo) {
	w.out()
	w.line("}")
}
