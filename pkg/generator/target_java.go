package generator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

var javaScalars = map[string]string{
	"bool":    "boolean",
	"string":  "String",
	"int":     "long",
	"int8":    "byte",
	"int16":   "short",
	"int32":   "int",
	"int64":   "long",
	"uint":    "long",
	"uint8":   "byte",
	"byte":    "byte",
	"uint16":  "int",
	"uint32":  "long",
	"uint64":  "long",
	"uintptr": "long",
	"rune":    "int",
	"float32": "float",
	"float64": "double",
	"any":     "Object",
	"error":   "Exception",
}

var javaBoxed = map[string]string{
	"boolean": "Boolean",
	"byte":    "Byte",
	"short":   "Short",
	"int":     "Integer",
	"long":    "Long",
	"float":   "Float",
	"double":  "Double",
	"char":    "Character",
}

func javaBox(s string) string {
	if b, ok := javaBoxed[s]; ok {
		return b
	}
	return s
}

type javaEmitter struct{}

func (javaEmitter) indentUnit() string { return "    " }

func (e javaEmitter) mapType(t *TypeExpr) (string, error) {
	switch t.Kind {
	case TypeNamed:
		if s, ok := javaScalars[t.Name]; ok {
			return s, nil
		}
		if strings.HasPrefix(t.Name, "complex") {
			return "", unrepresentable(t, Java)
		}
		return t.Base(), nil
	case TypeSlice, TypeArray:
		elem, err := e.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case TypeMap:
		key, err := e.mapType(t.Key)
		if err != nil {
			return "", err
		}
		val, err := e.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("java.util.Map<%s, %s>", javaBox(key), javaBox(val)), nil
	case TypePointer:
		elem, err := e.mapType(t.Elem)
		if err != nil {
			return "", err
		}
		return javaBox(elem), nil
	default:
		return "", unrepresentable(t, Java)
	}
}

func (e javaEmitter) returnType(results []*TypeExpr) (string, error) {
	switch len(results) {
	case 0:
		return "void", nil
	case 1:
		return e.mapType(results[0])
	default:
		return "", errors.New("multiple results have no java equivalent")
	}
}

func (javaEmitter) memberName(symbol string, _ hostdesc.Kind) string {
	name := CamelCase(symbol)
	if name == "" {
		return ""
	}
	return safeIdent(name, javaKeywords)
}

func upperFirst(s string) string {
	rs := []rune(s)
	if len(rs) == 0 {
		return s
	}
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

func (javaEmitter) accessors(g *glue) (getter, setter string) {
	prefix := "get"
	if g.Value == "boolean" {
		prefix = "is"
	}
	return prefix + upperFirst(g.Name), "set" + upperFirst(g.Name)
}

func (e javaEmitter) names(g *glue) []string {
	if g.Decl.Member.Kind == hostdesc.KindMethod {
		return []string{g.Name}
	}
	getter, setter := e.accessors(g)
	if g.Settable {
		return []string{getter, setter}
	}
	return []string{getter}
}

func (javaEmitter) reserved(*fileInfo) []string {
	return []string{"host", "getHost"}
}

func (javaEmitter) begin(w *codeWriter, f *fileInfo) {
	w.line("%s", header(f))
	w.line("")
	w.line("public final class %s {", f.ClassName)
	w.in()
	w.line("private final %s host;", f.HostType)
	w.line("")
	w.line("public %s(%s host) {", f.ClassName, f.HostType)
	w.in()
	w.line("this.host = java.util.Objects.requireNonNull(host, \"host\");")
	w.out()
	w.line("}")
	w.line("")
	w.line("public %s getHost() {", f.HostType)
	w.in()
	w.line("return host;")
	w.out()
	w.line("}")
}

func (e javaEmitter) emit(w *codeWriter, _ *fileInfo, g *glue) {
	m := g.Decl.Member
	w.line("")
	w.line("/** %s */", describe(g.Decl))
	if m.Kind == hostdesc.KindMethod {
		params := make([]string, 0, len(g.Params))
		for _, p := range g.Params {
			if p.Variadic {
				params = append(params, fmt.Sprintf("%s... %s", p.Type, p.Name))
				continue
			}
			params = append(params, p.Type+" "+p.Name)
		}
		call := fmt.Sprintf("host.%s(%s)", m.Name, paramNames(g.Params))
		w.line("public %s %s(%s) {", g.Return, g.Name, strings.Join(params, ", "))
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

	getter, setter := e.accessors(g)
	read := "host." + m.HostName()
	write := "host." + m.HostName() + " = value"
	if !m.FieldBacked() {
		hostGetter := "get"
		if g.Value == "boolean" {
			hostGetter = "is"
		}
		read = fmt.Sprintf("host.%s%s()", hostGetter, upperFirst(m.Name))
		write = fmt.Sprintf("host.set%s(value)", upperFirst(m.Name))
	}
	w.line("public %s %s() {", g.Value, getter)
	w.in()
	w.line("return %s;", read)
	w.out()
	w.line("}")
	if g.Settable {
		w.line("")
		w.line("public void %s(%s value) {", setter, g.Value)
		w.in()
		w.line("%s;", write)
		w.out()
		w.line("}")
	}
}

func (javaEmitter) end(w *codeWriter, _ *fileInfo) {
	w.out()
	w.line("}")
}
