package hostsrc

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

const (
	javaMarkerInterface  = "XCompileObject"
	javaMarkerAnnotation = "XCompile"
)

// FromJavaSource builds the host for the named class or interface in a Java
// source file. Public instance fields become fields, public instance methods
// become methods, and getFoo/setFoo (or isFoo/setFoo for booleans) pairs become
// a property Foo. The host is bindable when the class implements
// XCompileObject or is annotated with @XCompile.
func FromJavaSource(name string, src []byte, typeName string) (any, error) {
	tree, err := parseTree(name, tree_sitter_java.Language(), src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	decl := findJavaType(tree.RootNode(), typeName, src)
	if decl == nil {
		return nil, fmt.Errorf("type %q not found in %s", typeName, name)
	}
	isInterface := decl.Kind() == "interface_declaration"

	bindable := false
	for _, t := range javaSuperTypes(decl, src) {
		if lastSegment(t) == javaMarkerInterface {
			bindable = true
		}
	}
	_, annos := javaModifiers(decl, src)
	for _, a := range annos {
		if lastSegment(a) == javaMarkerAnnotation {
			bindable = true
		}
	}

	var fields, methods []hostdesc.Member
	body := decl.ChildByFieldName("body")
	for _, n := range namedChildren(body, "field_declaration", "constant_declaration", "method_declaration") {
		mods, _ := javaModifiers(n, src)
		public := isInterface || contains(mods, "public")
		if !public || contains(mods, "static") || n.Kind() == "constant_declaration" {
			continue
		}
		switch n.Kind() {
		case "field_declaration":
			typ := javaType(text(n.ChildByFieldName("type"), src))
			for _, d := range namedChildren(n, "variable_declarator") {
				dt := typ
				if dims := text(d.ChildByFieldName("dimensions"), src); dims != "" {
					dt = strings.Repeat("[]", strings.Count(dims, "[")) + dt
				}
				fields = append(fields, hostdesc.Member{
					Name:     text(d.ChildByFieldName("name"), src),
					Kind:     hostdesc.KindField,
					Type:     dt,
					ReadOnly: contains(mods, "final"),
				})
			}
		case "method_declaration":
			params := javaParams(n.ChildByFieldName("parameters"), src)
			results := []string{}
			if rt := javaType(text(n.ChildByFieldName("type"), src)); rt != "" {
				results = append(results, rt)
			}
			methods = append(methods, hostdesc.Member{
				Name:    text(n.ChildByFieldName("name"), src),
				Kind:    hostdesc.KindMethod,
				Type:    hostdesc.FuncSignature(params, results),
				Params:  params,
				Results: results,
			})
		}
	}

	props, rest := pairProperties(methods, javaGetterProperty, func(prop string) string { return "set" + prop })
	members := make([]hostdesc.Member, 0, len(fields)+len(props)+len(rest))
	members = append(members, fields...)
	members = append(members, props...)
	members = append(members, rest...)
	return hostdesc.NewHost(typeName, members, bindable), nil
}

func findJavaType(n *sitter.Node, typeName string, src []byte) *sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "class_declaration", "interface_declaration":
		if text(n.ChildByFieldName("name"), src) == typeName {
			return n
		}
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if found := findJavaType(n.NamedChild(i), typeName, src); found != nil {
			return found
		}
	}
	return nil
}

// javaSuperTypes lists the implemented (class) or extended (interface) types.
func javaSuperTypes(decl *sitter.Node, src []byte) []string {
	var lists []*sitter.Node
	lists = append(lists, namedChildren(decl, "super_interfaces", "extends_interfaces")...)
	var out []string
	for _, l := range lists {
		for _, tl := range namedChildren(l, "type_list") {
			for i := uint(0); i < tl.NamedChildCount(); i++ {
				t := text(tl.NamedChild(i), src)
				if j := strings.IndexByte(t, '<'); j >= 0 {
					t = t[:j]
				}
				out = append(out, t)
			}
		}
	}
	return out
}

func javaModifiers(n *sitter.Node, src []byte) (mods, annos []string) {
	for _, m := range namedChildren(n, "modifiers") {
		for i := uint(0); i < m.ChildCount(); i++ {
			c := m.Child(i)
			if c == nil {
				continue
			}
			switch c.Kind() {
			case "marker_annotation", "annotation":
				annos = append(annos, text(c.ChildByFieldName("name"), src))
			default:
				if t := text(c, src); t != "" {
					mods = append(mods, t)
				}
			}
		}
	}
	return mods, annos
}

func javaParams(list *sitter.Node, src []byte) []string {
	out := []string{}
	for _, p := range namedChildren(list, "formal_parameter", "spread_parameter") {
		if p.Kind() == "formal_parameter" {
			typ := javaType(text(p.ChildByFieldName("type"), src))
			if dims := text(p.ChildByFieldName("dimensions"), src); dims != "" {
				typ = strings.Repeat("[]", strings.Count(dims, "[")) + typ
			}
			out = append(out, typ)
			continue
		}
		for i := uint(0); i < p.NamedChildCount(); i++ {
			c := p.NamedChild(i)
			if c == nil || c.Kind() == "modifiers" || c.Kind() == "variable_declarator" {
				continue
			}
			out = append(out, "..."+javaType(text(c, src)))
			break
		}
	}
	return out
}

func javaGetterProperty(m hostdesc.Member) string {
	switch {
	case len(m.Name) > 3 && strings.HasPrefix(m.Name, "get") && isExported(m.Name[3:]):
		return m.Name[3:]
	case len(m.Name) > 2 && strings.HasPrefix(m.Name, "is") && isExported(m.Name[2:]) &&
		len(m.Results) == 1 && m.Results[0] == "bool":
		return m.Name[2:]
	}
	return ""
}

var javaScalars = map[string]string{
	"void":    "",
	"String":  "string",
	"boolean": "bool",
	"Boolean": "bool",
	"byte":    "int8",
	"Byte":    "int8",
	"short":   "int16",
	"Short":   "int16",
	"char":    "rune",
	"int":     "int32",
	"Integer": "int32",
	"long":    "int64",
	"Long":    "int64",
	"float":   "float32",
	"Float":   "float32",
	"double":  "float64",
	"Double":  "float64",
	"Object":  "any",
}

// javaType canonicalizes a Java type expression: String -> string,
// List<T> -> []T, Map<K, V> -> map[K]V, T[] -> []T, Optional<T> -> *T.
// "void" maps to "".
func javaType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	if t == "?" || strings.HasPrefix(t, "? ") {
		return "any"
	}
	if strings.HasSuffix(t, "[]") {
		return "[]" + javaType(strings.TrimSuffix(t, "[]"))
	}
	if strings.HasSuffix(t, "...") {
		return "[]" + javaType(strings.TrimSuffix(t, "..."))
	}
	base, args := t, []string(nil)
	if i := strings.IndexByte(t, '<'); i >= 0 && strings.HasSuffix(t, ">") {
		base = strings.TrimSpace(t[:i])
		args = splitTopLevel(t[i+1 : len(t)-1])
	}
	base = lastSegment(base)
	switch base {
	case "List", "ArrayList", "LinkedList", "Collection", "Iterable", "Set", "HashSet":
		if len(args) == 1 {
			return "[]" + javaType(args[0])
		}
		return "[]any"
	case "Map", "HashMap", "LinkedHashMap", "TreeMap":
		if len(args) == 2 {
			return "map[" + javaType(args[0]) + "]" + javaType(args[1])
		}
		return "map[any]any"
	case "Optional":
		if len(args) == 1 {
			return "*" + javaType(args[0])
		}
		return "*any"
	}
	if c, ok := javaScalars[base]; ok {
		return c
	}
	return base
}

func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

func lastSegment(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
