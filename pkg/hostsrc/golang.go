package hostsrc

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

// FromGoSource builds the host for the named type declared in a Go source file.
// Exported struct fields become fields, exported methods declared on the type
// (value or pointer receiver) become methods, and Foo/SetFoo pairs become
// properties. The host is bindable when the file declares XCompileHost on it.
func FromGoSource(name string, src []byte, typeName string) (any, error) {
	tree, err := parseTree(name, tree_sitter_go.Language(), src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	var (
		found    bool
		bindable bool
		fields   []hostdesc.Member
		props    []hostdesc.Member
		methods  []hostdesc.Member
	)
	for _, decl := range namedChildren(root, "type_declaration", "method_declaration") {
		switch decl.Kind() {
		case "type_declaration":
			for _, spec := range namedChildren(decl, "type_spec") {
				if text(spec.ChildByFieldName("name"), src) != typeName {
					continue
				}
				found = true
				if st := spec.ChildByFieldName("type"); st != nil && st.Kind() == "struct_type" {
					f, p := goStructFields(st, src)
					fields = append(fields, f...)
					props = append(props, p...)
				}
			}
		case "method_declaration":
			if goReceiverType(decl.ChildByFieldName("receiver"), src) != typeName {
				continue
			}
			mname := text(decl.ChildByFieldName("name"), src)
			if mname == hostdesc.MarkerMethod {
				bindable = true
				continue
			}
			if !isExported(mname) {
				continue
			}
			params := goParams(decl.ChildByFieldName("parameters"), src)
			results := goResults(decl.ChildByFieldName("result"), src)
			methods = append(methods, hostdesc.Member{
				Name:    mname,
				Kind:    hostdesc.KindMethod,
				Type:    hostdesc.FuncSignature(params, results),
				Params:  params,
				Results: results,
			})
		}
	}
	if !found {
		return nil, fmt.Errorf("type %q not found in %s", typeName, name)
	}

	sort.SliceStable(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })
	paired, rest := pairProperties(methods,
		func(m hostdesc.Member) string { return m.Name },
		func(prop string) string { return "Set" + prop })

	members := make([]hostdesc.Member, 0, len(fields)+len(props)+len(paired)+len(rest))
	members = append(members, fields...)
	members = append(members, props...)
	members = append(members, paired...)
	members = append(members, rest...)
	return hostdesc.NewHost(typeName, members, bindable), nil
}

func goStructFields(st *sitter.Node, src []byte) (fields, props []hostdesc.Member) {
	for _, list := range namedChildren(st, "field_declaration_list") {
		for _, fd := range namedChildren(list, "field_declaration") {
			names := namedChildren(fd, "field_identifier")
			if len(names) == 0 {
				continue // embedded
			}
			typ := goType(text(fd.ChildByFieldName("type"), src))
			opts := hostdesc.ParseFieldTag(goTag(text(fd.ChildByFieldName("tag"), src)))
			if opts.Skip {
				continue
			}
			for _, n := range names {
				fname := text(n, src)
				if !isExported(fname) {
					continue
				}
				m := hostdesc.Member{Name: fname, Kind: hostdesc.KindField, Type: typ, ReadOnly: opts.ReadOnly}
				if opts.Name != "" || opts.Property {
					m.Field = fname
				}
				if opts.Name != "" {
					m.Name = opts.Name
				}
				if opts.Property {
					m.Kind = hostdesc.KindProperty
					props = append(props, m)
					continue
				}
				fields = append(fields, m)
			}
		}
	}
	return fields, props
}

func goTag(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "`") {
		raw = strings.Trim(raw, "`")
	} else if s, err := strconv.Unquote(raw); err == nil {
		raw = s
	}
	return reflect.StructTag(raw).Get("xcompile")
}

// goReceiverType returns "T" for receivers `(t T)`, `(t *T)` and `(t *T[K])`.
func goReceiverType(recv *sitter.Node, src []byte) string {
	for _, p := range namedChildren(recv, "parameter_declaration") {
		t := text(p.ChildByFieldName("type"), src)
		t = strings.TrimSpace(strings.TrimPrefix(t, "*"))
		if i := strings.IndexByte(t, '['); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return ""
}

func goParams(list *sitter.Node, src []byte) []string {
	out := []string{}
	for _, p := range namedChildren(list, "parameter_declaration", "variadic_parameter_declaration") {
		typ := goType(text(p.ChildByFieldName("type"), src))
		if p.Kind() == "variadic_parameter_declaration" {
			out = append(out, "..."+typ)
			continue
		}
		n := len(namedChildren(p, "identifier"))
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, typ)
		}
	}
	return out
}

func goResults(res *sitter.Node, src []byte) []string {
	if res == nil {
		return []string{}
	}
	if res.Kind() == "parameter_list" {
		return goParams(res, src)
	}
	return []string{goType(text(res, src))}
}

// goType normalizes a type expression the way reflect prints it.
func goType(t string) string {
	t = strings.Join(strings.Fields(t), " ")
	t = strings.ReplaceAll(t, "interface{}", "any")
	return strings.ReplaceAll(t, "interface {}", "any")
}

func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
