// Package hostsrc derives host objects from files: manifests, Go sources and
// Java sources. Source files are read with tree-sitter; nothing is compiled or
// executed.
//
// Members extracted from a Go source follow the ordering and pairing rules of
// hostdesc.Describe.
package hostsrc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

// Load reads the host described by path. typeName picks the type inside a source
// file; for manifests it is optional and must match the manifest type when set.
// Java sources default to the file's base name.
func Load(path, typeName string) (any, error) {
	p := strings.TrimSpace(path)
	typeName = strings.TrimSpace(typeName)
	ext := strings.ToLower(filepath.Ext(p))
	switch ext {
	case ".yaml", ".yml", ".json", ".hujson", ".jsonc":
		m, err := hostdesc.LoadManifest(p)
		if err != nil {
			return nil, err
		}
		if typeName != "" && typeName != m.Type {
			return nil, fmt.Errorf("type %q not found in %s (manifest describes %q)", typeName, p, m.Type)
		}
		return m.Host(), nil
	case ".go", ".java":
	default:
		return nil, fmt.Errorf("host %q: unsupported extension (expect manifest, .go or .java)", p)
	}

	// #nosec G304 -- host path is provided by the caller by design.
	src, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read host source %q: %w", p, err)
	}
	if ext == ".java" {
		if typeName == "" {
			typeName = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		}
		return FromJavaSource(p, src, typeName)
	}
	if typeName == "" {
		return nil, fmt.Errorf("host %q: host type is required for Go sources", p)
	}
	return FromGoSource(p, src, typeName)
}

// SyntaxError reports source text tree-sitter could not parse cleanly.
type SyntaxError struct {
	File   string
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error in host source", e.File, e.Line, e.Column)
}

func parseTree(name string, lang unsafe.Pointer, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(lang)); err != nil {
		return nil, fmt.Errorf("host source %q: %w", name, err)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("host source %q: parser returned no tree", name)
	}
	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		pos := bad.StartPosition()
		tree.Close()
		return nil, &SyntaxError{File: name, Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
	}
	return tree, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && (c.HasError() || c.IsMissing()) {
			return firstError(c)
		}
	}
	return n
}

func namedChildren(n *sitter.Node, kinds ...string) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		for _, k := range kinds {
			if c.Kind() == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Utf8Text(src))
}

// pairProperties folds getter/setter method pairs into properties. getterName
// maps a method to the property it reads ("" when it is not a getter).
func pairProperties(methods []hostdesc.Member, getterName func(hostdesc.Member) string, setterFor func(string) string) (props, rest []hostdesc.Member) {
	index := map[string]int{}
	for i, m := range methods {
		if _, dup := index[m.Name]; !dup {
			index[m.Name] = i
		}
	}
	consumed := map[int]bool{}
	for i, getter := range methods {
		prop := getterName(getter)
		if prop == "" || consumed[i] || len(getter.Params) != 0 || len(getter.Results) != 1 {
			continue
		}
		j, ok := index[setterFor(prop)]
		if !ok || consumed[j] {
			continue
		}
		setter := methods[j]
		if len(setter.Params) != 1 || len(setter.Results) != 0 || setter.Params[0] != getter.Results[0] {
			continue
		}
		props = append(props, hostdesc.Member{Name: prop, Kind: hostdesc.KindProperty, Type: getter.Results[0]})
		consumed[i], consumed[j] = true, true
	}
	for i, m := range methods {
		if !consumed[i] {
			rest = append(rest, m)
		}
	}
	return props, rest
}
