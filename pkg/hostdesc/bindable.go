package hostdesc

import (
	"fmt"
	"reflect"
	"strings"
)

// Bindable is the capability a host object declares to take part in a compile.
// Conformance is checked on the dynamic type, never on its embedding or ancestry.
type Bindable interface {
	XCompileHost()
}

// MemberSource is implemented by hosts that describe themselves instead of being
// introspected by reflection (manifests, source-derived hosts).
type MemberSource interface {
	HostMembers() (typeName string, members []Member)
}

// InvalidHostTypeError reports a host object without the Bindable capability.
type InvalidHostTypeError struct {
	TypeName string
}

func (e *InvalidHostTypeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid host type %s: does not implement hostdesc.Bindable", e.TypeName)
}

// Check validates that v carries the Bindable capability.
func Check(v any) error {
	if v == nil {
		return &InvalidHostTypeError{TypeName: "<nil>"}
	}
	if _, ok := v.(Bindable); !ok {
		return &InvalidHostTypeError{TypeName: reflect.TypeOf(v).String()}
	}
	return nil
}

// MarkerMethod is the method name of the Bindable capability. It is never
// reported as a member.
const MarkerMethod = "XCompileHost"

// Describe builds the descriptor of v. Hosts implementing MemberSource are asked for
// their members; any other value is introspected by reflection.
func Describe(v any) (*Descriptor, error) {
	if v == nil {
		return nil, fmt.Errorf("describe host: nil value")
	}
	if src, ok := v.(MemberSource); ok {
		name, members := src.HostMembers()
		return NewDescriptor(name, members)
	}
	return describeValue(reflect.TypeOf(v))
}

func describeValue(t reflect.Type) (*Descriptor, error) {
	st := t
	for st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	typeName := st.Name()
	if typeName == "" {
		typeName = st.String()
	}

	var fields, props, methods []Member
	if st.Kind() == reflect.Struct {
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if !f.IsExported() || f.Anonymous {
				continue
			}
			opts := ParseFieldTag(f.Tag.Get("xcompile"))
			if opts.Skip {
				continue
			}
			m := Member{Name: f.Name, Kind: KindField, Type: typeString(f.Type), ReadOnly: opts.ReadOnly}
			if opts.Name != "" || opts.Property {
				m.Field = f.Name
			}
			if opts.Name != "" {
				m.Name = opts.Name
			}
			if opts.Property {
				m.Kind = KindProperty
				props = append(props, m)
				continue
			}
			fields = append(fields, m)
		}
	}

	consumed := map[string]bool{MarkerMethod: true}
	for i := 0; i < t.NumMethod(); i++ {
		getter := t.Method(i)
		if consumed[getter.Name] || getter.Type.NumIn() != 1 || getter.Type.NumOut() != 1 {
			continue
		}
		setter, ok := t.MethodByName("Set" + getter.Name)
		if !ok || setter.Type.NumIn() != 2 || setter.Type.NumOut() != 0 {
			continue
		}
		if setter.Type.In(1) != getter.Type.Out(0) {
			continue
		}
		props = append(props, Member{Name: getter.Name, Kind: KindProperty, Type: typeString(getter.Type.Out(0))})
		consumed[getter.Name] = true
		consumed[setter.Name] = true
	}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if consumed[m.Name] {
			continue
		}
		params := make([]string, 0, m.Type.NumIn())
		for j := 1; j < m.Type.NumIn(); j++ {
			p := typeString(m.Type.In(j))
			if m.Type.IsVariadic() && j == m.Type.NumIn()-1 {
				p = "..." + strings.TrimPrefix(p, "[]")
			}
			params = append(params, p)
		}
		results := make([]string, 0, m.Type.NumOut())
		for j := 0; j < m.Type.NumOut(); j++ {
			results = append(results, typeString(m.Type.Out(j)))
		}
		methods = append(methods, Member{
			Name:    m.Name,
			Kind:    KindMethod,
			Type:    FuncSignature(params, results),
			Params:  params,
			Results: results,
		})
	}

	members := make([]Member, 0, len(fields)+len(props)+len(methods))
	members = append(members, fields...)
	members = append(members, props...)
	members = append(members, methods...)
	return NewDescriptor(typeName, members)
}

// FieldTag is the parsed form of an `xcompile:"..."` struct field tag:
// "-" skips the field, "property" reports it as a property, "readonly" marks it
// read-only and "name=X" renames it.
type FieldTag struct {
	Skip     bool
	Property bool
	ReadOnly bool
	Name     string
}

func ParseFieldTag(tag string) FieldTag {
	var out FieldTag
	tag = strings.TrimSpace(tag)
	if tag == "-" {
		out.Skip = true
		return out
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "property":
			out.Property = true
		case part == "readonly":
			out.ReadOnly = true
		case strings.HasPrefix(part, "name="):
			out.Name = strings.TrimSpace(strings.TrimPrefix(part, "name="))
		}
	}
	return out
}

func typeString(t reflect.Type) string {
	return strings.ReplaceAll(t.String(), "interface {}", "any")
}
