package hostdesc

import (
	"fmt"
	"strings"
)

// Kind classifies one host member.
type Kind string

const (
	KindField    Kind = "field"
	KindProperty Kind = "property"
	KindMethod   Kind = "method"
)

// ParseKind accepts the manifest spelling of a member kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "field":
		return KindField, nil
	case "property", "prop":
		return KindProperty, nil
	case "method", "func":
		return KindMethod, nil
	default:
		return "", fmt.Errorf("unknown member kind %q (expect: field|property|method)", s)
	}
}

// Member is one introspected host member.
// Type is the canonical type signature: the value type for fields and properties,
// and "func(<params>) <results>" for methods.
type Member struct {
	Name     string
	Kind     Kind
	Type     string
	Params   []string
	Results  []string
	ReadOnly bool
	Field    string // struct field behind a tag-declared or renamed member
}

// Arity is the number of parameters a binding to this member must supply.
func (m Member) Arity() int {
	if m.Kind != KindMethod {
		return 0
	}
	return len(m.Params)
}

// HostName is the identifier that reaches the member on the host.
func (m Member) HostName() string {
	if m.Field != "" {
		return m.Field
	}
	return m.Name
}

// FieldBacked reports whether the member is read and written as a plain
// field rather than through accessor methods.
func (m Member) FieldBacked() bool { return m.Kind == KindField || m.Field != "" }

func (m Member) String() string {
	return fmt.Sprintf("%s %s %s", m.Kind, m.Name, m.Type)
}

func (m Member) clone() Member {
	out := m
	out.Params = append([]string(nil), m.Params...)
	out.Results = append([]string(nil), m.Results...)
	return out
}

// FuncSignature renders the canonical signature of a method.
func FuncSignature(params, results []string) string {
	sig := "func(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
		return sig
	case 1:
		return sig + " " + results[0]
	default:
		return sig + " (" + strings.Join(results, ", ") + ")"
	}
}

// Descriptor is an immutable snapshot of a host object's members.
type Descriptor struct {
	typeName string
	members  []Member
	byName   map[string][]int
}

// NewDescriptor builds a descriptor from members in the given order.
func NewDescriptor(typeName string, members []Member) (*Descriptor, error) {
	name := strings.TrimSpace(typeName)
	if name == "" {
		return nil, fmt.Errorf("host type name is empty")
	}
	d := &Descriptor{
		typeName: name,
		members:  make([]Member, 0, len(members)),
		byName:   make(map[string][]int, len(members)),
	}
	for i, m := range members {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("host %q: member #%d has empty name", name, i)
		}
		switch m.Kind {
		case KindField, KindProperty:
			if len(m.Params) > 0 {
				return nil, fmt.Errorf("host %q: %s %q cannot declare params", name, m.Kind, m.Name)
			}
		case KindMethod:
			if strings.TrimSpace(m.Type) == "" {
				m.Type = FuncSignature(m.Params, m.Results)
			}
		default:
			return nil, fmt.Errorf("host %q: member %q has unknown kind %q", name, m.Name, m.Kind)
		}
		d.byName[m.Name] = append(d.byName[m.Name], len(d.members))
		d.members = append(d.members, m.clone())
	}
	return d, nil
}

// TypeName is the host's declared type name.
func (d *Descriptor) TypeName() string {
	if d == nil {
		return ""
	}
	return d.typeName
}

func (d *Descriptor) Len() int {
	if d == nil {
		return 0
	}
	return len(d.members)
}

// Member returns the member at index i.
func (d *Descriptor) Member(i int) (Member, bool) {
	if d == nil || i < 0 || i >= len(d.members) {
		return Member{}, false
	}
	return d.members[i].clone(), true
}

// Members returns a copy of all members in descriptor order.
func (d *Descriptor) Members() []Member {
	if d == nil {
		return nil
	}
	out := make([]Member, 0, len(d.members))
	for _, m := range d.members {
		out = append(out, m.clone())
	}
	return out
}

// Lookup returns the indices of members named exactly name, in descriptor order.
func (d *Descriptor) Lookup(name string) []int {
	if d == nil {
		return nil
	}
	return append([]int(nil), d.byName[name]...)
}
