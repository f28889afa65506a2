package hostdesc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Manifest is a declarative host description, used when the host object lives
// outside this process (another language, another build).
type Manifest struct {
	Type     string           `yaml:"type" json:"type"`
	Bindable bool             `yaml:"bindable" json:"bindable"`
	Members  []ManifestMember `yaml:"members" json:"members"`
}

type ManifestMember struct {
	Name     string   `yaml:"name" json:"name"`
	Kind     string   `yaml:"kind" json:"kind"`
	Type     string   `yaml:"type" json:"type"`
	Params   []string `yaml:"params" json:"params"`
	Results  []string `yaml:"results" json:"results"`
	ReadOnly bool     `yaml:"readonly" json:"readonly"`
	Field    string   `yaml:"field,omitempty" json:"field,omitempty"`
}

// LoadManifest reads a manifest from a .yaml/.yml or .json/.hujson file.
func LoadManifest(path string) (*Manifest, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, fmt.Errorf("host manifest path is empty")
	}
	// #nosec G304 -- manifest path is provided by the caller by design.
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read host manifest %q: %w", p, err)
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return ParseManifestYAML(b)
	case ".json", ".hujson", ".jsonc":
		return ParseManifestJSON(b)
	default:
		return nil, fmt.Errorf("host manifest %q: unsupported extension (expect .yaml|.yml|.json|.hujson)", p)
	}
}

func ParseManifestYAML(b []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse host manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseManifestJSON accepts standard JSON as well as JSON with comments and trailing commas.
func ParseManifestJSON(b []byte) (*Manifest, error) {
	std, err := hujson.Standardize(b)
	if err != nil {
		return nil, fmt.Errorf("parse host manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(std, &m); err != nil {
		return nil, fmt.Errorf("parse host manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if strings.TrimSpace(m.Type) == "" {
		return fmt.Errorf("host manifest: type is required")
	}
	for i, mm := range m.Members {
		if strings.TrimSpace(mm.Name) == "" {
			return fmt.Errorf("host manifest %q: members[%d].name is required", m.Type, i)
		}
		kind, err := ParseKind(mm.Kind)
		if err != nil {
			return fmt.Errorf("host manifest %q: members[%d]: %w", m.Type, i, err)
		}
		if kind != KindMethod && len(mm.Params) > 0 {
			return fmt.Errorf("host manifest %q: members[%d]: params are only allowed on methods", m.Type, i)
		}
		if kind == KindMethod && strings.TrimSpace(mm.Field) != "" {
			return fmt.Errorf("host manifest %q: members[%d]: field is not allowed on methods", m.Type, i)
		}
		if kind != KindMethod && strings.TrimSpace(mm.Type) == "" {
			return fmt.Errorf("host manifest %q: members[%d].type is required for %s", m.Type, i, kind)
		}
	}
	return nil
}

func (m *Manifest) members() []Member {
	out := make([]Member, 0, len(m.Members))
	for _, mm := range m.Members {
		kind, _ := ParseKind(mm.Kind)
		member := Member{
			Name:     strings.TrimSpace(mm.Name),
			Kind:     kind,
			Type:     strings.TrimSpace(mm.Type),
			Params:   trimAll(mm.Params),
			Results:  trimAll(mm.Results),
			ReadOnly: mm.ReadOnly,
			Field:    strings.TrimSpace(mm.Field),
		}
		if kind == KindMethod {
			member.Type = FuncSignature(member.Params, member.Results)
		}
		out = append(out, member)
	}
	return out
}

// Host returns the host object the manifest describes. Only manifests declaring
// `bindable: true` yield a Bindable host.
func (m *Manifest) Host() any {
	plain := &PlainHost{typeName: strings.TrimSpace(m.Type), members: m.members()}
	if m.Bindable {
		return &ManifestHost{PlainHost: *plain}
	}
	return plain
}

// PlainHost describes its members but does not declare the Bindable capability.
type PlainHost struct {
	typeName string
	members  []Member
}

func (h *PlainHost) HostMembers() (string, []Member) {
	out := make([]Member, 0, len(h.members))
	for _, m := range h.members {
		out = append(out, m.clone())
	}
	return h.typeName, out
}

// ManifestHost is a bindable host described by a manifest or a source file.
type ManifestHost struct {
	PlainHost
}

func (*ManifestHost) XCompileHost() {}

// NewHost builds a host from explicit members. bindable controls whether the
// result carries the Bindable capability.
func NewHost(typeName string, members []Member, bindable bool) any {
	plain := PlainHost{typeName: strings.TrimSpace(typeName)}
	for _, m := range members {
		plain.members = append(plain.members, m.clone())
	}
	if bindable {
		return &ManifestHost{PlainHost: plain}
	}
	return &plain
}

func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// ManifestFor renders d as a manifest. Method members carry params and
// results only.
func ManifestFor(d *Descriptor, bindable bool) *Manifest {
	m := &Manifest{Type: d.TypeName(), Bindable: bindable}
	for _, mem := range d.Members() {
		mm := ManifestMember{
			Name:     mem.Name,
			Kind:     string(mem.Kind),
			Params:   mem.Params,
			Results:  mem.Results,
			ReadOnly: mem.ReadOnly,
			Field:    mem.Field,
		}
		if mem.Kind != KindMethod {
			mm.Type = mem.Type
		}
		m.Members = append(m.Members, mm)
	}
	return m
}
