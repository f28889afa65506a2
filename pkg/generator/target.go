package generator

import (
	"fmt"
	"strings"
)

// Target is a generated-code language. The set is closed.
type Target int

const (
	CSharp Target = iota + 1
	Go
	TypeScript
	Java
)

// Targets lists every target in declaration order.
func Targets() []Target {
	return []Target{CSharp, Go, TypeScript, Java}
}

func (t Target) String() string {
	switch t {
	case CSharp:
		return "csharp"
	case Go:
		return "go"
	case TypeScript:
		return "typescript"
	case Java:
		return "java"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// Extension is the file extension of generated files, with the leading dot.
func (t Target) Extension() string {
	switch t {
	case CSharp:
		return ".cs"
	case Go:
		return ".go"
	case TypeScript:
		return ".ts"
	case Java:
		return ".java"
	default:
		return ""
	}
}

func (t Target) Valid() bool {
	return t >= CSharp && t <= Java
}

// ParseTarget accepts a target name or its short alias. Matching ignores case.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csharp", "cs", "c#":
		return CSharp, nil
	case "go", "golang":
		return Go, nil
	case "typescript", "ts":
		return TypeScript, nil
	case "java":
		return Java, nil
	default:
		return 0, fmt.Errorf("unknown target %q (expect: csharp|go|typescript|java)", s)
	}
}

// ParseTargets parses a list, accepting comma-separated entries. Duplicates
// are dropped; first occurrence order is kept.
func ParseTargets(values []string) ([]Target, error) {
	var out []Target
	seen := map[Target]bool{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, err := ParseTarget(part)
			if err != nil {
				return nil, err
			}
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (t Target) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid target %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Target) UnmarshalText(b []byte) error {
	v, err := ParseTarget(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
