// Package bindlang is the pluggable binding-language layer: a BindingLanguage
// supplies a name and a parser, and a Registry maps names to languages.
//
// Languages are registered as factories and loaded on first use. Concurrent
// loads of the same name share one factory call.
package bindlang

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/r9s-ai/xcompile/pkg/bindparse"
)

// BindingLanguage is one binding dialect.
type BindingLanguage interface {
	// Name is the identifying name, also the default output base name.
	Name() string
	// Parser returns a parser for one compile.
	Parser() bindparse.Parser
	// Extensions lists source file extensions, e.g. ".arrow".
	Extensions() []string
}

// Factory builds a language instance on first load.
type Factory func() (BindingLanguage, error)

// Static wraps an already constructed language.
func Static(l BindingLanguage) Factory {
	return func() (BindingLanguage, error) { return l, nil }
}

type LanguageNotFoundError struct {
	Name string
}

func (e *LanguageNotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("binding language %q not found", e.Name)
}

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	loaded    map[string]BindingLanguage
	group     singleflight.Group
}

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{},
		loaded:    map[string]BindingLanguage{},
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() { defaultReg = NewRegistry() })
	return defaultReg
}

// Register adds a factory under name. Names are exact identifiers.
func (r *Registry) Register(name string, f Factory) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(name) != name {
		return fmt.Errorf("register language: invalid name %q", name)
	}
	if f == nil {
		return fmt.Errorf("register language %q: nil factory", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("register language %q: already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Load returns the language registered under name, running its factory on
// first use. A failed factory is retried on the next Load.
func (r *Registry) Load(name string) (BindingLanguage, error) {
	r.mu.RLock()
	l, ok := r.loaded[name]
	f, known := r.factories[name]
	r.mu.RUnlock()
	if ok {
		return l, nil
	}
	if !known {
		return nil, &LanguageNotFoundError{Name: name}
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		r.mu.RLock()
		l, ok := r.loaded[name]
		r.mu.RUnlock()
		if ok {
			return l, nil
		}
		l, err := f()
		if err != nil {
			return nil, fmt.Errorf("load language %q: %w", name, err)
		}
		if l == nil {
			return nil, fmt.Errorf("load language %q: factory returned nil", name)
		}
		r.mu.Lock()
		r.loaded[name] = l
		r.mu.Unlock()
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(BindingLanguage), nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ForExtension returns the name of the language claiming ext (".arrow" or
// "arrow"). Languages are loaded to ask for their extensions; when several
// claim ext the first name in sorted order wins.
func (r *Registry) ForExtension(ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return "", false
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, name := range r.Names() {
		l, err := r.Load(name)
		if err != nil {
			continue
		}
		for _, e := range l.Extensions() {
			if strings.ToLower(e) == ext {
				return name, true
			}
		}
	}
	return "", false
}
