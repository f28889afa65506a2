package bindlang

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/r9s-ai/xcompile/pkg/bindast"
	"github.com/r9s-ai/xcompile/pkg/bindparse"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

type fakeLang struct {
	name string
	exts []string
}

func (l *fakeLang) Name() string { return l.name }

func (l *fakeLang) Parser() bindparse.Parser {
	return bindparse.ParserFunc(func(name, source string, desc *hostdesc.Descriptor) (*bindast.ProgramRoot, error) {
		return bindast.NewBuilder(l.name, desc.TypeName()).Build(), nil
	})
}

func (l *fakeLang) Extensions() []string { return l.exts }

func TestRegistry_LoadNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Load("nope")
	var nf *LanguageNotFoundError
	if !errors.As(err, &nf) || nf.Name != "nope" {
		t.Fatalf("expected LanguageNotFoundError, got %v", err)
	}
}

func TestRegistry_RegisterRejects(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("a", Static(&fakeLang{name: "a"})); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("a", Static(&fakeLang{name: "a"})); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := r.Register(" b", Static(&fakeLang{name: "b"})); err == nil {
		t.Fatalf("expected invalid name error")
	}
	if err := r.Register("c", nil); err == nil {
		t.Fatalf("expected nil factory error")
	}
}

func TestRegistry_ExactNameMatch(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("arrow", Static(&fakeLang{name: "arrow"})); err != nil {
		t.Fatalf("Register: %v", err)
	}
	for _, name := range []string{"Arrow", "arrow ", "arr"} {
		if _, err := r.Load(name); err == nil {
			t.Fatalf("Load(%q) should miss", name)
		}
	}
}

func TestRegistry_ConcurrentLoadRunsFactoryOnce(t *testing.T) {
	r := NewRegistry()
	var calls atomic.Int32
	err := r.Register("slow", func() (BindingLanguage, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &fakeLang{name: "slow"}, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	const n = 32
	got := make([]BindingLanguage, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := r.Load("slow")
			if err != nil {
				t.Errorf("Load: %v", err)
				return
			}
			got[i] = l
		}(i)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("factory calls=%d want=1", calls.Load())
	}
	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatalf("racer %d observed a different instance", i)
		}
	}
}

func TestRegistry_FailedFactoryNotCached(t *testing.T) {
	r := NewRegistry()
	var calls int
	err := r.Register("flaky", func() (BindingLanguage, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("boom")
		}
		return &fakeLang{name: "flaky"}, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Load("flaky"); err == nil {
		t.Fatalf("first load should fail")
	}
	if _, err := r.Load("flaky"); err != nil {
		t.Fatalf("second load: %v", err)
	}
}

func TestRegistry_NamesAndExtensions(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("zeta", Static(&fakeLang{name: "zeta", exts: []string{".z"}}))
	_ = r.Register("alpha", Static(&fakeLang{name: "alpha", exts: []string{".a", ".Shared"}}))
	_ = r.Register("beta", Static(&fakeLang{name: "beta", exts: []string{".shared"}}))

	names := r.Names()
	if len(names) != 3 || names[0] != "alpha" || names[1] != "beta" || names[2] != "zeta" {
		t.Fatalf("Names=%v", names)
	}
	cases := map[string]string{".z": "zeta", "a": "alpha", ".SHARED": "alpha"}
	for ext, want := range cases {
		got, ok := r.ForExtension(ext)
		if !ok || got != want {
			t.Fatalf("ForExtension(%q)=%q,%v want=%q", ext, got, ok, want)
		}
	}
	if _, ok := r.ForExtension(".none"); ok {
		t.Fatalf("unknown extension should miss")
	}
}

func TestDefaultRegistry_Singleton(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Fatalf("DefaultRegistry should return one instance")
	}
}
