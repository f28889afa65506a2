package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/r9s-ai/xcompile/internal/version"
	"github.com/r9s-ai/xcompile/pkg/config"
	"github.com/r9s-ai/xcompile/pkg/dialects"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

const hostYAML = `type: X
bindable: true
members:
  - {name: Foo, kind: property, type: string}
  - {name: Bar, kind: property, type: int}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	// #nosec G306 -- test data file.
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errb bytes.Buffer
	code = Execute(dialects.Registry(), append([]string{"--color", "never"}, args...), &out, &errb)
	return out.String(), errb.String(), code
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p) // #nosec G304 -- test output.
	require.NoError(t, err)
	return string(b)
}

func TestRootCmdHasSubcommands(t *testing.T) {
	root := newRootCmd(dialects.Registry())
	for _, name := range []string{"compile", "check", "describe", "languages", "targets", "watch", "serve", "version"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Fatalf("find %s subcommand: %v", name, err)
		}
	}
}

func TestVersionCmdOutput(t *testing.T) {
	out, _, code := run(t, "version")
	require.Zero(t, code)
	require.Equal(t, strings.TrimSpace(fmt.Sprint(version.Get())), strings.TrimSpace(out))
}

func TestCompile_FromFlags(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ui.arrow", "a -> X.Foo\nb -> X.Bar\n")
	host := writeFile(t, dir, "host.yaml", hostYAML)
	outDir := filepath.Join(dir, "out")

	out, stderr, code := run(t, "compile", src, "--host", host, "-t", "csharp,go", "-o", outDir)
	require.Zero(t, code, stderr)
	require.Contains(t, out, "ui: ok "+filepath.Join(outDir, "arrow.cs")+" (2 declarations)")

	cs := readFile(t, filepath.Join(outDir, "arrow.cs"))
	require.Contains(t, cs, "public sealed partial class ArrowBindings")
	require.Less(t, strings.Index(cs, "_host.Foo"), strings.Index(cs, "_host.Bar"))
	require.FileExists(t, filepath.Join(outDir, "arrow.go"))
}

func TestCompile_ToStdout(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ui.arrow", "a -> X.Foo\n")
	host := writeFile(t, dir, "host.yaml", hostYAML)

	out, stderr, code := run(t, "compile", "--source", src, "--host", host, "-t", "typescript", "-o", "-", "--name", "ui")
	require.Zero(t, code, stderr)
	require.Contains(t, out, "export class UiBindings {")
}

func TestCompile_FatalErrorsExitOne(t *testing.T) {
	dir := t.TempDir()
	host := writeFile(t, dir, "host.yaml", hostYAML)
	outDir := filepath.Join(dir, "out")

	src := writeFile(t, dir, "ui.arrow", "a -> X.Foo\nb -> X.Baz\n")
	_, stderr, code := run(t, "compile", src, "--host", host, "-o", outDir)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "error[resolution]:")
	require.Contains(t, stderr, "2 | b -> X.Baz")
	_, err := os.Stat(outDir)
	require.True(t, os.IsNotExist(err), "nothing may be written on fatal errors")

	txt := writeFile(t, dir, "ui.txt", "a -> X.Foo\n")
	_, stderr, code = run(t, "compile", txt, "--host", host, "-o", outDir)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "cannot infer a binding language for ui.txt")

	_, stderr, code = run(t, "compile", src, "--host", host, "-t", "cobol")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "cobol")

	_, stderr, code = run(t, "compile", src)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "--host is required")

	_, stderr, code = run(t, "--color", "rainbow", "targets")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "--color must be one of")
}

func TestCompile_NonBindableHost(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ui.arrow", "a -> X.Foo\n")
	host := writeFile(t, dir, "host.yaml", strings.Replace(hostYAML, "bindable: true", "bindable: false", 1))
	_, stderr, code := run(t, "compile", src, "--host", host, "-o", filepath.Join(dir, "out"))
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "error[invalid_host]:")
}

func writeProject(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, dir, "host.yaml", hostYAML)
	writeFile(t, dir, "ui.arrow", "a -> X.Foo\n")
	writeFile(t, dir, "panel.xbind", "host X {\n  bind bar = Bar;\n}\n")
	cfgPath = writeFile(t, dir, "xcompile.yaml", `
output:
  dir: gen
  targets: [csharp]
watch:
  debounce_ms: 50
jobs:
  - name: ui
    source: ui.arrow
    host: host.yaml
    targets: [java]
    output_name: ui
  - name: panel
    source: panel.xbind
    host: host.yaml
    output_name: panel
`)
	return dir, cfgPath
}

func TestCompile_ConfiguredJobs(t *testing.T) {
	dir, cfgPath := writeProject(t)

	out, stderr, code := run(t, "-c", cfgPath, "compile")
	require.Zero(t, code, stderr)
	require.Contains(t, out, "ui: ok")
	require.Contains(t, out, "panel: ok")
	require.Contains(t, readFile(t, filepath.Join(dir, "gen", "ui.java")), "public final class UiBindings {")
	require.Contains(t, readFile(t, filepath.Join(dir, "gen", "panel.cs")), "_host.Bar")

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "gen")))
	_, stderr, code = run(t, "-c", cfgPath, "compile", "--job", "panel")
	require.Zero(t, code, stderr)
	require.FileExists(t, filepath.Join(dir, "gen", "panel.cs"))
	require.NoFileExists(t, filepath.Join(dir, "gen", "ui.java"))

	_, stderr, code = run(t, "-c", cfgPath, "compile", "--job", "nope")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, `unknown job "nope"`)
}

func TestCompile_DefaultConfigFile(t *testing.T) {
	dir, _ := writeProject(t)
	t.Chdir(dir)
	_, stderr, code := run(t, "compile")
	require.Zero(t, code, stderr)
	require.FileExists(t, filepath.Join(dir, "gen", "ui.java"))

	t.Chdir(t.TempDir())
	_, stderr, code = run(t, "compile")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "--config is required")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "ui.arrow", "a -> X.Foo\nb -> X.Bar\n")
	host := writeFile(t, dir, "host.yaml", hostYAML)

	out, stderr, code := run(t, "check", src, "--host", host)
	require.Zero(t, code, stderr)
	require.Equal(t, "ui: ok 2 declarations bound to X\n", out)

	bad := writeFile(t, dir, "bad.arrow", "a -> \n")
	_, stderr, code = run(t, "check", bad, "--host", host)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "error[parse]:")
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	host := writeFile(t, dir, "host.yaml", hostYAML)

	out, stderr, code := run(t, "describe", host)
	require.Zero(t, code, stderr)
	require.True(t, strings.HasPrefix(out, "X (bindable, 2 members)\n"), out)
	require.Contains(t, out, "property Foo")

	out, stderr, code = run(t, "describe", host, "--format", "yaml")
	require.Zero(t, code, stderr)
	m, err := hostdesc.ParseManifestYAML([]byte(out))
	require.NoError(t, err)
	require.Equal(t, "X", m.Type)
	require.True(t, m.Bindable)
	require.Len(t, m.Members, 2)

	_, _, code = run(t, "describe", host, "--format", "toml")
	require.Equal(t, 1, code)
}

func TestLanguagesAndTargets(t *testing.T) {
	out, _, code := run(t, "languages")
	require.Zero(t, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "arrow"))
	require.Contains(t, lines[0], ".arrow")
	require.True(t, strings.HasPrefix(lines[1], "xbind"))

	out, _, code = run(t, "targets")
	require.Zero(t, code)
	require.Contains(t, out, "csharp     .cs\n")
	require.Contains(t, out, "typescript .ts\n")
}

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestWatch_RecompilesChangedJob(t *testing.T) {
	dir, cfgPath := writeProject(t)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	a := &app{reg: dialects.Registry(), color: "never"}
	cmd := newWatchCmd(a)
	var out, errb lockedBuffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.watch(ctx, cmd, cfg, cfg.Jobs) }()

	waitFor := func(what string, cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !cond() {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %s; stderr=%s", what, errb.String())
			}
			time.Sleep(20 * time.Millisecond)
		}
	}
	javaPath := filepath.Join(dir, "gen", "ui.java")
	waitFor("watcher start", func() bool { return strings.Contains(errb.String(), "watching 3 files for 2 jobs") })
	require.Contains(t, readFile(t, javaPath), "host.getFoo()")

	writeFile(t, dir, "ui.arrow", "b -> X.Bar\n")
	waitFor("recompile", func() bool {
		b, err := os.ReadFile(javaPath) // #nosec G304 -- test output.
		return err == nil && strings.Contains(string(b), "host.getBar()")
	})

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop")
	}
}
