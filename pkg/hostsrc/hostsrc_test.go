package hostsrc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r9s-ai/xcompile/pkg/hostdesc"
)

const goWindow = "package ui\n\n" +
	"type Window struct {\n" +
	"\tTitle  string\n" +
	"\tLabels []string `xcompile:\"readonly\"`\n" +
	"\tHidden bool     `xcompile:\"-\"`\n" +
	"\tCount  int      `xcompile:\"property\"`\n" +
	"\tinner  int\n" +
	"\tEmbedded\n" +
	"}\n\n" +
	"func (w *Window) XCompileHost() {}\n" +
	"func (w *Window) Color() string { return \"\" }\n" +
	"func (w *Window) SetColor(c string) {}\n" +
	"func (w *Window) Resize(width, height int) error { return nil }\n" +
	"func (w Window) Log(format string, args ...any) {}\n" +
	"func (w *Window) hidden() {}\n" +
	"func (o *Other) Foo() {}\n"

const javaPanel = `package demo;

import java.util.List;
import java.util.Map;

@XCompile
public class Panel {
    public String title;
    public final int[] sizes;
    private int secret;
    public static int COUNT;

    public String getCaption() { return ""; }
    public void setCaption(String c) {}
    public boolean isVisible() { return true; }
    public void setVisible(boolean v) {}
    public List<String> items(Map<String, Integer> filter, int... ids) { return null; }
    public int getOnly() { return 0; }
    void hidden() {}
}
`

func describe(t *testing.T, host any) []hostdesc.Member {
	t.Helper()
	d, err := hostdesc.Describe(host)
	require.NoError(t, err)
	return d.Members()
}

func names(ms []hostdesc.Member) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Name+":"+string(m.Kind))
	}
	return out
}

func TestFromGoSource(t *testing.T) {
	host, err := FromGoSource("window.go", []byte(goWindow), "Window")
	require.NoError(t, err)
	require.NoError(t, hostdesc.Check(host))

	ms := describe(t, host)
	require.Equal(t, []string{
		"Title:field", "Labels:field", "Count:property", "Color:property", "Log:method", "Resize:method",
	}, names(ms))
	require.True(t, ms[1].ReadOnly)
	require.Equal(t, "[]string", ms[1].Type)
	require.Equal(t, "Count", ms[2].Field)
	require.Empty(t, ms[3].Field)
	require.Equal(t, []string{"string", "...any"}, ms[4].Params)
	require.Empty(t, ms[4].Results)
	require.Equal(t, []string{"int", "int"}, ms[5].Params)
	require.Equal(t, []string{"error"}, ms[5].Results)
	require.Equal(t, 2, ms[5].Arity())
}

func TestFromGoSource_NotBindable(t *testing.T) {
	src := "package ui\n\ntype Plain struct{ Name string }\n"
	host, err := FromGoSource("plain.go", []byte(src), "Plain")
	require.NoError(t, err)
	var ih *hostdesc.InvalidHostTypeError
	require.True(t, errors.As(hostdesc.Check(host), &ih))
}

func TestFromGoSource_Errors(t *testing.T) {
	_, err := FromGoSource("w.go", []byte(goWindow), "Missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), `type "Missing" not found in w.go`)

	_, err = FromGoSource("broken.go", []byte("package ui\n\ntype Window struct {\n"), "Window")
	var serr *SyntaxError
	require.True(t, errors.As(err, &serr), "got %v", err)
	require.Equal(t, "broken.go", serr.File)
}

func TestFromJavaSource(t *testing.T) {
	host, err := FromJavaSource("Panel.java", []byte(javaPanel), "Panel")
	require.NoError(t, err)
	require.NoError(t, hostdesc.Check(host))

	ms := describe(t, host)
	require.Equal(t, []string{
		"title:field", "sizes:field", "Caption:property", "Visible:property", "items:method", "getOnly:method",
	}, names(ms))
	require.Equal(t, "[]int32", ms[1].Type)
	require.True(t, ms[1].ReadOnly)
	require.Equal(t, "bool", ms[3].Type)
	require.Equal(t, []string{"map[string]int32", "...int32"}, ms[4].Params)
	require.Equal(t, []string{"[]string"}, ms[4].Results)
	require.Equal(t, []string{"int32"}, ms[5].Results)
}

func TestFromJavaSource_MarkerInterface(t *testing.T) {
	src := "class Box implements Comparable<Box>, com.acme.XCompileObject { public int size; }"
	host, err := FromJavaSource("Box.java", []byte(src), "Box")
	require.NoError(t, err)
	require.NoError(t, hostdesc.Check(host))

	host, err = FromJavaSource("Box.java", []byte("class Box { public int size; }"), "Box")
	require.NoError(t, err)
	require.Error(t, hostdesc.Check(host))
}

func TestJavaType(t *testing.T) {
	cases := []struct{ in, want string }{
		{"String", "string"},
		{"int", "int32"},
		{"long", "int64"},
		{"boolean", "bool"},
		{"double", "float64"},
		{"float", "float32"},
		{"Object", "any"},
		{"void", ""},
		{"String[]", "[]string"},
		{"int[][]", "[][]int32"},
		{"List<String>", "[]string"},
		{"java.util.List<Integer>", "[]int32"},
		{"Map<String, List<Long>>", "map[string][]int64"},
		{"Optional<Widget>", "*Widget"},
		{"List<? extends Number>", "[]any"},
		{"com.acme.Widget", "Widget"},
		{"Map<String, Map<String, Boolean>>", "map[string]map[string]bool"},
	}
	for _, tc := range cases {
		if got := javaType(tc.in); got != tc.want {
			t.Fatalf("javaType(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		// #nosec G306 -- test data file.
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}
	goPath := write("window.go", goWindow)
	javaPath := write("Panel.java", javaPanel)
	manifestPath := write("host.yaml", "type: X\nbindable: true\nmembers:\n  - {name: Foo, kind: property, type: string}\n")

	host, err := Load(goPath, "Window")
	require.NoError(t, err)
	require.NoError(t, hostdesc.Check(host))

	_, err = Load(goPath, "")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "host type is required"))

	host, err = Load(javaPath, "")
	require.NoError(t, err)
	d, err := hostdesc.Describe(host)
	require.NoError(t, err)
	require.Equal(t, "Panel", d.TypeName())

	host, err = Load(manifestPath, "")
	require.NoError(t, err)
	require.NoError(t, hostdesc.Check(host))

	_, err = Load(manifestPath, "Y")
	require.Error(t, err)

	_, err = Load(filepath.Join(dir, "host.txt"), "")
	require.Error(t, err)
}
