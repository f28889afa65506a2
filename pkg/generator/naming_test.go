package generator

import "testing"

func TestCasing(t *testing.T) {
	cases := []struct{ in, pascal, camel string }{
		{"greet_user", "GreetUser", "greetUser"},
		{"fooBar", "FooBar", "fooBar"},
		{"HTTPServer", "HTTPServer", "httpServer"},
		{"Title", "Title", "title"},
		{"on-click.handler", "OnClickHandler", "onClickHandler"},
		{"v2_name", "V2Name", "v2Name"},
		{"__", "", ""},
	}
	for _, tc := range cases {
		if got := PascalCase(tc.in); got != tc.pascal {
			t.Fatalf("PascalCase(%q)=%q want=%q", tc.in, got, tc.pascal)
		}
		if got := CamelCase(tc.in); got != tc.camel {
			t.Fatalf("CamelCase(%q)=%q want=%q", tc.in, got, tc.camel)
		}
	}
}

func TestClassName(t *testing.T) {
	cases := map[string]string{
		"ui":          "UiBindings",
		"main_window": "MainWindowBindings",
		"":            "GeneratedBindings",
		"9 lives":     "X9LivesBindings",
	}
	for in, want := range cases {
		if got := ClassName(in); got != want {
			t.Fatalf("ClassName(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestGoPackageName(t *testing.T) {
	cases := map[string]string{
		"ui":          "ui",
		"Main-Window": "mainwindow",
		"type":        "bindings",
		"9lives":      "bindings",
		"":            "bindings",
	}
	for in, want := range cases {
		if got := GoPackageName(in); got != want {
			t.Fatalf("GoPackageName(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestSafeIdent(t *testing.T) {
	if got := safeIdent("class", javaKeywords); got != "class_" {
		t.Fatalf("got %q", got)
	}
	if got := safeIdent("1st", nil); got != "_1st" {
		t.Fatalf("got %q", got)
	}
}
