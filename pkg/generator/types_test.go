package generator

import "testing"

func TestParseType_RoundTrip(t *testing.T) {
	cases := []struct{ in, want string }{
		{"string", "string"},
		{"ui.Color", "ui.Color"},
		{"[]string", "[]string"},
		{"[4]int", "[4]int"},
		{"map[string][]int", "map[string][]int"},
		{"*map[string]*ui.Color", "*map[string]*ui.Color"},
		{"chan int", "chan int"},
		{"<-chan int", "<-chan int"},
		{"chan<- int", "chan<- int"},
		{"chan <- int", "chan<- int"},
		{"func(<-chan int) chan<- error", "func(<-chan int) chan<- error"},
		{"func(int, string) error", "func(int, string) error"},
		{"func(x int, fs ...string) (int, error)", "func(int, ...string) (int, error)"},
		{"func(chan int)", "func(chan int)"},
		{"interface{}", "any"},
		{"interface { String() string }", "any"},
		{"struct{ A int }", "struct{...}"},
	}
	for _, tc := range cases {
		got, err := ParseType(tc.in)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseType(%q)=%q want=%q", tc.in, got.String(), tc.want)
		}
	}
}

func TestParseType_Errors(t *testing.T) {
	for _, in := range []string{"", "[]", "map[string", "func(int", "[x]int", "string)", "struct{"} {
		if _, err := ParseType(in); err == nil {
			t.Fatalf("ParseType(%q) expected error", in)
		}
	}
}

func TestParseParam_Variadic(t *testing.T) {
	p, err := ParseParam(" ...int")
	if err != nil {
		t.Fatalf("ParseParam: %v", err)
	}
	if !p.Variadic || p.Kind != TypeSlice || p.Elem.Name != "int" {
		t.Fatalf("got %+v", p)
	}
	if p.String() != "...int" {
		t.Fatalf("String()=%q", p.String())
	}
}

func TestBase(t *testing.T) {
	ty, _ := ParseType("ui.Color")
	if ty.Base() != "Color" {
		t.Fatalf("Base()=%q", ty.Base())
	}
}
