package generator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	cases := []struct {
		in   string
		want Target
	}{
		{"csharp", CSharp},
		{"C#", CSharp},
		{" cs ", CSharp},
		{"go", Go},
		{"Golang", Go},
		{"ts", TypeScript},
		{"TypeScript", TypeScript},
		{"java", Java},
	}
	for _, tc := range cases {
		got, err := ParseTarget(tc.in)
		if err != nil {
			t.Fatalf("ParseTarget(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTarget(%q)=%s want=%s", tc.in, got, tc.want)
		}
	}
	if _, err := ParseTarget("cobol"); err == nil {
		t.Fatalf("expected error for unknown target")
	}
}

func TestParseTargets(t *testing.T) {
	got, err := ParseTargets([]string{"go,ts", "golang", "java"})
	require.NoError(t, err)
	require.Equal(t, []Target{Go, TypeScript, Java}, got)

	_, err = ParseTargets([]string{"go,,"})
	require.NoError(t, err)

	_, err = ParseTargets([]string{"go,rust"})
	require.Error(t, err)
}

func TestTarget_Text(t *testing.T) {
	for _, target := range Targets() {
		b, err := target.MarshalText()
		require.NoError(t, err)
		var back Target
		require.NoError(t, back.UnmarshalText(b))
		require.Equal(t, target, back)
		require.True(t, target.Valid())
	}
	require.False(t, Target(0).Valid())
	require.Equal(t, "", Target(0).Extension())
}
