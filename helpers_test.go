package gitpress

import (
	"reflect"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Already-slugged-title", "already-slugged-title"},
		{"Ünïcode & Symbols!!", "n-code-symbols"},
		{"Multiple   spaces", "multiple-spaces"},
		{"Ends with punctuation?", "ends-with-punctuation"},
		{"2026 in 10 rooms", "2026-in-10-rooms"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterEmpty(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"a", "", "b"}, []string{"a", "b"}},
		{[]string{"  ", "\t", ""}, nil},
		{[]string{" keep ", "trim"}, []string{"keep", "trim"}},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := FilterEmpty(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FilterEmpty(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("GITPRESS_TEST_VAR", "set")
	if got := EnvOr("GITPRESS_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("EnvOr = %q, want set", got)
	}
	if got := EnvOr("GITPRESS_TEST_UNSET_VAR", "fallback"); got != "fallback" {
		t.Errorf("EnvOr = %q, want fallback", got)
	}
}
