package markdown

import (
	"strings"
	"testing"
)

func TestRenderBasicBlocks(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", "<h1>Heading 1</h1>"},
		{"## Heading 2", "<h2>Heading 2</h2>"},
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"`code`", "<code>code</code>"},
	}
	for _, tt := range tests {
		got, err := Render(tt.input)
		if err != nil {
			t.Fatalf("Render(%q) failed: %v", tt.input, err)
		}
		if !strings.Contains(got, tt.expected) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderList(t *testing.T) {
	got, err := Render("- item 1\n- item 2")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, want := range []string{"<ul>", "<li>item 1</li>", "<li>item 2</li>", "</ul>"} {
		if !strings.Contains(got, want) {
			t.Errorf("Render list = %q, missing %q", got, want)
		}
	}
}

func TestRenderFencedCodeBlock(t *testing.T) {
	got, err := Render("```\ncode here\n```")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(got, "<pre>") || !strings.Contains(got, "<code>") {
		t.Errorf("Render code block = %q", got)
	}
	if !strings.Contains(got, "code here") {
		t.Errorf("Render code block missing content: %q", got)
	}
}

func TestRenderGFMTable(t *testing.T) {
	got, err := Render("| a | b |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(got, "<table>") {
		t.Errorf("Render table = %q, want a <table>", got)
	}
}

func TestRenderGFMStrikethrough(t *testing.T) {
	got, err := Render("~~gone~~")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(got, "<del>gone</del>") {
		t.Errorf("Render strikethrough = %q", got)
	}
}

func TestRenderHardWraps(t *testing.T) {
	got, err := Render("line one\nline two")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(got, "<br") {
		t.Errorf("Render = %q, want a hard line break", got)
	}
}

func TestRenderEscapesRawHTMLByDefault(t *testing.T) {
	got, err := Render("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML passed through unescaped: %q", got)
	}
}
