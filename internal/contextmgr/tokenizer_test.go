package contextmgr

import (
	"testing"
)

func TestHeuristicCountsText(t *testing.T) {
	tok := Heuristic()

	if got := tok.CountText("Hello world"); got != 3 {
		t.Fatalf("CountText(ascii) = %d, want 3", got)
	}
	// 中文按宽字符计
	if got := tok.CountText("你好世界"); got != 6 {
		t.Fatalf("CountText(cjk) = %d, want 6", got)
	}
	if got := tok.CountText(""); got != 0 {
		t.Fatalf("CountText(\"\") = %d, want 0", got)
	}
	if got := tok.CountText("a"); got != 1 {
		t.Fatalf("CountText(\"a\") = %d, want 1", got)
	}
}

func TestTokenizer_CountLines(t *testing.T) {
	tok := Heuristic()

	count := tok.CountLines([]string{"hello", "hi there"})
	if want := tok.CountText("hello") + tok.CountText("hi there") + 2; count != want {
		t.Fatalf("CountLines = %d, want %d", count, want)
	}
}

func TestModelToEncoding(t *testing.T) {
	tests := []struct {
		model    string
		expected string
	}{
		{"gpt-4", "cl100k_base"},
		{"gpt-3.5-turbo", "cl100k_base"},
		{"gpt-4o-mini", "o200k_base"},
		{"o1-preview", "o200k_base"},
		{"o3-mini", "o200k_base"},
		{"qwen2.5-coder-32b-instruct", "cl100k_base"},
		{"claude-3-opus", "cl100k_base"},
		{"GPT-4.1-mini", "o200k_base"},
		{"", "cl100k_base"},
	}
	for _, tt := range tests {
		if got := modelToEncoding(tt.model); got != tt.expected {
			t.Errorf("modelToEncoding(%q) = %q, want %q", tt.model, got, tt.expected)
		}
	}
}

func TestResolveHeuristic(t *testing.T) {
	for _, name := range []string{"heuristic", " Heuristic "} {
		tok := Resolve(name)
		if tok.IsPrecise() || tok.EncodingName() != "heuristic" {
			t.Fatalf("Resolve(%q): precise=%v name=%q", name, tok.IsPrecise(), tok.EncodingName())
		}
	}
}

func TestIsWide(t *testing.T) {
	for _, r := range []rune{'你', '한', 'カ', '，'} {
		if !isWide(r) {
			t.Errorf("isWide(%q) = false", r)
		}
	}
	for _, r := range []rune{'a', ' ', '-', 'é'} {
		if isWide(r) {
			t.Errorf("isWide(%q) = true", r)
		}
	}
}
