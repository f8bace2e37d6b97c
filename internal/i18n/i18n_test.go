package i18n

import "testing"

func TestNew_English(t *testing.T) {
	i := New("en")
	if i.Locale() != "en" {
		t.Fatalf("Locale()=%q, want en", i.Locale())
	}
	got := i.T("panel.todos")
	if got != "Todos" {
		t.Fatalf("T(panel.todos)=%q, want Todos", got)
	}
}

func TestNew_Chinese(t *testing.T) {
	i := New("zh-CN")
	if i.Locale() != "zh-CN" {
		t.Fatalf("Locale()=%q, want zh-CN", i.Locale())
	}
	got := i.T("panel.todos")
	if got != "待办" {
		t.Fatalf("T(panel.todos)=%q, want 待办", got)
	}
}

func TestNew_ChineseFromLang(t *testing.T) {
	i := New("zh_CN.UTF-8")
	if i.Locale() != "zh-CN" {
		t.Fatalf("Locale()=%q, want zh-CN", i.Locale())
	}
	got := i.T("panel.story")
	if got != "故事" {
		t.Fatalf("T(panel.story)=%q, want 故事", got)
	}
}

func TestT_WithArgs(t *testing.T) {
	i := New("en")
	got := i.T("sidebar.done", 2, 5)
	if got != "2 / 5 done" {
		t.Fatalf("T with args=%q, want 2 / 5 done", got)
	}
}

func TestT_MissingKey(t *testing.T) {
	i := New("en")
	got := i.T("nonexistent.key")
	if got != "nonexistent.key" {
		t.Fatalf("T missing key=%q, want key itself", got)
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en_US.UTF-8", "en"},
		{"zh_CN.UTF-8", "zh-CN"},
		{"zh_TW", "zh-CN"},
		{"en", "en"},
		{"", "en"},
		{"fr_FR", "fr-FR"},
		{"C.UTF-8", "en"},
	}
	for _, tt := range tests {
		got := normalizeLocale(tt.input)
		if got != tt.expected {
			t.Errorf("normalizeLocale(%q)=%q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGlobal(t *testing.T) {
	g := Global()
	if g == nil {
		t.Fatal("Global() should not be nil")
	}
	// 应该返回同一实例 / Should return same instance
	g2 := Global()
	if g != g2 {
		t.Fatal("Global() should return same instance")
	}
}

func TestDetectLocale_StorysyncLangWins(t *testing.T) {
	t.Setenv("STORYSYNC_LANG", "zh_CN.UTF-8")
	t.Setenv("LANG", "en_US.UTF-8")
	if got := DetectLocale(); got != "zh-CN" {
		t.Fatalf("DetectLocale()=%q, want zh-CN", got)
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for k := range EnMessages {
		if _, ok := ZhCNMessages[k]; !ok {
			t.Errorf("zh-CN catalog missing %q", k)
		}
	}
	for k := range ZhCNMessages {
		if _, ok := EnMessages[k]; !ok {
			t.Errorf("en catalog missing %q", k)
		}
	}
}

func TestUnknownLocaleFallsBackToEnglish(t *testing.T) {
	i := New("fr_FR")
	if got := i.T("panel.story"); got != "Story" {
		t.Fatalf("T(panel.story)=%q, want Story", got)
	}
	if got := Locales(); len(got) != 2 || got[0] != "en" || got[1] != "zh-CN" {
		t.Fatalf("Locales()=%v", got)
	}
}
