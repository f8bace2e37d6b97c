// Package i18n holds the board's message catalogs.
package i18n

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// I18n 一个 locale 的消息表
// I18n is the message table of one locale, English filling any gaps.
type I18n struct {
	locale   string
	messages map[string]string
}

var catalogs = map[string]map[string]string{
	"en":    EnMessages,
	"zh-CN": ZhCNMessages,
}

var (
	global     *I18n
	globalOnce sync.Once
)

// Global 返回按环境检测的全局实例
// Global returns the instance for the detected locale.
func Global() *I18n {
	globalOnce.Do(func() {
		global = New("")
	})
	return global
}

// New 创建 i18n 实例；空 locale 时自动检测
// New creates an instance for locale, detecting it when empty. Unknown
// locales fall back to English.
func New(locale string) *I18n {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DetectLocale()
	}
	locale = normalizeLocale(locale)

	messages := make(map[string]string, len(EnMessages))
	for k, v := range EnMessages {
		messages[k] = v
	}
	for k, v := range catalogs[locale] {
		messages[k] = v
	}
	return &I18n{locale: locale, messages: messages}
}

// T 翻译；缺失的 key 原样返回
// T translates key, formatting args into it. A missing key is returned as is.
func (i *I18n) T(key string, args ...any) string {
	tmpl, ok := i.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locale 返回当前 locale
// Locale returns current locale
func (i *I18n) Locale() string {
	return i.locale
}

// Locales lists the locales with a catalog.
func Locales() []string {
	out := make([]string, 0, len(catalogs))
	for l := range catalogs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// DetectLocale 自动检测 locale
// DetectLocale reads STORYSYNC_LANG, then the usual POSIX locale variables.
func DetectLocale() string {
	for _, env := range []string{"STORYSYNC_LANG", "LANG", "LC_ALL", "LC_MESSAGES"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return normalizeLocale(v)
		}
	}
	return "en"
}

func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "C" || s == "POSIX" {
		return "en"
	}
	// 去掉 .UTF-8 等后缀 / Remove .UTF-8 suffix
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.ReplaceAll(s, "_", "-")
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "zh"):
		return "zh-CN"
	case strings.HasPrefix(lower, "en"):
		return "en"
	}
	return s
}
