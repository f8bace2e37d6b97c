// Package contextmgr renders the story context block handed to the
// assistant and keeps it within a token budget.
package contextmgr

import (
	"strings"
	"sync"
	"unicode"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const heuristicName = "heuristic"

// encoders caches loaded BPE encoders by name; loading one reads (and on
// first use downloads) the rank file.
var encoders sync.Map

// Tokenizer 统计上下文块的 token 数，BPE 不可用时按字符估算
// Tokenizer counts tokens for the story context block. Without a BPE
// encoder it estimates from character classes.
type Tokenizer struct {
	name string
	enc  *tiktoken.Tiktoken
	mu   sync.Mutex
}

// NewTokenizer loads the named BPE encoding (cl100k_base, o200k_base).
// When it cannot be loaded, e.g. offline, counts are estimated instead.
func NewTokenizer(encodingName string) *Tokenizer {
	t := &Tokenizer{name: encodingName}
	if cached, ok := encoders.Load(encodingName); ok {
		t.enc = cached.(*tiktoken.Tiktoken)
		return t
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return t
	}
	encoders.Store(encodingName, enc)
	t.enc = enc
	return t
}

// Heuristic returns a tokenizer that never loads BPE data.
func Heuristic() *Tokenizer {
	return &Tokenizer{name: heuristicName}
}

// NewTokenizerForModel picks the encoding the model family uses.
func NewTokenizerForModel(model string) *Tokenizer {
	return NewTokenizer(modelToEncoding(model))
}

// Resolve 接受编码名、模型名或 "heuristic"
// Resolve accepts an encoding name (cl100k_base), a model name, or
// "heuristic" to skip BPE loading.
func Resolve(name string) *Tokenizer {
	name = strings.TrimSpace(name)
	switch {
	case strings.EqualFold(name, heuristicName):
		return Heuristic()
	case strings.HasSuffix(name, "_base"):
		return NewTokenizer(name)
	default:
		return NewTokenizerForModel(name)
	}
}

// CountLines returns the token count of lines joined by newlines, one
// token per line break.
func (t *Tokenizer) CountLines(lines []string) int {
	total := 0
	for _, line := range lines {
		total += t.CountText(line) + 1
	}
	return total
}

func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.enc == nil {
		return estimateTokens(text)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// IsPrecise reports whether counts come from a BPE encoder.
func (t *Tokenizer) IsPrecise() bool {
	return t.enc != nil
}

func (t *Tokenizer) EncodingName() string {
	return t.name
}

// estimateTokens 估算: CJK 约 1.5 token/字, 其余约 4 字符/token
// estimateTokens assumes ~1.5 tokens per CJK rune and ~4 other runes per
// token, rounding up.
func estimateTokens(text string) int {
	var wide, narrow int
	for _, r := range text {
		if isWide(r) {
			wide++
		} else {
			narrow++
		}
	}
	return (6*wide + narrow + 3) / 4
}

func isWide(r rune) bool {
	switch {
	case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hangul, r),
		unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK punctuation
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // fullwidth forms
		return true
	}
	return false
}

// modelEncodings maps model name prefixes to their BPE encoding. Anything
// not listed (Qwen, Claude and older GPT models included) uses cl100k_base.
var modelEncodings = []struct {
	prefix   string
	encoding string
}{
	{"o1", "o200k_base"},
	{"o3", "o200k_base"},
	{"o4", "o200k_base"},
	{"gpt-4o", "o200k_base"},
	{"chatgpt-4o", "o200k_base"},
	{"gpt-4.1", "o200k_base"},
	{"gpt-5", "o200k_base"},
}

func modelToEncoding(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, e := range modelEncodings {
		if strings.HasPrefix(m, e.prefix) {
			return e.encoding
		}
	}
	return "cl100k_base"
}
