package budget

import (
	"math"
	"strings"
	"unicode"
)

// EstimateTokens returns a conservative token estimate for s. Han, kana and
// hangul runes count as one token each; everything else at ~4 bytes per
// token.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	cjk := 0
	other := 0
	for _, r := range s {
		if isCJK(r) {
			cjk++
			continue
		}
		other += len(string(r))
	}
	return cjk + int(math.Ceil(float64(other)/4.0))
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r)
}

// EstimatePromptTokens estimates the total tokens of a system and user
// message pair.
func EstimatePromptTokens(system string, user string) int {
	return EstimateTokens(system) + EstimateTokens(user)
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to a conservative default.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return 8192
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	// provider/model identifiers: try the bare model name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		if v, ok := knownModelMax[name[i+1:]]; ok {
			return v
		}
	}
	switch {
	case strings.HasSuffix(name, "1m"):
		return 1_000_000
	case strings.HasSuffix(name, "200k"):
		return 200_000
	case strings.HasSuffix(name, "128k"):
		return 128_000
	case strings.Contains(name, "deepseek"), strings.Contains(name, "qwen"):
		return 128_000
	case strings.Contains(name, "-mini"):
		return 128_000
	}
	return 8192
}

// FitsInContext reports whether promptTokens plus the output reservation fit
// in the model's context window.
func FitsInContext(modelName string, reservedForOutput int, promptTokens int) bool {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	return ModelContextTokens(modelName)-reservedForOutput-promptTokens > 0
}

// knownModelMax contains rough context sizes for common model identifiers.
var knownModelMax = map[string]int{
	"gpt-4o":                 128_000,
	"gpt-4o-mini":            128_000,
	"gpt-4-turbo":            128_000,
	"gpt-3.5-turbo":          16_384,
	"deepseek-chat":          64_000,
	"deepseek-v3":            128_000,
	"deepseek-v3.2-251201":   128_000,
	"qwen-plus":              131_072,
	"qwen-turbo":             1_000_000,
	"glm-4":                  128_000,
	"moonshot-v1-8k":         8_192,
	"moonshot-v1-32k":        32_768,
	"moonshot-v1-128k":       128_000,
	"test-model":             8_192,
}
