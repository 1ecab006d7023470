package budget

import "testing"

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},        // ceil(1/4)=1
		{"abcd", 1},     // ceil(4/4)=1
		{"abcde", 2},    // ceil(5/4)=2
		{"天行健", 3},      // one per han rune
		{"天行健abcd", 4},  // 3 + ceil(4/4)
		{"自强不息。", 5}, // fullwidth period counts as other: 4 + ceil(3/4)
	}
	for _, c := range cases {
		if got := EstimateTokens(c.in); got != c.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestEstimatePromptTokens(t *testing.T) {
	// "system"(6)->2, "user message"(12)->3
	if got := EstimatePromptTokens("system", "user message"); got != 5 {
		t.Fatalf("EstimatePromptTokens() = %d, want 5", got)
	}
}

func TestModelContextTokens(t *testing.T) {
	if ModelContextTokens("") != 8192 {
		t.Fatal("empty model should default to 8192")
	}
	if ModelContextTokens("GPT-4o") < 100_000 {
		t.Fatal("case-insensitive match for gpt-4o should be ~128k")
	}
	if ModelContextTokens("deepseek/deepseek-v3.2-251201") != 128_000 {
		t.Fatal("provider-prefixed deepseek id should resolve via bare name")
	}
	if ModelContextTokens("mystery-200k") != 200_000 {
		t.Fatal("numeric suffix heuristic 200k should map to 200k tokens")
	}
	if ModelContextTokens("unknown") != 8192 {
		t.Fatal("unknown model should default to 8192")
	}
}

func TestFitsInContext(t *testing.T) {
	max := ModelContextTokens("gpt-4o")
	if !FitsInContext("gpt-4o", 2000, max/2) {
		t.Fatal("half the window should fit")
	}
	if FitsInContext("gpt-4o", 2000, max) {
		t.Fatal("full window plus reservation should not fit")
	}
}
