package matcher

import (
	"github.com/agnivade/levenshtein"
)

// wordRatio is a normalized edit-distance similarity between two words:
// 1.0 for identical strings, approaching 0 for disjoint ones.
func wordRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// sequenceRatio is a longest-common-subsequence similarity over token
// sequences: 2*LCS / (len(a)+len(b)).
func sequenceRatio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	lcs := lcsLength(a, b)
	return 2.0 * float64(lcs) / float64(len(a)+len(b))
}

func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// blendedSimilarity scores tokenized input against a template: 0.4 weight on
// whole-sequence similarity (input truncated to the template's literal word
// count) and 0.6 on the mean of per-position word similarities, with missing
// positions scoring zero.
func blendedSimilarity(inputTokens []string, templateTokens []templateToken) float64 {
	patternWords := literalWords(templateTokens)
	if len(patternWords) == 0 {
		return 0.0
	}

	truncated := inputTokens
	if len(truncated) > len(patternWords) {
		truncated = truncated[:len(patternWords)]
	}
	seqSimilarity := sequenceRatio(truncated, patternWords)

	var sum float64
	for i, word := range patternWords {
		if i < len(inputTokens) {
			sum += wordRatio(inputTokens[i], word)
		}
	}
	avgWordSimilarity := sum / float64(len(patternWords))

	return 0.4*seqSimilarity + 0.6*avgWordSimilarity
}
