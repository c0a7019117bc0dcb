package similarity

import (
	"math"
	"strings"
	"unicode"
)

// normalizeText lowercases, collapses whitespace and drops control runes.
func normalizeText(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

func tokenize(text string) []string {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil
	}

	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

func tokenSet(text string) map[string]struct{} {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func ngramSet(text string, n int) map[string]struct{} {
	if n < 1 {
		n = 3
	}
	normalized := normalizeText(text)
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	if len(runes) < n {
		return map[string]struct{}{string(runes): {}}
	}

	set := make(map[string]struct{}, len(runes)-n+1)
	for i := 0; i <= len(runes)-n; i++ {
		set[string(runes[i:i+n])] = struct{}{}
	}
	return set
}

func setJaccard(left, right map[string]struct{}) float64 {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	intersection := 0
	for token := range left {
		if _, ok := right[token]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}

	union := len(left) + len(right) - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TokenJaccard is the Jaccard coefficient over word-token sets.
func TokenJaccard(left, right string) float64 {
	return setJaccard(tokenSet(left), tokenSet(right))
}

// NGram is the Jaccard coefficient over character n-gram sets.
func NGram(left, right string, n int) float64 {
	return setJaccard(ngramSet(left, n), ngramSet(right, n))
}

// Trigram is NGram with n=3, the default used for titles and URLs.
func Trigram(left, right string) float64 {
	return NGram(left, right, 3)
}

// Cosine computes cosine similarity over bag-of-words term-frequency vectors.
func Cosine(left, right string) float64 {
	leftFreq := termFrequencies(left)
	rightFreq := termFrequencies(right)
	if len(leftFreq) == 0 || len(rightFreq) == 0 {
		return 0
	}

	var dot float64
	for term, lf := range leftFreq {
		if rf, ok := rightFreq[term]; ok {
			dot += float64(lf) * float64(rf)
		}
	}
	if dot == 0 {
		return 0
	}

	return dot / (vectorNorm(leftFreq) * vectorNorm(rightFreq))
}

func termFrequencies(text string) map[string]int {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	freq := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freq[token]++
	}
	return freq
}

func vectorNorm(freq map[string]int) float64 {
	var sum float64
	for _, count := range freq {
		sum += float64(count) * float64(count)
	}
	return math.Sqrt(sum)
}

// Levenshtein returns the edit distance between two strings, by rune.
func Levenshtein(left, right string) int {
	a := []rune(normalizeText(left))
	b := []rune(normalizeText(right))
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// LevenshteinSimilarity maps edit distance onto [0,1]; identical inputs score 1.
func LevenshteinSimilarity(left, right string) float64 {
	a := normalizeText(left)
	b := normalizeText(right)
	if a == "" && b == "" {
		return 0
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	return 1 - (float64(Levenshtein(a, b)) / float64(maxLen))
}

func minInt(values ...int) int {
	result := values[0]
	for _, v := range values[1:] {
		if v < result {
			result = v
		}
	}
	return result
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
