package similarity

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Blend weights for the per-field and combined scores. Levenshtein is skipped
// over long bodies because its O(n*m) cost buys nothing once trigram and
// cosine agree.
const (
	titleJaccardWeight     = 0.30
	titleCosineWeight      = 0.30
	titleLevenshteinWeight = 0.20
	titleTrigramWeight     = 0.20

	contentJaccardWeight = 0.35
	contentCosineWeight  = 0.35
	contentTrigramWeight = 0.30

	overallTitleWeight   = 0.60
	overallContentWeight = 0.40

	confidenceOverallWeight = 0.55
	confidenceURLWeight     = 0.20
	confidenceTimeWeight    = 0.15
	confidenceLengthWeight  = 0.10

	exactURLConfidenceFloor = 0.95

	duplicateOverallThreshold    = 0.75
	duplicateConfidenceThreshold = 0.80

	levenshteinContentLimit = 512
)

var trackingQueryKeys = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
}

// Item is the projection of a news row the comparator needs.
type Item struct {
	ID          int64
	UUID        string
	Title       string
	Content     string
	URL         string
	PublishedAt *time.Time
	Processed   bool
}

// Match is the result of comparing two items.
type Match struct {
	TitleScore   float64 `json:"title_score"`
	ContentScore float64 `json:"content_score"`
	Overall      float64 `json:"overall"`
	URLScore     float64 `json:"url_score"`
	ExactURL     bool    `json:"exact_url"`
	TimeScore    float64 `json:"time_score"`
	LengthRatio  float64 `json:"length_ratio"`
	Confidence   float64 `json:"confidence"`
	IsDuplicate  bool    `json:"is_duplicate"`
}

// TitleSimilarity blends four metrics into a single title score.
func TitleSimilarity(left, right string) float64 {
	return clamp01(titleJaccardWeight*TokenJaccard(left, right) +
		titleCosineWeight*Cosine(left, right) +
		titleLevenshteinWeight*LevenshteinSimilarity(left, right) +
		titleTrigramWeight*Trigram(left, right))
}

// ContentSimilarity blends Jaccard, cosine and trigram over body text.
func ContentSimilarity(left, right string) float64 {
	score := contentJaccardWeight*TokenJaccard(left, right) +
		contentCosineWeight*Cosine(left, right) +
		contentTrigramWeight*Trigram(left, right)

	// Short bodies get the stricter edit-distance metric folded in.
	if len(left) <= levenshteinContentLimit && len(right) <= levenshteinContentLimit {
		score = 0.85*score + 0.15*LevenshteinSimilarity(left, right)
	}
	return clamp01(score)
}

// Overall blends title and content scores.
func Overall(titleScore, contentScore float64) float64 {
	return clamp01(overallTitleWeight*titleScore + overallContentWeight*contentScore)
}

// Compare produces the full multi-signal match between two items.
func Compare(left, right Item) Match {
	titleScore := TitleSimilarity(left.Title, right.Title)
	contentScore := ContentSimilarity(left.Content, right.Content)
	overall := Overall(titleScore, contentScore)

	urlScore, exactURL := urlSimilarity(left.URL, right.URL)
	timeScore := timeProximity(left.PublishedAt, right.PublishedAt)
	lengthRatio := contentLengthRatio(left.Content, right.Content)

	confidence := clamp01(confidenceOverallWeight*overall +
		confidenceURLWeight*urlScore +
		confidenceTimeWeight*timeScore +
		confidenceLengthWeight*lengthRatio)
	if exactURL && confidence < exactURLConfidenceFloor {
		confidence = exactURLConfidenceFloor
	}

	return Match{
		TitleScore:   titleScore,
		ContentScore: contentScore,
		Overall:      overall,
		URLScore:     urlScore,
		ExactURL:     exactURL,
		TimeScore:    timeScore,
		LengthRatio:  lengthRatio,
		Confidence:   confidence,
		IsDuplicate:  overall >= duplicateOverallThreshold || confidence >= duplicateConfidenceThreshold,
	}
}

func urlSimilarity(left, right string) (score float64, exact bool) {
	leftNorm := NormalizeURL(left)
	rightNorm := NormalizeURL(right)
	if leftNorm == "" || rightNorm == "" {
		return 0, false
	}
	if leftNorm == rightNorm {
		return 1, true
	}
	return Trigram(leftNorm, rightNorm), false
}

func timeProximity(left, right *time.Time) float64 {
	if left == nil || right == nil || left.IsZero() || right.IsZero() {
		return 0
	}
	diff := math.Abs(left.UTC().Sub(right.UTC()).Hours())
	switch {
	case diff <= 2:
		return 1
	case diff <= 24:
		return 0.7
	case diff <= 72:
		return 0.4
	default:
		return 0
	}
}

func contentLengthRatio(left, right string) float64 {
	leftLen := len(normalizeText(left))
	rightLen := len(normalizeText(right))
	if leftLen == 0 || rightLen == 0 {
		return 0
	}
	if leftLen > rightLen {
		leftLen, rightLen = rightLen, leftLen
	}
	return float64(leftLen) / float64(rightLen)
}

// NormalizeURL canonicalizes a URL for equality checks: lowercased scheme and
// host, default ports and fragments stripped, tracking query params removed,
// remaining query keys sorted.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Hostname())
	if port := parsed.Port(); port != "" {
		defaultPort := (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443")
		if !defaultPort {
			parsed.Host = parsed.Host + ":" + port
		}
	}

	parsed.Fragment = ""
	path := strings.TrimSpace(parsed.EscapedPath())
	if path == "" {
		path = "/"
	}
	path = strings.ReplaceAll(path, "//", "/")
	if strings.HasSuffix(path, "/") && path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	parsed.Path = path
	parsed.RawPath = ""

	q := parsed.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			q.Del(key)
			continue
		}
		if _, ok := trackingQueryKeys[lower]; ok {
			q.Del(key)
		}
	}
	if len(q) > 0 {
		keys := make([]string, 0, len(q))
		for key := range q {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		reordered := url.Values{}
		for _, key := range keys {
			values := q[key]
			sort.Strings(values)
			for _, value := range values {
				reordered.Add(key, value)
			}
		}
		parsed.RawQuery = reordered.Encode()
	} else {
		parsed.RawQuery = ""
	}

	return parsed.String()
}
