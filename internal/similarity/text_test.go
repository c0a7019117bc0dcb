package similarity

import "testing"

func TestTokenJaccard(t *testing.T) {
	t.Parallel()

	if score := TokenJaccard("acme launches orbital drone", "acme launches orbital drone"); score != 1 {
		t.Fatalf("expected identical titles to score 1, got %f", score)
	}

	score := TokenJaccard("acme launches orbital drone", "acme launches drone platform")
	if score <= 0 || score >= 1 {
		t.Fatalf("expected partial overlap score in (0,1), got %f", score)
	}

	if score := TokenJaccard("alpha beta", "gamma delta"); score != 0 {
		t.Fatalf("expected disjoint titles to score 0, got %f", score)
	}

	if score := TokenJaccard("", "anything"); score != 0 {
		t.Fatalf("expected empty input to score 0, got %f", score)
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()

	if score := Cosine("the quick brown fox", "the quick brown fox"); score < 0.999 {
		t.Fatalf("expected identical text to score ~1, got %f", score)
	}

	score := Cosine("markets rally on rate cut hopes", "markets fall on rate fears")
	if score <= 0 || score >= 1 {
		t.Fatalf("expected partial cosine in (0,1), got %f", score)
	}

	if score := Cosine("alpha", "beta"); score != 0 {
		t.Fatalf("expected disjoint vocabularies to score 0, got %f", score)
	}
}

func TestCosine_Symmetric(t *testing.T) {
	t.Parallel()

	a := "council approves new housing development downtown"
	b := "new downtown housing plan approved by council"
	if Cosine(a, b) != Cosine(b, a) {
		t.Fatalf("expected cosine to be symmetric")
	}
}

func TestLevenshtein(t *testing.T) {
	t.Parallel()

	if d := Levenshtein("kitten", "sitting"); d != 3 {
		t.Fatalf("unexpected distance: got %d want 3", d)
	}
	if d := Levenshtein("", "abc"); d != 3 {
		t.Fatalf("unexpected distance for empty left: got %d want 3", d)
	}
	if d := Levenshtein("same", "same"); d != 0 {
		t.Fatalf("unexpected distance for identical input: got %d want 0", d)
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	t.Parallel()

	if score := LevenshteinSimilarity("breaking news", "breaking news"); score != 1 {
		t.Fatalf("expected identical strings to score 1, got %f", score)
	}

	score := LevenshteinSimilarity("breaking news today", "breaking news tonight")
	if score <= 0.5 || score >= 1 {
		t.Fatalf("expected near-identical strings in (0.5,1), got %f", score)
	}

	if score := LevenshteinSimilarity("", ""); score != 0 {
		t.Fatalf("expected empty pair to score 0, got %f", score)
	}
}

func TestTrigram(t *testing.T) {
	t.Parallel()

	score := Trigram("openai releases model", "openai released model")
	if score <= 0 || score >= 1 {
		t.Fatalf("expected partial trigram overlap in (0,1), got %f", score)
	}

	if score := Trigram("ab", "ab"); score != 1 {
		t.Fatalf("expected short identical strings to score 1, got %f", score)
	}
}

func TestNGram_CustomSize(t *testing.T) {
	t.Parallel()

	bigram := NGram("stock market", "stock markets", 2)
	if bigram <= 0 || bigram > 1 {
		t.Fatalf("expected bigram score in (0,1], got %f", bigram)
	}
}
