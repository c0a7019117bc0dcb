package langdetect

import "testing"

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{" EN_us ", "en-us"},
		{"pt-BR", "pt-br"},
		{"", ""},
		{"en us", ""},
		{"12", ""},
	}

	for _, tc := range cases {
		if got := NormalizeTag(tc.in); got != tc.want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	if got := NormalizeCode("en-US"); got != "en" {
		t.Fatalf("unexpected primary subtag: %q", got)
	}
	if got := NormalizeCode("de"); got != "de" {
		t.Fatalf("unexpected primary subtag: %q", got)
	}
	if got := NormalizeCode("!!"); got != "" {
		t.Fatalf("expected empty code for invalid tag, got %q", got)
	}
}

func TestResolveLanguage_PrefersDeclared(t *testing.T) {
	t.Parallel()

	if got := ResolveLanguage("FR", "this is clearly english text"); got != "fr" {
		t.Fatalf("expected declared language to win, got %q", got)
	}
}

func TestResolveLanguage_FallsBackToUnd(t *testing.T) {
	t.Parallel()

	if got := ResolveLanguage("", "   "); got != "und" {
		t.Fatalf("expected und for empty input, got %q", got)
	}
}
