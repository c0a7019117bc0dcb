package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("sw0rdfish")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "sw0rdfish" {
		t.Fatalf("expected hash to differ from plaintext")
	}
	if !VerifyPassword("sw0rdfish", hash) {
		t.Fatalf("expected correct password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Fatalf("did not expect wrong password to verify")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("   "); err == nil {
		t.Fatalf("expected error for blank password")
	}
}

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()

	if got := NormalizeUsername("  Admin "); got != "admin" {
		t.Fatalf("unexpected normalized username: %q", got)
	}
}
