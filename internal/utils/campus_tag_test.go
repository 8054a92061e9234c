package utils

import (
	"strings"
	"testing"
)

func TestGenerateCampusTag(t *testing.T) {
	tag := GenerateCampusTag("Priya Sharma")

	if !strings.HasPrefix(tag, "#PRIYA-") {
		t.Fatalf("unexpected tag %q", tag)
	}
	if !ValidateCampusTag(tag) {
		t.Fatalf("generated tag %q does not validate", tag)
	}
}

func TestGenerateCampusTagTruncatesLongNames(t *testing.T) {
	tag := GenerateCampusTag("Balasubramanian")

	if !strings.HasPrefix(tag, "#BALASU-") {
		t.Fatalf("long name not truncated: %q", tag)
	}
}

func TestGenerateCampusTagEmptyName(t *testing.T) {
	tag := GenerateCampusTag("")

	if !strings.HasPrefix(tag, "#USER-") {
		t.Fatalf("unexpected fallback tag %q", tag)
	}
	if !ValidateCampusTag(tag) {
		t.Fatalf("fallback tag %q does not validate", tag)
	}
}

func TestValidateCampusTag(t *testing.T) {
	cases := []struct {
		tag   string
		valid bool
	}{
		{"#PRIYA-204", true},
		{"#USER-100", true},
		{"PRIYA-204", false},
		{"#PRIYA", false},
		{"#", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidateCampusTag(tc.tag); got != tc.valid {
			t.Errorf("ValidateCampusTag(%q) = %v, want %v", tc.tag, got, tc.valid)
		}
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hostel-wifi-123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hostel-wifi-123" {
		t.Fatal("password stored in plaintext")
	}

	if !CheckPassword(hash, "hostel-wifi-123") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatal("wrong password accepted")
	}
}
