package utils

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "priya@campus.edu", "#PRIYA-204")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "priya@campus.edu" || claims.CampusTag != "#PRIYA-204" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Fatal("malformed token accepted")
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	token, err := GenerateToken("user-1", "priya@campus.edu", "#PRIYA-204")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered); err == nil {
		t.Fatal("tampered token accepted")
	}
}
