package jwt

import "testing"

const testSecret = "test-secret"

func TestGenerateTokenPairRoundTrip(t *testing.T) {
	access, refresh, err := GenerateTokenPair("ana@example.com", testSecret, 42)
	if err != nil {
		t.Fatal(err)
	}
	if access == "" || refresh == "" {
		t.Fatal("empty token in pair")
	}

	claims, err := ValidateAndGetClaims(access, testSecret)
	if err != nil {
		t.Fatalf("access token did not validate: %v", err)
	}
	if claims["email"] != "ana@example.com" {
		t.Errorf("email claim = %v", claims["email"])
	}
	if id, ok := claims["id"].(float64); !ok || uint(id) != 42 {
		t.Errorf("id claim = %v", claims["id"])
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	access, _, err := GenerateTokenPair("ana@example.com", testSecret, 42)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateAndGetClaims(access, "other-secret"); err == nil {
		t.Error("token validated with the wrong secret")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if _, err := ValidateAndGetClaims("not.a.token", testSecret); err == nil {
		t.Error("garbage token validated")
	}
}

func TestPasswordResetTokenRoundTrip(t *testing.T) {
	token, err := GeneratePasswordResetToken(7, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	userID, err := ValidatePasswordResetToken(token, testSecret)
	if err != nil {
		t.Fatalf("reset token did not validate: %v", err)
	}
	if userID != 7 {
		t.Errorf("user id = %d, want 7", userID)
	}
}

func TestAccessTokenIsNotAResetToken(t *testing.T) {
	access, err := GenerateToken("ana@example.com", testSecret, 7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidatePasswordResetToken(access, testSecret); err == nil {
		t.Error("access token accepted as a password reset token")
	}
}
