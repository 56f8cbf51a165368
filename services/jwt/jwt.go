package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// AccessTokenValidity bounds how long an access token lives.
	AccessTokenValidity = time.Hour * 24
	// RefreshTokenValidity bounds how long a refresh token lives.
	RefreshTokenValidity = time.Hour * 24 * 7
	// ResetTokenValidity bounds how long a password reset link stays usable.
	ResetTokenValidity = time.Minute * 20
)

// GenerateTokenPair returns an access and refresh token for the user.
func GenerateTokenPair(email, secret string, userID uint) (string, string, error) {
	accessToken, err := GenerateToken(email, secret, userID)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"exp":   time.Now().Add(RefreshTokenValidity).Unix(),
		"sub":   "refresh",
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// GenerateToken signs an access token carrying the user id and email.
func GenerateToken(email, secret string, userID uint) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is empty")
	}
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"exp":   time.Now().Add(AccessTokenValidity).Unix(),
		"sub":   "access",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateAndGetClaims parses and verifies a token, returning its claims.
func ValidateAndGetClaims(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GeneratePasswordResetToken signs a short-lived token embedding the user id.
func GeneratePasswordResetToken(userID uint, secret string) (string, error) {
	claims := jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(ResetTokenValidity).Unix(),
		"sub": "password_reset",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidatePasswordResetToken verifies a reset token and extracts the user id.
func ValidatePasswordResetToken(tokenString, secret string) (uint, error) {
	claims, err := ValidateAndGetClaims(tokenString, secret)
	if err != nil {
		return 0, err
	}
	if sub, _ := claims["sub"].(string); sub != "password_reset" {
		return 0, fmt.Errorf("not a password reset token")
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid user id in token")
	}
	return uint(id), nil
}
