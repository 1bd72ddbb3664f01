package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims identifies the user and the personal access token row (TokenID) a
// bearer token was issued for.
type Claims struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	TokenID string `json:"jti"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed access token and the identifiers needed to persist it.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// GenerateAccessToken signs an HS256 token with a fresh jti.
func GenerateAccessToken(userID uint, email, secret string, expiry time.Duration) (*IssuedToken, error) {
	now := time.Now()
	tokenID := uuid.NewString()
	expiresAt := now.Add(expiry)

	claims := Claims{
		UserID:  userID,
		Email:   email,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	return &IssuedToken{
		Token:     signed,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses and verifies a token signed by GenerateAccessToken.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
