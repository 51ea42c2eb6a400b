package utils

import (
	"errors"
	"time"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// AccessClaims identify the caller of an API request
type AccessClaims struct {
	UserID   uuid.UUID       `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     models.RoleName `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carry just enough to mint a new access token.
// ID (jti) keeps two tokens issued in the same second distinct.
type RefreshClaims struct {
	UserID uuid.UUID       `json:"id"`
	Role   models.RoleName `json:"role"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(user *models.User, secretKey string, expiresIn time.Duration) (string, error) {
	now := time.Now()

	claims := &AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.RoleName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
}

// GenerateRefreshToken returns the signed token and its expiry
func GenerateRefreshToken(user *models.User, secretKey string, expiresIn time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(expiresIn)

	claims := &RefreshClaims{
		UserID: user.ID,
		Role:   user.RoleName(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func ValidateAccessToken(tokenString, secretKey string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parseToken(tokenString, secretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func ValidateRefreshToken(tokenString, secretKey string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parseToken(tokenString, secretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// parseToken verifies signature and expiry, folding jwt's errors into
// ErrExpiredToken or ErrInvalidToken.
func parseToken(tokenString, secretKey string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
