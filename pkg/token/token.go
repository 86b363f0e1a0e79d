package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType set member role
type RoleType string

const (
	// RoleUser is the user role
	RoleUser RoleType = "user"
	// RoleAssistant is the AI assistant identity, never issued a token
	RoleAssistant RoleType = "assistant"
)

// Claims structure for custom claims in JWT
type Claims struct {
	MemberID string `json:"user_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidToken token parse / claims failed
var ErrInvalidToken = errors.New("invalid token")

var (
	// JWTSecret key for JWT signing and validation
	JWTSecret       = []byte("secure_secret_key")
	tokenExpiration = 24 * time.Hour
	tokenIssuer     = "vach_chat_service"
)

// Configure set secret, ttl and issuer from config
func Configure(secret string, ttl time.Duration, issuer string) {
	if secret != "" {
		JWTSecret = []byte(secret)
	}
	if ttl > 0 {
		tokenExpiration = ttl
	}
	if issuer != "" {
		tokenIssuer = issuer
	}
}

// Expiration current token ttl
func Expiration() time.Duration {
	return tokenExpiration
}

// GenerateJWT generates a JWT token
func GenerateJWT(memberID, role, issuer string) (string, error) {
	claims := Claims{
		MemberID: memberID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// ParseJWT parses a JWT and extracts the Claims
func ParseJWT(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.MemberID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// StripBearer remove "Bearer " prefix of the Authorization header
func StripBearer(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return ""
}
