package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/o1egl/paseto"
)

const (
	AccessTokenExpiry  = 15 * time.Minute
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenClaims is the payload carried by both token formats.
// Email and Role are only set on access tokens.
type TokenClaims struct {
	TokenID   string    `json:"jti"`
	UserID    string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	Kind      TokenKind `json:"kind"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

func newClaims(userID, email, role string, kind TokenKind, ttl time.Duration) TokenClaims {
	now := time.Now()
	return TokenClaims{
		TokenID:   uuid.NewString(),
		UserID:    userID,
		Email:     email,
		Role:      role,
		Kind:      kind,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// TokenMaker mints and verifies one kind of session token.
type TokenMaker interface {
	CreateToken(userID, email, role string, ttl time.Duration) (string, *TokenClaims, error)
	VerifyToken(token string) (*TokenClaims, error)
}

// NewTokenMaker builds the maker for format ("jwt" or "paseto").
func NewTokenMaker(format, secret string, kind TokenKind) (TokenMaker, error) {
	switch format {
	case "", "jwt":
		return NewJWTMaker(secret, kind)
	case "paseto":
		return NewPasetoMaker(secret, kind)
	}
	return nil, fmt.Errorf("unknown token format %q", format)
}

// HashToken returns the hex SHA-256 digest stored in place of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type jwtClaims struct {
	Email string    `json:"email,omitempty"`
	Role  string    `json:"role,omitempty"`
	Kind  TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// JWTMaker signs HS256 JSON Web Tokens.
type JWTMaker struct {
	secret []byte
	kind   TokenKind
}

func NewJWTMaker(secret string, kind TokenKind) (*JWTMaker, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("%s token secret must be at least 16 characters", kind)
	}
	return &JWTMaker{secret: []byte(secret), kind: kind}, nil
}

func (m *JWTMaker) CreateToken(userID, email, role string, ttl time.Duration) (string, *TokenClaims, error) {
	claims := newClaims(userID, email, role, m.kind, ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Email: claims.Email,
		Role:  claims.Role,
		Kind:  claims.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.TokenID,
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, &claims, nil
}

func (m *JWTMaker) VerifyToken(tokenString string) (*TokenClaims, error) {
	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if parsed.Kind != m.kind || parsed.Subject == "" {
		return nil, ErrInvalidToken
	}
	claims := &TokenClaims{
		TokenID: parsed.ID,
		UserID:  parsed.Subject,
		Email:   parsed.Email,
		Role:    parsed.Role,
		Kind:    parsed.Kind,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	claims.ExpiresAt = parsed.ExpiresAt.Time
	return claims, nil
}

// PasetoMaker encrypts v2.local PASETO tokens with a 32-byte symmetric key.
type PasetoMaker struct {
	paseto       *paseto.V2
	symmetricKey []byte
	kind         TokenKind
}

func NewPasetoMaker(symmetricKey string, kind TokenKind) (*PasetoMaker, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("%s symmetric key must be 32 bytes long, got %d", kind, len(symmetricKey))
	}
	return &PasetoMaker{paseto: paseto.NewV2(), symmetricKey: []byte(symmetricKey), kind: kind}, nil
}

func (m *PasetoMaker) CreateToken(userID, email, role string, ttl time.Duration) (string, *TokenClaims, error) {
	claims := newClaims(userID, email, role, m.kind, ttl)
	token, err := m.paseto.Encrypt(m.symmetricKey, claims, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, &claims, nil
}

func (m *PasetoMaker) VerifyToken(token string) (*TokenClaims, error) {
	var claims TokenClaims
	if err := m.paseto.Decrypt(token, m.symmetricKey, &claims, nil); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Kind != m.kind || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if time.Now().After(claims.ExpiresAt) {
		return nil, ErrExpiredToken
	}
	return &claims, nil
}
