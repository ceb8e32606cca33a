package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSubject    = errors.New("token has no subject")
)

type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

// Parse validates an HS256 token and maps its claims onto a Principal.
func (p *TokenParser) Parse(raw string) (Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return Anonymous, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Anonymous, ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return Anonymous, ErrNoSubject
	}

	return Principal{
		ID:    sub,
		Role:  stringClaim(claims, "role"),
		Email: stringClaim(claims, "email"),
		Name:  stringClaim(claims, "name"),
	}, nil
}

// Sign issues a token for the principal. Used by tooling and tests.
func (p *TokenParser) Sign(principal Principal, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   principal.ID,
		"role":  principal.Role,
		"email": principal.Email,
		"name":  principal.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
