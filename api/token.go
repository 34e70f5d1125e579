package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var errInvalidToken = errors.New("invalid token")

// tokenClaims is the identity snapshot carried by a bearer token. The fields
// are copied at issue time and are not refreshed when the user changes.
type tokenClaims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	jwt.RegisteredClaims
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenService(secret string, ttl time.Duration) *tokenService {
	return &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (ts *tokenService) issue(u *user) (string, error) {
	now := ts.now()
	claims := tokenClaims{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.avatarOrDefault(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secret)
}

// verify checks signature, structure and expiry. Every failure wraps
// errInvalidToken.
func (ts *tokenService) verify(tokenStr string) (*tokenClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &tokenClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errInvalidToken
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(ts.now()) {
		return nil, fmt.Errorf("%w: token is expired", errInvalidToken)
	}
	return claims, nil
}
