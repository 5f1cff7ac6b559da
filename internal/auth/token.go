package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ariefcatur/go-sales-crm.git/internal/orders"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carry the seller identity the lifecycle layer needs, so a
// valid token is enough to build the Actor without a user lookup.
type Claims struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

func (m *TokenManager) Issue(u orders.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:     u.Name,
		Lastname: u.Lastname,
		Email:    u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.Secret)
}

// Verify parses and validates a token and returns the embedded actor.
func (m *TokenManager) Verify(tokenString string) (orders.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return orders.Actor{}, ErrExpiredToken
		}
		return orders.Actor{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return orders.Actor{}, ErrInvalidToken
	}
	return orders.Actor{
		ID:       claims.Subject,
		Name:     claims.Name,
		Lastname: claims.Lastname,
		Email:    claims.Email,
	}, nil
}
