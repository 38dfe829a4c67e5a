package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingEmail = errors.New("token carries no email")

// Claims is the verified identity attached to a request
type Claims struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

// Verifier validates RS256 ID tokens issued by the identity provider
type Verifier struct {
	keys     *KeySet
	audience string
	issuer   string
}

func NewVerifier(keys *KeySet, audience, issuer string) *Verifier {
	return &Verifier{keys: keys, audience: audience, issuer: issuer}
}

// Verify checks signature, expiry, audience and issuer and returns the caller's identity
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid JWT token")
	}

	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	out := &Claims{Email: email}
	out.UserID, _ = claims["user_id"].(string)
	if out.UserID == "" {
		out.UserID, _ = claims["sub"].(string)
	}
	out.Name, _ = claims["name"].(string)
	return out, nil
}
