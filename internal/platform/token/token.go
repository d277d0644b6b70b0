// Package token validates the bearer tokens minted by the external identity
// substrate. Only the subject claim matters to this system: it is the
// caller's account identity and payout address.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"domus/pkg/domain"
)

// Validator checks HS256 tokens against the shared signing key.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// Validate parses and verifies the token, returning the subject as the
// caller account.
func (v *Validator) Validate(tokenString string) (domain.AccountID, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return domain.AccountID(subject), nil
}

// Sign mints a token for the account. Used by tests and local tooling; in
// production the identity substrate issues tokens.
func (v *Validator) Sign(account domain.AccountID) (string, error) {
	claims := jwt.MapClaims{"sub": account.String()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
