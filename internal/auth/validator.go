package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the authenticated identity extracted from a bearer token.
// Tokens are issued by the identity service; this backend only verifies.
type Claims struct {
	UserID string
	OrgID  string
	Role   string
}

// Validator parses and validates HMAC-signed bearer tokens.
type Validator struct {
	Secret    []byte
	Issuer    string
	ClockSkew time.Duration
	Now       func() time.Time
}

var errInvalidToken = errors.New("auth: invalid token")

// Parse verifies the token signature and registered claims and extracts
// the POS identity claims.
func (v Validator) Parse(raw string) (Claims, error) {
	if len(v.Secret) == 0 {
		return Claims{}, errors.New("auth: validator secret not configured")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, errInvalidToken
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, v.Secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(now)),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	tok, err := jwt.Parse([]byte(raw), options...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	claims := Claims{UserID: tok.Subject()}
	if org, ok := tok.Get("org"); ok {
		claims.OrgID, _ = org.(string)
	}
	if role, ok := tok.Get("role"); ok {
		claims.Role, _ = role.(string)
	}
	if claims.UserID == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", errInvalidToken)
	}
	return claims, nil
}
