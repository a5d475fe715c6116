package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the user-facing projection of an access token's payload.
type Identity struct {
	ID    string         `json:"id" yaml:"id"`
	Email string         `json:"email" yaml:"email"`
	Name  string         `json:"name" yaml:"name"`
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"` // Every other claim, passed through untouched
}

// Claims that map onto Identity's typed fields
var identityClaims = map[string]struct{}{
	"sub":     {},
	"id":      {},
	"user_id": {},
	"email":   {},
	"name":    {},
}

// IdentityFromClaims builds an Identity. The id is taken from sub, then id, then user_id.
func IdentityFromClaims(claims jwt.MapClaims) *Identity {
	identity := &Identity{
		ID:    firstString(claims, "sub", "id", "user_id"),
		Email: firstString(claims, "email"),
		Name:  firstString(claims, "name"),
	}

	for k, v := range claims {
		if _, known := identityClaims[k]; known {
			continue
		}
		if identity.Extra == nil {
			identity.Extra = make(map[string]any)
		}
		identity.Extra[k] = v
	}
	return identity
}

// DecodeIdentity decodes raw and returns its identity. Expired tokens yield ErrExpired.
func DecodeIdentity(raw string) (*Identity, error) {
	claims, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := CheckExpiry(claims); err != nil {
		return nil, err
	}
	return IdentityFromClaims(claims), nil
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		v, ok := claims[k]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if s != "" {
			return s
		}
	}
	return ""
}
