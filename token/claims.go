package token

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var (
	// ErrMalformed is returned when a token is not three dot-separated segments
	// or its payload is not a JSON object.
	ErrMalformed = errors.New("malformed token")

	// ErrExpired is returned when the token's exp claim is in the past.
	ErrExpired = errors.New("token expired")
)

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode returns the payload claims of a raw token without verifying its signature.
// The header segment is not inspected.
func Decode(raw string) (jwt.MapClaims, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return nil, errors.Wrapf(ErrMalformed, "expected 3 segments, got %d", len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	claims := jwt.MapClaims{}
	dec := json.NewDecoder(strings.NewReader(string(payload)))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	return claims, nil
}

// CheckExpiry returns ErrExpired when the claims carry an exp in the past.
// Tokens without exp never expire here.
func CheckExpiry(claims jwt.MapClaims) error {
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return errors.Wrap(ErrMalformed, err.Error())
	}
	if exp != nil && exp.Time.Before(NowTimeFunc()) {
		return ErrExpired
	}
	return nil
}

// Expiry returns the exp claim of a raw token, or the zero time if it has none
// or cannot be decoded.
func Expiry(raw string) time.Time {
	claims, err := Decode(raw)
	if err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Valid reports whether raw has three segments, a decodable payload and no exp in the past.
func Valid(raw string) bool {
	if raw == "" {
		return false
	}
	claims, err := Decode(raw)
	if err != nil {
		return false
	}
	return CheckExpiry(claims) == nil
}
